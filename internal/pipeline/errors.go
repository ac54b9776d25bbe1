package pipeline

import "fmt"

const (
	transformErrorTemplateConstant        = "%s: %s: %v"
	transformErrorWithoutPathTemplate     = "%s: %v"
	sourceReadErrorTemplateConstant       = "read %s: %w"
	sourcePatternErrorTemplateConstant    = "invalid pattern %q: %w"
	destinationWriteErrorTemplateConstant = "write %s: %w"
	destinationDirectoryErrorTemplate     = "create directory %s: %w"
)

// TransformError reports which transform rejected which file.
type TransformError struct {
	Transform string
	Path      string
	Cause     error
}

// Error implements the error interface.
func (transformError *TransformError) Error() string {
	if len(transformError.Path) == 0 {
		return fmt.Sprintf(transformErrorWithoutPathTemplate, transformError.Transform, transformError.Cause)
	}
	return fmt.Sprintf(transformErrorTemplateConstant, transformError.Transform, transformError.Path, transformError.Cause)
}

// Unwrap exposes the underlying failure.
func (transformError *TransformError) Unwrap() error {
	return transformError.Cause
}
