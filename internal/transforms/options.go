package transforms

import "fmt"

const missingOptionTemplateConstant = "option %q is required"

type missingOptionError struct {
	Option string
}

func (missingOption missingOptionError) Error() string {
	return fmt.Sprintf(missingOptionTemplateConstant, missingOption.Option)
}
