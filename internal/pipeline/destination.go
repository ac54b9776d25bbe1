package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	defaultFilePermissions      fs.FileMode = 0o644
	defaultDirectoryPermissions fs.FileMode = 0o755
)

// Destination writes records beneath root/directory, creating parent directories as needed.
// It returns the records rebased onto the destination.
func Destination(root string, directory string, records []FileRecord) ([]FileRecord, error) {
	destinationBase := filepath.Join(root, filepath.FromSlash(directory))
	written := make([]FileRecord, 0, len(records))
	for _, record := range records {
		record.Base = destinationBase
		targetPath := record.AbsolutePath()

		if record.IsDirectory() {
			if mkdirError := os.MkdirAll(targetPath, defaultDirectoryPermissions); mkdirError != nil {
				return nil, fmt.Errorf(destinationDirectoryErrorTemplate, targetPath, mkdirError)
			}
			written = append(written, record)
			continue
		}

		if mkdirError := os.MkdirAll(filepath.Dir(targetPath), defaultDirectoryPermissions); mkdirError != nil {
			return nil, fmt.Errorf(destinationDirectoryErrorTemplate, filepath.Dir(targetPath), mkdirError)
		}
		permissions := record.Mode.Perm()
		if permissions == 0 {
			permissions = defaultFilePermissions
		}
		if writeError := os.WriteFile(targetPath, record.Contents, permissions); writeError != nil {
			return nil, fmt.Errorf(destinationWriteErrorTemplateConstant, targetPath, writeError)
		}
		written = append(written, record)
	}
	return written, nil
}

// Apply runs records through transforms in order.
func Apply(executionContext context.Context, records []FileRecord, transforms ...Transform) ([]FileRecord, error) {
	current := records
	for _, transform := range transforms {
		if transform == nil {
			continue
		}
		if contextError := executionContext.Err(); contextError != nil {
			return nil, contextError
		}
		next, applyError := transform.Apply(executionContext, current)
		if applyError != nil {
			return nil, applyError
		}
		current = next
	}
	return current, nil
}
