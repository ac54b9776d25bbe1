package pipeline

import (
	"context"
	"path"
	"strings"
)

const renameTransformNameConstant = "rename"

// Rename rewrites record file names. Empty fields keep the original part.
type Rename struct {
	Basename  string
	Suffix    string
	Extension string
}

// Name identifies the transform.
func (rename Rename) Name() string {
	return renameTransformNameConstant
}

// Apply renames every record.
func (rename Rename) Apply(_ context.Context, records []FileRecord) ([]FileRecord, error) {
	renamed := make([]FileRecord, 0, len(records))
	for _, record := range records {
		record.Path = rename.apply(record.Path)
		renamed = append(renamed, record)
	}
	return renamed, nil
}

func (rename Rename) apply(recordPath string) string {
	directory, fileName := path.Split(recordPath)
	extension := path.Ext(fileName)
	basename := strings.TrimSuffix(fileName, extension)

	if len(rename.Basename) > 0 {
		basename = rename.Basename
	}
	if len(rename.Extension) > 0 {
		extension = rename.Extension
		if !strings.HasPrefix(extension, ".") {
			extension = "." + extension
		}
	}
	return directory + basename + rename.Suffix + extension
}
