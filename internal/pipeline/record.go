// Package pipeline moves files through chains of transforms: read by glob, transform, write.
package pipeline

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"time"
)

// FileRecord is one file flowing through a pipeline.
type FileRecord struct {
	// Path is slash separated and relative to Base.
	Path     string
	Base     string
	Contents []byte
	Mode     fs.FileMode
	ModTime  time.Time
}

// AbsolutePath joins Base and Path for the host filesystem.
func (record FileRecord) AbsolutePath() string {
	return filepath.Join(record.Base, filepath.FromSlash(record.Path))
}

// IsDirectory reports whether the record stands for a directory.
func (record FileRecord) IsDirectory() bool {
	return record.Mode.IsDir()
}

// Extension returns the final extension of Path including the dot.
func (record FileRecord) Extension() string {
	return path.Ext(record.Path)
}

// Transform maps zero or more records to zero or more records.
type Transform interface {
	Name() string
	Apply(executionContext context.Context, records []FileRecord) ([]FileRecord, error)
}

// TransformFunc adapts a function into a Transform.
type TransformFunc func(executionContext context.Context, records []FileRecord) ([]FileRecord, error)

type namedTransform struct {
	name     string
	function TransformFunc
}

// NewTransform names a transform function.
func NewTransform(name string, function TransformFunc) Transform {
	return namedTransform{name: name, function: function}
}

func (transform namedTransform) Name() string {
	return transform.name
}

func (transform namedTransform) Apply(executionContext context.Context, records []FileRecord) ([]FileRecord, error) {
	return transform.function(executionContext, records)
}

// MapContents builds a transform that rewrites every regular file independently.
func MapContents(name string, mapper func(record FileRecord) ([]byte, error)) Transform {
	return NewTransform(name, func(executionContext context.Context, records []FileRecord) ([]FileRecord, error) {
		mapped := make([]FileRecord, 0, len(records))
		for _, record := range records {
			if contextError := executionContext.Err(); contextError != nil {
				return nil, contextError
			}
			if record.IsDirectory() {
				mapped = append(mapped, record)
				continue
			}
			contents, mapError := mapper(record)
			if mapError != nil {
				return nil, &TransformError{Transform: name, Path: record.Path, Cause: mapError}
			}
			record.Contents = contents
			mapped = append(mapped, record)
		}
		return mapped, nil
	})
}
