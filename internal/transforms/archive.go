package transforms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/pipeline"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	archiveWrittenEventConstant = "archive_written"
	archiveOptionConstant       = "archive"
	archiveWriteErrorTemplate   = "write archive %s: %w"
	archiveTemporarySuffix      = ".partial"
	archiveDirectorySuffix      = "/"
)

type zipOptions struct {
	Patterns []string `mapstructure:"patterns"`
	Base     string   `mapstructure:"base"`
	Archive  string   `mapstructure:"archive"`
	Dot      bool     `mapstructure:"dot"`
}

func buildZip(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	var options zipOptions
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Archive) == 0 {
		return nil, missingOptionError{Option: archiveOptionConstant}
	}
	if len(options.Patterns) == 0 {
		return nil, missingOptionError{Option: patternsOptionConstant}
	}
	patterns := append(append([]string(nil), options.Patterns...), exclusionPatternPrefixConstant+options.Archive)
	logger := catalog.logger(ActionTypeZip)

	return func(executionContext context.Context) error {
		records, sourceError := pipeline.Source(executionContext, catalog.dependencies.Root, patterns, pipeline.SourceOptions{
			Base:               options.Base,
			IncludeDirectories: true,
			Dot:                options.Dot,
			Workers:            catalog.dependencies.Workers,
		})
		if sourceError != nil {
			return sourceError
		}

		archivePath := filepath.Join(catalog.dependencies.Root, filepath.FromSlash(options.Archive))
		if writeError := writeArchive(archivePath, records); writeError != nil {
			return fmt.Errorf(archiveWriteErrorTemplate, options.Archive, writeError)
		}

		logger.Info(archiveWrittenEventConstant, zap.String(pathFieldConstant, options.Archive), zap.Int(fileCountFieldConstant, len(records)))
		return nil
	}, nil
}

// writeArchive writes to a sibling temporary file and renames it into place.
func writeArchive(archivePath string, records []pipeline.FileRecord) (writeError error) {
	if mkdirError := os.MkdirAll(filepath.Dir(archivePath), 0o755); mkdirError != nil {
		return mkdirError
	}
	temporaryPath := archivePath + archiveTemporarySuffix
	archiveFile, createError := os.Create(temporaryPath)
	if createError != nil {
		return createError
	}
	defer func() {
		if writeError != nil {
			_ = os.Remove(temporaryPath)
		}
	}()

	archiveWriter := zip.NewWriter(archiveFile)
	for _, record := range records {
		header := &zip.FileHeader{
			Name:     record.Path,
			Method:   zip.Deflate,
			Modified: record.ModTime,
		}
		header.SetMode(record.Mode)
		if record.IsDirectory() {
			header.Name += archiveDirectorySuffix
			header.Method = zip.Store
		}
		entryWriter, headerError := archiveWriter.CreateHeader(header)
		if headerError != nil {
			_ = archiveFile.Close()
			return headerError
		}
		if record.IsDirectory() {
			continue
		}
		if _, copyError := entryWriter.Write(record.Contents); copyError != nil {
			_ = archiveFile.Close()
			return copyError
		}
	}
	if closeError := archiveWriter.Close(); closeError != nil {
		_ = archiveFile.Close()
		return closeError
	}
	if closeError := archiveFile.Close(); closeError != nil {
		return closeError
	}
	return os.Rename(temporaryPath, archivePath)
}
