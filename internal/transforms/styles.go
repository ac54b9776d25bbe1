package transforms

import (
	"context"
	"path"

	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/pipeline"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	stylesCompileTransformName  = "sass"
	stylesCompiledEventConstant = "styles_compiled"
	defaultStylesSuffixConstant = ".min"
	defaultSassStyleConstant    = "expanded"
	stylesheetExtensionConstant = ".css"
	sassStdinFlagConstant       = "--stdin"
	sassNoSourceMapFlagConstant = "--no-source-map"
	sassStyleFlagTemplate       = "--style="
	sassLoadPathFlagTemplate    = "--load-path="
)

type stylesOptions struct {
	Sources     []string `mapstructure:"sources"`
	Destination string   `mapstructure:"destination"`
	Style       string   `mapstructure:"style"`
	Suffix      string   `mapstructure:"suffix"`
	Command     string   `mapstructure:"command"`
	LoadPaths   []string `mapstructure:"load_paths"`
	SkipMinify  bool     `mapstructure:"skip_minify"`
}

func buildStyles(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	options := stylesOptions{
		Style:   defaultSassStyleConstant,
		Suffix:  defaultStylesSuffixConstant,
		Command: string(execshell.CommandSass),
	}
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Destination) == 0 {
		return nil, missingOptionError{Option: destinationFieldConstant}
	}
	logger := catalog.logger(ActionTypeStyles)
	minifier := newMinifier()

	return func(executionContext context.Context) error {
		if catalog.dependencies.CommandExecutor == nil {
			return ErrCommandExecutorMissing
		}
		records, sourceError := pipeline.Source(executionContext, catalog.dependencies.Root, options.Sources, pipeline.SourceOptions{Workers: catalog.dependencies.Workers})
		if sourceError != nil {
			return sourceError
		}

		compiled, compileError := pipeline.Apply(executionContext, records,
			catalog.sassTransform(executionContext, options),
			pipeline.Rename{Extension: stylesheetExtensionConstant},
			flattenTransform(),
		)
		if compileError != nil {
			return compileError
		}
		if _, writeError := pipeline.Destination(catalog.dependencies.Root, options.Destination, compiled); writeError != nil {
			return writeError
		}

		if !options.SkipMinify {
			minified, minifyError := pipeline.Apply(executionContext, compiled,
				pipeline.Rename{Suffix: options.Suffix},
				minifyTransform(executionContext, minifier, catalog.dependencies.Cache, mediaTypeStylesheetConstant),
			)
			if minifyError != nil {
				return minifyError
			}
			if _, writeError := pipeline.Destination(catalog.dependencies.Root, options.Destination, minified); writeError != nil {
				return writeError
			}
		}

		logger.Info(stylesCompiledEventConstant, zap.Int(fileCountFieldConstant, len(compiled)), zap.String(destinationFieldConstant, options.Destination))
		return nil
	}, nil
}

// sassTransform pipes each entry stylesheet through the sass CLI.
func (catalog *Catalog) sassTransform(executionContext context.Context, options stylesOptions) pipeline.Transform {
	return pipeline.MapContents(stylesCompileTransformName, func(record pipeline.FileRecord) ([]byte, error) {
		arguments := []string{
			sassStdinFlagConstant,
			sassNoSourceMapFlagConstant,
			sassStyleFlagTemplate + options.Style,
			sassLoadPathFlagTemplate + path.Dir(record.Path),
		}
		for _, loadPath := range options.LoadPaths {
			arguments = append(arguments, sassLoadPathFlagTemplate+loadPath)
		}
		result, executionError := catalog.dependencies.CommandExecutor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(options.Command),
			Details: execshell.CommandDetails{
				Arguments:        arguments,
				WorkingDirectory: record.Base,
				StandardInput:    record.Contents,
			},
		})
		if executionError != nil {
			return nil, executionError
		}
		return []byte(result.StandardOutput), nil
	})
}

// flattenTransform drops the directory part of record paths so outputs land directly in the destination.
func flattenTransform() pipeline.Transform {
	return pipeline.NewTransform("flatten", func(_ context.Context, records []pipeline.FileRecord) ([]pipeline.FileRecord, error) {
		flattened := make([]pipeline.FileRecord, 0, len(records))
		for _, record := range records {
			record.Path = path.Base(record.Path)
			flattened = append(flattened, record)
		}
		return flattened, nil
	})
}
