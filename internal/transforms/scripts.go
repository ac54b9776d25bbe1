package transforms

import (
	"context"

	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/pipeline"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	scriptsMinifiedEventConstant = "scripts_minified"
	defaultScriptsSuffixConstant = ".min"
)

type scriptsOptions struct {
	Sources     []string `mapstructure:"sources"`
	Destination string   `mapstructure:"destination"`
	Basename    string   `mapstructure:"basename"`
	Suffix      string   `mapstructure:"suffix"`
	LineEnding  string   `mapstructure:"line_ending"`
}

func buildScripts(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	options := scriptsOptions{Suffix: defaultScriptsSuffixConstant, LineEnding: defaultLineEndingConstant}
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Destination) == 0 {
		return nil, missingOptionError{Option: destinationFieldConstant}
	}
	logger := catalog.logger(ActionTypeScripts)
	minifier := newMinifier()

	return func(executionContext context.Context) error {
		records, sourceError := pipeline.Source(executionContext, catalog.dependencies.Root, options.Sources, pipeline.SourceOptions{Workers: catalog.dependencies.Workers})
		if sourceError != nil {
			return sourceError
		}

		minified, applyError := pipeline.Apply(executionContext, records,
			flattenTransform(),
			pipeline.Rename{Basename: options.Basename, Suffix: options.Suffix},
			minifyTransform(executionContext, minifier, catalog.dependencies.Cache, mediaTypeScriptConstant),
			lineEndingTransform(options.LineEnding),
		)
		if applyError != nil {
			return applyError
		}
		if _, writeError := pipeline.Destination(catalog.dependencies.Root, options.Destination, minified); writeError != nil {
			return writeError
		}

		logger.Info(scriptsMinifiedEventConstant, zap.Int(fileCountFieldConstant, len(minified)), zap.String(destinationFieldConstant, options.Destination))
		return nil
	}, nil
}
