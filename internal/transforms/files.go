package transforms

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/pipeline"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	cacheClearedEventConstant      = "transform_cache_cleared"
	pathsRemovedEventConstant      = "paths_removed"
	filesCopiedEventConstant       = "files_copied"
	placeholdersReplacedEvent      = "placeholders_replaced"
	removedFieldConstant           = "removed"
	patternsOptionConstant         = "patterns"
	replacementsOptionConstant     = "replacements"
	defaultReplacePrefixConstant   = "@@"
	removeErrorTemplateConstant    = "remove %s: %w"
	replaceTransformNameConstant   = "replace"
	exclusionPatternPrefixConstant = "!"
)

type clearCacheOptions struct{}

func buildClearCache(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	var options clearCacheOptions
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	logger := catalog.logger(ActionTypeClearCache)
	return func(executionContext context.Context) error {
		removed, clearError := catalog.dependencies.Cache.Clear(executionContext)
		if clearError != nil {
			return clearError
		}
		logger.Info(cacheClearedEventConstant, zap.Int64(removedFieldConstant, removed))
		return nil
	}, nil
}

type cleanOptions struct {
	Patterns []string `mapstructure:"patterns"`
	Dot      bool     `mapstructure:"dot"`
}

func buildClean(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	var options cleanOptions
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Patterns) == 0 {
		return nil, missingOptionError{Option: patternsOptionConstant}
	}
	logger := catalog.logger(ActionTypeClean)

	return func(executionContext context.Context) error {
		matches, matchError := pipeline.Match(catalog.dependencies.Root, options.Patterns, pipeline.MatchOptions{IncludeDirectories: true, Dot: options.Dot})
		if matchError != nil {
			return matchError
		}

		removed := make([]string, 0, len(matches))
		for _, match := range matches {
			if contextError := executionContext.Err(); contextError != nil {
				return contextError
			}
			if coveredByRemoved(match, removed) {
				continue
			}
			if protectsExclusion(match, options.Patterns, catalog.dependencies.Root) {
				continue
			}
			target := filepath.Join(catalog.dependencies.Root, filepath.FromSlash(match))
			if removeError := os.RemoveAll(target); removeError != nil {
				return fmt.Errorf(removeErrorTemplateConstant, match, removeError)
			}
			removed = append(removed, match)
		}

		logger.Info(pathsRemovedEventConstant, zap.Int(removedFieldConstant, len(removed)))
		return nil
	}, nil
}

func coveredByRemoved(candidate string, removed []string) bool {
	for _, removedPath := range removed {
		if strings.HasPrefix(candidate, removedPath+"/") {
			return true
		}
	}
	return false
}

// protectsExclusion keeps a matched directory when an excluded path lives beneath it.
func protectsExclusion(match string, patterns []string, root string) bool {
	info, statError := os.Stat(filepath.Join(root, filepath.FromSlash(match)))
	if statError != nil || !info.IsDir() {
		return false
	}
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if !strings.HasPrefix(trimmed, exclusionPatternPrefixConstant) {
			continue
		}
		excluded := path.Clean(strings.TrimPrefix(strings.TrimPrefix(trimmed, exclusionPatternPrefixConstant), "./"))
		if strings.HasPrefix(excluded, match+"/") {
			return true
		}
	}
	return false
}

type copyOptions struct {
	Patterns    []string `mapstructure:"patterns"`
	Destination string   `mapstructure:"destination"`
	Dot         bool     `mapstructure:"dot"`
}

func buildCopy(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	var options copyOptions
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Destination) == 0 {
		return nil, missingOptionError{Option: destinationFieldConstant}
	}
	if len(options.Patterns) == 0 {
		return nil, missingOptionError{Option: patternsOptionConstant}
	}
	patterns := append(append([]string(nil), options.Patterns...), exclusionPatternPrefixConstant+options.Destination)
	logger := catalog.logger(ActionTypeCopy)

	return func(executionContext context.Context) error {
		records, sourceError := pipeline.Source(executionContext, catalog.dependencies.Root, patterns, pipeline.SourceOptions{Dot: options.Dot, Workers: catalog.dependencies.Workers})
		if sourceError != nil {
			return sourceError
		}
		if _, writeError := pipeline.Destination(catalog.dependencies.Root, options.Destination, records); writeError != nil {
			return writeError
		}
		logger.Info(filesCopiedEventConstant, zap.Int(fileCountFieldConstant, len(records)), zap.String(destinationFieldConstant, options.Destination))
		return nil
	}, nil
}

type replacementOption struct {
	Match       string `mapstructure:"match"`
	Replacement string `mapstructure:"replacement"`
}

type replaceOptions struct {
	Patterns     []string            `mapstructure:"patterns"`
	Replacements []replacementOption `mapstructure:"replacements"`
	Prefix       string              `mapstructure:"prefix"`
}

func buildReplace(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	options := replaceOptions{Prefix: defaultReplacePrefixConstant}
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(options.Patterns) == 0 {
		return nil, missingOptionError{Option: patternsOptionConstant}
	}
	if len(options.Replacements) == 0 {
		return nil, missingOptionError{Option: replacementsOptionConstant}
	}
	logger := catalog.logger(ActionTypeReplace)

	return func(executionContext context.Context) error {
		records, sourceError := pipeline.Source(executionContext, catalog.dependencies.Root, options.Patterns, pipeline.SourceOptions{Workers: catalog.dependencies.Workers})
		if sourceError != nil {
			return sourceError
		}

		changed := make([]pipeline.FileRecord, 0, len(records))
		for _, record := range records {
			replaced := replaceTokens(record.Contents, options)
			if bytes.Equal(replaced, record.Contents) {
				continue
			}
			record.Contents = replaced
			changed = append(changed, record)
		}
		if _, writeError := pipeline.Destination(catalog.dependencies.Root, "", changed); writeError != nil {
			return writeError
		}

		logger.Info(placeholdersReplacedEvent, zap.Int(fileCountFieldConstant, len(changed)))
		return nil
	}, nil
}

// replaceTokens applies replacements in declaration order.
func replaceTokens(contents []byte, options replaceOptions) []byte {
	replaced := contents
	for _, replacement := range options.Replacements {
		if len(replacement.Match) == 0 {
			continue
		}
		token := []byte(options.Prefix + replacement.Match)
		replaced = bytes.ReplaceAll(replaced, token, []byte(replacement.Replacement))
	}
	return replaced
}
