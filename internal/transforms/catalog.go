// Package transforms binds recipe action types to file transform adapters.
package transforms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/cache"
	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/project"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	unknownActionTypeTemplateConstant = "unknown action type %q"
	invalidOptionsTemplateConstant    = "invalid options for %s: %w"
	rootMissingMessageConstant        = "transform catalog requires a project root"
	commandExecutorMissingMessage     = "action requires a command executor"
	mapstructureTagNameConstant       = "mapstructure"
	actionTypeFieldConstant           = "action"
	fileCountFieldConstant            = "files"
	destinationFieldConstant          = "destination"
	pathFieldConstant                 = "path"
)

// Action types understood by the catalog.
const (
	ActionTypeClearCache = "clear-cache"
	ActionTypeStyles     = "styles"
	ActionTypeScripts    = "scripts"
	ActionTypeComposer   = "composer"
	ActionTypeTranslate  = "translate"
	ActionTypeClean      = "clean"
	ActionTypeCopy       = "copy"
	ActionTypeReplace    = "replace"
	ActionTypeZip        = "zip"
	ActionTypeNotify     = "notify"
	ActionTypeExec       = "exec"
)

var (
	// ErrRootMissing indicates the catalog was built without a project root.
	ErrRootMissing = errors.New(rootMissingMessageConstant)
	// ErrCommandExecutorMissing indicates a command based action was requested without an executor.
	ErrCommandExecutorMissing = errors.New(commandExecutorMissingMessage)
)

// UnknownActionTypeError reports an action type with no adapter.
type UnknownActionTypeError struct {
	Type string
}

// Error implements the error interface.
func (unknownType UnknownActionTypeError) Error() string {
	return fmt.Sprintf(unknownActionTypeTemplateConstant, unknownType.Type)
}

// CommandExecutor runs external tools.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies are the collaborators shared by every adapter.
type Dependencies struct {
	Logger          *zap.Logger
	CommandExecutor CommandExecutor
	Cache           *cache.Store
	Root            string
	Metadata        project.Metadata
	Output          io.Writer
	Workers         int
}

type actionBuilder func(catalog *Catalog, options map[string]any) (taskgraph.Func, error)

// Catalog builds task functions from action types and their options.
type Catalog struct {
	dependencies Dependencies
	expander     project.Expander
	builders     map[string]actionBuilder
}

// NewCatalog validates dependencies and registers every adapter.
func NewCatalog(dependencies Dependencies) (*Catalog, error) {
	dependencies.Root = strings.TrimSpace(dependencies.Root)
	if len(dependencies.Root) == 0 {
		return nil, ErrRootMissing
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}

	return &Catalog{
		dependencies: dependencies,
		expander:     project.NewExpander(dependencies.Metadata.Variables()),
		builders: map[string]actionBuilder{
			ActionTypeClearCache: buildClearCache,
			ActionTypeStyles:     buildStyles,
			ActionTypeScripts:    buildScripts,
			ActionTypeComposer:   buildComposer,
			ActionTypeTranslate:  buildTranslate,
			ActionTypeClean:      buildClean,
			ActionTypeCopy:       buildCopy,
			ActionTypeReplace:    buildReplace,
			ActionTypeZip:        buildZip,
			ActionTypeNotify:     buildNotify,
			ActionTypeExec:       buildExec,
		},
	}, nil
}

// Types lists the supported action types.
func (catalog *Catalog) Types() []string {
	types := make([]string, 0, len(catalog.builders))
	for actionType := range catalog.builders {
		types = append(types, actionType)
	}
	sort.Strings(types)
	return types
}

// Build resolves actionType to an adapter and decodes its options.
func (catalog *Catalog) Build(actionType string, options map[string]any) (taskgraph.Func, error) {
	normalizedType := strings.TrimSpace(actionType)
	builder, exists := catalog.builders[normalizedType]
	if !exists {
		return nil, UnknownActionTypeError{Type: normalizedType}
	}
	function, buildError := builder(catalog, options)
	if buildError != nil {
		return nil, fmt.Errorf(invalidOptionsTemplateConstant, normalizedType, buildError)
	}
	return function, nil
}

// decodeOptions expands ${...} metadata references and decodes options into target.
// Unknown keys are rejected so recipe typos fail at build time.
func (catalog *Catalog) decodeOptions(options map[string]any, target any) error {
	if len(options) == 0 {
		return nil
	}
	expanded, _ := catalog.expander.ExpandAll(options).(map[string]any)

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          mapstructureTagNameConstant,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if decoderError != nil {
		return decoderError
	}
	return decoder.Decode(expanded)
}

func (catalog *Catalog) logger(actionType string) *zap.Logger {
	return catalog.dependencies.Logger.With(zap.String(actionTypeFieldConstant, actionType))
}
