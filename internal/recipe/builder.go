package recipe

import (
	"errors"
	"fmt"

	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	buildActionErrorTemplateConstant   = "task %q: %w"
	buildRegisterErrorTemplateConstant = "task %q: %w"
)

// ErrActionFactoryMissing indicates a recipe declares actions but no factory was supplied.
var ErrActionFactoryMissing = errors.New("task recipe declares actions but no action factory is configured")

// ActionFactory turns a declared action type and its options into an executable task function.
type ActionFactory interface {
	Build(actionType string, options map[string]any) (taskgraph.Func, error)
}

// BuildRegistry registers every recipe task and declares the recipe default.
func BuildRegistry(configuration Configuration, factory ActionFactory) (*taskgraph.Registry, error) {
	registry := taskgraph.NewRegistry()
	for _, taskConfiguration := range configuration.Tasks {
		action, actionError := buildAction(taskConfiguration, factory)
		if actionError != nil {
			return nil, fmt.Errorf(buildActionErrorTemplateConstant, taskConfiguration.Name, actionError)
		}
		if registerError := registry.Register(taskConfiguration.Name, taskConfiguration.After, action); registerError != nil {
			return nil, fmt.Errorf(buildRegisterErrorTemplateConstant, taskConfiguration.Name, registerError)
		}
	}
	if len(configuration.Default) > 0 {
		registry.SetDefault(configuration.Default)
	}
	return registry, nil
}

func buildAction(taskConfiguration TaskConfiguration, factory ActionFactory) (taskgraph.Action, error) {
	switch {
	case len(taskConfiguration.Sequence) > 0:
		return taskgraph.OrderedSequence(taskConfiguration.Sequence...), nil
	case len(taskConfiguration.Action) > 0:
		if factory == nil {
			return taskgraph.Action{}, ErrActionFactoryMissing
		}
		function, buildError := factory.Build(taskConfiguration.Action, taskConfiguration.Options)
		if buildError != nil {
			return taskgraph.Action{}, buildError
		}
		return taskgraph.SingleAction(function), nil
	default:
		return taskgraph.NoOp(), nil
	}
}

// Describe returns the recipe entry registered under name. Later entries win, as in BuildRegistry.
func (configuration Configuration) Describe(name string) (TaskConfiguration, bool) {
	for taskIndex := len(configuration.Tasks) - 1; taskIndex >= 0; taskIndex-- {
		if configuration.Tasks[taskIndex].Name == name {
			return configuration.Tasks[taskIndex], true
		}
	}
	return TaskConfiguration{}, false
}
