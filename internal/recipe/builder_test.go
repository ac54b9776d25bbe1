package recipe_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/wpforge/internal/recipe"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

type recordingFactory struct {
	mutex       sync.Mutex
	invocations []string
	failures    map[string]error
	unsupported map[string]struct{}
}

func (factory *recordingFactory) Build(actionType string, options map[string]any) (taskgraph.Func, error) {
	if _, rejected := factory.unsupported[actionType]; rejected {
		return nil, errors.New("unsupported action " + actionType)
	}
	return func(context.Context) error {
		factory.mutex.Lock()
		defer factory.mutex.Unlock()
		label := actionType
		if destination, hasDestination := options["destination"]; hasDestination {
			label = label + ":" + destination.(string)
		}
		factory.invocations = append(factory.invocations, label)
		return factory.failures[actionType]
	}, nil
}

func TestBuildRegistryMapsActionKinds(testInstance *testing.T) {
	configuration, parseError := recipe.ParseConfiguration([]byte(inlineRecipeContent))
	require.NoError(testInstance, parseError)
	configuration.Default = "build"

	registry, buildError := recipe.BuildRegistry(configuration, &recordingFactory{})
	require.NoError(testInstance, buildError)

	clean, resolveError := registry.Resolve("clean")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, taskgraph.ActionKindSingle, clean.Action.Kind())

	build, resolveError := registry.Resolve("build")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, taskgraph.ActionKindSequence, build.Action.Kind())
	require.Equal(testInstance, []string{"clean"}, build.Action.Steps())

	defaultTask, declared := registry.Default()
	require.True(testInstance, declared)
	require.Equal(testInstance, "build", defaultTask)
}

func TestBuildRegistryRejectsUnknownActionType(testInstance *testing.T) {
	configuration := recipe.Configuration{Tasks: []recipe.TaskConfiguration{{Name: "deploy", Action: "rsync"}}}
	factory := &recordingFactory{unsupported: map[string]struct{}{"rsync": {}}}

	_, buildError := recipe.BuildRegistry(configuration, factory)
	require.EqualError(testInstance, buildError, `task "deploy": unsupported action rsync`)
}

func TestBuildRegistryRequiresFactoryForActions(testInstance *testing.T) {
	configuration := recipe.Configuration{Tasks: []recipe.TaskConfiguration{{Name: "clean", Action: "clean"}}}
	_, buildError := recipe.BuildRegistry(configuration, nil)
	require.ErrorIs(testInstance, buildError, recipe.ErrActionFactoryMissing)

	groupOnly := recipe.Configuration{Tasks: []recipe.TaskConfiguration{{Name: "all"}}}
	registry, buildError := recipe.BuildRegistry(groupOnly, nil)
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, []string{"all"}, registry.Names())
}

func TestBuildRegistryRejectsInvalidTaskName(testInstance *testing.T) {
	configuration := recipe.Configuration{Tasks: []recipe.TaskConfiguration{{Name: "build assets"}}}
	_, buildError := recipe.BuildRegistry(configuration, nil)
	var invalidName taskgraph.InvalidNameError
	require.ErrorAs(testInstance, buildError, &invalidName)
}

func TestDescribePrefersLastDefinition(testInstance *testing.T) {
	configuration := recipe.Configuration{Tasks: []recipe.TaskConfiguration{
		{Name: "clean", Description: "first"},
		{Name: "clean", Description: "second"},
	}}
	described, found := configuration.Describe("clean")
	require.True(testInstance, found)
	require.Equal(testInstance, "second", described.Description)

	_, found = configuration.Describe("missing")
	require.False(testInstance, found)
}
