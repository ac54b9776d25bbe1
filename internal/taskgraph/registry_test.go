package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterRejectsInvalidNames(testInstance *testing.T) {
	testCases := []struct {
		name     string
		taskName string
	}{
		{name: "empty", taskName: ""},
		{name: "blank", taskName: "   "},
		{name: "inner_space", taskName: "build assets"},
		{name: "inner_tab", taskName: "build\tassets"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			registry := NewRegistry()
			registrationError := registry.Register(testCase.taskName, nil, NoOp())
			var invalidName InvalidNameError
			require.ErrorAs(subtest, registrationError, &invalidName)
			require.Empty(subtest, registry.Names())
		})
	}
}

func TestRegistryRegisterReplacesExistingDefinition(testInstance *testing.T) {
	registry := NewRegistry()
	require.NoError(testInstance, registry.Register("styles", []string{"clear"}, NoOp()))
	require.NoError(testInstance, registry.Register("styles", []string{"composer", "composer", " "}, OrderedSequence("a", " ", "b")))

	task, resolveError := registry.Resolve("styles")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, []string{"composer"}, task.Dependencies)
	require.Equal(testInstance, ActionKindSequence, task.Action.Kind())
	require.Equal(testInstance, []string{"a", "b"}, task.Action.Steps())
	require.Equal(testInstance, []string{"styles"}, registry.Names())
}

func TestRegistryResolveUnknownTask(testInstance *testing.T) {
	registry := NewRegistry()
	_, resolveError := registry.Resolve("missing")
	require.EqualError(testInstance, resolveError, `unknown task "missing"`)
}

func TestRegistryResolveReturnsIsolatedCopy(testInstance *testing.T) {
	registry := NewRegistry()
	require.NoError(testInstance, registry.Register("package", []string{"clean", "compile"}, NoOp()))

	task, resolveError := registry.Resolve("package")
	require.NoError(testInstance, resolveError)
	task.Dependencies[0] = "mutated"

	again, resolveError := registry.Resolve("package")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, []string{"clean", "compile"}, again.Dependencies)
}

func TestRegistryDefaultTask(testInstance *testing.T) {
	registry := NewRegistry()
	_, declared := registry.Default()
	require.False(testInstance, declared)

	registry.SetDefault(" build ")
	defaultTask, declared := registry.Default()
	require.True(testInstance, declared)
	require.Equal(testInstance, "build", defaultTask)
}

func TestSingleActionWithNilFunctionIsNoOp(testInstance *testing.T) {
	require.Equal(testInstance, ActionKindNoOp, SingleAction(nil).Kind())
	require.Equal(testInstance, ActionKindNoOp, Action{}.Kind())
	require.Nil(testInstance, NoOp().Steps())
}
