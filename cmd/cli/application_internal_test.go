package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/wpforge/internal/utils"
)

const (
	testPackageJSONConstant = `{"name": "woostify-sites-library", "slug": "woostify-sites", "version": "1.4.2"}`
	testRecipeConstant      = `
default: build
tasks:
  - task:
      name: clean
      action: clean
      with:
        patterns: ["dist/*"]
  - task:
      name: build
      after: [clean]
      action: notify
      with:
        message: "Built ${name} ${version}"
`
)

func newIsolatedApplication(testInstance *testing.T) (*Application, *bytes.Buffer) {
	testInstance.Helper()
	testInstance.Setenv(configurationSearchPathEnvironmentVariableConstant, testInstance.TempDir())
	application := NewApplication()
	output := &bytes.Buffer{}
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(output)
	return application, output
}

func executeApplication(application *Application, arguments ...string) error {
	application.rootCommand.SetArgs(arguments)
	return application.rootCommand.ExecuteContext(context.Background())
}

func TestApplicationRunsRecipeThroughRunCommand(testInstance *testing.T) {
	root := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(root, "package.json"), []byte(testPackageJSONConstant), 0o644))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(root, "dist"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(root, "dist", "old.zip"), []byte("PK"), 0o644))
	tasksFile := filepath.Join(testInstance.TempDir(), "tasks.yaml")
	require.NoError(testInstance, os.WriteFile(tasksFile, []byte(testRecipeConstant), 0o644))

	application, output := newIsolatedApplication(testInstance)
	executionError := executeApplication(
		application,
		"run", "--root", root, "--tasks", tasksFile, "-j", "2", "--no-cache", "--log-level", "error",
	)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output.String(), "Built woostify-sites-library 1.4.2")
	require.Contains(testInstance, output.String(), "Summary: target=build tasks=2 completed=2 failed=0")

	_, statError := os.Stat(filepath.Join(root, "dist", "old.zip"))
	require.ErrorIs(testInstance, statError, os.ErrNotExist)

	settings, available := utils.CommandSettingsFromContext(application.rootCommand.Context())
	require.True(testInstance, available)
	require.Equal(testInstance, root, settings.ExecutionFlags.Root)
	require.True(testInstance, settings.ExecutionFlags.RootSet)
	require.Equal(testInstance, 2, settings.ExecutionFlags.Parallelism)
	require.Equal(testInstance, "error", settings.LogLevel)
	require.Equal(testInstance, "error", application.configuration.Common.LogLevel)
}

func TestApplicationVersionFlag(testInstance *testing.T) {
	application, output := newIsolatedApplication(testInstance)
	application.versionResolver = func(context.Context) string { return "v1.4.2" }
	exitCodes := []int{}
	application.exitFunction = func(code int) { exitCodes = append(exitCodes, code) }

	require.NoError(testInstance, executeApplication(application, "--version"))
	require.Equal(testInstance, []int{0}, exitCodes)
	require.True(testInstance, strings.HasPrefix(output.String(), "wpforge version: v1.4.2\n"))
}

func TestApplicationConfigurationInitialization(testInstance *testing.T) {
	testCases := []struct {
		name        string
		arguments   []string
		existing    bool
		expectError string
	}{
		{
			name:      "default_scope",
			arguments: []string{"--init"},
		},
		{
			name:      "explicit_local_scope",
			arguments: []string{"--init=local"},
		},
		{
			name:        "existing_file_requires_force",
			arguments:   []string{"--init"},
			existing:    true,
			expectError: "already exists",
		},
		{
			name:      "force_overwrites",
			arguments: []string{"--init", "--force"},
			existing:  true,
		},
		{
			name:        "unsupported_scope",
			arguments:   []string{"--init=global"},
			expectError: "unsupported initialization scope",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			workingDirectory := testInstance.TempDir()
			testInstance.Chdir(workingDirectory)
			configurationPath := filepath.Join(workingDirectory, configurationFileNameConstant)
			if testCase.existing {
				require.NoError(testInstance, os.WriteFile(configurationPath, []byte("common: {}\n"), 0o600))
			}

			application, _ := newIsolatedApplication(testInstance)
			executionError := executeApplication(application, testCase.arguments...)
			if len(testCase.expectError) > 0 {
				require.ErrorContains(testInstance, executionError, testCase.expectError)
				return
			}
			require.NoError(testInstance, executionError)

			written, readError := os.ReadFile(configurationPath)
			require.NoError(testInstance, readError)
			embedded, _ := EmbeddedDefaultConfiguration()
			require.Equal(testInstance, string(embedded), string(written))
		})
	}
}

func TestConfigurationSearchPathsHonoursOverride(testInstance *testing.T) {
	testInstance.Setenv(configurationSearchPathEnvironmentVariableConstant, " /etc/wpforge "+string(os.PathListSeparator)+" "+string(os.PathListSeparator)+"/opt/wpforge")
	require.Equal(testInstance, []string{"/etc/wpforge", "/opt/wpforge"}, configurationSearchPaths())

	testInstance.Setenv(configurationSearchPathEnvironmentVariableConstant, "")
	testInstance.Setenv("XDG_CONFIG_HOME", "/home/builder/.config")
	searchPaths := configurationSearchPaths()
	require.Equal(testInstance, ".", searchPaths[0])
	require.Equal(testInstance, filepath.Join("/home/builder/.config", userConfigurationDirectoryNameConstant), searchPaths[1])
}

func TestScaffoldConfigurationUserScope(testInstance *testing.T) {
	homeDirectory := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectory)

	application, _ := newIsolatedApplication(testInstance)
	require.NoError(testInstance, executeApplication(application, "--init=USER"))

	written, readError := os.ReadFile(filepath.Join(homeDirectory, userConfigurationDirectoryNameConstant, configurationFileNameConstant))
	require.NoError(testInstance, readError)
	embedded, _ := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, embedded, written)

	require.ErrorContains(testInstance, application.scaffoldConfiguration(scaffoldScopeUserConstant, false), "already exists")
	require.NoError(testInstance, application.scaffoldConfiguration(scaffoldScopeUserConstant, true))
}

func TestIsUnsyncableOutput(testInstance *testing.T) {
	require.True(testInstance, isUnsyncableOutput(&os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}))
	require.False(testInstance, isUnsyncableOutput(os.ErrPermission))
}
