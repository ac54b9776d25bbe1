package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/wpforge/cmd/cli"
)

const (
	testConfigurationFileNameConstant          = "config.yaml"
	testConfigurationSearchPathEnvironmentName = "WPFORGE_CONFIG_SEARCH_PATH"
	testRunCommandNameConstant                 = "run"
	testProjectConfigurationTemplateConstant   = "common:\n  log_level: error\n  log_format: structured\nproject:\n  root: /srv/plugins/woostify-sites-library\n  tasks_file: tasks.yaml\n  parallelism: 4\n  disable_cache: true\n"
)

func TestApplicationLoadsEmbeddedDefaults(testInstance *testing.T) {
	testInstance.Setenv(testConfigurationSearchPathEnvironmentName, testInstance.TempDir())

	application := cli.NewApplication()
	require.NoError(testInstance, application.InitializeForCommand(testRunCommandNameConstant))

	configuration := application.Configuration()
	require.Empty(testInstance, application.ConfigFileUsed())
	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "console", configuration.Common.LogFormat)
	require.Equal(testInstance, ".", configuration.Project.Root)
	require.Equal(testInstance, "package.json", configuration.Project.PackageFile)
	require.Empty(testInstance, configuration.Project.TasksFile)
	require.Zero(testInstance, configuration.Project.Parallelism)
	require.False(testInstance, configuration.Project.DisableCache)
}

func TestApplicationConfigurationSources(testInstance *testing.T) {
	testCases := []struct {
		name                string
		environment         map[string]string
		expectedParallelism int
		expectedRoot        string
	}{
		{
			name:                "configuration_file",
			expectedParallelism: 4,
			expectedRoot:        "/srv/plugins/woostify-sites-library",
		},
		{
			name: "environment_overrides_file",
			environment: map[string]string{
				"WPFORGE_PROJECT_PARALLELISM": "6",
				"WPFORGE_PROJECT_ROOT":        "/srv/plugins/other",
			},
			expectedParallelism: 6,
			expectedRoot:        "/srv/plugins/other",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configurationDirectory := testInstance.TempDir()
			configurationPath := filepath.Join(configurationDirectory, testConfigurationFileNameConstant)
			require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testProjectConfigurationTemplateConstant), 0o600))
			testInstance.Setenv(testConfigurationSearchPathEnvironmentName, configurationDirectory)
			for environmentName, environmentValue := range testCase.environment {
				testInstance.Setenv(environmentName, environmentValue)
			}

			application := cli.NewApplication()
			require.NoError(testInstance, application.InitializeForCommand(testRunCommandNameConstant))

			configuration := application.Configuration()
			require.Equal(testInstance, configurationPath, application.ConfigFileUsed())
			require.Equal(testInstance, "error", configuration.Common.LogLevel)
			require.Equal(testInstance, "structured", configuration.Common.LogFormat)
			require.Equal(testInstance, testCase.expectedRoot, configuration.Project.Root)
			require.Equal(testInstance, "tasks.yaml", configuration.Project.TasksFile)
			require.Equal(testInstance, testCase.expectedParallelism, configuration.Project.Parallelism)
			require.True(testInstance, configuration.Project.DisableCache)
		})
	}
}

func TestApplicationRejectsUnsupportedLogLevel(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(
		filepath.Join(configurationDirectory, testConfigurationFileNameConstant),
		[]byte("common:\n  log_level: chatty\n"),
		0o600,
	))
	testInstance.Setenv(testConfigurationSearchPathEnvironmentName, configurationDirectory)

	application := cli.NewApplication()
	require.ErrorContains(testInstance, application.InitializeForCommand(testRunCommandNameConstant), "unable to create logger")
}

func TestEmbeddedDefaultConfigurationIsYAML(testInstance *testing.T) {
	content, contentType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", contentType)
	require.Contains(testInstance, string(content), "project:")

	content[0] = '#'
	reloaded, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, content[0], reloaded[0])
}
