package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	taskscmd "github.com/tyemirov/wpforge/cmd/cli/tasks"
	"github.com/tyemirov/wpforge/internal/utils"
	flagutils "github.com/tyemirov/wpforge/internal/utils/flags"
)

const (
	environmentPrefixConstant                          = "WPFORGE"
	configurationNameConstant                          = "config"
	configurationTypeConstant                          = "yaml"
	configurationFileNameConstant                      = configurationNameConstant + "." + configurationTypeConstant
	configurationSearchPathEnvironmentVariableConstant = "WPFORGE_CONFIG_SEARCH_PATH"
	xdgConfigHomeEnvironmentVariableConstant           = "XDG_CONFIG_HOME"
	workingDirectorySearchPathConstant                 = "."
	userConfigurationDirectoryNameConstant             = ".wpforge"
	commonLogLevelConfigKeyConstant                    = "common.log_level"
	commonLogFormatConfigKeyConstant                   = "common.log_format"
	projectRootConfigKeyConstant                       = "project.root"
	projectPackageFileConfigKeyConstant                = "project.package_file"
	projectCachePathConfigKeyConstant                  = "project.cache_path"
	projectTasksFileConfigKeyConstant                  = "project.tasks_file"
	projectParallelismConfigKeyConstant                = "project.parallelism"
	projectDisableCacheConfigKeyConstant               = "project.disable_cache"
	configurationLoadErrorTemplateConstant             = "unable to load configuration: %w"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration `mapstructure:"common"`
	Project taskscmd.CommandConfiguration  `mapstructure:"project"`
}

// ApplicationCommonConfiguration stores logging defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func newConfigurationLoader() *utils.ConfigurationLoader {
	loader := utils.NewConfigurationLoader(configurationNameConstant, configurationTypeConstant, environmentPrefixConstant, configurationSearchPaths())
	embeddedContent, embeddedType := EmbeddedDefaultConfiguration()
	loader.SetEmbeddedConfiguration(embeddedContent, embeddedType)
	return loader
}

// configurationSearchPaths returns WPFORGE_CONFIG_SEARCH_PATH entries when set,
// otherwise the working directory followed by the XDG and home configuration directories.
func configurationSearchPaths() []string {
	if override := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentVariableConstant)); len(override) > 0 {
		overridePaths := nonBlank(filepath.SplitList(override))
		if len(overridePaths) > 0 {
			return overridePaths
		}
		return []string{workingDirectorySearchPathConstant}
	}

	baseDirectories := []string{os.Getenv(xdgConfigHomeEnvironmentVariableConstant)}
	if homeDirectory, homeDirectoryError := os.UserHomeDir(); homeDirectoryError == nil {
		baseDirectories = append(baseDirectories, homeDirectory)
	}

	searchPaths := []string{workingDirectorySearchPathConstant}
	seen := map[string]struct{}{}
	for _, baseDirectory := range nonBlank(baseDirectories) {
		candidate := filepath.Join(baseDirectory, userConfigurationDirectoryNameConstant)
		if _, duplicate := seen[candidate]; duplicate {
			continue
		}
		seen[candidate] = struct{}{}
		searchPaths = append(searchPaths, candidate)
	}
	return searchPaths
}

func nonBlank(values []string) []string {
	kept := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
			kept = append(kept, trimmed)
		}
	}
	return kept
}

func configurationDefaults() map[string]any {
	projectDefaults := taskscmd.DefaultCommandConfiguration()
	return map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatConsole),
		projectRootConfigKeyConstant:         projectDefaults.Root,
		projectPackageFileConfigKeyConstant:  projectDefaults.PackageFile,
		projectCachePathConfigKeyConstant:    projectDefaults.CachePath,
		projectTasksFileConfigKeyConstant:    projectDefaults.TasksFile,
		projectParallelismConfigKeyConstant:  projectDefaults.Parallelism,
		projectDisableCacheConfigKeyConstant: projectDefaults.DisableCache,
	}
}

// initializeConfiguration layers flags over the loaded configuration, builds the loggers
// and publishes the resolved settings on the command context.
func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.rootFlags.configurationFilePath, configurationDefaults(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	flagSet := command.Flags()
	if flagSet.Changed(logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.rootFlags.logLevel
	}
	if flagSet.Changed(logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.rootFlags.logFormat
	}

	if loggerError := application.createLoggers(); loggerError != nil {
		return loggerError
	}
	application.logConfigurationInitialization()

	settingsContext := utils.WithCommandSettings(command.Context(), utils.CommandSettings{
		ConfigurationFilePath: application.configurationMetadata.ConfigFileUsed,
		LogLevel:              application.configuration.Common.LogLevel,
		ExecutionFlags:        flagutils.CollectExecutionFlags(command),
	})
	command.SetContext(settingsContext)
	command.Root().SetContext(settingsContext)
	return nil
}

// InitializeForCommand prepares application state for the provided command name without executing command logic.
func (application *Application) InitializeForCommand(commandUse string) error {
	command := &cobra.Command{Use: commandUse}
	command.SetContext(context.Background())
	return application.initializeConfiguration(command)
}

// ConfigFileUsed returns the configuration file path used during initialization.
func (application *Application) ConfigFileUsed() string {
	return application.configurationMetadata.ConfigFileUsed
}

// Configuration returns the configuration resolved by the last initialization.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}
