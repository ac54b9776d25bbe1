package tasks

import "strings"

const defaultPackageFileConstant = "package.json"

// CommandConfiguration captures the project settings shared by the task commands.
type CommandConfiguration struct {
	Root         string `mapstructure:"root"`
	PackageFile  string `mapstructure:"package_file"`
	CachePath    string `mapstructure:"cache_path"`
	TasksFile    string `mapstructure:"tasks_file"`
	Parallelism  int    `mapstructure:"parallelism"`
	DisableCache bool   `mapstructure:"disable_cache"`
}

// DefaultCommandConfiguration targets package.json in the working directory with the built-in recipe.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Root:        ".",
		PackageFile: defaultPackageFileConstant,
	}
}

// Sanitize normalizes configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Root = strings.TrimSpace(configuration.Root)
	sanitized.PackageFile = strings.TrimSpace(configuration.PackageFile)
	sanitized.CachePath = strings.TrimSpace(configuration.CachePath)
	sanitized.TasksFile = strings.TrimSpace(configuration.TasksFile)
	if len(sanitized.PackageFile) == 0 {
		sanitized.PackageFile = defaultPackageFileConstant
	}
	if sanitized.Parallelism < 0 {
		sanitized.Parallelism = 0
	}
	return sanitized
}
