package utils

import (
	"context"
	"strings"
)

type commandSettingsContextKey struct{}

// ExecutionFlags records the project flags given on the command line and whether each was set explicitly.
type ExecutionFlags struct {
	Root           string
	RootSet        bool
	TasksFile      string
	TasksFileSet   bool
	Parallelism    int
	ParallelismSet bool
}

// CommandSettings is what the root command resolves before any subcommand runs.
type CommandSettings struct {
	ConfigurationFilePath string
	LogLevel              string
	ExecutionFlags        ExecutionFlags
}

func (settings CommandSettings) normalized() CommandSettings {
	settings.ConfigurationFilePath = strings.TrimSpace(settings.ConfigurationFilePath)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	settings.ExecutionFlags.Root = strings.TrimSpace(settings.ExecutionFlags.Root)
	settings.ExecutionFlags.TasksFile = strings.TrimSpace(settings.ExecutionFlags.TasksFile)
	return settings
}

// WithCommandSettings stores settings on a child of parentContext.
func WithCommandSettings(parentContext context.Context, settings CommandSettings) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, commandSettingsContextKey{}, settings.normalized())
}

// CommandSettingsFromContext returns the settings stored by WithCommandSettings.
func CommandSettingsFromContext(executionContext context.Context) (CommandSettings, bool) {
	if executionContext == nil {
		return CommandSettings{}, false
	}
	settings, available := executionContext.Value(commandSettingsContextKey{}).(CommandSettings)
	return settings, available
}
