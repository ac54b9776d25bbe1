package tasks

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/utils"
	"github.com/tyemirov/wpforge/pkg/taskrunner"
)

const (
	runCommandUseConstant              = "run [task]"
	runCommandShortDescriptionConstant = "Run a task and everything it depends on"
	runCommandLongDescriptionConstant  = "run validates the task graph reachable from the named task (or the recipe default) and executes it, starting independent tasks concurrently and each task at most once."
	runCommandExampleConstant          = "wpforge run\n  wpforge run build --root ~/Development/woostify-sites-library\n  wpforge run styles -j 2"
	runCommandAliasConstant            = "r"
	disableCacheFlagNameConstant       = "no-cache"
	disableCacheFlagUsageConstant      = "Skip the minification cache for this run"
)

// RunCommandBuilder assembles the run command.
type RunCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	CommandRunner                execshell.CommandRunner
	TaskRunnerFactory            TaskRunnerFactory
}

// Build constructs the run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     runCommandUseConstant,
		Short:   runCommandShortDescriptionConstant,
		Long:    runCommandLongDescriptionConstant,
		Example: runCommandExampleConstant,
		Aliases: []string{runCommandAliasConstant},
		Args:    cobra.MaximumNArgs(1),
		RunE:    builder.run,
	}

	command.Flags().Bool(disableCacheFlagNameConstant, false, disableCacheFlagUsageConstant)

	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider, command)
	if disableCache, flagError := command.Flags().GetBool(disableCacheFlagNameConstant); flagError == nil && disableCache {
		configuration.DisableCache = true
	}

	dependenciesResult, dependenciesError := taskrunner.BuildDependencies(
		taskrunner.DependenciesConfig{
			LoggerProvider:               builder.LoggerProvider,
			HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
			CommandRunner:                builder.CommandRunner,
		},
		taskrunner.DependenciesOptions{
			Command:      command,
			Output:       utils.NewFlushingWriter(command.OutOrStdout()),
			Errors:       utils.NewFlushingWriter(command.ErrOrStderr()),
			Root:         configuration.Root,
			PackageFile:  configuration.PackageFile,
			CachePath:    configuration.CachePath,
			TasksFile:    configuration.TasksFile,
			Parallelism:  configuration.Parallelism,
			DisableCache: configuration.DisableCache,
		},
	)
	if dependenciesError != nil {
		return dependenciesError
	}
	defer dependenciesResult.Close()

	runner := resolveTaskRunner(builder.TaskRunnerFactory, dependenciesResult.Runner)
	_, runError := runner.Run(command.Context(), strings.TrimSpace(targetArgument(arguments)))
	return runError
}
