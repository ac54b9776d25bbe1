package tasks

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	flagutils "github.com/tyemirov/wpforge/internal/utils/flags"
	"github.com/tyemirov/wpforge/pkg/taskrunner"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// TaskRunnerExecutor represents a task graph runner.
type TaskRunnerExecutor = taskrunner.Executor

// TaskRunnerFactory constructs task graph runners.
type TaskRunnerFactory = taskrunner.Factory

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveConfiguration(provider func() CommandConfiguration, command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if provider != nil {
		configuration = provider()
	}

	executionFlags, executionFlagsAvailable := flagutils.ResolveExecutionFlags(command)
	if executionFlagsAvailable {
		if executionFlags.RootSet {
			configuration.Root = executionFlags.Root
		}
		if executionFlags.TasksFileSet {
			configuration.TasksFile = executionFlags.TasksFile
		}
		if executionFlags.ParallelismSet {
			configuration.Parallelism = executionFlags.Parallelism
		}
	}

	return configuration.Sanitize()
}

func resolveTaskRunner(factory TaskRunnerFactory, dependencies taskrunner.Dependencies) TaskRunnerExecutor {
	return taskrunner.Resolve(factory, dependencies)
}

func targetArgument(arguments []string) string {
	if len(arguments) == 0 {
		return ""
	}
	return arguments[0]
}
