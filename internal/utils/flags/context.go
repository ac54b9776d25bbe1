package flags

import "github.com/spf13/cobra"

const (
	// RootFlagName exposes the shared project root flag name.
	RootFlagName = "root"
	// RootFlagUsage describes the shared project root flag purpose.
	RootFlagUsage = "Plugin project root containing package.json"
	// TasksFileFlagName exposes the shared task recipe flag name.
	TasksFileFlagName = "tasks"
	// TasksFileFlagUsage describes the shared task recipe flag purpose.
	TasksFileFlagUsage = "Task recipe file overriding the built-in recipe"
	// ParallelismFlagName exposes the shared parallelism flag name.
	ParallelismFlagName = "parallelism"
	// ParallelismFlagShorthand provides the shorthand for the parallelism flag.
	ParallelismFlagShorthand = "j"
	// ParallelismFlagUsage describes the shared parallelism flag purpose.
	ParallelismFlagUsage = "Maximum number of task actions running at once"
)

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	Root        ExecutionFlagDefinition
	TasksFile   ExecutionFlagDefinition
	Parallelism ExecutionFlagDefinition
}

// DefaultExecutionFlagDefinitions enables every shared execution flag.
func DefaultExecutionFlagDefinitions() ExecutionFlagDefinitions {
	return ExecutionFlagDefinitions{
		Root:        ExecutionFlagDefinition{Name: RootFlagName, Usage: RootFlagUsage, Enabled: true},
		TasksFile:   ExecutionFlagDefinition{Name: TasksFileFlagName, Usage: TasksFileFlagUsage, Enabled: true},
		Parallelism: ExecutionFlagDefinition{Name: ParallelismFlagName, Usage: ParallelismFlagUsage, Shorthand: ParallelismFlagShorthand, Enabled: true},
	}
}

// BindExecutionFlags attaches standardized execution flags to the provided command using persistent scope.
func BindExecutionFlags(command *cobra.Command, definitions ExecutionFlagDefinitions) {
	if command == nil {
		return
	}

	persistentFlagSet := command.PersistentFlags()
	if definitions.Root.Enabled && len(definitions.Root.Name) > 0 && persistentFlagSet.Lookup(definitions.Root.Name) == nil {
		persistentFlagSet.StringP(definitions.Root.Name, definitions.Root.Shorthand, "", definitions.Root.Usage)
	}
	if definitions.TasksFile.Enabled && len(definitions.TasksFile.Name) > 0 && persistentFlagSet.Lookup(definitions.TasksFile.Name) == nil {
		persistentFlagSet.StringP(definitions.TasksFile.Name, definitions.TasksFile.Shorthand, "", definitions.TasksFile.Usage)
	}
	if definitions.Parallelism.Enabled && len(definitions.Parallelism.Name) > 0 && persistentFlagSet.Lookup(definitions.Parallelism.Name) == nil {
		persistentFlagSet.IntP(definitions.Parallelism.Name, definitions.Parallelism.Shorthand, 0, definitions.Parallelism.Usage)
	}
}
