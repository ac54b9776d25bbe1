package flags

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tyemirov/wpforge/internal/utils"
)

// ErrFlagNotDefined indicates that the requested flag is not present on the command.
var ErrFlagNotDefined = errors.New("flag not defined")

// StringFlag returns the value of a string flag visible to command and whether the user set it.
func StringFlag(command *cobra.Command, name string) (string, bool, error) {
	return readFlag(command, name, (*pflag.FlagSet).GetString)
}

// IntFlag returns the value of an integer flag visible to command and whether the user set it.
func IntFlag(command *cobra.Command, name string) (int, bool, error) {
	return readFlag(command, name, (*pflag.FlagSet).GetInt)
}

// readFlag searches the command's own flags first, then flags inherited from its ancestors.
// Inherited flags matter before cobra merges them during parsing.
func readFlag[Value any](command *cobra.Command, name string, getter func(*pflag.FlagSet, string) (Value, error)) (Value, bool, error) {
	var zero Value
	if command == nil {
		return zero, false, ErrFlagNotDefined
	}
	for _, flagSet := range []*pflag.FlagSet{command.Flags(), command.InheritedFlags(), command.Root().PersistentFlags()} {
		flag := flagSet.Lookup(name)
		if flag == nil {
			continue
		}
		value, readError := getter(flagSet, name)
		if readError != nil {
			return zero, false, readError
		}
		return value, flag.Changed, nil
	}
	return zero, false, ErrFlagNotDefined
}

// CollectExecutionFlags reads --root, --tasks and --parallelism as seen by command.
// Flags missing from the command tree leave their fields zero.
func CollectExecutionFlags(command *cobra.Command) utils.ExecutionFlags {
	var executionFlags utils.ExecutionFlags
	if root, set, lookupError := StringFlag(command, RootFlagName); lookupError == nil {
		executionFlags.Root, executionFlags.RootSet = strings.TrimSpace(root), set
	}
	if tasksFile, set, lookupError := StringFlag(command, TasksFileFlagName); lookupError == nil {
		executionFlags.TasksFile, executionFlags.TasksFileSet = strings.TrimSpace(tasksFile), set
	}
	if parallelism, set, lookupError := IntFlag(command, ParallelismFlagName); lookupError == nil {
		executionFlags.Parallelism, executionFlags.ParallelismSet = parallelism, set
	}
	return executionFlags
}

// ResolveExecutionFlags prefers the settings published on the command context and falls back to
// reading the flags directly. The boolean reports whether any value is worth applying.
func ResolveExecutionFlags(command *cobra.Command) (utils.ExecutionFlags, bool) {
	if command != nil {
		if settings, available := utils.CommandSettingsFromContext(command.Context()); available {
			return settings.ExecutionFlags, true
		}
	}
	executionFlags := CollectExecutionFlags(command)
	return executionFlags, executionFlags.RootSet || executionFlags.TasksFileSet || executionFlags.ParallelismSet
}
