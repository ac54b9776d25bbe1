package transforms

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const (
	commandOptionConstant             = "command"
	defaultComposerArgumentConstant   = "install"
	composerNoInteractionFlagConstant = "--no-interaction"
)

type commandOptions struct {
	Command          string            `mapstructure:"command"`
	Arguments        []string          `mapstructure:"arguments"`
	WorkingDirectory string            `mapstructure:"working_directory"`
	Environment      map[string]string `mapstructure:"environment"`
	EchoOutput       bool              `mapstructure:"echo_output"`
}

func buildComposer(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	options := commandOptions{
		Command:   string(execshell.CommandComposer),
		Arguments: []string{defaultComposerArgumentConstant, composerNoInteractionFlagConstant},
	}
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	return catalog.commandFunc(options), nil
}

func buildExec(catalog *Catalog, rawOptions map[string]any) (taskgraph.Func, error) {
	options := commandOptions{EchoOutput: true}
	if decodeError := catalog.decodeOptions(rawOptions, &options); decodeError != nil {
		return nil, decodeError
	}
	if len(strings.TrimSpace(options.Command)) == 0 {
		return nil, missingOptionError{Option: commandOptionConstant}
	}
	return catalog.commandFunc(options), nil
}

func (catalog *Catalog) commandFunc(options commandOptions) taskgraph.Func {
	workingDirectory := catalog.dependencies.Root
	if len(options.WorkingDirectory) > 0 {
		workingDirectory = filepath.Join(catalog.dependencies.Root, filepath.FromSlash(options.WorkingDirectory))
	}

	return func(executionContext context.Context) error {
		if catalog.dependencies.CommandExecutor == nil {
			return ErrCommandExecutorMissing
		}
		result, executionError := catalog.dependencies.CommandExecutor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(options.Command),
			Details: execshell.CommandDetails{
				Arguments:            options.Arguments,
				WorkingDirectory:     workingDirectory,
				EnvironmentVariables: options.Environment,
			},
		})
		if executionError != nil {
			return executionError
		}
		if options.EchoOutput && len(result.StandardOutput) > 0 {
			return writeOutput(catalog.dependencies.Output, result.StandardOutput)
		}
		return nil
	}
}

func writeOutput(output io.Writer, text string) error {
	if strings.HasSuffix(text, "\n") {
		_, writeError := io.WriteString(output, text)
		return writeError
	}
	_, writeError := fmt.Fprintln(output, text)
	return writeError
}
