package execshell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	loggerNotConfiguredMessageConstant           = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant    = "shell executor command runner not configured"
	commandNameMissingMessageConstant            = "shell command name not provided"
	commandFailureErrorMessageTemplateConstant   = "%s command exited with code %d"
	commandExecutionErrorMessageTemplateConstant = "%s command execution failed: %v"
	commandFailureDetailLineLimitConstant        = 3
	commandFailureDetailSeparatorConstant        = " | "
)

var (
	// ErrLoggerNotConfigured indicates the logger dependency was missing.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the command runner dependency was missing.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrCommandNameMissing indicates the command name was not provided.
	ErrCommandNameMissing = errors.New(commandNameMissingMessageConstant)
)

// CommandFailedError reports a command that ran but exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error names the command, its arguments and the first lines of its diagnostics.
func (commandError CommandFailedError) Error() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(commandFailureErrorMessageTemplateConstant, commandError.Command.Name, commandError.Result.ExitCode))
	if len(commandError.Command.Details.Arguments) > 0 {
		builder.WriteString(" (")
		builder.WriteString(strings.Join(commandError.Command.Details.Arguments, " "))
		builder.WriteString(")")
	}
	if detail := summarizeOutput(commandError.Result); len(detail) > 0 {
		builder.WriteString(": ")
		builder.WriteString(detail)
	}
	return builder.String()
}

// CommandExecutionError wraps a runner failure: the command could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the underlying runner failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorMessageTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// summarizeOutput keeps the non-empty lines among the first few lines of stderr, falling back to stdout.
// Blank lines count toward the limit so a diagnostic's opening block stays together.
func summarizeOutput(result ExecutionResult) string {
	detail := strings.TrimSpace(result.StandardError)
	if len(detail) == 0 {
		detail = strings.TrimSpace(result.StandardOutput)
	}
	if len(detail) == 0 {
		return ""
	}

	lines := strings.SplitN(detail, "\n", commandFailureDetailLineLimitConstant+1)
	if len(lines) > commandFailureDetailLineLimitConstant {
		lines = lines[:commandFailureDetailLineLimitConstant]
	}
	summary := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 0 {
			summary = append(summary, trimmed)
		}
	}
	return strings.Join(summary, commandFailureDetailSeparatorConstant)
}
