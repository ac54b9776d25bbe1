package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	completedMessageTemplateConstant        = "Completed %s"
	failedMessageTemplateConstant           = "%s failed with exit code %d"
	failedWithDetailMessageTemplateConstant = "%s failed with exit code %d: %s"
	executionFailureMessageTemplateConstant = "%s failed: %v"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
)

// messageFormatter renders lifecycle events as console sentences.
type messageFormatter struct{}

func (formatter messageFormatter) format(event commandEvent) string {
	description := formatter.describe(event.command)
	switch event.stage {
	case commandStageCompleted:
		return fmt.Sprintf(completedMessageTemplateConstant, description)
	case commandStageExitedNonZero:
		if detail := summarizeOutput(event.result); len(detail) > 0 {
			return fmt.Sprintf(failedWithDetailMessageTemplateConstant, description, event.result.ExitCode, detail)
		}
		return fmt.Sprintf(failedMessageTemplateConstant, description, event.result.ExitCode)
	case commandStageRunnerFailed:
		return fmt.Sprintf(executionFailureMessageTemplateConstant, description, event.cause)
	default:
		return fmt.Sprintf(startedMessageTemplateConstant, description)
	}
}

func (formatter messageFormatter) describe(command ShellCommand) string {
	description := strings.Join(append([]string{string(command.Name)}, command.Details.Arguments...), " ")
	if len(command.Details.WorkingDirectory) > 0 {
		description += fmt.Sprintf(workingDirectorySuffixTemplateConstant, command.Details.WorkingDirectory)
	}
	return description
}
