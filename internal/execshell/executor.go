package execshell

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	composerCommandNameStringConstant = "composer"
	sassCommandNameStringConstant     = "sass"
	wpCLICommandNameStringConstant    = "wp"
	commandStartMessageConstant       = "command_execution_started"
	commandSuccessMessageConstant     = "command_execution_completed"
	commandFailureMessageConstant     = "command_returned_non_zero_status"
	commandRunnerErrorMessageConstant = "command_execution_error"
	commandNameFieldNameConstant      = "command"
	commandArgumentsFieldNameConstant = "arguments"
	workingDirectoryFieldNameConstant = "working_directory"
	exitCodeFieldNameConstant         = "exit_code"
	standardErrorFieldNameConstant    = "stderr"
	elapsedFieldNameConstant          = "elapsed"
)

// CommandName identifies an executable.
type CommandName string

// Executables the default recipe shells out to.
const (
	CommandComposer CommandName = CommandName(composerCommandNameStringConstant)
	CommandSass     CommandName = CommandName(sassCommandNameStringConstant)
	CommandWPCLI    CommandName = CommandName(wpCLICommandNameStringConstant)
)

// CommandDetails describes command invocation properties.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand represents a fully qualified command invocation.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures observable command results.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

type commandStage int

const (
	commandStageStarted commandStage = iota
	commandStageCompleted
	commandStageExitedNonZero
	commandStageRunnerFailed
)

// commandEvent is one lifecycle transition of a command run.
type commandEvent struct {
	stage   commandStage
	command ShellCommand
	result  ExecutionResult
	cause   error
	elapsed time.Duration
}

func (event commandEvent) level() zapcore.Level {
	switch event.stage {
	case commandStageExitedNonZero:
		return zapcore.WarnLevel
	case commandStageRunnerFailed:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (event commandEvent) message() string {
	switch event.stage {
	case commandStageCompleted:
		return commandSuccessMessageConstant
	case commandStageExitedNonZero:
		return commandFailureMessageConstant
	case commandStageRunnerFailed:
		return commandRunnerErrorMessageConstant
	default:
		return commandStartMessageConstant
	}
}

func (event commandEvent) fields() []zap.Field {
	fields := []zap.Field{zap.String(commandNameFieldNameConstant, string(event.command.Name))}
	switch event.stage {
	case commandStageStarted:
		fields = append(fields,
			zap.Strings(commandArgumentsFieldNameConstant, event.command.Details.Arguments),
			zap.String(workingDirectoryFieldNameConstant, event.command.Details.WorkingDirectory),
		)
	case commandStageCompleted:
		fields = append(fields, zap.Int(exitCodeFieldNameConstant, event.result.ExitCode), zap.Duration(elapsedFieldNameConstant, event.elapsed))
	case commandStageExitedNonZero:
		fields = append(fields,
			zap.Int(exitCodeFieldNameConstant, event.result.ExitCode),
			zap.String(standardErrorFieldNameConstant, event.result.StandardError),
			zap.Duration(elapsedFieldNameConstant, event.elapsed),
		)
	case commandStageRunnerFailed:
		fields = append(fields, zap.Error(event.cause))
	}
	return fields
}

// ShellExecutor runs commands through a CommandRunner and logs every lifecycle transition.
type ShellExecutor struct {
	commandRunner        CommandRunner
	logger               *zap.Logger
	humanReadableLogging bool
	formatter            messageFormatter
	clock                func() time.Time
}

// NewShellExecutor builds an executor for the provided runner and logger.
// Human-readable logging replaces structured fields with one sentence per transition.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		commandRunner:        commandRunner,
		logger:               logger,
		humanReadableLogging: humanReadableLogging,
		clock:                time.Now,
	}, nil
}

// Execute runs command. A non-zero exit is reported as CommandFailedError and a runner
// failure as CommandExecutionError; in both cases the returned result is empty.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	command.Name = CommandName(strings.TrimSpace(string(command.Name)))
	if len(command.Name) == 0 {
		return ExecutionResult{}, ErrCommandNameMissing
	}

	executor.report(commandEvent{stage: commandStageStarted, command: command})
	startTime := executor.clock()
	executionResult, runnerError := executor.commandRunner.Run(executionContext, command)
	elapsed := executor.clock().Sub(startTime)

	switch {
	case runnerError != nil:
		executor.report(commandEvent{stage: commandStageRunnerFailed, command: command, cause: runnerError, elapsed: elapsed})
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runnerError}
	case executionResult.ExitCode != 0:
		executor.report(commandEvent{stage: commandStageExitedNonZero, command: command, result: executionResult, elapsed: elapsed})
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	default:
		executor.report(commandEvent{stage: commandStageCompleted, command: command, result: executionResult, elapsed: elapsed})
		return executionResult, nil
	}
}

func (executor *ShellExecutor) report(event commandEvent) {
	if executor.humanReadableLogging {
		executor.logger.Log(event.level(), executor.formatter.format(event))
		return
	}
	executor.logger.Log(event.level(), event.message(), event.fields()...)
}
