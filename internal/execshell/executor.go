package execshell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Validation errors raised during executor construction.
var (
	ErrLoggerNotConfigured        = errors.New("shell executor requires a logger")
	ErrCommandRunnerNotConfigured = errors.New("shell executor requires a command runner")
	ErrCommandNameMissing         = errors.New("shell command requires an executable name")
)

const (
	commandStartedMessageConstant   = "analyzer command started"
	commandCompletedMessageConstant = "analyzer command completed"
	commandFailedMessageConstant    = "analyzer command failed to execute"
	logFieldExecutableConstant      = "executable"
	logFieldArgumentsConstant       = "arguments"
	logFieldWorkingDirConstant      = "working_directory"
	logFieldExitCodeConstant        = "exit_code"
	logFieldStandardErrorConstant   = "standard_error"
	standardErrorSnippetLimit       = 512
)

// CommandDetails captures the invocation parameters of one subprocess run.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable name with its invocation details.
type ShellCommand struct {
	Name    string
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a subprocess run.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands and reports their results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutor coordinates command execution with structured logging.
type ShellExecutor struct {
	logger   *zap.Logger
	runner   CommandRunner
	observer CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor after validating dependencies.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observer CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	if observer == nil {
		observer = noopCommandEventObserver{}
	}
	return &ShellExecutor{logger: logger, runner: runner, observer: observer}, nil
}

// Execute runs the supplied command, logging its lifecycle. A non-zero exit
// code is not an error at this layer; callers interpret exit codes.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(strings.TrimSpace(command.Name)) == 0 {
		return ExecutionResult{}, ErrCommandNameMissing
	}

	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldExecutableConstant, command.Name),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirConstant, command.Details.WorkingDirectory),
	)
	executor.observer.CommandStarted(command)

	result, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Debug(
			commandFailedMessageConstant,
			zap.String(logFieldExecutableConstant, command.Name),
			zap.Error(runError),
		)
		executor.observer.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, runError
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldExecutableConstant, command.Name),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.String(logFieldStandardErrorConstant, truncateSnippet(result.StandardError)),
	)
	executor.observer.CommandCompleted(command, result)
	return result, nil
}

func truncateSnippet(value string) string {
	if len(value) <= standardErrorSnippetLimit {
		return value
	}
	return value[:standardErrorSnippetLimit]
}
