package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/checkup/internal/execshell"
)

const (
	toolStartedMessageTemplateConstant          = "Running %s"
	toolCompletedMessageTemplateConstant        = "Completed %s"
	toolFailedExitCodeMessageTemplateConstant   = "%s exited with code %d"
	toolExecutionFailureMessageTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant      = " (in %s)"
	standardErrorSuffixTemplateConstant         = ": %s"
	argumentsJoinSeparatorConstant              = " "
	unknownFailureMessageConstant               = "unknown error"
)

// ConsoleCommandEventLogger renders analyzer tool lifecycle events using a
// zap logger configured for human-readable output. Analyzer tools routinely
// exit non-zero when they detect issues, so non-zero completions log at
// debug rather than warn.
type ConsoleCommandEventLogger struct {
	logger *zap.Logger
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted implements execshell.CommandEventObserver by logging tool start notifications.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(fmt.Sprintf(toolStartedMessageTemplateConstant, formatCommandLabel(command)))
}

// CommandCompleted implements execshell.CommandEventObserver by logging tool completion notifications.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode == 0 {
		eventLogger.logger.Info(fmt.Sprintf(toolCompletedMessageTemplateConstant, formatCommandLabel(command)))
		return
	}
	eventLogger.logger.Debug(formatFailureMessage(command, result))
}

// CommandExecutionFailed implements execshell.CommandEventObserver by logging unexpected execution failures.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	eventLogger.logger.Warn(fmt.Sprintf(toolExecutionFailureMessageTemplateConstant, formatCommandLabel(command), failureMessage))
}

func formatFailureMessage(command execshell.ShellCommand, result execshell.ExecutionResult) string {
	message := fmt.Sprintf(toolFailedExitCodeMessageTemplateConstant, formatCommandLabel(command), result.ExitCode)
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) > 0 {
		message += fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	return message
}

func formatCommandLabel(command execshell.ShellCommand) string {
	commandParts := []string{command.Name}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, argumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, argumentsJoinSeparatorConstant)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) > 0 {
		commandLabel += fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return commandLabel
}
