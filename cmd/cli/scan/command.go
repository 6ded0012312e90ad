package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/checkup/internal/aggregate"
	"github.com/temirov/checkup/internal/analyzer"
	"github.com/temirov/checkup/internal/engine"
	"github.com/temirov/checkup/internal/execshell"
	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
	"github.com/temirov/checkup/internal/registry"
	"github.com/temirov/checkup/internal/report"
	"github.com/temirov/checkup/internal/ui"
	"github.com/temirov/checkup/internal/utils"
	"github.com/temirov/checkup/internal/utils/flags"
	pathutils "github.com/temirov/checkup/internal/utils/path"
)

const (
	commandUseConstant   = "scan [root]"
	commandShortConstant = "Analyze a project tree across every requested check category"
	commandLongConstant  = "scan detects the project's languages and manifests, selects the best available analyzer per category with heuristic fallback, and renders an aggregated review report."

	scopeFlagNameConstant        = "scope"
	scopeFlagUsageConstant       = "Restrict analysis to a subdirectory relative to the root."
	categoriesFlagNameConstant   = "categories"
	categoriesFlagUsageConstant  = "Comma-separated category names to run (default: all)."
	catalogFlagNameConstant      = "catalog"
	catalogFlagUsageConstant     = "Path to a YAML tool catalog layered over the built-in registry."
	parallelismFlagNameConstant  = "parallelism"
	parallelismFlagUsageConstant = "Number of categories analyzed concurrently (0 selects automatically)."
	toolTimeoutFlagNameConstant  = "tool-timeout"
	toolTimeoutFlagUsageConstant = "Per-tool execution timeout, for example 90s or 2m."
	deadlineFlagNameConstant     = "deadline"
	deadlineFlagUsageConstant    = "Overall run deadline; categories not started in time are skipped."
	formatFlagNameConstant       = "format"
	formatFlagUsageConstant      = "Report format for the rendered review."
	outputFlagNameConstant       = "output"
	outputFlagUsageConstant      = "Write the report to this file instead of standard output."
	failOnFlagNameConstant       = "fail-on"
	failOnFlagUsageConstant      = "Severity threshold enforced in blocking mode (default high)."
	blockingFlagNameConstant     = "blocking"
	blockingFlagUsageConstant    = "Exit with a non-zero status when the fail-on threshold is met."

	defaultRootArgumentConstant        = "."
	scopeOutsideRootTemplateConstant   = "scope path %q is outside the project root"
	scopeUnreadableTemplateConstant    = "scope path %q is not readable: %w"
	scopeNotDirectoryTemplateConstant  = "scope path %q is not a directory"
	thresholdExceededTemplateConstant  = "findings at or above %s severity detected (worst: %s)"
	profileDetectionTemplateConstant   = "unable to profile project root: %w"
	catalogLoadTemplateConstant        = "unable to load tool catalog: %w"
	invalidDurationTemplateConstant    = "invalid %s value %q: %w"
	outputFileTemplateConstant         = "unable to create report output file: %w"
	renderTemplateConstant             = "unable to render report: %w"
	scanStartedMessageConstant         = "project scan started"
	scanFinishedMessageConstant        = "project scan finished"
	rootPathFieldNameConstant          = "root_path"
	categoryCountFieldNameConstant     = "category_count"
	findingCountFieldNameConstant      = "finding_count"
	degradedCountFieldNameConstant     = "degraded_count"
	skippedCountFieldNameConstant      = "skipped_count"
	thresholdExceededExitCodeConstant  = 2
	reportOutputFilePermissionConstant = 0o644
)

// ThresholdExceededError signals that blocking mode found findings at or
// above the configured severity threshold.
type ThresholdExceededError struct {
	Threshold model.Severity
	Worst     model.Severity
}

func (thresholdError ThresholdExceededError) Error() string {
	return fmt.Sprintf(thresholdExceededTemplateConstant, thresholdError.Threshold, thresholdError.Worst)
}

// ExitCode returns the process exit status for threshold violations.
func (thresholdError ThresholdExceededError) ExitCode() int {
	return thresholdExceededExitCodeConstant
}

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted scan configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the scan cobra command with configurable
// dependencies. The command runner and prober are injectable for tests and
// default to the operating system implementations.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	CommandRunner                execshell.CommandRunner
	Prober                       analyzer.Prober
}

// Build constructs the cobra command for project scanning.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(scopeFlagNameConstant, "", scopeFlagUsageConstant)
	command.Flags().StringSlice(categoriesFlagNameConstant, nil, categoriesFlagUsageConstant)
	command.Flags().String(catalogFlagNameConstant, "", catalogFlagUsageConstant)
	command.Flags().Int(parallelismFlagNameConstant, 0, parallelismFlagUsageConstant)
	command.Flags().String(toolTimeoutFlagNameConstant, "", toolTimeoutFlagUsageConstant)
	command.Flags().String(deadlineFlagNameConstant, "", deadlineFlagUsageConstant)
	command.Flags().String(formatFlagNameConstant, "", flags.FormatChoiceUsage(defaultFormatConstant, []string{string(report.FormatMarkdown), string(report.FormatJSON)}, formatFlagUsageConstant))
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	command.Flags().String(failOnFlagNameConstant, "", failOnFlagUsageConstant)
	command.Flags().Bool(blockingFlagNameConstant, false, blockingFlagUsageConstant)

	return command, nil
}

type resolvedOptions struct {
	rootPath    string
	scopePath   string
	categories  []model.CheckCategory
	catalogPath string
	format      report.Format
	outputPath  string
	failOn      model.Severity
	blocking    bool
	engine      engine.Options
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.resolveOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()

	projectProfile, profileError := profile.Detect(options.rootPath)
	if profileError != nil {
		return fmt.Errorf(profileDetectionTemplateConstant, profileError)
	}

	toolRegistry, registryError := registry.NewDefaultRegistry()
	if registryError != nil {
		return registryError
	}
	if len(options.catalogPath) > 0 {
		toolCatalog, catalogError := registry.LoadCatalog(options.catalogPath)
		if catalogError != nil {
			return fmt.Errorf(catalogLoadTemplateConstant, catalogError)
		}
		if applyError := toolCatalog.Apply(toolRegistry); applyError != nil {
			return fmt.Errorf(catalogLoadTemplateConstant, applyError)
		}
	}

	var commandEventObserver execshell.CommandEventObserver
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		commandEventObserver = ui.NewConsoleCommandEventLogger(logger)
	}

	executor, executorError := execshell.NewShellExecutor(logger, builder.resolveCommandRunner(), commandEventObserver)
	if executorError != nil {
		return executorError
	}

	reviewEngine, engineError := engine.NewEngine(toolRegistry, executor, builder.Prober, nil, options.engine, logger)
	if engineError != nil {
		return engineError
	}

	logger.Info(
		scanStartedMessageConstant,
		zap.String(rootPathFieldNameConstant, options.rootPath),
		zap.Int(categoryCountFieldNameConstant, len(options.categories)),
	)

	outcomes, runError := reviewEngine.Run(command.Context(), projectProfile, options.rootPath, options.scopePath, options.categories)
	if runError != nil {
		return runError
	}

	reviewReport := aggregate.NewAggregator(logger).Assemble(outcomes, options.rootPath, options.scopePath)

	logger.Info(
		scanFinishedMessageConstant,
		zap.Int(findingCountFieldNameConstant, reviewReport.TotalFindings()),
		zap.Int(degradedCountFieldNameConstant, len(reviewReport.Metadata.DegradedCategories)),
		zap.Int(skippedCountFieldNameConstant, len(reviewReport.Metadata.SkippedCategories)),
	)

	if renderError := builder.renderReport(command, reviewReport, options); renderError != nil {
		return renderError
	}

	return evaluateThreshold(reviewReport, options)
}

func (builder *CommandBuilder) renderReport(command *cobra.Command, reviewReport model.Report, options resolvedOptions) error {
	destination := utils.NewFlushingWriter(command.OutOrStdout())
	if len(options.outputPath) > 0 {
		outputFile, createError := os.OpenFile(options.outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, reportOutputFilePermissionConstant)
		if createError != nil {
			return fmt.Errorf(outputFileTemplateConstant, createError)
		}
		defer outputFile.Close()
		destination = outputFile
	}

	if renderError := report.Render(destination, reviewReport, options.format); renderError != nil {
		return fmt.Errorf(renderTemplateConstant, renderError)
	}
	return nil
}

// evaluateThreshold applies the fail-on contract: the threshold is only
// enforced in blocking mode, and skipped categories never contribute.
func evaluateThreshold(reviewReport model.Report, options resolvedOptions) error {
	if !options.blocking {
		return nil
	}
	worstSeverity, anyFindings := reviewReport.WorstSeverity()
	if !anyFindings {
		return nil
	}
	if worstSeverity.Rank() >= options.failOn.Rank() {
		return ThresholdExceededError{Threshold: options.failOn, Worst: worstSeverity}
	}
	return nil
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command, arguments []string) (resolvedOptions, error) {
	configuration := builder.resolveConfiguration()

	homeExpander := pathutils.NewHomeExpander()

	options := resolvedOptions{rootPath: defaultRootArgumentConstant}
	if len(arguments) > 0 && len(strings.TrimSpace(arguments[0])) > 0 {
		options.rootPath = homeExpander.Expand(arguments[0])
	}
	absoluteRootPath, rootPathError := filepath.Abs(options.rootPath)
	if rootPathError != nil {
		return resolvedOptions{}, rootPathError
	}
	options.rootPath = absoluteRootPath

	scopeValue := strings.TrimSpace(stringOption(command, scopeFlagNameConstant, configuration.Scope))
	if len(scopeValue) > 0 {
		resolvedScopePath, scopeError := resolveScopePath(options.rootPath, homeExpander.Expand(scopeValue))
		if scopeError != nil {
			return resolvedOptions{}, scopeError
		}
		options.scopePath = resolvedScopePath
	}
	options.catalogPath = homeExpander.Expand(stringOption(command, catalogFlagNameConstant, configuration.Catalog))
	options.outputPath = homeExpander.Expand(stringOption(command, outputFlagNameConstant, configuration.Output))
	options.blocking = configuration.Blocking
	if command.Flags().Changed(blockingFlagNameConstant) {
		options.blocking, _ = command.Flags().GetBool(blockingFlagNameConstant)
	}

	categoryNames := configuration.Categories
	if command.Flags().Changed(categoriesFlagNameConstant) {
		categoryNames, _ = command.Flags().GetStringSlice(categoriesFlagNameConstant)
	}
	if len(categoryNames) == 0 {
		options.categories = model.AllCategories()
	} else {
		parsedCategories, parseError := model.ParseCategories(categoryNames)
		if parseError != nil {
			return resolvedOptions{}, parseError
		}
		options.categories = parsedCategories
	}

	formatName := stringOption(command, formatFlagNameConstant, configuration.Format)
	parsedFormat, formatError := report.ParseFormat(formatName)
	if formatError != nil {
		return resolvedOptions{}, formatError
	}
	options.format = parsedFormat

	// Blocking mode enforces the high threshold unless fail-on says otherwise.
	options.failOn = model.SeverityHigh
	failOnName := stringOption(command, failOnFlagNameConstant, configuration.FailOn)
	if len(strings.TrimSpace(failOnName)) > 0 {
		parsedSeverity, severityError := model.ParseSeverity(failOnName)
		if severityError != nil {
			return resolvedOptions{}, severityError
		}
		options.failOn = parsedSeverity
	}

	options.engine.Parallelism = configuration.Parallelism
	if command.Flags().Changed(parallelismFlagNameConstant) {
		options.engine.Parallelism, _ = command.Flags().GetInt(parallelismFlagNameConstant)
	}

	toolTimeout, toolTimeoutError := durationOption(command, toolTimeoutFlagNameConstant, configuration.ToolTimeout)
	if toolTimeoutError != nil {
		return resolvedOptions{}, toolTimeoutError
	}
	options.engine.ToolTimeout = toolTimeout

	deadline, deadlineError := durationOption(command, deadlineFlagNameConstant, configuration.Deadline)
	if deadlineError != nil {
		return resolvedOptions{}, deadlineError
	}
	options.engine.Deadline = deadline

	return options, nil
}

// resolveScopePath anchors the scope restriction inside the project root so
// subprocess analyzers and heuristic walks agree on the directory it names.
func resolveScopePath(rootPath string, scopeValue string) (string, error) {
	scopePath := scopeValue
	if !filepath.IsAbs(scopePath) {
		scopePath = filepath.Join(rootPath, scopePath)
	}
	absoluteScopePath, absoluteError := filepath.Abs(scopePath)
	if absoluteError != nil {
		return "", absoluteError
	}
	relativeScopePath, relativeError := filepath.Rel(rootPath, absoluteScopePath)
	if relativeError != nil || relativeScopePath == ".." || strings.HasPrefix(relativeScopePath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf(scopeOutsideRootTemplateConstant, scopeValue)
	}
	scopeInfo, statError := os.Stat(absoluteScopePath)
	if statError != nil {
		return "", fmt.Errorf(scopeUnreadableTemplateConstant, scopeValue, statError)
	}
	if !scopeInfo.IsDir() {
		return "", fmt.Errorf(scopeNotDirectoryTemplateConstant, scopeValue)
	}
	return absoluteScopePath, nil
}

func stringOption(command *cobra.Command, flagName string, configuredValue string) string {
	if command.Flags().Changed(flagName) {
		flagValue, _ := command.Flags().GetString(flagName)
		return flagValue
	}
	return configuredValue
}

func durationOption(command *cobra.Command, flagName string, configuredValue string) (time.Duration, error) {
	rawValue := stringOption(command, flagName, configuredValue)
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return 0, nil
	}
	parsedDuration, parseError := time.ParseDuration(trimmedValue)
	if parseError != nil {
		return 0, fmt.Errorf(invalidDurationTemplateConstant, flagName, rawValue, parseError)
	}
	if parsedDuration < 0 {
		return 0, fmt.Errorf(invalidDurationTemplateConstant, flagName, rawValue, errors.New("duration must not be negative"))
	}
	return parsedDuration, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{Format: defaultFormatConstant}
	}
	configuration := builder.ConfigurationProvider()
	if len(strings.TrimSpace(configuration.Format)) == 0 {
		configuration.Format = defaultFormatConstant
	}
	return configuration
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveCommandRunner() execshell.CommandRunner {
	if builder.CommandRunner != nil {
		return builder.CommandRunner
	}
	return execshell.NewOSCommandRunner()
}
