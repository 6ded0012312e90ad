package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/checkup/internal/execshell"
	"github.com/temirov/checkup/internal/registry"
)

const (
	defaultInvocationTimeoutConstant   = 120 * time.Second
	scratchDirectoryPatternTemplate    = "checkup-%s-*"
	scratchDirectoryEnvironmentKey     = "TMPDIR"
	toolUnavailableTemplateConstant    = "%w: %s"
	toolTimeoutTemplateConstant        = "%w: %s exceeded %s"
	toolRunFailureTemplateConstant     = "%w: %s: %v"
	adapterExecutorRequiredMessage     = "tool adapter requires a shell executor"
	adapterProberRequiredMessage       = "tool adapter requires a prober"
	logToolInvokedMessageConstant      = "external analyzer invoked"
	logFieldToolConstant               = "tool"
	logFieldExitCodeFieldConstant      = "exit_code"
	logFieldFindingCountFieldConstant  = "finding_count"
)

// Prober checks whether an external tool is installed. Probes are
// lightweight and side-effect free; they never run the tool's analysis.
type Prober interface {
	Probe(executionContext context.Context, descriptor registry.ToolDescriptor) bool
}

// LookPathProber resolves tool availability through the executable search path.
type LookPathProber struct{}

// Probe implements Prober using exec.LookPath.
func (LookPathProber) Probe(executionContext context.Context, descriptor registry.ToolDescriptor) bool {
	_, lookupError := exec.LookPath(descriptor.Command)
	return lookupError == nil
}

// ToolAdapter runs one external analyzer described by a registry descriptor
// and normalizes its output through the descriptor's parser.
type ToolAdapter struct {
	descriptor registry.ToolDescriptor
	executor   *execshell.ShellExecutor
	parser     OutputParser
	prober     Prober
	timeout    time.Duration
	logger     *zap.Logger
}

// NewToolAdapter constructs a ToolAdapter, resolving the descriptor's parser
// reference. A zero timeout selects the default invocation timeout.
func NewToolAdapter(descriptor registry.ToolDescriptor, executor *execshell.ShellExecutor, prober Prober, timeout time.Duration, logger *zap.Logger) (*ToolAdapter, error) {
	if executor == nil {
		return nil, errors.New(adapterExecutorRequiredMessage)
	}
	if prober == nil {
		return nil, errors.New(adapterProberRequiredMessage)
	}
	parser, parserError := ParserFor(descriptor.Parser)
	if parserError != nil {
		return nil, parserError
	}
	if timeout <= 0 {
		timeout = defaultInvocationTimeoutConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolAdapter{
		descriptor: descriptor,
		executor:   executor,
		parser:     parser,
		prober:     prober,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Name returns the adapter's tool name.
func (adapter *ToolAdapter) Name() string {
	return adapter.descriptor.Name
}

// Probe reports whether the underlying tool is installed.
func (adapter *ToolAdapter) Probe(executionContext context.Context) bool {
	return adapter.prober.Probe(executionContext, adapter.descriptor)
}

// Run invokes the tool as a bounded subprocess and parses its output.
// Failures map onto the analyzer error taxonomy: a missing binary is
// ErrToolUnavailable, deadline expiry is ErrToolTimeout, and unparseable
// output is ErrOutputParse. The scanned project is never written to; the
// tool's scratch space is a private temp directory removed before return.
func (adapter *ToolAdapter) Run(executionContext context.Context, request Request) (Result, error) {
	if !adapter.Probe(executionContext) {
		return Result{}, fmt.Errorf(toolUnavailableTemplateConstant, ErrToolUnavailable, adapter.descriptor.Name)
	}

	scratchDirectory, scratchError := os.MkdirTemp("", fmt.Sprintf(scratchDirectoryPatternTemplate, adapter.descriptor.Name))
	if scratchError != nil {
		return Result{}, fmt.Errorf(toolRunFailureTemplateConstant, ErrToolUnavailable, adapter.descriptor.Name, scratchError)
	}
	defer os.RemoveAll(scratchDirectory)

	boundedContext, cancelInvocation := context.WithTimeout(executionContext, adapter.timeout)
	defer cancelInvocation()

	command := execshell.ShellCommand{
		Name: adapter.descriptor.Command,
		Details: execshell.CommandDetails{
			Arguments:            adapter.descriptor.RenderArguments(request.RootPath, request.ScopePath),
			WorkingDirectory:     request.RootPath,
			EnvironmentVariables: map[string]string{scratchDirectoryEnvironmentKey: scratchDirectory},
		},
	}

	executionResult, executionError := adapter.executor.Execute(boundedContext, command)
	if executionError != nil {
		if boundedContext.Err() != nil {
			return Result{}, fmt.Errorf(toolTimeoutTemplateConstant, ErrToolTimeout, adapter.descriptor.Name, adapter.timeout)
		}
		if errors.Is(executionError, exec.ErrNotFound) {
			return Result{}, fmt.Errorf(toolUnavailableTemplateConstant, ErrToolUnavailable, adapter.descriptor.Name)
		}
		return Result{}, fmt.Errorf(toolRunFailureTemplateConstant, ErrToolUnavailable, adapter.descriptor.Name, executionError)
	}

	// Analyzer tools routinely exit non-zero when findings exist, so the
	// exit code is not interpreted here; the parser decides.
	findings, parseError := adapter.parser.Parse(request.Category, adapter.descriptor.Name, []byte(executionResult.StandardOutput))
	if parseError != nil {
		return Result{}, fmt.Errorf(toolRunFailureTemplateConstant, ErrOutputParse, adapter.descriptor.Name, parseError)
	}

	adapter.logger.Debug(
		logToolInvokedMessageConstant,
		zap.String(logFieldToolConstant, adapter.descriptor.Name),
		zap.Int(logFieldExitCodeFieldConstant, executionResult.ExitCode),
		zap.Int(logFieldFindingCountFieldConstant, len(findings)),
	)

	return Result{Findings: findings, ToolName: adapter.descriptor.Name}, nil
}
