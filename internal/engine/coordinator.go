package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/checkup/internal/analyzer"
	"github.com/temirov/checkup/internal/execshell"
	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
	"github.com/temirov/checkup/internal/registry"
)

const (
	engineRegistryRequiredMessage      = "engine requires a tool registry"
	engineExecutorRequiredMessage      = "engine requires a shell executor"
	candidateFailureNoteTemplate       = "%s: %v"
	heuristicFailureNoteTemplate       = "heuristic fallback for %s failed: %v"
	logCategoryStartedMessageConstant  = "category execution started"
	logCategoryFinishedMessageConstant = "category execution finished"
	logCategorySkippedMessageConstant  = "category skipped by run deadline"
	logCandidateFailedMessageConstant  = "tool candidate failed, advancing fallback chain"
	logFieldCategoryConstant           = "category"
	logFieldToolUsedConstant           = "tool_used"
	logFieldDegradedConstant           = "degraded"
	logFieldCandidateConstant          = "candidate"
)

// Options tune a review run.
type Options struct {
	// Parallelism bounds the worker pool; zero selects
	// min(category count, available CPU cores).
	Parallelism int
	// ToolTimeout bounds each external tool invocation.
	ToolTimeout time.Duration
	// Deadline bounds the whole run; zero means no global deadline.
	Deadline time.Duration
}

// CategoryOutcome is the isolated result of one category's execution.
type CategoryOutcome struct {
	Category model.CheckCategory
	Findings []model.Finding
	ToolUsed string
	Degraded bool
	Skipped  bool
	Failures []string
	Notes    []string
}

// Engine owns the per-run orchestration state. The registry is frozen
// before the run, adapters only read the scanned tree, and outcomes travel
// over a channel to a single collector, so no locking is needed anywhere.
type Engine struct {
	toolRegistry *registry.Registry
	executor     *execshell.ShellExecutor
	prober       analyzer.Prober
	heuristics   map[model.CheckCategory]analyzer.Analyzer
	options      Options
	logger       *zap.Logger
}

// NewEngine validates dependencies and constructs an Engine. A nil prober
// selects the executable-path prober; missing heuristics are built from the
// default rule set on demand.
func NewEngine(toolRegistry *registry.Registry, executor *execshell.ShellExecutor, prober analyzer.Prober, heuristics map[model.CheckCategory]analyzer.Analyzer, options Options, logger *zap.Logger) (*Engine, error) {
	if toolRegistry == nil {
		return nil, errors.New(engineRegistryRequiredMessage)
	}
	if executor == nil {
		return nil, errors.New(engineExecutorRequiredMessage)
	}
	if prober == nil {
		prober = analyzer.LookPathProber{}
	}
	if heuristics == nil {
		heuristics = map[model.CheckCategory]analyzer.Analyzer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		toolRegistry: toolRegistry,
		executor:     executor,
		prober:       prober,
		heuristics:   heuristics,
		options:      options,
		logger:       logger,
	}, nil
}

// Run executes every requested category and returns the outcomes ordered by
// category name. The tool registry is frozen before execution begins.
func (engine *Engine) Run(executionContext context.Context, projectProfile profile.Profile, rootPath string, scopePath string, categories []model.CheckCategory) ([]CategoryOutcome, error) {
	engine.toolRegistry.Freeze()

	runContext := executionContext
	cancelRun := context.CancelFunc(func() {})
	if engine.options.Deadline > 0 {
		runContext, cancelRun = context.WithTimeout(executionContext, engine.options.Deadline)
	}
	defer cancelRun()

	outcomes := make(chan CategoryOutcome, len(categories))

	var workerGroup errgroup.Group
	workerGroup.SetLimit(engine.parallelism(len(categories)))

	for _, category := range categories {
		requestedCategory := category
		workerGroup.Go(func() error {
			// A category that never got to start before the run
			// deadline is skipped, not degraded.
			if runContext.Err() != nil {
				engine.logger.Warn(logCategorySkippedMessageConstant, zap.String(logFieldCategoryConstant, string(requestedCategory)))
				outcomes <- CategoryOutcome{Category: requestedCategory, Skipped: true}
				return nil
			}
			outcomes <- engine.runCategory(runContext, requestedCategory, projectProfile, rootPath, scopePath)
			return nil
		})
	}

	// Single collector: the only point where per-category results meet.
	collected := make([]CategoryOutcome, 0, len(categories))
	collectionDone := make(chan struct{})
	go func() {
		for outcome := range outcomes {
			collected = append(collected, outcome)
		}
		close(collectionDone)
	}()

	if waitError := workerGroup.Wait(); waitError != nil {
		close(outcomes)
		<-collectionDone
		return nil, waitError
	}
	close(outcomes)
	<-collectionDone

	sort.Slice(collected, func(left int, right int) bool {
		return collected[left].Category < collected[right].Category
	})
	return collected, nil
}

func (engine *Engine) runCategory(runContext context.Context, category model.CheckCategory, projectProfile profile.Profile, rootPath string, scopePath string) CategoryOutcome {
	engine.logger.Debug(logCategoryStartedMessageConstant, zap.String(logFieldCategoryConstant, string(category)))

	request := analyzer.Request{
		Category:  category,
		Profile:   projectProfile,
		RootPath:  rootPath,
		ScopePath: scopePath,
	}

	outcome := CategoryOutcome{Category: category}
	candidates := engine.toolRegistry.Candidates(category, projectProfile.Languages())

	for candidateIndex, candidate := range candidates {
		toolAdapter, adapterError := analyzer.NewToolAdapter(candidate, engine.executor, engine.prober, engine.options.ToolTimeout, engine.logger)
		if adapterError != nil {
			outcome.Failures = append(outcome.Failures, fmt.Sprintf(candidateFailureNoteTemplate, candidate.Name, adapterError))
			continue
		}
		if !toolAdapter.Probe(runContext) {
			// Absence of an uninstalled tool is routine, not a failure.
			continue
		}

		result, runError := toolAdapter.Run(runContext, request)
		if runError != nil {
			if runContext.Err() != nil && errors.Is(runError, analyzer.ErrToolTimeout) {
				// The global deadline, not the per-tool timeout, ended this
				// invocation; the category never completed.
				outcome.Skipped = true
				outcome.Failures = append(outcome.Failures, fmt.Sprintf(candidateFailureNoteTemplate, candidate.Name, runError))
				return outcome
			}
			engine.logger.Warn(
				logCandidateFailedMessageConstant,
				zap.String(logFieldCategoryConstant, string(category)),
				zap.String(logFieldCandidateConstant, candidate.Name),
				zap.Error(runError),
			)
			outcome.Failures = append(outcome.Failures, fmt.Sprintf(candidateFailureNoteTemplate, candidate.Name, runError))
			continue
		}

		outcome.Findings = result.Findings
		outcome.ToolUsed = result.ToolName
		outcome.Notes = append(outcome.Notes, result.Notes...)
		// Anything but a clean win by the top-priority candidate is a
		// degraded result.
		outcome.Degraded = candidateIndex > 0 || len(outcome.Failures) > 0
		engine.logCategoryFinished(outcome)
		return outcome
	}

	// No candidate succeeded: the heuristic fallback owns the category.
	outcome.Degraded = true
	heuristicAnalyzer, heuristicExists := engine.heuristics[category]
	if !heuristicExists {
		heuristicAnalyzer = analyzer.NewHeuristic(category, analyzer.DefaultRuleSet(), engine.logger)
	}

	result, heuristicError := heuristicAnalyzer.Run(runContext, request)
	if heuristicError != nil {
		if runContext.Err() != nil {
			outcome.Skipped = true
		}
		outcome.Failures = append(outcome.Failures, fmt.Sprintf(heuristicFailureNoteTemplate, category, heuristicError))
		engine.logCategoryFinished(outcome)
		return outcome
	}

	outcome.Findings = result.Findings
	outcome.ToolUsed = result.ToolName
	outcome.Notes = append(outcome.Notes, result.Notes...)
	engine.logCategoryFinished(outcome)
	return outcome
}

func (engine *Engine) logCategoryFinished(outcome CategoryOutcome) {
	engine.logger.Debug(
		logCategoryFinishedMessageConstant,
		zap.String(logFieldCategoryConstant, string(outcome.Category)),
		zap.String(logFieldToolUsedConstant, outcome.ToolUsed),
		zap.Bool(logFieldDegradedConstant, outcome.Degraded),
	)
}

func (engine *Engine) parallelism(categoryCount int) int {
	if engine.options.Parallelism > 0 {
		return engine.options.Parallelism
	}
	limit := runtime.NumCPU()
	if categoryCount < limit {
		limit = categoryCount
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
