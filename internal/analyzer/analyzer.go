package analyzer

import (
	"context"
	"errors"

	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
)

// Non-fatal failure modes of a single analyzer invocation. Each advances the
// category's fallback chain; none aborts the run.
var (
	ErrToolUnavailable = errors.New("analyzer tool is not available")
	ErrToolTimeout     = errors.New("analyzer tool timed out")
	ErrOutputParse     = errors.New("analyzer output could not be parsed")
)

// Request carries everything an analyzer needs for one category run. A
// non-empty ScopePath is a directory already resolved inside RootPath.
type Request struct {
	Category  model.CheckCategory
	Profile   profile.Profile
	RootPath  string
	ScopePath string
}

// TargetPath returns the effective path to analyze: the scope restriction
// when present, the project root otherwise.
func (request Request) TargetPath() string {
	if len(request.ScopePath) > 0 {
		return request.ScopePath
	}
	return request.RootPath
}

// Result is the outcome of one analyzer invocation.
type Result struct {
	Findings []model.Finding
	ToolName string
	Notes    []string
}

// Analyzer produces findings for one check category. Both external tool
// adapters and heuristic fallback scanners implement it; the execution
// coordinator selects among implementations purely through registry data.
type Analyzer interface {
	Name() string
	Run(executionContext context.Context, request Request) (Result, error)
}
