package analyzer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
)

const (
	heuristicAnalyzerNameConstant       = model.ProvenanceHeuristic
	heuristicMaxFileSizeBytes           = 1 << 20
	heuristicBinarySniffLengthConstant  = 512
	heuristicSkippedFileNoteTemplate    = "heuristic scan skipped %s: %v"
	heuristicAbsenceEvidenceTemplate    = "no file matching %s found under %s"
	logHeuristicScanMessageConstant     = "heuristic fallback scan completed"
	logFieldCategoryNameConstant        = "category"
	logFieldHeuristicFindingsConstant   = "finding_count"
	logFieldHeuristicSkippedConstant    = "skipped_files"
)

// ContentRule describes one pattern applied line by line over project files.
type ContentRule struct {
	Category       model.CheckCategory
	Pattern        *regexp.Regexp
	FileExtensions []string
	Severity       model.Severity
	Confidence     model.Confidence
	Title          string
	Remediation    string
	RiskTags       []string
}

// AbsenceRule raises a finding when no file matching any of the glob
// patterns exists in the project tree.
type AbsenceRule struct {
	Category     model.CheckCategory
	FilePatterns []string
	Severity     model.Severity
	Title        string
	Remediation  string
}

// RuleSet bundles the heuristic rules for all categories. Rules are policy
// data, not code: a different rule set can be injected without touching the
// scanner.
type RuleSet struct {
	Content []ContentRule
	Absence []AbsenceRule
}

// Heuristic is the tool-independent fallback analyzer for one category. It
// scans the project tree with pattern rules and produces lower-confidence
// findings tagged with heuristic provenance.
type Heuristic struct {
	category     model.CheckCategory
	contentRules []ContentRule
	absenceRules []AbsenceRule
	logger       *zap.Logger
}

// NewHeuristic builds the fallback analyzer for the category, keeping only
// the rules that belong to it.
func NewHeuristic(category model.CheckCategory, ruleSet RuleSet, logger *zap.Logger) *Heuristic {
	if logger == nil {
		logger = zap.NewNop()
	}
	heuristic := &Heuristic{category: category, logger: logger}
	for _, rule := range ruleSet.Content {
		if rule.Category == category {
			heuristic.contentRules = append(heuristic.contentRules, rule)
		}
	}
	for _, rule := range ruleSet.Absence {
		if rule.Category == category {
			heuristic.absenceRules = append(heuristic.absenceRules, rule)
		}
	}
	return heuristic
}

// Name identifies the heuristic analyzer in provenance and metadata.
func (heuristic *Heuristic) Name() string {
	return heuristicAnalyzerNameConstant
}

// Run scans the project tree. Unreadable files are skipped and noted rather
// than failing the category.
func (heuristic *Heuristic) Run(executionContext context.Context, request Request) (Result, error) {
	targetPath := request.TargetPath()

	var findings []model.Finding
	var notes []string
	skippedFiles := 0
	matchedAbsencePatterns := map[string]bool{}

	walkError := filepath.WalkDir(targetPath, func(path string, entry fs.DirEntry, entryError error) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if entryError != nil {
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if profile.IsIgnoredDirectory(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		for _, rule := range heuristic.absenceRules {
			for _, pattern := range rule.FilePatterns {
				if matched, _ := filepath.Match(pattern, entry.Name()); matched {
					matchedAbsencePatterns[pattern] = true
				}
			}
		}

		if len(heuristic.contentRules) == 0 {
			return nil
		}

		fileFindings, scanError := heuristic.scanFile(request.RootPath, path)
		if scanError != nil {
			skippedFiles++
			notes = append(notes, fmt.Sprintf(heuristicSkippedFileNoteTemplate, path, scanError))
			return nil
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if walkError != nil {
		return Result{}, walkError
	}

	for _, rule := range heuristic.absenceRules {
		anyMatched := false
		for _, pattern := range rule.FilePatterns {
			if matchedAbsencePatterns[pattern] {
				anyMatched = true
				break
			}
		}
		if anyMatched {
			continue
		}
		findings = append(findings, model.Finding{
			Category:    heuristic.category,
			Severity:    rule.Severity,
			Title:       rule.Title,
			Evidence:    []string{fmt.Sprintf(heuristicAbsenceEvidenceTemplate, strings.Join(rule.FilePatterns, ", "), targetPath)},
			Remediation: rule.Remediation,
			Provenance:  []string{model.ProvenanceHeuristic},
			Confidence:  model.ConfidenceMedium,
		})
	}

	heuristic.logger.Debug(
		logHeuristicScanMessageConstant,
		zap.String(logFieldCategoryNameConstant, string(heuristic.category)),
		zap.Int(logFieldHeuristicFindingsConstant, len(findings)),
		zap.Int(logFieldHeuristicSkippedConstant, skippedFiles),
	)

	return Result{Findings: findings, ToolName: heuristicAnalyzerNameConstant, Notes: notes}, nil
}

func (heuristic *Heuristic) scanFile(rootPath string, filePath string) ([]model.Finding, error) {
	fileInfo, statError := os.Stat(filePath)
	if statError != nil {
		return nil, statError
	}
	if fileInfo.Size() > heuristicMaxFileSizeBytes {
		return nil, nil
	}

	applicableRules := heuristic.rulesForFile(filePath)
	if len(applicableRules) == 0 {
		return nil, nil
	}

	contentBytes, readError := os.ReadFile(filePath)
	if readError != nil {
		return nil, readError
	}
	if looksBinary(contentBytes) {
		return nil, nil
	}

	relativePath := filePath
	if relative, relativeError := filepath.Rel(rootPath, filePath); relativeError == nil {
		relativePath = filepath.ToSlash(relative)
	}

	var findings []model.Finding
	lineNumber := 0
	lineScanner := bufio.NewScanner(bytes.NewReader(contentBytes))
	lineScanner.Buffer(make([]byte, 0, 64*1024), heuristicMaxFileSizeBytes)
	for lineScanner.Scan() {
		lineNumber++
		lineText := lineScanner.Text()
		for _, rule := range applicableRules {
			if !rule.Pattern.MatchString(lineText) {
				continue
			}
			findings = append(findings, model.Finding{
				Category:    heuristic.category,
				Severity:    rule.Severity,
				FilePath:    relativePath,
				StartLine:   lineNumber,
				Title:       rule.Title,
				Evidence:    []string{strings.TrimSpace(lineText)},
				Remediation: rule.Remediation,
				Provenance:  []string{model.ProvenanceHeuristic},
				Confidence:  rule.Confidence,
				RiskTags:    append([]string{}, rule.RiskTags...),
			})
		}
	}
	return findings, nil
}

func (heuristic *Heuristic) rulesForFile(filePath string) []ContentRule {
	extension := strings.ToLower(filepath.Ext(filePath))
	var applicable []ContentRule
	for _, rule := range heuristic.contentRules {
		if len(rule.FileExtensions) == 0 {
			applicable = append(applicable, rule)
			continue
		}
		for _, ruleExtension := range rule.FileExtensions {
			if ruleExtension == extension {
				applicable = append(applicable, rule)
				break
			}
		}
	}
	return applicable
}

func looksBinary(contentBytes []byte) bool {
	sniffLength := len(contentBytes)
	if sniffLength > heuristicBinarySniffLengthConstant {
		sniffLength = heuristicBinarySniffLengthConstant
	}
	return bytes.IndexByte(contentBytes[:sniffLength], 0) >= 0
}
