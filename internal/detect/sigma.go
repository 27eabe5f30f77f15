package detect

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sigma "github.com/bradleyjkemp/sigma-go"
	sigmaevaluator "github.com/bradleyjkemp/sigma-go/evaluator"

	"starguard/pkg/models"
)

// SigmaLoadStats tracks the number of loaded and skipped rules.
type SigmaLoadStats struct {
	TotalFiles     int
	Loaded         int
	SkippedComplex int
	SkippedSource  int
	SkippedInvalid int
}

type compiledSigmaRule struct {
	rule sigma.Rule
	eval *sigmaevaluator.RuleEvaluator
}

// SigmaDetector flags events matching user-supplied Sigma rules evaluated
// against the event field map. It runs as one more ensemble member, so
// site-specific heuristics plug in without code changes.
type SigmaDetector struct {
	rules []compiledSigmaRule
	ctx   context.Context
}

// NewSigmaDetector loads Sigma rules from a file or directory and
// compiles evaluators. Unsupported or complex rules are skipped and
// counted in stats.
func NewSigmaDetector(path string) (*SigmaDetector, SigmaLoadStats, error) {
	var stats SigmaLoadStats

	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve rule path: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, stats, fmt.Errorf("stat rule path: %w", err)
	}

	files := make([]string, 0, 64)
	if info.IsDir() {
		err = filepath.WalkDir(resolved, func(filePath string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			if isYAMLFile(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("walk rule directory: %w", err)
		}
	} else {
		if !isYAMLFile(resolved) {
			return nil, stats, fmt.Errorf("rule file must end with .yml or .yaml: %s", resolved)
		}
		files = append(files, resolved)
	}

	stats.TotalFiles = len(files)
	compiled := make([]compiledSigmaRule, 0, len(files))
	for _, ruleFile := range files {
		raw, err := os.ReadFile(ruleFile)
		if err != nil {
			stats.SkippedInvalid++
			continue
		}
		rule, err := sigma.ParseRule(raw)
		if err != nil {
			stats.SkippedInvalid++
			continue
		}
		if !isStarEventCompatible(rule) {
			stats.SkippedSource++
			continue
		}
		if !isSimpleSingleEventRule(rule) {
			stats.SkippedComplex++
			continue
		}
		compiled = append(compiled, compiledSigmaRule{rule: rule, eval: sigmaevaluator.ForRule(rule)})
		stats.Loaded++
	}

	return &SigmaDetector{rules: compiled, ctx: context.Background()}, stats, nil
}

// Name identifies the detector in reports.
func (d *SigmaDetector) Name() string { return "rules" }

// Detect flags events matching at least one loaded rule.
func (d *SigmaDetector) Detect(events []*models.StarEvent) models.DetectorResult {
	res := newResult(d.Name(), map[string]int{"rules_loaded": len(d.rules)})
	if len(d.rules) == 0 {
		finishResult(&res)
		return res
	}
	for _, ev := range events {
		fields := ev.FieldMap()
		for _, rule := range d.rules {
			match, err := rule.eval.Matches(d.ctx, fields)
			if err != nil {
				continue
			}
			if match.Match {
				res.Flagged[ev.Username] = struct{}{}
				break
			}
		}
	}
	finishResult(&res)
	return res
}

func isYAMLFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

// Rules written for other log sources are skipped; only generic rules
// and rules targeting the github product apply to star events.
func isStarEventCompatible(rule sigma.Rule) bool {
	product := strings.ToLower(strings.TrimSpace(rule.Logsource.Product))
	return product == "" || product == "github"
}

func isSimpleSingleEventRule(rule sigma.Rule) bool {
	if rule.Detection.Timeframe > 0 {
		return false
	}
	for _, cond := range rule.Detection.Conditions {
		if cond.Aggregation != nil {
			return false
		}
		if !isSimpleSearchExpression(cond.Search) {
			return false
		}
	}
	for _, search := range rule.Detection.Searches {
		if len(search.Keywords) > 0 {
			return false
		}
		if len(search.EventMatchers) == 0 {
			return false
		}
	}
	return true
}

func isSimpleSearchExpression(expr sigma.SearchExpr) bool {
	switch e := expr.(type) {
	case sigma.SearchIdentifier:
		return true
	case sigma.And:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Or:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Not:
		return isSimpleSearchExpression(e.Expr)
	default:
		return false
	}
}
