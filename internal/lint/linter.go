// Package lint reports hazards in a configuration and its rendered template
// that are legal but worth a second look: weak literal passwords, unpinned
// images, shared NAT gateways and credentials pasted into properties.
//
// Lint never fails a build on its own. Callers decide what to do with
// error-severity issues.
package lint

import (
	"sort"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/config"
)

// Severity of an issue.
type Severity string

// Severity levels, most severe first.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single finding.
type Issue struct {
	Rule     string
	Severity Severity
	Message  string
	// Suggestion is an optional remedy.
	Suggestion string
	// Path is a template path (Resources/<id>/Properties/...) or a
	// configuration variable name.
	Path string
}

// Input is what the rules inspect. Template may be nil, in which case
// template rules report nothing.
type Input struct {
	Config   config.Config
	Template *wpstack.Template
}

// Rule is a lint rule.
type Rule interface {
	ID() string
	Description() string
	Check(in Input) []Issue
}

// Result contains the outcome of linting.
type Result struct {
	Success bool
	Issues  []Issue
}

// Options configures the linter.
type Options struct {
	// Rules to enable. If empty, all rules are enabled.
	EnabledRules []string
}

// Lint runs the enabled rules. Success is false only when an
// error-severity issue is found.
func Lint(in Input, opts Options) Result {
	var issues []Issue
	for _, rule := range getRules(opts) {
		issues = append(issues, rule.Check(in)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Rule != issues[j].Rule {
			return issues[i].Rule < issues[j].Rule
		}
		return issues[i].Path < issues[j].Path
	})

	success := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			success = false
		}
	}
	return Result{Success: success, Issues: issues}
}

// CheckConfig runs the configuration rules only.
func CheckConfig(cfg config.Config) Result {
	return Lint(Input{Config: cfg}, Options{})
}

// ToContract converts a result to its JSON contract.
func (r Result) ToContract() wpstack.LintResult {
	out := wpstack.LintResult{Success: r.Success}
	for _, issue := range r.Issues {
		out.Issues = append(out.Issues, wpstack.LintIssue{
			Path:     issue.Path,
			Severity: string(issue.Severity),
			Message:  issue.Message,
			Rule:     issue.Rule,
		})
	}
	return out
}

// getRules returns the rules to use based on options.
func getRules(opts Options) []Rule {
	all := AllRules()

	// Filter by enabled rules if specified
	if len(opts.EnabledRules) == 0 {
		return all
	}

	enabled := make(map[string]bool)
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var filtered []Rule
	for _, r := range all {
		if enabled[r.ID()] {
			filtered = append(filtered, r)
		}
	}

	return filtered
}
