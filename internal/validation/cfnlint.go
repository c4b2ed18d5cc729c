package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/template"
)

// CfnLintResult holds cfn-lint-go findings by level.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// RunCfnLint lints the template file at path. Only error-level matches
// fail the result. Each list is sorted so repeated runs print the same way.
func RunCfnLint(path string) (*CfnLintResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cfn-lint: %w", err)
	}

	matches, err := lint.New(lint.Options{}).LintFile(path)
	if err != nil {
		return nil, fmt.Errorf("cfn-lint %s: %w", path, err)
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}
	for _, m := range matches {
		line := describeMatch(m)
		switch m.Level {
		case "Error":
			result.Errors = append(result.Errors, line)
		case "Warning":
			result.Warnings = append(result.Warnings, line)
		default:
			result.Informational = append(result.Informational, line)
		}
	}
	sort.Strings(result.Errors)
	sort.Strings(result.Warnings)
	sort.Strings(result.Informational)

	result.Passed = len(result.Errors) == 0
	return result, nil
}

// LintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *wpstack.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}

	dir, err := os.MkdirTemp("", "wpstack-lint-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}
	return RunCfnLint(path)
}

// describeMatch renders a match the way lint issues are printed:
// "<path>: <message> [<rule>]", with "template" standing in for an empty path.
func describeMatch(m lint.Match) string {
	where := "template"
	if len(m.Location.Path) > 0 {
		segments := make([]string, 0, len(m.Location.Path))
		for _, seg := range m.Location.Path {
			segments = append(segments, fmt.Sprint(seg))
		}
		where = strings.Join(segments, "/")
	}
	return fmt.Sprintf("%s: %s [%s]", where, m.Message, m.Rule.ID)
}
