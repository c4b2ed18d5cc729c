package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/lint"
	"github.com/wpstack/wpstack/internal/validation"
)

var errValidationFailed = errors.New("validation failed")

// validateReport is the JSON output of `wpstack validate`.
type validateReport struct {
	Success bool                      `json:"success"`
	Checks  wpstack.ValidateResult    `json:"checks"`
	CfnLint *validation.CfnLintResult `json:"cfnLint,omitempty"`
	Lint    wpstack.LintResult        `json:"lint"`
}

// newValidateCmd creates the "validate" subcommand for checking the rendered template.
func newValidateCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat string
		cfnLint      bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check topology invariants and lint the template",
		Long: `Validate renders the template and checks it.

Checks performed:
  - Topology: subnet masks, isolated database tier, database security
    group rules, matching capacities, container database settings and
    the DNS alias target
  - cfn-lint: CloudFormation schema and best-practice rules
  - Lint: credential and image hygiene (WPS rules)

Errors fail validation. Warnings are reported only.

Examples:
    wpstack validate
    wpstack validate --format json
    wpstack validate --cfn-lint=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			r, err := render(cfg)
			if err != nil {
				return err
			}
			report, err := validateRendered(r, cfnLint)
			if err != nil {
				return err
			}
			return outputValidateReport(cmd.OutOrStdout(), report, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&cfnLint, "cfn-lint", true, "Run cfn-lint on the rendered template")

	return cmd
}

func lintIssues(r *rendered) []lint.Issue {
	return lint.Lint(lint.Input{Config: r.topology.Config, Template: r.template}, lint.Options{}).Issues
}

// validateRendered runs every check against a rendered topology.
func validateRendered(r *rendered, cfnLint bool) (*validateReport, error) {
	report := &validateReport{
		Checks: validation.CheckStack(r.template, r.topology.Config),
		Lint:   lint.Lint(lint.Input{Config: r.topology.Config, Template: r.template}, lint.Options{}).ToContract(),
	}

	if cfnLint {
		result, err := validation.LintTemplate(r.template)
		if err != nil {
			return nil, fmt.Errorf("cfn-lint: %w", err)
		}
		report.CfnLint = result
	}

	report.Success = report.Checks.Success && report.Lint.Success &&
		(report.CfnLint == nil || report.CfnLint.Passed)
	return report, nil
}

func outputValidateReport(w io.Writer, report *validateReport, format string) error {
	switch format {
	case "json":
		if err := printJSON(w, report); err != nil {
			return err
		}

	case "text":
		if report.Checks.Success {
			fmt.Fprintf(w, "Topology checks passed: %d resources OK\n", report.Checks.Resources)
		} else {
			fmt.Fprintln(w, "Topology checks FAILED:")
		}
		for _, errMsg := range report.Checks.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range report.Checks.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

		if report.CfnLint != nil {
			fmt.Fprintf(w, "cfn-lint: %d errors, %d warnings, %d informational\n",
				len(report.CfnLint.Errors), len(report.CfnLint.Warnings), len(report.CfnLint.Informational))
			for _, msg := range report.CfnLint.Errors {
				fmt.Fprintf(w, "  ERROR: %s\n", msg)
			}
			for _, msg := range report.CfnLint.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", msg)
			}
		}

		if len(report.Lint.Issues) == 0 {
			fmt.Fprintln(w, "Lint: no issues found.")
		}
		for _, issue := range report.Lint.Issues {
			fmt.Fprintf(w, "%s: %s: %s [%s]\n", issue.Path, issue.Severity, issue.Message, issue.Rule)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !report.Success {
		return errValidationFailed
	}
	return nil
}
