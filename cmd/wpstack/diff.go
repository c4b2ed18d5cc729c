package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/deploy"
	"github.com/wpstack/wpstack/internal/differ"
)

func newDiffCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
		deployed     bool
	)

	cmd := &cobra.Command{
		Use:   "diff [template1] [template2]",
		Short: "Compare templates semantically",
		Long: `Diff compares CloudFormation templates resource by resource and reports
added, removed and modified resources with the changed property paths.

With two files, the first is compared to the second. With one file, the
file is compared to the rendered template. With --deployed, the template of
the deployed stack is compared to the rendered template.

Examples:
    wpstack diff old.json new.json
    wpstack diff template.json
    wpstack diff --deployed
    wpstack diff template.yaml --ignore-order --format json`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runDiff(cmd, opts, args, deployed, differ.Options{IgnoreOrder: ignoreOrder})
			if err != nil {
				return err
			}
			return outputDiffResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore the order of list elements")
	cmd.Flags().BoolVar(&deployed, "deployed", false, "Compare the deployed stack's template to the rendered template")

	return cmd
}

func runDiff(cmd *cobra.Command, opts *rootOptions, args []string, deployed bool, diffOpts differ.Options) (*differ.Result, error) {
	if len(args) == 2 {
		if deployed {
			return nil, errors.New("--deployed takes at most one template")
		}
		return differ.CompareFiles(args[0], args[1], diffOpts)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	r, err := render(cfg)
	if err != nil {
		return nil, err
	}

	var from *wpstack.Template
	switch {
	case len(args) == 1 && !deployed:
		if from, err = differ.LoadTemplate(args[0]); err != nil {
			return nil, err
		}
	case len(args) == 0 && deployed:
		awsCfg, err := opts.awsConfig(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		log, err := opts.logger(cmd)
		if err != nil {
			return nil, err
		}
		body, err := deploy.New(awsCfg, deploy.WithLogger(log)).DeployedTemplate(cmd.Context(), cfg.StackName)
		if err != nil {
			return nil, err
		}
		if from, err = differ.Parse([]byte(body)); err != nil {
			return nil, fmt.Errorf("parsing deployed template: %w", err)
		}
	default:
		return nil, errors.New("give one or two templates, or --deployed")
	}

	return differ.Compare(from, r.template, diffOpts)
}

func outputDiffResult(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		return printJSON(w, struct {
			Diff       wpstack.TemplateDiff `json:"diff"`
			Summary    wpstack.DiffSummary  `json:"summary"`
			Parameters []string             `json:"parameters,omitempty"`
			Outputs    []string             `json:"outputs,omitempty"`
		}{result.Diff, result.Summary, result.Parameters, result.Outputs})

	case "text":
		printDiff(w, result)
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func printDiff(w io.Writer, result *differ.Result) {
	if result.Empty() {
		fmt.Fprintln(w, "No differences.")
		return
	}
	for _, e := range result.Diff.Added {
		fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Removed {
		fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
	}
	for _, e := range result.Diff.Modified {
		fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
		for _, change := range e.Changes {
			fmt.Fprintf(w, "    %s\n", change)
		}
	}
	for _, change := range result.Parameters {
		fmt.Fprintf(w, "~ Parameters.%s\n", change)
	}
	for _, change := range result.Outputs {
		fmt.Fprintf(w, "~ Outputs.%s\n", change)
	}
	fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
		result.Summary.Added, result.Summary.Removed, result.Summary.Modified)
}
