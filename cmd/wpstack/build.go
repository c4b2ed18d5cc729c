package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/template"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
		lookupZones  bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the CloudFormation template",
		Long: `Build declares the topology from the configuration and renders it as a
CloudFormation template. Rendering is deterministic: the same configuration
always produces the same bytes.

Examples:
    wpstack build
    wpstack build -o template.json
    wpstack build --format yaml
    wpstack build --lookup            # pin availability zones from the account
    wpstack build --format result     # JSON build result with errors`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, outputFormat, outputFile, lookupZones)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json, yaml or result")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&lookupZones, "lookup", false, "Resolve availability zones and account from AWS instead of Fn::GetAZs")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *rootOptions, format, outputFile string, lookupZones bool) error {
	log, err := opts.logger(cmd)
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	cfg, err = opts.resolve(cmd.Context(), cfg, log, lookupZones, false)
	if err != nil {
		return err
	}
	warnConfig(log, cfg)

	r, err := render(cfg)
	if format == "result" {
		return outputBuildResult(cmd, outputFile, buildResult(r, err))
	}
	if err != nil {
		return err
	}

	data, err := template.Encode(r.template, template.Format(format))
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"resources":   len(r.template.Resources),
		"credentials": r.topology.Credentials,
	}).Info("template rendered")

	return writeOutput(cmd.OutOrStdout(), outputFile, data)
}

func buildResult(r *rendered, err error) wpstack.BuildResult {
	if err != nil {
		return wpstack.BuildResult{Success: false, Errors: []string{err.Error()}}
	}
	result := wpstack.BuildResult{
		Success:   true,
		Template:  *r.template,
		Resources: r.builder.Order(),
	}
	for _, issue := range lintIssues(r) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s [%s]", issue.Severity, issue.Message, issue.Rule))
	}
	return result
}

func outputBuildResult(cmd *cobra.Command, outputFile string, result wpstack.BuildResult) error {
	data, err := jsonIndent(result)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), outputFile, data); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("build failed")
	}
	return nil
}
