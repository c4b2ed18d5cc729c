package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wpstack/wpstack/internal/status"
)

var errUnhealthy = errors.New("stack is not healthy")

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat   string
		requireHealthy bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report database and target health of the deployed stack",
		Long: `Status reads the database instance and target group of the deployed
stack and reports the database status and endpoint and the number of
healthy targets behind the load balancer.

Examples:
    wpstack status
    wpstack status --format json
    wpstack status --require-healthy   # exit 1 unless healthy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			awsCfg, err := opts.awsConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			report, err := status.New(awsCfg, log).Check(cmd.Context(), cfg.StackName)
			if err != nil {
				return err
			}
			return outputStatus(cmd.OutOrStdout(), report, outputFormat, requireHealthy)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&requireHealthy, "require-healthy", false, "Fail unless the database is available and a target is healthy")

	return cmd
}

func outputStatus(w io.Writer, report *status.Report, format string, requireHealthy bool) error {
	switch format {
	case "json":
		if err := printJSON(w, report); err != nil {
			return err
		}
	case "text":
		fmt.Fprint(w, report.String())
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if requireHealthy && !report.Healthy() {
		return errUnhealthy
	}
	return nil
}
