package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wpstack/wpstack/internal/deploy"
)

func newDestroyCmd(opts *rootOptions) *cobra.Command {
	var (
		yes     bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete the stack",
		Long: `Destroy deletes the CloudFormation stack and waits until it is gone.
The database and its generated secret are deleted with the stack, without
a final snapshot. The hosted zone is deleted too, so a redeploy needs the
registrar's name servers updated again.

Examples:
    wpstack destroy
    wpstack destroy --yes`,
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

			if !yes {
				if err := confirm(cmd, fmt.Sprintf("Delete stack %s?", cfg.StackName)); err != nil {
					return err
				}
			}

			client := deploy.New(awsCfg, deploy.WithLogger(log), deploy.WithTimeout(timeout))
			if err := client.Destroy(cmd.Context(), cfg.StackName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stack %s deleted.\n", cfg.StackName)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	cmd.Flags().DurationVar(&timeout, "timeout", deploy.DefaultTimeout, "Maximum time to wait for CloudFormation")

	return cmd
}
