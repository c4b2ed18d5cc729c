// Command wpstack renders the WordPress AWS topology as a CloudFormation
// template and drives CloudFormation to deploy it.
//
// Usage:
//
//	wpstack build                 Render the CloudFormation template
//	wpstack validate              Check invariants and lint the template
//	wpstack plan                  Preview the changes against the stack
//	wpstack apply                 Deploy the stack
//	wpstack destroy               Delete the stack
//	wpstack version               Show version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "wpstack",
		Short: "Deploy WordPress on ECS, RDS and Route 53 with CloudFormation",
		Long: `wpstack declares a WordPress deployment on AWS and renders it as a
CloudFormation template: a segmented VPC, a Multi-AZ MySQL instance, an ECS
cluster on an Auto Scaling group, a load-balanced ECS service and a Route 53
alias record.

Configuration comes from environment variables, optionally read from env
files (./.env when present):

    wpstack build --env-file prod.env > template.json
    wpstack plan --env-file prod.env
    wpstack apply --env-file prod.env --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringArrayVar(&opts.envFiles, "env-file", nil, "Env file to read configuration from (repeatable, later files win)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVar(&opts.region, "region", "", "AWS region (default: CDK_DEPLOY_REGION, then the SDK's region chain)")

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newGraphCmd(opts),
		newListCmd(opts),
		newValidateCmd(opts),
		newDiffCmd(opts),
		newPlanCmd(opts),
		newApplyCmd(opts),
		newDestroyCmd(opts),
		newStatusCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wpstack %s\n", getVersion())
		},
	}
}
