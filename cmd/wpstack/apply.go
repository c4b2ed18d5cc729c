package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wpstack/wpstack/internal/deploy"
)

func newApplyCmd(opts *rootOptions) *cobra.Command {
	var (
		d   deployOptions
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Deploy the stack",
		Long: `Apply plans a change set like plan, asks for confirmation and executes
it, then waits for the stack to reach CREATE_COMPLETE or UPDATE_COMPLETE.
On failure CloudFormation rolls the stack back and the failed resources are
reported.

Examples:
    wpstack apply
    wpstack apply --yes --timeout 90m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, d, yes)
		},
	}

	addDeployFlags(cmd, &d)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Execute without asking for confirmation")

	return cmd
}

func runApply(cmd *cobra.Command, opts *rootOptions, d deployOptions, yes bool) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	dep, err := prepareDeployment(cmd, opts, d)
	if err != nil {
		return err
	}

	plan, err := dep.plan(ctx)
	if errors.Is(err, deploy.ErrNoChanges) {
		fmt.Fprintf(w, "No changes. Stack %s is up to date.\n", dep.cfg.StackName)
		return nil
	}
	if err != nil {
		return err
	}
	printPlan(w, plan)

	if !yes {
		if err := confirm(cmd, fmt.Sprintf("Apply %d changes to %s?", len(plan.Changes), plan.StackName)); err != nil {
			if discardErr := dep.client.Discard(ctx, plan); discardErr != nil {
				dep.log.WithError(discardErr).Warn("could not delete change set")
			}
			return err
		}
	}

	info, err := dep.client.Apply(ctx, plan)
	if err != nil {
		return err
	}
	printStackInfo(w, info)
	return nil
}

func printStackInfo(w io.Writer, info *deploy.StackInfo) {
	fmt.Fprintf(w, "Stack %s: %s\n", info.Name, info.Status)

	keys := make([]string, 0, len(info.Outputs))
	for k := range info.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", k, info.Outputs[k])
	}
}
