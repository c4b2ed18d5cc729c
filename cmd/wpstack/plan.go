package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/deploy"
	"github.com/wpstack/wpstack/internal/differ"
	"github.com/wpstack/wpstack/internal/validation"
)

// deployOptions are the flags shared by plan and apply.
type deployOptions struct {
	lookupZones bool
	preflight   bool
	timeout     time.Duration
	tags        map[string]string
}

func addDeployFlags(cmd *cobra.Command, d *deployOptions) {
	cmd.Flags().BoolVar(&d.lookupZones, "lookup", false, "Resolve availability zones from the account instead of Fn::GetAZs")
	cmd.Flags().BoolVar(&d.preflight, "preflight", true, "Check the account and DB_PASSWORD_SECRET_ID before planning")
	cmd.Flags().DurationVar(&d.timeout, "timeout", deploy.DefaultTimeout, "Maximum time to wait for CloudFormation")
	cmd.Flags().StringToStringVar(&d.tags, "tag", nil, "Stack tag key=value (repeatable)")
}

// deployment is a rendered, checked topology and a client for its stack.
type deployment struct {
	cfg      config.Config
	rendered *rendered
	client   *deploy.Client
	log      logrus.FieldLogger
	tags     map[string]string
}

// prepareDeployment renders the topology and refuses to continue when the
// topology checks fail.
func prepareDeployment(cmd *cobra.Command, opts *rootOptions, d deployOptions) (*deployment, error) {
	ctx := cmd.Context()

	log, err := opts.logger(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	cfg, err = opts.resolve(ctx, cfg, log, d.lookupZones, d.preflight)
	if err != nil {
		return nil, err
	}
	warnConfig(log, cfg)

	r, err := render(cfg)
	if err != nil {
		return nil, err
	}
	if checks := validation.CheckStack(r.template, cfg); !checks.Success {
		return nil, fmt.Errorf("%w:\n  %s", errValidationFailed, strings.Join(checks.Errors, "\n  "))
	}

	awsCfg, err := opts.awsConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := deploy.New(awsCfg, deploy.WithLogger(log), deploy.WithTimeout(d.timeout))

	return &deployment{cfg: cfg, rendered: r, client: client, log: log, tags: d.tags}, nil
}

func (dep *deployment) plan(ctx context.Context) (*deploy.Plan, error) {
	body, err := templateBody(dep.rendered.template)
	if err != nil {
		return nil, err
	}
	return dep.client.Plan(ctx, deploy.PlanInput{
		StackName:    dep.cfg.StackName,
		TemplateBody: body,
		Tags:         dep.tags,
	})
}

// templateDiff compares the deployed template to the rendered one. It
// returns nil when the stack does not exist yet.
func (dep *deployment) templateDiff(ctx context.Context) (*differ.Result, error) {
	body, err := dep.client.DeployedTemplate(ctx, dep.cfg.StackName)
	if errors.Is(err, deploy.ErrStackNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	deployed, err := differ.Parse([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("parsing deployed template: %w", err)
	}
	return differ.Compare(deployed, dep.rendered.template, differ.Options{})
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var (
		d    deployOptions
		keep bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the changes a deployment would make",
		Long: `Plan renders the template, compares it to the deployed stack and creates
a CloudFormation change set to show the resources CloudFormation would add,
modify or replace. The change set is deleted afterwards unless --keep is set.

Examples:
    wpstack plan
    wpstack plan --env-file prod.env --lookup
    wpstack plan --keep`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, opts, d, keep)
		},
	}

	addDeployFlags(cmd, &d)
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the change set for review in the console")

	return cmd
}

func runPlan(cmd *cobra.Command, opts *rootOptions, d deployOptions, keep bool) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	dep, err := prepareDeployment(cmd, opts, d)
	if err != nil {
		return err
	}

	diff, err := dep.templateDiff(ctx)
	if err != nil {
		return err
	}
	if diff != nil {
		fmt.Fprintf(w, "Template changes against %s:\n", dep.cfg.StackName)
		printDiff(w, diff)
		fmt.Fprintln(w)
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

	if keep {
		fmt.Fprintf(w, "Change set kept: %s\n", plan.ChangeSetID)
		return nil
	}
	return dep.client.Discard(ctx, plan)
}

func printPlan(w io.Writer, plan *deploy.Plan) {
	fmt.Fprintf(w, "Change set %s (%s) for %s:\n", plan.ChangeSetName, plan.Type, plan.StackName)

	changes := append([]deploy.Change(nil), plan.Changes...)
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].LogicalID < changes[j].LogicalID
	})
	for _, ch := range changes {
		line := fmt.Sprintf("  %-8s %s (%s)", ch.Action, ch.LogicalID, ch.ResourceType)
		if ch.Replacement == "True" || ch.Replacement == "Conditional" {
			line += " replacement=" + ch.Replacement
		}
		fmt.Fprintln(w, line)
	}

	replaced := plan.Replacements()
	fmt.Fprintf(w, "%d changes, %d replacements\n", len(plan.Changes), len(replaced))
	if len(replaced) > 0 {
		fmt.Fprintf(w, "Replaced: %s\n", strings.Join(replaced, ", "))
	}
}
