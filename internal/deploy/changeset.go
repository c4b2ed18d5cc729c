package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/sirupsen/logrus"
)

// Capabilities acknowledges the IAM roles the template declares.
var Capabilities = []types.Capability{
	types.CapabilityCapabilityIam,
	types.CapabilityCapabilityNamedIam,
}

// noChangeReasons are the StatusReason fragments CloudFormation uses for a
// change set that would change nothing.
var noChangeReasons = []string{
	"didn't contain changes",
	"No updates are to be performed",
}

// PlanInput describes a template to plan against a stack.
type PlanInput struct {
	StackName    string
	TemplateBody string
	Parameters   map[string]string
	Tags         map[string]string
}

// Plan is a created change set awaiting execution.
type Plan struct {
	StackName     string
	ChangeSetName string
	ChangeSetID   string
	// Type is CREATE for a new stack, UPDATE otherwise.
	Type    types.ChangeSetType
	Changes []Change
}

// Change is one resource change of a plan.
type Change struct {
	Action       string
	LogicalID    string
	PhysicalID   string
	ResourceType string
	// Replacement is True, False or Conditional for modifications.
	Replacement string
	Scope       []string
}

// Plan creates a change set for in and waits until CloudFormation has
// computed it. When the stack already matches the template the change set
// is deleted and ErrNoChanges returned.
func (c *Client) Plan(ctx context.Context, in PlanInput) (*Plan, error) {
	if len(in.TemplateBody) > MaxTemplateBodySize {
		return nil, fmt.Errorf("template body is %d bytes, CloudFormation accepts at most %d inline", len(in.TemplateBody), MaxTemplateBodySize)
	}

	changeSetType, err := c.changeSetType(ctx, in.StackName)
	if err != nil {
		return nil, err
	}

	name := changeSetName(c.now())
	log := c.logger.WithFields(logrus.Fields{
		"stack":      in.StackName,
		"change_set": name,
		"type":       changeSetType,
	})
	log.Info("creating change set")

	out, err := c.api.CreateChangeSet(ctx, &cloudformation.CreateChangeSetInput{
		StackName:     aws.String(in.StackName),
		ChangeSetName: aws.String(name),
		ChangeSetType: changeSetType,
		TemplateBody:  aws.String(in.TemplateBody),
		Parameters:    parameters(in.Parameters),
		Tags:          tags(in.Tags),
		Capabilities:  Capabilities,
		Description:   aws.String("Planned by wpstack"),
	})
	if err != nil {
		return nil, fmt.Errorf("create change set for %s: %w", in.StackName, err)
	}

	plan := &Plan{
		StackName:     in.StackName,
		ChangeSetName: name,
		ChangeSetID:   aws.ToString(out.Id),
		Type:          changeSetType,
	}

	waiter := cloudformation.NewChangeSetCreateCompleteWaiter(c.api, func(o *cloudformation.ChangeSetCreateCompleteWaiterOptions) {
		o.MinDelay = c.minDelay
		o.MaxDelay = c.maxDelay
	})
	waitErr := waiter.Wait(ctx, plan.describeInput(), c.timeout)

	changes, status, reason, err := c.describeChangeSet(ctx, plan)
	if err != nil {
		return nil, err
	}
	if status == types.ChangeSetStatusFailed {
		if isNoChange(reason) {
			log.Info("stack is up to date")
			c.discard(ctx, plan)
			return nil, fmt.Errorf("%s: %w", in.StackName, ErrNoChanges)
		}
		c.discard(ctx, plan)
		return nil, fmt.Errorf("change set %s failed: %s", name, reason)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("waiting for change set %s: %w", name, waitErr)
	}

	plan.Changes = changes
	log.WithField("changes", len(changes)).Info("change set ready")
	return plan, nil
}

// Apply executes the plan's change set and waits for the stack to reach
// CREATE_COMPLETE or UPDATE_COMPLETE.
func (c *Client) Apply(ctx context.Context, plan *Plan) (*StackInfo, error) {
	log := c.logger.WithFields(logrus.Fields{
		"stack":      plan.StackName,
		"change_set": plan.ChangeSetName,
	})
	log.Info("executing change set")

	if _, err := c.api.ExecuteChangeSet(ctx, &cloudformation.ExecuteChangeSetInput{
		StackName:     aws.String(plan.StackName),
		ChangeSetName: aws.String(plan.changeSetRef()),
	}); err != nil {
		return nil, fmt.Errorf("execute change set %s: %w", plan.ChangeSetName, err)
	}

	input := &cloudformation.DescribeStacksInput{StackName: aws.String(plan.StackName)}
	var err error
	if plan.Type == types.ChangeSetTypeCreate {
		waiter := cloudformation.NewStackCreateCompleteWaiter(c.api, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
			o.MinDelay = c.minDelay
			o.MaxDelay = c.maxDelay
		})
		err = waiter.Wait(ctx, input, c.timeout)
	} else {
		waiter := cloudformation.NewStackUpdateCompleteWaiter(c.api, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
			o.MinDelay = c.minDelay
			o.MaxDelay = c.maxDelay
		})
		err = waiter.Wait(ctx, input, c.timeout)
	}
	if err != nil {
		return nil, c.failure(ctx, plan.StackName, strings.ToLower(string(plan.Type)), err)
	}

	info, err := c.Describe(ctx, plan.StackName)
	if err != nil {
		return nil, err
	}
	log.WithField("status", info.Status).Info("stack deployed")
	return info, nil
}

// Discard deletes the plan's change set without executing it.
func (c *Client) Discard(ctx context.Context, plan *Plan) error {
	if _, err := c.api.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
		StackName:     aws.String(plan.StackName),
		ChangeSetName: aws.String(plan.changeSetRef()),
	}); err != nil {
		return fmt.Errorf("delete change set %s: %w", plan.ChangeSetName, err)
	}
	return nil
}

func (c *Client) discard(ctx context.Context, plan *Plan) {
	if err := c.Discard(ctx, plan); err != nil {
		c.logger.WithError(err).Warn("could not delete change set")
	}
}

// changeSetName is unique to the millisecond; CloudFormation rejects a
// second change set with the same name on a stack.
func changeSetName(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%s-%03d", changeSetPrefix, t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}

// changeSetType is CREATE when the stack does not exist yet, or exists
// only as the placeholder of an unexecuted CREATE change set.
func (c *Client) changeSetType(ctx context.Context, stackName string) (types.ChangeSetType, error) {
	info, err := c.Describe(ctx, stackName)
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			return types.ChangeSetTypeCreate, nil
		}
		return "", err
	}

	switch types.StackStatus(info.Status) {
	case types.StackStatusReviewInProgress:
		return types.ChangeSetTypeCreate, nil
	case types.StackStatusRollbackComplete:
		return "", fmt.Errorf("stack %s is in %s and cannot be updated; destroy it first", stackName, info.Status)
	}
	if strings.HasSuffix(info.Status, "_IN_PROGRESS") {
		return "", fmt.Errorf("stack %s is busy (%s)", stackName, info.Status)
	}
	return types.ChangeSetTypeUpdate, nil
}

// describeChangeSet reads every page of the change set.
func (c *Client) describeChangeSet(ctx context.Context, plan *Plan) ([]Change, types.ChangeSetStatus, string, error) {
	var (
		changes []Change
		status  types.ChangeSetStatus
		reason  string
	)
	input := plan.describeInput()
	for {
		out, err := c.api.DescribeChangeSet(ctx, input)
		if err != nil {
			return nil, "", "", fmt.Errorf("describe change set %s: %w", plan.ChangeSetName, err)
		}
		status = out.Status
		reason = aws.ToString(out.StatusReason)
		for _, ch := range out.Changes {
			if rc := ch.ResourceChange; rc != nil {
				changes = append(changes, toChange(rc))
			}
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return changes, status, reason, nil
}

func toChange(rc *types.ResourceChange) Change {
	change := Change{
		Action:       string(rc.Action),
		LogicalID:    aws.ToString(rc.LogicalResourceId),
		PhysicalID:   aws.ToString(rc.PhysicalResourceId),
		ResourceType: aws.ToString(rc.ResourceType),
		Replacement:  string(rc.Replacement),
	}
	for _, s := range rc.Scope {
		change.Scope = append(change.Scope, string(s))
	}
	return change
}

func (p *Plan) describeInput() *cloudformation.DescribeChangeSetInput {
	return &cloudformation.DescribeChangeSetInput{
		StackName:     aws.String(p.StackName),
		ChangeSetName: aws.String(p.changeSetRef()),
	}
}

// changeSetRef prefers the change set ARN, which is unambiguous.
func (p *Plan) changeSetRef() string {
	if p.ChangeSetID != "" {
		return p.ChangeSetID
	}
	return p.ChangeSetName
}

// Replacements returns the logical IDs the plan would replace.
func (p *Plan) Replacements() []string {
	var ids []string
	for _, ch := range p.Changes {
		if ch.Replacement == string(types.ReplacementTrue) {
			ids = append(ids, ch.LogicalID)
		}
	}
	sort.Strings(ids)
	return ids
}

func isNoChange(reason string) bool {
	for _, fragment := range noChangeReasons {
		if strings.Contains(reason, fragment) {
			return true
		}
	}
	return false
}

func parameters(m map[string]string) []types.Parameter {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []types.Parameter
	for _, k := range keys {
		out = append(out, types.Parameter{
			ParameterKey:   aws.String(k),
			ParameterValue: aws.String(m[k]),
		})
	}
	return out
}

func tags(m map[string]string) []types.Tag {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []types.Tag
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(m[k])})
	}
	return out
}
