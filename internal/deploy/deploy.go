// Package deploy drives CloudFormation: change sets for plan and apply,
// stack deletion for destroy, and retrieval of the deployed template.
//
// CloudFormation owns ordering, retries of individual resources and
// rollback. This package only submits templates and waits for terminal
// states.
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
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/wpstack/wpstack/internal/awsconf"
	"github.com/wpstack/wpstack/internal/logging"
)

// MaxTemplateBodySize is the largest template CloudFormation accepts inline.
const MaxTemplateBodySize = 51200

// DefaultTimeout bounds each wait for a terminal state.
const DefaultTimeout = 60 * time.Minute

const changeSetPrefix = "wpstack-"

var (
	// ErrNoChanges is returned by Plan when the deployed stack already
	// matches the template.
	ErrNoChanges = errors.New("no changes")

	// ErrStackNotFound is returned when the named stack does not exist.
	ErrStackNotFound = errors.New("stack not found")
)

// API is the subset of the CloudFormation client used here.
type API interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	DescribeStackEvents(ctx context.Context, params *cloudformation.DescribeStackEventsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
	CreateChangeSet(ctx context.Context, params *cloudformation.CreateChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateChangeSetOutput, error)
	DescribeChangeSet(ctx context.Context, params *cloudformation.DescribeChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeChangeSetOutput, error)
	ExecuteChangeSet(ctx context.Context, params *cloudformation.ExecuteChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ExecuteChangeSetOutput, error)
	DeleteChangeSet(ctx context.Context, params *cloudformation.DeleteChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteChangeSetOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	GetTemplate(ctx context.Context, params *cloudformation.GetTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error)
}

// Client submits templates to CloudFormation.
type Client struct {
	api      API
	logger   logrus.FieldLogger
	timeout  time.Duration
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds every wait for a terminal state.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithPollInterval sets the minimum and maximum delay between status polls.
func WithPollInterval(minDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.minDelay = minDelay
		c.maxDelay = maxDelay
	}
}

// New returns a Client for cfg, using the shared retryer.
func New(cfg aws.Config, opts ...Option) *Client {
	api := cloudformation.NewFromConfig(cfg, func(o *cloudformation.Options) {
		o.Retryer = awsconf.NewRetryer()
	})
	return NewWithAPI(api, opts...)
}

// NewWithAPI returns a Client over api.
func NewWithAPI(api API, opts ...Option) *Client {
	c := &Client{
		api:      api,
		timeout:  DefaultTimeout,
		minDelay: 5 * time.Second,
		maxDelay: 30 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// StackInfo is the state of a deployed stack.
type StackInfo struct {
	Name    string
	ID      string
	Status  string
	Reason  string
	Outputs map[string]string
}

// Describe returns the stack, or ErrStackNotFound.
func (c *Client) Describe(ctx context.Context, stackName string) (*StackInfo, error) {
	out, err := c.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", stackName, ErrStackNotFound)
		}
		return nil, fmt.Errorf("describe stack %s: %w", stackName, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("%s: %w", stackName, ErrStackNotFound)
	}

	s := out.Stacks[0]
	info := &StackInfo{
		Name:    aws.ToString(s.StackName),
		ID:      aws.ToString(s.StackId),
		Status:  string(s.StackStatus),
		Reason:  aws.ToString(s.StackStatusReason),
		Outputs: make(map[string]string, len(s.Outputs)),
	}
	for _, o := range s.Outputs {
		info.Outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return info, nil
}

// DeployedTemplate returns the template body the stack was last deployed
// with.
func (c *Client) DeployedTemplate(ctx context.Context, stackName string) (string, error) {
	out, err := c.api.GetTemplate(ctx, &cloudformation.GetTemplateInput{
		StackName:     aws.String(stackName),
		TemplateStage: types.TemplateStageOriginal,
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%s: %w", stackName, ErrStackNotFound)
		}
		return "", fmt.Errorf("get template for %s: %w", stackName, err)
	}
	return aws.ToString(out.TemplateBody), nil
}

// Destroy deletes the stack and waits until it is gone. Deleting a stack
// that does not exist succeeds.
func (c *Client) Destroy(ctx context.Context, stackName string) error {
	log := c.logger.WithField("stack", stackName)

	info, err := c.Describe(ctx, stackName)
	if errors.Is(err, ErrStackNotFound) {
		log.Info("stack does not exist")
		return nil
	}
	if err != nil {
		return err
	}

	log.WithField("status", info.Status).Info("deleting stack")
	if _, err := c.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(stackName),
	}); err != nil {
		return fmt.Errorf("delete stack %s: %w", stackName, err)
	}

	waiter := cloudformation.NewStackDeleteCompleteWaiter(c.api, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
		o.MinDelay = c.minDelay
		o.MaxDelay = c.maxDelay
	})
	// Waiting by ID keeps DescribeStacks answering after the name is freed.
	target := stackName
	if info.ID != "" {
		target = info.ID
	}
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(target)}, c.timeout); err != nil {
		return c.failure(ctx, target, "delete", err)
	}

	log.Info("stack deleted")
	return nil
}

// failure wraps a waiter error with the failed resource events of the stack.
func (c *Client) failure(ctx context.Context, stackName, op string, cause error) error {
	reasons := c.failureReasons(ctx, stackName)
	if len(reasons) == 0 {
		return fmt.Errorf("%s stack %s: %w", op, stackName, cause)
	}
	return fmt.Errorf("%s stack %s: %w\n  %s", op, stackName, cause, strings.Join(reasons, "\n  "))
}

// failureReasons lists the most recent failed resource events, oldest
// first.
func (c *Client) failureReasons(ctx context.Context, stackName string) []string {
	out, err := c.api.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		c.logger.WithError(err).Debug("could not read stack events")
		return nil
	}

	var events []types.StackEvent
	for _, e := range out.StackEvents {
		if strings.HasSuffix(string(e.ResourceStatus), "_FAILED") && aws.ToString(e.ResourceStatusReason) != "" {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return aws.ToTime(events[i].Timestamp).Before(aws.ToTime(events[j].Timestamp))
	})

	reasons := make([]string, 0, len(events))
	for _, e := range events {
		reasons = append(reasons, fmt.Sprintf("%s (%s) %s: %s",
			aws.ToString(e.LogicalResourceId), aws.ToString(e.ResourceType),
			e.ResourceStatus, aws.ToString(e.ResourceStatusReason)))
	}
	return reasons
}

// isNotFound reports whether err is CloudFormation's "stack does not
// exist" validation error.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist")
	}
	return false
}
