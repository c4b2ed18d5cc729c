// Package status reports the runtime health of a deployed stack: the
// database instance and the load balancer's target group.
package status

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wpstack/wpstack/internal/awsconf"
	"github.com/wpstack/wpstack/internal/deploy"
	"github.com/wpstack/wpstack/internal/logging"
	"github.com/wpstack/wpstack/internal/topology"
)

// AWS error codes
const (
	DBInstanceNotFound  = "DBInstanceNotFound"
	TargetGroupNotFound = "TargetGroupNotFound"
)

// DB instance state
const DBAvailable = "available"

// StackAPI is the CloudFormation subset used here.
type StackAPI interface {
	DescribeStackResources(ctx context.Context, params *cloudformation.DescribeStackResourcesInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackResourcesOutput, error)
}

// RDSAPI is the RDS subset used here.
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// ELBAPI is the Elastic Load Balancing v2 subset used here.
type ELBAPI interface {
	DescribeTargetHealth(ctx context.Context, params *elbv2.DescribeTargetHealthInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error)
}

// Database is the state of the stack's DB instance.
type Database struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Endpoint string `json:"endpoint,omitempty"`
	Port     int32  `json:"port,omitempty"`
	MultiAZ  bool   `json:"multiAz"`
	Found    bool   `json:"found"`
}

// Targets counts the target group's registered targets by health state.
type Targets struct {
	TargetGroupARN string         `json:"targetGroupArn"`
	Healthy        int            `json:"healthy"`
	Total          int            `json:"total"`
	States         map[string]int `json:"states"`
	Found          bool           `json:"found"`
}

// Report is the health of a deployed stack.
type Report struct {
	Stack    string   `json:"stack"`
	Database Database `json:"database"`
	Targets  Targets  `json:"targets"`
}

// Healthy reports whether the database is available and at least one
// target is healthy.
func (r *Report) Healthy() bool {
	return r.Database.Found && r.Database.Status == DBAvailable &&
		r.Targets.Found && r.Targets.Healthy > 0
}

// String renders the report for a terminal.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stack: %s\n", r.Stack)
	if r.Database.Found {
		fmt.Fprintf(&b, "Database %s: %s", r.Database.ID, r.Database.Status)
		if r.Database.Endpoint != "" {
			fmt.Fprintf(&b, " (%s:%d)", r.Database.Endpoint, r.Database.Port)
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "Database %s: not found\n", r.Database.ID)
	}
	if r.Targets.Found {
		fmt.Fprintf(&b, "Targets: %d/%d healthy", r.Targets.Healthy, r.Targets.Total)
		states := make([]string, 0, len(r.Targets.States))
		for state := range r.Targets.States {
			states = append(states, state)
		}
		sort.Strings(states)
		for _, state := range states {
			fmt.Fprintf(&b, ", %s=%d", state, r.Targets.States[state])
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Targets: target group not found\n")
	}
	return b.String()
}

// Checker builds status reports.
type Checker struct {
	stacks StackAPI
	rds    RDSAPI
	elb    ELBAPI
	logger logrus.FieldLogger
}

// New returns a Checker for cfg.
func New(cfg aws.Config, logger logrus.FieldLogger) *Checker {
	retryer := awsconf.NewRetryer()
	return NewWithAPIs(
		cloudformation.NewFromConfig(cfg, func(o *cloudformation.Options) { o.Retryer = retryer }),
		rds.NewFromConfig(cfg, func(o *rds.Options) { o.Retryer = retryer }),
		elbv2.NewFromConfig(cfg, func(o *elbv2.Options) { o.Retryer = retryer }),
		logger,
	)
}

// NewWithAPIs returns a Checker over the given APIs.
func NewWithAPIs(stacks StackAPI, rdsAPI RDSAPI, elb ELBAPI, logger logrus.FieldLogger) *Checker {
	return &Checker{
		stacks: stacks,
		rds:    rdsAPI,
		elb:    elb,
		logger: logging.OrDiscard(logger),
	}
}

// Check reads the physical IDs of the stack's DB instance and target group
// and queries both concurrently. A resource that is missing from AWS is
// reported as not found rather than as an error.
func (c *Checker) Check(ctx context.Context, stackName string) (*Report, error) {
	ids, err := c.physicalIDs(ctx, stackName)
	if err != nil {
		return nil, err
	}

	report := &Report{Stack: stackName}
	report.Database.ID = ids[topology.DatabaseID]
	report.Targets.TargetGroupARN = ids[topology.TargetGroupID]

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if report.Database.ID == "" {
			return nil
		}
		db, err := c.database(gCtx, report.Database.ID)
		if err != nil {
			return err
		}
		report.Database = db
		return nil
	})
	g.Go(func() error {
		if report.Targets.TargetGroupARN == "" {
			return nil
		}
		targets, err := c.targets(gCtx, report.Targets.TargetGroupARN)
		if err != nil {
			return err
		}
		report.Targets = targets
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"stack":   stackName,
		"db":      report.Database.Status,
		"healthy": report.Targets.Healthy,
		"targets": report.Targets.Total,
	}).Debug("status checked")
	return report, nil
}

func (c *Checker) physicalIDs(ctx context.Context, stackName string) (map[string]string, error) {
	out, err := c.stacks.DescribeStackResources(ctx, &cloudformation.DescribeStackResourcesInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationError" &&
			strings.Contains(apiErr.ErrorMessage(), "does not exist") {
			return nil, fmt.Errorf("%s: %w", stackName, deploy.ErrStackNotFound)
		}
		return nil, fmt.Errorf("describe stack resources for %s: %w", stackName, err)
	}

	ids := make(map[string]string, len(out.StackResources))
	for _, r := range out.StackResources {
		ids[aws.ToString(r.LogicalResourceId)] = aws.ToString(r.PhysicalResourceId)
	}
	return ids, nil
}

func (c *Checker) database(ctx context.Context, id string) (Database, error) {
	db := Database{ID: id}
	out, err := c.rds.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(id),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == DBInstanceNotFound {
			return db, nil
		}
		return db, fmt.Errorf("describe db instance %s: %w", id, err)
	}
	if len(out.DBInstances) == 0 {
		return db, nil
	}

	inst := out.DBInstances[0]
	db.Found = true
	db.Status = aws.ToString(inst.DBInstanceStatus)
	db.MultiAZ = aws.ToBool(inst.MultiAZ)
	if inst.Endpoint != nil {
		db.Endpoint = aws.ToString(inst.Endpoint.Address)
		db.Port = aws.ToInt32(inst.Endpoint.Port)
	}
	return db, nil
}

func (c *Checker) targets(ctx context.Context, arn string) (Targets, error) {
	targets := Targets{TargetGroupARN: arn, States: map[string]int{}}
	out, err := c.elb.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: aws.String(arn),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == TargetGroupNotFound {
			return targets, nil
		}
		return targets, fmt.Errorf("describe target health %s: %w", arn, err)
	}

	targets.Found = true
	for _, d := range out.TargetHealthDescriptions {
		state := "unknown"
		if d.TargetHealth != nil && d.TargetHealth.State != "" {
			state = string(d.TargetHealth.State)
		}
		targets.States[state]++
		targets.Total++
		if state == "healthy" {
			targets.Healthy++
		}
	}
	return targets, nil
}
