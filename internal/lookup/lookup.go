// Package lookup resolves environment facts the configuration leaves open:
// the caller's account, the region's availability zones and whether a
// referenced secret exists.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/wpstack/wpstack/internal/awsconf"
	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/logging"
)

// AWS error codes
const (
	ResourceNotFoundException = "ResourceNotFoundException"
	AccessDeniedException     = "AccessDeniedException"
)

// ErrNotEnoughZones is returned when the region has fewer available zones
// than requested.
var ErrNotEnoughZones = errors.New("not enough availability zones")

// STSAPI is the STS subset used here.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// EC2API is the EC2 subset used here.
type EC2API interface {
	DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error)
}

// SecretsAPI is the Secrets Manager subset used here. DescribeSecret never
// returns the secret value.
type SecretsAPI interface {
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
}

// Client answers environment lookups.
type Client struct {
	sts     STSAPI
	ec2     EC2API
	secrets SecretsAPI
	logger  logrus.FieldLogger
}

// New returns a Client for cfg.
func New(cfg aws.Config, logger logrus.FieldLogger) *Client {
	retryer := awsconf.NewRetryer()
	return NewWithAPIs(
		sts.NewFromConfig(cfg, func(o *sts.Options) { o.Retryer = retryer }),
		ec2.NewFromConfig(cfg, func(o *ec2.Options) { o.Retryer = retryer }),
		secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) { o.Retryer = retryer }),
		logger,
	)
}

// NewWithAPIs returns a Client over the given APIs.
func NewWithAPIs(stsAPI STSAPI, ec2API EC2API, secretsAPI SecretsAPI, logger logrus.FieldLogger) *Client {
	return &Client{
		sts:     stsAPI,
		ec2:     ec2API,
		secrets: secretsAPI,
		logger:  logging.OrDiscard(logger),
	}
}

// Account returns the account ID of the caller.
func (c *Client) Account(ctx context.Context) (string, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
}

// VerifyAccount fails when the caller's credentials belong to an account
// other than want. An empty want accepts any account.
func (c *Client) VerifyAccount(ctx context.Context, want string) error {
	if want == "" {
		return nil
	}
	got, err := c.Account(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("credentials belong to account %s, CDK_DEPLOY_ACCOUNT is %s", got, want)
	}
	return nil
}

// AvailabilityZones returns the first n available zone names of the
// region in lexical order. Local and wavelength zones are excluded.
func (c *Client) AvailabilityZones(ctx context.Context, n int) ([]string, error) {
	out, err := c.ec2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("state"), Values: []string{"available"}},
			{Name: aws.String("zone-type"), Values: []string{"availability-zone"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("describe availability zones: %w", err)
	}

	var names []string
	for _, az := range out.AvailabilityZones {
		if az.State != ec2types.AvailabilityZoneStateAvailable {
			continue
		}
		names = append(names, aws.ToString(az.ZoneName))
	}
	sort.Strings(names)

	if len(names) < n {
		return nil, fmt.Errorf("%w: want %d, region has %d", ErrNotEnoughZones, n, len(names))
	}
	return names[:n], nil
}

// SecretExists reports whether the secret id (name or ARN) exists.
// Access denied is an error, not a missing secret.
func (c *Client) SecretExists(ctx context.Context, id string) (bool, error) {
	_, err := c.secrets.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(id),
	})
	if err == nil {
		return true, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case ResourceNotFoundException:
			return false, nil
		case AccessDeniedException:
			return false, fmt.Errorf("access denied describing secret %s: %w", id, err)
		}
	}
	return false, fmt.Errorf("describe secret %s: %w", id, err)
}

// Resolve fills the environment-dependent fields of cfg: the account when
// empty, literal availability zones when withZones is set, and checks that
// an existing-secret reference resolves.
func (c *Client) Resolve(ctx context.Context, cfg config.Config, withZones bool) (config.Config, error) {
	if cfg.Account == "" {
		account, err := c.Account(ctx)
		if err != nil {
			return cfg, err
		}
		cfg.Account = account
		c.logger.WithField("account", account).Debug("resolved account")
	}

	if withZones && len(cfg.AvailabilityZones) == 0 {
		zones, err := c.AvailabilityZones(ctx, cfg.MaxAZs)
		if err != nil {
			return cfg, err
		}
		cfg.AvailabilityZones = zones
		c.logger.WithField("zones", zones).Debug("resolved availability zones")
	}

	if cfg.DBPasswordSecretID != "" {
		ok, err := c.SecretExists(ctx, cfg.DBPasswordSecretID)
		if err != nil {
			return cfg, err
		}
		if !ok {
			return cfg, fmt.Errorf("%w: DB_PASSWORD_SECRET_ID %q does not exist", config.ErrInvalid, cfg.DBPasswordSecretID)
		}
	}

	return cfg, nil
}
