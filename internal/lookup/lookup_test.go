package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpstack/wpstack/internal/config"
)

type mockSTS struct {
	account string
	err     error
	calls   int
}

func (m *mockSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &sts.GetCallerIdentityOutput{Account: aws.String(m.account)}, nil
}

type mockEC2 struct {
	zones []ec2types.AvailabilityZone
	input *ec2.DescribeAvailabilityZonesInput
}

func (m *mockEC2) DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
	m.input = params
	return &ec2.DescribeAvailabilityZonesOutput{AvailabilityZones: m.zones}, nil
}

type mockSecrets struct {
	known map[string]bool
	err   error
}

func (m *mockSecrets) DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	id := aws.ToString(params.SecretId)
	if !m.known[id] {
		return nil, &smithy.GenericAPIError{Code: ResourceNotFoundException, Message: "Secrets Manager can't find the specified secret."}
	}
	return &secretsmanager.DescribeSecretOutput{Name: aws.String(id)}, nil
}

func zone(name string, state ec2types.AvailabilityZoneState) ec2types.AvailabilityZone {
	return ec2types.AvailabilityZone{ZoneName: aws.String(name), State: state}
}

func newClient() (*Client, *mockSTS, *mockEC2, *mockSecrets) {
	s := &mockSTS{account: "123456789012"}
	e := &mockEC2{zones: []ec2types.AvailabilityZone{
		zone("us-east-1c", ec2types.AvailabilityZoneStateAvailable),
		zone("us-east-1a", ec2types.AvailabilityZoneStateAvailable),
		zone("us-east-1e", ec2types.AvailabilityZoneStateImpaired),
		zone("us-east-1b", ec2types.AvailabilityZoneStateAvailable),
	}}
	sm := &mockSecrets{known: map[string]bool{"prod/wordpress/db": true}}
	return NewWithAPIs(s, e, sm, nil), s, e, sm
}

func TestAccount(t *testing.T) {
	c, _, _, _ := newClient()
	account, err := c.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123456789012", account)
}

func TestVerifyAccount(t *testing.T) {
	c, s, _, _ := newClient()

	require.NoError(t, c.VerifyAccount(context.Background(), ""))
	assert.Zero(t, s.calls)

	require.NoError(t, c.VerifyAccount(context.Background(), "123456789012"))

	err := c.VerifyAccount(context.Background(), "210987654321")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CDK_DEPLOY_ACCOUNT is 210987654321")
}

func TestAvailabilityZones(t *testing.T) {
	c, _, e, _ := newClient()

	zones, err := c.AvailabilityZones(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1a", "us-east-1b"}, zones)
	require.Len(t, e.input.Filters, 2)
	assert.Equal(t, "state", aws.ToString(e.input.Filters[0].Name))

	_, err = c.AvailabilityZones(context.Background(), 4)
	assert.True(t, errors.Is(err, ErrNotEnoughZones))
}

func TestSecretExists(t *testing.T) {
	c, _, _, sm := newClient()

	ok, err := c.SecretExists(context.Background(), "prod/wordpress/db")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SecretExists(context.Background(), "prod/other")
	require.NoError(t, err)
	assert.False(t, ok)

	sm.err = &smithy.GenericAPIError{Code: AccessDeniedException, Message: "denied"}
	_, err = c.SecretExists(context.Background(), "prod/wordpress/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	sm.err = errors.New("connection reset")
	_, err = c.SecretExists(context.Background(), "prod/wordpress/db")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	t.Run("fills account and zones", func(t *testing.T) {
		c, s, _, _ := newClient()
		cfg, err := c.Resolve(context.Background(), config.Default(), true)
		require.NoError(t, err)
		assert.Equal(t, "123456789012", cfg.Account)
		assert.Equal(t, []string{"us-east-1a", "us-east-1b"}, cfg.AvailabilityZones)
		assert.Equal(t, 1, s.calls)
	})

	t.Run("keeps configured values", func(t *testing.T) {
		c, s, e, _ := newClient()
		in := config.Default()
		in.Account = "210987654321"
		in.AvailabilityZones = []string{"us-east-1d", "us-east-1f"}

		cfg, err := c.Resolve(context.Background(), in, true)
		require.NoError(t, err)
		assert.Equal(t, in.Account, cfg.Account)
		assert.Equal(t, in.AvailabilityZones, cfg.AvailabilityZones)
		assert.Zero(t, s.calls)
		assert.Nil(t, e.input)
	})

	t.Run("zones only on request", func(t *testing.T) {
		c, _, _, _ := newClient()
		cfg, err := c.Resolve(context.Background(), config.Default(), false)
		require.NoError(t, err)
		assert.Empty(t, cfg.AvailabilityZones)
	})

	t.Run("missing secret", func(t *testing.T) {
		c, _, _, _ := newClient()
		in := config.Default()
		in.DBPasswordSecretID = "prod/missing"

		_, err := c.Resolve(context.Background(), in, false)
		assert.True(t, errors.Is(err, config.ErrInvalid))
	})

	t.Run("sts failure", func(t *testing.T) {
		c, s, _, _ := newClient()
		s.err = errors.New("no credentials")
		_, err := c.Resolve(context.Background(), config.Default(), false)
		assert.Error(t, err)
	})
}
