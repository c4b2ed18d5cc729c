package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "WordpressAppStack", cfg.StackName)
	assert.Equal(t, "10.0.0.0/16", cfg.VPCCIDR)
	assert.Equal(t, 2, cfg.MaxAZs)
	assert.Equal(t, 1, cfg.NATGateways)
	assert.Equal(t, 24, cfg.PublicSubnetMask)
	assert.Equal(t, 24, cfg.PrivateSubnetMask)
	assert.Equal(t, 28, cfg.IsolatedSubnetMask)
	assert.Equal(t, "wordpress", cfg.DBName)
	assert.Equal(t, "wordpress", cfg.DBUser)
	assert.Empty(t, cfg.DBPassword)
	assert.Equal(t, "8.0.30", cfg.DBEngineVersion)
	assert.Equal(t, 10, cfg.StorageGiB)
	assert.Equal(t, 1, cfg.MinCapacity)
	assert.Equal(t, 2, cfg.MaxCapacity)
	assert.Equal(t, 50, cfg.CPUTargetPercent)
	assert.Equal(t, 50, cfg.MemoryTargetPercent)
	assert.Equal(t, "wordpress101.com", cfg.ZoneName)
	assert.Equal(t, "app", cfg.RecordName)
	assert.Equal(t, 30, cfg.TTLMinutes)
	assert.Equal(t, "wordpress", cfg.ContainerImage)
	assert.Nil(t, cfg.Zones())

	require.NoError(t, cfg.Validate())
	assert.Equal(t, CredentialGeneratedSecret, cfg.CredentialSource())
}

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"VPC_CIDR":           "172.16.0.0/16",
		"MAX_AZ":             "3",
		"NAT_GW":             "3",
		"AVAILABILITY_ZONES": "us-east-1a, us-east-1b,us-east-1c,",
		"MIN_CAP":            "2",
		"MAX_CAP":            "4",
		"ZONE_NAME":          "example.org",
	})
	require.NoError(t, err)

	assert.Equal(t, "172.16.0.0/16", cfg.VPCCIDR)
	assert.Equal(t, []string{"us-east-1a", "us-east-1b", "us-east-1c"}, cfg.Zones())
	assert.Equal(t, "app.example.org", cfg.RecordFQDN())
	assert.NoError(t, cfg.Validate())
}

func TestFromMap_ParseError(t *testing.T) {
	_, err := FromMap(map[string]string{"MAX_AZ": "two"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_EnvFileOverlay(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stack.env")
	require.NoError(t, os.WriteFile(file, []byte("ZONE_NAME=from-file.com\nRECORD_NAME=blog\n"), 0o600))

	t.Setenv("RECORD_NAME", "www")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "from-file.com", cfg.ZoneName)
	assert.Equal(t, "www", cfg.RecordName, "process environment wins over env file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad cidr", func(c *Config) { c.VPCCIDR = "10.0.0.0" }, "VPC_CIDR"},
		{"ipv6 cidr", func(c *Config) { c.VPCCIDR = "2001:db8::/56" }, "IPv4"},
		{"host bits", func(c *Config) { c.VPCCIDR = "10.0.0.1/16" }, "host bits"},
		{"mask too small", func(c *Config) { c.IsolatedSubnetMask = 30 }, "ISO_SUB_MASK"},
		{"mask larger than vpc", func(c *Config) { c.VPCCIDR = "10.0.0.0/20"; c.PublicSubnetMask = 18 }, "larger than the VPC"},
		{"zero azs", func(c *Config) { c.MaxAZs = 0 }, "MAX_AZ"},
		{"single az", func(c *Config) { c.MaxAZs = 1; c.NATGateways = 1 }, "MAX_AZ must be at least 2"},
		{"no nat", func(c *Config) { c.NATGateways = 0 }, "NAT_GW"},
		{"too many nat", func(c *Config) { c.NATGateways = 3 }, "NAT_GW"},
		{"too few zones", func(c *Config) { c.AvailabilityZones = []string{"us-east-1a"} }, "AVAILABILITY_ZONES"},
		{"min above max", func(c *Config) { c.MinCapacity = 3 }, "MAX_CAP"},
		{"zero min", func(c *Config) { c.MinCapacity = 0 }, "MIN_CAP"},
		{"cpu target", func(c *Config) { c.CPUTargetPercent = 150 }, "CPU_CONS"},
		{"memory target", func(c *Config) { c.MemoryTargetPercent = 0 }, "MEM_CONS"},
		{"storage", func(c *Config) { c.StorageGiB = 1 }, "STORAGE"},
		{"engine not semver", func(c *Config) { c.DBEngineVersion = "eight" }, "DB_ENGINE_VERSION"},
		{"engine not 8.0", func(c *Config) { c.DBEngineVersion = "5.7.44" }, "8.0.x"},
		{"zone", func(c *Config) { c.ZoneName = "not a zone" }, "ZONE_NAME"},
		{"record", func(c *Config) { c.RecordName = "app.www" }, "RECORD_NAME"},
		{"ttl", func(c *Config) { c.TTLMinutes = 0 }, "TTL"},
		{"db name", func(c *Config) { c.DBName = "word-press" }, "DB_NAME"},
		{"db user", func(c *Config) { c.DBUser = "a-very-long-database-user" }, "DB_USER"},
		{"stack name", func(c *Config) { c.StackName = "1stack" }, "STACK_NAME"},
		{"image", func(c *Config) { c.ContainerImage = " " }, "CONTAINER_IMAGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.MaxAZs = 0
	cfg.TTLMinutes = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_AZ")
	assert.Contains(t, err.Error(), "TTL")
}

func TestValidate_Credentials(t *testing.T) {
	t.Run("placeholder rejected", func(t *testing.T) {
		cfg := Default()
		cfg.DBPassword = "wordpress"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
	})

	t.Run("short rejected", func(t *testing.T) {
		cfg := Default()
		cfg.DBPassword = "x1Y2"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
	})

	t.Run("placeholder allowed with opt-in", func(t *testing.T) {
		cfg := Default()
		cfg.DBPassword = "wordpress"
		cfg.AllowInsecurePassword = true
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, CredentialLiteral, cfg.CredentialSource())
	})

	t.Run("strong literal", func(t *testing.T) {
		cfg := Default()
		cfg.DBPassword = "c0rrect-Horse-battery"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("forbidden characters", func(t *testing.T) {
		cfg := Default()
		cfg.DBPassword = "abc@defgh1234"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
	})

	t.Run("existing secret", func(t *testing.T) {
		cfg := Default()
		cfg.DBPasswordSecretID = "prod/wordpress/db"
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, CredentialExistingSecret, cfg.CredentialSource())
	})

	t.Run("both set", func(t *testing.T) {
		cfg := Default()
		cfg.DBPassword = "c0rrect-Horse-battery"
		cfg.DBPasswordSecretID = "prod/wordpress/db"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})
}

func TestIsInsecurePassword(t *testing.T) {
	assert.True(t, IsInsecurePassword("wordpress"))
	assert.True(t, IsInsecurePassword("PASSWORD"))
	assert.True(t, IsInsecurePassword("short"))
	assert.False(t, IsInsecurePassword("c0rrect-Horse-battery"))
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.DBPassword = "c0rrect-Horse-battery"

	redacted := cfg.Redacted()
	assert.Equal(t, "********", redacted.DBPassword)
	assert.Equal(t, "c0rrect-Horse-battery", cfg.DBPassword)
}
