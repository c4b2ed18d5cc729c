// Package config loads and validates the deployment configuration.
//
// Configuration comes from the process environment, optionally layered over
// one or more env files. It is read once, at the command boundary, and passed
// by value everywhere else.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete set of deployment inputs.
type Config struct {
	Account   string `env:"CDK_DEPLOY_ACCOUNT"`
	Region    string `env:"CDK_DEPLOY_REGION"`
	StackName string `env:"STACK_NAME" envDefault:"WordpressAppStack"`

	VPCCIDR            string   `env:"VPC_CIDR" envDefault:"10.0.0.0/16"`
	MaxAZs             int      `env:"MAX_AZ" envDefault:"2"`
	AvailabilityZones  []string `env:"AVAILABILITY_ZONES" envSeparator:","`
	NATGateways        int      `env:"NAT_GW" envDefault:"1"`
	PublicSubnetMask   int      `env:"PUB_SUB_MASK" envDefault:"24"`
	PrivateSubnetMask  int      `env:"PRIV_SUB_MASK" envDefault:"24"`
	IsolatedSubnetMask int      `env:"ISO_SUB_MASK" envDefault:"28"`

	DBName                string `env:"DB_NAME" envDefault:"wordpress"`
	DBUser                string `env:"DB_USER" envDefault:"wordpress"`
	DBPassword            string `env:"DB_PASSWORD"`
	DBPasswordSecretID    string `env:"DB_PASSWORD_SECRET_ID"`
	AllowInsecurePassword bool   `env:"ALLOW_INSECURE_DB_PASSWORD"`
	DBEngineVersion       string `env:"DB_ENGINE_VERSION" envDefault:"8.0.30"`
	StorageGiB            int    `env:"STORAGE" envDefault:"10"`

	MinCapacity         int `env:"MIN_CAP" envDefault:"1"`
	MaxCapacity         int `env:"MAX_CAP" envDefault:"2"`
	CPUTargetPercent    int `env:"CPU_CONS" envDefault:"50"`
	MemoryTargetPercent int `env:"MEM_CONS" envDefault:"50"`

	ZoneName       string `env:"ZONE_NAME" envDefault:"wordpress101.com"`
	RecordName     string `env:"RECORD_NAME" envDefault:"app"`
	TTLMinutes     int    `env:"TTL" envDefault:"30"`
	ContainerImage string `env:"CONTAINER_IMAGE" envDefault:"wordpress"`
}

// Load reads the configuration from the process environment. Values from
// envFiles apply only where the process environment does not set the key;
// later files override earlier ones.
func Load(envFiles ...string) (Config, error) {
	environment := make(map[string]string)
	for _, file := range envFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			return Config{}, fmt.Errorf("reading env file %s: %w", file, err)
		}
		for k, v := range values {
			environment[k] = v
		}
	}
	for k, v := range env.ToMap(os.Environ()) {
		environment[k] = v
	}
	return FromMap(environment)
}

// FromMap parses the configuration from an explicit environment map.
func FromMap(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg.AvailabilityZones = compact(cfg.AvailabilityZones)
	return cfg, nil
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	cfg, err := FromMap(map[string]string{})
	if err != nil {
		panic(err)
	}
	return cfg
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// CredentialSource says where the database password comes from.
type CredentialSource string

const (
	// CredentialLiteral uses DB_PASSWORD verbatim.
	CredentialLiteral CredentialSource = "literal"
	// CredentialExistingSecret resolves DB_PASSWORD_SECRET_ID at deploy time.
	CredentialExistingSecret CredentialSource = "existing-secret"
	// CredentialGeneratedSecret declares a generated Secrets Manager secret.
	CredentialGeneratedSecret CredentialSource = "generated-secret"
)

// CredentialSource reports which credential mode the configuration selects.
func (c Config) CredentialSource() CredentialSource {
	switch {
	case c.DBPassword != "":
		return CredentialLiteral
	case c.DBPasswordSecretID != "":
		return CredentialExistingSecret
	default:
		return CredentialGeneratedSecret
	}
}

// Zones returns the explicit availability zones to use, or nil when the
// template should select zones with Fn::GetAZs.
func (c Config) Zones() []string {
	if len(c.AvailabilityZones) == 0 {
		return nil
	}
	if len(c.AvailabilityZones) > c.MaxAZs {
		return c.AvailabilityZones[:c.MaxAZs]
	}
	return c.AvailabilityZones
}

// RecordFQDN returns the fully qualified name of the application record.
func (c Config) RecordFQDN() string {
	return c.RecordName + "." + strings.TrimSuffix(c.ZoneName, ".")
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.DBPassword != "" {
		c.DBPassword = "********"
	}
	return c
}

var (
	stackNamePattern = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9]{0,127}$`)
	dbNamePattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)
	dbUserPattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,15}$`)
	zonePattern      = regexp.MustCompile(`^([a-z0-9]([-a-z0-9]{0,61}[a-z0-9])?\.)+[a-z]{2,63}\.?$`)
	labelPattern     = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]{0,61}[a-z0-9])?$`)
)

// placeholderPasswords are rejected as literal passwords unless explicitly allowed.
var placeholderPasswords = map[string]bool{
	"wordpress": true,
	"password":  true,
	"admin":     true,
	"changeme":  true,
	"root":      true,
	"secret":    true,
	"mysql":     true,
	"12345678":  true,
	"qwerty":    true,
	"letmein":   true,
}

// MinPasswordLength is the shortest literal password accepted without opt-in.
const MinPasswordLength = 8

// IsInsecurePassword reports whether a literal password is a known
// placeholder or too short.
func IsInsecurePassword(password string) bool {
	return placeholderPasswords[strings.ToLower(password)] || len(password) < MinPasswordLength
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !stackNamePattern.MatchString(c.StackName) {
		add("STACK_NAME %q is not a valid CloudFormation stack name", c.StackName)
	}

	vpcPrefix := 0
	ip, network, err := net.ParseCIDR(c.VPCCIDR)
	switch {
	case err != nil:
		add("VPC_CIDR %q is not a CIDR block", c.VPCCIDR)
	case ip.To4() == nil:
		add("VPC_CIDR %q is not an IPv4 block", c.VPCCIDR)
	case !ip.Equal(network.IP):
		add("VPC_CIDR %q has host bits set (network is %s)", c.VPCCIDR, network)
	default:
		vpcPrefix, _ = network.Mask.Size()
		if vpcPrefix < 16 || vpcPrefix > 28 {
			add("VPC_CIDR prefix /%d must be between /16 and /28", vpcPrefix)
		}
	}

	for _, m := range []struct {
		name string
		mask int
	}{
		{"PUB_SUB_MASK", c.PublicSubnetMask},
		{"PRIV_SUB_MASK", c.PrivateSubnetMask},
		{"ISO_SUB_MASK", c.IsolatedSubnetMask},
	} {
		if m.mask < 16 || m.mask > 28 {
			add("%s /%d must be between /16 and /28", m.name, m.mask)
		} else if vpcPrefix > 0 && m.mask < vpcPrefix {
			add("%s /%d is larger than the VPC /%d", m.name, m.mask, vpcPrefix)
		}
	}

	// The Multi-AZ database and the load balancer both span two zones.
	if c.MaxAZs < 2 {
		add("MAX_AZ must be at least 2, got %d", c.MaxAZs)
	}
	if len(c.AvailabilityZones) > 0 && len(c.AvailabilityZones) < c.MaxAZs {
		add("AVAILABILITY_ZONES lists %d zones but MAX_AZ is %d", len(c.AvailabilityZones), c.MaxAZs)
	}
	if c.NATGateways < 1 || (c.MaxAZs >= 1 && c.NATGateways > c.MaxAZs) {
		add("NAT_GW must be between 1 and MAX_AZ (%d), got %d", c.MaxAZs, c.NATGateways)
	}

	if !dbNamePattern.MatchString(c.DBName) {
		add("DB_NAME %q must start with a letter and contain only letters, digits and underscores", c.DBName)
	}
	if !dbUserPattern.MatchString(c.DBUser) {
		add("DB_USER %q must start with a letter and be at most 16 characters", c.DBUser)
	}

	switch {
	case c.DBPassword != "" && c.DBPasswordSecretID != "":
		add("DB_PASSWORD and DB_PASSWORD_SECRET_ID are mutually exclusive")
	case c.DBPassword != "" && IsInsecurePassword(c.DBPassword) && !c.AllowInsecurePassword:
		add("DB_PASSWORD is a placeholder or shorter than %d characters; unset it to generate a secret or set ALLOW_INSECURE_DB_PASSWORD=true", MinPasswordLength)
	case c.DBPassword != "" && strings.ContainsAny(c.DBPassword, `/"@ `):
		add(`DB_PASSWORD must not contain '/', '"', '@' or spaces`)
	}

	if v, err := semver.NewVersion(c.DBEngineVersion); err != nil {
		add("DB_ENGINE_VERSION %q is not a version: %v", c.DBEngineVersion, err)
	} else if constraint, _ := semver.NewConstraint("~8.0"); !constraint.Check(v) {
		add("DB_ENGINE_VERSION %s must be a MySQL 8.0.x release", c.DBEngineVersion)
	}

	if c.StorageGiB < 5 || c.StorageGiB > 65536 {
		add("STORAGE must be between 5 and 65536 GiB, got %d", c.StorageGiB)
	}

	if c.MinCapacity < 1 {
		add("MIN_CAP must be at least 1, got %d", c.MinCapacity)
	}
	if c.MaxCapacity < c.MinCapacity {
		add("MAX_CAP (%d) must not be below MIN_CAP (%d)", c.MaxCapacity, c.MinCapacity)
	}
	if c.CPUTargetPercent < 1 || c.CPUTargetPercent > 100 {
		add("CPU_CONS must be between 1 and 100, got %d", c.CPUTargetPercent)
	}
	if c.MemoryTargetPercent < 1 || c.MemoryTargetPercent > 100 {
		add("MEM_CONS must be between 1 and 100, got %d", c.MemoryTargetPercent)
	}

	if !zonePattern.MatchString(strings.ToLower(c.ZoneName)) {
		add("ZONE_NAME %q is not a domain name", c.ZoneName)
	}
	if !labelPattern.MatchString(strings.ToLower(c.RecordName)) {
		add("RECORD_NAME %q is not a DNS label", c.RecordName)
	}
	if c.TTLMinutes < 1 {
		add("TTL must be at least 1 minute, got %d", c.TTLMinutes)
	}
	if strings.TrimSpace(c.ContainerImage) == "" {
		add("CONTAINER_IMAGE must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(problems, "\n  "))
	}
	return nil
}
