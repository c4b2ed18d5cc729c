package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wpstack/wpstack/internal/config"
)

// strongPasswordLength is the length from which a literal password that
// mixes three character classes is not reported as weak.
const strongPasswordLength = 16

// InsecurePassword reports literal passwords that are placeholders or too
// short.
//
// Validation rejects them unless ALLOW_INSECURE_DB_PASSWORD is set; with the
// opt-in they deploy, so lint keeps flagging them.
type InsecurePassword struct{}

func (r InsecurePassword) ID() string { return "WPS001" }
func (r InsecurePassword) Description() string {
	return "Literal database password is a placeholder or too short"
}

func (r InsecurePassword) Check(in Input) []Issue {
	cfg := in.Config
	if cfg.DBPassword == "" || !config.IsInsecurePassword(cfg.DBPassword) {
		return nil
	}

	severity := SeverityError
	if cfg.AllowInsecurePassword {
		severity = SeverityWarning
	}
	return []Issue{{
		Rule:       r.ID(),
		Severity:   severity,
		Message:    fmt.Sprintf("DB_PASSWORD is a well-known placeholder or shorter than %d characters", config.MinPasswordLength),
		Suggestion: "Unset DB_PASSWORD to generate a secret, or set DB_PASSWORD_SECRET_ID",
		Path:       "DB_PASSWORD",
	}}
}

// WeakPassword reports literal passwords that pass validation but are short
// or drawn from few character classes.
type WeakPassword struct{}

func (r WeakPassword) ID() string { return "WPS002" }
func (r WeakPassword) Description() string {
	return "Literal database password has low entropy"
}

func (r WeakPassword) Check(in Input) []Issue {
	password := in.Config.DBPassword
	if password == "" || config.IsInsecurePassword(password) {
		return nil
	}
	if isHighEntropy(password, strongPasswordLength) && !isPlaceholder(password) {
		return nil
	}
	return []Issue{{
		Rule:       r.ID(),
		Severity:   SeverityInfo,
		Message:    fmt.Sprintf("DB_PASSWORD uses %d character classes and %d characters", charClasses(password), len(password)),
		Suggestion: fmt.Sprintf("Use at least %d characters mixing upper, lower, digits and symbols", strongPasswordLength),
		Path:       "DB_PASSWORD",
	}}
}

// PlaintextPassword reports that a literal password ends up in the
// template, the DB instance properties and the task definition.
type PlaintextPassword struct{}

func (r PlaintextPassword) ID() string { return "WPS003" }
func (r PlaintextPassword) Description() string {
	return "Literal database password is rendered in plain text"
}

func (r PlaintextPassword) Check(in Input) []Issue {
	if in.Config.CredentialSource() != config.CredentialLiteral {
		return nil
	}
	return []Issue{{
		Rule:       r.ID(),
		Severity:   SeverityWarning,
		Message:    "DB_PASSWORD is written into the template and the task definition environment",
		Suggestion: "Store the password in Secrets Manager and set DB_PASSWORD_SECRET_ID",
		Path:       "DB_PASSWORD",
	}}
}

// UnpinnedImage reports container images without a tag or digest, or
// tagged latest.
type UnpinnedImage struct{}

func (r UnpinnedImage) ID() string { return "WPS004" }
func (r UnpinnedImage) Description() string {
	return "Container image is not pinned to a tag or digest"
}

func (r UnpinnedImage) Check(in Input) []Issue {
	image := in.Config.ContainerImage
	tag, digest := imageReference(image)
	if digest || (tag != "" && tag != "latest") {
		return nil
	}
	return []Issue{{
		Rule:       r.ID(),
		Severity:   SeverityInfo,
		Message:    fmt.Sprintf("CONTAINER_IMAGE %q follows the latest tag; redeploys may change the running version", image),
		Suggestion: "Pin a version tag such as wordpress:6-apache or a digest",
		Path:       "CONTAINER_IMAGE",
	}}
}

// imageReference returns the tag of image and whether it is pinned by digest.
func imageReference(image string) (tag string, digest bool) {
	if strings.Contains(image, "@") {
		return "", true
	}
	name := image
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:], false
	}
	return "", false
}

// SharedNatGateway reports private subnets that route through a NAT
// gateway in another availability zone.
type SharedNatGateway struct{}

func (r SharedNatGateway) ID() string { return "WPS005" }
func (r SharedNatGateway) Description() string {
	return "Fewer NAT gateways than availability zones"
}

func (r SharedNatGateway) Check(in Input) []Issue {
	cfg := in.Config
	if cfg.NATGateways <= 0 || cfg.NATGateways >= cfg.MaxAZs {
		return nil
	}
	return []Issue{{
		Rule:     r.ID(),
		Severity: SeverityInfo,
		Message: fmt.Sprintf("%d NAT gateway(s) serve %d availability zones; losing a NAT zone cuts egress for the others",
			cfg.NATGateways, cfg.MaxAZs),
		Suggestion: "Set NAT_GW to MAX_AZ for zone-independent egress",
		Path:       "NAT_GW",
	}}
}

// SecretPattern detects credentials pasted into template properties and
// outputs.
//
// The configured literal DB password is left to PlaintextPassword.
type SecretPattern struct{}

func (r SecretPattern) ID() string { return "WPS006" }
func (r SecretPattern) Description() string {
	return "Detect hardcoded secrets, API keys, and sensitive credentials in the template"
}

func (r SecretPattern) Check(in Input) []Issue {
	t := in.Template
	if t == nil {
		return nil
	}

	var issues []Issue
	check := func(path, key, value string) {
		if value == "" || value == in.Config.DBPassword {
			return
		}
		if name, ok := matchSecret(value); ok {
			issues = append(issues, Issue{
				Rule:       r.ID(),
				Severity:   SeverityError,
				Message:    fmt.Sprintf("Potential %s detected - avoid hardcoding secrets", name),
				Suggestion: "Use AWS Secrets Manager, Parameter Store, or environment variables",
				Path:       path,
			})
			return
		}
		if sensitiveKeys[strings.ToLower(key)] && len(value) >= 8 && !isPlaceholder(value) {
			issues = append(issues, Issue{
				Rule:       r.ID(),
				Severity:   SeverityError,
				Message:    fmt.Sprintf("Hardcoded value in sensitive field '%s' - avoid storing secrets in the template", key),
				Suggestion: "Use AWS Secrets Manager, Parameter Store, or environment variables",
				Path:       path,
			})
		}
	}

	ids := make([]string, 0, len(t.Resources))
	for id := range t.Resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		walkStrings("Resources/"+id+"/Properties", "", t.Resources[id].Properties, check)
	}

	names := make([]string, 0, len(t.Outputs))
	for name := range t.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		walkStrings("Outputs/"+name+"/Value", "Value", t.Outputs[name].Value, check)
	}

	return issues
}

// AllRules returns all available lint rules.
func AllRules() []Rule {
	return []Rule{
		InsecurePassword{},
		WeakPassword{},
		PlaintextPassword{},
		UnpinnedImage{},
		SharedNatGateway{},
		SecretPattern{},
	}
}
