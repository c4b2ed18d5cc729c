package lint

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type secretPatternDef struct {
	name    string
	pattern *regexp.Regexp
}

var secretPatterns = []secretPatternDef{
	// AWS Access Key ID (starts with AKIA, ABIA, ACCA, or ASIA)
	{"AWS access key", regexp.MustCompile(`^(A3T[A-Z0-9]|AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}$`)},

	// AWS Secret Access Key (40 character base64-like string)
	{"AWS secret key", regexp.MustCompile(`^[A-Za-z0-9/+=]{40}$`)},

	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`)},

	{"Stripe API key", regexp.MustCompile(`^[sp]k_(live|test)_[a-zA-Z0-9]{24,}$`)},

	{"GitHub token", regexp.MustCompile(`^gh[pousr]_[A-Za-z0-9_]{36,}$`)},
	{"GitHub token", regexp.MustCompile(`^github_pat_[A-Za-z0-9_]{22,}$`)},

	{"Slack token", regexp.MustCompile(`^xox[baprs]-[0-9]{10,}-[0-9]{10,}-[a-zA-Z0-9]{24,}$`)},

	// Generic API key pattern (high entropy strings)
	{"API key", regexp.MustCompile(`^[A-Za-z0-9_\-]{32,}$`)},
}

// sensitiveKeys are property keys that commonly hold secrets.
var sensitiveKeys = map[string]bool{
	"password":           true,
	"masteruserpassword": true,
	"secret":             true,
	"secretstring":       true,
	"api_key":            true,
	"apikey":             true,
	"access_key":         true,
	"accesskey":          true,
	"private_key":        true,
	"privatekey":         true,
	"secret_key":         true,
	"secretkey":          true,
	"token":              true,
	"auth_token":         true,
	"authtoken":          true,
	"credentials":        true,
	"connection_string":  true,
}

// matchSecret returns the kind of secret s looks like.
func matchSecret(s string) (string, bool) {
	if len(s) < 10 {
		return "", false
	}
	for _, sp := range secretPatterns {
		if !sp.pattern.MatchString(s) {
			continue
		}
		if sp.name == "AWS secret key" && isSafeString(s) {
			continue
		}
		if sp.name == "API key" && !isHighEntropy(s, 32) {
			continue
		}
		return sp.name, true
	}
	return "", false
}

// isSafeString checks if a string is likely safe (not a secret)
func isSafeString(s string) bool {
	safePatterns := []string{
		"arn:aws:",
		"${",
		"AWS::",
		"http://",
		"https://",
		"s3://",
		"/aws/service/",
		".amazonaws.com",
	}

	for _, pattern := range safePatterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}

	return false
}

// charClasses counts the lower, upper, digit and other character classes
// present in s.
func charClasses(s string) int {
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	count := 0
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasSpecial} {
		if has {
			count++
		}
	}
	return count
}

// isHighEntropy reports whether s mixes at least three character classes
// and is at least minLen long.
func isHighEntropy(s string, minLen int) bool {
	return charClasses(s) >= 3 && len(s) >= minLen
}

// isPlaceholder checks if a string looks like a placeholder
func isPlaceholder(s string) bool {
	s = strings.ToLower(s)
	placeholders := []string{
		"changeme",
		"placeholder",
		"example",
		"your-",
		"my-",
		"todo",
		"fixme",
		"<",
		">",
		"xxx",
		"dummy",
	}

	for _, p := range placeholders {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// walkStrings calls fn for every string in v with its slash-separated
// path and the map key it sits under. Map keys are visited in sorted order.
func walkStrings(path, key string, v any, fn func(path, key, value string)) {
	switch val := v.(type) {
	case string:
		fn(path, key, val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkStrings(path+"/"+k, k, val[k], fn)
		}
	case []any:
		for i, item := range val {
			walkStrings(path+"/"+strconv.Itoa(i), key, item, fn)
		}
	}
}
