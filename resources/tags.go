// Package resources holds helpers shared by the typed CloudFormation
// declarations in its subpackages.
package resources

import (
	"github.com/wpstack/wpstack/intrinsics"
)

// Tagged is embedded by declarations whose CloudFormation type accepts a
// standard Tags list. It implements the mutating half of wpstack.Taggable.
type Tagged struct {
	Tags []intrinsics.Tag `json:"Tags,omitempty"`
}

// SetTag adds or replaces the tag with the given key.
func (t *Tagged) SetTag(key, value string) {
	for i := range t.Tags {
		if t.Tags[i].Key == key {
			t.Tags[i].Value = value
			return
		}
	}
	t.Tags = append(t.Tags, intrinsics.Tag{Key: key, Value: value})
}

// TagValue returns the literal value of the tag with the given key.
// Tags whose value is an intrinsic function report ok=false.
func (t *Tagged) TagValue(key string) (string, bool) {
	for _, tag := range t.Tags {
		if tag.Key != key {
			continue
		}
		s, ok := tag.Value.(string)
		return s, ok
	}
	return "", false
}

// Bool returns a pointer to b. Pointer fields render explicit false values
// that would otherwise be dropped as zero values.
func Bool(b bool) *bool {
	return &b
}
