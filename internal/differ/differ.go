// Package differ provides semantic comparison of CloudFormation templates.
//
// Both sides are normalized through JSON before comparing, so a freshly
// rendered template, a template file and the template body returned by
// CloudFormation compare equal when they declare the same thing.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	wpstack "github.com/wpstack/wpstack"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    wpstack.TemplateDiff
	Summary wpstack.DiffSummary
	// Parameters and Outputs list changes outside Resources, as paths.
	Parameters []string
	Outputs    []string
}

// Empty reports whether the templates are equivalent.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0 && len(r.Parameters) == 0 && len(r.Outputs) == 0
}

// Compare compares two CloudFormation templates and returns the changes
// that turn from into to.
func Compare(from, to *wpstack.Template, opts Options) (*Result, error) {
	t1, err := normalize(from)
	if err != nil {
		return nil, fmt.Errorf("normalizing old template: %w", err)
	}
	t2, err := normalize(to)
	if err != nil {
		return nil, fmt.Errorf("normalizing new template: %w", err)
	}

	result := &Result{}
	d := differ{opts: opts}

	for _, name := range unionKeys(t1.Resources, t2.Resources) {
		def1, in1 := t1.Resources[name]
		def2, in2 := t2.Resources[name]
		switch {
		case !in1:
			result.Diff.Added = append(result.Diff.Added, wpstack.DiffEntry{Resource: name, Type: def2.Type})
		case !in2:
			result.Diff.Removed = append(result.Diff.Removed, wpstack.DiffEntry{Resource: name, Type: def1.Type})
		default:
			if changes := d.compareResources(def1, def2); len(changes) > 0 {
				result.Diff.Modified = append(result.Diff.Modified, wpstack.DiffEntry{
					Resource: name,
					Type:     def2.Type,
					Changes:  changes,
				})
			}
		}
	}

	result.Parameters = d.compareSection(t1.Parameters, t2.Parameters)
	result.Outputs = d.compareSection(t1.Outputs, t2.Outputs)

	result.Summary = wpstack.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a CloudFormation template from a file.
func LoadTemplate(path string) (*wpstack.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a JSON or YAML template body. YAML must use the long form
// of intrinsic functions (Ref:, Fn::GetAtt:), as the build command writes.
func Parse(data []byte) (*wpstack.Template, error) {
	var template wpstack.Template

	// Try JSON first
	if err := json.Unmarshal(data, &template); err != nil {
		template = wpstack.Template{}
		if err := yaml.Unmarshal(data, &template); err != nil {
			return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
		}
	}

	return &template, nil
}

// normalize round-trips t through JSON so that numbers, nested maps and
// lists have the same Go types regardless of where t came from.
func normalize(t *wpstack.Template) (*wpstack.Template, error) {
	if t == nil {
		return &wpstack.Template{}, nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var out wpstack.Template
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type differ struct {
	opts Options
}

// compareResources compares two resource definitions and returns changes.
func (d differ) compareResources(def1, def2 wpstack.ResourceDef) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, d.compareValues("Properties", asAny(def1.Properties), asAny(def2.Properties))...)

	if !d.equal(sortedStrings(def1.DependsOn), sortedStrings(def2.DependsOn)) {
		changes = append(changes, "DependsOn changed")
	}
	if def1.DeletionPolicy != def2.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %q → %q", def1.DeletionPolicy, def2.DeletionPolicy))
	}
	if def1.UpdateReplacePolicy != def2.UpdateReplacePolicy {
		changes = append(changes, fmt.Sprintf("UpdateReplacePolicy changed: %q → %q", def1.UpdateReplacePolicy, def2.UpdateReplacePolicy))
	}
	changes = append(changes, d.compareValues("UpdatePolicy", asAny(def1.UpdatePolicy), asAny(def2.UpdatePolicy))...)

	return changes
}

// compareSection compares the Parameters or Outputs sections by name.
func (d differ) compareSection(s1, s2 any) []string {
	m1, _ := jsonValue(s1).(map[string]any)
	m2, _ := jsonValue(s2).(map[string]any)

	var changes []string
	for _, name := range unionKeys(m1, m2) {
		changes = append(changes, d.compareValues(name, m1[name], m2[name])...)
	}
	return changes
}

// compareValues recursively compares a and b and reports changed paths.
// Maps are compared key by key; lists of equal length element by element
// unless order is ignored.
func (d differ) compareValues(path string, a, b any) []string {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return []string{path + " added"}
	case b == nil:
		return []string{path + " removed"}
	}

	m1, ok1 := a.(map[string]any)
	m2, ok2 := b.(map[string]any)
	if ok1 && ok2 {
		var changes []string
		for _, key := range unionKeys(m1, m2) {
			changes = append(changes, d.compareValues(path+"."+key, m1[key], m2[key])...)
		}
		return changes
	}

	l1, ok1 := a.([]any)
	l2, ok2 := b.([]any)
	if ok1 && ok2 && len(l1) == len(l2) && !d.opts.IgnoreOrder {
		var changes []string
		for i := range l1 {
			changes = append(changes, d.compareValues(path+"["+strconv.Itoa(i)+"]", l1[i], l2[i])...)
		}
		return changes
	}

	if !d.equal(a, b) {
		return []string{path + " modified"}
	}
	return nil
}

// equal compares two normalized values, optionally ignoring list order.
func (d differ) equal(a, b any) bool {
	opts := []cmp.Option{cmpopts.EquateEmpty()}
	if d.opts.IgnoreOrder {
		opts = append(opts, cmpopts.SortSlices(func(x, y any) bool {
			return canonical(x) < canonical(y)
		}))
	}
	return cmp.Equal(a, b, opts...)
}

func canonical(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func jsonValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// asAny turns a nil map into an untyped nil so absent sections compare as
// missing rather than as empty maps.
func asAny(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
