// Package template renders a declared stack as a CloudFormation template.
package template

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/graph"
	"github.com/wpstack/wpstack/internal/stack"
)

// FormatVersion is the only AWSTemplateFormatVersion CloudFormation accepts.
const FormatVersion = "2010-09-09"

// Builder constructs CloudFormation templates from a stack.
type Builder struct {
	stack *stack.Stack
	graph *graph.Graph
	order []string
}

// NewBuilder creates a template builder for s.
func NewBuilder(s *stack.Stack) *Builder {
	return &Builder{stack: s}
}

// Build validates the declarations, resolves the dependency graph and
// constructs the template. Rendering is pure: the same stack always yields
// the same template.
func (b *Builder) Build() (*wpstack.Template, error) {
	if err := b.stack.Err(); err != nil {
		return nil, err
	}

	g, err := graph.FromStack(b.stack)
	if err != nil {
		return nil, err
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	b.graph = g
	b.order = order

	template := &wpstack.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.stack.Description,
		Resources:                make(map[string]wpstack.ResourceDef, len(order)),
	}

	if params := b.stack.Parameters(); len(params) > 0 {
		template.Parameters = make(map[string]wpstack.Parameter, len(params))
		for name, p := range params {
			template.Parameters[name] = p
		}
	}

	for _, name := range order {
		d, _ := b.stack.Get(name)

		dependsOn := append([]string(nil), d.DependsOn...)
		sort.Strings(dependsOn)

		template.Resources[name] = wpstack.ResourceDef{
			Type:                d.Type(),
			Properties:          g.Properties(name),
			DependsOn:           dedupe(dependsOn),
			DeletionPolicy:      d.DeletionPolicy,
			UpdateReplacePolicy: d.UpdateReplacePolicy,
			UpdatePolicy:        d.UpdatePolicy,
		}
	}

	if outputs := b.stack.Outputs(); len(outputs) > 0 {
		template.Outputs = make(map[string]wpstack.Output, len(outputs))
		for name, o := range outputs {
			value, err := normalize(o.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			o.Value = value
			template.Outputs[name] = o
		}
	}

	return template, nil
}

// Order returns the creation order computed by the last successful Build.
func (b *Builder) Order() []string {
	return b.order
}

// Graph returns the dependency graph computed by the last successful Build.
func (b *Builder) Graph() *graph.Graph {
	return b.graph
}

// normalize turns intrinsic values into plain JSON values so that the YAML
// encoder, which ignores json.Marshaler, renders them the same way.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func dedupe(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wpstack.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wpstack.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Format selects a template encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Encode serializes the template in the given format.
func Encode(t *wpstack.Template, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return ToJSON(t)
	case FormatYAML:
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown template format %q (expected json or yaml)", format)
	}
}
