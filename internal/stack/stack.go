// Package stack records resource declarations, template parameters and
// outputs under unique logical IDs.
//
// A Stack is the single source the graph, template and validation packages
// read from:
//
//	st := stack.New("WordPress on ECS")
//	vpc := st.Add("Vpc", &ec2.VPC{CidrBlock: "10.0.0.0/16"})
//	st.Add("PublicSubnet1", &ec2.Subnet{VpcId: vpc.Ref()})
//	if err := st.Err(); err != nil { ... }
package stack

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/intrinsics"
)

var (
	// ErrDuplicateID is returned when a logical ID is declared twice.
	ErrDuplicateID = errors.New("duplicate logical ID")

	// ErrInvalidID is returned for logical IDs CloudFormation would reject.
	ErrInvalidID = errors.New("invalid logical ID")
)

var logicalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,255}$`)

// Declaration is one resource declared in a stack.
type Declaration struct {
	ID                  string
	Resource            wpstack.Resource
	DependsOn           []string
	DeletionPolicy      string
	UpdateReplacePolicy string
	UpdatePolicy        map[string]any
}

// Type returns the CloudFormation type of the declared resource.
func (d *Declaration) Type() string {
	return d.Resource.ResourceType()
}

// Ref returns a Ref to this resource.
func (d *Declaration) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: d.ID}
}

// GetAtt returns an Fn::GetAtt reference to an attribute of this resource.
func (d *Declaration) GetAtt(attribute string) wpstack.AttrRef {
	return wpstack.AttrRef{Resource: d.ID, Attribute: attribute}
}

// Option configures a Declaration.
type Option func(*Declaration)

// DependsOn adds explicit dependencies that no property reference expresses.
func DependsOn(ids ...string) Option {
	return func(d *Declaration) {
		d.DependsOn = append(d.DependsOn, ids...)
	}
}

// DeletionPolicy sets both the deletion and update-replace policy.
func DeletionPolicy(policy string) Option {
	return func(d *Declaration) {
		d.DeletionPolicy = policy
		d.UpdateReplacePolicy = policy
	}
}

// UpdatePolicy sets the resource UpdatePolicy attribute.
func UpdatePolicy(policy map[string]any) Option {
	return func(d *Declaration) {
		d.UpdatePolicy = policy
	}
}

// Stack is an ordered set of declarations plus template parameters and outputs.
type Stack struct {
	Description string

	decls      []*Declaration
	index      map[string]*Declaration
	parameters map[string]wpstack.Parameter
	outputs    map[string]wpstack.Output
	errs       []error
}

// New creates an empty stack.
func New(description string) *Stack {
	return &Stack{
		Description: description,
		index:       make(map[string]*Declaration),
		parameters:  make(map[string]wpstack.Parameter),
		outputs:     make(map[string]wpstack.Output),
	}
}

// Add declares a resource under id. Invalid or duplicate IDs are recorded
// and reported by Err; the returned declaration is still usable so that
// callers can keep building references.
func (s *Stack) Add(id string, r wpstack.Resource, opts ...Option) *Declaration {
	d := &Declaration{ID: id, Resource: r}
	for _, opt := range opts {
		opt(d)
	}

	if err := s.claim(id); err != nil {
		s.errs = append(s.errs, err)
		return d
	}

	s.decls = append(s.decls, d)
	s.index[id] = d
	return d
}

// AddParameter declares a template parameter and returns a Ref to it.
func (s *Stack) AddParameter(name string, p wpstack.Parameter) intrinsics.Ref {
	if err := s.claim(name); err != nil {
		s.errs = append(s.errs, err)
	} else {
		s.parameters[name] = p
	}
	return intrinsics.Ref{LogicalName: name}
}

// AddOutput declares a template output.
func (s *Stack) AddOutput(name string, o wpstack.Output) {
	if !logicalIDPattern.MatchString(name) {
		s.errs = append(s.errs, fmt.Errorf("%w: output %q", ErrInvalidID, name))
		return
	}
	if _, exists := s.outputs[name]; exists {
		s.errs = append(s.errs, fmt.Errorf("%w: output %q", ErrDuplicateID, name))
		return
	}
	s.outputs[name] = o
}

func (s *Stack) claim(id string) error {
	if !logicalIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if _, exists := s.index[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	if _, exists := s.parameters[id]; exists {
		return fmt.Errorf("%w: %q is already a parameter", ErrDuplicateID, id)
	}
	return nil
}

// Err returns every declaration error recorded so far.
func (s *Stack) Err() error {
	return errors.Join(s.errs...)
}

// Declarations returns the declarations in declaration order.
func (s *Stack) Declarations() []*Declaration {
	return s.decls
}

// Get returns the declaration with the given logical ID.
func (s *Stack) Get(id string) (*Declaration, bool) {
	d, ok := s.index[id]
	return d, ok
}

// Len returns the number of declared resources.
func (s *Stack) Len() int {
	return len(s.decls)
}

// IsParameter reports whether name is a declared template parameter.
func (s *Stack) IsParameter(name string) bool {
	_, ok := s.parameters[name]
	return ok
}

// Parameters returns the declared template parameters.
func (s *Stack) Parameters() map[string]wpstack.Parameter {
	return s.parameters
}

// Outputs returns the declared template outputs.
func (s *Stack) Outputs() map[string]wpstack.Output {
	return s.outputs
}

// OfType returns the declarations of a CloudFormation type, sorted by ID.
func (s *Stack) OfType(resourceType string) []*Declaration {
	var out []*Declaration
	for _, d := range s.decls {
		if d.Type() == resourceType {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
