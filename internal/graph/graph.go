// Package graph derives the resource dependency graph of a stack and orders
// it for creation.
//
// Edges come from explicit DependsOn options and from every Ref, Fn::GetAtt
// and Fn::Sub ${Name} reference found in the serialized resource properties.
package graph

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/wpstack/wpstack/internal/serialize"
	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/intrinsics"
)

var (
	// ErrCycle is returned when the dependency graph is not acyclic.
	ErrCycle = errors.New("circular dependency detected")

	// ErrUnresolvedReference is returned when a reference names no declared
	// resource or parameter.
	ErrUnresolvedReference = errors.New("unresolved reference")
)

// EdgeKind classifies how a dependency was expressed.
type EdgeKind string

const (
	EdgeRef       EdgeKind = "Ref"
	EdgeGetAtt    EdgeKind = "GetAtt"
	EdgeSub       EdgeKind = "Sub"
	EdgeDependsOn EdgeKind = "DependsOn"
)

// Edge points from a dependent resource to the resource or parameter it needs.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is the dependency graph of a stack.
type Graph struct {
	nodes      []string
	types      map[string]string
	properties map[string]map[string]any
	deps       map[string]map[string]EdgeKind
	paramDeps  map[string]map[string]bool
	parameters map[string]bool
}

// FromStack serializes every declaration of s and collects its references.
// A reference to a name that is neither a declared resource, a declared
// parameter nor an AWS:: pseudo-parameter fails with ErrUnresolvedReference.
func FromStack(s *stack.Stack) (*Graph, error) {
	g := &Graph{
		types:      make(map[string]string),
		properties: make(map[string]map[string]any),
		deps:       make(map[string]map[string]EdgeKind),
		paramDeps:  make(map[string]map[string]bool),
		parameters: make(map[string]bool),
	}

	for name := range s.Parameters() {
		g.parameters[name] = true
	}

	for _, d := range s.Declarations() {
		g.nodes = append(g.nodes, d.ID)
		g.types[d.ID] = d.Type()
		g.deps[d.ID] = make(map[string]EdgeKind)
		g.paramDeps[d.ID] = make(map[string]bool)
	}

	var errs []error
	for _, d := range s.Declarations() {
		props, err := serialize.Properties(d.Resource)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", d.ID, err)
		}
		g.properties[d.ID] = props

		for _, dep := range d.DependsOn {
			if _, ok := g.types[dep]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s DependsOn %q", ErrUnresolvedReference, d.ID, dep))
				continue
			}
			g.deps[d.ID][dep] = EdgeDependsOn
		}

		for _, ref := range References(props) {
			if err := g.addReference(d.ID, ref); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for name, out := range s.Outputs() {
		value, err := serialize.Value(out)
		if err != nil {
			return nil, fmt.Errorf("serializing output %s: %w", name, err)
		}
		for _, ref := range References(value) {
			if !g.resolves(ref.Target) {
				errs = append(errs, fmt.Errorf("%w: output %s references %q", ErrUnresolvedReference, name, ref.Target))
			}
		}
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, errors.Join(errs...)
	}
	return g, nil
}

func (g *Graph) addReference(from string, ref Reference) error {
	if intrinsics.IsPseudoParameter(ref.Target) {
		return nil
	}
	if g.parameters[ref.Target] {
		g.paramDeps[from][ref.Target] = true
		return nil
	}
	if _, ok := g.types[ref.Target]; !ok {
		return fmt.Errorf("%w: %s references %q via %s", ErrUnresolvedReference, from, ref.Target, ref.Kind)
	}
	// GetAtt wins over Ref/Sub so that attribute edges are styled as such
	if existing, ok := g.deps[from][ref.Target]; !ok || existing != EdgeGetAtt {
		g.deps[from][ref.Target] = ref.Kind
	}
	return nil
}

func (g *Graph) resolves(name string) bool {
	if intrinsics.IsPseudoParameter(name) || g.parameters[name] {
		return true
	}
	_, ok := g.types[name]
	return ok
}

// Nodes returns the resource IDs in declaration order.
func (g *Graph) Nodes() []string {
	return g.nodes
}

// Type returns the CloudFormation type of a resource.
func (g *Graph) Type(name string) string {
	return g.types[name]
}

// Properties returns the serialized properties of a resource.
func (g *Graph) Properties(name string) map[string]any {
	return g.properties[name]
}

// Dependencies returns the resources name depends on, sorted.
func (g *Graph) Dependencies(name string) []string {
	out := make([]string, 0, len(g.deps[name]))
	for dep := range g.deps[name] {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// ParameterDependencies returns the template parameters name references, sorted.
func (g *Graph) ParameterDependencies(name string) []string {
	out := make([]string, 0, len(g.paramDeps[name]))
	for p := range g.paramDeps[name] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Edges returns every resource-to-resource edge, sorted by (From, To).
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.sortedNodes() {
		for _, to := range g.Dependencies(from) {
			edges = append(edges, Edge{From: from, To: to, Kind: g.deps[from][to]})
		}
	}
	return edges
}

// DependsOnTransitively reports whether from depends on to through any path.
func (g *Graph) DependsOnTransitively(from, to string) bool {
	seen := make(map[string]bool)
	var visit func(string) bool
	visit = func(n string) bool {
		if seen[n] {
			return false
		}
		seen[n] = true
		for dep := range g.deps[n] {
			if dep == to || visit(dep) {
				return true
			}
		}
		return false
	}
	return visit(from)
}

// TopologicalSort returns resources in creation order: every resource comes
// after all of its dependencies. Among resources that are ready at the same
// time the lexically smallest ID comes first, so the order is deterministic.
func (g *Graph) TopologicalSort() ([]string, error) {
	dependents := make(map[string][]string)
	inDegree := make(map[string]int)

	for _, name := range g.nodes {
		inDegree[name] = 0
	}
	for _, name := range g.nodes {
		for dep := range g.deps[name] {
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range dependents[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, g.detectCycle()
	}
	return result, nil
}

// detectCycle finds one cycle and reports its path.
func (g *Graph) detectCycle() error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var stackPath []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		stackPath = append(stackPath, node)

		for _, dep := range g.Dependencies(node) {
			if onPath[dep] {
				for i, n := range stackPath {
					if n == dep {
						cycle = append(append([]string{}, stackPath[i:]...), dep)
						break
					}
				}
				return true
			}
			if !visited[dep] && visit(dep) {
				return true
			}
		}

		onPath[node] = false
		stackPath = stackPath[:len(stackPath)-1]
		return false
	}

	for _, name := range g.sortedNodes() {
		if !visited[name] && visit(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
	}
	return ErrCycle
}

func (g *Graph) sortedNodes() []string {
	out := append([]string(nil), g.nodes...)
	sort.Strings(out)
	return out
}

// Reference is one intrinsic reference found in a property tree.
type Reference struct {
	Target    string
	Attribute string
	Kind      EdgeKind
}

var subVariable = regexp.MustCompile(`\$\{([^}]+)\}`)

// References walks a serialized property tree and returns every Ref,
// Fn::GetAtt and Fn::Sub target in it. Fn::Sub variables bound by the
// substitution map and ${!Literal} escapes are not references.
func References(v any) []Reference {
	var refs []Reference
	collectReferences(v, &refs)
	return refs
}

func collectReferences(v any, refs *[]Reference) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 1 {
			if target, ok := val["Ref"].(string); ok {
				*refs = append(*refs, Reference{Target: target, Kind: EdgeRef})
				return
			}
			if args, ok := val["Fn::GetAtt"]; ok {
				if ref, ok := parseGetAtt(args); ok {
					*refs = append(*refs, ref)
				}
				return
			}
			if args, ok := val["Fn::Sub"]; ok {
				collectSub(args, refs)
				return
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectReferences(val[k], refs)
		}

	case []any:
		for _, elem := range val {
			collectReferences(elem, refs)
		}
	}
}

func parseGetAtt(args any) (Reference, bool) {
	switch a := args.(type) {
	case []any:
		if len(a) != 2 {
			return Reference{}, false
		}
		name, ok := a[0].(string)
		if !ok {
			return Reference{}, false
		}
		attr, _ := a[1].(string)
		return Reference{Target: name, Attribute: attr, Kind: EdgeGetAtt}, true
	case []string:
		if len(a) != 2 {
			return Reference{}, false
		}
		return Reference{Target: a[0], Attribute: a[1], Kind: EdgeGetAtt}, true
	case string:
		name, attr, _ := strings.Cut(a, ".")
		return Reference{Target: name, Attribute: attr, Kind: EdgeGetAtt}, true
	}
	return Reference{}, false
}

func collectSub(args any, refs *[]Reference) {
	var body string
	bound := make(map[string]bool)

	switch a := args.(type) {
	case string:
		body = a
	case []any:
		if len(a) == 0 {
			return
		}
		body, _ = a[0].(string)
		if len(a) > 1 {
			if vars, ok := a[1].(map[string]any); ok {
				for name, value := range vars {
					bound[name] = true
					collectReferences(value, refs)
				}
			}
		}
	}

	for _, m := range subVariable.FindAllStringSubmatch(body, -1) {
		expr := m[1]
		if strings.HasPrefix(expr, "!") {
			continue
		}
		name, attr, hasAttr := strings.Cut(expr, ".")
		if bound[expr] || bound[name] {
			continue
		}
		kind := EdgeSub
		if hasAttr && !intrinsics.IsPseudoParameter(expr) {
			kind = EdgeGetAtt
		} else {
			name, attr = expr, ""
		}
		*refs = append(*refs, Reference{Target: name, Attribute: attr, Kind: kind})
	}
}
