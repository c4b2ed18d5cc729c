package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator renders a dependency graph.
type Generator struct {
	// IncludeParameters includes template parameter nodes in the graph.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByService groups resources by AWS service.
	ClusterByService bool
}

// Generate renders g and writes it to w.
func (gen *Generator) Generate(g *Graph, w io.Writer) error {
	graph := gen.buildGraph(g)

	format := gen.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (gen *Generator) GenerateString(g *Graph) (string, error) {
	var sb strings.Builder
	if err := gen.Generate(g, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (gen *Generator) buildGraph(g *Graph) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	var nodes map[string]dot.Node
	if gen.ClusterByService {
		nodes = gen.addClusteredNodes(graph, g)
	} else {
		nodes = make(map[string]dot.Node, len(g.nodes))
		for _, name := range g.sortedNodes() {
			nodes[name] = graph.Node(name).Label(nodeLabel(name, g.Type(name)))
		}
	}

	if gen.IncludeParameters {
		params := make([]string, 0, len(g.parameters))
		for name := range g.parameters {
			params = append(params, name)
		}
		sort.Strings(params)
		for _, name := range params {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			n.Label(name)
			nodes[name] = n
		}
	}

	// Edges attach to the recorded nodes; the root graph does not find
	// nodes that live in a cluster subgraph.
	for _, edge := range g.Edges() {
		e := graph.Edge(nodes[edge.From], nodes[edge.To])
		switch edge.Kind {
		case EdgeGetAtt:
			e.Attr("color", "blue")
		case EdgeDependsOn:
			e.Attr("style", "dashed")
		}
	}

	if gen.IncludeParameters {
		for _, name := range g.sortedNodes() {
			for _, p := range g.ParameterDependencies(name) {
				e := graph.Edge(nodes[name], nodes[p])
				e.Attr("style", "dotted")
			}
		}
	}

	return graph
}

// addClusteredNodes adds resource nodes grouped by AWS service and returns
// them by resource name. Clusters are labelled with the service name.
func (gen *Generator) addClusteredNodes(graph *dot.Graph, g *Graph) map[string]dot.Node {
	byService := make(map[string][]string)
	for _, name := range g.sortedNodes() {
		service := Service(g.Type(name))
		byService[service] = append(byService[service], name)
	}

	services := make([]string, 0, len(byService))
	for s := range byService {
		services = append(services, s)
	}
	sort.Strings(services)

	nodes := make(map[string]dot.Node, len(g.nodes))
	for _, service := range services {
		names := byService[service]
		if len(names) == 1 {
			nodes[names[0]] = graph.Node(names[0]).Label(nodeLabel(names[0], g.Type(names[0])))
			continue
		}
		cluster := graph.Subgraph(service, dot.ClusterOption{})
		cluster.Attr("label", service)
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", "lightyellow")
		for _, name := range names {
			nodes[name] = cluster.Node(name).Label(nodeLabel(name, g.Type(name)))
		}
	}
	return nodes
}

func nodeLabel(name, cfType string) string {
	return name + "\\n[" + cfType + "]"
}

// Service extracts the service segment of a CloudFormation type.
// e.g., "AWS::EC2::VPC" -> "EC2"
func Service(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}
