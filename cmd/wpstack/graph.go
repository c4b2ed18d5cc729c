package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wpstack/wpstack/internal/graph"
)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var (
		outputFormat      string
		includeParameters bool
		clusterByService  bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

The output can be rendered with Graphviz:
    wpstack graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    wpstack graph -f mermaid

Examples:
    wpstack graph
    wpstack graph -p              # include parameters
    wpstack graph -c              # cluster by service
    wpstack graph -f mermaid      # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, opts, outputFormat, includeParameters, clusterByService)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByService, "cluster", "c", false, "Cluster resources by AWS service")

	return cmd
}

func runGraph(cmd *cobra.Command, opts *rootOptions, format string, includeParams, cluster bool) error {
	var graphFormat graph.Format
	switch format {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", format)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	r, err := render(cfg)
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:            graphFormat,
		IncludeParameters: includeParams,
		ClusterByService:  cluster,
	}
	return gen.Generate(r.builder.Graph(), cmd.OutOrStdout())
}
