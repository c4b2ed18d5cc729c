package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	wpstack "github.com/wpstack/wpstack"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared resources in creation order",
		Long: `List declares the topology and prints its resources in the order
CloudFormation creates them, with the resources each one depends on.

Examples:
    wpstack list
    wpstack list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			r, err := render(cfg)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listResult(r), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listResult(r *rendered) wpstack.ListResult {
	g := r.builder.Graph()
	order := r.builder.Order()

	result := wpstack.ListResult{
		Resources: make([]wpstack.ListResource, 0, len(order)),
	}
	for i, name := range order {
		result.Resources = append(result.Resources, wpstack.ListResource{
			Order:     i + 1,
			Name:      name,
			Type:      g.Type(name),
			DependsOn: g.Dependencies(name),
		})
	}
	return result
}

func outputListResult(w io.Writer, result wpstack.ListResult, format string) error {
	switch format {
	case "json":
		return printJSON(w, result)

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Resources in creation order (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %3d. %s: %s\n", res.Order, res.Name, res.Type)
			if len(res.DependsOn) > 0 {
				fmt.Fprintf(w, "       after %s\n", strings.Join(res.DependsOn, ", "))
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
