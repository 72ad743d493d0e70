package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n9te9/federation-core/composition"
	"github.com/n9te9/federation-core/config"
	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/federation-core/planner"
	"github.com/n9te9/federation-core/schema"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compose a supergraph and run satisfiability validation over it (§7.4)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "fedgraph.yaml", "path to the fedgraph manifest")
	return cmd
}

func runValidate(ctx context.Context, configPath string) error {
	tracer, shutdown := initTracer("fedgraph-validate")
	defer shutdown(ctx)
	_, span := tracer.Start(ctx, "fedgraph.validate")
	defer span.End()

	m, err := config.Load(configPath)
	if err != nil {
		return err
	}

	sdls, err := m.ReadSubgraphSDLs()
	if err != nil {
		return err
	}

	subgraphs := make([]*schema.Subgraph, 0, len(m.Subgraphs))
	for _, entry := range m.Subgraphs {
		sg, err := schema.ParseSubgraph(entry.Name, entry.URL, sdls[entry.Name])
		if err != nil {
			return fmt.Errorf("parse subgraph %s: %w", entry.Name, err)
		}
		subgraphs = append(subgraphs, sg)
	}

	result := composition.Merge(subgraphs)
	if !result.OK() {
		for _, e := range result.Errors {
			fmt.Printf("composition error [%s]: %s\n", e.Code, e.Message)
		}
		return fmt.Errorf("composition failed with %d error(s)", len(result.Errors))
	}

	g, err := graph.Build(result.Supergraph, subgraphs)
	if err != nil {
		return fmt.Errorf("build query graph: %w", err)
	}

	pl := planner.NewPlanner(g, m.Planner.ToPlannerConfig())
	diags := pl.ValidateSatisfiability()
	if len(diags) == 0 {
		fmt.Println("supergraph is satisfiable: no unreachable conditions found")
		return nil
	}

	for _, d := range diags {
		fmt.Println(d.Error())
	}
	return fmt.Errorf("satisfiability validation found %d issue(s)", len(diags))
}
