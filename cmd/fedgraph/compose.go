package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/n9te9/federation-core/composition"
	"github.com/n9te9/federation-core/config"
	"github.com/n9te9/federation-core/schema"
)

func newComposeCmd() *cobra.Command {
	var configPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Merge a set of subgraph schemas into a supergraph SDL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd.Context(), configPath, outPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "fedgraph.yaml", "path to the fedgraph manifest")
	cmd.Flags().StringVarP(&outPath, "out", "o", "supergraph.graphql", "path to write the composed supergraph SDL")
	return cmd
}

func runCompose(ctx context.Context, configPath, outPath string) error {
	m, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tracer, shutdown := initTracer(m.ServiceName)
	defer shutdown(ctx)
	_, span := tracer.Start(ctx, "fedgraph.compose")
	defer span.End()

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
	for _, hint := range result.Hints {
		slog.Warn("composition hint", "hint", hint.String())
	}
	if !result.OK() {
		for _, e := range result.Errors {
			slog.Error("composition error", "code", e.Code, "message", e.Message)
		}
		return fmt.Errorf("composition failed with %d error(s)", len(result.Errors))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(result.Supergraph.Schema.String()); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	slog.Info("composed supergraph", "subgraphs", len(subgraphs), "out", outPath)
	return nil
}
