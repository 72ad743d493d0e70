package planner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/n9te9/federation-core/composition"
	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/federation-core/planner"
	"github.com/n9te9/federation-core/schema"
)

func TestOrchestrator_PlanAllPreservesInputOrder(t *testing.T) {
	products := mustSubgraph(t, "products", "", `
		type Query {
			product(upc: String!): Product
			allProducts: [Product]
		}
		type Product @key(fields: "upc") {
			upc: String!
			name: String
		}
	`)

	subgraphs := []*schema.Subgraph{products}
	result := composition.Merge(subgraphs)
	if !result.OK() {
		t.Fatalf("composition failed: %v", result.Errors)
	}
	g, err := graph.Build(result.Supergraph, subgraphs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	opA, err := mustOperation(t, `query { product(upc: "1") { upc } }`)
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}
	opB, err := mustOperation(t, `query { allProducts { name } }`)
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}

	pl := planner.NewPlanner(g, planner.PlannerConfig{MaxEvaluatedPlans: 100, ExperimentalParallelism: 4})
	orch := planner.NewOrchestrator(pl)

	results, err := orch.PlanAll(context.Background(), []planner.Operation{opA, opB})
	if err != nil {
		t.Fatalf("PlanAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("PlanAll() returned %d results, want 2", len(results))
	}
	if results[0].Err != nil || !strings.Contains(results[0].Plan.DebugString(), "upc") {
		t.Errorf("results[0] = %+v, want a plan selecting upc", results[0])
	}
	if results[1].Err != nil || !strings.Contains(results[1].Plan.DebugString(), "name") {
		t.Errorf("results[1] = %+v, want a plan selecting name", results[1])
	}
}
