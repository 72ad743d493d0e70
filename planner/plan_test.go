package planner_test

import (
	"strings"
	"testing"

	"github.com/n9te9/federation-core/composition"
	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/federation-core/planner"
	"github.com/n9te9/federation-core/schema"
	"github.com/n9te9/graphql-parser/lexer"
	"github.com/n9te9/graphql-parser/parser"
)

func mustSubgraph(t *testing.T, name, url, sdl string) *schema.Subgraph {
	t.Helper()
	sg, err := schema.ParseSubgraph(name, url, []byte(sdl))
	if err != nil {
		t.Fatalf("ParseSubgraph(%s) error = %v", name, err)
	}
	return sg
}

func mustOperation(t *testing.T, query string) (planner.Operation, error) {
	t.Helper()
	l := lexer.New(query)
	p := parser.New(l)
	doc := p.ParseDocument()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse query: %v", p.Errors())
	}
	return planner.OperationFromDocument(doc, "")
}

func TestPlan_SingleSubgraphQuery(t *testing.T) {
	products := mustSubgraph(t, "products", "http://products", `
		type Query {
			product(upc: String!): Product
		}
		type Product @key(fields: "upc") {
			upc: String!
			name: String
		}
	`)

	result := composition.Merge([]*schema.Subgraph{products})
	if !result.OK() {
		t.Fatalf("composition failed: %v", result.Errors)
	}
	g, err := graph.Build(result.Supergraph, []*schema.Subgraph{products})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	op, err := mustOperation(t, `query { product(upc: "1") { upc name } }`)
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}

	pl := planner.NewPlanner(g, planner.DefaultPlannerConfig())
	plan, err := pl.Plan(op)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	debug := plan.DebugString()
	if !strings.Contains(debug, `Fetch(service: "products")`) {
		t.Errorf("Plan().DebugString() = %q, want a fetch against products", debug)
	}
	if !strings.Contains(debug, "upc") || !strings.Contains(debug, "name") {
		t.Errorf("Plan().DebugString() = %q, want both upc and name selected", debug)
	}
}

func TestPlan_CrossSubgraphEntityResolution(t *testing.T) {
	products := mustSubgraph(t, "products", "http://products", `
		extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key"])

		type Query {
			product(upc: String!): Product
		}
		type Product @key(fields: "upc") {
			upc: String!
			name: String
		}
	`)
	shipping := mustSubgraph(t, "shipping", "http://shipping", `
		extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key", "@external", "@requires"])

		extend type Product @key(fields: "upc") {
			upc: String! @external
			weight: Int @external
			shippingEstimate: Int @requires(fields: "weight")
		}
	`)

	subgraphs := []*schema.Subgraph{products, shipping}
	result := composition.Merge(subgraphs)
	if !result.OK() {
		t.Fatalf("composition failed: %v", result.Errors)
	}
	g, err := graph.Build(result.Supergraph, subgraphs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	op, err := mustOperation(t, `query { product(upc: "1") { upc name shippingEstimate } }`)
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}

	pl := planner.NewPlanner(g, planner.DefaultPlannerConfig())
	plan, err := pl.Plan(op)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	debug := plan.DebugString()
	if !strings.Contains(debug, `Fetch(service: "products")`) {
		t.Errorf("plan does not fetch from products:\n%s", debug)
	}
	if !strings.Contains(debug, `Fetch(service: "shipping")`) {
		t.Errorf("plan does not fetch from shipping for shippingEstimate:\n%s", debug)
	}
}

func TestPlan_PathsLimitIsEnforced(t *testing.T) {
	products := mustSubgraph(t, "products", "http://products", `
		type Query {
			product(upc: String!): Product
		}
		type Product @key(fields: "upc") {
			upc: String!
		}
	`)
	mirrorA := mustSubgraph(t, "mirror-a", "", `
		extend type Product @key(fields: "upc") {
			upc: String! @external
			name: String @shareable
		}
	`)
	mirrorB := mustSubgraph(t, "mirror-b", "", `
		extend type Product @key(fields: "upc") {
			upc: String! @external
			name: String @shareable
		}
	`)

	subgraphs := []*schema.Subgraph{products, mirrorA, mirrorB}
	result := composition.Merge(subgraphs)
	if !result.OK() {
		t.Fatalf("composition failed: %v", result.Errors)
	}
	g, err := graph.Build(result.Supergraph, subgraphs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	op, err := mustOperation(t, `query { product(upc: "1") { upc name } }`)
	if err != nil {
		t.Fatalf("OperationFromDocument() error = %v", err)
	}

	pl := planner.NewPlanner(g, planner.PlannerConfig{MaxEvaluatedPlans: 10000, PathsLimit: 1})
	_, err = pl.Plan(op)
	if err == nil {
		t.Fatalf("expected a paths-limit error when name is reachable only through 2 other subgraphs with PathsLimit=1")
	}
	pe, ok := err.(*planner.PlanningError)
	if !ok {
		t.Fatalf("expected *planner.PlanningError, got %T: %v", err, err)
	}
	if pe.Kind != planner.ErrPathsLimitExceeded {
		t.Errorf("expected ErrPathsLimitExceeded, got %v: %v", pe.Kind, pe)
	}
}

func TestPlanner_ValidateSatisfiability_NoDiagnosticsForWellFormedSupergraph(t *testing.T) {
	products := mustSubgraph(t, "products", "", `
		type Query {
			product(upc: String!): Product
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

	pl := planner.NewPlanner(g, planner.DefaultPlannerConfig())
	diags := pl.ValidateSatisfiability()
	if len(diags) != 0 {
		t.Errorf("ValidateSatisfiability() = %v, want no diagnostics for a single well-formed subgraph", diags)
	}
}
