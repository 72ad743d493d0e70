package graph

import (
	"testing"

	"github.com/n9te9/federation-core/composition"
	"github.com/n9te9/federation-core/schema"
)

func buildTestGraph(t *testing.T) (*QueryGraph, []*schema.Subgraph) {
	t.Helper()

	products, err := schema.ParseSubgraph("products", "", []byte(`
		extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key"])

		type Query {
			product(upc: String!): Product
		}
		type Product @key(fields: "upc") {
			upc: String!
			name: String
		}
	`))
	if err != nil {
		t.Fatal(err)
	}

	shipping, err := schema.ParseSubgraph("shipping", "", []byte(`
		extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key", "@external", "@requires"])

		extend type Product @key(fields: "upc") {
			upc: String! @external
			weight: Int @external
			shippingEstimate: Int @requires(fields: "weight")
		}
	`))
	if err != nil {
		t.Fatal(err)
	}

	subgraphs := []*schema.Subgraph{products, shipping}
	result := composition.Merge(subgraphs)
	if !result.OK() {
		t.Fatalf("composition failed: %v", result.Errors)
	}

	g, err := Build(result.Supergraph, subgraphs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g, subgraphs
}

func TestBuild_NodesPerSubgraphTypePair(t *testing.T) {
	g, _ := buildTestGraph(t)

	for _, want := range []NodeID{
		{Source: "products", TypeName: "Product"},
		{Source: "shipping", TypeName: "Product"},
		{Source: "products", TypeName: "Query"},
	} {
		if g.Node(want) == nil {
			t.Errorf("expected node %+v to exist", want)
		}
	}
}

func TestBuild_KeyResolutionIsACompleteDigraph(t *testing.T) {
	g, _ := buildTestGraph(t)

	from := NodeID{Source: "products", TypeName: "Product"}
	to := NodeID{Source: "shipping", TypeName: "Product"}

	found := false
	for _, e := range g.EdgesFrom(from) {
		if e.Transition.Kind == TransitionKeyResolution && e.Tail == to {
			found = true
			if e.Conditions == nil || e.Conditions.String() != "upc" {
				t.Errorf("KeyResolution edge condition = %v, want field set on upc", e.Conditions)
			}
		}
	}
	if !found {
		t.Fatalf("expected a KeyResolution edge %+v -> %+v", from, to)
	}

	// The digraph is complete: the reverse edge must exist too.
	reverseFound := false
	for _, e := range g.EdgesFrom(to) {
		if e.Transition.Kind == TransitionKeyResolution && e.Tail == from {
			reverseFound = true
		}
	}
	if !reverseFound {
		t.Fatalf("expected a KeyResolution edge %+v -> %+v (complete digraph)", to, from)
	}
}

func TestBuild_FieldCollectionEdgeCarriesRequiresCondition(t *testing.T) {
	g, _ := buildTestGraph(t)

	head := NodeID{Source: "shipping", TypeName: "Product"}
	var edge *Edge
	for _, e := range g.EdgesFrom(head) {
		if e.Transition.Kind == TransitionFieldCollection && e.Transition.FieldName == "shippingEstimate" {
			edge = e
		}
	}
	if edge == nil {
		t.Fatalf("expected a FieldCollection edge for shippingEstimate")
	}
	if edge.Conditions == nil || !edge.Conditions.ReferencesField("weight") {
		t.Errorf("shippingEstimate edge conditions = %v, want a field set referencing weight", edge.Conditions)
	}
}

func TestBuild_RootEdgesEnterEverySubgraphDeclaringQuery(t *testing.T) {
	g, _ := buildTestGraph(t)

	root := g.RootNode(schema.RootQuery)
	if g.Node(root) == nil {
		t.Fatalf("expected federated root node to exist")
	}

	wantTail := NodeID{Source: "products", TypeName: "Query"}
	found := false
	for _, e := range g.EdgesFrom(root) {
		if e.Transition.Kind == TransitionSubgraphEntering && e.Tail == wantTail {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SubgraphEnteringTransition edge from root to %+v", wantTail)
	}
}
