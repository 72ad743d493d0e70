package planner

import (
	"testing"

	"github.com/n9te9/federation-core/composition"
	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/federation-core/schema"
)

func buildKeyResolutionTestGraph(t *testing.T) (*graph.QueryGraph, graph.NodeID, graph.NodeID, *graph.Edge) {
	t.Helper()
	products, err := schema.ParseSubgraph("products", "", []byte(`
		type Query { product(upc: String!): Product }
		type Product @key(fields: "upc") { upc: String! name: String }
	`))
	if err != nil {
		t.Fatal(err)
	}
	shipping, err := schema.ParseSubgraph("shipping", "", []byte(`
		extend type Product @key(fields: "upc") { upc: String! @external weight: Int }
	`))
	if err != nil {
		t.Fatal(err)
	}

	subgraphs := []*schema.Subgraph{products, shipping}
	result := composition.Merge(subgraphs)
	if !result.OK() {
		t.Fatalf("composition failed: %v", result.Errors)
	}
	g, err := graph.Build(result.Supergraph, subgraphs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	a := graph.NodeID{Source: "products", TypeName: "Product"}
	b := graph.NodeID{Source: "shipping", TypeName: "Product"}
	var edge *graph.Edge
	for _, e := range g.EdgesFrom(a) {
		if e.Transition.Kind == graph.TransitionKeyResolution && e.Tail == b {
			edge = e
		}
	}
	if edge == nil {
		t.Fatalf("expected a KeyResolution edge from %+v to %+v", a, b)
	}
	return g, a, b, edge
}

func TestDominates(t *testing.T) {
	tests := []struct {
		name string
		a, b ClosedPath
		want bool
	}{
		{
			name: "fewer jumps dominates",
			a:    ClosedPath{MaxSubgraphJumps: 1, ConditionsAtEveryPosition: []string{"a"}},
			b:    ClosedPath{MaxSubgraphJumps: 2, ConditionsAtEveryPosition: []string{"a"}},
			want: true,
		},
		{
			name: "fewer conditions dominates",
			a:    ClosedPath{MaxSubgraphJumps: 1, ConditionsAtEveryPosition: nil},
			b:    ClosedPath{MaxSubgraphJumps: 1, ConditionsAtEveryPosition: []string{"a"}},
			want: true,
		},
		{
			name: "identical does not dominate",
			a:    ClosedPath{MaxSubgraphJumps: 1, ConditionsAtEveryPosition: []string{"a"}},
			b:    ClosedPath{MaxSubgraphJumps: 1, ConditionsAtEveryPosition: []string{"a"}},
			want: false,
		},
		{
			name: "more jumps never dominates even with fewer conditions",
			a:    ClosedPath{MaxSubgraphJumps: 2, ConditionsAtEveryPosition: nil},
			b:    ClosedPath{MaxSubgraphJumps: 1, ConditionsAtEveryPosition: []string{"a"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dominates(tt.a, tt.b); got != tt.want {
				t.Errorf("Dominates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPruneDominated(t *testing.T) {
	cheap := ClosedPath{MaxSubgraphJumps: 1, ConditionsAtEveryPosition: nil}
	expensive := ClosedPath{MaxSubgraphJumps: 3, ConditionsAtEveryPosition: []string{"a", "b"}}
	incomparable := ClosedPath{MaxSubgraphJumps: 0, ConditionsAtEveryPosition: []string{"a", "b", "c"}}

	got := PruneDominated([]ClosedPath{cheap, expensive, incomparable})
	if len(got) != 2 {
		t.Fatalf("PruneDominated() kept %d alternatives, want 2: %+v", len(got), got)
	}
	for _, kept := range got {
		if kept.MaxSubgraphJumps == expensive.MaxSubgraphJumps && len(kept.ConditionsAtEveryPosition) == len(expensive.ConditionsAtEveryPosition) {
			t.Errorf("PruneDominated() kept the dominated alternative %+v", kept)
		}
	}
}

func TestPathStore_ExtendTracksSubgraphJumpCount(t *testing.T) {
	g, a, b, edge := buildKeyResolutionTestGraph(t)

	store := NewPathStore(g)
	root := store.NewRootPath(a, []string{"Product"})

	next := store.Extend(root, edge, -1)
	got := store.Get(next)
	if got.SubgraphJumpCount != 1 {
		t.Errorf("SubgraphJumpCount = %d, want 1 after crossing subgraphs via KeyResolution", got.SubgraphJumpCount)
	}
	if got.Tail != b {
		t.Errorf("Tail = %+v, want %+v", got.Tail, b)
	}
	if len(got.Steps) != 1 || got.Steps[0].Edge != edge {
		t.Errorf("Steps = %+v, want a single step wrapping the traversed edge", got.Steps)
	}

	orig := store.Get(root)
	if orig.SubgraphJumpCount != 0 {
		t.Errorf("Extend must not mutate the source path in place; original SubgraphJumpCount = %d", orig.SubgraphJumpCount)
	}
}

func TestPathStore_IndirectOptionsIsMemoized(t *testing.T) {
	g, a, b, _ := buildKeyResolutionTestGraph(t)

	store := NewPathStore(g)
	root := store.NewRootPath(a, []string{"Product"})

	first := store.IndirectOptions(root)
	if len(first) != 1 {
		t.Fatalf("IndirectOptions() = %d options, want 1 reachable via the KeyResolution edge", len(first))
	}
	if store.Get(first[0]).Tail != b {
		t.Errorf("IndirectOptions()[0].Tail = %+v, want %+v", store.Get(first[0]).Tail, b)
	}

	second := store.IndirectOptions(root)
	if len(second) != len(first) || second[0] != first[0] {
		t.Errorf("IndirectOptions() is not memoized: first=%v second=%v", first, second)
	}
}
