package planner

import (
	"testing"

	"github.com/n9te9/federation-core/graph"
)

func TestConditionCache_LookupMissThenHit(t *testing.T) {
	c := NewConditionCache(16)
	ctx := Context{TypeConditions: []string{"Product"}}
	excl := ExclusionSet{Destinations: map[graph.NodeID]bool{}, Conditions: map[int]bool{}}

	if _, ok := c.Lookup(1, ctx, excl); ok {
		t.Fatalf("expected a miss on an empty cache")
	}

	want := ConditionResult{Satisfied: true, Cost: 3.5}
	c.Store(1, ctx, excl, want)

	got, ok := c.Lookup(1, ctx, excl)
	if !ok {
		t.Fatalf("expected a hit after Store")
	}
	if got.Satisfied != want.Satisfied || got.Cost != want.Cost {
		t.Errorf("Lookup() = %+v, want %+v", got, want)
	}
}

func TestConditionCache_DistinguishesEdgeAndExclusionSet(t *testing.T) {
	c := NewConditionCache(16)
	ctx := Context{}
	n := graph.NodeID{Source: "shipping", TypeName: "Product"}

	base := ExclusionSet{Destinations: map[graph.NodeID]bool{}, Conditions: map[int]bool{}}
	withDest := base.withDestination(n)

	c.Store(1, ctx, base, ConditionResult{Satisfied: true})
	c.Store(1, ctx, withDest, ConditionResult{Satisfied: false})

	gotBase, ok := c.Lookup(1, ctx, base)
	if !ok || !gotBase.Satisfied {
		t.Errorf("Lookup(base) = %+v, ok=%v, want Satisfied=true", gotBase, ok)
	}
	gotWithDest, ok := c.Lookup(1, ctx, withDest)
	if !ok || gotWithDest.Satisfied {
		t.Errorf("Lookup(withDestination) = %+v, ok=%v, want Satisfied=false", gotWithDest, ok)
	}

	if _, ok := c.Lookup(2, ctx, base); ok {
		t.Errorf("expected a miss for a different edge ID")
	}
}

func TestExclusionSet_WithDestinationAndWithConditionAreImmutable(t *testing.T) {
	n1 := graph.NodeID{Source: "a", TypeName: "T"}
	n2 := graph.NodeID{Source: "b", TypeName: "T"}

	base := ExclusionSet{Destinations: map[graph.NodeID]bool{n1: true}, Conditions: map[int]bool{5: true}}
	withDest := base.withDestination(n2)

	if base.Destinations[n2] {
		t.Errorf("withDestination mutated the original set's Destinations")
	}
	if !withDest.Destinations[n1] || !withDest.Destinations[n2] {
		t.Errorf("withDestination() = %+v, want both n1 and n2 present", withDest.Destinations)
	}

	withCond := base.withCondition(7)
	if base.Conditions[7] {
		t.Errorf("withCondition mutated the original set's Conditions")
	}
	if !withCond.Conditions[5] || !withCond.Conditions[7] {
		t.Errorf("withCondition() = %+v, want both 5 and 7 present", withCond.Conditions)
	}
}
