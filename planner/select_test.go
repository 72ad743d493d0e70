package planner

import "testing"

func TestRun_CostOfPathPenalizesSubgraphJumps(t *testing.T) {
	g, a, _, edge := buildKeyResolutionTestGraph(t)
	store := NewPathStore(g)
	r := &run{store: store}

	local := store.NewRootPath(a, []string{"Product"})
	remote := store.Extend(local, edge, -1)

	localCost := r.costOfPath(local)
	remoteCost := r.costOfPath(remote)
	if remoteCost <= localCost {
		t.Errorf("costOfPath(remote) = %v, want it to exceed costOfPath(local) = %v due to the jump penalty", remoteCost, localCost)
	}
}

func TestRun_CheapestAlternativePicksLowestCost(t *testing.T) {
	g, a, _, edge := buildKeyResolutionTestGraph(t)
	store := NewPathStore(g)
	r := &run{store: store}

	cheap := store.NewRootPath(a, []string{"Product"})
	expensive := store.Extend(cheap, edge, -1)

	alts := []ClosedPath{
		{Paths: SimultaneousPaths{expensive}},
		{Paths: SimultaneousPaths{cheap}},
	}
	best, err := r.cheapestAlternative(alts)
	if err != nil {
		t.Fatalf("cheapestAlternative() error = %v", err)
	}
	if best.Paths[0] != cheap {
		t.Errorf("cheapestAlternative() = %+v, want the path with no subgraph jump", best)
	}
}

func TestRun_ProductOfAlternativesCapsAtMaxPlans(t *testing.T) {
	r := &run{}
	branches := []ClosedBranch{
		{Alternatives: []ClosedPath{{MaxSubgraphJumps: 0}, {MaxSubgraphJumps: 1}}},
		{Alternatives: []ClosedPath{{MaxSubgraphJumps: 0}, {MaxSubgraphJumps: 1}}},
	}

	combos, truncated := r.productOfAlternatives(branches, 2)
	if !truncated {
		t.Errorf("expected productOfAlternatives to report truncation when maxPlans=2 < 2x2 combinations")
	}
	if len(combos) > 2 {
		t.Errorf("productOfAlternatives() returned %d combinations, want at most 2", len(combos))
	}
}

func TestRun_ProductOfAlternativesReturnsNoneWhenABranchIsUnsatisfiable(t *testing.T) {
	r := &run{}
	branches := []ClosedBranch{
		{Alternatives: []ClosedPath{{MaxSubgraphJumps: 0}}},
		{Alternatives: nil},
	}

	combos, truncated := r.productOfAlternatives(branches, 100)
	if combos != nil || truncated {
		t.Errorf("productOfAlternatives() = %v, %v, want nil, false when a branch has no alternatives", combos, truncated)
	}
}

func TestRun_GenerateAllPlansAndFindBestPicksCheapestCombination(t *testing.T) {
	g, a, _, edge := buildKeyResolutionTestGraph(t)
	store := NewPathStore(g)
	r := &run{store: store}

	cheap := store.NewRootPath(a, []string{"Product"})
	expensive := store.Extend(cheap, edge, -1)

	branches := []ClosedBranch{
		{Alternatives: []ClosedPath{
			{Paths: SimultaneousPaths{expensive}},
			{Paths: SimultaneousPaths{cheap}},
		}},
	}

	best, err := r.generateAllPlansAndFindBest(branches, 10)
	if err != nil {
		t.Fatalf("generateAllPlansAndFindBest() error = %v", err)
	}
	if len(best.choice) != 1 || best.choice[0].Paths[0] != cheap {
		t.Errorf("generateAllPlansAndFindBest() chose %+v, want the cheap alternative", best.choice)
	}
}
