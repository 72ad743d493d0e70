package planner

import (
	"sort"

	"github.com/n9te9/federation-core/graph"
)

// PathID indexes into a PathStore — paths are arena-allocated and
// back-referenced by index, never by pointer cycle (§9).
type PathID int

// Step is one (edge, trigger) pair in a path's history.
type Step struct {
	Edge    *graph.Edge
	Trigger TriggerIndex
}

// Context is the accumulated type-condition and @fromContext state carried
// along a path (§3 "Graph path ... a context").
type Context struct {
	TypeConditions []string
	FromContext    map[string]string
}

func (c Context) clone() Context {
	out := Context{TypeConditions: append([]string(nil), c.TypeConditions...)}
	if c.FromContext != nil {
		out.FromContext = make(map[string]string, len(c.FromContext))
		for k, v := range c.FromContext {
			out.FromContext[k] = v
		}
	}
	return out
}

// GraphPath is an alternating (node, edge, node, ...) sequence (§3). It is
// owned by a PathStore; Tail/RuntimeTypes/Context/etc. are immutable once
// created — advancing a path always creates a new one rather than mutating
// in place, so sibling options sharing a prefix never interfere.
type GraphPath struct {
	store *PathStore

	Tail              graph.NodeID
	RuntimeTypes      []string
	Context           Context
	OverrideLabels    map[string]bool
	SubgraphJumpCount int
	Steps             []Step

	// indirectOptions is the single-assignment memo cell of §9 ("Lazy
	// indirect options on paths"): nil until computed, then fixed for the
	// life of the path.
	indirectOptions    []PathID
	indirectsComputed  bool
}

// PathStore is the arena all GraphPaths of a single planning call live in.
type PathStore struct {
	paths []*GraphPath
	graph *graph.QueryGraph
}

// NewPathStore creates an arena bound to a query graph.
func NewPathStore(g *graph.QueryGraph) *PathStore {
	return &PathStore{graph: g}
}

func (s *PathStore) alloc(p *GraphPath) PathID {
	p.store = s
	s.paths = append(s.paths, p)
	return PathID(len(s.paths) - 1)
}

// Get dereferences a PathID.
func (s *PathStore) Get(id PathID) *GraphPath { return s.paths[id] }

// NewRootPath creates the initial path: a single option starting at the
// federated root node.
func (s *PathStore) NewRootPath(root graph.NodeID, runtimeTypes []string) PathID {
	return s.alloc(&GraphPath{
		Tail:         root,
		RuntimeTypes: runtimeTypes,
	})
}

// Extend returns a new path formed by taking edge e (with the given
// trigger) from p. The runtime-type set narrows for Downcast/
// InterfaceObjectFakeDownCast transitions and is otherwise preserved.
func (s *PathStore) Extend(p PathID, e *graph.Edge, trigger TriggerIndex) PathID {
	src := s.Get(p)
	next := &GraphPath{
		Tail:              e.Tail,
		RuntimeTypes:      nextRuntimeTypes(src.RuntimeTypes, e),
		Context:           src.Context.clone(),
		OverrideLabels:    cloneLabels(src.OverrideLabels),
		SubgraphJumpCount: src.SubgraphJumpCount,
		Steps:             append(append([]Step{}, src.Steps...), Step{Edge: e, Trigger: trigger}),
	}
	if e.Transition.Kind == graph.TransitionKeyResolution && e.Source != src.Tail.Source {
		next.SubgraphJumpCount++
	}
	if e.Override != nil {
		if next.OverrideLabels == nil {
			next.OverrideLabels = make(map[string]bool)
		}
		next.OverrideLabels[e.Override.Label] = e.Override.ExpectedPolarity
	}
	if e.Transition.Kind == graph.TransitionDowncast {
		next.RuntimeTypes = []string{e.Transition.ToType}
	}
	return s.alloc(next)
}

func cloneLabels(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func nextRuntimeTypes(cur []string, e *graph.Edge) []string {
	if e.Transition.Kind == graph.TransitionDowncast || e.Transition.Kind == graph.TransitionInterfaceObjectFakeDownCast {
		return []string{e.Transition.ToType}
	}
	return cur
}

// IndirectOptions computes (once, memoized) the paths obtainable by
// following zero or more non-collecting, type-preserving transitions
// (key/root resolutions) to reach equivalent tail nodes in other subgraphs
// (§3 "Indirect options"). Computation is pure and deterministic, so no
// locking is required within a single planning call (§9).
func (s *PathStore) IndirectOptions(id PathID) []PathID {
	p := s.Get(id)
	if p.indirectsComputed {
		return p.indirectOptions
	}

	var out []PathID
	visited := map[graph.NodeID]bool{p.Tail: true}
	queue := []PathID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curPath := s.Get(cur)
		for _, e := range s.graph.EdgesFrom(curPath.Tail) {
			if !e.IsTypePreserving() || visited[e.Tail] {
				continue
			}
			visited[e.Tail] = true
			next := s.Extend(cur, e, -1)
			out = append(out, next)
			queue = append(queue, next)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := s.Get(out[i]), s.Get(out[j])
		if a.SubgraphJumpCount != b.SubgraphJumpCount {
			return a.SubgraphJumpCount < b.SubgraphJumpCount
		}
		return a.Tail.String() < b.Tail.String()
	})

	p.indirectOptions = out
	p.indirectsComputed = true
	return out
}

// SimultaneousPaths is a tuple of graph paths representing the state after
// type-exploding an abstract type (§3).
type SimultaneousPaths []PathID

// Option is one element of an open branch: simultaneous paths plus their
// (lazily computed) indirect options.
type Option struct {
	Paths SimultaneousPaths
}

// ClosedPath is one fully-resolved alternative for a closed branch (§3
// "Closed branch").
type ClosedPath struct {
	Paths             SimultaneousPaths
	MaxSubgraphJumps   int
	ConditionsAtEveryPosition []string
}

// ClosedBranch is the vector of ClosedPath alternatives still under
// consideration for one top-level selection, after the planner prunes
// strictly-dominated alternatives.
type ClosedBranch struct {
	Alternatives []ClosedPath
}

// Dominates reports whether a strictly dominates b: no more subgraph jumps
// and no more conditions at every position, strictly better in at least one
// (§3, §8 property 7).
func Dominates(a, b ClosedPath) bool {
	if a.MaxSubgraphJumps > b.MaxSubgraphJumps {
		return false
	}
	if len(a.ConditionsAtEveryPosition) > len(b.ConditionsAtEveryPosition) {
		return false
	}
	return a.MaxSubgraphJumps < b.MaxSubgraphJumps || len(a.ConditionsAtEveryPosition) < len(b.ConditionsAtEveryPosition)
}

// PruneDominated drops every alternative strictly dominated by another,
// preserving the order of survivors.
func PruneDominated(alts []ClosedPath) []ClosedPath {
	keep := make([]bool, len(alts))
	for i := range alts {
		keep[i] = true
	}
	for i := range alts {
		if !keep[i] {
			continue
		}
		for j := range alts {
			if i == j || !keep[j] {
				continue
			}
			if Dominates(alts[j], alts[i]) {
				keep[i] = false
				break
			}
		}
	}
	var out []ClosedPath
	for i, k := range keep {
		if k {
			out = append(out, alts[i])
		}
	}
	return out
}
