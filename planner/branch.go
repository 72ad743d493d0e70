package planner

import (
	"sort"

	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// Selection is the planner's normalized view of one selection-set entry: a
// field, or a type condition (inline fragment / fragment spread already
// expanded to its type condition by the caller).
type Selection struct {
	IsTypeCondition bool
	TypeCondition   string
	Field           *ast.Field
	DeferLabel      string
	SubSelections   []Selection
}

// OpenBranch is (options, remaining-selections) — §4.3.1. The planner
// maintains a stack of these; the initial open branch has a single option:
// a path starting at the federated root.
type OpenBranch struct {
	Options   []Option
	Remaining []Selection
}

// run holds the per-call state shared by path generation, condition
// resolution, and plan selection (§4.3.5's state machine operates over
// this).
type run struct {
	planner    *Planner
	store      *PathStore
	triggers   *TriggerStore
	exclusions ExclusionSet
	fetchIDs   *FetchIDGenerator
	budget     *nonLocalBudget
	depth      int
}

// nonLocalBudget tracks the running estimate of §4.3.1 bullet 5: a running
// sum of (field count at tail) * (number of tails), consulted before
// recursing, guarding the locality optimization.
type nonLocalBudget struct {
	limit int
	spent int
}

func (b *nonLocalBudget) consume(n int) bool {
	b.spent += n
	return b.spent <= b.limit
}

// advanceWithOperationElement implements §4.3.1 step 1-3: advance every
// current option across one selection, returning either nil (dead branch),
// an empty-but-non-nil slice (provably yields no result), or the new
// option set.
func (r *run) advanceWithOperationElement(opt Option, sel Selection) ([]Option, error) {
	if sel.IsTypeCondition {
		return r.advanceTypeCondition(opt, sel)
	}
	return r.advanceField(opt, sel)
}

func (r *run) advanceField(opt Option, sel Selection) ([]Option, error) {
	var resultSets [][]PathID
	for _, p := range opt.Paths {
		options, err := r.advanceFieldOnPath(p, sel)
		if err != nil {
			return nil, err
		}
		if options == nil {
			return nil, nil
		}
		resultSets = append(resultSets, options)
	}
	return crossProductOptions(resultSets), nil
}

// advanceFieldOnPath returns the set of tail paths (one per viable
// direct/indirect route) for selecting sel.Field from path p, or nil if the
// field cannot be resolved from p at all.
func (r *run) advanceFieldOnPath(p PathID, sel Selection) ([]PathID, error) {
	path := r.store.Get(p)
	fieldName := sel.Field.Name.String()

	if fieldName == "__typename" {
		return []PathID{p}, nil
	}

	direct := r.graph().FieldEdges(path.Tail, fieldName)
	var out []PathID
	for _, e := range direct {
		if !r.overrideAllows(path, e) {
			continue
		}
		if !r.resolveCondition(p, e).Satisfied {
			continue
		}
		trigger := r.triggers.AddFieldTrigger(sel.Field, sel.DeferLabel)
		out = append(out, r.store.Extend(p, e, trigger))
	}

	leaf := isLeafSelection(sel)
	if len(out) > 0 && leaf {
		return capOptions(out, r.planner.config.PathsLimit)
	}

	for _, indirect := range r.store.IndirectOptions(p) {
		ip := r.store.Get(indirect)
		for _, e := range r.graph().FieldEdges(ip.Tail, fieldName) {
			if !r.overrideAllows(ip, e) {
				continue
			}
			if !r.resolveCondition(indirect, e).Satisfied {
				continue
			}
			trigger := r.triggers.AddFieldTrigger(sel.Field, sel.DeferLabel)
			out = append(out, r.store.Extend(indirect, e, trigger))
		}
	}

	return capOptions(out, r.planner.config.PathsLimit)
}

func capOptions(paths []PathID, limit int) ([]PathID, error) {
	if limit > 0 && len(paths) > limit {
		return nil, pathsLimitExceededError(limit)
	}
	return paths, nil
}

func (r *run) overrideAllows(p *GraphPath, e *graph.Edge) bool {
	if e.Override == nil {
		return true
	}
	if want, ok := p.OverrideLabels[e.Override.Label]; ok {
		return want == e.Override.ExpectedPolarity
	}
	return true
}

func (r *run) graph() *graph.QueryGraph { return r.planner.graph }

// advanceTypeCondition advances every path of the option across a type
// condition: a path whose runtime types cannot match the condition is
// dropped, a path with a Downcast edge for the condition takes it, and any
// other path is kept unchanged. The surviving paths form a single option;
// the option is not split into one simultaneous-paths tuple per concrete
// runtime type.
func (r *run) advanceTypeCondition(opt Option, sel Selection) ([]Option, error) {
	var survivors []PathID
	for _, p := range opt.Paths {
		path := r.store.Get(p)
		if !typeConditionPossible(path.RuntimeTypes, sel.TypeCondition, r.planner.graph) {
			continue
		}
		if e, ok := r.graph().DowncastEdge(path.Tail, sel.TypeCondition); ok {
			trigger := r.triggers.AddTypeConditionTrigger(sel.TypeCondition)
			survivors = append(survivors, r.store.Extend(p, e, trigger))
			continue
		}
		// No Downcast edge realizes the condition from this tail (a
		// same-type condition, an @interfaceObject self-loop absorption —
		// §9 Open Question "Same-type-condition inline fragments under
		// @interfaceObject" — or any other condition the runtime types
		// allow): keep the path unchanged.
		survivors = append(survivors, p)
	}
	if len(survivors) == 0 {
		// Well-typed but provably empty: record a closed path containing
		// only __typename rather than dropping the branch (§4.3.1 step 1).
		return []Option{}, nil
	}
	return []Option{{Paths: survivors}}, nil
}

func typeConditionPossible(runtimeTypes []string, condition string, g *graph.QueryGraph) bool {
	if len(runtimeTypes) == 0 {
		return true
	}
	possible := g.Supergraph.PossibleTypes(condition)
	if len(possible) == 0 {
		possible = []string{condition}
	}
	set := make(map[string]bool, len(possible))
	for _, t := range possible {
		set[t] = true
	}
	for _, t := range runtimeTypes {
		if set[t] || t == condition {
			return true
		}
	}
	return false
}

func isLeafSelection(sel Selection) bool {
	return len(sel.SubSelections) == 0
}

// crossProductOptions combines per-path option sets (one per path in the
// simultaneous-paths tuple) into the full cross product of new options.
func crossProductOptions(sets [][]PathID) []Option {
	if len(sets) == 0 {
		return nil
	}
	combos := [][]PathID{{}}
	for _, set := range sets {
		var next [][]PathID
		for _, combo := range combos {
			for _, p := range set {
				c := append(append([]PathID{}, combo...), p)
				next = append(next, c)
			}
		}
		combos = next
	}
	out := make([]Option, 0, len(combos))
	for _, c := range combos {
		out = append(out, Option{Paths: SimultaneousPaths(c)})
	}
	return out
}

// sortOptionsByJumpCount implements the ordering guarantee of §4.3.1:
// within a branch, options are sorted by ascending subgraph-jump count
// before the cost phase.
func (r *run) sortOptionsByJumpCount(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool {
		return maxJumps(r.store, opts[i]) < maxJumps(r.store, opts[j])
	})
}

func maxJumps(store *PathStore, opt Option) int {
	max := 0
	for _, p := range opt.Paths {
		if j := store.Get(p).SubgraphJumpCount; j > max {
			max = j
		}
	}
	return max
}
