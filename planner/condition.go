package planner

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/federation-core/schema"
	"github.com/n9te9/graphql-parser/ast"
)

// ConditionResult is either Satisfied (with its cost and path tree) or
// Unsatisfied (with a lazily-formatted reason) — §3 "Condition resolution
// cache".
type ConditionResult struct {
	Satisfied bool
	Cost      float64
	PathTree  PathID
	HasTree   bool
	Reason    UnsatisfiedReason
	detail    unadvanceable
}

// Detail formats the human-readable reason, paying the formatting cost only
// when actually consulted (§7 "Satisfiability diagnostics are produced
// lazily via closures").
func (r ConditionResult) Detail() string {
	if r.detail.format == nil {
		return r.Reason.String()
	}
	return r.detail.message()
}

// conditionCacheKey is the tuple of §3: (edge, context fingerprint,
// excluded-destinations, excluded-conditions).
type conditionCacheKey struct {
	edgeID      int
	fingerprint uint64
}

// ExclusionSet tracks edges/conditions already consumed above a point in
// the recursion, preventing cycles and unbounded recursion on mutually
// requiring fields (§4.3.2).
type ExclusionSet struct {
	Destinations map[graph.NodeID]bool
	Conditions   map[int]bool // edge IDs whose condition is under evaluation
}

func (e ExclusionSet) withDestination(n graph.NodeID) ExclusionSet {
	out := ExclusionSet{Destinations: make(map[graph.NodeID]bool, len(e.Destinations)+1), Conditions: e.Conditions}
	for k := range e.Destinations {
		out.Destinations[k] = true
	}
	out.Destinations[n] = true
	return out
}

func (e ExclusionSet) withCondition(edgeID int) ExclusionSet {
	out := ExclusionSet{Destinations: e.Destinations, Conditions: make(map[int]bool, len(e.Conditions)+1)}
	for k := range e.Conditions {
		out.Conditions[k] = true
	}
	out.Conditions[edgeID] = true
	return out
}

// ConditionCache is owned by the top-level planner and threaded through
// recursive sub-planners as a single mutable reference (§5). It is an LRU
// (bounding memory for pathological operations, per SPEC_FULL.md's
// ambient-stack notes) keyed by a cheap xxhash fingerprint of the exclusion
// sets and context rather than string concatenation.
type ConditionCache struct {
	cache *lru.Cache[conditionCacheKey, ConditionResult]
}

// NewConditionCache builds a cache bounded to size entries.
func NewConditionCache(size int) *ConditionCache {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[conditionCacheKey, ConditionResult](size)
	return &ConditionCache{cache: c}
}

func fingerprint(ctx Context, excl ExclusionSet) uint64 {
	h := xxhash.New()
	writeSorted(h, ctx.TypeConditions)
	keys := make([]string, 0, len(ctx.FromContext))
	for k := range ctx.FromContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.WriteString(k)
		h.WriteString("=")
		h.WriteString(ctx.FromContext[k])
		h.WriteString(";")
	}
	dests := make([]string, 0, len(excl.Destinations))
	for d := range excl.Destinations {
		dests = append(dests, d.String())
	}
	writeSorted(h, dests)
	conds := make([]int, 0, len(excl.Conditions))
	for c := range excl.Conditions {
		conds = append(conds, c)
	}
	sort.Ints(conds)
	for _, c := range conds {
		h.WriteString(strconv.Itoa(c))
		h.WriteString(",")
	}
	return h.Sum64()
}

func writeSorted(h *xxhash.Digest, vals []string) {
	sorted := append([]string(nil), vals...)
	sort.Strings(sorted)
	h.WriteString(strings.Join(sorted, "|"))
	h.WriteString(";")
}

// Lookup consults the cache; ok is false on a miss.
func (c *ConditionCache) Lookup(edgeID int, ctx Context, excl ExclusionSet) (ConditionResult, bool) {
	key := conditionCacheKey{edgeID: edgeID, fingerprint: fingerprint(ctx, excl)}
	return c.cache.Get(key)
}

// Store records a resolution result, keyed identically to Lookup (§8
// property 6: identical arguments must produce identical cached results).
func (c *ConditionCache) Store(edgeID int, ctx Context, excl ExclusionSet, result ConditionResult) {
	key := conditionCacheKey{edgeID: edgeID, fingerprint: fingerprint(ctx, excl)}
	c.cache.Add(key, result)
}

// resolveCondition implements §4.3.2: before an edge carrying a @requires or
// @key condition is taken, the planner recursively invokes itself to plan
// that condition's selection set under restricted parameters — the edge's
// destination and the edge itself are excluded, preventing a field from
// satisfying its own @requires cycle. Results are cached by
// (edge, context fingerprint, exclusion set) since the same condition is
// re-asked for every sibling path that reaches the same edge.
func (r *run) resolveCondition(p PathID, e *graph.Edge) ConditionResult {
	if e.Conditions == nil || e.Conditions.IsEmpty() {
		return ConditionResult{Satisfied: true}
	}

	if r.exclusions.Conditions[e.ID] {
		return ConditionResult{
			Satisfied: false,
			Reason:    ReasonOther,
			detail:    unadvanceable{format: func() string { return "condition on edge already in progress (cycle)" }},
		}
	}

	path := r.store.Get(p)
	excl := r.exclusions.withDestination(e.Tail).withCondition(e.ID)

	if cached, ok := r.planner.conditions.Lookup(e.ID, path.Context, excl); ok {
		return cached
	}

	sels, err := conditionSelections(e.Conditions)
	if err != nil {
		result := ConditionResult{
			Satisfied: false,
			Reason:    ReasonOther,
			detail:    unadvanceable{format: func() string { return "condition selection set: " + err.Error() }},
		}
		r.planner.conditions.Store(e.ID, path.Context, excl, result)
		return result
	}

	sub := &run{
		planner:    r.planner,
		store:      r.store,
		triggers:   r.triggers,
		exclusions: excl,
		fetchIDs:   r.fetchIDs,
		budget:     r.budget,
		depth:      r.depth + 1,
	}

	result := sub.evaluateConditionSelections(p, sels)
	r.planner.conditions.Store(e.ID, path.Context, excl, result)
	return result
}

// evaluateConditionSelections re-enters the same machinery Plan uses
// (closeSelections/selectPlans) to determine whether sels is resolvable from
// p, and at what cost, under the restricted exclusions already installed on
// the receiver.
func (r *run) evaluateConditionSelections(p PathID, sels []Selection) ConditionResult {
	opt := Option{Paths: SimultaneousPaths{p}}
	branches, err := r.closeSelections(opt, sels)
	if err != nil {
		return ConditionResult{
			Satisfied: false,
			Reason:    ReasonNoPostRequireKey,
			detail:    unadvanceable{format: func() string { return err.Error() }},
		}
	}
	for _, b := range branches {
		if len(b.Alternatives) == 0 {
			return ConditionResult{
				Satisfied: false,
				Reason:    ReasonNoPostRequireKey,
				detail:    unadvanceable{format: func() string { return "no viable path resolves the condition's selection set" }},
			}
		}
	}

	chosen, err := r.selectPlans(branches)
	if err != nil || len(chosen) == 0 {
		return ConditionResult{Satisfied: false, Reason: ReasonNoSetContext}
	}

	var cost float64
	var tree PathID
	hasTree := false
	for _, alt := range chosen {
		cost += r.costOf(alt)
		if !hasTree && len(alt.Paths) > 0 {
			tree = alt.Paths[0]
			hasTree = true
		}
	}

	return ConditionResult{Satisfied: true, Cost: cost, PathTree: tree, HasTree: hasTree}
}

// conditionSelections converts a schema-level @requires/@key field set into
// the planner's own Selection tree by reusing the same expansion
// expandSelections applies to an operation's selection set. Field sets never
// contain fragment spreads (schema.ParseFieldSet wraps them in a bare inline
// fragment), so empty fragment/in-progress maps are always sufficient.
func conditionSelections(fs *schema.FieldSet) ([]Selection, error) {
	return expandSelections(fs.Selections, map[string]*ast.FragmentDefinition{}, map[string]bool{})
}
