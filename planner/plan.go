package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/federation-core/schema"
)

// PlannerConfig holds the tunables of §5/§6: MaxEvaluatedPlans bounds the
// Cartesian product walked during plan selection, PathsLimit (0 = no limit)
// aborts path generation early on pathological fan-out, and
// ExperimentalParallelism controls the orchestrator's concurrency cap
// (a value of 0 or less runs planning calls sequentially; there is no
// automatic, GOMAXPROCS-based setting).
type PlannerConfig struct {
	MaxEvaluatedPlans       int
	PathsLimit              int
	TypeConditionedFetching bool
	ExperimentalParallelism int
}

// DefaultPlannerConfig mirrors the documented defaults of §6.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{MaxEvaluatedPlans: 10000}
}

// Planner is a single query-graph-bound planning facility. One Planner may
// serve many concurrent Plan calls: the condition cache is shared and safe
// for concurrent use, while every other piece of mutable state (PathStore,
// TriggerStore, FetchIDGenerator) is allocated fresh per call (§5 "no
// shared mutable state between concurrent planners").
type Planner struct {
	graph      *graph.QueryGraph
	config     PlannerConfig
	conditions *ConditionCache
}

// NewPlanner binds a planner to a built query graph.
func NewPlanner(g *graph.QueryGraph, config PlannerConfig) *Planner {
	if config.MaxEvaluatedPlans <= 0 {
		config.MaxEvaluatedPlans = 10000
	}
	return &Planner{graph: g, config: config, conditions: NewConditionCache(0)}
}

// Operation is the planner-facing view of a client operation: a root kind
// plus a normalized selection tree (§6 "External interface: Plan").
type Operation struct {
	RootKind   schema.RootKind
	Selections []Selection
}

// PlanNode is the tagged union of §6's QueryPlan node kinds.
type PlanNodeKind int

const (
	NodeFetch PlanNodeKind = iota
	NodeSequence
	NodeParallel
	NodeFlatten
	NodeDefer
	NodeCondition
	NodeSubscription
	NodeEmpty
)

// QueryPlan is the root of a planning result: always one of Sequence,
// Parallel, Fetch, Flatten, Defer, Condition, Subscription, or Empty (§3
// "Query plan").
type QueryPlan struct {
	Kind PlanNodeKind

	// Fetch
	FetchGroup *FetchGroup

	// Sequence / Parallel
	Children []*QueryPlan

	// Flatten
	Path  []string
	Inner *QueryPlan

	// Defer
	Primary  *QueryPlan
	Deferred []DeferredBlock

	// Condition
	ConditionVariable string
	IfClause          *QueryPlan
	ElseClause        *QueryPlan

	// Subscription
	SubscriptionPrimary *QueryPlan
	SubscriptionRest    *QueryPlan
}

// DeferredBlock is one labelled block of a Defer node.
type DeferredBlock struct {
	Label        string
	Path         []string
	SubSelection []Selection
	Node         *QueryPlan
}

// Plan implements the §4.3.5 state machine end to end: Initial ->
// Advancing -> (AwaitingCondition)* -> Closing -> PlanSelection -> Done |
// Failed. It allocates all per-call arenas (PathStore, TriggerStore,
// FetchIDGenerator) fresh, so concurrent calls on the same Planner never
// share mutable state beyond the condition cache.
func (pl *Planner) Plan(op Operation) (*QueryPlan, error) {
	root, ok := pl.rootNode(op.RootKind)
	if !ok {
		return nil, noPlanFoundError(fmt.Sprintf("no %s root available in the federated query graph", rootKindLabel(op.RootKind)))
	}

	r := &run{
		planner:  pl,
		store:    NewPathStore(pl.graph),
		triggers: &TriggerStore{},
		fetchIDs: &FetchIDGenerator{},
		budget:   &nonLocalBudget{limit: nonLocalBudgetDefault},
	}

	initial := Option{Paths: SimultaneousPaths{r.store.NewRootPath(root, nil)}}
	branches, err := r.closeSelections(initial, op.Selections)
	if err != nil {
		return nil, err
	}

	alternatives, err := r.selectPlans(branches)
	if err != nil {
		return nil, err
	}
	if len(alternatives) == 0 {
		return nil, noPlanFoundError("every top-level selection branch is unsatisfiable")
	}

	best := alternatives[0]
	fdg := NewFetchDependencyGraph(r.fetchIDs)
	if err := r.materializeFetchGraph(fdg, best, op.Selections); err != nil {
		return nil, err
	}

	return buildQueryPlanTree(fdg, op.RootKind), nil
}

const nonLocalBudgetDefault = 100000

func (pl *Planner) rootNode(kind schema.RootKind) (graph.NodeID, bool) {
	n := pl.graph.RootNode(kind)
	if pl.graph.Node(n) == nil {
		return graph.NodeID{}, false
	}
	return n, true
}

func rootKindLabel(kind schema.RootKind) string {
	switch kind {
	case schema.RootMutation:
		return "mutation"
	case schema.RootSubscription:
		return "subscription"
	default:
		return "query"
	}
}

// closeSelections recursively advances opt across sel (§4.3.1), returning
// one ClosedBranch alternative set per top-level selection. Sub-selections
// recurse structurally; the nonLocalBudget check happens before descending
// into a field's own sub-selections, matching the "consult before
// recursing" rule of §4.3.1 bullet 5.
func (r *run) closeSelections(opt Option, sels []Selection) ([]ClosedBranch, error) {
	var branches []ClosedBranch
	for _, sel := range sels {
		branch, err := r.closeOneSelection(opt, sel)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return branches, nil
}

func (r *run) closeOneSelection(opt Option, sel Selection) (ClosedBranch, error) {
	if !r.budget.consume(estimateWidth(opt)) {
		return ClosedBranch{}, nonLocalSelectionsExceededError(r.budget.limit)
	}

	options, err := r.advanceWithOperationElement(opt, sel)
	if err != nil {
		return ClosedBranch{}, err
	}

	var alternatives []ClosedPath
	for _, o := range options {
		if len(sel.SubSelections) > 0 {
			childBranches, err := r.closeSelections(o, sel.SubSelections)
			if err != nil {
				return ClosedBranch{}, err
			}
			alternatives = append(alternatives, crossProductClosedPaths(childBranches)...)
			continue
		}
		alternatives = append(alternatives, closedPathFrom(r.store, o))
	}

	r.sortOptionsByJumpCountClosed(alternatives)
	return ClosedBranch{Alternatives: PruneDominated(alternatives)}, nil
}

// crossProductClosedPaths combines the per-sibling ClosedBranch alternatives
// of a selection's sub-selections into the cross product: one combined
// ClosedPath per combination of one alternative chosen per sibling, carrying
// every sibling's resolved paths together. Siblings (e.g. "upc" and "name"
// under the same parent selection) must all appear in the final plan, so
// they are never mutually-exclusive alternatives of each other.
func crossProductClosedPaths(branches []ClosedBranch) []ClosedPath {
	if len(branches) == 0 {
		return nil
	}
	combos := []ClosedPath{{}}
	for _, b := range branches {
		var next []ClosedPath
		for _, combo := range combos {
			for _, alt := range b.Alternatives {
				next = append(next, mergeClosedPaths(combo, alt))
			}
		}
		combos = next
	}
	return combos
}

func mergeClosedPaths(a, b ClosedPath) ClosedPath {
	return ClosedPath{
		Paths:                     append(append(SimultaneousPaths{}, a.Paths...), b.Paths...),
		MaxSubgraphJumps:          maxInt(a.MaxSubgraphJumps, b.MaxSubgraphJumps),
		ConditionsAtEveryPosition: append(append([]string{}, a.ConditionsAtEveryPosition...), b.ConditionsAtEveryPosition...),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (r *run) sortOptionsByJumpCountClosed(alts []ClosedPath) {
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].MaxSubgraphJumps < alts[j].MaxSubgraphJumps })
}

func estimateWidth(opt Option) int {
	return len(opt.Paths)
}

func closedPathFrom(store *PathStore, opt Option) ClosedPath {
	max := 0
	var conditions []string
	for _, p := range opt.Paths {
		path := store.Get(p)
		if path.SubgraphJumpCount > max {
			max = path.SubgraphJumpCount
		}
		conditions = append(conditions, path.Context.TypeConditions...)
	}
	return ClosedPath{Paths: opt.Paths, MaxSubgraphJumps: max, ConditionsAtEveryPosition: conditions}
}

// selectPlans reduces the full set of per-branch alternatives to one chosen
// ClosedPath per branch via the cost phase (planner/select.go): the
// Cartesian product of alternatives is enumerated exhaustively when it fits
// under MaxEvaluatedPlans, and falls back to picking each branch's
// cheapest alternative independently once the product would exceed it
// (§4.3.3's bound).
func (r *run) selectPlans(branches []ClosedBranch) ([]ClosedPath, error) {
	for _, b := range branches {
		if len(b.Alternatives) == 0 {
			return nil, nil
		}
	}

	if estimatedCombinations(branches) <= int64(r.planner.config.MaxEvaluatedPlans) {
		combo, err := r.generateAllPlansAndFindBest(branches, r.planner.config.MaxEvaluatedPlans)
		if err != nil {
			return nil, err
		}
		return combo.choice, nil
	}

	chosen := make([]ClosedPath, 0, len(branches))
	for _, b := range branches {
		best, err := r.cheapestAlternative(b.Alternatives)
		if err != nil {
			return nil, err
		}
		chosen = append(chosen, best)
	}
	return chosen, nil
}

func estimatedCombinations(branches []ClosedBranch) int64 {
	var total int64 = 1
	for _, b := range branches {
		total *= int64(len(b.Alternatives))
		if total > 1<<30 {
			return total
		}
	}
	return total
}

// materializeFetchGraph rebuilds the fetch-dependency graph for the chosen
// alternative of each top-level selection (§4.3.4).
func (r *run) materializeFetchGraph(fdg *FetchDependencyGraph, chosen []ClosedPath, sels []Selection) error {
	for i, sel := range sels {
		if i >= len(chosen) {
			break
		}
		opt := Option{Paths: chosen[i].Paths}
		if err := r.buildFromPathTree(fdg, opt, sel, nil, sel.DeferLabel); err != nil {
			return err
		}
	}
	return nil
}

// buildQueryPlanTree wraps the materialized fetch groups into the
// Sequence/Parallel/Defer tree of §4.3.4's final assembly step: fetches
// with no unmet dependency are siblings under Parallel; a fetch depending
// on another is nested under Sequence via Flatten.
func buildQueryPlanTree(fdg *FetchDependencyGraph, rootKind schema.RootKind) *QueryPlan {
	if len(fdg.Groups) == 0 {
		return &QueryPlan{Kind: NodeEmpty}
	}

	roots := make([]*FetchGroup, 0)
	for _, g := range fdg.Groups {
		// Only primary-selection groups seed the non-deferred tree; a
		// deferred root is rooted separately by deferredBlocksFrom below,
		// so it must not also appear (and double-execute) under Primary.
		if g.PrimarySelection && len(g.DependsOn) == 0 {
			roots = append(roots, g)
		}
	}

	var top *QueryPlan
	if len(roots) == 1 {
		top = sequenceFrom(fdg, roots[0])
	} else {
		children := make([]*QueryPlan, 0, len(roots))
		for _, g := range roots {
			children = append(children, sequenceFrom(fdg, g))
		}
		top = &QueryPlan{Kind: NodeParallel, Children: children}
	}

	deferred := deferredBlocksFrom(fdg)
	if len(deferred) == 0 {
		if rootKind == schema.RootSubscription {
			return &QueryPlan{Kind: NodeSubscription, SubscriptionPrimary: top}
		}
		return top
	}
	return &QueryPlan{Kind: NodeDefer, Primary: top, Deferred: deferred}
}

func sequenceFrom(fdg *FetchDependencyGraph, g *FetchGroup) *QueryPlan {
	fetch := &QueryPlan{Kind: NodeFetch, FetchGroup: g}
	dependents := dependentsOf(fdg, g)
	if len(dependents) == 0 {
		return fetch
	}
	children := []*QueryPlan{fetch}
	for _, d := range dependents {
		children = append(children, &QueryPlan{Kind: NodeFlatten, Path: []string{d.RootType}, Inner: sequenceFrom(fdg, d)})
	}
	return &QueryPlan{Kind: NodeSequence, Children: children}
}

// dependentsOf returns g's direct dependents that share g's defer scope. A
// dependent that enters a different @defer label is a new deferred block's
// own root, not a continuation of g's sequence, and is rendered separately
// by deferredBlocksFrom.
func dependentsOf(fdg *FetchDependencyGraph, g *FetchGroup) []*FetchGroup {
	var out []*FetchGroup
	for _, cand := range fdg.Groups {
		if cand.DeferLabel != g.DeferLabel {
			continue
		}
		for _, dep := range cand.DependsOn {
			if dep == g.ID {
				out = append(out, cand)
				break
			}
		}
	}
	return out
}

func deferredBlocksFrom(fdg *FetchDependencyGraph) []DeferredBlock {
	labels := make([]string, 0, len(fdg.Defers))
	for label := range fdg.Defers {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	blocks := make([]DeferredBlock, 0, len(labels))
	for _, label := range labels {
		groups := fdg.Defers[label]
		if len(groups) == 0 {
			continue
		}
		blocks = append(blocks, DeferredBlock{Label: label, Node: sequenceFrom(fdg, groups[0])})
	}
	return blocks
}

// DebugString renders a query plan using the fixed textual format of §6,
// intended to be stable across releases for test golden files.
func (p *QueryPlan) DebugString() string {
	var b strings.Builder
	p.writeDebug(&b, 0)
	return b.String()
}

func (p *QueryPlan) writeDebug(b *strings.Builder, indent int) {
	pad := strings.Repeat("  ", indent)
	switch p.Kind {
	case NodeEmpty:
		fmt.Fprintf(b, "%sEmpty()", pad)
	case NodeFetch:
		fmt.Fprintf(b, "%s%s", pad, p.FetchGroup.DebugString())
	case NodeSequence:
		fmt.Fprintf(b, "%sSequence {\n", pad)
		for _, c := range p.Children {
			c.writeDebug(b, indent+1)
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "%s}", pad)
	case NodeParallel:
		fmt.Fprintf(b, "%sParallel {\n", pad)
		for _, c := range p.Children {
			c.writeDebug(b, indent+1)
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "%s}", pad)
	case NodeFlatten:
		fmt.Fprintf(b, "%sFlatten(path: %q) {\n", pad, strings.Join(p.Path, "."))
		p.Inner.writeDebug(b, indent+1)
		b.WriteString("\n")
		fmt.Fprintf(b, "%s}", pad)
	case NodeDefer:
		fmt.Fprintf(b, "%sDefer {\n", pad)
		fmt.Fprintf(b, "%s  Primary {\n", pad)
		p.Primary.writeDebug(b, indent+2)
		b.WriteString("\n")
		fmt.Fprintf(b, "%s  }\n", pad)
		for _, d := range p.Deferred {
			fmt.Fprintf(b, "%s  Deferred(label: %q) {\n", pad, d.Label)
			d.Node.writeDebug(b, indent+2)
			b.WriteString("\n")
			fmt.Fprintf(b, "%s  }\n", pad)
		}
		fmt.Fprintf(b, "%s}", pad)
	case NodeCondition:
		fmt.Fprintf(b, "%sCondition(if: %q) {\n", pad, p.ConditionVariable)
		if p.IfClause != nil {
			p.IfClause.writeDebug(b, indent+1)
			b.WriteString("\n")
		}
		if p.ElseClause != nil {
			p.ElseClause.writeDebug(b, indent+1)
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "%s}", pad)
	case NodeSubscription:
		fmt.Fprintf(b, "%sSubscription {\n", pad)
		p.SubscriptionPrimary.writeDebug(b, indent+1)
		b.WriteString("\n")
		fmt.Fprintf(b, "%s}", pad)
	}
}
