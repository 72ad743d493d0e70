package planner

import (
	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/federation-core/schema"
)

// ValidateSatisfiability walks every edge reachable from each federated
// root and, for each edge that carries a condition, asks the same
// condition machinery Plan uses whether that condition resolves from the
// edge's head, to surface composition-time problems before any client ever
// sends a query (§7.4 "same planner, different entry point"). No operation
// is built and no path is generated for individual fields. It never returns
// a QueryPlan; every unsatisfiable condition becomes a
// SatisfiabilityDiagnostic instead of a hard error.
func (pl *Planner) ValidateSatisfiability() []*SatisfiabilityDiagnostic {
	var diags []*SatisfiabilityDiagnostic
	for _, kind := range []schema.RootKind{schema.RootQuery, schema.RootMutation, schema.RootSubscription} {
		root := pl.graph.RootNode(kind)
		if pl.graph.Node(root) == nil {
			continue
		}
		diags = append(diags, pl.validateFromRoot(root)...)
	}
	return diags
}

func (pl *Planner) validateFromRoot(root graph.NodeID) []*SatisfiabilityDiagnostic {
	var diags []*SatisfiabilityDiagnostic
	visited := map[graph.NodeID]bool{root: true}
	queue := []graph.NodeID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range pl.graph.EdgesFrom(cur) {
			if e.Conditions != nil && !e.Conditions.IsEmpty() {
				if !pl.conditionSatisfiable(cur, e) {
					diags = append(diags, &SatisfiabilityDiagnostic{
						Kind:         diagKindFor(e),
						FromSubgraph: e.Head.Source,
						ToSubgraph:   e.Tail.Source,
						Details:      "condition " + e.Conditions.String() + " on " + e.Transition.FieldParentType + " is not resolvable from " + e.Head.Source,
					})
				}
			}
			if visited[e.Tail] {
				continue
			}
			visited[e.Tail] = true
			queue = append(queue, e.Tail)
		}
	}
	return diags
}

// conditionSatisfiable roots a fresh planning arena at node and asks the
// same resolveCondition/evaluateConditionSelections machinery Plan uses
// whether e's condition actually resolves from there — a genuine re-entrant
// plan attempt, not a shallow top-level-field reachability guess. This is
// the "same planner, different entry point" promise of §7.4: composition
// validation and real Plan calls now share the exact same definition of
// satisfiable (§4.3.2).
func (pl *Planner) conditionSatisfiable(node graph.NodeID, e *graph.Edge) bool {
	r := &run{
		planner:  pl,
		store:    NewPathStore(pl.graph),
		triggers: &TriggerStore{},
		fetchIDs: &FetchIDGenerator{},
		budget:   &nonLocalBudget{limit: nonLocalBudgetDefault},
	}
	p := r.store.NewRootPath(node, nil)
	return r.resolveCondition(p, e).Satisfied
}

func diagKindFor(e *graph.Edge) SatisfiabilityDiagnosticKind {
	if e.Transition.Kind == graph.TransitionFieldCollection {
		return DiagUnsatisfiableRequiresCondition
	}
	return DiagNoMatchingTransition
}
