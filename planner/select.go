package planner

import "sort"

// cost implements the deterministic cost function of §4.3.3 as a plain sum:
// parallel siblings (simultaneous paths within one alternative) add their
// costs, and a single path adds a fixed weight per step, a penalty per
// subgraph jump and a small weight per collecting step, minus a discount per
// deferred field step. Nothing along a path is multiplied, and the cost is
// computed over graph paths rather than over a fetch-dependency graph. The exact
// constants are not externally observable (only relative ordering between
// alternatives is), so they are chosen once here and never need to match
// any particular reference implementation.
const (
	costPerStep       = 1.0
	costPerFieldAtTail = 0.1
	jumpPenalty       = 5.0
	// deferredCostWeight is the reduce_defer factor of §4.3.3 step 5: cost
	// that a step would normally add to the primary cost line is discounted
	// when the step only resolves under a @defer label, since that work no
	// longer blocks the primary response. Kept below costPerFieldAtTail so a
	// deferred field still costs something (it still needs a fetch).
	deferredCostWeight = 0.05
)

func (r *run) costOf(path ClosedPath) float64 {
	var total float64
	for _, p := range path.Paths {
		total += r.costOfPath(p)
	}
	return total
}

func (r *run) costOfPath(id PathID) float64 {
	gp := r.store.Get(id)
	cost := float64(len(gp.Steps)) * costPerStep
	cost += float64(jumpPenalty) * float64(gp.SubgraphJumpCount)
	cost += costPerFieldAtTail * float64(countFieldSteps(gp))
	cost -= deferredCostWeight * float64(r.countDeferredFieldSteps(gp))
	return cost
}

func countFieldSteps(gp *GraphPath) int {
	n := 0
	for _, s := range gp.Steps {
		if s.Edge.IsCollecting() {
			n++
		}
	}
	return n
}

// countDeferredFieldSteps counts the field-collecting steps of gp that were
// triggered under a @defer label, so their cost can be pulled out of the
// primary cost line (§6 "deferred cost is subtracted from the primary cost
// line in scoring").
func (r *run) countDeferredFieldSteps(gp *GraphPath) int {
	n := 0
	for _, s := range gp.Steps {
		if !s.Edge.IsCollecting() || s.Trigger < 0 {
			continue
		}
		if r.triggers.get(s.Trigger).Element.DeferLabel != "" {
			n++
		}
	}
	return n
}

// cheapestAlternative picks the lowest-cost alternative from alts, breaking
// ties by the pre-existing ascending subgraph-jump ordering (stable sort
// upstream already guarantees this — §4.3.1's ordering guarantee).
func (r *run) cheapestAlternative(alts []ClosedPath) (ClosedPath, error) {
	best := alts[0]
	bestCost := r.costOf(best)
	for _, alt := range alts[1:] {
		c := r.costOf(alt)
		if c < bestCost {
			best, bestCost = alt, c
		}
	}
	return best, nil
}

// planCombination is one fully-resolved assignment: one ClosedPath chosen
// per branch.
type planCombination struct {
	choice []ClosedPath
	cost   float64
}

// productOfAlternatives implements §4.3.3's "Cartesian product of
// per-branch alternatives, capped at max_evaluated_plans": branches whose
// alternatives have already collapsed to a single choice are held fixed
// (the "single-choice suffix"); branches with multiple surviving
// alternatives after dominance pruning form the "multi-choice prefix" that
// is actually enumerated.
func (r *run) productOfAlternatives(branches []ClosedBranch, maxPlans int) ([]planCombination, bool) {
	combos := []planCombination{{}}
	truncated := false
	for _, b := range branches {
		if len(b.Alternatives) == 0 {
			return nil, false
		}
		var next []planCombination
		for _, c := range combos {
			for _, alt := range b.Alternatives {
				nc := planCombination{choice: append(append([]ClosedPath{}, c.choice...), alt)}
				next = append(next, nc)
				if len(next) >= maxPlans {
					truncated = true
					break
				}
			}
			if truncated {
				break
			}
		}
		combos = next
		if truncated {
			break
		}
	}
	return combos, truncated
}

// generateAllPlansAndFindBest is the exhaustive search of §4.3.3: it scores
// every combination productOfAlternatives yields (at most maxPlans) and
// returns the cheapest. The combinations are enumerated in full and sorted
// by cost; there is no pruning by the best cost found so far. selectPlans
// uses it while the product of per-branch alternative counts stays under
// maxPlans and otherwise falls back to cheapestAlternative per branch,
// trading optimality for a bounded evaluation count.
func (r *run) generateAllPlansAndFindBest(branches []ClosedBranch, maxPlans int) (planCombination, error) {
	combos, _ := r.productOfAlternatives(branches, maxPlans)
	if len(combos) == 0 {
		return planCombination{}, noPlanFoundError("no combination of branch alternatives is jointly satisfiable")
	}
	for i := range combos {
		var total float64
		for _, alt := range combos[i].choice {
			total += r.costOf(alt)
		}
		combos[i].cost = total
	}
	sort.SliceStable(combos, func(i, j int) bool { return combos[i].cost < combos[j].cost })
	// A bound hit (truncated == true) still returns the cheapest combination
	// found so far rather than erroring, matching the "graceful degradation"
	// rule of §7 for the MaxEvaluatedPlans limit.
	return combos[0], nil
}
