package planner

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Orchestrator runs many independent Plan calls against one Planner with a
// bounded degree of concurrency (§5 "experimental_parallelism"). Each Plan
// call already allocates its own PathStore/TriggerStore/FetchIDGenerator,
// so the orchestrator adds nothing beyond the concurrency cap itself — no
// shared mutable state crosses call boundaries except the Planner's
// ConditionCache, which is safe for concurrent use.
type Orchestrator struct {
	planner *Planner
	sem     *semaphore.Weighted
}

// NewOrchestrator binds an orchestrator to planner with the configured
// parallelism. A non-positive parallelism degenerates to strictly
// sequential execution (weight 1).
func NewOrchestrator(planner *Planner) *Orchestrator {
	n := planner.config.ExperimentalParallelism
	if n <= 0 {
		n = 1
	}
	return &Orchestrator{planner: planner, sem: semaphore.NewWeighted(int64(n))}
}

// PlanResult pairs one submitted operation with its outcome, preserving
// input order regardless of completion order.
type PlanResult struct {
	Plan *QueryPlan
	Err  error
}

// PlanAll plans every operation concurrently, bounded by the orchestrator's
// configured parallelism, and returns one result per input operation in
// the same order. The first operation-level error does not cancel
// in-flight siblings — each operation's own PlanResult carries its own
// error, matching the independence of unrelated client requests.
func (o *Orchestrator) PlanAll(ctx context.Context, ops []Operation) ([]PlanResult, error) {
	results := make([]PlanResult, len(ops))
	g, gctx := errgroup.WithContext(ctx)

	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			if err := o.sem.Acquire(gctx, 1); err != nil {
				results[i] = PlanResult{Err: err}
				return nil
			}
			defer o.sem.Release(1)

			plan, err := o.planner.Plan(op)
			results[i] = PlanResult{Plan: plan, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
