package planner

import "fmt"

// PlanningErrorKind distinguishes the top-level-only planning errors of §7.3
// (at sub-plan level, the equivalent condition is the normal Unsatisfied
// outcome, not an error).
type PlanningErrorKind int

const (
	ErrPathsLimitExceeded PlanningErrorKind = iota
	ErrNonLocalSelectionsLimitExceeded
	ErrNoPlanFound
)

// PlanningError is returned by Plan when the top-level search cannot
// produce a plan at all.
type PlanningError struct {
	Kind    PlanningErrorKind
	Message string
}

func (e *PlanningError) Error() string { return e.Message }

func pathsLimitExceededError(limit int) *PlanningError {
	return &PlanningError{
		Kind:    ErrPathsLimitExceeded,
		Message: fmt.Sprintf("planning aborted: reached the limit of %d options for one selection (paths_limit)", limit),
	}
}

func nonLocalSelectionsExceededError(budget int) *PlanningError {
	return &PlanningError{
		Kind:    ErrNonLocalSelectionsLimitExceeded,
		Message: fmt.Sprintf("planning aborted: non-local-selection budget of %d exceeded", budget),
	}
}

func noPlanFoundError(detail string) *PlanningError {
	return &PlanningError{Kind: ErrNoPlanFound, Message: "no plan found: " + detail}
}

// UnsatisfiedReason is the lazily-formatted reason a condition could not be
// satisfied (§3 "Condition resolution cache").
type UnsatisfiedReason int

const (
	ReasonNoPostRequireKey UnsatisfiedReason = iota
	ReasonNoSetContext
	ReasonOther
)

func (r UnsatisfiedReason) String() string {
	switch r {
	case ReasonNoPostRequireKey:
		return "NoPostRequireKey"
	case ReasonNoSetContext:
		return "NoSetContext"
	default:
		return "Other"
	}
}

// unadvanceable is the "sunk-cost-of-formatting" closure of §9: it holds
// just enough state to format a diagnostic, evaluated only when the caller
// actually asks for the message.
type unadvanceable struct {
	format func() string
}

func (u unadvanceable) message() string { return u.format() }

// unadvanceables flattens a slice of closures to formatted strings; the
// formatting cost is paid only here, never while the closures are merely
// being accumulated.
func unadvanceables(closures []unadvanceable) []string {
	out := make([]string, len(closures))
	for i, c := range closures {
		out[i] = c.message()
	}
	return out
}

// SatisfiabilityDiagnosticKind enumerates the composition-validation
// diagnostics of §7.4.
type SatisfiabilityDiagnosticKind int

const (
	DiagUnsatisfiableRequiresCondition SatisfiabilityDiagnosticKind = iota
	DiagUnresolvableInterfaceObject
	DiagUnreachableType
	DiagNoMatchingTransition
	DiagUnsatisfiableOverrideCondition
)

// SatisfiabilityDiagnostic is produced only during composition validation
// (same planner, different entry point — §7.4).
type SatisfiabilityDiagnostic struct {
	Kind         SatisfiabilityDiagnosticKind
	FromSubgraph string
	ToSubgraph   string
	Details      string
}

func (d *SatisfiabilityDiagnostic) Error() string {
	return fmt.Sprintf("%s: %s", diagnosticKindName(d.Kind), d.Details)
}

func diagnosticKindName(k SatisfiabilityDiagnosticKind) string {
	switch k {
	case DiagUnsatisfiableRequiresCondition:
		return "UnsatisfiableRequiresCondition"
	case DiagUnresolvableInterfaceObject:
		return "UnresolvableInterfaceObject"
	case DiagUnreachableType:
		return "UnreachableType"
	case DiagNoMatchingTransition:
		return "NoMatchingTransition"
	case DiagUnsatisfiableOverrideCondition:
		return "UnsatisfiableOverrideCondition"
	default:
		return "Unknown"
	}
}
