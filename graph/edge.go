package graph

import (
	"github.com/n9te9/federation-core/schema"
)

// TransitionKind is the closed tagged union of §4.2/§9: model transitions
// as a tagged union and dispatch via match, not virtual calls.
type TransitionKind int

const (
	TransitionFieldCollection TransitionKind = iota
	TransitionDowncast
	TransitionKeyResolution
	TransitionRootTypeResolution
	TransitionInterfaceObjectFakeDownCast
	TransitionSubgraphEntering
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionFieldCollection:
		return "FieldCollection"
	case TransitionDowncast:
		return "Downcast"
	case TransitionKeyResolution:
		return "KeyResolution"
	case TransitionRootTypeResolution:
		return "RootTypeResolution"
	case TransitionInterfaceObjectFakeDownCast:
		return "InterfaceObjectFakeDownCast"
	case TransitionSubgraphEntering:
		return "SubgraphEnteringTransition"
	default:
		return "Unknown"
	}
}

// Transition carries the variant-specific payload for an edge (§3
// "Transition variants").
type Transition struct {
	Kind TransitionKind

	// FieldCollection
	FieldName       string
	FieldParentType string

	// Downcast / InterfaceObjectFakeDownCast
	FromType string
	ToType   string

	// RootTypeResolution
	RootKind schema.RootKind
}

// OverrideCondition labels an edge consumed only when a runtime @override
// label evaluates to ExpectedPolarity (§3 "Edge: ... override_condition?").
type OverrideCondition struct {
	Label            string
	ExpectedPolarity bool
}

// Edge is a directed, typed transition between two query-graph nodes (§3,
// §4.2). Conditions is the selection set that must be satisfiable at the
// edge's head before the edge may be taken (populated for @requires and
// @key edges).
type Edge struct {
	ID         int
	Head, Tail NodeID
	Transition Transition
	Conditions *schema.FieldSet
	Override   *OverrideCondition
	// Source is the subgraph this edge's transition executes in. For
	// KeyResolution edges this is the destination subgraph (the one
	// resolving the entity), matching the edge's Tail.Source.
	Source string
}

// IsTypePreserving reports whether taking this edge leaves the runtime
// type set unchanged — true for KeyResolution, RootTypeResolution and
// SubgraphEntering edges, used to compute a path's indirect options (§3
// "zero or more non-collecting, type-preserving transitions").
func (e *Edge) IsTypePreserving() bool {
	switch e.Transition.Kind {
	case TransitionKeyResolution, TransitionRootTypeResolution, TransitionSubgraphEntering:
		return true
	default:
		return false
	}
}

// IsCollecting reports whether taking this edge consumes a client-visible
// selection element (a field or a type condition), as opposed to a
// behind-the-scenes jump.
func (e *Edge) IsCollecting() bool {
	switch e.Transition.Kind {
	case TransitionFieldCollection, TransitionDowncast:
		return true
	default:
		return false
	}
}
