// Package planner implements C3, the query planner of §4.3: given an
// operation and a query graph (package graph), it explores the space of
// equivalent subgraph execution strategies and returns the lowest-cost
// fetch-dependency graph.
package planner

import "github.com/n9te9/graphql-parser/ast"

// TriggerKind distinguishes the two kinds of client-visible element that
// can cause a path to advance (§3 "Graph path").
type TriggerKind int

const (
	// TriggerOpPathElement is the client-visible element of an operation
	// path: a field selection or a type-condition (inline fragment/
	// fragment spread).
	TriggerOpPathElement TriggerKind = iota
	// TriggerTransition is used for composition-validation paths, where
	// there is no client operation driving the walk.
	TriggerTransition
)

// OpPathElement is the trigger payload for an operation-driven advance: a
// single field (with its response key and arguments) or a type condition.
type OpPathElement struct {
	IsTypeCondition bool
	TypeCondition   string
	FieldName       string
	ResponseKey     string
	Field           *ast.Field
	DeferLabel      string
}

// Trigger is one arena-stored trigger (§9 "Cyclic references between path
// and its trigger"). Paths hold integer indices into a TriggerStore rather
// than owning pointers, so the trigger and the path that references it
// never form a reference cycle.
type Trigger struct {
	Kind    TriggerKind
	Element OpPathElement
}

// TriggerStore is the arena: triggers are appended once and never mutated,
// so a TriggerIndex is stable for the planning call's lifetime.
type TriggerStore struct {
	triggers []Trigger
}

// TriggerIndex is an index into a TriggerStore.
type TriggerIndex int

func (s *TriggerStore) add(t Trigger) TriggerIndex {
	s.triggers = append(s.triggers, t)
	return TriggerIndex(len(s.triggers) - 1)
}

func (s *TriggerStore) get(i TriggerIndex) Trigger {
	return s.triggers[i]
}

// AddFieldTrigger records a field-selection trigger and returns its index.
func (s *TriggerStore) AddFieldTrigger(f *ast.Field, deferLabel string) TriggerIndex {
	responseKey := f.Name.String()
	if f.Alias != nil && f.Alias.String() != "" {
		responseKey = f.Alias.String()
	}
	return s.add(Trigger{Kind: TriggerOpPathElement, Element: OpPathElement{
		FieldName:   f.Name.String(),
		ResponseKey: responseKey,
		Field:       f,
		DeferLabel:  deferLabel,
	}})
}

// AddTypeConditionTrigger records an inline-fragment/fragment-spread
// type-condition trigger and returns its index.
func (s *TriggerStore) AddTypeConditionTrigger(typeName string) TriggerIndex {
	return s.add(Trigger{Kind: TriggerOpPathElement, Element: OpPathElement{
		IsTypeCondition: true,
		TypeCondition:   typeName,
	}})
}
