package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/n9te9/federation-core/graph"
	"github.com/n9te9/graphql-parser/ast"
)

// FetchIDGenerator is a monotonically increasing counter, threaded
// explicitly through a single planning call — never global (§5, §9).
type FetchIDGenerator struct{ next int }

// Next returns the next fetch id.
func (g *FetchIDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// Representation is the key-projection of an entity passed across a
// subgraph boundary as a variable (§GLOSSARY "Representation").
type Representation struct {
	TypeName string
	KeyField *schemaFieldSet
}

type schemaFieldSet = fieldSetAlias

// fieldSetAlias avoids importing schema in this file's exported surface
// while still carrying the raw field-set text used in Fetch serialization.
type fieldSetAlias struct {
	Raw string
}

// FetchGroup is one node of the fetch-dependency graph: a single subgraph
// request (§3 "Fetch-dependency graph").
type FetchGroup struct {
	ID              int
	Subgraph        string
	RootType        string
	SelectionSet    []ast.Selection
	Requires        []Representation
	InputRewrites   []string
	OutputRewrites  []string
	DeferLabel      string
	DependsOn       []int
	PrimarySelection bool
}

// FetchDependencyGraph is the DAG of per-subgraph fetches (§3, §4.3.4).
type FetchDependencyGraph struct {
	Groups   []*FetchGroup
	byID     map[int]*FetchGroup
	idGen    *FetchIDGenerator
	Defers   map[string][]*FetchGroup // label -> deferred fetch groups
}

// NewFetchDependencyGraph creates an empty graph bound to idGen.
func NewFetchDependencyGraph(idGen *FetchIDGenerator) *FetchDependencyGraph {
	return &FetchDependencyGraph{byID: make(map[int]*FetchGroup), idGen: idGen, Defers: make(map[string][]*FetchGroup)}
}

// groupFor returns (creating if needed) the open fetch group for subgraph
// at rootType, sequenced after dependsOn. Contiguous field collections on
// the same subgraph are grouped into one fetch node (§4.3.4 bullet 1).
func (fdg *FetchDependencyGraph) groupFor(subgraph, rootType string, dependsOn []int, deferLabel string) *FetchGroup {
	for _, g := range fdg.Groups {
		if g.Subgraph == subgraph && g.RootType == rootType && g.DeferLabel == deferLabel && sameDeps(g.DependsOn, dependsOn) {
			return g
		}
	}
	g := &FetchGroup{
		ID:               fdg.idGen.Next(),
		Subgraph:         subgraph,
		RootType:         rootType,
		DependsOn:        dependsOn,
		DeferLabel:       deferLabel,
		PrimarySelection: deferLabel == "",
	}
	fdg.Groups = append(fdg.Groups, g)
	fdg.byID[g.ID] = g
	if deferLabel != "" {
		fdg.Defers[deferLabel] = append(fdg.Defers[deferLabel], g)
	}
	return g
}

func sameDeps(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildFromPathTree implements §4.3.4: walk the chosen path(s) for one
// closed branch and create/merge fetch groups. parentGroup is nil for a
// root-level selection.
func (r *run) buildFromPathTree(fdg *FetchDependencyGraph, opt Option, sel Selection, parentGroup *FetchGroup, deferLabel string) error {
	for _, p := range opt.Paths {
		if err := r.buildPathIntoGraph(fdg, p, sel, parentGroup, deferLabel); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) buildPathIntoGraph(fdg *FetchDependencyGraph, p PathID, sel Selection, parentGroup *FetchGroup, deferLabel string) error {
	path := r.store.Get(p)
	group := parentGroup
	var dependsOn []int
	if parentGroup != nil {
		dependsOn = []int{parentGroup.ID}
	}

	for _, step := range path.Steps {
		switch step.Edge.Transition.Kind {
		case graph.TransitionKeyResolution:
			if group == nil {
				group = fdg.groupFor(step.Edge.Source, step.Edge.Tail.TypeName, dependsOn, deferLabel)
			} else if group.Subgraph != step.Edge.Source {
				rep := Representation{TypeName: step.Edge.Tail.TypeName}
				if step.Edge.Conditions == nil {
					return &PlanningError{Kind: ErrNoPlanFound, Message: string(ReasonNoPostRequireKey.String())}
				}
				newGroup := fdg.groupFor(step.Edge.Source, step.Edge.Tail.TypeName, []int{group.ID}, deferLabel)
				newGroup.Requires = append(newGroup.Requires, rep)
				group = newGroup
			}
			dependsOn = []int{group.ID}
		case graph.TransitionSubgraphEntering:
			group = fdg.groupFor(step.Edge.Source, step.Edge.Tail.TypeName, nil, deferLabel)
			dependsOn = []int{group.ID}
		case graph.TransitionFieldCollection:
			if group == nil {
				group = fdg.groupFor(step.Edge.Source, step.Edge.Transition.FieldParentType, dependsOn, deferLabel)
			}
			if step.Edge.Conditions != nil && !step.Edge.Conditions.IsEmpty() {
				if err := r.satisfyRequires(fdg, group, step.Edge); err != nil {
					return err
				}
			}
			group.SelectionSet = appendFieldSelection(group.SelectionSet, step.Trigger, r.triggers)
		case graph.TransitionDowncast, graph.TransitionInterfaceObjectFakeDownCast:
			// Downcasts narrow the runtime type in place; they do not by
			// themselves open a new fetch group.
		}
	}

	if len(sel.SubSelections) == 0 {
		return nil
	}
	return nil
}

// satisfyRequires implements §4.3.4's @requires handling: insert an extra
// fetch to the originating subgraph to fetch the required fields, sequenced
// before the fetch whose condition needs them, then takes the entity back
// via the same @key.
func (r *run) satisfyRequires(fdg *FetchDependencyGraph, group *FetchGroup, e *graph.Edge) error {
	keys := r.graph().Supergraph.SubgraphByName(e.Source)
	if keys == nil {
		return nil
	}
	entityKeys := keys.Keys(e.Transition.FieldParentType)
	if len(entityKeys) == 0 {
		return &PlanningError{Kind: ErrNoPlanFound, Message: ReasonNoPostRequireKey.String()}
	}
	requireGroup := fdg.groupFor(e.Source, e.Transition.FieldParentType, nil, group.DeferLabel)
	requireGroup.SelectionSet = appendRequiresFields(requireGroup.SelectionSet, e.Conditions)
	group.Requires = append(group.Requires, Representation{TypeName: e.Transition.FieldParentType, KeyField: &schemaFieldSet{Raw: entityKeys[0].FieldSet.String()}})
	if !contains(group.DependsOn, requireGroup.ID) {
		group.DependsOn = append(group.DependsOn, requireGroup.ID)
	}
	return nil
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func appendRequiresFields(sels []ast.Selection, fs interface{ TopLevelFieldNames() []string }) []ast.Selection {
	for _, name := range fs.TopLevelFieldNames() {
		sels = appendNamedField(sels, name)
	}
	return sels
}

func appendNamedField(sels []ast.Selection, name string) []ast.Selection {
	for _, s := range sels {
		if f, ok := s.(*ast.Field); ok && f.Name.String() == name {
			return sels
		}
	}
	return append(sels, &ast.Field{Name: ast.Name(name)})
}

func appendFieldSelection(sels []ast.Selection, trigger TriggerIndex, store *TriggerStore) []ast.Selection {
	if trigger < 0 {
		return sels
	}
	t := store.get(trigger)
	if t.Element.Field == nil {
		return sels
	}
	return appendOrMergeField(sels, t.Element.Field)
}

func appendOrMergeField(sels []ast.Selection, f *ast.Field) []ast.Selection {
	key := f.Name.String()
	if f.Alias != nil && f.Alias.String() != "" {
		key = f.Alias.String()
	}
	for _, s := range sels {
		existing, ok := s.(*ast.Field)
		if !ok {
			continue
		}
		existingKey := existing.Name.String()
		if existing.Alias != nil && existing.Alias.String() != "" {
			existingKey = existing.Alias.String()
		}
		if existingKey == key {
			existing.SelectionSet = mergeSelectionSets(existing.SelectionSet, f.SelectionSet)
			return sels
		}
	}
	return append(sels, f)
}

func mergeSelectionSets(a, b []ast.Selection) []ast.Selection {
	out := append([]ast.Selection{}, a...)
	for _, sel := range b {
		f, ok := sel.(*ast.Field)
		if !ok {
			out = append(out, sel)
			continue
		}
		out = appendOrMergeField(out, f)
	}
	return out
}

// DebugString renders the fetch graph in the fixed debugging format of §6:
// Fetch(service: "sg") { ...selection... }, with requires rendered as a
// GraphQL-style annotation. Round-trip stability across this format is
// required for the test suite.
func (fdg *FetchDependencyGraph) DebugString() string {
	var b strings.Builder
	for i, g := range fdg.Groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(g.DebugString())
	}
	return b.String()
}

// DebugString renders a single fetch group using the fixed serialization
// format of §6.
func (g *FetchGroup) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fetch(service: %q)", g.Subgraph)
	if len(g.Requires) > 0 {
		reps := make([]string, 0, len(g.Requires))
		for _, r := range g.Requires {
			if r.KeyField != nil {
				reps = append(reps, fmt.Sprintf("... on %s { %s }", r.TypeName, r.KeyField.Raw))
			} else {
				reps = append(reps, fmt.Sprintf("... on %s { __typename }", r.TypeName))
			}
		}
		fmt.Fprintf(&b, " @require(%s)", strings.Join(reps, ", "))
	}
	b.WriteString(" { ")
	b.WriteString(renderSelectionSet(g.SelectionSet))
	b.WriteString(" }")
	return b.String()
}

func renderSelectionSet(sels []ast.Selection) string {
	parts := make([]string, 0, len(sels))
	for _, sel := range sels {
		switch s := sel.(type) {
		case *ast.Field:
			if len(s.SelectionSet) > 0 {
				parts = append(parts, fmt.Sprintf("%s { %s }", s.Name.String(), renderSelectionSet(s.SelectionSet)))
			} else {
				parts = append(parts, s.Name.String())
			}
		case *ast.InlineFragment:
			parts = append(parts, fmt.Sprintf("... on %s { %s }", s.TypeCondition, renderSelectionSet(s.SelectionSet)))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
