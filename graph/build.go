package graph

import (
	"sort"

	"github.com/n9te9/federation-core/schema"
	"github.com/n9te9/graphql-parser/ast"
)

// QueryGraph is C2's output: the directed multigraph plus its precomputed
// metadata (§4.2). Built once per supergraph.
type QueryGraph struct {
	Supergraph *schema.Supergraph

	nodes    map[NodeID]*Node
	nodeList []NodeID // deterministic emission order
	edges    map[NodeID][]*Edge
	nextEdge int

	Metadata *Metadata
}

// Node returns the node for id, or nil.
func (g *QueryGraph) Node(id NodeID) *Node { return g.nodes[id] }

// EdgesFrom returns every edge whose head is id, in construction order.
func (g *QueryGraph) EdgesFrom(id NodeID) []*Edge { return g.edges[id] }

// AllNodes returns every node in deterministic order.
func (g *QueryGraph) AllNodes() []*Node {
	out := make([]*Node, 0, len(g.nodeList))
	for _, id := range g.nodeList {
		out = append(out, g.nodes[id])
	}
	return out
}

func (g *QueryGraph) getOrCreateNode(id NodeID) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, IsRootNode: id.Source == FederatedRootSource}
	g.nodes[id] = n
	g.nodeList = append(g.nodeList, id)
	return n
}

func (g *QueryGraph) addEdge(head, tail NodeID, transition Transition, conditions *schema.FieldSet, override *OverrideCondition, source string) *Edge {
	e := &Edge{
		ID:         g.nextEdge,
		Head:       head,
		Tail:       tail,
		Transition: transition,
		Conditions: conditions,
		Override:   override,
		Source:     source,
	}
	g.nextEdge++
	g.edges[head] = append(g.edges[head], e)
	return e
}

// Build constructs the query graph from a composed supergraph (§4.2
// "Construction rules"). subgraphs is the per-subgraph SubgraphMetadata
// facade extracted alongside the supergraph by composition.Merge (or
// supplied separately when the supergraph was loaded from a persisted SDL
// file).
func Build(sg *schema.Supergraph, subgraphs []*schema.Subgraph) (*QueryGraph, error) {
	g := &QueryGraph{
		Supergraph: sg,
		nodes:      make(map[NodeID]*Node),
		edges:      make(map[NodeID][]*Edge),
	}

	byName := make(map[string]*schema.Subgraph, len(subgraphs))
	for _, s := range subgraphs {
		byName[s.Name] = s
	}

	// Node creation: one (subgraph, composite-type) node per contributing
	// subgraph/type pair.
	compositeTypes := compositeTypeNames(sg)
	for _, s := range subgraphs {
		for _, typeName := range compositeTypes {
			if !subgraphDeclaresType(s, typeName) {
				continue
			}
			g.getOrCreateNode(NodeID{Source: s.Name, TypeName: typeName})
		}
	}

	// FieldCollection edges: one per object/interface field in each
	// subgraph, from (subgraph, parent) to (subgraph, field-type).
	for _, s := range subgraphs {
		buildFieldCollectionEdges(g, s)
	}

	// Downcast edges: `... on T` and `implements`.
	buildDowncastEdges(g, sg, subgraphs)

	// KeyResolution edges: the complete digraph for every resolvable @key.
	buildKeyResolutionEdges(g, subgraphs)

	// InterfaceObjectFakeDownCast self-edges.
	buildInterfaceObjectEdges(g, sg, subgraphs)

	// Federated root nodes + SubgraphEnteringTransition edges.
	buildRootEdges(g, subgraphs)

	g.Metadata = computeMetadata(g)
	markReachableCrossSubgraphEdges(g)

	return g, nil
}

func compositeTypeNames(sg *schema.Supergraph) []string {
	var names []string
	for _, def := range sg.Schema.Definitions {
		switch def.(type) {
		case *ast.ObjectTypeDefinition, *ast.InterfaceTypeDefinition, *ast.UnionTypeDefinition:
			name := schema.DefinitionName(def)
			if name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func subgraphDeclaresType(s *schema.Subgraph, typeName string) bool {
	_, ok := s.Definitions()[typeName]
	return ok
}

func buildFieldCollectionEdges(g *QueryGraph, s *schema.Subgraph) {
	for _, def := range s.Schema.Definitions {
		switch def.(type) {
		case *ast.ObjectTypeDefinition, *ast.ObjectTypeExtension, *ast.InterfaceTypeDefinition:
		default:
			continue
		}
		parentType := schema.DefinitionName(def)
		if parentType == "" {
			continue
		}
		head := NodeID{Source: s.Name, TypeName: parentType}
		if _, ok := g.nodes[head]; !ok {
			g.getOrCreateNode(head)
		}

		for _, f := range schema.FieldsOf(def) {
			fieldName := f.Name.String()
			if fieldName == "_service" || fieldName == "_entities" {
				continue
			}
			fieldType := schema.NamedTypeName(f.Type)
			tail := NodeID{Source: s.Name, TypeName: fieldType}

			var conditions *schema.FieldSet
			if req := s.Requires(parentType, fieldName); req != nil && !req.IsEmpty() {
				conditions = req
			}

			var override *OverrideCondition
			if ov := s.Override(parentType, fieldName); ov != nil {
				override = &OverrideCondition{Label: ov.Label, ExpectedPolarity: true}
			}

			// A field whose return type is not itself composite still
			// gets a tail node so scalar/enum leaves terminate paths; the
			// node is created lazily if the type has no object/interface
			// presence in this subgraph.
			if _, ok := g.nodes[tail]; !ok {
				g.getOrCreateNode(tail)
			}

			g.addEdge(head, tail, Transition{
				Kind:            TransitionFieldCollection,
				FieldName:       fieldName,
				FieldParentType: parentType,
			}, conditions, override, s.Name)
		}
	}
}

func buildDowncastEdges(g *QueryGraph, sg *schema.Supergraph, subgraphs []*schema.Subgraph) {
	for _, s := range subgraphs {
		for _, def := range s.Schema.Definitions {
			o, ok := def.(*ast.ObjectTypeDefinition)
			if !ok {
				continue
			}
			typeName := o.Name.String()
			for _, iface := range o.Interfaces {
				from := NodeID{Source: s.Name, TypeName: iface.Name.String()}
				to := NodeID{Source: s.Name, TypeName: typeName}
				if _, ok := g.nodes[from]; !ok {
					continue
				}
				g.getOrCreateNode(to)
				g.addEdge(from, to, Transition{
					Kind:     TransitionDowncast,
					FromType: iface.Name.String(),
					ToType:   typeName,
				}, nil, nil, s.Name)
			}
		}

		for typeName, members := range unionMembership(sg) {
			from := NodeID{Source: s.Name, TypeName: typeName}
			if _, ok := g.nodes[from]; !ok {
				continue
			}
			for _, member := range members {
				to := NodeID{Source: s.Name, TypeName: member}
				if !subgraphDeclaresType(s, member) {
					continue
				}
				g.getOrCreateNode(to)
				g.addEdge(from, to, Transition{
					Kind:     TransitionDowncast,
					FromType: typeName,
					ToType:   member,
				}, nil, nil, s.Name)
			}
		}
	}
}

func unionMembership(sg *schema.Supergraph) map[string][]string {
	out := make(map[string][]string)
	for _, def := range sg.Schema.Definitions {
		u, ok := def.(*ast.UnionTypeDefinition)
		if !ok {
			continue
		}
		name := u.Name.String()
		for _, t := range u.Types {
			out[name] = append(out[name], t.Name.String())
		}
	}
	return out
}

// buildKeyResolutionEdges implements the "complete digraph for T" rule: for
// every @key(fields: K, resolvable: true) on T in subgraph A, and every
// other subgraph B also declaring T, add a KeyResolution edge B->A with
// condition K.
func buildKeyResolutionEdges(g *QueryGraph, subgraphs []*schema.Subgraph) {
	entityTypes := make(map[string]bool)
	for _, s := range subgraphs {
		for typeName := range s.Definitions() {
			if s.IsEntity(typeName) {
				entityTypes[typeName] = true
			}
		}
	}

	for typeName := range entityTypes {
		for _, dest := range subgraphs {
			for _, key := range dest.Keys(typeName) {
				if !key.Resolvable {
					continue
				}
				destNode := NodeID{Source: dest.Name, TypeName: typeName}
				if _, ok := g.nodes[destNode]; !ok {
					continue
				}
				for _, src := range subgraphs {
					if src.Name == dest.Name {
						continue
					}
					if !subgraphDeclaresType(src, typeName) {
						continue
					}
					srcNode := NodeID{Source: src.Name, TypeName: typeName}
					if _, ok := g.nodes[srcNode]; !ok {
						continue
					}
					g.addEdge(srcNode, destNode, Transition{Kind: TransitionKeyResolution}, key.FieldSet, nil, dest.Name)
				}
			}
		}
	}
}

// buildInterfaceObjectEdges implements @interfaceObject self-loop edges:
// taking the edge does not change the node but records the concrete type
// for downstream field collection (§3 invariant iii).
func buildInterfaceObjectEdges(g *QueryGraph, sg *schema.Supergraph, subgraphs []*schema.Subgraph) {
	for _, s := range subgraphs {
		for typeName := range s.Definitions() {
			if !s.IsInterfaceObjectType(typeName) {
				continue
			}
			head := NodeID{Source: s.Name, TypeName: typeName}
			if _, ok := g.nodes[head]; !ok {
				continue
			}
			for _, concrete := range sg.PossibleTypes(typeName) {
				g.addEdge(head, head, Transition{
					Kind:   TransitionInterfaceObjectFakeDownCast,
					ToType: concrete,
				}, nil, nil, s.Name)
			}
		}
	}
}

// buildRootEdges creates a federated root node per root-operation kind and
// wires SubgraphEnteringTransition edges to every subgraph declaring that
// root.
func buildRootEdges(g *QueryGraph, subgraphs []*schema.Subgraph) {
	for _, kind := range []schema.RootKind{schema.RootQuery, schema.RootMutation, schema.RootSubscription} {
		rootID := NodeID{Source: FederatedRootSource, TypeName: rootLabel(kind)}
		root := g.getOrCreateNode(rootID)
		root.IsRootNode = true
		root.RootKind = kind

		for _, s := range subgraphs {
			if !s.DeclaresRootType(kind) {
				continue
			}
			typeName := s.RootTypeName(kind)
			tail := NodeID{Source: s.Name, TypeName: typeName}
			g.getOrCreateNode(tail)
			g.addEdge(rootID, tail, Transition{Kind: TransitionSubgraphEntering, RootKind: kind}, nil, nil, s.Name)
		}
	}
}

func rootLabel(kind schema.RootKind) string {
	switch kind {
	case schema.RootMutation:
		return "__FederatedMutation__"
	case schema.RootSubscription:
		return "__FederatedSubscription__"
	default:
		return "__FederatedQuery__"
	}
}

// RootNode returns the federated root node for the given operation kind.
func (g *QueryGraph) RootNode(kind schema.RootKind) NodeID {
	return NodeID{Source: FederatedRootSource, TypeName: rootLabel(kind)}
}

func markReachableCrossSubgraphEdges(g *QueryGraph) {
	memo := make(map[NodeID]bool)
	var visit func(id NodeID, visiting map[NodeID]bool) bool
	visit = func(id NodeID, visiting map[NodeID]bool) bool {
		if v, ok := memo[id]; ok {
			return v
		}
		if visiting[id] {
			return false
		}
		visiting[id] = true
		defer delete(visiting, id)

		reachable := false
		for _, e := range g.edges[id] {
			if e.Source != id.Source {
				reachable = true
				break
			}
			if !e.IsCollecting() && visit(e.Tail, visiting) {
				reachable = true
				break
			}
		}
		memo[id] = reachable
		return reachable
	}

	for _, id := range g.nodeList {
		g.nodes[id].HasReachableCrossSubgraphEdges = visit(id, map[NodeID]bool{})
	}
}
