package graph

// Metadata is the precomputed acceleration structure of §4.2: "Derived
// metadata is precomputed to accelerate planning." The edge indices are
// built in one O(nodes + edges) pass; ObjectDowncastTable runs a separate
// Downcast-edge walk from every node, so construction as a whole is not
// linear in the size of the graph.
type Metadata struct {
	// CompleteDigraph maps a type name to every node of that type
	// reachable from any other via KeyResolution edges (§3 "Complete
	// digraph for T").
	CompleteDigraph map[string][]NodeID

	// InterfaceObjectOptions maps a node to the set of concrete type names
	// it can fake-downcast to via @interfaceObject.
	InterfaceObjectOptions map[NodeID][]string

	// FieldEdgeIndex maps (head, fieldName) to the FieldCollection edges
	// serving that field from head, possibly more than one when @override
	// splits responsibility between subgraphs.
	FieldEdgeIndex map[fieldKey][]*Edge

	// DowncastIndex maps (head, typeConditionName) to the Downcast edge
	// realizing that type condition from head, if any.
	DowncastIndex map[typeConditionKey]*Edge

	// ObjectDowncastTable maps a node to every concrete object-type name
	// reachable from it by zero or more Downcast edges — the set of
	// runtime types an abstract-typed node can narrow to within its own
	// subgraph.
	ObjectDowncastTable map[NodeID][]string
}

type fieldKey struct {
	Head      NodeID
	FieldName string
}

type typeConditionKey struct {
	Head     NodeID
	TypeName string
}

func computeMetadata(g *QueryGraph) *Metadata {
	m := &Metadata{
		CompleteDigraph:        make(map[string][]NodeID),
		InterfaceObjectOptions: make(map[NodeID][]string),
		FieldEdgeIndex:         make(map[fieldKey][]*Edge),
		DowncastIndex:          make(map[typeConditionKey]*Edge),
		ObjectDowncastTable:    make(map[NodeID][]string),
	}

	byType := make(map[string]map[NodeID]bool)

	for _, id := range g.nodeList {
		for _, e := range g.edges[id] {
			switch e.Transition.Kind {
			case TransitionFieldCollection:
				k := fieldKey{Head: id, FieldName: e.Transition.FieldName}
				m.FieldEdgeIndex[k] = append(m.FieldEdgeIndex[k], e)
			case TransitionDowncast:
				k := typeConditionKey{Head: id, TypeName: e.Transition.ToType}
				m.DowncastIndex[k] = e
			case TransitionKeyResolution:
				set := byType[id.TypeName]
				if set == nil {
					set = make(map[NodeID]bool)
					byType[id.TypeName] = set
				}
				set[id] = true
				set[e.Tail] = true
			case TransitionInterfaceObjectFakeDownCast:
				m.InterfaceObjectOptions[id] = append(m.InterfaceObjectOptions[id], e.Transition.ToType)
			}
		}
	}

	for typeName, set := range byType {
		ids := make([]NodeID, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		m.CompleteDigraph[typeName] = ids
	}

	for _, id := range g.nodeList {
		m.ObjectDowncastTable[id] = computeObjectDowncasts(g, id)
	}

	return m
}

func computeObjectDowncasts(g *QueryGraph, root NodeID) []string {
	visited := map[NodeID]bool{root: true}
	var concretes []string
	queue := []NodeID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		isObject := false
		hasDowncast := false
		for _, e := range g.edges[cur] {
			if e.Transition.Kind != TransitionDowncast {
				continue
			}
			hasDowncast = true
			if visited[e.Tail] {
				continue
			}
			visited[e.Tail] = true
			queue = append(queue, e.Tail)
		}
		if !hasDowncast {
			isObject = true
		}
		if isObject && cur != root {
			concretes = append(concretes, cur.TypeName)
		}
	}
	return concretes
}

// IndirectKeyTargets returns every node reachable from id by a single
// KeyResolution edge (other subgraphs trading the same entity type).
func (g *QueryGraph) IndirectKeyTargets(id NodeID) []*Edge {
	var out []*Edge
	for _, e := range g.edges[id] {
		if e.Transition.Kind == TransitionKeyResolution {
			out = append(out, e)
		}
	}
	return out
}

// FieldEdges returns the FieldCollection edges serving fieldName from head.
func (g *QueryGraph) FieldEdges(head NodeID, fieldName string) []*Edge {
	if g.Metadata == nil {
		return nil
	}
	return g.Metadata.FieldEdgeIndex[fieldKey{Head: head, FieldName: fieldName}]
}

// DowncastEdge returns the Downcast edge from head realizing typeName, if
// any.
func (g *QueryGraph) DowncastEdge(head NodeID, typeName string) (*Edge, bool) {
	if g.Metadata == nil {
		return nil, false
	}
	e, ok := g.Metadata.DowncastIndex[typeConditionKey{Head: head, TypeName: typeName}]
	return e, ok
}
