// Package graph builds C2, the query graph described in §4.2: a directed
// multigraph whose nodes are (subgraph, type) pairs plus synthetic
// federated root nodes, and whose edges are typed transitions the planner
// (package planner) explores.
package graph

import (
	"fmt"

	"github.com/n9te9/federation-core/schema"
)

// FederatedRootSource is the synthetic subgraph name used by federated root
// nodes (§3 "Node: { source: subgraph-name | federated-root, ... }").
const FederatedRootSource = "__federated_root__"

// NodeID identifies a node by its (source, type) pair. It is comparable and
// usable as a map key, matching the teacher's string-keyed node identity
// (federation/graph/weighted_graph.go NodeKey) generalized to a struct so
// source and type name never need reparsing.
type NodeID struct {
	Source   string
	TypeName string
}

func (id NodeID) String() string {
	return fmt.Sprintf("%s:%s", id.Source, id.TypeName)
}

// Node is a vertex of the query graph: a (subgraph, type) pair, or a
// federated-root node when Source == FederatedRootSource.
type Node struct {
	ID NodeID
	// HasReachableCrossSubgraphEdges is true iff some edge from this node
	// (or transitively through non-collecting edges) has a different
	// source subgraph (§4.2 invariants).
	HasReachableCrossSubgraphEdges bool
	// IsRootNode marks a federated-root node.
	IsRootNode bool
	// RootKind is meaningful only when IsRootNode is true.
	RootKind schema.RootKind
}

func (n *Node) Source() string   { return n.ID.Source }
func (n *Node) TypeName() string { return n.ID.TypeName }

// IsFederatedRoot reports whether this is a synthetic root node.
func (n *Node) IsFederatedRoot() bool { return n.ID.Source == FederatedRootSource }
