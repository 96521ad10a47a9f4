// Package schema holds the flattened serializer trees that describe entity
// field layouts and resolves numeric field paths against them.
//
// Nodes are stored once per parse session in an Arena and referenced by
// NodeID. An Arena is built by the parser collaborator and is read-only once
// handed to the inspector.
package schema

import (
	"fmt"
)

// NodeID addresses a node inside an Arena.
type NodeID int32

// Node is one field declaration in a serializer tree.
type Node struct {
	VarName string
	VarType string
	// Children are ordered child slots. A dynamic array has exactly one
	// child: the element schema.
	Children     []NodeID
	DynamicArray bool
}

// Arena owns every node of a parse session.
type Arena struct {
	nodes []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add appends a node and returns its ID.
func (a *Arena) Add(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Len returns the number of nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Node returns the node for id.
func (a *Arena) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil, false
	}
	return &a.nodes[id], true
}

// Child returns the child at ordinal of the node id.
func (a *Arena) Child(id NodeID, ordinal int) (NodeID, bool) {
	n, ok := a.Node(id)
	if !ok || ordinal < 0 || ordinal >= len(n.Children) {
		return 0, false
	}
	return n.Children[ordinal], true
}

// Validate checks that every child reference points into the arena and that
// every dynamic array has exactly one element child.
func (a *Arena) Validate() error {
	for i, n := range a.nodes {
		for ord, c := range n.Children {
			if c < 0 || int(c) >= len(a.nodes) {
				return fmt.Errorf("node %d (%s) child %d references missing node %d", i, n.VarName, ord, c)
			}
		}
		if n.DynamicArray && len(n.Children) != 1 {
			return fmt.Errorf("dynamic array node %d (%s) has %d children, want 1", i, n.VarName, len(n.Children))
		}
	}
	return nil
}

// Serializer names the root node of an entity class layout.
type Serializer struct {
	Name  string
	Arena *Arena
	Root  NodeID
}

// RootNode returns the serializer's root node.
func (s Serializer) RootNode() (*Node, bool) {
	if s.Arena == nil {
		return nil, false
	}
	return s.Arena.Node(s.Root)
}
