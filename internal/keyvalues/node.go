// Package keyvalues reads the nested "name" "value" / "name" { ... } text
// format used by map patch files.
package keyvalues

import (
	"strings"
)

// Node is one key of the tree. A node either carries a Value or, when it
// was written with braces, a list of Children in file order.
type Node struct {
	Name     string
	Value    string
	Children []*Node

	block bool
	line  int
}

// NewBlock creates an empty block node.
func NewBlock(name string) *Node {
	return &Node{Name: name, block: true}
}

// NewValue creates a leaf node.
func NewValue(name, value string) *Node {
	return &Node{Name: name, Value: value}
}

// IsBlock reports whether the node was written as a { } block.
func (n *Node) IsBlock() bool {
	return n.block
}

// Line returns the 1-based line the node's name appeared on (0 if built in code).
func (n *Node) Line() int {
	return n.line
}

// Add appends a child and marks n as a block.
func (n *Node) Add(child *Node) *Node {
	n.block = true
	n.Children = append(n.Children, child)
	return n
}

// FindKey returns the first direct child whose name matches, ignoring case.
func (n *Node) FindKey(name string) *Node {
	for _, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// String returns the value of the named child, or def when absent.
func (n *Node) String(name, def string) string {
	if c := n.FindKey(name); c != nil && !c.block {
		return c.Value
	}
	return def
}

// Block returns the first child block whose name matches, ignoring case.
func (n *Node) Block(name string) *Node {
	for _, c := range n.Children {
		if c.block && strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// FirstBlock returns the first child block. Patch files wrap their entity
// blocks in a single named root, so callers iterate FirstBlock().Children.
func (n *Node) FirstBlock() *Node {
	for _, c := range n.Children {
		if c.block {
			return c
		}
	}
	return nil
}
