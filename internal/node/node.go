// Package node provides the decoded document tree.
//
// Nodes are created and mutated only while the decoder that owns the
// corresponding input element runs. After decode completes the tree is
// treated as immutable: validation and encoding only read it.
package node

import (
	"sort"
	"sync/atomic"

	"github.com/roach88/qppconv/internal/template"
)

// seq hands out process-unique node IDs. Calls are linearizable so
// concurrent conversions never share an ID.
var seq atomic.Uint64

// nextID returns the next node ID. IDs start at 1.
func nextID() uint64 {
	return seq.Add(1)
}

// Node is a single element of the decoded tree.
type Node struct {
	id       uint64
	typ      template.ID
	attrs    map[string]string
	children []*Node
	parent   *Node // lookup only, never owns
	path     string
}

// New creates a detached node of the given type. path is the location of
// the source element and is used for error reporting.
func New(typ template.ID, path string) *Node {
	return &Node{
		id:    nextID(),
		typ:   typ,
		attrs: make(map[string]string),
		path:  path,
	}
}

// ID returns the process-unique identifier.
func (n *Node) ID() uint64 { return n.id }

// Type returns the template identifier.
func (n *Node) Type() template.ID { return n.typ }

// Path returns the source document location, possibly empty.
func (n *Node) Path() string { return n.path }

// Parent returns the enclosing node, nil for the root or a detached node.
func (n *Node) Parent() *Node { return n.parent }

// Set stores an attribute. The last write for a name wins.
func (n *Node) Set(name, value string) {
	n.attrs[name] = value
}

// Get returns the attribute value, or "" when absent.
func (n *Node) Get(name string) string {
	return n.attrs[name]
}

// Lookup returns the attribute value and whether it is present.
func (n *Node) Lookup(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Has reports whether the attribute is present.
func (n *Node) Has(name string) bool {
	_, ok := n.attrs[name]
	return ok
}

// AttrNames returns the attribute names in sorted order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Append attaches child as the last child of n. A node that already has a
// parent is not re-parented; Append reports false in that case, which keeps
// the tree acyclic by construction.
func (n *Node) Append(child *Node) bool {
	if child == nil || child == n || child.parent != nil {
		return false
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return false
		}
	}
	child.parent = n
	n.children = append(n.children, child)
	return true
}

// Children returns the direct children in document order. The returned
// slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// ChildrenOf returns the direct children whose type is one of types.
func (n *Node) ChildrenOf(types ...template.ID) []*Node {
	want := template.NewSet(types...)
	var out []*Node
	for _, c := range n.children {
		if want.Has(c.typ) {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct child of the given type.
func (n *Node) FirstChild(typ template.ID) *Node {
	for _, c := range n.children {
		if c.typ == typ {
			return c
		}
	}
	return nil
}

// Find returns every node in the subtree rooted at n (n included) whose
// type is typ, in pre-order.
func (n *Node) Find(typ template.ID) []*Node {
	var out []*Node
	n.Walk(func(cur *Node) bool {
		if cur.typ == typ {
			out = append(out, cur)
		}
		return true
	})
	return out
}

// FindFirst returns the first pre-order match for keep, or nil.
func (n *Node) FindFirst(keep func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(cur *Node) bool {
		if found != nil {
			return false
		}
		if keep(cur) {
			found = cur
			return false
		}
		return true
	})
	return found
}

// Ancestor returns the closest ancestor of the given type, or nil.
func (n *Node) Ancestor(typ template.ID) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.typ == typ {
			return p
		}
	}
	return nil
}

// Walk visits the subtree in pre-order. Returning false from visit skips
// the children of the current node.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(visit)
	}
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	total := 0
	n.Walk(func(*Node) bool {
		total++
		return true
	})
	return total
}
