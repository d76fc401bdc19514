// Package encode turns a decoded tree into the nested output value.
//
// The walk encodes children before their parent. A selected node with a
// bound encoder replaces its children's fragments with its own; every other
// node passes its children's fragments up unchanged. A descendant that is
// selected therefore still appears even when an ancestor is not, which
// yields scattered output for narrow scopes. Parent encoders regroup the
// fragments they understand.
package encode

import (
	"log/slog"
	"sync"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/logging"
	"github.com/roach88/qppconv/internal/ir"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/registry"
	"github.com/roach88/qppconv/internal/template"
)

// ScopedKey holds the fragment list of scoped output.
const ScopedKey = "scoped"

// Fragment is the encoded form of one node.
type Fragment struct {
	Type  template.ID
	Node  *node.Node
	Value ir.Value
}

// Fragments is an ordered list of fragments, in document order.
type Fragments []Fragment

// Of returns the fragments whose type is one of types.
func (fs Fragments) Of(types ...template.ID) Fragments {
	want := template.NewSet(types...)
	var out Fragments
	for _, f := range fs {
		if want.Has(f.Type) {
			out = append(out, f)
		}
	}
	return out
}

// First returns the value of the first fragment of type typ.
func (fs Fragments) First(typ template.ID) (ir.Value, bool) {
	for _, f := range fs {
		if f.Type == typ {
			return f.Value, true
		}
	}
	return nil, false
}

// Values returns the values of the fragments whose type is one of types,
// never nil.
func (fs Fragments) Values(types ...template.ID) ir.Array {
	out := ir.NewArray()
	for _, f := range fs.Of(types...) {
		out = append(out, f.Value)
	}
	return out
}

// Encoder produces the fragment for one node from its children's
// fragments. Returning a nil value emits nothing for the node.
type Encoder interface {
	Encode(n *node.Node, children Fragments) (ir.Value, error)
}

// Func adapts a function to Encoder.
type Func func(n *node.Node, children Fragments) (ir.Value, error)

// Encode implements Encoder.
func (f Func) Encode(n *node.Node, children Fragments) (ir.Value, error) { return f(n, children) }

// Registry binds template IDs to encoders.
type Registry = registry.Registry[template.ID, Encoder]

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry built from Entries.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = registry.FromEntries("encode", Entries())
	})
	return defaultReg
}

// Walker encodes trees. It is safe for concurrent use.
type Walker struct {
	encoders *Registry
	logger   *slog.Logger
}

// NewWalker creates a walker over encoders.
func NewWalker(encoders *Registry) *Walker {
	return &Walker{
		encoders: encoders,
		logger:   logging.New("encode"),
	}
}

// Tree encodes root restricted to selected. A nil selected set selects
// every template. When the selection holds the document root the result is
// the root fragment; otherwise it is an object whose ScopedKey lists the
// top-most selected fragments in document order.
//
// Encoder failures do not stop the walk. Each one becomes a Detail located
// at the failing node, and the caller decides what to do with them.
func (w *Walker) Tree(root *node.Node, selected template.Set) (ir.Value, []failure.Detail) {
	var details []failure.Detail
	if root == nil {
		return ir.Object{}, details
	}
	frags := w.encode(root, selected, &details)

	if selected == nil || selected.Has(root.Type()) {
		if v, ok := frags.First(root.Type()); ok && len(frags) == 1 {
			return v, details
		}
		w.logger.Debug("root produced no fragment", "template", root.Type().String())
	}

	scoped := ir.NewArray()
	for _, f := range frags {
		scoped = append(scoped, f.Value)
	}
	return ir.NewObject(ir.O(ScopedKey, scoped)), details
}

func (w *Walker) encode(n *node.Node, selected template.Set, details *[]failure.Detail) Fragments {
	var children Fragments
	for _, c := range n.Children() {
		children = append(children, w.encode(c, selected, details)...)
	}

	if selected != nil && !selected.Has(n.Type()) {
		return children
	}
	enc, ok := w.encoders.Resolve(n.Type())
	if !ok {
		return children
	}
	v, err := enc.Encode(n, children)
	if err != nil {
		*details = append(*details, failure.NewDetail(err.Error(), n.Path()))
		return children
	}
	if v == nil {
		return children
	}
	return Fragments{{Type: n.Type(), Node: n, Value: v}}
}
