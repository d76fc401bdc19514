// Package decode builds the node tree from a parsed QRDA document.
//
// Each element is identified by the first of its templateId children that
// names a known template. Identified elements are handed to the decoder
// bound to their ID; elements without a bound decoder are skipped together
// with their subtree. Elements that carry no templateId are resolved through
// a second registry keyed by structural path (for example the document
// root), or are passed through so that their descendants attach to the
// nearest decoded ancestor.
//
// A decoder error aborts the walk. It is the only failure decode reports.
package decode

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/logging"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/registry"
	"github.com/roach88/qppconv/internal/template"
	"github.com/roach88/qppconv/internal/xmldoc"
)

// Result tells the walk what to do after a decoder ran.
type Result int

const (
	// Continue decodes the element's children into the new node.
	Continue Result = iota

	// Finished attaches the node without visiting the element's children.
	Finished

	// Skip drops the node and its subtree.
	Skip
)

// String returns the directive name.
func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Finished:
		return "finished"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// Decoder reads one element into its node. It may set attributes and
// append synthesized children. It must not touch other nodes.
type Decoder interface {
	Decode(el *xmldoc.Element, n *node.Node) (Result, error)
}

// Func adapts a function to Decoder.
type Func func(el *xmldoc.Element, n *node.Node) (Result, error)

// Decode implements Decoder.
func (f Func) Decode(el *xmldoc.Element, n *node.Node) (Result, error) { return f(el, n) }

// Registry binds template IDs to decoders.
type Registry = registry.Registry[template.ID, Decoder]

// PathRegistry binds structural paths of unmarked elements to template IDs.
type PathRegistry = registry.Registry[string, template.ID]

// ErrUnrecognizedRoot is returned when the root element cannot be decoded.
var ErrUnrecognizedRoot = errors.New("document root is not a recognized QRDA template")

var (
	defaultOnce  sync.Once
	defaultReg   *Registry
	defaultPaths *PathRegistry
)

// Defaults returns the process-wide registries built from Entries and
// PathEntries. They are built on first use and read-only afterwards.
func Defaults() (*Registry, *PathRegistry) {
	defaultOnce.Do(func() {
		defaultReg = registry.FromEntries("decode", Entries())
		defaultPaths = registry.FromEntries("decode-path", PathEntries())
	})
	return defaultReg, defaultPaths
}

// Walker decodes element trees. It holds no per-document state and is safe
// for concurrent use.
type Walker struct {
	decoders *Registry
	paths    *PathRegistry
	logger   *slog.Logger
}

// NewWalker creates a walker over the given registries. paths may be nil.
func NewWalker(decoders *Registry, paths *PathRegistry) *Walker {
	return &Walker{
		decoders: decoders,
		paths:    paths,
		logger:   logging.New("decode"),
	}
}

// Tree decodes root into a new node tree.
func (w *Walker) Tree(root *xmldoc.Element) (*node.Node, error) {
	if root == nil {
		return nil, failure.NewDecodeError("", ErrUnrecognizedRoot.Error(), nil)
	}
	id, ok := w.identify(root)
	if !ok {
		return nil, failure.NewDecodeError(root.Path(), ErrUnrecognizedRoot.Error(), nil)
	}
	n, err := w.decodeElement(root, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, failure.NewDecodeError(root.Path(), "document root was skipped", nil)
	}
	return n, nil
}

// decodeElement runs the decoder for el. It returns nil when the element
// has no decoder or the decoder asked to skip it.
func (w *Walker) decodeElement(el *xmldoc.Element, id template.ID) (*node.Node, error) {
	dec, ok := w.decoders.Resolve(id)
	if !ok {
		w.logger.Debug("no decoder, skipping subtree", "template", id.String(), "path", el.Path())
		return nil, nil
	}

	n := node.New(id, el.Path())
	res, err := dec.Decode(el, n)
	if err != nil {
		var de *failure.DecodeError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, failure.NewDecodeError(el.Path(), "cannot decode "+id.String(), err)
	}

	switch res {
	case Skip:
		return nil, nil
	case Continue:
		if err := w.decodeChildren(el, n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// decodeChildren decodes the children of el into parent, in document order.
func (w *Walker) decodeChildren(el *xmldoc.Element, parent *node.Node) error {
	for _, child := range el.Children {
		if child.Name == "templateId" {
			continue
		}
		id, ok := w.identify(child)
		if !ok {
			// Unmarked structure: descendants attach to parent.
			if err := w.decodeChildren(child, parent); err != nil {
				return err
			}
			continue
		}
		n, err := w.decodeElement(child, id)
		if err != nil {
			return err
		}
		if n != nil {
			parent.Append(n)
		}
	}
	return nil
}

// identify returns the template of el from its templateId markers, falling
// back to the path registry.
func (w *Walker) identify(el *xmldoc.Element) (template.ID, bool) {
	if id, ok := TemplateOf(el); ok {
		return id, true
	}
	if w.paths == nil {
		return template.Unknown, false
	}
	return w.paths.Resolve(StructuralPath(el))
}

// TemplateOf returns the first known template among el's templateId
// children.
func TemplateOf(el *xmldoc.Element) (template.ID, bool) {
	for _, t := range el.ChildrenNamed("templateId") {
		if id, ok := template.ByOID(t.Attr("root"), t.Attr("extension")); ok {
			return id, true
		}
	}
	return template.Unknown, false
}

// StructuralPath returns the index-free element path of el, such as
// "/ClinicalDocument".
func StructuralPath(el *xmldoc.Element) string {
	var names []string
	for cur := el; cur != nil; cur = cur.Parent() {
		names = append(names, cur.Name)
	}
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(names[i])
	}
	return b.String()
}
