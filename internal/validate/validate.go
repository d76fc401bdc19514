// Package validate checks business rules on a decoded tree.
//
// Validators are bound per template ID in a registry. The walk visits every
// node in pre-order, runs the node's validator when one is bound and the
// node's type is selected, and accumulates all details across the tree.
// It never stops early: a caller sees every violation in one pass.
package validate

import (
	"sync"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/registry"
	"github.com/roach88/qppconv/internal/template"
)

// Validator checks one node and appends any problems to details. It may
// inspect children for cross-field rules but must not modify the tree.
type Validator interface {
	Validate(n *node.Node, details *[]failure.Detail)
}

// Func adapts a function to Validator.
type Func func(n *node.Node, details *[]failure.Detail)

// Validate implements Validator.
func (f Func) Validate(n *node.Node, details *[]failure.Detail) { f(n, details) }

// Registry binds template IDs to validators.
type Registry = registry.Registry[template.ID, Validator]

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry built from Entries. It is
// built on first use and read-only afterwards.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = registry.FromEntries("validate", Entries())
	})
	return defaultReg
}

// Tree validates every node under root whose type is in selected. A nil
// selected set validates every node.
func Tree(root *node.Node, selected template.Set, reg *Registry) []failure.Detail {
	var details []failure.Detail
	if root == nil {
		return details
	}
	root.Walk(func(n *node.Node) bool {
		if selected != nil && !selected.Has(n.Type()) {
			return true
		}
		if v, ok := reg.Resolve(n.Type()); ok {
			v.Validate(n, &details)
		}
		return true
	})
	return details
}
