package validate

import (
	"strconv"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/template"
)

// Checker composes attribute and child-count rules for one node. Every
// failing rule appends one Detail located at the node's path.
//
// In shortcut mode a rule is skipped once any earlier rule of the same
// chain has failed. In thorough mode every rule is evaluated.
type Checker struct {
	node     *node.Node
	details  *[]failure.Detail
	start    int
	thorough bool
	counts   map[template.ID]int
}

// Check starts a shortcut chain on n.
func Check(n *node.Node, details *[]failure.Detail) *Checker {
	return newChecker(n, details, false)
}

// ThoroughlyCheck starts a chain that evaluates every rule.
func ThoroughlyCheck(n *node.Node, details *[]failure.Detail) *Checker {
	return newChecker(n, details, true)
}

func newChecker(n *node.Node, details *[]failure.Detail, thorough bool) *Checker {
	counts := make(map[template.ID]int)
	for _, c := range n.Children() {
		counts[c.Type()]++
	}
	return &Checker{
		node:     n,
		details:  details,
		start:    len(*details),
		thorough: thorough,
		counts:   counts,
	}
}

func (c *Checker) skip() bool {
	return !c.thorough && len(*c.details) > c.start
}

func (c *Checker) fail(message string) {
	*c.details = append(*c.details, failure.NewDetail(message, c.node.Path()))
}

// Value fails if the attribute is absent.
func (c *Checker) Value(message, name string) *Checker {
	if c.skip() {
		return c
	}
	if !c.node.Has(name) {
		c.fail(message)
	}
	return c
}

// IntValue fails if the attribute is absent or not an integer.
func (c *Checker) IntValue(message, name string) *Checker {
	if c.skip() {
		return c
	}
	if _, ok := c.intAttr(name); !ok {
		c.fail(message)
	}
	return c
}

// IntMinimum fails if the attribute is an integer below minimum. Absent or
// non-integer values are left to IntValue.
func (c *Checker) IntMinimum(message, name string, minimum int64) *Checker {
	if c.skip() {
		return c
	}
	if v, ok := c.intAttr(name); ok && v < minimum {
		c.fail(message)
	}
	return c
}

// ValueIn fails if the attribute is present and not one of allowed.
func (c *Checker) ValueIn(message, name string, allowed ...string) *Checker {
	if c.skip() {
		return c
	}
	v, ok := c.node.Lookup(name)
	if !ok {
		return c
	}
	for _, a := range allowed {
		if v == a {
			return c
		}
	}
	c.fail(message)
	return c
}

// Satisfies fails if keep reports false for the node.
func (c *Checker) Satisfies(message string, keep func(*node.Node) bool) *Checker {
	if c.skip() {
		return c
	}
	if !keep(c.node) {
		c.fail(message)
	}
	return c
}

// HasChildren fails if the node has no children.
func (c *Checker) HasChildren(message string) *Checker {
	if c.skip() {
		return c
	}
	if len(c.node.Children()) == 0 {
		c.fail(message)
	}
	return c
}

// ChildMinimum fails if fewer than minimum direct children have one of
// types.
func (c *Checker) ChildMinimum(message string, minimum int, types ...template.ID) *Checker {
	if c.skip() {
		return c
	}
	if c.tally(types) < minimum {
		c.fail(message)
	}
	return c
}

// ChildMaximum fails if more than maximum direct children have one of
// types.
func (c *Checker) ChildMaximum(message string, maximum int, types ...template.ID) *Checker {
	if c.skip() {
		return c
	}
	if c.tally(types) > maximum {
		c.fail(message)
	}
	return c
}

// Failed reports whether this chain appended any detail.
func (c *Checker) Failed() bool {
	return len(*c.details) > c.start
}

func (c *Checker) tally(types []template.ID) int {
	total := 0
	seen := make(map[template.ID]bool, len(types))
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		total += c.counts[t]
	}
	return total
}

func (c *Checker) intAttr(name string) (int64, bool) {
	return intAttr(c.node, name)
}

func intAttr(n *node.Node, name string) (int64, bool) {
	raw, ok := n.Lookup(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
