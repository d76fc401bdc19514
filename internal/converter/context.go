package converter

import (
	"github.com/roach88/qppconv/internal/scope"
	"github.com/roach88/qppconv/internal/template"
)

// Context holds the per-conversion settings. The zero value is not usable;
// create one with NewContext.
type Context struct {
	scopes       []*scope.Scope
	doValidation bool
}

// NewContext returns settings with no scope (the full template universe)
// and validation enabled.
func NewContext() *Context {
	return &Context{doValidation: true}
}

// SetScope restricts the conversion to the closure of scopes. Nil entries
// are ignored, and an empty list resets to the full universe.
func (c *Context) SetScope(scopes ...*scope.Scope) *Context {
	c.scopes = c.scopes[:0]
	for _, s := range scopes {
		if s != nil {
			c.scopes = append(c.scopes, s)
		}
	}
	return c
}

// SetScopeNames resolves names against the scope catalog and applies them.
// Unknown names are reported together and leave the settings unchanged.
func (c *Context) SetScopeNames(names ...string) error {
	scopes, err := scope.Parse(names)
	if err != nil {
		return err
	}
	c.SetScope(scopes...)
	return nil
}

// Scopes returns the selected scopes; empty means the full universe.
func (c *Context) Scopes() []*scope.Scope {
	return append([]*scope.Scope(nil), c.scopes...)
}

// ScopeNames returns the names of the selected scopes.
func (c *Context) ScopeNames() []string {
	names := make([]string, len(c.scopes))
	for i, s := range c.scopes {
		names[i] = s.Name()
	}
	return names
}

// Selected returns the template set to decode, validate and encode, or nil
// when no scope is set.
func (c *Context) Selected() template.Set {
	if len(c.scopes) == 0 {
		return nil
	}
	return scope.Templates(c.scopes...)
}

// SetDoValidation enables or disables the validation phase.
func (c *Context) SetDoValidation(on bool) *Context {
	c.doValidation = on
	return c
}

// DoValidation reports whether the validation phase runs.
func (c *Context) DoValidation() bool {
	return c.doValidation
}
