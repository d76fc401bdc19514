// Package scope groups template identifiers into named, closed sets used to
// select which portions of a decoded tree are validated and emitted.
//
// A Scope is declared from template IDs and previously declared scopes. Its
// closure is computed once, at declaration, by unioning the already computed
// closures of the referenced scopes. Because a scope can only reference
// scopes that exist when it is declared, the graph is acyclic and closure
// computation always terminates; no runtime cycle detection exists.
//
// The package-level catalog is declared with package variables. Go
// initializes them in dependency order and rejects initialization cycles
// at compile time, so the ordering invariant is enforced by the build.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/qppconv/internal/template"
)

var (
	// ErrDuplicateName is returned when a graph already holds the name.
	ErrDuplicateName = errors.New("scope: duplicate name")
	// ErrForwardReference is returned when a member scope was not declared
	// earlier in the same graph.
	ErrForwardReference = errors.New("scope: reference to undeclared scope")
	// ErrUnknownScope is returned by Parse for names that match nothing.
	ErrUnknownScope = errors.New("scope: unknown scope")
)

// Member is a direct member of a scope definition: template IDs or another
// scope.
type Member interface {
	closure() template.Set
	label() string
}

type templates []template.ID

func (t templates) closure() template.Set { return template.NewSet(t...) }

func (t templates) label() string {
	names := make([]string, len(t))
	for i, id := range t {
		names[i] = id.String()
	}
	return strings.Join(names, ",")
}

// T wraps template IDs as a member.
func T(ids ...template.ID) Member {
	return templates(ids)
}

// Scope is a named node of the dependency graph.
type Scope struct {
	name    string
	direct  []string
	members template.Set
	graph   *Graph
}

func (s *Scope) closure() template.Set { return s.members }
func (s *Scope) label() string         { return s.name }

// Name returns the declared name.
func (s *Scope) Name() string { return s.name }

// String implements fmt.Stringer.
func (s *Scope) String() string { return s.name }

// Direct returns the labels of the direct members as declared.
func (s *Scope) Direct() []string {
	out := make([]string, len(s.direct))
	copy(out, s.direct)
	return out
}

// Templates returns a copy of the closure.
func (s *Scope) Templates() template.Set {
	out := make(template.Set, len(s.members))
	out.Union(s.members)
	return out
}

// Has reports whether id is in the closure.
func (s *Scope) Has(id template.ID) bool {
	return s.members.Has(id)
}

// Graph is an ordered collection of scopes.
type Graph struct {
	ordered []*Scope
	byKey   map[string]*Scope
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{byKey: make(map[string]*Scope)}
}

// Declare adds a scope. Every member scope must already belong to g.
func (g *Graph) Declare(name string, members ...Member) (*Scope, error) {
	key := normalize(name)
	if key == "" {
		return nil, fmt.Errorf("scope: empty name")
	}
	if _, exists := g.byKey[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	s := &Scope{
		name:    name,
		members: make(template.Set),
		graph:   g,
	}
	for _, m := range members {
		if ref, ok := m.(*Scope); ok {
			if ref == nil || ref.graph != g || g.byKey[normalize(ref.name)] != ref {
				return nil, fmt.Errorf("%w: %s references %v", ErrForwardReference, name, m)
			}
		}
		s.direct = append(s.direct, m.label())
		s.members.Union(m.closure())
	}

	g.ordered = append(g.ordered, s)
	g.byKey[key] = s
	return s, nil
}

// MustDeclare is like Declare but panics on error. It is used for the
// static catalog, where an error is a programming mistake.
func (g *Graph) MustDeclare(name string, members ...Member) *Scope {
	s, err := g.Declare(name, members...)
	if err != nil {
		panic(err)
	}
	return s
}

// ByName looks a scope up by name. Matching is case insensitive and
// whitespace runs match the "_" separator, so "IA Section" and "ia_section"
// resolve to the same scope.
func (g *Graph) ByName(name string) (*Scope, bool) {
	s, ok := g.byKey[normalize(name)]
	return s, ok
}

// All returns the scopes in declaration order.
func (g *Graph) All() []*Scope {
	out := make([]*Scope, len(g.ordered))
	copy(out, g.ordered)
	return out
}

// Names returns every declared name in declaration order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.ordered))
	for i, s := range g.ordered {
		names[i] = s.name
	}
	return names
}

// Parse resolves names to scopes. Unknown names are collected into a single
// error wrapping ErrUnknownScope. Duplicates are dropped.
func (g *Graph) Parse(names []string) ([]*Scope, error) {
	var out []*Scope
	var unknown []string
	seen := make(map[*Scope]bool)
	for _, n := range names {
		s, ok := g.ByName(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (valid: %s)", ErrUnknownScope,
			strings.Join(unknown, ", "), strings.Join(g.Names(), ", "))
	}
	return out, nil
}

// Templates returns the union of the closures of scopes. It is empty, never
// nil, for no scopes; nil entries are ignored.
func Templates(scopes ...*Scope) template.Set {
	out := make(template.Set)
	for _, s := range scopes {
		if s == nil {
			continue
		}
		out.Union(s.members)
	}
	return out
}

// normalize folds case and maps whitespace runs to "_". A new Caser is used
// per call because casers carry state.
func normalize(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return cases.Fold().String(strings.Join(fields, "_"))
}
