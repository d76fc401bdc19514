// Package registry provides the key to implementation lookup tables used for
// decode, validate and encode dispatch.
//
// One Registry is instantiated per behavior kind with its own implementation
// interface, so the kind/key/implementation triple is checked by the
// compiler. Tables are built once from a static list of Entry values and are
// read-only afterwards.
//
// # Concurrency
//
// Resolve, Has and Keys are safe for concurrent use. Register, Init and Clear
// are meant for startup and exclusive test setup; calling them while
// conversions are in flight changes what those conversions observe.
package registry

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/qppconv/internal/logging"
)

// Factory constructs an implementation. Returning an error means the
// implementation cannot be instantiated; Resolve reports it as absent.
type Factory[T any] func() (T, error)

// Entry is one row of a static registration table.
type Entry[K comparable, T any] struct {
	// Key is the dispatch key.
	Key K
	// New constructs the implementation.
	New Factory[T]
	// Conditional names the identifier the implementation is conditional
	// on. It is informational and defaults to the key's string form.
	Conditional string
}

// Binding is a registered factory plus its declared metadata.
type Binding[K comparable, T any] struct {
	Key         K
	Conditional string
	factory     Factory[T]
}

// Registry maps keys to implementation factories.
type Registry[K cmp.Ordered, T any] struct {
	name     string
	mu       sync.RWMutex
	bindings map[K]Binding[K, T]
	logger   *slog.Logger
}

// New creates an empty registry. name appears in log lines.
func New[K cmp.Ordered, T any](name string) *Registry[K, T] {
	return &Registry[K, T]{
		name:     name,
		bindings: make(map[K]Binding[K, T]),
		logger:   logging.New("registry").With(slog.String("registry", name)),
	}
}

// FromEntries creates a registry and registers every entry in order. A key
// listed twice keeps its last entry.
func FromEntries[K cmp.Ordered, T any](name string, entries []Entry[K, T]) *Registry[K, T] {
	r := New[K, T](name)
	for _, e := range entries {
		r.register(e.Key, e.New, e.Conditional)
	}
	return r
}

// Name returns the registry name.
func (r *Registry[K, T]) Name() string {
	return r.name
}

// Register binds key to factory, replacing any previous binding.
func (r *Registry[K, T]) Register(key K, factory Factory[T]) {
	r.register(key, factory, "")
}

func (r *Registry[K, T]) register(key K, factory Factory[T], conditional string) {
	if conditional == "" {
		conditional = fmt.Sprint(key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[key] = Binding[K, T]{Key: key, Conditional: conditional, factory: factory}
}

// Resolve constructs the implementation bound to key. It reports false when
// nothing is bound or when construction fails or panics. Neither case is an
// error: not every key carries every behavior.
func (r *Registry[K, T]) Resolve(key K) (impl T, ok bool) {
	r.mu.RLock()
	b, found := r.bindings[key]
	r.mu.RUnlock()
	if !found || b.factory == nil {
		return impl, false
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug("implementation construction panicked", "key", fmt.Sprint(key), "panic", rec)
			var zero T
			impl, ok = zero, false
		}
	}()

	impl, err := b.factory()
	if err != nil {
		r.logger.Debug("implementation construction failed", "key", fmt.Sprint(key), "error", err)
		var zero T
		return zero, false
	}
	return impl, true
}

// Has reports whether key is bound.
func (r *Registry[K, T]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[key]
	return ok
}

// Binding returns the metadata registered for key.
func (r *Registry[K, T]) Binding(key K) (Binding[K, T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[key]
	return b, ok
}

// Keys returns every bound key in ascending order.
func (r *Registry[K, T]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.bindings))
	for k := range r.bindings {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of bindings.
func (r *Registry[K, T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Init discards every binding; re-register afterwards.
func (r *Registry[K, T]) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[K]Binding[K, T])
}

// Clear is an alias of Init.
func (r *Registry[K, T]) Clear() {
	r.Init()
}

// Value adapts a constructor that cannot fail into a Factory.
func Value[T any](newFn func() T) Factory[T] {
	return func() (T, error) {
		return newFn(), nil
	}
}
