package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type placeholder struct{ word string }

func (p *placeholder) Greet() string { return p.word }

func newPlaceholder() greeter { return &placeholder{word: "hello"} }

func TestRegister_Resolve(t *testing.T) {
	r := New[string, greeter]("test")
	r.Register("id", Value(newPlaceholder))

	g, ok := r.Resolve("id")
	require.True(t, ok)
	assert.Equal(t, "hello", g.Greet())
}

func TestResolve_Unregistered(t *testing.T) {
	r := New[string, greeter]("test")

	g, ok := r.Resolve("missing")
	assert.False(t, ok)
	assert.Nil(t, g)
}

func TestRegister_LastWins(t *testing.T) {
	r := New[string, greeter]("test")
	r.Register("id", Value(newPlaceholder))
	r.Register("id", Value(func() greeter { return &placeholder{word: "replaced"} }))

	g, ok := r.Resolve("id")
	require.True(t, ok)
	assert.Equal(t, "replaced", g.Greet())
	assert.Equal(t, 1, r.Len())
}

func TestInit_ClearsBindings(t *testing.T) {
	r := New[string, greeter]("test")
	r.Register("id", Value(newPlaceholder))

	r.Init()

	_, ok := r.Resolve("id")
	assert.False(t, ok, "registry should have been reset")
	assert.Equal(t, 0, r.Len())

	r.Register("id", Value(newPlaceholder))
	r.Clear()
	assert.False(t, r.Has("id"))
}

func TestResolve_ConstructionFailureIsAbsent(t *testing.T) {
	r := New[string, greeter]("test")
	r.Register("broken", func() (greeter, error) {
		return nil, errors.New("requires capabilities it cannot satisfy")
	})

	g, ok := r.Resolve("broken")
	assert.False(t, ok)
	assert.Nil(t, g)
	assert.True(t, r.Has("broken"), "the binding itself stays registered")
}

func TestResolve_ConstructionPanicIsAbsent(t *testing.T) {
	r := New[string, greeter]("test")
	r.Register("panics", func() (greeter, error) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		_, ok := r.Resolve("panics")
		assert.False(t, ok)
	})
}

func TestResolve_NilFactoryIsAbsent(t *testing.T) {
	r := New[string, greeter]("test")
	r.Register("nil", nil)

	_, ok := r.Resolve("nil")
	assert.False(t, ok)
}

func TestFromEntries(t *testing.T) {
	entries := []Entry[int, greeter]{
		{Key: 3, New: Value(newPlaceholder), Conditional: "THREE"},
		{Key: 1, New: Value(newPlaceholder)},
		{Key: 2, New: Value(newPlaceholder)},
	}
	r := FromEntries("numbers", entries)

	assert.Equal(t, "numbers", r.Name())
	assert.Equal(t, []int{1, 2, 3}, r.Keys())

	b, ok := r.Binding(3)
	require.True(t, ok)
	assert.Equal(t, "THREE", b.Conditional)

	b, ok = r.Binding(1)
	require.True(t, ok)
	assert.Equal(t, "1", b.Conditional, "conditional defaults to the key")

	_, ok = r.Binding(9)
	assert.False(t, ok)
}

func TestResolve_ConcurrentReaders(t *testing.T) {
	r := FromEntries("test", []Entry[string, greeter]{{Key: "id", New: Value(newPlaceholder)}})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g, ok := r.Resolve("id")
				if !ok || g.Greet() != "hello" {
					t.Error("unexpected resolve result")
					return
				}
			}
		}()
	}
	wg.Wait()
}
