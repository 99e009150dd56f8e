package vl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeDeclareAndFind(t *testing.T) {
	root := NewScope("top", ScopeToplevel, nil)
	child := NewScope("blk", ScopeBlock, root)

	h := Handle{Tag: TagDecl, idx: 0}
	assert.True(t, root.Declare("a", h))
	assert.True(t, root.Declare("a", h), "redeclaring the same handle is idempotent")
	assert.False(t, root.Declare("a", Handle{Tag: TagDecl, idx: 1}), "redeclaring a different handle fails")

	got, ok := root.Find("a")
	assert.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = child.Find("a")
	assert.False(t, ok, "Find is local only")

	got, foundIn, ok := child.FindUp("a")
	assert.True(t, ok)
	assert.Equal(t, h, got)
	assert.Same(t, root, foundIn)
}

func TestFindHierarchical(t *testing.T) {
	root := NewScope("top", ScopeToplevel, nil)
	mid := NewScope("u1", ScopeModule, root)
	leaf := NewScope("u2", ScopeModule, mid)
	h := Handle{Tag: TagDecl, idx: 3}
	leaf.Declare("sig", h)

	got, scope, ok := FindHierarchical(root, []string{"u1", "u2"}, "sig")
	assert.True(t, ok)
	assert.Equal(t, h, got)
	assert.Same(t, leaf, scope)

	_, _, ok = FindHierarchical(root, []string{"nope"}, "sig")
	assert.False(t, ok)
}

func TestTagDictionaryEnumeration(t *testing.T) {
	root := NewScope("top", ScopeToplevel, nil)
	root.Declare("a", Handle{Tag: TagDecl, idx: 0})
	root.Declare("b", Handle{Tag: TagDecl, idx: 1})
	root.Declare("p", Handle{Tag: TagParameter, idx: 0})

	decls := root.NamesByTag(TagDecl)
	assert.ElementsMatch(t, []string{"a", "b"}, decls)

	params := root.ByTag(TagParameter)
	assert.Len(t, params, 1)
}

func TestFactoryRoundTrip(t *testing.T) {
	f := NewFactory()
	h := f.NewDecl(&Decl{Name: "a"})
	assert.Equal(t, "a", f.Decl(h).Name)

	ph := f.NewParameter(&Parameter{Name: "W"})
	assert.False(t, f.Parameter(ph).Frozen)
	f.Parameter(ph).Freeze()
	assert.True(t, f.Parameter(ph).Frozen)
}

func TestAttributeStore(t *testing.T) {
	s := NewAttributeStore()
	h := Handle{Tag: TagModule, idx: 0}
	s.Attach(h, true, Attribute{Name: "full_case"})
	got := s.Lookup(h, true)
	assert.Len(t, got, 1)
	assert.Equal(t, "full_case", got[0].Name)

	assert.Empty(t, s.Lookup(h, false))
}
