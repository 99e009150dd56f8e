package driver

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"vlelab/internal/diag"
	"vlelab/internal/pt"
)

func region() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func TestElaborateSingleModule(t *testing.T) {
	head := pt.DeclHead(region(), "reg", pt.Range(region(), pt.ConstExpr(region(), int64(7)), pt.ConstExpr(region(), int64(0))),
		[]*pt.Node{pt.Decl(region(), "a", nil)})
	mod := pt.Module(region(), "leaf", nil, []*pt.Node{head})

	defs := map[string]*pt.Node{"leaf": mod}
	d := New(defs, zerolog.Nop(), 2)
	handles := d.Elaborate([]string{"leaf"})

	assert.Len(t, handles, 1)
	assert.Equal(t, 0, d.Sink.Len())
	m := d.Factory.Module(handles[0])
	assert.Equal(t, "leaf", m.DefName)
	h, ok := m.Scope.Find("a")
	assert.True(t, ok)
	assert.Equal(t, 8, d.Factory.Decl(h).Range.Size())
	assert.Contains(t, m.Items, h, "the decl's handle is recorded on the owning module's Items")
}

func TestElaborateNestedInstance(t *testing.T) {
	leaf := pt.Module(region(), "leaf", nil, nil)
	subInst := pt.Inst(region(), "u1", nil)
	subHead := pt.InstHead(region(), "leaf", []*pt.Node{subInst})
	top := pt.Module(region(), "top", nil, []*pt.Node{subHead})

	defs := map[string]*pt.Node{"leaf": leaf, "top": top}
	d := New(defs, zerolog.Nop(), 4)
	handles := d.Elaborate([]string{"top"})

	assert.Len(t, handles, 1)
	assert.Equal(t, 0, d.Sink.Len())
	top0 := d.Factory.Module(handles[0])
	h, ok := top0.Scope.Find("u1")
	assert.True(t, ok)
	assert.Equal(t, "leaf", d.Factory.Module(h).DefName)
	assert.Contains(t, top0.Items, h, "the sub-instance's handle is recorded on top's Items via appendItem")
}

func TestElaborateUnknownModuleReportsError(t *testing.T) {
	d := New(map[string]*pt.Node{}, zerolog.Nop(), 1)
	handles := d.Elaborate([]string{"missing"})
	assert.Empty(t, handles)
	assert.Equal(t, 1, d.Sink.Len())
}

func TestElaborateRecursiveModuleReportsError(t *testing.T) {
	selfInst := pt.Inst(region(), "u1", nil)
	selfHead := pt.InstHead(region(), "cyclic", []*pt.Node{selfInst})
	cyclic := pt.Module(region(), "cyclic", nil, []*pt.Node{selfHead})

	d := New(map[string]*pt.Node{"cyclic": cyclic}, zerolog.Nop(), 1)
	d.Elaborate([]string{"cyclic"})
	assert.True(t, d.Sink.HasErrors())
}

func TestDefparamOverridesParameter(t *testing.T) {
	paramDecl := pt.Decl(region(), "W", pt.ConstExpr(region(), int64(4)))
	paramHead := pt.New(pt.KParamHead, region()).Add(paramDecl)
	leaf := pt.Module(region(), "leaf", nil, []*pt.Node{paramHead})

	defparam := pt.New(pt.KDefParam, region()).WithName("u1.W").Add(pt.ConstExpr(region(), int64(16)))
	subInst := pt.Inst(region(), "u1", nil)
	subHead := pt.InstHead(region(), "leaf", []*pt.Node{subInst})
	top := pt.Module(region(), "top", nil, []*pt.Node{subHead, defparam})

	defs := map[string]*pt.Node{"leaf": leaf, "top": top}
	d := New(defs, zerolog.Nop(), 1)
	handles := d.Elaborate([]string{"top"})

	topMod := d.Factory.Module(handles[0])
	subHandle, ok := topMod.Scope.Find("u1")
	assert.True(t, ok)
	subMod := d.Factory.Module(subHandle)
	wHandle, ok := subMod.Scope.Find("W")
	assert.True(t, ok)
	w := d.Factory.Parameter(wHandle)
	n, _ := w.Value.AsInt64()
	assert.Equal(t, int64(16), n, "defparam overrides the module's own default")
	assert.True(t, w.Frozen)
}
