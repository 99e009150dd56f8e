package modulegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/declgen"
	"vlelab/internal/elab/expreval"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/elab/itemgen"
	"vlelab/internal/elab/stmtgen"
	"vlelab/internal/pt"
	"vlelab/internal/vl"
)

func region() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func newGen() (*Generator, *vl.Scope, *vl.Factory) {
	f := vl.NewFactory()
	sink := diag.NewSink(8)
	ev := expreval.New(f, sink, map[string]*pt.Node{})
	eg := exprgen.New(ev, sink)
	dg := declgen.New(eg, f, sink)
	sg := stmtgen.New(eg, sink)
	ig := itemgen.New(eg, f, sink)
	g := New(dg, eg, sg, ig, f, sink)
	return g, vl.NewScope("top", vl.ScopeModule, nil), f
}

func TestElaborateDeclHead(t *testing.T) {
	g, scope, f := newGen()
	head := pt.DeclHead(region(), "reg", pt.Range(region(), pt.ConstExpr(region(), int64(7)), pt.ConstExpr(region(), int64(0))),
		[]*pt.Node{pt.Decl(region(), "a", nil)})
	g.ElaborateItem(scope, elab.Default(), &vl.Module{}, head)
	h, ok := scope.Find("a")
	assert.True(t, ok)
	assert.Equal(t, 8, f.Decl(h).Range.Size())
}

func TestElaborateContAssign(t *testing.T) {
	g, scope, f := newGen()
	hdecl := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclNet})
	scope.Declare("a", hdecl)
	assign := pt.New(pt.KContAssign, region()).Add(pt.PrimaryExpr(region(), "a"), pt.ConstExpr(region(), int64(1)))
	header := pt.New(pt.KContAssign, region()).Add(assign)
	g.ElaborateItem(scope, elab.Default(), &vl.Module{}, header)
	assert.Equal(t, 0, g.Sink.Len())
}

func TestElaborateInitialProcess(t *testing.T) {
	g, scope, _ := newGen()
	block := pt.StmtBlock(region(), "", []*pt.Node{pt.New(pt.KStmtNull, region())})
	n := pt.New(pt.KInitial, region()).Add(block)
	g.ElaborateItem(scope, elab.Default(), &vl.Module{}, n)
}

func TestElaborateFuncDefRegistersWithoutElaborating(t *testing.T) {
	g, scope, _ := newGen()
	n := pt.New(pt.KFuncDef, region()).WithName("double")
	g.ElaborateItem(scope, elab.Default(), &vl.Module{}, n)
	_, ok := g.Funcs["double"]
	assert.True(t, ok)
}

func TestElaborateItemAttachesAttributes(t *testing.T) {
	g, scope, _ := newGen()
	spec := pt.AttrSpec(region(), "full_case", nil)
	attr := pt.AttrInst(region(), []*pt.Node{spec})
	head := pt.DeclHead(region(), "reg", nil, []*pt.Node{pt.Decl(region(), "a", nil)})
	head.Children = append([]*pt.Node{attr}, head.Children...)

	mod := &vl.Module{}
	g.ElaborateItem(scope, elab.Default(), mod, head)
	h, ok := scope.Find("a")
	assert.True(t, ok)

	got := g.Attrs.Lookup(h, true)
	assert.Len(t, got, 1)
	assert.Equal(t, "full_case", got[0].Name)
}

func TestElaborateUnknownItemReportsError(t *testing.T) {
	g, scope, _ := newGen()
	n := pt.New(pt.KSpecify+100, region())
	g.ElaborateItem(scope, elab.Default(), &vl.Module{}, n)
	assert.Equal(t, 1, g.Sink.Len())
}
