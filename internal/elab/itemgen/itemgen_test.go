package itemgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/expreval"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/pt"
	"vlelab/internal/vl"
)

func region() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func newGen() (*Generator, *vl.Scope, *vl.Factory, *diag.Sink) {
	f := vl.NewFactory()
	sink := diag.NewSink(8)
	ev := expreval.New(f, sink, map[string]*pt.Node{})
	eg := exprgen.New(ev, sink)
	g := New(eg, f, sink)
	g.Elaborate = func(scope *vl.Scope, env elab.Env, mod *vl.Module, item *pt.Node) {}
	return g, vl.NewScope("top", vl.ScopeToplevel, nil), f, sink
}

func TestInstantiateContAssign(t *testing.T) {
	g, scope, f, _ := newGen()
	h := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclNet})
	scope.Declare("a", h)

	assign := pt.New(pt.KContAssign, region()).Add(pt.PrimaryExpr(region(), "a"), pt.ConstExpr(region(), int64(1)))
	header := pt.New(pt.KContAssign, region()).Add(assign)

	handles := g.InstantiateContAssign(scope, elab.Default(), header)
	assert.Len(t, handles, 1)
	ca := f.ContAssign(handles[0])
	assert.NotNil(t, ca.Lhs)
	assert.NotNil(t, ca.Rhs)
}

func TestInstantiatePrimitiveHeadArityCheck(t *testing.T) {
	g, scope, _, sink := newGen()
	h1 := declInScope(g.Factory, scope, "o")
	h2 := declInScope(g.Factory, scope, "i")
	_ = h1
	_ = h2

	inst := pt.Inst(region(), "", []*pt.Node{pt.PrimaryExpr(region(), "o"), pt.PrimaryExpr(region(), "i")})
	head := pt.New(pt.KInstHead, region()).WithName("and").Add(inst)

	handles := g.InstantiatePrimitiveHead(scope, elab.Default(), head)
	assert.Len(t, handles, 0, "and requires at least 3 terminals")
	assert.Equal(t, 1, sink.Len())
}

func TestInstantiatePrimitiveHeadAccepted(t *testing.T) {
	g, scope, f, sink := newGen()
	declInScope(g.Factory, scope, "o")
	declInScope(g.Factory, scope, "a")
	declInScope(g.Factory, scope, "b")

	inst := pt.Inst(region(), "g1", []*pt.Node{
		pt.PrimaryExpr(region(), "o"), pt.PrimaryExpr(region(), "a"), pt.PrimaryExpr(region(), "b"),
	})
	head := pt.New(pt.KInstHead, region()).WithName("and").Add(inst)

	handles := g.InstantiatePrimitiveHead(scope, elab.Default(), head)
	assert.Len(t, handles, 1)
	assert.Equal(t, 0, sink.Len())
	p := f.Primitive(handles[0])
	assert.Equal(t, "and", p.Kind)
	assert.Len(t, p.Terminals, 3)
	declHandle, ok := scope.Find("g1")
	assert.True(t, ok)
	assert.Equal(t, handles[0], declHandle)
}

func TestInstantiateInstHeadQueuesPendingInstance(t *testing.T) {
	g, scope, _, _ := newGen()
	inst := pt.Inst(region(), "u1", []*pt.Node{pt.PrimaryExpr(region(), "a")})
	head := pt.InstHead(region(), "sub", []*pt.Node{inst})

	g.InstantiateInstHead(scope, elab.Default(), head)
	pending := g.PendingInstances()
	assert.Len(t, pending, 1)
	assert.Equal(t, "sub", pending[0].DefName)
	assert.Equal(t, "u1", pending[0].InstName)
	assert.Nil(t, pending[0].Range)

	assert.Empty(t, g.PendingInstances(), "queue is drained by the first read")
}

func TestInstantiateDefParamQueues(t *testing.T) {
	g, scope, _, _ := newGen()
	n := pt.New(pt.KDefParam, region()).Add(pt.ConstExpr(region(), int64(4)))
	g.InstantiateDefParam(scope, elab.Default(), n)
	assert.Len(t, g.PendingDefParams(), 1)
}

func TestInstantiateGenIfSelectsTrueBranch(t *testing.T) {
	g, scope, _, _ := newGen()
	var seen []string
	g.Elaborate = func(scope *vl.Scope, env elab.Env, mod *vl.Module, item *pt.Node) {
		seen = append(seen, item.Name)
	}

	thenBranch := pt.New(pt.KGenBlock, region()).Add(pt.New(pt.KStmtNull, region()).WithName("then-item"))
	elseBranch := pt.New(pt.KGenBlock, region()).Add(pt.New(pt.KStmtNull, region()).WithName("else-item"))
	n := pt.New(pt.KGenIf, region()).Add(pt.ConstExpr(region(), int64(1)), thenBranch, elseBranch)

	g.InstantiateGenerate(scope, elab.Default(), &vl.Module{}, n)
	assert.Equal(t, []string{"then-item"}, seen)
}

func TestInstantiateGenCaseDuplicateMatch(t *testing.T) {
	g, scope, _, sink := newGen()
	g.Elaborate = func(scope *vl.Scope, env elab.Env, mod *vl.Module, item *pt.Node) {}

	item1 := pt.New(pt.KStmtCaseItem, region()).Add(pt.ConstExpr(region(), int64(1)), pt.New(pt.KGenBlock, region()))
	item2 := pt.New(pt.KStmtCaseItem, region()).Add(pt.ConstExpr(region(), int64(1)), pt.New(pt.KGenBlock, region()))
	n := pt.New(pt.KGenCase, region()).Add(pt.ConstExpr(region(), int64(1)), item1, item2)

	g.InstantiateGenerate(scope, elab.Default(), &vl.Module{}, n)
	assert.Equal(t, 1, sink.Len())
}

func TestInstantiateGenForExpandsIterations(t *testing.T) {
	g, scope, f, _ := newGen()
	gh := f.NewGenvar(&vl.Genvar{Name: "i"})
	scope.Declare("i", gh)

	var seen []string
	g.Elaborate = func(scope *vl.Scope, env elab.Env, mod *vl.Module, item *pt.Node) {
		seen = append(seen, item.Name)
	}

	body := pt.New(pt.KGenBlock, region()).Add(pt.New(pt.KStmtNull, region()).WithName("body-item"))
	n := pt.New(pt.KGenFor, region()).Add(
		pt.PrimaryExpr(region(), "i"),
		pt.ConstExpr(region(), int64(0)),
		pt.BinaryExpr(region(), "<", pt.PrimaryExpr(region(), "i"), pt.ConstExpr(region(), int64(2))),
		pt.BinaryExpr(region(), "+", pt.PrimaryExpr(region(), "i"), pt.ConstExpr(region(), int64(1))),
		body,
	)

	g.InstantiateGenerate(scope, elab.Default(), &vl.Module{}, n)
	assert.Len(t, seen, 2)
	assert.False(t, f.Genvar(gh).InUse, "in_use flag is cleared after the loop completes")
}

func declInScope(f *vl.Factory, scope *vl.Scope, name string) vl.Handle {
	h := f.NewDecl(&vl.Decl{Name: name, Type: vl.DeclNet, NetType: "wire"})
	scope.Declare(name, h)
	return h
}
