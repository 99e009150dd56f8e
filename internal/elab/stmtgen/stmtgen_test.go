package stmtgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/expreval"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/pt"
	"vlelab/internal/rng"
	"vlelab/internal/vl"
)

func region() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func newGen() (*Generator, *vl.Scope, *vl.Factory) {
	f := vl.NewFactory()
	sink := diag.NewSink(4)
	ev := expreval.New(f, sink, map[string]*pt.Node{})
	eg := exprgen.New(ev, sink)
	return New(eg, sink), vl.NewScope("top", vl.ScopeToplevel, nil), f
}

func TestInstantiateAnonymousBlockGetsSyntheticScope(t *testing.T) {
	g, scope, _ := newGen()
	block := pt.StmtBlock(region(), "", []*pt.Node{
		pt.New(pt.KStmtNull, region()),
	})
	s := g.InstantiateStmt(scope, elab.Default(), block)
	assert.Equal(t, vl.StmtBlock, s.Kind)
	assert.NotNil(t, s.Scope)
	assert.NotEmpty(t, s.Name)
}

func TestInstantiateIfElse(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclReg})
	scope.Declare("a", h)

	n := pt.StmtIf(region(), pt.PrimaryExpr(region(), "a"),
		pt.New(pt.KStmtNull, region()), pt.New(pt.KStmtNull, region()))
	s := g.InstantiateStmt(scope, elab.Default(), n)
	assert.Equal(t, vl.StmtIf, s.Kind)
	assert.NotNil(t, s.Body)
	assert.NotNil(t, s.Else)
}

func TestCaseDefaultMovedToTail(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewDecl(&vl.Decl{Name: "sel", Type: vl.DeclReg})
	scope.Declare("sel", h)

	defaultItem := pt.New(pt.KStmtCaseItem, region()).Add(pt.New(pt.KStmtNull, region()))
	labeledItem := pt.New(pt.KStmtCaseItem, region()).Add(pt.ConstExpr(region(), int64(1)), pt.New(pt.KStmtNull, region()))
	caseNode := pt.New(pt.KStmtCase, region()).WithName("case").Add(pt.PrimaryExpr(region(), "sel"), defaultItem, labeledItem)

	s := g.InstantiateStmt(scope, elab.Default(), caseNode)
	assert.Equal(t, vl.StmtCase, s.Kind)
	assert.Len(t, s.Cases, 2)
	assert.Nil(t, s.Cases[len(s.Cases)-1].Labels, "default item moved to the tail")
}

func TestAssignSizesRhsToLhs(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclReg, Range: rangePtr(7, 0)})
	scope.Declare("a", h)

	n := pt.StmtAssign(region(), true, pt.PrimaryExpr(region(), "a"), pt.ConstExpr(region(), int64(1)))
	s := g.InstantiateStmt(scope, elab.Default(), n)
	assert.Equal(t, vl.StmtAssign, s.Kind)
	assert.Equal(t, 8, s.Rhs.Type.Size())
}

func TestPcaRejectsSelect(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclReg, Range: rangePtr(7, 0)})
	scope.Declare("a", h)

	sel := pt.PrimaryExpr(region(), "a", pt.ConstExpr(region(), int64(2)))
	n := pt.New(pt.KStmtPca, region()).Add(sel, pt.ConstExpr(region(), int64(1)))
	g.InstantiateStmt(scope, elab.Default(), n)
	assert.Equal(t, 1, g.Sink.Len())
}

func rangePtr(l, r int) *rng.Range {
	v := rng.New(region(), "", "", l, r)
	return &v
}
