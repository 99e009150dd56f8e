package exprgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/expreval"
	"vlelab/internal/pt"
	"vlelab/internal/value"
	"vlelab/internal/vl"
)

func region() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func newGen() (*Generator, *vl.Scope, *vl.Factory) {
	f := vl.NewFactory()
	sink := diag.NewSink(4)
	ev := expreval.New(f, sink, map[string]*pt.Node{})
	return New(ev, sink), vl.NewScope("top", vl.ScopeToplevel, nil), f
}

func TestInstantiateBinaryPromotesWidth(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclReg, Signed: false})
	scope.Declare("a", h)

	expr := pt.BinaryExpr(region(), "+", pt.PrimaryExpr(region(), "a"), pt.ConstExpr(region(), int64(1)))
	e := g.InstantiateExpr(scope, elab.Default(), expr)
	assert.Equal(t, vl.ExprBinary, e.Kind)
	assert.False(t, e.Type.IsNoType())
}

func TestInstantiatePrimaryUndeclaredFails(t *testing.T) {
	g, scope, _ := newGen()
	expr := pt.PrimaryExpr(region(), "nope")
	e := g.InstantiateExpr(scope, elab.Default(), expr)
	assert.True(t, e.Type.IsNoType())
}

func TestInstantiatePrimaryResolvesHierarchicalName(t *testing.T) {
	g, scope, f := newGen()
	u1 := vl.NewScope("u1", vl.ScopeModule, scope)
	h := f.NewDecl(&vl.Decl{Name: "count", Type: vl.DeclReg})
	u1.Declare("count", h)

	expr := pt.PrimaryExpr(region(), "u1.count")
	e := g.InstantiateExpr(scope, elab.Default(), expr)
	assert.Equal(t, vl.ExprPrimary, e.Kind)
	assert.Equal(t, h, e.Ref)
}

func TestInstantiatePrimaryRejectsHierarchicalNameInConstantExpr(t *testing.T) {
	g, scope, f := newGen()
	u1 := vl.NewScope("u1", vl.ScopeModule, scope)
	h := f.NewDecl(&vl.Decl{Name: "count", Type: vl.DeclReg})
	u1.Declare("count", h)

	expr := pt.PrimaryExpr(region(), "u1.count")
	e := g.InstantiateExpr(scope, elab.Default().AsConstant(), expr)
	assert.True(t, e.Type.IsNoType())
	assert.Equal(t, 1, g.Sink.Len())
}

func TestInstantiateBitSelect(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclReg})
	scope.Declare("a", h)
	expr := pt.PrimaryExpr(region(), "a", pt.ConstExpr(region(), int64(2)))
	e := g.InstantiateExpr(scope, elab.Default(), expr)
	assert.Equal(t, vl.ExprBitSelect, e.Kind)
	assert.Equal(t, 1, e.Type.Size())
}

func TestInstantiateLhsRejectsConstant(t *testing.T) {
	g, scope, _ := newGen()
	e := g.InstantiateLhs(scope, elab.Default(), pt.ConstExpr(region(), int64(1)))
	assert.True(t, e.Type.IsNoType())
}

func TestInstantiateLhsConcat(t *testing.T) {
	g, scope, f := newGen()
	ha := f.NewDecl(&vl.Decl{Name: "a", Type: vl.DeclReg})
	hb := f.NewDecl(&vl.Decl{Name: "b", Type: vl.DeclReg})
	scope.Declare("a", ha)
	scope.Declare("b", hb)

	concat := pt.New(pt.KExprConcat, region()).Add(pt.PrimaryExpr(region(), "a"), pt.PrimaryExpr(region(), "b"))
	e := g.InstantiateLhs(scope, elab.Default(), concat)
	assert.Equal(t, vl.ExprLhs, e.Kind)
	assert.Len(t, e.Operands, 2)
}

func TestInstantiateDelayThreeValues(t *testing.T) {
	g, scope, _ := newGen()
	d := pt.New(pt.KDelay, region()).Add(
		pt.ConstExpr(region(), int64(1)),
		pt.ConstExpr(region(), int64(2)),
		pt.ConstExpr(region(), int64(3)),
	)
	delay := g.InstantiateDelay(scope, elab.Default(), d)
	assert.NotNil(t, delay.Rise)
	assert.NotNil(t, delay.Fall)
	assert.NotNil(t, delay.Turnoff)
}

func TestEdgeDescriptorOnlyInEventExpr(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewDecl(&vl.Decl{Name: "clk", Type: vl.DeclReg})
	scope.Declare("clk", h)

	edge := pt.UnaryExpr(region(), "posedge", pt.PrimaryExpr(region(), "clk"))
	bad := g.InstantiateExpr(scope, elab.Default(), edge)
	assert.True(t, bad.Type.IsNoType())

	good := g.InstantiateExpr(scope, elab.Default().AsEvent(), edge)
	assert.False(t, good.Type.IsNoType())
}

func TestConcatRejectsReal(t *testing.T) {
	g, scope, f := newGen()
	h := f.NewParameter(&vl.Parameter{Name: "r", Type: value.RealType(), Value: value.NewReal(1.0)})
	scope.Declare("r", h)

	concat := pt.New(pt.KExprConcat, region()).Add(pt.PrimaryExpr(region(), "r"))
	g.InstantiateExpr(scope, elab.Default(), concat)
	assert.Equal(t, 1, g.Sink.Len())
}
