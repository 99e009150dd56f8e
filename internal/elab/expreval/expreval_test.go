package expreval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/pt"
	"vlelab/internal/value"
	"vlelab/internal/vl"
)

func region() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func newEval() (*Evaluator, *vl.Scope) {
	f := vl.NewFactory()
	sink := diag.NewSink(4)
	ev := New(f, sink, map[string]*pt.Node{})
	scope := vl.NewScope("top", vl.ScopeToplevel, nil)
	return ev, scope
}

func TestEvaluateConstArithmetic(t *testing.T) {
	ev, scope := newEval()
	expr := pt.BinaryExpr(region(), "+", pt.ConstExpr(region(), int64(2)), pt.ConstExpr(region(), int64(3)))
	i, err := ev.EvaluateInt(scope, expr, elab.Default())
	assert.Nil(t, err)
	assert.Equal(t, int64(5), i)
}

func TestEvaluateParameter(t *testing.T) {
	ev, scope := newEval()
	h := ev.Factory.NewParameter(&vl.Parameter{Name: "W", Value: value.NewInt32(8)})
	scope.Declare("W", h)

	expr := pt.PrimaryExpr(region(), "W")
	i, err := ev.EvaluateInt(scope, expr, elab.Default())
	assert.Nil(t, err)
	assert.Equal(t, int64(8), i)
}

func TestEvaluateUndeclaredIdentifierFails(t *testing.T) {
	ev, scope := newEval()
	expr := pt.PrimaryExpr(region(), "nope")
	_, err := ev.EvaluateInt(scope, expr, elab.Default())
	assert.NotNil(t, err)
}

func TestEvaluateHierarchicalNameRejectedInConstantExpr(t *testing.T) {
	ev, scope := newEval()
	expr := pt.PrimaryExpr(region(), "u1.W")
	_, err := ev.EvaluateInt(scope, expr, elab.Default())
	assert.NotNil(t, err)
	entries := ev.Sink.Entries()
	assert.NotEmpty(t, entries)
	assert.Equal(t, diag.CodeHnameInCE, entries[0].Err.Code)
}

func TestTernarySelectsCorrectArm(t *testing.T) {
	ev, scope := newEval()
	expr := pt.New(pt.KExprTernary, region()).Add(
		pt.ConstExpr(region(), int64(1)),
		pt.ConstExpr(region(), int64(10)),
		pt.ConstExpr(region(), int64(20)),
	)
	i, err := ev.EvaluateInt(scope, expr, elab.Default())
	assert.Nil(t, err)
	assert.Equal(t, int64(10), i)
}

func TestConstantFunctionCallReturnsResult(t *testing.T) {
	ev, scope := newEval()
	// function double(input integer a); double = a + a; endfunction
	body := pt.StmtBlock(region(), "", []*pt.Node{
		pt.StmtAssign(region(), true, pt.PrimaryExpr(region(), "double"),
			pt.BinaryExpr(region(), "+", pt.PrimaryExpr(region(), "a"), pt.PrimaryExpr(region(), "a"))),
	})
	def := pt.New(pt.KFuncDef, region()).WithName("double").Add(
		pt.IOHead(region(), "input", nil, []*pt.Node{pt.Decl(region(), "a", nil)}),
		body,
	)
	ev.Funcs["double"] = def

	call := pt.New(pt.KExprFuncCall, region()).WithName("double").Add(pt.ConstExpr(region(), int64(21)))
	i, err := ev.EvaluateInt(scope, call, elab.Default())
	assert.Nil(t, err)
	assert.Equal(t, int64(42), i)
}

func TestRecursiveConstantFunctionFails(t *testing.T) {
	ev, scope := newEval()
	def := pt.New(pt.KFuncDef, region()).WithName("loop")
	def.InUse = true // simulate re-entrant call already in progress.
	ev.Funcs["loop"] = def

	call := pt.New(pt.KExprFuncCall, region()).WithName("loop")
	_, err := ev.EvaluateInt(scope, call, elab.Default())
	assert.NotNil(t, err)
}
