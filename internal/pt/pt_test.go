package pt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"vlelab/internal/diag"
)

func r() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func TestNodeKindClassification(t *testing.T) {
	e := BinaryExpr(r(), "+", PrimaryExpr(r(), "a"), ConstExpr(r(), int64(1)))
	assert.True(t, e.IsExpr())
	assert.False(t, e.IsStmt())

	s := StmtIf(r(), PrimaryExpr(r(), "a"), StmtBlock(r(), "", nil), nil)
	assert.True(t, s.IsStmt())
	assert.Len(t, s.Children, 2)
}

func TestModuleShape(t *testing.T) {
	port := New(KPortRef, r()).WithName("clk")
	decl := Decl(r(), "a", nil)
	head := DeclHead(r(), "reg", Range(r(), ConstExpr(r(), int64(7)), ConstExpr(r(), int64(0))), []*Node{decl})
	m := Module(r(), "top", []*Node{port}, []*Node{head})

	assert.Equal(t, "top", m.Name)
	assert.Equal(t, KModule, m.Kind)
	assert.Equal(t, KPort, m.Child(0).Kind)
	assert.Equal(t, 1, len(m.Child(0).Children))
	assert.Equal(t, KDeclHead, m.Child(1).Kind)
}

func TestInUseDefaultsFalse(t *testing.T) {
	m := Module(r(), "top", nil, nil)
	assert.False(t, m.InUse)
	m.InUse = true
	assert.True(t, m.InUse)
}

func TestStringRendering(t *testing.T) {
	n := ConstExpr(r(), int64(42))
	assert.Contains(t, n.String(), "42")

	named := PrimaryExpr(r(), "foo")
	assert.Contains(t, named.String(), "foo")
}
