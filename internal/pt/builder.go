package pt

import "vlelab/internal/diag"

// Module builds a KModule node with the given name, port list and item list,
// the shape every PtModule the elaborator consumes takes (§3/§6).
func Module(r diag.Region, name string, ports []*Node, items []*Node) *Node {
	m := New(KModule, r).WithName(name)
	m.Add(New(KPort, r).Add(ports...))
	m.Add(items...)
	return m
}

// BinaryExpr builds an KExprBinary node for operator op over lhs/rhs.
func BinaryExpr(r diag.Region, op string, lhs, rhs *Node) *Node {
	return New(KExprBinary, r).WithName(op).Add(lhs, rhs)
}

// UnaryExpr builds a KExprUnary node for operator op over operand.
func UnaryExpr(r diag.Region, op string, operand *Node) *Node {
	return New(KExprUnary, r).WithName(op).Add(operand)
}

// ConstExpr builds a KExprConst node wrapping a literal value (an int64,
// float64, a string, which is read as a Verilog string literal, or an
// expreval.Literal for a sized/based number).
func ConstExpr(r diag.Region, v interface{}) *Node {
	return New(KExprConst, r).WithValue(v)
}

// PrimaryExpr builds a KExprPrimary node referring to the identifier name,
// optionally with select indices as children (bit-select/part-select/range
// subscripts, left to right).
func PrimaryExpr(r diag.Region, name string, selects ...*Node) *Node {
	return New(KExprPrimary, r).WithName(name).Add(selects...)
}

// Range builds a KRange node from the left/right bound expressions.
func Range(r diag.Region, left, right *Node) *Node {
	return New(KRange, r).Add(left, right)
}

// DeclHead builds a KDeclHead node for a given declared type keyword (e.g.
// "reg", "wire", "integer", "real", "time", "event") with a shared range and
// a list of KDecl children.
func DeclHead(r diag.Region, typ string, rng *Node, decls []*Node) *Node {
	h := New(KDeclHead, r).WithName(typ)
	if rng != nil {
		h.Add(rng)
	}
	h.Add(decls...)
	return h
}

// Decl builds a KDecl node for a single declared identifier, optionally with
// an initial-value expression and an unpacked-dimension range list.
func Decl(r diag.Region, name string, init *Node, dims ...*Node) *Node {
	d := New(KDecl, r).WithName(name)
	if init != nil {
		d.Add(init)
	}
	d.Add(dims...)
	return d
}

// IOHead builds a KIOHead node (input/output/inout) sharing the declaration
// shape of DeclHead.
func IOHead(r diag.Region, direction string, rng *Node, decls []*Node) *Node {
	h := New(KIOHead, r).WithName(direction)
	if rng != nil {
		h.Add(rng)
	}
	h.Add(decls...)
	return h
}

// InstHead builds a KInstHead node for a module or primitive/UDP
// instantiation of defName, with KInst children.
func InstHead(r diag.Region, defName string, insts []*Node) *Node {
	return New(KInstHead, r).WithName(defName).Add(insts...)
}

// Inst builds a single KInst node with the given instance name and a
// KPortRef child list (named or positional connections).
func Inst(r diag.Region, name string, portRefs []*Node) *Node {
	return New(KInst, r).WithName(name).Add(portRefs...)
}

// StmtBlock builds a KStmtBlock (begin...end) node, optionally named for
// disable-by-name targeting.
func StmtBlock(r diag.Region, name string, stmts []*Node) *Node {
	return New(KStmtBlock, r).WithName(name).Add(stmts...)
}

// StmtIf builds a KStmtIf node: cond, then-branch, and optional else-branch.
func StmtIf(r diag.Region, cond, then, els *Node) *Node {
	n := New(KStmtIf, r).Add(cond, then)
	if els != nil {
		n.Add(els)
	}
	return n
}

// StmtAssign builds a KStmtAssign (blocking) or KStmtAssignNB (nonblocking)
// node for lhs := rhs.
func StmtAssign(r diag.Region, blocking bool, lhs, rhs *Node) *Node {
	k := KStmtAssignNB
	if blocking {
		k = KStmtAssign
	}
	return New(k, r).Add(lhs, rhs)
}

// AttrInst builds a KAttrInst node (a `(* ... *)` attribute instance) from a
// list of KAttrSpec children, each built by AttrSpec.
func AttrInst(r diag.Region, specs []*Node) *Node {
	return New(KAttrInst, r).Add(specs...)
}

// AttrSpec builds a single `name` or `name = value` KAttrSpec entry within
// an attribute instance; value is nil for the bare-name form.
func AttrSpec(r diag.Region, name string, value *Node) *Node {
	n := New(KAttrSpec, r).WithName(name)
	if value != nil {
		n.Add(value)
	}
	return n
}
