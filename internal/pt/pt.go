// Package pt implements the read-only parse tree (§3/§6): the elaborator's
// only input, besides command-line configuration. The tree is built once by
// a parser that sits outside this module's scope and is never mutated by the
// elaborator except for the single `InUse` bit used for instantiation- and
// constant-function-recursion cycle detection.
package pt

import (
	"fmt"

	"vlelab/internal/diag"
)

// Kind differentiates every PT node category named in §3: modules, UDPs,
// ports, IO/decl/param heads, items, statements, expressions, declarations,
// ranges, strengths, delays and attributes. It generalizes the teacher's
// single flat NodeType enumeration across the whole PT capability surface
// instead of one small expression language.
type Kind int

const (
	// Top level.
	KModule Kind = iota
	KUdp
	KPort
	KPortRef

	// Heads.
	KIOHead
	KDeclHead
	KParamHead

	// Items.
	KInstHead
	KInst
	KContAssign
	KParamAssign
	KDefParam
	KInitial
	KAlways
	KTaskDef
	KFuncDef
	KGenBlock
	KGenIf
	KGenCase
	KGenFor
	KSpecify

	// Statements.
	KStmtBlock
	KStmtFork
	KStmtAssign
	KStmtAssignNB
	KStmtIf
	KStmtCase
	KStmtCaseItem
	KStmtFor
	KStmtWhile
	KStmtRepeat
	KStmtWait
	KStmtForever
	KStmtDisable
	KStmtEvent
	KStmtCtrl
	KStmtTaskCall
	KStmtSysTaskCall
	KStmtPca
	KStmtDeassign
	KStmtForce
	KStmtRelease
	KStmtNull

	// Expressions.
	KExprConst
	KExprPrimary
	KExprBitSelect
	KExprPartSelect
	KExprUnary
	KExprBinary
	KExprTernary
	KExprConcat
	KExprMultiConcat
	KExprFuncCall
	KExprSysFuncCall
	KExprLhs

	// Declarations.
	KDecl
	KDeclArray
	KGenvarDecl

	// Auxiliary.
	KRange
	KStrength
	KDelay
	KAttrInst
	KAttrSpec
)

var kindNames = [...]string{
	"Module", "Udp", "Port", "PortRef",
	"IOHead", "DeclHead", "ParamHead",
	"InstHead", "Inst", "ContAssign", "ParamAssign", "DefParam",
	"Initial", "Always", "TaskDef", "FuncDef",
	"GenBlock", "GenIf", "GenCase", "GenFor", "Specify",
	"StmtBlock", "StmtFork", "StmtAssign", "StmtAssignNB", "StmtIf",
	"StmtCase", "StmtCaseItem", "StmtFor", "StmtWhile", "StmtRepeat",
	"StmtWait", "StmtForever", "StmtDisable", "StmtEvent", "StmtCtrl",
	"StmtTaskCall", "StmtSysTaskCall", "StmtPca", "StmtDeassign",
	"StmtForce", "StmtRelease", "StmtNull",
	"ExprConst", "ExprPrimary", "ExprBitSelect", "ExprPartSelect",
	"ExprUnary", "ExprBinary", "ExprTernary", "ExprConcat",
	"ExprMultiConcat", "ExprFuncCall", "ExprSysFuncCall", "ExprLhs",
	"Decl", "DeclArray", "GenvarDecl",
	"Range", "Strength", "Delay", "AttrInst", "AttrSpec",
}

// String renders a Kind for diagnostics and tree dumps.
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Node is the single PT node representation, generalizing the teacher's
// Node/NodeType pair across every PT category. Not every field is
// meaningful for every Kind: Name holds identifiers, declared types, gate
// kinds and operator symbols; Value holds constant literals; Children holds
// structural sub-nodes (port lists, statement lists, expression operands,
// range bounds) in declaration order.
type Node struct {
	Kind     Kind
	Region   diag.Region
	Name     string
	Value    interface{}
	Children []*Node

	// InUse is the one mutable bit the elaborator is permitted to flip on a
	// PT node: set while a module definition or constant-function body is
	// being elaborated/evaluated, cleared on return, and checked on entry to
	// detect instantiation or constant-function recursion cycles (§4.11/§8).
	InUse bool
}

// New builds a Node of the given kind at region r.
func New(kind Kind, r diag.Region) *Node {
	return &Node{Kind: kind, Region: r}
}

// WithName sets n.Name and returns n, for fluent tree construction in tests.
func (n *Node) WithName(name string) *Node {
	n.Name = name
	return n
}

// WithValue sets n.Value and returns n.
func (n *Node) WithValue(v interface{}) *Node {
	n.Value = v
	return n
}

// Add appends children to n's child list and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Child returns the i'th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// FileRegion returns n's source region (VlObj/PtBase capability surface).
func (n *Node) FileRegion() diag.Region { return n.Region }

// String renders n for diagnostics/debug dumps, in the teacher's
// "Kind [value]" style.
func (n *Node) String() string {
	if n == nil {
		return "---> [NIL NODE]"
	}
	if n.Value == nil && n.Name == "" {
		return n.Kind.String()
	}
	if n.Name != "" {
		return fmt.Sprintf("%s %q", n.Kind, n.Name)
	}
	return fmt.Sprintf("%s [%v]", n.Kind, n.Value)
}

// Print recursively dumps n and its children, indenting by depth, mirroring
// the teacher's tree-dump helper.
func (n *Node) Print(depth int) {
	if n == nil {
		fmt.Printf("%*c%s\n", depth<<1, ' ', "---> NIL")
		return
	}
	fmt.Printf("%*c%s\n", depth<<1, ' ', n.String())
	for _, c := range n.Children {
		c.Print(depth + 1)
	}
}

// IsExpr reports whether n's Kind is one of the expression kinds.
func (n *Node) IsExpr() bool { return n != nil && n.Kind >= KExprConst && n.Kind <= KExprLhs }

// IsStmt reports whether n's Kind is one of the statement kinds.
func (n *Node) IsStmt() bool { return n != nil && n.Kind >= KStmtBlock && n.Kind <= KStmtNull }

// IsDecl reports whether n's Kind is one of the declaration kinds.
func (n *Node) IsDecl() bool { return n != nil && n.Kind >= KDecl && n.Kind <= KGenvarDecl }
