// Package stmtgen implements the statement generator (§4.8): recursive
// descent over PtStmt producing vl.Stmt trees, including case width
// unification and the restricted LHS environments used by PCA/force/
// deassign/release.
package stmtgen

import (
	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/pt"
	"vlelab/internal/util"
	"vlelab/internal/value"
	"vlelab/internal/vl"
)

// Generator is StmtGen.
type Generator struct {
	Gen  *exprgen.Generator
	Sink *diag.Sink
}

// New returns a Generator.
func New(gen *exprgen.Generator, sink *diag.Sink) *Generator {
	return &Generator{Gen: gen, Sink: sink}
}

// InstantiateStmt implements the StmtGen recursive descent over n (§4.8).
func (g *Generator) InstantiateStmt(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Stmt {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case pt.KStmtBlock:
		return g.instantiateBlock(scope, env, n, vl.StmtBlock, false)
	case pt.KStmtFork:
		return g.instantiateBlock(scope, env, n, vl.StmtFork, true)
	case pt.KStmtIf:
		return g.instantiateIf(scope, env, n)
	case pt.KStmtCase:
		return g.instantiateCase(scope, env, n)
	case pt.KStmtWhile:
		return g.instantiateLoop(scope, env, n, vl.StmtWhile)
	case pt.KStmtRepeat:
		return g.instantiateLoop(scope, env, n, vl.StmtRepeat)
	case pt.KStmtForever:
		return &vl.Stmt{Kind: vl.StmtForever, Region: n.Region, Body: g.InstantiateStmt(scope, env, n.Child(0))}
	case pt.KStmtWait:
		return &vl.Stmt{Kind: vl.StmtWait, Region: n.Region, Cond: g.Gen.InstantiateExpr(scope, env, n.Child(0)), Body: g.InstantiateStmt(scope, env, n.Child(1))}
	case pt.KStmtFor:
		return g.instantiateFor(scope, env, n)
	case pt.KStmtAssign:
		return g.instantiateAssign(scope, env, n, true)
	case pt.KStmtAssignNB:
		return g.instantiateAssign(scope, env, n, false)
	case pt.KStmtPca:
		return &vl.Stmt{Kind: vl.StmtPca, Region: n.Region, Lhs: g.restrictedLhs(scope, env, n.Child(0), true), Rhs: g.Gen.InstantiateExpr(scope, env, n.Child(1))}
	case pt.KStmtDeassign:
		return &vl.Stmt{Kind: vl.StmtDeassign, Region: n.Region, Lhs: g.restrictedLhs(scope, env, n.Child(0), true)}
	case pt.KStmtForce:
		return &vl.Stmt{Kind: vl.StmtForce, Region: n.Region, Lhs: g.restrictedLhs(scope, env, n.Child(0), false), Rhs: g.Gen.InstantiateExpr(scope, env, n.Child(1))}
	case pt.KStmtRelease:
		return &vl.Stmt{Kind: vl.StmtRelease, Region: n.Region, Lhs: g.restrictedLhs(scope, env, n.Child(0), true)}
	case pt.KStmtTaskCall:
		return g.instantiateTaskCall(scope, env, n)
	case pt.KStmtSysTaskCall:
		return g.instantiateSysTaskCall(scope, env, n)
	case pt.KStmtDisable:
		return g.instantiateDisable(scope, n)
	case pt.KStmtEvent:
		return g.instantiateEventTrigger(scope, env, n)
	case pt.KStmtNull:
		return &vl.Stmt{Kind: vl.StmtNull, Region: n.Region}
	default:
		g.Sink.ReportError(diag.New(n.Region, diag.CodeEvalError, "statement kind %s is not a generable statement", n.Kind))
		return &vl.Stmt{Kind: vl.StmtNull, Region: n.Region}
	}
}

// instantiateBlock handles begin/fork, named or anonymous. Both always get
// a child scope (so diagnostics referencing an anonymous block's members
// still have a stable scope name), per §4.8.
func (g *Generator) instantiateBlock(scope *vl.Scope, env elab.Env, n *pt.Node, kind vl.StmtKind, isFork bool) *vl.Stmt {
	name := n.Name
	if name == "" {
		anonKind := util.AnonBlock
		if isFork {
			anonKind = util.AnonFork
		}
		name = util.NewLabel(anonKind)
	}
	child := vl.NewScope(name, vl.ScopeBlock, scope)
	items := make([]*vl.Stmt, 0, len(n.Children))
	for _, c := range n.Children {
		items = append(items, g.InstantiateStmt(child, env, c))
	}
	return &vl.Stmt{Kind: kind, Region: n.Region, Scope: child, Name: name, Items: items}
}

func (g *Generator) instantiateIf(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Stmt {
	cond := g.Gen.InstantiateExpr(scope, env, n.Child(0))
	then := g.InstantiateStmt(scope, env, n.Child(1))
	var els *vl.Stmt
	if len(n.Children) > 2 {
		els = g.InstantiateStmt(scope, env, n.Child(2))
	}
	return &vl.Stmt{Kind: vl.StmtIf, Region: n.Region, Cond: cond, Body: then, Else: els}
}

// instantiateCase implements §4.8's case handling: gather case-items, move
// `default` to the tail (verifying at most one), unify operand widths/sign
// across the selector and every label, and size-fit everything to that
// type.
func (g *Generator) instantiateCase(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Stmt {
	style := vl.CaseExact
	switch n.Name {
	case "casex":
		style = vl.CaseX
	case "casez":
		style = vl.CaseZ
	}

	sel := g.Gen.InstantiateExpr(scope, env, n.Child(0))
	typ := sel.Type
	signed := typ.IsSigned()

	type rawItem struct {
		labels    []*vl.Expr
		body      *vl.Stmt
		isDefault bool
	}
	var items []rawItem
	var defaultCount int
	for _, itemNode := range n.Children[1:] {
		labelNodes := itemNode.Children[:len(itemNode.Children)-1]
		bodyNode := itemNode.Children[len(itemNode.Children)-1]
		body := g.InstantiateStmt(scope, env, bodyNode)
		if len(labelNodes) == 0 {
			defaultCount++
			items = append(items, rawItem{body: body, isDefault: true})
			continue
		}
		var labels []*vl.Expr
		for _, l := range labelNodes {
			le := g.Gen.InstantiateExpr(scope, env.AsConstant(), l)
			if le.Type.IsRealType() {
				g.Sink.ReportError(diag.New(l.Region, diag.CodeIllegalRealType, "a real value cannot label a case item"))
			}
			if le.Type.Size() > typ.Size() {
				typ = value.BitVectorType(typ.IsSigned(), true, le.Type.Size())
			}
			signed = signed && le.Type.IsSigned()
			labels = append(labels, le)
		}
		items = append(items, rawItem{labels: labels, body: body})
	}
	if defaultCount > 1 {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeEvalError, "case statement has more than one default item"))
	}
	typ = value.BitVectorType(signed, true, typ.Size())
	g.Gen.SetReqSize(sel, typ)
	for _, it := range items {
		for _, l := range it.labels {
			g.Gen.SetReqSize(l, typ)
		}
	}

	caseItems := make([]*vl.CaseItem, 0, len(items))
	var defaultItem *vl.CaseItem
	for _, it := range items {
		ci := &vl.CaseItem{Region: n.Region, Labels: it.labels, Body: it.body}
		if it.isDefault {
			defaultItem = ci
			continue
		}
		caseItems = append(caseItems, ci)
	}
	if defaultItem != nil {
		caseItems = append(caseItems, defaultItem)
	}

	return &vl.Stmt{Kind: vl.StmtCase, Region: n.Region, Cond: sel, Cases: caseItems, CaseStyle: style}
}

func (g *Generator) instantiateLoop(scope *vl.Scope, env elab.Env, n *pt.Node, kind vl.StmtKind) *vl.Stmt {
	cond := g.Gen.InstantiateExpr(scope, env, n.Child(0))
	body := g.InstantiateStmt(scope, env, n.Child(1))
	return &vl.Stmt{Kind: kind, Region: n.Region, Cond: cond, Body: body}
}

func (g *Generator) instantiateFor(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Stmt {
	init := g.InstantiateStmt(scope, env, n.Child(0))
	cond := g.Gen.InstantiateExpr(scope, env, n.Child(1))
	step := g.InstantiateStmt(scope, env, n.Child(2))
	body := g.InstantiateStmt(scope, env, n.Child(3))
	return &vl.Stmt{Kind: vl.StmtFor, Region: n.Region, Init: init, Cond: cond, Step: step, Body: body}
}

// instantiateAssign elaborates the LHS in the lhs env, then the RHS using
// the LHS's width as context, per §4.8.
func (g *Generator) instantiateAssign(scope *vl.Scope, env elab.Env, n *pt.Node, blocking bool) *vl.Stmt {
	lhs := g.Gen.InstantiateLhs(scope, env, n.Child(0))
	rhs := g.Gen.InstantiateExpr(scope, env, n.Child(1))
	g.Gen.SetReqSize(rhs, lhs.Type)
	kind := vl.StmtAssignNB
	if blocking {
		kind = vl.StmtAssign
	}
	s := &vl.Stmt{Kind: kind, Region: n.Region, Lhs: lhs, Rhs: rhs}
	if len(n.Children) > 2 {
		s.Delay = g.Gen.InstantiateDelay(scope, env, n.Child(2))
	}
	return s
}

// restrictedLhs implements §4.8's PCA/deassign/force/release LHS
// restriction: when noSelect is set (pca, deassign, release) a target other
// than a bare primary, such as a bit-/part-select, is rejected. Array-element
// targets are not checked.
func (g *Generator) restrictedLhs(scope *vl.Scope, env elab.Env, n *pt.Node, noSelect bool) *vl.Expr {
	if noSelect && (n.Kind != pt.KExprPrimary || len(n.Children) > 0) {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeSelectInPca, "a bit-/part-select is not allowed here"))
	}
	return g.Gen.InstantiateLhs(scope, env, n)
}

func (g *Generator) instantiateTaskCall(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Stmt {
	h, _, ok := scope.FindUp(n.Name)
	if !ok {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeNoSuchFunction, "task %q not found", n.Name))
	}
	args := make([]*vl.Expr, 0, len(n.Children))
	for _, a := range n.Children {
		args = append(args, g.Gen.InstantiateExpr(scope, env, a))
	}
	return &vl.Stmt{Kind: vl.StmtTaskCall, Region: n.Region, Name: n.Name, Target: h, Args: args}
}

func (g *Generator) instantiateSysTaskCall(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Stmt {
	args := make([]*vl.Expr, 0, len(n.Children))
	for _, a := range n.Children {
		args = append(args, g.Gen.InstantiateExpr(scope, env.AsSystemTFArg(), a))
	}
	return &vl.Stmt{Kind: vl.StmtSysTaskCall, Region: n.Region, Name: n.Name, Args: args}
}

func (g *Generator) instantiateDisable(scope *vl.Scope, n *pt.Node) *vl.Stmt {
	h, _, ok := scope.FindUp(n.Name)
	if !ok {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeNotFound, "disable target %q not found", n.Name))
	}
	return &vl.Stmt{Kind: vl.StmtDisable, Region: n.Region, Name: n.Name, Target: h}
}

func (g *Generator) instantiateEventTrigger(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Stmt {
	lhs := g.Gen.InstantiateExpr(scope, env.AsLhs(), n.Child(0))
	if lhs.Ref.Tag == vl.TagDecl {
		if d := g.Gen.Eval.Factory.Decl(lhs.Ref); d != nil && d.Type != vl.DeclEvent {
			g.Sink.ReportError(diag.New(n.Region, diag.CodeNotANamedEvent, "event trigger target is not a named event"))
		}
	}
	return &vl.Stmt{Kind: vl.StmtEvent, Region: n.Region, Lhs: lhs}
}
