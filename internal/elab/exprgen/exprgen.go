// Package exprgen implements the expression generator (§4.6):
// instantiate_expr, instantiate_lhs and instantiate_delay, which turn a PT
// expression into an elaborated, typed vl.Expr.
package exprgen

import (
	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/expreval"
	"vlelab/internal/pt"
	"vlelab/internal/value"
	"vlelab/internal/vl"
)

// selfDeterminedOps size their operands self-determined regardless of the
// surrounding context, per §4.6.
var selfDeterminedOps = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true,
	"==": true, "!=": true, "===": true, "!==": true,
	"&&": true, "||": true,
	"<<": true, ">>": true, ">>>": true,
}

// Generator is ExprGen. Eval provides constant-expression support for
// sizing and for operands that must themselves be constant (range bounds,
// array dimensions, parameter defaults).
type Generator struct {
	Eval *expreval.Evaluator
	Sink *diag.Sink
}

// New returns a Generator backed by ev for constant-expression needs.
func New(ev *expreval.Evaluator, sink *diag.Sink) *Generator {
	return &Generator{Eval: ev, Sink: sink}
}

func (g *Generator) fail(r diag.Region, code diag.Code, format string, args ...interface{}) *vl.Expr {
	g.Sink.ReportError(diag.New(r, code, format, args...))
	return &vl.Expr{Kind: vl.ExprConst, Region: r, Type: value.Type{Kind: value.NoType}}
}

// InstantiateExpr implements instantiate_expr(scope, env, pt_expr) (§4.6),
// unwrapping a parenthesised Null operator transparently since this PT
// representation never introduces one (a bare child is already unwrapped).
func (g *Generator) InstantiateExpr(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case pt.KExprConst:
		return g.instantiateConst(n)
	case pt.KExprUnary:
		return g.instantiateUnary(scope, env, n)
	case pt.KExprBinary:
		return g.instantiateBinary(scope, env, n)
	case pt.KExprTernary:
		return g.instantiateTernary(scope, env, n)
	case pt.KExprConcat:
		return g.instantiateConcat(scope, env, n)
	case pt.KExprMultiConcat:
		return g.instantiateMultiConcat(scope, env, n)
	case pt.KExprPrimary:
		return g.instantiatePrimary(scope, env, n)
	case pt.KExprFuncCall:
		return g.instantiateFuncCall(scope, env, n)
	case pt.KExprSysFuncCall:
		return g.instantiateSysFuncCall(scope, env, n)
	default:
		return g.fail(n.Region, diag.CodeEvalError, "expression kind %s is not a generable expression", n.Kind)
	}
}

func (g *Generator) instantiateConst(n *pt.Node) *vl.Expr {
	v := g.Eval.EvaluateExpr(nil, n, elab.Default())
	return &vl.Expr{Kind: vl.ExprConst, Region: n.Region, Type: v.Typ, Const: v}
}

func (g *Generator) instantiateUnary(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	if (n.Name == "posedge" || n.Name == "negedge") && !env.EventExpr {
		return g.fail(n.Region, diag.CodeIllegalEdgeDescriptor, "edge descriptor %q is only legal in an event expression", n.Name)
	}
	if n.Name != "posedge" && n.Name != "negedge" && env.EventExpr {
		return g.fail(n.Region, diag.CodeIllegalEdgeDescriptor, "non-edge operator inside an event expression")
	}
	operand := g.InstantiateExpr(scope, env, n.Child(0))
	typ := value.BitVectorType(false, true, 1)
	if n.Name == "~" || n.Name == "-" || n.Name == "+" {
		typ = operand.Type
	}
	return &vl.Expr{Kind: vl.ExprUnary, Region: n.Region, Op: n.Name, Type: typ, Operands: []*vl.Expr{operand}}
}

func (g *Generator) instantiateBinary(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	lhs := g.InstantiateExpr(scope, env, n.Child(0))
	rhs := g.InstantiateExpr(scope, env, n.Child(1))
	var typ value.Type
	if selfDeterminedOps[n.Name] {
		typ = value.BitVectorType(false, true, 1)
	} else {
		typ = value.PromoteBinary(lhs.Type, rhs.Type)
	}
	e := &vl.Expr{Kind: vl.ExprBinary, Region: n.Region, Op: n.Name, Type: typ, Operands: []*vl.Expr{lhs, rhs}}
	if !selfDeterminedOps[n.Name] {
		g.setReqSize(e.Operands[0], typ)
		g.setReqSize(e.Operands[1], typ)
	}
	return e
}

func (g *Generator) instantiateTernary(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	cond := g.InstantiateExpr(scope, env, n.Child(0))
	thenE := g.InstantiateExpr(scope, env, n.Child(1))
	elseE := g.InstantiateExpr(scope, env, n.Child(2))
	typ := value.PromoteBinary(thenE.Type, elseE.Type)
	g.setReqSize(thenE, typ)
	g.setReqSize(elseE, typ)
	return &vl.Expr{Kind: vl.ExprTernary, Region: n.Region, Type: typ, Operands: []*vl.Expr{cond, thenE, elseE}}
}

func (g *Generator) instantiateConcat(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	ops := make([]*vl.Expr, 0, len(n.Children))
	width := 0
	for _, c := range n.Children {
		e := g.InstantiateExpr(scope, env, c)
		if e.Type.IsRealType() {
			g.Sink.ReportError(diag.New(c.Region, diag.CodeIllegalRealType, "real operand is illegal inside a concatenation"))
		}
		width += e.Type.Size()
		ops = append(ops, e)
	}
	return &vl.Expr{Kind: vl.ExprConcat, Region: n.Region, Type: value.BitVectorType(false, true, width), Operands: ops}
}

func (g *Generator) instantiateMultiConcat(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	repeat, err := g.Eval.EvaluateInt(scope, n.Child(0), env.AsConstant())
	if err != nil {
		g.Sink.ReportError(err)
		repeat = 0
	}
	ops := make([]*vl.Expr, 0, len(n.Children)-1)
	unitWidth := 0
	for _, c := range n.Children[1:] {
		e := g.InstantiateExpr(scope, env, c)
		unitWidth += e.Type.Size()
		ops = append(ops, e)
	}
	idx := g.InstantiateExpr(scope, env.AsConstant(), n.Child(0))
	return &vl.Expr{
		Kind: vl.ExprMultiConcat, Region: n.Region,
		Type:  value.BitVectorType(false, true, unitWidth*int(repeat)),
		Index: idx, Operands: ops,
	}
}

// resolvePrimaryName resolves a Primary's identifier, trying a plain
// upward scope search first and falling back to a dotted hierarchical
// lookup ("top.u1.count") when the name itself carries a '.', the same
// hierarchical-name resolution a defparam target uses (§4.6). A constant
// context never takes the hierarchical fallback: a hierarchical name is
// illegal inside a constant expression regardless of what it resolves to,
// reported ok=false with hnameInCE set so the caller picks the right code.
func (g *Generator) resolvePrimaryName(scope *vl.Scope, env elab.Env, name string) (h vl.Handle, ok bool, hnameInCE bool) {
	if h, _, ok := scope.FindUp(name); ok {
		return h, true, false
	}
	branches, tail := vl.SplitHierName(name)
	if len(branches) == 0 {
		return vl.Handle{}, false, false
	}
	if env.Constant || env.InsideConstantFunction {
		return vl.Handle{}, false, true
	}
	h, _, ok = vl.FindHierarchical(scope, branches, tail)
	return h, ok, false
}

// instantiatePrimary resolves a name and applies any select suffix, per
// §4.6's Primary handling.
func (g *Generator) instantiatePrimary(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	h, ok, hnameInCE := g.resolvePrimaryName(scope, env, n.Name)
	if !ok {
		if hnameInCE {
			return g.fail(n.Region, diag.CodeHnameInCE, "hierarchical name %q is not allowed in a constant expression", n.Name)
		}
		return g.fail(n.Region, diag.CodeNotFound, "identifier %q not found", n.Name)
	}
	if (env.Constant || env.InsideConstantFunction) && h.Tag != vl.TagParameter && h.Tag != vl.TagGenvar {
		return g.fail(n.Region, diag.CodeNotAParam, "%q is not usable in a constant expression", n.Name)
	}

	var typ value.Type
	switch h.Tag {
	case vl.TagParameter:
		typ = g.Eval.Factory.Parameter(h).Type
	case vl.TagGenvar:
		typ = value.IntType()
	case vl.TagDecl:
		typ = g.Eval.Factory.Decl(h).ValueType()
	default:
		return g.fail(n.Region, diag.CodeIllegalObject, "%q cannot be referenced here", n.Name)
	}

	e := &vl.Expr{Kind: vl.ExprPrimary, Region: n.Region, Type: typ, Ref: h}
	if len(n.Children) == 0 {
		return e
	}
	if typ.IsRealType() {
		return g.fail(n.Region, diag.CodeSelectOnReal, "cannot select a bit from a real value")
	}
	return g.applySelect(scope, env, n, e)
}

func (g *Generator) applySelect(scope *vl.Scope, env elab.Env, n *pt.Node, base *vl.Expr) *vl.Expr {
	if len(n.Children) == 1 {
		idx := g.InstantiateExpr(scope, env, n.Children[0])
		return &vl.Expr{Kind: vl.ExprBitSelect, Region: n.Region, Type: value.BitVectorType(false, false, 1), Operands: []*vl.Expr{base}, Index: idx}
	}
	left := g.InstantiateExpr(scope, env.AsConstant(), n.Children[0])
	right := g.InstantiateExpr(scope, env.AsConstant(), n.Children[1])
	l, lok := left.Const.AsInt64()
	r, rok := right.Const.AsInt64()
	width := 1
	if lok && rok {
		lo, hi := int(l), int(r)
		if lo > hi {
			lo, hi = hi, lo
		}
		width = hi - lo + 1
	}
	return &vl.Expr{Kind: vl.ExprPartSelect, Region: n.Region, Type: value.BitVectorType(false, true, width), Operands: []*vl.Expr{base}, Left: left, Right: right}
}

func (g *Generator) instantiateFuncCall(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	if env.Constant || env.InsideConstantFunction {
		def, ok := g.Eval.Funcs[n.Name]
		if !ok {
			return g.fail(n.Region, diag.CodeNotAConstantFunction, "%q is not a constant function", n.Name)
		}
		if def.InUse {
			return g.fail(n.Region, diag.CodeUsesItself, "constant function %q is used recursively", n.Name)
		}
	}
	args := make([]*vl.Expr, 0, len(n.Children))
	for _, a := range n.Children {
		args = append(args, g.InstantiateExpr(scope, env, a))
	}
	v := g.Eval.EvaluateExpr(scope, n, env)
	return &vl.Expr{Kind: vl.ExprFuncCall, Region: n.Region, Op: n.Name, Type: v.Typ, Const: v, Operands: args}
}

func (g *Generator) instantiateSysFuncCall(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	if env.Constant || env.InsideConstantFunction {
		return g.fail(n.Region, diag.CodeSysfuncInCE, "system function %q is never constant", n.Name)
	}
	args := make([]*vl.Expr, 0, len(n.Children))
	for _, a := range n.Children {
		args = append(args, g.InstantiateExpr(scope, env, a))
	}
	return &vl.Expr{Kind: vl.ExprSysFuncCall, Region: n.Region, Op: n.Name, Type: value.IntType(), Operands: args}
}

// SetReqSize is the exported entry point to set_reqsize, for callers (such
// as StmtGen's assignment handling) that must size an already-instantiated
// expression to a context width determined after the fact.
func (g *Generator) SetReqSize(e *vl.Expr, typ value.Type) { g.setReqSize(e, typ) }

// setReqSize implements §4.6's set_reqsize: recursively propagate a
// context-determined width/sign down into operator operands; a constant
// takes the context type, while a primary or select is self-sized and left
// untouched by set_reqsize (set_selfsize is a no-op here since
// instantiation already fixed its width).
func (g *Generator) setReqSize(e *vl.Expr, typ value.Type) {
	if e == nil {
		return
	}
	switch e.Kind {
	case vl.ExprBinary:
		if selfDeterminedOps[e.Op] {
			return
		}
		e.Type = typ
		for _, o := range e.Operands {
			g.setReqSize(o, typ)
		}
	case vl.ExprUnary:
		if e.Op == "~" || e.Op == "-" || e.Op == "+" {
			e.Type = typ
			for _, o := range e.Operands {
				g.setReqSize(o, typ)
			}
		}
	case vl.ExprTernary:
		e.Type = typ
		g.setReqSize(e.Operands[1], typ)
		g.setReqSize(e.Operands[2], typ)
	case vl.ExprConst:
		e.Type = typ
	default:
		// Primary, select, concat, funccall: self-determined, left as is.
	}
}

// InstantiateLhs implements instantiate_lhs(scope, env, pt_expr) (§4.6): an
// assignment target must reduce to a primary, a bit-/part-select of a
// primary, or a concatenation of such — never a constant or a function
// call.
func (g *Generator) InstantiateLhs(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Expr {
	env = env.AsLhs()
	switch n.Kind {
	case pt.KExprPrimary:
		return g.instantiatePrimary(scope, env, n)
	case pt.KExprBitSelect, pt.KExprPartSelect:
		return g.instantiatePrimary(scope, env, n)
	case pt.KExprConcat:
		ops := make([]*vl.Expr, 0, len(n.Children))
		width := 0
		for _, c := range n.Children {
			e := g.InstantiateLhs(scope, env, c)
			width += e.Type.Size()
			ops = append(ops, e)
		}
		return &vl.Expr{Kind: vl.ExprLhs, Region: n.Region, Type: value.BitVectorType(false, true, width), Operands: ops}
	case pt.KExprConst:
		return g.fail(n.Region, diag.CodeIllegalConstantInLhs, "a constant cannot appear in an assignment target")
	case pt.KExprFuncCall:
		return g.fail(n.Region, diag.CodeIllegalFuncCallInLhs, "a function call cannot appear in an assignment target")
	case pt.KExprSysFuncCall:
		return g.fail(n.Region, diag.CodeIllegalSysFuncCallInLhs, "a system function call cannot appear in an assignment target")
	default:
		return g.fail(n.Region, diag.CodeIllegalOperatorInLhs, "operator %s cannot appear in an assignment target", n.Kind)
	}
}

// InstantiateDelay implements instantiate_delay(scope, pt_delay) (§4.6):
// elaborates up to three delay values (rise, fall, turn-off).
func (g *Generator) InstantiateDelay(scope *vl.Scope, env elab.Env, n *pt.Node) *vl.Delay {
	if n == nil {
		return nil
	}
	d := &vl.Delay{Region: n.Region}
	if len(n.Children) > 0 {
		d.Rise = g.InstantiateExpr(scope, env, n.Children[0])
	}
	if len(n.Children) > 1 {
		d.Fall = g.InstantiateExpr(scope, env, n.Children[1])
	}
	if len(n.Children) > 2 {
		d.Turnoff = g.InstantiateExpr(scope, env, n.Children[2])
	}
	return d
}
