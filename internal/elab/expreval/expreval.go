// Package expreval implements the constant-expression evaluator (§4.5):
// evaluate_expr and its typed convenience wrappers, plus constant-function
// execution with cycle detection and deduplication of concurrent identical
// calls.
package expreval

import (
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/sync/singleflight"

	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/pt"
	"vlelab/internal/value"
	"vlelab/internal/vl"
)

// frame is a constant function's local call frame: its formal/local
// variable bindings, isolated from the enclosing scope's run-time decls
// since a constant function body may reference only its own locals,
// parameters and genvars (§3's invariant on constant-function purity).
type frame struct {
	vars map[string]value.Value
}

// Evaluator is ExprEval. It is shared read-only state: Factory and Sink are
// safe for concurrent use from the phase-2/phase-3 stub queues (§5), and the
// singleflight group deduplicates concurrent evaluations of the same
// constant-function call: callers that overlap in time share one execution.
// Results are not cached, so a later identical call executes the body again.
type Evaluator struct {
	Factory *vl.Factory
	Sink    *diag.Sink
	Funcs   map[string]*pt.Node // constant function name -> KFuncDef PT node.
	group   singleflight.Group
}

// New returns an Evaluator over the given entity factory and diagnostics
// sink, with funcs as the table of known constant-function definitions.
func New(factory *vl.Factory, sink *diag.Sink, funcs map[string]*pt.Node) *Evaluator {
	return &Evaluator{Factory: factory, Sink: sink, Funcs: funcs}
}

// fail reports err to the sink and returns a VError value so callers can
// keep evaluating sibling expressions instead of aborting.
func (ev *Evaluator) fail(r diag.Region, code diag.Code, format string, args ...interface{}) value.Value {
	err := diag.New(r, code, format, args...)
	ev.Sink.ReportError(err)
	return value.NewError(err.Error())
}

// EvaluateExpr implements evaluate_expr(scope, pt_expr): recursive-descent
// interpretation of a PT expression into a VlValue (§4.5).
func (ev *Evaluator) EvaluateExpr(scope *vl.Scope, n *pt.Node, env elab.Env) value.Value {
	return ev.evalWithFrame(scope, n, env, nil)
}

func (ev *Evaluator) evalWithFrame(scope *vl.Scope, n *pt.Node, env elab.Env, fr *frame) value.Value {
	if n == nil {
		return value.NoValue
	}
	switch n.Kind {
	case pt.KExprConst:
		return ev.evalConst(n)
	case pt.KExprUnary:
		operand := ev.evalWithFrame(scope, n.Child(0), env, fr)
		return ev.applyUnary(n, operand)
	case pt.KExprBinary:
		lhs := ev.evalWithFrame(scope, n.Child(0), env, fr)
		rhs := ev.evalWithFrame(scope, n.Child(1), env, fr)
		if lhs.IsError() || rhs.IsError() {
			return value.NewError("operand evaluation failed")
		}
		return value.Arith(n.Name, lhs, rhs)
	case pt.KExprTernary:
		cond := ev.evalWithFrame(scope, n.Child(0), env, fr)
		thenV := ev.evalWithFrame(scope, n.Child(1), env, fr)
		elseV := ev.evalWithFrame(scope, n.Child(2), env, fr)
		return selectTernary(cond, thenV, elseV)
	case pt.KExprConcat:
		return ev.evalConcat(n, scope, env, fr)
	case pt.KExprMultiConcat:
		return ev.evalMultiConcat(n, scope, env, fr)
	case pt.KExprPrimary:
		return ev.evalPrimary(scope, n, env, fr)
	case pt.KExprFuncCall:
		return ev.evalFuncCall(scope, n, env, fr)
	case pt.KExprSysFuncCall:
		return ev.fail(n.Region, diag.CodeSysfuncInCE, "system function %q is never constant", n.Name)
	default:
		return ev.fail(n.Region, diag.CodeEvalError, "expression kind %s cannot be evaluated as a constant", n.Kind)
	}
}

// evalConst decodes a KExprConst literal by its Go-native payload type: an
// int64 (a 32-bit signed integer constant), a float64 (real literal), a
// string (string literal, which §4.1 says becomes a right-padded bit-vector
// of 8*len bits) or a Literal (sized/based bit-vector literal).
func (ev *Evaluator) evalConst(n *pt.Node) value.Value {
	switch v := n.Value.(type) {
	case int64:
		return value.NewBitVector(value.NewKnown(value.SizeInteger, true, big.NewInt(v)))
	case float64:
		return value.NewReal(v)
	case string:
		return value.NewBitVector(stringLiteralBits(v))
	case Literal:
		n := new(big.Int)
		n.SetString(strings.TrimSpace(v.Digits), v.Base)
		return value.NewBitVector(value.NewKnown(value.InferWidth(n, v.Sized, v.Width), v.Signed, n))
	default:
		return ev.fail(n.Region, diag.CodeEvalError, "malformed constant literal")
	}
}

// Literal is the decoded form of a sized/based numeric literal ("8'hFF",
// "'d10", "4'sb1010"), constructed by the lexer layer this module does not
// implement; PT nodes may carry one directly as their Value for tests and
// hand-built trees.
type Literal struct {
	Digits string
	Base   int
	Sized  bool
	Width  int
	Signed bool
}

// stringLiteralBits packs a string constant into a right-padded bit-vector
// of 8*len(s) bits, most-significant character first, per §4.1.
func stringLiteralBits(s string) value.BitVector {
	width := 8 * len(s)
	if width == 0 {
		width = 8
	}
	n := new(big.Int)
	for _, b := range []byte(s) {
		n.Lsh(n, 8)
		n.Or(n, big.NewInt(int64(b)))
	}
	return value.NewKnown(width, false, n)
}

func (ev *Evaluator) applyUnary(n *pt.Node, operand value.Value) value.Value {
	switch n.Name {
	case "-":
		return value.Neg1(operand)
	case "+":
		return operand
	case "~":
		return value.Not1(operand)
	case "!":
		return value.LogicalNot1(operand)
	case "&", "|", "^", "~&", "~|", "~^":
		return value.Reduce(n.Name, operand)
	default:
		return value.NewError(fmt.Sprintf("unsupported unary operator %q", n.Name))
	}
}

// selectTernary implements §4.5's "evaluates both arms for type unification
// but picks one at result": both arms must already have been evaluated by
// the caller; here we only pick.
func selectTernary(cond, thenV, elseV value.Value) value.Value {
	n, ok := cond.AsInt64()
	if !ok {
		return value.NewError("ternary condition is not constant")
	}
	if n != 0 {
		return thenV
	}
	return elseV
}

func (ev *Evaluator) evalConcat(n *pt.Node, scope *vl.Scope, env elab.Env, fr *frame) value.Value {
	ops := make([]value.BitVector, 0, len(n.Children))
	for _, c := range n.Children {
		v := ev.evalWithFrame(scope, c, env, fr)
		bv, ok := v.AsBitVector()
		if !ok {
			return ev.fail(n.Region, diag.CodeBvRequired, "concatenation operand must be a bit-vector")
		}
		ops = append(ops, bv)
	}
	return value.NewBitVector(value.Concat(ops...))
}

func (ev *Evaluator) evalMultiConcat(n *pt.Node, scope *vl.Scope, env elab.Env, fr *frame) value.Value {
	repeatV := ev.evalWithFrame(scope, n.Child(0), env, fr)
	repeat, ok := repeatV.AsInt64()
	if !ok || repeat < 0 {
		return ev.fail(n.Region, diag.CodeEvalIntError, "multiple-concatenation repeat count must be a non-negative constant")
	}
	base := make([]value.BitVector, 0, len(n.Children)-1)
	for _, c := range n.Children[1:] {
		v := ev.evalWithFrame(scope, c, env, fr)
		bv, ok := v.AsBitVector()
		if !ok {
			return ev.fail(n.Region, diag.CodeBvRequired, "concatenation operand must be a bit-vector")
		}
		base = append(base, bv)
	}
	ops := make([]value.BitVector, 0, int(repeat)*len(base))
	for i := int64(0); i < repeat; i++ {
		ops = append(ops, base...)
	}
	if len(ops) == 0 {
		return value.NewBitVector(value.NewUint64(0, false, 0))
	}
	return value.NewBitVector(value.Concat(ops...))
}

// evalPrimary resolves a name through the frame (constant-function locals
// take precedence), then the scope chain, and reads a Parameter or Genvar's
// current value, per §4.5's "Primaries... genvar returns current int...
// any non-constant reference fails with NotConstant".
func (ev *Evaluator) evalPrimary(scope *vl.Scope, n *pt.Node, env elab.Env, fr *frame) value.Value {
	if fr != nil {
		if v, ok := fr.vars[n.Name]; ok {
			return ev.applySelect(scope, n, v, env, fr)
		}
	}
	h, _, ok := scope.FindUp(n.Name)
	if !ok {
		if branches, _ := vl.SplitHierName(n.Name); len(branches) > 0 {
			return ev.fail(n.Region, diag.CodeHnameInCE, "hierarchical name %q is not allowed in a constant expression", n.Name)
		}
		return ev.fail(n.Region, diag.CodeNotFound, "identifier %q not found", n.Name)
	}
	var v value.Value
	switch h.Tag {
	case vl.TagParameter:
		v = ev.Factory.Parameter(h).Value
	case vl.TagGenvar:
		v = value.NewInt32(int32(ev.Factory.Genvar(h).Value))
	default:
		return ev.fail(n.Region, diag.CodeNotAParam, "%q is not a constant reference", n.Name)
	}
	return ev.applySelect(scope, n, v, env, fr)
}

// applySelect applies a bit-select/part-select suffix to an already
// resolved value, if n carries select children (§4.5).
func (ev *Evaluator) applySelect(scope *vl.Scope, n *pt.Node, v value.Value, env elab.Env, fr *frame) value.Value {
	if len(n.Children) == 0 {
		return v
	}
	bv, ok := v.AsBitVector()
	if !ok {
		return ev.fail(n.Region, diag.CodeSelectOnReal, "cannot select a bit from a real value")
	}
	if len(n.Children) == 1 {
		idxV := ev.evalWithFrame(scope, n.Children[0], env, fr)
		idx, ok := idxV.AsInt64()
		if !ok || idx < 0 || int(idx) >= bv.Width() {
			return ev.fail(n.Region, diag.CodeDimensionMismatch, "bit-select index out of range")
		}
		out := value.NewUint64(1, false, 0)
		out.SetBit(0, bv.Bit(int(idx)))
		return value.NewBitVector(out)
	}
	leftV := ev.evalWithFrame(scope, n.Children[0], env, fr)
	rightV := ev.evalWithFrame(scope, n.Children[1], env, fr)
	left, lok := leftV.AsInt64()
	right, rok := rightV.AsInt64()
	if !lok || !rok {
		return ev.fail(n.Region, diag.CodeEvalIntError, "part-select bounds must be constant")
	}
	lo, hi := int(left), int(right)
	if lo > hi {
		lo, hi = hi, lo
	}
	width := hi - lo + 1
	out := value.NewUint64(width, false, 0)
	for i := 0; i < width; i++ {
		out.SetBit(i, bv.Bit(lo+i))
	}
	return value.NewBitVector(out)
}

// callKey builds the singleflight key: the function name plus a rendering of
// its already-evaluated actual argument values, so two call sites with
// identical arguments that are in flight at the same time share one
// execution.
func callKey(name string, args []value.Value) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, a := range args {
		sb.WriteByte('|')
		sb.WriteString(a.String())
	}
	return sb.String()
}

func formalNames(def *pt.Node) []string {
	var names []string
	for _, item := range def.Children {
		if item.Kind != pt.KIOHead {
			continue
		}
		for _, d := range item.Children {
			if d.Kind == pt.KDecl {
				names = append(names, d.Name)
			}
		}
	}
	return names
}

// evalFuncCall implements §4.5's constant function-call rule: the callee
// must be a named constant function, must not be self-recursive (checked
// via the PT's in_use bit), and its formals are bound by position.
func (ev *Evaluator) evalFuncCall(scope *vl.Scope, n *pt.Node, env elab.Env, fr *frame) value.Value {
	def, ok := ev.Funcs[n.Name]
	if !ok {
		return ev.fail(n.Region, diag.CodeNotAConstantFunction, "%q is not a constant function", n.Name)
	}
	if def.InUse {
		return ev.fail(n.Region, diag.CodeUsesItself, "constant function %q is used recursively", n.Name)
	}

	args := make([]value.Value, 0, len(n.Children))
	for _, a := range n.Children {
		args = append(args, ev.evalWithFrame(scope, a, env, fr))
	}
	for _, a := range args {
		if a.IsError() {
			return value.NewError("constant function actual argument failed to evaluate")
		}
	}

	key := callKey(n.Name, args)
	result, err, _ := ev.group.Do(key, func() (interface{}, error) {
		def.InUse = true
		defer func() { def.InUse = false }()
		names := formalNames(def)
		if len(names) != len(args) {
			return value.NewError("argument count mismatch"), nil
		}
		callFrame := &frame{vars: make(map[string]value.Value, len(names))}
		for i, nm := range names {
			callFrame.vars[nm] = args[i]
		}
		callFrame.vars[n.Name] = value.NoValue // self-named result variable.
		body := funcBody(def)
		if err := ev.execConstStmt(scope, body, env.AsConstantFunction(), callFrame); err != nil {
			return value.NewError(err.Error()), nil
		}
		return callFrame.vars[n.Name], nil
	})
	if err != nil {
		return ev.fail(n.Region, diag.CodeEvalError, "%s", err)
	}
	return result.(value.Value)
}

func funcBody(def *pt.Node) *pt.Node {
	for _, c := range def.Children {
		if c.IsStmt() {
			return c
		}
	}
	return nil
}

// execConstStmt is a minimal statement interpreter sufficient for a
// constant function body: begin-blocks, blocking assignment, if, case,
// for and while (the only statement kinds IEEE 1364 permits inside a
// constant function, §3's purity invariant).
func (ev *Evaluator) execConstStmt(scope *vl.Scope, n *pt.Node, env elab.Env, fr *frame) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case pt.KStmtBlock:
		for _, s := range n.Children {
			if err := ev.execConstStmt(scope, s, env, fr); err != nil {
				return err
			}
		}
		return nil
	case pt.KStmtAssign, pt.KStmtAssignNB:
		lhs := n.Child(0)
		rhs := n.Child(1)
		v := ev.evalWithFrame(scope, rhs, env, fr)
		if v.IsError() {
			return fmt.Errorf("assignment to %q failed", lhs.Name)
		}
		fr.vars[lhs.Name] = v
		return nil
	case pt.KStmtIf:
		condV := ev.evalWithFrame(scope, n.Child(0), env, fr)
		cond, ok := condV.AsInt64()
		if !ok {
			return fmt.Errorf("if-condition is not constant")
		}
		if cond != 0 {
			return ev.execConstStmt(scope, n.Child(1), env, fr)
		}
		if len(n.Children) > 2 {
			return ev.execConstStmt(scope, n.Child(2), env, fr)
		}
		return nil
	case pt.KStmtFor:
		init, cond, step, body := n.Child(0), n.Child(1), n.Child(2), n.Child(3)
		if err := ev.execConstStmt(scope, init, env, fr); err != nil {
			return err
		}
		for {
			condV := ev.evalWithFrame(scope, cond, env, fr)
			c, ok := condV.AsInt64()
			if !ok || c == 0 {
				return nil
			}
			if err := ev.execConstStmt(scope, body, env, fr); err != nil {
				return err
			}
			if err := ev.execConstStmt(scope, step, env, fr); err != nil {
				return err
			}
		}
	case pt.KStmtWhile:
		cond, body := n.Child(0), n.Child(1)
		for {
			condV := ev.evalWithFrame(scope, cond, env, fr)
			c, ok := condV.AsInt64()
			if !ok || c == 0 {
				return nil
			}
			if err := ev.execConstStmt(scope, body, env, fr); err != nil {
				return err
			}
		}
	case pt.KStmtCase:
		selV := ev.evalWithFrame(scope, n.Child(0), env, fr)
		var dflt *pt.Node
		for _, item := range n.Children[1:] {
			if len(item.Children) == 1 {
				dflt = item.Child(0)
				continue
			}
			if matchCaseItem(ev, scope, item, selV, env, fr) {
				body := item.Child(len(item.Children) - 1)
				return ev.execConstStmt(scope, body, env, fr)
			}
		}
		return ev.execConstStmt(scope, dflt, env, fr)
	case pt.KStmtNull:
		return nil
	default:
		return fmt.Errorf("statement kind %s is illegal inside a constant function", n.Kind)
	}
}

func matchCaseItem(ev *Evaluator, scope *vl.Scope, item *pt.Node, selV value.Value, env elab.Env, fr *frame) bool {
	labels := item.Children[:len(item.Children)-1]
	if len(labels) == 0 {
		return true // default arm; execConstStmt runs it only after every labelled arm.
	}
	for _, lbl := range labels {
		lv := ev.evalWithFrame(scope, lbl, env, fr)
		eq := value.Arith("==", selV, lv)
		if n, ok := eq.AsInt64(); ok && n != 0 {
			return true
		}
	}
	return false
}

// EvaluateInt requires the expression to evaluate to an integral constant,
// returning a typed error on failure (§4.5's evaluate_int).
func (ev *Evaluator) EvaluateInt(scope *vl.Scope, n *pt.Node, env elab.Env) (int64, *diag.ElbError) {
	v := ev.EvaluateExpr(scope, n, env.AsConstant())
	if v.IsError() {
		return 0, diag.New(n.Region, diag.CodeEvalIntError, "expression is not a constant integer")
	}
	i, ok := v.AsInt64()
	if !ok {
		return 0, diag.New(n.Region, diag.CodeEvalIntError, "expression is not a constant integer")
	}
	return i, nil
}

// EvaluateIntIfConst returns (value, true) if n is a constant expression,
// or (0, false) without error if it is not (used where a construct may
// legally be either constant or run-time-only).
func (ev *Evaluator) EvaluateIntIfConst(scope *vl.Scope, n *pt.Node, env elab.Env) (int64, bool) {
	v := ev.EvaluateExpr(scope, n, env.AsConstant())
	if v.IsError() {
		return 0, false
	}
	i, ok := v.AsInt64()
	return i, ok
}

// EvaluateBool evaluates n as a constant and reduces it to a boolean,
// matching Verilog's "non-zero is true" convention.
func (ev *Evaluator) EvaluateBool(scope *vl.Scope, n *pt.Node, env elab.Env) (bool, *diag.ElbError) {
	i, err := ev.EvaluateInt(scope, n, env)
	if err != nil {
		return false, err
	}
	return i != 0, nil
}

// EvaluateScalar evaluates n as a constant single-bit value.
func (ev *Evaluator) EvaluateScalar(scope *vl.Scope, n *pt.Node, env elab.Env) (value.FourState, *diag.ElbError) {
	v := ev.EvaluateExpr(scope, n, env.AsConstant())
	bv, ok := v.AsBitVector()
	if !ok {
		return value.X, diag.New(n.Region, diag.CodeBvRequired, "expression is not a constant scalar")
	}
	return bv.Bit(0), nil
}

// EvaluateBitVector evaluates n as a constant bit-vector.
func (ev *Evaluator) EvaluateBitVector(scope *vl.Scope, n *pt.Node, env elab.Env) (value.BitVector, *diag.ElbError) {
	v := ev.EvaluateExpr(scope, n, env.AsConstant())
	bv, ok := v.AsBitVector()
	if !ok {
		return value.BitVector{}, diag.New(n.Region, diag.CodeBvRequired, "expression is not a constant bit-vector")
	}
	return bv, nil
}

// EvaluateRange evaluates a [left:right] range's bound expressions as
// constants, returning both integer bounds (§4.5's evaluate_range).
func (ev *Evaluator) EvaluateRange(scope *vl.Scope, left, right *pt.Node, env elab.Env) (int, int, *diag.ElbError) {
	l, err := ev.EvaluateInt(scope, left, env)
	if err != nil {
		return 0, 0, err
	}
	r, err := ev.EvaluateInt(scope, right, env)
	if err != nil {
		return 0, 0, err
	}
	return int(l), int(r), nil
}
