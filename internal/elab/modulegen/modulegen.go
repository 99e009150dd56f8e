// Package modulegen implements ModuleGen (§4.11): the per-module-item
// dispatch that ties DeclGen, ExprGen/StmtGen and ItemGen together into one
// recursive item elaborator, shared by a module's own item list and by any
// generate block nested inside it.
package modulegen

import (
	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/declgen"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/elab/itemgen"
	"vlelab/internal/elab/stmtgen"
	"vlelab/internal/pt"
	"vlelab/internal/vl"
)

// primitiveKinds names every built-in gate keyword; any other KInstHead name
// is a module or UDP/cell instantiation.
var primitiveKinds = map[string]bool{
	"and": true, "nand": true, "or": true, "nor": true, "xor": true, "xnor": true,
	"buf": true, "not": true,
	"bufif0": true, "bufif1": true, "notif0": true, "notif1": true,
	"nmos": true, "pmos": true, "rnmos": true, "rpmos": true,
	"cmos": true, "rcmos": true,
	"tran": true, "rtran": true,
	"tranif0": true, "tranif1": true, "rtranif0": true, "rtranif1": true,
	"pullup": true, "pulldown": true,
}

// Generator is ModuleGen: a bundle of the four lower generators plus the
// item dispatch loop that drives them over a module's item list.
type Generator struct {
	Decl *declgen.Generator
	Expr *exprgen.Generator
	Stmt *stmtgen.Generator
	Item *itemgen.Generator

	Factory *vl.Factory
	Sink    *diag.Sink
	Attrs   *vl.AttributeStore

	// Funcs/Tasks hold task/function definitions registered while walking a
	// module's item list, keyed by name. The driver hands Funcs to ExprEval
	// as its constant-function table (§4.5's function-call resolution);
	// Tasks is only recorded, and StmtGen resolves task enables by scope
	// lookup instead.
	Funcs map[string]*pt.Node
	Tasks map[string]*pt.Node
}

// New wires a fresh ModuleGen bundle sharing one Factory/Sink/Evaluator.
func New(decl *declgen.Generator, expr *exprgen.Generator, stmt *stmtgen.Generator, item *itemgen.Generator, factory *vl.Factory, sink *diag.Sink) *Generator {
	g := &Generator{Decl: decl, Expr: expr, Stmt: stmt, Item: item, Factory: factory, Sink: sink, Attrs: vl.NewAttributeStore(), Funcs: map[string]*pt.Node{}, Tasks: map[string]*pt.Node{}}
	item.Elaborate = g.ElaborateItem
	return g
}

// splitAttrs strips any leading `(* ... *)` attribute-instance nodes off an
// item head, returning them translated to vl.Attribute plus the head node
// with those children removed (§4.4; grounded on the original elaborator's
// per-item PtAttrInst list, here represented as a head's leading children
// rather than a side table).
func (g *Generator) splitAttrs(scope *vl.Scope, env elab.Env, n *pt.Node) ([]vl.Attribute, *pt.Node) {
	i := 0
	for i < len(n.Children) && n.Children[i].Kind == pt.KAttrInst {
		i++
	}
	if i == 0 {
		return nil, n
	}
	var attrs []vl.Attribute
	for _, inst := range n.Children[:i] {
		for _, spec := range inst.Children {
			a := vl.Attribute{Name: spec.Name, DefSide: true}
			if len(spec.Children) > 0 {
				a.Value = g.Expr.InstantiateExpr(scope, env, spec.Child(0))
			}
			attrs = append(attrs, a)
		}
	}
	rest := *n
	rest.Children = n.Children[i:]
	return attrs, &rest
}

// attachAttrs files attrs against every handle produced by a single item
// head, so `(* ... *)` on a comma list (`(* keep *) wire a, b;`) decorates
// each declared object.
func (g *Generator) attachAttrs(attrs []vl.Attribute, handles []vl.Handle) {
	if len(attrs) == 0 {
		return
	}
	for _, h := range handles {
		g.Attrs.Attach(h, true, attrs...)
	}
}

func signedOf(n *pt.Node) bool {
	s, _ := n.Value.(bool)
	return s
}

// ElaborateItem dispatches a single module-item (or generate-block item) PT
// node into scope, the single recursive-descent entry point every item kind
// funnels through (§4.9/§4.11), recording every produced entity handle onto
// mod.Items (and mod.Ports, for an IO header) in processing order.
func (g *Generator) ElaborateItem(scope *vl.Scope, env elab.Env, mod *vl.Module, n *pt.Node) {
	if n == nil {
		return
	}
	attrs, n := g.splitAttrs(scope, env, n)

	var handles []vl.Handle
	switch n.Kind {
	case pt.KDeclHead:
		handles = g.Decl.InstantiateDeclHead(scope, env, signedOf(n), n)
		mod.Items = append(mod.Items, handles...)
	case pt.KIOHead:
		handles = g.Decl.InstantiateIOHead(scope, env, signedOf(n), n)
		mod.Ports = append(mod.Ports, handles...)
		mod.Items = append(mod.Items, handles...)
	case pt.KParamHead:
		handles = g.Decl.InstantiateParamHead(scope, env, false, n)
		mod.Items = append(mod.Items, handles...)
	case pt.KGenvarDecl:
		handles = g.elaborateGenvarDecl(scope, n)
		mod.Items = append(mod.Items, handles...)
	case pt.KContAssign:
		handles = g.Item.InstantiateContAssign(scope, env, n)
		mod.Items = append(mod.Items, handles...)
	case pt.KInstHead:
		if primitiveKinds[n.Name] {
			handles = g.Item.InstantiatePrimitiveHead(scope, env, n)
			mod.Items = append(mod.Items, handles...)
		} else {
			g.Item.InstantiateInstHead(scope, env, n) // resolved asynchronously; the driver appends the resulting handle once drained.
		}
	case pt.KDefParam:
		h := g.Item.InstantiateDefParam(scope, env, n)
		handles = []vl.Handle{h}
		mod.Items = append(mod.Items, h)
	case pt.KInitial:
		h := g.elaborateProcess(scope, env, n, vl.ProcessInitial)
		handles = []vl.Handle{h}
		mod.Items = append(mod.Items, h)
	case pt.KAlways:
		h := g.elaborateProcess(scope, env, n, vl.ProcessAlways)
		handles = []vl.Handle{h}
		mod.Items = append(mod.Items, h)
	case pt.KGenBlock, pt.KGenIf, pt.KGenCase, pt.KGenFor:
		g.Item.InstantiateGenerate(scope, env, mod, n)
	case pt.KTaskDef:
		g.Tasks[n.Name] = n
	case pt.KFuncDef:
		g.Funcs[n.Name] = n
	case pt.KSpecify:
		// Timing checks are out of scope; the block is parsed but discarded.
	default:
		g.Sink.ReportError(diag.New(n.Region, diag.CodeIllegalObject, "%s is not a recognized module item", n.Kind))
	}
	g.attachAttrs(attrs, handles)
}

// elaborateGenvarDecl declares each name in a `genvar a, b;` statement as a
// vl.Genvar, not yet assigned a value until a gen-for claims it (§4.9).
func (g *Generator) elaborateGenvarDecl(scope *vl.Scope, n *pt.Node) []vl.Handle {
	var handles []vl.Handle
	for _, item := range n.Children {
		gv := &vl.Genvar{Region: item.Region, Name: item.Name, Owner: scope}
		h := g.Factory.NewGenvar(gv)
		if !scope.Declare(item.Name, h) {
			g.Sink.ReportError(diag.New(item.Region, diag.CodeDuplicateType, "%q is already declared in this scope", item.Name))
			continue
		}
		handles = append(handles, h)
	}
	return handles
}

func (g *Generator) elaborateProcess(scope *vl.Scope, env elab.Env, n *pt.Node, kind vl.ProcessKind) vl.Handle {
	body := g.Stmt.InstantiateStmt(scope, env, n.Child(0))
	return g.Factory.NewProcess(&vl.Process{Region: n.Region, Kind: kind, Body: body})
}
