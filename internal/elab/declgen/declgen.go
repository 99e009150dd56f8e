// Package declgen implements the declaration generator (§4.7): expanding
// `iohead`/`declhead` PT nodes into vl.Decl/vl.DeclArray entities, building
// parameters from `paramhead`, and reconciling IO declarations against
// their inner counterparts.
package declgen

import (
	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/pt"
	"vlelab/internal/rng"
	"vlelab/internal/vl"
)

// Generator is DeclGen.
type Generator struct {
	Gen     *exprgen.Generator
	Factory *vl.Factory
	Sink    *diag.Sink

	// DefaultNettype is the module's effective `default_nettype` for
	// implicit-net resolution; "" (none) disables implicit nets entirely.
	DefaultNettype string
	// AllowEmptyIORange mirrors the `allow_empty_io_range` compile option
	// from §4.7's IO/inner-decl reconciliation rule.
	AllowEmptyIORange bool
}

// New returns a Generator.
func New(gen *exprgen.Generator, factory *vl.Factory, sink *diag.Sink) *Generator {
	return &Generator{Gen: gen, Factory: factory, Sink: sink, DefaultNettype: "wire"}
}

var declKeywordTypes = map[string]vl.DeclType{
	"reg":     vl.DeclReg,
	"var":     vl.DeclVar,
	"integer": vl.DeclInteger,
	"real":    vl.DeclReal,
	"time":    vl.DeclTime,
	"event":   vl.DeclEvent,
}

func declType(keyword string) (vl.DeclType, string) {
	if dt, ok := declKeywordTypes[keyword]; ok {
		return dt, ""
	}
	return vl.DeclNet, keyword // wire, tri, wand, ... stay net-typed.
}

// InstantiateDeclHead expands a single KDeclHead into zero or more Decl/
// DeclArray entities, declaring each into scope and returning their
// handles in source order (§4.7).
func (g *Generator) InstantiateDeclHead(scope *vl.Scope, env elab.Env, signed bool, head *pt.Node) []vl.Handle {
	dt, netType := declType(head.Name)
	var declRange *rng.Range
	children := head.Children
	if len(children) > 0 && children[0].Kind == pt.KRange {
		r := g.instantiateRange(scope, env, children[0])
		declRange = &r
		children = children[1:]
	}

	var handles []vl.Handle
	for _, item := range children {
		if item.Kind != pt.KDecl {
			continue
		}
		if isDimChain(item) {
			handles = append(handles, g.instantiateDeclArray(scope, env, item, dt, netType, signed, declRange))
			continue
		}
		handles = append(handles, g.instantiateDecl(scope, env, item, dt, netType, signed, declRange))
	}
	return handles
}

// isDimChain reports whether item carries unpacked-dimension range children
// (as opposed to a single scalar initializer expression).
func isDimChain(item *pt.Node) bool {
	for _, c := range item.Children {
		if c.Kind == pt.KRange {
			return true
		}
	}
	return false
}

func (g *Generator) instantiateDecl(scope *vl.Scope, env elab.Env, item *pt.Node, dt vl.DeclType, netType string, signed bool, declRange *rng.Range) vl.Handle {
	d := &vl.Decl{
		Region: item.Region, Name: item.Name, Owner: scope,
		Type: dt, Signed: signed, Range: declRange, NetType: netType,
	}
	if len(item.Children) > 0 && item.Children[0].IsExpr() {
		d.Initial = g.Gen.InstantiateExpr(scope, env, item.Children[0])
	}
	h := g.Factory.NewDecl(d)
	if !scope.Declare(item.Name, h) {
		g.Sink.ReportError(diag.New(item.Region, diag.CodeDuplicateType, "%q is already declared in this scope", item.Name))
	}
	if d.Initial != nil && netType != "" {
		g.Factory.NewContAssign(&vl.ContAssign{
			Region: item.Region,
			Lhs:    &vl.Expr{Kind: vl.ExprPrimary, Region: item.Region, Type: d.ValueType(), Ref: h},
			Rhs:    d.Initial,
		})
	}
	return h
}

func (g *Generator) instantiateDeclArray(scope *vl.Scope, env elab.Env, item *pt.Node, dt vl.DeclType, netType string, signed bool, declRange *rng.Range) vl.Handle {
	var dims []rng.Range
	for _, c := range item.Children {
		if c.Kind == pt.KRange {
			dims = append(dims, g.instantiateRange(scope, env.AsConstant(), c))
		}
	}
	elem := vl.Decl{Region: item.Region, Name: item.Name, Owner: scope, Type: dt, Signed: signed, Range: declRange, NetType: netType}
	da := &vl.DeclArray{Region: item.Region, Name: item.Name, Owner: scope, Elem: elem, Dims: rng.NewArray(dims)}
	h := g.Factory.NewDeclArray(da)
	if !scope.Declare(item.Name, h) {
		g.Sink.ReportError(diag.New(item.Region, diag.CodeDuplicateType, "%q is already declared in this scope", item.Name))
	}
	return h
}

// instantiateRange evaluates a KRange's bounds as constants (§4.2's Range).
func (g *Generator) instantiateRange(scope *vl.Scope, env elab.Env, n *pt.Node) rng.Range {
	left, right, err := g.Gen.Eval.EvaluateRange(scope, n.Child(0), n.Child(1), env)
	if err != nil {
		g.Sink.ReportError(err)
	}
	return rng.New(n.Region, "", "", left, right)
}

// InstantiateIOHead expands a KIOHead (input/output/inout), reconciling it
// against any previously declared inner decl of the same name (§4.7): both
// ranges present must agree in width, and an IO without a range may not
// cover a ranged inner decl unless AllowEmptyIORange is set. An aux type on
// the IO head is not checked against a duplicate inner declaration.
func (g *Generator) InstantiateIOHead(scope *vl.Scope, env elab.Env, signed bool, head *pt.Node) []vl.Handle {
	var ioRange *rng.Range
	children := head.Children
	if len(children) > 0 && children[0].Kind == pt.KRange {
		r := g.instantiateRange(scope, env, children[0])
		ioRange = &r
		children = children[1:]
	}

	var handles []vl.Handle
	for _, item := range children {
		if existing, ok := scope.Find(item.Name); ok {
			inner := g.Factory.Decl(existing)
			if inner != nil {
				g.reconcileIO(item.Region, ioRange, inner)
				handles = append(handles, existing)
				continue
			}
		}
		d := &vl.Decl{Region: item.Region, Name: item.Name, Owner: scope, Type: vl.DeclNet, Signed: signed, Range: ioRange, NetType: g.DefaultNettype}
		h := g.Factory.NewDecl(d)
		scope.Declare(item.Name, h)
		handles = append(handles, h)
	}
	return handles
}

// reconcileIO implements §4.7's IO/inner-decl reconciliation.
func (g *Generator) reconcileIO(r diag.Region, ioRange *rng.Range, inner *vl.Decl) {
	switch {
	case ioRange != nil && inner.Range != nil:
		if ioRange.Size() != inner.Range.Size() {
			g.Sink.ReportError(diag.New(r, diag.CodeConflictIoRange, "IO range width does not match the inner declaration's range width"))
		}
	case ioRange == nil && inner.Range != nil:
		if !g.AllowEmptyIORange {
			g.Sink.ReportError(diag.New(r, diag.CodeConflictIoRange, "IO declaration has no range but the inner declaration does; allow_empty_io_range is not set"))
		}
	}
}

// InstantiateParamHead expands a KParamHead into Parameter entities, whose
// initial value is the evaluated default_value expression (§4.7).
func (g *Generator) InstantiateParamHead(scope *vl.Scope, env elab.Env, isLocal bool, head *pt.Node) []vl.Handle {
	var handles []vl.Handle
	for _, item := range head.Children {
		if item.Kind != pt.KDecl || len(item.Children) == 0 {
			continue
		}
		v := g.Gen.Eval.EvaluateExpr(scope, item.Children[0], env.AsConstant())
		p := &vl.Parameter{Region: item.Region, Name: item.Name, Owner: scope, Type: v.Typ, Value: v, IsLocal: isLocal}
		h := g.Factory.NewParameter(p)
		if !scope.Declare(item.Name, h) {
			g.Sink.ReportError(diag.New(item.Region, diag.CodeDuplicateType, "%q is already declared in this scope", item.Name))
		}
		handles = append(handles, h)
	}
	return handles
}

// ResolveImplicitNet implements §4.7's implicit-net policy: an undeclared
// LHS identifier in a net context gets an implicit net of DefaultNettype,
// unless that is "" (none), in which case it is an error.
func (g *Generator) ResolveImplicitNet(scope *vl.Scope, r diag.Region, name string) (vl.Handle, bool) {
	if g.DefaultNettype == "" {
		g.Sink.ReportError(diag.New(r, diag.CodeNoImpnet, "%q is undeclared and default_nettype is none", name))
		return vl.Handle{}, false
	}
	d := &vl.Decl{Region: r, Name: name, Owner: scope, Type: vl.DeclNet, NetType: g.DefaultNettype, Range: &rng.Range{LeftVal: 0, RightVal: 0}}
	h := g.Factory.NewDecl(d)
	scope.Declare(name, h)
	return h, true
}
