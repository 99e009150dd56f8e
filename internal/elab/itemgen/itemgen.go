// Package itemgen implements the item generator (§4.9): continuous
// assigns, instance headers (module and primitive), deferred defparams, and
// the four generate constructs (root/block/if/case/for), plus the
// primitive port-count profile table of §4.10.
package itemgen

import (
	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/pt"
	"vlelab/internal/rng"
	"vlelab/internal/util"
	"vlelab/internal/vl"
)

// PendingInstance is a module instantiation captured at item-generation
// time but not yet elaborated: the driver owns turning this into a Module
// (or ModuleArray) during phase 1 (§4.11).
type PendingInstance struct {
	Region       diag.Region
	DefName      string
	InstName     string
	Range        *rng.Range // non-nil for an array instantiation.
	NamedParams  map[string]*vl.Expr
	OrderedParams []*vl.Expr
	PortConnections []*pt.Node // raw PT port-connection nodes, resolved against the callee's port list once it is known.
}

// ItemElaborator is supplied by ModuleGen (modulegen.New wires in its
// ElaborateItem): it recursively elaborates a
// single module-item PT node into scope, used by generate blocks so
// itemgen does not need to import its own caller (avoiding an import
// cycle with modulegen/driver).
type ItemElaborator func(scope *vl.Scope, env elab.Env, mod *vl.Module, item *pt.Node)

// Generator is ItemGen.
type Generator struct {
	Gen      *exprgen.Generator
	Factory  *vl.Factory
	Sink     *diag.Sink
	Elaborate ItemElaborator

	pendingInstances []PendingInstance
	pendingDefParams []vl.Handle
}

// New returns a Generator.
func New(gen *exprgen.Generator, factory *vl.Factory, sink *diag.Sink) *Generator {
	return &Generator{Gen: gen, Factory: factory, Sink: sink}
}

// PendingInstances returns and clears the module instantiations captured
// since the last call, for the driver's phase-1 queue.
func (g *Generator) PendingInstances() []PendingInstance {
	out := g.pendingInstances
	g.pendingInstances = nil
	return out
}

// InstantiateContAssign implements §4.9's ContAssign handling: elaborate
// each LHS and RHS, size RHS to LHS, attach the header's delay. A drive
// strength on the header is not recorded.
func (g *Generator) InstantiateContAssign(scope *vl.Scope, env elab.Env, header *pt.Node) []vl.Handle {
	var delay *vl.Delay
	children := header.Children
	if len(children) > 0 && children[0].Kind == pt.KDelay {
		delay = g.Gen.InstantiateDelay(scope, env, children[0])
		children = children[1:]
	}
	var handles []vl.Handle
	for _, assign := range children {
		lhs := g.Gen.InstantiateLhs(scope, env, assign.Child(0))
		rhs := g.Gen.InstantiateExpr(scope, env, assign.Child(1))
		g.Gen.SetReqSize(rhs, lhs.Type)
		h := g.Factory.NewContAssign(&vl.ContAssign{Region: assign.Region, Lhs: lhs, Rhs: rhs, Delay: delay})
		handles = append(handles, h)
	}
	return handles
}

// InstantiateInstHead implements §4.9's instance-header handling for a
// module instantiation: per instance, capture the instance name, optional
// array range and raw port connections, and queue it for phase-1
// elaboration by the driver (which builds a ModuleArray when a range is
// present). Strength, delay and `#(...)` parameter overrides are not
// captured: NamedParams and OrderedParams stay empty.
func (g *Generator) InstantiateInstHead(scope *vl.Scope, env elab.Env, head *pt.Node) {
	defName := head.Name
	for _, inst := range head.Children {
		pi := PendingInstance{Region: inst.Region, DefName: defName, InstName: inst.Name}
		if len(inst.Children) > 0 && inst.Children[0].Kind == pt.KRange {
			r := g.instantiateRange(scope, env, inst.Children[0])
			pi.Range = &r
			pi.PortConnections = inst.Children[1:]
		} else {
			pi.PortConnections = inst.Children
		}
		g.pendingInstances = append(g.pendingInstances, pi)
	}
}

func (g *Generator) instantiateRange(scope *vl.Scope, env elab.Env, n *pt.Node) rng.Range {
	left, right, err := g.Gen.Eval.EvaluateRange(scope, n.Child(0), n.Child(1), env.AsConstant())
	if err != nil {
		g.Sink.ReportError(err)
	}
	return rng.New(n.Region, "", "", left, right)
}

// InstantiatePrimitiveHead implements §4.9's primitive instance handling:
// resolve the gate kind, count terminals against its §4.10 profile, reject
// wrong arity, and classify each terminal as in/out/inout.
func (g *Generator) InstantiatePrimitiveHead(scope *vl.Scope, env elab.Env, head *pt.Node) []vl.Handle {
	kind := head.Name
	profile := lookupProfile(kind)
	var handles []vl.Handle
	for _, inst := range head.Children {
		terminals := make([]*vl.Expr, 0, len(inst.Children))
		for _, t := range inst.Children {
			terminals = append(terminals, g.Gen.InstantiateExpr(scope, env, t))
		}
		if !checkArity(profile, len(terminals)) {
			g.Sink.ReportError(diag.New(inst.Region, diag.CodeUdpPortNumMismatch, "primitive %q instantiated with %d terminals", kind, len(terminals)))
			continue
		}
		outputs, _, _ := classify(profile, len(terminals))
		for i := 0; i < outputs && i < len(terminals); i++ {
			switch terminals[i].Kind {
			case vl.ExprPrimary, vl.ExprBitSelect, vl.ExprPartSelect:
			default:
				g.Sink.ReportError(diag.New(terminals[i].Region, diag.CodeIllegalOperatorInLhs, "primitive %q output terminal %d is not a net reference", kind, i))
			}
		}
		p := &vl.Primitive{Region: inst.Region, Kind: kind, InstName: inst.Name, Terminals: terminals}
		h := g.Factory.NewPrimitive(p)
		if inst.Name != "" {
			scope.Declare(inst.Name, h)
		}
		handles = append(handles, h)
	}
	return handles
}

// InstantiateDefParam implements §4.9's defparam handling: it elaborates the
// rhs expression into a vl.DefParam and records its handle for
// PendingDefParams. The target path is not recorded on the DefParam, and the
// driver's defparam phase does not read these handles; it resolves the
// defparams it queues itself from each module's own item list.
func (g *Generator) InstantiateDefParam(scope *vl.Scope, env elab.Env, n *pt.Node) vl.Handle {
	rhs := g.Gen.InstantiateExpr(scope, env.AsConstant(), n.Child(len(n.Children)-1))
	dp := &vl.DefParam{Region: n.Region, Rhs: rhs}
	h := g.Factory.NewDefParam(dp)
	g.pendingDefParams = append(g.pendingDefParams, h)
	return h
}

// PendingDefParams returns every defparam handle captured so far.
func (g *Generator) PendingDefParams() []vl.Handle { return g.pendingDefParams }

// InstantiateGenerate implements §4.9's generate handling, dispatching on
// the PT generate-construct kind.
func (g *Generator) InstantiateGenerate(scope *vl.Scope, env elab.Env, mod *vl.Module, n *pt.Node) {
	switch n.Kind {
	case pt.KGenBlock:
		g.instantiateGenBlock(scope, env, mod, n, util.AnonGenerate, "")
	case pt.KGenIf:
		g.instantiateGenIf(scope, env, mod, n)
	case pt.KGenCase:
		g.instantiateGenCase(scope, env, mod, n)
	case pt.KGenFor:
		g.instantiateGenFor(scope, env, mod, n)
	default:
		g.Sink.ReportError(diag.New(n.Region, diag.CodeEvalError, "%s is not a generate construct", n.Kind))
	}
}

func (g *Generator) instantiateGenBlock(scope *vl.Scope, env elab.Env, mod *vl.Module, n *pt.Node, anonKind int, indexSuffix string) *vl.Scope {
	name := n.Name
	if name == "" {
		name = util.NewLabel(anonKind)
	}
	name += indexSuffix
	child := vl.NewScope(name, vl.ScopeGenerate, scope)
	for _, item := range n.Children {
		g.Elaborate(child, env, mod, item)
	}
	return child
}

func (g *Generator) instantiateGenIf(scope *vl.Scope, env elab.Env, mod *vl.Module, n *pt.Node) {
	cond, err := g.Gen.Eval.EvaluateBool(scope, n.Child(0), env.AsConstant())
	if err != nil {
		g.Sink.ReportError(err)
		return
	}
	branch := n.Child(2) // else branch.
	if cond {
		branch = n.Child(1)
	}
	if branch == nil {
		return
	}
	g.instantiateGenBlock(scope, env, mod, branch, util.AnonGenIf, "")
}

func (g *Generator) instantiateGenCase(scope *vl.Scope, env elab.Env, mod *vl.Module, n *pt.Node) {
	sel, err := g.Gen.Eval.EvaluateInt(scope, n.Child(0), env.AsConstant())
	if err != nil {
		g.Sink.ReportError(err)
		return
	}
	var matched *pt.Node
	var defaultItem *pt.Node
	matchCount := 0
	for _, item := range n.Children[1:] {
		labels := item.Children[:len(item.Children)-1]
		body := item.Children[len(item.Children)-1]
		if len(labels) == 0 {
			defaultItem = body
			continue
		}
		for _, l := range labels {
			lv, err := g.Gen.Eval.EvaluateInt(scope, l, env.AsConstant())
			if err == nil && lv == sel {
				matched = body
				matchCount++
				break
			}
		}
	}
	if matchCount > 1 {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeDuplicateGenCaseLabels, "generate case selects more than one item"))
		return
	}
	body := matched
	if body == nil {
		body = defaultItem
	}
	if body == nil {
		return
	}
	g.instantiateGenBlock(scope, env, mod, body, util.AnonGenCase, "")
}

// instantiateGenFor implements §4.9's gen-for handling: the loop variable
// is a genvar marked in_use for the duration; each iteration elaborates a
// child scope of scope named after the body block (or an anonymous label)
// plus the current genvar value as an index suffix, e.g. "g[0]", which
// serves as the GfRoot indexing map and is discoverable by
// ChildByName("g[0]").
func (g *Generator) instantiateGenFor(scope *vl.Scope, env elab.Env, mod *vl.Module, n *pt.Node) {
	genvarName := n.Child(0).Name
	h, genvarScope, ok := scope.FindUp(genvarName)
	if !ok || h.Tag != vl.TagGenvar {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeGenvarNotFound, "%q is not a declared genvar", genvarName))
		return
	}
	gv := g.Factory.Genvar(h)
	if gv.InUse {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeGenvarInUse, "genvar %q is already in use by an enclosing generate-for", genvarName))
		return
	}

	initV, err := g.Gen.Eval.EvaluateInt(genvarScope, n.Child(1), env.AsConstant())
	if err != nil {
		g.Sink.ReportError(err)
		return
	}
	if initV < 0 {
		g.Sink.ReportError(diag.New(n.Region, diag.CodeGenvarNegative, "genvar %q initial value is negative", genvarName))
		return
	}

	gv.InUse = true
	defer func() { gv.InUse = false }()

	cond, stepStmt, body := n.Child(2), n.Child(3), n.Child(4)
	gv.Value = int(initV)
	for {
		condV, err := g.Gen.Eval.EvaluateBool(scope, cond, env.AsConstant())
		if err != nil {
			g.Sink.ReportError(err)
			return
		}
		if !condV {
			return
		}
		suffix := indexSuffix(gv.Value)
		g.instantiateGenBlock(scope, env, mod, body, util.AnonGenerate, suffix)

		nextV, err := g.Gen.Eval.EvaluateInt(genvarScope, stepStmt, env.AsConstant())
		if err != nil {
			g.Sink.ReportError(err)
			return
		}
		gv.Value = int(nextV)
	}
}

func indexSuffix(i int) string {
	const digits = "0123456789"
	if i == 0 {
		return "[0]"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	buf := make([]byte, 0, 8)
	for i > 0 {
		buf = append([]byte{digits[i%10]}, buf...)
		i /= 10
	}
	if neg {
		return "[-" + string(buf) + "]"
	}
	return "[" + string(buf) + "]"
}
