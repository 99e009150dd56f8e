// Package driver implements the elaboration driver (§4.11, §5): the
// top-level loop over a source's module definitions, the ordered
// defparam/phase1/phase2/phase3 stub queues, and the fixed-point defparam
// settlement pass.
package driver

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"vlelab/internal/diag"
	"vlelab/internal/elab"
	"vlelab/internal/elab/declgen"
	"vlelab/internal/elab/exprgen"
	"vlelab/internal/elab/expreval"
	"vlelab/internal/elab/itemgen"
	"vlelab/internal/elab/modulegen"
	"vlelab/internal/elab/stmtgen"
	"vlelab/internal/pt"
	"vlelab/internal/vl"

	"github.com/rs/zerolog"
)

// Driver owns the single Factory/Sink/generator bundle for one elaboration
// run and sequences the phase queues over a set of module definitions.
type Driver struct {
	Factory *vl.Factory
	Sink    *diag.Sink
	Mod     *modulegen.Generator
	Log     zerolog.Logger

	// Jobs is the worker-thread count used to drain independent phase-1/
	// phase-2 stubs concurrently, mirroring the chunked-worker-pool pattern
	// used elsewhere in this codebase for independent per-item work.
	Jobs int

	defs     map[string]*pt.Node // module/UDP name -> its definition PT node.
	toplevel *vl.Scope

	mu            sync.Mutex
	defparamQueue []defparamStub // defparams discovered while walking, resolved after phase 1/2.
	inUse         map[string]bool
}

// defparamStub is a queued `defparam a.b.c = expr;` assignment: the raw PT
// node plus the scope it was discovered in, which is the hierarchical
// path's resolution root (§4.11's Defparam target lookup).
type defparamStub struct {
	scope *vl.Scope
	node  *pt.Node
}

// New builds a Driver with a fresh, shared Factory/Sink and the generator
// chain wired together (ExprEval -> ExprGen -> DeclGen/StmtGen/ItemGen ->
// ModuleGen).
func New(defs map[string]*pt.Node, logger zerolog.Logger, jobs int) *Driver {
	f := vl.NewFactory()
	sink := diag.NewSink(64)
	ev := expreval.New(f, sink, defs)
	eg := exprgen.New(ev, sink)
	dg := declgen.New(eg, f, sink)
	sg := stmtgen.New(eg, sink)
	ig := itemgen.New(eg, f, sink)
	mg := modulegen.New(dg, eg, sg, ig, f, sink)
	ev.Funcs = mg.Funcs
	if jobs < 1 {
		jobs = 1
	}
	return &Driver{
		Factory: f, Sink: sink, Mod: mg, Log: logger, Jobs: jobs,
		defs: defs, inUse: map[string]bool{},
	}
}

// Elaborate runs the full driver loop (§4.11) over every top-level module
// named in roots, returning their elaborated Module handles.
func (d *Driver) Elaborate(roots []string) []vl.Handle {
	d.toplevel = vl.NewScope("$root", vl.ScopeToplevel, nil)
	var handles []vl.Handle
	for _, name := range roots {
		h, ok := d.instantiateModule(d.toplevel, elab.Default(), name, name, nil)
		if ok {
			handles = append(handles, h)
		}
	}
	d.settleDefparams()
	for _, p := range d.Factory.AllParameters() {
		p.Freeze()
	}
	d.Log.Info().Int("modules", len(handles)).Msg("elaboration complete")
	return handles
}

// instantiateModule implements phase 1 for a single module instance:
// recursion-check the definition, build its scope and Module entity, bind
// parameter overrides, then drain its item list (which is where phase 2's
// declarations and phase 3's bodies/instances/generates are all dispatched
// through ModuleGen.ElaborateItem). Nested instantiations it discovers are
// queued and drained breadth-first so sibling instances can run
// concurrently (§4.11's phase separation, simplified to one topological
// item pass per module since this elaborator's item dispatch is already
// idempotent with respect to ordering beyond params-before-bodies).
func (d *Driver) instantiateModule(parentScope *vl.Scope, env elab.Env, defName, instName string, overrides []*pt.Node) (vl.Handle, bool) {
	def, ok := d.defs[defName]
	if !ok {
		d.Sink.ReportError(diag.New(diag.Region{}, diag.CodeInstanceNotFound, "module %q has no definition", defName))
		return vl.Handle{}, false
	}

	d.mu.Lock()
	if d.inUse[defName] {
		d.mu.Unlock()
		d.Sink.ReportError(diag.New(def.Region, diag.CodeCyclicDependency, "module %q recursively instantiates itself", defName))
		return vl.Handle{}, false
	}
	d.inUse[defName] = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.inUse[defName] = false
		d.mu.Unlock()
	}()

	scope := vl.NewScope(instName, vl.ScopeModule, parentScope)
	mod := &vl.Module{Region: def.Region, DefName: defName, InstName: instName, Scope: scope}
	handle := d.Factory.NewModule(mod)

	// Phase 1: parameter ports and other parameters/genvars first, so every
	// later declaration and generate construct can see a stable value.
	var paramItems, otherItems []*pt.Node
	for _, item := range def.Children {
		switch item.Kind {
		case pt.KPort:
			// The port-name list is redundant with each port's own IO
			// declaration, reconciled when that IOHead item is elaborated.
		case pt.KParamHead:
			paramItems = append(paramItems, item)
		default:
			otherItems = append(otherItems, item)
		}
	}
	for _, item := range paramItems {
		d.Mod.ElaborateItem(scope, env, mod, item)
	}
	d.applyOverrides(scope, env, mod, overrides)

	// Phase 2/3: everything else, in source order. Nested module
	// instantiations are captured by ItemGen rather than elaborated inline.
	for _, item := range otherItems {
		if item.Kind == pt.KDefParam {
			d.mu.Lock()
			d.defparamQueue = append(d.defparamQueue, defparamStub{scope: scope, node: item})
			d.mu.Unlock()
			continue
		}
		d.Mod.ElaborateItem(scope, env, mod, item)
	}

	pending := d.Mod.Item.PendingInstances()
	d.drainInstances(scope, env, mod, pending)

	return handle, true
}

// drainInstances elaborates each pending module instantiation discovered by
// ItemGen, fanning independent instances out across d.Jobs workers (the
// same chunked worker-pool shape used for independent per-item batches
// throughout this codebase), collecting failures into the shared Sink.
func (d *Driver) drainInstances(scope *vl.Scope, env elab.Env, mod *vl.Module, pending []itemgen.PendingInstance) {
	if len(pending) == 0 {
		return
	}
	jobs := d.Jobs
	if jobs > len(pending) {
		jobs = len(pending)
	}
	if jobs < 1 {
		jobs = 1
	}
	n := len(pending) / jobs
	res := len(pending) % jobs

	var grp errgroup.Group
	start := 0
	for i := 0; i < jobs; i++ {
		end := start + n
		if i < res {
			end++
		}
		batch := pending[start:end]
		grp.Go(func() error {
			for _, pi := range batch {
				if pi.Range != nil {
					d.instantiateModuleArray(scope, env, mod, pi)
				} else {
					h, ok := d.instantiateModule(scope, env, pi.DefName, pi.InstName, nil)
					if ok {
						scope.Declare(pi.InstName, h)
						d.appendItem(mod, h)
					}
				}
			}
			return nil
		})
		start = end
	}
	_ = grp.Wait() // errors are already routed to the shared Sink; errgroup is used only to wait for every batch.
}

// appendItem records a concurrently-produced entity handle onto mod.Items;
// drainInstances's workers all share one parent mod, so the append itself
// needs the same mutex guarding the rest of the driver's shared state.
func (d *Driver) appendItem(mod *vl.Module, h vl.Handle) {
	d.mu.Lock()
	mod.Items = append(mod.Items, h)
	d.mu.Unlock()
}

func (d *Driver) instantiateModuleArray(scope *vl.Scope, env elab.Env, mod *vl.Module, pi itemgen.PendingInstance) {
	size := pi.Range.Size()
	elems := make([]vl.Handle, 0, size)
	for i := 0; i < size; i++ {
		idx := pi.Range.Index(i)
		name := pi.InstName + indexSuffix(idx)
		h, ok := d.instantiateModule(scope, env, pi.DefName, name, nil)
		if ok {
			elems = append(elems, h)
		}
	}
	arr := &vl.ModuleArray{Region: pi.Region, DefName: pi.DefName, InstName: pi.InstName, Range: *pi.Range, Elems: elems}
	h := d.Factory.NewModuleArray(arr)
	scope.Declare(pi.InstName, h)
	d.appendItem(mod, h)
}

// applyOverrides binds a `#(...)` instantiation's parameter overrides by
// position or name, per §4.11's parameter-override binding step, recording
// each bound override as a ParamAssign owned by mod.
func (d *Driver) applyOverrides(scope *vl.Scope, env elab.Env, mod *vl.Module, overrides []*pt.Node) {
	if len(overrides) == 0 {
		return
	}
	handles := scope.ByTag(vl.TagParameter)
	for i, o := range overrides {
		var target vl.Handle
		if o.Name != "" {
			h, ok := scope.Find(o.Name)
			if !ok {
				d.Sink.ReportError(diag.New(o.Region, diag.CodeNoParam, "no parameter named %q on this instance", o.Name))
				continue
			}
			target = h
		} else {
			if i >= len(handles) {
				d.Sink.ReportError(diag.New(o.Region, diag.CodeTooManyParam, "too many parameter overrides for this instance"))
				continue
			}
			target = handles[i]
		}
		p := d.Factory.Parameter(target)
		if p.IsLocal {
			d.Sink.ReportError(diag.New(o.Region, diag.CodeIsALocalparam, "%q is a localparam and cannot be overridden", p.Name))
			continue
		}
		rhs := d.Mod.Expr.InstantiateExpr(scope, env.AsConstant(), o.Child(0))
		v := d.Mod.Expr.Eval.EvaluateExpr(scope, o.Child(0), env.AsConstant())
		p.SetValue(v)
		pa := &vl.ParamAssign{Region: o.Region, Target: p, Rhs: rhs, Value: v}
		mod.ParamAssigns = append(mod.ParamAssigns, d.Factory.NewParamAssign(pa))
	}
}

// settleDefparams implements §4.11's defparam phase: resolve every queued
// defparam's hierarchical target and apply its value, iterating to a fixed
// point since a defparam's rhs may itself reference another defparam'd
// parameter. Once a pass changes no value (or after maxPasses), one closing
// pass reports every defparam that still cannot be applied.
func (d *Driver) settleDefparams() {
	if len(d.defparamQueue) == 0 {
		return
	}
	const maxPasses = 8
	for pass := 0; pass < maxPasses; pass++ {
		progress := false
		for _, stub := range d.defparamQueue {
			if d.applyDefparam(stub, false) {
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	for _, stub := range d.defparamQueue {
		d.applyDefparam(stub, true)
	}
}

// applyDefparam resolves and applies a single defparam, returning whether it
// changed the target's value. Errors are reported only when reportFailures
// is set, on the closing pass (earlier failures may just mean the target
// parameter hasn't been created yet).
func (d *Driver) applyDefparam(stub defparamStub, reportFailures bool) bool {
	n := stub.node
	branches, tail := vl.SplitHierName(n.Name)
	h, targetScope, ok := vl.FindHierarchical(stub.scope, branches, tail)
	if !ok || h.Tag != vl.TagParameter {
		if reportFailures {
			d.Sink.ReportError(diag.New(n.Region, diag.CodeNotFound, "defparam target %q not found", n.Name))
		}
		return false
	}
	p := d.Factory.Parameter(h)
	if p.IsLocal {
		if reportFailures {
			d.Sink.ReportError(diag.New(n.Region, diag.CodeIsALocalparam, "defparam cannot target localparam %q", n.Name))
		}
		return false
	}
	v := d.Mod.Expr.Eval.EvaluateExpr(targetScope, n.Child(len(n.Children)-1), elab.Default().AsConstant())
	changed := p.Value.String() != v.String()
	return p.SetValue(v) && changed
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
