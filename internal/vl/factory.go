package vl

import "sync"

// Factory is the elaborator's single entity arena (§3's Ownership rule: "All
// VL entities are owned by a single arena/store in the elaborator;
// cross-references between VL entities are by stable handle"). Each New*
// method appends to the corresponding slice and returns a Handle that stays
// valid for the Factory's lifetime, even as other slices grow.
type Factory struct {
	mu sync.Mutex

	modules      []*Module
	moduleArrays []*ModuleArray
	decls        []*Decl
	declArrays   []*DeclArray
	parameters   []*Parameter
	genvars      []*Genvar
	primitives   []*Primitive
	primArrays   []*PrimArray
	contAssigns  []*ContAssign
	paramAssigns []*ParamAssign
	defParams    []*DefParam
	processes    []*Process
}

// NewFactory returns an empty entity arena.
func NewFactory() *Factory { return &Factory{} }

// NewModule allocates m in f and returns its handle.
func (f *Factory) NewModule(m *Module) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modules = append(f.modules, m)
	return Handle{Tag: TagModule, idx: len(f.modules) - 1}
}

// Module dereferences a TagModule handle.
func (f *Factory) Module(h Handle) *Module {
	if h.Tag != TagModule {
		return nil
	}
	return f.modules[h.idx]
}

// NewModuleArray allocates a in f and returns its handle.
func (f *Factory) NewModuleArray(a *ModuleArray) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moduleArrays = append(f.moduleArrays, a)
	return Handle{Tag: TagModuleArray, idx: len(f.moduleArrays) - 1}
}

// ModuleArray dereferences a TagModuleArray handle.
func (f *Factory) ModuleArray(h Handle) *ModuleArray {
	if h.Tag != TagModuleArray {
		return nil
	}
	return f.moduleArrays[h.idx]
}

// NewDecl allocates d in f and returns its handle.
func (f *Factory) NewDecl(d *Decl) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decls = append(f.decls, d)
	return Handle{Tag: TagDecl, idx: len(f.decls) - 1}
}

// Decl dereferences a TagDecl handle.
func (f *Factory) Decl(h Handle) *Decl {
	if h.Tag != TagDecl {
		return nil
	}
	return f.decls[h.idx]
}

// NewDeclArray allocates d in f and returns its handle.
func (f *Factory) NewDeclArray(d *DeclArray) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.declArrays = append(f.declArrays, d)
	return Handle{Tag: TagDeclArray, idx: len(f.declArrays) - 1}
}

// DeclArray dereferences a TagDeclArray handle.
func (f *Factory) DeclArray(h Handle) *DeclArray {
	if h.Tag != TagDeclArray {
		return nil
	}
	return f.declArrays[h.idx]
}

// NewParameter allocates p in f and returns its handle.
func (f *Factory) NewParameter(p *Parameter) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parameters = append(f.parameters, p)
	return Handle{Tag: TagParameter, idx: len(f.parameters) - 1}
}

// Parameter dereferences a TagParameter handle.
func (f *Factory) Parameter(h Handle) *Parameter {
	if h.Tag != TagParameter {
		return nil
	}
	return f.parameters[h.idx]
}

// AllParameters returns every allocated Parameter, for the driver's
// freeze-after-defparam-settlement pass (§4.11, §3's Parameter invariant).
func (f *Factory) AllParameters() []*Parameter {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Parameter, len(f.parameters))
	copy(out, f.parameters)
	return out
}

// NewGenvar allocates g in f and returns its handle.
func (f *Factory) NewGenvar(g *Genvar) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genvars = append(f.genvars, g)
	return Handle{Tag: TagGenvar, idx: len(f.genvars) - 1}
}

// Genvar dereferences a TagGenvar handle.
func (f *Factory) Genvar(h Handle) *Genvar {
	if h.Tag != TagGenvar {
		return nil
	}
	return f.genvars[h.idx]
}

// NewPrimitive allocates p in f and returns its handle.
func (f *Factory) NewPrimitive(p *Primitive) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primitives = append(f.primitives, p)
	return Handle{Tag: TagPrimitive, idx: len(f.primitives) - 1}
}

// Primitive dereferences a TagPrimitive handle.
func (f *Factory) Primitive(h Handle) *Primitive {
	if h.Tag != TagPrimitive {
		return nil
	}
	return f.primitives[h.idx]
}

// NewPrimArray allocates a in f and returns its handle.
func (f *Factory) NewPrimArray(a *PrimArray) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primArrays = append(f.primArrays, a)
	return Handle{Tag: TagPrimArray, idx: len(f.primArrays) - 1}
}

// PrimArray dereferences a TagPrimArray handle.
func (f *Factory) PrimArray(h Handle) *PrimArray {
	if h.Tag != TagPrimArray {
		return nil
	}
	return f.primArrays[h.idx]
}

// NewContAssign allocates c in f and returns its handle.
func (f *Factory) NewContAssign(c *ContAssign) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contAssigns = append(f.contAssigns, c)
	return Handle{Tag: TagContAssign, idx: len(f.contAssigns) - 1}
}

// ContAssign dereferences a TagContAssign handle.
func (f *Factory) ContAssign(h Handle) *ContAssign {
	if h.Tag != TagContAssign {
		return nil
	}
	return f.contAssigns[h.idx]
}

// NewParamAssign allocates p in f and returns its handle.
func (f *Factory) NewParamAssign(p *ParamAssign) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paramAssigns = append(f.paramAssigns, p)
	return Handle{Tag: TagParamAssign, idx: len(f.paramAssigns) - 1}
}

// ParamAssign dereferences a TagParamAssign handle.
func (f *Factory) ParamAssign(h Handle) *ParamAssign {
	if h.Tag != TagParamAssign {
		return nil
	}
	return f.paramAssigns[h.idx]
}

// NewDefParam allocates d in f and returns its handle.
func (f *Factory) NewDefParam(d *DefParam) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defParams = append(f.defParams, d)
	return Handle{Tag: TagDefParam, idx: len(f.defParams) - 1}
}

// DefParam dereferences a TagDefParam handle.
func (f *Factory) DefParam(h Handle) *DefParam {
	if h.Tag != TagDefParam {
		return nil
	}
	return f.defParams[h.idx]
}

// AllDefParams returns every allocated DefParam.
func (f *Factory) AllDefParams() []*DefParam {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*DefParam, len(f.defParams))
	copy(out, f.defParams)
	return out
}

// NewProcess allocates p in f and returns its handle.
func (f *Factory) NewProcess(p *Process) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processes = append(f.processes, p)
	return Handle{Tag: TagProcess, idx: len(f.processes) - 1}
}

// Process dereferences a TagProcess handle.
func (f *Factory) Process(h Handle) *Process {
	if h.Tag != TagProcess {
		return nil
	}
	return f.processes[h.idx]
}
