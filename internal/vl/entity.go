package vl

import (
	"vlelab/internal/diag"
	"vlelab/internal/rng"
	"vlelab/internal/value"
)

// DeclType is the declared storage kind of a Decl (§3's Decl/DeclArray row).
type DeclType int

const (
	DeclNet DeclType = iota
	DeclReg
	DeclVar
	DeclInteger
	DeclReal
	DeclTime
	DeclEvent
)

// Module is the elaborated instantiation of a module definition: its own
// scope, port list, param-assign list and item handles. Created at
// instantiation time and fully populated by the end of elaboration (§3).
type Module struct {
	Region      diag.Region
	DefName     string
	InstName    string
	Scope       *Scope
	Ports       []Handle // TagDecl/TagDeclArray handles, in port order.
	ParamAssigns []Handle
	Items       []Handle
}

// ModuleArray is a vector of Module instances created by an array
// instantiation (`m inst[3:0](...)`), sharing one defparam/override binding
// per element (§3).
type ModuleArray struct {
	Region   diag.Region
	DefName  string
	InstName string
	Range    rng.Range
	Elems    []Handle // TagModule handles, indexed via Range offsets.
}

// Decl is a single scalar or vector declaration (§3's Decl row).
type Decl struct {
	Region  diag.Region
	Name    string
	Owner   *Scope
	Type    DeclType
	Signed  bool
	Range   *rng.Range // nil for scalar/integer/real/time/event decls.
	Initial *Expr      // nil if no initializer.
	Delay   *Delay
	NetType string // "wire", "tri", "wand", ... ("" for non-net decls).
	Strength *Strength
}

// ValueType returns the VlValueType a reference to this decl carries.
func (d *Decl) ValueType() value.Type {
	switch d.Type {
	case DeclReal:
		return value.RealType()
	case DeclTime:
		return value.TimeType()
	case DeclInteger:
		return value.IntType()
	default:
		w := 1
		if d.Range != nil {
			w = d.Range.Size()
		}
		return value.BitVectorType(d.Signed, true, w)
	}
}

// DeclArray is an unpacked array of Decl, e.g. `reg [7:0] mem [0:15]` (§3).
type DeclArray struct {
	Region diag.Region
	Name   string
	Owner  *Scope
	Elem   Decl
	Dims   rng.Array
}

// Parameter is a module parameter or localparam (§3's Parameter row). Value
// may change once via override or defparam before Freeze is called; after
// Freeze, reads return the final value (§3's invariant).
type Parameter struct {
	Region    diag.Region
	Name      string
	Owner     *Scope
	Type      value.Type
	Value     value.Value
	IsLocal   bool
	Frozen    bool
}

// SetValue assigns a new value to an unfrozen parameter.
func (p *Parameter) SetValue(v value.Value) bool {
	if p.Frozen {
		return false
	}
	p.Value = v
	return true
}

// Freeze fixes p's value, matching §3's "Parameters are frozen once all
// defparam/override assignments are applied".
func (p *Parameter) Freeze() { p.Frozen = true }

// Genvar is a generate-for loop variable, visible only during gen-for
// expansion, with the in_use flag that catches a nested generate-for reusing
// a genvar that already drives an enclosing loop (§3, §8 "genvar currently
// being assigned").
type Genvar struct {
	Region diag.Region
	Name   string
	Owner  *Scope
	Value  int
	InUse  bool
}

// Primitive is a gate or UDP instance; terminals link to VL expressions
// referring to scope decls (§3).
type Primitive struct {
	Region    diag.Region
	Kind      string // "and", "nand", ..., or a UDP/cell name.
	InstName  string
	Strength  *Strength
	Delay     *Delay
	Terminals []*Expr // output(s) first, per the gate_instance terminal order.
}

// PrimArray is a vector of Primitive instances from an array instantiation.
type PrimArray struct {
	Region diag.Region
	Kind   string
	Range  rng.Range
	Elems  []Handle
}

// ContAssign is a `assign lhs = rhs;` item, owned by a Module (§3).
type ContAssign struct {
	Region   diag.Region
	Lhs, Rhs *Expr
	Delay    *Delay
	Strength *Strength
}

// ParamAssign is one binding of an instance override or a module's own
// `#(...)` default, carrying both the rhs expression and its evaluated
// value (§3).
type ParamAssign struct {
	Region diag.Region
	Target *Parameter
	Rhs    *Expr
	Value  value.Value
}

// DefParam is a deferred `defparam a.b.c = expr;` assignment recorded by
// ItemGen. Target and Resolved are not filled in: the driver's defparam
// phase (§4.11, §5) works from its own queue of PT nodes.
type DefParam struct {
	Region   diag.Region
	Target   *Parameter
	Rhs      *Expr
	Resolved bool
}

// ProcessKind distinguishes `initial` from `always` processes.
type ProcessKind int

const (
	ProcessInitial ProcessKind = iota
	ProcessAlways
)

// Process is an `initial`/`always` block, owned by a scope (§3).
type Process struct {
	Region diag.Region
	Kind   ProcessKind
	Body   *Stmt
}

// Delay is an elaborated `#(...)` delay specification; rise/fall/turnoff
// mirror the three-value delay grammar, with fall/turnoff unset (nil) for a
// single-value delay.
type Delay struct {
	Region            diag.Region
	Rise, Fall, Turnoff *Expr
}

// Strength is an elaborated drive/charge strength specification.
type Strength struct {
	Region    diag.Region
	Strength0 string
	Strength1 string
}

// Attribute is one `(* name = value *)` binding, recorded once per
// attachment (§4.4).
type Attribute struct {
	Name    string
	Value   *Expr
	DefSide bool
}
