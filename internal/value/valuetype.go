// Package value implements the Verilog value and type kernel (§4.1): the
// four-valued VlValue variant, its BitVector backing store, and VlValueType.
package value

import "fmt"

// Kind distinguishes the sentinel value-type variants from the general
// bit-vector variant, mirroring ym-verilog's VlValueType (int_type/real_type/
// time_type constructors plus the general sign/size/width encoding).
type Kind int

const (
	// NoType is returned for an expression whose type has not been
	// determined, or cannot be (e.g. a malformed operand).
	NoType Kind = iota
	BitVector
	Int
	Real
	Time
)

// Fixed widths for the sentinel kinds, taken from ym-verilog's
// kVpiSizeInteger/kVpiSizeReal/kVpiSizeTime constants.
const (
	SizeInteger = 32
	SizeReal    = 64
	SizeTime    = 64
)

// Type is VlValueType: a (kind, signedness, sizedness, width) tuple.
type Type struct {
	Kind   Kind
	Signed bool
	Sized  bool
	Width  int
}

// IntType returns the 32-bit signed `integer` type.
func IntType() Type { return Type{Kind: Int, Signed: true, Sized: true, Width: SizeInteger} }

// RealType returns the `real` type.
func RealType() Type { return Type{Kind: Real, Width: SizeReal} }

// TimeType returns the 64-bit unsigned `time` type.
func TimeType() Type { return Type{Kind: Time, Signed: false, Sized: true, Width: SizeTime} }

// BitVectorType returns a general sized/unsized, signed/unsigned bit-vector
// type of the given width.
func BitVectorType(signed, sized bool, width int) Type {
	return Type{Kind: BitVector, Signed: signed, Sized: sized, Width: width}
}

// IsNoType reports whether t carries no usable type information.
func (t Type) IsNoType() bool { return t.Kind == NoType }

// IsBitVectorType reports whether t can be viewed as a bit-vector, which
// includes the Int and Time sentinel kinds (ym-verilog: is_bitvector_type
// deliberately includes integer/time).
func (t Type) IsBitVectorType() bool {
	return t.Kind == BitVector || t.Kind == Int || t.Kind == Time
}

// IsRealType reports whether t is the `real` type.
func (t Type) IsRealType() bool { return t.Kind == Real }

// IsSigned reports whether t is signed.
func (t Type) IsSigned() bool { return t.Signed }

// IsSized reports whether t carries an explicit size.
func (t Type) IsSized() bool { return t.Sized }

// Size returns the bit width of t. Meaningless for Real and NoType.
func (t Type) Size() int { return t.Width }

// String renders t for diagnostics, e.g. "signed sized[8]", "unsigned unsized[1]", "real".
func (t Type) String() string {
	switch t.Kind {
	case NoType:
		return "no-type"
	case Real:
		return "real"
	case Int:
		return "integer"
	case Time:
		return "time"
	default:
		sign := "unsigned"
		if t.Signed {
			sign = "signed"
		}
		sizedness := "unsized"
		if t.Sized {
			sizedness = "sized"
		}
		return fmt.Sprintf("%s %s[%d]", sign, sizedness, t.Width)
	}
}

// Equal reports structural equality, matching ym-verilog's VlValueType::operator==.
func (t Type) Equal(o Type) bool {
	return t.Kind == o.Kind && t.Signed == o.Signed && t.Sized == o.Sized && t.Width == o.Width
}

// PromoteBinary computes the result type of a binary operator applied to
// operand types a and b, per §4.1: real dominates; else the widest
// bit-vector width and the union of signedness (signed iff both signed);
// time coerces to a 64-bit unsigned bit-vector.
func PromoteBinary(a, b Type) Type {
	if a.Kind == Real || b.Kind == Real {
		return RealType()
	}
	aw, bw := effectiveWidth(a), effectiveWidth(b)
	w := aw
	if bw > w {
		w = bw
	}
	signed := a.Signed && b.Signed
	sized := a.Sized || b.Sized
	return BitVectorType(signed, sized, w)
}

// effectiveWidth returns the bit width to use for promotion, coercing Time
// to its 64-bit bit-vector representation.
func effectiveWidth(t Type) int {
	if t.Kind == Time {
		return SizeTime
	}
	return t.Width
}
