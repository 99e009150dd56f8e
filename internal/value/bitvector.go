package value

import (
	"math/big"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// FourState is a single four-valued logic bit.
type FourState int

const (
	Zero FourState = iota
	One
	X
	Z
)

// String renders a FourState bit as a Verilog literal digit.
func (f FourState) String() string {
	switch f {
	case Zero:
		return "0"
	case One:
		return "1"
	case X:
		return "x"
	case Z:
		return "z"
	default:
		return "?"
	}
}

// BitVector is a four-state bit vector, bit 0 is the least significant bit.
// Each bit is stored as an (aval, bval) pair following the common VPI
// encoding: (1,0)=1 (0,0)=0 (1,1)=X (0,1)=Z. Arithmetic on a fully-known
// vector (bval all zero) takes a fast path through math/big; any X/Z operand
// propagates to an all-X result per §4.1/§8.
type BitVector struct {
	width  int
	signed bool
	aval   *bitset.BitSet
	bval   *bitset.BitSet
}

// NewKnown builds a fully-known BitVector of the given width and signedness
// from a two's-complement-truncated big.Int value.
func NewKnown(width int, signed bool, v *big.Int) BitVector {
	bv := BitVector{width: width, signed: signed, aval: bitset.New(uint(width)), bval: bitset.New(uint(width))}
	vv := new(big.Int).Set(v)
	if vv.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
		vv.Add(vv, mod)
	}
	for i := 0; i < width; i++ {
		if vv.Bit(i) == 1 {
			bv.aval.Set(uint(i))
		}
	}
	return bv
}

// NewUint64 is a convenience wrapper over NewKnown for small values.
func NewUint64(width int, signed bool, v uint64) BitVector {
	return NewKnown(width, signed, new(big.Int).SetUint64(v))
}

// NewX returns an all-X vector of the given width.
func NewX(width int, signed bool) BitVector {
	bv := BitVector{width: width, signed: signed, aval: bitset.New(uint(width)), bval: bitset.New(uint(width))}
	bv.bval.FlipRange(0, uint(width))
	bv.aval.FlipRange(0, uint(width))
	return bv
}

// NewZ returns an all-Z vector of the given width.
func NewZ(width int, signed bool) BitVector {
	bv := BitVector{width: width, signed: signed, aval: bitset.New(uint(width)), bval: bitset.New(uint(width))}
	bv.bval.FlipRange(0, uint(width))
	return bv
}

// Width returns the number of bits in v.
func (v BitVector) Width() int { return v.width }

// Signed reports whether v is interpreted as two's complement.
func (v BitVector) Signed() bool { return v.signed }

// Bit returns the four-state value of bit i (0 = LSB).
func (v BitVector) Bit(i int) FourState {
	a, b := v.aval.Test(uint(i)), v.bval.Test(uint(i))
	switch {
	case !a && !b:
		return Zero
	case a && !b:
		return One
	case a && b:
		return X
	default:
		return Z
	}
}

// SetBit sets bit i (0 = LSB) to the given four-state value.
func (v BitVector) SetBit(i int, f FourState) {
	switch f {
	case Zero:
		v.aval.Clear(uint(i))
		v.bval.Clear(uint(i))
	case One:
		v.aval.Set(uint(i))
		v.bval.Clear(uint(i))
	case X:
		v.aval.Set(uint(i))
		v.bval.Set(uint(i))
	case Z:
		v.aval.Clear(uint(i))
		v.bval.Set(uint(i))
	}
}

// IsKnown reports whether v has no X or Z bits.
func (v BitVector) IsKnown() bool { return v.bval.None() }

// HasXZ reports whether v has any X or Z bit.
func (v BitVector) HasXZ() bool { return !v.bval.None() }

// AllX reports whether every bit of v is X.
func (v BitVector) AllX() bool {
	return v.bval.Count() == uint(v.width) && v.aval.Count() == uint(v.width)
}

// ToBigInt returns the known value of v as a big.Int, interpreting sign if
// v.signed. ok is false if v has any X/Z bit.
func (v BitVector) ToBigInt() (n *big.Int, ok bool) {
	if v.HasXZ() {
		return nil, false
	}
	n = new(big.Int)
	for i := 0; i < v.width; i++ {
		if v.aval.Test(uint(i)) {
			n.SetBit(n, i, 1)
		}
	}
	if v.signed && v.width > 0 && n.Bit(v.width-1) == 1 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(v.width))
		n.Sub(n, mod)
	}
	return n, true
}

// ToInt64 is a convenience wrapper over ToBigInt for values fitting in int64.
func (v BitVector) ToInt64() (int64, bool) {
	n, ok := v.ToBigInt()
	if !ok {
		return 0, false
	}
	return n.Int64(), true
}

// resize returns a copy of v zero/sign-extended or truncated to width w.
func (v BitVector) resize(w int) BitVector {
	out := BitVector{width: w, signed: v.signed, aval: bitset.New(uint(w)), bval: bitset.New(uint(w))}
	for i := 0; i < w; i++ {
		if i < v.width {
			out.SetBit(i, v.Bit(i))
			continue
		}
		fill := Zero
		if v.signed && v.width > 0 {
			fill = v.Bit(v.width - 1)
		}
		out.SetBit(i, fill)
	}
	return out
}

// binaryArith implements the common shape of +,-,*,/,% : widen both operands
// to the promoted width/signedness, and if either has any X/Z bit (or the
// divisor of / or % is zero) the result is all-X of that width (§4.1, §8).
func binaryArith(a, b BitVector, width int, signed bool, op func(x, y *big.Int) (*big.Int, bool)) BitVector {
	aw, bw := a.resize(width), b.resize(width)
	if aw.HasXZ() || bw.HasXZ() {
		return NewX(width, signed)
	}
	av, _ := aw.ToBigInt()
	bv, _ := bw.ToBigInt()
	r, ok := op(av, bv)
	if !ok {
		return NewX(width, signed)
	}
	return NewKnown(width, signed, r)
}

// Add returns a+b at the promoted width/signedness.
func Add(a, b BitVector, width int, signed bool) BitVector {
	return binaryArith(a, b, width, signed, func(x, y *big.Int) (*big.Int, bool) {
		return new(big.Int).Add(x, y), true
	})
}

// Sub returns a-b at the promoted width/signedness.
func Sub(a, b BitVector, width int, signed bool) BitVector {
	return binaryArith(a, b, width, signed, func(x, y *big.Int) (*big.Int, bool) {
		return new(big.Int).Sub(x, y), true
	})
}

// Mul returns a*b at the promoted width/signedness.
func Mul(a, b BitVector, width int, signed bool) BitVector {
	return binaryArith(a, b, width, signed, func(x, y *big.Int) (*big.Int, bool) {
		return new(big.Int).Mul(x, y), true
	})
}

// Div returns a/b at the promoted width/signedness. Division by zero yields
// all-X, per §4.1/§8.
func Div(a, b BitVector, width int, signed bool) BitVector {
	return binaryArith(a, b, width, signed, func(x, y *big.Int) (*big.Int, bool) {
		if y.Sign() == 0 {
			return nil, false
		}
		return new(big.Int).Quo(x, y), true
	})
}

// Mod returns a%b at the promoted width/signedness. Modulo by zero yields
// all-X, per §4.1/§8.
func Mod(a, b BitVector, width int, signed bool) BitVector {
	return binaryArith(a, b, width, signed, func(x, y *big.Int) (*big.Int, bool) {
		if y.Sign() == 0 {
			return nil, false
		}
		return new(big.Int).Rem(x, y), true
	})
}

// Neg returns two's-complement negation of a.
func Neg(a BitVector, width int, signed bool) BitVector {
	zero := NewUint64(width, signed, 0)
	return Sub(zero, a, width, signed)
}

// bitwiseTruthTable implements a two-input gate over FourState per IEEE 1364
// four-valued tables (0/1 behave classically, X/Z propagate as X except
// where the other operand is a dominating 0 for AND or 1 for OR).
func bitwiseTruthTable(op byte, a, b FourState) FourState {
	av := normalizeZ(a)
	bv := normalizeZ(b)
	switch op {
	case '&':
		if av == Zero || bv == Zero {
			return Zero
		}
		if av == One && bv == One {
			return One
		}
		return X
	case '|':
		if av == One || bv == One {
			return One
		}
		if av == Zero && bv == Zero {
			return Zero
		}
		return X
	case '^':
		if av == X || bv == X {
			return X
		}
		if av == bv {
			return Zero
		}
		return One
	default:
		return X
	}
}

// normalizeZ treats Z as X for the purpose of bitwise gate evaluation, per
// IEEE 1364 table 5-1.
func normalizeZ(f FourState) FourState {
	if f == Z {
		return X
	}
	return f
}

// bitwiseOp applies a two-input gate bitwise across a and b at width,
// widening both operands first.
func bitwiseOp(op byte, a, b BitVector, width int, signed bool) BitVector {
	aw, bw := a.resize(width), b.resize(width)
	out := BitVector{width: width, signed: signed, aval: bitset.New(uint(width)), bval: bitset.New(uint(width))}
	for i := 0; i < width; i++ {
		out.SetBit(i, bitwiseTruthTable(op, aw.Bit(i), bw.Bit(i)))
	}
	return out
}

// And returns the bitwise AND of a and b.
func And(a, b BitVector, width int, signed bool) BitVector { return bitwiseOp('&', a, b, width, signed) }

// Or returns the bitwise OR of a and b.
func Or(a, b BitVector, width int, signed bool) BitVector { return bitwiseOp('|', a, b, width, signed) }

// Xor returns the bitwise XOR of a and b.
func Xor(a, b BitVector, width int, signed bool) BitVector { return bitwiseOp('^', a, b, width, signed) }

// Not returns the bitwise negation of a.
func Not(a BitVector) BitVector {
	out := BitVector{width: a.width, signed: a.signed, aval: bitset.New(uint(a.width)), bval: bitset.New(uint(a.width))}
	for i := 0; i < a.width; i++ {
		switch normalizeZ(a.Bit(i)) {
		case Zero:
			out.SetBit(i, One)
		case One:
			out.SetBit(i, Zero)
		default:
			out.SetBit(i, X)
		}
	}
	return out
}

// Shl returns a logically shifted left by n bits (n known, non-negative),
// widened to width.
func Shl(a BitVector, n int, width int, signed bool) BitVector {
	out := NewUint64(width, signed, 0)
	for i := 0; i < a.width && i+n < width; i++ {
		out.SetBit(i+n, a.Bit(i))
	}
	return out
}

// Shr returns a shifted right by n bits. arithmetic selects sign-extending
// shift (per the `>>>` operator); otherwise the vacated bits are zero.
func Shr(a BitVector, n int, arithmetic bool, width int, signed bool) BitVector {
	out := NewUint64(width, signed, 0)
	fill := Zero
	if arithmetic && a.width > 0 {
		fill = a.Bit(a.width - 1)
	}
	for i := 0; i < width; i++ {
		src := i + n
		if src < a.width {
			out.SetBit(i, a.Bit(src))
		} else {
			out.SetBit(i, fill)
		}
	}
	return out
}

// Concat concatenates operands MSB-first (ops[0] occupies the high bits),
// per §4.1: concatenation width sums operand widths and the result is
// unsigned.
func Concat(ops ...BitVector) BitVector {
	width := 0
	for _, o := range ops {
		width += o.width
	}
	out := BitVector{width: width, signed: false, aval: bitset.New(uint(width)), bval: bitset.New(uint(width))}
	pos := 0
	for i := len(ops) - 1; i >= 0; i-- {
		o := ops[i]
		for b := 0; b < o.width; b++ {
			out.SetBit(pos+b, o.Bit(b))
		}
		pos += o.width
	}
	return out
}

// Eq returns a 1-bit result: One/Zero if both operands are fully known,
// otherwise X (bitwise `==`, not the case-equality `===` operator).
func Eq(a, b BitVector, width int) BitVector {
	aw, bw := a.resize(width), b.resize(width)
	if aw.HasXZ() || bw.HasXZ() {
		return NewX(1, false)
	}
	av, _ := aw.ToBigInt()
	bv, _ := bw.ToBigInt()
	if av.Cmp(bv) == 0 {
		return NewUint64(1, false, 1)
	}
	return NewUint64(1, false, 0)
}

// CaseEq returns a known 1-bit result comparing a and b bit-for-bit
// including X/Z (the `===` operator).
func CaseEq(a, b BitVector, width int) BitVector {
	aw, bw := a.resize(width), b.resize(width)
	for i := 0; i < width; i++ {
		if aw.Bit(i) != bw.Bit(i) {
			return NewUint64(1, false, 0)
		}
	}
	return NewUint64(1, false, 1)
}

// Relational returns a 1-bit result for <,>,<=,>= as specified by op, or X if
// either operand has unknown bits.
func Relational(op string, a, b BitVector, width int, signed bool) BitVector {
	aw, bw := a.resize(width), b.resize(width)
	if aw.HasXZ() || bw.HasXZ() {
		return NewX(1, false)
	}
	av, _ := aw.ToBigInt()
	bv, _ := bw.ToBigInt()
	cmp := av.Cmp(bv)
	var result bool
	switch op {
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	}
	if result {
		return NewUint64(1, false, 1)
	}
	return NewUint64(1, false, 0)
}

// String renders v's bits MSB first, e.g. "0000x011"; Value.String adds the
// width prefix.
func (v BitVector) String() string {
	var sb strings.Builder
	for i := v.width - 1; i >= 0; i-- {
		sb.WriteString(v.Bit(i).String())
	}
	return sb.String()
}

// MinWidth returns the minimum number of bits needed to represent the known
// value n (at least 1), used for unsized constant literals per §4.1.
func MinWidth(n *big.Int) int {
	w := n.BitLen()
	if w == 0 {
		return 1
	}
	return w
}
