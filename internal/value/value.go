package value

import (
	"fmt"
	"math/big"
)

// Variant distinguishes the VlValue sum-type cases.
type Variant int

const (
	VNone Variant = iota
	VInt32
	VReal
	VTime
	VBitVector
	VString
	VError
)

// Value is VlValue: the tagged union produced by every evaluator and
// generator method in §4.1, §4.5 and §4.6. Exactly one of the typed fields is
// meaningful for a given Variant; String and Error share the variant's
// payload by convention since neither participates in arithmetic.
type Value struct {
	Variant Variant
	Typ     Type
	Int32   int32
	Real    float64
	Time    uint64
	Bits    BitVector
	Str     string
}

// NoValue is the zero Value: no value at all, e.g. the result of evaluating
// an absent expression. Evaluation failures are VError values (NewError).
var NoValue = Value{Variant: VNone, Typ: Type{Kind: NoType}}

// NewInt32 returns a VInt32 value (the `integer` type, §4.1).
func NewInt32(n int32) Value {
	return Value{Variant: VInt32, Typ: IntType(), Int32: n}
}

// NewReal returns a VReal value.
func NewReal(f float64) Value {
	return Value{Variant: VReal, Typ: RealType(), Real: f}
}

// NewTime returns a VTime value.
func NewTime(t uint64) Value {
	return Value{Variant: VTime, Typ: TimeType(), Time: t}
}

// NewBitVector returns a VBitVector value wrapping bv.
func NewBitVector(bv BitVector) Value {
	return Value{Variant: VBitVector, Typ: BitVectorType(bv.Signed(), true, bv.Width()), Bits: bv}
}

// NewString returns a VString value, used for string literals and the %s
// formatting intermediate.
func NewString(s string) Value {
	return Value{Variant: VString, Typ: Type{Kind: NoType}, Str: s}
}

// NewError returns a VError value representing an evaluation failure that a
// diagnostic has already been reported for.
func NewError(msg string) Value {
	return Value{Variant: VError, Typ: Type{Kind: NoType}, Str: msg}
}

// IsError reports whether v represents a failed evaluation.
func (v Value) IsError() bool { return v.Variant == VError }

// IsNone reports whether v carries no value at all.
func (v Value) IsNone() bool { return v.Variant == VNone }

// IsReal reports whether v is a VReal.
func (v Value) IsReal() bool { return v.Variant == VReal }

// AsBitVector coerces v to a BitVector at its own width, converting VInt32
// and VTime as needed. Real values have no exact bit-vector form and return
// ok=false; callers needing real-to-integer truncation should do so
// explicitly (ExprEval's evaluate_int performs the $rtoi-style truncation).
func (v Value) AsBitVector() (bv BitVector, ok bool) {
	switch v.Variant {
	case VBitVector:
		return v.Bits, true
	case VInt32:
		return NewKnown(SizeInteger, true, big.NewInt(int64(v.Int32))), true
	case VTime:
		return NewKnown(SizeTime, false, new(big.Int).SetUint64(v.Time)), true
	default:
		return BitVector{}, false
	}
}

// AsInt64 coerces a known, integral v to an int64. Reals are truncated
// toward zero, matching the `$rtoi` conversion used throughout expression
// generation for self-determined integer contexts.
func (v Value) AsInt64() (n int64, ok bool) {
	switch v.Variant {
	case VInt32:
		return int64(v.Int32), true
	case VTime:
		return int64(v.Time), true
	case VReal:
		return int64(v.Real), true
	case VBitVector:
		return v.Bits.ToInt64()
	default:
		return 0, false
	}
}

// AsFloat64 coerces v to a float64, matching the `$itor` conversion applied
// whenever a bit-vector or integer operand feeds a real-valued context.
func (v Value) AsFloat64() (f float64, ok bool) {
	switch v.Variant {
	case VReal:
		return v.Real, true
	case VInt32:
		return float64(v.Int32), true
	case VTime:
		return float64(v.Time), true
	case VBitVector:
		n, known := v.Bits.ToInt64()
		if !known {
			return 0, false
		}
		return float64(n), true
	default:
		return 0, false
	}
}

// String renders v for diagnostics.
func (v Value) String() string {
	switch v.Variant {
	case VNone:
		return "<no value>"
	case VError:
		return fmt.Sprintf("<error: %s>", v.Str)
	case VString:
		return fmt.Sprintf("%q", v.Str)
	case VInt32:
		return fmt.Sprintf("%d", v.Int32)
	case VReal:
		return fmt.Sprintf("%g", v.Real)
	case VTime:
		return fmt.Sprintf("%dt", v.Time)
	case VBitVector:
		return fmt.Sprintf("%d'b%s", v.Bits.Width(), v.Bits.String())
	default:
		return "<?>"
	}
}

// InferWidth implements §4.1's constant-size-inference rule for an unsized
// bit-vector literal: the declared width if sized is true, otherwise the
// minimum width needed to represent n (never less than 1, and never less
// than SizeInteger when no width context applies at all, matching the
// `integer`-sized default for plain decimal literals).
func InferWidth(n *big.Int, sized bool, declaredWidth int) int {
	if sized {
		return declaredWidth
	}
	w := MinWidth(n)
	if w < SizeInteger {
		return SizeInteger
	}
	return w
}

// Arith dispatches a binary arithmetic/bitwise/relational/logical operator
// across two operand values, applying §4.1's type-promotion rule
// (PromoteBinary) before delegating to the BitVector or float64 primitive.
// op is one of: "+","-","*","/","%","&","|","^","<<",">>",">>>",
// "<","<=",">",">=","==","!=","===","!==","&&","||".
func Arith(op string, a, b Value) Value {
	if a.IsReal() || b.IsReal() {
		return arithReal(op, a, b)
	}
	av, aok := a.AsBitVector()
	bv, bok := b.AsBitVector()
	if !aok || !bok {
		return NewError(fmt.Sprintf("operator %q requires a numeric operand", op))
	}
	pt := PromoteBinary(a.Typ, b.Typ)
	w, signed := pt.Width, pt.Signed

	switch op {
	case "+":
		return NewBitVector(Add(av, bv, w, signed))
	case "-":
		return NewBitVector(Sub(av, bv, w, signed))
	case "*":
		return NewBitVector(Mul(av, bv, w, signed))
	case "/":
		return NewBitVector(Div(av, bv, w, signed))
	case "%":
		return NewBitVector(Mod(av, bv, w, signed))
	case "&":
		return NewBitVector(And(av, bv, w, signed))
	case "|":
		return NewBitVector(Or(av, bv, w, signed))
	case "^":
		return NewBitVector(Xor(av, bv, w, signed))
	case "~^", "^~":
		return NewBitVector(Not(Xor(av, bv, w, signed)))
	case "<<":
		n, ok := b.AsInt64()
		if !ok || n < 0 {
			return NewBitVector(NewX(av.Width(), av.Signed()))
		}
		return NewBitVector(Shl(av, int(n), av.Width(), av.Signed()))
	case ">>":
		n, ok := b.AsInt64()
		if !ok || n < 0 {
			return NewBitVector(NewX(av.Width(), av.Signed()))
		}
		return NewBitVector(Shr(av, int(n), false, av.Width(), av.Signed()))
	case ">>>":
		n, ok := b.AsInt64()
		if !ok || n < 0 {
			return NewBitVector(NewX(av.Width(), av.Signed()))
		}
		return NewBitVector(Shr(av, int(n), av.Signed(), av.Width(), av.Signed()))
	case "<", "<=", ">", ">=":
		return NewBitVector(Relational(op, av, bv, w, signed))
	case "==":
		return NewBitVector(Eq(av, bv, w))
	case "!=":
		return NewBitVector(Not(Eq(av, bv, w)))
	case "===":
		return NewBitVector(CaseEq(av, bv, w))
	case "!==":
		return NewBitVector(Not(CaseEq(av, bv, w)))
	case "&&":
		return NewBitVector(logicalAnd(av, bv))
	case "||":
		return NewBitVector(logicalOr(av, bv))
	default:
		return NewError(fmt.Sprintf("unsupported operator %q", op))
	}
}

// logicalAnd implements the reduction-then-AND semantics of Verilog's `&&`.
func logicalAnd(a, b BitVector) BitVector {
	ab, aok := a.ToBigInt()
	bb, bok := b.ToBigInt()
	if !aok || !bok {
		return NewX(1, false)
	}
	if ab.Sign() != 0 && bb.Sign() != 0 {
		return NewUint64(1, false, 1)
	}
	return NewUint64(1, false, 0)
}

// logicalOr implements the reduction-then-OR semantics of Verilog's `||`.
func logicalOr(a, b BitVector) BitVector {
	ab, aok := a.ToBigInt()
	bb, bok := b.ToBigInt()
	if !aok || !bok {
		return NewX(1, false)
	}
	if ab.Sign() != 0 || bb.Sign() != 0 {
		return NewUint64(1, false, 1)
	}
	return NewUint64(1, false, 0)
}

// arithReal handles binary operators when either operand is real, per §4.1's
// "real dominates" promotion rule. Any operator not listed here (bitwise,
// shift, modulus, ...) is illegal on real operands and yields a VError value.
func arithReal(op string, a, b Value) Value {
	af, aok := a.AsFloat64()
	bf, bok := b.AsFloat64()
	if !aok || !bok {
		return NewError(fmt.Sprintf("operator %q requires a numeric operand", op))
	}
	switch op {
	case "+":
		return NewReal(af + bf)
	case "-":
		return NewReal(af - bf)
	case "*":
		return NewReal(af * bf)
	case "/":
		if bf == 0 {
			return NewReal(0)
		}
		return NewReal(af / bf)
	case "<":
		return boolBit(af < bf)
	case "<=":
		return boolBit(af <= bf)
	case ">":
		return boolBit(af > bf)
	case ">=":
		return boolBit(af >= bf)
	case "==", "===":
		return boolBit(af == bf)
	case "!=", "!==":
		return boolBit(af != bf)
	case "&&":
		return boolBit(af != 0 && bf != 0)
	case "||":
		return boolBit(af != 0 || bf != 0)
	default:
		return NewError(fmt.Sprintf("operator %q is illegal on a real operand", op))
	}
}

func boolBit(b bool) Value {
	if b {
		return NewBitVector(NewUint64(1, false, 1))
	}
	return NewBitVector(NewUint64(1, false, 0))
}

// Neg1 implements unary minus, dispatching to real or bit-vector negation.
func Neg1(a Value) Value {
	if a.IsReal() {
		f, _ := a.AsFloat64()
		return NewReal(-f)
	}
	bv, ok := a.AsBitVector()
	if !ok {
		return NewError("unary - requires a numeric operand")
	}
	return NewBitVector(Neg(bv, bv.Width(), bv.Signed()))
}

// Not1 implements the bitwise `~` unary operator.
func Not1(a Value) Value {
	bv, ok := a.AsBitVector()
	if !ok {
		return NewError("unary ~ requires a numeric operand")
	}
	return NewBitVector(Not(bv))
}

// LogicalNot1 implements the `!` unary operator: reduction to a single bit,
// then logical negation; X/Z operands yield X.
func LogicalNot1(a Value) Value {
	bv, ok := a.AsBitVector()
	if !ok {
		if a.IsReal() {
			f, _ := a.AsFloat64()
			return boolBit(f == 0)
		}
		return NewError("unary ! requires a numeric operand")
	}
	n, known := bv.ToBigInt()
	if !known {
		return NewBitVector(NewX(1, false))
	}
	return boolBit(n.Sign() == 0)
}

// reduceOp applies a unary reduction operator (&,|,^,~&,~|,~^) bit by bit
// across bv, per IEEE 1364 table 4-4.
func reduceOp(op string, bv BitVector) Value {
	if bv.Width() == 0 {
		return NewError("reduction operator requires a non-empty operand")
	}
	acc := bv.Bit(0)
	base := op
	invert := false
	switch op {
	case "~&":
		base, invert = "&", true
	case "~|":
		base, invert = "|", true
	case "~^":
		base, invert = "^", true
	}
	for i := 1; i < bv.Width(); i++ {
		acc = bitwiseTruthTable(base[0], acc, bv.Bit(i))
	}
	if invert {
		switch acc {
		case Zero:
			acc = One
		case One:
			acc = Zero
		}
	}
	out := NewUint64(1, false, 0)
	out.SetBit(0, acc)
	return NewBitVector(out)
}

// Reduce dispatches a unary reduction operator over a.
func Reduce(op string, a Value) Value {
	bv, ok := a.AsBitVector()
	if !ok {
		return NewError(fmt.Sprintf("reduction operator %q requires a numeric operand", op))
	}
	return reduceOp(op, bv)
}
