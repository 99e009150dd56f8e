package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromoteBinaryRealDominates(t *testing.T) {
	pt := PromoteBinary(RealType(), BitVectorType(true, true, 8))
	assert.True(t, pt.IsRealType())
}

func TestPromoteBinaryWidestWins(t *testing.T) {
	pt := PromoteBinary(BitVectorType(false, true, 4), BitVectorType(true, true, 16))
	assert.Equal(t, 16, pt.Size())
	assert.False(t, pt.IsSigned(), "mixed signedness promotes to unsigned")
}

func TestPromoteBinaryTimeCoercesTo64(t *testing.T) {
	pt := PromoteBinary(TimeType(), BitVectorType(true, true, 8))
	assert.Equal(t, SizeTime, pt.Size())
}

func TestBitVectorKnownRoundTrip(t *testing.T) {
	bv := NewUint64(8, false, 0xA5)
	n, ok := bv.ToBigInt()
	assert.True(t, ok)
	assert.Equal(t, int64(0xA5), n.Int64())
	assert.True(t, bv.IsKnown())
}

func TestBitVectorSignedNegative(t *testing.T) {
	bv := NewKnown(8, true, big.NewInt(-1))
	n, ok := bv.ToBigInt()
	assert.True(t, ok)
	assert.Equal(t, int64(-1), n.Int64())
}

func TestBitVectorXPropagation(t *testing.T) {
	x := NewX(4, false)
	assert.True(t, x.AllX())
	assert.False(t, x.IsKnown())
	sum := Add(x, NewUint64(4, false, 1), 4, false)
	assert.True(t, sum.AllX())
}

func TestDivisionByZeroYieldsAllX(t *testing.T) {
	a := NewUint64(8, false, 10)
	zero := NewUint64(8, false, 0)
	q := Div(a, zero, 8, false)
	assert.True(t, q.AllX())
	m := Mod(a, zero, 8, false)
	assert.True(t, m.AllX())
}

func TestBitwiseTruthTable(t *testing.T) {
	one := NewUint64(1, false, 1)
	x := NewX(1, false)
	r := And(one, x, 1, false)
	assert.Equal(t, X, r.Bit(0), "1 & x is x")

	zero := NewUint64(1, false, 0)
	r = And(zero, x, 1, false)
	assert.Equal(t, Zero, r.Bit(0), "0 & x is 0 (dominating zero)")

	r = Or(one, x, 1, false)
	assert.Equal(t, One, r.Bit(0), "1 | x is 1 (dominating one)")
}

func TestConcatWidthSumsUnsigned(t *testing.T) {
	a := NewUint64(4, true, 0xF)
	b := NewUint64(4, true, 0x0)
	c := Concat(a, b)
	assert.Equal(t, 8, c.Width())
	assert.False(t, c.Signed())
	n, ok := c.ToBigInt()
	assert.True(t, ok)
	assert.Equal(t, int64(0xF0), n.Int64())
}

func TestRelationalUnknownYieldsX(t *testing.T) {
	a := NewX(8, false)
	b := NewUint64(8, false, 1)
	r := Relational("<", a, b, 8, false)
	assert.Equal(t, X, r.Bit(0))
}

func TestInferWidthSizedVsUnsized(t *testing.T) {
	assert.Equal(t, 8, InferWidth(big.NewInt(5), true, 8))
	assert.Equal(t, SizeInteger, InferWidth(big.NewInt(5), false, 0))
	assert.Equal(t, 40, InferWidth(new(big.Int).Lsh(big.NewInt(1), 39), false, 0))
}

func TestArithDispatchBitVector(t *testing.T) {
	a := NewBitVector(NewUint64(8, false, 3))
	b := NewBitVector(NewUint64(8, false, 4))
	sum := Arith("+", a, b)
	n, ok := sum.Bits.ToBigInt()
	assert.True(t, ok)
	assert.Equal(t, int64(7), n.Int64())
}

func TestArithDispatchReal(t *testing.T) {
	a := NewReal(1.5)
	b := NewReal(2.5)
	sum := Arith("+", a, b)
	assert.True(t, sum.IsReal())
	assert.Equal(t, 4.0, sum.Real)
}

func TestReduceOperators(t *testing.T) {
	bv := NewUint64(4, false, 0xF)
	r := Reduce("&", NewBitVector(bv))
	n, _ := r.Bits.ToBigInt()
	assert.Equal(t, int64(1), n.Int64())

	bv2 := NewUint64(4, false, 0x0)
	r2 := Reduce("|", NewBitVector(bv2))
	n2, _ := r2.Bits.ToBigInt()
	assert.Equal(t, int64(0), n2.Int64())
}

func TestLogicalNotUnknownOperand(t *testing.T) {
	x := NewBitVector(NewX(4, false))
	r := LogicalNot1(x)
	assert.Equal(t, X, r.Bits.Bit(0))
}
