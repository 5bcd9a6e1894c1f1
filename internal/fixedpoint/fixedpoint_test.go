package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSubRoundTrip(t *testing.T) {
	a := FromInt64(5)
	b := FromInt64(3)
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, FromInt64(8).Raw.String(), sum.Raw.String())

	back, err := sum.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, a.Raw.String(), back.Raw.String())
}

func TestMulDivInverse(t *testing.T) {
	half, err := FromRatio(1, 2)
	require.NoError(t, err)
	ten := FromInt64(10)

	product, err := ten.Mul(half)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, product.Float64(), 1e-9)

	quotient, err := product.Div(half)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, quotient.Float64(), 1e-9)
}

func TestDivByZero(t *testing.T) {
	a := FromInt64(1)
	_, err := a.Div(FromInt64(0))
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestOverflow(t *testing.T) {
	max := Q64{Raw: *maxVal}
	_, err := max.Add(FromInt64(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSqrt(t *testing.T) {
	nine := FromInt64(9)
	root, err := nine.Sqrt()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, root.Float64(), 1e-6)
}

func TestClamp(t *testing.T) {
	v := FromFloat64(1.5)
	lo := FromFloat64(0.01)
	hi := FromFloat64(0.99)
	assert.InDelta(t, 0.99, v.Clamp(lo, hi).Float64(), 1e-9)
}

func TestNormalCDFMonotone(t *testing.T) {
	low := NormalCDF(FromFloat64(-1))
	mid := NormalCDF(FromFloat64(0))
	high := NormalCDF(FromFloat64(1))
	assert.True(t, low.Cmp(mid) < 0)
	assert.True(t, mid.Cmp(high) < 0)
	assert.InDelta(t, 0.5, mid.Float64(), 1e-3)
}

func TestZScoreConstants(t *testing.T) {
	assert.InDelta(t, 1.645, Z95.Float64(), 1e-3)
	assert.InDelta(t, 2.326, Z99.Float64(), 1e-3)
	assert.InDelta(t, 3.090, Z999.Float64(), 1e-3)
}

func TestExpLnInverse(t *testing.T) {
	x := FromFloat64(2.0)
	e := Exp(x)
	back, err := Ln(e)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, back.Float64(), 1e-2)
}
