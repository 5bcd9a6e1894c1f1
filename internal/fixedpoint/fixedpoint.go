// Package fixedpoint implements the deterministic 64.64 fixed-point
// arithmetic that every price, weight, probability, leverage scalar and
// VaR output in the ledger is expressed in. All operations are checked:
// overflow returns ErrOverflow rather than wrapping, so the ledger's
// step loop can abort the step instead of committing a corrupted value.
package fixedpoint

import (
	"errors"
	"math/big"
)

// ErrOverflow is returned by any checked operation that would not fit
// in the 64.64 representation.
var ErrOverflow = errors.New("fixedpoint: overflow")

// ErrDivByZero is returned where a result is undefined: by Div and
// FromRatio on a zero divisor, by Sqrt on a negative operand and by Ln
// on a non-positive one.
var ErrDivByZero = errors.New("fixedpoint: division by zero")

const fracBits = 64

// Q64 is a signed 64.64 fixed-point number stored as the scaled
// integer value in Raw (value = Raw / 2^64). big.Int is used for the
// backing store so intermediate multiplications (128+ bits) never
// silently truncate; every exported operation still rounds back to a
// checked 64.64 result.
type Q64 struct {
	Raw big.Int
}

var one = new(big.Int).Lsh(big.NewInt(1), fracBits)

// minVal/maxVal bound the integer part to 64 bits (signed): 64
// integer bits, 64 fractional bits, one sign bit.
var maxVal = new(big.Int).Lsh(big.NewInt(1), 127)
var minVal = new(big.Int).Neg(maxVal)

// FromInt64 builds Q64 from a plain integer.
func FromInt64(v int64) Q64 {
	r := new(big.Int).Mul(big.NewInt(v), one)
	return Q64{Raw: *r}
}

// FromRatio builds Q64 as num/den, rounding toward zero at the 64th
// fractional bit — used to build fractional constants like "1/2"
// rather than hand-computing scaled integers.
func FromRatio(num, den int64) (Q64, error) {
	if den == 0 {
		return Q64{}, ErrDivByZero
	}
	n := new(big.Int).Mul(big.NewInt(num), one)
	d := big.NewInt(den)
	q := new(big.Int).Quo(n, d)
	return checked(q)
}

// FromBps builds Q64 from a basis-point integer (1bp = 0.0001).
func FromBps(bps int64) Q64 {
	q, _ := FromRatio(bps, 10_000)
	return q
}

func checked(v *big.Int) (Q64, error) {
	if v.Cmp(minVal) < 0 || v.Cmp(maxVal) > 0 {
		return Q64{}, ErrOverflow
	}
	return Q64{Raw: *v}, nil
}

// Add returns a+b, checked.
func (a Q64) Add(b Q64) (Q64, error) {
	return checked(new(big.Int).Add(&a.Raw, &b.Raw))
}

// Sub returns a-b, checked.
func (a Q64) Sub(b Q64) (Q64, error) {
	return checked(new(big.Int).Sub(&a.Raw, &b.Raw))
}

// Mul returns a*b, checked. The 128-bit intermediate product is
// right-shifted by fracBits before the overflow check.
func (a Q64) Mul(b Q64) (Q64, error) {
	prod := new(big.Int).Mul(&a.Raw, &b.Raw)
	prod.Rsh(prod, fracBits)
	return checked(prod)
}

// Div returns a/b, checked.
func (a Q64) Div(b Q64) (Q64, error) {
	if b.Raw.Sign() == 0 {
		return Q64{}, ErrDivByZero
	}
	num := new(big.Int).Lsh(&a.Raw, fracBits)
	q := new(big.Int).Quo(num, &b.Raw)
	return checked(q)
}

// Neg returns -a, checked.
func (a Q64) Neg() (Q64, error) {
	return checked(new(big.Int).Neg(&a.Raw))
}

// Abs returns |a|.
func (a Q64) Abs() Q64 {
	r := new(big.Int).Abs(&a.Raw)
	return Q64{Raw: *r}
}

// Cmp compares a to b: -1, 0, 1.
func (a Q64) Cmp(b Q64) int { return a.Raw.Cmp(&b.Raw) }

// IsZero reports whether a == 0.
func (a Q64) IsZero() bool { return a.Raw.Sign() == 0 }

// Sign returns -1, 0, 1.
func (a Q64) Sign() int { return a.Raw.Sign() }

// Max returns the larger of a, b.
func (a Q64) Max(b Q64) Q64 {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a, b.
func (a Q64) Min(b Q64) Q64 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Clamp restricts a to [lo, hi].
func (a Q64) Clamp(lo, hi Q64) Q64 {
	return a.Max(lo).Min(hi)
}

// Float64 converts to a float64 for logging/telemetry only — never
// feed this back into ledger state, it is lossy and non-deterministic
// across platforms.
func (a Q64) Float64() float64 {
	f := new(big.Float).SetInt(&a.Raw)
	scale := new(big.Float).SetInt(one)
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}

// FromFloat64 is the inverse of Float64, used only at system
// boundaries (config parsing, test fixtures) — never inside a
// deterministic step.
func FromFloat64(v float64) Q64 {
	bf := new(big.Float).SetFloat64(v)
	bf.Mul(bf, new(big.Float).SetInt(one))
	i, _ := bf.Int(nil)
	return Q64{Raw: *i}
}

// Sqrt computes the square root via big.Int's integer sqrt over the
// rescaled value, so the result stays deterministic across platforms.
// Unlike Exp/Ln it does not use a lookup table.
func (a Q64) Sqrt() (Q64, error) {
	if a.Raw.Sign() < 0 {
		return Q64{}, ErrDivByZero
	}
	if a.Raw.Sign() == 0 {
		return Q64{}, nil
	}
	// scale up by fracBits again before taking big.Int sqrt so the
	// fractional precision survives the integer sqrt operation.
	scaled := new(big.Int).Lsh(&a.Raw, fracBits)
	root := new(big.Int).Sqrt(scaled)
	return checked(root)
}

// String renders a human-readable decimal approximation for logs.
func (a Q64) String() string {
	f := new(big.Float).SetPrec(80).SetInt(&a.Raw)
	scale := new(big.Float).SetPrec(80).SetInt(one)
	f.Quo(f, scale)
	return f.Text('f', 10)
}
