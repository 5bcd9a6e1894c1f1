package fixedpoint

import "math"

// Transcendental functions (exp, ln, Normal CDF/PDF) are backed
// by precomputed tables with linear interpolation, :
// "the table generation is deterministic and part of the ledger
// (bit-exact reproducibility across implementations)". The tables are
// generated once at package init from a fixed domain and step size —
// never from a runtime-supplied parameter — so two processes running
// this package produce byte-identical tables.

const (
	tableDomainLo = -20.0
	tableDomainHi = 20.0
	tableSteps = 8000 // 0.005 resolution across [-20, 20]
)

// z-score constants for VaR confidence levels.
var (
	Z95 = FromFloat64(1.645)
	Z99 = FromFloat64(2.326)
	Z999 = FromFloat64(3.090)
)

type table struct {
	lo, hi float64
	step float64
	values []float64
}

func buildTable(lo, hi float64, n int, f func(float64) float64) table {
	step := (hi - lo) / float64(n-1)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		x := lo + step*float64(i)
		vals[i] = f(x)
	}
	return table{lo: lo, hi: hi, step: step, values: vals}
}

func (t table) lookup(x float64) float64 {
	if x <= t.lo {
		return t.values[0]
	}
	if x >= t.hi {
		return t.values[len(t.values)-1]
	}
	pos := (x - t.lo) / t.step
	idx := int(pos)
	if idx >= len(t.values)-1 {
		return t.values[len(t.values)-1]
	}
	frac := pos - float64(idx)
	return t.values[idx]*(1-frac) + t.values[idx+1]*frac
}

func normalPDFRaw(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func normalCDFRaw(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

var (
	expTable = buildTable(tableDomainLo, tableDomainHi, tableSteps, math.Exp)
	normalPDF = buildTable(tableDomainLo, tableDomainHi, tableSteps, normalPDFRaw)
	normalCDF = buildTable(tableDomainLo, tableDomainHi, tableSteps, normalCDFRaw)
	lnTable = buildTable(0.5, 1, tableSteps, math.Log)
)

// Exp evaluates e^x via the deterministic table with linear
// interpolation. The ledger never calls math.Exp directly so that
// replaying the same sequence of operations on a different machine
// reproduces bit-identical results (subject to the Float64 boundary
// documented on Q64).
func Exp(x Q64) Q64 {
	return FromFloat64(expTable.lookup(x.Float64()))
}

// Ln evaluates the natural log via the deterministic table: x is split
// into a mantissa in [0.5, 1) and a binary exponent, the mantissa is
// looked up in the table and exponent·ln2 is added.
func Ln(x Q64) (Q64, error) {
	f := x.Float64()
	if f <= 0 {
		return Q64{}, ErrDivByZero
	}
	frac, exp := math.Frexp(f)
	return FromFloat64(lnTable.lookup(frac) + float64(exp)*math.Ln2), nil
}

// NormalCDF evaluates the standard normal CDF via the deterministic
// table.
func NormalCDF(x Q64) Q64 {
	return FromFloat64(normalCDF.lookup(x.Float64()))
}

// NormalPDF evaluates the standard normal PDF via the deterministic
// table.
func NormalPDF(x Q64) Q64 {
	return FromFloat64(normalPDF.lookup(x.Float64()))
}

// ValueAtRisk computes a parametric VaR: position value × z-score ×
// volatility.
func ValueAtRisk(notional, volatility, z Q64) (Q64, error) {
	v, err := notional.Mul(volatility)
	if err != nil {
		return Q64{}, err
	}
	return v.Mul(z)
}
