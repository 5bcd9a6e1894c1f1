package amm

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// Bin is one discretized bin of an L2-norm AMM's distribution.
type Bin struct {
	Lower fixedpoint.Q64
	Upper fixedpoint.Q64
	Weight fixedpoint.Q64
}

// L2Norm holds the state of an L2-norm AMM: scalar k, the per-bin
// weight bound, and the discretized distribution.
type L2Norm struct {
	K fixedpoint.Q64
	BMax fixedpoint.Q64
	Bins []Bin
}

// NewL2Norm builds an L2-norm AMM over evenly spaced bins covering
// [0,1], all starting at equal weight.
func NewL2Norm(k, bMax fixedpoint.Q64, numBins int) (*L2Norm, error) {
	bins := make([]Bin, numBins)
	width, err := fixedpoint.FromInt64(1).Div(fixedpoint.FromInt64(int64(numBins)))
	if err != nil {
		return nil, err
	}
	initWeight, err := fixedpoint.FromInt64(1).Div(fixedpoint.FromInt64(int64(numBins)))
	if err != nil {
		return nil, err
	}
	for i := range bins {
		lower, err := width.Mul(fixedpoint.FromInt64(int64(i)))
		if err != nil {
			return nil, err
		}
		upper, err := lower.Add(width)
		if err != nil {
			return nil, err
		}
		bins[i] = Bin{Lower: lower, Upper: upper, Weight: initWeight}
	}
	return &L2Norm{K: k, BMax: bMax, Bins: bins}, nil
}

// l2Norm computes sqrt(Σ w_i^2) over the bin weights.
func (m *L2Norm) l2Norm() (fixedpoint.Q64, error) {
	sumSq := fixedpoint.FromInt64(0)
	for _, b := range m.Bins {
		sq, err := b.Weight.Mul(b.Weight)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
		sumSq, err = sumSq.Add(sq)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
	}
	return sumSq.Sqrt()
}

// Validate checks both invariants of : every bin weight
// ≤ b_max, and the L2 norm of the weight vector ≤ k.
func (m *L2Norm) Validate() error {
	for _, b := range m.Bins {
		if b.Weight.Cmp(m.BMax) > 0 {
			return domain.ErrInvalidDistribution
		}
	}
	norm, err := m.l2Norm()
	if err != nil {
		return err
	}
	if norm.Cmp(m.K) > 0 {
		return domain.ErrInvalidDistribution
	}
	return nil
}

// ApplyShift adds delta to bin i's weight, clipping to BMax and
// rejecting (ErrLiquidityCapExceeded) if the resulting L2 norm would
// exceed K — the "adversarial inputs are clipped or rejected" rule of
//
func (m *L2Norm) ApplyShift(bin int, delta fixedpoint.Q64) error {
	if bin < 0 || bin >= len(m.Bins) {
		return domain.ErrInvalidOutcome
	}
	proposed, err := m.Bins[bin].Weight.Add(delta)
	if err != nil {
		return err
	}
	clipped := proposed.Clamp(fixedpoint.FromInt64(0), m.BMax)

	orig := m.Bins[bin].Weight
	m.Bins[bin].Weight = clipped
	norm, err := m.l2Norm()
	if err != nil {
		m.Bins[bin].Weight = orig
		return err
	}
	if norm.Cmp(m.K) > 0 {
		m.Bins[bin].Weight = orig
		return domain.ErrLiquidityCapExceeded
	}
	return nil
}

// ImpliedPrice returns bin i's weight as a fraction of total weight,
// the L2-norm AMM's analogue of a price.
func (m *L2Norm) ImpliedPrice(bin int) (fixedpoint.Q64, error) {
	if bin < 0 || bin >= len(m.Bins) {
		return fixedpoint.Q64{}, domain.ErrInvalidOutcome
	}
	total := fixedpoint.FromInt64(0)
	var err error
	for _, b := range m.Bins {
		total, err = total.Add(b.Weight)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
	}
	if total.IsZero() {
		return fixedpoint.Q64{}, domain.ErrDivisionByZero
	}
	return m.Bins[bin].Weight.Div(total)
}
