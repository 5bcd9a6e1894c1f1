// Package amm implements the three parametric automated market makers
// the router executes orders against: LMSR, PM-AMM and
// an L2-norm AMM, plus the per-slot safety rails that apply to all
// three. Each kernel is a pure function over its own state — no
// kernel method spawns a goroutine or touches shared state, matching
// the serial step-loop model the ledger runs under.
package amm

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// LMSR holds the state of a logarithmic market scoring rule market:
// liquidity parameter b and the per-outcome share vector q.
type LMSR struct {
	B fixedpoint.Q64
	Shares []fixedpoint.Q64
}

// NewLMSR builds an LMSR with n outcomes starting from zero shares.
func NewLMSR(b fixedpoint.Q64, numOutcomes int) *LMSR {
	return &LMSR{B: b, Shares: make([]fixedpoint.Q64, numOutcomes)}
}

// sumExpQOverB computes Σ exp(q_j / b), the LMSR partition function.
func (m *LMSR) sumExpQOverB() (fixedpoint.Q64, error) {
	sum := fixedpoint.FromInt64(0)
	for _, q := range m.Shares {
		ratio, err := q.Div(m.B)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
		exp := fixedpoint.Exp(ratio)
		sum, err = sum.Add(exp)
		if err != nil {
			return fixedpoint.Q64{}, err
		}
	}
	return sum, nil
}

// Prices returns the current per-outcome price vector. Prices are
// renormalized to sum exactly to 1 in fixed point, preserving the\n// "Σp = 1 exactly after renormalization" invariant.
func (m *LMSR) Prices() ([]fixedpoint.Q64, error) {
	total, err := m.sumExpQOverB()
	if err != nil {
		return nil, err
	}
	if total.IsZero() {
		return nil, domain.ErrDivisionByZero
	}
	prices := make([]fixedpoint.Q64, len(m.Shares))
	sum := fixedpoint.FromInt64(0)
	for i, q := range m.Shares {
		ratio, err := q.Div(m.B)
		if err != nil {
			return nil, err
		}
		exp := fixedpoint.Exp(ratio)
		p, err := exp.Div(total)
		if err != nil {
			return nil, err
		}
		prices[i] = p
		sum, err = sum.Add(p)
		if err != nil {
			return nil, err
		}
	}
	// renormalize so the vector sums to exactly 1: push the residual
	// onto the largest-price outcome, the simplest deterministic rule
	// that keeps every price in (0,1).
	residual, err := fixedpoint.FromInt64(1).Sub(sum)
	if err != nil {
		return nil, err
	}
	if !residual.IsZero() {
		maxIdx := 0
		for i := range prices {
			if prices[i].Cmp(prices[maxIdx]) > 0 {
				maxIdx = i
			}
		}
		prices[maxIdx], err = prices[maxIdx].Add(residual)
		if err != nil {
			return nil, err
		}
	}
	return prices, nil
}

// Cost returns the cost to move from the current share vector to
// newShares: b·(ln Σexp(q'/b) − ln Σexp(q/b)).
func (m *LMSR) Cost(newShares []fixedpoint.Q64) (fixedpoint.Q64, error) {
	before, err := m.sumExpQOverB()
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	tmp := &LMSR{B: m.B, Shares: newShares}
	after, err := tmp.sumExpQOverB()
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	lnBefore, err := fixedpoint.Ln(before)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	lnAfter, err := fixedpoint.Ln(after)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	diff, err := lnAfter.Sub(lnBefore)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return m.B.Mul(diff)
}

// Trade applies a buy of `amount` shares of `outcome`, returning the
// cost and the new price vector. It does not apply the safety rails
// (price clamp / liquidity cap); the router applies those before
// calling Trade (see rails.go).
func (m *LMSR) Trade(outcome int, amount fixedpoint.Q64) (cost fixedpoint.Q64, newPrices []fixedpoint.Q64, err error) {
	if outcome < 0 || outcome >= len(m.Shares) {
		return fixedpoint.Q64{}, nil, domain.ErrInvalidOutcome
	}
	newShares := make([]fixedpoint.Q64, len(m.Shares))
	copy(newShares, m.Shares)
	newShares[outcome], err = newShares[outcome].Add(amount)
	if err != nil {
		return fixedpoint.Q64{}, nil, err
	}
	cost, err = m.Cost(newShares)
	if err != nil {
		return fixedpoint.Q64{}, nil, err
	}
	m.Shares = newShares
	newPrices, err = m.Prices()
	return cost, newPrices, err
}
