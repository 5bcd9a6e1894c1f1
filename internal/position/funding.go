package position

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// fundingClampBps bounds the per-period funding rate to ±0.75%.
const fundingClampBps = 75

// slotsPerPeriod is the funding-period length used to normalize
// slots_elapsed to an hourly-equivalent cadence.
const slotsPerPeriod = 9000 // ~1 hour at 400ms/slot

// FundingRate derives r = (mark − index)/index + imbalance, clamped
// to ±0.75% per period.
func FundingRate(mark, index, imbalance fixedpoint.Q64) (fixedpoint.Q64, error) {
	if index.IsZero() {
		return fixedpoint.Q64{}, domain.ErrDivisionByZero
	}
	diff, err := mark.Sub(index)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	basis, err := diff.Div(index)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	raw, err := basis.Add(imbalance)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	clamp := fixedpoint.FromBps(fundingClampBps)
	negClamp, err := clamp.Neg()
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return raw.Clamp(negClamp, clamp), nil
}

// AccrueFunding applies Δfunding = −notional · r · slots_elapsed /
// slots_per_period to pos.AccumulatedFunding and advances
// LastFundingSlot.
func AccrueFunding(pos *domain.Position, rate fixedpoint.Q64, currentSlot uint64) error {
	if currentSlot <= pos.LastFundingSlot {
		return nil
	}
	elapsed := fixedpoint.FromInt64(int64(currentSlot - pos.LastFundingSlot))
	period := fixedpoint.FromInt64(slotsPerPeriod)

	fraction, err := elapsed.Div(period)
	if err != nil {
		return err
	}
	perSlot, err := rate.Mul(fraction)
	if err != nil {
		return err
	}
	notionalTerm, err := pos.Size.Mul(perSlot)
	if err != nil {
		return err
	}
	delta, err := notionalTerm.Neg()
	if err != nil {
		return err
	}

	pos.AccumulatedFunding, err = pos.AccumulatedFunding.Add(delta)
	if err != nil {
		return err
	}
	pos.LastFundingSlot = currentSlot
	return nil
}

// SettleFunding moves AccumulatedFunding into RealizedPnL and zeroes
// the accumulator — applied on any position mutation and on close.
func SettleFunding(pos *domain.Position) error {
	sum, err := pos.RealizedPnL.Add(pos.AccumulatedFunding)
	if err != nil {
		return err
	}
	pos.RealizedPnL = sum
	pos.AccumulatedFunding = fixedpoint.FromInt64(0)
	return nil
}
