package safety

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// bootstrapTarget is the vault balance at which the full leverage cap
// (10x) is unlocked, the "$10k → 10x" example.
var bootstrapTarget = fixedpoint.FromInt64(10_000)

// bootstrapFloor is the vault balance below which leverage is capped
// at 1x, the "$1k → 1x" end of the linear scale.
var bootstrapFloor = fixedpoint.FromInt64(1_000)

// minCoverageRatio below which operations halt with
// ErrCoverageRatioBelowMin.
var minCoverageRatio = fixedpoint.FromBps(5000) // 0.5

// BootstrapLeverageCap linearly scales the vault balance between
// bootstrapFloor (1x) and bootstrapTarget (10x), clamping outside that
// range to 1x and 10x respectively.
func BootstrapLeverageCap(vaultBalance fixedpoint.Q64) (fixedpoint.Q64, error) {
	one := fixedpoint.FromInt64(1)
	ten := fixedpoint.FromInt64(10)

	if vaultBalance.Cmp(bootstrapFloor) <= 0 {
		return one, nil
	}
	if vaultBalance.Cmp(bootstrapTarget) >= 0 {
		return ten, nil
	}

	span, err := bootstrapTarget.Sub(bootstrapFloor)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	progress, err := vaultBalance.Sub(bootstrapFloor)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	frac, err := progress.Div(span)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	spread, err := ten.Sub(one)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	scaled, err := frac.Mul(spread)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return one.Add(scaled)
}

// CoverageRatio computes vault / (assumedTailLossBps% of openInterest),
// the solvency cushion gates operations on.
func CoverageRatio(vaultBalance, openInterest fixedpoint.Q64, assumedTailLossBps int64) (fixedpoint.Q64, error) {
	tailLoss, err := openInterest.Mul(fixedpoint.FromBps(assumedTailLossBps))
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	if tailLoss.IsZero() {
		return fixedpoint.FromInt64(1), nil
	}
	return vaultBalance.Div(tailLoss)
}

// CheckCoverage recomputes CoverageRatio, stores it on state, and
// returns ErrCoverageRatioBelowMin when it falls below the minimum —
// the caller is expected to halt non-View/Emergency operations on
// this error rather than the supervisor silently pausing.
func CheckCoverage(state *domain.SafetyState, openInterest fixedpoint.Q64, assumedTailLossBps int64) error {
	ratio, err := CoverageRatio(state.BootstrapVault, openInterest, assumedTailLossBps)
	if err != nil {
		return err
	}
	state.CoverageRatio = ratio
	if ratio.Cmp(minCoverageRatio) < 0 {
		return domain.ErrCoverageRatioBelowMin
	}
	return nil
}
