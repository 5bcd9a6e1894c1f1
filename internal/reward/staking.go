package reward

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// Tier thresholds.
var tierThresholds = []struct {
	tier domain.StakeTier
	minAmount fixedpoint.Q64
}{
	{domain.TierDiamond, fixedpoint.FromInt64(10_000_000)},
	{domain.TierPlatinum, fixedpoint.FromInt64(1_000_000)},
	{domain.TierGold, fixedpoint.FromInt64(100_000)},
	{domain.TierSilver, fixedpoint.FromInt64(10_000)},
}

// ClassifyTier picks the highest tier whose minimum the staked amount
// meets, defaulting to Bronze.
func ClassifyTier(stakedAmount fixedpoint.Q64) domain.StakeTier {
	for _, t := range tierThresholds {
		if stakedAmount.Cmp(t.minAmount) >= 0 {
			return t.tier
		}
	}
	return domain.TierBronze
}

// lockDurationSlots maps a lock duration in slots to its multiplier.
// Thresholds assume 400ms/slot: 30d/90d/180d/365d.
var lockDurationSlots = []struct {
	minSlots uint64
	multiplier float64
}{
	{365 * 24 * 3600 * 5 / 2, 2.0},
	{180 * 24 * 3600 * 5 / 2, 1.5},
	{90 * 24 * 3600 * 5 / 2, 1.25},
	{30 * 24 * 3600 * 5 / 2, 1.1},
}

// LockMultiplier returns the multiplier for a lock of lockSlots
// duration (0 for no lock, which yields 1.0x).
func LockMultiplier(lockSlots uint64) fixedpoint.Q64 {
	for _, l := range lockDurationSlots {
		if lockSlots >= l.minSlots {
			return fixedpoint.FromFloat64(l.multiplier)
		}
	}
	return fixedpoint.FromFloat64(1.0)
}

// OpenStake constructs a new StakeAccount, classifying its tier and
// lock multiplier.
func OpenStake(owner string, amount fixedpoint.Q64, lockSlots uint64, currentSlot uint64) *domain.StakeAccount {
	acct := &domain.StakeAccount{
		Owner: owner,
		StakedAmount: amount,
		LockMultiplier: LockMultiplier(lockSlots),
		Tier: ClassifyTier(amount),
		AccumulatedReward: fixedpoint.FromInt64(0),
		LastClaimSlot: currentSlot,
	}
	if lockSlots > 0 {
		end := currentSlot + lockSlots
		acct.LockEndSlot = &end
	}
	return acct
}

// WeightedStake returns amount · lock_multiplier, the basis for both
// staking-reward emission and rebate pro-ration.
func WeightedStake(acct *domain.StakeAccount) (fixedpoint.Q64, error) {
	return acct.StakedAmount.Mul(acct.LockMultiplier)
}

const baseRebateBps = 1500 // 15% default rebate

// StakeShare returns acct's weighted stake as a fraction of total
// weighted stake across the pool.
func StakeShare(acct *domain.StakeAccount, totalWeightedStake fixedpoint.Q64) (fixedpoint.Q64, error) {
	if totalWeightedStake.IsZero() {
		return fixedpoint.FromInt64(0), nil
	}
	weighted, err := WeightedStake(acct)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return weighted.Div(totalWeightedStake)
}

// RebateAmount returns a staker's pro-rata share of collected fees,
// scaled by the pool's base rebate percentage.
func RebateAmount(acct *domain.StakeAccount, totalWeightedStake, collectedFees fixedpoint.Q64) (fixedpoint.Q64, error) {
	share, err := StakeShare(acct, totalWeightedStake)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	pool, err := collectedFees.Mul(fixedpoint.FromBps(baseRebateBps))
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	return pool.Mul(share)
}
