package reward

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// MakerRewardAmount weights a maker's reward by spread improvement
// (bp) × notional.
func MakerRewardAmount(spreadImprovementBps int64, notional fixedpoint.Q64) (fixedpoint.Q64, error) {
	return notional.Mul(fixedpoint.FromBps(spreadImprovementBps))
}

// DistributeMakerReward computes and applies a maker reward, checked
// against the MakerReward category cap.
func DistributeMakerReward(season *domain.SeasonEmission, spreadImprovementBps int64, notional fixedpoint.Q64) (fixedpoint.Q64, error) {
	amount, err := MakerRewardAmount(spreadImprovementBps, notional)
	if err != nil {
		return fixedpoint.Q64{}, err
	}
	if err := Distribute(season, domain.CategoryMakerReward, amount); err != nil {
		return fixedpoint.Q64{}, err
	}
	return amount, nil
}

// DistributeStakingReward emits perSlotEmission to the staking pool
// and credits each account proportional to its weighted stake share.
func DistributeStakingReward(season *domain.SeasonEmission, perSlotEmission fixedpoint.Q64, accounts []*domain.StakeAccount) error {
	if err := Distribute(season, domain.CategoryStakingReward, perSlotEmission); err != nil {
		return err
	}

	total := fixedpoint.FromInt64(0)
	weighted := make([]fixedpoint.Q64, len(accounts))
	for i, acct := range accounts {
		w, err := WeightedStake(acct)
		if err != nil {
			return err
		}
		weighted[i] = w
		total, err = total.Add(w)
		if err != nil {
			return err
		}
	}
	if total.IsZero() {
		return nil
	}

	for i, acct := range accounts {
		share, err := weighted[i].Div(total)
		if err != nil {
			return err
		}
		portion, err := perSlotEmission.Mul(share)
		if err != nil {
			return err
		}
		acct.AccumulatedReward, err = acct.AccumulatedReward.Add(portion)
		if err != nil {
			return err
		}
	}
	return nil
}

// DistributeEarlyTraderBonus grants a bonus while the vault is below
// its bootstrap target, checked against the EarlyTraderBonus cap.
func DistributeEarlyTraderBonus(season *domain.SeasonEmission, vaultBalance, bootstrapTarget, bonus fixedpoint.Q64) error {
	if vaultBalance.Cmp(bootstrapTarget) >= 0 {
		return domain.ErrInvalidInput
	}
	return Distribute(season, domain.CategoryEarlyTraderBonus, bonus)
}
