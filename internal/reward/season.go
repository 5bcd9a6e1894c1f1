// Package reward implements seasonal reward-token emission with
// per-category caps, staking tiers/multipliers, and fee-rebate
// distribution.
package reward

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// categoryCapBps are the per-season caps of : 33% maker,
// 50% staking, 20% early-trader.
var categoryCapBps = map[domain.RewardCategory]int64{
	domain.CategoryMakerReward: 3300,
	domain.CategoryStakingReward: 5000,
	domain.CategoryEarlyTraderBonus: 2000,
}

// NewSeason opens a season with the given allocation, starting the
// per-category tally at zero. It does not roll in a prior season's
// unspent balance; EndSeason does that.
func NewSeason(seasonNumber uint64, allocation fixedpoint.Q64, startSlot, endSlot uint64) *domain.SeasonEmission {
	return &domain.SeasonEmission{
		Season: seasonNumber,
		TotalAllocation: allocation,
		Emitted: fixedpoint.FromInt64(0),
		PerCategory: make(map[domain.RewardCategory]fixedpoint.Q64),
		StartSlot: startSlot,
		EndSlot: endSlot,
	}
}

// CategoryCap returns the absolute cap for a category given the
// season's total allocation.
func CategoryCap(season *domain.SeasonEmission, category domain.RewardCategory) (fixedpoint.Q64, error) {
	bps, ok := categoryCapBps[category]
	if !ok {
		return fixedpoint.Q64{}, domain.ErrInvalidInput
	}
	return season.TotalAllocation.Mul(fixedpoint.FromBps(bps))
}

// Distribute checked-adds amount to a category's emitted tally and the
// season's overall emitted tally, rejecting the mutation (with no
// partial state change) if it would push the category cap or the
// remaining season allocation below zero.
func Distribute(season *domain.SeasonEmission, category domain.RewardCategory, amount fixedpoint.Q64) error {
	cap, err := CategoryCap(season, category)
	if err != nil {
		return err
	}
	currentInCategory := season.PerCategory[category]
	newInCategory, err := currentInCategory.Add(amount)
	if err != nil {
		return err
	}
	if newInCategory.Cmp(cap) > 0 {
		return domain.ErrCategoryCapExceeded
	}

	newEmitted, err := season.Emitted.Add(amount)
	if err != nil {
		return err
	}
	if newEmitted.Cmp(season.TotalAllocation) > 0 {
		return domain.ErrAllocationExceeded
	}

	season.PerCategory[category] = newInCategory
	season.Emitted = newEmitted
	return nil
}

// RemainingAllocation is the season's unspent balance, which rolls
// forward into the next season's NewSeason allocation.
func RemainingAllocation(season *domain.SeasonEmission) (fixedpoint.Q64, error) {
	return season.TotalAllocation.Sub(season.Emitted)
}

// EndSeason validates the admin-gated transition: only valid once
// currentSlot ≥ season.EndSlot, and season numbers must increment
// strictly.
func EndSeason(season *domain.SeasonEmission, currentSlot uint64, nextAllocationTopUp fixedpoint.Q64, nextEndSlot uint64) (*domain.SeasonEmission, error) {
	if currentSlot < season.EndSlot {
		return nil, domain.ErrSeasonNotEnded
	}
	remaining, err := RemainingAllocation(season)
	if err != nil {
		return nil, err
	}
	nextAllocation, err := remaining.Add(nextAllocationTopUp)
	if err != nil {
		return nil, err
	}
	return NewSeason(season.Season+1, nextAllocation, season.EndSlot, nextEndSlot), nil
}
