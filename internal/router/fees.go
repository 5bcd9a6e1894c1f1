// Package router decomposes a synthetic-wrapper intent into per-source
// child orders, bundles overlapping intents, nets opposing sides, and
// computes the tiered fee schedule.
package router

import "github.com/gary322/flashbets-ledger/internal/fixedpoint"

const (
	baseFeeBps = 28
	venueFeeBps = 150
	bundleDiscount = 6000 // 60%, expressed in bps-of-the-venue-fee
	tier1VolumeUSD = 10_000
	tier2VolumeUSD = 100_000
	tier3VolumeUSD = 1_000_000
	tier1DiscountBp = 1
	tier2DiscountBp = 2
	tier3DiscountBp = 3
)

// FeeBreakdown is the computed fee for one net child order.
type FeeBreakdown struct {
	BaseFeeBps int64
	VenueFeeBps int64
	BundleDiscount bool
	VolumeTierBps int64
	EffectiveFeeBps int64
	FeeAmount fixedpoint.Q64
}

// volumeTierDiscount returns the additional discount (in bps of fee,
// flat subtraction) for a caller's trailing 24h volume.
func volumeTierDiscount(dailyVolumeUSD fixedpoint.Q64) int64 {
	v := dailyVolumeUSD.Float64()
	switch {
	case v >= tier3VolumeUSD:
		return tier3DiscountBp
	case v >= tier2VolumeUSD:
		return tier2DiscountBp
	case v >= tier1VolumeUSD:
		return tier1DiscountBp
	default:
		return 0
	}
}

// ComputeFee applies the 178bp base+venue schedule, the 60% bundle
// discount on the venue portion (only when ≥2 distinct callers'
// trades touch the same market within the bundle), and the caller's
// volume-tier discount, then apportions the result onto notional.
func ComputeFee(notional fixedpoint.Q64, distinctCallersOnMarket int, dailyVolumeUSD fixedpoint.Q64) (FeeBreakdown, error) {
	applyBundle := distinctCallersOnMarket >= 2
	venue := int64(venueFeeBps)
	if applyBundle {
		venue = venueFeeBps - (venueFeeBps*bundleDiscount)/10_000
	}
	tierDiscount := volumeTierDiscount(dailyVolumeUSD)
	effective := baseFeeBps + venue - tierDiscount
	if effective < 0 {
		effective = 0
	}

	amount, err := notional.Mul(fixedpoint.FromBps(effective))
	if err != nil {
		return FeeBreakdown{}, err
	}

	return FeeBreakdown{
		BaseFeeBps: baseFeeBps,
		VenueFeeBps: venue,
		BundleDiscount: applyBundle,
		VolumeTierBps: tierDiscount,
		EffectiveFeeBps: effective,
		FeeAmount: amount,
	}, nil
}
