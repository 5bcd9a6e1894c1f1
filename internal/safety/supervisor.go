// Package safety implements the pause-level gate, protocol-internal
// circuit breakers, bootstrap coverage-ratio gating and external-feed
// outage handling for the protocol's safety supervisor.
package safety

import (
	"time"

	"github.com/gary322/flashbets-ledger/internal/domain"
)

// allowedByLevel is the table from : None permits every
// category, Partial restricts to Emergency/Admin/View/Liquidation,
// Full to Emergency/View, Freeze to nothing.
var allowedByLevel = map[domain.PauseLevel]map[domain.Category]bool{
	domain.PauseNone: {
		domain.CategoryTrading: true,
		domain.CategoryLiquidation: true,
		domain.CategoryAdmin: true,
		domain.CategoryEmergency: true,
		domain.CategoryView: true,
	},
	domain.PausePartial: {
		domain.CategoryEmergency: true,
		domain.CategoryAdmin: true,
		domain.CategoryView: true,
		domain.CategoryLiquidation: true,
	},
	domain.PauseFull: {
		domain.CategoryEmergency: true,
		domain.CategoryView: true,
	},
	domain.PauseFreeze: {},
}

// feedOutageThreshold is the external-feed staleness bound (≈750 slots
// at 400ms) past which Trading auto-pauses to Partial.
const feedOutageThreshold = 5 * time.Minute

// Allow consults the pause level and any explicit per-category
// override, returning ErrProtocolFrozen / ErrProtocolPaused when the
// category is not permitted.
func Allow(state *domain.SafetyState, category domain.Category) error {
	if override, ok := state.CategoryBitmask[category]; ok {
		if override {
			return nil
		}
		return pausedError(state.PauseLevel)
	}
	if allowedByLevel[state.PauseLevel][category] {
		return nil
	}
	return pausedError(state.PauseLevel)
}

func pausedError(level domain.PauseLevel) error {
	if level == domain.PauseFreeze {
		return domain.ErrProtocolFrozen
	}
	return domain.ErrProtocolPaused
}

// CheckFeedOutage compares now to LastFeedSuccess and, on a stale
// feed, pauses Trading: it sets an explicit CategoryBitmask override
// for Trading and raises PauseLevel from None to Partial (a higher
// level is left as it is). On a fresh feed it clears the override;
// RecordFeedSuccess also returns the outage's Partial level to None.
func CheckFeedOutage(state *domain.SafetyState, now time.Time) {
	if now.Sub(state.LastFeedSuccess) > feedOutageThreshold {
		if state.CategoryBitmask == nil {
			state.CategoryBitmask = make(map[domain.Category]bool)
		}
		state.CategoryBitmask[domain.CategoryTrading] = false
		if state.PauseLevel == domain.PauseNone {
			state.PauseLevel = domain.PausePartial
		}
		return
	}
	delete(state.CategoryBitmask, domain.CategoryTrading)
}

// RecordFeedSuccess updates LastFeedSuccess, clears any outage
// override and, when that override was engaged at Partial, returns
// PauseLevel to None — the "auto-recover on first successful sync" rule.
func RecordFeedSuccess(state *domain.SafetyState, at time.Time) {
	state.LastFeedSuccess = at
	if override, ok := state.CategoryBitmask[domain.CategoryTrading]; ok && !override && state.PauseLevel == domain.PausePartial {
		state.PauseLevel = domain.PauseNone
	}
	delete(state.CategoryBitmask, domain.CategoryTrading)
}

// CheckAutoUnpause resets the pause level to None once currentSlot
// reaches the configured AutoUnpauseSlot.
func CheckAutoUnpause(state *domain.SafetyState, currentSlot uint64) {
	if state.AutoUnpauseSlot != nil && currentSlot >= *state.AutoUnpauseSlot {
		state.PauseLevel = domain.PauseNone
		state.AutoUnpauseSlot = nil
	}
}
