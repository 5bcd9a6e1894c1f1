package domain

import (
	"time"

	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// MarketID is the 32-byte identity of a source-venue market.
type MarketID [32]byte

// ID128 is the 128-bit identity shared by SyntheticWrapper, Order and
// Chain.
type ID128 [16]byte

// ResolutionState is the lifecycle state of a source market.
type ResolutionState int

const (
	ResolutionOpen ResolutionState = iota
	ResolutionResolved
	ResolutionDisputed
)

// Market is a source-venue market ingested by the ingestion state
// machine. It is created by ingestion and mutated only by ingestion's
// atomic batch apply; archived, never destroyed.
type Market struct {
	ID MarketID
	Title string
	OutcomeLabels []string // 2..=64 labels
	OutcomePrices []fixedpoint.Q64 // sum constraint |Σp − 1| ≤ 0.01
	Volume24h fixedpoint.Q64
	LiquidityDepth fixedpoint.Q64
	Resolution ResolutionState
	ResolvedOutcome int // valid only when Resolution == ResolutionResolved
	VerseID string
	LastUpdateSlot uint64
	CreatedAtSlot uint64
}

// Verse is an aggregate over all Markets classified under the same
// VerseID, recomputed by ingestion's atomic apply.
type Verse struct {
	ID string
	TotalOI fixedpoint.Q64 // sum of member Volume24h
	DerivedProbability fixedpoint.Q64 // volume-weighted average of member prices
	LastUpdateSlot uint64
}

// WrapperStatus is the lifecycle state of a SyntheticWrapper.
type WrapperStatus int

const (
	WrapperActive WrapperStatus = iota
	WrapperPaused
	WrapperRetired
)

// SyntheticWrapper is a composite instrument whose probability is
// derived from a weighted set of source markets.
type SyntheticWrapper struct {
	ID ID128
	SourceMarkets []MarketID
	Weights []fixedpoint.Q64 // Σweights = 1 ± ε
	DerivedProbability fixedpoint.Q64
	AggregateVolume7d fixedpoint.Q64
	Status WrapperStatus
	MinSources int
	LastDerivationSlot uint64
}

// Side is the directional side of an order or position.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// PositionKey is the identity of a Position: (owner, market, outcome, side).
type PositionKey struct {
	Owner string
	Market MarketID
	Outcome int
	Side Side
}

// RollConfig is a position's optional auto-roll configuration.
type RollConfig struct {
	Enabled bool
	RollBeforeExpiry uint64 // slots
	RollsRemaining int
	MaxRollSlippageBps int64
	MaxRollFeeBps int64
}

// Position is a leveraged position on an outcome of a market.
type Position struct {
	Key PositionKey
	Size fixedpoint.Q64 // notional
	Collateral fixedpoint.Q64
	EntryPrice fixedpoint.Q64
	Leverage fixedpoint.Q64
	AccumulatedFunding fixedpoint.Q64 // signed
	RealizedPnL fixedpoint.Q64
	LiquidationPrice fixedpoint.Q64
	StopPrice *fixedpoint.Q64
	TakeProfitPrice *fixedpoint.Q64
	Roll *RollConfig
	OpenedAtSlot uint64
	LastFundingSlot uint64
}

// OrderStatus is the lifecycle state of an Order. Terminal states are
// absorbing.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderExecuting
	OrderFilled
	OrderPartiallyFilled
	OrderCancelled
	OrderExpired
)

// OrderTarget discriminates whether an order targets a synthetic
// wrapper or a single source market directly.
type OrderTarget struct {
	WrapperID *ID128
	MarketID *MarketID
}

// Order is a submitted trade intent.
type Order struct {
	ID ID128
	Owner string
	Target OrderTarget
	Outcome int
	Side Side
	Amount fixedpoint.Q64
	MaxSlippageBps int64
	LimitPrice *fixedpoint.Q64
	SubmissionSlot uint64
	PriorityScore fixedpoint.Q64
	Status OrderStatus
}

// ChainStepKind enumerates the step types a Chain can hold.
type ChainStepKind int

const (
	StepOpenPosition ChainStepKind = iota
	StepConditionalPosition
	StepTakeProfit
	StepStopLoss
	StepReinvest
)

// ChainStep is a single step of a Chain's plan.
type ChainStep struct {
	Kind ChainStepKind
	Market MarketID
	Outcome int
	Side Side
	Notional fixedpoint.Q64
	Leverage fixedpoint.Q64
	TriggerPnLBps int64 // ConditionalPosition / TakeProfit / StopLoss
	ClosePct int64 // TakeProfit partial close percentage
	Executed bool
	OpenedPositionAt int // index into Chain.OpenedPositions; meaningful only when Executed
}

// ChainSafety bounds a Chain's execution.
type ChainSafety struct {
	MaxPositions int
	MaxLeverage fixedpoint.Q64
	MaxExposure fixedpoint.Q64
	StopLossBps int64
	TakeProfitBps int64
	MaxDurationSlot uint64
}

// ChainStatus is the lifecycle state of a Chain.
type ChainStatus int

const (
	ChainCreated ChainStatus = iota
	ChainExecuting
	ChainStopped
	ChainTookProfit
	ChainUnwinding
	ChainSettled
)

// Chain is an owner-defined multi-step, cross-market plan.
type Chain struct {
	ID ID128
	Owner string
	InitialDeposit fixedpoint.Q64
	Steps []ChainStep
	CurrentStepIndex int
	Safety ChainSafety
	AggregatePnL fixedpoint.Q64
	Status ChainStatus
	CreatedAtSlot uint64
	OpenedPositions []PositionKey // reverse-unwind order
}

// StakeTier is the tier a StakeAccount falls into by staked amount.
type StakeTier int

const (
	TierBronze StakeTier = iota
	TierSilver
	TierGold
	TierPlatinum
	TierDiamond
)

// StakeAccount is a reward-token staking position.
type StakeAccount struct {
	Owner string
	StakedAmount fixedpoint.Q64
	LockEndSlot *uint64
	LockMultiplier fixedpoint.Q64 // [1.0, 2.0]
	Tier StakeTier
	AccumulatedReward fixedpoint.Q64
	LastClaimSlot uint64
}

// RewardCategory enumerates the reward-emission distribution types.
type RewardCategory int

const (
	CategoryMakerReward RewardCategory = iota
	CategoryStakingReward
	CategoryEarlyTraderBonus
)

// SeasonEmission tracks a season's emission budget.
type SeasonEmission struct {
	Season uint64
	TotalAllocation fixedpoint.Q64
	Emitted fixedpoint.Q64
	PerCategory map[RewardCategory]fixedpoint.Q64
	StartSlot uint64
	EndSlot uint64
}

// PauseLevel is the protocol-wide pause level.
type PauseLevel int

const (
	PauseNone PauseLevel = iota
	PausePartial
	PauseFull
	PauseFreeze
)

// RecoveryMode is the safety supervisor's recovery state.
type RecoveryMode int

const (
	RecoveryNormal RecoveryMode = iota
	RecoveryPartialDegradation
	RecoveryFullRecovery
	RecoveryEmergency
)

// Category is a mutating-operation category gated by SafetyState.allow.
type Category int

const (
	CategoryTrading Category = iota
	CategoryLiquidation
	CategoryAdmin
	CategoryEmergency
	CategoryView
)

// SafetyState is the protocol-wide safety posture.
type SafetyState struct {
	PauseLevel PauseLevel
	CategoryBitmask map[Category]bool // explicit per-category override
	Recovery RecoveryMode
	LastFeedSuccess time.Time
	BootstrapVault fixedpoint.Q64
	CoverageRatio fixedpoint.Q64
	AutoUnpauseSlot *uint64
}
