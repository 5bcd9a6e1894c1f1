package ledger

import (
	"sync/atomic"

	"github.com/gary322/flashbets-ledger/internal/chain"
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/gary322/flashbets-ledger/internal/liquidation"
	ledgerlog "github.com/gary322/flashbets-ledger/internal/log"
	"github.com/gary322/flashbets-ledger/internal/position"
	"github.com/gary322/flashbets-ledger/internal/router"
	"github.com/gary322/flashbets-ledger/internal/safety"
	"github.com/gary322/flashbets-ledger/internal/scheduler"
	"github.com/gary322/flashbets-ledger/internal/telemetry"
)

// stepStages names the fixed stage order for step-timing diagnostics.
var stepStages = []string{"expire", "antimev", "ratelimit", "priority", "route", "funding", "liquidation", "chain"}

// guardFree / guardBusy are the reentrancy-guard states:
// "a per-operation first-byte guard byte is set on entry and cleared
// on exit; concurrent re-entry aborts with Reentrancy".
const (
	guardFree int32 = 0
	guardBusy int32 = 1
)

// Engine is the single-threaded cooperative step loop that drives one
// slot's worth of ledger state transitions. It owns every mutable path
// into positions, chains and the safety state; external callers only
// ever see StepResult summaries and EventLog entries, never the
// underlying maps.
type Engine struct {
	guard int32

	Events *EventLog
	Safety *domain.SafetyState
	Cascade *liquidation.CascadeGate
	Weights scheduler.Weights
	CUBudget int64
	RateLimiter *scheduler.RateLimiter

	// Metrics is optional — a nil Metrics disables Prometheus recording
	// so unit tests can build an Engine without a registry.
	Metrics *telemetry.Registry
}

// NewEngine builds an Engine with default priority weights and the
// given safety state / compute budget (the `scheduler.cu_max`).
func NewEngine(safetyState *domain.SafetyState, cuBudget int64) *Engine {
	return &Engine{
		Events: NewEventLog(),
		Safety: safetyState,
		Cascade: &liquidation.CascadeGate{},
		Weights: scheduler.DefaultWeights(),
		CUBudget: cuBudget,
		RateLimiter: scheduler.NewRateLimiter(),
	}
}

func (e *Engine) enter() error {
	if !atomic.CompareAndSwapInt32(&e.guard, guardFree, guardBusy) {
		return domain.ErrReentrancy
	}
	return nil
}

func (e *Engine) exit() {
	atomic.StoreInt32(&e.guard, guardFree)
}

// StepInput bundles the per-slot inputs an outer host runtime supplies
// to one step — pending orders, recent trades for MEV detection,
// per-caller volume for fee tiering, open positions needing funding,
// chains ready to advance, and the oracle/pricing hooks the domain
// packages need but don't own.
type StepInput struct {
	Slot uint64

	PendingOrders []*domain.Order
	RecentTrades []scheduler.RecentTrade
	DailyVolumeByCaller map[string]fixedpoint.Q64
	PriceCheck router.PriceCheck

	Positions []*domain.Position
	MarkPriceOf func(domain.MarketID) fixedpoint.Q64
	FundingRate func(pos *domain.Position) (fixedpoint.Q64, error)

	Chains []*domain.Chain
	Opener chain.StepOpener
	Closer chain.StepCloser
}

// StepResult summarizes one step's outcome for the caller (metrics,
// logging) — the authoritative record is the EventLog.
type StepResult struct {
	Slot uint64
	OrdersExpired int
	OrdersSandwiched int
	OrdersRateLimited int
	Receipts []router.ExecutionReceipt
	FundingAccrued int
	Liquidations []liquidation.WaterfallResult
	ChainStepsRun int
}

// RunStep executes exactly one atomic batch, the ordering
// guarantees: within-batch priority order, funding before any
// P&L-affecting mutation, liquidation after trading, chain steps last.
// A CU-budget overrun or any stage error aborts the WHOLE step before
// the orders/positions/chains stages that haven't run yet are
// touched — earlier stages in this call have already committed their
// effects directly onto the caller's slices, consistent with the
// per-stage atomicity each package already enforces internally.
func (e *Engine) RunStep(in StepInput) (result StepResult, err error) {
	if err := e.enter(); err != nil {
		return StepResult{}, err
	}
	defer e.exit()

	result = StepResult{Slot: in.Slot}
	stepLog := ledgerlog.NewStepLogger(in.Slot, stepStages)

	if e.Metrics != nil {
		defer func() {
			if err != nil {
				e.Metrics.StepsTotal.WithLabelValues("error").Inc()
			} else {
				e.Metrics.StepsTotal.WithLabelValues("ok").Inc()
				e.Metrics.FundingAccrued.Add(float64(result.FundingAccrued))
				e.Metrics.ChainStepsRun.Add(float64(result.ChainStepsRun))
				e.Metrics.OrdersSandwiched.Add(float64(result.OrdersSandwiched))
				e.Metrics.OrdersRateLimited.Add(float64(result.OrdersRateLimited))
				for range result.Receipts {
					e.Metrics.OrdersRouted.WithLabelValues("filled").Inc()
				}
				for range result.Liquidations {
					e.Metrics.Liquidations.WithLabelValues("waterfall").Inc()
				}
				e.Metrics.SafetyPauseLevel.Set(float64(e.Safety.PauseLevel))
			}
		}()
	}

	safety.CheckAutoUnpause(e.Safety, in.Slot)
	if err := safety.Allow(e.Safety, domain.CategoryTrading); err != nil {
		stepLog.Fail(err)
		return result, err
	}

	// Trading pass: expire, filter sandwiches, prioritize, route.
	stepLog.StartStep("expire")
	result.OrdersExpired = scheduler.ApplyExpiry(in.PendingOrders, in.Slot)

	stepLog.StartStep("antimev")
	safe, rejected, err := scheduler.FilterSandwiches(in.PendingOrders, in.RecentTrades)
	if err != nil {
		stepLog.Fail(err)
		return result, err
	}
	result.OrdersSandwiched = len(rejected)

	stepLog.StartStep("ratelimit")
	admitted := make([]*domain.Order, 0, len(safe))
	for _, o := range safe {
		if e.RateLimiter != nil && !e.RateLimiter.Allow(o.Owner) {
			result.OrdersRateLimited++
			continue
		}
		admitted = append(admitted, o)
	}

	stepLog.StartStep("priority")
	scheduler.SortByPriority(admitted)
	batch := scheduler.SelectBatch(admitted, 0) // 0 defers to the package default batch size

	if estimatedCU(len(batch)) > e.CUBudget {
		stepLog.Fail(domain.ErrComputeBudgetExceeded)
		return result, domain.ErrComputeBudgetExceeded
	}

	stepLog.StartStep("route")
	intents := ordersToIntents(batch)
	if len(intents) > 0 {
		receipts, err := router.Route(intents, in.DailyVolumeByCaller, in.PriceCheck, e.CUBudget)
		if err != nil {
			stepLog.Fail(err)
			return result, err
		}
		result.Receipts = receipts
		for _, r := range receipts {
			e.Events.Append(in.Slot, EventOrderFilled, r)
		}
	}

	// Funding pass: always precedes any P&L-affecting mutation on the
	// same position in the same step.
	stepLog.StartStep("funding")
	if err := safety.Allow(e.Safety, domain.CategoryTrading); err == nil {
		for _, pos := range in.Positions {
			rate, rerr := in.FundingRate(pos)
			if rerr != nil {
				stepLog.Fail(rerr)
				return result, rerr
			}
			if err := position.AccrueFunding(pos, rate, in.Slot); err != nil {
				stepLog.Fail(err)
				return result, err
			}
			result.FundingAccrued++
			e.Events.Append(in.Slot, EventFundingAccrued, pos.Key)
		}
	}

	// Liquidation pass: runs after the trading pass.
	stepLog.StartStep("liquidation")
	if err := safety.Allow(e.Safety, domain.CategoryLiquidation); err == nil {
		for _, pos := range in.Positions {
			liquidatable, lerr := liquidation.IsLiquidatable(pos)
			if lerr != nil {
				stepLog.Fail(lerr)
				return result, lerr
			}
			if !liquidatable {
				continue
			}
			if !e.Cascade.TryInitiate(in.Slot) {
				continue
			}
			mark := in.MarkPriceOf(pos.Key.Market)
			wf, werr := liquidation.Waterfall(pos.Size, pos.Collateral, mark)
			if werr != nil {
				stepLog.Fail(werr)
				return result, werr
			}
			result.Liquidations = append(result.Liquidations, wf)
			e.Events.Append(in.Slot, EventPositionLiquidated, struct {
				Key domain.PositionKey
				Result liquidation.WaterfallResult
			}{pos.Key, wf})
		}
	}

	// Chain pass: runs last so chains observe fresh prices.
	stepLog.StartStep("chain")
	for _, c := range in.Chains {
		chain.CheckStopLossTakeProfit(c)
		if c.Status == domain.ChainExecuting || c.Status == domain.ChainCreated {
			if err := chain.ExecuteNext(c, in.Opener, in.Slot); err != nil {
				continue
			}
			result.ChainStepsRun++
			e.Events.Append(in.Slot, EventChainStepExecuted, c.ID)
		}
		if c.Status == domain.ChainUnwinding {
			if err := chain.Unwind(c, in.Closer); err == nil {
				e.Events.Append(in.Slot, EventChainUnwound, c.ID)
			}
		}
	}

	stepLog.Finish()
	return result, nil
}

// estimatedCU is a coarse per-order compute estimate used for the
// pre-mutation budget gate (the "bounded by explicit CU
// budgets... a step exceeding its budget aborts... no partial
// application"). It intentionally overestimates slightly (one
// cuPerChildMarket-equivalent slot per order) since the exact
// per-bundle cost is only known after netting.
func estimatedCU(numOrders int) int64 {
	const perOrderCU = 3_000
	return int64(numOrders) * perOrderCU
}

// ordersToIntents adapts the scheduler's selected Order batch into
// router.Intent values. Each order becomes a single-market intent
// unless its target is a wrapper, in which case the caller is expected
// to have already expanded it upstream — RunStep operates on the
// already-target-resolved order set.
func ordersToIntents(orders []*domain.Order) []router.Intent {
	intents := make([]router.Intent, 0, len(orders))
	for _, o := range orders {
		if o.Target.MarketID == nil {
			continue
		}
		intents = append(intents, router.Intent{
			Caller: o.Owner,
			OrderID: o.ID,
			ChildMarkets: []domain.MarketID{*o.Target.MarketID},
			ChildNotional: []fixedpoint.Q64{o.Amount},
			Side: o.Side,
		})
		if o.Target.WrapperID != nil {
			intents[len(intents)-1].WrapperID = *o.Target.WrapperID
		}
	}
	return intents
}
