// Package engine implements the trading loop: a polling state machine that
// schedules predictions, derives order intents from price targets, reconciles
// fills against the position ledger, and enforces its invariants every cycle.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/predictivelabs/trader/internal/broker"
	"github.com/predictivelabs/trader/internal/history"
	"github.com/predictivelabs/trader/internal/ledger"
	"github.com/predictivelabs/trader/internal/logger"
	"github.com/predictivelabs/trader/internal/order"
	"github.com/predictivelabs/trader/internal/predictor"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/predictivelabs/trader/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State labels the engine's position in its cycle.
type State string

const (
	StateWaitingForMarketOpen State = "WAITING_FOR_MARKET_OPEN"
	StateIdleHoldingTarget    State = "IDLE_HOLDING_TARGET"
	StateOrderPending         State = "ORDER_PENDING"
	StateDeciding             State = "DECIDING"
	StateHalted               State = "HALTED"
)

// Deps carries the engine's collaborators. Gateway, Predictor, Logger, and
// Prompter are required; Clock, Sleeper, and Reporter default to real
// implementations; a nil Journal disables run journaling.
type Deps struct {
	Gateway   broker.Gateway
	Predictor predictor.Predictor
	Journal   *history.Journal
	Logger    *logger.Logger
	Reporter  Reporter
	Prompter  Prompter
	Clock     Clock
	Sleeper   Sleeper
}

// Engine owns the position ledger and the set of active orders, and drives
// the poll loop. It is single-threaded: every decision, placement, and ledger
// mutation happens on the goroutine running Run.
type Engine struct {
	config    Config
	gateway   broker.Gateway
	predictor predictor.Predictor
	journal   *history.Journal
	ledger    *ledger.Ledger
	logger    *logger.Logger
	reporter  Reporter
	prompter  Prompter
	clock     Clock
	sleeper   Sleeper

	interrupts chan struct{}

	state          State
	priceTarget    float64
	nextPrediction time.Time
	active         []*order.Order
}

// New builds an engine from a validated config.
func New(config Config, deps Deps) (*Engine, error) {
	if deps.Gateway == nil {
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "gateway is required")
	}

	if deps.Predictor == nil {
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "predictor is required")
	}

	if deps.Logger == nil {
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "logger is required")
	}

	if deps.Prompter == nil {
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "prompter is required")
	}

	if deps.Clock == nil {
		deps.Clock = NewClock()
	}

	if deps.Sleeper == nil {
		deps.Sleeper = NewSleeper()
	}

	if deps.Reporter == nil {
		deps.Reporter = NewLogReporter(deps.Logger)
	}

	return &Engine{
		config:     config,
		gateway:    deps.Gateway,
		predictor:  deps.Predictor,
		journal:    deps.Journal,
		ledger:     ledger.New(decimal.NewFromFloat(config.InitialCash)),
		logger:     deps.Logger,
		reporter:   deps.Reporter,
		prompter:   deps.Prompter,
		clock:      deps.Clock,
		sleeper:    deps.Sleeper,
		interrupts: make(chan struct{}, 1),
		state:      StateDeciding,
	}, nil
}

// State returns the engine's current state label.
func (e *Engine) State() State {
	return e.state
}

// Ledger exposes the position ledger for reporting.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// ActiveOrders returns the orders currently awaiting fills.
func (e *Engine) ActiveOrders() []*order.Order {
	return e.active
}

// Interrupt requests the summary/quit prompt at the next sleep boundary. Safe
// to call from any goroutine, e.g. a signal handler.
func (e *Engine) Interrupt() {
	select {
	case e.interrupts <- struct{}{}:
	default:
	}
}

// Run drives the loop until the user confirms a quit or the context is
// cancelled. The first prediction happens on the first open-market cycle.
func (e *Engine) Run(ctx context.Context) error {
	e.nextPrediction = e.clock.Now()

	for {
		halt, err := e.cycle(ctx)
		if err != nil {
			return err
		}

		if halt {
			e.state = StateHalted
			e.reporter.Halted()

			return nil
		}
	}
}

// cycle executes one poll iteration. The returned halt flag is true only
// after an explicit quit confirmation; the error return is reserved for
// context cancellation.
func (e *Engine) cycle(ctx context.Context) (bool, error) {
	now := e.clock.Now()
	e.reporter.CycleStart(now)

	last, err := e.gateway.GetLastPrice(ctx, e.config.Symbol)
	if err != nil {
		return e.recoverCycle(ctx, err, 0)
	}

	bid, err := e.gateway.GetLastBid(ctx, e.config.Symbol)
	if err != nil {
		return e.recoverCycle(ctx, err, last)
	}

	ask, err := e.gateway.GetLastAsk(ctx, e.config.Symbol)
	if err != nil {
		return e.recoverCycle(ctx, err, last)
	}

	open, err := e.gateway.MarketIsOpen(ctx)
	if err != nil {
		return e.recoverCycle(ctx, err, last)
	}

	if !open {
		e.state = StateWaitingForMarketOpen
		e.reporter.AfterHours()
		e.reportValue(last, now)

		return e.rest(ctx, e.config.AfterHoursInterval.Std(), last)
	}

	e.reporter.Quotes(last, bid, ask)

	if err := e.validate(bid, ask); err != nil {
		// Corrupted state is not repaired; the user decides whether to keep
		// observing or halt.
		return e.recoverCycle(ctx, err, last)
	}

	e.state = StateDeciding

	if halt, err := e.reconcile(ctx, now); halt || err != nil {
		return halt, err
	}

	e.checkTargetMet(bid, ask, now)

	if !e.nextPrediction.After(now) {
		if halt, err := e.repredict(ctx, now, last, bid, ask); halt || err != nil {
			return halt, err
		}
	}

	if len(e.active) > 0 {
		e.state = StateOrderPending
	} else {
		e.state = StateIdleHoldingTarget
	}

	e.reportValue(last, now)

	return e.rest(ctx, e.config.PollInterval.Std(), last)
}

func (e *Engine) validate(bid, ask float64) error {
	if err := e.ledger.Validate(); err != nil {
		return err
	}

	if bid <= 0 {
		return errors.Newf(errors.ErrCodeInvariantViolation, "bid price is not positive: %.2f", bid)
	}

	if ask <= 0 {
		return errors.Newf(errors.ErrCodeInvariantViolation, "ask price is not positive: %.2f", ask)
	}

	return nil
}

// reconcile refreshes every active order and applies newly filled deltas to
// the ledger. This always runs before any new decision so sizing never sees a
// stale position.
func (e *Engine) reconcile(ctx context.Context, now time.Time) (bool, error) {
	remaining := e.active[:0]

	for _, o := range e.active {
		complete, err := o.RefreshFill(ctx, e.gateway)
		if err != nil {
			e.reporter.ReportError(err)

			if e.prompter.ConfirmQuit() {
				return true, nil
			}

			remaining = append(remaining, o)

			continue
		}

		e.reporter.OrderFillProgress(o, complete)

		// Apply only once a fill price is known; an unpriced delta stays
		// unreconciled and is picked up on a later refresh.
		if delta := o.UnreconciledDelta(); delta > 0 && o.AvgFillPrice != 0 {
			if err := e.ledger.ApplyFill(o.Descriptor.Side, delta, o.AvgFillPrice); err != nil {
				e.reporter.ReportError(err)

				if e.prompter.ConfirmQuit() {
					return true, nil
				}

				remaining = append(remaining, o)

				continue
			}

			o.MarkReconciled()
			e.journalFill(o, delta, now)
		}

		if complete {
			e.journalMark(o.BrokerID, "FILLED")
		} else {
			remaining = append(remaining, o)
		}
	}

	e.active = remaining

	return false, nil
}

// checkTargetMet pulls the next prediction forward to now when the market has
// moved through the current target: ask at or below target with buying power,
// or bid at or above target while holding shares.
func (e *Engine) checkTargetMet(bid, ask float64, now time.Time) {
	if e.priceTarget <= 0 {
		return
	}

	canBuy := e.ledger.Shares() == 0 || e.ledger.Cash().GreaterThanOrEqual(decimal.NewFromFloat(ask))

	switch {
	case canBuy && ask <= e.priceTarget:
		e.reporter.TargetMet(e.priceTarget, types.OrderSideBuy)
		e.nextPrediction = now
	case e.ledger.Shares() > 0 && bid >= e.priceTarget:
		e.reporter.TargetMet(e.priceTarget, types.OrderSideSell)
		e.nextPrediction = now
	default:
		e.reporter.TargetNotMet(e.priceTarget)
	}
}

// repredict cancels unfilled orders, obtains a fresh target, and derives and
// places the next order. Cancellation precedes prediction so a stale order
// can never race its replacement.
func (e *Engine) repredict(ctx context.Context, now time.Time, last, bid, ask float64) (bool, error) {
	remaining := e.active[:0]

	for _, o := range e.active {
		if err := o.Cancel(ctx, e.gateway); err != nil {
			e.reporter.ReportError(err)

			if e.prompter.ConfirmQuit() {
				return true, nil
			}

			// Still live at the broker: keep polling its fills and retry the
			// cancellation before predicting again.
			remaining = append(remaining, o)

			continue
		}

		e.journalMark(o.BrokerID, "CANCELLED")
	}

	e.active = remaining

	if len(e.active) > 0 {
		e.nextPrediction = now

		return false, nil
	}

	target, err := e.predictor.PredictPrice(ctx, e.config.Symbol)
	if err != nil {
		e.reporter.ReportError(err)

		if e.prompter.ConfirmQuit() {
			return true, nil
		}

		// Force another attempt next cycle.
		e.nextPrediction = now

		return false, nil
	}

	e.priceTarget = math.Round(target*100) / 100
	e.reporter.NewPrediction(e.priceTarget)
	e.nextPrediction = now.Add(e.config.PredictionInterval.Std())

	intent := e.deriveOrder(bid, ask)
	if intent == nil {
		switch {
		case e.priceTarget > ask:
			e.reporter.NoAction("insufficient cash for a single share at the ask")
		case e.priceTarget < bid:
			e.reporter.NoAction("no shares to sell")
		default:
			e.reporter.NoAction("price target between bid and ask")
		}

		return false, nil
	}

	if _, err := intent.Place(ctx, e.gateway); err != nil {
		e.reporter.ReportError(err)

		if e.prompter.ConfirmQuit() {
			return true, nil
		}

		// Re-derive a fresh order next cycle instead of resubmitting this
		// descriptor blindly.
		e.nextPrediction = now

		return false, nil
	}

	e.reporter.OrderPlaced(intent)
	e.active = append(e.active, intent)

	if e.journal != nil {
		if err := e.journal.RecordOrder(intent, now); err != nil {
			e.logger.Warn("failed to journal order", zap.Error(err))
		}
	}

	return false, nil
}

// deriveOrder turns the current target into an order intent. Strict
// inequality is required on both sides; a target exactly at bid or ask does
// nothing.
func (e *Engine) deriveOrder(bid, ask float64) *order.Order {
	if e.priceTarget > ask {
		quantity := e.ledger.Cash().Div(decimal.NewFromFloat(ask)).IntPart()
		if quantity <= 0 {
			return nil
		}

		return order.Market(e.config.Symbol, types.OrderSideBuy, quantity)
	}

	if e.priceTarget < bid && e.ledger.Shares() > 0 {
		return order.Market(e.config.Symbol, types.OrderSideSell, e.ledger.Shares())
	}

	return nil
}

// recoverCycle reports a cycle-level error and offers the quit prompt. If the
// user declines, the engine sleeps one interval and tries again; no
// self-repair is attempted. The after-hours cadence is kept when the market
// was last seen closed.
func (e *Engine) recoverCycle(ctx context.Context, cause error, last float64) (bool, error) {
	e.reporter.ReportError(cause)

	if e.prompter.ConfirmQuit() {
		return true, nil
	}

	interval := e.config.PollInterval
	if e.state == StateWaitingForMarketOpen {
		interval = e.config.AfterHoursInterval
	}

	return e.rest(ctx, interval.Std(), last)
}

func (e *Engine) reportValue(last float64, now time.Time) {
	equity, total := e.ledger.MarkToMarket(last)
	e.reporter.Value(e.ledger.Shares(), equity, e.ledger.Cash(), total)

	if e.journal != nil {
		if err := e.journal.RecordValuation(last, e.ledger.Cash(), e.ledger.Shares(), total, now); err != nil {
			e.logger.Warn("failed to journal valuation", zap.Error(err))
		}
	}
}

// rest sleeps between cycles. An interrupt during the sleep produces the
// trading summary and the quit prompt; declining resumes the loop unchanged.
func (e *Engine) rest(ctx context.Context, d time.Duration, last float64) (bool, error) {
	interrupted, err := e.wait(ctx, d)
	if err != nil {
		return false, err
	}

	if interrupted {
		e.Summarize(last)

		if e.prompter.ConfirmQuit() {
			return true, nil
		}
	}

	return false, nil
}

// wait blocks for d, returning early on an interrupt request or context
// cancellation. A pending interrupt wins over the sleep deterministically.
func (e *Engine) wait(ctx context.Context, d time.Duration) (bool, error) {
	select {
	case <-e.interrupts:
		return true, nil
	default:
	}

	slept := make(chan error, 1)

	go func() {
		slept <- e.sleeper.Sleep(ctx, d)
	}()

	select {
	case <-e.interrupts:
		return true, nil
	case err := <-slept:
		return false, err
	}
}

// Summarize reports starting value, current value, and the journal aggregate.
func (e *Engine) Summarize(last float64) {
	_, total := e.ledger.MarkToMarket(last)

	var summary history.Summary

	if e.journal != nil {
		aggregated, err := e.journal.Summarize()
		if err != nil {
			e.logger.Warn("failed to summarize journal", zap.Error(err))
		} else {
			summary = aggregated
		}
	}

	e.reporter.Summary(e.ledger.InitialCapital(), total, summary)
}

func (e *Engine) journalFill(o *order.Order, delta int64, now time.Time) {
	if e.journal == nil {
		return
	}

	if err := e.journal.RecordFill(o, delta, o.AvgFillPrice, e.ledger.Cash(), e.ledger.Shares(), now); err != nil {
		e.logger.Warn("failed to journal fill", zap.Error(err))
	}
}

func (e *Engine) journalMark(brokerID, status string) {
	if e.journal == nil {
		return
	}

	if err := e.journal.MarkOrder(brokerID, status); err != nil {
		e.logger.Warn("failed to journal order status", zap.Error(err))
	}
}
