package engine

import (
	"time"

	"github.com/predictivelabs/trader/internal/history"
	"github.com/predictivelabs/trader/internal/logger"
	"github.com/predictivelabs/trader/internal/order"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reporter receives cycle-by-cycle events for user-facing output. The engine
// calls it from the decision loop only; implementations must not block on
// user input.
type Reporter interface {
	CycleStart(now time.Time)
	Quotes(last, bid, ask float64)
	AfterHours()
	TargetMet(target float64, side types.OrderSide)
	TargetNotMet(target float64)
	NewPrediction(target float64)
	OrderPlaced(o *order.Order)
	OrderFillProgress(o *order.Order, complete bool)
	NoAction(reason string)
	Value(shares int64, equity, cash, total decimal.Decimal)
	ReportError(err error)
	Summary(start, end decimal.Decimal, summary history.Summary)
	Halted()
}

// LogReporter writes every event to the structured log. The CLI wraps it with
// styled console output; tests use it bare.
type LogReporter struct {
	logger *logger.Logger
}

func NewLogReporter(log *logger.Logger) *LogReporter {
	return &LogReporter{logger: log}
}

func (r *LogReporter) CycleStart(now time.Time) {
	r.logger.Debug("cycle start", zap.Time("at", now))
}

func (r *LogReporter) Quotes(last, bid, ask float64) {
	r.logger.Info("quotes", zap.Float64("last", last), zap.Float64("bid", bid), zap.Float64("ask", ask))
}

func (r *LogReporter) AfterHours() {
	r.logger.Info("market closed, no action")
}

func (r *LogReporter) TargetMet(target float64, side types.OrderSide) {
	r.logger.Info("price target met", zap.Float64("target", target), zap.String("side", string(side)))
}

func (r *LogReporter) TargetNotMet(target float64) {
	r.logger.Info("price target not yet met", zap.Float64("target", target))
}

func (r *LogReporter) NewPrediction(target float64) {
	r.logger.Info("new prediction", zap.Float64("target", target))
}

func (r *LogReporter) OrderPlaced(o *order.Order) {
	r.logger.Info("order placed",
		zap.String("broker_id", o.BrokerID),
		zap.String("side", string(o.Descriptor.Side)),
		zap.String("kind", string(o.Descriptor.Kind)),
		zap.Int64("quantity", o.Descriptor.Quantity))
}

func (r *LogReporter) OrderFillProgress(o *order.Order, complete bool) {
	r.logger.Info("order fill status",
		zap.String("broker_id", o.BrokerID),
		zap.Int64("filled", o.FilledQuantity),
		zap.Int64("quantity", o.Descriptor.Quantity),
		zap.Float64("avg_price", o.AvgFillPrice),
		zap.Bool("complete", complete))
}

func (r *LogReporter) NoAction(reason string) {
	r.logger.Info("no action", zap.String("reason", reason))
}

func (r *LogReporter) Value(shares int64, equity, cash, total decimal.Decimal) {
	r.logger.Info("position value",
		zap.Int64("shares", shares),
		zap.String("equity", equity.StringFixed(2)),
		zap.String("cash", cash.StringFixed(2)),
		zap.String("total", total.StringFixed(2)))
}

func (r *LogReporter) ReportError(err error) {
	r.logger.Error("cycle error", zap.Error(err))
}

func (r *LogReporter) Summary(start, end decimal.Decimal, summary history.Summary) {
	r.logger.Info("trading summary",
		zap.String("starting_value", start.StringFixed(2)),
		zap.String("ending_value", end.StringFixed(2)),
		zap.Int64("orders", summary.OrdersPlaced),
		zap.Int64("fills", summary.Fills),
		zap.Int64("shares_traded", summary.SharesTraded))
}

func (r *LogReporter) Halted() {
	r.logger.Info("trader halted")
}

var _ Reporter = (*LogReporter)(nil)

// Prompter asks the user yes/no questions at loop boundaries. It runs on the
// engine's thread and may block on input.
type Prompter interface {
	// ConfirmQuit asks whether to halt the trader. True halts.
	ConfirmQuit() bool
}
