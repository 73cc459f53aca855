package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/predictivelabs/trader/internal/engine"
	"github.com/predictivelabs/trader/internal/history"
	"github.com/predictivelabs/trader/internal/order"
	"github.com/predictivelabs/trader/internal/types"
	"github.com/shopspring/decimal"
)

// ConsoleReporter renders engine events to the terminal and forwards every
// event to the structured log reporter.
type ConsoleReporter struct {
	out io.Writer
	log engine.Reporter
}

func NewConsoleReporter(out io.Writer, log engine.Reporter) *ConsoleReporter {
	return &ConsoleReporter{out: out, log: log}
}

func (r *ConsoleReporter) CycleStart(now time.Time) {
	r.log.CycleStart(now)
	fmt.Fprintln(r.out, MutedStyle.Render(now.Format("15:04:05")))
}

func (r *ConsoleReporter) Quotes(last, bid, ask float64) {
	r.log.Quotes(last, bid, ask)
	fmt.Fprintf(r.out, "  last %.2f  bid %.2f  ask %.2f\n", last, bid, ask)
}

func (r *ConsoleReporter) AfterHours() {
	r.log.AfterHours()
	fmt.Fprintln(r.out, MutedStyle.Render("  market closed"))
}

func (r *ConsoleReporter) TargetMet(target float64, side types.OrderSide) {
	r.log.TargetMet(target, side)

	style := BuyStyle
	if side == types.OrderSideSell {
		style = SellStyle
	}

	fmt.Fprintln(r.out, style.Render(fmt.Sprintf("  target %.2f met (%s)", target, side)))
}

func (r *ConsoleReporter) TargetNotMet(target float64) {
	r.log.TargetNotMet(target)
	fmt.Fprintf(r.out, "  waiting on target %.2f\n", target)
}

func (r *ConsoleReporter) NewPrediction(target float64) {
	r.log.NewPrediction(target)
	fmt.Fprintln(r.out, TitleStyle.Render(fmt.Sprintf("  predicted price %.2f", target)))
}

func (r *ConsoleReporter) OrderPlaced(o *order.Order) {
	r.log.OrderPlaced(o)

	style := BuyStyle
	if o.Descriptor.Side == types.OrderSideSell {
		style = SellStyle
	}

	fmt.Fprintln(r.out, style.Render(fmt.Sprintf("  placed %s %d %s (order %s)",
		o.Descriptor.Side, o.Descriptor.Quantity, o.Descriptor.Symbol, o.BrokerID)))
}

func (r *ConsoleReporter) OrderFillProgress(o *order.Order, complete bool) {
	r.log.OrderFillProgress(o, complete)

	status := "filling"
	if complete {
		status = "filled"
	}

	fmt.Fprintf(r.out, "  order %s %s: %d/%d at %.2f\n",
		o.BrokerID, status, o.FilledQuantity, o.Descriptor.Quantity, o.AvgFillPrice)
}

func (r *ConsoleReporter) NoAction(reason string) {
	r.log.NoAction(reason)
	fmt.Fprintln(r.out, MutedStyle.Render("  no action: "+reason))
}

func (r *ConsoleReporter) Value(shares int64, equity, cash, total decimal.Decimal) {
	r.log.Value(shares, equity, cash, total)
	fmt.Fprintf(r.out, "  %d shares (%s) + %s cash = %s\n",
		shares, equity.StringFixed(2), cash.StringFixed(2), total.StringFixed(2))
}

func (r *ConsoleReporter) ReportError(err error) {
	r.log.ReportError(err)
	fmt.Fprintln(r.out, ErrorStyle.Render("  error: "+err.Error()))
}

func (r *ConsoleReporter) Summary(start, end decimal.Decimal, summary history.Summary) {
	r.log.Summary(start, end, summary)

	ret := 0.0
	if f, _ := start.Float64(); f != 0 {
		endF, _ := end.Float64()
		ret = (endF - f) / f
	}

	body := fmt.Sprintf("%s\nstarted with  %s\ncurrent value %s\nreturn        %s\norders %d  fills %d  shares traded %d",
		TitleStyle.Render("trading summary"),
		start.StringFixed(2),
		end.StringFixed(2),
		FormatReturn(ret),
		summary.OrdersPlaced, summary.Fills, summary.SharesTraded)

	fmt.Fprintln(r.out, SummaryBorderStyle.Render(body))
}

func (r *ConsoleReporter) Halted() {
	r.log.Halted()
	fmt.Fprintln(r.out, TitleStyle.Render("trader halted"))
}

var _ engine.Reporter = (*ConsoleReporter)(nil)

// StdinPrompter reads yes/no answers from an input stream.
type StdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{in: bufio.NewReader(in), out: out}
}

// ConfirmQuit asks whether to stop trading. Anything but an explicit yes
// resumes the loop.
func (p *StdinPrompter) ConfirmQuit() bool {
	return p.ask("Quit trading? [y/N] ")
}

// ConfirmStart asks whether to begin trading with the loaded configuration.
func (p *StdinPrompter) ConfirmStart() bool {
	return p.ask("Start trading? [y/N] ")
}

func (p *StdinPrompter) ask(prompt string) bool {
	fmt.Fprint(p.out, prompt)

	line, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes"
}

var _ engine.Prompter = (*StdinPrompter)(nil)
