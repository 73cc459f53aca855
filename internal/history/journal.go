package history

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/predictivelabs/trader/internal/logger"
	"github.com/predictivelabs/trader/internal/order"
	"github.com/predictivelabs/trader/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Journal records every order, fill, and valuation of a trading run in an
// in-memory DuckDB database. It exists for end-of-run reporting; nothing is
// persisted across runs.
type Journal struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	runID  string
}

func NewJournal(log *logger.Logger) (*Journal, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHistoryFailed, "failed to open in-memory database", err)
	}

	return &Journal{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		runID:  uuid.New().String(),
	}, nil
}

// Initialize creates the journal tables.
func (j *Journal) Initialize() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			run_id TEXT,
			client_id TEXT,
			broker_id TEXT,
			symbol TEXT,
			side TEXT,
			kind TEXT,
			quantity BIGINT,
			limit_price DOUBLE,
			status TEXT,
			placed_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryFailed, "failed to create orders table", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			fill_id TEXT PRIMARY KEY,
			run_id TEXT,
			broker_id TEXT,
			symbol TEXT,
			side TEXT,
			delta_quantity BIGINT,
			avg_price DOUBLE,
			cash_after DOUBLE,
			shares_after BIGINT,
			recorded_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryFailed, "failed to create fills table", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS valuations (
			valuation_id TEXT PRIMARY KEY,
			run_id TEXT,
			last_price DOUBLE,
			cash DOUBLE,
			shares BIGINT,
			total DOUBLE,
			recorded_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryFailed, "failed to create valuations table", err)
	}

	return nil
}

// RecordOrder journals a placed order.
func (j *Journal) RecordOrder(o *order.Order, placedAt time.Time) error {
	query := j.sq.
		Insert("orders").
		Columns(
			"order_id", "run_id", "client_id", "broker_id", "symbol", "side",
			"kind", "quantity", "limit_price", "status", "placed_at",
		).
		Values(
			uuid.New().String(), j.runID, o.Descriptor.ClientID, o.BrokerID,
			o.Descriptor.Symbol, string(o.Descriptor.Side), string(o.Descriptor.Kind),
			o.Descriptor.Quantity, o.Descriptor.LimitPrice.TakeOr(0), "PLACED", placedAt,
		).
		RunWith(j.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryFailed, "failed to journal order", err)
	}

	return nil
}

// MarkOrder updates an order's journaled status, e.g. CANCELLED or FILLED.
func (j *Journal) MarkOrder(brokerID string, status string) error {
	query := j.sq.
		Update("orders").
		Set("status", status).
		Where(squirrel.Eq{"broker_id": brokerID, "run_id": j.runID}).
		RunWith(j.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryFailed, "failed to update order status", err)
	}

	return nil
}

// RecordFill journals one reconciled fill delta along with the ledger state
// after it was applied.
func (j *Journal) RecordFill(o *order.Order, deltaQuantity int64, avgPrice float64, cashAfter decimal.Decimal, sharesAfter int64, recordedAt time.Time) error {
	cash, _ := cashAfter.Float64()

	query := j.sq.
		Insert("fills").
		Columns(
			"fill_id", "run_id", "broker_id", "symbol", "side",
			"delta_quantity", "avg_price", "cash_after", "shares_after", "recorded_at",
		).
		Values(
			uuid.New().String(), j.runID, o.BrokerID, o.Descriptor.Symbol,
			string(o.Descriptor.Side), deltaQuantity, avgPrice, cash, sharesAfter, recordedAt,
		).
		RunWith(j.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryFailed, "failed to journal fill", err)
	}

	return nil
}

// RecordValuation journals a mark-to-market snapshot.
func (j *Journal) RecordValuation(lastPrice float64, cash decimal.Decimal, shares int64, total decimal.Decimal, recordedAt time.Time) error {
	cashF, _ := cash.Float64()
	totalF, _ := total.Float64()

	query := j.sq.
		Insert("valuations").
		Columns("valuation_id", "run_id", "last_price", "cash", "shares", "total", "recorded_at").
		Values(uuid.New().String(), j.runID, lastPrice, cashF, shares, totalF, recordedAt).
		RunWith(j.db)

	if _, err := query.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryFailed, "failed to journal valuation", err)
	}

	return nil
}

// Summary aggregates the run's journal for end-of-run reporting.
type Summary struct {
	RunID          string
	OrdersPlaced   int64
	OrdersBuy      int64
	OrdersSell     int64
	Fills          int64
	SharesTraded   int64
	FirstValuation float64
	LastValuation  float64
}

// Return is the relative change between the first and last valuation.
func (s Summary) Return() float64 {
	if s.FirstValuation == 0 {
		return 0
	}

	return (s.LastValuation - s.FirstValuation) / s.FirstValuation
}

// Summarize aggregates the journal.
func (j *Journal) Summarize() (Summary, error) {
	summary := Summary{RunID: j.runID}

	row := j.sq.
		Select(
			"COUNT(*)",
			"COALESCE(SUM(CASE WHEN side = 'BUY' THEN 1 ELSE 0 END), 0)",
			"COALESCE(SUM(CASE WHEN side = 'SELL' THEN 1 ELSE 0 END), 0)",
		).
		From("orders").
		Where(squirrel.Eq{"run_id": j.runID}).
		RunWith(j.db).
		QueryRow()
	if err := row.Scan(&summary.OrdersPlaced, &summary.OrdersBuy, &summary.OrdersSell); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeHistoryFailed, "failed to aggregate orders", err)
	}

	row = j.sq.
		Select("COUNT(*)", "COALESCE(SUM(delta_quantity), 0)").
		From("fills").
		Where(squirrel.Eq{"run_id": j.runID}).
		RunWith(j.db).
		QueryRow()
	if err := row.Scan(&summary.Fills, &summary.SharesTraded); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeHistoryFailed, "failed to aggregate fills", err)
	}

	rows, err := j.sq.
		Select("total").
		From("valuations").
		Where(squirrel.Eq{"run_id": j.runID}).
		OrderBy("recorded_at ASC").
		RunWith(j.db).
		Query()
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeHistoryFailed, "failed to read valuations", err)
	}
	defer rows.Close()

	first := true

	for rows.Next() {
		var total float64
		if err := rows.Scan(&total); err != nil {
			return Summary{}, errors.Wrap(errors.ErrCodeHistoryFailed, "failed to scan valuation", err)
		}

		if first {
			summary.FirstValuation = total
			first = false
		}

		summary.LastValuation = total
	}

	if err := rows.Err(); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeHistoryFailed, "failed to iterate valuations", err)
	}

	return summary, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}

	if err := j.db.Close(); err != nil {
		j.logger.Warn("failed to close journal database", zap.Error(err))

		return err
	}

	return nil
}
