// Package store persists emitted signals and backtest results to a local
// DuckDB database for auditing. Persistence is best effort: callers log
// store failures and continue, the scoring path never depends on it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	strength DOUBLE NOT NULL,
	confidence DOUBLE,
	entry_price DOUBLE NOT NULL,
	stop_loss DOUBLE NOT NULL,
	take_profit DOUBLE NOT NULL,
	position_size_fraction DOUBLE NOT NULL,
	votes TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_reports (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	total_trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate DOUBLE NOT NULL,
	profit_factor DOUBLE,
	expectancy DOUBLE NOT NULL,
	max_drawdown DOUBLE NOT NULL,
	total_return DOUBLE NOT NULL,
	final_balance DOUBLE NOT NULL,
	run_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	signal_id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_price DOUBLE NOT NULL,
	exit_price DOUBLE NOT NULL,
	exit_reason TEXT NOT NULL,
	pnl DOUBLE NOT NULL,
	opened_at TIMESTAMP NOT NULL,
	closed_at TIMESTAMP NOT NULL
);
`

// Store is the DuckDB-backed audit log.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and ensures the schema
// exists. Use ":memory:" for tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open signal store", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create store schema", err)
	}

	return &Store{db: db}, nil
}

// SaveSignal records one emitted signal.
func (s *Store) SaveSignal(ctx context.Context, signal types.Signal) error {
	votes, err := json.Marshal(signal.Votes)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to encode signal votes", err)
	}

	confidence := sql.NullFloat64{}
	if value, takeErr := signal.Confidence.Take(); takeErr == nil {
		confidence = sql.NullFloat64{Float64: value, Valid: true}
	}

	query, args, err := sq.
		Insert("signals").
		Columns("id", "symbol", "direction", "strength", "confidence",
			"entry_price", "stop_loss", "take_profit", "position_size_fraction",
			"votes", "created_at").
		Values(signal.ID, signal.Symbol, string(signal.Direction), signal.Strength, confidence,
			signal.EntryPrice, signal.StopLoss, signal.TakeProfit, signal.PositionSizeFraction,
			string(votes), signal.CreatedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build signal insert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to persist signal", err)
	}

	return nil
}

// SaveReport records a backtest report and its trades in one transaction.
func (s *Store) SaveReport(ctx context.Context, report *types.BacktestReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin report transaction", err)
	}

	// +Inf profit factor has no SQL representation; stored as NULL.
	profitFactor := sql.NullFloat64{}
	if report.ProfitFactorDefined() {
		profitFactor = sql.NullFloat64{Float64: report.ProfitFactor, Valid: true}
	}

	query, args, err := sq.
		Insert("backtest_reports").
		Columns("id", "symbol", "total_trades", "wins", "losses", "win_rate",
			"profit_factor", "expectancy", "max_drawdown", "total_return",
			"final_balance", "run_at").
		Values(report.ID, report.Symbol, report.TotalTrades, report.Wins, report.Losses, report.WinRate,
			profitFactor, report.Expectancy, report.MaxDrawdown, report.TotalReturn,
			report.FinalBalance, report.Timestamp).
		ToSql()
	if err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build report insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to persist report", err)
	}

	for _, trade := range report.Trades {
		query, args, err := sq.
			Insert("trades").
			Columns("signal_id", "run_id", "symbol", "direction", "entry_price",
				"exit_price", "exit_reason", "pnl", "opened_at", "closed_at").
			Values(trade.SignalID, report.ID, trade.Symbol, string(trade.Direction), trade.EntryPrice,
				trade.ExitPrice, string(trade.ExitReason), trade.PnL, trade.OpenedAt, trade.ClosedAt).
			ToSql()
		if err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to build trade insert", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to persist trade", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit report transaction", err)
	}

	return nil
}

// RecentSignals returns the newest signals, most recent first.
func (s *Store) RecentSignals(ctx context.Context, limit int) ([]types.Signal, error) {
	if limit <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "signal limit must be positive, got %d", limit)
	}

	query, args, err := sq.
		Select("id", "symbol", "direction", "strength", "confidence",
			"entry_price", "stop_loss", "take_profit", "position_size_fraction",
			"votes", "created_at").
		From("signals").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query signals", err)
	}
	defer rows.Close()

	var signals []types.Signal

	for rows.Next() {
		signal, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}

		signals = append(signals, signal)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "signal query iteration failed", err)
	}

	return signals, nil
}

func scanSignal(rows *sql.Rows) (types.Signal, error) {
	var (
		signal     types.Signal
		direction  string
		confidence sql.NullFloat64
		votes      string
	)

	if err := rows.Scan(&signal.ID, &signal.Symbol, &direction, &signal.Strength, &confidence,
		&signal.EntryPrice, &signal.StopLoss, &signal.TakeProfit, &signal.PositionSizeFraction,
		&votes, &signal.CreatedAt); err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan signal row", err)
	}

	signal.Direction = types.Direction(direction)

	if confidence.Valid {
		signal.Confidence = optional.Some(confidence.Float64)
	}

	if err := json.Unmarshal([]byte(votes), &signal.Votes); err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to decode signal votes", err)
	}

	return signal, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
