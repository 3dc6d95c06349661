package datasource

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// DuckDB reads historical bars from a local DuckDB database with a
// market_data table (time, symbol, open, high, low, close, volume).
type DuckDB struct {
	db *sql.DB
}

// NewDuckDB opens the database at path. Use ":memory:" for an ephemeral
// database in tests.
func NewDuckDB(path string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB database", err)
	}

	return &DuckDB{db: db}, nil
}

func (d *DuckDB) Name() string {
	return string(KindDuckDB)
}

func (d *DuckDB) GetSeries(ctx context.Context, symbol string, timeframe string, barCount int) (*types.PriceSeries, error) {
	if err := validateRequest(symbol, barCount); err != nil {
		return nil, err
	}

	// Newest-first with a limit, then reversed, so the limit trims the
	// oldest bars.
	query, args, err := sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(sq.Eq{"symbol": symbol}).
		OrderBy("time DESC").
		Limit(uint64(barCount)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	var bars []types.PriceBar

	for rows.Next() {
		var bar types.PriceBar
		if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar row", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "bar query iteration failed", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no bars stored for %s", symbol)
	}

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	series := &types.PriceSeries{Symbol: symbol, Timeframe: timeframe, Bars: bars}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	return series, nil
}

func (d *DuckDB) Close() error {
	return d.db.Close()
}
