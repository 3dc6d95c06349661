// Package datasource provides the series providers the scanner and CLI
// pull bars from. Every implementation returns a validated, time-ascending
// PriceSeries; transport details never leak past this package.
package datasource

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// DataSource fetches recent bars for one symbol.
type DataSource interface {
	Name() string
	// GetSeries returns up to barCount of the most recent bars for the
	// symbol at the given timeframe, oldest first.
	GetSeries(ctx context.Context, symbol string, timeframe string, barCount int) (*types.PriceSeries, error)
	Close() error
}

// Kind selects a datasource implementation in configuration.
type Kind string

const (
	KindSynthetic Kind = "synthetic"
	KindDuckDB    Kind = "duckdb"
	KindBinance   Kind = "binance"
	KindPolygon   Kind = "polygon"
	KindWebsocket Kind = "websocket"
)

// ParseTimeframe converts a compact timeframe like "1m", "15m", "4h" or
// "1d" into its bar duration.
func ParseTimeframe(timeframe string) (time.Duration, error) {
	if len(timeframe) < 2 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid timeframe %q", timeframe)
	}

	unit := timeframe[len(timeframe)-1:]

	count, err := strconv.Atoi(strings.TrimSuffix(timeframe, unit))
	if err != nil || count <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid timeframe %q", timeframe)
	}

	switch unit {
	case "m":
		return time.Duration(count) * time.Minute, nil
	case "h":
		return time.Duration(count) * time.Hour, nil
	case "d":
		return time.Duration(count) * 24 * time.Hour, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid timeframe unit %q", timeframe)
	}
}

func timeFromMillis(millis int64) time.Time {
	return time.UnixMilli(millis).UTC()
}

func validateRequest(symbol string, barCount int) error {
	if symbol == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "symbol must not be empty")
	}

	if barCount <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "bar count must be positive, got %d", barCount)
	}

	return nil
}
