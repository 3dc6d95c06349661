package datasource

import (
	"context"
	"strconv"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Polygon fetches aggregate bars from the Polygon REST API.
type Polygon struct {
	client *polygon.Client
}

// NewPolygon creates the Polygon aggregates datasource.
func NewPolygon(apiKey string) (*Polygon, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon datasource requires an API key")
	}

	return &Polygon{client: polygon.New(apiKey)}, nil
}

func (p *Polygon) Name() string {
	return string(KindPolygon)
}

func (p *Polygon) GetSeries(ctx context.Context, symbol string, timeframe string, barCount int) (*types.PriceSeries, error) {
	if err := validateRequest(symbol, barCount); err != nil {
		return nil, err
	}

	multiplier, timespan, err := polygonTimespan(timeframe)
	if err != nil {
		return nil, err
	}

	step, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	// Over-fetch the window by 2x to cover market closures and gaps; the
	// tail trim below enforces the requested count.
	from := now.Add(-time.Duration(2*barCount) * step)

	iter := p.client.ListAggs(ctx, &models.ListAggsParams{
		Ticker:     symbol,
		From:       models.Millis(from),
		To:         models.Millis(now),
		Multiplier: multiplier,
		Timespan:   timespan,
	})

	var bars []types.PriceBar

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.PriceBar{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to fetch aggregates for %s", symbol)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no aggregates returned for %s", symbol)
	}

	if len(bars) > barCount {
		bars = bars[len(bars)-barCount:]
	}

	series := &types.PriceSeries{Symbol: symbol, Timeframe: timeframe, Bars: bars}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	return series, nil
}

func (p *Polygon) Close() error {
	return nil
}

func polygonTimespan(timeframe string) (int, models.Timespan, error) {
	if len(timeframe) < 2 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid timeframe %q", timeframe)
	}

	unit := timeframe[len(timeframe)-1:]

	multiplier, err := strconv.Atoi(strings.TrimSuffix(timeframe, unit))
	if err != nil || multiplier <= 0 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid timeframe %q", timeframe)
	}

	switch unit {
	case "m":
		return multiplier, models.Minute, nil
	case "h":
		return multiplier, models.Hour, nil
	case "d":
		return multiplier, models.Day, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidParameter, "invalid timeframe unit %q", timeframe)
	}
}
