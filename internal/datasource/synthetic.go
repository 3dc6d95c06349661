package datasource

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

// base prices for well-known symbols; anything else starts at 100.
var syntheticBasePrices = map[string]float64{
	"BTCUSDT": 43000,
	"ETHUSDT": 2300,
	"SOLUSDT": 98,
	"BNBUSDT": 310,
	"XRPUSDT": 0.52,
}

// Synthetic generates bars from a seeded per-symbol random walk. The same
// symbol, timeframe, bar count and anchor always produce the same series,
// which makes it usable as a deterministic backtest and test datasource.
type Synthetic struct {
	// Anchor is the timestamp of the final bar. The zero value means the
	// current hour, truncated so repeated calls within the hour agree.
	Anchor time.Time
	// Volatility is the per-bar return standard deviation. Zero means the
	// default of 0.8%.
	Volatility float64
}

// NewSynthetic returns the deterministic walk datasource.
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

func (s *Synthetic) Name() string {
	return string(KindSynthetic)
}

func (s *Synthetic) GetSeries(_ context.Context, symbol string, timeframe string, barCount int) (*types.PriceSeries, error) {
	if err := validateRequest(symbol, barCount); err != nil {
		return nil, err
	}

	step, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	anchor := s.Anchor
	if anchor.IsZero() {
		anchor = time.Now().UTC().Truncate(time.Hour)
	}

	volatility := s.Volatility
	if volatility == 0 {
		volatility = 0.008
	}

	base, ok := syntheticBasePrices[symbol]
	if !ok {
		base = 100
	}

	rng := rand.New(rand.NewSource(seedFor(symbol, anchor)))
	price := base
	start := anchor.Add(-time.Duration(barCount-1) * step)

	bars := make([]types.PriceBar, barCount)
	for i := range bars {
		// Mild mean reversion toward the base keeps long walks bounded.
		drift := 0.05 * (base - price) / base
		ret := drift + rng.NormFloat64()*volatility

		open := price
		close := price * (1 + ret)

		high := math.Max(open, close) * (1 + rng.Float64()*volatility*0.5)
		low := math.Min(open, close) * (1 - rng.Float64()*volatility*0.5)

		bars[i] = types.PriceBar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 500 + rng.Float64()*2000,
		}

		price = close
	}

	return &types.PriceSeries{Symbol: symbol, Timeframe: timeframe, Bars: bars}, nil
}

func (s *Synthetic) Close() error {
	return nil
}

func seedFor(symbol string, anchor time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))

	return int64(h.Sum64()) ^ anchor.Unix()
}
