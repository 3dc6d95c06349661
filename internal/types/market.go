package types

import (
	"time"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// PriceBar is a single OHLCV bar. Immutable once produced.
type PriceBar struct {
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// PriceSeries is an ordered sequence of bars for one symbol over one
// timeframe. Callers own the series; analysis code treats it as read-only.
type PriceSeries struct {
	Symbol    string
	Timeframe string
	Bars      []PriceBar
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// Last returns the most recent bar. The second return value is false for an
// empty series.
func (s *PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}

	return s.Bars[len(s.Bars)-1], true
}

// Tail returns a view over the last n bars (or the whole series when it has
// fewer than n bars). The returned series shares the underlying bar slice.
func (s *PriceSeries) Tail(n int) PriceSeries {
	if n >= len(s.Bars) {
		return *s
	}

	return PriceSeries{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Bars:      s.Bars[len(s.Bars)-n:],
	}
}

// Closes returns the close price of every bar in order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		closes[i] = bar.Close
	}

	return closes
}

// Validate checks the structural invariants of the series: timestamps are
// strictly increasing (which also rules out duplicates) and every bar has a
// coherent high/low envelope.
func (s *PriceSeries) Validate() error {
	for i, bar := range s.Bars {
		if bar.High < bar.Low {
			return errors.Newf(errors.ErrCodeMalformedSeries,
				"bar %d of %s has high %f below low %f", i, s.Symbol, bar.High, bar.Low)
		}

		if i > 0 && !bar.Time.After(s.Bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeMalformedSeries,
				"bar %d of %s does not advance in time", i, s.Symbol)
		}
	}

	return nil
}

// ValidateMinLength validates the series and additionally requires at least
// minBars bars, returning an InsufficientDataError otherwise.
func (s *PriceSeries) ValidateMinLength(minBars int) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if len(s.Bars) < minBars {
		return errors.NewInsufficientDataErrorf(minBars, len(s.Bars), s.Symbol,
			"series for %s has %d bars, need at least %d", s.Symbol, len(s.Bars), minBars)
	}

	return nil
}
