package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// MACDResult holds the MACD line, its signal line, and the histogram, each
// aligned to the input.
type MACDResult struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// MACD computes the moving-average-convergence oscillator: the difference
// between a fast and a slow EMA, an EMA of that difference as the signal
// line, and their difference as the histogram.
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) (MACDResult, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return MACDResult{}, errors.Newf(errors.ErrCodeInvalidPeriod,
			"MACD periods must be positive, got %d/%d/%d", fastPeriod, slowPeriod, signalPeriod)
	}

	if fastPeriod >= slowPeriod {
		return MACDResult{}, errors.Newf(errors.ErrCodeInvalidPeriod,
			"MACD fast period %d must be shorter than slow period %d", fastPeriod, slowPeriod)
	}

	fast, err := EMA(values, fastPeriod)
	if err != nil {
		return MACDResult{}, err
	}

	slow, err := EMA(values, slowPeriod)
	if err != nil {
		return MACDResult{}, err
	}

	line := NewSeries(len(values))

	for i := range values {
		f, errF := fast[i].Take()
		s, errS := slow[i].Take()

		if errF == nil && errS == nil {
			line[i] = optional.Some(f - s)
		}
	}

	signal, err := emaOverSeries(line, signalPeriod)
	if err != nil {
		return MACDResult{}, err
	}

	histogram := NewSeries(len(values))

	for i := range values {
		l, errL := line[i].Take()
		s, errS := signal[i].Take()

		if errL == nil && errS == nil {
			histogram[i] = optional.Some(l - s)
		}
	}

	return MACDResult{
		Line:      line,
		Signal:    signal,
		Histogram: histogram,
	}, nil
}
