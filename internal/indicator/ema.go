package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// EMA computes the exponential moving average of values over the given
// period, seeded with the simple average of the first full window. Positions
// before the seed window is full are absent.
func EMA(values []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "EMA period must be positive, got %d", period)
	}

	result := NewSeries(len(values))
	if len(values) < period {
		return result, nil
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	alpha := 2.0 / (float64(period) + 1.0)
	prev := seed / float64(period)
	result[period-1] = optional.Some(prev)

	for i := period; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		result[i] = optional.Some(prev)
	}

	return result, nil
}

// emaOverSeries runs an EMA over an already partially-absent series, seeding
// from the first window of present values. Used by MACD for its signal line.
func emaOverSeries(values Series, period int) (Series, error) {
	start := values.ValidFrom()
	result := NewSeries(len(values))

	if start < 0 {
		return result, nil
	}

	dense := make([]float64, 0, len(values)-start)
	for i := start; i < len(values); i++ {
		v, err := values[i].Take()
		if err != nil {
			// A gap after the first present value would break window
			// alignment; treat everything from the gap on as absent.
			break
		}

		dense = append(dense, v)
	}

	ema, err := EMA(dense, period)
	if err != nil {
		return nil, err
	}

	for i, v := range ema {
		result[start+i] = v
	}

	return result, nil
}
