package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// SMA computes the simple moving average of values over the given period.
// The result is aligned to the input; positions before the first full window
// are absent. An input shorter than the period yields an all-absent series.
func SMA(values []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "SMA period must be positive, got %d", period)
	}

	result := NewSeries(len(values))
	if len(values) < period {
		return result, nil
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			result[i] = optional.Some(sum / float64(period))
		}
	}

	return result, nil
}
