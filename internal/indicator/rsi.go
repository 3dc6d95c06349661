package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// RSI computes the relative strength index over the given period using
// Wilder smoothing. The first value appears at index period; an input with
// period or fewer values yields an all-absent series.
func RSI(values []float64, period int) (Series, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "RSI period must be positive, got %d", period)
	}

	result := NewSeries(len(values))
	if len(values) <= period {
		return result, nil
	}

	var avgGain, avgLoss float64

	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = optional.Some(rsiFromAverages(avgGain, avgLoss))

	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]

		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = optional.Some(rsiFromAverages(avgGain, avgLoss))
	}

	return result, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			// Flat series: no gains, no losses.
			return 50
		}

		return 100
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs)
}
