package indicator

import (
	"math"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// ATR computes the average true range over the given period as a simple
// moving average of the per-bar true range. The true range of the first bar
// falls back to its high-low span since no prior close exists.
func ATR(series *types.PriceSeries, period int) (Series, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "ATR period must be positive, got %d", period)
	}

	trueRanges := make([]float64, series.Len())

	for i, bar := range series.Bars {
		if i == 0 {
			trueRanges[i] = bar.High - bar.Low
			continue
		}

		prevClose := series.Bars[i-1].Close
		trueRanges[i] = math.Max(
			bar.High-bar.Low,
			math.Max(
				math.Abs(bar.High-prevClose),
				math.Abs(bar.Low-prevClose),
			),
		)
	}

	return SMA(trueRanges, period)
}
