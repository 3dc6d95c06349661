package indicator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// BollingerBands holds the three band series produced by a Bollinger
// computation, each aligned to the input.
type BollingerBands struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger computes volatility bands: an SMA middle band with upper/lower
// bands at ±stdDev sample standard deviations over the same window.
func Bollinger(values []float64, period int, stdDev float64) (BollingerBands, error) {
	if period <= 1 {
		return BollingerBands{}, errors.Newf(errors.ErrCodeInvalidPeriod,
			"Bollinger period must be greater than 1, got %d", period)
	}

	if stdDev <= 0 {
		return BollingerBands{}, errors.Newf(errors.ErrCodeInvalidMultiplier,
			"Bollinger standard deviation multiplier must be positive, got %f", stdDev)
	}

	bands := BollingerBands{
		Upper:  NewSeries(len(values)),
		Middle: NewSeries(len(values)),
		Lower:  NewSeries(len(values)),
	}

	middle, err := SMA(values, period)
	if err != nil {
		return BollingerBands{}, err
	}

	for i := period - 1; i < len(values); i++ {
		mean, err := middle[i].Take()
		if err != nil {
			continue
		}

		var sumSq float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			sumSq += d * d
		}

		sd := math.Sqrt(sumSq / float64(period-1))
		bands.Middle[i] = optional.Some(mean)
		bands.Upper[i] = optional.Some(mean + stdDev*sd)
		bands.Lower[i] = optional.Some(mean - stdDev*sd)
	}

	return bands, nil
}

// PercentB returns the position of price within the bands at index i,
// 0 at the lower band and 1 at the upper band. Absent when the bands are
// absent or have zero width.
func (b BollingerBands) PercentB(price float64, i int) optional.Option[float64] {
	upper, errU := b.Upper.At(i).Take()
	lower, errL := b.Lower.At(i).Take()

	if errU != nil || errL != nil || upper == lower {
		return optional.None[float64]()
	}

	return optional.Some((price - lower) / (upper - lower))
}
