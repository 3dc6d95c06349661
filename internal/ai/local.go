package ai

import (
	"context"
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

const (
	localShortWindow = 5
	localLongWindow  = 20
	// minimum percent volatility for the local provider to take a side.
	localMinVolatility = 0.5
)

// Local is a self-contained heuristic provider used when no remote AI is
// configured: it reads trend from a short/long moving-average split and
// sizes confidence by realized volatility.
type Local struct{}

// NewLocal returns the local heuristic provider.
func NewLocal() Provider {
	return Local{}
}

func (Local) Name() string {
	return "local"
}

func (Local) Score(_ context.Context, features FeatureVector) (optional.Option[Assessment], error) {
	prices := features.RecentCloses
	if len(prices) < localLongWindow {
		return optional.None[Assessment](), nil
	}

	shortMA := mean(prices[len(prices)-localShortWindow:])
	longMA := mean(prices[len(prices)-localLongWindow:])
	volatility := returnVolatility(prices) * 100

	var direction types.Direction

	switch {
	case shortMA > longMA && volatility > localMinVolatility:
		direction = types.DirectionBullish
	case shortMA < longMA && volatility > localMinVolatility:
		direction = types.DirectionBearish
	default:
		return optional.Some(Assessment{
			Direction:  types.DirectionNeutral,
			Confidence: 0.3,
			Rationale:  "no decisive trend at current volatility",
		}), nil
	}

	confidence := math.Min(0.8, 0.5+volatility*0.3)

	return optional.Some(Assessment{
		Direction:  direction,
		Confidence: confidence,
		Rationale:  fmt.Sprintf("%s short/long MA split with %.2f%% volatility", direction, volatility),
	}), nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func returnVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
		}
	}

	if len(returns) == 0 {
		return 0
	}

	m := mean(returns)

	var sumSq float64
	for _, r := range returns {
		d := r - m
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(returns)))
}
