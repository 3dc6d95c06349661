package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/halcyon-lab/synthsignal/internal/indicator"
	"github.com/halcyon-lab/synthsignal/internal/types"
)

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

var seriesStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// flatSeries builds n identical bars around price with unit range and a
// volume of 100.
func flatSeries(n int, price float64) *types.PriceSeries {
	bars := make([]types.PriceBar, n)
	for i := range bars {
		bars[i] = types.PriceBar{
			Time:   seriesStart.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 100,
		}
	}

	return &types.PriceSeries{Symbol: "TEST", Timeframe: "1h", Bars: bars}
}

func constSeries(n int, v float64) indicator.Series {
	s := indicator.NewSeries(n)
	for i := range s {
		s[i] = optional.Some(v)
	}

	return s
}

// emptySnapshot has every indicator absent at every position, the shape
// evaluators see on a series shorter than any window.
func emptySnapshot(n int) *indicator.Snapshot {
	return &indicator.Snapshot{
		RSI: indicator.NewSeries(n),
		Bollinger: indicator.BollingerBands{
			Upper:  indicator.NewSeries(n),
			Middle: indicator.NewSeries(n),
			Lower:  indicator.NewSeries(n),
		},
		EMAFast:   indicator.NewSeries(n),
		EMASlow:   indicator.NewSeries(n),
		ATR:       indicator.NewSeries(n),
		VolumeSMA: indicator.NewSeries(n),
	}
}

func (s *StrategyTestSuite) TestTrendBullishStrength() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.EMAFast = constSeries(10, 105)
	snapshot.EMAFast[6] = optional.Some(104.0)
	snapshot.EMASlow = constSeries(10, 100)
	snapshot.ATR = constSeries(10, 2)

	vote := EvaluateTrend(Input{Series: series, Indicators: snapshot})

	s.Equal(types.StrategyTrend, vote.Strategy)
	s.Equal(types.DirectionBullish, vote.Direction)

	// Separation of 2.5 ATR saturates at 5; slope of 0.5 ATR adds 2.5.
	s.InDelta(7.5, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestTrendBearishBelowSlowEMA() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.EMAFast = constSeries(10, 99)
	snapshot.EMASlow = constSeries(10, 100)
	snapshot.ATR = constSeries(10, 2)

	vote := EvaluateTrend(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionBearish, vote.Direction)
}

func (s *StrategyTestSuite) TestTrendConvergedEMAsAreNeutral() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.EMAFast = constSeries(10, 100)
	snapshot.EMASlow = constSeries(10, 100)
	snapshot.ATR = constSeries(10, 2)

	vote := EvaluateTrend(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionNeutral, vote.Direction)
	s.Zero(vote.Strength)
}

func (s *StrategyTestSuite) TestTrendDegradesWithoutATR() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.EMAFast = constSeries(10, 105)
	snapshot.EMASlow = constSeries(10, 100)

	vote := EvaluateTrend(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestMomentumBullishWithConfirmingSlope() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.RSI = constSeries(10, 65)
	snapshot.RSI[8] = optional.Some(60.0)

	vote := EvaluateMomentum(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBullish, vote.Direction)
	s.InDelta(3.0, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestMomentumStrengthIsCapped() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.RSI = constSeries(10, 95)
	snapshot.RSI[8] = optional.Some(90.0)

	vote := EvaluateMomentum(Input{Series: series, Indicators: snapshot})
	s.InDelta(8.0, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestMomentumBearishBelowMidpoint() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.RSI = constSeries(10, 40)
	snapshot.RSI[8] = optional.Some(45.0)

	vote := EvaluateMomentum(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBearish, vote.Direction)
	s.InDelta(2.0, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestMomentumNoConfirmingSlopeIsNeutral() {
	series := flatSeries(10, 100)

	// Above the midpoint but falling.
	snapshot := emptySnapshot(10)
	snapshot.RSI = constSeries(10, 60)
	snapshot.RSI[8] = optional.Some(62.0)

	vote := EvaluateMomentum(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) bandedSnapshot(n int, rsi float64) *indicator.Snapshot {
	snapshot := emptySnapshot(n)
	snapshot.Bollinger = indicator.BollingerBands{
		Upper:  constSeries(n, 110),
		Middle: constSeries(n, 100),
		Lower:  constSeries(n, 90),
	}
	snapshot.RSI = constSeries(n, rsi)

	return snapshot
}

func (s *StrategyTestSuite) TestMeanReversionFadesUpperBandBreach() {
	series := flatSeries(10, 112)
	snapshot := s.bandedSnapshot(10, 75)

	vote := EvaluateMeanReversion(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBearish, vote.Direction)

	// %B of 1.1, so a depth of 0.1 beyond the band.
	s.InDelta(7.5, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestMeanReversionFadesLowerBandBreach() {
	series := flatSeries(10, 88)
	snapshot := s.bandedSnapshot(10, 25)

	vote := EvaluateMeanReversion(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBullish, vote.Direction)
	s.InDelta(7.5, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestMeanReversionStrengthClampsAtTen() {
	series := flatSeries(10, 116)
	snapshot := s.bandedSnapshot(10, 80)

	vote := EvaluateMeanReversion(Input{Series: series, Indicators: snapshot})
	s.InDelta(10.0, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestMeanReversionNeedsExtremeOscillator() {
	// Beyond the band but RSI only 60: no fade.
	series := flatSeries(10, 112)
	snapshot := s.bandedSnapshot(10, 60)

	vote := EvaluateMeanReversion(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestBreakoutBullish() {
	series := flatSeries(25, 100)
	series.Bars[24].Close = 103
	series.Bars[24].High = 103.5

	snapshot := emptySnapshot(25)
	snapshot.ATR = constSeries(25, 2)

	vote := EvaluateBreakout(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBullish, vote.Direction)

	// 2.0 beyond the 20-bar high of 101, at 1 ATR.
	s.InDelta(5.0, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestBreakoutBearish() {
	series := flatSeries(25, 100)
	series.Bars[24].Close = 97
	series.Bars[24].Low = 96.5

	snapshot := emptySnapshot(25)
	snapshot.ATR = constSeries(25, 2)

	vote := EvaluateBreakout(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBearish, vote.Direction)
	s.InDelta(5.0, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestBreakoutWithinNoiseIsNeutral() {
	series := flatSeries(25, 100)
	// 0.4 beyond the range high against a noise floor of 0.5.
	series.Bars[24].Close = 101.4
	series.Bars[24].High = 101.6

	snapshot := emptySnapshot(25)
	snapshot.ATR = constSeries(25, 2)

	vote := EvaluateBreakout(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestBreakoutShortSeriesIsNeutral() {
	series := flatSeries(20, 100)

	snapshot := emptySnapshot(20)
	snapshot.ATR = constSeries(20, 2)

	vote := EvaluateBreakout(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestVolumeBullishSurge() {
	series := flatSeries(15, 100)
	for i := range series.Bars {
		series.Bars[i].Close = 100 + float64(i)
	}
	series.Bars[14].Volume = 200

	snapshot := emptySnapshot(15)
	snapshot.VolumeSMA = constSeries(15, 100)

	vote := EvaluateVolume(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBullish, vote.Direction)

	// Last volume at 2x its average.
	s.InDelta(5.0, vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestVolumeBearishWithoutSurgeHasZeroStrength() {
	series := flatSeries(15, 100)
	for i := range series.Bars {
		series.Bars[i].Close = 200 - float64(i)
	}
	series.Bars[14].Volume = 80

	snapshot := emptySnapshot(15)
	snapshot.VolumeSMA = constSeries(15, 100)

	vote := EvaluateVolume(Input{Series: series, Indicators: snapshot})

	s.Equal(types.DirectionBearish, vote.Direction)
	s.Zero(vote.Strength)
}

func (s *StrategyTestSuite) TestVolumeFlatClosesAreNeutral() {
	series := flatSeries(15, 100)

	snapshot := emptySnapshot(15)
	snapshot.VolumeSMA = constSeries(15, 100)

	vote := EvaluateVolume(Input{Series: series, Indicators: snapshot})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestVolumeDegradesWithoutAverage() {
	series := flatSeries(15, 100)
	for i := range series.Bars {
		series.Bars[i].Close = 100 + float64(i)
	}

	vote := EvaluateVolume(Input{Series: series, Indicators: emptySnapshot(15)})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestStructuralVotesTowardUnmitigatedZone() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.ATR = constSeries(10, 2)

	events := []types.StructureEvent{{
		Kind:      types.StructureOrderBlock,
		Direction: types.DirectionBullish,
		PriceLow:  95,
		PriceHigh: 97,
		BarIndex:  8,
	}}

	vote := EvaluateStructural(Input{Series: series, Indicators: snapshot, Events: events})

	s.Equal(types.DirectionBullish, vote.Direction)

	// Distance 3 of a 6 reach gives proximity 0.5; age 1 of 10 gives
	// freshness 0.9.
	s.InDelta(10*0.5*(0.5+0.45), vote.Strength, 1e-9)
}

func (s *StrategyTestSuite) TestStructuralSkipsMitigatedZone() {
	series := flatSeries(10, 100)
	// Price traded through the zone's far side after the event formed.
	series.Bars[7].Low = 94

	snapshot := emptySnapshot(10)
	snapshot.ATR = constSeries(10, 2)

	events := []types.StructureEvent{{
		Kind:      types.StructureOrderBlock,
		Direction: types.DirectionBullish,
		PriceLow:  95,
		PriceHigh: 97,
		BarIndex:  5,
	}}

	vote := EvaluateStructural(Input{Series: series, Indicators: snapshot, Events: events})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestStructuralIgnoresZoneContainingPrice() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.ATR = constSeries(10, 2)

	events := []types.StructureEvent{{
		Kind:      types.StructureImbalance,
		Direction: types.DirectionBullish,
		PriceLow:  99,
		PriceHigh: 101,
		BarIndex:  8,
	}}

	vote := EvaluateStructural(Input{Series: series, Indicators: snapshot, Events: events})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestStructuralIgnoresDistantZone() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.ATR = constSeries(10, 2)

	// 15 away against a reach of 6.
	events := []types.StructureEvent{{
		Kind:      types.StructureOrderBlock,
		Direction: types.DirectionBullish,
		PriceLow:  80,
		PriceHigh: 85,
		BarIndex:  8,
	}}

	vote := EvaluateStructural(Input{Series: series, Indicators: snapshot, Events: events})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestStructuralPrefersMostRecentEvent() {
	series := flatSeries(10, 100)

	snapshot := emptySnapshot(10)
	snapshot.ATR = constSeries(10, 2)

	events := []types.StructureEvent{
		{
			Kind:      types.StructureOrderBlock,
			Direction: types.DirectionBullish,
			PriceLow:  95,
			PriceHigh: 97,
			BarIndex:  3,
		},
		{
			Kind:      types.StructureLiquiditySweep,
			Direction: types.DirectionBearish,
			PriceLow:  103,
			PriceHigh: 105,
			BarIndex:  8,
		},
	}

	vote := EvaluateStructural(Input{Series: series, Indicators: snapshot, Events: events})
	s.Equal(types.DirectionBearish, vote.Direction)
}

func (s *StrategyTestSuite) TestStructuralDegradesWithoutATR() {
	series := flatSeries(10, 100)

	events := []types.StructureEvent{{
		Kind:      types.StructureOrderBlock,
		Direction: types.DirectionBullish,
		PriceLow:  95,
		PriceHigh: 97,
		BarIndex:  8,
	}}

	vote := EvaluateStructural(Input{Series: series, Indicators: emptySnapshot(10), Events: events})
	s.Equal(types.DirectionNeutral, vote.Direction)
}

func (s *StrategyTestSuite) TestEvaluateAllOrderAndDegradation() {
	series := flatSeries(10, 100)

	votes := EvaluateAll(Input{Series: series, Indicators: emptySnapshot(10)})
	s.Require().Len(votes, 6)

	expected := []types.StrategyName{
		types.StrategyStructural,
		types.StrategyTrend,
		types.StrategyMomentum,
		types.StrategyMeanReversion,
		types.StrategyBreakout,
		types.StrategyVolume,
	}

	for i, vote := range votes {
		s.Equal(expected[i], vote.Strategy)
		s.Equal(types.DirectionNeutral, vote.Direction)
		s.Zero(vote.Strength)
		s.NotEmpty(vote.Rationale)
	}
}
