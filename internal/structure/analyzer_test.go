package structure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

type AnalyzerTestSuite struct {
	suite.Suite
	analyzer *Analyzer
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerTestSuite))
}

func (s *AnalyzerTestSuite) SetupTest() {
	analyzer, err := NewAnalyzer(DefaultConfig())
	s.Require().NoError(err)
	s.analyzer = analyzer
}

var barStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// bar builds one OHLC bar; volume is irrelevant to structure detection.
func bar(open, high, low, close float64) types.PriceBar {
	return types.PriceBar{Open: open, High: high, Low: low, Close: close}
}

func seriesOf(bars ...types.PriceBar) *types.PriceSeries {
	for i := range bars {
		bars[i].Time = barStart.Add(time.Duration(i) * time.Minute)
	}

	return &types.PriceSeries{Symbol: "TEST", Timeframe: "1m", Bars: bars}
}

// flat produces n identical bars around price.
func flat(n int, price float64) []types.PriceBar {
	bars := make([]types.PriceBar, n)
	for i := range bars {
		bars[i] = bar(price, price+1, price-1, price)
	}

	return bars
}

func (s *AnalyzerTestSuite) TestBullishImbalance() {
	// Gap between bar 2's high (100) and bar 4's low (105).
	series := seriesOf(
		bar(99, 100, 98, 99),
		bar(99, 100, 98, 99),
		bar(99, 100, 98, 99),
		bar(100, 108, 100, 107),
		bar(107, 110, 105, 109),
	)

	events := s.analyzer.DetectImbalances(series)
	s.Require().Len(events, 1)

	event := events[0]
	s.Equal(types.StructureImbalance, event.Kind)
	s.Equal(types.DirectionBullish, event.Direction)
	s.Equal(100.0, event.PriceLow)
	s.Equal(105.0, event.PriceHigh)
	s.Equal(4, event.BarIndex)
}

func (s *AnalyzerTestSuite) TestBearishImbalance() {
	series := seriesOf(
		bar(109, 110, 105, 106),
		bar(105, 106, 103, 104),
		bar(100, 100, 98, 99),
	)

	events := s.analyzer.DetectImbalances(series)
	s.Require().Len(events, 1)

	event := events[0]
	s.Equal(types.DirectionBearish, event.Direction)
	s.Equal(100.0, event.PriceLow)
	s.Equal(105.0, event.PriceHigh)
	s.Equal(2, event.BarIndex)
}

func (s *AnalyzerTestSuite) TestNoImbalanceWithoutGap() {
	series := seriesOf(
		bar(99, 101, 98, 100),
		bar(100, 102, 99, 101),
		bar(101, 103, 100, 102),
	)

	s.Empty(s.analyzer.DetectImbalances(series))
}

func (s *AnalyzerTestSuite) TestMinGapWidthFiltersNarrowGaps() {
	config := DefaultConfig()
	config.MinGapWidth = 10

	analyzer, err := NewAnalyzer(config)
	s.Require().NoError(err)

	series := seriesOf(
		bar(99, 100, 98, 99),
		bar(100, 103, 100, 102),
		bar(104, 108, 104, 107),
	)

	s.Empty(analyzer.DetectImbalances(series))
}

func (s *AnalyzerTestSuite) TestOverlappingImbalancesCollapse() {
	series := seriesOf(
		bar(99, 100, 98, 99),
		bar(101, 103, 101, 102),
		bar(105, 108, 105, 107),
		bar(108, 112, 106, 111),
		bar(112, 116, 110, 115),
	)

	events := s.analyzer.DetectImbalances(series)
	s.Require().NotEmpty(events)

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		overlap := cur.PriceLow < prev.PriceHigh && prev.PriceLow < cur.PriceHigh
		s.False(overlap, "events %d and %d overlap", i-1, i)
	}
}

func (s *AnalyzerTestSuite) TestImbalanceCollapsesAgainstOlderEvents() {
	// Two disjoint bullish gaps form on the way up; after the crash a
	// third gap reopens over the first zone. It must collapse against
	// that older zone even though the most recent gap is clear of it.
	series := seriesOf(
		bar(99, 100, 98, 99),
		bar(97, 101, 96, 100),
		bar(105, 108, 105, 107),
		bar(102, 110, 101, 109),
		bar(109, 112, 108, 111),
		bar(116, 118, 115, 117),
		bar(99, 100, 95, 96),
		bar(100, 105, 99, 104),
		bar(107, 109, 106, 108),
	)

	events := s.analyzer.DetectImbalances(series)

	var bullish []types.StructureEvent
	for _, event := range events {
		if event.Direction == types.DirectionBullish {
			bullish = append(bullish, event)
		}
	}

	s.Require().Len(bullish, 2)
	s.Equal(100.0, bullish[0].PriceLow)
	s.Equal(105.0, bullish[0].PriceHigh)
	s.Equal(110.0, bullish[1].PriceLow)
	s.Equal(115.0, bullish[1].PriceHigh)

	for i, a := range events {
		for _, b := range events[i+1:] {
			if a.Direction != b.Direction || a.Kind != b.Kind {
				continue
			}

			overlap := a.PriceLow < b.PriceHigh && b.PriceLow < a.PriceHigh
			s.False(overlap, "zones [%v,%v] and [%v,%v] overlap", a.PriceLow, a.PriceHigh, b.PriceLow, b.PriceHigh)
		}
	}
}

func (s *AnalyzerTestSuite) TestBullishOrderBlock() {
	bars := flat(20, 100)
	// Bearish candle immediately before a large bullish displacement.
	bars[17] = bar(101, 102, 98, 99)
	bars[18] = bar(99, 112, 99, 111)

	events := s.analyzer.DetectOrderBlocks(seriesOf(bars...))
	s.Require().Len(events, 1)

	event := events[0]
	s.Equal(types.StructureOrderBlock, event.Kind)
	s.Equal(types.DirectionBullish, event.Direction)
	s.Equal(17, event.BarIndex)
	s.Equal(98.0, event.PriceLow)
	s.Equal(102.0, event.PriceHigh)
}

func (s *AnalyzerTestSuite) TestBearishOrderBlock() {
	bars := flat(20, 100)
	bars[17] = bar(99, 102, 98, 101)
	bars[18] = bar(101, 101, 88, 89)

	events := s.analyzer.DetectOrderBlocks(seriesOf(bars...))
	s.Require().Len(events, 1)
	s.Equal(types.DirectionBearish, events[0].Direction)
	s.Equal(17, events[0].BarIndex)
}

func (s *AnalyzerTestSuite) TestSmallBodyIsNoOrderBlock() {
	bars := flat(20, 100)
	bars[17] = bar(101, 102, 98, 99)
	// Body of 1 against an ATR of about 2 never clears the 1.5x multiple.
	bars[18] = bar(99, 101, 98, 100)

	s.Empty(s.analyzer.DetectOrderBlocks(seriesOf(bars...)))
}

func (s *AnalyzerTestSuite) TestBearishLiquiditySweep() {
	bars := flat(25, 100)
	// Bar 22 spikes above the prior 20-bar high (101) and closes back
	// below it on the same bar.
	bars[22] = bar(100.5, 104, 99, 100)

	events := s.analyzer.DetectLiquiditySweeps(seriesOf(bars...))
	s.Require().Len(events, 1)

	event := events[0]
	s.Equal(types.StructureLiquiditySweep, event.Kind)
	s.Equal(types.DirectionBearish, event.Direction)
	s.Equal(22, event.BarIndex)
	s.Equal(101.0, event.PriceLow)
	s.Equal(104.0, event.PriceHigh)
}

func (s *AnalyzerTestSuite) TestBullishLiquiditySweepOnNextBar() {
	bars := flat(25, 100)
	// Bar 22 sweeps the prior low but closes weak; bar 23 confirms by
	// closing back above the swept level.
	bars[22] = bar(99.5, 100, 96, 98.9)
	bars[23] = bar(99, 101, 98.5, 100.5)

	events := s.analyzer.DetectLiquiditySweeps(seriesOf(bars...))
	s.Require().Len(events, 1)

	event := events[0]
	s.Equal(types.DirectionBullish, event.Direction)
	s.Equal(23, event.BarIndex)
}

func (s *AnalyzerTestSuite) TestBreakWithoutClosebackIsNoSweep() {
	bars := flat(25, 100)
	// Breakout that keeps closing above the old high: a genuine breakout,
	// not a sweep.
	bars[22] = bar(100.5, 104, 100, 103.5)
	bars[23] = bar(103.5, 105, 103, 104.5)
	bars[24] = bar(104.5, 106, 104, 105.5)

	s.Empty(s.analyzer.DetectLiquiditySweeps(seriesOf(bars...)))
}

func (s *AnalyzerTestSuite) TestAnalyzeTrailingWindow() {
	config := DefaultConfig()
	config.TrailingWindow = 5

	analyzer, err := NewAnalyzer(config)
	s.Require().NoError(err)

	bars := flat(40, 100)
	// Imbalance completing at bar 12, far outside the trailing window.
	bars[11] = bar(100, 108, 100, 107)
	bars[12] = bar(107, 110, 105, 109)
	for i := 13; i < 40; i++ {
		bars[i] = bar(107, 108, 106, 107)
	}

	events, err := analyzer.Analyze(seriesOf(bars...))
	s.Require().NoError(err)

	for _, event := range events {
		s.GreaterOrEqual(event.BarIndex, 35)
	}
}

func (s *AnalyzerTestSuite) TestAnalyzeOrdersByBarIndex() {
	bars := flat(30, 100)
	bars[26] = bar(101, 102, 98, 99)
	bars[27] = bar(99, 112, 99, 111)
	bars[28] = bar(111, 120, 111, 119)

	events, err := s.analyzer.Analyze(seriesOf(bars...))
	s.Require().NoError(err)

	for i := 1; i < len(events); i++ {
		s.LessOrEqual(events[i-1].BarIndex, events[i].BarIndex)
	}
}

func (s *AnalyzerTestSuite) TestAnalyzeRejectsMalformedSeries() {
	bars := flat(10, 100)
	series := seriesOf(bars...)
	series.Bars[4].Time = series.Bars[3].Time

	_, err := s.analyzer.Analyze(series)
	s.Error(err)
}

func (s *AnalyzerTestSuite) TestInvalidConfigRejected() {
	config := DefaultConfig()
	config.SweepCloseback = 1.5

	_, err := NewAnalyzer(config)
	s.Error(err)
}
