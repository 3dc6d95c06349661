package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func makeSeries(n int) *PriceSeries {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]PriceBar, n)

	for i := range bars {
		price := 100 + float64(i)
		bars[i] = PriceBar{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 50,
		}
	}

	return &PriceSeries{Symbol: "TEST", Timeframe: "1m", Bars: bars}
}

func (s *TypesTestSuite) TestDirectionSign() {
	s.Equal(1.0, DirectionBullish.Sign())
	s.Equal(-1.0, DirectionBearish.Sign())
	s.Equal(0.0, DirectionNeutral.Sign())
	s.Equal(0.0, Direction("unknown").Sign())
}

func (s *TypesTestSuite) TestSeriesLastAndTail() {
	series := makeSeries(10)

	last, ok := series.Last()
	s.True(ok)
	s.Equal(109.0, last.Close)

	tail := series.Tail(3)
	s.Equal(3, tail.Len())
	s.Equal(107.0, tail.Bars[0].Close)

	// Asking for more bars than exist returns the whole series.
	whole := series.Tail(100)
	s.Equal(10, whole.Len())

	empty := &PriceSeries{Symbol: "TEST"}
	_, ok = empty.Last()
	s.False(ok)
}

func (s *TypesTestSuite) TestClosesOrder() {
	closes := makeSeries(5).Closes()
	s.Equal([]float64{100, 101, 102, 103, 104}, closes)
}

func (s *TypesTestSuite) TestValidateAcceptsWellFormedSeries() {
	s.NoError(makeSeries(20).Validate())
}

func (s *TypesTestSuite) TestValidateRejectsInvertedEnvelope() {
	series := makeSeries(5)
	series.Bars[2].High = series.Bars[2].Low - 1

	err := series.Validate()
	s.True(errors.HasCode(err, errors.ErrCodeMalformedSeries))
}

func (s *TypesTestSuite) TestValidateRejectsNonAdvancingTime() {
	series := makeSeries(5)
	series.Bars[3].Time = series.Bars[2].Time

	err := series.Validate()
	s.True(errors.HasCode(err, errors.ErrCodeMalformedSeries))

	series = makeSeries(5)
	series.Bars[3].Time = series.Bars[2].Time.Add(-time.Minute)
	s.Error(series.Validate())
}

func (s *TypesTestSuite) TestValidateMinLength() {
	series := makeSeries(10)

	s.NoError(series.ValidateMinLength(10))

	err := series.ValidateMinLength(11)
	s.True(errors.HasCode(err, errors.ErrCodeInsufficientData))
}

func (s *TypesTestSuite) TestSignalRiskReward() {
	bullish := Signal{EntryPrice: 100, StopLoss: 97, TakeProfit: 105}
	s.InDelta(5.0/3.0, bullish.RiskReward(), 1e-9)

	bearish := Signal{EntryPrice: 100, StopLoss: 103, TakeProfit: 95}
	s.InDelta(5.0/3.0, bearish.RiskReward(), 1e-9)

	degenerate := Signal{EntryPrice: 100, StopLoss: 100, TakeProfit: 105}
	s.Zero(degenerate.RiskReward())
}

func (s *TypesTestSuite) TestStructureEventGeometry() {
	event := StructureEvent{PriceLow: 98, PriceHigh: 102}

	s.InDelta(4.0, event.Width(), 1e-12)
	s.True(event.Contains(98))
	s.True(event.Contains(100))
	s.True(event.Contains(102))
	s.False(event.Contains(97.9))
	s.False(event.Contains(102.1))
}

func (s *TypesTestSuite) TestNeutralVoteShape() {
	vote := NeutralVote(StrategyTrend, "no data")

	s.Equal(StrategyTrend, vote.Strategy)
	s.Equal(DirectionNeutral, vote.Direction)
	s.Zero(vote.Strength)
	s.Equal("no data", vote.Rationale)
}

func (s *TypesTestSuite) TestProfitFactorDefined() {
	report := BacktestReport{ProfitFactor: 2.5}
	s.True(report.ProfitFactorDefined())

	report.ProfitFactor = math.Inf(1)
	s.False(report.ProfitFactorDefined())

	report.ProfitFactor = math.NaN()
	s.False(report.ProfitFactorDefined())
}

func (s *TypesTestSuite) TestReportStringIsYAML() {
	report := BacktestReport{
		ID:           "run-1",
		Symbol:       "TEST",
		TotalTrades:  2,
		ProfitFactor: math.Inf(1),
	}

	out := report.String()
	s.Contains(out, "symbol: TEST")
	s.Contains(out, ".inf")
}
