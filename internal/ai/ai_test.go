package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

type AITestSuite struct {
	suite.Suite
}

func TestAISuite(t *testing.T) {
	suite.Run(t, new(AITestSuite))
}

// zigzagCloses drifts by stepUp then stepDown alternately, giving a series
// with both direction and realized volatility.
func zigzagCloses(n int, start, stepUp, stepDown float64) []float64 {
	closes := make([]float64, n)
	price := start

	for i := range closes {
		closes[i] = price
		if i%2 == 0 {
			price *= 1 + stepUp
		} else {
			price *= 1 + stepDown
		}
	}

	return closes
}

func (s *AITestSuite) TestDisabledNeverOpines() {
	assessment, err := NewDisabled().Score(context.Background(), FeatureVector{Symbol: "TEST"})
	s.NoError(err)
	s.True(assessment.IsNone())
}

func (s *AITestSuite) TestLocalDeclinesShortHistory() {
	assessment, err := NewLocal().Score(context.Background(), FeatureVector{
		Symbol:       "TEST",
		RecentCloses: zigzagCloses(19, 100, 0.03, -0.01),
	})
	s.NoError(err)
	s.True(assessment.IsNone())
}

func (s *AITestSuite) TestLocalBullishOnVolatileRise() {
	assessment, err := NewLocal().Score(context.Background(), FeatureVector{
		Symbol:       "TEST",
		RecentCloses: zigzagCloses(20, 100, 0.03, -0.01),
	})
	s.Require().NoError(err)

	verdict, takeErr := assessment.Take()
	s.Require().NoError(takeErr)

	s.Equal(types.DirectionBullish, verdict.Direction)

	// Realized volatility near 2% saturates the confidence cap.
	s.InDelta(0.8, verdict.Confidence, 1e-9)
	s.NotEmpty(verdict.Rationale)
}

func (s *AITestSuite) TestLocalBearishOnVolatileFall() {
	assessment, err := NewLocal().Score(context.Background(), FeatureVector{
		Symbol:       "TEST",
		RecentCloses: zigzagCloses(20, 100, -0.03, 0.01),
	})
	s.Require().NoError(err)

	verdict, takeErr := assessment.Take()
	s.Require().NoError(takeErr)
	s.Equal(types.DirectionBearish, verdict.Direction)
}

func (s *AITestSuite) TestLocalNeutralOnQuietMarket() {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}

	assessment, err := NewLocal().Score(context.Background(), FeatureVector{
		Symbol:       "TEST",
		RecentCloses: closes,
	})
	s.Require().NoError(err)

	verdict, takeErr := assessment.Take()
	s.Require().NoError(takeErr)

	s.Equal(types.DirectionNeutral, verdict.Direction)
	s.InDelta(0.3, verdict.Confidence, 1e-9)
}

func (s *AITestSuite) TestParseVerdictPlainJSON() {
	assessment, err := parseVerdict(`{"direction": "bullish", "confidence": 0.75, "reasoning": "momentum aligned"}`)
	s.Require().NoError(err)

	verdict, takeErr := assessment.Take()
	s.Require().NoError(takeErr)

	s.Equal(types.DirectionBullish, verdict.Direction)
	s.InDelta(0.75, verdict.Confidence, 1e-9)
	s.Equal("momentum aligned", verdict.Rationale)
}

func (s *AITestSuite) TestParseVerdictUnwrapsCodeFence() {
	content := "```json\n{\"direction\": \"BEARISH\", \"confidence\": 0.6, \"reasoning\": \"fading\"}\n```"

	assessment, err := parseVerdict(content)
	s.Require().NoError(err)

	verdict, takeErr := assessment.Take()
	s.Require().NoError(takeErr)
	s.Equal(types.DirectionBearish, verdict.Direction)
}

func (s *AITestSuite) TestParseVerdictRejectsGarbage() {
	_, err := parseVerdict("no structured content here")
	s.True(errors.HasCode(err, errors.ErrCodeProviderResponse))

	_, err = parseVerdict(`{"direction": "bullish", "confidence": 1.5}`)
	s.True(errors.HasCode(err, errors.ErrCodeProviderResponse))

	_, err = parseVerdict(`{"direction": "sideways", "confidence": 0.5}`)
	s.True(errors.HasCode(err, errors.ErrCodeProviderResponse))
}

func (s *AITestSuite) remoteConfig(endpoint string) RemoteConfig {
	return RemoteConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Model:    "test-model",
		Timeout:  5 * time.Second,
	}
}

func (s *AITestSuite) TestRemoteConfigValidation() {
	config := s.remoteConfig("http://localhost:9999")
	s.NoError(config.Validate())

	config.Endpoint = ""
	s.Error(config.Validate())

	config = s.remoteConfig("http://localhost:9999")
	config.Timeout = 0
	s.Error(config.Validate())
}

func (s *AITestSuite) TestRemoteScoresThroughChatEndpoint() {
	var gotAuth, gotModel string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{
			Role:    "assistant",
			Content: `{"direction": "bullish", "confidence": 0.82, "reasoning": "trend intact"}`,
		}})

		s.Require().NoError(json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider, err := NewRemote(s.remoteConfig(server.URL))
	s.Require().NoError(err)

	assessment, err := provider.Score(context.Background(), FeatureVector{
		Symbol:       "BTCUSDT",
		RecentCloses: zigzagCloses(30, 100, 0.01, -0.005),
		ATR:          1.5,
	})
	s.Require().NoError(err)

	s.Equal("Bearer test-key", gotAuth)
	s.Equal("test-model", gotModel)

	verdict, takeErr := assessment.Take()
	s.Require().NoError(takeErr)
	s.Equal(types.DirectionBullish, verdict.Direction)
	s.InDelta(0.82, verdict.Confidence, 1e-9)
}

func (s *AITestSuite) TestRemoteErrorStatusIsResponseError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider, err := NewRemote(s.remoteConfig(server.URL))
	s.Require().NoError(err)

	_, err = provider.Score(context.Background(), FeatureVector{Symbol: "TEST"})
	s.True(errors.HasCode(err, errors.ErrCodeProviderResponse))
}

func (s *AITestSuite) TestRemoteUnreachableIsUnavailable() {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	server.Close()

	provider, err := NewRemote(s.remoteConfig(endpoint))
	s.Require().NoError(err)

	_, err = provider.Score(context.Background(), FeatureVector{Symbol: "TEST"})
	s.True(errors.HasCode(err, errors.ErrCodeProviderUnavailable))
}

func (s *AITestSuite) TestRemoteEmptyChoicesRejected() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.Require().NoError(json.NewEncoder(w).Encode(chatResponse{}))
	}))
	defer server.Close()

	provider, err := NewRemote(s.remoteConfig(server.URL))
	s.Require().NoError(err)

	_, err = provider.Score(context.Background(), FeatureVector{Symbol: "TEST"})
	s.True(errors.HasCode(err, errors.ErrCodeProviderResponse))
}
