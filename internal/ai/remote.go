package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// RemoteConfig configures the chat-completion provider.
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint" validate:"required,url"`
	APIKey   string        `yaml:"api_key" json:"api_key" validate:"required"`
	Model    string        `yaml:"model" json:"model" validate:"required"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s" validate:"gt=0"`
}

// Validate checks the remote provider configuration.
func (c RemoteConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid remote AI config", err)
	}

	return nil
}

// Remote scores feature vectors through an OpenAI-compatible
// chat-completion endpoint. The model is asked to reply with a single JSON
// object carrying direction, confidence and reasoning.
type Remote struct {
	config RemoteConfig
	client *http.Client
}

// NewRemote creates the HTTP-backed provider.
func NewRemote(config RemoteConfig) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Remote{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

func (r *Remote) Name() string {
	return "remote"
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (r *Remote) Score(ctx context.Context, features FeatureVector) (optional.Option[Assessment], error) {
	body, err := json.Marshal(chatRequest{
		Model: r.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a trading signal validator. Reply with one JSON object: {\"direction\": \"bullish|bearish|neutral\", \"confidence\": 0.0-1.0, \"reasoning\": \"...\"}."},
			{Role: "user", Content: buildPrompt(features)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return optional.None[Assessment](), errors.Wrap(errors.ErrCodeProviderResponse, "failed to encode AI request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return optional.None[Assessment](), errors.Wrap(errors.ErrCodeProviderUnavailable, "failed to build AI request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.config.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return optional.None[Assessment](), errors.Wrap(errors.ErrCodeProviderUnavailable, "AI provider request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return optional.None[Assessment](), errors.Newf(errors.ErrCodeProviderResponse, "AI provider returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return optional.None[Assessment](), errors.Wrap(errors.ErrCodeProviderResponse, "failed to decode AI response", err)
	}

	if len(parsed.Choices) == 0 {
		return optional.None[Assessment](), errors.New(errors.ErrCodeProviderResponse, "AI response contained no choices")
	}

	return parseVerdict(parsed.Choices[0].Message.Content)
}

func parseVerdict(content string) (optional.Option[Assessment], error) {
	// Models occasionally wrap the JSON in a code fence.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start < 0 || end <= start {
		return optional.None[Assessment](), errors.New(errors.ErrCodeProviderResponse, "AI response contained no JSON object")
	}

	var v verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return optional.None[Assessment](), errors.Wrap(errors.ErrCodeProviderResponse, "failed to parse AI verdict", err)
	}

	if v.Confidence < 0 || v.Confidence > 1 {
		return optional.None[Assessment](), errors.Newf(errors.ErrCodeProviderResponse, "AI confidence %f out of range", v.Confidence)
	}

	direction := types.Direction(strings.ToLower(v.Direction))
	switch direction {
	case types.DirectionBullish, types.DirectionBearish, types.DirectionNeutral:
	default:
		return optional.None[Assessment](), errors.Newf(errors.ErrCodeProviderResponse, "AI direction %q not recognized", v.Direction)
	}

	return optional.Some(Assessment{
		Direction:  direction,
		Confidence: v.Confidence,
		Rationale:  v.Reasoning,
	}), nil
}

func buildPrompt(features FeatureVector) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Symbol: %s\nATR: %.6f\n", features.Symbol, features.ATR)

	if n := len(features.RecentCloses); n > 0 {
		tail := features.RecentCloses
		if n > 20 {
			tail = tail[n-20:]
		}

		fmt.Fprintf(&sb, "Recent closes: %v\n", tail)
	}

	sb.WriteString("Strategy votes:\n")

	for _, vote := range features.Votes {
		fmt.Fprintf(&sb, "- %s: %s %.1f/10 (%s)\n", vote.Strategy, vote.Direction, vote.Strength, vote.Rationale)
	}

	sb.WriteString("Assess the probability this setup succeeds.")

	return sb.String()
}
