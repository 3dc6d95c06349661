// Package notifier delivers approved signals to outbound channels. Delivery
// is fire and forget: a failed notification is logged by the caller and
// never blocks or retries inside the scoring path.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Notifier delivers one signal to a channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, signal types.Signal) error
}

// Log writes signals to the structured log. It is the default channel and
// doubles as the local development notifier.
type Log struct {
	log *logger.Logger
}

// NewLog creates the logging notifier.
func NewLog(log *logger.Logger) *Log {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Log{log: log}
}

func (n *Log) Name() string {
	return "log"
}

func (n *Log) Notify(_ context.Context, signal types.Signal) error {
	fields := []zap.Field{
		zap.String("signal_id", signal.ID),
		zap.String("symbol", signal.Symbol),
		zap.String("direction", string(signal.Direction)),
		zap.Float64("strength", signal.Strength),
		zap.Float64("entry", signal.EntryPrice),
		zap.Float64("stop_loss", signal.StopLoss),
		zap.Float64("take_profit", signal.TakeProfit),
		zap.Float64("position_size_fraction", signal.PositionSizeFraction),
	}

	if confidence, err := signal.Confidence.Take(); err == nil {
		fields = append(fields, zap.Float64("ai_confidence", confidence))
	}

	n.log.Info("signal emitted", fields...)

	return nil
}

// Webhook POSTs the signal as JSON to a configured endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates the webhook notifier.
func NewWebhook(url string, timeout time.Duration) (*Webhook, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "webhook notifier requires a URL")
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (n *Webhook) Name() string {
	return "webhook"
}

type webhookPayload struct {
	ID                   string    `json:"id"`
	Symbol               string    `json:"symbol"`
	Direction            string    `json:"direction"`
	Strength             float64   `json:"strength"`
	Confidence           *float64  `json:"confidence,omitempty"`
	EntryPrice           float64   `json:"entry_price"`
	StopLoss             float64   `json:"stop_loss"`
	TakeProfit           float64   `json:"take_profit"`
	PositionSizeFraction float64   `json:"position_size_fraction"`
	CreatedAt            time.Time `json:"created_at"`
}

func (n *Webhook) Notify(ctx context.Context, signal types.Signal) error {
	payload := webhookPayload{
		ID:                   signal.ID,
		Symbol:               signal.Symbol,
		Direction:            string(signal.Direction),
		Strength:             signal.Strength,
		EntryPrice:           signal.EntryPrice,
		StopLoss:             signal.StopLoss,
		TakeProfit:           signal.TakeProfit,
		PositionSizeFraction: signal.PositionSizeFraction,
		CreatedAt:            signal.CreatedAt,
	}

	if confidence, err := signal.Confidence.Take(); err == nil {
		payload.Confidence = &confidence
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "failed to encode signal payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "failed to build webhook request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "webhook delivery failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf(errors.ErrCodeNotifyFailed, "webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Fanout delivers to every configured channel, collecting failures without
// short-circuiting.
type Fanout struct {
	channels []Notifier
	log      *logger.Logger
}

// NewFanout creates a multi-channel notifier.
func NewFanout(log *logger.Logger, channels ...Notifier) *Fanout {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Fanout{channels: channels, log: log}
}

func (n *Fanout) Name() string {
	return "fanout"
}

func (n *Fanout) Notify(ctx context.Context, signal types.Signal) error {
	var failed int

	for _, channel := range n.channels {
		if err := channel.Notify(ctx, signal); err != nil {
			failed++

			n.log.Warn("notification channel failed",
				zap.String("channel", channel.Name()),
				zap.String("signal_id", signal.ID),
				zap.Error(err),
			)
		}
	}

	if failed == len(n.channels) && failed > 0 {
		return errors.Newf(errors.ErrCodeNotifyFailed, "all %d notification channels failed", failed)
	}

	return nil
}
