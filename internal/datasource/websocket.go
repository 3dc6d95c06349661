package datasource

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Websocket fetches candle history over a Deriv-style websocket API: one
// request per GetSeries call, one candles response back. Reconnection and
// streaming subscriptions are out of scope; each call dials fresh.
type Websocket struct {
	// URL is the wss endpoint, e.g. "wss://ws.derivws.com/websockets/v3?app_id=1089".
	URL    string
	dialer *websocket.Dialer
}

// NewWebsocket creates the websocket candle datasource.
func NewWebsocket(url string) (*Websocket, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "websocket datasource requires a URL")
	}

	return &Websocket{URL: url, dialer: websocket.DefaultDialer}, nil
}

func (w *Websocket) Name() string {
	return string(KindWebsocket)
}

type candlesRequest struct {
	TicksHistory    string `json:"ticks_history"`
	AdjustStartTime int    `json:"adjust_start_time"`
	Count           int    `json:"count"`
	End             string `json:"end"`
	Granularity     int    `json:"granularity"`
	Style           string `json:"style"`
}

type candlesResponse struct {
	Candles []struct {
		Epoch int64   `json:"epoch"`
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	} `json:"candles"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (w *Websocket) GetSeries(ctx context.Context, symbol string, timeframe string, barCount int) (*types.PriceSeries, error) {
	if err := validateRequest(symbol, barCount); err != nil {
		return nil, err
	}

	step, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	conn, _, err := w.dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to dial websocket datasource", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	request := candlesRequest{
		TicksHistory:    symbol,
		AdjustStartTime: 1,
		Count:           barCount,
		End:             "latest",
		Granularity:     int(step.Seconds()),
		Style:           "candles",
	}

	if err := conn.WriteJSON(request); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to send candle request", err)
	}

	var response candlesResponse
	if err := conn.ReadJSON(&response); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderResponse, "failed to read candle response", err)
	}

	if response.Error != nil {
		return nil, errors.Newf(errors.ErrCodeProviderResponse,
			"candle request rejected: %s (%s)", response.Error.Message, response.Error.Code)
	}

	if len(response.Candles) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no candles returned for %s", symbol)
	}

	bars := make([]types.PriceBar, 0, len(response.Candles))

	for _, candle := range response.Candles {
		bars = append(bars, types.PriceBar{
			Time:  time.Unix(candle.Epoch, 0).UTC(),
			Open:  candle.Open,
			High:  candle.High,
			Low:   candle.Low,
			Close: candle.Close,
			// The candle schema carries no volume; the volume evaluator
			// degrades to neutral for this source.
		})
	}

	series := &types.PriceSeries{Symbol: symbol, Timeframe: timeframe, Bars: bars}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	return series, nil
}

func (w *Websocket) Close() error {
	return nil
}
