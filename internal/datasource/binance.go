package datasource

import (
	"context"
	"strconv"

	binance "github.com/adshao/go-binance/v2"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Binance fetches spot klines. Public kline endpoints need no credentials,
// so keys are optional.
type Binance struct {
	client *binance.Client
}

// NewBinance creates the Binance kline datasource.
func NewBinance(apiKey, secretKey string) *Binance {
	return &Binance{client: binance.NewClient(apiKey, secretKey)}
}

func (b *Binance) Name() string {
	return string(KindBinance)
}

func (b *Binance) GetSeries(ctx context.Context, symbol string, timeframe string, barCount int) (*types.PriceSeries, error) {
	if err := validateRequest(symbol, barCount); err != nil {
		return nil, err
	}

	if _, err := ParseTimeframe(timeframe); err != nil {
		return nil, err
	}

	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(barCount).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to fetch klines for %s", symbol)
	}

	if len(klines) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no klines returned for %s", symbol)
	}

	bars := make([]types.PriceBar, 0, len(klines))

	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	series := &types.PriceSeries{Symbol: symbol, Timeframe: timeframe, Bars: bars}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	return series, nil
}

func (b *Binance) Close() error {
	return nil
}

// klineToBar parses the string-typed kline fields. Open time stamps the
// bar.
func klineToBar(k *binance.Kline) (types.PriceBar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.PriceBar{}, errors.Wrap(errors.ErrCodeProviderResponse, "malformed kline open price", err)
	}

	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.PriceBar{}, errors.Wrap(errors.ErrCodeProviderResponse, "malformed kline high price", err)
	}

	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.PriceBar{}, errors.Wrap(errors.ErrCodeProviderResponse, "malformed kline low price", err)
	}

	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.PriceBar{}, errors.Wrap(errors.ErrCodeProviderResponse, "malformed kline close price", err)
	}

	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.PriceBar{}, errors.Wrap(errors.ErrCodeProviderResponse, "malformed kline volume", err)
	}

	return types.PriceBar{
		Time:   timeFromMillis(k.OpenTime),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}
