package indicator

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Params configures every indicator the engine computes per evaluation.
type Params struct {
	RSIPeriod        int     `yaml:"rsi_period" json:"rsi_period" jsonschema:"default=14" validate:"gt=0"`
	BollingerPeriod  int     `yaml:"bollinger_period" json:"bollinger_period" jsonschema:"default=20" validate:"gt=1"`
	BollingerStdDev  float64 `yaml:"bollinger_std_dev" json:"bollinger_std_dev" jsonschema:"default=2" validate:"gt=0"`
	EMAFastPeriod    int     `yaml:"ema_fast_period" json:"ema_fast_period" jsonschema:"default=20" validate:"gt=0"`
	EMASlowPeriod    int     `yaml:"ema_slow_period" json:"ema_slow_period" jsonschema:"default=50" validate:"gt=0,gtfield=EMAFastPeriod"`
	MACDFastPeriod   int     `yaml:"macd_fast_period" json:"macd_fast_period" jsonschema:"default=12" validate:"gt=0"`
	MACDSlowPeriod   int     `yaml:"macd_slow_period" json:"macd_slow_period" jsonschema:"default=26" validate:"gt=0,gtfield=MACDFastPeriod"`
	MACDSignalPeriod int     `yaml:"macd_signal_period" json:"macd_signal_period" jsonschema:"default=9" validate:"gt=0"`
	ATRPeriod        int     `yaml:"atr_period" json:"atr_period" jsonschema:"default=14" validate:"gt=0"`
	VolumePeriod     int     `yaml:"volume_period" json:"volume_period" jsonschema:"default=20" validate:"gt=0"`
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{
		RSIPeriod:        14,
		BollingerPeriod:  20,
		BollingerStdDev:  2.0,
		EMAFastPeriod:    20,
		EMASlowPeriod:    50,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		ATRPeriod:        14,
		VolumePeriod:     20,
	}
}

// Validate checks the parameter set at configuration time.
func (p Params) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid indicator params", err)
	}

	return nil
}

// MinBars returns the number of bars the most data-hungry indicator needs
// before its latest value is present.
func (p Params) MinBars() int {
	min := p.RSIPeriod + 1

	candidates := []int{
		p.BollingerPeriod,
		p.EMASlowPeriod,
		p.MACDSlowPeriod + p.MACDSignalPeriod,
		p.ATRPeriod,
		p.VolumePeriod,
	}
	for _, c := range candidates {
		if c > min {
			min = c
		}
	}

	return min
}

// Snapshot holds every indicator series computed for one price series.
// All series are aligned to the input bars.
type Snapshot struct {
	RSI       Series
	Bollinger BollingerBands
	EMAFast   Series
	EMASlow   Series
	MACD      MACDResult
	ATR       Series
	VolumeSMA Series
}

// Compute calculates every configured indicator over the series. A series
// shorter than an indicator's window produces an all-absent series for that
// indicator, never an error.
func Compute(series *types.PriceSeries, params Params) (*Snapshot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	closes := series.Closes()

	rsi, err := RSI(closes, params.RSIPeriod)
	if err != nil {
		return nil, err
	}

	bands, err := Bollinger(closes, params.BollingerPeriod, params.BollingerStdDev)
	if err != nil {
		return nil, err
	}

	emaFast, err := EMA(closes, params.EMAFastPeriod)
	if err != nil {
		return nil, err
	}

	emaSlow, err := EMA(closes, params.EMASlowPeriod)
	if err != nil {
		return nil, err
	}

	macd, err := MACD(closes, params.MACDFastPeriod, params.MACDSlowPeriod, params.MACDSignalPeriod)
	if err != nil {
		return nil, err
	}

	atr, err := ATR(series, params.ATRPeriod)
	if err != nil {
		return nil, err
	}

	volumes := make([]float64, series.Len())
	for i, bar := range series.Bars {
		volumes[i] = bar.Volume
	}

	volumeSMA, err := SMA(volumes, params.VolumePeriod)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		RSI:       rsi,
		Bollinger: bands,
		EMAFast:   emaFast,
		EMASlow:   emaSlow,
		MACD:      macd,
		ATR:       atr,
		VolumeSMA: volumeSMA,
	}, nil
}

// LatestATR returns the ATR at the final bar.
func (s *Snapshot) LatestATR() optional.Option[float64] {
	return s.ATR.Last()
}
