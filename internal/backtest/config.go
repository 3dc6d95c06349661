package backtest

import (
	"github.com/go-playground/validator/v10"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Config controls one backtest run.
type Config struct {
	// InitialCapital is the starting balance the equity curve grows from.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"default=1000" validate:"gt=0"`
	// MaxHoldingBars force-closes a trade that touches neither level within
	// this many bars of entry.
	MaxHoldingBars int `yaml:"max_holding_bars" json:"max_holding_bars" jsonschema:"default=48" validate:"gt=0"`
	// WarmupBars is how many leading bars are replayed before the signal
	// function is first invoked.
	WarmupBars int `yaml:"warmup_bars" json:"warmup_bars" jsonschema:"default=50" validate:"gte=0"`
	// ShowProgress renders a progress bar on stderr during the replay.
	ShowProgress bool `yaml:"show_progress" json:"show_progress"`
}

// DefaultConfig returns the standard backtest configuration.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 1000,
		MaxHoldingBars: 48,
		WarmupBars:     50,
		ShowProgress:   false,
	}
}

// Validate checks the configuration at startup.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return nil
}
