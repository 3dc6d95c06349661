package datasource

import (
	"github.com/go-playground/validator/v10"

	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Config selects and parameterizes one datasource.
type Config struct {
	Kind Kind `yaml:"kind" json:"kind" jsonschema:"default=synthetic" validate:"required,oneof=synthetic duckdb binance polygon websocket"`
	// Path is the DuckDB database path.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// APIKey and SecretKey authenticate the Binance and Polygon sources.
	APIKey    string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty"`
	// URL is the websocket endpoint.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
}

// DefaultConfig returns the synthetic datasource, which needs no
// credentials.
func DefaultConfig() Config {
	return Config{Kind: KindSynthetic}
}

// Validate checks the datasource selection and its kind-specific fields.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid datasource config", err)
	}

	switch c.Kind {
	case KindDuckDB:
		if c.Path == "" {
			return errors.New(errors.ErrCodeInvalidConfiguration, "duckdb datasource requires a path")
		}
	case KindPolygon:
		if c.APIKey == "" {
			return errors.New(errors.ErrCodeInvalidConfiguration, "polygon datasource requires an API key")
		}
	case KindWebsocket:
		if c.URL == "" {
			return errors.New(errors.ErrCodeInvalidConfiguration, "websocket datasource requires a URL")
		}
	}

	return nil
}

// New constructs the datasource the configuration selects.
func New(config Config) (DataSource, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Kind {
	case KindSynthetic:
		return NewSynthetic(), nil
	case KindDuckDB:
		return NewDuckDB(config.Path)
	case KindBinance:
		return NewBinance(config.APIKey, config.SecretKey), nil
	case KindPolygon:
		return NewPolygon(config.APIKey)
	case KindWebsocket:
		return NewWebsocket(config.URL)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidType, "unknown datasource kind %q", config.Kind)
	}
}
