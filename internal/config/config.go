// Package config loads and validates the YAML configuration file. Values
// omitted from the file keep their defaults; validation failures are fatal
// at startup, never silently recovered.
package config

import (
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/halcyon-lab/synthsignal/internal/ai"
	"github.com/halcyon-lab/synthsignal/internal/backtest"
	"github.com/halcyon-lab/synthsignal/internal/datasource"
	"github.com/halcyon-lab/synthsignal/internal/fusion"
	"github.com/halcyon-lab/synthsignal/internal/indicator"
	"github.com/halcyon-lab/synthsignal/internal/scanner"
	"github.com/halcyon-lab/synthsignal/internal/server"
	"github.com/halcyon-lab/synthsignal/internal/structure"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// SchemaConstraint is the config schema range this build accepts.
const SchemaConstraint = "^1.0"

// CurrentSchemaVersion is stamped into generated default configs.
const CurrentSchemaVersion = "1.0.0"

// AIProviderKind selects the AI provider implementation.
type AIProviderKind string

const (
	AIProviderDisabled AIProviderKind = "disabled"
	AIProviderLocal    AIProviderKind = "local"
	AIProviderRemote   AIProviderKind = "remote"
)

// AIConfig selects and parameterizes the AI provider.
type AIConfig struct {
	Provider AIProviderKind `yaml:"provider" json:"provider" jsonschema:"default=disabled" validate:"required,oneof=disabled local remote"`
	// Remote is only read when Provider is "remote".
	Remote ai.RemoteConfig `yaml:"remote,omitempty" json:"remote,omitempty"`
}

// NotifierConfig configures outbound signal delivery. An empty webhook URL
// leaves only the logging channel.
type NotifierConfig struct {
	WebhookURL string        `yaml:"webhook_url,omitempty" json:"webhook_url,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"default=10s"`
}

// Config is the full application configuration.
type Config struct {
	// SchemaVersion gates config compatibility; must satisfy
	// SchemaConstraint.
	SchemaVersion string `yaml:"schema_version" json:"schema_version" jsonschema:"default=1.0.0" validate:"required"`

	Indicators indicator.Params  `yaml:"indicators" json:"indicators"`
	Structure  structure.Config  `yaml:"structure" json:"structure"`
	Fusion     fusion.Config     `yaml:"fusion" json:"fusion"`
	Backtest   backtest.Config   `yaml:"backtest" json:"backtest"`
	Scanner    scanner.Config    `yaml:"scanner" json:"scanner"`
	Datasource datasource.Config `yaml:"datasource" json:"datasource"`
	Server     server.Config     `yaml:"server" json:"server"`
	AI         AIConfig          `yaml:"ai" json:"ai"`
	Notifier   NotifierConfig    `yaml:"notifier,omitempty" json:"notifier,omitempty"`

	// StorePath is the DuckDB audit database; empty disables persistence.
	StorePath string `yaml:"store_path,omitempty" json:"store_path,omitempty"`
}

// Default returns the full default configuration.
func Default() Config {
	return Config{
		SchemaVersion: CurrentSchemaVersion,
		Indicators:    indicator.DefaultParams(),
		Structure:     structure.DefaultConfig(),
		Fusion:        fusion.DefaultConfig(),
		Backtest:      backtest.DefaultConfig(),
		Scanner:       scanner.DefaultConfig(),
		Datasource:    datasource.DefaultConfig(),
		Server:        server.DefaultConfig(),
		AI:            AIConfig{Provider: AIProviderDisabled},
		Notifier:      NotifierConfig{Timeout: 10 * time.Second},
	}
}

// Load reads and validates the config file at path. Omitted keys keep
// their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	config := Default()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config YAML", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate checks the schema version gate and cascades into every
// component configuration.
func (c Config) Validate() error {
	if err := c.validateSchemaVersion(); err != nil {
		return err
	}

	validate := validator.New()
	if err := validate.Struct(c.AI); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid AI config", err)
	}

	if c.AI.Provider == AIProviderRemote {
		if err := c.AI.Remote.Validate(); err != nil {
			return err
		}
	}

	for _, component := range []interface{ Validate() error }{
		c.Indicators,
		c.Structure,
		c.Fusion,
		c.Backtest,
		c.Scanner,
		c.Datasource,
		c.Server,
	} {
		if err := component.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (c Config) validateSchemaVersion() error {
	version, err := semver.NewVersion(c.SchemaVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUnsupportedSchema, err, "invalid schema version %q", c.SchemaVersion)
	}

	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnsupportedSchema, "invalid schema constraint", err)
	}

	if !constraint.Check(version) {
		return errors.Newf(errors.ErrCodeUnsupportedSchema,
			"schema version %s outside supported range %s", c.SchemaVersion, SchemaConstraint)
	}

	return nil
}

// BuildAIProvider constructs the configured AI provider.
func (c Config) BuildAIProvider() (ai.Provider, error) {
	switch c.AI.Provider {
	case AIProviderLocal:
		return ai.NewLocal(), nil
	case AIProviderRemote:
		return ai.NewRemote(c.AI.Remote)
	default:
		return ai.NewDisabled(), nil
	}
}
