package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/halcyon-lab/synthsignal/internal/datasource"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestDefaultIsValid() {
	s.NoError(Default().Validate())
}

func (s *ConfigTestSuite) TestParseOverridesDefaults() {
	config, err := Parse([]byte(`
schema_version: "1.2.0"
scanner:
  symbols: ["BTCUSDT"]
  timeframe: "15m"
  lookback_bars: 150
  symbol_timeout: 30s
fusion:
  strength_threshold: 6.5
datasource:
  kind: synthetic
ai:
  provider: local
`))
	s.Require().NoError(err)

	s.Equal("1.2.0", config.SchemaVersion)
	s.Equal([]string{"BTCUSDT"}, config.Scanner.Symbols)
	s.Equal("15m", config.Scanner.Timeframe)
	s.Equal(150, config.Scanner.LookbackBars)
	s.Equal(30*time.Second, config.Scanner.SymbolTimeout)
	s.Equal(6.5, config.Fusion.StrengthThreshold)
	s.Equal(AIProviderLocal, config.AI.Provider)

	// Untouched sections keep defaults.
	s.Equal(datasource.KindSynthetic, config.Datasource.Kind)
	s.Equal(14, config.Indicators.RSIPeriod)
}

func (s *ConfigTestSuite) TestSchemaVersionGate() {
	tests := []struct {
		version string
		valid   bool
	}{
		{version: "1.0.0", valid: true},
		{version: "1.4.2", valid: true},
		{version: "2.0.0", valid: false},
		{version: "0.9.0", valid: false},
		{version: "banana", valid: false},
		{version: "", valid: false},
	}

	for _, tc := range tests {
		config := Default()
		config.SchemaVersion = tc.version

		err := config.Validate()
		if tc.valid {
			s.NoError(err, tc.version)
		} else {
			s.Require().Error(err, tc.version)
			s.True(errors.HasCode(err, errors.ErrCodeUnsupportedSchema), tc.version)
		}
	}
}

func (s *ConfigTestSuite) TestInvalidWeightsRejected() {
	_, err := Parse([]byte(`
schema_version: "1.0.0"
fusion:
  weights:
    structural: 0.5
    trend: 0.5
    momentum: 0.5
    mean_reversion: 0.5
    breakout: 0.5
    volume: 0.5
`))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidWeights))
}

func (s *ConfigTestSuite) TestRemoteProviderRequiresEndpoint() {
	config := Default()
	config.AI.Provider = AIProviderRemote

	s.Error(config.Validate())
}

func (s *ConfigTestSuite) TestBuildAIProvider() {
	config := Default()

	provider, err := config.BuildAIProvider()
	s.Require().NoError(err)
	s.Equal("disabled", provider.Name())

	config.AI.Provider = AIProviderLocal
	provider, err = config.BuildAIProvider()
	s.Require().NoError(err)
	s.Equal("local", provider.Name())
}

func (s *ConfigTestSuite) TestLoadFromFile() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("schema_version: \"1.0.0\"\n"), 0o600))

	config, err := Load(path)
	s.Require().NoError(err)
	s.Equal("1.0.0", config.SchemaVersion)
}

func (s *ConfigTestSuite) TestLoadMissingFile() {
	_, err := Load("/nonexistent/config.yaml")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestMalformedYAMLRejected() {
	_, err := Parse([]byte("schema_version: [unclosed"))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
