// Package config is the typed view over viper settings (flags, RFM_*
// environment, optional config.yaml).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"rfm-insights/pkg/analysis"
	"rfm-insights/pkg/clv"
	"rfm-insights/pkg/models"
	"rfm-insights/pkg/segmentation"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: RFM_SOURCE_DSN, RFM_ANALYSIS_K...
const EnvPrefix = "RFM"

// LegacyDSNEnv is still read when no DSN is configured.
const LegacyDSNEnv = "LTV_MONTHLY_DSN"

type Config struct {
	Source   Source   `mapstructure:"source"`
	Analysis Analysis `mapstructure:"analysis"`
	Output   Output   `mapstructure:"output"`
	Logging  Logging  `mapstructure:"logging"`
}

// Source is either a CSV file or a database DSN plus table. CSV wins.
type Source struct {
	CSV   string `mapstructure:"csv"`
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

type Analysis struct {
	Strategy      string `mapstructure:"strategy"`
	K             int    `mapstructure:"k"`
	HorizonMonths int    `mapstructure:"horizon_months"`
	MaxRows       int    `mapstructure:"max_rows"`
	AsOf          string `mapstructure:"as_of"` // YYYY-MM-DD, empty: latest order day
}

type Output struct {
	Format string `mapstructure:"format"` // table | json
	Dir    string `mapstructure:"dir"`
}

type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.table", "transactions")
	v.SetDefault("analysis.strategy", string(models.StrategyRuleBased))
	v.SetDefault("analysis.k", segmentation.DefaultK)
	v.SetDefault("analysis.horizon_months", clv.DefaultHorizonMonths)
	v.SetDefault("analysis.max_rows", analysis.DefaultMaxRows)
	v.SetDefault("output.format", "table")
	v.SetDefault("output.dir", ".")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.Source.DSN == "" {
		c.Source.DSN = os.Getenv(LegacyDSNEnv)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports the first bad setting as a ConfigurationError.
func (c *Config) Validate() error {
	strategy, err := models.ParseStrategy(c.Analysis.Strategy)
	if err != nil {
		return err
	}
	c.Analysis.Strategy = string(strategy)
	if strategy == models.StrategyClustering {
		if _, err := segmentation.ValidateK(c.Analysis.K); err != nil {
			return err
		}
	}
	if c.Analysis.HorizonMonths < 1 {
		return &models.ConfigurationError{Key: "analysis.horizon_months", Reason: fmt.Sprintf("must be >= 1, got %d", c.Analysis.HorizonMonths)}
	}
	if c.Analysis.MaxRows < 1 {
		return &models.ConfigurationError{Key: "analysis.max_rows", Reason: fmt.Sprintf("must be >= 1, got %d", c.Analysis.MaxRows)}
	}
	if _, err := c.Analysis.Date(); err != nil {
		return err
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	switch c.Output.Format {
	case "table", "json":
	default:
		return &models.ConfigurationError{Key: "output.format", Reason: fmt.Sprintf("unknown format %q (want table or json)", c.Output.Format)}
	}
	return nil
}

// Date parses AsOf. Empty gives the zero time.
func (a Analysis) Date() (time.Time, error) {
	if a.AsOf == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, a.AsOf)
	if err != nil {
		return time.Time{}, &models.ConfigurationError{Key: "analysis.as_of", Reason: fmt.Sprintf("want YYYY-MM-DD, got %q", a.AsOf)}
	}
	return t, nil
}

// Options converts the analysis settings for analysis.Analyze.
func (a Analysis) Options() (analysis.Options, error) {
	date, err := a.Date()
	if err != nil {
		return analysis.Options{}, err
	}
	strategy, err := models.ParseStrategy(a.Strategy)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		AnalysisDate:  date,
		Strategy:      strategy,
		K:             a.K,
		HorizonMonths: a.HorizonMonths,
		MaxRows:       a.MaxRows,
	}, nil
}

// CheckRows applies the max_rows limit to a loaded dataset.
func (a Analysis) CheckRows(rows int) error {
	return analysis.CheckRows(rows, a.MaxRows)
}

// Kind tells which loader to use.
func (s Source) Kind() (string, error) {
	switch {
	case s.CSV != "":
		return "csv", nil
	case s.DSN != "":
		return "database", nil
	}
	return "", &models.ConfigurationError{Key: "source", Reason: "set --csv or --dsn (or " + LegacyDSNEnv + ")"}
}
