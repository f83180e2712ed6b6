// Package config loads run configuration from defaults, an optional YAML
// file and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rfm-segments/pkg/rfm"
)

type Config struct {
	DSN     string   `yaml:"dsn"`
	Regions []string `yaml:"regions"`

	Output   OutputConfig   `yaml:"output"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Bins     BinsConfig     `yaml:"bins"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // "csv" or "excel"
}

type AnalysisConfig struct {
	IDWidth             int     `yaml:"id_width"`
	BlendWeight         float64 `yaml:"blend_weight"`
	OlderYears          int     `yaml:"older_years"`
	RecentYears         int     `yaml:"recent_years"`
	RecencySentinelDays int     `yaml:"recency_sentinel_days"`
	// ReferenceDate pins the run's logical clock ("2006-01-02"). Empty
	// means wall-clock now, UTC.
	ReferenceDate string `yaml:"reference_date"`
}

type BinsConfig struct {
	Monetary  rfm.BinTable `yaml:"monetary"`
	Frequency rfm.BinTable `yaml:"frequency"`
	Recency   rfm.BinTable `yaml:"recency"`
}

// Load builds the configuration. A missing file at the default path is fine;
// an explicitly given path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Regions: []string{"F01", "F02", "F03", "F04"},
		Output: OutputConfig{
			Dir:    "data/output/rfm_analysis",
			Format: "csv",
		},
		Analysis: AnalysisConfig{
			IDWidth:             10,
			BlendWeight:         0.5,
			OlderYears:          5,
			RecentYears:         2,
			RecencySentinelDays: 9999,
		},
		Bins: BinsConfig{
			Monetary:  rfm.DefaultMonetaryBins(),
			Frequency: rfm.DefaultFrequencyBins(),
			Recency:   rfm.DefaultRecencyBins(),
		},
	}

	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Override from environment
	if v := os.Getenv("RFM_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("RFM_REGIONS"); v != "" {
		cfg.Regions = strings.Split(v, ",")
	}
	if v := os.Getenv("RFM_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("RFM_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on malformed configuration, before any region data is
// touched. Bin table errors are fatal here by design.
func (c *Config) Validate() error {
	if err := c.Bins.Monetary.Validate(); err != nil {
		return fmt.Errorf("monetary bins: %w", err)
	}
	if err := c.Bins.Frequency.Validate(); err != nil {
		return fmt.Errorf("frequency bins: %w", err)
	}
	if err := c.Bins.Recency.Validate(); err != nil {
		return fmt.Errorf("recency bins: %w", err)
	}
	if c.Analysis.IDWidth <= 0 {
		return fmt.Errorf("id_width must be positive, got %d", c.Analysis.IDWidth)
	}
	if c.Analysis.BlendWeight < 0 || c.Analysis.BlendWeight > 1 {
		return fmt.Errorf("blend_weight must be in [0,1], got %g", c.Analysis.BlendWeight)
	}
	if c.Analysis.RecentYears <= 0 || c.Analysis.OlderYears <= c.Analysis.RecentYears {
		return fmt.Errorf("window years must satisfy 0 < recent (%d) < older (%d)",
			c.Analysis.RecentYears, c.Analysis.OlderYears)
	}
	if c.Analysis.RecencySentinelDays <= 0 {
		return fmt.Errorf("recency_sentinel_days must be positive, got %d", c.Analysis.RecencySentinelDays)
	}
	switch c.Output.Format {
	case "csv", "excel":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("no regions configured")
	}
	return nil
}

// Reference resolves the run's reference instant.
func (c *Config) Reference() (time.Time, error) {
	if c.Analysis.ReferenceDate == "" {
		return time.Now().UTC(), nil
	}
	ref, err := time.Parse("2006-01-02", c.Analysis.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("reference_date: %w", err)
	}
	return ref.UTC(), nil
}
