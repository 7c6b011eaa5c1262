package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	slizzai "github.com/Slizzurp/SlizzAi-3"
)

// fileConfig is the YAML shape of a cycle description. Durations are
// strings in time.ParseDuration form ("30s", "1m30s").
type fileConfig struct {
	Frame struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"frame"`

	Tiles       int     `yaml:"tiles"`
	Budget      float64 `yaml:"budget"`
	Concurrency int     `yaml:"concurrency"`

	FidelityLossCeiling float64 `yaml:"fidelity_loss_ceiling"`
	PassThrough         bool    `yaml:"pass_through"`

	RetryLimit         int    `yaml:"retry_limit"`
	SuperSampleTimeout string `yaml:"supersample_timeout"`
	EnhanceFactor      int    `yaml:"enhance_factor"`

	// Endpoint is the super-sampling service base URL. Empty selects the
	// built-in Catmull-Rom upscaler.
	Endpoint string `yaml:"endpoint"`
}

// defaults fills optional fields a config file may omit.
func (fc *fileConfig) defaults() {
	if fc.Concurrency == 0 {
		fc.Concurrency = 4
	}
	if fc.FidelityLossCeiling == 0 {
		fc.FidelityLossCeiling = 0.02
	}
	if fc.RetryLimit == 0 {
		fc.RetryLimit = 3
	}
	if fc.SuperSampleTimeout == "" {
		fc.SuperSampleTimeout = "30s"
	}
	if fc.EnhanceFactor == 0 {
		fc.EnhanceFactor = 2
	}
}

// loadConfig reads and parses a cycle description and converts it into a
// validated pipeline configuration.
func loadConfig(path string) (slizzai.Config, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return slizzai.Config{}, "", fmt.Errorf("reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return slizzai.Config{}, "", fmt.Errorf("parsing %s: %w", path, err)
	}
	fc.defaults()

	timeout, err := time.ParseDuration(fc.SuperSampleTimeout)
	if err != nil {
		return slizzai.Config{}, "", fmt.Errorf("supersample_timeout: %w", err)
	}

	cfg := slizzai.Config{
		Width:               fc.Frame.Width,
		Height:              fc.Frame.Height,
		TileCount:           fc.Tiles,
		BudgetLimit:         fc.Budget,
		MaxConcurrency:      fc.Concurrency,
		FidelityLossCeiling: fc.FidelityLossCeiling,
		RetryLimit:          fc.RetryLimit,
		SuperSampleTimeout:  timeout,
		EnhanceFactor:       fc.EnhanceFactor,
		PassThrough:         fc.PassThrough,
	}
	if err := cfg.Validate(); err != nil {
		return slizzai.Config{}, "", err
	}
	return cfg, fc.Endpoint, nil
}
