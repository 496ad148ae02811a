package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
env: test
symbol: ETHUSDC
session:
  intervalSec: 5
  durationSec: 600
  warmupSec: 10
  statsEvery: 10
engine:
  notionalPerTrade: 100000
  model: basic
venues:
  binance:
    enabled: true
  jupiter:
    enabled: true
    tokenID: sometoken
    pollIntervalMs: 2000
    spreadBps: 5
  cowswap:
    enabled: true
    pollIntervalMs: 3000
    spreadBps: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Symbol != "ETHUSDC" {
		t.Fatalf("symbol = %q", cfg.Symbol)
	}
	if cfg.Engine.NotionalPerTrade != 100000 {
		t.Fatalf("notional = %f", cfg.Engine.NotionalPerTrade)
	}
	if cfg.Engine.UseAdvancedModel() {
		t.Fatal("basic model should not report advanced")
	}
	if !cfg.Venues.Jupiter.Enabled || cfg.Venues.Jupiter.TokenID != "sometoken" {
		t.Fatalf("jupiter config = %+v", cfg.Venues.Jupiter)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() AppConfig {
		cfg, err := Load(writeConfig(t, validYAML))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"empty env", func(c *AppConfig) { c.Env = "" }},
		{"empty symbol", func(c *AppConfig) { c.Symbol = "" }},
		{"zero interval", func(c *AppConfig) { c.Session.IntervalSec = 0 }},
		{"negative duration", func(c *AppConfig) { c.Session.DurationSec = -1 }},
		{"zero notional", func(c *AppConfig) { c.Engine.NotionalPerTrade = 0 }},
		{"unknown model", func(c *AppConfig) { c.Engine.Model = "fancy" }},
		{"no venues", func(c *AppConfig) {
			c.Venues.Binance.Enabled = false
			c.Venues.Jupiter.Enabled = false
			c.Venues.CowSwap.Enabled = false
		}},
		{"jupiter without token", func(c *AppConfig) { c.Venues.Jupiter.TokenID = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MM_NOTIONAL_PER_TRADE", "250000")
	t.Setenv("MM_EXECUTION_MODEL", "advanced")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.NotionalPerTrade != 250000 {
		t.Fatalf("notional override not applied: %f", cfg.Engine.NotionalPerTrade)
	}
	if !cfg.Engine.UseAdvancedModel() {
		t.Fatal("model override not applied")
	}
}

func TestEnvOverrideValidationStillApplies(t *testing.T) {
	t.Setenv("MM_EXECUTION_MODEL", "bogus")

	if _, err := LoadWithEnvOverrides(writeConfig(t, validYAML)); err == nil {
		t.Fatal("expected validation error for bogus model")
	}
}

func TestDefaultsApplied(t *testing.T) {
	minimal := `
env: test
symbol: ETHUSDC
engine:
  notionalPerTrade: 1000
venues:
  binance:
    enabled: true
`
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.IntervalSec != 5 || cfg.Session.StatsEvery != 10 {
		t.Fatalf("session defaults not applied: %+v", cfg.Session)
	}
	if cfg.Engine.Model != ModelBasic {
		t.Fatalf("model default not applied: %q", cfg.Engine.Model)
	}
	if cfg.Logging.Level == "" {
		t.Fatal("logging defaults not applied")
	}
}
