package config

import (
	"errors"
	"fmt"
)

// Validate ensures required fields are present and sane.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cfg.Session.IntervalSec <= 0 {
		return errors.New("session.intervalSec must be > 0")
	}
	if cfg.Session.DurationSec < 0 {
		return errors.New("session.durationSec must be >= 0")
	}
	if cfg.Session.WarmupSec < 0 {
		return errors.New("session.warmupSec must be >= 0")
	}
	if cfg.Session.StatsEvery <= 0 {
		return errors.New("session.statsEvery must be > 0")
	}
	if cfg.Engine.NotionalPerTrade <= 0 {
		return errors.New("engine.notionalPerTrade must be > 0")
	}
	if cfg.Engine.Model != ModelBasic && cfg.Engine.Model != ModelAdvanced {
		return fmt.Errorf("engine.model must be %q or %q", ModelBasic, ModelAdvanced)
	}
	if !cfg.Venues.Binance.Enabled && !cfg.Venues.Jupiter.Enabled && !cfg.Venues.CowSwap.Enabled {
		return errors.New("at least one venue must be enabled")
	}
	if cfg.Venues.Jupiter.Enabled {
		if cfg.Venues.Jupiter.TokenID == "" {
			return errors.New("venues.jupiter.tokenID is required when enabled")
		}
		if cfg.Venues.Jupiter.PollIntervalMs < 0 {
			return errors.New("venues.jupiter.pollIntervalMs must be >= 0")
		}
		if cfg.Venues.Jupiter.SpreadBps < 0 {
			return errors.New("venues.jupiter.spreadBps must be >= 0")
		}
	}
	if cfg.Venues.CowSwap.Enabled {
		if cfg.Venues.CowSwap.PollIntervalMs < 0 {
			return errors.New("venues.cowswap.pollIntervalMs must be >= 0")
		}
		if cfg.Venues.CowSwap.SpreadBps < 0 {
			return errors.New("venues.cowswap.spreadBps must be >= 0")
		}
	}
	return nil
}
