package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"mm-simulator-go/infrastructure/logger"
)

// Model names accepted by engine.model.
const (
	ModelBasic    = "basic"
	ModelAdvanced = "advanced"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string        `yaml:"env"`
	Symbol  string        `yaml:"symbol"`
	Logging logger.Config `yaml:"logging"`
	Session SessionConfig `yaml:"session"`
	Engine  EngineConfig  `yaml:"engine"`
	Venues  VenuesConfig  `yaml:"venues"`
}

// SessionConfig 会话节奏参数。
type SessionConfig struct {
	IntervalSec int `yaml:"intervalSec"` // 决策周期（秒）
	DurationSec int `yaml:"durationSec"` // 会话时长（秒），0 表示直到进程退出
	WarmupSec   int `yaml:"warmupSec"`   // 启动后等待初始行情（秒）
	StatsEvery  int `yaml:"statsEvery"`  // 每 N 个周期输出运行统计
}

// EngineConfig 引擎参数，可热更新。
type EngineConfig struct {
	NotionalPerTrade float64 `yaml:"notionalPerTrade"` // 每次尝试的名义金额
	Model            string  `yaml:"model"`            // basic | advanced
}

// UseAdvancedModel 返回是否启用高级概率模型。
func (e EngineConfig) UseAdvancedModel() bool {
	return e.Model == ModelAdvanced
}

// VenuesConfig 各行情来源的接入参数。
type VenuesConfig struct {
	Binance BinanceConfig `yaml:"binance"`
	Jupiter JupiterConfig `yaml:"jupiter"`
	CowSwap CowSwapConfig `yaml:"cowswap"`
}

type BinanceConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // 留空使用默认公共端点
}

type JupiterConfig struct {
	Enabled        bool    `yaml:"enabled"`
	BaseURL        string  `yaml:"baseURL"`
	TokenID        string  `yaml:"tokenID"`
	PollIntervalMs int     `yaml:"pollIntervalMs"`
	SpreadBps      float64 `yaml:"spreadBps"` // 合成价差
}

type CowSwapConfig struct {
	Enabled        bool    `yaml:"enabled"`
	BaseURL        string  `yaml:"baseURL"`
	PollIntervalMs int     `yaml:"pollIntervalMs"`
	SpreadBps      float64 `yaml:"spreadBps"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides selected fields from env
// vars if present (useful for one-off runs without editing the file).
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_NOTIONAL_PER_TRADE"); v != "" {
		notional, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("MM_NOTIONAL_PER_TRADE: %w", err)
		}
		cfg.Engine.NotionalPerTrade = notional
	}
	if v := os.Getenv("MM_EXECUTION_MODEL"); v != "" {
		cfg.Engine.Model = v
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging = logger.DefaultConfig()
	}
	if cfg.Session.IntervalSec == 0 {
		cfg.Session.IntervalSec = 5
	}
	if cfg.Session.StatsEvery == 0 {
		cfg.Session.StatsEvery = 10
	}
	if cfg.Engine.Model == "" {
		cfg.Engine.Model = ModelBasic
	}
}
