// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and tabular artifacts
	Port     int
	LogLevel string
	DevMode  bool

	FyersClientID    string
	FyersAccessToken string

	// Backup settings (S3-compatible storage, optional)
	BackupBucket    string
	BackupEndpoint  string
	BackupAccessKey string
	BackupSecretKey string

	Risk     RiskSettings
	Scan     ScanSettings
	Strategy StrategySettings
}

// RiskSettings holds the capital-risk budget used for position sizing and
// recommendation building. Loaded from risk_settings.yaml; env values are
// fallbacks when the file is absent.
type RiskSettings struct {
	Capital          float64 `yaml:"capital"`
	RiskPerTradePct  float64 `yaml:"risk_per_trade_pct"`
	MaxOpenPositions int     `yaml:"max_open_positions"`
	MaxRiskPct       float64 `yaml:"max_risk_pct"`
	TopN             int     `yaml:"top_n"`
}

// ScanSettings holds scanner thresholds. The numeric defaults are empirically
// chosen and must not be re-derived; changing any of them is a behavioral
// change that needs new golden-output tests.
type ScanSettings struct {
	MaxPrice           float64  `yaml:"max_price"`
	MinROCE            float64  `yaml:"min_roce"`
	MaxDebtEq          float64  `yaml:"max_debt_eq"`
	MinQtrProfitGrowth float64  `yaml:"min_qtr_profit_growth"`
	MinQtrSalesGrowth  float64  `yaml:"min_qtr_sales_growth"`
	MinScore           float64  `yaml:"min_score"`
	LookbackDays       int      `yaml:"lookback_days"`
	Universe           []string `yaml:"universe"`
}

// StrategySettings holds the swing-trend entry rules.
type StrategySettings struct {
	MAShort     int     `yaml:"ma_short"`
	MALong      int     `yaml:"ma_long"`
	MinVolume   int64   `yaml:"min_volume"`
	Lookback    int     `yaml:"lookback"`
	StopLossPct float64 `yaml:"stop_loss_pct"`
}

// settingsFile mirrors the on-disk risk_settings.yaml layout.
type settingsFile struct {
	Risk     RiskSettings     `yaml:"risk"`
	Scan     ScanSettings     `yaml:"scan"`
	Strategy StrategySettings `yaml:"strategy"`
}

// DefaultRiskSettings returns the risk settings used when no settings file or
// environment overrides are present.
func DefaultRiskSettings() RiskSettings {
	return RiskSettings{
		Capital:          500,
		RiskPerTradePct:  1.0,
		MaxOpenPositions: 5,
		MaxRiskPct:       0.05,
		TopN:             3,
	}
}

// DefaultScanSettings returns the scanner thresholds used when no settings
// file is present.
func DefaultScanSettings() ScanSettings {
	return ScanSettings{
		MaxPrice:           100,
		MinROCE:            15,
		MaxDebtEq:          0.8,
		MinQtrProfitGrowth: 0,
		MinQtrSalesGrowth:  0,
		MinScore:           8.0,
		LookbackDays:       250,
	}
}

// DefaultStrategySettings returns the swing-trend entry rules used when no
// settings file is present.
func DefaultStrategySettings() StrategySettings {
	return StrategySettings{
		MAShort:     20,
		MALong:      50,
		MinVolume:   100000,
		Lookback:    60,
		StopLossPct: 5.0,
	}
}

// Load reads configuration from environment variables and, when present,
// the risk settings YAML file in the data directory.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PENNYWATCH_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PENNYWATCH_PORT", 8001),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		FyersClientID:    getEnv("FYERS_CLIENT_ID", ""),
		FyersAccessToken: getEnv("FYERS_ACCESS_TOKEN", ""),
		BackupBucket:     getEnv("BACKUP_BUCKET", ""),
		BackupEndpoint:   getEnv("BACKUP_ENDPOINT", ""),
		BackupAccessKey:  getEnv("BACKUP_ACCESS_KEY", ""),
		BackupSecretKey:  getEnv("BACKUP_SECRET_KEY", ""),
		Risk:             DefaultRiskSettings(),
		Scan:             DefaultScanSettings(),
		Strategy:         DefaultStrategySettings(),
	}

	// Env fallbacks for the two knobs the recommendation scheduler
	// historically honored.
	if v := getEnvAsFloat("PENNY_TEST_CAPITAL", 0); v > 0 {
		cfg.Risk.Capital = v
	}
	if v := getEnvAsFloat("PENNY_MAX_RISK_PCT", 0); v > 0 {
		cfg.Risk.MaxRiskPct = v
	}

	// Settings file takes precedence over env fallbacks.
	if err := cfg.LoadRiskSettings(filepath.Join(absDataDir, "risk_settings.yaml")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadRiskSettings merges risk and scan settings from a YAML file into the
// config. A missing file is not an error; a malformed file is.
func (c *Config) LoadRiskSettings(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read risk settings %s: %w", path, err)
	}

	parsed := settingsFile{Risk: c.Risk, Scan: c.Scan, Strategy: c.Strategy}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse risk settings %s: %w", path, err)
	}

	c.Risk = parsed.Risk
	c.Scan = parsed.Scan
	c.Strategy = parsed.Strategy
	return nil
}

// MaxRiskPerTrade is the absolute capital amount risked on a single
// recommendation: total capital x max risk fraction.
func (r RiskSettings) MaxRiskPerTrade() float64 {
	return r.Capital * r.MaxRiskPct
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
