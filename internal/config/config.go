package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full environment-sourced configuration for every binary in
// the pipeline. Each cmd loads only the sections it needs.
type Config struct {
	Bus       BusConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Scanner   ScannerConfig
	Risk      RiskConfig
	Executor  ExecutorConfig
	Toggles   ToggleDefaults
	Logging   LoggingConfig
	TakerBps  map[string]float64
}

// BusConfig points at the Redis instance backing the message bus and KV
// view.
type BusConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig is the Trade Assembler's persistent store.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// ServerConfig configures the HTTP surface exposed by each binary (health,
// metrics, pprof, and the debug tail).
type ServerConfig struct {
	Port          int
	Host          string
	DebugUsername string
	DebugPassword string
}

// ScannerConfig carries the admission thresholds and rate limit from
// spec §6.
type ScannerConfig struct {
	ScanInterval    time.Duration
	MaxSymbols      int
	DiscoverEvery   time.Duration
	MinGrossBps     float64
	MinNetBps       float64
	MinAbsSpread    float64
	MinNotional     float64
	MaxBookAgeMs    int64
	EmitRatePerSec  float64
	EmitBurst       int
	VenueA          string
	VenueB          string
	Paper           bool
}

// RiskConfig carries the policy gate thresholds.
type RiskConfig struct {
	EdgeMinBps       float64
	NetMinBps        float64
	MaxTotalSize     float64
	RequireBothSides bool
	AllowPaperOnly   bool
}

// ExecutorConfig carries the router-executor's trade-emission floor and
// inflight eviction cadence.
type ExecutorConfig struct {
	MinRealizedPnl float64
	InflightTTL    time.Duration
	ToggleRefresh  time.Duration
}

// ToggleDefaults are the values toggles.Store reports while an operator
// has not yet written toggles:autoTrade / toggles:mode; they are not
// written to the key-value view.
type ToggleDefaults struct {
	AutoTrade bool
	Mode      string
}

// LoggingConfig configures the zap logger shared by every binary.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads every recognized environment variable, applying defaults
// where the source leaves them unset.
func Load() (*Config, error) {
	cfg := &Config{
		Bus: BusConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "arbitrage"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:          getEnvAsInt("SERVER_PORT", 8080),
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			DebugUsername: getEnv("DEBUG_USERNAME", ""),
			DebugPassword: getEnv("DEBUG_PASSWORD", ""),
		},
		Scanner: ScannerConfig{
			MaxSymbols:     getEnvAsInt("MAX_SYMBOLS", 500),
			MinGrossBps:    getEnvAsFloat("MIN_GROSS_BPS", 10),
			MinNetBps:      getEnvAsFloat("MIN_NET_BPS", 5),
			MinAbsSpread:   getEnvAsFloat("MIN_ABS_SPREAD", 0.01),
			MinNotional:    getEnvAsFloat("MIN_NOTIONAL", 10),
			MaxBookAgeMs:   getEnvAsInt64("MAX_BOOK_AGE_MS", 2000),
			EmitRatePerSec: getEnvAsFloat("EMIT_RATE_PER_SEC", 5),
			EmitBurst:      getEnvAsInt("EMIT_BURST", 10),
			VenueA:         getEnv("VENUE_A", "binance"),
			VenueB:         getEnv("VENUE_B", "bybit"),
			Paper:          getEnvAsBool("PAPER", true),
		},
		Risk: RiskConfig{
			EdgeMinBps:       getEnvAsFloat("RISK_EDGE_MIN_BPS", 20),
			NetMinBps:        getEnvAsFloat("RISK_NET_MIN_BPS", 10),
			MaxTotalSize:     getEnvAsFloat("RISK_MAX_TOTAL_SIZE", 0),
			RequireBothSides: getEnvAsBool("RISK_REQUIRE_BOTH_SIDES", true),
			AllowPaperOnly:   getEnvAsBool("RISK_ALLOW_PAPER_ONLY", true),
		},
		Executor: ExecutorConfig{
			MinRealizedPnl: getEnvAsFloat("MIN_REALIZED_PNL", 0),
			InflightTTL:    getEnvAsDuration("INFLIGHT_TTL", 30*time.Second),
			ToggleRefresh:  getEnvAsDuration("TOGGLE_REFRESH", 1*time.Second),
		},
		Toggles: ToggleDefaults{
			AutoTrade: getEnvAsBool("AUTO_TRADE", false),
			Mode:      getEnv("MODE", "paper"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// SCAN_INTERVAL_MS and DISCOVER_EVERY_SEC are specified in the spec's
	// external-interface table as bare numbers, not Go durations.
	cfg.Scanner.ScanInterval = time.Duration(getEnvAsInt64("SCAN_INTERVAL_MS", 500)) * time.Millisecond
	cfg.Scanner.DiscoverEvery = time.Duration(getEnvAsInt64("DISCOVER_EVERY_SEC", 60)) * time.Second

	cfg.TakerBps = parseTakerBps(os.Environ())

	if cfg.Toggles.Mode != "paper" && cfg.Toggles.Mode != "live" {
		return nil, fmt.Errorf("MODE must be \"paper\" or \"live\", got %q", cfg.Toggles.Mode)
	}

	return cfg, nil
}

// parseTakerBps scans the process environment for <VENUE>_TAKER_BPS
// variables and returns them lower-cased by venue name.
func parseTakerBps(environ []string) map[string]float64 {
	out := make(map[string]float64)
	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], parts[1]
		if !strings.HasSuffix(key, "_TAKER_BPS") {
			continue
		}
		venue := strings.ToLower(strings.TrimSuffix(key, "_TAKER_BPS"))
		if venue == "" {
			continue
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			continue
		}
		out[venue] = f
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
