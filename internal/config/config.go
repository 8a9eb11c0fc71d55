package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ugaemi/bubblewars-server/internal/game"
)

type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	MapFile     string

	BubbleSpeed float64
	CoinStipend int
	CoinPeriod  time.Duration
}

// Load reads the configuration from the environment. Variables in a .env file
// in the working directory are loaded first and never override the process
// environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	rules := game.DefaultRules()
	return &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MapFile:     getEnv("MAP_FILE", ""),
		BubbleSpeed: getEnvFloat("BUBBLE_SPEED", rules.BubbleSpeed),
		CoinStipend: getEnvInt("COIN_STIPEND", rules.CoinStipend),
		CoinPeriod:  getEnvDuration("COIN_PERIOD", rules.CoinPeriod),
	}
}

// Rules returns the match rules with the configured overrides applied.
func (c *Config) Rules() game.Rules {
	rules := game.DefaultRules()
	if c.BubbleSpeed > 0 {
		rules.BubbleSpeed = c.BubbleSpeed
	}
	if c.CoinStipend >= 0 {
		rules.CoinStipend = c.CoinStipend
	}
	if c.CoinPeriod > 0 {
		rules.CoinPeriod = c.CoinPeriod
	}
	return rules
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
