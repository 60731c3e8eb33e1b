package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath           string
	ServerPort       string
	LogLevel         string
	FacetTimeout     time.Duration
	NicknameAPIURL   string
	NicknameAPIToken string
	RedisAddr        string
	NicknameCacheTTL time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	facetTimeout, err := getDuration("FACET_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getDuration("NICKNAME_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:           getEnv("DB_PATH", "salmon.db"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		FacetTimeout:     facetTimeout,
		NicknameAPIURL:   getEnv("NICKNAME_API_URL", ""),
		NicknameAPIToken: getEnv("NICKNAME_API_TOKEN", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		NicknameCacheTTL: cacheTTL,
	}

	if cfg.FacetTimeout <= 0 {
		return nil, fmt.Errorf("FACET_TIMEOUT must be positive, got %s", cfg.FacetTimeout)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("facet_timeout", cfg.FacetTimeout).
		Bool("nicknames", cfg.NicknameAPIURL != "").
		Bool("redis", cfg.RedisAddr != "").
		Dur("nickname_cache_ttl", cfg.NicknameCacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
