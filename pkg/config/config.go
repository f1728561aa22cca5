package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Token modes for the client-side session marker.
const (
	TokenModePseudo = "pseudo"
	TokenModeSigned = "signed"
)

type Config struct {
	Env string

	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Bulk    BulkConfig
	Exports ExportsConfig
	Gateway GatewayConfig
	CORS    CORSConfig
	Log     LogConfig
}

// APIConfig describes the remote school-management backend.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// SessionConfig selects where authToken/currentUser live.
type SessionConfig struct {
	Backend   string
	TTL       time.Duration
	Namespace string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig controls how the login marker is minted.
type AuthConfig struct {
	TokenMode   string
	TokenSecret string
}

// BulkConfig bounds concurrent fan-out for bulk operations.
type BulkConfig struct {
	Concurrency int
}

// ExportsConfig locates rendered files and the signed links that serve them.
type ExportsConfig struct {
	Dir     string
	LinkTTL time.Duration
	// BaseURL is the gateway address used in download links.
	BaseURL string
}

type GatewayConfig struct {
	Port int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL:   strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout:   parseDuration(v.GetString("API_TIMEOUT"), 30*time.Second),
		UserAgent: v.GetString("API_USER_AGENT"),
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("SESSION_BACKEND")))
	if backend != SessionBackendRedis {
		backend = SessionBackendMemory
	}
	cfg.Session = SessionConfig{
		Backend:   backend,
		TTL:       parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		Namespace: v.GetString("SESSION_NAMESPACE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("AUTH_TOKEN_MODE")))
	if mode != TokenModeSigned {
		mode = TokenModePseudo
	}
	cfg.Auth = AuthConfig{
		TokenMode:   mode,
		TokenSecret: v.GetString("AUTH_TOKEN_SECRET"),
	}

	concurrency := v.GetInt("BULK_CONCURRENCY")
	if concurrency <= 0 {
		concurrency = 8
	}
	cfg.Bulk = BulkConfig{Concurrency: concurrency}

	cfg.Exports = ExportsConfig{
		Dir:     v.GetString("EXPORTS_DIR"),
		LinkTTL: parseDuration(v.GetString("EXPORTS_LINK_TTL"), 24*time.Hour),
		BaseURL: strings.TrimRight(v.GetString("EXPORTS_BASE_URL"), "/"),
	}
	cfg.Gateway = GatewayConfig{Port: v.GetInt("GATEWAY_PORT")}
	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "https://sicalibackend.mangelg.space/api")
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("API_USER_AGENT", "sicali-client/1.0")

	v.SetDefault("SESSION_BACKEND", SessionBackendMemory)
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_NAMESPACE", "sicali:session:default")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_TOKEN_MODE", TokenModePseudo)
	v.SetDefault("AUTH_TOKEN_SECRET", "dev_session_secret")

	v.SetDefault("BULK_CONCURRENCY", 8)
	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORTS_LINK_TTL", "24h")
	v.SetDefault("EXPORTS_BASE_URL", "http://localhost:8081")
	v.SetDefault("GATEWAY_PORT", 8081)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
