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

type Config struct {
	Env  string
	Port int

	Upstream UpstreamConfig
	Redis    RedisConfig
	Session  SessionConfig
	CORS     CORSConfig
	Log      LogConfig
	Locales  []string
}

// UpstreamConfig locates the AG Office API the console signs users into.
type UpstreamConfig struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	LoadConfiguration bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// Enabled selects Redis as the durable token tier; otherwise durable
	// tokens live in process memory and do not survive a restart.
	Enabled bool
	Prefix  string
}

// SessionConfig tunes browsing contexts and token handling.
type SessionConfig struct {
	CookieName    string
	CookieSecure  bool
	DurableTTL    time.Duration
	IdleTTL       time.Duration
	SweepInterval time.Duration
	ExpiryBuffer  time.Duration
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

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Upstream = UpstreamConfig{
		BaseURL:           strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout:           parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		UserAgent:         v.GetString("UPSTREAM_USER_AGENT"),
		LoadConfiguration: v.GetBool("UPSTREAM_LOAD_CONFIGURATION"),
	}
	if cfg.Upstream.BaseURL == "" {
		return nil, errors.New("UPSTREAM_BASE_URL is required")
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Prefix:   v.GetString("REDIS_PREFIX"),
	}

	cfg.Session = SessionConfig{
		CookieName:    v.GetString("SESSION_COOKIE_NAME"),
		CookieSecure:  v.GetBool("SESSION_COOKIE_SECURE"),
		DurableTTL:    parseDuration(v.GetString("SESSION_DURABLE_TTL"), 30*24*time.Hour),
		IdleTTL:       parseDuration(v.GetString("SESSION_IDLE_TTL"), 30*time.Minute),
		SweepInterval: parseDuration(v.GetString("SESSION_SWEEP_INTERVAL"), time.Minute),
		ExpiryBuffer:  parseDuration(v.GetString("SESSION_EXPIRY_BUFFER"), time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Locales = splitAndTrim(v.GetString("LOCALES"))

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8000/api/v1")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_USER_AGENT", "ag-office-console")
	v.SetDefault("UPSTREAM_LOAD_CONFIGURATION", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_PREFIX", "agconsole")

	v.SetDefault("SESSION_COOKIE_NAME", "ag_console_ctx")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_DURABLE_TTL", "720h")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("SESSION_EXPIRY_BUFFER", "60s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOCALES", "fr,en")
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
