package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Backend modes select where tenant data comes from.
const (
	BackendHTTP     = "http"
	BackendDatabase = "database"
)

const defaultSigningKey = "defaultsecretkey"

// DBConfig is the PostgreSQL connection used by the database backend mode
// and the checkout sink.
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
	AutoMigrate     bool
}

func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
}

// JWTConfig verifies dashboard owner tokens.
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

type LogConfig struct {
	Level string
}

// BackendConfig selects and configures the tenant data source.
type BackendConfig struct {
	Mode      string
	URL       string
	Token     string
	Timeout   time.Duration
	Resolve   time.Duration
	UseDBSink bool
}

// RedisConfig configures the snapshot cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// StorefrontConfig holds visitor-facing settings.
type StorefrontConfig struct {
	CurrencyLocale string
	SessionIdle    time.Duration
	SweepInterval  time.Duration
	SnapshotMaxAge time.Duration
	SecureCookies  bool
}

type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Backend     BackendConfig
	Redis       RedisConfig
	Storefront  StorefrontConfig
}

// Load reads configuration from the environment, after a .env file when one
// exists, and validates it.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: serviceName,
		DB:          loadDB(serviceName),
		Server: ServerConfig{
			Port:            envString("SERVER_PORT", "8080"),
			Env:             envString("APP_ENV", "development"),
			ShutdownTimeout: envDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			SigningKey:      envString("JWT_SIGNING_KEY", defaultSigningKey),
			ExpirationHours: envInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log:        LogConfig{Level: envString("LOG_LEVEL", "info")},
		Backend:    loadBackend(),
		Redis:      loadRedis(),
		Storefront: loadStorefront(),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDB(serviceName string) DBConfig {
	return DBConfig{
		Host:            envString("DB_HOST", "localhost"),
		Port:            envString("DB_PORT", "5432"),
		User:            envString("DB_USER", "postgres"),
		Password:        envString("DB_PASSWORD", "password"),
		DBName:          envString("DB_NAME", serviceName),
		SSLMode:         envString("DB_SSL_MODE", "disable"),
		MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		LogLevel:        env("DB_LOG_LEVEL", logger.Warn, parseGormLevel),
		AutoMigrate:     envBool("DB_AUTO_MIGRATE", false),
	}
}

func loadBackend() BackendConfig {
	return BackendConfig{
		Mode:      strings.ToLower(envString("BACKEND_MODE", BackendHTTP)),
		URL:       envString("BACKEND_URL", "http://localhost:8000/api"),
		Token:     envString("BACKEND_TOKEN", ""),
		Timeout:   envDuration("BACKEND_TIMEOUT", 5*time.Second),
		Resolve:   envDuration("RESOLVE_TIMEOUT", 8*time.Second),
		UseDBSink: envBool("CHECKOUT_TO_DATABASE", false),
	}
}

func loadRedis() RedisConfig {
	return RedisConfig{
		Addr:     envString("REDIS_ADDR", ""),
		Password: envString("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TTL:      envDuration("SNAPSHOT_CACHE_TTL", time.Minute),
	}
}

func loadStorefront() StorefrontConfig {
	return StorefrontConfig{
		CurrencyLocale: envString("CURRENCY_LOCALE", "en"),
		SessionIdle:    envDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		SweepInterval:  envDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		SnapshotMaxAge: envDuration("SNAPSHOT_MAX_AGE", 30*time.Second),
		SecureCookies:  envBool("SECURE_COOKIES", false),
	}
}

func (c *Config) validate() error {
	switch c.Backend.Mode {
	case BackendHTTP:
		if c.Backend.URL == "" {
			return fmt.Errorf("BACKEND_URL is required when BACKEND_MODE=%s", BackendHTTP)
		}
	case BackendDatabase:
	default:
		return fmt.Errorf("unknown BACKEND_MODE %q", c.Backend.Mode)
	}
	for name, d := range map[string]time.Duration{
		"SESSION_IDLE_TIMEOUT":   c.Storefront.SessionIdle,
		"SESSION_SWEEP_INTERVAL": c.Storefront.SweepInterval,
		"SNAPSHOT_MAX_AGE":       c.Storefront.SnapshotMaxAge,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Server.Env == "production" && c.JWT.SigningKey == defaultSigningKey {
		return fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}
	return nil
}

// NeedsDatabase reports whether the configuration opens a database connection.
func (c *Config) NeedsDatabase() bool {
	return c.Backend.Mode == BackendDatabase || c.Backend.UseDBSink
}

// LogConfig returns the startup fields worth logging. Secrets are left out.
func (c *Config) LogConfig() []zap.Field {
	fields := []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("backend_mode", c.Backend.Mode),
		zap.Bool("snapshot_cache", c.Redis.Addr != ""),
	}
	if c.Backend.Mode == BackendHTTP {
		fields = append(fields, zap.String("backend_url", c.Backend.URL))
	}
	if c.NeedsDatabase() {
		fields = append(fields,
			zap.String("db_host", c.DB.Host),
			zap.String("db_port", c.DB.Port),
			zap.String("db_user", c.DB.User),
			zap.String("db_name", c.DB.DBName))
	}
	return fields
}

// env parses key with parse, falling back to def when the variable is unset
// or does not parse.
func env[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func envString(key, def string) string {
	return env(key, def, func(s string) (string, error) { return s, nil })
}

func envInt(key string, def int) int { return env(key, def, strconv.Atoi) }

func envBool(key string, def bool) bool { return env(key, def, strconv.ParseBool) }

func envDuration(key string, def time.Duration) time.Duration {
	return env(key, def, time.ParseDuration)
}

func parseGormLevel(s string) (logger.LogLevel, error) {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "warn":
		return logger.Warn, nil
	case "info":
		return logger.Info, nil
	}
	return 0, fmt.Errorf("unknown gorm log level %q", s)
}
