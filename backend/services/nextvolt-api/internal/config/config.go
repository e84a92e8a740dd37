package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "nextvolt/backend/libs/config"
	"nextvolt/backend/services/nextvolt-api/internal/geo"
	"nextvolt/backend/services/nextvolt-api/internal/ledger"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Port string `yaml:"port" env:"NEXTVOLT_HTTP_PORT"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"NEXTVOLT_STORAGE_DRIVER"`
	// SeedDir holds stations.json and vehicles.json loaded into the memory
	// store at startup.
	SeedDir string `yaml:"seedDir" env:"NEXTVOLT_SEED_DIR"`
}

// DatabaseConfig is used by the postgres driver.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn" env:"NEXTVOLT_POSTGRES_DSN"`
	AutoMigrate bool   `yaml:"autoMigrate" env:"NEXTVOLT_POSTGRES_AUTO_MIGRATE"`
}

// RedisConfig enables the shared lock. Empty Addr keeps locks in process.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"NEXTVOLT_REDIS_ADDR"`
	Password string `yaml:"password" env:"NEXTVOLT_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"NEXTVOLT_REDIS_DB"`
}

// JWTConfig configures session tokens.
type JWTConfig struct {
	Secret           string `yaml:"secret" env:"NEXTVOLT_JWT_SECRET"`
	ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"NEXTVOLT_JWT_EXPIRES_MINUTES"`
}

// AuthConfig toggles token checks on /users routes.
type AuthConfig struct {
	Enforce bool `yaml:"enforce" env:"NEXTVOLT_AUTH_ENFORCE"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" env:"NEXTVOLT_CORS_ALLOWED_ORIGINS"`
}

// ReservationsConfig holds duration rules and the expiry sweeper.
type ReservationsConfig struct {
	DefaultMinutes int `yaml:"defaultMinutes" env:"NEXTVOLT_RESERVATION_DEFAULT_MINUTES"`
	MinMinutes     int `yaml:"minMinutes" env:"NEXTVOLT_RESERVATION_MIN_MINUTES"`
	MaxMinutes     int `yaml:"maxMinutes" env:"NEXTVOLT_RESERVATION_MAX_MINUTES"`
	// SweepIntervalSeconds of zero keeps expiry advisory.
	SweepIntervalSeconds int `yaml:"sweepIntervalSeconds" env:"NEXTVOLT_RESERVATION_SWEEP_SECONDS"`
	LockTTLSeconds       int `yaml:"lockTTLSeconds" env:"NEXTVOLT_LOCK_TTL_SECONDS"`
}

// WebsocketConfig tunes the station feed.
type WebsocketConfig struct {
	PingIntervalSeconds int `yaml:"pingIntervalSeconds" env:"NEXTVOLT_WS_PING_SECONDS"`
	WriteTimeoutSeconds int `yaml:"writeTimeoutSeconds" env:"NEXTVOLT_WS_WRITE_TIMEOUT_SECONDS"`
}

// LogConfig sets the zap level.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Config defines nextvolt-api configuration.
type Config struct {
	Log            LogConfig          `yaml:"log"`
	HTTP           HTTPConfig         `yaml:"http"`
	Storage        StorageConfig      `yaml:"storage"`
	Database       DatabaseConfig     `yaml:"database"`
	Redis          RedisConfig        `yaml:"redis"`
	JWT            JWTConfig          `yaml:"jwt"`
	Auth           AuthConfig         `yaml:"auth"`
	CORS           CORSConfig         `yaml:"cors"`
	Recommendation geo.Config         `yaml:"recommendation" env:"NEXTVOLT_RECOMMENDATION"`
	Reservations   ReservationsConfig `yaml:"reservations"`
	Websocket      WebsocketConfig    `yaml:"websocket"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info"},
		HTTP:    HTTPConfig{Port: "3000"},
		Storage: StorageConfig{Driver: DriverMemory},
		JWT:     JWTConfig{Secret: "change-me", ExpiresInMinutes: 60 * 24},
		CORS: CORSConfig{AllowedOrigins: []string{
			"http://localhost:3000",
			"http://10.0.2.2:3000",
		}},
		Recommendation: geo.DefaultConfig(),
		Reservations: ReservationsConfig{
			DefaultMinutes: ledger.DefaultConfig().DefaultMinutes,
			MinMinutes:     ledger.DefaultConfig().MinMinutes,
			MaxMinutes:     ledger.DefaultConfig().MaxMinutes,
			LockTTLSeconds: 10,
		},
		Websocket: WebsocketConfig{
			PingIntervalSeconds: 30,
			WriteTimeoutSeconds: 10,
		},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: database dsn required for postgres storage")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret required")
	}
	if c.Reservations.MinMinutes <= 0 {
		return errors.New("config: reservations.minMinutes must be positive")
	}
	if c.Reservations.DefaultMinutes < c.Reservations.MinMinutes {
		return errors.New("config: reservations.defaultMinutes must not be below minMinutes")
	}
	if c.Reservations.MaxMinutes < c.Reservations.DefaultMinutes {
		return errors.New("config: reservations.maxMinutes must not be below defaultMinutes")
	}
	if c.Reservations.SweepIntervalSeconds < 0 {
		return errors.New("config: reservations.sweepIntervalSeconds must not be negative")
	}
	return c.Recommendation.Validate()
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "3000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// TokenTTL returns the JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.JWT.ExpiresInMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}

// Ledger returns reservation duration rules.
func (c *Config) Ledger() ledger.Config {
	return ledger.Config{
		DefaultMinutes: c.Reservations.DefaultMinutes,
		MinMinutes:     c.Reservations.MinMinutes,
		MaxMinutes:     c.Reservations.MaxMinutes,
	}
}

// SweepInterval is zero when the sweeper is disabled.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Reservations.SweepIntervalSeconds) * time.Second
}

// LockTTL bounds how long a crashed holder keeps a Redis lock.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Reservations.LockTTLSeconds) * time.Second
}

// PingInterval returns the websocket keepalive period.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Websocket.PingIntervalSeconds) * time.Second
}

// WriteTimeout returns the websocket write deadline.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Websocket.WriteTimeoutSeconds) * time.Second
}
