package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Events    EventsConfig    `mapstructure:"events"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	Workers   WorkersConfig   `mapstructure:"workers"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// RateLimitConfig holds per-action mutation limits. Actions maps an
// action key (e.g. create_card) to its per-window maximum; keys absent
// from the map fall back to Default.
type RateLimitConfig struct {
	Window  time.Duration  `mapstructure:"window"`
	Default int            `mapstructure:"default"`
	Actions map[string]int `mapstructure:"actions"`
}

// LimitFor resolves the configured maximum for an action key.
func (c RateLimitConfig) LimitFor(action string) int {
	if max, ok := c.Actions[action]; ok {
		return max
	}
	return c.Default
}

type EventsConfig struct {
	QueueSize int `mapstructure:"queue_size"`
	Workers   int `mapstructure:"workers"`
}

// WebhooksConfig controls outbound delivery plus the inbound callback
// endpoints. Inbound maps a source name (path segment of
// /api/v1/inbound/:source) to the shared secret its calls are signed with.
type WebhooksConfig struct {
	DeliveryTimeout         time.Duration     `mapstructure:"delivery_timeout"`
	MaxConcurrentDeliveries int               `mapstructure:"max_concurrent_deliveries"`
	Inbound                 map[string]string `mapstructure:"inbound"`
}

type WorkersConfig struct {
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	DueSoonHorizon    time.Duration `mapstructure:"due_soon_horizon"`
	DeliveryRetention time.Duration `mapstructure:"delivery_retention"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
