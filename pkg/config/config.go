package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Session configuration
	Session SessionConfig `mapstructure:"session"`

	// Schedule view configuration
	Schedule ScheduleConfig `mapstructure:"schedule"`

	// Export configuration
	Export ExportConfig `mapstructure:"export"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// StorageConfig selects and configures the persistence backend. The file
// backend is the offline-first default; postgres serves clinics with a
// shared on-site database.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // "file" or "postgres"
	DataDir  string         `mapstructure:"data_dir"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds connection settings for the postgres backend.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// DSN builds the lib/pq connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// SessionConfig holds session token configuration
type SessionConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	TTLHours  int    `mapstructure:"ttl_hours"`
	Issuer    string `mapstructure:"issuer"`
}

// ScheduleConfig holds the schedule-view reconciliation settings. The
// refresh interval papers over missed change notifications; it is a
// correctness contract, not a tuning knob.
type ScheduleConfig struct {
	RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds"`
}

// ExportConfig holds record-export settings.
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Load loads configuration from config files and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ubscare")

	setDefaults()

	viper.SetEnvPrefix("UBSCARE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.data_dir", "./data")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", 5432)
	viper.SetDefault("storage.postgres.name", "ubscare")
	viper.SetDefault("storage.postgres.user", "ubscare")
	viper.SetDefault("storage.postgres.ssl_mode", "disable")
	viper.SetDefault("storage.postgres.max_open_conns", 10)
	viper.SetDefault("storage.postgres.max_idle_conns", 2)
	viper.SetDefault("storage.postgres.conn_max_lifetime", 300)

	viper.SetDefault("session.ttl_hours", 12)
	viper.SetDefault("session.issuer", "ubscare")

	viper.SetDefault("schedule.refresh_interval_seconds", 3)

	viper.SetDefault("export.output_dir", "./exports")

	viper.SetDefault("log_level", "info")
}

// validate checks required configuration values
func validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Backend == "file" && cfg.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required for the file backend")
	}

	if cfg.Schedule.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("schedule.refresh_interval_seconds must be positive")
	}

	return nil
}
