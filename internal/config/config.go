package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabasesConfig `mapstructure:"database"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Consent  ConsentConfig   `mapstructure:"consent"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Consent DatabaseConfig `mapstructure:"consent"`
}

// DatabaseConfig holds individual database configuration. Type is the Go SQL
// driver name and is also the input to dialect selection at startup.
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ConsentConfig holds consent-related configuration
type ConsentConfig struct {
	StatusMappings        ConsentStatusMappings `mapstructure:"status_mappings"`
	DefaultValidityPeriod int64                 `mapstructure:"default_validity_period"`
}

// ConsentStatusMappings holds the external string for each consent lifecycle
// state. The state machine operates on whichever strings are configured here.
type ConsentStatusMappings struct {
	ReceivedStatus   string `mapstructure:"received_status"`
	AuthorizedStatus string `mapstructure:"authorized_status"`
	AmendedStatus    string `mapstructure:"amended_status"`
	RejectedStatus   string `mapstructure:"rejected_status"`
	RevokedStatus    string `mapstructure:"revoked_status"`
	ExpiredStatus    string `mapstructure:"expired_status"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")
	}

	// Read from environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("CONSENT_MGT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults applies defaults for optional settings
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.consent.type", "mysql")
	v.SetDefault("database.consent.max_open_conns", 25)
	v.SetDefault("database.consent.max_idle_conns", 5)
	v.SetDefault("database.consent.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("consent.status_mappings.received_status", "received")
	v.SetDefault("consent.status_mappings.authorized_status", "authorized")
	v.SetDefault("consent.status_mappings.amended_status", "amended")
	v.SetDefault("consent.status_mappings.rejected_status", "rejected")
	v.SetDefault("consent.status_mappings.revoked_status", "revoked")
	v.SetDefault("consent.status_mappings.expired_status", "expired")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Consent.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}

	if config.Database.Consent.Database == "" {
		return fmt.Errorf("database name is required")
	}

	m := config.Consent.StatusMappings
	for name, value := range map[string]string{
		"received":   m.ReceivedStatus,
		"authorized": m.AuthorizedStatus,
		"amended":    m.AmendedStatus,
		"rejected":   m.RejectedStatus,
		"revoked":    m.RevokedStatus,
		"expired":    m.ExpiredStatus,
	} {
		if value == "" {
			return fmt.Errorf("%s status mapping is required", name)
		}
	}

	if config.Consent.DefaultValidityPeriod < 0 {
		return fmt.Errorf("default validity period must be non-negative")
	}

	return nil
}

// GetDSN returns the database connection string for the configured driver
func (d *DatabaseConfig) GetDSN() string {
	switch d.Type {
	case "postgres":
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Hostname,
			d.Port,
			d.User,
			d.Password,
			d.Database,
			sslMode,
		)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
			d.User,
			d.Password,
			d.Hostname,
			d.Port,
			d.Database,
		)
	}
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
