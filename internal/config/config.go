package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for meditrack
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// RemoteConfig holds settings for the remote reminder backend
type RemoteConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	Timeout         int     `mapstructure:"timeout"`
	RequestsPerSec  float64 `mapstructure:"requests_per_sec"`
	Burst           int     `mapstructure:"burst"`
	BreakerFailures uint32  `mapstructure:"breaker_failures"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// NotifyConfig holds secondary notification channel settings
type NotifyConfig struct {
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
}

// WhatsAppConfig holds Twilio WhatsApp settings
type WhatsAppConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

// SchedulerConfig holds reminder scheduling settings
type SchedulerConfig struct {
	SnoozeMinutes int  `mapstructure:"snooze_minutes"`
	Vibration     bool `mapstructure:"vibration"`
}

// SecurityConfig holds security settings
type SecurityConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret"`
	AdminPassword string   `mapstructure:"admin_password"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "meditrack.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "meditrack.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (MEDITRACK_SERVER_PORT, MEDITRACK_REMOTE_BASE_URL, etc.)
	v.SetEnvPrefix("MEDITRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// Remote backend defaults
	v.SetDefault("remote.base_url", "http://localhost:5000/api")
	v.SetDefault("remote.timeout", 15)
	v.SetDefault("remote.requests_per_sec", 10.0)
	v.SetDefault("remote.burst", 5)
	v.SetDefault("remote.breaker_failures", 5)

	// Scheduler defaults
	v.SetDefault("scheduler.snooze_minutes", 15)
	v.SetDefault("scheduler.vibration", true)

	// Security defaults
	v.SetDefault("security.allow_origins", []string{"*"})
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "meditrack")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "meditrack")
}

// loadEnvOverrides loads specific env vars that Viper doesn't handle well
// with nested structs
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.Server.Address = getEnv("MEDITRACK_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("MEDITRACK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.Remote.BaseURL = getEnv("MEDITRACK_REMOTE_BASE_URL", cfg.Remote.BaseURL)

	cfg.Storage.DataDir = getEnv("MEDITRACK_STORAGE_DATA_DIR", cfg.Storage.DataDir)

	cfg.Notify.WhatsApp.AccountSID = getEnv("MEDITRACK_NOTIFY_WHATSAPP_ACCOUNT_SID", cfg.Notify.WhatsApp.AccountSID)
	cfg.Notify.WhatsApp.AuthToken = getEnv("MEDITRACK_NOTIFY_WHATSAPP_AUTH_TOKEN", cfg.Notify.WhatsApp.AuthToken)
	cfg.Notify.WhatsApp.FromNumber = getEnv("MEDITRACK_NOTIFY_WHATSAPP_FROM_NUMBER", cfg.Notify.WhatsApp.FromNumber)
	if cfg.Notify.WhatsApp.AccountSID != "" && cfg.Notify.WhatsApp.AuthToken != "" {
		cfg.Notify.WhatsApp.Enabled = true
	}

	cfg.Security.JWTSecret = getEnv("MEDITRACK_SECURITY_JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Security.AdminPassword = getEnv("MEDITRACK_SECURITY_ADMIN_PASSWORD", cfg.Security.AdminPassword)
}

func validate(cfg *Config) error {
	if cfg.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url must be set")
	}
	if cfg.Scheduler.SnoozeMinutes <= 0 {
		cfg.Scheduler.SnoozeMinutes = 15
	}
	if cfg.Notify.WhatsApp.Enabled {
		if cfg.Notify.WhatsApp.AccountSID == "" || cfg.Notify.WhatsApp.AuthToken == "" || cfg.Notify.WhatsApp.FromNumber == "" {
			return fmt.Errorf("notify.whatsapp requires account_sid, auth_token and from_number")
		}
	}
	return nil
}
