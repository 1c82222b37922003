package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// APIConfig holds the REST API connection settings.
type APIConfig struct {
	// BaseURL is the API root, including the /api prefix.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutMs bounds every single HTTP attempt.
	TimeoutMs int `mapstructure:"timeout_ms" yaml:"timeout_ms"`

	// RetryAttempts is how many times a network-class failure is retried.
	RetryAttempts int `mapstructure:"retry_attempts" yaml:"retry_attempts"`

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// Timeout returns TimeoutMs as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// NotificationConfig holds notification polling preferences.
type NotificationConfig struct {
	PollIntervalMs int  `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	EnablePolling  bool `mapstructure:"enable_polling" yaml:"enable_polling"`
	AutoRefresh    bool `mapstructure:"auto_refresh" yaml:"auto_refresh"`
}

// PollInterval returns PollIntervalMs as a duration.
func (c NotificationConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

type OrderConfig struct {
	PageSize int     `mapstructure:"page_size" yaml:"page_size"`
	TaxRate  float64 `mapstructure:"tax_rate" yaml:"tax_rate"`
}

type CartConfig struct {
	FreeShippingThreshold int64 `mapstructure:"free_shipping_threshold" yaml:"free_shipping_threshold"`
	ShippingFee           int64 `mapstructure:"shipping_fee" yaml:"shipping_fee"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Locale   string `mapstructure:"locale" yaml:"locale"`
	Currency string `mapstructure:"currency" yaml:"currency"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
	Env   string `mapstructure:"env" yaml:"env"`
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig          `mapstructure:"api" yaml:"api"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Orders        OrderConfig        `mapstructure:"orders" yaml:"orders"`
	Cart          CartConfig         `mapstructure:"cart" yaml:"cart"`
	Display       DisplayConfig      `mapstructure:"display" yaml:"display"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`
	Metrics       MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	Storage       StorageConfig      `mapstructure:"storage" yaml:"storage"`
}

// envPrefix is the prefix for environment overrides, e.g. STOREFRONT_API_BASE_URL.
const envPrefix = "STOREFRONT"

// configDir returns ~/.config/storefront, or the working directory when the
// home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "storefront")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/storefront/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout_ms", 10000)
	v.SetDefault("api.retry_attempts", 3)
	v.SetDefault("api.requests_per_second", 10)
	v.SetDefault("notifications.poll_interval_ms", 30000)
	v.SetDefault("notifications.enable_polling", false)
	v.SetDefault("notifications.auto_refresh", true)
	v.SetDefault("orders.page_size", 10)
	v.SetDefault("orders.tax_rate", 0.18)
	v.SetDefault("cart.free_shipping_threshold", 50000)
	v.SetDefault("cart.shipping_fee", 5000)
	v.SetDefault("display.locale", "fr")
	v.SetDefault("display.currency", "XOF")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(configDir(), "storefront.log"))
	v.SetDefault("log.env", "production")
	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("storage.path", filepath.Join(configDir(), "device.db"))
}

// DefaultConfig returns the configuration used when no file exists and no
// environment overrides are set.
func DefaultConfig() *AppConfig {
	v := viper.New()
	setDefaults(v)
	cfg := &AppConfig{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded first, and STOREFRONT_*
// environment variables override file values. A missing file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.API.TimeoutMs <= 0 {
		cfg.API.TimeoutMs = 10000
	}
	if cfg.API.RetryAttempts < 0 {
		cfg.API.RetryAttempts = 0
	}
	if cfg.Notifications.PollIntervalMs <= 0 {
		cfg.Notifications.PollIntervalMs = 30000
	}
	if cfg.Orders.PageSize <= 0 {
		cfg.Orders.PageSize = 10
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("orders", cfg.Orders)
	v.Set("cart", cfg.Cart)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("metrics", cfg.Metrics)
	v.Set("storage", cfg.Storage)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
