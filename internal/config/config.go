package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

const appName = "every-time"

type Config struct {
	Auth    AuthConfig    `mapstructure:"auth"`
	Timers  TimerConfig   `mapstructure:"timers"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type AuthConfig struct {
	StartPort       int           `mapstructure:"start_port" validate:"required|min:1|max:65535"`
	MaxPortAttempts int           `mapstructure:"max_port_attempts" validate:"required|min:1|max:1000"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"required|min:1"`
	EncryptToken    bool          `mapstructure:"encrypt_token"`
}

type TimerConfig struct {
	AutosaveInterval time.Duration `mapstructure:"autosave_interval" validate:"required|min:1"`
	HistoryLimit     int           `mapstructure:"history_limit" validate:"required|min:1|max:100"`
	EventTimeZone    string        `mapstructure:"event_time_zone"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

var defaultConfig = Config{
	Auth: AuthConfig{
		StartPort:       8080,
		MaxPortAttempts: 10,
		Timeout:         5 * time.Minute,
		EncryptToken:    true,
	},
	Timers: TimerConfig{
		AutosaveInterval: 30 * time.Second,
		HistoryLimit:     100,
		EventTimeZone:    "",
	},
	Metrics: MetricsConfig{
		Enabled: false,
		Listen:  "127.0.0.1:9464",
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	c := defaultConfig
	return &c
}

// Load reads config.toml from configPath (or the default config directory),
// writing a commented default file on first run. Values can be overridden
// with EVERY_TIME_<SECTION>_<KEY> environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigName("config")

	if configPath == "" {
		configDir, err := GetDefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		configPath = configDir
	}

	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.SetEnvPrefix("EVERY_TIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := createDefaultConfig(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		// A freshly written file only holds defaults; keep going on what
		// viper already has if it still cannot be read.
		_ = v.ReadInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks every section against its struct tags.
func (c *Config) Validate() error {
	sections := map[string]any{
		"auth":   &c.Auth,
		"timers": &c.Timers,
	}
	for name, section := range sections {
		v := validate.Struct(section)
		if !v.Validate() {
			return fmt.Errorf("invalid %s configuration: %s", name, v.Errors.One())
		}
	}

	if c.Timers.EventTimeZone != "" {
		if _, err := time.LoadLocation(c.Timers.EventTimeZone); err != nil {
			return fmt.Errorf("invalid timers configuration: unknown time zone %q", c.Timers.EventTimeZone)
		}
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("invalid metrics configuration: listen address is required when enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Auth
	v.SetDefault("auth.start_port", defaultConfig.Auth.StartPort)
	v.SetDefault("auth.max_port_attempts", defaultConfig.Auth.MaxPortAttempts)
	v.SetDefault("auth.timeout", defaultConfig.Auth.Timeout)
	v.SetDefault("auth.encrypt_token", defaultConfig.Auth.EncryptToken)

	// Timers
	v.SetDefault("timers.autosave_interval", defaultConfig.Timers.AutosaveInterval)
	v.SetDefault("timers.history_limit", defaultConfig.Timers.HistoryLimit)
	v.SetDefault("timers.event_time_zone", defaultConfig.Timers.EventTimeZone)

	// Metrics
	v.SetDefault("metrics.enabled", defaultConfig.Metrics.Enabled)
	v.SetDefault("metrics.listen", defaultConfig.Metrics.Listen)
}

func createDefaultConfig(configPath string) error {
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.toml")
	if _, err := os.Stat(configFile); err == nil {
		return nil
	}

	configContent := `# every-time configuration

[auth]
start_port = 8080         # first port tried by the OAuth redirect listener
max_port_attempts = 10    # ports tried before giving up
timeout = "5m"            # how long to wait for the browser callback
encrypt_token = true      # seal the OAuth token at rest

[timers]
autosave_interval = "30s" # how often running timers are written to disk
history_limit = 100       # sessions kept in history
event_time_zone = ""      # IANA zone for calendar events, empty = local

[metrics]
enabled = false
listen = "127.0.0.1:9464"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigDir returns ~/.config/every-time
func GetDefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetDefaultDataDir returns ~/.local/share/every-time, where the store,
// the salt and the user credentials file live.
func GetDefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", appName), nil
}
