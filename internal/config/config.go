package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store driver constants
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// REMIND_STORE__PATH=/tmp/r.json sets store.path.
const EnvPrefix = "REMIND_"

type Config struct {
	Store     StoreConfig     `koanf:"store"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Notify    NotifyConfig    `koanf:"notify"`
	Log       LogConfig       `koanf:"log"`
	UI        UIConfig        `koanf:"ui"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"` // json or sqlite
	Path   string `koanf:"path"`   // Relative paths resolve against the working directory
}

type SchedulerConfig struct {
	Interval int `koanf:"interval"` // Seconds between checks
}

type NotifyConfig struct {
	Icon      string         `koanf:"icon"`
	TimeoutMs int            `koanf:"timeout_ms"`
	Desktop   DesktopConfig  `koanf:"desktop"`
	Console   ConsoleConfig  `koanf:"console"`
	Telegram  TelegramConfig `koanf:"telegram"`
}

type DesktopConfig struct {
	Enabled bool   `koanf:"enabled"`
	AppName string `koanf:"app_name"`
}

type ConsoleConfig struct {
	Enabled bool `koanf:"enabled"`
}

type TelegramConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
	ChatID   string `koanf:"chat_id"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

type UIConfig struct {
	ColoredOutput bool `koanf:"colored_output"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Telegram credentials are commonly exported without the prefix
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" && k.String("notify.telegram.bot_token") == "" {
		k.Set("notify.telegram.bot_token", token)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Path = expandPath(cfg.Store.Path)

	return &cfg, nil
}

// envKey maps REMIND_NOTIFY__TELEGRAM__CHAT_ID to notify.telegram.chat_id.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver: %s (supported: %s, %s)",
			c.Store.Driver, DriverJSON, DriverSQLite)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}

	if c.Notify.TimeoutMs < 0 {
		return fmt.Errorf("notify timeout_ms must not be negative")
	}

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot_token is required (set TELEGRAM_BOT_TOKEN or add to config file)")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("telegram chat_id is required")
		}
	}

	return nil
}

// Interval returns the scheduler interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.Interval) * time.Second
}

// NotifyTimeout returns how long notifications stay on screen.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.TimeoutMs) * time.Millisecond
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
