package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// TASKGRAPH_LISTEN or TASKGRAPH_HISTORY_PATH.
const EnvPrefix = "TASKGRAPH"

// Settings holds persistent CLI and server defaults.
type Settings struct {
	Listen        string          `mapstructure:"listen"`
	Format        string          `mapstructure:"format"` // text, json, yaml, sarif
	Color         bool            `mapstructure:"color"`
	Strict        bool            `mapstructure:"strict"` // fail on cycles and dangling references
	LogFormat     string          `mapstructure:"log_format"`
	MaxBodyBytes  int64           `mapstructure:"max_body_bytes"`
	WatchDebounce time.Duration   `mapstructure:"watch_debounce"`
	History       HistorySettings `mapstructure:"history"`
}

// HistorySettings controls the report history database.
type HistorySettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Retain  int    `mapstructure:"retain"` // newest reports kept by prune; 0 keeps all
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Listen:        ":8080",
		Format:        "text",
		Color:         true,
		LogFormat:     "text",
		MaxBodyBytes:  4 << 20,
		WatchDebounce: 200 * time.Millisecond,
		History: HistorySettings{
			Path:   ".taskgraph/history.db",
			Retain: 500,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("listen", d.Listen)
	v.SetDefault("format", d.Format)
	v.SetDefault("color", d.Color)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("max_body_bytes", d.MaxBodyBytes)
	v.SetDefault("watch_debounce", d.WatchDebounce)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.retain", d.History.Retain)
}

// LoadSettings reads a YAML config file into Settings, layered over the
// defaults and under TASKGRAPH_* environment variables.
// If the file does not exist, defaults and environment still apply.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &s, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

func (s *Settings) check() error {
	switch s.Format {
	case "text", "json", "yaml", "sarif":
	default:
		return fmt.Errorf("unknown format %q", s.Format)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", s.LogFormat)
	}
	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	return nil
}
