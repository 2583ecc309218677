// Package config provides configuration types and defaults for okline.
package config

import (
	"fmt"
	"time"

	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/webdav"
)

// Config holds all configuration for okline.
type Config struct {
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	WebDAV      WebDAVConfig      `yaml:"webdav" mapstructure:"webdav"`
	Layout      LayoutConfig      `yaml:"layout" mapstructure:"layout"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	TUI         TUIConfig         `yaml:"tui" mapstructure:"tui"`
}

// PathsConfig holds file paths for the data file and logs.
type PathsConfig struct {
	Data string `yaml:"data" mapstructure:"data"`
	Log  string `yaml:"log" mapstructure:"log"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	SaveDebounce time.Duration `yaml:"save_debounce" mapstructure:"save_debounce"` // Quiet period before the viewer writes changes
}

// WebDAVConfig holds remote sync settings. Sync is disabled while URL is empty.
type WebDAVConfig struct {
	URL        string        `yaml:"url" mapstructure:"url"`
	Username   string        `yaml:"username" mapstructure:"username"`
	Password   string        `yaml:"password" mapstructure:"password"`
	RemotePath string        `yaml:"remote_path" mapstructure:"remote_path"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"` // Retries for 5xx and transport errors
}

// Client converts the settings to a webdav client configuration.
func (c WebDAVConfig) Client() webdav.Config {
	return webdav.Config{
		URL:        c.URL,
		Username:   c.Username,
		Password:   c.Password,
		RemotePath: c.RemotePath,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
	}
}

// LayoutConfig holds settings for the layout projector.
type LayoutConfig struct {
	Strategy    string `yaml:"strategy" mapstructure:"strategy"` // "grid" or "traversal"
	GapX        int    `yaml:"gap_x" mapstructure:"gap_x"`
	GapY        int    `yaml:"gap_y" mapstructure:"gap_y"`
	FutureCount int    `yaml:"future_count" mapstructure:"future_count"` // Upcoming nodes shown per recurrence timeline
}

// Options converts the settings to layout options.
func (c LayoutConfig) Options() (layout.Options, error) {
	st, err := layout.ParseStrategy(c.Strategy)
	if err != nil {
		return layout.Options{}, err
	}
	return layout.Options{
		Strategy:    st,
		GapX:        c.GapX,
		GapY:        c.GapY,
		FutureCount: c.FutureCount,
	}, nil
}

// LogRotationConfig holds settings for log file rotation.
// Used for the viewer debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// TUIConfig holds settings for the terminal viewer.
type TUIConfig struct {
	Density string `yaml:"density" mapstructure:"density"` // Node density: "compact", "standard", or "detailed"
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if _, err := layout.ParseStrategy(c.Layout.Strategy); err != nil {
		return fmt.Errorf("layout.strategy: %w", err)
	}
	switch c.TUI.Density {
	case "compact", "standard", "detailed":
	default:
		return fmt.Errorf("tui.density: unknown density %q", c.TUI.Density)
	}
	if c.Storage.SaveDebounce < 0 {
		return fmt.Errorf("storage.save_debounce: must not be negative")
	}
	if c.WebDAV.MaxRetries < 0 {
		return fmt.Errorf("webdav.max_retries: must not be negative")
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Data: ".okline/root-data.json",
			Log:  ".okline/okline.log",
		},
		Storage: StorageConfig{
			SaveDebounce: 800 * time.Millisecond,
		},
		WebDAV: WebDAVConfig{
			RemotePath: webdav.DefaultRemotePath,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Layout: LayoutConfig{
			Strategy:    string(layout.StrategyTraversal),
			GapX:        300,
			GapY:        100,
			FutureCount: 3,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		TUI: TUIConfig{
			Density: "standard",
		},
	}
}
