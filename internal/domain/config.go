package domain

import (
	"path/filepath"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Extractor    ExtractorConfig    `mapstructure:"extractor"`
	Cache        CacheConfig        `mapstructure:"cache"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir       string `mapstructure:"base_dir"`
	LogsDir       string `mapstructure:"logs_dir"`
	MaxConcurrent int    `mapstructure:"max_concurrent"` // 0 means one worker per request, unbounded
}

// KindDir returns the destination directory for a media kind
func (c DownloadConfig) KindDir(kind MediaKind) string {
	return filepath.Join(c.BaseDir, kind.Dir())
}

// ExtractorConfig contains yt-dlp configuration
type ExtractorConfig struct {
	Binary           string        `mapstructure:"binary"`
	CookiesBrowser   string        `mapstructure:"cookies_browser"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
}

// CacheConfig contains content cache configuration
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Dir           string        `mapstructure:"dir"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	MaxSize       int64         `mapstructure:"max_size"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
}

// HistoryConfig contains download history configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Download: DownloadConfig{
			BaseDir:       "$HOME/Downloads/MediaDownloader",
			LogsDir:       "$HOME/.mediadl/logs",
			MaxConcurrent: 4,
		},
		Extractor: ExtractorConfig{
			Binary:           "yt-dlp",
			CookiesBrowser:   DefaultCookiesBrowser,
			ProgressInterval: 500 * time.Millisecond,
			ProbeTimeout:     2 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           "$HOME/.media_downloader_cache",
			MaxAge:        7 * 24 * time.Hour,
			MaxSize:       5 * 1024 * 1024 * 1024,
			EvictInterval: time.Hour,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.mediadl/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   true,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
