package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/mediadl/internal/domain"
)

// LoadConfig loads configuration from file and environment on top of the defaults
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// AutomaticEnv only overrides keys viper already knows
	for key, value := range settings(config) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediadl")
		v.AddConfigPath("/etc/mediadl")
	}

	v.SetEnvPrefix("MEDIADL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// settings flattens config into viper keys
func settings(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host": config.Server.Host,
		"server.port": config.Server.Port,

		"download.base_dir":       config.Download.BaseDir,
		"download.logs_dir":       config.Download.LogsDir,
		"download.max_concurrent": config.Download.MaxConcurrent,

		"extractor.binary":            config.Extractor.Binary,
		"extractor.cookies_browser":   config.Extractor.CookiesBrowser,
		"extractor.progress_interval": config.Extractor.ProgressInterval.String(),
		"extractor.probe_timeout":     config.Extractor.ProbeTimeout.String(),

		"cache.enabled":        config.Cache.Enabled,
		"cache.dir":            config.Cache.Dir,
		"cache.max_age":        config.Cache.MaxAge.String(),
		"cache.max_size":       config.Cache.MaxSize,
		"cache.evict_interval": config.Cache.EvictInterval.String(),

		"history.enabled":       config.History.Enabled,
		"history.database_path": config.History.DatabasePath,

		"notification.enabled": config.Notification.Enabled,
		"notification.sound":   config.Notification.Sound,
		"notification.method":  config.Notification.Method,

		"logging.level":       config.Logging.Level,
		"logging.format":      config.Logging.Format,
		"logging.output_path": config.Logging.OutputPath,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Cache.Dir = expandPath(config.Cache.Dir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	// $HOME first so it resolves even where the variable is unset
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent cannot be negative")
	}

	if config.Cache.Enabled {
		if config.Cache.Dir == "" {
			return fmt.Errorf("cache directory not configured")
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("cache max size must be positive")
		}
		if config.Cache.MaxAge <= 0 {
			return fmt.Errorf("cache max age must be positive")
		}
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	switch config.Notification.Method {
	case "osascript", "notify-send":
	default:
		if config.Notification.Enabled {
			return fmt.Errorf("unknown notification method: %s", config.Notification.Method)
		}
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range settings(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
