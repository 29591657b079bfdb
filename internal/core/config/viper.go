package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the command after loading.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("server.max_leaves", d.Server.MaxLeaves)
	v.SetDefault("server.max_preview_docs", d.Server.MaxPreviewDocs)
	v.SetDefault("editor.max_depth", d.Editor.MaxDepth)
	v.SetDefault("editor.disable_or", d.Editor.DisableOr)
	v.SetDefault("editor.disable_and", d.Editor.DisableAnd)
	v.SetDefault("editor.subscriber_buffer", d.Editor.SubscriberBuffer)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("database.url", d.Database.URL)

	// FT_SERVER_PORT, FT_EDITOR_MAX_DEPTH, ...
	v.SetEnvPrefix("FT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxLeaves:      v.GetInt("server.max_leaves"),
			MaxPreviewDocs: v.GetInt("server.max_preview_docs"),
		},
		Editor: EditorConfig{
			MaxDepth:         v.GetInt("editor.max_depth"),
			DisableOr:        v.GetBool("editor.disable_or"),
			DisableAnd:       v.GetBool("editor.disable_and"),
			SubscriberBuffer: v.GetInt("editor.subscriber_buffer"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Addr:    v.GetString("metrics.addr"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges. Errors name the offending key.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("server.max_connections must be positive, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxLeaves <= 0 {
		return fmt.Errorf("server.max_leaves must be positive, got %d", cfg.Server.MaxLeaves)
	}
	if cfg.Server.MaxPreviewDocs <= 0 {
		return fmt.Errorf("server.max_preview_docs must be positive, got %d", cfg.Server.MaxPreviewDocs)
	}
	if cfg.Editor.MaxDepth < 1 || cfg.Editor.MaxDepth >= 64 {
		return fmt.Errorf("editor.max_depth must be between 1 and 63, got %d", cfg.Editor.MaxDepth)
	}
	if cfg.Editor.DisableOr && cfg.Editor.DisableAnd {
		return fmt.Errorf("editor.disable_or and editor.disable_and cannot both be set")
	}
	if cfg.Editor.SubscriberBuffer < 0 {
		return fmt.Errorf("editor.subscriber_buffer must not be negative, got %d", cfg.Editor.SubscriberBuffer)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr required when metrics.enabled is set")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use FT_HMAC_SECRET environment variable)")
	}
	return nil
}
