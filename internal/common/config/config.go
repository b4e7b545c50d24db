// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	ChatBackend ChatBackendConfig `mapstructure:"chat_backend"`
	GenAI       GenAIConfig       `mapstructure:"genai"`
	Geocoding   GeocodingConfig   `mapstructure:"geocoding"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"` // empty disables tracing export
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	ListenAddress  string   `mapstructure:"listen_address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	SessionTTL     int      `mapstructure:"session_ttl"` // seconds

	// Panel-toggle policy of the two UI shells. The dashboard keeps an
	// already-open map panel when a chart-only answer arrives, the
	// embeddable widget closes it.
	Dashboard PanelPolicyConfig `mapstructure:"dashboard"`
	Widget    PanelPolicyConfig `mapstructure:"widget"`
}

type PanelPolicyConfig struct {
	AutoCloseMapOnChartOnly bool `mapstructure:"auto_close_map_on_chart_only"`
}

// ChatBackendConfig points at the external service that actually answers
// chat questions. It is a collaborator, not part of this repo.
type ChatBackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type GenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type GeocodingConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type AnalysisConfig struct {
	// MaxCapabilityRounds bounds the model's geocode-request loop so a
	// misbehaving model cannot spin the orchestrator forever.
	MaxCapabilityRounds int `mapstructure:"max_capability_rounds"`
	Timeout             int `mapstructure:"timeout"` // milliseconds, whole analysis
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ChatTimeout returns the chat backend timeout as a duration.
func (c ChatBackendConfig) ChatTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// GenAITimeout returns the model turn timeout as a duration.
func (g GenAIConfig) GenAITimeout() time.Duration {
	return time.Duration(g.Timeout) * time.Millisecond
}

// AnalysisTimeout returns the whole-pipeline deadline as a duration.
func (a AnalysisConfig) AnalysisTimeout() time.Duration {
	return time.Duration(a.Timeout) * time.Millisecond
}

func validateConfig(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address is required")
	}
	if cfg.ChatBackend.BaseURL == "" {
		return fmt.Errorf("chat_backend.base_url is required")
	}
	if cfg.GenAI.Model == "" {
		return fmt.Errorf("genai.model is required")
	}
	if cfg.Analysis.MaxCapabilityRounds < 1 {
		return fmt.Errorf("analysis.max_capability_rounds must be >= 1")
	}
	return nil
}
