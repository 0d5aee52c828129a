package config

import "time"

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Oracle   OracleConfig   `mapstructure:"oracle" yaml:"oracle"`
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
	Sessions SessionsConfig `mapstructure:"sessions" yaml:"sessions"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Export   ExportConfig   `mapstructure:"export" yaml:"export"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// OracleConfig configures the LLM provider used by every stage.
type OracleConfig struct {
	// Provider is one of openai, gemini, offline.
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RatePerSecond float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst         int           `mapstructure:"burst" yaml:"burst"`
}

// WorkflowConfig configures the orchestrator.
type WorkflowConfig struct {
	AdvanceDebounce time.Duration `mapstructure:"advance_debounce" yaml:"advance_debounce"`
	// Narrate enables the second oracle call that writes stage reasoning.
	Narrate bool `mapstructure:"narrate" yaml:"narrate"`
}

// SessionsConfig configures the session registry.
type SessionsConfig struct {
	IdleTTL time.Duration `mapstructure:"idle_ttl" yaml:"idle_ttl"`
	Max     int           `mapstructure:"max" yaml:"max"`
}

// CatalogConfig points at the read-only fixture files.
type CatalogConfig struct {
	Advertisers string `mapstructure:"advertisers" yaml:"advertisers"`
	Segments    string `mapstructure:"segments" yaml:"segments"`
	Preferences string `mapstructure:"preferences" yaml:"preferences"`
	// Watch reloads the advertiser database when the file changes.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// StoreConfig configures plan persistence. An empty path disables it.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ExportConfig configures CSV export.
type ExportConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string   `mapstructure:"host" yaml:"host"`
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}
