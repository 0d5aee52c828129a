package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for every setting.
const EnvPrefix = "ADPLANNER"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// NewLoaderWithViper creates a loader around an existing viper instance so
// cobra flags bound to it take part in resolution.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load resolves configuration. Precedence, highest first:
// flags, ADPLANNER_* environment, .adplanner.yaml in the working directory,
// ~/.config/adplanner/config.yaml, defaults.
func (l *Loader) Load() (*Config, error) {
	setDefaults(l.v)

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".adplanner")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "adplanner"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	applyDerived(&cfg)
	return &cfg, nil
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	v.SetDefault("oracle.provider", "openai")
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.base_url", "")
	v.SetDefault("oracle.timeout", "30s")
	v.SetDefault("oracle.max_attempts", 2)
	v.SetDefault("oracle.rate_per_second", 2.0)
	v.SetDefault("oracle.burst", 4)

	v.SetDefault("workflow.advance_debounce", "1s")
	v.SetDefault("workflow.narrate", true)

	v.SetDefault("sessions.idle_ttl", "30m")
	v.SetDefault("sessions.max", 256)

	v.SetDefault("catalog.advertisers", "data/advertiser_vectors.json")
	v.SetDefault("catalog.segments", "data/segments.csv")
	v.SetDefault("catalog.preferences", "data/preferences.json")
	v.SetDefault("catalog.watch", false)

	v.SetDefault("store.path", ".adplanner/plans.db")
	v.SetDefault("export.dir", "exports")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
}

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"gemini": "gemini-2.5-flash",
}

// applyDerived fills values that depend on other settings.
func applyDerived(cfg *Config) {
	cfg.Oracle.Provider = strings.ToLower(strings.TrimSpace(cfg.Oracle.Provider))
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = DefaultModels[cfg.Oracle.Provider]
	}
	if cfg.Oracle.APIKey == "" {
		switch cfg.Oracle.Provider {
		case "openai":
			cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.Oracle.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}
