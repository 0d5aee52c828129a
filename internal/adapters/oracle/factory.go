// Package oracle holds the LLM providers behind core.Oracle.
package oracle

import (
	"context"
	"fmt"
	"sort"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Factory builds a provider from configuration.
type Factory func(ctx context.Context, cfg Config) (core.Oracle, error)

var factories = map[string]Factory{
	"openai": func(_ context.Context, cfg Config) (core.Oracle, error) {
		return NewOpenAI(cfg)
	},
	"gemini": func(ctx context.Context, cfg Config) (core.Oracle, error) {
		return NewGemini(ctx, cfg)
	},
	"offline": func(context.Context, Config) (core.Oracle, error) {
		return Offline{}, nil
	},
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the configured provider. A networked provider without an API
// key degrades to Offline; the returned bool reports that substitution.
func New(ctx context.Context, cfg Config) (core.Oracle, bool, error) {
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, false, core.ErrValidation(core.CodeInvalidConfig,
			fmt.Sprintf("unknown oracle provider %q", cfg.Provider))
	}
	if cfg.Provider != "offline" && cfg.APIKey == "" {
		return Offline{}, true, nil
	}
	o, err := factory(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	return o, false, nil
}
