package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/adapters/oracle"
	"github.com/gangwaa/NerualAdsV2/internal/adapters/state"
	"github.com/gangwaa/NerualAdsV2/internal/config"
	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
	"github.com/gangwaa/NerualAdsV2/internal/service"
)

// loadConfig resolves and validates configuration from flags, environment
// and config files.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

// useColor reports whether styled output should be written to w.
func useColor(w io.Writer) bool {
	if noColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// buildOracle creates the configured provider wrapped in the timeout, rate
// limit and retry decorators. The offline provider is returned bare since it
// never answers.
func buildOracle(ctx context.Context, cfg *config.Config, logger *logging.Logger) (core.Oracle, error) {
	base, offline, err := oracle.New(ctx, oracle.Config{
		Provider: cfg.Oracle.Provider,
		Model:    cfg.Oracle.Model,
		APIKey:   cfg.Oracle.APIKey,
		BaseURL:  cfg.Oracle.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	if offline {
		logger.Warn("no API key configured, every stage will use fallback data",
			"provider", cfg.Oracle.Provider)
	}
	if _, ok := base.(oracle.Offline); ok {
		return base, nil
	}
	return service.DecorateOracle(base, service.OracleOptions{
		Timeout:       cfg.Oracle.Timeout,
		Retry:         service.NewRetryPolicy(service.WithMaxAttempts(cfg.Oracle.MaxAttempts)),
		RatePerSecond: cfg.Oracle.RatePerSecond,
		Burst:         cfg.Oracle.Burst,
		Logger:        logger.WithProvider(base.Name()),
	}), nil
}

// runtime holds the long-lived collaborators shared by commands.
type runtime struct {
	cfg      *config.Config
	logger   *logging.Logger
	catalog  *catalog.Catalog
	store    core.PlanStore
	sessions *service.SessionRegistry
}

// newRuntime loads catalogs, opens the plan store and builds the session
// registry. sequential disables the advance debounce for commands that drive
// the workflow themselves.
func newRuntime(ctx context.Context, cfg *config.Config, logger *logging.Logger, sequential bool) (*runtime, error) {
	cat, err := catalog.LoadAll(ctx, catalog.Paths{
		Advertisers: cfg.Catalog.Advertisers,
		Segments:    cfg.Catalog.Segments,
		Preferences: cfg.Catalog.Preferences,
	}, logger)
	if err != nil {
		return nil, err
	}

	o, err := buildOracle(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := state.NewPlanStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	advance := cfg.Workflow.AdvanceDebounce
	if sequential {
		advance = 0
	}
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		catalog: cat,
		store:   store,
		sessions: service.NewSessionRegistry(service.SessionOptions{
			Oracle:      o,
			Advertisers: cat.Advertisers,
			Store:       store,
			Logger:      logger,
			Debounce:    advance,
			Narrate:     cfg.Workflow.Narrate,
			IdleTTL:     cfg.Sessions.IdleTTL,
			MaxSessions: cfg.Sessions.Max,
		}),
	}, nil
}

// Close releases the plan store.
func (r *runtime) Close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("failed to close plan store", "error", err)
	}
}
