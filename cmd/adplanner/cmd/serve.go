package cmd

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gangwaa/NerualAdsV2/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the campaign planner HTTP API.

Each client conversation is an isolated session, addressed by the
X-Session-ID header on /agent routes or by path under /api/v1/sessions.

Examples:
  # Start with defaults (127.0.0.1:8080)
  adplanner serve

  # Listen on all interfaces
  adplanner serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "127.0.0.1", "Host address to bind to")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	go rt.sessions.Run(ctx)
	if cfg.Catalog.Watch {
		go func() {
			if err := rt.catalog.Advertisers.Watch(ctx, cfg.Catalog.Advertisers, logger); err != nil {
				logger.Warn("advertiser watch stopped", "error", err)
			}
		}()
	}

	srv := api.NewServer(rt.sessions,
		api.WithLogger(logger),
		api.WithCatalog(rt.catalog),
		api.WithPlanStore(rt.store),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
	)
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	return srv.ListenAndServe(ctx, addr)
}

// contextOrBackground guards commands invoked without a context in tests.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
