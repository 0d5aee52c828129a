package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve catalog lookup tools over MCP (stdio)",
	Long: `Serve the advertiser and segment catalogs as Model Context Protocol
tools on stdin/stdout:

  lookup_advertiser_preferences  historical vector and stored preferences
  list_audience_segments         ACR segments, optionally fuzzy-filtered

Logs go to stderr so they never corrupt the protocol stream.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	cat, err := catalog.LoadAll(contextOrBackground(cmd), catalog.Paths{
		Advertisers: cfg.Catalog.Advertisers,
		Segments:    cfg.Catalog.Segments,
		Preferences: cfg.Catalog.Preferences,
	}, logger)
	if err != nil {
		return err
	}
	return mcp.NewServer(cat, appVersion, logger).ServeStdio()
}
