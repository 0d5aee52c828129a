package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	provider  string
	model     string
	noColor   bool

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "adplanner",
	Short: "Plan CTV ad campaigns from a plain-language brief",
	Long: `adplanner turns a campaign brief into executable CTV line items in four
stages: campaign parsing, advertiser preference analysis, audience
generation and line item generation. Every stage calls an LLM and falls
back to deterministic data when the model is unavailable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion records build information for the version command.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .adplanner.yaml or ~/.config/adplanner/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "openai",
		"oracle provider (openai, gemini, offline)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "",
		"oracle model (default depends on provider)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored output")

	// Bind flags to viper (errors are nil when flag exists)
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("oracle.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("oracle.model", rootCmd.PersistentFlags().Lookup("model"))
}
