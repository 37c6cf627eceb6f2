package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/app"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/config"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "elasticswap",
	Short: "Elastic ensemble sizing for streaming classification",
	Long: "Runs prequential evaluations of swap-only, grow-front, one-front and ARF-style\n" +
		"elastic ensembles over CSV/JSONL streams or synthetic generators, and keeps\n" +
		"the results in a local run store.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: elasticswap.yaml or configs/elasticswap.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "trace|debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "console|json (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

// newLogger writes to stderr so that tables on stdout stay clean.
func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	return app.NewLogger(cfg.Log, os.Stderr)
}
