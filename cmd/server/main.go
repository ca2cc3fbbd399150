package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jengzang/dialysis-locator-go/internal/config"
	"github.com/jengzang/dialysis-locator-go/internal/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dialysis-locator",
	Short: "Map and access core for the dialysis center locator.",
	Long: `dialysis-locator serves the map rendering pipeline (culling, clustering,
marker icons) and the free-tier access layer (daily limits, premium
entitlement, ad gating) to the app shell over a local HTTP API.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Set log level. Available: debug, info, warn, error, fatal (default LOG_LEVEL)")
	rootCmd.PersistentFlags().String("dbpath", "", "SQLite database path (default DB_PATH)")
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("dbpath"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("loglevel"); v != "" {
		cfg.LogLevel = v
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
