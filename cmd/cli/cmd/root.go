// Package cmd provides the CLI commands for displayquote.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/config"
	"github.com/Simplici0/displayquote/internal/logging"
)

var (
	cfgFile    string
	catalogDir string
	verbose    bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "displayquote",
	Short: "Configure and price cardboard point-of-sale displays",
	Long: `displayquote resolves a display configuration into its bill of parts and
prices it with the catalog's unit tiers and markup matrix.

Examples:
  displayquote displays
  displayquote quote pdq/digital_pdq_tray --set footprint=fp-24x16 --set assembly=assembly-kdf --set quantity=100
  displayquote quote --catalog ./tray.json --form order.yaml --format json
  displayquote validate`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalogs", "", "catalog directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(displaysCmd)
	rootCmd.AddCommand(seedCmd)
}

func initConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded
	if catalogDir != "" {
		cfg.CatalogDir = catalogDir
	}

	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	} else {
		logCfg.Level = "warn"
	}
	l, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return
	}
	logger = l
}

func newRegistry() (*catalog.Registry, error) {
	registry := catalog.NewRegistry(cfg.CatalogDir, logger)
	if err := registry.Reload(); err != nil {
		return nil, err
	}
	return registry, nil
}
