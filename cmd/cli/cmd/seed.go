package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/displayquote/internal/seed"
)

var seedOverwrite bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the bundled sample catalogs into the catalog directory",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedOverwrite, "overwrite", false, "replace sample catalogs that were edited locally")
}

func runSeed(cmd *cobra.Command, args []string) error {
	stats, err := seed.Run(seed.Config{CatalogDir: cfg.CatalogDir, Overwrite: seedOverwrite})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d added, %d replaced\n", cfg.CatalogDir, stats.Inserts, stats.Updates)
	return nil
}
