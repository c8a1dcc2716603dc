package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List the display types found in the catalog directory",
	Args:  cobra.NoArgs,
	RunE:  runDisplays,
}

func runDisplays(cmd *cobra.Command, args []string) error {
	registry, err := newRegistry()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLABEL\tCATEGORY\tSTATUS")
	for _, e := range registry.List() {
		status := "ok"
		if e.Err != nil {
			status = "rejected"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key, e.Label, e.Category, status)
	}
	return w.Flush()
}
