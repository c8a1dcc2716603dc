package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/displayquote/internal/catalog"
)

var errInvalidCatalogs = errors.New("some catalogs are invalid")

var validateCmd = &cobra.Command{
	Use:   "validate [catalog.json...]",
	Short: "Check catalogs for configuration errors and defaulted values",
	Long: `Parse catalogs and report what would be rejected or silently defaulted.

With no arguments every catalog in the catalog directory is checked. The
command fails when any catalog has a configuration error.`,
	RunE: runValidate,
}

type validation struct {
	name     string
	err      error
	warnings []string
}

func runValidate(cmd *cobra.Command, args []string) error {
	var results []validation
	if len(args) > 0 {
		for _, path := range args {
			cat, err := catalog.Load(path)
			v := validation{name: path, err: err}
			if cat != nil {
				v.warnings = cat.Warnings
			}
			results = append(results, v)
		}
	} else {
		registry, err := newRegistry()
		if err != nil {
			return err
		}
		for _, e := range registry.List() {
			v := validation{name: e.Key, err: e.Err}
			if e.Catalog != nil {
				v.warnings = e.Catalog.Warnings
			}
			results = append(results, v)
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, v := range results {
		switch {
		case v.err != nil:
			failed++
			fmt.Fprintf(out, "FAIL %s\n  %v\n", v.name, v.err)
		case len(v.warnings) > 0:
			fmt.Fprintf(out, "WARN %s\n", v.name)
		default:
			fmt.Fprintf(out, "OK   %s\n", v.name)
		}
		for _, w := range v.warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidCatalogs, failed, len(results))
	}
	return nil
}
