package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
	"github.com/Simplici0/displayquote/internal/quote"
)

var (
	catalogFile string
	formFile    string
	setValues   []string
	matrixRow   int
	matrixCol   int
	quoteFormat string
)

var quoteCmd = &cobra.Command{
	Use:   "quote [display]",
	Short: "Resolve parts and price one display configuration",
	Long: `Run the configurator pipeline once for a complete form.

The display is either a key from the catalog directory or a catalog file
given with --catalog. Form values come from a YAML or JSON file and/or
repeated --set control=value flags; --set wins.

Examples:
  displayquote quote pdq/digital_pdq_tray --set footprint=fp-24x16 --set assembly=assembly-kdf --set quantity=5
  displayquote quote --catalog tray.json --form order.yaml --row 0 --col 2
  displayquote quote pdq/digital_pdq_tray --form order.yaml --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog file to quote against")
	quoteCmd.Flags().StringVar(&formFile, "form", "", "YAML or JSON file with form values")
	quoteCmd.Flags().StringArrayVar(&setValues, "set", nil, "form value as control=value (repeatable)")
	quoteCmd.Flags().IntVar(&matrixRow, "row", form.DefaultMatrix.Row, "markup matrix row (weight, 0-2)")
	quoteCmd.Flags().IntVar(&matrixCol, "col", form.DefaultMatrix.Col, "markup matrix column (complexity, 0-2)")
	quoteCmd.Flags().StringVarP(&quoteFormat, "format", "f", "text", "output format (text, json)")
}

func runQuote(cmd *cobra.Command, args []string) error {
	display := ""
	if len(args) > 0 {
		display = args[0]
	}

	cat, err := resolveCatalog(display, catalogFile)
	if err != nil {
		return err
	}
	if display == "" {
		display = catalogFile
	}

	values := make(form.Form)
	if formFile != "" {
		values, err = readForm(formFile)
		if err != nil {
			return err
		}
	}
	if err := applySets(values, setValues); err != nil {
		return err
	}

	matrix := form.MatrixSelection{Row: matrixRow, Col: matrixCol}
	if !matrix.Valid() {
		return fmt.Errorf("matrix cell (%d,%d) is outside the 3x3 grid", matrix.Row, matrix.Col)
	}

	engine := quote.NewEngine(logger, nil)
	res, err := engine.Compute(cat, form.FromForm(display, values, matrix))
	if err != nil {
		var cfgErr *catalog.ConfigurationError
		if errors.As(err, &cfgErr) {
			return fmt.Errorf("cannot price %s: %w", display, err)
		}
		return err
	}

	switch quoteFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "text", "":
		return renderQuote(cmd.OutOrStdout(), res)
	default:
		return fmt.Errorf("unknown format %q", quoteFormat)
	}
}

func resolveCatalog(display, file string) (*catalog.Catalog, error) {
	switch {
	case file != "":
		return catalog.Load(file)
	case display != "":
		registry, err := newRegistry()
		if err != nil {
			return nil, err
		}
		return registry.Get(display)
	default:
		return nil, errors.New("a display key or --catalog is required")
	}
}

// readForm loads form values. YAML is a superset of JSON so one decoder
// serves both.
func readForm(path string) (form.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form %s: %w", path, err)
	}
	values := make(form.Form)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse form %s: %w", path, err)
	}
	return values, nil
}

// applySets merges control=value pairs. Integer-looking values become numbers.
func applySets(values form.Form, sets []string) error {
	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q, expected control=value", kv)
		}
		raw = strings.TrimSpace(raw)
		if n, err := strconv.Atoi(raw); err == nil {
			values[key] = n
		} else {
			values[key] = raw
		}
	}
	return nil
}

func renderQuote(out io.Writer, res *quote.Result) error {
	fmt.Fprintf(out, "Display: %s\n\n", res.Display)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PART\tLABEL\tQTY\tUNIT\tLINE")
	for _, l := range res.Lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.PartKey, l.Label, l.Qty, l.UnitPrice.StringFixed(2), l.LineTotal.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !res.Unlocked {
		fmt.Fprintf(out, "\nNot priced: %q is required.\n", res.Blocking)
		return nil
	}

	p := res.Pricing
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label string
		value string
	}{
		{"Parts per unit", p.Breakdown.PartsSubtotal.StringFixed(2)},
		{"Unit factor", p.Breakdown.UnitFactor.String()},
		{"Per unit after tier", p.Breakdown.PerUnitAfterTier.StringFixed(2)},
		{"Quantity", strconv.Itoa(p.Quantity)},
		{"Program base", p.Totals.ProgramBase.StringFixed(2)},
		{"Markup", p.Totals.MarkupPct.Shift(2).String() + "%"},
		{"Final total", p.Totals.FinalTotal.StringFixed(2)},
		{"Final per unit", p.Totals.FinalPerUnit.StringFixed(2)},
		{"Range", p.Totals.MinTotal.StringFixed(2) + " - " + p.Totals.MaxTotal.StringFixed(2)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t\n", r.label, r.value)
	}
	return w.Flush()
}
