package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
	"github.com/Simplici0/displayquote/internal/quote"
)

const trayJSON = `{
  "controls": [
    {"id": "footprint", "type": "single", "required": true, "options": [
      {"key": "fp-24", "dims": {"width_in": 24, "depth_in": 16}}
    ]},
    {"id": "quantity", "type": "number", "min": 1, "required": true}
  ],
  "parts": {"part-base-24": {"label": "Base 24", "base_value": 10.00}},
  "rules": {"resolve_footprint_base": {"map": {"fp-24": "part-base-24"}}},
  "policy": {
    "unit_tiers": [{"min_qty": 1, "max_qty": 9, "factor": 1.0}],
    "matrix_markups": [[0.3,0.3,0.3],[0.3,0.3,0.3],[0.3,0.3,0.3]]
  }
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resetQuoteFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		catalogFile, formFile, setValues = "", "", nil
		matrixRow, matrixCol = form.DefaultMatrix.Row, form.DefaultMatrix.Col
		quoteFormat = "text"
	})
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	return c, &out
}

func TestApplySets(t *testing.T) {
	values := form.Form{"quantity": 1}
	require.NoError(t, applySets(values, []string{"footprint=fp-24", "quantity= 12 ", "note=a=b"}))

	assert.Equal(t, "fp-24", values["footprint"])
	assert.Equal(t, 12, values["quantity"])
	assert.Equal(t, "a=b", values["note"])

	assert.Error(t, applySets(values, []string{"novalue"}))
	assert.Error(t, applySets(values, []string{"=x"}))
}

func TestReadForm_YAMLAndJSON(t *testing.T) {
	yamlPath := writeTemp(t, "order.yaml", "footprint: fp-24\nquantity: 5\n")
	values, err := readForm(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "fp-24", values.String("footprint"))
	assert.Equal(t, 5, values.Quantity())

	jsonPath := writeTemp(t, "order.json", `{"footprint": "fp-24", "quantity": 7}`)
	values, err = readForm(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 7, values.Quantity())
}

func TestRunQuote_JSON(t *testing.T) {
	resetQuoteFlags(t)
	catalogFile = writeTemp(t, "tray.json", trayJSON)
	setValues = []string{"footprint=fp-24", "quantity=5"}
	quoteFormat = "json"

	c, out := testCommand()
	require.NoError(t, runQuote(c, nil))

	var res quote.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.NotNil(t, res.Pricing)
	assert.Equal(t, "65", res.Pricing.Totals.FinalTotal.String())
	assert.Equal(t, "13", res.Pricing.Totals.FinalPerUnit.String())
}

func TestRunQuote_TextLocked(t *testing.T) {
	resetQuoteFlags(t)
	catalogFile = writeTemp(t, "tray.json", trayJSON)

	c, out := testCommand()
	require.NoError(t, runQuote(c, nil))
	assert.Contains(t, out.String(), `Not priced: "footprint" is required.`)
}

func TestRunQuote_TextPriced(t *testing.T) {
	resetQuoteFlags(t)
	catalogFile = writeTemp(t, "tray.json", trayJSON)
	setValues = []string{"footprint=fp-24", "quantity=5"}

	c, out := testCommand()
	require.NoError(t, runQuote(c, nil))
	assert.Contains(t, out.String(), "part-base-24")
	assert.Contains(t, out.String(), "65.00")
	assert.Contains(t, out.String(), "62.50 - 72.50")
}

func TestRunQuote_RejectsBadMatrix(t *testing.T) {
	resetQuoteFlags(t)
	catalogFile = writeTemp(t, "tray.json", trayJSON)
	matrixRow = 5

	c, _ := testCommand()
	assert.Error(t, runQuote(c, nil))
}

func TestRunValidate(t *testing.T) {
	good := writeTemp(t, "good.json", trayJSON)
	bad := writeTemp(t, "bad.json", `{"policy": {"matrix_markups": [[1,2],[3,4]]}}`)

	c, out := testCommand()
	require.NoError(t, runValidate(c, []string{good}))
	assert.Contains(t, out.String(), "OK   "+good)

	c, out = testCommand()
	err := runValidate(c, []string{good, bad})
	assert.ErrorIs(t, err, errInvalidCatalogs)
	assert.Contains(t, out.String(), "FAIL "+bad)

	var cfgErr *catalog.ConfigurationError
	_, loadErr := catalog.Load(bad)
	assert.ErrorAs(t, loadErr, &cfgErr)
}
