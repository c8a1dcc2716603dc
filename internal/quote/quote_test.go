package quote

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
	"github.com/Simplici0/displayquote/internal/metrics"
	"github.com/Simplici0/displayquote/internal/rules"
)

const trayCatalog = `{
  "controls": [
    {"id": "footprint", "type": "single", "required": true, "options": [
      {"key": "fp-24", "dims": {"width_in": 24, "depth_in": 16}}
    ]},
    {"id": "assembly", "type": "single", "options": [
      {"key": "assembly-kdf"}, {"key": "assembly-turnkey"}
    ]},
    {"id": "product_touches", "type": "number", "min": 1},
    {"id": "quantity", "type": "number", "min": 1, "required": true}
  ],
  "parts": {
    "part-base-24": {"label": "Base 24", "base_value": 10.00},
    "touch": {"label": "Touch", "base_value": 0.50}
  },
  "rules": {
    "resolve_footprint_base": {"map": {"fp-24": "part-base-24"}},
    "resolve_assembly_touches": {
      "when_control": "assembly", "when_value": "assembly-turnkey",
      "quantity_control": "product_touches", "min_quantity": 1, "part": "touch"
    }
  },
  "policy": {
    "tier_boundary": "inclusive",
    "unit_tiers": [{"min_qty": 1, "max_qty": 9, "factor": 1.0}],
    "matrix_markups": [[0.3,0.3,0.3],[0.3,0.3,0.3],[0.3,0.3,0.3]]
  }
}`

func loadTray(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(trayCatalog))
	require.NoError(t, err)
	return cat
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute_EndToEnd(t *testing.T) {
	cat := loadTray(t)
	st := form.FromForm("pdq/tray", form.Form{"footprint": "fp-24", "quantity": 5}, form.DefaultMatrix)

	res, err := Compute(cat, st)
	require.NoError(t, err)

	assert.True(t, res.Unlocked)
	assert.Equal(t, []rules.ResolvedPart{{Key: "part-base-24", Qty: 1}}, res.Parts)
	require.NotNil(t, res.Dims.WidthIn)
	assert.Equal(t, 24, *res.Dims.WidthIn)

	require.NotNil(t, res.Pricing)
	p := res.Pricing
	assert.True(t, p.Breakdown.PartsSubtotal.Equal(dec("10.00")))
	assert.True(t, p.Breakdown.UnitFactor.Equal(dec("1.0")))
	assert.True(t, p.Breakdown.PerUnitAfterTier.Equal(dec("10.00")))
	assert.True(t, p.Totals.ProgramBase.Equal(dec("50.00")))
	assert.True(t, p.Totals.MarkupPct.Equal(dec("0.30")))
	assert.True(t, p.Totals.FinalTotal.Equal(dec("65.00")))
	assert.True(t, p.Totals.FinalPerUnit.Equal(dec("13.00")))
}

func TestCompute_Deterministic(t *testing.T) {
	cat := loadTray(t)
	values := form.Form{"footprint": "fp-24", "assembly": "assembly-turnkey", "product_touches": 3, "quantity": 4}

	first, err := Compute(cat, form.FromForm("pdq/tray", values, form.DefaultMatrix))
	require.NoError(t, err)
	second, err := Compute(cat, form.FromForm("pdq/tray", values, form.DefaultMatrix))
	require.NoError(t, err)

	assert.Equal(t, first.Parts, second.Parts)
	assert.True(t, first.Pricing.Totals.FinalTotal.Equal(second.Pricing.Totals.FinalTotal))
}

func TestCompute_LockedDoesNotPrice(t *testing.T) {
	cat := loadTray(t)
	st := form.NewState("pdq/tray")
	st.Set("footprint", "fp-24")

	res, err := Compute(cat, st)
	require.NoError(t, err)
	assert.False(t, res.Unlocked)
	assert.Equal(t, "quantity", res.Blocking)
	assert.Nil(t, res.Pricing)
	assert.Equal(t, []rules.ResolvedPart{{Key: "part-base-24", Qty: 1}}, res.Parts, "parts resolve from what is enabled")
}

func TestCompute_SwitchingAssemblyDropsTouches(t *testing.T) {
	cat := loadTray(t)
	st := form.FromForm("pdq/tray", form.Form{
		"footprint":       "fp-24",
		"assembly":        "assembly-turnkey",
		"product_touches": 2,
		"quantity":        1,
	}, form.DefaultMatrix)

	res, err := Compute(cat, st)
	require.NoError(t, err)
	assert.Len(t, res.Parts, 2)

	st.Set("assembly", "assembly-kdf")
	res, err = Compute(cat, st)
	require.NoError(t, err)
	assert.Equal(t, []rules.ResolvedPart{{Key: "part-base-24", Qty: 1}}, res.Parts)
	_, present := st.Values["product_touches"]
	assert.False(t, present)
}

func TestCompute_ConfigurationErrorReturnsPartialResult(t *testing.T) {
	cat := loadTray(t)
	broken := *cat
	broken.Policy.MatrixMarkups = nil

	res, err := Compute(&broken, form.FromForm("pdq/tray", form.Form{"footprint": "fp-24", "quantity": 5}, form.DefaultMatrix))
	var cfgErr *catalog.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Parts)
	assert.Nil(t, res.Pricing)
}

func TestEngine_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := NewEngine(nil, metrics.NewRecorder(reg))
	cat := loadTray(t)

	_, err := engine.Compute(cat, form.FromForm("pdq/tray", form.Form{"footprint": "fp-24", "quantity": 5}, form.DefaultMatrix))
	require.NoError(t, err)
	_, err = engine.Compute(cat, form.NewState("pdq/tray"))
	require.NoError(t, err)

	broken := *cat
	broken.Policy.MatrixMarkups = nil
	_, err = engine.Compute(&broken, form.FromForm("pdq/tray", form.Form{"footprint": "fp-24", "quantity": 5}, form.DefaultMatrix))
	require.Error(t, err)

	quotes, err := testutil.GatherAndCount(reg, "displayquote_quotes_total")
	require.NoError(t, err)
	assert.Equal(t, 3, quotes)
	cfgErrors, err := testutil.GatherAndCount(reg, "displayquote_configuration_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, cfgErrors)
}
