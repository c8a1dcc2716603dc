package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validMatrix = `[[0.25,0.30,0.35],[0.30,0.35,0.40],[0.35,0.40,0.45]]`

func withPolicy(policy string) []byte {
	return []byte(`{
  "controls": [
    {"id": "footprint", "type": "single", "required": true, "options": [
      {"key": "fp-24", "label": "24in", "dims": {"width_in": 24, "depth_in": 16}},
      {"key": "fp-odd", "dims": {"width_in": "wide", "depth_in": 12.7}},
      {"key": "fp-none"}
    ]},
    {"id": "quantity", "type": "number", "min": "1", "required": true}
  ],
  "parts": {
    "part-base-24": {"label": "Base", "base_value": 10.00},
    "part-str": {"base_value": "2.50"},
    "part-bad": {"base_value": "ten"},
    "part-missing": {}
  },
  "rules": {
    "resolve_footprint_base": {"map": {"fp-24": "part-base-24"}},
    "resolve_assembly_touches": {"when_control": "assembly", "when_value": "assembly-turnkey",
      "quantity_control": "product_touches", "part": "touch"},
    "resolve_header": "not an object",
    "resolve_glitter": {}
  },
  "policy": ` + policy + `
}`)
}

func TestParse_LenientFields(t *testing.T) {
	cat, err := Parse(withPolicy(`{
    "unit_tiers": [
      {"min_qty": 1, "max_qty": 9, "factor": 1.0},
      {"min_qty": "10", "max_qty": "many", "factor": 0.9},
      {"min_qty": 50, "factor": 0}
    ],
    "matrix_markups": ` + validMatrix + `
  }`))
	require.NoError(t, err)

	assert.True(t, cat.PartValue("part-base-24").Equal(decimal.RequireFromString("10")))
	assert.True(t, cat.PartValue("part-str").Equal(decimal.RequireFromString("2.5")))
	assert.True(t, cat.PartValue("part-bad").IsZero())
	assert.True(t, cat.PartValue("part-missing").IsZero())
	assert.True(t, cat.PartValue("not-a-part").IsZero())
	assert.Equal(t, "Base", cat.PartLabel("part-base-24"))

	qty, ok := cat.Control("quantity")
	require.True(t, ok)
	assert.Equal(t, 1, qty.Min)

	require.NotNil(t, cat.Rules.FootprintBase)
	assert.Nil(t, cat.Rules.Header, "malformed rule is skipped")
	require.NotNil(t, cat.Rules.AssemblyTouches)
	assert.Equal(t, 1, cat.Rules.AssemblyTouches.MinQuantity, "missing min_quantity defaults to 1")

	require.Len(t, cat.Policy.UnitTiers, 2, "band with non-numeric max_qty is skipped")
	assert.True(t, cat.Policy.UnitTiers[1].Factor.Equal(decimal.NewFromInt(1)), "zero factor reads as 1.0")
	assert.Nil(t, cat.Policy.UnitTiers[1].MaxQty)
	assert.Equal(t, BoundaryInclusive, cat.Policy.TierBoundary)

	assert.NotEmpty(t, cat.Warnings)
	assert.Contains(t, cat.Warnings, "rules.resolve_glitter: unknown rule kind, ignored")
}

func TestParse_MatrixConfigurationErrors(t *testing.T) {
	tests := []struct {
		name      string
		policy    string
		wantField string
	}{
		{name: "missing", policy: `{}`, wantField: "policy.matrix_markups"},
		{name: "not a list", policy: `{"matrix_markups": {"a": 1}}`, wantField: "policy.matrix_markups"},
		{name: "2x2", policy: `{"matrix_markups": [[1,2],[3,4]]}`, wantField: "policy.matrix_markups"},
		{name: "short row", policy: `{"matrix_markups": [[1,2,3],[1,2],[1,2,3]]}`, wantField: "policy.matrix_markups[1]"},
		{name: "non-numeric", policy: `{"matrix_markups": [[1,2,3],[1,2,3],[1,"x",3]]}`, wantField: "policy.matrix_markups[2][1]"},
		{name: "negative", policy: `{"matrix_markups": [[0.1,0.2,0.3],[0.1,-0.2,0.3],[0.1,0.2,0.3]]}`, wantField: "policy.matrix_markups[1][1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(withPolicy(tt.policy))
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Contains(t, err.Error(), "configuration error in "+tt.wantField)
		})
	}
}

func TestParse_NumericStringMatrixCells(t *testing.T) {
	cat, err := Parse(withPolicy(`{"matrix_markups": [["0.1","0.2","0.3"],[0.1,0.2,0.3],[0.1,0.2,0.3]]}`))
	require.NoError(t, err)
	assert.True(t, cat.Policy.MatrixMarkups[0][2].Equal(decimal.RequireFromString("0.3")))
}

func TestParse_TierBoundary(t *testing.T) {
	const grid = `"matrix_markups": [[0,0,0],[0,0,0],[0,0,0]]`
	tests := []struct {
		name      string
		policy    string
		want      TierBoundary
		inclusive bool
	}{
		{name: "absent", policy: `{` + grid + `}`, want: BoundaryInclusive, inclusive: true},
		{name: "inclusive", policy: `{"tier_boundary": "inclusive", ` + grid + `}`, want: BoundaryInclusive, inclusive: true},
		{name: "exclusive", policy: `{"tier_boundary": "exclusive", ` + grid + `}`, want: BoundaryExclusive},
		{name: "null", policy: `{"tier_boundary": null, ` + grid + `}`, want: BoundaryExclusive},
		{name: "empty string", policy: `{"tier_boundary": "", ` + grid + `}`, want: BoundaryExclusive},
		{name: "other word", policy: `{"tier_boundary": "closed", ` + grid + `}`, want: TierBoundary("closed")},
		{name: "number", policy: `{"tier_boundary": 1, ` + grid + `}`, want: BoundaryExclusive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Parse(withPolicy(tt.policy))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat.Policy.TierBoundary)
			assert.Equal(t, tt.inclusive, cat.Policy.Inclusive())
		})
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"controls": [`))
	assert.Error(t, err)

	var cfgErr *ConfigurationError
	assert.False(t, errors.As(err, &cfgErr))
}

func TestFootprintDims(t *testing.T) {
	cat, err := Parse(withPolicy(`{"matrix_markups": ` + validMatrix + `}`))
	require.NoError(t, err)

	dims := cat.FootprintDims("fp-24")
	require.NotNil(t, dims.WidthIn)
	require.NotNil(t, dims.DepthIn)
	assert.Equal(t, 24, *dims.WidthIn)
	assert.Equal(t, 16, *dims.DepthIn)

	odd := cat.FootprintDims("fp-odd")
	assert.Nil(t, odd.WidthIn, "non-numeric width is unknown")
	require.NotNil(t, odd.DepthIn)
	assert.Equal(t, 12, *odd.DepthIn)

	assert.Equal(t, Dims{}, cat.FootprintDims("fp-none"))
	assert.Equal(t, Dims{}, cat.FootprintDims("fp-unknown"))
	assert.Equal(t, Dims{}, (&Catalog{}).FootprintDims("fp-24"), "no footprint control")
}

func TestValidate_ProgrammaticPolicy(t *testing.T) {
	var p PricingPolicy
	var cfgErr *ConfigurationError
	require.ErrorAs(t, p.Validate(), &cfgErr)
	assert.Equal(t, "policy.matrix_markups", cfgErr.Field)

	var m MarkupMatrix
	m[2][0] = decimal.RequireFromString("-0.01")
	p.MatrixMarkups = &m
	require.ErrorAs(t, p.Validate(), &cfgErr)
	assert.Equal(t, "policy.matrix_markups[2][0]", cfgErr.Field)

	m[2][0] = decimal.Zero
	assert.NoError(t, p.Validate())
}

func TestLoad_WrapsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, withPolicy(`{}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
