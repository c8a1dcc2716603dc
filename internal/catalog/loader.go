package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// document mirrors the catalog JSON before lenient fields are coerced.
type document struct {
	Display  Display                    `json:"display"`
	Controls []rawControl               `json:"controls"`
	Parts    map[string]rawPart         `json:"parts"`
	Rules    map[string]json.RawMessage `json:"rules"`
	Policy   rawPolicy                  `json:"policy"`
}

type rawControl struct {
	ID          string          `json:"id"`
	Type        ControlType     `json:"type"`
	Label       string          `json:"label"`
	Options     []rawOption     `json:"options"`
	Min         json.RawMessage `json:"min"`
	Required    bool            `json:"required"`
	VisibleWhen *Visibility     `json:"visible_when"`
}

type rawOption struct {
	Key   string                     `json:"key"`
	Label string                     `json:"label"`
	Dims  map[string]json.RawMessage `json:"dims"`
}

type rawPart struct {
	Label     string          `json:"label"`
	BaseValue json.RawMessage `json:"base_value"`
}

type rawPolicy struct {
	UnitTiers     []map[string]json.RawMessage `json:"unit_tiers"`
	TierBoundary  json.RawMessage              `json:"tier_boundary"`
	MatrixMarkups json.RawMessage              `json:"matrix_markups"`
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a catalog document. Data-quality problems (bad base values,
// dimensions, tier numbers, malformed rules) are defaulted and recorded in
// Catalog.Warnings. A malformed markup matrix is returned as a
// *ConfigurationError.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	b := &builder{}
	cat := &Catalog{
		Display:  doc.Display,
		Controls: b.controls(doc.Controls),
		Parts:    b.parts(doc.Parts),
		Rules:    b.rules(doc.Rules),
	}

	policy, err := b.policy(doc.Policy)
	if err != nil {
		return nil, err
	}
	cat.Policy = policy
	cat.Warnings = b.warnings
	return cat, nil
}

type builder struct {
	warnings []string
}

func (b *builder) warnf(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func (b *builder) controls(raw []rawControl) []Control {
	controls := make([]Control, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, rc := range raw {
		if rc.ID == "" {
			b.warnf("controls[%d]: missing id, skipped", i)
			continue
		}
		if seen[rc.ID] {
			b.warnf("controls[%d]: duplicate id %q, skipped", i, rc.ID)
			continue
		}
		seen[rc.ID] = true

		if rc.Type != ControlSingle && rc.Type != ControlNumber {
			b.warnf("controls[%d]: unknown type %q for %q", i, rc.Type, rc.ID)
		}

		ctrl := Control{
			ID:          rc.ID,
			Type:        rc.Type,
			Label:       rc.Label,
			Required:    rc.Required,
			VisibleWhen: rc.VisibleWhen,
		}
		if v, ok := parseInt(rc.Min); ok {
			ctrl.Min = v
		} else if !isNull(rc.Min) {
			b.warnf("controls[%d].min: not numeric, using 0", i)
		}
		for j, ro := range rc.Options {
			ctrl.Options = append(ctrl.Options, Option{
				Key:   ro.Key,
				Label: ro.Label,
				Dims: Dims{
					WidthIn: b.dim(ro.Dims[DimWidth], "controls[%d].options[%d].dims.width_in", i, j),
					DepthIn: b.dim(ro.Dims[DimDepth], "controls[%d].options[%d].dims.depth_in", i, j),
				},
			})
		}
		controls = append(controls, ctrl)
	}
	return controls
}

func (b *builder) dim(raw json.RawMessage, field string, args ...any) *int {
	if isNull(raw) {
		return nil
	}
	v, ok := parseInt(raw)
	if !ok {
		b.warnf(field+": not an integer, treated as unknown", args...)
		return nil
	}
	return &v
}

func (b *builder) parts(raw map[string]rawPart) map[string]Part {
	parts := make(map[string]Part, len(raw))
	for key, rp := range raw {
		value, ok := parseNumber(rp.BaseValue)
		if !ok {
			if !isNull(rp.BaseValue) {
				b.warnf("parts[%s].base_value: not numeric, using 0", key)
			}
			value = decimal.Zero
		}
		parts[key] = Part{Label: rp.Label, BaseValue: value}
	}
	return parts
}

func (b *builder) rules(raw map[string]json.RawMessage) Rules {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var rules Rules
	for _, name := range names {
		body := raw[name]
		if isNull(body) {
			continue
		}
		var err error
		switch name {
		case RuleFootprintBase:
			rules.FootprintBase, err = decodeRule[FootprintBaseRule](body)
		case RuleHeader:
			rules.Header, err = decodeRule[HeaderRule](body)
		case RuleDividers:
			rules.Dividers, err = decodeRule[DividersRule](body)
		case RuleShipper:
			rules.Shipper, err = decodeRule[ShipperRule](body)
		case RuleAssemblyTouches:
			rules.AssemblyTouches, err = assemblyTouches(body)
		case RulePrintedInside:
			rules.PrintedInside, err = decodeRule[PrintedInsideRule](body)
		default:
			b.warnf("rules.%s: unknown rule kind, ignored", name)
			continue
		}
		if err != nil {
			b.warnf("rules.%s: %v, rule skipped", name, err)
		}
	}
	return rules
}

func decodeRule[T any](body json.RawMessage) (*T, error) {
	rule := new(T)
	if err := json.Unmarshal(body, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// assemblyTouches decodes the rule with a lenient min_quantity; a missing,
// zero or non-numeric minimum becomes 1.
func assemblyTouches(body json.RawMessage) (*AssemblyTouchesRule, error) {
	var raw struct {
		WhenControl     string          `json:"when_control"`
		WhenValue       string          `json:"when_value"`
		QuantityControl string          `json:"quantity_control"`
		MinQuantity     json.RawMessage `json:"min_quantity"`
		Part            string          `json:"part"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	minQty, ok := parseInt(raw.MinQuantity)
	if !ok || minQty == 0 {
		minQty = 1
	}
	return &AssemblyTouchesRule{
		WhenControl:     raw.WhenControl,
		WhenValue:       raw.WhenValue,
		QuantityControl: raw.QuantityControl,
		MinQuantity:     minQty,
		Part:            raw.Part,
	}, nil
}

func (b *builder) policy(raw rawPolicy) (PricingPolicy, error) {
	policy := PricingPolicy{TierBoundary: b.tierBoundary(raw.TierBoundary)}

	for i, band := range raw.UnitTiers {
		tier := UnitTier{Factor: decimal.NewFromInt(1)}
		if v, ok := parseInt(band["min_qty"]); ok {
			tier.MinQty = v
		} else if !isNull(band["min_qty"]) {
			b.warnf("policy.unit_tiers[%d].min_qty: not numeric, using 0", i)
		}
		if maxRaw := band["max_qty"]; !isNull(maxRaw) {
			v, ok := parseInt(maxRaw)
			if !ok {
				b.warnf("policy.unit_tiers[%d].max_qty: not numeric, band skipped", i)
				continue
			}
			tier.MaxQty = &v
		}
		if factor, ok := parseNumber(band["factor"]); ok && !factor.IsZero() {
			tier.Factor = factor
		} else if !ok && !isNull(band["factor"]) {
			b.warnf("policy.unit_tiers[%d].factor: not numeric, using 1.0", i)
		}
		policy.UnitTiers = append(policy.UnitTiers, tier)
	}

	matrix, err := parseMarkupMatrix(raw.MatrixMarkups)
	if err != nil {
		return PricingPolicy{}, err
	}
	policy.MatrixMarkups = matrix
	if err := policy.Validate(); err != nil {
		return PricingPolicy{}, err
	}
	return policy, nil
}

func parseMarkupMatrix(raw json.RawMessage) (*MarkupMatrix, error) {
	if isNull(raw) {
		return nil, &ConfigurationError{Field: matrixField, Reason: "missing (expected a 3x3 list)"}
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &ConfigurationError{Field: matrixField, Reason: "expected a 3x3 list"}
	}
	if len(rows) != 3 {
		return nil, &ConfigurationError{Field: matrixField, Reason: fmt.Sprintf("expected 3 rows, got %d", len(rows))}
	}

	var grid MarkupMatrix
	for r, rowRaw := range rows {
		var cells []json.RawMessage
		if err := json.Unmarshal(rowRaw, &cells); err != nil {
			return nil, &ConfigurationError{Field: fmt.Sprintf("%s[%d]", matrixField, r), Reason: "row is not a list"}
		}
		if len(cells) != 3 {
			return nil, &ConfigurationError{
				Field:  fmt.Sprintf("%s[%d]", matrixField, r),
				Reason: fmt.Sprintf("expected 3 columns, got %d", len(cells)),
			}
		}
		for c, cell := range cells {
			v, ok := parseNumber(cell)
			if !ok {
				return nil, &ConfigurationError{
					Field:  fmt.Sprintf("%s[%d][%d]", matrixField, r, c),
					Reason: fmt.Sprintf("not numeric: %s", string(cell)),
				}
			}
			grid[r][c] = v
		}
	}
	return &grid, nil
}

// tierBoundary defaults an absent key to inclusive. A present key only
// selects inclusive when it is exactly "inclusive"; null, "" and any other
// value compare as exclusive.
func (b *builder) tierBoundary(raw json.RawMessage) TierBoundary {
	if len(bytes.TrimSpace(raw)) == 0 {
		return BoundaryInclusive
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		if !isNull(raw) {
			b.warnf("policy.tier_boundary: not a string, using exclusive")
		}
		return BoundaryExclusive
	}
	if s == "" {
		return BoundaryExclusive
	}
	return TierBoundary(s)
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// parseNumber reads a JSON number or numeric string.
func parseNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	if isNull(raw) {
		return decimal.Zero, false
	}
	s := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return decimal.Zero, false
		}
		s = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseInt reads a JSON number or numeric string, truncating fractions.
func parseInt(raw json.RawMessage) (int, bool) {
	d, ok := parseNumber(raw)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}
