package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
	"github.com/Simplici0/displayquote/internal/rules"
)

// ErrSelectionOutOfRange is returned for a matrix cell outside the 3x3 grid.
var ErrSelectionOutOfRange = errors.New("matrix selection out of range")

// Fixed presentation band around the program base. It does not follow the
// selected markup.
var (
	displayRangeLow  = decimal.RequireFromString("1.25")
	displayRangeHigh = decimal.RequireFromString("1.45")
)

// LineItem is one row of the parts table.
type LineItem struct {
	PartKey   string          `json:"part_key"`
	Label     string          `json:"label"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Breakdown contains the per-unit values of the calculation.
type Breakdown struct {
	PartsSubtotal    decimal.Decimal `json:"per_unit_parts_subtotal"`
	UnitFactor       decimal.Decimal `json:"unit_factor"`
	PerUnitAfterTier decimal.Decimal `json:"per_unit_after_tier"`
}

// Totals contains program-level roll-up values.
type Totals struct {
	ProgramBase  decimal.Decimal `json:"program_base"`
	MarkupPct    decimal.Decimal `json:"markup_pct"`
	FinalTotal   decimal.Decimal `json:"final_total"`
	FinalPerUnit decimal.Decimal `json:"final_per_unit"`
	MinTotal     decimal.Decimal `json:"min_total"`
	MaxTotal     decimal.Decimal `json:"max_total"`
}

// Result groups the full pricing output.
type Result struct {
	Quantity  int                  `json:"quantity"`
	Matrix    form.MatrixSelection `json:"matrix"`
	Breakdown Breakdown            `json:"breakdown"`
	Totals    Totals               `json:"totals"`
}

// PartsSubtotal sums base_value x qty over the resolved parts. Unknown parts
// count as zero.
func PartsSubtotal(cat *catalog.Catalog, parts []rules.ResolvedPart) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range parts {
		sum = sum.Add(cat.PartValue(p.Key).Mul(decimal.NewFromInt(int64(p.Qty))))
	}
	return sum
}

// LineItems builds the parts table in resolution order.
func LineItems(cat *catalog.Catalog, parts []rules.ResolvedPart) []LineItem {
	items := make([]LineItem, 0, len(parts))
	for _, p := range parts {
		unit := cat.PartValue(p.Key)
		items = append(items, LineItem{
			PartKey:   p.Key,
			Label:     cat.PartLabel(p.Key),
			Qty:       p.Qty,
			UnitPrice: unit,
			LineTotal: unit.Mul(decimal.NewFromInt(int64(p.Qty))),
		})
	}
	return items
}

// UnitFactor returns the quantity-tier factor for qty. Every band is checked
// in declared order and the last matching band wins; open-ended bands match
// any qty >= min_qty.
func UnitFactor(policy catalog.PricingPolicy, qty int) decimal.Decimal {
	factor := decimal.NewFromInt(1)
	inclusive := policy.Inclusive()

	for _, band := range policy.UnitTiers {
		if qty < band.MinQty {
			continue
		}
		if band.MaxQty == nil {
			factor = band.Factor
			continue
		}
		if (inclusive && qty <= *band.MaxQty) || (!inclusive && qty < *band.MaxQty) {
			factor = band.Factor
		}
	}
	return factor
}

// MatrixMarkupPct reads the markup for the selected cell. A missing or
// invalid grid is a *catalog.ConfigurationError; no default is substituted.
func MatrixMarkupPct(policy catalog.PricingPolicy, sel form.MatrixSelection) (decimal.Decimal, error) {
	if err := policy.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !sel.Valid() {
		return decimal.Zero, fmt.Errorf("%w: (%d,%d)", ErrSelectionOutOfRange, sel.Row, sel.Col)
	}
	return policy.MatrixMarkups[sel.Row][sel.Col], nil
}

// Calculate prices the resolved parts for the quantity in the form.
//
//	per_unit_after_tier = parts_subtotal * unit_factor
//	program_base        = per_unit_after_tier * qty
//	final_total         = program_base * (1 + markup)
//	final_per_unit      = final_total / max(qty, 1)
//
// qty is not floored; callers are expected to pass qty >= 1.
func Calculate(cat *catalog.Catalog, f form.Form, parts []rules.ResolvedPart, sel form.MatrixSelection) (Result, error) {
	markup, err := MatrixMarkupPct(cat.Policy, sel)
	if err != nil {
		return Result{}, err
	}

	qty := f.Quantity()
	subtotal := PartsSubtotal(cat, parts)
	factor := UnitFactor(cat.Policy, qty)
	perUnitAfterTier := subtotal.Mul(factor)
	programBase := perUnitAfterTier.Mul(decimal.NewFromInt(int64(qty)))
	finalTotal := programBase.Mul(decimal.NewFromInt(1).Add(markup))

	divisor := qty
	if divisor < 1 {
		divisor = 1
	}

	return Result{
		Quantity: qty,
		Matrix:   sel,
		Breakdown: Breakdown{
			PartsSubtotal:    subtotal,
			UnitFactor:       factor,
			PerUnitAfterTier: perUnitAfterTier,
		},
		Totals: Totals{
			ProgramBase:  programBase,
			MarkupPct:    markup,
			FinalTotal:   finalTotal,
			FinalPerUnit: finalTotal.Div(decimal.NewFromInt(int64(divisor))),
			MinTotal:     programBase.Mul(displayRangeLow),
			MaxTotal:     programBase.Mul(displayRangeHigh),
		},
	}, nil
}
