package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TierBoundary controls whether a bounded tier includes its max_qty.
type TierBoundary string

const (
	BoundaryInclusive TierBoundary = "inclusive"
	BoundaryExclusive TierBoundary = "exclusive"
)

// UnitTier is one quantity band. A nil MaxQty means the band is open-ended.
type UnitTier struct {
	MinQty int             `json:"min_qty"`
	MaxQty *int            `json:"max_qty"`
	Factor decimal.Decimal `json:"factor"`
}

// MarkupMatrix is the weight (row) by complexity (col) markup grid.
// Cells are fractions: 0.35 is 35%.
type MarkupMatrix [3][3]decimal.Decimal

// PricingPolicy describes tier factors and the markup grid.
type PricingPolicy struct {
	UnitTiers     []UnitTier    `json:"unit_tiers"`
	TierBoundary  TierBoundary  `json:"tier_boundary"`
	MatrixMarkups *MarkupMatrix `json:"matrix_markups"`
}

// Inclusive reports whether bounded tiers compare max_qty with <=.
// Anything other than "inclusive" (or unset) is treated as exclusive.
func (p PricingPolicy) Inclusive() bool {
	return p.TierBoundary == "" || p.TierBoundary == BoundaryInclusive
}

// ConfigurationError reports a pricing policy that cannot be used to quote.
// It is never recovered from with a default value.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Reason)
}

const matrixField = "policy.matrix_markups"

// Validate checks the fatal-class fields of the policy.
func (p PricingPolicy) Validate() error {
	if p.MatrixMarkups == nil {
		return &ConfigurationError{Field: matrixField, Reason: "missing (expected a 3x3 list)"}
	}
	for r, row := range p.MatrixMarkups {
		for c, cell := range row {
			if cell.IsNegative() {
				return &ConfigurationError{
					Field:  fmt.Sprintf("%s[%d][%d]", matrixField, r, c),
					Reason: fmt.Sprintf("negative markup %s", cell.String()),
				}
			}
		}
	}
	return nil
}
