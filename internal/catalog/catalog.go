// Package catalog holds the static configuration document for one display type:
// its form controls, part list, resolution rules and pricing policy.
package catalog

import "github.com/shopspring/decimal"

// ControlType is the widget kind of a form control.
type ControlType string

const (
	ControlSingle ControlType = "single"
	ControlNumber ControlType = "number"
)

// Dims are the physical dimensions carried by footprint options.
// A nil field means the dimension is unknown.
type Dims struct {
	WidthIn *int `json:"width_in,omitempty"`
	DepthIn *int `json:"depth_in,omitempty"`
}

// Option is one choice of a single-select control.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Dims  Dims   `json:"dims"`
}

// Visibility makes a control visible only while another control holds a value.
type Visibility struct {
	Control string `json:"control"`
	Equals  string `json:"equals"`
}

// Control is one form field definition.
type Control struct {
	ID          string      `json:"id"`
	Type        ControlType `json:"type"`
	Label       string      `json:"label"`
	Options     []Option    `json:"options,omitempty"`
	Min         int         `json:"min"`
	Required    bool        `json:"required"`
	VisibleWhen *Visibility `json:"visible_when,omitempty"`
}

// Option returns the option with the given key.
func (c Control) Option(key string) (Option, bool) {
	for _, opt := range c.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return Option{}, false
}

// Part is a priced component referenced by rules.
type Part struct {
	Label     string          `json:"label"`
	BaseValue decimal.Decimal `json:"base_value"`
}

// Display is optional presentation metadata for the display type.
type Display struct {
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Catalog is the parsed, validated configuration document. It is never
// mutated after Parse returns.
type Catalog struct {
	Display  Display         `json:"display"`
	Controls []Control       `json:"controls"`
	Parts    map[string]Part `json:"parts"`
	Rules    Rules           `json:"rules"`
	Policy   PricingPolicy   `json:"policy"`

	// Warnings lists data-quality problems that were defaulted during parsing.
	Warnings []string `json:"-"`
}

// Control returns the control with the given id.
func (c *Catalog) Control(id string) (Control, bool) {
	for _, ctrl := range c.Controls {
		if ctrl.ID == id {
			return ctrl, true
		}
	}
	return Control{}, false
}

// PartValue returns the per-unit base value of a part, zero when unknown.
func (c *Catalog) PartValue(key string) decimal.Decimal {
	if p, ok := c.Parts[key]; ok {
		return p.BaseValue
	}
	return decimal.Zero
}

// PartLabel returns the part label, falling back to the key.
func (c *Catalog) PartLabel(key string) string {
	if p, ok := c.Parts[key]; ok && p.Label != "" {
		return p.Label
	}
	return key
}
