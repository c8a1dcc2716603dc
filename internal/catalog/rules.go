package catalog

// Rule names as they appear under "rules" in the catalog document.
const (
	RuleFootprintBase   = "resolve_footprint_base"
	RuleHeader          = "resolve_header"
	RuleDividers        = "resolve_dividers"
	RuleShipper         = "resolve_shipper"
	RuleAssemblyTouches = "resolve_assembly_touches"
	RulePrintedInside   = "resolve_printed_inside"
)

// Dimension names accepted by match_on_dim.
const (
	DimWidth = "width_in"
	DimDepth = "depth_in"
)

// Rules holds one optional definition per rule kind. A nil field means the
// corresponding resolution step is skipped.
type Rules struct {
	FootprintBase   *FootprintBaseRule   `json:"resolve_footprint_base,omitempty"`
	Header          *HeaderRule          `json:"resolve_header,omitempty"`
	Dividers        *DividersRule        `json:"resolve_dividers,omitempty"`
	Shipper         *ShipperRule         `json:"resolve_shipper,omitempty"`
	AssemblyTouches *AssemblyTouchesRule `json:"resolve_assembly_touches,omitempty"`
	PrintedInside   *PrintedInsideRule   `json:"resolve_printed_inside,omitempty"`
}

// FootprintBaseRule maps a footprint option key to its base part.
type FootprintBaseRule struct {
	Map map[string]string `json:"map"`
}

// HeaderRule picks a header part, optionally by footprint width.
type HeaderRule struct {
	WhenControl string            `json:"when_control"`
	WhenValue   string            `json:"when_value"`
	MatchOnDim  string            `json:"match_on_dim"`
	Map         map[string]string `json:"map"`
	Else        string            `json:"else"`
}

// DividersRule emits a depth-matched part times a quantity read from the form.
// Sidekick pegs reuse it with a different quantity control.
type DividersRule struct {
	QuantityControl string            `json:"quantity_control"`
	MatchOnDim      string            `json:"match_on_dim"`
	Map             map[string]string `json:"map"`
	Else            string            `json:"else"`
}

// ShipperRule adds a footprint-specific shipper when a control holds a value.
type ShipperRule struct {
	WhenControl string            `json:"when_control"`
	WhenValue   string            `json:"when_value"`
	Map         map[string]string `json:"map"`
	Else        string            `json:"else"`
}

// AssemblyTouchesRule charges a fixed part per product touch.
type AssemblyTouchesRule struct {
	WhenControl     string `json:"when_control"`
	WhenValue       string `json:"when_value"`
	QuantityControl string `json:"quantity_control"`
	MinQuantity     int    `json:"min_quantity"`
	Part            string `json:"part"`
}

// PrintedInsideRule maps the value of a control to a printing part.
type PrintedInsideRule struct {
	BasedOnControl string            `json:"based_on_control"`
	Map            map[string]string `json:"map"`
}
