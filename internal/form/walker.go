package form

import "github.com/Simplici0/displayquote/internal/catalog"

// conditionalControls are visibility rules that apply when a control does not
// declare visible_when itself.
var conditionalControls = map[string]catalog.Visibility{
	"product_touches": {Control: "assembly", Equals: "assembly-turnkey"},
}

// Field is the walked state of one visible control.
type Field struct {
	Control  catalog.Control `json:"control"`
	Value    any             `json:"value"`
	Enabled  bool            `json:"enabled"`
	Answered bool            `json:"answered"`
}

// WalkResult is the outcome of walking the controls in declared order.
type WalkResult struct {
	Fields []Field `json:"fields"`
	// Effective holds the values of enabled controls, defaults applied. It is
	// the form that rule resolution sees.
	Effective Form `json:"effective"`
	// Unlocked is true when every required control is answered; only then
	// are totals computed.
	Unlocked bool `json:"unlocked"`
	// Blocking is the first unanswered required control.
	Blocking string `json:"blocking,omitempty"`
}

// Visibility returns the visibility rule for a control, if any.
func Visibility(ctrl catalog.Control) (catalog.Visibility, bool) {
	if ctrl.VisibleWhen != nil {
		return *ctrl.VisibleWhen, true
	}
	v, ok := conditionalControls[ctrl.ID]
	return v, ok
}

// Walk evaluates controls left to right against st. Hidden conditional
// controls are removed from st together with their touched flag, so showing
// them again starts fresh. Once a required control is unanswered every later
// control is disabled and left out of the effective form.
func Walk(controls []catalog.Control, st *State) WalkResult {
	st.ensure()
	res := WalkResult{Effective: make(Form, len(controls))}
	locked := false

	for _, ctrl := range controls {
		if rule, ok := Visibility(ctrl); ok && !visible(rule, res.Effective, st.Values) {
			st.Clear(ctrl.ID)
			continue
		}

		value, answered := resolve(ctrl, st)
		field := Field{
			Control:  ctrl,
			Value:    value,
			Enabled:  !locked,
			Answered: answered,
		}
		res.Fields = append(res.Fields, field)

		if locked {
			continue
		}
		if value != nil {
			res.Effective[ctrl.ID] = value
		}
		if ctrl.Required && !answered {
			locked = true
			res.Blocking = ctrl.ID
		}
	}

	res.Unlocked = !locked
	return res
}

// visible checks a rule against values already walked, falling back to the
// raw form for controls declared later.
func visible(rule catalog.Visibility, walked, raw Form) bool {
	if _, ok := walked[rule.Control]; ok {
		return walked.Equals(rule.Control, rule.Equals)
	}
	return raw.Equals(rule.Control, rule.Equals)
}

// resolve returns the value shown for a control and whether it counts as answered.
func resolve(ctrl catalog.Control, st *State) (any, bool) {
	switch ctrl.Type {
	case catalog.ControlSingle:
		if key, ok := st.Values.StringValue(ctrl.ID); ok {
			if _, known := ctrl.Option(key); known {
				return key, true
			}
		}
		if ctrl.Required {
			return nil, false
		}
		if len(ctrl.Options) == 0 {
			return nil, true
		}
		return ctrl.Options[0].Key, true

	case catalog.ControlNumber:
		n, ok := ToInt(st.Values[ctrl.ID])
		if !ok || n < ctrl.Min {
			n = ctrl.Min
		}
		return n, !ctrl.Required || st.Touched[ctrl.ID]

	default:
		v := st.Values[ctrl.ID]
		return v, !ctrl.Required || v != nil
	}
}
