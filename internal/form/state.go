package form

// MatrixSelection is a cell of the weight (row) by complexity (col) grid.
type MatrixSelection struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// DefaultMatrix is the cell selected before the user picks one.
var DefaultMatrix = MatrixSelection{Row: 1, Col: 1}

// Valid reports whether the cell lies inside the 3x3 grid.
func (m MatrixSelection) Valid() bool {
	return m.Row >= 0 && m.Row < 3 && m.Col >= 0 && m.Col < 3
}

// State is everything one configuring user owns: the chosen display, the
// form, which number controls were edited, and the matrix cell.
type State struct {
	Display string          `json:"display"`
	Values  Form            `json:"values"`
	Touched map[string]bool `json:"touched"`
	Matrix  MatrixSelection `json:"matrix"`
}

// NewState returns an empty state for a display.
func NewState(display string) *State {
	return &State{
		Display: display,
		Values:  make(Form),
		Touched: make(map[string]bool),
		Matrix:  DefaultMatrix,
	}
}

// FromForm builds a state from a complete form, as sent to the stateless
// quote endpoint. Every key present counts as touched.
func FromForm(display string, values Form, matrix MatrixSelection) *State {
	st := NewState(display)
	st.Matrix = matrix
	for k, v := range values {
		st.Values[k] = v
		st.Touched[k] = true
	}
	return st
}

// SelectDisplay switches display type. Changing type discards the form; the
// matrix cell is kept.
func (s *State) SelectDisplay(display string) {
	if s.Display == display {
		return
	}
	s.Display = display
	s.Reset()
}

// Set records a user edit.
func (s *State) Set(id string, value any) {
	s.ensure()
	s.Values[id] = value
	s.Touched[id] = true
}

// Clear removes a value and its touched flag.
func (s *State) Clear(id string) {
	delete(s.Values, id)
	delete(s.Touched, id)
}

// Reset empties the form.
func (s *State) Reset() {
	s.Values = make(Form)
	s.Touched = make(map[string]bool)
}

func (s *State) ensure() {
	if s.Values == nil {
		s.Values = make(Form)
	}
	if s.Touched == nil {
		s.Touched = make(map[string]bool)
	}
}
