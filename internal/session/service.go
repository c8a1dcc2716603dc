package session

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
	"github.com/Simplici0/displayquote/internal/quote"
)

var (
	ErrNoDisplay      = errors.New("no display selected")
	ErrUnknownControl = errors.New("unknown control")
	ErrFieldLocked    = errors.New("control is locked or hidden")
	ErrInvalidValue   = errors.New("invalid value for control")
	ErrInvalidMatrix  = errors.New("matrix cell out of range")
)

// CatalogSource resolves a display key to its catalog.
type CatalogSource interface {
	Get(key string) (*catalog.Catalog, error)
}

// View is a session together with its freshly computed quote. Quote is nil
// until a display is selected.
type View struct {
	Session *Session      `json:"session"`
	Quote   *quote.Result `json:"quote,omitempty"`
}

// Service applies user interactions to stored sessions.
type Service struct {
	store    Store
	catalogs CatalogSource
	engine   *quote.Engine
	logger   *zap.Logger
}

// NewService wires a service. logger may be nil.
func NewService(store Store, catalogs CatalogSource, engine *quote.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = quote.NewEngine(logger, nil)
	}
	return &Service{store: store, catalogs: catalogs, engine: engine, logger: logger}
}

// Start creates and stores a new session, optionally with a display.
func (s *Service) Start(display string) (*View, error) {
	sess := New()
	if display != "" {
		if _, err := s.catalogs.Get(display); err != nil {
			return nil, err
		}
		sess.State.SelectDisplay(display)
	}
	s.logger.Info("session started", zap.String("session", sess.ID), zap.String("display", display))
	return s.commit(sess)
}

// Get recomputes the quote for a stored session.
func (s *Service) Get(id string) (*View, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.commit(sess)
}

// SelectDisplay switches display type. A different type discards the form.
func (s *Service) SelectDisplay(id, display string) (*View, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalogs.Get(display); err != nil {
		return nil, err
	}
	sess.State.SelectDisplay(display)
	return s.commit(sess)
}

// SetField records one control edit. The control must be visible and enabled
// in the current walk, and the value must be valid for its type.
func (s *Service) SetField(id, control string, value any) (*View, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	cat, err := s.catalog(sess)
	if err != nil {
		return nil, err
	}

	ctrl, ok := cat.Control(control)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownControl, control)
	}

	walk := form.Walk(cat.Controls, sess.State)
	if !enabled(walk, control) {
		return nil, fmt.Errorf("%w: %s", ErrFieldLocked, control)
	}

	normalized, err := normalize(ctrl, value)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		sess.State.Clear(control)
	} else {
		sess.State.Set(control, normalized)
	}
	return s.commit(sess)
}

// SetMatrix selects a cell of the markup grid.
func (s *Service) SetMatrix(id string, sel form.MatrixSelection) (*View, error) {
	if !sel.Valid() {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrInvalidMatrix, sel.Row, sel.Col)
	}
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.State.Matrix = sel
	return s.commit(sess)
}

// Reset empties the form but keeps the display and matrix cell.
func (s *Service) Reset(id string) (*View, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.State.Reset()
	return s.commit(sess)
}

// End deletes a session.
func (s *Service) End(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.Info("session ended", zap.String("session", id))
	return nil
}

// Purge removes sessions idle for longer than maxAge.
func (s *Service) Purge(maxAge time.Duration) (int64, error) {
	n, err := s.store.PurgeBefore(time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("purged idle sessions", zap.Int64("count", n))
	}
	return n, nil
}

// commit recomputes the quote and persists the session. The walk may prune
// hidden values, so saving happens after computing. A configuration error is
// returned along with the view so callers can still render the form.
func (s *Service) commit(sess *Session) (*View, error) {
	view := &View{Session: sess}
	var quoteErr error

	if sess.State.Display != "" {
		cat, err := s.catalog(sess)
		if err != nil {
			return nil, err
		}
		view.Quote, quoteErr = s.engine.Compute(cat, sess.State)
	}

	if err := s.store.Save(sess); err != nil {
		return nil, err
	}
	return view, quoteErr
}

func (s *Service) catalog(sess *Session) (*catalog.Catalog, error) {
	if sess.State.Display == "" {
		return nil, ErrNoDisplay
	}
	return s.catalogs.Get(sess.State.Display)
}

func enabled(walk form.WalkResult, control string) bool {
	for _, f := range walk.Fields {
		if f.Control.ID == control {
			return f.Enabled
		}
	}
	return false
}

// normalize checks value against the control type. Single choices must name
// one of the options; numbers must coerce to an integer. nil clears the
// control.
func normalize(ctrl catalog.Control, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch ctrl.Type {
	case catalog.ControlSingle:
		key, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects an option key", ErrInvalidValue, ctrl.ID)
		}
		if _, ok := ctrl.Option(key); !ok {
			return nil, fmt.Errorf("%w: %s has no option %q", ErrInvalidValue, ctrl.ID, key)
		}
		return key, nil
	case catalog.ControlNumber:
		n, ok := form.ToInt(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a number", ErrInvalidValue, ctrl.ID)
		}
		return n, nil
	default:
		return value, nil
	}
}
