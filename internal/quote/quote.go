// Package quote runs the full configurator pipeline for one form snapshot:
// control walk, footprint lookup, part resolution and pricing.
package quote

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
	"github.com/Simplici0/displayquote/internal/metrics"
	"github.com/Simplici0/displayquote/internal/pricing"
	"github.com/Simplici0/displayquote/internal/rules"
)

// Outcome labels for a computed quote.
const (
	OutcomePriced      = "priced"
	OutcomeLocked      = "locked"
	OutcomeConfigError = "config_error"
)

// Result is everything the UI renders after one interaction.
type Result struct {
	Display  string               `json:"display"`
	Fields   []form.Field         `json:"fields"`
	Unlocked bool                 `json:"unlocked"`
	Blocking string               `json:"blocking,omitempty"`
	Dims     catalog.Dims         `json:"dims"`
	Parts    []rules.ResolvedPart `json:"parts"`
	Lines    []pricing.LineItem   `json:"lines"`
	Pricing  *pricing.Result      `json:"pricing,omitempty"`
}

// Compute runs the pipeline from scratch. Hidden conditional controls are
// pruned from st. Pricing only runs when every required control is answered;
// a *catalog.ConfigurationError from pricing is returned with the partial
// result (parts resolved, no totals).
func Compute(cat *catalog.Catalog, st *form.State) (*Result, error) {
	walk := form.Walk(cat.Controls, st)
	effective := walk.Effective

	dims := cat.FootprintDims(effective.String(catalog.FootprintControlID))
	parts := rules.ResolvePartsPerUnit(cat, effective, dims)

	res := &Result{
		Display:  st.Display,
		Fields:   walk.Fields,
		Unlocked: walk.Unlocked,
		Blocking: walk.Blocking,
		Dims:     dims,
		Parts:    parts,
		Lines:    pricing.LineItems(cat, parts),
	}
	if !walk.Unlocked {
		return res, nil
	}

	priced, err := pricing.Calculate(cat, effective, parts, st.Matrix)
	if err != nil {
		return res, err
	}
	res.Pricing = &priced
	return res, nil
}

// Engine wraps Compute with logging and metrics.
type Engine struct {
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// NewEngine creates an engine. Both arguments may be nil.
func NewEngine(logger *zap.Logger, recorder *metrics.Recorder) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, metrics: recorder}
}

// Compute runs the pipeline for st against cat.
func (e *Engine) Compute(cat *catalog.Catalog, st *form.State) (*Result, error) {
	start := time.Now()
	res, err := Compute(cat, st)

	outcome := OutcomePriced
	switch {
	case err != nil:
		outcome = OutcomeConfigError
		var cfgErr *catalog.ConfigurationError
		if errors.As(err, &cfgErr) {
			e.metrics.ConfigurationError(st.Display, cfgErr.Field)
			e.logger.Error("pricing halted by configuration error",
				zap.String("display", st.Display),
				zap.String("field", cfgErr.Field),
				zap.String("reason", cfgErr.Reason))
		} else {
			e.logger.Error("pricing failed", zap.String("display", st.Display), zap.Error(err))
		}
	case !res.Unlocked:
		outcome = OutcomeLocked
	}

	e.metrics.ObserveQuote(st.Display, outcome, time.Since(start))
	e.logger.Debug("quote computed",
		zap.String("display", st.Display),
		zap.String("outcome", outcome),
		zap.Int("parts", len(res.Parts)))
	return res, err
}
