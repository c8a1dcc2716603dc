// Package rules resolves a form into the parts one display unit needs.
package rules

import (
	"strconv"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/form"
)

// ResolvedPart is one line contributed by a rule.
type ResolvedPart struct {
	Key string `json:"part_key"`
	Qty int    `json:"qty"`
}

// ResolvePartsPerUnit applies the catalog rules in fixed order: footprint
// base, header, dividers, shipper, assembly touches, printed inside. Each
// rule fires on its own; absent rules are skipped. The result is the plain
// concatenation of what fired, duplicates included.
func ResolvePartsPerUnit(cat *catalog.Catalog, f form.Form, dims catalog.Dims) []ResolvedPart {
	r := cat.Rules
	resolved := make([]ResolvedPart, 0, 6)

	add := func(p ResolvedPart, ok bool) {
		if ok {
			resolved = append(resolved, p)
		}
	}

	if r.FootprintBase != nil {
		add(footprintBase(r.FootprintBase, f))
	}
	if r.Header != nil {
		add(header(r.Header, f, dims))
	}
	if r.Dividers != nil {
		add(dividers(r.Dividers, f, dims))
	}
	if r.Shipper != nil {
		add(shipper(r.Shipper, f))
	}
	if r.AssemblyTouches != nil {
		add(assemblyTouches(r.AssemblyTouches, f))
	}
	if r.PrintedInside != nil {
		add(printedInside(r.PrintedInside, f))
	}
	return resolved
}

func footprintBase(r *catalog.FootprintBaseRule, f form.Form) (ResolvedPart, bool) {
	fp := f.String(catalog.FootprintControlID)
	if fp == "" {
		return ResolvedPart{}, false
	}
	part := r.Map[fp]
	return ResolvedPart{Key: part, Qty: 1}, part != ""
}

func header(r *catalog.HeaderRule, f form.Form, dims catalog.Dims) (ResolvedPart, bool) {
	part := r.Else
	if f.Equals(r.WhenControl, r.WhenValue) && r.MatchOnDim == catalog.DimWidth && dims.WidthIn != nil {
		part = lookup(r.Map, strconv.Itoa(*dims.WidthIn), r.Else)
	}
	return ResolvedPart{Key: part, Qty: 1}, part != ""
}

// dividers is dimension-agnostic apart from its catalog configuration; sidekick
// pegs point quantity_control at their own field.
func dividers(r *catalog.DividersRule, f form.Form, dims catalog.Dims) (ResolvedPart, bool) {
	qty := f.Int(r.QuantityControl)
	if qty <= 0 || r.MatchOnDim != catalog.DimDepth || dims.DepthIn == nil {
		return ResolvedPart{}, false
	}
	part := lookup(r.Map, strconv.Itoa(*dims.DepthIn), r.Else)
	return ResolvedPart{Key: part, Qty: qty}, part != ""
}

func shipper(r *catalog.ShipperRule, f form.Form) (ResolvedPart, bool) {
	if !f.Equals(r.WhenControl, r.WhenValue) {
		return ResolvedPart{}, false
	}
	part := lookup(r.Map, f.String(catalog.FootprintControlID), r.Else)
	return ResolvedPart{Key: part, Qty: 1}, part != ""
}

func assemblyTouches(r *catalog.AssemblyTouchesRule, f form.Form) (ResolvedPart, bool) {
	if !f.Equals(r.WhenControl, r.WhenValue) {
		return ResolvedPart{}, false
	}
	minQty := r.MinQuantity
	if minQty == 0 {
		minQty = 1
	}
	qty := f.Int(r.QuantityControl)
	if qty < minQty {
		return ResolvedPart{}, false
	}
	return ResolvedPart{Key: r.Part, Qty: qty}, r.Part != ""
}

func printedInside(r *catalog.PrintedInsideRule, f form.Form) (ResolvedPart, bool) {
	selected, ok := f.StringValue(r.BasedOnControl)
	if !ok {
		return ResolvedPart{}, false
	}
	part := r.Map[selected]
	return ResolvedPart{Key: part, Qty: 1}, part != ""
}

func lookup(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
