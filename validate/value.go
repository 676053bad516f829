// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/token"
)

// ValueValidator validates a single value token. Call check methods on it
// until one of them accepts the value; checks after the first acceptance
// are skipped. If nothing accepted the value by the time Close runs, the
// value is reported as unknown.
type ValueValidator struct {
	value       token.Token
	data        Data
	rep         *report.Reports
	validated   bool
	maxSeverity report.Severity
}

// NewValue wraps a value token for validation. Reports default to
// severity Error at most.
func NewValue(value token.Token, data Data) *ValueValidator {
	return &ValueValidator{
		value:       value,
		data:        data,
		rep:         data.Reports(),
		maxSeverity: report.Error,
	}
}

// SetMaxSeverity caps the severity of reports from this validator. Fatal
// reports stay fatal.
func (vv *ValueValidator) SetMaxSeverity(maxSeverity report.Severity) {
	vv.maxSeverity = maxSeverity
}

// Token returns the value being validated.
func (vv *ValueValidator) Token() token.Token { return vv.value }

// Accept marks the value as known good without checking anything.
func (vv *ValueValidator) Accept() { vv.validated = true }

// Item expects the value to be the key of an item of this kind.
func (vv *ValueValidator) Item(kind item.Kind) {
	if vv.validated {
		return
	}
	vv.validated = true
	vv.data.VerifyExistsMaxSev(kind, vv.value, vv.maxSeverity)
}

// ItemUsedWithSuffix marks value+sfx as a used item without validating.
// Some localization is so weakly required that no warning is warranted.
func (vv *ValueValidator) ItemUsedWithSuffix(kind item.Kind, sfx string) {
	vv.data.MarkUsed(kind, vv.value.Text+sfx)
}

// ImpliedLocalization validates the localization entry whose key is the
// value wrapped in pfx and sfx, in the given scope context.
func (vv *ValueValidator) ImpliedLocalization(pfx, sfx string, sc *scopes.Context) {
	implied := pfx + vv.value.Text + sfx
	vv.data.ValidateLocalization(token.NewToken(implied, vv.value.Loc), sc)
}

// MaybeItem accepts the value if it is a defined item of this kind, and
// reports whether it was.
func (vv *ValueValidator) MaybeItem(kind item.Kind) bool {
	if vv.data.Exists(kind, vv.value.Text) {
		vv.validated = true
		vv.data.MarkUsed(kind, vv.value.Text)
		return true
	}
	return false
}

// DirFile expects the value to name a file under the given directory.
func (vv *ValueValidator) DirFile(path string) {
	if vv.validated {
		return
	}
	vv.validated = true
	vv.data.VerifyExistsImplied(item.File, path+"/"+vv.value.Text, vv.value)
}

// DefinedDirFile expects the value to name a file under the directory
// given by a define.
func (vv *ValueValidator) DefinedDirFile(define string) {
	if vv.validated {
		return
	}
	vv.validated = true
	if path, ok := vv.data.DefinedString(vv.value, define); ok {
		vv.data.VerifyExistsImplied(item.File, path+"/"+vv.value.Text, vv.value)
	}
}

// Split accepts the value and returns a validator for each piece of it
// around sep.
func (vv *ValueValidator) Split(sep byte) []*ValueValidator {
	vv.validated = true
	pieces := vv.value.Split(sep)
	out := make([]*ValueValidator, len(pieces))
	for i, piece := range pieces {
		sub := NewValue(piece, vv.data)
		sub.maxSeverity = vv.maxSeverity
		out[i] = sub
	}
	return out
}

// Target expects the value to be a scope chain evaluating to a type in
// outscopes, checked against sc. A bare `this` draws a warning.
func (vv *ValueValidator) Target(sc *scopes.Context, outscopes scopes.Scopes) {
	if vv.validated {
		return
	}
	vv.validated = true
	ValidateTarget(vv.value, vv.data, sc, outscopes)
}

// TargetOkThis is Target except that a bare `this` is allowed.
func (vv *ValueValidator) TargetOkThis(sc *scopes.Context, outscopes scopes.Scopes) {
	if vv.validated {
		return
	}
	vv.validated = true
	ValidateTargetOkThis(vv.value, vv.data, sc, outscopes)
}

// ItemOrTarget expects the value to be an item of this kind, or failing
// that a scope chain evaluating to a type in outscopes.
func (vv *ValueValidator) ItemOrTarget(sc *scopes.Context, kind item.Kind, outscopes scopes.Scopes) {
	if vv.validated {
		return
	}
	vv.validated = true
	if !vv.data.Exists(kind, vv.value.Text) {
		ValidateTarget(vv.value, vv.data, sc, outscopes)
	}
}

// Bool expects the value to be yes or no.
func (vv *ValueValidator) Bool() {
	if vv.validated {
		return
	}
	sev := report.Error.AtMost(vv.maxSeverity)
	vv.validated = true
	if !vv.value.IsFold("yes") && !vv.value.IsFold("no") {
		vv.rep.Build(report.Validation, sev).Msg("expected yes or no").Loc(vv.value).Push()
	}
}

// Integer expects the value to be an integer.
func (vv *ValueValidator) Integer() {
	if vv.validated {
		return
	}
	vv.validated = true
	ExpectInteger(vv.rep, vv.value)
}

// IntegerRange expects the value to be an integer between low and high
// inclusive. Pass math.MinInt64 or math.MaxInt64 to leave an end open.
func (vv *ValueValidator) IntegerRange(low, high int64) {
	if vv.validated {
		return
	}
	sev := report.Error.AtMost(vv.maxSeverity)
	vv.validated = true
	i, ok := ExpectInteger(vv.rep, vv.value)
	if !ok || (i >= low && i <= high) {
		return
	}
	vv.rep.Build(report.Range, sev).Msg(integerRangeMsg(low, high)).Loc(vv.value).Push()
}

// Numeric expects the value to be a number with up to 5 decimals.
func (vv *ValueValidator) Numeric() {
	if vv.validated {
		return
	}
	vv.validated = true
	ExpectNumber(vv.rep, vv.value)
}

// PreciseNumeric expects the value to be a number with any number of
// decimals.
func (vv *ValueValidator) PreciseNumeric() {
	if vv.validated {
		return
	}
	vv.validated = true
	ExpectPreciseNumber(vv.rep, vv.value)
}

// Date expects the value to be a date.
func (vv *ValueValidator) Date() {
	if vv.validated {
		return
	}
	sev := report.Error.AtMost(vv.maxSeverity)
	vv.validated = true
	if _, ok := vv.value.Date(); !ok {
		vv.rep.Build(report.Validation, sev).Msg("expected date value").Loc(vv.value).Push()
	}
}

// Choice expects the value to be one of the given strings.
func (vv *ValueValidator) Choice(choices ...string) {
	if vv.validated {
		return
	}
	sev := report.Error.AtMost(vv.maxSeverity)
	vv.validated = true
	for _, choice := range choices {
		if vv.value.Is(choice) {
			return
		}
	}
	msg := fmt.Sprintf("expected one of %s", strings.Join(choices, ", "))
	vv.rep.Build(report.Choice, sev).Msg(msg).Loc(vv.value).Push()
}

// MaybeIs accepts the value if it equals s, and reports whether it did.
func (vv *ValueValidator) MaybeIs(s string) bool {
	if vv.value.Is(s) {
		vv.validated = true
		return true
	}
	return false
}

// WarnUnvalidated reports the value as unknown if nothing accepted it.
// Close calls it; it is public for checks that want the report early.
func (vv *ValueValidator) WarnUnvalidated() {
	if !vv.validated {
		sev := report.Error.AtMost(vv.maxSeverity)
		vv.validated = true
		msg := fmt.Sprintf("unknown value `%s`", vv.value)
		vv.rep.Build(report.Validation, sev).Msg(msg).Loc(vv.value).Push()
	}
}

// Close finishes validation, reporting the value as unknown when no check
// accepted it. Callers that hand out a ValueValidator close it themselves
// after the caller's closure returns.
func (vv *ValueValidator) Close() { vv.WarnUnvalidated() }

// integerRangeMsg words an out-of-range report for integer bounds, where
// math.MinInt64 and math.MaxInt64 mean unbounded.
func integerRangeMsg(low, high int64) string {
	switch {
	case low > math.MinInt64 && high < math.MaxInt64:
		return fmt.Sprintf("should be between %d and %d (inclusive)", low, high)
	case low > math.MinInt64:
		return fmt.Sprintf("should be at least %d", low)
	default:
		return fmt.Sprintf("should be at most %d", high)
	}
}

// numericRangeMsg words an out-of-range report for inclusive float
// bounds, where infinities mean unbounded.
func numericRangeMsg(low, high float64) string {
	switch {
	case !math.IsInf(low, -1) && !math.IsInf(high, 1):
		return fmt.Sprintf("should be between %v (inclusive) and %v (inclusive)", low, high)
	case !math.IsInf(low, -1):
		return fmt.Sprintf("should be at least %v (inclusive)", low)
	default:
		return fmt.Sprintf("should be at most %v (inclusive)", high)
	}
}
