// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package validate holds the field-checking contract that item validation
// is written against, plus the walkers for the script sublanguages:
// triggers, effects, script values and description blocks.
package validate

import (
	"fmt"
	"strings"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/common"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/token"
)

// FieldScope supplies the scope context a field's contents are validated
// in: an existing context, a fresh one rooted at the field's key, or one
// built from the key by a closure.
type FieldScope struct {
	sc    *scopes.Context
	root  scopes.Scopes
	build func(key token.Token) *scopes.Context
}

// FullScope validates in an existing context.
func FullScope(sc *scopes.Context) FieldScope { return FieldScope{sc: sc} }

// RootedScope validates in a fresh context whose root is associated with
// the field's own key. The wording of scope reports then points at the
// key instead of something further away.
func RootedScope(root scopes.Scopes) FieldScope { return FieldScope{root: root} }

// BuiltScope validates in a context built from the field's key.
func BuiltScope(build func(key token.Token) *scopes.Context) FieldScope {
	return FieldScope{build: build}
}

func (fs FieldScope) apply(key token.Token, rep *report.Reports, fn func(*scopes.Context)) {
	switch {
	case fs.sc != nil:
		fn(fs.sc)
	case fs.build != nil:
		fn(fs.build(key))
	default:
		fn(scopes.New(fs.root, key, rep))
	}
}

// Validator checks the fields of one block. The intended usage is to wrap
// the block, call expectation methods for all its legitimate contents, and
// then Close it; whatever no expectation claimed is reported as unknown.
// Callers never need to hunt for unknown fields themselves.
//
// The methods are mostly about fields (`key = value` and `key = { block }`
// items), but loose values, loose sub-blocks and comparators are covered
// too.
type Validator struct {
	// block is the block being validated.
	block *ast.Block
	// data links to all the loaded and processed game and mod files.
	data Data
	rep  *report.Reports

	// knownFields are the field keys some expectation has claimed so far,
	// by exact spelling.
	knownFields map[string]bool

	// accepted* record which leftover kinds are expected in this block and
	// should not be warned about.
	acceptedTokens      bool
	acceptedBlocks      bool
	acceptedBlockFields bool
	acceptedValueFields bool

	// caseSensitive controls whether field names match exactly or by
	// case folding. What the game engine does is not always known.
	caseSensitive bool
	// allowQeq permits `?=` in addition to `=`. Mostly for triggers and
	// effects.
	allowQeq bool
	// maxSeverity caps reports from this validator. Less-important items
	// set it lower. Fatal reports always stay fatal.
	maxSeverity report.Severity
}

// New wraps a block for validation. The data handle helps the convenience
// methods and is passed along to closures, so independent functions can be
// used as the closures.
func New(block *ast.Block, data Data) *Validator {
	return &Validator{
		block:         block,
		data:          data,
		rep:           data.Reports(),
		knownFields:   make(map[string]bool),
		caseSensitive: true,
		maxSeverity:   report.Fatal,
	}
}

// SetCaseSensitive controls whether field names in this block match
// case-sensitively. The default is true.
func (vd *Validator) SetCaseSensitive(cs bool) { vd.caseSensitive = cs }

// SetAllowQuestionEq controls whether this block accepts `?=` as well as
// `=` for assignments and definitions. Mostly specialized blocks such as
// triggers and effects do.
func (vd *Validator) SetAllowQuestionEq(allow bool) { vd.allowQeq = allow }

// SetMaxSeverity caps the severity of reports from this validator.
func (vd *Validator) SetMaxSeverity(maxSeverity report.Severity) {
	vd.maxSeverity = maxSeverity
}

// MaxSeverity returns the current severity cap.
func (vd *Validator) MaxSeverity() report.Severity { return vd.maxSeverity }

func (vd *Validator) matches(key token.Token, name string) bool {
	if vd.caseSensitive {
		return key.Is(name)
	}
	return key.IsFold(name)
}

func (vd *Validator) known(key token.Token) { vd.knownFields[key.Text] = true }

func (vd *Validator) isKnown(key token.Token) bool { return vd.knownFields[key.Text] }

// expectEqQeq checks the comparator of a claimed field against the block's
// comparator policy.
func (vd *Validator) expectEqQeq(key token.Token, cmp ast.Comparator) {
	if vd.allowQeq {
		if !cmp.IsEqQeq() {
			msg := fmt.Sprintf("expected `%s =` or `?=`, found `%s`", key, cmp)
			sev := report.Error.AtMost(vd.maxSeverity)
			vd.rep.Build(report.Validation, sev).Msg(msg).Loc(key).Push()
		}
	} else {
		if !cmp.IsEq() {
			msg := fmt.Sprintf("expected `%s =`, found `%s`", key, cmp)
			sev := report.Error.AtMost(vd.maxSeverity)
			vd.rep.Build(report.Validation, sev).Msg(msg).Loc(key).Push()
		}
	}
}

// fieldCheck claims field name, expecting at most one occurrence, and runs
// f on it. A second occurrence draws a duplicate-assignment report but is
// still passed to f.
func (vd *Validator) fieldCheck(name string, f func(key token.Token, bv ast.BV)) bool {
	var found *token.Token
	for _, fld := range vd.block.Fields() {
		if vd.matches(fld.Key, name) {
			vd.known(fld.Key)
			if found != nil {
				common.DupAssignError(vd.rep, fld.Key, *found)
			}
			vd.expectEqQeq(fld.Key, fld.Cmp)
			f(fld.Key, fld.BV)
			key := fld.Key
			found = &key
		}
	}
	return found != nil
}

// multiFieldCheck claims every occurrence of field name and runs f on each.
func (vd *Validator) multiFieldCheck(name string, f func(key token.Token, bv ast.BV)) bool {
	found := false
	for _, fld := range vd.block.Fields() {
		if vd.matches(fld.Key, name) {
			vd.known(fld.Key)
			vd.expectEqQeq(fld.Key, fld.Cmp)
			f(fld.Key, fld.BV)
			found = true
		}
	}
	return found
}

func (vd *Validator) checkKey(name string) bool {
	for _, fld := range vd.block.Fields() {
		if vd.matches(fld.Key, name) {
			vd.known(fld.Key)
			return true
		}
	}
	return false
}

// ReqField requires field name to be present, reporting when it is not.
// Returns true iff the field is present.
func (vd *Validator) ReqField(name string) bool {
	found := vd.checkKey(name)
	if !found {
		msg := fmt.Sprintf("required field `%s` missing", name)
		sev := report.Error.AtMost(vd.maxSeverity)
		vd.rep.Build(report.FieldMissing, sev).Msg(msg).Loc(vd.block).Push()
	}
	return found
}

// ReqFieldOneOf requires exactly one of the named fields to be present,
// reporting when none or several are. Returns true iff exactly one was
// found.
func (vd *Validator) ReqFieldOneOf(names ...string) bool {
	count := 0
	for _, name := range names {
		if vd.checkKey(name) {
			count++
		}
	}
	if count != 1 {
		msg := fmt.Sprintf("expected exactly 1 of %s", strings.Join(names, ", "))
		key := report.Validation
		if count == 0 {
			key = report.FieldMissing
		}
		sev := report.Error.AtMost(vd.maxSeverity)
		vd.rep.Build(key, sev).Msg(msg).Loc(vd.block).Push()
	}
	return count == 1
}

// ReqFieldWarn is ReqField at a lower severity.
func (vd *Validator) ReqFieldWarn(name string) bool {
	found := vd.checkKey(name)
	if !found {
		msg := fmt.Sprintf("required field `%s` missing", name)
		sev := report.Warning.AtMost(vd.maxSeverity)
		vd.rep.Build(report.FieldMissing, sev).Msg(msg).Loc(vd.block).Push()
	}
	return found
}

// ReqFieldFatal is ReqField at fatal severity, for fields whose absence
// crashes the game.
func (vd *Validator) ReqFieldFatal(name string) bool {
	found := vd.checkKey(name)
	if !found {
		msg := fmt.Sprintf("required field `%s` missing", name)
		vd.rep.Fatal(report.FieldMissing).Msg(msg).Loc(vd.block).Push()
	}
	return found
}

// BanField requires field name to be absent. When it is found, the report
// says where the field is for, using the onlyFor closure's wording.
func (vd *Validator) BanField(name string, onlyFor func() string) {
	sev := report.Error.AtMost(vd.maxSeverity)
	vd.multiFieldCheck(name, func(key token.Token, _ ast.BV) {
		msg := fmt.Sprintf("`%s = ` is only for %s", name, onlyFor())
		vd.rep.Build(report.Validation, sev).Msg(msg).Loc(key).Push()
	})
}

// ReplacedField requires field name to be absent, reporting that it has
// been replaced by something else. It adapts to changes in the game engine.
func (vd *Validator) ReplacedField(name, replacedBy string) {
	sev := report.Error.AtMost(vd.maxSeverity)
	vd.multiFieldCheck(name, func(key token.Token, _ ast.BV) {
		msg := fmt.Sprintf("`%s` has been replaced by %s", name, replacedBy)
		vd.rep.Build(report.Validation, sev).Msg(msg).Loc(key).Push()
	})
}

// AdviceField reports msg at low severity when field name is present.
// For harmless but unneeded fields.
func (vd *Validator) AdviceField(name, msg string) {
	if key, ok := vd.block.GetKey(name); ok {
		vd.known(key)
		sev := report.Untidy.AtMost(vd.maxSeverity)
		vd.rep.Build(report.Unneeded, sev).Msg(msg).Loc(key).Push()
	}
}

// Field expects field name, if present, to be either an assignment or a
// definition. No more than one occurrence. Returns true iff present.
func (vd *Validator) Field(name string) bool {
	return vd.fieldCheck(name, func(token.Token, ast.BV) {})
}

// MultiField is Field for any number of occurrences.
func (vd *Validator) MultiField(name string) bool {
	return vd.multiFieldCheck(name, func(token.Token, ast.BV) {})
}

// FieldAnyCmp claims field name without checking its comparator and
// returns its value or block. No more than one occurrence.
func (vd *Validator) FieldAnyCmp(name string) (ast.BV, bool) {
	var foundKey *token.Token
	var foundBV ast.BV
	for _, fld := range vd.block.Fields() {
		if vd.matches(fld.Key, name) {
			vd.known(fld.Key)
			if foundKey != nil {
				common.DupAssignError(vd.rep, fld.Key, *foundKey)
			}
			key := fld.Key
			foundKey = &key
			foundBV = fld.BV
		}
	}
	return foundBV, foundKey != nil
}

// MultiFieldAnyCmp claims every occurrence of field name without checking
// comparators or values. Returns true iff any was found.
func (vd *Validator) MultiFieldAnyCmp(name string) bool {
	found := false
	for _, fld := range vd.block.Fields() {
		if vd.matches(fld.Key, name) {
			vd.known(fld.Key)
			found = true
		}
	}
	return found
}

// FieldValue expects field name, if present, to be an assignment
// `name = value` and returns the value. No more than one occurrence.
func (vd *Validator) FieldValue(name string) (token.Token, bool) {
	var result token.Token
	resultOk := false
	vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			result = tok
			resultOk = true
		}
	})
	return result, resultOk
}

// FieldValidatedValue expects field name, if present, to be an assignment,
// and hands a ValueValidator for the value to f. The validator is closed
// after f returns, so an unaccepted value is reported without any action
// from f. Returns true iff the field is present.
func (vd *Validator) FieldValidatedValue(name string, f func(key token.Token, vv *ValueValidator)) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			vv := NewValue(tok, vd.data)
			vv.SetMaxSeverity(vd.maxSeverity)
			f(key, vv)
			vv.Close()
		}
	})
}

// MultiFieldValidatedValue is FieldValidatedValue for any number of
// occurrences.
func (vd *Validator) MultiFieldValidatedValue(name string, f func(key token.Token, vv *ValueValidator)) bool {
	return vd.multiFieldCheck(name, func(key token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			vv := NewValue(tok, vd.data)
			vv.SetMaxSeverity(vd.maxSeverity)
			f(key, vv)
			vv.Close()
		}
	})
}

// FieldItem expects field name, if present, to be set to the key of a
// defined item of this kind. No more than one occurrence.
func (vd *Validator) FieldItem(name string, kind item.Kind) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			vd.data.VerifyExistsMaxSev(kind, tok, vd.maxSeverity)
		}
	})
}

// MultiFieldItem is FieldItem for any number of occurrences.
func (vd *Validator) MultiFieldItem(name string, kind item.Kind) {
	vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			vd.data.VerifyExistsMaxSev(kind, tok, vd.maxSeverity)
		}
	})
}

// FieldItemOrEmpty is FieldItem but also accepts the empty string.
func (vd *Validator) FieldItemOrEmpty(name string, kind item.Kind) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok && !tok.Is("") {
			vd.data.VerifyExistsMaxSev(kind, tok, vd.maxSeverity)
		}
	})
}

// FieldLocalization expects field name, if present, to be a localization
// key, and validates the entry's code chains in sc.
func (vd *Validator) FieldLocalization(name string, sc *scopes.Context) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			vd.data.VerifyExistsMaxSev(item.Localization, tok, vd.maxSeverity)
			vd.data.ValidateLocalization(tok, sc)
		}
	})
}

// FieldIcon expects field name, if present, to name an icon file under the
// directory given by a define.
func (vd *Validator) FieldIcon(name, define, suffix string) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			if path, ok := vd.data.DefinedString(tok, define); ok {
				vd.data.VerifyExistsImplied(item.File, path+"/"+tok.Text+suffix, tok)
			}
		}
	})
}

// FieldTarget expects field name, if present, to be an assignment whose
// value is a scope chain evaluating to a type in outscopes. The value is
// checked against sc, so scope:actor with no saved actor draws a report.
// A bare `this` draws a report too, because that is almost never correct.
func (vd *Validator) FieldTarget(name string, sc *scopes.Context, outscopes scopes.Scopes) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			ValidateTarget(tok, vd.data, sc, outscopes)
		}
	})
}

// FieldTargetOkThis is FieldTarget except that a bare `this` is accepted.
// For the judicious few fields where `this` can be correct.
func (vd *Validator) FieldTargetOkThis(name string, sc *scopes.Context, outscopes scopes.Scopes) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			ValidateTargetOkThis(tok, vd.data, sc, outscopes)
		}
	})
}

// FieldItemOrTarget combines FieldItem and FieldTarget: a value that is
// not a defined item of this kind is evaluated as a target.
func (vd *Validator) FieldItemOrTarget(name string, sc *scopes.Context, kind item.Kind, outscopes scopes.Scopes) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			if !vd.data.Exists(kind, tok.Text) {
				ValidateTarget(tok, vd.data, sc, outscopes)
			}
		}
	})
}

// FieldItemOrTargetOkThis is FieldItemOrTarget with `this` accepted.
func (vd *Validator) FieldItemOrTargetOkThis(name string, sc *scopes.Context, kind item.Kind, outscopes scopes.Scopes) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			if !vd.data.Exists(kind, tok.Text) {
				ValidateTargetOkThis(tok, vd.data, sc, outscopes)
			}
		}
	})
}

// FieldBlock expects field name, if present, to be a definition
// `name = { block }`. No other validation is done.
func (vd *Validator) FieldBlock(name string) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		bv.ExpectBlock(vd.rep)
	})
}

// MultiFieldBlock is FieldBlock for any number of occurrences.
func (vd *Validator) MultiFieldBlock(name string) bool {
	return vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		bv.ExpectBlock(vd.rep)
	})
}

// FieldBool expects field name, if present, to be `name = yes` or
// `name = no`.
func (vd *Validator) FieldBool(name string) bool {
	sev := report.Error.AtMost(vd.maxSeverity)
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			if !tok.Is("yes") && !tok.Is("no") && !tok.Is("YES") && !tok.Is("NO") {
				vd.rep.Build(report.Validation, sev).Msg("expected yes or no").Loc(tok).Push()
			}
		}
	})
}

// FieldInteger expects field name, if present, to be set to an integer.
func (vd *Validator) FieldInteger(name string) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			ExpectInteger(vd.rep, tok)
		}
	})
}

// FieldIntegerRange expects field name, if present, to be an integer
// between low and high inclusive. Pass math.MinInt64 or math.MaxInt64 to
// leave an end open.
func (vd *Validator) FieldIntegerRange(name string, low, high int64) {
	sev := report.Error.AtMost(vd.maxSeverity)
	vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		tok, ok := bv.ExpectValue(vd.rep)
		if !ok {
			return
		}
		i, ok := ExpectInteger(vd.rep, tok)
		if !ok || (i >= low && i <= high) {
			return
		}
		vd.rep.Build(report.Range, sev).Msg(integerRangeMsg(low, high)).Loc(tok).Push()
	})
}

// FieldNumeric expects field name, if present, to be set to a number with
// up to 5 decimals. 5 decimals is the limit the game engine reads in most
// contexts.
func (vd *Validator) FieldNumeric(name string) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			ExpectNumber(vd.rep, tok)
		}
	})
}

// FieldPreciseNumeric expects field name, if present, to be set to a
// number with any number of decimals.
func (vd *Validator) FieldPreciseNumeric(name string) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			ExpectPreciseNumber(vd.rep, tok)
		}
	})
}

func (vd *Validator) fieldNumericRange(name string, low, high float64, precise bool) {
	sev := report.Error.AtMost(vd.maxSeverity)
	vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		tok, ok := bv.ExpectValue(vd.rep)
		if !ok {
			return
		}
		var f float64
		if precise {
			f, ok = ExpectPreciseNumber(vd.rep, tok)
		} else {
			f, ok = ExpectNumber(vd.rep, tok)
		}
		if !ok || (f >= low && f <= high) {
			return
		}
		vd.rep.Build(report.Range, sev).Msg(numericRangeMsg(low, high)).Loc(tok).Push()
	})
}

// FieldNumericRange expects field name, if present, to be a number between
// low and high inclusive, with up to 5 decimals. Pass infinities to leave
// an end open.
func (vd *Validator) FieldNumericRange(name string, low, high float64) {
	vd.fieldNumericRange(name, low, high, false)
}

// FieldPreciseNumericRange is FieldNumericRange without the decimal limit.
func (vd *Validator) FieldPreciseNumericRange(name string, low, high float64) {
	vd.fieldNumericRange(name, low, high, true)
}

// FieldDate expects field name, if present, to be set to a date. The date
// format is flexible, from a single year to year.month.day, and no
// validity checking is done beyond the format (January 42nd is okay).
func (vd *Validator) FieldDate(name string) bool {
	sev := report.Error.AtMost(vd.maxSeverity)
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			if _, ok := tok.Date(); !ok {
				vd.rep.Build(report.Validation, sev).Msg("expected date value").Loc(tok).Push()
			}
		}
	})
}

// FieldChoice expects field name, if present, to be one of the listed
// strings.
func (vd *Validator) FieldChoice(name string, choices ...string) bool {
	sev := report.Error.AtMost(vd.maxSeverity)
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			if !contains(choices, tok.Text) {
				msg := fmt.Sprintf("expected one of %s", strings.Join(choices, ", "))
				vd.rep.Build(report.Choice, sev).Msg(msg).Loc(tok).Push()
			}
		}
	})
}

// MultiFieldChoice is FieldChoice for any number of occurrences.
func (vd *Validator) MultiFieldChoice(name string, choices ...string) bool {
	sev := report.Error.AtMost(vd.maxSeverity)
	return vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			if !contains(choices, tok.Text) {
				msg := fmt.Sprintf("expected one of %s", strings.Join(choices, ", "))
				vd.rep.Build(report.Choice, sev).Msg(msg).Loc(tok).Push()
			}
		}
	})
}

// FieldList expects field name, if present, to be of the form
// `name = { value value ... }` with any number of values.
func (vd *Validator) FieldList(name string) bool {
	return vd.FieldValidatedList(name, func(token.Token, Data) {})
}

// FieldValidatedList is FieldList with f called on every value.
func (vd *Validator) FieldValidatedList(name string, f func(value token.Token, data Data)) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			for _, tok := range block.ItemValuesWarn(vd.rep) {
				f(tok, vd.data)
			}
		}
	})
}

// FieldListItems is FieldList with every value required to be a defined
// item of this kind.
func (vd *Validator) FieldListItems(name string, kind item.Kind) bool {
	sev := vd.maxSeverity
	return vd.FieldValidatedList(name, func(tok token.Token, data Data) {
		data.VerifyExistsMaxSev(kind, tok, sev)
	})
}

// FieldListChoice is FieldList with every value required to be one of the
// listed strings.
func (vd *Validator) FieldListChoice(name string, choices ...string) bool {
	sev := report.Error.AtMost(vd.maxSeverity)
	return vd.FieldValidatedList(name, func(tok token.Token, _ Data) {
		if !contains(choices, tok.Text) {
			msg := fmt.Sprintf("expected one of %s", strings.Join(choices, ", "))
			vd.rep.Build(report.Choice, sev).Msg(msg).Loc(tok).Push()
		}
	})
}

// MultiFieldValidatedList is FieldValidatedList for any number of
// occurrences.
func (vd *Validator) MultiFieldValidatedList(name string, f func(value token.Token, data Data)) bool {
	return vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			for _, tok := range block.ItemValuesWarn(vd.rep) {
				f(tok, vd.data)
			}
		}
	})
}

// MultiFieldListItems is FieldListItems for any number of occurrences.
func (vd *Validator) MultiFieldListItems(name string, kind item.Kind) bool {
	sev := vd.maxSeverity
	return vd.MultiFieldValidatedList(name, func(tok token.Token, data Data) {
		data.VerifyExistsMaxSev(kind, tok, sev)
	})
}

// MultiFieldValue claims every `name = value` occurrence and returns the
// values.
func (vd *Validator) MultiFieldValue(name string) []token.Token {
	var out []token.Token
	vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			out = append(out, tok)
		}
	})
	return out
}

// FieldValidated expects field name, if present, to be an assignment or a
// definition, and calls f on it. No more than one occurrence.
func (vd *Validator) FieldValidated(name string, f func(bv ast.BV, data Data)) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		f(bv, vd.data)
	})
}

// FieldValidatedKey is FieldValidated with the key passed to f.
func (vd *Validator) FieldValidatedKey(name string, f func(key token.Token, bv ast.BV, data Data)) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		f(key, bv, vd.data)
	})
}

// FieldValidatedSc is FieldValidated threading a scope context through,
// which is handy for delegating to ValidateDesc and friends.
func (vd *Validator) FieldValidatedSc(name string, sc *scopes.Context, f func(bv ast.BV, data Data, sc *scopes.Context)) bool {
	return vd.FieldValidated(name, func(bv ast.BV, data Data) { f(bv, data, sc) })
}

// FieldValidatedRooted is FieldValidatedSc with a fresh context rooted at
// the field's key, for clearer warnings than a context associated with a
// key further away.
func (vd *Validator) FieldValidatedRooted(name string, root scopes.Scopes, f func(bv ast.BV, data Data, sc *scopes.Context)) bool {
	return vd.FieldValidatedBuilder(name, func(key token.Token) *scopes.Context {
		return scopes.New(root, key, vd.rep)
	}, f)
}

// FieldValidatedBuilder is FieldValidatedSc with the context built from
// the field's key.
func (vd *Validator) FieldValidatedBuilder(name string, build func(key token.Token) *scopes.Context, f func(bv ast.BV, data Data, sc *scopes.Context)) bool {
	return vd.FieldValidatedKey(name, func(key token.Token, bv ast.BV, data Data) {
		f(bv, data, build(key))
	})
}

// MultiFieldValidated is FieldValidated for any number of occurrences.
func (vd *Validator) MultiFieldValidated(name string, f func(bv ast.BV, data Data)) bool {
	return vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		f(bv, vd.data)
	})
}

// MultiFieldValidatedKey is FieldValidatedKey for any number of
// occurrences.
func (vd *Validator) MultiFieldValidatedKey(name string, f func(key token.Token, bv ast.BV, data Data)) bool {
	return vd.multiFieldCheck(name, func(key token.Token, bv ast.BV) {
		f(key, bv, vd.data)
	})
}

// MultiFieldValidatedSc is FieldValidatedSc for any number of occurrences.
func (vd *Validator) MultiFieldValidatedSc(name string, sc *scopes.Context, f func(bv ast.BV, data Data, sc *scopes.Context)) bool {
	return vd.MultiFieldValidated(name, func(bv ast.BV, data Data) { f(bv, data, sc) })
}

// FieldValidatedBlock expects field name, if present, to be a definition
// `name = { block }`, and calls f on the block. No more than one
// occurrence.
func (vd *Validator) FieldValidatedBlock(name string, f func(block *ast.Block, data Data)) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			f(block, vd.data)
		}
	})
}

// FieldValidatedKeyBlock is FieldValidatedBlock with the key passed to f.
func (vd *Validator) FieldValidatedKeyBlock(name string, f func(key token.Token, block *ast.Block, data Data)) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			f(key, block, vd.data)
		}
	})
}

// FieldValidatedBlockSc is FieldValidatedBlock threading a scope context
// through.
func (vd *Validator) FieldValidatedBlockSc(name string, sc *scopes.Context, f func(block *ast.Block, data Data, sc *scopes.Context)) bool {
	return vd.FieldValidatedBlock(name, func(block *ast.Block, data Data) { f(block, data, sc) })
}

// FieldValidatedBlockRooted is FieldValidatedBlockSc with a fresh context
// rooted at the field's key.
func (vd *Validator) FieldValidatedBlockRooted(name string, root scopes.Scopes, f func(block *ast.Block, data Data, sc *scopes.Context)) bool {
	return vd.FieldValidatedBlockBuilder(name, func(key token.Token) *scopes.Context {
		return scopes.New(root, key, vd.rep)
	}, f)
}

// FieldValidatedBlockBuilder is FieldValidatedBlockSc with the context
// built from the field's key.
func (vd *Validator) FieldValidatedBlockBuilder(name string, build func(key token.Token) *scopes.Context, f func(block *ast.Block, data Data, sc *scopes.Context)) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			f(block, vd.data, build(key))
		}
	})
}

// FieldValidatedBlockReRooted is FieldValidatedBlockSc on a copy of sc
// whose root is re-associated with this field's key. Purely for better
// warnings.
func (vd *Validator) FieldValidatedBlockReRooted(name string, sc *scopes.Context, root scopes.Scopes, f func(block *ast.Block, data Data, sc *scopes.Context)) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			re := sc.Clone()
			re.ChangeRoot(root, key)
			f(block, vd.data, re)
		}
	})
}

// MultiFieldValidatedBlock is FieldValidatedBlock for any number of
// occurrences.
func (vd *Validator) MultiFieldValidatedBlock(name string, f func(block *ast.Block, data Data)) bool {
	return vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			f(block, vd.data)
		}
	})
}

// MultiFieldValidatedKeyBlock is FieldValidatedKeyBlock for any number of
// occurrences.
func (vd *Validator) MultiFieldValidatedKeyBlock(name string, f func(key token.Token, block *ast.Block, data Data)) bool {
	return vd.multiFieldCheck(name, func(key token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			f(key, block, vd.data)
		}
	})
}

// MultiFieldValidatedBlockSc is FieldValidatedBlockSc for any number of
// occurrences.
func (vd *Validator) MultiFieldValidatedBlockSc(name string, sc *scopes.Context, f func(block *ast.Block, data Data, sc *scopes.Context)) bool {
	return vd.MultiFieldValidatedBlock(name, func(block *ast.Block, data Data) { f(block, data, sc) })
}

// MultiFieldValidatedBlockRooted is FieldValidatedBlockRooted for any
// number of occurrences.
func (vd *Validator) MultiFieldValidatedBlockRooted(name string, root scopes.Scopes, f func(block *ast.Block, data Data, sc *scopes.Context)) bool {
	return vd.multiFieldCheck(name, func(key token.Token, bv ast.BV) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			f(block, vd.data, scopes.New(root, key, vd.rep))
		}
	})
}

// FieldTrigger expects field name, if present, to be set to a trigger
// block, validated in the scope context fsc supplies.
func (vd *Validator) FieldTrigger(name string, fsc FieldScope, tooltipped Tooltipped) bool {
	return vd.FieldValidatedKeyBlock(name, func(key token.Token, block *ast.Block, data Data) {
		fsc.apply(key, vd.rep, func(sc *scopes.Context) {
			ValidateTriggerInternal("", false, block, data, sc, tooltipped, false, report.Error)
		})
	})
}

// FieldEffect expects field name, if present, to be set to an effect
// block, validated in the scope context fsc supplies.
func (vd *Validator) FieldEffect(name string, fsc FieldScope, tooltipped Tooltipped) bool {
	return vd.FieldValidatedKeyBlock(name, func(key token.Token, block *ast.Block, data Data) {
		fsc.apply(key, vd.rep, func(sc *scopes.Context) {
			sub := New(block, data)
			ValidateEffectInternal("", ListNone, block, data, sc, sub, tooltipped)
			sub.Close()
		})
	})
}

// FieldScriptValue expects field name, if present, to be set to a script
// value: a named one, a literal number, a range `{ min max }`, or a full
// definition with limits and math. It is evaluated in sc, so scope:actor
// with no saved actor draws a report. No more than one occurrence.
func (vd *Validator) FieldScriptValue(name string, sc *scopes.Context) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		ValidateScriptValue(bv, vd.data, sc)
	})
}

// FieldScriptValueNoBreakdown is FieldScriptValue without warning about
// missing localization in inline `desc` fields. For script values only
// ever shown in debugging contexts, such as ai_will_do.
func (vd *Validator) FieldScriptValueNoBreakdown(name string, sc *scopes.Context) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		ValidateScriptValueNoBreakdown(bv, vd.data, sc)
	})
}

// FieldScriptValueRooted is FieldScriptValue in a fresh context rooted at
// the field's key.
func (vd *Validator) FieldScriptValueRooted(name string, root scopes.Scopes) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		sc := scopes.New(root, key, vd.rep)
		ValidateScriptValue(bv, vd.data, sc)
	})
}

// FieldScriptValueBuilder is FieldScriptValue with the context built from
// the field's key.
func (vd *Validator) FieldScriptValueBuilder(name string, build func(key token.Token) *scopes.Context) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		ValidateScriptValue(bv, vd.data, build(key))
	})
}

// FieldScriptValueNoBreakdownBuilder is FieldScriptValueBuilder without
// the localization warnings of inline desc fields.
func (vd *Validator) FieldScriptValueNoBreakdownBuilder(name string, build func(key token.Token) *scopes.Context) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		ValidateScriptValueNoBreakdown(bv, vd.data, build(key))
	})
}

// FieldScriptValueOrFlag is FieldScriptValue that also accepts a literal
// flag:something value.
func (vd *Validator) FieldScriptValueOrFlag(name string, sc *scopes.Context) bool {
	return vd.fieldCheck(name, func(_ token.Token, bv ast.BV) {
		if tok, ok := bv.Value(); ok {
			ValidateTarget(tok, vd.data, sc, scopes.Value|scopes.Bool|scopes.Flag)
		} else {
			ValidateScriptValue(bv, vd.data, sc)
		}
	})
}

// MultiFieldScriptValue is FieldScriptValue for any number of occurrences.
func (vd *Validator) MultiFieldScriptValue(name string, sc *scopes.Context) bool {
	return vd.multiFieldCheck(name, func(_ token.Token, bv ast.BV) {
		ValidateScriptValue(bv, vd.data, sc)
	})
}

// FieldScriptValueFull is FieldScriptValue with the scope context supplied
// by fsc. With breakdown false, missing localization in inline desc
// fields is not warned about.
func (vd *Validator) FieldScriptValueFull(name string, fsc FieldScope, breakdown bool) bool {
	return vd.fieldCheck(name, func(key token.Token, bv ast.BV) {
		fsc.apply(key, vd.rep, func(sc *scopes.Context) {
			if breakdown {
				ValidateScriptValue(bv, vd.data, sc)
			} else {
				ValidateScriptValueNoBreakdown(bv, vd.data, sc)
			}
		})
	})
}

// ReqTokensIntegersExactly expects this block to be of the form
// `{ 1 2 3 }` with exactly expect integers.
func (vd *Validator) ReqTokensIntegersExactly(expect int) {
	vd.acceptedTokens = true
	found := 0
	for _, tok := range vd.block.ItemValues() {
		if _, ok := ExpectInteger(vd.rep, tok); ok {
			found++
		}
	}
	if found != expect {
		msg := fmt.Sprintf("expected %d integers", expect)
		sev := report.Error.AtMost(vd.maxSeverity)
		vd.rep.Build(report.Validation, sev).Msg(msg).Loc(vd.block).Push()
	}
}

// ReqTokensNumbersExactly expects this block to be of the form
// `{ 0.0 0.5 1.0 }` with exactly expect numbers of up to 5 decimals.
func (vd *Validator) ReqTokensNumbersExactly(expect int) {
	vd.acceptedTokens = true
	found := 0
	for _, tok := range vd.block.ItemValues() {
		if _, ok := ExpectNumber(vd.rep, tok); ok {
			found++
		}
	}
	if found != expect {
		msg := fmt.Sprintf("expected %d numbers", expect)
		sev := report.Error.AtMost(vd.maxSeverity)
		vd.rep.Build(report.Validation, sev).Msg(msg).Loc(vd.block).Push()
	}
}

// ReqTokensPreciseNumbersExactly is ReqTokensNumbersExactly with any
// number of decimals allowed.
func (vd *Validator) ReqTokensPreciseNumbersExactly(expect int) {
	vd.acceptedTokens = true
	found := 0
	for _, tok := range vd.block.ItemValues() {
		if _, ok := ExpectPreciseNumber(vd.rep, tok); ok {
			found++
		}
	}
	if found != expect {
		msg := fmt.Sprintf("expected %d numbers", expect)
		sev := report.Error.AtMost(vd.maxSeverity)
		vd.rep.Build(report.Validation, sev).Msg(msg).Loc(vd.block).Push()
	}
}

// FieldListNumericExactly expects field name, if present, to be a list of
// exactly expect numbers.
func (vd *Validator) FieldListNumericExactly(name string, expect int) {
	vd.FieldValidatedBlock(name, func(block *ast.Block, data Data) {
		sub := New(block, data)
		sub.ReqTokensNumbersExactly(expect)
		sub.Close()
	})
}

// FieldListPreciseNumericExactly is FieldListNumericExactly with any
// number of decimals allowed.
func (vd *Validator) FieldListPreciseNumericExactly(name string, expect int) {
	vd.FieldValidatedBlock(name, func(block *ast.Block, data Data) {
		sub := New(block, data)
		sub.ReqTokensPreciseNumbersExactly(expect)
		sub.Close()
	})
}

// FieldListIntegersExactly expects field name, if present, to be a list
// of exactly expect integers.
func (vd *Validator) FieldListIntegersExactly(name string, expect int) {
	vd.FieldValidatedBlock(name, func(block *ast.Block, data Data) {
		sub := New(block, data)
		sub.ReqTokensIntegersExactly(expect)
		sub.Close()
	})
}

// Values accepts any number of loose values in the block, possibly next
// to other things, and returns them.
func (vd *Validator) Values() []token.Token {
	vd.acceptedTokens = true
	return vd.block.ItemValues()
}

// Blocks accepts any number of loose sub-blocks in the block, possibly
// next to other things, and returns them.
func (vd *Validator) Blocks() []*ast.Block {
	vd.acceptedBlocks = true
	return vd.block.SubBlocks()
}

// ValidatedBlocks accepts any number of loose sub-blocks and runs f on
// each.
func (vd *Validator) ValidatedBlocks(f func(block *ast.Block, data Data)) {
	vd.acceptedBlocks = true
	for _, block := range vd.block.SubBlocks() {
		f(block, vd.data)
	}
}

// IntegerBlocks claims every `key = { block }` field with an integer key
// and runs f on each.
func (vd *Validator) IntegerBlocks(f func(key token.Token, block *ast.Block)) {
	for _, fld := range vd.block.Fields() {
		if _, ok := fld.Key.Int(); ok {
			vd.known(fld.Key)
			vd.expectEqQeq(fld.Key, fld.Cmp)
			if block, ok := fld.BV.ExpectBlock(vd.rep); ok {
				f(fld.Key, block)
			}
		}
	}
}

// IntegerValues claims every `key = value` field with an integer key and
// runs f on each.
func (vd *Validator) IntegerValues(f func(key, value token.Token)) {
	for _, fld := range vd.block.Fields() {
		if _, ok := fld.Key.Int(); ok {
			vd.known(fld.Key)
			vd.expectEqQeq(fld.Key, fld.Cmp)
			if tok, ok := fld.BV.ExpectValue(vd.rep); ok {
				f(fld.Key, tok)
			}
		}
	}
}

// IntegerKeys claims every field with an integer key and runs f on each.
func (vd *Validator) IntegerKeys(f func(key token.Token, bv ast.BV)) {
	for _, fld := range vd.block.Fields() {
		if _, ok := fld.Key.Int(); ok {
			vd.known(fld.Key)
			vd.expectEqQeq(fld.Key, fld.Cmp)
			f(fld.Key, fld.BV)
		}
	}
}

// ValidateHistoryBlocks claims every `key = { block }` field with a date
// key and runs f on each. Unusual date formats draw a report but still
// match.
func (vd *Validator) ValidateHistoryBlocks(f func(date token.Date, key token.Token, block *ast.Block, data Data)) {
	for _, fld := range vd.block.Fields() {
		if date, ok := fld.Key.Date(); ok {
			ExpectDate(vd.rep, fld.Key)
			vd.known(fld.Key)
			vd.expectEqQeq(fld.Key, fld.Cmp)
			if block, ok := fld.BV.ExpectBlock(vd.rep); ok {
				f(date, fld.Key, block, vd.data)
			}
		}
	}
}

// ValidateItemKeyFields expects every field key in the block to be a
// unique defined item of this kind, and runs f on each field.
func (vd *Validator) ValidateItemKeyFields(kind item.Kind, f func(key token.Token, bv ast.BV, data Data)) {
	visited := make(map[string]token.Token)
	for _, fld := range vd.block.Fields() {
		vd.data.VerifyExists(kind, fld.Key)
		if other, ok := visited[fld.Key.Text]; ok {
			common.DupAssignError(vd.rep, fld.Key, other)
		} else {
			visited[fld.Key.Text] = fld.Key
		}
		vd.known(fld.Key)
		f(fld.Key, fld.BV, vd.data)
	}
}

// ValidateItemKeyValues is ValidateItemKeyFields for `key = value` fields,
// handing f a ValueValidator per field.
func (vd *Validator) ValidateItemKeyValues(kind item.Kind, f func(key token.Token, vv *ValueValidator)) {
	sev := vd.maxSeverity
	vd.ValidateItemKeyFields(kind, func(key token.Token, bv ast.BV, data Data) {
		if tok, ok := bv.ExpectValue(vd.rep); ok {
			vv := NewValue(tok, data)
			vv.SetMaxSeverity(sev)
			f(key, vv)
			vv.Close()
		}
	})
}

// ValidateItemKeyBlocks is ValidateItemKeyFields for `key = { block }`
// fields.
func (vd *Validator) ValidateItemKeyBlocks(kind item.Kind, f func(key token.Token, block *ast.Block, data Data)) {
	vd.ValidateItemKeyFields(kind, func(key token.Token, bv ast.BV, data Data) {
		if block, ok := bv.ExpectBlock(vd.rep); ok {
			f(key, block, data)
		}
	})
}

// UnknownFields accepts any number of unknown fields, running f on each
// field no expectation claimed. Loose values and sub-blocks still draw
// reports.
func (vd *Validator) UnknownFields(f func(key token.Token, bv ast.BV)) {
	vd.acceptedBlockFields = true
	vd.acceptedValueFields = true
	for _, fld := range vd.block.Fields() {
		vd.expectEqQeq(fld.Key, fld.Cmp)
		if !vd.isKnown(fld.Key) {
			f(fld.Key, fld.BV)
		}
	}
}

// UnknownBlockFields accepts any number of unknown `key = { block }`
// fields, running f on each unclaimed one.
func (vd *Validator) UnknownBlockFields(f func(key token.Token, block *ast.Block)) {
	vd.acceptedBlockFields = true
	for _, fld := range vd.block.Fields() {
		if block, ok := fld.BV.Block(); ok {
			vd.expectEqQeq(fld.Key, fld.Cmp)
			if !vd.isKnown(fld.Key) {
				f(fld.Key, block)
			}
		}
	}
}

// UnknownValueFields accepts any number of unknown `key = value` fields,
// running f on each unclaimed one.
func (vd *Validator) UnknownValueFields(f func(key, value token.Token)) {
	vd.acceptedValueFields = true
	for _, fld := range vd.block.Fields() {
		if tok, ok := fld.BV.Value(); ok {
			vd.expectEqQeq(fld.Key, fld.Cmp)
			if !vd.isKnown(fld.Key) {
				f(fld.Key, tok)
			}
		}
	}
}

// UnknownFieldsCmp is UnknownFields with the comparator passed to f, so f
// can tell `=` from `?=`. The comparator is still expected to be one of
// those two.
func (vd *Validator) UnknownFieldsCmp(f func(key token.Token, cmp ast.Comparator, bv ast.BV)) {
	vd.acceptedBlockFields = true
	vd.acceptedValueFields = true
	for _, fld := range vd.block.Fields() {
		if !vd.isKnown(fld.Key) {
			vd.expectEqQeq(fld.Key, fld.Cmp)
			f(fld.Key, fld.Cmp, fld.BV)
		}
	}
}

// UnknownFieldsAnyCmp is UnknownFieldsCmp accepting any comparator.
func (vd *Validator) UnknownFieldsAnyCmp(f func(key token.Token, cmp ast.Comparator, bv ast.BV)) {
	vd.acceptedBlockFields = true
	vd.acceptedValueFields = true
	for _, fld := range vd.block.Fields() {
		if !vd.isKnown(fld.Key) {
			f(fld.Key, fld.Cmp, fld.BV)
		}
	}
}

// NoWarnRemaining accepts all remaining block contents, so Close will not
// warn about anything.
func (vd *Validator) NoWarnRemaining() {
	vd.acceptedBlockFields = true
	vd.acceptedValueFields = true
	vd.acceptedTokens = true
	vd.acceptedBlocks = true
}

// WarnRemaining reports all unclaimed block contents right now, rather
// than when the validator is closed. It will not warn again on Close.
// Returns true iff any report was emitted.
func (vd *Validator) WarnRemaining() bool {
	warned := false
	for _, it := range vd.block.Items {
		switch it := it.(type) {
		case *ast.Field:
			accepted := vd.acceptedBlockFields
			if it.BV.IsValue() {
				accepted = vd.acceptedValueFields
			}
			if !accepted && !vd.isKnown(it.Key) {
				msg := fmt.Sprintf("unknown field `%s`", it.Key)
				sev := report.Error.AtMost(vd.maxSeverity)
				vd.rep.Build(report.UnknownField, sev).Weak().Msg(msg).Loc(it.Key).Push()
				warned = true
			}
		case ast.Value:
			if !vd.acceptedTokens {
				msg := fmt.Sprintf("found loose value %s, expected only `key =`", it.Token)
				sev := report.Error.AtMost(vd.maxSeverity)
				vd.rep.Build(report.Structure, sev).Msg(msg).Loc(it.Token).Push()
				warned = true
			}
		case *ast.Block:
			if !vd.acceptedBlocks {
				sev := report.Error.AtMost(vd.maxSeverity)
				vd.rep.Build(report.Structure, sev).Msg("found sub-block, expected only `key =`").Loc(it).Push()
				warned = true
			}
		}
	}
	vd.NoWarnRemaining()
	return warned
}

// Close finishes validation, warning about any block contents no
// expectation claimed. Every Validator must be closed exactly once,
// usually by deferring the call right after New.
func (vd *Validator) Close() { vd.WarnRemaining() }

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
