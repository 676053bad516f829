// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

import (
	"strings"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

// ValidateScriptValue checks a script value: a literal number, the name
// of a defined script value, a scope chain landing on a value, a bare
// range block `{ min max }`, or a full calculation block.
func ValidateScriptValue(bv ast.BV, data Data, sc *scopes.Context) {
	validateScriptValueBV(bv, data, sc, true)
}

// ValidateScriptValueNoBreakdown is ValidateScriptValue without checking
// the localization of inline desc fields. For values only shown in debug
// contexts, where nobody reads the breakdown.
func ValidateScriptValueNoBreakdown(bv ast.BV, data Data, sc *scopes.Context) {
	validateScriptValueBV(bv, data, sc, false)
}

func validateScriptValueBV(bv ast.BV, data Data, sc *scopes.Context, breakdown bool) {
	if v, ok := bv.Value(); ok {
		validateScriptValueToken(v, data, sc)
		return
	}
	block, _ := bv.Block()
	if bare, ok := bareValueRange(block); ok {
		rep := data.Reports()
		if len(bare) != 2 {
			rep.Err(report.Validation).
				Msg("a value range takes exactly two numbers").Loc(block).Push()
		}
		for _, v := range bare {
			validateScriptValueToken(v, data, sc)
		}
		return
	}
	validateScriptValueBlock(block, data, sc, breakdown)
}

// bareValueRange reports whether the block is nothing but loose values,
// which makes it a `{ min max }` range.
func bareValueRange(block *ast.Block) ([]token.Token, bool) {
	var values []token.Token
	for _, item := range block.Items {
		v, ok := item.(ast.Value)
		if !ok {
			return nil, false
		}
		values = append(values, v.Token)
	}
	return values, len(values) > 0
}

func validateScriptValueToken(v token.Token, data Data, sc *scopes.Context) {
	rep := data.Reports()
	if _, ok := v.Number(); ok {
		CheckNumber(rep, v)
		return
	}
	if data.ScriptValueExists(v.Text) {
		data.ValidateScriptValueCall(v, sc)
		return
	}
	ValidateTarget(v, data, sc, scopes.Value|scopes.Bool)
}

// validateScriptValueBlock walks a calculation block. Order matters to
// the game (operations apply top to bottom) but not to validation.
func validateScriptValueBlock(block *ast.Block, data Data, sc *scopes.Context, breakdown bool) {
	rep := data.Reports()
	for _, item := range block.Items {
		switch it := item.(type) {
		case ast.Value:
			rep.Err(report.Structure).
				Msg("found loose value in a script value calculation").Loc(it.Token).Push()
		case *ast.Block:
			rep.Err(report.Structure).
				Msg("found loose block in a script value calculation").Loc(it).Push()
		case *ast.Field:
			validateScriptValueField(it, data, sc, breakdown)
		}
	}
}

func validateScriptValueField(f *ast.Field, data Data, sc *scopes.Context, breakdown bool) {
	rep := data.Reports()
	lw := strings.ToLower(f.Key.Text)
	switch lw {
	case "value", "add", "subtract", "multiply", "divide", "min", "max", "modulo":
		if lw == "divide" || lw == "modulo" {
			if v, ok := f.BV.Value(); ok {
				if n, isNum := v.Number(); isNum && n == 0 {
					rep.Err(report.Crash).
						Msgf("`%s` by zero crashes the game", f.Key).Loc(v).Push()
				}
			}
		}
		validateScriptValueBV(f.BV, data, sc, breakdown)
	case "round", "ceiling", "floor":
		if v, ok := f.BV.ExpectValue(rep); ok {
			NewValue(v, data).Bool()
		}
	case "fixed_range", "integer_range":
		if block, ok := f.BV.ExpectBlock(rep); ok {
			vd := New(block, data)
			vd.ReqField("min")
			vd.ReqField("max")
			vd.FieldScriptValue("min", sc)
			vd.FieldScriptValue("max", sc)
			vd.Close()
		}
	case "if", "else_if", "else":
		if block, ok := f.BV.ExpectBlock(rep); ok {
			if lw != "else" && !block.HasKey("limit") {
				rep.Warn(report.IfElse).
					Msgf("`%s` without a `limit` always applies", f.Key).Loc(f.Key).Push()
			}
			saved := sc.Push()
			inner := ast.New(block.Loc)
			for _, item := range block.Items {
				if fld, isField := item.(*ast.Field); isField && fld.Key.IsFold("limit") {
					if b, okB := fld.BV.ExpectBlock(rep); okB {
						ValidateTriggerInternal("limit", false, b, data, sc, TooltipNo, false, report.Error)
					}
					continue
				}
				inner.AddItem(item)
			}
			validateScriptValueBlock(inner, data, sc, breakdown)
			saved.Restore()
		}
	case "desc", "format":
		if v, ok := f.BV.Value(); ok {
			if breakdown {
				data.ValidateLocalization(v, sc)
			}
		}
	case "save_temporary_scope_as":
		if v, ok := f.BV.ExpectValue(rep); ok {
			sc.SaveCurrentScope(v.Text)
		}
	case "save_temporary_value_as":
		if v, ok := f.BV.ExpectValue(rep); ok {
			sc.DefineNameToken(v.Text, scopes.Value, v)
		}
	default:
		if strings.HasPrefix(lw, "every_") || strings.HasPrefix(lw, "random_") || strings.HasPrefix(lw, "ordered_") {
			if validateScriptValueIterator(f, lw, data, sc, breakdown) {
				return
			}
		}
		// A scope chain re-anchors the calculation.
		if isScopeChainKey(lw) {
			validateScriptValueChain(f, data, sc, breakdown)
			return
		}
		rep.Err(report.UnknownField).
			Msgf("unknown field `%s` in a script value", f.Key).Loc(f.Key).Push()
	}
}

// validateScriptValueIterator handles list sums inside a script value:
// every_X adds the body's value per item.
func validateScriptValueIterator(f *ast.Field, lw string, data Data, sc *scopes.Context, breakdown bool) bool {
	rep := data.Reports()
	base := lw[strings.IndexByte(lw, '_')+1:]
	from, out, ok := tables.Iterator(base)
	if !ok {
		return false
	}
	sc.Expect(from, scopes.TokenReason(f.Key))
	block, okBlock := f.BV.ExpectBlock(rep)
	if !okBlock {
		return true
	}
	sc.OpenScope(out, f.Key)
	saved := sc.Push()
	inner := ast.New(block.Loc)
	for _, item := range block.Items {
		if fld, isField := item.(*ast.Field); isField && fld.Key.IsFold("limit") {
			if b, okB := fld.BV.ExpectBlock(rep); okB {
				ValidateTriggerInternal("limit", false, b, data, sc, TooltipNo, false, report.Error)
			}
			continue
		}
		inner.AddItem(item)
	}
	validateScriptValueBlock(inner, data, sc, breakdown)
	saved.Restore()
	sc.Close()
	return true
}

// validateScriptValueChain handles `scope:x = { ... }` style re-anchoring
// inside a calculation.
func validateScriptValueChain(f *ast.Field, data Data, sc *scopes.Context, breakdown bool) {
	rep := data.Reports()
	sc.OpenBuilder()
	parts := f.Key.Split('.')
	for i, part := range parts {
		if walkChainPart(part, i == 0, i+1 == len(parts), data, sc, scopes.All) {
			break
		}
	}
	sc.FinalizeBuilder()
	if block, ok := f.BV.ExpectBlock(rep); ok {
		saved := sc.Push()
		validateScriptValueBlock(block, data, sc, breakdown)
		saved.Restore()
	}
	sc.Close()
}

// ValidateDesc checks a description: either a localization key or a block
// of `desc`/`triggered_desc`/`first_valid` alternatives.
func ValidateDesc(bv ast.BV, data Data, sc *scopes.Context) {
	if v, ok := bv.Value(); ok {
		data.ValidateLocalization(v, sc)
		return
	}
	block, _ := bv.Block()
	validateDescBlock(block, data, sc)
}

func validateDescBlock(block *ast.Block, data Data, sc *scopes.Context) {
	rep := data.Reports()
	for _, fld := range block.FieldsWarn(rep) {
		switch strings.ToLower(fld.Key.Text) {
		case "desc", "first_valid", "random_valid":
			ValidateDesc(fld.BV, data, sc)
		case "triggered_desc":
			if b, ok := fld.BV.ExpectBlock(rep); ok {
				vd := New(b, data)
				vd.FieldValidatedBlockSc("trigger", sc, func(tb *ast.Block, data Data, sc *scopes.Context) {
					ValidateTriggerInternal("trigger", false, tb, data, sc, TooltipNo, false, report.Error)
				})
				vd.ReqField("desc")
				vd.FieldValidatedSc("desc", sc, func(bv ast.BV, data Data, sc *scopes.Context) {
					ValidateDesc(bv, data, sc)
				})
				vd.Close()
			}
		default:
			rep.Err(report.UnknownField).
				Msgf("unknown field `%s` in a description", fld.Key).Loc(fld.Key).Push()
		}
	}
}
