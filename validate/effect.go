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
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

// ListType says which kind of iterator body an effect block is, if any.
// The kinds accept different support fields: random_ has chance weights,
// ordered_ has ordering fields, and any_ is not an effect at all.
type ListType uint8

const (
	// ListNone is an ordinary effect block.
	ListNone ListType = iota
	// ListAny only exists in triggers; in effects it is an error.
	ListAny
	// ListEvery is the body of an every_ iterator.
	ListEvery
	// ListRandom is the body of a random_ iterator.
	ListRandom
	// ListOrdered is the body of an ordered_ iterator.
	ListOrdered
)

// ValidateEffect checks an effect block in the scope context sc.
func ValidateEffect(block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	vd := New(block, data)
	ValidateEffectInternal("", ListNone, block, data, sc, vd, tooltipped)
	vd.Close()
}

// ValidateEffectInternal is the recursion point of the effect walker. The
// caller owns vd and closes it, so wrappers can claim extra fields of
// their own before or after.
func ValidateEffectInternal(caller string, list ListType, block *ast.Block, data Data, sc *scopes.Context, vd *Validator, tooltipped Tooltipped) {
	vd.SetAllowQuestionEq(true)
	validateIteratorFields(caller, list, data, sc, vd)
	validateIfFields(caller, data, sc, vd)
	vd.UnknownFieldsAnyCmp(func(key token.Token, cmp ast.Comparator, bv ast.BV) {
		validateEffectField(key, cmp, bv, data, sc, tooltipped)
	})
}

// validateIteratorFields claims the support fields of effect iterators.
func validateIteratorFields(caller string, list ListType, data Data, sc *scopes.Context, vd *Validator) {
	if list == ListNone {
		return
	}
	vd.FieldValidatedBlockSc("limit", sc, func(b *ast.Block, data Data, sc *scopes.Context) {
		ValidateTriggerInternal("limit", false, b, data, sc, TooltipNo, false, report.Error)
	})
	switch list {
	case ListRandom:
		vd.FieldScriptValueNoBreakdown("weight", sc)
	case ListOrdered:
		vd.FieldScriptValueNoBreakdown("order_by", sc)
		vd.FieldInteger("position")
		vd.FieldInteger("min")
		vd.FieldScriptValue("max", sc)
		vd.FieldBool("check_range_bounds")
	}
	_ = caller
}

// validateIfFields claims the fields of if/else_if/else/while/random
// bodies. limit outside those constructs is caught in the dispatch, since
// there it would be an unknown effect.
func validateIfFields(caller string, data Data, sc *scopes.Context, vd *Validator) {
	switch caller {
	case "if", "else_if":
		if !vd.block.HasKey("limit") {
			data.Reports().Warn(report.IfElse).
				Msgf("`%s` without a `limit` always runs", caller).Loc(vd.block).Push()
		}
		vd.FieldValidatedBlockSc("limit", sc, func(b *ast.Block, data Data, sc *scopes.Context) {
			ValidateTriggerInternal("limit", false, b, data, sc, TooltipNo, false, report.Error)
		})
	case "else":
		vd.FieldValidatedBlockSc("limit", sc, func(b *ast.Block, data Data, sc *scopes.Context) {
			data.Reports().Warn(report.IfElse).
				Msg("`else` with a `limit` does nothing; did you mean `else_if`?").Loc(b).Push()
			ValidateTriggerInternal("limit", false, b, data, sc, TooltipNo, false, report.Error)
		})
	case "while":
		if !vd.block.HasKey("limit") && !vd.block.HasKey("count") {
			data.Reports().Err(report.Validation).
				Msg("`while` needs a `limit` or a `count`").Loc(vd.block).Push()
		}
		vd.FieldValidatedBlockSc("limit", sc, func(b *ast.Block, data Data, sc *scopes.Context) {
			ValidateTriggerInternal("limit", false, b, data, sc, TooltipNo, false, report.Error)
		})
		vd.FieldScriptValue("count", sc)
	case "random":
		vd.ReqField("chance")
		vd.FieldScriptValue("chance", sc)
	}
}

func validateEffectField(key token.Token, cmp ast.Comparator, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	lw := strings.ToLower(key.Text)

	switch lw {
	case "if", "else_if", "else", "while", "random":
		if block, ok := bv.ExpectBlock(rep); ok {
			saved := sc.Push()
			vd := New(block, data)
			ValidateEffectInternal(lw, ListNone, block, data, sc, vd, tooltipped)
			vd.Close()
			saved.Restore()
		}
		return
	case "random_list":
		if block, ok := bv.ExpectBlock(rep); ok {
			validateRandomList(block, data, sc, tooltipped)
		}
		return
	case "switch":
		if block, ok := bv.ExpectBlock(rep); ok {
			validateEffectSwitch(block, data, sc, tooltipped)
		}
		return
	case "hidden_effect", "hidden_effect_new_object", "hidden_effect_new_artifact":
		if block, ok := bv.ExpectBlock(rep); ok {
			ValidateEffect(block, data, sc, TooltipNo)
		}
		return
	case "show_as_tooltip":
		if block, ok := bv.ExpectBlock(rep); ok {
			ValidateEffect(block, data, sc, TooltipYes)
		}
		return
	case "custom_tooltip":
		switch {
		case bv.IsValue():
			v, _ := bv.Value()
			data.ValidateLocalization(v, sc)
		default:
			block, _ := bv.Block()
			validateCustomTooltipEffect(block, data, sc)
		}
		return
	case "custom_description", "custom_description_no_bullet":
		if block, ok := bv.ExpectBlock(rep); ok {
			validateCustomDescriptionEffect(block, data, sc, tooltipped)
		}
		return
	case "save_scope_as", "save_temporary_scope_as":
		if v, ok := bv.ExpectValue(rep); ok {
			sc.SaveCurrentScope(v.Text)
		}
		return
	case "save_scope_value_as", "save_temporary_scope_value_as":
		if block, ok := bv.ExpectBlock(rep); ok {
			vd := New(block, data)
			vd.ReqField("name")
			var name token.Token
			vd.FieldValidatedValue("name", func(key token.Token, vv *ValueValidator) {
				name = vv.Token()
				vv.Accept()
			})
			vd.ReqField("value")
			vd.FieldScriptValueOrFlag("value", sc)
			vd.Close()
			if !name.Empty() {
				sc.DefineNameToken(name.Text, scopes.Primitive, name)
			}
		}
		return
	case "add_to_list", "add_to_temporary_list":
		if v, ok := bv.ExpectValue(rep); ok {
			sc.DefineOrExpectList(v)
		}
		return
	case "remove_from_list":
		if v, ok := bv.ExpectValue(rep); ok {
			sc.ExpectList(v)
		}
		return
	case "assert_if", "assert_read", "debug_log", "debug_log_scopes", "debug_log_details":
		// Debug constructs; their arguments are free-form.
		return
	}

	if strings.HasPrefix(lw, "every_") || strings.HasPrefix(lw, "random_") || strings.HasPrefix(lw, "ordered_") {
		if validateEffectIterator(key, lw, bv, data, sc, tooltipped) {
			return
		}
	}
	if strings.HasPrefix(lw, "any_") {
		base := strings.TrimPrefix(lw, "any_")
		if _, _, ok := tables.Iterator(base); ok {
			rep.Err(report.Validation).
				Msgf("`%s` is a trigger list but is used as an effect", key).
				Loc(key).Push()
			return
		}
	}

	if se, ok := data.ScriptedEffect(key.Text); ok {
		f := &ast.Field{Key: key, Cmp: cmp, BV: bv}
		validateScriptedCall(f, se, data, sc, tooltipped, false)
		return
	}

	if from, rule, ok := tables.Effect(lw); ok {
		sc.Expect(from, scopes.TokenReason(key))
		matchEffectBV(rule, key, cmp, bv, data, sc, tooltipped)
		return
	}

	if isScopeChainKey(lw) {
		validateEffectChain(key, cmp, bv, data, sc, tooltipped)
		return
	}

	rep.Err(report.UnknownField).
		Msgf("unknown effect `%s`", key).Loc(key).Push()
}

// validateEffectChain handles a field whose key is a scope chain opening a
// nested effect scope, as in `liege = { add_gold = 100 }`.
func validateEffectChain(key token.Token, cmp ast.Comparator, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	sc.OpenBuilder()
	parts := key.Split('.')
	for i, part := range parts {
		if walkChainPart(part, i == 0, i+1 == len(parts), data, sc, scopes.All) {
			break
		}
	}
	sc.FinalizeBuilder()
	if block, ok := bv.Block(); ok {
		saved := sc.Push()
		ValidateEffect(block, data, sc, tooltipped)
		saved.Restore()
	} else {
		rep.Err(report.Validation).
			Msgf("`%s` opens a scope and needs a block of effects", key).Loc(key).Push()
	}
	sc.Close()
	_ = cmp
}

// validateEffectIterator handles every_/random_/ordered_ lists. Returns
// false when the base name is not a known list.
func validateEffectIterator(key token.Token, lw string, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) bool {
	rep := data.Reports()
	under := strings.IndexByte(lw, '_')
	prefix, base := lw[:under], lw[under+1:]
	var list ListType
	switch prefix {
	case "every":
		list = ListEvery
	case "random":
		list = ListRandom
	case "ordered":
		list = ListOrdered
	}
	if base == "in_list" || base == "in_local_list" || base == "in_global_list" {
		if block, ok := bv.ExpectBlock(rep); ok {
			validateEffectInList(block, list, data, sc, tooltipped)
		}
		return true
	}
	from, out, ok := tables.Iterator(base)
	if !ok {
		if removed, okRem := tables.IteratorRemoved(base); okRem {
			b := rep.Err(report.Removed).
				Msgf("`%s` was removed in game version %s", key, removed.Version)
			if removed.Advice != "" {
				b.Info(removed.Advice)
			}
			b.Loc(key).Push()
			return true
		}
		return false
	}
	sc.Expect(from, scopes.TokenReason(key))
	block, okBlock := bv.ExpectBlock(rep)
	if !okBlock {
		return true
	}
	sc.OpenScope(out, key)
	saved := sc.Push()
	vd := New(block, data)
	ValidateEffectInternal(lw, list, block, data, sc, vd, tooltipped)
	vd.Close()
	saved.Restore()
	sc.Close()
	return true
}

// validateEffectInList is every_in_list and friends.
func validateEffectInList(block *ast.Block, list ListType, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	vd := New(block, data)
	named := false
	vd.FieldValidatedValue("list", func(key token.Token, vv *ValueValidator) {
		named = true
		sc.ExpectList(vv.Token())
		vv.Accept()
	})
	vd.FieldValidatedValue("variable", func(key token.Token, vv *ValueValidator) {
		named = true
		vv.Accept()
	})
	if !named {
		rep.Err(report.FieldMissing).
			Msg("iterating a list needs a `list` or `variable` field").Loc(block).Push()
	}
	sc.OpenScope(scopes.All, token.NewToken("in_list", block.Loc))
	saved := sc.Push()
	ValidateEffectInternal("in_list", list, block, data, sc, vd, tooltipped)
	vd.Close()
	saved.Restore()
	sc.Close()
}

// validateRandomList checks random_list = { 10 = {...} 20 = {...} }: each
// key is a weight, each body an effect block plus optional modifiers.
func validateRandomList(block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	for _, fld := range block.FieldsWarn(rep) {
		if fld.Key.IsFold("pick_count") {
			ValidateScriptValue(fld.BV, data, sc)
			continue
		}
		if _, ok := fld.Key.Number(); !ok {
			rep.Err(report.Validation).
				Msgf("expected a weight, found `%s`", fld.Key).Loc(fld.Key).Push()
		}
		body, ok := fld.BV.ExpectBlock(rep)
		if !ok {
			continue
		}
		saved := sc.Push()
		vd := New(body, data)
		vd.FieldValidatedBlockSc("trigger", sc, func(b *ast.Block, data Data, sc *scopes.Context) {
			ValidateTriggerInternal("trigger", false, b, data, sc, TooltipNo, false, report.Error)
		})
		vd.MultiFieldValidatedBlockSc("modifier", sc, func(b *ast.Block, data Data, sc *scopes.Context) {
			validateWeightModifier(b, data, sc)
		})
		vd.FieldBool("show_chance")
		vd.FieldValidated("desc", func(bv ast.BV, data Data) {
			if v, ok := bv.Value(); ok {
				data.ValidateLocalization(v, sc)
			}
		})
		vd.FieldScriptValueNoBreakdown("min", sc)
		vd.FieldScriptValueNoBreakdown("max", sc)
		ValidateEffectInternal("random_list", ListNone, body, data, sc, vd, tooltipped)
		vd.Close()
		saved.Restore()
	}
}

// validateWeightModifier checks a `modifier = { factor/add + trigger }`
// block as used in weights and chances.
func validateWeightModifier(block *ast.Block, data Data, sc *scopes.Context) {
	vd := New(block, data)
	vd.FieldScriptValueNoBreakdown("factor", sc)
	vd.FieldScriptValueNoBreakdown("add", sc)
	vd.UnknownFieldsAnyCmp(func(key token.Token, cmp ast.Comparator, bv ast.BV) {
		f := &ast.Field{Key: key, Cmp: cmp, BV: bv}
		seenLimit := false
		validateTriggerField(f, "modifier", false, &seenLimit, data, sc, TooltipNo, false, report.Error)
	})
	vd.Close()
}

// validateEffectSwitch checks the effect form of switch, whose cases hold
// effects instead of triggers.
func validateEffectSwitch(block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	trigger, ok := block.GetFieldValue("trigger")
	if !ok {
		rep.Err(report.FieldMissing).
			Msg("`switch` needs a `trigger` field").Loc(block).Push()
	}
	var rule *tables.TriggerRule
	if ok {
		from, r, known := tables.Trigger(strings.ToLower(trigger.Text))
		if !known {
			rep.Err(report.UnknownField).
				Msgf("unknown trigger `%s`", trigger).Loc(trigger).Push()
		} else {
			sc.Expect(from, scopes.TokenReason(trigger))
			rule = r
		}
	}
	for _, fld := range block.FieldsWarn(rep) {
		if fld.Key.IsFold("trigger") {
			continue
		}
		if rule != nil && !fld.Key.IsFold("fallback") {
			matchTriggerBV(rule, trigger, ast.Eq, ast.ValueBV(fld.Key), data, sc, TooltipNo, false, report.Error)
		}
		if body, ok := fld.BV.ExpectBlock(rep); ok {
			saved := sc.Push()
			ValidateEffect(body, data, sc, tooltipped)
			saved.Restore()
		}
	}
}

func validateCustomTooltipEffect(block *ast.Block, data Data, sc *scopes.Context) {
	vd := New(block, data)
	vd.ReqField("text")
	vd.FieldValidatedValue("text", func(key token.Token, vv *ValueValidator) {
		data.ValidateLocalization(vv.Token(), sc)
		vv.Accept()
	})
	vd.FieldTargetOkThis("subject", sc, scopes.NonPrimitive)
	ValidateEffectInternal("custom_tooltip", ListNone, vd.block, data, sc, vd, TooltipNo)
	vd.Close()
}

func validateCustomDescriptionEffect(block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	vd := New(block, data)
	vd.ReqField("text")
	vd.FieldValidatedValue("text", func(key token.Token, vv *ValueValidator) {
		data.MarkUsed(item.Localization, vv.Token().Text)
		vv.Accept()
	})
	vd.FieldTargetOkThis("subject", sc, scopes.NonPrimitive)
	vd.FieldTargetOkThis("object", sc, scopes.NonPrimitive)
	vd.FieldScriptValue("value", sc)
	ValidateEffectInternal("custom_description", ListNone, vd.block, data, sc, vd, TooltipNo)
	vd.Close()
	_ = tooltipped
}

// matchEffectBV checks an effect's argument against its table rule.
func matchEffectBV(rule *tables.EffectRule, key token.Token, cmp ast.Comparator, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	if !cmp.IsEqQeq() {
		rep.Err(report.Validation).
			Msgf("`%s` is an effect and does not compare, expected `=`", key).Loc(key).Push()
	}
	switch rule.Kind {
	case tables.EfYes:
		if v, ok := bv.ExpectValue(rep); ok && !v.IsFold("yes") {
			rep.Warn(report.Validation).
				Msgf("`%s` takes only yes", key).Loc(v).Push()
		}
	case tables.EfBoolean:
		if v, ok := bv.ExpectValue(rep); ok {
			NewValue(v, data).Bool()
		}
	case tables.EfInteger:
		if v, ok := bv.ExpectValue(rep); ok {
			ExpectInteger(rep, v)
		}
	case tables.EfScriptValue:
		ValidateScriptValue(bv, data, sc)
	case tables.EfNonNegativeValue:
		if v, ok := bv.Value(); ok {
			if n, isNum := v.Number(); isNum && n < 0 {
				rep.Err(report.Range).
					Msgf("`%s` does not take negative numbers", key).Loc(v).Push()
			}
		}
		ValidateScriptValue(bv, data, sc)
	case tables.EfDate:
		if v, ok := bv.ExpectValue(rep); ok {
			ExpectDate(rep, v)
		}
	case tables.EfScope:
		if v, ok := bv.ExpectValue(rep); ok {
			ValidateTarget(v, data, sc, rule.Scopes)
		}
	case tables.EfScopeOkThis:
		if v, ok := bv.ExpectValue(rep); ok {
			ValidateTargetOkThis(v, data, sc, rule.Scopes)
		}
	case tables.EfItem:
		if v, ok := bv.ExpectValue(rep); ok && rule.HasItem {
			data.VerifyExists(rule.Item, v)
		}
	case tables.EfScopeOrItem:
		if v, ok := bv.ExpectValue(rep); ok {
			if rule.HasItem && data.Exists(rule.Item, v.Text) {
				data.MarkUsed(rule.Item, v.Text)
			} else {
				ValidateTargetOkThis(v, data, sc, rule.Scopes)
			}
		}
	case tables.EfTarget:
		if block, ok := bv.ExpectBlock(rep); ok {
			vd := New(block, data)
			vd.ReqField(rule.Key)
			vd.FieldTargetOkThis(rule.Key, sc, rule.Scopes)
			vd.Close()
		}
	case tables.EfTargetValue:
		if block, ok := bv.ExpectBlock(rep); ok {
			vd := New(block, data)
			vd.ReqField(rule.Key)
			vd.FieldTargetOkThis(rule.Key, sc, rule.Scopes)
			vd.ReqField(rule.ValueKey)
			vd.FieldScriptValue(rule.ValueKey, sc)
			vd.Close()
		}
	case tables.EfItemTarget:
		if block, ok := bv.ExpectBlock(rep); ok {
			vd := New(block, data)
			if rule.HasItem {
				vd.FieldItem(rule.Key, rule.Item)
			} else {
				vd.FieldValue(rule.Key)
			}
			vd.FieldTargetOkThis(rule.ValueKey, sc, scopes.NonPrimitive)
			vd.Close()
		}
	case tables.EfItemValue:
		if block, ok := bv.ExpectBlock(rep); ok {
			vd := New(block, data)
			vd.ReqField(rule.Key)
			if rule.HasItem {
				vd.FieldItem(rule.Key, rule.Item)
			} else {
				vd.FieldValue(rule.Key)
			}
			vd.ReqField("value")
			vd.FieldScriptValue("value", sc)
			vd.Close()
		}
	case tables.EfDesc:
		ValidateDesc(bv, data, sc)
	case tables.EfTimespan:
		validateTimespan(key, bv, data, sc)
	case tables.EfControl:
		if block, ok := bv.ExpectBlock(rep); ok {
			saved := sc.Push()
			vd := New(block, data)
			ValidateEffectInternal(strings.ToLower(key.Text), ListNone, block, data, sc, vd, tooltipped)
			vd.Close()
			saved.Restore()
		}
	case tables.EfControlOrLabel:
		if v, ok := bv.Value(); ok {
			data.ValidateLocalization(v, sc)
		} else if block, ok := bv.Block(); ok {
			ValidateEffect(block, data, sc, tooltipped)
		}
	case tables.EfChoice:
		if v, ok := bv.ExpectValue(rep); ok {
			NewValue(v, data).Choice(rule.Choice...)
		}
	case tables.EfRemoved:
		b := rep.Warn(report.Removed).
			Msgf("`%s` was removed in game version %s", key, rule.RemovedVersion)
		if rule.RemovedAdvice != "" {
			b.Info(rule.RemovedAdvice)
		}
		b.Loc(key).Push()
	case tables.EfUnchecked:
		// Deliberately unchecked.
	case tables.EfFuncBlock:
		if block, ok := bv.ExpectBlock(rep); ok {
			callEffectFunc(rule.Func, key, ast.BlockBV(block), data, sc, tooltipped)
		}
	case tables.EfFuncValue:
		if v, ok := bv.ExpectValue(rep); ok {
			callEffectFunc(rule.Func, key, ast.ValueBV(v), data, sc, tooltipped)
		}
	case tables.EfFuncBV:
		callEffectFunc(rule.Func, key, bv, data, sc, tooltipped)
	}
}

// validateTimespan checks a duration: either a literal number of days or
// a block with exactly one of days/weeks/months/years.
func validateTimespan(key token.Token, bv ast.BV, data Data, sc *scopes.Context) {
	rep := data.Reports()
	if v, ok := bv.Value(); ok {
		ExpectInteger(rep, v)
		return
	}
	block, ok := bv.ExpectBlock(rep)
	if !ok {
		return
	}
	vd := New(block, data)
	vd.ReqFieldOneOf("days", "weeks", "months", "years")
	vd.FieldScriptValue("days", sc)
	vd.FieldScriptValue("weeks", sc)
	vd.FieldScriptValue("months", sc)
	vd.FieldScriptValue("years", sc)
	vd.Close()
}
