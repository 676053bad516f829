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

// ValidateTrigger checks a trigger block in the scope context sc. Every
// field must be a known trigger, boolean operator, iterator, scope chain
// or scripted trigger; their arguments are checked against the rule
// tables.
func ValidateTrigger(block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	ValidateTriggerInternal("", false, block, data, sc, tooltipped, false, report.Error)
}

// ValidateTriggerInternal is the recursion point of the trigger walker.
// caller is the lowercased construct this block is the argument of, ""
// at the top. inList marks the body of an any_ iterator, which accepts
// the count and percent fields. negated tracks enclosing NOT/NOR/NAND,
// because some warnings invert under negation. maxSev caps reports.
func ValidateTriggerInternal(caller string, inList bool, block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
	rep := data.Reports()
	seenLimit := false
	for _, item := range block.Items {
		switch it := item.(type) {
		case ast.Value:
			rep.Build(report.Structure, report.Error.AtMost(maxSev)).
				Msg("found loose value, expected only `key =`").Loc(it.Token).Push()
		case *ast.Block:
			rep.Build(report.Structure, report.Error.AtMost(maxSev)).
				Msg("found sub-block in a trigger, expected only `key =`").Loc(it).Push()
		case *ast.Field:
			validateTriggerField(it, caller, inList, &seenLimit, data, sc, tooltipped, negated, maxSev)
		}
	}
}

// listCountFields checks the count and percent fields of an any_ iterator
// body. Returns true when the field was one of them.
func listCountFields(f *ast.Field, data Data, sc *scopes.Context) bool {
	rep := data.Reports()
	lw := strings.ToLower(f.Key.Text)
	switch lw {
	case "count":
		if v, ok := f.BV.Value(); ok && v.IsFold("all") {
			return true
		}
		ValidateScriptValue(f.BV, data, sc)
		return true
	case "percent":
		if v, ok := f.BV.Value(); ok {
			if n, isNum := v.Number(); isNum && n > 1 {
				rep.Warn(report.Range).
					Msgf("`percent` here is a fraction, did you mean %s%%?", v).
					Loc(v).Push()
			}
		}
		ValidateScriptValue(f.BV, data, sc)
		return true
	}
	return false
}

func validateTriggerField(f *ast.Field, caller string, inList bool, seenLimit *bool, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
	rep := data.Reports()
	name := f.Key
	lw := strings.ToLower(name.Text)

	if inList && listCountFields(f, data, sc) {
		return
	}

	switch lw {
	case "limit":
		switch caller {
		case "trigger_if", "trigger_else_if", "trigger_else":
			if caller == "trigger_else" {
				rep.Warn(report.IfElse).
					Msg("`trigger_else` with a `limit` does nothing; did you mean `trigger_else_if`?").
					Loc(name).Push()
			}
			if *seenLimit {
				rep.Err(report.DuplicateField).
					Msg("`limit` can only be used once here").Loc(name).Push()
			}
			*seenLimit = true
			if b, ok := f.BV.ExpectBlock(rep); ok {
				ValidateTriggerInternal("limit", false, b, data, sc, TooltipNo, negated, maxSev)
			}
		default:
			rep.Err(report.Validation).
				Msg("`limit` can only be used in `trigger_if` or `trigger_else_if`").
				Loc(name).Push()
		}
		return
	case "and", "or", "nand", "nor", "not", "all_false", "any_false", "calc_true_if":
		block, ok := f.BV.ExpectBlock(rep)
		if !ok {
			return
		}
		sub := negated
		if lw == "not" || lw == "nor" || lw == "nand" || lw == "all_false" || lw == "any_false" {
			sub = !negated
		}
		if lw == "calc_true_if" {
			if _, ok := block.GetField("amount"); !ok {
				rep.Err(report.FieldMissing).
					Msg("`calc_true_if` needs an `amount` field").Loc(name).Push()
			}
			// amount is claimed here so the recursion does not take it
			// for a trigger.
			amountBlock := ast.New(block.Loc)
			for _, item := range block.Items {
				if fld, isField := item.(*ast.Field); isField && fld.Key.IsFold("amount") {
					if v, okVal := fld.BV.ExpectValue(rep); okVal {
						NewValue(v, data).Integer()
					}
					continue
				}
				amountBlock.AddItem(item)
			}
			block = amountBlock
		}
		ValidateTriggerInternal(lw, false, block, data, sc, tooltipped, sub, maxSev)
		return
	case "trigger_if", "trigger_else_if", "trigger_else":
		if block, ok := f.BV.ExpectBlock(rep); ok {
			if lw != "trigger_if" && caller != "trigger_if" && caller != "trigger_else_if" {
				rep.Warn(report.IfElse).
					Msgf("`%s` without a preceding `trigger_if`", name).Loc(name).Push()
			}
			ValidateTriggerInternal(lw, false, block, data, sc, tooltipped, negated, maxSev)
		}
		return
	case "exists":
		validateExists(f, data, sc)
		return
	case "custom_tooltip":
		switch {
		case f.BV.IsValue():
			v, _ := f.BV.Value()
			data.ValidateLocalization(v, sc)
		default:
			b, _ := f.BV.Block()
			ValidateTriggerInternal(lw, false, b, data, sc, TooltipNo, negated, maxSev)
		}
		return
	case "custom_description":
		if b, ok := f.BV.ExpectBlock(rep); ok {
			validateCustomDescription(b, data, sc, negated, maxSev)
		}
		return
	case "is_in_list":
		if v, ok := f.BV.ExpectValue(rep); ok {
			sc.ExpectList(v)
		}
		return
	case "save_temporary_scope_as":
		if v, ok := f.BV.ExpectValue(rep); ok {
			sc.SaveCurrentScope(v.Text)
		}
		return
	}

	if strings.HasPrefix(lw, "any_") {
		if validateTriggerIterator(f, lw, data, sc, tooltipped, negated, maxSev) {
			return
		}
	}
	if strings.HasPrefix(lw, "every_") || strings.HasPrefix(lw, "random_") || strings.HasPrefix(lw, "ordered_") {
		base := lw[strings.IndexByte(lw, '_')+1:]
		if _, _, ok := tables.Iterator(base); ok {
			rep.Err(report.Validation).
				Msgf("`%s` is an effect list but is used in a trigger; did you mean `any_%s`?", name, base).
				Loc(name).Push()
			return
		}
	}

	if st, ok := data.ScriptedTrigger(name.Text); ok {
		validateScriptedCall(f, st, data, sc, tooltipped, negated)
		return
	}

	if from, rule, ok := tables.Trigger(lw); ok {
		sc.Expect(from, scopes.TokenReason(name))
		matchTriggerBV(rule, name, f.Cmp, f.BV, data, sc, tooltipped, negated, maxSev)
		return
	}

	// Not a trigger: maybe a scope chain into a new scope, as in
	// `liege = { ... }` or `root.capital = { ... }`.
	if isScopeChainKey(lw) {
		validateTriggerChain(f, data, sc, tooltipped, negated, maxSev)
		return
	}

	rep.Build(report.UnknownField, report.Error.AtMost(maxSev)).
		Msgf("unknown trigger `%s`", name).Loc(name).Push()
}

// isScopeChainKey guesses whether a key is meant as a scope chain rather
// than a trigger name: it is one when it has chain syntax or its first
// component is a known transition.
func isScopeChainKey(lw string) bool {
	if strings.ContainsAny(lw, ".:") {
		return true
	}
	switch lw {
	case "root", "this", "prev":
		return true
	}
	if _, _, ok := tables.ScopeToScope(lw); ok {
		return true
	}
	if _, ok := tables.ScopeToScopeRemoved(lw); ok {
		return true
	}
	return false
}

// validateTriggerChain handles a field whose key is a scope chain. With a
// block value the chain opens a nested trigger scope; with a token value
// the chain must land on a value or compare equal to another scope
// object.
func validateTriggerChain(f *ast.Field, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
	sc.OpenBuilder()
	parts := f.Key.Split('.')
	for i, part := range parts {
		if walkChainPart(part, i == 0, i+1 == len(parts), data, sc, scopes.All) {
			break
		}
	}
	sc.FinalizeBuilder()
	if block, ok := f.BV.Block(); ok {
		ValidateTriggerInternal("", false, block, data, sc, tooltipped, negated, maxSev)
	} else if v, ok := f.BV.Value(); ok {
		// root.liege = scope:rival compares two objects; a chain landing
		// on a value compares numbers.
		if sc.MustBe(scopes.Value) {
			ValidateScriptValue(ast.ValueBV(v), data, sc)
		} else {
			ValidateTargetOkThis(v, data, sc, sc.Scopes()|scopes.Primitive)
		}
	}
	sc.Close()
}

// validateTriggerIterator handles any_ lists. Returns false when the name
// is not a known list, so the caller can fall through to other readings.
func validateTriggerIterator(f *ast.Field, lw string, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) bool {
	rep := data.Reports()
	base := strings.TrimPrefix(lw, "any_")
	if base == "in_list" || base == "in_local_list" || base == "in_global_list" {
		if block, ok := f.BV.ExpectBlock(rep); ok {
			validateAnyInList(block, data, sc, tooltipped, negated, maxSev)
		}
		return true
	}
	from, out, ok := tables.Iterator(base)
	if !ok {
		if removed, okRem := tables.IteratorRemoved(base); okRem {
			b := rep.Err(report.Removed).
				Msgf("`%s` was removed in game version %s", f.Key, removed.Version)
			if removed.Advice != "" {
				b.Info(removed.Advice)
			}
			b.Loc(f.Key).Push()
			return true
		}
		return false
	}
	sc.Expect(from, scopes.TokenReason(f.Key))
	block, okBlock := f.BV.ExpectBlock(rep)
	if !okBlock {
		return true
	}
	sc.OpenScope(out, f.Key)
	saved := sc.Push()
	ValidateTriggerInternal(lw, true, block, data, sc, tooltipped, negated, maxSev)
	saved.Restore()
	sc.Close()
	return true
}

// validateAnyInList is any_in_list and friends: the list or variable field
// names what is iterated, and nothing is known about the item type.
func validateAnyInList(block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
	rep := data.Reports()
	body := ast.New(block.Loc)
	named := false
	for _, item := range block.Items {
		if fld, ok := item.(*ast.Field); ok {
			switch strings.ToLower(fld.Key.Text) {
			case "list":
				named = true
				if v, okVal := fld.BV.ExpectValue(rep); okVal {
					sc.ExpectList(v)
				}
				continue
			case "variable":
				named = true
				fld.BV.ExpectValue(rep)
				continue
			}
		}
		body.AddItem(item)
	}
	if !named {
		rep.Err(report.FieldMissing).
			Msg("`any_in_list` needs a `list` or `variable` field").Loc(block).Push()
	}
	sc.OpenScope(scopes.All, token.NewToken("any_in_list", block.Loc))
	saved := sc.Push()
	ValidateTriggerInternal("any_in_list", true, body, data, sc, tooltipped, negated, maxSev)
	saved.Restore()
	sc.Close()
}

// validateExists checks `exists = target`. Checking existence of a saved
// scope establishes the name for the rest of the block.
func validateExists(f *ast.Field, data Data, sc *scopes.Context) {
	rep := data.Reports()
	v, ok := f.BV.ExpectValue(rep)
	if !ok {
		return
	}
	if v.IsFold("yes") || v.IsFold("no") {
		return
	}
	if name, ok := strings.CutPrefix(v.Text, "scope:"); ok && !strings.ContainsRune(name, '.') {
		sc.ExistsScope(name, v)
		return
	}
	ValidateTargetOkThis(v, data, sc, scopes.NonPrimitive)
}

// validateCustomDescription checks the custom_description block: its text
// key is a trigger localization, subject and object are scope chains, and
// the rest of the block is an untooltipped trigger.
func validateCustomDescription(block *ast.Block, data Data, sc *scopes.Context, negated bool, maxSev report.Severity) {
	rep := data.Reports()
	body := ast.New(block.Loc)
	hasText := false
	for _, it := range block.Items {
		if fld, ok := it.(*ast.Field); ok {
			switch strings.ToLower(fld.Key.Text) {
			case "text":
				hasText = true
				if v, okVal := fld.BV.ExpectValue(rep); okVal {
					data.MarkUsed(item.Localization, v.Text)
				}
				continue
			case "subject", "object":
				if v, okVal := fld.BV.ExpectValue(rep); okVal {
					ValidateTargetOkThis(v, data, sc, scopes.NonPrimitive)
				}
				continue
			case "value":
				ValidateScriptValue(fld.BV, data, sc)
				continue
			}
		}
		body.AddItem(it)
	}
	if !hasText {
		rep.Err(report.FieldMissing).
			Msg("`custom_description` needs a `text` field").Loc(block).Push()
	}
	ValidateTriggerInternal("custom_description", false, body, data, sc, TooltipNo, negated, maxSev)
}

// validateScriptedCall checks a call of a scripted trigger or effect. A
// parameterless definition takes yes (or no, which negates); one with
// macro parameters takes a block binding every parameter.
func validateScriptedCall(f *ast.Field, call Caller, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool) {
	rep := data.Reports()
	parms := call.MacroParms()
	if len(parms) == 0 {
		v, ok := f.BV.ExpectValue(rep)
		if !ok {
			return
		}
		sub := negated
		switch {
		case v.IsFold("yes"):
		case v.IsFold("no"):
			sub = !negated
		default:
			rep.Warn(report.Validation).
				Msgf("`%s` takes no arguments, expected yes or no", f.Key).Loc(v).Push()
			return
		}
		call.ValidateCall(f.Key, data, sc, tooltipped, sub)
		return
	}
	block, ok := f.BV.Block()
	if !ok {
		rep.Err(report.Macro).
			Msgf("`%s` takes arguments %s", f.Key, strings.Join(parms, ", ")).
			Loc(f.Key).Push()
		return
	}
	args := macroArgsFromBlock(block, parms, f.Key, rep)
	call.ValidateMacroExpansion(f.Key, args, data, sc, tooltipped, negated)
}

// macroArgsFromBlock reads the argument bindings of a parameterized call.
// Every parameter must be bound and nothing else may appear.
func macroArgsFromBlock(block *ast.Block, parms []string, key token.Token, rep *report.Reports) []ast.MacroArg {
	var args []ast.MacroArg
	bound := make(map[string]bool, len(parms))
	for _, asn := range block.AssignmentsWarn(rep) {
		pname := strings.ToUpper(asn.Key.Text)
		found := false
		for _, p := range parms {
			if p == pname {
				found = true
				break
			}
		}
		if !found {
			rep.Warn(report.Macro).
				Msgf("`%s` is not a parameter of `%s`", asn.Key, key).Loc(asn.Key).Push()
			continue
		}
		if bound[pname] {
			rep.Warn(report.Macro).
				Msgf("parameter `%s` is bound twice", asn.Key).Loc(asn.Key).Push()
			continue
		}
		bound[pname] = true
		args = append(args, ast.MacroArg{Param: pname, Value: asn.Value})
	}
	for _, p := range parms {
		if !bound[p] {
			rep.Err(report.Macro).
				Msgf("`%s` needs parameter %s", key, p).Loc(key).Push()
		}
	}
	return args
}

// matchTriggerBV checks a trigger's argument against its table rule.
func matchTriggerBV(rule *tables.TriggerRule, name token.Token, cmp ast.Comparator, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
	rep := data.Reports()
	expectEq := func() {
		if !cmp.IsEqQeq() {
			rep.Build(report.Validation, report.Error.AtMost(maxSev)).
				Msgf("`%s` does not compare, expected `=`", name).Loc(name).Push()
		}
	}
	switch rule.Kind {
	case tables.TrBoolean:
		expectEq()
		if v, ok := bv.ExpectValue(rep); ok {
			vv := NewValue(v, data)
			vv.SetMaxSeverity(maxSev)
			vv.Bool()
		}
	case tables.TrCompareValue:
		ValidateScriptValue(bv, data, sc)
	case tables.TrCompareValueWarnEq:
		if cmp.IsEq() {
			rep.Untidy(report.Logic).
				Msgf("`%s =` means exactly equal to that amount, which is rarely what you want", name).
				Loc(name).Push()
		}
		ValidateScriptValue(bv, data, sc)
	case tables.TrSetValue:
		expectEq()
		ValidateScriptValue(bv, data, sc)
	case tables.TrCompareDate:
		if v, ok := bv.ExpectValue(rep); ok {
			ExpectDate(rep, v)
		}
	case tables.TrScope:
		expectEq()
		if v, ok := bv.ExpectValue(rep); ok {
			ValidateTargetOkThis(v, data, sc, rule.Scopes)
		}
	case tables.TrItem:
		expectEq()
		if v, ok := bv.ExpectValue(rep); ok && rule.HasItem {
			data.VerifyExistsMaxSev(rule.Item, v, maxSev)
		}
	case tables.TrScopeOrItem:
		expectEq()
		if v, ok := bv.ExpectValue(rep); ok {
			if rule.HasItem && data.Exists(rule.Item, v.Text) {
				data.MarkUsed(rule.Item, v.Text)
			} else {
				ValidateTargetOkThis(v, data, sc, rule.Scopes)
			}
		}
	case tables.TrChoice:
		expectEq()
		if v, ok := bv.ExpectValue(rep); ok {
			vv := NewValue(v, data)
			vv.SetMaxSeverity(maxSev)
			vv.Choice(rule.Choice...)
		}
	case tables.TrBlock:
		expectEq()
		if block, ok := bv.ExpectBlock(rep); ok {
			matchRuleFields(rule, name, block, data, sc, tooltipped, negated, maxSev)
		}
	case tables.TrScopeOrBlock:
		expectEq()
		if v, ok := bv.Value(); ok {
			ValidateTargetOkThis(v, data, sc, rule.Scopes)
		} else if block, ok := bv.Block(); ok {
			matchRuleFields(rule, name, block, data, sc, tooltipped, negated, maxSev)
		}
	case tables.TrItemOrBlock:
		expectEq()
		if v, ok := bv.Value(); ok {
			if rule.HasItem {
				data.VerifyExistsMaxSev(rule.Item, v, maxSev)
			}
		} else if block, ok := bv.Block(); ok {
			matchRuleFields(rule, name, block, data, sc, tooltipped, negated, maxSev)
		}
	case tables.TrCompareValueOrBlock:
		if bv.IsValue() {
			ValidateScriptValue(bv, data, sc)
		} else if block, ok := bv.Block(); ok {
			matchRuleFields(rule, name, block, data, sc, tooltipped, negated, maxSev)
		}
	case tables.TrScopeList:
		expectEq()
		if block, ok := bv.ExpectBlock(rep); ok {
			for _, v := range block.ItemValuesWarn(rep) {
				ValidateTargetOkThis(v, data, sc, rule.Scopes)
			}
		}
	case tables.TrScopeCompare:
		expectEq()
		if block, ok := bv.ExpectBlock(rep); ok {
			vd := New(block, data)
			vd.SetMaxSeverity(maxSev)
			vd.ReqField("target")
			vd.FieldTargetOkThis("target", sc, rule.Scopes)
			vd.FieldTargetOkThis("value", sc, rule.Scopes)
			vd.Close()
		}
	case tables.TrCompareToScope:
		if v, ok := bv.ExpectValue(rep); ok {
			ValidateTargetOkThis(v, data, sc, rule.Scopes)
		}
	case tables.TrControl:
		expectEq()
		if block, ok := bv.ExpectBlock(rep); ok {
			ValidateTriggerInternal(strings.ToLower(name.Text), false, block, data, sc, tooltipped, negated, maxSev)
		}
	case tables.TrSpecial:
		validateTriggerSpecial(name, cmp, bv, data, sc, tooltipped, negated, maxSev)
	case tables.TrUncheckedValue:
		// Deliberately unchecked.
	}
}

// matchRuleFields checks a block-shaped rule: each declared field's own
// rule applies, required fields must appear, and anything undeclared is
// unknown.
func matchRuleFields(rule *tables.TriggerRule, name token.Token, block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
	vd := New(block, data)
	vd.SetMaxSeverity(maxSev)
	for _, field := range rule.Fields {
		fieldRule := field.Rule
		check := func(key token.Token, cmp ast.Comparator, bv ast.BV) {
			matchTriggerBV(fieldRule, key, cmp, bv, data, sc, tooltipped, negated, maxSev)
		}
		if !field.Optional {
			vd.ReqField(field.Name)
		}
		if field.Multiple {
			vd.MultiFieldValidatedKey(field.Name, func(key token.Token, bv ast.BV, _ Data) {
				check(key, ast.Eq, bv)
			})
		} else {
			vd.FieldValidatedKey(field.Name, func(key token.Token, bv ast.BV, _ Data) {
				check(key, ast.Eq, bv)
			})
		}
	}
	vd.Close()
}

// validateTriggerSpecial covers the triggers whose shapes the rule tables
// cannot express.
func validateTriggerSpecial(name token.Token, cmp ast.Comparator, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
	rep := data.Reports()
	switch strings.ToLower(name.Text) {
	case "current_date":
		if v, ok := bv.ExpectValue(rep); ok {
			ExpectDate(rep, v)
		}
	case "switch":
		if block, ok := bv.ExpectBlock(rep); ok {
			validateTriggerSwitch(block, data, sc, tooltipped, negated, maxSev)
		}
	case "has_game_rule":
		// Game rules are loaded from a directory the validator does not
		// model; accept any value.
		bv.ExpectValue(rep)
	default:
		rep.Err(report.Crash).
			Msgf("internal: special trigger `%s` has no handler", name).Loc(name).Push()
	}
	_ = cmp
}

// validateTriggerSwitch checks switch = { trigger = x case1 = {...} }:
// each case key is an argument to the named trigger, and each case body
// is a trigger block.
func validateTriggerSwitch(block *ast.Block, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool, maxSev report.Severity) {
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
			matchTriggerBV(rule, trigger, ast.Eq, ast.ValueBV(fld.Key), data, sc, tooltipped, negated, maxSev)
		}
		if body, ok := fld.BV.ExpectBlock(rep); ok {
			saved := sc.Push()
			ValidateTriggerInternal("switch", false, body, data, sc, tooltipped, negated, maxSev)
			saved.Restore()
		}
	}
}
