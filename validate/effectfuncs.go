// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

import (
	"sort"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

// EffectFunc is a dedicated handler for an effect whose argument shape the
// rule tables cannot express. The effect table's func_ kinds name their
// handler; the names must all be registered here.
type EffectFunc func(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped)

// Populated in init: the handlers reach back into the effect walker, so a
// composite literal would form an initialization cycle.
var effectFuncs map[string]EffectFunc

func init() {
	effectFuncs = map[string]EffectFunc{
		"add_modifier":    efAddModifier,
		"change_variable": efChangeVariable,
		"clamp_variable":  efClampVariable,
		"duel":            efDuel,
		"opinion":         efOpinion,
		"round_variable":  efRoundVariable,
		"set_relation":    efSetRelation,
		"set_variable":    efSetVariable,
		"start_war":       efStartWar,
		"trigger_event":   efTriggerEvent,
	}
}

// EffectFuncNames lists the registered handlers, sorted, so tests can
// check the active effect table against the registry.
func EffectFuncNames() []string {
	names := make([]string, 0, len(effectFuncs))
	for name := range effectFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func callEffectFunc(name string, key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	f, ok := effectFuncs[name]
	if !ok {
		data.Reports().Err(report.Crash).
			Msgf("internal: effect `%s` names unregistered handler %q", key, name).
			Loc(key).Push()
		return
	}
	f(key, bv, data, sc, tooltipped)
}

// efSetVariable: a bare value sets the named flag variable; a block sets
// name = value with an optional expiry.
func efSetVariable(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	if _, ok := bv.Value(); ok {
		return
	}
	block, _ := bv.Block()
	vd := New(block, data)
	vd.ReqField("name")
	vd.FieldValue("name")
	vd.FieldScriptValueOrFlag("value", sc)
	vd.FieldScriptValue("days", sc)
	vd.FieldScriptValue("weeks", sc)
	vd.FieldScriptValue("months", sc)
	vd.FieldScriptValue("years", sc)
	vd.Close()
}

func efChangeVariable(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	block, ok := bv.ExpectBlock(rep)
	if !ok {
		return
	}
	vd := New(block, data)
	vd.ReqField("name")
	vd.FieldValue("name")
	vd.ReqFieldOneOf("add", "subtract", "multiply", "divide", "modulo", "min", "max")
	vd.FieldScriptValue("add", sc)
	vd.FieldScriptValue("subtract", sc)
	vd.FieldScriptValue("multiply", sc)
	vd.FieldScriptValue("divide", sc)
	vd.FieldScriptValue("modulo", sc)
	vd.FieldScriptValue("min", sc)
	vd.FieldScriptValue("max", sc)
	vd.Close()
}

func efClampVariable(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	block, ok := bv.ExpectBlock(rep)
	if !ok {
		return
	}
	vd := New(block, data)
	vd.ReqField("name")
	vd.FieldValue("name")
	vd.FieldScriptValue("min", sc)
	vd.FieldScriptValue("max", sc)
	vd.Close()
}

func efRoundVariable(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	block, ok := bv.ExpectBlock(rep)
	if !ok {
		return
	}
	vd := New(block, data)
	vd.ReqField("name")
	vd.FieldValue("name")
	vd.ReqField("nearest")
	vd.FieldScriptValue("nearest", sc)
	vd.Close()
}

// efAddModifier: a bare value is a permanent modifier; a block can bound
// the duration.
func efAddModifier(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	if _, ok := bv.Value(); ok {
		return
	}
	block, _ := bv.Block()
	vd := New(block, data)
	vd.ReqField("modifier")
	vd.FieldValue("modifier")
	vd.FieldScriptValue("days", sc)
	vd.FieldScriptValue("weeks", sc)
	vd.FieldScriptValue("months", sc)
	vd.FieldScriptValue("years", sc)
	vd.FieldValidated("desc", func(bv ast.BV, data Data) {
		ValidateDesc(bv, data, sc)
	})
	vd.Close()
}

// efTriggerEvent: a bare value is an event id; a block can delay and pick
// on_action pools instead.
func efTriggerEvent(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	if v, ok := bv.Value(); ok {
		data.VerifyExists(item.Event, v)
		return
	}
	block, _ := bv.Block()
	vd := New(block, data)
	vd.FieldItem("id", item.Event)
	vd.FieldItem("on_action", item.OnAction)
	vd.FieldScriptValue("days", sc)
	vd.FieldScriptValue("weeks", sc)
	vd.FieldScriptValue("months", sc)
	vd.FieldScriptValue("years", sc)
	vd.FieldTrigger("trigger", FullScope(sc), TooltipNo)
	vd.FieldBool("popup")
	vd.Close()
	if !block.HasKey("id") && !block.HasKey("on_action") {
		data.Reports().Err(report.FieldMissing).
			Msgf("`%s` needs an `id` or an `on_action`", key).Loc(block).Push()
	}
}

func efOpinion(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	block, ok := bv.ExpectBlock(rep)
	if !ok {
		return
	}
	vd := New(block, data)
	vd.ReqField("target")
	vd.FieldTargetOkThis("target", sc, scopes.Character)
	vd.ReqField("modifier")
	vd.FieldValue("modifier")
	vd.FieldScriptValue("opinion", sc)
	vd.FieldScriptValue("days", sc)
	vd.FieldScriptValue("months", sc)
	vd.FieldScriptValue("years", sc)
	vd.Close()
}

func efSetRelation(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	if v, ok := bv.Value(); ok {
		ValidateTargetOkThis(v, data, sc, scopes.Character)
		return
	}
	block, _ := bv.Block()
	vd := New(block, data)
	vd.ReqField("target")
	vd.FieldTargetOkThis("target", sc, scopes.Character)
	vd.FieldValidated("reason", func(bv ast.BV, data Data) {
		if v, ok := bv.Value(); ok {
			data.ValidateLocalization(v, sc)
		}
	})
	vd.FieldValue("copy_reason")
	vd.FieldTargetOkThis("involved_character", sc, scopes.Character)
	vd.Close()
}

func efStartWar(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	block, ok := bv.ExpectBlock(rep)
	if !ok {
		return
	}
	vd := New(block, data)
	vd.FieldValue("casus_belli")
	vd.FieldValue("cb")
	vd.ReqField("target")
	vd.FieldTargetOkThis("target", sc, scopes.Character)
	vd.FieldTargetOkThis("claimant", sc, scopes.Character)
	vd.MultiFieldValidatedValue("target_title", func(key token.Token, vv *ValueValidator) {
		vv.TargetOkThis(sc, scopes.LandedTitle)
	})
	vd.Close()
	if block.HasKey("casus_belli") && block.HasKey("cb") {
		rep.Warn(report.DuplicateField).
			Msg("`casus_belli` and `cb` are the same field").Loc(block).Push()
	}
}

func efDuel(key token.Token, bv ast.BV, data Data, sc *scopes.Context, tooltipped Tooltipped) {
	rep := data.Reports()
	block, ok := bv.ExpectBlock(rep)
	if !ok {
		return
	}
	vd := New(block, data)
	vd.FieldChoice("skill", tables.Skills...)
	vd.MultiFieldChoice("skills", tables.Skills...)
	vd.FieldTargetOkThis("target", sc, scopes.Character)
	vd.FieldScriptValueNoBreakdown("value", sc)
	vd.FieldItem("localization", item.Localization)
	vd.IntegerBlocks(func(key token.Token, b *ast.Block) {
		// Each outcome is a weighted effect, random_list style.
		saved := sc.Push()
		sub := New(b, data)
		sub.FieldScriptValueNoBreakdown("compare_modifier", sc)
		ValidateEffectInternal("duel", ListRandom, b, data, sc, sub, tooltipped)
		sub.Close()
		saved.Restore()
	})
	vd.Close()
}
