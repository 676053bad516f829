// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package data

import (
	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
	"github.com/pdxlint/pdxlint/validate"
)

// decision validates one common/decisions/ definition. Decisions always
// run on a character.
type decision struct{}

func (decision) Validate(key token.Token, block *ast.Block, d *Everything) {
	sc := scopes.New(scopes.Character, key, d.rep)
	vd := validate.New(block, d)
	defer vd.Close()

	// The interface texts all default to keys derived from the decision
	// name; an explicit field overrides the derived key.
	locaField(vd, d, sc, "title", key, key.Text)
	locaField(vd, d, sc, "desc", key, key.Text+"_desc")
	locaField(vd, d, sc, "selection_tooltip", key, key.Text+"_tooltip")
	locaField(vd, d, sc, "confirm_text", key, key.Text+"_confirm")

	vd.FieldValidatedKey("picture", fileRef)
	vd.FieldValidatedKey("extra_picture", fileRef)
	vd.FieldBool("major")
	vd.FieldBool("is_invisible")
	vd.FieldInteger("sort_order")
	vd.FieldInteger("ai_check_interval")
	vd.FieldBool("ai_goal")
	vd.FieldValue("confirm_click_sound")
	vd.FieldValidatedBlockSc("cooldown", sc, validateDuration)

	vd.FieldValidatedBlockSc("is_shown", sc, func(b *ast.Block, data validate.Data, sc *scopes.Context) {
		validate.ValidateTriggerInternal("", false, b, data, sc, validate.TooltipNo, false, report.Fatal)
	})
	vd.FieldValidatedBlockSc("is_valid_showing_failures_only", sc, func(b *ast.Block, data validate.Data, sc *scopes.Context) {
		validate.ValidateTriggerInternal("", false, b, data, sc, validate.TooltipFailuresOnly, false, report.Fatal)
	})
	vd.FieldTrigger("is_valid", validate.FullScope(sc), validate.TooltipYes)
	vd.FieldTrigger("ai_potential", validate.FullScope(sc), validate.TooltipNo)
	vd.FieldScriptValue("ai_will_do", sc)
	vd.FieldTrigger("should_create_alert", validate.FullScope(sc), validate.TooltipNo)
	vd.FieldEffect("effect", validate.FullScope(sc), validate.TooltipYes)

	vd.FieldValidatedBlockSc("cost", sc, validateCost)
	vd.FieldValidatedBlockSc("minimum_cost", sc, validateCost)

	// Opaque gui wiring; the interface files are out of reach here.
	vd.FieldValidated("widget", func(ast.BV, validate.Data) {})
}

// locaField claims a text override field and falls back to the derived
// localization key when the field is absent.
func locaField(vd *validate.Validator, d *Everything, sc *scopes.Context, name string, key token.Token, derived string) {
	if vd.FieldValidatedSc(name, sc, func(bv ast.BV, data validate.Data, sc *scopes.Context) {
		validate.ValidateDesc(bv, data, sc)
	}) {
		return
	}
	d.verify(item.Localization, derived, key, report.Warning)
}

func fileRef(_ token.Token, bv ast.BV, data validate.Data) {
	if tok, ok := bv.ExpectValue(data.Reports()); ok {
		data.VerifyExists(item.File, tok)
	}
}

// validateDuration checks a `{ days = ... }` style timespan block.
func validateDuration(b *ast.Block, data validate.Data, sc *scopes.Context) {
	vd := validate.New(b, data)
	defer vd.Close()
	vd.ReqFieldOneOf("days", "weeks", "months", "years")
	vd.FieldScriptValue("days", sc)
	vd.FieldScriptValue("weeks", sc)
	vd.FieldScriptValue("months", sc)
	vd.FieldScriptValue("years", sc)
}

func validateCost(b *ast.Block, data validate.Data, sc *scopes.Context) {
	vd := validate.New(b, data)
	defer vd.Close()
	vd.FieldScriptValue("gold", sc)
	vd.FieldScriptValue("prestige", sc)
	vd.FieldScriptValue("piety", sc)
	vd.FieldBool("round")
}

// scriptedList validates one common/scripted_lists/ definition: a base
// iterator name plus conditions evaluated on each candidate element.
type scriptedList struct{}

func (scriptedList) Validate(key token.Token, block *ast.Block, d *Everything) {
	vd := validate.New(block, d)
	defer vd.Close()
	var element = scopes.All
	if vd.ReqField("base") {
		vd.FieldValidatedValue("base", func(base token.Token, vv *validate.ValueValidator) {
			_, out, ok := tables.Iterator(base.Text)
			if !ok {
				d.rep.Err(report.MissingItem).
					Msgf("`%s` is not a list the game knows", base).
					Loc(base).Push()
				return
			}
			element = out
		})
	}
	vd.FieldValidatedBlockRooted("conditions", element, func(b *ast.Block, data validate.Data, sc *scopes.Context) {
		validate.ValidateTriggerInternal("", false, b, data, sc, validate.TooltipNo, false, report.Fatal)
	})
}

// onAction validates one common/on_action/ definition. The root scope
// depends on which engine hook fires the action, which the script does not
// declare, so validation starts unconstrained and lets use narrow it.
type onAction struct{}

func (onAction) Validate(key token.Token, block *ast.Block, d *Everything) {
	sc := scopes.NewUnrooted(scopes.All, key, d.rep)
	vd := validate.New(block, d)
	defer vd.Close()

	vd.FieldTrigger("trigger", validate.FullScope(sc), validate.TooltipNo)
	vd.FieldScriptValue("weight_multiplier", sc)
	vd.FieldEffect("effect", validate.FullScope(sc), validate.TooltipNo)

	vd.FieldValidatedBlockSc("events", sc, d.validateEventList)
	vd.FieldValidatedBlockSc("first_valid", sc, d.validateEventList)
	vd.FieldValidatedBlockSc("random_events", sc, d.validateRandomEvents)

	vd.FieldValidatedBlockSc("on_actions", sc, d.validateOnActionList)
	vd.FieldValidatedBlockSc("first_valid_on_action", sc, d.validateOnActionList)
	vd.FieldValidatedBlockSc("random_on_action", sc, d.validateRandomOnActions)
	vd.FieldValidatedValue("fallback", func(tok token.Token, vv *validate.ValueValidator) {
		d.verify(item.OnAction, tok.Text, tok, report.Fatal)
	})
}

// validateEventList checks a block of loose event ids, each fired in the
// on-action's scope context.
func (d *Everything) validateEventList(b *ast.Block, data validate.Data, sc *scopes.Context) {
	vd := validate.New(b, data)
	defer vd.Close()
	vd.FieldValidatedBlockSc("delay", sc, validateDuration)
	for _, tok := range vd.Values() {
		d.validateEventTarget(tok, sc)
	}
}

// validateRandomEvents checks `chance = id` weighted picks.
func (d *Everything) validateRandomEvents(b *ast.Block, data validate.Data, sc *scopes.Context) {
	vd := validate.New(b, data)
	defer vd.Close()
	vd.FieldScriptValue("chance_to_happen", sc)
	vd.FieldScriptValue("chance_of_no_event", sc)
	vd.FieldValidatedBlockSc("delay", sc, validateDuration)
	vd.IntegerValues(func(_, value token.Token) {
		if value.Is("0") {
			return
		}
		d.validateEventTarget(value, sc)
	})
}

func (d *Everything) validateOnActionList(b *ast.Block, data validate.Data, sc *scopes.Context) {
	vd := validate.New(b, data)
	defer vd.Close()
	for _, tok := range vd.Values() {
		d.verify(item.OnAction, tok.Text, tok, report.Fatal)
	}
}

func (d *Everything) validateRandomOnActions(b *ast.Block, data validate.Data, sc *scopes.Context) {
	vd := validate.New(b, data)
	defer vd.Close()
	vd.IntegerValues(func(_, value token.Token) {
		if value.Is("0") {
			return
		}
		d.verify(item.OnAction, value.Text, value, report.Fatal)
	})
}
