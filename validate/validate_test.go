// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
	"github.com/pdxlint/pdxlint/validate"
)

// stubData is a Data with a fixed set of defined items and no scripted
// definitions.
type stubData struct {
	rep   *report.Reports
	items map[string]bool
}

func newStub() *stubData {
	return &stubData{
		rep:   report.New(report.OutputConfig{Writer: io.Discard}),
		items: make(map[string]bool),
	}
}

func (s *stubData) define(keys ...string) {
	for _, k := range keys {
		s.items[k] = true
	}
}

func (s *stubData) Reports() *report.Reports { return s.rep }

func (s *stubData) Exists(kind item.Kind, key string) bool { return s.items[key] }

func (s *stubData) VerifyExists(kind item.Kind, tok token.Token) {
	s.VerifyExistsMaxSev(kind, tok, report.Fatal)
}

func (s *stubData) VerifyExistsMaxSev(kind item.Kind, tok token.Token, maxSev report.Severity) {
	if !s.items[tok.Text] {
		s.rep.Build(report.MissingItem, report.Error.AtMost(maxSev)).
			Msgf("`%s` not defined", tok.Text).Loc(tok).Push()
	}
}

func (s *stubData) VerifyExistsImplied(kind item.Kind, key string, tok token.Token) {
	if !s.items[key] {
		s.rep.Err(report.MissingItem).Msgf("`%s` not defined", key).Loc(tok).Push()
	}
}

func (s *stubData) MarkUsed(item.Kind, string) {}

func (s *stubData) ScriptedTrigger(string) (validate.Caller, bool) { return nil, false }
func (s *stubData) ScriptedEffect(string) (validate.Caller, bool)  { return nil, false }
func (s *stubData) ScriptValueExists(name string) bool             { return s.items[name] }

func (s *stubData) ValidateScriptValueCall(tok token.Token, sc *scopes.Context) {
	s.VerifyExists(item.ScriptValue, tok)
}

func (s *stubData) ValidateLocalization(token.Token, *scopes.Context) {}

func (s *stubData) DefinedString(token.Token, string) (string, bool) { return "", false }

func parse(t *testing.T, d *stubData, script string) *ast.Block {
	t.Helper()
	block := parser.ParseInternal(t.Name(), script, d.rep)
	require.NotNil(t, block)
	return block
}

func msgs(d *stubData) []string {
	var out []string
	for _, r := range d.rep.Take() {
		out = append(out, r.Msg)
	}
	return out
}

func testContext(d *stubData) *scopes.Context {
	return scopes.New(scopes.Character, token.NewToken("test", token.Loc{Kind: token.Mod, Line: 1, Column: 1}), d.rep)
}

func TestMain(m *testing.M) {
	tables.Load("1.12")
	m.Run()
}

func TestTriggerKnownAndUnknown(t *testing.T) {
	d := newStub()
	block := parse(t, d, `
		always = yes
		is_adult = yes
		definitely_not_a_trigger = yes
	`)
	sc := testContext(d)
	validate.ValidateTrigger(block, d, sc, validate.TooltipNo)

	got := msgs(d)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "definitely_not_a_trigger")
}

func TestTriggerBooleanArgument(t *testing.T) {
	d := newStub()
	block := parse(t, d, `always = maybe`)
	validate.ValidateTrigger(block, d, testContext(d), validate.TooltipNo)

	got := msgs(d)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "expected yes or no")
}

func TestTriggerScopeMismatch(t *testing.T) {
	d := newStub()
	// A faith-scoped trigger read in character scope.
	block := parse(t, d, `fervor > 30`)
	validate.ValidateTrigger(block, d, testContext(d), validate.TooltipNo)
	assert.NotEmpty(t, msgs(d))
}

func TestTriggerIteratorOpensElementScope(t *testing.T) {
	d := newStub()
	block := parse(t, d, `
		any_child = {
			is_adult = yes
		}
	`)
	validate.ValidateTrigger(block, d, testContext(d), validate.TooltipNo)
	assert.Empty(t, msgs(d))
}

func TestTriggerLooseValueReported(t *testing.T) {
	d := newStub()
	block := parse(t, d, `
		limit
	`)
	validate.ValidateTrigger(block, d, testContext(d), validate.TooltipNo)
	assert.NotEmpty(t, msgs(d))
}

func TestEffectKnownAndUnknown(t *testing.T) {
	d := newStub()
	d.define("gold_value")
	block := parse(t, d, `
		add_gold = gold_value
		not_an_effect_at_all = yes
	`)
	sc := testContext(d)
	validate.ValidateEffect(block, d, sc, validate.TooltipNo)

	got := msgs(d)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "not_an_effect_at_all")
}

func TestEffectIfNeedsLimit(t *testing.T) {
	d := newStub()
	block := parse(t, d, `
		if = {
			add_prestige = 100
		}
	`)
	validate.ValidateEffect(block, d, testContext(d), validate.TooltipNo)
	assert.NotEmpty(t, msgs(d))
}

func TestEffectScopeChange(t *testing.T) {
	d := newStub()
	block := parse(t, d, `
		liege = {
			add_gold = 50
		}
	`)
	validate.ValidateEffect(block, d, testContext(d), validate.TooltipNo)
	assert.Empty(t, msgs(d))
}

func TestValidateTarget(t *testing.T) {
	d := newStub()
	sc := testContext(d)

	out := validate.ValidateTarget(
		token.NewToken("liege", token.Loc{Kind: token.Mod, Line: 1, Column: 1}),
		d, sc, scopes.Character)
	assert.Equal(t, scopes.Character, out)
	assert.Empty(t, msgs(d))

	// A chain ending in the wrong type draws a report.
	validate.ValidateTarget(
		token.NewToken("primary_title", token.Loc{Kind: token.Mod, Line: 2, Column: 1}),
		d, sc, scopes.Character)
	assert.NotEmpty(t, msgs(d))
}

func TestValidatorFields(t *testing.T) {
	d := newStub()
	block := parse(t, d, `
		major = yes
		sort_order = 50
		picture = "gfx/pic.dds"
		surprise = {}
	`)
	vd := validate.New(block, d)
	vd.FieldBool("major")
	vd.FieldInteger("sort_order")
	vd.FieldValue("picture")
	vd.ReqField("title")
	vd.Close()

	got := msgs(d)
	// One for the missing required field, one for the unknown field.
	require.Len(t, got, 2)
	assert.Contains(t, got[0]+got[1], "title")
	assert.Contains(t, got[0]+got[1], "surprise")
}

func TestValidatorFieldValidatedKey(t *testing.T) {
	d := newStub()
	block := parse(t, d, `
		cooldown = { years = 5 }
	`)
	vd := validate.New(block, d)
	var gotKey string
	found := vd.FieldValidatedKey("cooldown", func(key token.Token, bv ast.BV, data validate.Data) {
		gotKey = key.Text
		assert.Same(t, d.Reports(), data.Reports())
		_, ok := bv.Block()
		assert.True(t, ok)
	})
	vd.Close()
	assert.True(t, found)
	assert.Equal(t, "cooldown", gotKey)
	assert.Empty(t, msgs(d))
}

func TestValidatorFieldScriptValueFull(t *testing.T) {
	d := newStub()
	d.define("known_value")
	block := parse(t, d, `
		gold = known_value
		ai_will_do = missing_value
	`)
	vd := validate.New(block, d)
	vd.FieldScriptValueFull("gold", validate.FullScope(testContext(d)), true)
	vd.FieldScriptValueFull("ai_will_do", validate.FullScope(testContext(d)), false)
	vd.Close()

	got := msgs(d)
	// Suppressing the value breakdown never suppresses missing-item checks.
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "missing_value")
}

func TestEffectFuncRegistryMatchesTables(t *testing.T) {
	registered := make(map[string]bool)
	for _, name := range validate.EffectFuncNames() {
		registered[name] = true
	}
	for _, name := range tables.EffectFuncs() {
		assert.True(t, registered[name], "no handler registered for %s", name)
	}
}
