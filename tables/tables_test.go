// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package tables_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
)

func TestLoadVersionMatching(t *testing.T) {
	used, exact, err := tables.Load("1.12.5")
	require.NoError(t, err)
	assert.True(t, exact)
	assert.Equal(t, "1.12", used)

	used, exact, err = tables.Load("0.3")
	require.NoError(t, err)
	assert.False(t, exact)
	assert.Equal(t, tables.DefaultVersion, used)

	// Empty version selects the default set too.
	_, exact, err = tables.Load("")
	require.NoError(t, err)
	assert.False(t, exact)
}

func TestTriggerLookup(t *testing.T) {
	from, rule, ok := tables.Trigger("always")
	require.True(t, ok)
	assert.Equal(t, scopes.None, from)
	require.NotNil(t, rule)

	// Lookups fold case the way the game does.
	_, _, ok = tables.Trigger("ALWAYS")
	assert.True(t, ok)

	_, _, ok = tables.Trigger("not_a_trigger")
	assert.False(t, ok)
}

func TestEffectLookup(t *testing.T) {
	from, rule, ok := tables.Effect("add_gold")
	require.True(t, ok)
	assert.True(t, from.Contains(scopes.Character))
	assert.Equal(t, tables.EfScriptValue, rule.Kind)

	_, _, ok = tables.Effect("subtract_gold")
	assert.False(t, ok)
}

func TestScopeLinks(t *testing.T) {
	from, out, ok := tables.ScopeToScope("liege")
	require.True(t, ok)
	assert.True(t, from.Contains(scopes.Character))
	assert.Equal(t, scopes.Character, out)

	from, out, ok = tables.ScopeToScope("primary_title")
	require.True(t, ok)
	assert.True(t, from.Contains(scopes.Character))
	assert.Equal(t, scopes.LandedTitle, out)
}

func TestScopePrefix(t *testing.T) {
	rule, ok := tables.ScopePrefix("character")
	require.True(t, ok)
	assert.NotNil(t, rule)

	_, ok = tables.ScopePrefix("nonsense")
	assert.False(t, ok)
}

func TestIterators(t *testing.T) {
	// Iterators are stored without their any_/every_ prefix.
	from, out, ok := tables.Iterator("child")
	require.True(t, ok)
	assert.True(t, from.Contains(scopes.Character))
	assert.Equal(t, scopes.Character, out)

	from, out, ok = tables.Iterator("ruler")
	require.True(t, ok)
	assert.Equal(t, scopes.All, from)
	assert.Equal(t, scopes.Character, out)

	_, _, ok = tables.Iterator("every_child")
	assert.False(t, ok)
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"always":           "trigger",
		"add_gold":         "effect",
		"liege":            "link",
		"scope":            "prefix",
		"living_character": "iterator",
	}
	for name, want := range tests {
		got, ok := tables.Category(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := tables.Category("no_such_name")
	assert.False(t, ok)
	assert.False(t, tables.Exists("no_such_name"))
}

func TestKnownLanguages(t *testing.T) {
	langs := tables.KnownLanguages()
	assert.Contains(t, langs, "english")
	assert.Contains(t, langs, "simp_chinese")
	assert.Len(t, langs, 9)
}

func TestEngineDefines(t *testing.T) {
	assert.True(t, tables.EngineDefine("NGameIcons|TRAIT_ICON_PATH"))
	assert.False(t, tables.EngineDefine("NMod|MY_OWN_DEFINE"))
}

func TestDeduceNamedScope(t *testing.T) {
	s, ok := tables.DeduceNamedScope("actor")
	require.True(t, ok)
	assert.Equal(t, scopes.Character, s)

	s, ok = tables.DeduceNamedScope("county")
	require.True(t, ok)
	assert.Equal(t, scopes.LandedTitle, s)

	_, ok = tables.DeduceNamedScope("my_saved_thing")
	assert.False(t, ok)
}
