// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package scopes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdxlint/pdxlint/scopes"
)

func TestFromSnakeCase(t *testing.T) {
	known := []struct {
		name string
		want scopes.Scopes
	}{
		{"character", scopes.Character},
		{"landed_title", scopes.LandedTitle},
		{"ghw", scopes.GreatHolyWar},
		{"story", scopes.StoryCycle},
		{"vassal_contract_obligation_level", scopes.VassalObligationLevel},
		{"none", scopes.None},
		{"bool", scopes.Bool},
		{"casus_belli_type", scopes.CasusBelliType},
	}
	for _, tt := range known {
		got, ok := scopes.FromSnakeCase(tt.name)
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	// Script spells these irregularly; the long forms do not exist.
	for _, name := range []string{"great_holy_war", "story_cycle", "county"} {
		_, ok := scopes.FromSnakeCase(name)
		assert.False(t, ok, name)
	}
}

func TestScopesSets(t *testing.T) {
	assert.True(t, scopes.All.Contains(scopes.Character|scopes.Faith))
	assert.True(t, scopes.Character.Contains(scopes.Character))
	assert.False(t, scopes.Character.Contains(scopes.Character|scopes.Faith))
	assert.True(t, (scopes.Character | scopes.Faith).Intersects(scopes.Faith))
	assert.False(t, (scopes.Character | scopes.Faith).Intersects(scopes.Province))
	assert.True(t, scopes.Primitive.Contains(scopes.Bool))
	assert.False(t, scopes.NonPrimitive.Intersects(scopes.Primitive))
	assert.False(t, scopes.NonPrimitive.Intersects(scopes.None))
	assert.Equal(t, scopes.All, scopes.None|scopes.Primitive|scopes.NonPrimitive)
}

func TestScopesString(t *testing.T) {
	tests := []struct {
		s    scopes.Scopes
		want string
	}{
		{scopes.Character, "character"},
		{scopes.GreatHolyWar, "great holy war"},
		{scopes.StoryCycle, "story cycle"},
		{scopes.Character | scopes.Faith, "character or faith"},
		{scopes.Character | scopes.LandedTitle | scopes.Province, "character, landed title or province"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.s.String())
	}
}
