// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package item_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
)

func TestKindFromString(t *testing.T) {
	k, ok := item.FromString("scripted_trigger")
	assert.True(t, ok)
	assert.Equal(t, item.ScriptedTrigger, k)
	assert.Equal(t, "scripted trigger", k.Display())
	assert.Equal(t, "common/scripted_triggers/", k.Subpath())

	_, ok = item.FromString("scripted trigger")
	assert.False(t, ok)
	_, ok = item.FromString("county")
	assert.False(t, ok)
}

func TestKindAttributes(t *testing.T) {
	assert.Equal(t, item.Overridable, item.Event.Policy())
	assert.Equal(t, item.FirstWins, item.Province.Policy())
	assert.Equal(t, item.Tolerant, item.OnAction.Policy())

	assert.Equal(t, report.Warning, item.Localization.MissingSeverity())
	assert.Equal(t, report.Error, item.ScriptValue.MissingSeverity())
	assert.Equal(t, report.Strong, item.Decision.MissingConfidence())

	assert.Equal(t, "", item.File.Subpath())
	assert.Equal(t, "Event_modding", item.Event.Wiki())
	assert.Equal(t, "event", item.Event.String())
}
