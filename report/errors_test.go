// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

func quietStore() *report.Reports {
	return report.New(report.OutputConfig{
		Writer: io.Discard,
		Filter: &report.Filter{ShowVanilla: true, ShowLoadedMods: true},
	})
}

func modLoc(line uint32) token.Loc {
	return token.Loc{Kind: token.Mod, Line: line, Column: 1}
}

func TestStoreDedup(t *testing.T) {
	r := quietStore()
	for i := 0; i < 3; i++ {
		r.Warn(report.MissingItem).Msg("`foo` not defined").Loc(modLoc(4)).Push()
	}
	r.Warn(report.MissingItem).Msg("`foo` not defined").Loc(modLoc(5)).Push()

	assert.Len(t, r.Take(), 2)
}

func TestStoreCounts(t *testing.T) {
	r := quietStore()
	r.Err(report.ParseError).Msg("a").Loc(modLoc(1)).Push()
	r.Err(report.ParseError).Msg("b").Loc(modLoc(2)).Push()
	r.Warn(report.MissingItem).Msg("c").Loc(modLoc(3)).Push()
	r.Tips(report.UnusedFile).Msg("d").Loc(modLoc(4)).Push()

	assert.Equal(t, 2, r.CountAtLeast(report.Error))
	assert.Equal(t, 3, r.CountAtLeast(report.Warning))
	assert.Equal(t, 4, r.CountAtLeast(report.Tips))

	tallies := r.Tallies()
	total := 0
	for _, tl := range tallies {
		total += tl.Count
	}
	assert.Equal(t, 4, total)
}

func TestTakeOrdersBySeverityThenLocation(t *testing.T) {
	r := quietStore()
	r.Tips(report.UnusedFile).Msg("tip").Loc(modLoc(1)).Push()
	r.Warn(report.MissingItem).Msg("later warning").Loc(modLoc(9)).Push()
	r.Warn(report.MissingItem).Msg("earlier warning").Loc(modLoc(2)).Push()
	r.Err(report.ParseError).Msg("error").Loc(modLoc(5)).Push()

	got := r.Take()
	require.Len(t, got, 4)
	assert.Equal(t, "error", got[0].Msg)
	assert.Equal(t, "earlier warning", got[1].Msg)
	assert.Equal(t, "later warning", got[2].Msg)
	assert.Equal(t, "tip", got[3].Msg)

	// Take drains the store.
	assert.Empty(t, r.Take())
}

func TestBuilderPanicsWithoutLocation(t *testing.T) {
	r := quietStore()
	assert.Panics(t, func() {
		r.Warn(report.MissingItem).Msg("no location").Push()
	})
	assert.Panics(t, func() {
		r.Warn(report.MissingItem).Loc(modLoc(1)).Push()
	})
}

// stubLines serves the same line for every location.
type stubLines string

func (s stubLines) Line(token.Loc) (string, bool) { return string(s), true }

func TestEmitFormat(t *testing.T) {
	idx := token.Paths.Store("common/decisions/test.txt", "/mod/common/decisions/test.txt")
	var buf bytes.Buffer
	r := report.New(report.OutputConfig{
		Writer: &buf,
		Styles: report.NoColorStyles(),
		Lines:  stubLines("    cost = { gold = wrong }"),
	})
	loc := token.Loc{Path: idx, Kind: token.Mod, Line: 12, Column: 5}
	r.Warn(report.MissingItem).
		Msgf("`%s` not defined", "wrong").
		Info("did you mean `gold_cost`?").
		Loc(loc).Push()
	require.NoError(t, r.Emit())

	out := buf.String()
	assert.Contains(t, out, "warning(missing-item): `wrong` not defined")
	assert.Contains(t, out, "--> [MOD] common/decisions/test.txt")
	assert.Contains(t, out, "12 |     cost = { gold = wrong }")
	assert.Contains(t, out, "= Info: did you mean `gold_cost`?")
}

func TestWidenScopeAndSetPredicate(t *testing.T) {
	var buf bytes.Buffer
	r := report.New(report.OutputConfig{
		Writer: &buf,
		Styles: report.NoColorStyles(),
		Filter: &report.Filter{},
	})
	vanillaLoc := token.Loc{Kind: token.Vanilla, Line: 1, Column: 1}
	r.Warn(report.MissingItem).Msg("hidden").Loc(vanillaLoc).Push()
	r.WidenScope(true, false)
	r.Warn(report.MissingItem).Msg("shown").Loc(vanillaLoc).Push()
	r.SetPredicate(report.Not{Inner: report.KeyRule{Key: report.Markup}})
	r.Warn(report.Markup).Msg("filtered").Loc(vanillaLoc).Push()

	got := r.Take()
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0].Msg)
}
