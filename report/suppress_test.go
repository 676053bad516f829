// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

func writeSuppressions(t *testing.T, doc string) *report.Suppressions {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suppress.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	sup, err := report.LoadSuppressions(path)
	require.NoError(t, err)
	return sup
}

func TestSuppressionMatching(t *testing.T) {
	idx := token.Paths.Store("common/decisions/feast.txt", "/mod/common/decisions/feast.txt")
	sup := writeSuppressions(t, `[
		{
			"key": "missing-item",
			"message": "reviewed and accepted",
			"locations": [{"path": "common/decisions/feast.txt", "line": "cost = 5"}]
		}
	]`)
	assert.Equal(t, 1, sup.Len())

	r := report.New(report.OutputConfig{
		Writer:   io.Discard,
		Suppress: sup,
		Lines:    stubLines("cost = 5"),
	})
	loc := token.Loc{Path: idx, Kind: token.Mod, Line: 3, Column: 1}

	r.Warn(report.MissingItem).Msg("reviewed and accepted").Loc(loc).Push()
	// Same key, different message: not covered.
	r.Warn(report.MissingItem).Msg("something new").Loc(loc).Push()

	reports := r.Take()
	require.Len(t, reports, 1)
	assert.Equal(t, "something new", reports[0].Msg)
	assert.Equal(t, 1, r.Suppressed())
}

func TestSuppressionLineMismatch(t *testing.T) {
	idx := token.Paths.Store("common/decisions/moved.txt", "/mod/common/decisions/moved.txt")
	sup := writeSuppressions(t, `{"reports": [
		{
			"key": "missing-item",
			"message": "old finding",
			"locations": [{"path": "common/decisions/moved.txt", "line": "cost = 5"}]
		}
	]}`)

	// The source line changed since the suppression was recorded, so the
	// report comes back.
	r := report.New(report.OutputConfig{
		Writer:   io.Discard,
		Suppress: sup,
		Lines:    stubLines("cost = 50"),
	})
	loc := token.Loc{Path: idx, Kind: token.Mod, Line: 3, Column: 1}
	r.Warn(report.MissingItem).Msg("old finding").Loc(loc).Push()
	assert.Len(t, r.Take(), 1)
	assert.Equal(t, 0, r.Suppressed())
}

func TestLoadSuppressionsRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppress.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"key": "no-such-key", "message": "m", "locations": []}]`), 0o644))
	_, err := report.LoadSuppressions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-key")
}
