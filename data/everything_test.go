// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package data_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/data"
	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

// Script and localization files must carry a UTF-8 BOM or the loader
// reports them, so every fixture starts with one.
const bom = "\uFEFF"

func TestMain(m *testing.M) {
	if _, _, err := tables.Load(tables.DefaultVersion); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// lintMod writes the given files into a throwaway mod root, runs the full
// load and validate passes over it, and drains the resulting reports.
func lintMod(t *testing.T, files map[string]string, checkUnused bool) []report.Report {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	rep := report.New(report.OutputConfig{Writer: io.Discard})
	fset := fileset.New(rep, 1<<20)
	fset.AddRoot(root, token.Mod)
	fset.Finish()
	d := data.New(rep, fset)
	require.NoError(t, d.LoadAll(context.Background()))
	require.NoError(t, d.ValidateAll(context.Background()))
	if checkUnused {
		d.CheckUnused()
	}
	return rep.Take()
}

func byKey(reports []report.Report, key report.ErrorKey) []report.Report {
	var out []report.Report
	for _, r := range reports {
		if r.Key == key {
			out = append(out, r)
		}
	}
	return out
}

func someMsgContains(t *testing.T, reports []report.Report, substr string) {
	t.Helper()
	for _, r := range reports {
		if strings.Contains(r.Msg, substr) {
			return
		}
	}
	t.Errorf("no report mentions %q among %d reports", substr, len(reports))
	for _, r := range reports {
		t.Logf("  %s(%s): %s", r.Severity, r.Key, r.Msg)
	}
}

func TestDecisionClean(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"common/decisions/feast_decisions.txt": bom + `grand_feast = {
	major = yes
	cooldown = { years = 5 }
	is_shown = { is_adult = yes }
	effect = { add_prestige = 100 }
	cost = { gold = 50 }
}
`,
		"localization/english/feast_l_english.yml": bom + `l_english:
 grand_feast:0 "Hold a Grand Feast"
 grand_feast_desc:0 "Invite the realm to your table."
 grand_feast_tooltip:0 "Hold a feast."
 grand_feast_confirm:0 "Begin the feast"
`,
	}, false)
	assert.Empty(t, reports)
}

func TestDecisionMissingLocalization(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"common/decisions/feast_decisions.txt": bom + `grand_feast = {
	effect = { add_prestige = 100 }
}
`,
	}, false)
	missing := byKey(reports, report.MissingLocalization)
	// Title, desc, tooltip and confirm text all fall back to derived keys.
	require.Len(t, missing, 4)
	for _, r := range missing {
		assert.Equal(t, report.Warning, r.Severity)
	}
	someMsgContains(t, missing, "grand_feast_desc")
	someMsgContains(t, missing, "grand_feast_confirm")
}

func TestDecisionRedefined(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"common/decisions/feast_decisions.txt": bom + `grand_feast = {
	major = yes
}
grand_feast = {
	major = no
}
`,
	}, false)
	dups := byKey(reports, report.DuplicateItem)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Msg, "redefined by another decision")
}

func TestEventNamespaceChecks(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"events/feast_events.txt": bom + `namespace = feast
feast.1 = {
	hidden = yes
}
feast.finale = {
	hidden = yes
}
banquet.1 = {
	hidden = yes
}
`,
	}, false)
	ns := byKey(reports, report.EventNamespace)
	require.Len(t, ns, 2)
	someMsgContains(t, ns, "namespace `banquet` is not declared in this file")
	someMsgContains(t, ns, "`feast.finale` does not end in a number")
}

func TestProvinceDefinition(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"map_data/definition.csv": `ProvID;Red;Green;Blue;Name;x
1;42;10;10;prov_a;x
2;300;10;10;prov_b;x
4;50;10;10;prov_d;x
`,
	}, false)
	colors := byKey(reports, report.Colors)
	require.Len(t, colors, 1)
	assert.Contains(t, colors[0].Msg, "color channel `300` is not in 0-255")
	someMsgContains(t, byKey(reports, report.ParseError),
		"province ids must be sequential; expected 3 here, found 4")
}

func TestAdjacencies(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"map_data/definition.csv": `ProvID;Red;Green;Blue;Name;x
1;10;10;10;prov_a;x
2;20;20;20;prov_b;x
3;30;30;30;prov_c;x
`,
		"map_data/adjacencies.csv": `From;To;Type;Through;start_x;start_y;stop_x;stop_y;Comment
1;2;sea;-1;0;0;10;10;strait
7;2;road;-1;0;0;10;10;bridge
-1;-1;-1;-1;-1;-1;-1;-1;-1
3;2;sea;-1;0;0;10;10;late
`,
	}, false)
	choice := byKey(reports, report.Choice)
	require.Len(t, choice, 1)
	assert.Contains(t, choice[0].Msg, "adjacency type `road` should be `sea` or `river_large`")
	missing := byKey(reports, report.MissingItem)
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0].Msg, "province 7 is not defined")
	someMsgContains(t, byKey(reports, report.ParseError),
		"row after the -1 line; the game stops reading there")
}

func TestAdjacenciesMissingTerminator(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"map_data/definition.csv": `ProvID;Red;Green;Blue;Name;x
1;10;10;10;prov_a;x
2;20;20;20;prov_b;x
`,
		"map_data/adjacencies.csv": `From;To;Type;Through;start_x;start_y;stop_x;stop_y;Comment
1;2;sea;-1;0;0;10;10;strait
`,
	}, false)
	parse := byKey(reports, report.ParseError)
	require.Len(t, parse, 1)
	assert.Equal(t, report.Error, parse[0].Severity)
	assert.Contains(t, parse[0].Msg, "adjacencies file needs a line with all -1")
}

func TestLocalizationChecks(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"localization/english/story_l_english.yml": bom + `l_english:
 key_a:0 "Hello [ROOT.GetName]"
 key_a:0 "Hello again"
 key_b:0 "Broken $ref"
 key_c:0 "#bold never closed"
 key_d:0 "Uses $key_a$"
`,
	}, true)
	dups := byKey(reports, report.LocalizationDup)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Msg, "localization key `key_a` is redefined")

	markup := byKey(reports, report.Markup)
	require.Len(t, markup, 2)
	someMsgContains(t, markup, "`$` reference is not closed with a second `$`")
	someMsgContains(t, markup, "`#` text formatting is not closed with `#!`")

	// key_a is referenced from key_d and the rest go unmentioned.
	unused := byKey(reports, report.UnusedLocalization)
	require.Len(t, unused, 3)
	for _, r := range unused {
		assert.NotContains(t, r.Msg, "`key_a`")
	}
}

func TestScriptedTriggerValidation(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"common/scripted_triggers/feast_triggers.txt": bom + `can_feast_trigger = {
	is_adult = yes
	not_a_real_trigger = yes
}
`,
	}, false)
	unknown := byKey(reports, report.UnknownField)
	require.Len(t, unknown, 1)
	assert.Contains(t, unknown[0].Msg, "unknown trigger `not_a_real_trigger`")
}

func TestProvinceDuplicateId(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"map_data/definition.csv": `ProvID;Red;Green;Blue;Name;x
1;42;10;10;prov_a;x
2;50;10;10;prov_b;x
1;60;10;10;prov_a_again;x
3;70;10;10;prov_c;x
`,
	}, false)
	dups := byKey(reports, report.DuplicateItem)
	require.Len(t, dups, 1)
	assert.Equal(t, report.Error, dups[0].Severity)
	assert.Contains(t, dups[0].Msg, "duplicate entry for province id 1")
	// The first row wins, so ids 1-3 are all present and no gap is reported.
	assert.Empty(t, byKey(reports, report.ParseError))
}

// lintOverlay is lintMod with a vanilla layer underneath the mod.
func lintOverlay(t *testing.T, vanilla, mod map[string]string) []report.Report {
	t.Helper()
	writeRoot := func(files map[string]string) string {
		root := t.TempDir()
		for rel, content := range files {
			full := filepath.Join(root, filepath.FromSlash(rel))
			require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
			require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		}
		return root
	}
	rep := report.New(report.OutputConfig{Writer: io.Discard})
	fset := fileset.New(rep, 1<<20)
	fset.AddRoot(writeRoot(vanilla), token.Vanilla)
	fset.AddRoot(writeRoot(mod), token.Mod)
	fset.Finish()
	d := data.New(rep, fset)
	require.NoError(t, d.LoadAll(context.Background()))
	require.NoError(t, d.ValidateAll(context.Background()))
	return rep.Take()
}

func TestModOverridesVanillaWithoutDuplicateReport(t *testing.T) {
	reports := lintOverlay(t, map[string]string{
		"common/decisions/base_decisions.txt": bom + `grand_feast = {
	major = yes
	is_shown = { is_adult = yes }
}
`,
	}, map[string]string{
		"common/decisions/feast_decisions.txt": bom + `grand_feast = {
	major = no
	is_shown = { is_adult = yes }
}
`,
		"localization/english/feast_l_english.yml": bom + `l_english:
 grand_feast:0 "Hold a Grand Feast"
 grand_feast_desc:0 "Invite the realm to your table."
 grand_feast_tooltip:0 "Hold a feast."
 grand_feast_confirm:0 "Begin the feast"
`,
	})
	// A mod redefining a vanilla item is the normal way to override it.
	assert.Empty(t, byKey(reports, report.DuplicateItem))
}

func TestMissingBomReported(t *testing.T) {
	reports := lintMod(t, map[string]string{
		"common/decisions/feast_decisions.txt": `grand_feast = {
	major = yes
}
`,
	}, false)
	someMsgContains(t, byKey(reports, report.Bom), "file is missing its UTF-8 BOM")
}
