// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

func modReport(key report.ErrorKey, sev report.Severity, conf report.Confidence) *report.Report {
	return &report.Report{
		Severity:   sev,
		Confidence: conf,
		Key:        key,
		Msg:        "something is off",
		Pointers:   []report.Pointer{{Loc: token.Loc{Kind: token.Mod, Line: 1, Column: 1}}},
	}
}

func TestFilterDefaultHidesVanilla(t *testing.T) {
	f := &report.Filter{}
	r := modReport(report.MissingItem, report.Warning, report.Reasonable)
	assert.True(t, f.ShouldPrint(r))

	vanilla := *r
	vanilla.Pointers = []report.Pointer{{Loc: token.Loc{Kind: token.Vanilla, Line: 1}}}
	assert.False(t, f.ShouldPrint(&vanilla))

	shown := &report.Filter{ShowVanilla: true}
	assert.True(t, shown.ShouldPrint(&vanilla))
}

func TestFilterMixedPointersStayVisible(t *testing.T) {
	// One pointer in the mod keeps the report even when the other points
	// into vanilla.
	f := &report.Filter{}
	r := modReport(report.MissingItem, report.Warning, report.Reasonable)
	r.Pointers = append(r.Pointers, report.Pointer{Loc: token.Loc{Kind: token.Vanilla}})
	assert.True(t, f.ShouldPrint(r))
}

func TestFilterMinSeverity(t *testing.T) {
	f := &report.Filter{MinSeverity: report.Warning}
	assert.False(t, f.ShouldPrint(modReport(report.UnusedLocalization, report.Tips, report.Weak)))
	assert.True(t, f.ShouldPrint(modReport(report.MissingItem, report.Warning, report.Reasonable)))
	assert.True(t, f.ShouldPrint(modReport(report.ParseError, report.Error, report.Strong)))
}

func TestFilterConfigAlwaysPasses(t *testing.T) {
	f := &report.Filter{
		MinSeverity: report.Fatal,
		Predicate:   report.Contradiction{},
	}
	r := modReport(report.Config, report.Warning, report.Reasonable)
	assert.True(t, f.ShouldPrint(r))
}

func TestRuleTree(t *testing.T) {
	r := modReport(report.MissingItem, report.Warning, report.Reasonable)

	tests := []struct {
		name string
		rule report.Rule
		want bool
	}{
		{"tautology", report.Tautology{}, true},
		{"contradiction", report.Contradiction{}, false},
		{"key match", report.KeyRule{Key: report.MissingItem}, true},
		{"key mismatch", report.KeyRule{Key: report.ParseError}, false},
		{"severity ge", report.SeverityRule{Op: report.OpGE, Level: report.Warning}, true},
		{"severity gt", report.SeverityRule{Op: report.OpGT, Level: report.Warning}, false},
		{"severity le", report.SeverityRule{Op: report.OpLE, Level: report.Error}, true},
		{"confidence eq", report.ConfidenceRule{Op: report.OpEQ, Level: report.Reasonable}, true},
		{"confidence ne", report.ConfidenceRule{Op: report.OpNE, Level: report.Reasonable}, false},
		{"text substring", report.TextRule{Text: "IS OFF"}, true},
		{"text miss", report.TextRule{Text: "on fire"}, false},
		{"not", report.Not{Inner: report.KeyRule{Key: report.MissingItem}}, false},
		{"all of", report.AllOf{report.Tautology{}, report.KeyRule{Key: report.MissingItem}}, true},
		{"all of short", report.AllOf{report.Contradiction{}, report.Tautology{}}, false},
		{"any of", report.AnyOf{report.Contradiction{}, report.KeyRule{Key: report.MissingItem}}, true},
		{"any of empty", report.AnyOf{}, false},
		{"all of empty", report.AllOf{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.rule.Apply(r))
		})
	}
}

func TestFileRule(t *testing.T) {
	idx := token.Paths.Store("events/test_events.txt", "/mods/my/events/test_events.txt")
	r := modReport(report.MissingItem, report.Warning, report.Reasonable)
	r.Pointers[0].Loc.Path = idx

	assert.True(t, report.FileRule{Prefix: "events/"}.Apply(r))
	assert.False(t, report.FileRule{Prefix: "common/"}.Apply(r))
}

func TestKeyRoundTrip(t *testing.T) {
	for k := report.Config; k <= report.WrongGame; k++ {
		name := k.String()
		got, ok := report.KeyFromString(name)
		assert.True(t, ok, name)
		assert.Equal(t, k, got, name)
	}
	_, ok := report.KeyFromString("definitely-not-a-key")
	assert.False(t, ok)
}
