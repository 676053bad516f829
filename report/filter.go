// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report

import (
	"strings"

	"github.com/pdxlint/pdxlint/token"
)

// Filter decides which reports are worth storing. A report is dropped when
// every one of its pointers lands in files the user does not care about, or
// when it fails the predicate rule loaded from the mod's filter config.
type Filter struct {
	// ShowVanilla includes reports whose pointers all land in game files.
	ShowVanilla bool
	// ShowLoadedMods includes reports whose pointers all land in dependency
	// mods.
	ShowLoadedMods bool
	// Predicate is the rule tree from the mod's config. Nil accepts
	// everything.
	Predicate Rule
	// MaxSeverity drops reports below the given severity when set above
	// Tips.
	MinSeverity Severity
	// MinConfidence drops reports below the given confidence.
	MinConfidence Confidence
}

// ShouldPrint reports whether the report passes the filter. Config-key
// reports always pass: a broken config undermines everything else, so those
// must never be hidden.
func (f *Filter) ShouldPrint(r *Report) bool {
	if r.Key == Config {
		return true
	}
	if r.Severity < f.MinSeverity || r.Confidence < f.MinConfidence {
		return false
	}
	// If every single pointer is out of scope, the report is out of scope.
	outOfScope := true
	for _, p := range r.Pointers {
		if !f.kindHidden(p.Loc.Kind) {
			outOfScope = false
			break
		}
	}
	if outOfScope {
		return false
	}
	return f.Predicate == nil || f.Predicate.Apply(r)
}

// ShouldMaybePrint is a cheap pre-check on key and location for callers that
// want to skip building a report that has no chance of being printed.
func (f *Filter) ShouldMaybePrint(key ErrorKey, loc token.Loc) bool {
	if key == Config {
		return true
	}
	return !f.kindHidden(loc.Kind)
}

func (f *Filter) kindHidden(kind token.FileKind) bool {
	if kind.CountsAsVanilla() && !f.ShowVanilla {
		return true
	}
	return kind.IsLoadedMod() && !f.ShowLoadedMods
}

// WidenScope turns on the vanilla and dependency-mod visibility switches.
// The mod's filter config can widen what the command line asked for but
// never narrow it.
func (r *Reports) WidenScope(showVanilla, showLoadedMods bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if showVanilla {
		r.cfg.Filter.ShowVanilla = true
	}
	if showLoadedMods {
		r.cfg.Filter.ShowLoadedMods = true
	}
}

// SetPredicate installs a rule tree on a live store, AND-composed with
// whatever predicate is already there. The mod's own filter config only
// becomes readable after the store exists, so installation happens between
// construction and the first validation pass.
func (r *Reports) SetPredicate(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.Filter.Predicate == nil {
		r.cfg.Filter.Predicate = rule
		return
	}
	r.cfg.Filter.Predicate = AllOf{r.cfg.Filter.Predicate, rule}
}

// Rule is one node of the predicate tree loaded from the mod's filter
// config. The config syntax mirrors script triggers: AND/OR/NOT blocks over
// severity, confidence, key, file and text conditions.
type Rule interface {
	Apply(r *Report) bool
}

// CmpOp is a comparison operator in a severity or confidence rule.
type CmpOp int8

const (
	OpEQ CmpOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

func (op CmpOp) holds(cmp int) bool {
	switch op {
	case OpEQ:
		return cmp == 0
	case OpNE:
		return cmp != 0
	case OpLT:
		return cmp < 0
	case OpLE:
		return cmp <= 0
	case OpGT:
		return cmp > 0
	case OpGE:
		return cmp >= 0
	}
	return false
}

// Tautology accepts every report. It is the default predicate.
type Tautology struct{}

func (Tautology) Apply(*Report) bool { return true }

// Contradiction rejects every report.
type Contradiction struct{}

func (Contradiction) Apply(*Report) bool { return false }

// AllOf accepts a report that matches all child rules. The top-level rule
// of a filter config is always an AllOf.
type AllOf []Rule

func (rules AllOf) Apply(r *Report) bool {
	for _, rule := range rules {
		if !rule.Apply(r) {
			return false
		}
	}
	return true
}

// AnyOf accepts a report that matches at least one child rule.
type AnyOf []Rule

func (rules AnyOf) Apply(r *Report) bool {
	for _, rule := range rules {
		if rule.Apply(r) {
			return true
		}
	}
	return false
}

// Not accepts a report that does not match the child rule.
type Not struct{ Inner Rule }

func (n Not) Apply(r *Report) bool { return !n.Inner.Apply(r) }

// SeverityRule compares the report's severity against a level, as written
// `severity >= error` in the filter config.
type SeverityRule struct {
	Op    CmpOp
	Level Severity
}

func (s SeverityRule) Apply(r *Report) bool {
	return s.Op.holds(int(r.Severity) - int(s.Level))
}

// ConfidenceRule compares the report's confidence against a level.
type ConfidenceRule struct {
	Op    CmpOp
	Level Confidence
}

func (c ConfidenceRule) Apply(r *Report) bool {
	return c.Op.holds(int(r.Confidence) - int(c.Level))
}

// KeyRule accepts reports with exactly the given key.
type KeyRule struct{ Key ErrorKey }

func (k KeyRule) Apply(r *Report) bool { return r.Key == k.Key }

// FileRule accepts reports with at least one pointer under the given path
// prefix.
type FileRule struct{ Prefix string }

func (f FileRule) Apply(r *Report) bool {
	for _, p := range r.Pointers {
		if strings.HasPrefix(p.Loc.Pathname(), f.Prefix) {
			return true
		}
	}
	return false
}

// TextRule accepts reports whose message contains the given text,
// case-insensitively.
type TextRule struct{ Text string }

func (t TextRule) Apply(r *Report) bool {
	return strings.Contains(strings.ToLower(r.Msg), strings.ToLower(t.Text))
}
