// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package item enumerates the categories of script-defined game objects
// the validator tracks, together with the per-category attributes the
// database and the reports need: where definitions live, what a duplicate
// definition means, and how to word a dangling reference.
package item

import (
	"github.com/pdxlint/pdxlint/report"
)

// Kind is one category of game object.
type Kind uint8

const (
	Decision Kind = iota
	Define
	Event
	EventNamespace
	File
	Localization
	OnAction
	Province
	ScriptedEffect
	ScriptedList
	ScriptedTrigger
	ScriptValue

	kindCount = iota
)

// DupPolicy says what a second definition with the same key from a source
// of equal priority means. Definitions from higher-priority sources always
// replace lower-priority ones silently; the policy only shapes the
// diagnostic for same-priority duplicates.
type DupPolicy uint8

const (
	// Overridable kinds treat a same-priority redefinition as a likely
	// mistake; an identical redefinition is called out as such.
	Overridable DupPolicy = iota
	// FirstWins kinds are read once by the game: later definitions are
	// dead script, identical or not.
	FirstWins
	// Tolerant kinds are redefined on purpose in normal modding; an
	// identical redefinition draws only advice.
	Tolerant
)

// kindAttrs carries the per-kind attribute row, indexed by Kind.
var kindAttrs = [kindCount]struct {
	name    string // config and console spelling
	display string // wording in reports
	subpath string // where definitions live under a game or mod root
	policy  DupPolicy
	sev     report.Severity
	conf    report.Confidence
	wiki    string // modding wiki page, when one exists
}{
	{"decision", "decision", "common/decisions/", Overridable, report.Error, report.Strong, "Decision_modding"},
	{"define", "define", "common/defines/", Overridable, report.Error, report.Strong, ""},
	{"event", "event", "events/", Overridable, report.Error, report.Strong, "Event_modding"},
	{"event_namespace", "event namespace", "events/", Tolerant, report.Error, report.Strong, ""},
	{"file", "file", "", Overridable, report.Error, report.Reasonable, ""},
	{"localization", "localization", "localization/", Overridable, report.Warning, report.Reasonable, ""},
	{"on_action", "on_action", "common/on_action/", Tolerant, report.Error, report.Strong, "On_actions"},
	{"province", "province", "map_data/definition.csv", FirstWins, report.Error, report.Strong, ""},
	{"scripted_effect", "scripted effect", "common/scripted_effects/", Overridable, report.Error, report.Strong, ""},
	{"scripted_list", "scripted list", "common/scripted_lists/", Overridable, report.Error, report.Strong, ""},
	{"scripted_trigger", "scripted trigger", "common/scripted_triggers/", Overridable, report.Error, report.Strong, ""},
	{"script_value", "script value", "common/script_values/", Overridable, report.Error, report.Strong, ""},
}

var nameToKind = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for i, a := range kindAttrs {
		m[a.name] = Kind(i)
	}
	return m
}()

// FromString resolves a kind by its config spelling.
func FromString(s string) (Kind, bool) {
	k, ok := nameToKind[s]
	return k, ok
}

func (k Kind) String() string { return kindAttrs[k].name }

// Display is the kind's wording in report messages.
func (k Kind) Display() string { return kindAttrs[k].display }

// Subpath is where definitions of this kind live under a game or mod
// root. Empty for kinds that are not tied to one directory.
func (k Kind) Subpath() string { return kindAttrs[k].subpath }

// Policy says how a same-priority duplicate definition is reported.
func (k Kind) Policy() DupPolicy { return kindAttrs[k].policy }

// MissingSeverity is the severity of a dangling reference to this kind.
// Callers cap it with Severity.AtMost when their own context is milder.
func (k Kind) MissingSeverity() report.Severity { return kindAttrs[k].sev }

// MissingConfidence is the confidence of a dangling-reference report.
func (k Kind) MissingConfidence() report.Confidence { return kindAttrs[k].conf }

// Wiki names the modding-wiki page for this kind, or "" when none fits.
func (k Kind) Wiki() string { return kindAttrs[k].wiki }
