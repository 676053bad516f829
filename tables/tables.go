// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package tables holds the per-game-version rule tables the validators
// consult: which triggers and effects exist and what arguments they take,
// scope-to-scope transitions, scope prefixes, iterator lists, engine
// defines, known localization languages and saved-scope name deduction.
//
// The tables are TOML resources compiled in with go:embed, one directory
// per game version. Load selects a set at startup; lookups read the active
// set. The package init installs the newest shipped set so lookups work
// without an explicit Load.
package tables

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/naoina/toml"

	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/scopes"
)

//go:embed data
var dataFS embed.FS

// DefaultVersion is the newest game version a table set is shipped for.
// Unknown versions fall back to it.
const DefaultVersion = "1.12"

// active is the installed table set. Load replaces it wholesale; lookups
// never mutate it, so re-loading mid-run is safe as long as the caller
// does not validate concurrently with Load.
var active *set

func init() {
	s, err := loadSet(DefaultVersion)
	if err != nil {
		panic(fmt.Sprintf("tables: embedded set %s: %v", DefaultVersion, err))
	}
	active = s
	scopes.DeduceName = DeduceNamedScope
}

// Versions lists the game versions with a shipped table set, newest first.
func Versions() []string {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil
	}
	var vs []string
	for _, e := range entries {
		if e.IsDir() {
			vs = append(vs, strings.TrimPrefix(e.Name(), "ck3-"))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(vs)))
	return vs
}

// Load installs the table set for a game version. Versions match on their
// major.minor prefix, so "1.12.5" selects the "1.12" set. When no set
// matches, the newest shipped set is installed and exact is false; the
// caller is expected to raise a config diagnostic.
func Load(version string) (used string, exact bool, err error) {
	want := majorMinor(version)
	for _, v := range Versions() {
		if v == want {
			exact = true
			break
		}
	}
	used = want
	if !exact {
		used = DefaultVersion
	}
	if active != nil && active.version == used {
		return used, exact, nil
	}
	s, err := loadSet(used)
	if err != nil {
		return "", false, err
	}
	active = s
	return used, exact, nil
}

func majorMinor(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

// Exists reports whether name is defined in any table of the active set.
// The console's :exists command uses it.
func Exists(name string) bool {
	_, ok := Category(name)
	return ok
}

// Category names the table that defines name: "trigger", "effect", "link",
// "prefix" or "iterator". Triggers shadow the rest, matching the order the
// validators try them in.
func Category(name string) (string, bool) {
	lw := strings.ToLower(name)
	if _, _, ok := Trigger(lw); ok {
		return "trigger", true
	}
	if _, _, ok := Effect(lw); ok {
		return "effect", true
	}
	if _, _, ok := ScopeToScope(lw); ok {
		return "link", true
	}
	if _, ok := ScopePrefix(lw); ok {
		return "prefix", true
	}
	if _, _, ok := Iterator(lw); ok {
		return "iterator", true
	}
	return "", false
}

// KnownLanguages lists the localization languages the game ships, in the
// order the wrong-language advice prints them.
func KnownLanguages() []string {
	return active.languages
}

// EngineDefine reports whether key names a define the game engine itself
// supplies, such as the NGameIcons paths. These resolve even when the mod
// under validation does not redefine them.
func EngineDefine(key string) bool {
	_, ok := active.defines[key]
	return ok
}

// DeduceNamedScope guesses a scope type from a saved scope's bare name.
// It is installed as scopes.DeduceName and covers only names so
// conventional that another type is very unlikely.
func DeduceNamedScope(name string) (scopes.Scopes, bool) {
	s, ok := active.deduce[name]
	return s, ok
}

// set is one parsed table set. All maps are keyed by lowercased name.
type set struct {
	version          string
	links            map[string]*link
	linksRemoved     map[string]*Removed
	prefixes         map[string]*PrefixRule
	iterators        map[string]*link
	iteratorsRemoved map[string]*Removed
	needsPrefix      []needsPrefixRow
	triggers         map[string]*triggerEntry
	effects          map[string]*effectEntry
	deduce           map[string]scopes.Scopes
	defines          map[string]struct{}
	languages        []string
}

// link is a scope-to-scope transition or an iterator row: usable when the
// current scope is in From, yields To.
type link struct {
	from scopes.Scopes
	to   scopes.Scopes
}

// Removed describes a trigger, link or iterator that a game version
// deleted. Advice suggests the replacement and may be empty.
type Removed struct {
	Version string
	Advice  string
}

type triggerEntry struct {
	scopes scopes.Scopes
	rule   *TriggerRule
}

type effectEntry struct {
	scopes scopes.Scopes
	rule   *EffectRule
}

func loadSet(version string) (*set, error) {
	dir := path.Join("data", "ck3-"+version)
	s := &set{
		version:          version,
		links:            make(map[string]*link),
		linksRemoved:     make(map[string]*Removed),
		prefixes:         make(map[string]*PrefixRule),
		iterators:        make(map[string]*link),
		iteratorsRemoved: make(map[string]*Removed),
		triggers:         make(map[string]*triggerEntry),
		effects:          make(map[string]*effectEntry),
		deduce:           make(map[string]scopes.Scopes),
		defines:          make(map[string]struct{}),
	}
	if err := s.loadLinks(dir); err != nil {
		return nil, err
	}
	if err := s.loadPrefixes(dir); err != nil {
		return nil, err
	}
	if err := s.loadIterators(dir); err != nil {
		return nil, err
	}
	if err := s.loadTriggers(dir); err != nil {
		return nil, err
	}
	if err := s.loadEffects(dir); err != nil {
		return nil, err
	}
	if err := s.loadMisc(dir); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeFile(dir, name string, v interface{}) error {
	b, err := dataFS.ReadFile(path.Join(dir, name))
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	return nil
}

// parseScopes reads the table spelling of a scope union: snake_case type
// names joined by |, or the specials "all", "all_but_none" and
// "primitive". An empty string means None, for rows rooted nowhere.
func parseScopes(spec string) (scopes.Scopes, error) {
	if spec == "" {
		return scopes.None, nil
	}
	var out scopes.Scopes
	for _, part := range strings.Split(spec, "|") {
		switch part {
		case "all":
			out |= scopes.All
		case "all_but_none":
			out |= scopes.All &^ scopes.None
		case "primitive":
			out |= scopes.Primitive
		default:
			s, ok := scopes.FromSnakeCase(part)
			if !ok {
				return 0, fmt.Errorf("unknown scope type %q", part)
			}
			out |= s
		}
	}
	return out, nil
}

// parseItem resolves an optional item kind. Empty spec means the value is
// accepted without a cross-reference check.
func parseItem(spec string) (item.Kind, bool, error) {
	if spec == "" {
		return 0, false, nil
	}
	k, ok := item.FromString(spec)
	if !ok {
		return 0, false, fmt.Errorf("unknown item kind %q", spec)
	}
	return k, true, nil
}
