// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package tables

import (
	"fmt"
	"strings"

	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/scopes"
)

// ScopeToScope resolves a bare scope transition such as faith or liege:
// from says which scopes it can be read in, out what it yields.
func ScopeToScope(name string) (from, out scopes.Scopes, ok bool) {
	l, ok := active.links[strings.ToLower(name)]
	if !ok {
		return 0, 0, false
	}
	return l.from, l.to, true
}

// ScopeToScopeRemoved looks up a scope transition that a game version
// deleted, for the removed-token diagnostic.
func ScopeToScopeRemoved(name string) (*Removed, bool) {
	r, ok := active.linksRemoved[strings.ToLower(name)]
	return r, ok
}

// PrefixRule describes a prefixed scope transition such as culture: or
// var:. The part after the colon is checked against Item when HasItem is
// set, otherwise it is accepted as is.
type PrefixRule struct {
	From    scopes.Scopes
	Out     scopes.Scopes
	Item    item.Kind
	HasItem bool
}

// ScopePrefix resolves the part before the colon of a prefixed target.
func ScopePrefix(prefix string) (*PrefixRule, bool) {
	p, ok := active.prefixes[strings.ToLower(prefix)]
	return p, ok
}

// Iterator resolves a list name, without its every_/any_/ordered_/random_
// prefix, to the scopes it can run in and the scope its items have.
func Iterator(name string) (from, out scopes.Scopes, ok bool) {
	l, ok := active.iterators[strings.ToLower(name)]
	if !ok {
		return 0, 0, false
	}
	return l.from, l.to, true
}

// IteratorRemoved looks up an iterator that a game version deleted.
func IteratorRemoved(name string) (*Removed, bool) {
	r, ok := active.iteratorsRemoved[strings.ToLower(name)]
	return r, ok
}

// ItemExists is the one slice of the game database NeedsPrefix consults.
type ItemExists interface {
	Exists(kind item.Kind, key string) bool
}

type needsPrefixRow struct {
	scope   scopes.Scopes
	prefix  string
	item    item.Kind
	hasItem bool
}

// NeedsPrefix guesses the prefix a bare token is missing, for advice like
// "did you mean province:1234". It answers only when the wanted scope is a
// single type and the token is a plausible key for that prefix.
func NeedsPrefix(arg string, data ItemExists, s scopes.Scopes) (string, bool) {
	for _, row := range active.needsPrefix {
		if s != row.scope {
			continue
		}
		if row.hasItem && !data.Exists(row.item, arg) {
			continue
		}
		return row.prefix, true
	}
	return "", false
}

// Row string formats. Links and iterators are "<from> <name> <to>",
// prefixes "<from> <name> <to> [item]", needs_prefix rows
// "<scope> <prefix> [item]". Scope unions use | without spaces.

type linksFile struct {
	Link    []string     `toml:"link"`
	Removed []removedRow `toml:"removed"`
}

type removedRow struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Advice  string `toml:"advice"`
}

func splitRow(row string, min, max int) ([]string, error) {
	fields := strings.Fields(row)
	if len(fields) < min || len(fields) > max {
		return nil, fmt.Errorf("malformed row %q", row)
	}
	return fields, nil
}

func parseLinkRow(row string) (string, *link, error) {
	fields, err := splitRow(row, 3, 3)
	if err != nil {
		return "", nil, err
	}
	from, err := parseScopes(fields[0])
	if err != nil {
		return "", nil, fmt.Errorf("%q: %v", row, err)
	}
	to, err := parseScopes(fields[2])
	if err != nil {
		return "", nil, fmt.Errorf("%q: %v", row, err)
	}
	return fields[1], &link{from: from, to: to}, nil
}

func (s *set) loadLinks(dir string) error {
	var f linksFile
	if err := decodeFile(dir, "links.toml", &f); err != nil {
		return err
	}
	for _, row := range f.Link {
		name, l, err := parseLinkRow(row)
		if err != nil {
			return err
		}
		s.links[name] = l
	}
	for _, row := range f.Removed {
		s.linksRemoved[row.Name] = &Removed{Version: row.Version, Advice: row.Advice}
	}
	return nil
}

type prefixesFile struct {
	Prefix      []string `toml:"prefix"`
	NeedsPrefix []string `toml:"needs_prefix"`
}

func (s *set) loadPrefixes(dir string) error {
	var f prefixesFile
	if err := decodeFile(dir, "prefixes.toml", &f); err != nil {
		return err
	}
	for _, row := range f.Prefix {
		fields, err := splitRow(row, 3, 4)
		if err != nil {
			return err
		}
		rule := &PrefixRule{}
		if rule.From, err = parseScopes(fields[0]); err != nil {
			return fmt.Errorf("%q: %v", row, err)
		}
		if rule.Out, err = parseScopes(fields[2]); err != nil {
			return fmt.Errorf("%q: %v", row, err)
		}
		if len(fields) == 4 {
			if rule.Item, rule.HasItem, err = parseItem(fields[3]); err != nil {
				return fmt.Errorf("%q: %v", row, err)
			}
		}
		s.prefixes[fields[1]] = rule
	}
	for _, row := range f.NeedsPrefix {
		fields, err := splitRow(row, 2, 3)
		if err != nil {
			return err
		}
		nr := needsPrefixRow{prefix: fields[1]}
		if nr.scope, err = parseScopes(fields[0]); err != nil {
			return fmt.Errorf("%q: %v", row, err)
		}
		if len(fields) == 3 {
			if nr.item, nr.hasItem, err = parseItem(fields[2]); err != nil {
				return fmt.Errorf("%q: %v", row, err)
			}
		}
		s.needsPrefix = append(s.needsPrefix, nr)
	}
	return nil
}

type iteratorsFile struct {
	Iterator []string     `toml:"iterator"`
	Removed  []removedRow `toml:"removed"`
}

func (s *set) loadIterators(dir string) error {
	var f iteratorsFile
	if err := decodeFile(dir, "iterators.toml", &f); err != nil {
		return err
	}
	for _, row := range f.Iterator {
		name, l, err := parseLinkRow(row)
		if err != nil {
			return err
		}
		s.iterators[name] = l
	}
	for _, row := range f.Removed {
		s.iteratorsRemoved[row.Name] = &Removed{Version: row.Version, Advice: row.Advice}
	}
	return nil
}

type miscFile struct {
	Languages []string `toml:"languages"`
	Deduce    []string `toml:"deduce"`
	Defines   []string `toml:"defines"`
}

func (s *set) loadMisc(dir string) error {
	var f miscFile
	if err := decodeFile(dir, "misc.toml", &f); err != nil {
		return err
	}
	s.languages = f.Languages
	for _, row := range f.Deduce {
		fields, err := splitRow(row, 2, 2)
		if err != nil {
			return err
		}
		sc, err := parseScopes(fields[1])
		if err != nil {
			return fmt.Errorf("%q: %v", row, err)
		}
		s.deduce[fields[0]] = sc
	}
	for _, key := range f.Defines {
		s.defines[key] = struct{}{}
	}
	return nil
}
