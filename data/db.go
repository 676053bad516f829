// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package data owns the loaded game database: the per-kind item stores,
// the concrete collections (events, localization, provinces, defines) and
// the Everything facade that ties them to the fileset and the validators.
package data

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/common"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// ItemValidator validates one database entry in the context of the whole
// loaded database. Implementations live with their collection.
type ItemValidator interface {
	Validate(key token.Token, block *ast.Block, d *Everything)
}

// Entry is one stored item definition.
type Entry struct {
	Key       token.Token
	Block     *ast.Block
	validator ItemValidator
}

// Db holds item definitions by kind and key, resolving the overlay the
// same way the game does. Add may run concurrently during loading;
// lookups are expected only after loading settles.
type Db struct {
	rep  *report.Reports
	mu   sync.Mutex
	iter map[item.Kind]map[string]*Entry
	used map[item.Kind]mapset.Set
}

// NewDb returns an empty database.
func NewDb(rep *report.Reports) *Db {
	return &Db{
		rep:  rep,
		iter: make(map[item.Kind]map[string]*Entry),
		used: make(map[item.Kind]mapset.Set),
	}
}

// Add stores a definition, resolving priority against an existing one
// with the same key: a higher overlay kind replaces silently, a lower one
// is dropped silently, and at equal priority the first definition stays
// and exactly one diagnostic points at both. The kind's duplicate policy
// only softens the diagnostic, never the outcome.
func (db *Db) Add(kind item.Kind, key token.Token, block *ast.Block, v ItemValidator) {
	db.mu.Lock()
	defer db.mu.Unlock()
	m := db.iter[kind]
	if m == nil {
		m = make(map[string]*Entry)
		db.iter[kind] = m
	}
	other, ok := m[key.Text]
	if !ok {
		m[key.Text] = &Entry{Key: key, Block: block, validator: v}
		return
	}
	switch {
	case key.Loc.Kind > other.Key.Loc.Kind:
		m[key.Text] = &Entry{Key: key, Block: block, validator: v}
	case key.Loc.Kind < other.Key.Loc.Kind:
		// Shadowed by a higher layer; the game never reads it.
	default:
		db.reportDup(kind, key, other, block)
	}
}

func (db *Db) reportDup(kind item.Kind, key token.Token, other *Entry, block *ast.Block) {
	id := kind.Display() + " " + key.Text
	identical := other.Block != nil && block != nil && other.Block.Equivalent(block)
	switch {
	case identical && kind.Policy() == item.Tolerant:
		common.ExactDupAdvice(db.rep, key, other.Key, id)
	case identical:
		common.ExactDupError(db.rep, key, other.Key, id)
	case kind.Policy() == item.Tolerant:
		// Redefinition is how the kind is meant to be extended.
	default:
		common.DupError(db.rep, key, other.Key, id)
	}
}

// Exists reports whether key is defined as the given kind.
func (db *Db) Exists(kind item.Kind, key string) bool {
	_, ok := db.iter[kind][key]
	return ok
}

// Get returns the effective definition for a key.
func (db *Db) Get(kind item.Kind, key string) (*Entry, bool) {
	e, ok := db.iter[kind][key]
	return e, ok
}

// MarkUsed records a reference to a key, existing or not.
func (db *Db) MarkUsed(kind item.Kind, key string) {
	db.mu.Lock()
	s := db.used[kind]
	if s == nil {
		s = mapset.NewSet()
		db.used[kind] = s
	}
	db.mu.Unlock()
	s.Add(key)
}

// IsUsed reports whether anything referred to the key.
func (db *Db) IsUsed(kind item.Kind, key string) bool {
	s := db.used[kind]
	return s != nil && s.Contains(key)
}

// sortedKeys returns the keys of one kind in deterministic order, for
// stable validation and unused reporting.
func (db *Db) sortedKeys(kind item.Kind) []string {
	m := db.iter[kind]
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate runs every entry's validator, kind by kind, keys sorted.
func (db *Db) Validate(d *Everything) {
	for kind := range db.iter {
		for _, key := range db.sortedKeys(kind) {
			e := db.iter[kind][key]
			if e.validator != nil {
				e.validator.Validate(e.Key, e.Block, d)
			}
		}
	}
}
