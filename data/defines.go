// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package data

import (
	"strings"
	"sync"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/common"
	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

// defineStore holds engine tuning values from common/defines/, keyed
// `Group|NAME` the way the rest of the script refers to them.
type defineStore struct {
	mu   sync.Mutex
	defs map[string]*defineEntry
}

type defineEntry struct {
	key token.Token
	bv  ast.BV
}

func newDefineStore() *defineStore {
	return &defineStore{defs: make(map[string]*defineEntry)}
}

func (s *defineStore) add(rep *report.Reports, name string, key token.Token, bv ast.BV) {
	s.mu.Lock()
	defer s.mu.Unlock()
	other, ok := s.defs[name]
	if !ok {
		s.defs[name] = &defineEntry{key: key, bv: bv}
		return
	}
	switch {
	case key.Loc.Kind > other.key.Loc.Kind:
		s.defs[name] = &defineEntry{key: key, bv: bv}
	case key.Loc.Kind < other.key.Loc.Kind:
	default:
		common.DupError(rep, key, other.key, "define "+name)
	}
}

func (s *defineStore) exists(name string) bool {
	s.mu.Lock()
	_, ok := s.defs[name]
	s.mu.Unlock()
	return ok
}

// str resolves a define to its single-value text. Block-valued defines
// resolve as absent, which matches how path defines are consumed.
func (s *defineStore) str(name string) (string, bool) {
	s.mu.Lock()
	e, ok := s.defs[name]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	tok, ok := e.bv.Value()
	if !ok {
		return "", false
	}
	return tok.Text, true
}

// defineHandler loads common/defines/. Each top-level block is a define
// group; mods can only override values the engine already reads, so an
// unknown name in the target mod draws a warning.
type defineHandler struct {
	d *Everything
}

func (h *defineHandler) Subpath() string { return item.Define.Subpath() }

func (h *defineHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	if !strings.HasSuffix(e.Path(), ".txt") {
		return nil
	}
	return fset.ParseFile(e, h.d.memory)
}

func (h *defineHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	block, _ := loaded.(*ast.Block)
	if block == nil {
		return
	}
	warnUnknown := e.Kind() == token.Mod
	for _, group := range block.DrainDefinitionsWarn(h.d.rep) {
		for _, entry := range group.Block.EntriesWarn(h.d.rep) {
			name := group.Key.Text + "|" + entry.Key.Text
			if warnUnknown && !tables.EngineDefine(name) {
				h.d.rep.Warn(report.MissingItem).Weak().
					Msgf("define `%s` is not read by the game engine", name).
					Loc(entry.Key).Push()
			}
			h.d.defines.add(h.d.rep, name, entry.Key, entry.BV)
		}
	}
}

func (h *defineHandler) Finalize() {}
