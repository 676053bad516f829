// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package data

import (
	"sort"
	"strconv"
	"sync"

	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// provinceStore holds the map provinces from map_data/definition.csv.
type provinceStore struct {
	mu   sync.Mutex
	defs map[int64]*provinceDef
}

type provinceDef struct {
	id    int64
	idTok token.Token
	name  token.Token
}

func newProvinceStore() *provinceStore {
	return &provinceStore{defs: make(map[int64]*provinceDef)}
}

func (s *provinceStore) exists(key string) bool {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return false
	}
	s.mu.Lock()
	_, ok := s.defs[id]
	s.mu.Unlock()
	return ok
}

// add keeps the first definition of an id; the game ignores later rows
// with the same id, so the duplicate is dead data.
func (s *provinceStore) add(rep *report.Reports, def *provinceDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.defs[def.id]; ok {
		rep.Err(report.DuplicateItem).
			Msgf("duplicate entry for province id %d", def.id).
			Loc(def.idTok).
			LocMsg(other.idTok, "the first entry is here").Push()
		return
	}
	s.defs[def.id] = def
}

// validateAll checks that the ids run 1, 2, 3 ... with no gaps, which the
// game requires of the definition file. One report per gap run.
func (s *provinceStore) validateAll(d *Everything) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	want := int64(1)
	for _, id := range ids {
		if id != want {
			s.mu.Lock()
			def := s.defs[id]
			s.mu.Unlock()
			d.rep.Err(report.ParseError).
				Msgf("province ids must be sequential; expected %d here, found %d", want, id).
				Loc(def.idTok).Push()
		}
		want = id + 1
	}
}

// provinceDefHandler reads map_data/definition.csv: one header line, then
// `id;red;green;blue;name;x` rows.
type provinceDefHandler struct {
	d *Everything
}

func (h *provinceDefHandler) Subpath() string { return "map_data/definition.csv" }

func (h *provinceDefHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	return fset.ReadCsv(e, 1)
}

func (h *provinceDefHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	rows, _ := loaded.([]fileset.CsvRow)
	for _, row := range rows {
		h.handleRow(row)
	}
}

func (h *provinceDefHandler) Finalize() {}

func (h *provinceDefHandler) handleRow(row fileset.CsvRow) {
	if len(row) == 0 {
		return
	}
	if len(row) < 5 {
		h.d.rep.Err(report.ParseError).
			Msg("province row needs at least `id;red;green;blue;name`").
			Loc(row[0]).Push()
		return
	}
	id, ok := row[0].Int()
	if !ok {
		h.d.rep.Err(report.ParseError).
			Msgf("province id `%s` is not a number", row[0]).
			Loc(row[0]).Push()
		return
	}
	for _, channel := range row[1:4] {
		if v, ok := channel.Int(); !ok || v < 0 || v > 255 {
			h.d.rep.Err(report.Colors).
				Msgf("color channel `%s` is not in 0-255", channel).
				Loc(channel).Push()
		}
	}
	h.d.provinces.add(h.d.rep, &provinceDef{id: id, idTok: row[0], name: row[4]})
}

// adjacencyHandler reads map_data/adjacencies.csv. The game reads rows
// until a line of all -1 and crashes without one, so a missing terminator
// is an error even though every row before it parsed.
type adjacencyHandler struct {
	d *Everything
}

func (h *adjacencyHandler) Subpath() string { return "map_data/adjacencies.csv" }

func (h *adjacencyHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	return fset.ReadCsv(e, 1)
}

func (h *adjacencyHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	rows, _ := loaded.([]fileset.CsvRow)
	terminated := false
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if terminated {
			h.d.rep.Warn(report.ParseError).
				Msg("row after the -1 line; the game stops reading there").
				Loc(row[0]).Push()
			continue
		}
		if v, ok := row[0].Int(); ok && v == -1 {
			terminated = true
			continue
		}
		h.handleRow(row)
	}
	if !terminated && len(rows) > 0 {
		h.d.rep.Err(report.ParseError).
			Msg("adjacencies file needs a line with all -1").
			Loc(rows[len(rows)-1][0]).Push()
	}
}

func (h *adjacencyHandler) Finalize() {}

func (h *adjacencyHandler) handleRow(row fileset.CsvRow) {
	if len(row) < 9 {
		h.d.rep.Err(report.ParseError).
			Msg("adjacency row needs 9 fields: From;To;Type;Through;start_x;start_y;stop_x;stop_y;Comment").
			Loc(row[0]).Push()
		return
	}
	h.checkProvinceRef(row[0])
	h.checkProvinceRef(row[1])
	if !row[2].Is("sea") && !row[2].Is("river_large") {
		h.d.rep.Warn(report.Choice).
			Msgf("adjacency type `%s` should be `sea` or `river_large`", row[2]).
			Loc(row[2]).Push()
	}
	h.checkProvinceRef(row[3])
	for _, coord := range row[4:8] {
		if _, ok := coord.Int(); !ok {
			h.d.rep.Err(report.ParseError).
				Msgf("coordinate `%s` is not a number", coord).
				Loc(coord).Push()
		}
	}
}

// checkProvinceRef allows -1, which the format uses for "none".
func (h *adjacencyHandler) checkProvinceRef(tok token.Token) {
	if v, ok := tok.Int(); ok && v == -1 {
		return
	}
	h.d.provinces.verifyRef(h.d, tok)
}

func (s *provinceStore) verifyRef(d *Everything, tok token.Token) {
	if s.exists(tok.Text) {
		return
	}
	d.rep.Err(report.MissingItem).
		Msgf("province %s is not defined in map_data/definition.csv", tok).
		Loc(tok).Push()
}
