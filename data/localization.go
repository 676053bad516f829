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
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

// primaryLanguage is the language the unused-key pass reads, so a key
// translated nine times draws one report, not nine.
const primaryLanguage = "english"

// locaStore holds every localization entry, keyed by entry key and then
// language. Existence is language-independent: a key defined in any
// language resolves.
type locaStore struct {
	mu      sync.Mutex
	entries map[string]map[string]*locaEntry
	used    mapset.Set
}

type locaEntry struct {
	key   token.Token
	value token.Token
	lang  string
}

func newLocaStore() *locaStore {
	return &locaStore{
		entries: make(map[string]map[string]*locaEntry),
		used:    mapset.NewSet(),
	}
}

func (s *locaStore) exists(key string) bool {
	s.mu.Lock()
	_, ok := s.entries[key]
	s.mu.Unlock()
	return ok
}

func (s *locaStore) markUsed(key string) { s.used.Add(key) }

func (s *locaStore) add(rep *report.Reports, e *locaEntry, replaceDir bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	langs := s.entries[e.key.Text]
	if langs == nil {
		langs = make(map[string]*locaEntry)
		s.entries[e.key.Text] = langs
	}
	other, ok := langs[e.lang]
	if !ok {
		langs[e.lang] = e
		return
	}
	switch {
	case e.key.Loc.Kind > other.key.Loc.Kind:
		langs[e.lang] = e
	case e.key.Loc.Kind < other.key.Loc.Kind:
	case replaceDir && !e.key.Loc.SameFile(other.key.Loc):
		// The replace/ directory exists to override same-priority keys.
		langs[e.lang] = e
	default:
		rep.Warn(report.LocalizationDup).
			Msgf("localization key `%s` is redefined", e.key).
			Loc(e.key).
			LocMsg(other.key, "the other definition is here").Push()
	}
}

// validateUse records a reference from script. The value's own spans are
// checked in the store-wide pass, so a key used from twenty places is
// still only inspected once.
func (s *locaStore) validateUse(d *Everything, key token.Token, _ *scopes.Context) {
	s.markUsed(key.Text)
}

// validateAll runs the structural checks over every loaded value.
func (s *locaStore) validateAll(d *Everything) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	sort.Strings(keys)
	for _, k := range keys {
		s.mu.Lock()
		langs := s.entries[k]
		s.mu.Unlock()
		for _, e := range langs {
			s.validateValue(d, e)
		}
	}
}

// validateValue scans one value for its embedded spans: `$key$`
// references, `[code]` chains, `@icon!` references and `#format ... #!`
// markup.
func (s *locaStore) validateValue(d *Everything, e *locaEntry) {
	text := e.value.Text
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '$':
			end := strings.IndexByte(text[i+1:], '$')
			if end < 0 {
				d.rep.Warn(report.Markup).
					Msg("`$` reference is not closed with a second `$`").
					Loc(e.value).Push()
				return
			}
			s.checkDollarRef(d, e, text[i+1:i+1+end])
			i += end + 1
		case '[':
			end := strings.IndexByte(text[i+1:], ']')
			if end < 0 {
				d.rep.Warn(report.Datafunctions).
					Msg("`[` code span is not closed with `]`").
					Loc(e.value).Push()
				return
			}
			if strings.TrimSpace(text[i+1:i+1+end]) == "" {
				d.rep.Warn(report.Datafunctions).
					Msg("empty `[ ]` code span").
					Loc(e.value).Push()
			}
			i += end + 1
		case '@':
			end := strings.IndexByte(text[i+1:], '!')
			if end < 0 {
				d.rep.Warn(report.Markup).
					Msg("`@` icon reference is not closed with `!`").
					Loc(e.value).Push()
				return
			}
			i += end + 1
		case '#':
			if strings.HasPrefix(text[i+1:], "!") {
				depth--
				i++
				continue
			}
			depth++
		}
	}
	if depth > 0 {
		d.rep.Warn(report.Markup).
			Msg("`#` text formatting is not closed with `#!`").
			Loc(e.value).Push()
	} else if depth < 0 {
		d.rep.Warn(report.Markup).
			Msg("`#!` closes more text formatting than was opened").
			Loc(e.value).Push()
	}
}

// checkDollarRef resolves a `$name$` substitution. All-caps names are
// engine-supplied values and macro parameters, which cannot be resolved
// statically; anything else should be another localization key. A `|`
// introduces formatting and is not part of the name.
func (s *locaStore) checkDollarRef(d *Everything, e *locaEntry, name string) {
	if i := strings.IndexByte(name, '|'); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == strings.ToUpper(name) {
		return
	}
	if s.exists(name) {
		s.markUsed(name)
		return
	}
	d.rep.Warn(report.MissingLocalization).Weak().
		Msgf("`$%s$` is not defined as a localization key", name).
		Loc(e.value).Push()
}

// checkUnused reports the target mod's primary-language keys that nothing
// referenced.
func (s *locaStore) checkUnused(d *Everything) {
	s.mu.Lock()
	var unused []*locaEntry
	for key, langs := range s.entries {
		e, ok := langs[primaryLanguage]
		if !ok || e.key.Loc.Kind != token.Mod || s.used.Contains(key) {
			continue
		}
		unused = append(unused, e)
	}
	s.mu.Unlock()
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].key.Loc.Compare(unused[j].key.Loc) < 0
	})
	for _, e := range unused {
		d.rep.Tips(report.UnusedLocalization).Weak().
			Msgf("localization key `%s` is never referenced", e.key).
			Loc(e.key).Push()
	}
}

// locaHandler loads localization/. The game reads any .yml under the
// language directories whose filename carries the matching `_l_<lang>`
// marker.
type locaHandler struct {
	d *Everything
}

// locaFile is the parallel-phase parse result of one file.
type locaFile struct {
	lang    string
	entries []*locaEntry
}

func (h *locaHandler) Subpath() string { return "localization/" }

func (h *locaHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	if !strings.HasSuffix(e.Path(), ".yml") {
		return nil
	}
	lang, ok := languageFromFilename(e.Filename())
	if !ok {
		h.d.rep.Warn(report.Filename).
			Msgf("localization file names must end in `_l_<language>.yml`").
			Loc(e.Loc()).Push()
		return nil
	}
	content, ok := fset.ReadUTF8(e, true)
	if !ok {
		return nil
	}
	return h.parse(e, lang, content)
}

func (h *locaHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	f, _ := loaded.(*locaFile)
	if f == nil {
		return
	}
	h.checkDirectory(e, f.lang)
	replaceDir := strings.Contains(e.Path(), "/replace/")
	for _, entry := range f.entries {
		h.d.loca.add(h.d.rep, entry, replaceDir)
	}
}

func (h *locaHandler) Finalize() {}

// checkDirectory warns when a file sits in the directory of another
// language than the one its name declares. The game reads it anyway, into
// the name's language, which is almost never what the author meant.
func (h *locaHandler) checkDirectory(e fileset.Entry, lang string) {
	rest := strings.TrimPrefix(e.Path(), "localization/")
	dir, _, ok := strings.Cut(rest, "/")
	if !ok || dir == lang || dir == "replace" {
		return
	}
	for _, known := range tables.KnownLanguages() {
		if dir == known {
			h.d.rep.Untidy(report.Localization).
				Msgf("file is in the %s directory but named for %s", dir, lang).
				Loc(e.Loc()).Push()
			return
		}
	}
}

func languageFromFilename(name string) (string, bool) {
	base := strings.TrimSuffix(name, ".yml")
	i := strings.LastIndex(base, "_l_")
	if i < 0 {
		return "", false
	}
	lang := base[i+len("_l_"):]
	for _, known := range tables.KnownLanguages() {
		if lang == known {
			return lang, true
		}
	}
	return "", false
}

// parse reads the hand-rolled yml dialect the game uses: a `l_<lang>:`
// header, then one `key:N "value"` entry per line. It is not real YAML
// and real YAML tooling chokes on it, so the scan is by hand.
func (h *locaHandler) parse(e fileset.Entry, lang string, content string) *locaFile {
	f := &locaFile{lang: lang}
	fileLoc := e.Loc()
	sawHeader := false
	line := uint32(0)
	for len(content) > 0 {
		line++
		row, rest, _ := strings.Cut(content, "\n")
		content = rest
		row = strings.TrimSuffix(row, "\r")
		trimmed := strings.TrimSpace(row)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		loc := fileLoc
		loc.Line = line
		loc.Column = uint16(len(row)-len(strings.TrimLeft(row, " \t"))) + 1
		if !sawHeader {
			sawHeader = true
			if trimmed != "l_"+lang+":" {
				h.d.rep.Err(report.Localization).
					Msgf("expected file to start with `l_%s:`", lang).
					Loc(loc).Push()
			}
			continue
		}
		key, value, ok := splitLocaLine(trimmed)
		if !ok {
			h.d.rep.Warn(report.Localization).
				Msg("line does not parse as `key: \"text\"`").
				Loc(loc).Push()
			continue
		}
		valueLoc := loc
		valueLoc.Column += uint16(strings.IndexByte(trimmed, '"') + 1)
		f.entries = append(f.entries, &locaEntry{
			key:   token.NewToken(key, loc),
			value: token.NewToken(value, valueLoc),
			lang:  lang,
		})
	}
	return f
}

// splitLocaLine takes one trimmed entry line apart. The optional number
// after the colon is a revision marker the game ignores; the value runs
// from the first quote to the last quote on the line, because quotes
// inside values are not escaped.
func splitLocaLine(s string) (key, value string, ok bool) {
	key, rest, found := strings.Cut(s, ":")
	if !found || key == "" || strings.ContainsAny(key, " \t\"") {
		return "", "", false
	}
	rest = strings.TrimSpace(rest)
	for rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}
	rest = strings.TrimSpace(rest)
	first := strings.IndexByte(rest, '"')
	last := strings.LastIndexByte(rest, '"')
	if first < 0 || last == first {
		return "", "", false
	}
	return key, rest[first+1 : last], true
}
