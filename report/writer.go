// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/encoding/charmap"

	"github.com/pdxlint/pdxlint/token"
)

// writeReport prints one report in the human-readable format:
//
//	warning(unknown-field): unknown field `lmit`
//	  --> [MOD] events/test_events.txt
//	  12 |     lmit = { age > 16 }
//	     |     ^^^^
//	     = Info: did you mean `limit`?
func (r *Reports) writeReport(rep *Report) error {
	w := r.cfg.Writer
	s := r.cfg.Styles
	indent := rep.indentation()

	// Title line: severity, key, message.
	if _, err := fmt.Fprintf(w, "%s%s: %s\n",
		s.Tag(rep.Severity).Sprint(rep.Severity.String()),
		s.Key(rep.Severity).Sprintf("(%s)", rep.Key),
		s.msg.Sprint(rep.Msg)); err != nil {
		return err
	}

	for i := range rep.Pointers {
		p := &rep.Pointers[i]
		if i == 0 || !p.Loc.SameFile(rep.Pointers[i-1].Loc) {
			fmt.Fprintf(w, "%*s%s %s %s\n", indent, "",
				s.locn.Sprint("-->"),
				s.locn.Sprintf("[%s]", r.kindTag(p.Loc.Kind)),
				s.locn.Sprint(p.Loc.Pathname()))
		} else {
			fmt.Fprintf(w, "%s\n", s.locn.Sprint(strings.Repeat("-", indent)))
		}
		if p.Loc.Line == 0 {
			// The pointer stands for the file as a whole.
			continue
		}
		line, ok := r.cfg.Lines.Line(p.Loc)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n",
			s.locn.Sprintf("%*d", indent, p.Loc.Line),
			s.locn.Sprint("|"),
			line)
		carets := strings.Repeat("^", p.Length)
		if p.Msg != "" {
			carets += " <-- " + p.Msg
		}
		fmt.Fprintf(w, "%*s %s %s%s\n", indent, "",
			s.locn.Sprint("|"),
			caretSpacing(line, p.Loc.Column),
			s.Tag(rep.Severity).Sprint(carets))
	}

	if rep.Info != "" {
		fmt.Fprintf(w, "%*s %s %s %s\n", indent, "",
			s.locn.Sprint("="),
			s.info.Sprint("Info:"),
			rep.Info)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// caretSpacing returns the padding that places the carets under the given
// column. Tabs pass through so they line up however the terminal renders
// them; everything else is measured by display width, so wide runes get two
// spaces.
func caretSpacing(line string, column uint16) string {
	var b strings.Builder
	count := uint16(1)
	for _, c := range line {
		if count >= column {
			break
		}
		count++
		if c == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(c)))
		}
	}
	return b.String()
}

// kindTag returns the label for a file's overlay layer in location lines.
func (r *Reports) kindTag(kind token.FileKind) string {
	switch {
	case kind == token.Mod:
		return "MOD"
	case kind == token.Vanilla:
		return r.cfg.GameTag
	case kind.IsLoadedMod():
		if n := int(kind.Ordinal()); n < len(r.cfg.LoadedModLabels) {
			return r.cfg.LoadedModLabels[n]
		}
	case kind.IsDlc():
		if n := int(kind.Ordinal()); n < len(r.cfg.DlcLabels) {
			return r.cfg.DlcLabels[n]
		}
	}
	return kind.String()
}

// LineSource serves single source lines for the caret display and for
// suppression matching.
type LineSource interface {
	// Line returns the text of the line at loc, without its line ending.
	// The second return is false when the line cannot be served.
	Line(loc token.Loc) (string, bool)
}

// FileLines is the default LineSource. It reads files on demand, decodes
// them as UTF-8 with a Windows-1252 fallback, and keeps the split lines of
// recently used files in an ARC cache.
type FileLines struct {
	cache *lru.ARCCache // token.PathIdx -> []string
}

// fileLinesCacheSize is in files, not bytes. Reports cluster by file, so a
// modest window covers almost all lookups.
const fileLinesCacheSize = 256

// NewFileLines returns an empty line cache.
func NewFileLines() *FileLines {
	cache, err := lru.NewARC(fileLinesCacheSize)
	if err != nil {
		panic(err)
	}
	return &FileLines{cache: cache}
}

// Line implements LineSource.
func (f *FileLines) Line(loc token.Loc) (string, bool) {
	if loc.Line == 0 {
		return "", false
	}
	var lines []string
	if cached, ok := f.cache.Get(loc.Path); ok {
		lines = cached.([]string)
	} else {
		raw, err := os.ReadFile(loc.Fullpath())
		if err != nil {
			return "", false
		}
		lines = splitLines(decodeLoose(raw))
		f.cache.Add(loc.Path, lines)
	}
	if int(loc.Line) > len(lines) {
		return "", false
	}
	return lines[loc.Line-1], true
}

// decodeLoose decodes file bytes as UTF-8 when they are valid UTF-8, and as
// Windows-1252 otherwise. A UTF-8 BOM is stripped.
func decodeLoose(raw []byte) string {
	raw = stripBOM(raw)
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		// Windows-1252 maps every byte, so this cannot happen; keep the
		// raw bytes if it somehow does.
		return string(raw)
	}
	return string(decoded)
}

func stripBOM(raw []byte) []byte {
	if len(raw) >= 3 && raw[0] == 0xef && raw[1] == 0xbb && raw[2] == 0xbf {
		return raw[3:]
	}
	return raw
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
