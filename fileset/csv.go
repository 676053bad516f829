// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package fileset

import (
	"strings"

	"github.com/pdxlint/pdxlint/token"
)

// CsvRow is one data row: its cells as tokens, each with the cell's own
// location so diagnostics can point at a single value.
type CsvRow []token.Token

// ReadCsv parses one of the map csv files: `;`-separated cells, `#`
// comment lines, headerLines leading rows skipped. The files are
// Windows-1252. Empty lines are kept out; a row keeps its trailing empty
// cells so field-count checks see what the game sees.
func (f *Fileset) ReadCsv(e Entry, headerLines int) []CsvRow {
	content, ok := f.ReadWindows1252(e)
	if !ok {
		return nil
	}
	var rows []CsvRow
	line := uint32(0)
	for len(content) > 0 {
		line++
		text := content
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			text, content = content[:i], content[i+1:]
		} else {
			content = ""
		}
		text = strings.TrimSuffix(text, "\r")
		if line <= uint32(headerLines) {
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		rows = append(rows, f.splitCsvLine(e, text, line))
	}
	return rows
}

func (f *Fileset) splitCsvLine(e Entry, text string, line uint32) CsvRow {
	var row CsvRow
	col := uint16(1)
	for {
		cell := text
		next := ""
		if i := strings.IndexByte(text, ';'); i >= 0 {
			cell, next = text[:i], text[i+1:]
		}
		loc := token.FileLoc(e.idx, e.kind)
		loc.Line = line
		loc.Column = col
		row = append(row, token.NewToken(cell, loc))
		if len(cell) == len(text) {
			break
		}
		col += uint16(len(cell)) + 1
		text = next
	}
	return row
}
