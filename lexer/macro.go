// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// SplitMacros cuts a macro block's raw source text into components:
// literal source runs, `$PARAM$` parameters, and reader variables that
// resolve in the defining file's local memory. Local values are baked in
// here because the local memory is gone by the time the macro is invoked;
// references to global variables stay in the source text and resolve on
// re-parse. Splitting runs a full scan, so parameters inside comments and
// quoted strings are not mistaken for real ones.
//
// Having the components precomputed speeds up macro re-parsing later.
func SplitMacros(src token.Token, mem *CombinedMemory, rep *report.Reports) []ast.MacroComponent {
	var comps []ast.MacroComponent
	cursor := 0
	cursorLoc := src.Loc

	// Re-scanning repeats any scan reports from the first pass; the
	// report deduplicator drops them.
	scan := New(rep, src)
	for {
		lx, ok := scan.Next()
		if !ok {
			break
		}
		switch lx.Kind {
		case MacroParam:
			// The param token does not include the enclosing `$` chars,
			// but the start..end span does.
			if cursor < lx.Start {
				comps = append(comps, ast.MacroComponent{
					Kind:  ast.MacroSource,
					Token: token.NewToken(src.Text[cursor:lx.Start], cursorLoc),
				})
			}
			comps = append(comps, ast.MacroComponent{Kind: ast.MacroParam, Token: lx.Tok})
			cursor = lx.End
			cursorLoc = lx.Tok.Loc
			cursorLoc.Column += uint16(utf8.RuneCountInString(lx.Tok.Text)) + 1
		case VariableRef:
			value, found := mem.GetLocalVariable(strings.TrimPrefix(lx.Tok.Text, "@"))
			if !found {
				continue
			}
			if cursor < lx.Start {
				comps = append(comps, ast.MacroComponent{
					Kind:  ast.MacroSource,
					Token: token.NewToken(src.Text[cursor:lx.Start], cursorLoc),
				})
			}
			comps = append(comps, ast.MacroComponent{
				Kind:  ast.MacroLocalValue,
				Token: token.NewToken(value.Text, lx.Tok.Loc),
			})
			cursor = lx.End
			cursorLoc = lx.Tok.Loc
			cursorLoc.Column += uint16(utf8.RuneCountInString(lx.Tok.Text))
		}
	}
	if cursor < len(src.Text) {
		comps = append(comps, ast.MacroComponent{
			Kind:  ast.MacroSource,
			Token: token.NewToken(src.Text[cursor:], cursorLoc),
		})
	}
	return comps
}
