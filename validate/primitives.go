// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

import (
	"strings"

	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// ExpectInteger parses tok as an integer, reporting when it is not one.
func ExpectInteger(rep *report.Reports, tok token.Token) (int64, bool) {
	if i, ok := tok.Int(); ok {
		return i, true
	}
	rep.Err(report.Validation).Msg("expected integer").Loc(tok).Push()
	return 0, false
}

// CheckNumber warns about number literals with more decimals than the game
// engine reads.
func CheckNumber(rep *report.Reports, tok token.Token) {
	if idx := strings.IndexByte(tok.Text, '.'); idx >= 0 && len(tok.Text)-idx > 6 {
		rep.Err(report.Validation).
			Msg("only 5 decimals are supported").
			Info("if you give more decimals, you get an error and the number is read as 0").
			Loc(tok).Push()
	}
}

// ExpectNumber parses tok as a number with up to 5 decimals, reporting when
// it is not one.
func ExpectNumber(rep *report.Reports, tok token.Token) (float64, bool) {
	CheckNumber(rep, tok)
	if f, ok := tok.Number(); ok {
		return f, true
	}
	rep.Err(report.Validation).Msg("expected number").Loc(tok).Push()
	return 0, false
}

// ExpectPreciseNumber is ExpectNumber without the 5-decimal limit. Some
// files happen not to have the limitation.
func ExpectPreciseNumber(rep *report.Reports, tok token.Token) (float64, bool) {
	if f, ok := tok.Number(); ok {
		return f, true
	}
	rep.Err(report.Validation).Msg("expected number").Loc(tok).Push()
	return 0, false
}

// ExpectDate parses tok as a date, reporting when it is not one. A date
// with a trailing dot parses but is flagged as untidy.
func ExpectDate(rep *report.Reports, tok token.Token) (token.Date, bool) {
	d, trailing, ok := token.ParseDate(tok.Text)
	if !ok {
		rep.Err(report.Validation).Msg("expected date").Loc(tok).Push()
		return token.Date{}, false
	}
	if trailing {
		rep.Untidy(report.Validation).Msg("trailing dot on date").Loc(tok).Push()
	}
	return d, true
}
