// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package report collects, filters, deduplicates and prints the diagnostics
// the rest of the tool generates. Reports are built through a staged builder
// (Warn(key).Msg(...).Loc(...).Push()), stored until the run completes, then
// emitted in sorted order as human-readable text or JSON.
package report

import (
	"fmt"

	"github.com/pdxlint/pdxlint/token"
)

// Severity says how bad a reported problem is, from style advice up to a
// probable crash. User-facing filtering compares severities, so the order of
// the constants is part of the contract.
type Severity int8

const (
	// Tips flags things that are not wrong but have a more idiomatic form.
	Tips Severity = iota
	// Untidy flags code smell that players will not notice.
	Untidy
	// Warning flags glitches that will show up in play, such as missing
	// translations.
	Warning
	// Error flags script that probably does not do what it was meant to.
	Error
	// Fatal flags constructs likely to crash the game.
	Fatal
)

var severityNames = [...]string{"tips", "untidy", "warning", "error", "fatal"}

func (s Severity) String() string {
	if s >= Tips && s <= Fatal {
		return severityNames[s]
	}
	return fmt.Sprintf("severity(%d)", int8(s))
}

// SeverityFromString resolves a severity by its report name.
func SeverityFromString(name string) (Severity, bool) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), true
		}
	}
	return Warning, false
}

// AtMost caps the severity at max. Fatal is never reduced: a crash is a
// crash no matter how low the caller wants to tune its reports.
func (s Severity) AtMost(max Severity) Severity {
	if s == Fatal {
		return Fatal
	}
	if s > max {
		return max
	}
	return s
}

// Confidence says how sure the tool is that a reported problem is real.
// It is mostly invisible in the output but users can filter on it to dial
// how many false positives they are willing to see.
type Confidence int8

const (
	// Weak reports are quite likely to be false positives.
	Weak Confidence = iota
	// Reasonable is the default.
	Reasonable
	// Strong reports are very unlikely to be wrong.
	Strong
)

var confidenceNames = [...]string{"weak", "reasonable", "strong"}

func (c Confidence) String() string {
	if c >= Weak && c <= Strong {
		return confidenceNames[c]
	}
	return fmt.Sprintf("confidence(%d)", int8(c))
}

// ConfidenceFromString resolves a confidence by its report name.
func ConfidenceFromString(name string) (Confidence, bool) {
	for i, n := range confidenceNames {
		if n == name {
			return Confidence(i), true
		}
	}
	return Reasonable, false
}

// ErrorLoc is anything a report pointer can aim at: a token, a bare Loc, a
// block, a file entry.
type ErrorLoc interface {
	Location() token.Loc
}

// wide is implemented by pointer targets that span more than one column.
// Tokens report their rune count so the caret line underlines the whole
// word.
type wide interface {
	Width() int
}

// Pointer aims a report at a place in a file. Length is the number of carets
// to draw, or 0 when the span is unknown. Msg, when set, is printed after
// the carets.
type Pointer struct {
	Loc    token.Loc
	Length int
	Msg    string
}

// PointerTo builds a pointer from any locatable value.
func PointerTo(eloc ErrorLoc) Pointer {
	p := Pointer{Loc: eloc.Location()}
	if w, ok := eloc.(wide); ok {
		p.Length = w.Width()
	}
	return p
}

// Report is one diagnostic: a classification, a message, and one or more
// pointers into the script that triggered it. The first pointer is the
// primary location; the rest add context ("the other one is here").
type Report struct {
	Severity   Severity
	Confidence Confidence
	Key        ErrorKey
	Msg        string
	Info       string
	Pointers   []Pointer
}

// Primary returns the report's first pointer. Reports built through the
// builder always have at least one.
func (r *Report) Primary() Pointer { return r.Pointers[0] }

// indentation returns the width of the longest line number among the
// pointers, which sets the gutter width when the report is printed.
func (r *Report) indentation() int {
	max := 0
	for _, p := range r.Pointers {
		w := len(fmt.Sprint(p.Loc.Line))
		if w > max {
			max = w
		}
	}
	return max
}
