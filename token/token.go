// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Token is a span of script text tied to its source location. Tokens are
// immutable values; two tokens are the same token iff their text matches,
// so compare with Equal or Is rather than ==, which would drag the location
// into the comparison.
type Token struct {
	Text string
	Loc  Loc
}

// NewToken constructs a token.
func NewToken(text string, loc Loc) Token {
	return Token{Text: text, Loc: loc}
}

func (t Token) String() string { return t.Text }

// Location returns the token's Loc. It satisfies the interfaces that accept
// "anything with a location", notably report pointers.
func (t Token) Location() Loc { return t.Loc }

// Width returns the token's display length in runes, which is how many
// carets a report pointer draws under it.
func (t Token) Width() int { return utf8.RuneCountInString(t.Text) }

// Is reports whether the token's text is exactly s.
func (t Token) Is(s string) bool { return t.Text == s }

// IsFold reports whether the token's text equals s under ASCII case folding.
func (t Token) IsFold(s string) bool { return strings.EqualFold(t.Text, s) }

// Equal reports text equality. Location never participates.
func (t Token) Equal(other Token) bool { return t.Text == other.Text }

// Empty reports whether the token has no text.
func (t Token) Empty() bool { return t.Text == "" }

// HasPrefix reports whether the token's text starts with prefix.
func (t Token) HasPrefix(prefix string) bool { return strings.HasPrefix(t.Text, prefix) }

// HasSuffix reports whether the token's text ends with suffix.
func (t Token) HasSuffix(suffix string) bool { return strings.HasSuffix(t.Text, suffix) }

// Lowercase returns the token with its text lowercased, same location.
func (t Token) Lowercase() Token {
	return Token{Text: strings.ToLower(t.Text), Loc: t.Loc}
}

// Subtoken returns the byte range [from, to) of the token as a new token
// whose column is advanced past the skipped prefix. Columns count runes,
// not bytes, to stay aligned with what an editor shows.
func (t Token) Subtoken(from, to int) Token {
	if from < 0 {
		from = 0
	}
	if to > len(t.Text) {
		to = len(t.Text)
	}
	if from > to {
		from = to
	}
	loc := t.Loc
	loc.Column += uint16(utf8.RuneCountInString(t.Text[:from]))
	return Token{Text: t.Text[from:to], Loc: loc}
}

// Trim returns the token with surrounding spaces and tabs removed, column
// adjusted past the leading run.
func (t Token) Trim() Token {
	start := 0
	for start < len(t.Text) && (t.Text[start] == ' ' || t.Text[start] == '\t') {
		start++
	}
	end := len(t.Text)
	for end > start && (t.Text[end-1] == ' ' || t.Text[end-1] == '\t') {
		end--
	}
	return t.Subtoken(start, end)
}

// Split divides the token at every occurrence of sep, yielding one token
// per segment with correctly advanced columns. The separators are dropped.
func (t Token) Split(sep byte) []Token {
	var parts []Token
	start := 0
	for i := 0; i < len(t.Text); i++ {
		if t.Text[i] == sep {
			parts = append(parts, t.Subtoken(start, i))
			start = i + 1
		}
	}
	parts = append(parts, t.Subtoken(start, len(t.Text)))
	return parts
}

// SplitOnce divides the token at the first occurrence of sep. The third
// return is false when sep does not occur.
func (t Token) SplitOnce(sep byte) (Token, Token, bool) {
	i := strings.IndexByte(t.Text, sep)
	if i < 0 {
		return t, Token{}, false
	}
	return t.Subtoken(0, i), t.Subtoken(i+1, len(t.Text)), true
}

// SplitLast divides the token at the last occurrence of sep.
func (t Token) SplitLast(sep byte) (Token, Token, bool) {
	i := strings.LastIndexByte(t.Text, sep)
	if i < 0 {
		return t, Token{}, false
	}
	return t.Subtoken(0, i), t.Subtoken(i+1, len(t.Text)), true
}

// Combine appends other's text to the token, keeping the receiver's
// location. Macro splicing uses this when adjacent raw segments fuse into
// one logical token.
func (t Token) Combine(other Token) Token {
	return Token{Text: t.Text + other.Text, Loc: t.Loc}
}

// CombineSep is Combine with a separator byte between the two texts.
func (t Token) CombineSep(other Token, sep byte) Token {
	return Token{Text: t.Text + string(sep) + other.Text, Loc: t.Loc}
}

// LinkedTo returns the token relocated to loc but remembering, through the
// invocation registry, where its text originally appeared.
func (t Token) LinkedTo(loc Loc) Token {
	orig := t.Loc
	t.Loc = loc
	t.Loc.Link = Links.Add(orig)
	return t
}

// Int parses the text as a decimal integer.
func (t Token) Int() (int64, bool) {
	v, err := strconv.ParseInt(t.Text, 10, 64)
	return v, err == nil
}

// Number parses the text as a decimal number. The game script never uses
// exponent notation, so anything containing one is rejected.
func (t Token) Number() (float64, bool) {
	if strings.ContainsAny(t.Text, "eExX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(t.Text, 64)
	return v, err == nil
}

// Bool interprets the script booleans yes and no.
func (t Token) Bool() (bool, bool) {
	switch t.Text {
	case "yes":
		return true, true
	case "no":
		return false, true
	}
	return false, false
}

// Date parses the text as a loose y.m.d date.
func (t Token) Date() (Date, bool) {
	d, _, ok := ParseDate(t.Text)
	return d, ok
}
