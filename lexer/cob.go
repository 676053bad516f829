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

	"github.com/pdxlint/pdxlint/token"
)

// cob accumulates a token's text while scanning. As long as the text is one
// contiguous span of a single input segment it stays a borrowed slice of
// that segment; the first char that breaks contiguity, normally because the
// token crosses a segment boundary during macro re-parsing, escalates it to
// an owned buffer. Either way the resulting token text is a stable string.
type cob struct {
	src        string
	seg        int
	start, end int
	loc        token.Loc
	owned      *strings.Builder
	init       bool
}

// set points the cob at its first char: the one at byte offset off of
// segment seg, located at loc.
func (c *cob) set(src string, seg, off int, loc token.Loc) {
	c.src = src
	c.seg = seg
	c.start, c.end = off, off
	c.loc = loc
	c.owned = nil
	c.init = true
}

// add appends the char at byte offset off of segment seg. The caller
// guarantees that r is what actually sits at that offset.
func (c *cob) add(r rune, seg, off int) {
	if !c.init {
		panic("cob used before set")
	}
	if c.owned != nil {
		c.owned.WriteRune(r)
		return
	}
	if seg == c.seg && off == c.end {
		c.end += utf8.RuneLen(r)
		return
	}
	var sb strings.Builder
	sb.WriteString(c.src[c.start:c.end])
	sb.WriteRune(r)
	c.owned = &sb
}

// take returns the accumulated text as a token and resets the cob.
func (c *cob) take() token.Token {
	if !c.init {
		panic("cob taken before set")
	}
	var t token.Token
	if c.owned != nil {
		t = token.NewToken(c.owned.String(), c.loc)
	} else {
		t = token.NewToken(c.src[c.start:c.end], c.loc)
	}
	*c = cob{}
	return t
}
