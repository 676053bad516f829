// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

import (
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// BV is a field's right-hand side: a single value token or a nested block.
// Exactly one of the accessors succeeds. Construct with ValueBV or BlockBV.
type BV struct {
	value token.Token
	block *Block
}

// ValueBV wraps a token as a field value.
func ValueBV(t token.Token) BV { return BV{value: t} }

// BlockBV wraps a block as a field value.
func BlockBV(b *Block) BV { return BV{block: b} }

// IsValue reports whether the BV holds a single token.
func (bv BV) IsValue() bool { return bv.block == nil }

// IsBlock reports whether the BV holds a block.
func (bv BV) IsBlock() bool { return bv.block != nil }

// Value returns the held token. The second return is false for a block BV.
func (bv BV) Value() (token.Token, bool) {
	if bv.block != nil {
		return token.Token{}, false
	}
	return bv.value, true
}

// Block returns the held block. The second return is false for a value BV.
func (bv BV) Block() (*Block, bool) {
	if bv.block == nil {
		return nil, false
	}
	return bv.block, true
}

// ExpectValue is Value plus a Structure report when the BV is a block.
func (bv BV) ExpectValue(rep *report.Reports) (token.Token, bool) {
	if bv.block != nil {
		rep.Err(report.Structure).Msg("expected value, found block").Loc(bv).Push()
		return token.Token{}, false
	}
	return bv.value, true
}

// ExpectBlock is Block plus a Structure report when the BV is a value.
func (bv BV) ExpectBlock(rep *report.Reports) (*Block, bool) {
	if bv.block == nil {
		rep.Err(report.Structure).Msg("expected block, found value").Loc(bv).Push()
		return nil, false
	}
	return bv.block, true
}

// Location returns where the value or block starts.
func (bv BV) Location() token.Loc {
	if bv.block != nil {
		return bv.block.Loc
	}
	return bv.value.Loc
}

// Equivalent reports deep equality by text, ignoring locations.
func (bv BV) Equivalent(other BV) bool {
	if bv.block != nil {
		return other.block != nil && bv.block.Equivalent(other.block)
	}
	return other.block == nil && bv.value.Equal(other.value)
}
