// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

import (
	"fmt"

	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// Field is a `key cmp value-or-block` item.
type Field struct {
	Key token.Token
	Cmp Comparator
	BV  BV
}

func (f *Field) blockItem() {}

// Location returns where the field's key is.
func (f *Field) Location() token.Loc { return f.Key.Loc }

// IsEq reports whether the field uses plain `=`.
func (f *Field) IsEq() bool { return f.Cmp.IsEq() }

// IsEqQeq reports whether the field uses `=` or `?=`.
func (f *Field) IsEqQeq() bool { return f.Cmp.IsEqQeq() }

// ExpectEq checks that the field uses plain `=` and reports otherwise.
func (f *Field) ExpectEq(rep *report.Reports) bool {
	if f.Cmp.IsEq() {
		return true
	}
	msg := fmt.Sprintf("expected `%s =`, found `%s`", f.Key, f.Cmp)
	rep.Err(report.Validation).Msg(msg).Loc(f).Push()
	return false
}

// Describe names the field's shape for "expected X, found Y" messages.
func (f *Field) Describe() string {
	if f.IsEqQeq() {
		if f.BV.IsBlock() {
			return "definition"
		}
		return "assignment"
	}
	return "comparison"
}

// Definition returns key and block for a `key = { ... }` field, accepting
// `?=` too. The third return is false for any other shape.
func (f *Field) Definition() (token.Token, *Block, bool) {
	if f.IsEqQeq() {
		if b, ok := f.BV.Block(); ok {
			return f.Key, b, true
		}
	}
	return token.Token{}, nil, false
}

// ExpectDefinition is Definition plus a Structure report on mismatch.
func (f *Field) ExpectDefinition(rep *report.Reports) (token.Token, *Block, bool) {
	if key, b, ok := f.Definition(); ok {
		return key, b, true
	}
	msg := fmt.Sprintf("expected definition, found %s", f.Describe())
	rep.Err(report.Structure).Msg(msg).Loc(f).Push()
	return token.Token{}, nil, false
}

// Assignment returns key and value for a `key = value` field, accepting
// `?=` too. The third return is false for any other shape.
func (f *Field) Assignment() (token.Token, token.Token, bool) {
	if f.IsEqQeq() {
		if v, ok := f.BV.Value(); ok {
			return f.Key, v, true
		}
	}
	return token.Token{}, token.Token{}, false
}

// ExpectAssignment is Assignment plus a Structure report on mismatch.
func (f *Field) ExpectAssignment(rep *report.Reports) (token.Token, token.Token, bool) {
	if key, v, ok := f.Assignment(); ok {
		return key, v, true
	}
	msg := fmt.Sprintf("expected assignment, found %s", f.Describe())
	rep.Err(report.Structure).Msg(msg).Loc(f).Push()
	return token.Token{}, token.Token{}, false
}

// Equivalent reports whether two fields match by key text, comparator and
// deep value equality.
func (f *Field) Equivalent(other Item) bool {
	o, ok := other.(*Field)
	return ok && f.Key.Equal(o.Key) && f.Cmp == o.Cmp && f.BV.Equivalent(o.BV)
}
