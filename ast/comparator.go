// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

// Comparator is the operator between a field's key and its value. `=` is by
// far the most common and doubles as the assignment operator and the scope
// opener; `?=` only executes its clause when the left side exists.
type Comparator uint8

const (
	// Eq is `=`, valid as comparison, assignment and scope opener.
	Eq Comparator = iota
	// DoubleEq is `==`, only valid as an equality comparison.
	DoubleEq
	// QuestionEq is `?=`, a conditional equality comparison and
	// conditional scope opener.
	QuestionEq
	// NotEq is `!=`.
	NotEq
	// Less is `<`.
	Less
	// Greater is `>`.
	Greater
	// AtMost is `<=`.
	AtMost
	// AtLeast is `>=`.
	AtLeast
)

var comparatorNames = [...]string{"=", "==", "?=", "!=", "<", ">", "<=", ">="}

func (c Comparator) String() string {
	if int(c) < len(comparatorNames) {
		return comparatorNames[c]
	}
	return "=?"
}

// ParseComparator resolves an operator's source text. The second return is
// false for text that is not a comparator.
func ParseComparator(s string) (Comparator, bool) {
	for i, n := range comparatorNames {
		if s == n {
			return Comparator(i), true
		}
	}
	return Eq, false
}

// IsEq reports whether the comparator is plain `=`.
func (c Comparator) IsEq() bool { return c == Eq }

// IsEqQeq reports whether the comparator is `=` or `?=`, the two forms that
// can open a block.
func (c Comparator) IsEqQeq() bool { return c == Eq || c == QuestionEq }
