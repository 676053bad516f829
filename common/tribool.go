// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package common

// TriBool is a boolean that can also be undetermined.
type TriBool uint8

const (
	// Maybe means the answer could go either way.
	Maybe TriBool = iota
	// True is a definite yes.
	True
	// False is a definite no.
	False
)

// BannedNames are control-flow keywords that scripted items must not be
// named after. An item with one of these names usually means a misplaced
// brace, and validating it as an item would drown the real problem in
// follow-up errors.
var BannedNames = map[string]bool{
	"if":              true,
	"else":            true,
	"else_if":         true,
	"trigger_if":      true,
	"trigger_else":    true,
	"trigger_else_if": true,
	"while":           true,
	"limit":           true,
	"filter":          true,
	"switch":          true,
	"take_hostage":    true,
}

// IsBannedName reports whether scripted items may not use this name.
func IsBannedName(name string) bool { return BannedNames[name] }
