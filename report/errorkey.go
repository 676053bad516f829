// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report

import "fmt"

// ErrorKey classifies a report by the kind of problem it describes. Keys are
// the unit of filtering: the mod's filter config and the suppression file
// both select reports by key name.
type ErrorKey uint8

const (
	// Config marks problems with pdxlint's own configuration. Reports with
	// this key bypass all filtering, since a broken config undermines
	// everything else.
	Config ErrorKey = iota
	// ReadError marks files that could not be read or decoded.
	ReadError
	// ParseError marks malformed script the parser had to recover from.
	ParseError
	// BracePlacement marks closing braces in positions that suggest a
	// misplaced or forgotten brace.
	BracePlacement
	// Bom marks files that are missing the required UTF-8 BOM, or carry one
	// where none is expected.
	Bom
	// Packaging marks problems with the mod's own layout or descriptor.
	Packaging
	// Validation is the general key for semantic problems in script.
	Validation
	// TooManyErrors marks the point where reporting was cut short.
	TooManyErrors
	// Filename marks file names the game will not accept.
	Filename
	// Encoding marks bytes that are not valid in the file's encoding.
	Encoding
	// Localization marks problems inside localization values.
	Localization
	// LocalizationDup marks localization keys defined twice in one file.
	LocalizationDup
	// MissingLocalization marks keys the script needs but no language defines.
	MissingLocalization
	// UnusedLocalization marks keys no script or localization value refers to.
	UnusedLocalization
	// EventNamespace marks events whose id does not match a declared namespace.
	EventNamespace
	// DuplicateItem marks items defined twice at the same overlay priority.
	DuplicateItem
	// ExactDuplicateItem marks duplicate items whose bodies are identical.
	ExactDuplicateItem
	// DuplicateField marks the same field assigned twice in one block.
	DuplicateField
	// UnknownField marks fields the item's schema does not know.
	UnknownField
	// FieldMissing marks required fields that are absent.
	FieldMissing
	// MissingItem marks references to items that are not defined anywhere.
	MissingItem
	// MissingFile marks references to files that do not exist.
	MissingFile
	// UnusedFile marks mod files nothing refers to.
	UnusedFile
	// Structure marks loose values or blocks where fields were expected.
	Structure
	// Scopes marks scope type mismatches.
	Scopes
	// StrictScopes marks saved-scope names that were never established.
	StrictScopes
	// UseOfThis marks `this` used where it has no meaning.
	UseOfThis
	// Macro marks problems in macro arguments or expansion.
	Macro
	// Range marks numeric values outside their permitted range.
	Range
	// Choice marks values outside a fixed set of alternatives.
	Choice
	// Logic marks constructs that are well-formed but cannot work.
	Logic
	// IfElse marks misuse of if/else_if/else chains.
	IfElse
	// Conflict marks definitions that contradict each other.
	Conflict
	// History marks problems in dated history entries.
	History
	// Crash marks constructs known to crash the game.
	Crash
	// Colors marks malformed color literals.
	Colors
	// ImageFormat marks image files of the wrong format.
	ImageFormat
	// Markup marks malformed formatting markup in localization.
	Markup
	// Variables marks misuse of script variables.
	Variables
	// ReaderDirectives marks malformed @-directives.
	ReaderDirectives
	// Datafunctions marks bad localization data function chains.
	Datafunctions
	// Tooltip marks problems that only show up in tooltips.
	Tooltip
	// Removed marks fields or items that no longer exist in this game version.
	Removed
	// Unneeded marks constructs that are valid but have no effect.
	Unneeded
	// NameConflict marks one name defined as two different kinds of item.
	NameConflict
	// WrongGame marks script that belongs to a different game.
	WrongGame
)

var keyNames = [...]string{
	Config:              "config",
	ReadError:           "read-error",
	ParseError:          "parse-error",
	BracePlacement:      "brace-placement",
	Bom:                 "bom",
	Packaging:           "packaging",
	Validation:          "validation",
	TooManyErrors:       "too-many-errors",
	Filename:            "filename",
	Encoding:            "encoding",
	Localization:        "localization",
	LocalizationDup:     "localization-dup",
	MissingLocalization: "missing-localization",
	UnusedLocalization:  "unused-localization",
	EventNamespace:      "event-namespace",
	DuplicateItem:       "duplicate-item",
	ExactDuplicateItem:  "exact-duplicate-item",
	DuplicateField:      "duplicate-field",
	UnknownField:        "unknown-field",
	FieldMissing:        "field-missing",
	MissingItem:         "missing-item",
	MissingFile:         "missing-file",
	UnusedFile:          "unused-file",
	Structure:           "structure",
	Scopes:              "scopes",
	StrictScopes:        "strict-scopes",
	UseOfThis:           "use-of-this",
	Macro:               "macro",
	Range:               "range",
	Choice:              "choice",
	Logic:               "logic",
	IfElse:              "if-else",
	Conflict:            "conflict",
	History:             "history",
	Crash:               "crash",
	Colors:              "colors",
	ImageFormat:         "image-format",
	Markup:              "markup",
	Variables:           "variables",
	ReaderDirectives:    "reader-directives",
	Datafunctions:       "datafunctions",
	Tooltip:             "tooltip",
	Removed:             "removed",
	Unneeded:            "unneeded",
	NameConflict:        "name-conflict",
	WrongGame:           "wrong-game",
}

var keysByName = make(map[string]ErrorKey, len(keyNames))

func init() {
	for i, name := range keyNames {
		keysByName[name] = ErrorKey(i)
	}
}

func (k ErrorKey) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("errorkey(%d)", uint8(k))
}

// KeyFromString resolves an error key by its report name. Filter configs and
// suppression files identify keys this way.
func KeyFromString(s string) (ErrorKey, bool) {
	k, ok := keysByName[s]
	return k, ok
}
