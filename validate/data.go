// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

import (
	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/token"
)

// Data is the loaded game database as the validators see it. The data
// package implements it; taking an interface here keeps the dependency
// direction data -> validate while the validators stay reusable for any
// item that wants field checking.
type Data interface {
	// Reports is the sink every validator pushes diagnostics into.
	Reports() *report.Reports

	// Exists reports whether key is defined as an item of this kind.
	Exists(kind item.Kind, key string) bool
	// VerifyExists reports a missing item when tok is not defined as this
	// kind, and marks it used when it is.
	VerifyExists(kind item.Kind, tok token.Token)
	// VerifyExistsMaxSev is VerifyExists with the report severity capped.
	VerifyExistsMaxSev(kind item.Kind, tok token.Token, maxSev report.Severity)
	// VerifyExistsImplied checks a key derived from tok rather than equal
	// to it, such as a filename built around a token. Reports point at tok.
	VerifyExistsImplied(kind item.Kind, key string, tok token.Token)
	// MarkUsed marks key as referenced, for unused-item reporting, without
	// checking that it exists.
	MarkUsed(kind item.Kind, key string)

	// ScriptedTrigger looks up a scripted trigger definition by name.
	ScriptedTrigger(name string) (Caller, bool)
	// ScriptedEffect looks up a scripted effect definition by name.
	ScriptedEffect(name string) (Caller, bool)
	// ScriptValueExists reports whether a named script value is defined.
	ScriptValueExists(name string) bool
	// ValidateScriptValueCall validates a named script value in the scope
	// context of a call site.
	ValidateScriptValueCall(tok token.Token, sc *scopes.Context)
	// ValidateLocalization checks the named localization entry and
	// validates its code chains in the caller's scope context.
	ValidateLocalization(key token.Token, sc *scopes.Context)
	// DefinedString resolves a define to its string value.
	DefinedString(tok token.Token, define string) (string, bool)
}

// Caller is a scripted trigger or effect seen from a call site. Calls are
// validated in the caller's scope context, at most once per distinct macro
// key; the macro cache behind ValidateCall and ValidateMacroExpansion
// takes care of revisits.
type Caller interface {
	// MacroParms lists the macro parameters of the definition, sorted.
	MacroParms() []string
	// ValidateCall validates an argumentless call of the definition.
	ValidateCall(key token.Token, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool)
	// ValidateMacroExpansion expands the definition with args and
	// validates the result.
	ValidateMacroExpansion(key token.Token, args []ast.MacroArg, data Data, sc *scopes.Context, tooltipped Tooltipped, negated bool)
}
