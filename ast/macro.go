// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

import (
	"sort"

	"github.com/pdxlint/pdxlint/token"
)

// MacroKind classifies the pieces a parameterized block's source splits
// into.
type MacroKind uint8

const (
	// MacroSource is literal script text between parameters.
	MacroSource MacroKind = iota
	// MacroLocalValue is an `@value` that was already substituted when the
	// file was read, kept separate so re-parsing does not depend on the
	// file-local reader state being reconstructed.
	MacroLocalValue
	// MacroParam is a `$PARAM$` placeholder. The token text excludes the
	// `$` markers.
	MacroParam
)

// MacroComponent is one piece of a parameterized block's raw source.
type MacroComponent struct {
	Kind  MacroKind
	Token token.Token
}

// MacroArg binds a parameter name to the argument token substituted for it.
type MacroArg struct {
	Param string
	Value token.Token
}

// HasMacroParms reports whether the block recorded source with `$PARAM$`
// markers in it.
func (b *Block) HasMacroParms() bool { return b.Source != nil }

// MacroParms returns the sorted, deduplicated parameter names the block
// takes.
func (b *Block) MacroParms() []string {
	var parms []string
	for _, mc := range b.Source {
		if mc.Kind == MacroParam {
			parms = append(parms, mc.Token.Text)
		}
	}
	sort.Strings(parms)
	out := parms[:0]
	for _, p := range parms {
		if len(out) == 0 || out[len(out)-1] != p {
			out = append(out, p)
		}
	}
	return out
}

// ExpandMacroTokens splices args into the block's recorded source, yielding
// the raw segments a fresh parse run assembles into the expanded block.
// Source segments come out linked to loc, the invocation site. Substituted
// arguments take the parameter's own location, shifted one column left onto
// the `$`, and link back to where the argument text was written, so reports
// inside an expansion can walk the whole chain. Returns nil when the block
// recorded no source.
func (b *Block) ExpandMacroTokens(args []MacroArg, loc token.Loc) []token.Token {
	if b.Source == nil {
		return nil
	}
	ref := token.Links.Add(loc)
	var content []token.Token
	for _, mc := range b.Source {
		switch mc.Kind {
		case MacroSource, MacroLocalValue:
			t := mc.Token
			t.Loc.Link = ref
			content = append(content, t)
		case MacroParam:
			for _, arg := range args {
				if mc.Token.Is(arg.Param) {
					val := arg.Value
					orig := val.Loc
					val.Loc = mc.Token.Loc
					if val.Loc.Column > 0 {
						val.Loc.Column--
					}
					val.Loc.Link = token.Links.Add(orig)
					content = append(content, val)
					break
				}
			}
		}
	}
	return content
}
