// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

import (
	"strings"

	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

// ValidateTarget checks a scope chain like root.liege.primary_title and
// verifies that the object it lands on can be one of outscopes. A chain
// that is nothing but `this` draws a warning, because bare this is almost
// always a mistake in a value position.
func ValidateTarget(tok token.Token, data Data, sc *scopes.Context, outscopes scopes.Scopes) scopes.Scopes {
	return validateTarget(tok, data, sc, outscopes, false)
}

// ValidateTargetOkThis is ValidateTarget for positions where a bare `this`
// is meaningful.
func ValidateTargetOkThis(tok token.Token, data Data, sc *scopes.Context, outscopes scopes.Scopes) scopes.Scopes {
	return validateTarget(tok, data, sc, outscopes, true)
}

func validateTarget(tok token.Token, data Data, sc *scopes.Context, outscopes scopes.Scopes, okThis bool) scopes.Scopes {
	rep := data.Reports()
	if _, ok := tok.Number(); ok {
		if !outscopes.Intersects(scopes.Value) {
			rep.Err(report.Scopes).
				Msgf("expected %s, found a number", outscopes).Loc(tok).Push()
		}
		return scopes.Value
	}
	if tok.IsFold("yes") || tok.IsFold("no") {
		if !outscopes.Intersects(scopes.Bool) {
			rep.Err(report.Scopes).
				Msgf("expected %s, found a boolean", outscopes).Loc(tok).Push()
		}
		return scopes.Bool
	}

	sc.OpenBuilder()
	defer sc.Close()
	parts := tok.Split('.')
	for i, part := range parts {
		first, last := i == 0, i+1 == len(parts)
		if walkChainPart(part, first, last, data, sc, outscopes) {
			break
		}
	}
	if len(parts) == 1 && parts[0].IsFold("this") && !okThis {
		rep.Warn(report.UseOfThis).
			Msg("`this` here refers to the current scope, which is usually not what you want").
			Loc(tok).Push()
	}
	final := sc.Scopes()
	if !final.Intersects(outscopes) {
		got, reason := sc.ScopesReason()
		rep.Warn(report.Scopes).
			Msgf("`%s` produces %s but %s is needed", tok, got, outscopes).
			Loc(tok).LocMsg(reason.Token(), "scope was "+reason.Msg()).Push()
	}
	sc.Expect(outscopes, scopes.TokenReason(tok))
	return final
}

// walkChainPart advances the builder scope by one chain component. A true
// return means the chain cannot be followed further and the caller should
// stop, leaving the scope wherever the last good component put it.
func walkChainPart(part token.Token, first, last bool, data Data, sc *scopes.Context, outscopes scopes.Scopes) bool {
	rep := data.Reports()
	lw := strings.ToLower(part.Text)
	switch lw {
	case "root":
		sc.ReplaceRoot()
		return false
	case "this":
		if !first {
			rep.Warn(report.Scopes).
				Msg("`this` in the middle of a chain resets it to the current scope").
				Loc(part).Push()
		}
		sc.ReplaceThis()
		return false
	case "prev":
		sc.ReplacePrev()
		return false
	}

	if pre, arg, ok := part.SplitOnce(':'); ok {
		return walkPrefixPart(part, pre, arg, data, sc)
	}

	if from, out, ok := tables.ScopeToScope(lw); ok {
		sc.Expect(from, scopes.TokenReason(part))
		sc.Replace(out, part)
		return false
	}
	if removed, ok := tables.ScopeToScopeRemoved(lw); ok {
		b := rep.Err(report.Removed).
			Msgf("`%s` was removed in game version %s", part, removed.Version)
		if removed.Advice != "" {
			b.Info(removed.Advice)
		}
		b.Loc(part).Push()
		return true
	}
	// A numeric comparison trigger may stand at the end of a chain, where
	// it reads as a value: root.liege.gold.
	if last {
		if from, ok := tables.TriggerCompareValue(lw); ok {
			sc.Expect(from, scopes.TokenReason(part))
			sc.Replace(scopes.Value, part)
			return false
		}
	}
	b := rep.Err(report.Scopes).
		Msgf("unknown token `%s` in a scope chain", part)
	if prefix, ok := tables.NeedsPrefix(part.Text, data, outscopes); ok && last {
		b.Info("did you mean `" + prefix + ":" + part.Text + "`?")
	}
	b.Loc(part).Push()
	return true
}

func walkPrefixPart(part, pre, arg token.Token, data Data, sc *scopes.Context) bool {
	rep := data.Reports()
	lw := strings.ToLower(pre.Text)
	rule, ok := tables.ScopePrefix(lw)
	if !ok {
		rep.Err(report.Scopes).
			Msgf("unknown prefix `%s:`", pre).Loc(part).Push()
		return true
	}
	if arg.Empty() {
		rep.Err(report.Scopes).
			Msgf("`%s:` needs a key after the colon", pre).Loc(part).Push()
		return true
	}
	sc.Expect(rule.From, scopes.TokenReason(part))
	switch lw {
	case "scope":
		sc.ReplaceNamedScope(arg.Text, part)
	case "event_target":
		// Old savegame spelling of scope:. Tolerated with advice.
		rep.Tips(report.Scopes).
			Msgf("`event_target:` is the old spelling of `scope:`").Loc(part).Push()
		sc.ReplaceNamedScope(arg.Text, part)
	default:
		if rule.HasItem {
			data.VerifyExists(rule.Item, arg)
		}
		sc.Replace(rule.Out, part)
	}
	return false
}
