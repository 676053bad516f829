// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

import (
	"sort"
	"strings"
	"sync"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/token"
)

// macroKey identifies one validated expansion of a parameterized item.
// Two calls validate the same way when they come from the same call site
// with the same arguments under the same tooltip and negation state, so
// those four make up the key. The call site's macro link is stripped:
// a call site inside another expansion is still the same call site.
type macroKey struct {
	loc        token.Loc
	args       string
	tooltipped Tooltipped
	negated    bool
}

// newMacroKey encodes the argument pairs, lexically sorted, into a single
// string so the key stays comparable. Script tokens never contain NUL
// bytes, which makes it an unambiguous separator.
func newMacroKey(loc token.Loc, args []ast.MacroArg, tooltipped Tooltipped, negated bool) macroKey {
	sorted := make([]ast.MacroArg, len(args))
	copy(sorted, args)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Param != sorted[j].Param {
			return sorted[i].Param < sorted[j].Param
		}
		return sorted[i].Value.Text < sorted[j].Value.Text
	})
	var sb strings.Builder
	for _, arg := range sorted {
		sb.WriteString(arg.Param)
		sb.WriteByte(0)
		sb.WriteString(arg.Value.Text)
		sb.WriteByte(0)
	}
	return macroKey{loc: loc.StripLink(), args: sb.String(), tooltipped: tooltipped, negated: negated}
}

// MacroCache remembers which expansions of one parameterized item have
// already been validated, so each distinct call is checked at most once
// no matter how many times script repeats it. Entries are kept for the
// whole run. The zero value is ready to use. T is usually a pointer to
// the scope context captured at validation time, so a revisit can check
// compatibility instead of re-validating.
type MacroCache[T any] struct {
	mu    sync.RWMutex
	cache map[macroKey]T
}

// Perform looks up the expansion and, on a hit, calls f with the cached
// value. It returns true on a hit; a false return means the caller must
// validate for real and Insert the result.
func (c *MacroCache[T]) Perform(key token.Token, args []ast.MacroArg, tooltipped Tooltipped, negated bool, f func(T)) bool {
	k := newMacroKey(key.Loc, args, tooltipped, negated)
	c.mu.RLock()
	v, ok := c.cache[k]
	c.mu.RUnlock()
	if ok {
		f(v)
	}
	return ok
}

// Empty reports whether no expansion has been validated yet. The database
// uses it to give definitions nothing ever called one standalone pass.
func (c *MacroCache[T]) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache) == 0
}

// Insert stores the result of validating an expansion.
func (c *MacroCache[T]) Insert(key token.Token, args []ast.MacroArg, tooltipped Tooltipped, negated bool, value T) {
	k := newMacroKey(key.Loc, args, tooltipped, negated)
	c.mu.Lock()
	if c.cache == nil {
		c.cache = make(map[macroKey]T)
	}
	c.cache[k] = value
	c.mu.Unlock()
}
