// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package scopes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdxlint/pdxlint/common"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// When reporting an unknown scope, alternatives are listed only if there
// are no more than this many.
const maxScopeNameList = 6

// DeduceName guesses a scope type from a well-known saved-scope name, such
// as mother or faith. The tables package installs the game's table at
// startup; without it nothing is deduced. It should be limited to names so
// obvious that nobody would use them for a different type.
var DeduceName func(name string) (Scopes, bool)

type entryKind uint8

const (
	// entryBackref stands for a scope reached with this or prev. The
	// back count is 0 for this, 1 for prev.
	entryBackref entryKind = iota
	// entryRootref stands for a scope reached with root.
	entryRootref
	// entryScope is a concrete set of possible types.
	entryScope
	// entryNamed takes its value from a named scope, by index.
	entryNamed
)

// entry describes what we know of a scope's type and its connection to
// other scopes. Knowledge propagates through the connection: if this is a
// rootref and this turns out to be a character, root is a character too.
type entry struct {
	kind   entryKind
	back   int
	scopes Scopes
	reason Reason
	idx    int
}

type reasonKind uint8

const (
	reasonToken reasonKind = iota
	reasonName
	reasonBuiltin
)

// Reason records why we think a scope has the type it does. Reports about
// a mismatch point at it.
type Reason struct {
	kind reasonKind
	tok  token.Token
}

// TokenReason marks a type deduced from the use of tok.
func TokenReason(tok token.Token) Reason { return Reason{reasonToken, tok} }

// NameReason marks a type deduced from a saved scope's own name.
func NameReason(tok token.Token) Reason { return Reason{reasonName, tok} }

// BuiltinReason marks a type the game engine guarantees; tok is the key
// that carries the guarantee, such as an item or field key.
func BuiltinReason(tok token.Token) Reason { return Reason{reasonBuiltin, tok} }

// Token returns the token the reason points at.
func (r Reason) Token() token.Token { return r.tok }

// Msg describes the reason in a report.
func (r Reason) Msg() string {
	switch r.kind {
	case reasonName:
		return "deduced from the scope's name"
	case reasonBuiltin:
		return "supplied by the game engine"
	default:
		return fmt.Sprintf("deduced from `%s` here", r.tok)
	}
}

func deduce(tok token.Token) entry {
	if name, ok := strings.CutPrefix(tok.Text, "scope:"); ok && DeduceName != nil {
		if s, ok := DeduceName(name); ok {
			return entry{kind: entryScope, scopes: s, reason: NameReason(tok)}
		}
	}
	return entry{kind: entryScope, scopes: All, reason: TokenReason(tok)}
}

// history is one previous scope level. Closing a level pops the most
// recent node back as the current scope.
type history struct {
	prev *history
	this entry
}

// Context represents what we know about the scopes leading to the block
// currently being validated.
type Context struct {
	rep *report.Reports

	// prev chains all known previous scope levels.
	prev *history
	// this is usually a rootref at the start.
	this entry
	// root is always an entryScope.
	root entry

	// names and listNames map to indices in named. They occupy separate
	// namespaces but share the entry table. Entries are only appended;
	// indices stay valid for the lifetime of the context, except that a
	// guard Restore drops entries made after its Push.
	names     map[string]int
	listNames map[string]int
	named     []entry
	// isInput marks, per named entry, the token whose use implies the
	// caller must supply that scope. Same length as named.
	isInput []*token.Token

	// isBuilder marks a scope level still being built up while walking
	// a chain like root.liege.primary_title.
	isBuilder bool
	// isUnrooted contexts carry an extra prev level for the unknown
	// callers.
	isUnrooted bool
	// strict contexts know all their named scopes in advance and report
	// names they have never heard of.
	strict bool
	// noWarn silences every report from this context. The scope_override
	// config uses it for contexts known to be wrong.
	noWarn bool

	guard *Saved
}

// New starts a context where this and root are the same object, of the
// given types. tok is used when reporting about the use of root.
func New(root Scopes, tok token.Token, rep *report.Reports) *Context {
	return &Context{
		rep:       rep,
		this:      entry{kind: entryRootref},
		root:      entry{kind: entryScope, scopes: root, reason: BuiltinReason(tok)},
		names:     make(map[string]int),
		listNames: make(map[string]int),
		strict:    true,
	}
}

// NewUnrooted starts a context where the relationship between this and
// root is not known. Scripted effects, scripted triggers and script values
// get these, since their callers could be anything. An extra prev level
// stands in for those callers.
func NewUnrooted(this Scopes, tok token.Token, rep *report.Reports) *Context {
	return &Context{
		rep:        rep,
		prev:       &history{this: entry{kind: entryScope, scopes: All, reason: TokenReason(tok)}},
		this:       entry{kind: entryScope, scopes: this, reason: TokenReason(tok)},
		root:       entry{kind: entryScope, scopes: All, reason: TokenReason(tok)},
		names:      make(map[string]int),
		listNames:  make(map[string]int),
		isUnrooted: true,
		strict:     true,
	}
}

// SetStrictScopes declares whether all named scopes are known in advance.
// The default is true. Events clear it, because they start with whatever
// scopes their triggering context saved.
func (c *Context) SetStrictScopes(strict bool) { c.strict = strict }

// IsStrict reports whether unknown scope names draw a report.
func (c *Context) IsStrict() bool { return c.strict }

// SetNoWarn silences every report from this context.
func (c *Context) SetNoWarn(noWarn bool) { c.noWarn = noWarn }

// ChangeRoot replaces the type of root. It is for adjusting a context
// during setup, before validation uses it.
func (c *Context) ChangeRoot(root Scopes, tok token.Token) {
	c.root = entry{kind: entryScope, scopes: root, reason: BuiltinReason(tok)}
}

// Clone returns an independent copy of the context. Validating one field
// against an adjusted copy leaves the caller's context untouched. The
// copy starts without a guard; its history is duplicated because
// expectation checks narrow history nodes in place.
func (c *Context) Clone() *Context {
	out := &Context{
		rep:        c.rep,
		this:       c.this,
		root:       c.root,
		names:      make(map[string]int, len(c.names)),
		listNames:  make(map[string]int, len(c.listNames)),
		named:      append([]entry(nil), c.named...),
		isInput:    append([]*token.Token(nil), c.isInput...),
		isBuilder:  c.isBuilder,
		isUnrooted: c.isUnrooted,
		strict:     c.strict,
		noWarn:     c.noWarn,
	}
	for k, v := range c.names {
		out.names[k] = v
	}
	for k, v := range c.listNames {
		out.listNames[k] = v
	}
	var tail *history
	for p := c.prev; p != nil; p = p.prev {
		node := &history{this: p.this}
		if tail == nil {
			out.prev = node
		} else {
			tail.prev = node
		}
		tail = node
	}
	return out
}

// setNamed rebinds a named entry, recording the old binding with the
// active guard so Restore can put it back.
func (c *Context) setNamed(idx int, e entry) {
	c.logRebind(idx)
	c.named[idx] = e
}

func (c *Context) setInput(idx int, tok *token.Token) {
	c.logRebind(idx)
	c.isInput[idx] = tok
}

func (c *Context) logRebind(idx int) {
	if g := c.guard; g != nil && idx < g.namedLen && !g.logged[idx] {
		g.logged[idx] = true
		g.rebinds = append(g.rebinds, rebind{idx, c.named[idx], c.isInput[idx]})
	}
}

func (c *Context) appendNamed(e entry, input *token.Token) int {
	idx := len(c.named)
	c.named = append(c.named, e)
	c.isInput = append(c.isInput, input)
	return idx
}

func (c *Context) addName(name string, idx int, isList bool) {
	if isList {
		c.listNames[name] = idx
	} else {
		c.names[name] = idx
	}
	if g := c.guard; g != nil {
		if isList {
			g.addedLists = append(g.addedLists, name)
		} else {
			g.addedNames = append(g.addedNames, name)
		}
	}
}

func (c *Context) defineEntry(name string, e entry, isList bool) {
	names := c.names
	if isList {
		names = c.listNames
	}
	if idx, ok := names[name]; ok {
		c.breakChainsTo(idx)
		c.setNamed(idx, e)
	} else {
		idx := c.appendNamed(e, nil)
		c.addName(name, idx, isList)
	}
}

// DefineName declares a named scope supplied by the game engine. tok is
// used in reports about the scope.
func (c *Context) DefineName(name string, scopes Scopes, tok token.Token) {
	c.defineEntry(name, entry{kind: entryScope, scopes: scopes, reason: BuiltinReason(tok)}, false)
}

// DefineNameToken declares a named scope deduced from script rather than
// supplied by the engine. tok should reflect why we think the scope has
// this type.
func (c *Context) DefineNameToken(name string, scopes Scopes, tok token.Token) {
	c.defineEntry(name, entry{kind: entryScope, scopes: scopes, reason: TokenReason(tok)}, false)
}

// DefineList declares a list supplied by the game engine. Lists share the
// entry table with named scopes, so a list is taken to hold values of a
// single scope type, which can produce false positives for mixed lists.
func (c *Context) DefineList(name string, scopes Scopes, tok token.Token) {
	c.defineEntry(name, entry{kind: entryScope, scopes: scopes, reason: BuiltinReason(tok)}, true)
}

// NameDefined looks up a named scope and returns its possible types.
// Callers deciding whether to report should usually check IsStrict too.
func (c *Context) NameDefined(name string) (Scopes, bool) {
	idx, ok := c.names[name]
	if !ok {
		return 0, false
	}
	s, _ := c.resolveNamed(idx)
	return s, true
}

// ExistsScope records that script checked `exists = scope:name`. From then
// on the name counts as known, with a type deduced from the name when
// possible. Whether the scope exists only conditionally is not tracked.
func (c *Context) ExistsScope(name string, tok token.Token) {
	if _, ok := c.names[name]; !ok {
		idx := c.appendNamed(deduce(tok), nil)
		c.addName(name, idx, false)
	}
}

// SaveCurrentScope makes scope:name refer to the current this.
func (c *Context) SaveCurrentScope(name string) {
	if idx, ok := c.names[name]; ok {
		c.breakChainsTo(idx)
		e := c.resolveBackrefs()
		// scope:foo = { save_scope_as = foo } must not make a cycle.
		if e.kind == entryNamed && e.idx == idx {
			return
		}
		c.setNamed(idx, e)
	} else {
		idx := c.appendNamed(c.resolveBackrefs(), nil)
		c.addName(name, idx, false)
	}
}

// DefineOrExpectList narrows list name down to this if the list exists,
// and otherwise defines it with the type of this. Iterators that build
// lists use it.
func (c *Context) DefineOrExpectList(name token.Token) {
	if idx, ok := c.listNames[name.Text]; ok {
		s, reason := c.resolveNamed(idx)
		c.Expect(s, reason)
		// is_in_list often precedes add_to_list. The add should win:
		// the list is being built here and is not an input.
		c.setInput(idx, nil)
	} else {
		idx := c.appendNamed(c.resolveBackrefs(), nil)
		c.addName(name.Text, idx, true)
	}
}

// ExpectList requires list name to be known and narrows this down to the
// list's type. Under strict scopes an unknown list draws a report.
func (c *Context) ExpectList(name token.Token) {
	if idx, ok := c.listNames[name.Text]; ok {
		s, reason := c.resolveNamed(idx)
		c.expectAt(s, reason, name, "scope")
	} else if c.strict && !c.noWarn {
		c.rep.Err(report.StrictScopes).Weak().Msg("unknown list").Loc(name).Push()
	}
}

// breakChainsTo cuts idx out of named-entry chains, so that rebinding it
// cannot create a cycle.
func (c *Context) breakChainsTo(idx int) {
	for i := range c.named {
		if i != idx && c.named[i].kind == entryNamed && c.named[i].idx == idx {
			c.setNamed(i, c.named[idx])
		}
	}
}

// OpenScope enters a new scope level of the given types; prev then refers
// to the level outside. Iterators use this for their items.
func (c *Context) OpenScope(scopes Scopes, tok token.Token) {
	c.prev = &history{prev: c.prev, this: c.this}
	c.this = entry{kind: entryScope, scopes: scopes, reason: TokenReason(tok)}
}

// OpenBuilder enters a temporary scope level for evaluating a chain like
// root.liege.primary_title. Its this starts equal to the level below; the
// Replace methods move it along the chain, and FinalizeBuilder or Close
// settles it.
func (c *Context) OpenBuilder() {
	c.prev = &history{prev: c.prev, this: c.this}
	c.this = entry{kind: entryBackref}
	c.isBuilder = true
}

// FinalizeBuilder declares the temporary level a real scope level.
func (c *Context) FinalizeBuilder() { c.isBuilder = false }

// Close leaves a scope level. Opens and closes must pair up; Close panics
// when no level is open.
func (c *Context) Close() {
	if c.prev == nil {
		panic("scopes: close without open scope")
	}
	c.this = c.prev.this
	c.prev = c.prev.prev
	c.isBuilder = false
}

// Replace sets the this of a temporary level to a concrete type, as when
// a chain starts with something absolute like faith:catholic.
func (c *Context) Replace(scopes Scopes, tok token.Token) {
	c.this = entry{kind: entryScope, scopes: scopes, reason: TokenReason(tok)}
}

// ReplaceRoot makes the this of a temporary level refer to root.
func (c *Context) ReplaceRoot() { c.this = entry{kind: entryRootref} }

// ReplacePrev makes the this of a temporary level refer to the level
// below the one being built.
func (c *Context) ReplacePrev() { c.this = entry{kind: entryBackref, back: 1} }

// ReplaceThis resets a temporary level to the way it started. A chain
// starting with this makes it a no-op; this in mid-chain resets.
func (c *Context) ReplaceThis() { c.this = entry{kind: entryBackref} }

// ReplaceNamedScope makes the this of a temporary level take its value
// from scope:name. tok should be the scope:name token.
func (c *Context) ReplaceNamedScope(name string, tok token.Token) {
	c.this = entry{kind: entryNamed, idx: c.namedIndex(name, tok), reason: TokenReason(tok)}
}

// ReplaceListEntry makes the this of a temporary level take its value
// from the entries of the named list, as list iterators do.
func (c *Context) ReplaceListEntry(name string, tok token.Token) {
	c.this = entry{kind: entryNamed, idx: c.namedListIndex(name, tok), reason: TokenReason(tok)}
}

// namedIndex returns the index of named scope name, creating it if it was
// never heard of. Creating a name under strict scopes draws a report.
func (c *Context) namedIndex(name string, tok token.Token) int {
	if idx, ok := c.names[name]; ok {
		return idx
	}
	var input *token.Token
	if c.strict {
		if !c.noWarn {
			b := c.rep.Err(report.StrictScopes).Weak().
				Msgf("scope:%s might not be available here", name)
			if n := len(c.names); n > 0 && n <= maxScopeNameList {
				known := make([]string, 0, n)
				for k := range c.names {
					known = append(known, k)
				}
				sort.Strings(known)
				b.Info("available names are " + common.StringifyChoices(known))
			}
			b.Loc(tok).Push()
		}
		// Already reported, so do not count it as an input scope.
	} else {
		t := tok
		input = &t
	}
	idx := c.appendNamed(deduce(tok), input)
	c.addName(name, idx, false)
	return idx
}

// namedListIndex is namedIndex for lists. An unknown list is created
// silently and counts as an input.
func (c *Context) namedListIndex(name string, tok token.Token) int {
	if idx, ok := c.listNames[name]; ok {
		return idx
	}
	t := tok
	idx := c.appendNamed(entry{kind: entryScope, scopes: All, reason: TokenReason(tok)}, &t)
	c.addName(name, idx, true)
	return idx
}

// CanBe reports whether this could be one of the given types.
func (c *Context) CanBe(scopes Scopes) bool { return c.Scopes().Intersects(scopes) }

// MustBe reports whether this is known to be one of the given types.
func (c *Context) MustBe(scopes Scopes) bool { return scopes.Contains(c.Scopes()) }

// Scopes returns the possible types of the current scope level.
func (c *Context) Scopes() Scopes {
	s, _ := c.ScopesReason()
	return s
}

// ScopesReason returns the possible types of the current scope level and
// the reason we think so.
func (c *Context) ScopesReason() (Scopes, Reason) {
	switch c.this.kind {
	case entryScope:
		return c.this.scopes, c.this.reason
	case entryBackref:
		return c.scopesReasonBack(c.this.back)
	case entryRootref:
		return c.resolveRoot()
	default:
		return c.resolveNamed(c.this.idx)
	}
}

func (c *Context) resolveRoot() (Scopes, Reason) {
	return c.root.scopes, c.root.reason
}

func (c *Context) resolveNamed(idx int) (Scopes, Reason) {
	for {
		e := c.named[idx]
		switch e.kind {
		case entryScope:
			return e.scopes, e.reason
		case entryRootref:
			return c.resolveRoot()
		case entryNamed:
			idx = e.idx
		default:
			panic("scopes: backref in named entry")
		}
	}
}

func (c *Context) scopesReasonBack(back int) (Scopes, Reason) {
	for p := c.prev; p != nil; p = p.prev {
		if back == 0 {
			switch p.this.kind {
			case entryScope:
				return p.this.scopes, p.this.reason
			case entryBackref:
				back = p.this.back + 1
			case entryRootref:
				return c.resolveRoot()
			default:
				return c.resolveNamed(p.this.idx)
			}
		}
		back--
	}
	// The chain goes further back than the context knows about.
	return All, c.root.reason
}

// resolveBackrefs finds the entry this actually refers to, never a
// backref.
func (c *Context) resolveBackrefs() entry {
	if c.this.kind != entryBackref {
		return c.this
	}
	back := c.this.back
	for p := c.prev; p != nil; p = p.prev {
		if back == 0 {
			if p.this.kind == entryBackref {
				back = p.this.back + 1
			} else {
				return p.this
			}
		}
		back--
	}
	// Past the top of the chain; fall back on root.
	return c.root
}

func (c *Context) expectCheck(e *entry, scopes Scopes, reason Reason) {
	if !e.scopes.Intersects(scopes) {
		if !c.noWarn {
			tok := reason.Token()
			c.rep.Warn(report.Scopes).
				Msgf("`%s` is for %s but scope seems to be %s", tok, scopes, e.scopes).
				Loc(tok).LocMsg(e.reason.Token(), "scope was "+e.reason.Msg()).Push()
		}
		return
	}
	// Narrowed; remember why.
	if e.scopes&scopes != e.scopes {
		e.scopes &= scopes
		e.reason = reason
	}
}

func (c *Context) expectCheckAt(e *entry, scopes Scopes, reason Reason, key token.Token, what string) {
	if !e.scopes.Intersects(scopes) {
		if !c.noWarn {
			c.rep.Warn(report.Scopes).
				Msgf("`%s` expects %s to be %s but %s seems to be %s", key, what, scopes, what, e.scopes).
				Loc(key).
				LocMsg(reason.Token(), "expected "+what+" was "+reason.Msg()).
				LocMsg(e.reason.Token(), "actual "+what+" was "+e.reason.Msg()).Push()
		}
		return
	}
	if e.scopes&scopes != e.scopes {
		e.scopes &= scopes
		e.reason = reason
	}
}

func (c *Context) expectNamed(idx int, scopes Scopes, reason Reason) {
	for {
		switch c.named[idx].kind {
		case entryScope:
			c.expectCheck(&c.named[idx], scopes, reason)
			return
		case entryRootref:
			c.expectCheck(&c.root, scopes, reason)
			return
		case entryNamed:
			idx = c.named[idx].idx
		default:
			panic("scopes: backref in named entry")
		}
	}
}

func (c *Context) expectNamedAt(idx int, scopes Scopes, reason Reason, key token.Token, what string) {
	for {
		switch c.named[idx].kind {
		case entryScope:
			c.expectCheckAt(&c.named[idx], scopes, reason, key, what)
			return
		case entryRootref:
			c.expectCheckAt(&c.root, scopes, reason, key, what)
			return
		case entryNamed:
			idx = c.named[idx].idx
		default:
			panic("scopes: backref in named entry")
		}
	}
}

// expectBack applies an expectation back steps up the chain, following any
// backrefs it lands on further up.
func (c *Context) expectBack(scopes Scopes, reason Reason, back int) {
	for p := c.prev; p != nil; p = p.prev {
		if back == 0 {
			switch p.this.kind {
			case entryScope:
				c.expectCheck(&p.this, scopes, reason)
				return
			case entryBackref:
				back = p.this.back + 1
			case entryRootref:
				c.expectCheck(&c.root, scopes, reason)
				return
			default:
				c.expectNamed(p.this.idx, scopes, reason)
				return
			}
		}
		back--
	}
}

func (c *Context) expectBackAt(scopes Scopes, reason Reason, back int, key token.Token, what string) {
	for p := c.prev; p != nil; p = p.prev {
		if back == 0 {
			switch p.this.kind {
			case entryScope:
				c.expectCheckAt(&p.this, scopes, reason, key, what)
				return
			case entryBackref:
				back = p.this.back + 1
			case entryRootref:
				c.expectCheckAt(&c.root, scopes, reason, key, what)
				return
			default:
				c.expectNamedAt(p.this.idx, scopes, reason, key, what)
				return
			}
		}
		back--
	}
}

// Expect records that this must be one of the given types, and reports a
// mismatch when what we already know rules that out. The None scope means
// the value is never inspected and checks nothing.
func (c *Context) Expect(scopes Scopes, reason Reason) {
	if c.noWarn || scopes == None {
		return
	}
	switch c.this.kind {
	case entryScope:
		c.expectCheck(&c.this, scopes, reason)
	case entryBackref:
		c.expectBack(scopes, reason, c.this.back)
	case entryRootref:
		c.expectCheck(&c.root, scopes, reason)
	default:
		c.expectNamed(c.this.idx, scopes, reason)
	}
}

// expectAt is Expect with the report located at key, for expectations that
// come from matching a caller against a callee.
func (c *Context) expectAt(scopes Scopes, reason Reason, key token.Token, what string) {
	if scopes == None {
		return
	}
	switch c.this.kind {
	case entryScope:
		c.expectCheckAt(&c.this, scopes, reason, key, what)
	case entryBackref:
		c.expectBackAt(scopes, reason, c.this.back, key, what)
	case entryRootref:
		c.expectCheckAt(&c.root, scopes, reason, key, what)
	default:
		c.expectNamedAt(c.this.idx, scopes, reason, key, what)
	}
}

// ExpectCompatibility merges a callee's scope requirements into the
// caller. key identifies the callee, usually the field that invoked it.
// root, this, prev and every named scope and list are checked; callee
// scopes the caller never heard of become the caller's as well.
func (c *Context) ExpectCompatibility(other *Context, key token.Token) {
	if c.noWarn {
		return
	}
	c.expectCheckAt(&c.root, other.root.scopes, other.root.reason, key, "root")

	s, reason := other.ScopesReason()
	c.expectAt(s, reason, key, "scope")

	// One prev level back is enough in practice, given how callee
	// contexts are built.
	s, reason = other.scopesReasonBack(0)
	back := 0
	if c.isBuilder {
		back = 1
	}
	c.expectBackAt(s, reason, back, key, "prev")

	for _, name := range sortedKeys(other.names) {
		oidx := other.names[name]
		if _, ok := c.names[name]; ok {
			s, reason := other.resolveNamed(oidx)
			if other.isInput[oidx] != nil {
				idx := c.namedIndex(name, key)
				c.expectNamedAt(idx, s, reason, key, "scope:"+name)
			} else {
				// Their scopes now become our scopes.
				c.defineEntry(name, entry{kind: entryScope, scopes: s, reason: reason}, false)
			}
		} else if c.strict && other.isInput[oidx] != nil {
			c.rep.Warn(report.StrictScopes).
				Msgf("`%s` expects scope:%s to be set", key, name).
				Loc(key).LocMsg(*other.isInput[oidx], "here").Push()
		} else {
			s, reason := other.resolveNamed(oidx)
			idx := c.appendNamed(entry{kind: entryScope, scopes: s, reason: reason}, copyInput(other.isInput[oidx]))
			c.addName(name, idx, false)
		}
	}

	for _, name := range sortedKeys(other.listNames) {
		oidx := other.listNames[name]
		if _, ok := c.listNames[name]; ok {
			s, reason := other.resolveNamed(oidx)
			if other.isInput[oidx] != nil {
				idx := c.namedListIndex(name, key)
				c.expectNamedAt(idx, s, reason, key, "list "+name)
			} else {
				c.defineEntry(name, entry{kind: entryScope, scopes: s, reason: reason}, true)
			}
		} else if c.strict && other.isInput[oidx] != nil {
			c.rep.Warn(report.StrictScopes).
				Msgf("`%s` expects list %s to exist", key, name).
				Loc(key).LocMsg(*other.isInput[oidx], "here").Push()
		} else {
			s, reason := other.resolveNamed(oidx)
			idx := c.appendNamed(entry{kind: entryScope, scopes: s, reason: reason}, copyInput(other.isInput[oidx]))
			c.addName(name, idx, true)
		}
	}
}

func copyInput(tok *token.Token) *token.Token {
	if tok == nil {
		return nil
	}
	t := *tok
	return &t
}

// Signature fingerprints the context as its root types plus the types of
// every named scope. Events and on-actions reached from several call paths
// memoize on it to validate once per distinct context.
func (c *Context) Signature() string {
	var sb strings.Builder
	root, _ := c.resolveRoot()
	fmt.Fprintf(&sb, "%#x", uint64(root))
	for _, name := range sortedKeys(c.names) {
		s, _ := c.resolveNamed(c.names[name])
		fmt.Fprintf(&sb, ";%s=%#x", name, uint64(s))
	}
	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Saved is a restore point taken before validation descends into a
// lexical block. Restore puts the bindings and the scope depth back, so a
// scope saved in one branch cannot leak into a sibling branch.
type Saved struct {
	c          *Context
	parent     *Saved
	this       entry
	prev       *history
	isBuilder  bool
	namedLen   int
	logged     map[int]bool
	rebinds    []rebind
	addedNames []string
	addedLists []string
}

type rebind struct {
	idx   int
	e     entry
	input *token.Token
}

// Push takes a restore point. Guards restore in last-in-first-out order,
// usually by deferring the Restore call.
func (c *Context) Push() *Saved {
	s := &Saved{
		c:         c,
		parent:    c.guard,
		this:      c.this,
		prev:      c.prev,
		isBuilder: c.isBuilder,
		namedLen:  len(c.named),
		logged:    make(map[int]bool),
	}
	c.guard = s
	return s
}

// Restore undoes everything since the matching Push: names defined or
// rebound since then revert, entries created since then drop, and the
// scope depth returns to where it was. Narrowing learned about surviving
// entries is kept, since type knowledge stays true regardless of where it
// was learned.
func (s *Saved) Restore() {
	c := s.c
	if c.guard != s {
		panic("scopes: guard restored out of order")
	}
	c.guard = s.parent
	for _, name := range s.addedNames {
		delete(c.names, name)
	}
	for _, name := range s.addedLists {
		delete(c.listNames, name)
	}
	for _, rb := range s.rebinds {
		c.named[rb.idx] = rb.e
		c.isInput[rb.idx] = rb.input
	}
	c.named = c.named[:s.namedLen]
	c.isInput = c.isInput[:s.namedLen]
	c.this = s.this
	c.prev = s.prev
	c.isBuilder = s.isBuilder
}
