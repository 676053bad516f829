// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package data

import (
	"sync"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/token"
	"github.com/pdxlint/pdxlint/validate"
)

// scriptedKind says which walker a scripted definition's body goes
// through.
type scriptedKind uint8

const (
	scriptedTrigger scriptedKind = iota
	scriptedEffect
)

// scripted is a scripted trigger or effect definition. Validation happens
// from call sites, in a fresh unrooted context whose learned expectations
// are merged back into each caller; the macro cache bounds the work to one
// validation per distinct expansion.
type scripted struct {
	key   token.Token
	block *ast.Block
	kind  scriptedKind
	owner *Everything
	cache validate.MacroCache[*scopes.Context]
}

var _ validate.Caller = (*scripted)(nil)
var _ ItemValidator = (*scripted)(nil)

// Validate runs the standalone pass for definitions nothing called.
// Parameterized definitions cannot be validated without arguments.
func (s *scripted) Validate(key token.Token, block *ast.Block, d *Everything) {
	if !s.cache.Empty() || len(s.MacroParms()) > 0 {
		return
	}
	s.validateBody(block, key, d, validate.TooltipNo, false)
}

// MacroParms implements validate.Caller.
func (s *scripted) MacroParms() []string { return s.block.MacroParms() }

// ValidateCall implements validate.Caller for argumentless calls.
func (s *scripted) ValidateCall(key token.Token, data validate.Data, sc *scopes.Context, tooltipped validate.Tooltipped, negated bool) {
	if s.cache.Perform(key, nil, tooltipped, negated, func(cached *scopes.Context) {
		sc.ExpectCompatibility(cached, key)
	}) {
		return
	}
	own := s.validateBody(s.block, key, data, tooltipped, negated)
	s.cache.Insert(key, nil, tooltipped, negated, own)
	sc.ExpectCompatibility(own, key)
}

// ValidateMacroExpansion implements validate.Caller for parameterized
// calls. Every distinct argument vector is expanded and validated once.
func (s *scripted) ValidateMacroExpansion(key token.Token, args []ast.MacroArg, data validate.Data, sc *scopes.Context, tooltipped validate.Tooltipped, negated bool) {
	if s.cache.Perform(key, args, tooltipped, negated, func(cached *scopes.Context) {
		sc.ExpectCompatibility(cached, key)
	}) {
		return
	}
	expanded := s.expand(args, key)
	if expanded == nil {
		return
	}
	own := s.validateBody(expanded, key, data, tooltipped, negated)
	s.cache.Insert(key, args, tooltipped, negated, own)
	sc.ExpectCompatibility(own, key)
}

// expand splices the arguments into the recorded source and re-parses
// the result with the global reader memory in view.
func (s *scripted) expand(args []ast.MacroArg, key token.Token) *ast.Block {
	toks := s.block.ExpandMacroTokens(args, key.Loc)
	if toks == nil {
		s.owner.rep.Err(report.Macro).
			Msgf("`%s` takes arguments but its body recorded none", key).
			Loc(s.key).Push()
		return nil
	}
	return parser.ParseMacro(toks, s.owner.memory, s.owner.rep)
}

func (s *scripted) validateBody(block *ast.Block, key token.Token, data validate.Data, tooltipped validate.Tooltipped, negated bool) *scopes.Context {
	own := scopes.NewUnrooted(scopes.All, key, data.Reports())
	switch s.kind {
	case scriptedTrigger:
		validate.ValidateTriggerInternal(s.key.Text, false, block, data, own, tooltipped, negated, report.Error)
	case scriptedEffect:
		validate.ValidateEffect(block, data, own, tooltipped)
	}
	return own
}

// scriptValue is a named script value definition. A value is validated
// once per distinct caller scope signature: the body reads the caller's
// scopes, so one pass per shape is both necessary and enough.
type scriptValue struct {
	key  token.Token
	bv   ast.BV
	mu   sync.Mutex
	seen map[string]bool
}

var _ ItemValidator = (*scriptValue)(nil)

// Validate runs the standalone pass for values nothing referenced.
func (s *scriptValue) Validate(key token.Token, _ *ast.Block, d *Everything) {
	s.mu.Lock()
	visited := len(s.seen) > 0
	s.mu.Unlock()
	if visited {
		return
	}
	sc := scopes.NewUnrooted(scopes.All, key, d.rep)
	s.validateIn(d, sc)
}

func (s *scriptValue) validateIn(data validate.Data, sc *scopes.Context) {
	sig := sc.Signature()
	s.mu.Lock()
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[sig] {
		s.mu.Unlock()
		return
	}
	s.seen[sig] = true
	s.mu.Unlock()
	saved := sc.Push()
	validate.ValidateScriptValue(s.bv, data, sc)
	saved.Restore()
}
