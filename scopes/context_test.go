// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package scopes_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/token"
)

func sink() *report.Reports {
	return report.New(report.OutputConfig{Writer: io.Discard})
}

func messages(r *report.Reports) []string {
	var msgs []string
	for _, rep := range r.Take() {
		msgs = append(msgs, rep.Msg)
	}
	return msgs
}

func at(text string, line uint32) token.Token {
	return token.NewToken(text, token.Loc{Kind: token.Mod, Line: line, Column: 1})
}

func TestContextThisAndRoot(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("test_trigger", 1), rep)

	assert.Equal(t, scopes.Character, c.Scopes())
	assert.True(t, c.MustBe(scopes.Character))
	assert.True(t, c.CanBe(scopes.Character|scopes.Faith))
	assert.False(t, c.CanBe(scopes.Faith))
	assert.Empty(t, messages(rep))
}

func TestContextOpenClose(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)

	c.OpenScope(scopes.LandedTitle, at("primary_title", 2))
	assert.Equal(t, scopes.LandedTitle, c.Scopes())
	c.OpenScope(scopes.Province, at("title_province", 3))
	assert.Equal(t, scopes.Province, c.Scopes())
	c.Close()
	assert.Equal(t, scopes.LandedTitle, c.Scopes())
	c.Close()
	assert.Equal(t, scopes.Character, c.Scopes())

	assert.PanicsWithValue(t, "scopes: close without open scope", func() { c.Close() })
}

func TestContextBuilderReplace(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)

	c.OpenBuilder()
	assert.Equal(t, scopes.Character, c.Scopes())

	c.Replace(scopes.Faith, at("faith:catholic", 2))
	assert.Equal(t, scopes.Faith, c.Scopes())

	c.ReplaceRoot()
	assert.Equal(t, scopes.Character, c.Scopes())

	c.Replace(scopes.Artifact, at("artifact", 2))
	c.ReplaceThis()
	assert.Equal(t, scopes.Character, c.Scopes())

	c.Replace(scopes.Artifact, at("artifact", 2))
	c.FinalizeBuilder()
	assert.Equal(t, scopes.Artifact, c.Scopes())
	c.Close()
	assert.Equal(t, scopes.Character, c.Scopes())
	assert.Empty(t, messages(rep))
}

func TestContextReplacePrev(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)

	c.OpenScope(scopes.LandedTitle, at("primary_title", 2))
	c.OpenBuilder()
	c.ReplacePrev()
	assert.Equal(t, scopes.Character, c.Scopes())
	c.Close()
	assert.Equal(t, scopes.LandedTitle, c.Scopes())
	c.Close()
	assert.Empty(t, messages(rep))
}

func TestContextExpectNarrows(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character|scopes.Province, at("t", 1), rep)

	c.Expect(scopes.Character|scopes.Faith, scopes.TokenReason(at("age", 2)))
	assert.Equal(t, scopes.Character, c.Scopes())
	assert.Empty(t, messages(rep))
}

func TestContextExpectMismatch(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Faith, at("faith_block", 1), rep)

	c.Expect(scopes.Character, scopes.TokenReason(at("age", 2)))

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "`age` is for character but scope seems to be faith", reps[0].Msg)
	assert.Equal(t, report.Warning, reps[0].Severity)
	assert.Equal(t, report.Scopes, reps[0].Key)
	require.Len(t, reps[0].Pointers, 2)
	assert.Equal(t, uint32(2), reps[0].Pointers[0].Loc.Line)
	assert.Equal(t, "scope was supplied by the game engine", reps[0].Pointers[1].Msg)
	assert.Equal(t, uint32(1), reps[0].Pointers[1].Loc.Line)

	// A ruled-out expectation must not wipe what we knew.
	assert.Equal(t, scopes.Faith, c.Scopes())
}

func TestContextExpectNoneIsIgnored(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Faith, at("f", 1), rep)

	c.Expect(scopes.None, scopes.TokenReason(at("flag_field", 2)))
	assert.Equal(t, scopes.Faith, c.Scopes())
	assert.Empty(t, messages(rep))
}

func TestContextExpectThroughPrev(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character|scopes.Province, at("t", 1), rep)

	c.OpenScope(scopes.Faith, at("faith", 2))
	c.OpenBuilder()
	c.ReplacePrev()
	c.Expect(scopes.Character, scopes.TokenReason(at("age", 3)))
	c.Close()
	c.Close()

	// The expectation two levels up lands on root and narrows it.
	assert.Equal(t, scopes.Character, c.Scopes())
	assert.Empty(t, messages(rep))
}

func TestContextUnrooted(t *testing.T) {
	rep := sink()
	c := scopes.NewUnrooted(scopes.Value, at("my_value", 1), rep)

	assert.Equal(t, scopes.Value, c.Scopes())

	// The extra prev level stands in for the unknown callers.
	c.OpenBuilder()
	c.ReplacePrev()
	assert.Equal(t, scopes.All, c.Scopes())
	c.Close()
	assert.Equal(t, scopes.Value, c.Scopes())
	assert.Empty(t, messages(rep))
}

func TestContextChangeRoot(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("a", 1), rep)

	c.ChangeRoot(scopes.Province, at("b", 2))
	assert.Equal(t, scopes.Province, c.Scopes())
}

func TestContextNamedScopes(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("decision", 1), rep)

	c.DefineName("target", scopes.Character, at("target", 1))
	s, ok := c.NameDefined("target")
	require.True(t, ok)
	assert.Equal(t, scopes.Character, s)

	_, ok = c.NameDefined("nope")
	assert.False(t, ok)
	assert.Empty(t, messages(rep))
}

func TestContextSaveCurrentScope(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("e", 1), rep)

	c.OpenScope(scopes.Artifact, at("artifact", 2))
	c.SaveCurrentScope("relic")
	c.Close()

	s, ok := c.NameDefined("relic")
	require.True(t, ok)
	assert.Equal(t, scopes.Artifact, s)
	assert.Empty(t, messages(rep))
}

func TestContextSaveScopeSelfReference(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("e", 1), rep)
	c.DefineName("foo", scopes.Character, at("foo", 1))

	// scope:foo = { save_scope_as = foo } must not make a cycle.
	c.OpenBuilder()
	c.ReplaceNamedScope("foo", at("scope:foo", 2))
	c.FinalizeBuilder()
	c.SaveCurrentScope("foo")

	s, ok := c.NameDefined("foo")
	require.True(t, ok)
	assert.Equal(t, scopes.Character, s)
	c.Close()
	assert.Empty(t, messages(rep))
}

func TestContextStrictUnknownName(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)
	c.DefineName("actor", scopes.Character, at("actor", 1))
	c.DefineName("recipient", scopes.Character, at("recipient", 1))

	c.OpenBuilder()
	c.ReplaceNamedScope("ghost", at("scope:ghost", 3))
	c.Close()

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "scope:ghost might not be available here", reps[0].Msg)
	assert.Equal(t, "available names are actor or recipient", reps[0].Info)
	assert.Equal(t, report.Error, reps[0].Severity)
	assert.Equal(t, report.Weak, reps[0].Confidence)
	assert.Equal(t, report.StrictScopes, reps[0].Key)

	// Only one warning per unknown name.
	c.OpenBuilder()
	c.ReplaceNamedScope("ghost", at("scope:ghost", 4))
	c.Close()
	assert.Empty(t, messages(rep))
}

func TestContextNonStrictUnknownName(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)
	c.SetStrictScopes(false)
	assert.False(t, c.IsStrict())

	c.OpenBuilder()
	c.ReplaceNamedScope("ghost", at("scope:ghost", 2))
	c.Close()
	assert.Empty(t, messages(rep))
}

func TestContextExistsScope(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)

	c.ExistsScope("maybe", at("scope:maybe", 2))
	_, ok := c.NameDefined("maybe")
	assert.True(t, ok)

	// Checked names no longer draw the strict warning.
	c.OpenBuilder()
	c.ReplaceNamedScope("maybe", at("scope:maybe", 3))
	c.Close()
	assert.Empty(t, messages(rep))
}

func TestContextDeduceName(t *testing.T) {
	old := scopes.DeduceName
	scopes.DeduceName = func(name string) (scopes.Scopes, bool) {
		if name == "mother" {
			return scopes.Character, true
		}
		return 0, false
	}
	defer func() { scopes.DeduceName = old }()

	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)
	c.SetStrictScopes(false)

	c.OpenBuilder()
	c.ReplaceNamedScope("mother", at("scope:mother", 2))
	assert.Equal(t, scopes.Character, c.Scopes())
	c.Close()
	assert.Empty(t, messages(rep))
}

func TestContextListNarrowsThis(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)
	c.DefineList("targets", scopes.Character, at("targets", 1))

	c.OpenScope(scopes.Character|scopes.Province, at("every_in_list", 2))
	c.ExpectList(at("targets", 2))
	assert.Equal(t, scopes.Character, c.Scopes())
	c.Close()
	assert.Empty(t, messages(rep))
}

func TestContextUnknownList(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)

	c.ExpectList(at("nolist", 2))

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "unknown list", reps[0].Msg)
	assert.Equal(t, report.Error, reps[0].Severity)
	assert.Equal(t, report.Weak, reps[0].Confidence)
}

func TestContextDefineOrExpectList(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)

	c.OpenScope(scopes.Province, at("every_county", 2))
	c.DefineOrExpectList(at("mylist", 2))
	c.Close()
	assert.Empty(t, messages(rep))

	// A second add from an incompatible scope contradicts the first.
	c.OpenScope(scopes.Faith, at("every_faith", 4))
	c.DefineOrExpectList(at("mylist", 4))
	c.Close()

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "`every_county` is for province but scope seems to be faith", reps[0].Msg)
	require.Len(t, reps[0].Pointers, 2)
	assert.Equal(t, "scope was deduced from `every_faith` here", reps[0].Pointers[1].Msg)
}

func TestContextNoWarn(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Faith, at("f", 1), rep)
	c.SetNoWarn(true)

	c.Expect(scopes.Character, scopes.TokenReason(at("age", 2)))
	c.OpenBuilder()
	c.ReplaceNamedScope("ghost", at("scope:ghost", 3))
	c.Close()
	c.ExpectList(at("nolist", 4))
	assert.Empty(t, messages(rep))
}

func TestContextCompatibilityMismatch(t *testing.T) {
	rep := sink()
	caller := scopes.New(scopes.Faith, at("on_action", 1), rep)
	callee := scopes.New(scopes.Character, at("effect", 2), rep)

	caller.ExpectCompatibility(callee, at("run_me", 3))

	reps := rep.Take()
	require.Len(t, reps, 2)
	msgs := []string{reps[0].Msg, reps[1].Msg}
	assert.ElementsMatch(t, []string{
		"`run_me` expects root to be character but root seems to be faith",
		"`run_me` expects scope to be character but scope seems to be faith",
	}, msgs)
	require.Len(t, reps[0].Pointers, 3)
	assert.Equal(t, "expected root was supplied by the game engine", reps[0].Pointers[1].Msg)
	assert.Equal(t, "actual root was supplied by the game engine", reps[0].Pointers[2].Msg)
}

func TestContextCompatibilityAdoptsNames(t *testing.T) {
	rep := sink()
	caller := scopes.New(scopes.Character, at("event", 1), rep)
	callee := scopes.NewUnrooted(scopes.All, at("scripted", 2), rep)
	callee.DefineNameToken("target", scopes.Province, at("scope:target", 2))

	caller.ExpectCompatibility(callee, at("call_site", 3))

	assert.Empty(t, messages(rep))
	s, ok := caller.NameDefined("target")
	require.True(t, ok)
	assert.Equal(t, scopes.Province, s)
}

func TestContextCompatibilityMissingInput(t *testing.T) {
	rep := sink()
	caller := scopes.New(scopes.Character, at("event", 1), rep)
	callee := scopes.NewUnrooted(scopes.All, at("sv", 2), rep)
	callee.SetStrictScopes(false)

	// The callee reads scope:wanted without defining it.
	callee.OpenBuilder()
	callee.ReplaceNamedScope("wanted", at("scope:wanted", 2))
	callee.Close()

	caller.ExpectCompatibility(callee, at("my_value", 3))

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "`my_value` expects scope:wanted to be set", reps[0].Msg)
	assert.Equal(t, report.StrictScopes, reps[0].Key)
	require.Len(t, reps[0].Pointers, 2)
	assert.Equal(t, uint32(3), reps[0].Pointers[0].Loc.Line)
	assert.Equal(t, "here", reps[0].Pointers[1].Msg)
	assert.Equal(t, uint32(2), reps[0].Pointers[1].Loc.Line)
}

func TestContextCompatibilityNarrowsInput(t *testing.T) {
	rep := sink()
	caller := scopes.New(scopes.Character, at("event", 1), rep)
	caller.DefineName("target", scopes.Character|scopes.Province, at("target", 1))

	callee := scopes.NewUnrooted(scopes.All, at("se", 2), rep)
	callee.SetStrictScopes(false)
	callee.OpenBuilder()
	callee.ReplaceNamedScope("target", at("scope:target", 2))
	callee.Expect(scopes.Province, scopes.TokenReason(at("development_level", 2)))
	callee.Close()

	caller.ExpectCompatibility(callee, at("call", 3))

	assert.Empty(t, messages(rep))
	s, ok := caller.NameDefined("target")
	require.True(t, ok)
	assert.Equal(t, scopes.Province, s)
}

func TestContextCompatibilityMissingList(t *testing.T) {
	rep := sink()
	caller := scopes.New(scopes.Character, at("event", 1), rep)
	callee := scopes.NewUnrooted(scopes.All, at("se", 2), rep)
	callee.SetStrictScopes(false)

	callee.OpenBuilder()
	callee.ReplaceListEntry("victims", at("every_in_list", 2))
	callee.Close()

	caller.ExpectCompatibility(callee, at("call", 3))

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "`call` expects list victims to exist", reps[0].Msg)
}

func TestContextSignature(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("e", 1), rep)
	c.DefineName("b_name", scopes.Faith, at("b", 1))
	c.DefineName("a_name", scopes.Province, at("a", 1))

	sig := c.Signature()
	assert.Equal(t, "0x10;a_name=0x100;b_name=0x2000", sig)
	assert.Equal(t, sig, c.Signature())

	c2 := scopes.New(scopes.Character, at("e", 1), rep)
	c2.DefineName("a_name", scopes.Province, at("a", 1))
	c2.DefineName("b_name", scopes.Character, at("b", 1))
	assert.NotEqual(t, sig, c2.Signature())
}

func TestContextGuardRestoresBindings(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)
	c.DefineName("outer", scopes.Character, at("outer", 1))

	g := c.Push()
	c.SaveCurrentScope("inner")
	c.DefineNameToken("outer", scopes.Faith, at("x", 2))
	c.OpenScope(scopes.Province, at("county", 3))
	g.Restore()

	_, ok := c.NameDefined("inner")
	assert.False(t, ok)
	s, ok := c.NameDefined("outer")
	require.True(t, ok)
	assert.Equal(t, scopes.Character, s)
	assert.Equal(t, scopes.Character, c.Scopes())
	assert.Empty(t, messages(rep))
}

func TestContextGuardKeepsNarrowing(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("t", 1), rep)
	c.DefineNameToken("place", scopes.LandedTitle|scopes.Province, at("place", 1))

	g := c.Push()
	c.OpenBuilder()
	c.ReplaceNamedScope("place", at("scope:place", 2))
	c.Expect(scopes.Province, scopes.TokenReason(at("development_level", 2)))
	c.Close()
	g.Restore()

	// What a branch learned about a scope's type stays true outside it.
	s, ok := c.NameDefined("place")
	require.True(t, ok)
	assert.Equal(t, scopes.Province, s)
	assert.Empty(t, messages(rep))
}

func TestContextGuardSiblingIsolation(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("e", 1), rep)

	g := c.Push()
	c.SaveCurrentScope("branch_scope")
	g.Restore()

	// The sibling branch must not see the first branch's scope.
	c.OpenBuilder()
	c.ReplaceNamedScope("branch_scope", at("scope:branch_scope", 5))
	c.Close()

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "scope:branch_scope might not be available here", reps[0].Msg)
}

func TestContextGuardNesting(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("e", 1), rep)
	c.DefineName("target", scopes.Character, at("target", 1))

	outer := c.Push()
	c.DefineNameToken("target", scopes.Faith, at("f", 2))
	inner := c.Push()
	c.DefineNameToken("target", scopes.Province, at("p", 3))

	s, _ := c.NameDefined("target")
	assert.Equal(t, scopes.Province, s)
	inner.Restore()
	s, _ = c.NameDefined("target")
	assert.Equal(t, scopes.Faith, s)
	outer.Restore()
	s, _ = c.NameDefined("target")
	assert.Equal(t, scopes.Character, s)
}

func TestContextGuardOutOfOrder(t *testing.T) {
	rep := sink()
	c := scopes.New(scopes.Character, at("e", 1), rep)

	g1 := c.Push()
	g2 := c.Push()
	assert.PanicsWithValue(t, "scopes: guard restored out of order", func() { g1.Restore() })
	g2.Restore()
	g1.Restore()
}
