// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/lexer"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

func fileTok(text string) token.Token {
	return token.NewToken(text, token.Loc{Kind: token.Mod, Line: 1, Column: 1})
}

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

func scanAll(rep *report.Reports, inputs ...token.Token) []lexer.Lexeme {
	s := lexer.New(rep, inputs...)
	var out []lexer.Lexeme
	for {
		lx, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, lx)
	}
}

func kinds(lxs []lexer.Lexeme) []lexer.Kind {
	out := make([]lexer.Kind, len(lxs))
	for i, lx := range lxs {
		out[i] = lx.Kind
	}
	return out
}

func texts(lxs []lexer.Lexeme) []string {
	out := make([]string, len(lxs))
	for i, lx := range lxs {
		out[i] = lx.Tok.Text
	}
	return out
}

func TestScanField(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("key = value"))
	require.Len(t, lxs, 3)

	assert.Equal(t, lexer.General, lxs[0].Kind)
	assert.Equal(t, "key", lxs[0].Tok.Text)
	assert.Equal(t, uint16(1), lxs[0].Tok.Loc.Column)

	assert.Equal(t, lexer.Comparator, lxs[1].Kind)
	assert.Equal(t, ast.Eq, lxs[1].Cmp)
	assert.Equal(t, uint16(5), lxs[1].Tok.Loc.Column)

	assert.Equal(t, lexer.General, lxs[2].Kind)
	assert.Equal(t, "value", lxs[2].Tok.Text)
	assert.Equal(t, uint16(7), lxs[2].Tok.Loc.Column)

	assert.Empty(t, messages(rep))
}

func TestScanComparators(t *testing.T) {
	tests := []struct {
		in  string
		cmp ast.Comparator
	}{
		{"=", ast.Eq},
		{"==", ast.DoubleEq},
		{"?=", ast.QuestionEq},
		{"!=", ast.NotEq},
		{"<", ast.Less},
		{">", ast.Greater},
		{"<=", ast.AtMost},
		{">=", ast.AtLeast},
	}
	for _, tt := range tests {
		rep := sink()
		lxs := scanAll(rep, fileTok("a "+tt.in+" b"))
		require.Len(t, lxs, 3, "input %q", tt.in)
		assert.Equal(t, lexer.Comparator, lxs[1].Kind, "input %q", tt.in)
		assert.Equal(t, tt.cmp, lxs[1].Cmp, "input %q", tt.in)
		assert.Empty(t, messages(rep), "input %q", tt.in)
	}
}

func TestScanBadComparator(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("a =!= b"))
	require.Len(t, lxs, 3)
	assert.Equal(t, lexer.Comparator, lxs[1].Kind)
	assert.Equal(t, ast.Eq, lxs[1].Cmp)
	assert.Equal(t, []string{"unrecognized comparator `=!=`"}, messages(rep))
}

func TestScanQuoted(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok(`name = "Duchy of Foo"`))
	require.Len(t, lxs, 3)
	assert.Equal(t, lexer.General, lxs[2].Kind)
	assert.Equal(t, "Duchy of Foo", lxs[2].Tok.Text)
	assert.Equal(t, uint16(9), lxs[2].Tok.Loc.Column)
	assert.Empty(t, messages(rep))
}

func TestScanQuotedUnclosed(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok(`"abc`))
	require.Len(t, lxs, 1)
	assert.Equal(t, "abc", lxs[0].Tok.Text)

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "quoted string not closed", reps[0].Msg)
	assert.Equal(t, report.Error, reps[0].Severity)
	assert.Equal(t, uint16(1), reps[0].Primary().Loc.Column)
}

func TestScanQuotedAcrossNewline(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("\"ab\ncd\" x"))
	require.Len(t, lxs, 2)
	assert.Equal(t, "ab\ncd", lxs[0].Tok.Text)
	assert.Equal(t, "x", lxs[1].Tok.Text)

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "quoted string not closed", reps[0].Msg)
	assert.Equal(t, report.Warning, reps[0].Severity)
	assert.Equal(t, report.Weak, reps[0].Confidence)
}

func TestScanIDCharset(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("scope:father.primary_title 1066.1.1 Åland k_france|e_hre"))
	assert.Equal(t, []string{
		"scope:father.primary_title", "1066.1.1", "Åland", "k_france|e_hre",
	}, texts(lxs))
	assert.Empty(t, messages(rep))
}

func TestScanUnrecognizedChar(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("a ~ b"))
	assert.Equal(t, []string{"a", "b"}, texts(lxs))
	assert.Equal(t, []string{"unrecognized character `~`"}, messages(rep))
}

func TestScanComment(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("# header comment\nkey = 1 # trailing\n"))
	require.Len(t, lxs, 3)
	assert.Equal(t, "key", lxs[0].Tok.Text)
	assert.Equal(t, uint32(2), lxs[0].Tok.Loc.Line)
	assert.Equal(t, uint16(1), lxs[0].Tok.Loc.Column)
	assert.Empty(t, messages(rep))
}

func TestScanSemicolons(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("10; 20;"))
	assert.Equal(t, []string{"10", "20"}, texts(lxs))
	assert.Empty(t, messages(rep))
}

func TestScanMacroParam(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("ai_chance = $CHANCE$"))
	require.Len(t, lxs, 3)
	assert.Equal(t, lexer.MacroParam, lxs[2].Kind)
	assert.Equal(t, "CHANCE", lxs[2].Tok.Text)
	assert.Equal(t, uint16(14), lxs[2].Tok.Loc.Column)
	assert.Empty(t, messages(rep))
}

func TestScanMacroParamUnclosed(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("$WHO no"))
	require.Len(t, lxs, 2)
	assert.Equal(t, lexer.General, lxs[0].Kind)
	assert.Equal(t, "WHO", lxs[0].Tok.Text)
	assert.Equal(t, "no", lxs[1].Tok.Text)
	assert.Equal(t, []string{"macro parameter not closed"}, messages(rep))

	rep = sink()
	lxs = scanAll(rep, fileTok("$WHO"))
	require.Len(t, lxs, 1)
	assert.Equal(t, "WHO", lxs[0].Tok.Text)
	assert.Equal(t, []string{"macro parameter not closed"}, messages(rep))
}

func TestScanVariables(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("@pi = 3.14\nradius = @pi\n"))
	require.Len(t, lxs, 6)
	assert.Equal(t, lexer.VariableRef, lxs[0].Kind)
	assert.Equal(t, "@pi", lxs[0].Tok.Text)
	assert.Equal(t, lexer.VariableRef, lxs[5].Kind)
	assert.Equal(t, "@pi", lxs[5].Tok.Text)
	assert.Equal(t, uint32(2), lxs[5].Tok.Loc.Line)
	assert.Empty(t, messages(rep))
}

func TestScanCalc(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("@[ ( pi - 1.5 ) * 2 / x ]"))
	assert.Equal(t, []lexer.Kind{
		lexer.CalcStart, lexer.OpenParen, lexer.General, lexer.Subtract,
		lexer.General, lexer.CloseParen, lexer.Multiply, lexer.General,
		lexer.Divide, lexer.General, lexer.CalcEnd,
	}, kinds(lxs))
	assert.Equal(t, "pi", lxs[2].Tok.Text)
	assert.Equal(t, "1.5", lxs[4].Tok.Text)
	assert.Empty(t, messages(rep))
}

func TestScanCalcCharsetEnds(t *testing.T) {
	// Inside `@[ ]` the operand charset is narrow; outside it, `-` is an
	// ordinary id char again.
	rep := sink()
	lxs := scanAll(rep, fileTok("@[x-1] y-z"))
	assert.Equal(t, []lexer.Kind{
		lexer.CalcStart, lexer.General, lexer.Subtract, lexer.General,
		lexer.CalcEnd, lexer.General,
	}, kinds(lxs))
	assert.Equal(t, "y-z", lxs[5].Tok.Text)
	assert.Empty(t, messages(rep))
}

func TestScanDirectives(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("@:define foo { a = 1 }"))
	require.NotEmpty(t, lxs)
	assert.Equal(t, lexer.ReaderDirective, lxs[0].Kind)
	assert.Equal(t, lexer.DirDefine, lxs[0].Dir)
	assert.Equal(t, "@:define", lxs[0].Tok.Text)
	assert.Empty(t, messages(rep))

	rep = sink()
	lxs = scanAll(rep, fileTok("@:log @pi"))
	require.Len(t, lxs, 2)
	assert.Equal(t, lexer.DirLog, lxs[0].Dir)
	assert.Empty(t, messages(rep))
}

func TestScanDirectiveRegisterVariable(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("@:register_variable pi = 3.14"))
	require.Len(t, lxs, 4)
	assert.Equal(t, lexer.ReaderDirective, lxs[0].Kind)
	assert.Equal(t, lexer.DirRegisterVariable, lxs[0].Dir)
	assert.Equal(t, []string{"`@:register_variable` is not yet supported by the game"}, messages(rep))
}

func TestScanDirectiveTypos(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("@:register-variable pi = 3.14"))
	// The directive itself is swallowed; the rest still scans.
	require.Len(t, lxs, 3)
	assert.Equal(t, "pi", lxs[0].Tok.Text)

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "unknown reader directive `@:register-variable`", reps[0].Msg)
	assert.Equal(t, "did you mean `@:register_variable`?", reps[0].Info)
}

func TestScanDirectiveUnknown(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("@:frobnicate x"))
	require.Len(t, lxs, 1)
	assert.Equal(t, "x", lxs[0].Tok.Text)
	assert.Equal(t, []string{"unknown reader directive `@:frobnicate`"}, messages(rep))
}

func TestScanDirectiveAssert(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("@:assert x = 1"))
	require.Len(t, lxs, 3)
	assert.Equal(t, "x", lxs[0].Tok.Text)

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "`@:assert` should not be left in the script", reps[0].Msg)
	assert.Equal(t, report.Crash, reps[0].Key)
}

func TestScanControlZ(t *testing.T) {
	rep := sink()
	lxs := scanAll(rep, fileTok("a = b\n\x1a\n   \n"))
	assert.Equal(t, []string{"a", "=", "b"}, texts(lxs))
	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "^Z in file", reps[0].Msg)
	assert.Equal(t, report.Untidy, reps[0].Severity)

	rep = sink()
	lxs = scanAll(rep, fileTok("a\x1ab = c"))
	assert.Equal(t, []string{"a"}, texts(lxs))
	reps = rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, report.Error, reps[0].Severity)
}

func TestScanBracePlacement(t *testing.T) {
	rep := sink()
	scanAll(rep, fileTok("x = {\n\ty = {\n}\n}\n"))
	assert.Equal(t, []string{"possible brace error"}, messages(rep))

	// A closing brace at column 1 that does close a top-level block is the
	// usual style and must not warn.
	rep = sink()
	scanAll(rep, fileTok("x = {\n\ty = 1\n}\n"))
	assert.Empty(t, messages(rep))
}

func TestScanAcrossSegments(t *testing.T) {
	rep := sink()
	first := token.NewToken("pre", token.Loc{Kind: token.Mod, Line: 3, Column: 10})
	second := token.NewToken("fix = 1", token.Loc{Kind: token.Mod, Line: 8, Column: 2})
	lxs := scanAll(rep, first, second)
	require.Len(t, lxs, 3)
	assert.Equal(t, "prefix", lxs[0].Tok.Text)
	assert.Equal(t, uint32(3), lxs[0].Tok.Loc.Line)
	assert.Equal(t, uint16(10), lxs[0].Tok.Loc.Column)
	assert.Equal(t, "1", lxs[2].Tok.Text)
	assert.Equal(t, uint32(8), lxs[2].Tok.Loc.Line)
	assert.Empty(t, messages(rep))
}

func TestSplitMacros(t *testing.T) {
	mem := lexer.NewCombined(nil)
	mem.SetVariable("radius", fileTok("5"))

	loc := token.Loc{Kind: token.Mod, Line: 10, Column: 5}
	src := token.NewToken("size = @radius who = $WHO$ #c\n", loc)
	comps := lexer.SplitMacros(src, mem, sink())

	require.Len(t, comps, 5)

	assert.Equal(t, ast.MacroSource, comps[0].Kind)
	assert.Equal(t, "size = ", comps[0].Token.Text)
	assert.Equal(t, uint16(5), comps[0].Token.Loc.Column)

	assert.Equal(t, ast.MacroLocalValue, comps[1].Kind)
	assert.Equal(t, "5", comps[1].Token.Text)
	assert.Equal(t, uint16(12), comps[1].Token.Loc.Column)

	assert.Equal(t, ast.MacroSource, comps[2].Kind)
	assert.Equal(t, " who = ", comps[2].Token.Text)
	assert.Equal(t, uint16(19), comps[2].Token.Loc.Column)

	assert.Equal(t, ast.MacroParam, comps[3].Kind)
	assert.Equal(t, "WHO", comps[3].Token.Text)
	assert.Equal(t, uint16(27), comps[3].Token.Loc.Column)

	assert.Equal(t, ast.MacroSource, comps[4].Kind)
	assert.Equal(t, " #c\n", comps[4].Token.Text)
	assert.Equal(t, uint16(31), comps[4].Token.Loc.Column)
}

func TestSplitMacrosSkipsCommentsAndQuotes(t *testing.T) {
	mem := lexer.NewCombined(nil)
	src := fileTok("x = \"a $NOT$ b\" # $ALSONOT$\n")
	comps := lexer.SplitMacros(src, mem, sink())
	require.Len(t, comps, 1)
	assert.Equal(t, ast.MacroSource, comps[0].Kind)
	assert.Equal(t, src.Text, comps[0].Token.Text)
}

func TestSplitMacrosLeavesGlobalRefs(t *testing.T) {
	// Only variables from the defining file itself get baked in; globals
	// are still in flux while files are being read and must wait for the
	// re-parse.
	gsrc := lexer.NewCombined(nil)
	gsrc.SetVariable("gvar", fileTok("1"))
	global := lexer.NewMemory()
	global.Merge(gsrc.Local())

	mem := lexer.NewCombined(global)
	src := fileTok("a = @gvar b = $P$")
	comps := lexer.SplitMacros(src, mem, sink())
	require.Len(t, comps, 2)
	assert.Equal(t, ast.MacroSource, comps[0].Kind)
	assert.Equal(t, "a = @gvar b = ", comps[0].Token.Text)
	assert.Equal(t, ast.MacroParam, comps[1].Kind)
}

func TestMemoryShadowing(t *testing.T) {
	base := lexer.NewCombined(nil)
	base.SetVariable("x", fileTok("global"))
	global := lexer.NewMemory()
	global.Merge(base.Local())

	mem := lexer.NewCombined(global)
	v, ok := mem.GetVariable("x")
	require.True(t, ok)
	assert.Equal(t, "global", v.Text)

	mem.SetVariable("x", fileTok("local"))
	v, ok = mem.GetVariable("x")
	require.True(t, ok)
	assert.Equal(t, "local", v.Text)

	// The global binding is untouched.
	other := lexer.NewCombined(global)
	v, ok = other.GetVariable("x")
	require.True(t, ok)
	assert.Equal(t, "global", v.Text)
}
