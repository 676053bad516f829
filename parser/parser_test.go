// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/lexer"
	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
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

func parseStr(rep *report.Reports, content string) *ast.Block {
	return parser.ParseFile(token.Loc{Kind: token.Mod}, content, nil, rep)
}

func fieldValue(t *testing.T, b *ast.Block, name string) string {
	t.Helper()
	v, ok := b.GetFieldValue(name)
	require.True(t, ok, "expected field %q", name)
	return v.Text
}

func fieldBlock(t *testing.T, b *ast.Block, name string) *ast.Block {
	t.Helper()
	sub, ok := b.GetFieldBlock(name)
	require.True(t, ok, "expected block field %q", name)
	return sub
}

func valueTexts(toks []token.Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

func TestParseFields(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
name = value
desc = "two words"
nested = {
	a = 1
	b = yes
}
loose
`)
	assert.Empty(t, messages(rep))

	assert.Equal(t, "value", fieldValue(t, b, "name"))
	assert.Equal(t, "two words", fieldValue(t, b, "desc"))
	nested := fieldBlock(t, b, "nested")
	assert.Equal(t, "1", fieldValue(t, nested, "a"))
	assert.Equal(t, "yes", fieldValue(t, nested, "b"))
	assert.Equal(t, []string{"loose"}, valueTexts(b.ItemValues()))

	// The root block stands for the whole file.
	assert.Equal(t, uint32(0), b.Loc.Line)
	key, _ := b.GetKey("name")
	assert.Equal(t, uint32(2), key.Loc.Line)
	assert.Equal(t, uint16(1), key.Loc.Column)
}

func TestParseComparators(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a < 5 b >= 2 c != d e ?= f g == h")
	assert.Empty(t, messages(rep))

	want := map[string]ast.Comparator{
		"a": ast.Less,
		"b": ast.AtLeast,
		"c": ast.NotEq,
		"e": ast.QuestionEq,
		"g": ast.DoubleEq,
	}
	fields := b.Fields()
	require.Len(t, fields, len(want))
	for _, f := range fields {
		assert.Equal(t, want[f.Key.Text], f.Cmp, "comparator of %s", f.Key.Text)
	}
}

func TestParseKeyChaining(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a b c = 1\n")
	assert.Empty(t, messages(rep))

	assert.Equal(t, []string{"a", "b"}, valueTexts(b.ItemValues()))
	assert.Equal(t, "1", fieldValue(t, b, "c"))
}

func TestParseDuplicateKeysKept(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a = 1\na = 2\n")
	assert.Empty(t, messages(rep))

	assert.Equal(t, []string{"1", "2"}, valueTexts(b.GetFieldValues("a")))
	assert.Equal(t, "2", fieldValue(t, b, "a"))
}

func TestParseComparatorWithoutValue(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a = # nothing follows\n")

	assert.Equal(t, []string{"comparator without value"}, messages(rep))
	assert.Equal(t, []string{"a"}, valueTexts(b.ItemValues()))
}

func TestParseUnexpectedComparator(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "= 5\n")

	assert.Equal(t, []string{"unexpected comparator `=`"}, messages(rep))
	assert.Equal(t, []string{"5"}, valueTexts(b.ItemValues()))
}

func TestParseDoubleComparator(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a = = 5\n")

	assert.Equal(t, []string{"double comparator `=`"}, messages(rep))
	assert.Equal(t, "5", fieldValue(t, b, "a"))
}

func TestParseUnexpectedCloseBrace(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "}\na = 1\n")

	assert.Equal(t, []string{"unexpected `}`"}, messages(rep))
	assert.Equal(t, "1", fieldValue(t, b, "a"))
}

func TestParseUnclosedBraces(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a = {\n\tb = {\n\t\tc = 1\n")

	reps := rep.Take()
	require.Len(t, reps, 2)
	for _, r := range reps {
		assert.Equal(t, "opening { was never closed", r.Msg)
	}
	assert.Equal(t, uint32(1), reps[0].Primary().Loc.Line)
	assert.Equal(t, uint32(2), reps[1].Primary().Loc.Line)

	// The partial contents survive.
	inner := fieldBlock(t, fieldBlock(t, b, "a"), "b")
	assert.Equal(t, "1", fieldValue(t, inner, "c"))
}

func TestParseTaggedBlocks(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
color = hsv { 0.5 0.6 0.7 }
colors = { rgb { 10 20 30 } }
zones = LIST { z1 z2 }
plain = foo { 1 }
`)
	assert.Empty(t, messages(rep))

	color := fieldBlock(t, b, "color")
	require.NotNil(t, color.Tag)
	assert.Equal(t, "hsv", color.Tag.Text)
	assert.Equal(t, []string{"0.5", "0.6", "0.7"}, valueTexts(color.ItemValues()))

	colors := fieldBlock(t, b, "colors")
	subs := colors.SubBlocks()
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].Tag)
	assert.Equal(t, "rgb", subs[0].Tag.Text)

	zones := fieldBlock(t, b, "zones")
	require.NotNil(t, zones.Tag)
	assert.Equal(t, "LIST", zones.Tag.Text)
	assert.Equal(t, []string{"z1", "z2"}, valueTexts(zones.ItemValues()))

	// An unknown word before `{` is an ordinary value, not a tag.
	assert.Equal(t, "foo", fieldValue(t, b, "plain"))
	rootSubs := b.SubBlocks()
	require.Len(t, rootSubs, 1)
	assert.Nil(t, rootSubs[0].Tag)
}

func TestParseLooseTaggedBlock(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "hsv { 0.1 0.2 0.3 }\n")
	assert.Empty(t, messages(rep))

	subs := b.SubBlocks()
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].Tag)
	assert.Equal(t, "hsv", subs[0].Tag.Text)
	assert.Empty(t, b.ItemValues())
}

func TestParseReaderVariables(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
@pi = 3.14
@copy = @pi
radius = @pi
twice = @copy
`)
	assert.Empty(t, messages(rep))

	assert.Equal(t, "3.14", fieldValue(t, b, "radius"))
	assert.Equal(t, "3.14", fieldValue(t, b, "twice"))
	// Definitions do not become fields.
	assert.False(t, b.HasKey("@pi"))
}

func TestParseReaderVariableScopedToFile(t *testing.T) {
	rep := sink()
	parseStr(rep, "@pi = 3.14\n")
	b := parseStr(rep, "x = @pi\n")

	assert.Equal(t, []string{"reader variable @pi not defined"}, messages(rep))
	assert.Equal(t, "@pi", fieldValue(t, b, "x"))
}

func TestParseReaderVariableErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msgs    []string
	}{
		{
			"redefined",
			"@x = 1\n@x = 2\ny = @x\n",
			[]string{"`x` is already defined as a reader variable"},
		},
		{
			"bad name",
			"@9lives = 1\n",
			[]string{"reader variable names must start with an ascii letter"},
		},
		{
			"wrong comparator",
			"@pi == 3\n",
			[]string{"expected `pi =`"},
		},
		{
			"missing comparator",
			"@pi 3\n",
			[]string{"expected `pi =`"},
		},
		{
			"undefined reference",
			"a = @nope\n",
			[]string{"reader variable @nope not defined"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := sink()
			parseStr(rep, tt.content)
			assert.Equal(t, tt.msgs, messages(rep))
		})
	}
}

func TestParseReaderVariableKeepsFirst(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "@x = 1\n@x = 2\ny = @x\n")

	rep.Take()
	assert.Equal(t, "1", fieldValue(t, b, "y"))
}

func TestParseReaderVariableWrongCmpStillDefines(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "@pi == 3\nr = @pi\n")

	assert.Equal(t, []string{"expected `pi =`"}, messages(rep))
	assert.Equal(t, "3", fieldValue(t, b, "r"))
}

func TestParseCalc(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
@pi = 3
@h = 0.5
x = @[ pi * 2 ]
y = @[ ( pi + 1 ) / 2 ]
z = @[ -pi ]
w = @[h/2]
`)
	assert.Empty(t, messages(rep))

	assert.Equal(t, "6", fieldValue(t, b, "x"))
	assert.Equal(t, "2", fieldValue(t, b, "y"))
	assert.Equal(t, "-3", fieldValue(t, b, "z"))
	assert.Equal(t, "0.25", fieldValue(t, b, "w"))
}

func TestParseCalcErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
		field   string
		value   string
	}{
		{
			"undefined variable",
			"x = @[ q ]\n",
			"reader variable q not defined",
			"x", "0",
		},
		{
			"non-numeric variable",
			"@s = hello\nx = @[ s ]\n",
			"expected reader variable `s` to be numeric",
			"x", "0",
		},
		{
			"dividing by zero",
			"x = @[ 1 / 0 ]\n",
			"dividing by zero",
			"x", "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := sink()
			b := parseStr(rep, tt.content)
			assert.Contains(t, messages(rep), tt.msg)
			assert.Equal(t, tt.value, fieldValue(t, b, tt.field))
		})
	}
}

func TestParseMacroCapture(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
my_effect = {
	add_gold = $AMOUNT$
	add_piety = $AMOUNT$
	scale = $FACTOR$
}
`)
	assert.Empty(t, messages(rep))

	blk := fieldBlock(t, b, "my_effect")
	assert.True(t, blk.HasMacroParms())
	assert.Equal(t, []string{"AMOUNT", "FACTOR"}, blk.MacroParms())

	// The unsubstituted parameters read back as written.
	assert.Equal(t, "$AMOUNT$", fieldValue(t, blk, "add_gold"))
}

func TestParseMacroCaptureNested(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
outer = {
	inner = {
		x = $P$
	}
}
`)
	assert.Empty(t, messages(rep))

	outer := fieldBlock(t, b, "outer")
	assert.True(t, outer.HasMacroParms())
	assert.Equal(t, []string{"P"}, outer.MacroParms())
	inner := fieldBlock(t, outer, "inner")
	assert.True(t, inner.HasMacroParms())
}

func TestParseMacroTopLevel(t *testing.T) {
	rep := sink()
	parseStr(rep, "$X$ = 1\n")

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "$-substitutions only work inside blocks", reps[0].Msg)
	assert.Equal(t, report.Macro, reps[0].Key)
}

func TestParseCoalescedMacroKey(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
e = {
	tradition_$REGION$_culture = yes
	v = pre$X$
}
`)
	assert.Empty(t, messages(rep))

	e := fieldBlock(t, b, "e")
	assert.True(t, e.HasMacroParms())
	assert.Equal(t, []string{"REGION", "X"}, e.MacroParms())

	fields := e.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "tradition_$REGION$_culture", fields[0].Key.Text)
	assert.Equal(t, "pre$X$", fieldValue(t, e, "v"))
}

func TestParseQuotedValuesStaySeparate(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `a = "x""y"`)
	assert.Empty(t, messages(rep))

	assert.Equal(t, "x", fieldValue(t, b, "a"))
	assert.Equal(t, []string{"y"}, valueTexts(b.ItemValues()))
}

func TestParseMacroExpansion(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
my_effect = {
	add_gold = $AMOUNT$
}
`)
	blk := fieldBlock(t, b, "my_effect")
	require.True(t, blk.HasMacroParms())

	callLoc := token.Loc{Kind: token.Mod, Line: 40, Column: 9}
	argLoc := token.Loc{Kind: token.Mod, Line: 40, Column: 30}
	args := []ast.MacroArg{{Param: "AMOUNT", Value: token.NewToken("500", argLoc)}}

	expanded := parser.ExpandMacro(blk, args, callLoc, nil, rep)
	require.NotNil(t, expanded)
	assert.Empty(t, messages(rep))

	v, ok := expanded.GetFieldValue("add_gold")
	require.True(t, ok)
	assert.Equal(t, "500", v.Text)
	// Locations inside an expansion link back to the invocation.
	assert.NotEqual(t, token.NoMacro, v.Loc.Link)
	key, _ := expanded.GetKey("add_gold")
	assert.NotEqual(t, token.NoMacro, key.Loc.Link)
}

func TestParseMacroExpansionNoSource(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "plain = { a = 1 }\n")
	blk := fieldBlock(t, b, "plain")
	require.False(t, blk.HasMacroParms())

	expanded := parser.ExpandMacro(blk, nil, token.Loc{Kind: token.Mod, Line: 1, Column: 1}, nil, rep)
	assert.Nil(t, expanded)
	assert.Empty(t, messages(rep))
}

func TestParseMacroExpansionUsesLocalValues(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
@amount = 25
my_effect = {
	add_gold = @amount
	add_piety = $BONUS$
}
`)
	blk := fieldBlock(t, b, "my_effect")
	require.True(t, blk.HasMacroParms())

	callLoc := token.Loc{Kind: token.Mod, Line: 7, Column: 1}
	args := []ast.MacroArg{{Param: "BONUS", Value: token.NewToken("10", callLoc)}}
	expanded := parser.ExpandMacro(blk, args, callLoc, nil, rep)
	require.NotNil(t, expanded)
	assert.Empty(t, messages(rep))

	// @amount was baked in when the macro was captured, so the expansion
	// resolves it without the defining file's memory.
	assert.Equal(t, "25", fieldValue(t, expanded, "add_gold"))
	assert.Equal(t, "10", fieldValue(t, expanded, "add_piety"))
}

func TestParseDefineInsert(t *testing.T) {
	rep := sink()
	b := parseStr(rep, `
@:define costs { gold = 100 piety = 50 }
a = { @:insert costs }
b = @:insert costs
`)
	assert.Empty(t, messages(rep))

	a := fieldBlock(t, b, "a")
	assert.Equal(t, "100", fieldValue(t, a, "gold"))
	assert.Equal(t, "50", fieldValue(t, a, "piety"))

	bb := fieldBlock(t, b, "b")
	assert.Equal(t, "100", fieldValue(t, bb, "gold"))

	// The definition itself does not appear in the tree.
	assert.Len(t, b.Fields(), 2)
	assert.Empty(t, b.SubBlocks())
	assert.Empty(t, b.ItemValues())
}

func TestParseDefineValue(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "@:define rate 0.2\nx = @rate\n")
	assert.Empty(t, messages(rep))

	assert.Equal(t, "0.2", fieldValue(t, b, "x"))
}

func TestParseDefineEquals(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "@:define rate = 0.2\nx = @rate\n")
	assert.Empty(t, messages(rep))

	assert.Equal(t, "0.2", fieldValue(t, b, "x"))
}

func TestParseDefineBlockRedefined(t *testing.T) {
	rep := sink()
	parseStr(rep, "@:define dup { a = 1 }\n@:define dup { a = 2 }\n")

	assert.Equal(t, []string{"`dup` is already defined as a reader block"}, messages(rep))
}

func TestParseInsertUndefined(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a = { @:insert nope }\n")

	assert.Equal(t, []string{"reader block nope not defined"}, messages(rep))
	a := fieldBlock(t, b, "a")
	assert.Empty(t, a.Items)
}

func TestParseRegisterVariable(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "@:register_variable pi = 3\nx = @pi\n")

	// The scanner flags the directive, but the definition still works.
	assert.Equal(t,
		[]string{"`@:register_variable` is not yet supported by the game"},
		messages(rep))
	assert.Equal(t, "3", fieldValue(t, b, "x"))
}

func TestParseLoadVariable(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "@pi = 3\nx = @:load_variable @pi\n")

	assert.Equal(t,
		[]string{"`@:load_variable` is not yet supported by the game"},
		messages(rep))
	assert.Equal(t, "3", fieldValue(t, b, "x"))
}

func TestParseLogDirective(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "@:log @whatever\na = 1\n")
	assert.Empty(t, messages(rep))

	// The logged value is consumed without resolution.
	assert.Equal(t, "1", fieldValue(t, b, "a"))
	assert.Empty(t, b.ItemValues())
}

func TestParseDirectiveUnexpectedEOF(t *testing.T) {
	rep := sink()
	parseStr(rep, "@:define nm")

	reps := rep.Take()
	require.Len(t, reps, 1)
	assert.Equal(t, "unexpected end of file", reps[0].Msg)
	assert.Equal(t, uint32(0), reps[0].Primary().Loc.Line)
}

func TestParseFileExport(t *testing.T) {
	rep := sink()
	global := lexer.NewMemory()

	parser.ParseFileExport(token.Loc{Kind: token.Mod}, "@base = 10\n@:define costs { gold = @base }\n", global, rep)
	b := parser.ParseFile(token.Loc{Kind: token.Mod}, "x = @base\ny = { @:insert costs }\n", global, rep)
	assert.Empty(t, messages(rep))

	assert.Equal(t, "10", fieldValue(t, b, "x"))
	y := fieldBlock(t, b, "y")
	assert.Equal(t, "10", fieldValue(t, y, "gold"))
}

func TestParseInternal(t *testing.T) {
	rep := sink()
	b := parser.ParseInternal("builtin defines", "NCharacter = { AGE = 16 }", rep)
	assert.Empty(t, messages(rep))

	assert.Equal(t, token.Internal, b.Loc.Kind)
	nc := fieldBlock(t, b, "NCharacter")
	assert.Equal(t, "16", fieldValue(t, nc, "AGE"))
}

func TestParseSemicolonsAndComments(t *testing.T) {
	rep := sink()
	b := parseStr(rep, "a = 1; # trailing comment\nb = 2\n")
	assert.Empty(t, messages(rep))

	assert.Equal(t, "1", fieldValue(t, b, "a"))
	assert.Equal(t, "2", fieldValue(t, b, "b"))
}
