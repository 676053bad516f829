// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

func tok(text string, line uint32, col uint16) token.Token {
	return token.NewToken(text, token.Loc{Kind: token.Mod, Line: line, Column: col})
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

func TestLastFieldWins(t *testing.T) {
	b := ast.New(token.Loc{})
	b.AddField(tok("cost", 1, 1), ast.Eq, ast.ValueBV(tok("10", 1, 8)))
	b.AddField(tok("cost", 2, 1), ast.Eq, ast.ValueBV(tok("25", 2, 8)))
	b.AddField(tok("ai_chance", 3, 1), ast.Eq, ast.BlockBV(ast.New(token.Loc{Line: 3})))

	v, ok := b.GetFieldValue("cost")
	require.True(t, ok)
	assert.Equal(t, "25", v.Text)

	n, ok := b.GetFieldInteger("cost")
	require.True(t, ok)
	assert.Equal(t, int64(25), n)

	assert.True(t, b.FieldValueIs("cost", "25"))
	assert.False(t, b.FieldValueIs("cost", "10"))

	// A block-shaped field does not satisfy a value getter.
	_, ok = b.GetFieldValue("ai_chance")
	assert.False(t, ok)
	_, ok = b.GetFieldBlock("ai_chance")
	assert.True(t, ok)

	assert.Equal(t, 2, b.CountKeys("cost"))
	assert.Len(t, b.GetFieldValues("cost"), 2)
}

func TestFieldShapeGetters(t *testing.T) {
	b := ast.New(token.Loc{})
	b.AddField(tok("enabled", 1, 1), ast.Eq, ast.ValueBV(tok("yes", 1, 11)))
	b.AddField(tok("start", 2, 1), ast.Eq, ast.ValueBV(tok("1066.9.15", 2, 9)))

	v, ok := b.GetFieldBool("enabled")
	require.True(t, ok)
	assert.True(t, v)

	d, ok := b.GetFieldDate("start")
	require.True(t, ok)
	assert.Equal(t, token.Date{Year: 1066, Month: 9, Day: 15}, d)
}

func TestFieldList(t *testing.T) {
	list1 := ast.New(token.Loc{Line: 1})
	list1.AddValue(tok("a", 1, 9))
	list1.AddValue(tok("b", 1, 11))
	list2 := ast.New(token.Loc{Line: 2})
	list2.AddValue(tok("c", 2, 9))

	b := ast.New(token.Loc{})
	b.AddField(tok("traits", 1, 1), ast.Eq, ast.BlockBV(list1))
	b.AddField(tok("traits", 2, 1), ast.Eq, ast.BlockBV(list2))

	last, ok := b.GetFieldList("traits")
	require.True(t, ok)
	require.Len(t, last, 1)
	assert.Equal(t, "c", last[0].Text)

	all := b.GetMultiFieldList("traits")
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Text)
	assert.Equal(t, "c", all[2].Text)
}

func TestHasKeyRecursive(t *testing.T) {
	inner := ast.New(token.Loc{Line: 2})
	inner.AddField(tok("limit", 3, 2), ast.Eq, ast.ValueBV(tok("yes", 3, 10)))

	b := ast.New(token.Loc{})
	b.AddField(tok("if", 2, 1), ast.Eq, ast.BlockBV(inner))

	assert.False(t, b.HasKey("limit"))
	assert.True(t, b.HasKeyRecursive("limit"))
	assert.False(t, b.HasKeyRecursive("trigger"))
}

func TestEquivalentIgnoresLocations(t *testing.T) {
	mk := func(line uint32) *ast.Block {
		b := ast.New(token.Loc{Line: line})
		b.AddField(tok("key", line, 1), ast.Eq, ast.ValueBV(tok("value", line, 7)))
		sub := ast.New(token.Loc{Line: line + 1})
		sub.AddValue(tok("loose", line+1, 2))
		b.AddBlock(sub)
		return b
	}
	assert.True(t, mk(1).Equivalent(mk(100)))

	other := mk(1)
	other.AddValue(tok("extra", 5, 1))
	assert.False(t, mk(1).Equivalent(other))

	reordered := ast.New(token.Loc{})
	sub := ast.New(token.Loc{})
	sub.AddValue(tok("loose", 1, 1))
	reordered.AddBlock(sub)
	reordered.AddField(tok("key", 2, 1), ast.Eq, ast.ValueBV(tok("value", 2, 7)))
	assert.False(t, mk(1).Equivalent(reordered))
}

func TestEquivalentComparator(t *testing.T) {
	a := ast.New(token.Loc{})
	a.AddField(tok("x", 1, 1), ast.Less, ast.ValueBV(tok("5", 1, 5)))
	b := ast.New(token.Loc{})
	b.AddField(tok("x", 1, 1), ast.Greater, ast.ValueBV(tok("5", 1, 5)))
	assert.False(t, a.Equivalent(b))
}

func TestCondenseTag(t *testing.T) {
	b := ast.New(token.Loc{})
	b.AddField(tok("color1", 1, 1), ast.Eq, ast.ValueBV(tok("list", 1, 10)))
	b.AddValue(tok("colorlist", 1, 15))
	b.AddField(tok("color2", 2, 1), ast.Eq, ast.ValueBV(tok("red", 2, 10)))

	out := b.CondenseTag("list")
	require.Len(t, out.Items, 2)

	v, ok := out.GetFieldValue("color1")
	require.True(t, ok)
	assert.Equal(t, "list\"colorlist", v.Text)

	v, ok = out.GetFieldValue("color2")
	require.True(t, ok)
	assert.Equal(t, "red", v.Text)
}

func TestCondenseTagRecursesAndKeepsTrailer(t *testing.T) {
	inner := ast.New(token.Loc{Line: 2})
	inner.AddField(tok("color", 2, 2), ast.Eq, ast.ValueBV(tok("list", 2, 10)))
	inner.AddValue(tok("inner_list", 2, 15))

	b := ast.New(token.Loc{})
	b.AddField(tok("sub", 1, 1), ast.Eq, ast.BlockBV(inner))
	// A trailing tag with nothing after it stays a plain assignment.
	b.AddField(tok("color9", 3, 1), ast.Eq, ast.ValueBV(tok("list", 3, 10)))

	out := b.CondenseTag("list")
	sub, ok := out.GetFieldBlock("sub")
	require.True(t, ok)
	v, ok := sub.GetFieldValue("color")
	require.True(t, ok)
	assert.Equal(t, "list\"inner_list", v.Text)

	v, ok = out.GetFieldValue("color9")
	require.True(t, ok)
	assert.Equal(t, "list", v.Text)
}

func TestGetFieldAtDate(t *testing.T) {
	base := ast.New(token.Loc{})
	base.AddField(tok("holder", 1, 1), ast.Eq, ast.ValueBV(tok("0", 1, 10)))

	d1000 := ast.New(token.Loc{Line: 2})
	d1000.AddField(tok("holder", 2, 2), ast.Eq, ast.ValueBV(tok("alice", 2, 11)))
	base.AddField(tok("1000.1.1", 2, 1), ast.Eq, ast.BlockBV(d1000))

	d1100 := ast.New(token.Loc{Line: 3})
	d1100.AddField(tok("holder", 3, 2), ast.Eq, ast.ValueBV(tok("bob", 3, 11)))
	base.AddField(tok("1100.1.1", 3, 1), ast.Eq, ast.BlockBV(d1100))

	v, ok := base.GetFieldValueAtDate("holder", token.Date{Year: 900, Month: 1, Day: 1})
	require.True(t, ok)
	assert.Equal(t, "0", v.Text)

	v, ok = base.GetFieldValueAtDate("holder", token.Date{Year: 1050, Month: 1, Day: 1})
	require.True(t, ok)
	assert.Equal(t, "alice", v.Text)

	v, ok = base.GetFieldValueAtDate("holder", token.Date{Year: 1200, Month: 1, Day: 1})
	require.True(t, ok)
	assert.Equal(t, "bob", v.Text)
}

func TestMacroParms(t *testing.T) {
	b := ast.New(token.Loc{})
	b.Source = []ast.MacroComponent{
		{Kind: ast.MacroSource, Token: tok("scope:", 1, 1)},
		{Kind: ast.MacroParam, Token: tok("WHO", 1, 8)},
		{Kind: ast.MacroSource, Token: tok(" = { gold > ", 1, 12)},
		{Kind: ast.MacroParam, Token: tok("AMOUNT", 1, 25)},
		{Kind: ast.MacroParam, Token: tok("WHO", 2, 8)},
		{Kind: ast.MacroSource, Token: tok(" }", 2, 12)},
	}
	assert.Equal(t, []string{"AMOUNT", "WHO"}, b.MacroParms())
	assert.True(t, b.HasMacroParms())
	assert.False(t, ast.New(token.Loc{}).HasMacroParms())
}

func TestExpandMacroTokens(t *testing.T) {
	token.Links.Reset()
	b := ast.New(token.Loc{})
	b.Source = []ast.MacroComponent{
		{Kind: ast.MacroSource, Token: tok("gold > ", 1, 1)},
		{Kind: ast.MacroParam, Token: tok("AMOUNT", 1, 9)},
	}

	callsite := token.Loc{Kind: token.Mod, Line: 40, Column: 3}
	arg := tok("100", 40, 20)
	content := b.ExpandMacroTokens([]ast.MacroArg{{Param: "AMOUNT", Value: arg}}, callsite)
	require.Len(t, content, 2)

	assert.Equal(t, "gold > ", content[0].Text)
	linked, ok := content[0].Loc.Linked()
	require.True(t, ok)
	assert.Equal(t, callsite.Line, linked.Line)

	// The substituted argument sits on the parameter's `$` and links back
	// to where its text was written.
	assert.Equal(t, "100", content[1].Text)
	assert.Equal(t, uint32(1), content[1].Loc.Line)
	assert.Equal(t, uint16(8), content[1].Loc.Column)
	linked, ok = content[1].Loc.Linked()
	require.True(t, ok)
	assert.Equal(t, uint32(40), linked.Line)
	assert.Equal(t, uint16(20), linked.Column)

	assert.Nil(t, ast.New(token.Loc{}).ExpandMacroTokens(nil, callsite))
}

func TestExpectHelpers(t *testing.T) {
	r := sink()
	b := ast.New(token.Loc{})
	b.AddField(tok("key", 1, 1), ast.Less, ast.ValueBV(tok("5", 1, 7)))

	f := b.Fields()[0]
	assert.False(t, f.ExpectEq(r))
	assert.True(t, f.IsEqQeq() == false && f.Describe() == "comparison")

	_, ok := f.BV.ExpectBlock(r)
	assert.False(t, ok)

	msgs := messages(r)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs, "expected `key =`, found `<`")
	assert.Contains(t, msgs, "expected block, found value")
}

func TestWarnIterators(t *testing.T) {
	r := sink()
	b := ast.New(token.Loc{})
	b.AddField(tok("good", 1, 1), ast.Eq, ast.BlockBV(ast.New(token.Loc{Line: 1})))
	b.AddValue(tok("loose", 2, 1))
	b.AddField(tok("plain", 3, 1), ast.Eq, ast.ValueBV(tok("v", 3, 9)))

	defs := b.DefinitionsWarn(r)
	require.Len(t, defs, 1)
	assert.Equal(t, "good", defs[0].Key.Text)

	msgs := messages(r)
	assert.Contains(t, msgs, "unexpected value")
	assert.Contains(t, msgs, "expected definition, found assignment")
}

func TestEntries(t *testing.T) {
	r := sink()
	b := ast.New(token.Loc{})
	b.AddField(tok("a", 1, 1), ast.Eq, ast.ValueBV(tok("1", 1, 5)))
	b.AddField(tok("b", 2, 1), ast.QuestionEq, ast.ValueBV(tok("2", 2, 5)))
	b.AddField(tok("c", 3, 1), ast.Eq, ast.BlockBV(ast.New(token.Loc{Line: 3})))

	es := b.Entries()
	require.Len(t, es, 2)
	assert.Equal(t, "a", es[0].Key.Text)
	assert.Equal(t, "c", es[1].Key.Text)

	es = b.EntriesWarn(r)
	require.Len(t, es, 2)
	msgs := messages(r)
	require.Len(t, msgs, 1)
	assert.Equal(t, "expected `b =`, found `?=`", msgs[0])
}

func TestComparatorParse(t *testing.T) {
	cases := []struct {
		text string
		cmp  ast.Comparator
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
	for _, tc := range cases {
		cmp, ok := ast.ParseComparator(tc.text)
		require.True(t, ok, tc.text)
		assert.Equal(t, tc.cmp, cmp)
		assert.Equal(t, tc.text, cmp.String())
	}
	_, ok := ast.ParseComparator("=>")
	assert.False(t, ok)
}

func TestBlockString(t *testing.T) {
	b := ast.New(token.Loc{})
	sub := ast.New(token.Loc{Line: 1})
	sub.AddValue(tok("0.5", 1, 14))
	tag := tok("hsv", 1, 9)
	sub.Tag = &tag
	b.AddField(tok("color", 1, 1), ast.Eq, ast.BlockBV(sub))

	assert.Equal(t, "color = hsv {\n\t0.5\n}\n", b.String())
}
