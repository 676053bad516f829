// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/token"
)

func TestFileKindOrdering(t *testing.T) {
	order := []token.FileKind{
		token.Internal,
		token.Clausewitz,
		token.Jomini,
		token.Vanilla,
		token.Dlc(0),
		token.Dlc(9),
		token.LoadedMod(0),
		token.LoadedMod(3),
		token.Mod,
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i], "%s must rank below %s", order[i-1], order[i])
	}
}

func TestFileKindClassification(t *testing.T) {
	assert.True(t, token.Dlc(4).IsDlc())
	assert.False(t, token.LoadedMod(4).IsDlc())
	assert.True(t, token.LoadedMod(4).IsLoadedMod())
	assert.Equal(t, uint8(4), token.Dlc(4).Ordinal())
	assert.Equal(t, uint8(7), token.LoadedMod(7).Ordinal())

	assert.True(t, token.Vanilla.CountsAsVanilla())
	assert.True(t, token.Dlc(0).CountsAsVanilla())
	assert.False(t, token.Internal.CountsAsVanilla())
	assert.False(t, token.LoadedMod(0).CountsAsVanilla())
	assert.False(t, token.Mod.CountsAsVanilla())

	assert.Equal(t, "DLC03", token.Dlc(3).String())
	assert.Equal(t, "MOD", token.Mod.String())
}

func TestPathTable(t *testing.T) {
	tbl := token.NewPathTable()
	assert.Equal(t, "?", tbl.LocalPath(0))

	a := tbl.Store("common/traits/00_traits.txt", "/game/common/traits/00_traits.txt")
	b := tbl.Store("common/traits/00_traits.txt", "/mymod/common/traits/00_traits.txt")
	assert.NotEqual(t, a, b, "same local path in different roots gets distinct entries")

	again := tbl.Store("something/else.txt", "/game/common/traits/00_traits.txt")
	assert.Equal(t, a, again, "re-storing a full path returns the existing index")

	assert.Equal(t, "common/traits/00_traits.txt", tbl.LocalPath(a))
	assert.Equal(t, "/mymod/common/traits/00_traits.txt", tbl.FullPath(b))
	assert.Equal(t, "?", tbl.LocalPath(token.PathIdx(99)))
	assert.Equal(t, 3, tbl.Len())
}

func TestLinkTableRoundTrip(t *testing.T) {
	token.Links.Reset()

	_, ok := token.Links.Loc(token.NoMacro)
	assert.False(t, ok)

	site := token.Loc{Line: 12, Column: 3, Kind: token.Mod}
	ref := token.Links.Add(site)
	require.NotEqual(t, token.NoMacro, ref)

	got, ok := token.Links.Loc(ref)
	require.True(t, ok)
	assert.Equal(t, site, got)

	expanded := token.Loc{Line: 40, Link: ref}
	linked, ok := expanded.Linked()
	require.True(t, ok)
	assert.Equal(t, site, linked)

	_, ok = token.Links.Loc(ref + 1)
	assert.False(t, ok, "out-of-range reference must not resolve")

	stripped := expanded.StripLink()
	assert.Equal(t, token.NoMacro, stripped.Link)
	assert.True(t, stripped.SameFile(expanded))
}

func TestLocCompare(t *testing.T) {
	base := token.Loc{Line: 5, Column: 2}
	assert.Equal(t, 0, base.Compare(base))
	assert.Equal(t, -1, base.Compare(token.Loc{Line: 6, Column: 1}))
	assert.Equal(t, 1, base.Compare(token.Loc{Line: 5, Column: 1}))

	// The macro link never participates in ordering.
	token.Links.Reset()
	linked := base
	linked.Link = token.Links.Add(token.Loc{Line: 99})
	assert.Equal(t, 0, base.Compare(linked))

	assert.True(t, token.Loc{}.WholeFile())
	assert.False(t, base.WholeFile())
}
