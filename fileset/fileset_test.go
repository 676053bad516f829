// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package fileset_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

func newStore() *report.Reports {
	return report.New(report.OutputConfig{
		Writer: io.Discard,
		Filter: &report.Filter{ShowVanilla: true, ShowLoadedMods: true},
	})
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestOverlayShadowing(t *testing.T) {
	vanilla := t.TempDir()
	writeTree(t, vanilla, map[string]string{
		"common/decisions/base.txt":   "vanilla",
		"common/defines/graphics.txt": "vanilla",
	})
	// A loaded mod that ships the vanilla tree unchanged plus one override.
	loaded := filepath.Join(t.TempDir(), "loaded")
	require.NoError(t, cp.CopyAll(loaded, vanilla))
	writeTree(t, loaded, map[string]string{
		"common/decisions/base.txt": "loaded mod",
	})
	mod := t.TempDir()
	writeTree(t, mod, map[string]string{
		"common/decisions/base.txt": "the mod",
		"common/decisions/mine.txt": "the mod",
	})

	fset := fileset.New(newStore(), 1<<20)
	fset.AddRoot(vanilla, token.Vanilla)
	fset.AddRoot(loaded, token.LoadedMod(0))
	fset.AddRoot(mod, token.Mod)
	fset.Finish()

	e, ok := fset.Winning("common/decisions/base.txt")
	require.True(t, ok)
	assert.Equal(t, token.Mod, e.Kind())
	content, ok := fset.ReadUTF8(e, false)
	require.True(t, ok)
	assert.Equal(t, "the mod", content)

	e, ok = fset.Winning("common/defines/graphics.txt")
	require.True(t, ok)
	assert.Equal(t, token.LoadedMod(0), e.Kind())

	e, ok = fset.Winning("common/decisions/mine.txt")
	require.True(t, ok)
	assert.Equal(t, token.Mod, e.Kind())

	_, ok = fset.Winning("common/decisions/absent.txt")
	assert.False(t, ok)

	// Shadowed copies stay in Entries for provenance.
	assert.Len(t, fset.Entries(), 6)
}

func TestReplacePaths(t *testing.T) {
	vanilla := t.TempDir()
	writeTree(t, vanilla, map[string]string{
		"common/decisions/base.txt": "vanilla",
		"events/base_events.txt":    "vanilla",
	})
	mod := t.TempDir()
	writeTree(t, mod, map[string]string{
		"common/decisions/mine.txt": "the mod",
	})

	fset := fileset.New(newStore(), 1<<20)
	fset.AddReplacePaths([]string{"common/decisions"})
	fset.AddRoot(vanilla, token.Vanilla)
	fset.AddRoot(mod, token.Mod)
	fset.Finish()

	assert.False(t, fset.Exists("common/decisions/base.txt"))
	assert.True(t, fset.Exists("events/base_events.txt"))
	assert.True(t, fset.Exists("common/decisions/mine.txt"))
}

func TestVerifyExistsAndUnused(t *testing.T) {
	mod := t.TempDir()
	writeTree(t, mod, map[string]string{
		"gfx/icons/feast.dds":       "",
		"common/decisions/used.txt": "x",
		"common/decisions/idle.txt": "x",
	})
	rep := newStore()
	fset := fileset.New(rep, 1<<20)
	fset.AddRoot(mod, token.Mod)
	fset.Finish()

	ref := token.NewToken("ref", token.Loc{})
	assert.True(t, fset.VerifyExists("gfx/icons/feast.dds", ref))
	assert.False(t, fset.VerifyExists("gfx/icons/missing.dds", ref))
	fset.MarkUsed("common/decisions/used.txt")

	unused := fset.UnusedModFiles("common/decisions/")
	require.Len(t, unused, 1)
	assert.Equal(t, "common/decisions/idle.txt", unused[0].Path())

	reports := rep.Take()
	require.Len(t, reports, 1)
	assert.Equal(t, report.MissingFile, reports[0].Key)
	assert.Contains(t, reports[0].Msg, "gfx/icons/missing.dds does not exist")
}

func TestReadCsv(t *testing.T) {
	mod := t.TempDir()
	writeTree(t, mod, map[string]string{
		"map_data/definition.csv": "ProvID;Red;Green;Blue;Name;x\n" +
			"# a comment\n" +
			"\n" +
			"1;42;10;10;prov_a;x\r\n" +
			"2;50;10;10;prov_b;\n",
	})
	fset := fileset.New(newStore(), 1<<20)
	fset.AddRoot(mod, token.Mod)
	fset.Finish()

	e, ok := fset.Winning("map_data/definition.csv")
	require.True(t, ok)
	rows := fset.ReadCsv(e, 1)
	require.Len(t, rows, 2)

	require.Len(t, rows[0], 6)
	assert.Equal(t, "1", rows[0][0].Text)
	assert.Equal(t, "prov_a", rows[0][4].Text)
	assert.Equal(t, uint32(4), rows[0][0].Loc.Line)
	assert.Equal(t, uint16(1), rows[0][0].Loc.Column)
	assert.Equal(t, uint16(3), rows[0][1].Loc.Column)

	// The trailing empty cell is kept so field-count checks see it.
	require.Len(t, rows[1], 6)
	assert.Equal(t, "", rows[1][5].Text)
}

// pathCollector records which files a handler pass visits.
type pathCollector struct {
	paths []string
}

func (c *pathCollector) Subpath() string { return "common/" }
func (c *pathCollector) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	return e.Path()
}
func (c *pathCollector) HandleFile(e fileset.Entry, loaded interface{}) {
	c.paths = append(c.paths, loaded.(string))
}
func (c *pathCollector) Finalize() {}

func TestHandleVisitsWinnersInOrder(t *testing.T) {
	vanilla := t.TempDir()
	writeTree(t, vanilla, map[string]string{
		"common/decisions/b.txt": "vanilla",
		"events/base_events.txt": "vanilla",
	})
	mod := t.TempDir()
	writeTree(t, mod, map[string]string{
		"common/decisions/b.txt": "the mod",
		"common/decisions/a.txt": "the mod",
		"common/bad name.txt":    "the mod",
	})
	rep := newStore()
	fset := fileset.New(rep, 1<<20)
	fset.AddRoot(vanilla, token.Vanilla)
	fset.AddRoot(mod, token.Mod)
	fset.Finish()

	c := &pathCollector{}
	require.NoError(t, fset.Handle(context.Background(), c))
	assert.Equal(t, []string{
		"common/bad name.txt",
		"common/decisions/a.txt",
		"common/decisions/b.txt",
	}, c.paths)

	reports := rep.Take()
	require.Len(t, reports, 1)
	assert.Equal(t, report.Filename, reports[0].Key)
	assert.Contains(t, reports[0].Msg, "contains a space")
}

func TestParseModFile(t *testing.T) {
	userdir := t.TempDir()
	descriptor := filepath.Join(userdir, "mod", "feastpack.mod")
	writeTree(t, userdir, map[string]string{
		"mod/feastpack.mod": "\uFEFF" + `name = "Feast Pack"
version = "1.0"
supported_version = "1.12.*"
path = "mod/feastpack"
replace_path = "common/decisions"
replace_path = "events"
`,
	})
	rep := newStore()
	mf, err := fileset.ParseModFile(descriptor, rep)
	require.NoError(t, err)
	assert.Equal(t, "Feast Pack", mf.Name)
	assert.Equal(t, "1.0", mf.Version)
	assert.Equal(t, "1.12.*", mf.Supported)
	assert.Equal(t, []string{"common/decisions", "events"}, mf.ReplacePaths)
	assert.Equal(t, filepath.Join(userdir, "mod", "feastpack"), mf.ModRoot(descriptor))
	assert.Empty(t, rep.Take())
}

func TestParseModFileDefaults(t *testing.T) {
	dir := t.TempDir()
	descriptor := filepath.Join(dir, "descriptor.mod")
	require.NoError(t, os.WriteFile(descriptor, []byte("version = \"3\"\n"), 0o644))
	rep := newStore()
	mf, err := fileset.ParseModFile(descriptor, rep)
	require.NoError(t, err)
	// No path field: the mod lives next to its descriptor.
	assert.Equal(t, dir, mf.ModRoot(descriptor))

	reports := rep.Take()
	require.Len(t, reports, 1)
	assert.Equal(t, report.Packaging, reports[0].Key)
	assert.Contains(t, reports[0].Msg, "no `name` field")

	_, err = fileset.ParseModFile(filepath.Join(dir, "missing.mod"), rep)
	assert.Error(t, err)
}
