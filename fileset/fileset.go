// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package fileset models the game/mod overlay: the vanilla directories, the
// DLC directories, the mods the target mod depends on, and the target mod
// itself, merged into one tree where a file of a higher layer shadows the
// same relative path in a lower layer.
//
// Handlers consume the merged tree per subpath: LoadFile runs in parallel
// over the winning entries, HandleFile then runs in lexical path order, and
// Finalize closes the pass. Decoded file contents are cached so the report
// writer and second passes do not reread from disk.
package fileset

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"golang.org/x/sync/errgroup"

	"github.com/pdxlint/pdxlint/log"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// Entry is one file of the merged tree.
type Entry struct {
	path     string // relative path, forward slashes
	kind     token.FileKind
	idx      token.PathIdx
	fullpath string
}

// Path returns the path relative to the layer root, with forward slashes.
func (e Entry) Path() string { return e.path }

// Kind returns the overlay layer the file belongs to.
func (e Entry) Kind() token.FileKind { return e.kind }

// Idx returns the file's path-table index.
func (e Entry) Idx() token.PathIdx { return e.idx }

// Fullpath returns the absolute on-disk path.
func (e Entry) Fullpath() string { return e.fullpath }

// Loc returns a whole-file location for diagnostics about the file itself.
func (e Entry) Loc() token.Loc { return token.FileLoc(e.idx, e.kind) }

// Filename returns the last path component.
func (e Entry) Filename() string {
	if i := strings.LastIndexByte(e.path, '/'); i >= 0 {
		return e.path[i+1:]
	}
	return e.path
}

// Handler consumes all files under one subpath of the merged tree.
// LoadFile calls run concurrently and must not touch shared state except
// through the fileset; HandleFile and Finalize run on one goroutine.
type Handler interface {
	Subpath() string
	LoadFile(e Entry, fset *Fileset) interface{}
	HandleFile(e Entry, loaded interface{})
	Finalize()
}

// Fileset is the merged overlay. Roots are added lowest layer first; Finish
// sorts the entries and resolves shadowing, after which the handler passes
// may run.
type Fileset struct {
	rep      *report.Reports
	content  *contentCache
	entries  []Entry
	winners  []Entry
	replaced []string
	used     mapset.Set
	finished bool
}

// New returns an empty fileset whose content cache holds up to cacheBytes
// of decoded file data.
func New(rep *report.Reports, cacheBytes int) *Fileset {
	return &Fileset{
		rep:     rep,
		content: newContentCache(cacheBytes),
		used:    mapset.NewSet(),
	}
}

// Reports returns the diagnostics sink the fileset was built with.
func (f *Fileset) Reports() *report.Reports { return f.rep }

// AddReplacePaths records directories the target mod replaces wholesale.
// Files under these relative paths in layers below Mod are dropped. Must be
// called before the lower-layer roots are added.
func (f *Fileset) AddReplacePaths(paths []string) {
	for _, p := range paths {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if p != "" {
			f.replaced = append(f.replaced, p+"/")
		}
	}
}

// AddRoot walks one layer root and records every regular file. Unreadable
// subtrees are reported and skipped, not fatal: a missing optional DLC
// directory must not kill the run.
func (f *Fileset) AddRoot(root string, kind token.FileKind) {
	root = filepath.Clean(root)
	count := 0
	err := filepath.WalkDir(root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			f.rep.Err(report.ReadError).
				Msgf("cannot read %s: %v", full, err).Push()
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		rel, rerr := filepath.Rel(root, full)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if kind < token.Mod && f.isReplaced(rel) {
			return nil
		}
		idx := token.Paths.Store(rel, full)
		f.entries = append(f.entries, Entry{path: rel, kind: kind, idx: idx, fullpath: full})
		count++
		return nil
	})
	if err != nil {
		f.rep.Err(report.ReadError).
			Msgf("cannot read %s: %v", root, err).Push()
	}
	log.Debug("Indexed layer", "root", root, "kind", kind, "files", count)
}

func (f *Fileset) isReplaced(rel string) bool {
	for _, p := range f.replaced {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

// Finish sorts the entries and resolves shadowing. Entries sort by path
// then kind; for each path only the highest kind wins.
func (f *Fileset) Finish() {
	sort.Slice(f.entries, func(i, j int) bool {
		if f.entries[i].path != f.entries[j].path {
			return f.entries[i].path < f.entries[j].path
		}
		return f.entries[i].kind < f.entries[j].kind
	})
	f.winners = f.winners[:0]
	for i, e := range f.entries {
		if i+1 < len(f.entries) && f.entries[i+1].path == e.path {
			continue
		}
		f.winners = append(f.winners, e)
	}
	f.finished = true
	log.Info("Indexed mod files", "entries", len(f.entries), "effective", len(f.winners))
}

// Entries returns every recorded entry, shadowed ones included.
func (f *Fileset) Entries() []Entry { return f.entries }

// Winning returns the effective entry for a relative path, if any.
func (f *Fileset) Winning(path string) (Entry, bool) {
	i := sort.Search(len(f.winners), func(i int) bool { return f.winners[i].path >= path })
	if i < len(f.winners) && f.winners[i].path == path {
		return f.winners[i], true
	}
	return Entry{}, false
}

// Exists reports whether a relative path exists anywhere in the overlay.
func (f *Fileset) Exists(path string) bool {
	_, ok := f.Winning(path)
	return ok
}

// VerifyExists checks a file reference from script and reports when the
// overlay has no such file.
func (f *Fileset) VerifyExists(path string, ref token.Token) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	if e, ok := f.Winning(path); ok {
		f.MarkUsed(e.path)
		return true
	}
	f.rep.Err(report.MissingFile).
		Msgf("file %s does not exist", path).Loc(ref).Push()
	return false
}

// MarkUsed records that something refers to the relative path.
func (f *Fileset) MarkUsed(path string) { f.used.Add(path) }

// UnusedModFiles returns the target mod's entries under the given subpaths
// that nothing referred to during validation.
func (f *Fileset) UnusedModFiles(subpaths ...string) []Entry {
	var out []Entry
	for _, e := range f.winners {
		if e.kind != token.Mod || f.used.Contains(e.path) {
			continue
		}
		for _, sub := range subpaths {
			if strings.HasPrefix(e.path, sub) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Handle runs one handler over the merged tree: parallel LoadFile over the
// winning entries under the handler's subpath, then HandleFile in lexical
// order, then Finalize. The error is only ever the context's.
func (f *Fileset) Handle(ctx context.Context, h Handler) error {
	sub := h.Subpath()
	var selected []Entry
	for _, e := range f.winners {
		if strings.HasPrefix(e.path, sub) {
			selected = append(selected, e)
		}
	}
	loaded := make([]interface{}, len(selected))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, e := range selected {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loaded[i] = h.LoadFile(e, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, e := range selected {
		f.checkFilename(e)
		h.HandleFile(e, loaded[i])
	}
	h.Finalize()
	return nil
}

// Characters the game's virtual file system refuses in file names.
const bannedFilenameChars = `<>:"|?*`

// checkFilename validates the names of the target mod's own files.
func (f *Fileset) checkFilename(e Entry) {
	if e.kind != token.Mod {
		return
	}
	name := e.Filename()
	if strings.ContainsAny(name, bannedFilenameChars) {
		f.rep.Err(report.Filename).
			Msgf("file name %q contains a character the game will not load", name).
			Loc(e.Loc()).Push()
	}
	if strings.ContainsRune(name, ' ') {
		f.rep.Warn(report.Filename).
			Msgf("file name %q contains a space", name).Loc(e.Loc()).Push()
	}
}
