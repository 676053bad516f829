// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package token defines the atomic units of script text: a Token is a span
// of source text tied to a Loc, and a Loc records which file, line and
// column the span came from, plus an optional link back to the macro
// invocation that produced it.
package token

import (
	"fmt"
	"sync"
)

// FileKind identifies which layer of the game/mod overlay a file belongs to.
// The high byte is the layer class, the low byte an ordinal within it (DLC
// and loaded-mod layers are numbered). Plain integer comparison is priority
// comparison: a file of a higher kind overrides a lower-kind file with the
// same relative path.
type FileKind uint16

const (
	Internal   FileKind = 0x0000 // built-in definitions shipped with the tool
	Clausewitz FileKind = 0x0100 // engine base data
	Jomini     FileKind = 0x0200 // shared Paradox framework data
	Vanilla    FileKind = 0x0300 // the game's own data files
	dlcBase    FileKind = 0x0400
	loadedBase FileKind = 0x0500
	Mod        FileKind = 0x0600 // the mod under validation
)

// Dlc returns the FileKind for the n'th DLC directory.
func Dlc(n uint8) FileKind { return dlcBase | FileKind(n) }

// LoadedMod returns the FileKind for the n'th dependency mod.
func LoadedMod(n uint8) FileKind { return loadedBase | FileKind(n) }

// IsDlc reports whether the kind is one of the DLC layers.
func (k FileKind) IsDlc() bool { return k&0xff00 == dlcBase }

// IsLoadedMod reports whether the kind is one of the dependency-mod layers.
func (k FileKind) IsLoadedMod() bool { return k&0xff00 == loadedBase }

// CountsAsVanilla reports whether the kind belongs to the game rather than
// to any mod. Reports whose every pointer lands in such files are normally
// filtered out.
func (k FileKind) CountsAsVanilla() bool {
	return k >= Clausewitz && k < loadedBase
}

// Ordinal returns the index within a DLC or loaded-mod layer.
func (k FileKind) Ordinal() uint8 { return uint8(k & 0x00ff) }

func (k FileKind) String() string {
	switch {
	case k == Internal:
		return "INTERNAL"
	case k == Clausewitz:
		return "CLAUSEWITZ"
	case k == Jomini:
		return "JOMINI"
	case k == Vanilla:
		return "VANILLA"
	case k.IsDlc():
		return fmt.Sprintf("DLC%02d", k.Ordinal())
	case k.IsLoadedMod():
		return fmt.Sprintf("MOD-DEP%02d", k.Ordinal())
	case k == Mod:
		return "MOD"
	}
	return fmt.Sprintf("FILEKIND(%#04x)", uint16(k))
}

// MacroRef indexes the macro-invocation registry, or is NoMacro for tokens
// that were not produced by macro expansion. References are 1-based so that
// the zero value of Loc means "no link".
type MacroRef int32

// NoMacro marks a Loc that did not come out of a macro expansion.
const NoMacro MacroRef = 0

// Loc is a source location: a file (by path-table index and overlay kind),
// a line and column within it, and for macro-expanded tokens a link to the
// invocation site. Line 0 means the location stands for the file as a whole.
type Loc struct {
	Path   PathIdx
	Kind   FileKind
	Line   uint32
	Column uint16
	Link   MacroRef
}

// FileLoc returns a whole-file location for the given path-table entry.
func FileLoc(idx PathIdx, kind FileKind) Loc {
	return Loc{Path: idx, Kind: kind}
}

// Location returns the Loc itself, so a bare Loc can be passed wherever a
// located value is accepted.
func (l Loc) Location() Loc { return l }

// WholeFile reports whether the location stands for the file as a whole
// rather than a specific line.
func (l Loc) WholeFile() bool { return l.Line == 0 }

// SameFile reports whether two locations are in the same file.
func (l Loc) SameFile(other Loc) bool { return l.Path == other.Path }

// StripLink returns the location with its macro link removed. Duplicate
// detection and the macro cache key use this so that re-expansions of the
// same site compare equal.
func (l Loc) StripLink() Loc {
	l.Link = NoMacro
	return l
}

// Linked returns the invocation-site location this one was expanded from,
// or false when the token did not come out of a macro.
func (l Loc) Linked() (Loc, bool) {
	return Links.Loc(l.Link)
}

// Pathname returns the location's path relative to its overlay root.
func (l Loc) Pathname() string { return Paths.LocalPath(l.Path) }

// Fullpath returns the location's absolute path on disk.
func (l Loc) Fullpath() string { return Paths.FullPath(l.Path) }

func (l Loc) String() string {
	if l.WholeFile() {
		return l.Pathname()
	}
	return fmt.Sprintf("%s:%d:%d", l.Pathname(), l.Line, l.Column)
}

// Compare orders locations by pathname, then line, then column. The macro
// link does not participate.
func (l Loc) Compare(other Loc) int {
	if l.Path != other.Path {
		a, b := l.Pathname(), other.Pathname()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		// Same relative path in different overlay layers.
		switch {
		case l.Kind < other.Kind:
			return -1
		case l.Kind > other.Kind:
			return 1
		}
		return 0
	}
	switch {
	case l.Line < other.Line:
		return -1
	case l.Line > other.Line:
		return 1
	case l.Column < other.Column:
		return -1
	case l.Column > other.Column:
		return 1
	}
	return 0
}

// LinkTable records macro invocation sites. Expanded tokens carry a MacroRef
// into the table instead of a full chain of parent locations, keeping Loc a
// small value. Entries are never removed during a run.
type LinkTable struct {
	mu   sync.RWMutex
	locs []Loc
}

// Links is the process-wide invocation registry.
var Links = new(LinkTable)

// Add records an invocation site and returns its reference.
func (t *LinkTable) Add(loc Loc) MacroRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locs = append(t.locs, loc)
	return MacroRef(len(t.locs))
}

// Loc resolves a reference. The second return is false for NoMacro or an
// out-of-range reference.
func (t *LinkTable) Loc(ref MacroRef) (Loc, bool) {
	if ref <= 0 {
		return Loc{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(ref) > len(t.locs) {
		return Loc{}, false
	}
	return t.locs[ref-1], true
}

// Reset drops all recorded invocation sites. Only tests use this.
func (t *LinkTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locs = nil
}
