// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token

import "sync"

// PathIdx is a compact handle to an interned file path.
type PathIdx uint32

// PathTable interns file paths for the lifetime of a run so that every Loc
// can carry a 4-byte index instead of two strings. Each entry keeps both the
// path relative to its overlay root (what reports print) and the absolute
// path on disk (what the file reader opens).
type PathTable struct {
	mu      sync.RWMutex
	local   []string
	full    []string
	indices map[string]PathIdx // keyed by full path
}

// Paths is the process-wide table. The zero index is a reserved "unknown
// file" entry so that a zero Loc still resolves to something printable.
var Paths = NewPathTable()

// NewPathTable returns an empty table with the reserved zero entry.
func NewPathTable() *PathTable {
	t := &PathTable{indices: make(map[string]PathIdx)}
	t.local = append(t.local, "?")
	t.full = append(t.full, "?")
	return t
}

// Store interns a (local, full) path pair and returns its index. Storing the
// same full path again returns the existing index.
func (t *PathTable) Store(local, full string) PathIdx {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.indices[full]; ok {
		return idx
	}
	idx := PathIdx(len(t.local))
	t.local = append(t.local, local)
	t.full = append(t.full, full)
	t.indices[full] = idx
	return idx
}

// LocalPath returns the interned path relative to its overlay root.
func (t *PathTable) LocalPath(idx PathIdx) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(idx) >= len(t.local) {
		return "?"
	}
	return t.local[idx]
}

// FullPath returns the interned absolute path.
func (t *PathTable) FullPath(idx PathIdx) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(idx) >= len(t.full) {
		return "?"
	}
	return t.full[idx]
}

// Len returns the number of interned paths, including the reserved entry.
func (t *PathTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.local)
}
