// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package fileset

import (
	"bytes"
	"encoding/binary"
	"os"
	"unicode/utf8"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/shirou/gopsutil/mem"
	"golang.org/x/text/encoding/charmap"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/lexer"
	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// DefaultCacheBytes sizes the content cache from system memory: an eighth
// of physical RAM, clamped to [32MB, 1GB]. Vanilla trees run to several
// gigabytes of script, so more cache means fewer rereads on the second
// pass, but the lint must coexist with the user's editor and game.
func DefaultCacheBytes() int {
	const (
		min = 32 << 20
		max = 1 << 30
	)
	vm, err := mem.VirtualMemory()
	if err != nil {
		return min
	}
	n := int(vm.Total / 8)
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// contentCache holds raw file bytes keyed by path-table index. fastcache
// evicts under pressure; misses fall through to disk.
type contentCache struct {
	c *fastcache.Cache
}

func newContentCache(maxBytes int) *contentCache {
	return &contentCache{c: fastcache.New(maxBytes)}
}

func cacheKey(idx token.PathIdx) []byte {
	var k [4]byte
	binary.LittleEndian.PutUint32(k[:], uint32(idx))
	return k[:]
}

func (cc *contentCache) get(idx token.PathIdx) ([]byte, bool) {
	k := cacheKey(idx)
	if !cc.c.Has(k) {
		return nil, false
	}
	return cc.c.GetBig(nil, k), true
}

func (cc *contentCache) put(idx token.PathIdx, data []byte) {
	cc.c.SetBig(cacheKey(idx), data)
}

var utf8Bom = []byte{0xef, 0xbb, 0xbf}

// ReadRaw returns the file's bytes, through the cache.
func (f *Fileset) ReadRaw(e Entry) ([]byte, error) {
	if data, ok := f.content.get(e.idx); ok {
		return data, nil
	}
	data, err := os.ReadFile(e.fullpath)
	if err != nil {
		return nil, err
	}
	f.content.put(e.idx, data)
	return data, nil
}

// ReadUTF8 returns the file decoded as UTF-8. Script and localization
// files must start with a BOM; its absence is a diagnostic, not an error,
// and the content is used anyway. Invalid byte sequences are reported once
// and replaced.
func (f *Fileset) ReadUTF8(e Entry, wantBom bool) (string, bool) {
	raw, err := f.ReadRaw(e)
	if err != nil {
		f.rep.Err(report.ReadError).
			Msgf("cannot read file: %v", err).Loc(e.Loc()).Push()
		return "", false
	}
	if bytes.HasPrefix(raw, utf8Bom) {
		raw = raw[len(utf8Bom):]
	} else if wantBom {
		f.rep.Warn(report.Bom).
			Msg("file is missing its UTF-8 BOM").Loc(e.Loc()).Push()
	}
	if !utf8.Valid(raw) {
		f.rep.Err(report.Encoding).
			Msg("file contains invalid UTF-8; bad sequences were replaced").
			Loc(e.Loc()).Push()
		raw = bytes.ToValidUTF8(raw, []byte("�"))
	}
	return string(raw), true
}

// ReadWindows1252 returns the file decoded from Windows-1252. The map
// csv files predate the engine's move to UTF-8.
func (f *Fileset) ReadWindows1252(e Entry) (string, bool) {
	raw, err := f.ReadRaw(e)
	if err != nil {
		f.rep.Err(report.ReadError).
			Msgf("cannot read file: %v", err).Loc(e.Loc()).Push()
		return "", false
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		f.rep.Err(report.Encoding).
			Msgf("cannot decode file as Windows-1252: %v", err).Loc(e.Loc()).Push()
		return "", false
	}
	return string(decoded), true
}

// ParseFile reads and parses one script file. Reader definitions promoted
// by an earlier reader-export pass are visible through global.
func (f *Fileset) ParseFile(e Entry, global *lexer.Memory) *ast.Block {
	content, ok := f.ReadUTF8(e, true)
	if !ok {
		return nil
	}
	return parser.ParseFile(e.Loc(), content, global, f.rep)
}

// ParseFileExport is ParseFile for the reader_export directory, whose
// definitions are promoted into the global memory.
func (f *Fileset) ParseFileExport(e Entry, global *lexer.Memory) *ast.Block {
	content, ok := f.ReadUTF8(e, true)
	if !ok {
		return nil
	}
	return parser.ParseFileExport(e.Loc(), content, global, f.rep)
}
