// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package data

import (
	"strings"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/common"
	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// readerExportHandler runs before every other handler. Files under the
// privileged directory promote their reader definitions into the global
// memory, so the parse must happen on the sequential HandleFile side;
// LoadFile only warms the content cache.
type readerExportHandler struct {
	d *Everything
}

func (h *readerExportHandler) Subpath() string { return "common/reader_export/" }

func (h *readerExportHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	if !strings.HasSuffix(e.Path(), ".txt") {
		return nil
	}
	content, ok := fset.ReadUTF8(e, true)
	if !ok {
		return nil
	}
	return content
}

func (h *readerExportHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	if _, ok := loaded.(string); !ok {
		return
	}
	h.d.fset.ParseFileExport(e, h.d.memory)
}

func (h *readerExportHandler) Finalize() {}

// blockHandler loads one kind whose definitions are all `key = { ... }`
// at top level, the common shape of the common/ directories. build makes
// the per-entry validator; it may return nil for kinds checked elsewhere.
type blockHandler struct {
	d     *Everything
	kind  item.Kind
	build func(key token.Token, block *ast.Block) ItemValidator
}

func newBlockHandler(d *Everything, kind item.Kind, build func(key token.Token, block *ast.Block) ItemValidator) *blockHandler {
	return &blockHandler{d: d, kind: kind, build: build}
}

func (h *blockHandler) Subpath() string { return h.kind.Subpath() }

func (h *blockHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	if !strings.HasSuffix(e.Path(), ".txt") {
		return nil
	}
	return fset.ParseFile(e, h.d.memory)
}

func (h *blockHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	block, _ := loaded.(*ast.Block)
	if block == nil {
		return
	}
	for _, def := range block.DrainDefinitionsWarn(h.d.rep) {
		// An item named after a control-flow keyword almost always means a
		// misplaced brace in the definition above it.
		if common.BannedNames[def.Key.Text] {
			h.d.rep.Err(report.ParseError).
				Msgf("`%s` is reserved and cannot name a %s; check the braces of the previous definition", def.Key, h.kind.Display()).
				Loc(def.Key).Push()
			continue
		}
		h.d.db.Add(h.kind, def.Key, def.Block, h.build(def.Key, def.Block))
	}
}

func (h *blockHandler) Finalize() {}

// scriptValueHandler is the one common/ kind whose definitions may be a
// bare number or chain as well as a block, so it cannot share the
// definitions-only drain.
type scriptValueHandler struct {
	d *Everything
}

func (h *scriptValueHandler) Subpath() string { return item.ScriptValue.Subpath() }

func (h *scriptValueHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	if !strings.HasSuffix(e.Path(), ".txt") {
		return nil
	}
	return fset.ParseFile(e, h.d.memory)
}

func (h *scriptValueHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	block, _ := loaded.(*ast.Block)
	if block == nil {
		return
	}
	for _, f := range block.FieldsWarn(h.d.rep) {
		if !f.ExpectEq(h.d.rep) {
			continue
		}
		blk, _ := f.BV.Block()
		h.d.db.Add(item.ScriptValue, f.Key, blk, &scriptValue{key: f.Key, bv: f.BV})
	}
}

func (h *scriptValueHandler) Finalize() {}
