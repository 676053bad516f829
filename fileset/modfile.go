// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// ModFile is a parsed .mod launcher descriptor.
type ModFile struct {
	block        *ast.Block
	Name         string
	Path         string
	Version      string
	Supported    string
	ReplacePaths []string
}

// ParseModFile reads and parses a mod descriptor. The descriptor uses the
// same script syntax as everything else. The returned error is an I/O or
// syntax-shape problem; field oddities are diagnostics.
func ParseModFile(fullpath string, rep *report.Reports) (*ModFile, error) {
	raw, err := os.ReadFile(fullpath)
	if err != nil {
		return nil, fmt.Errorf("mod descriptor: %w", err)
	}
	content := strings.TrimPrefix(string(raw), "\uFEFF")
	idx := token.Paths.Store(filepath.Base(fullpath), fullpath)
	block := parser.ParseFile(token.FileLoc(idx, token.Mod), content, nil, rep)

	mf := &ModFile{block: block}
	if v, ok := block.GetFieldValue("name"); ok {
		mf.Name = v.Text
	} else {
		rep.Warn(report.Packaging).
			Msg("mod descriptor has no `name` field").Loc(block).Push()
	}
	if v, ok := block.GetFieldValue("path"); ok {
		mf.Path = v.Text
	}
	if v, ok := block.GetFieldValue("version"); ok {
		mf.Version = v.Text
	}
	if v, ok := block.GetFieldValue("supported_version"); ok {
		mf.Supported = v.Text
	}
	for _, fld := range block.FieldsWarn(rep) {
		if !fld.Key.IsFold("replace_path") {
			continue
		}
		if v, ok := fld.BV.ExpectValue(rep); ok {
			mf.ReplacePaths = append(mf.ReplacePaths, v.Text)
		}
	}
	return mf, nil
}

// ModRoot resolves the directory the descriptor's path field points to,
// relative to the descriptor itself when not absolute.
func (m *ModFile) ModRoot(descriptorPath string) string {
	p := m.Path
	if p == "" {
		return filepath.Dir(descriptorPath)
	}
	if filepath.IsAbs(p) {
		return p
	}
	// Launcher paths are relative to the Paradox user directory, which is
	// the descriptor's grandparent for the usual mod/<name>.mod layout.
	return filepath.Join(filepath.Dir(filepath.Dir(descriptorPath)), filepath.FromSlash(p))
}
