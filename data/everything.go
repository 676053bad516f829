// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package data

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/lexer"
	"github.com/pdxlint/pdxlint/log"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
	"github.com/pdxlint/pdxlint/validate"
)

// Everything owns the loaded game database: the merged file tree, the
// global reader memory, the per-kind item store and the concrete
// collections. Loading and validation are two separate phases, so a
// definition may refer to anything defined anywhere, regardless of file
// order.
type Everything struct {
	rep    *report.Reports
	fset   *fileset.Fileset
	memory *lexer.Memory
	db     *Db

	defines   *defineStore
	loca      *locaStore
	provinces *provinceStore
	events    *eventStore
}

// New wires an empty database to a finished fileset.
func New(rep *report.Reports, fset *fileset.Fileset) *Everything {
	return &Everything{
		rep:       rep,
		fset:      fset,
		memory:    lexer.NewMemory(),
		db:        NewDb(rep),
		defines:   newDefineStore(),
		loca:      newLocaStore(),
		provinces: newProvinceStore(),
		events:    newEventStore(),
	}
}

// Reports implements validate.Data.
func (d *Everything) Reports() *report.Reports { return d.rep }

// Fileset returns the merged file tree the database was loaded from.
func (d *Everything) Fileset() *fileset.Fileset { return d.fset }

// LoadAll reads every definition the validator tracks out of the merged
// tree. The reader-export pass runs first and alone: its definitions land
// in the global reader memory that every later parse consults.
func (d *Everything) LoadAll(ctx context.Context) error {
	start := time.Now()
	if err := d.fset.Handle(ctx, &readerExportHandler{d: d}); err != nil {
		return err
	}
	handlers := []fileset.Handler{
		&defineHandler{d: d},
		newBlockHandler(d, item.ScriptedTrigger, func(key token.Token, block *ast.Block) ItemValidator {
			return &scripted{key: key, block: block, kind: scriptedTrigger, owner: d}
		}),
		newBlockHandler(d, item.ScriptedEffect, func(key token.Token, block *ast.Block) ItemValidator {
			return &scripted{key: key, block: block, kind: scriptedEffect, owner: d}
		}),
		&scriptValueHandler{d: d},
		newBlockHandler(d, item.ScriptedList, func(key token.Token, block *ast.Block) ItemValidator {
			return &scriptedList{}
		}),
		newBlockHandler(d, item.Decision, func(key token.Token, block *ast.Block) ItemValidator {
			return &decision{}
		}),
		newBlockHandler(d, item.OnAction, func(key token.Token, block *ast.Block) ItemValidator {
			return &onAction{}
		}),
		&eventHandler{d: d},
		&locaHandler{d: d},
		&provinceDefHandler{d: d},
		&adjacencyHandler{d: d},
	}
	for _, h := range handlers {
		if err := d.fset.Handle(ctx, h); err != nil {
			return err
		}
	}
	log.Info("Loaded game database", "elapsed", time.Since(start))
	return nil
}

// ValidateAll runs every collection's validation pass. Collections are
// independent of each other: each walks its own definitions and only reads
// the others, so they fan out across goroutines. Diagnostics land in the
// report store in any order; the store sorts on emit.
func (d *Everything) ValidateAll(ctx context.Context) error {
	start := time.Now()
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.db.Validate(d)
		return nil
	})
	g.Go(func() error {
		d.events.validateAll(d)
		return nil
	})
	g.Go(func() error {
		d.loca.validateAll(d)
		return nil
	})
	g.Go(func() error {
		d.provinces.validateAll(d)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Validated game database", "elapsed", time.Since(start))
	return nil
}

// CheckUnused reports definitions and files the target mod ships that
// nothing refers to. Runs after ValidateAll, once every use is recorded.
func (d *Everything) CheckUnused() {
	d.loca.checkUnused(d)
	for _, e := range d.fset.UnusedModFiles(item.Event.Subpath(), item.Decision.Subpath(),
		item.ScriptedTrigger.Subpath(), item.ScriptedEffect.Subpath(), item.ScriptValue.Subpath()) {
		d.rep.Tips(report.UnusedFile).Weak().
			Msg("file is not used by anything").
			Loc(e.Loc()).Push()
	}
}

// Exists implements validate.Data. Most kinds live in the item store; the
// kinds with their own collections dispatch there.
func (d *Everything) Exists(kind item.Kind, key string) bool {
	switch kind {
	case item.File:
		return d.fset.Exists(key)
	case item.Localization:
		return d.loca.exists(key)
	case item.Province:
		return d.provinces.exists(key)
	case item.Define:
		return d.defines.exists(key) || tables.EngineDefine(key)
	case item.EventNamespace:
		return d.events.namespaceExists(key)
	default:
		return d.db.Exists(kind, key)
	}
}

// VerifyExists implements validate.Data.
func (d *Everything) VerifyExists(kind item.Kind, tok token.Token) {
	d.verify(kind, tok.Text, tok, report.Fatal)
}

// VerifyExistsMaxSev implements validate.Data.
func (d *Everything) VerifyExistsMaxSev(kind item.Kind, tok token.Token, maxSev report.Severity) {
	d.verify(kind, tok.Text, tok, maxSev)
}

// VerifyExistsImplied implements validate.Data.
func (d *Everything) VerifyExistsImplied(kind item.Kind, key string, tok token.Token) {
	d.verify(kind, key, tok, report.Fatal)
}

func (d *Everything) verify(kind item.Kind, key string, tok token.Token, maxSev report.Severity) {
	if d.Exists(kind, key) {
		d.MarkUsed(kind, key)
		return
	}
	errKey := report.MissingItem
	switch kind {
	case item.Localization:
		errKey = report.MissingLocalization
	case item.File:
		errKey = report.MissingFile
	}
	b := d.rep.Build(errKey, kind.MissingSeverity().AtMost(maxSev)).
		Conf(kind.MissingConfidence())
	if sub := kind.Subpath(); sub != "" {
		b.Msgf("%s `%s` not defined in %s", kind.Display(), key, sub)
	} else {
		b.Msgf("%s `%s` does not exist", kind.Display(), key)
	}
	if wiki := kind.Wiki(); wiki != "" {
		b.Info("there is a page about " + kind.Display() + " at https://ck3.paradoxwikis.com/" + wiki)
	}
	b.Loc(tok).Push()
}

// MarkUsed implements validate.Data.
func (d *Everything) MarkUsed(kind item.Kind, key string) {
	switch kind {
	case item.File:
		d.fset.MarkUsed(key)
	case item.Localization:
		d.loca.markUsed(key)
	default:
		d.db.MarkUsed(kind, key)
	}
}

// ScriptedTrigger implements validate.Data.
func (d *Everything) ScriptedTrigger(name string) (validate.Caller, bool) {
	return d.caller(item.ScriptedTrigger, name)
}

// ScriptedEffect implements validate.Data.
func (d *Everything) ScriptedEffect(name string) (validate.Caller, bool) {
	return d.caller(item.ScriptedEffect, name)
}

func (d *Everything) caller(kind item.Kind, name string) (validate.Caller, bool) {
	e, ok := d.db.Get(kind, name)
	if !ok {
		return nil, false
	}
	d.db.MarkUsed(kind, name)
	s, ok := e.validator.(*scripted)
	return s, ok
}

// ScriptValueExists implements validate.Data.
func (d *Everything) ScriptValueExists(name string) bool {
	return d.db.Exists(item.ScriptValue, name)
}

// ValidateScriptValueCall implements validate.Data. The named value is
// validated in the caller's scope context, once per distinct context
// signature.
func (d *Everything) ValidateScriptValueCall(tok token.Token, sc *scopes.Context) {
	e, ok := d.db.Get(item.ScriptValue, tok.Text)
	if !ok {
		d.verify(item.ScriptValue, tok.Text, tok, report.Fatal)
		return
	}
	d.db.MarkUsed(item.ScriptValue, tok.Text)
	if sv, ok := e.validator.(*scriptValue); ok {
		sv.validateIn(d, sc)
	}
}

// ValidateLocalization implements validate.Data.
func (d *Everything) ValidateLocalization(key token.Token, sc *scopes.Context) {
	d.loca.validateUse(d, key, sc)
}

// DefinedString implements validate.Data. Defines the database never saw
// may still be engine builtins the tables know about; those resolve to no
// value but draw no report either.
func (d *Everything) DefinedString(tok token.Token, define string) (string, bool) {
	if s, ok := d.defines.str(define); ok {
		return s, true
	}
	if !tables.EngineDefine(define) {
		d.rep.Warn(report.MissingItem).Weak().
			Msgf("define `%s` is not set anywhere", define).
			Loc(tok).Push()
	}
	return "", false
}
