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
	"sync"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/common"
	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/scopes"
	"github.com/pdxlint/pdxlint/token"
	"github.com/pdxlint/pdxlint/validate"
)

// eventStore tracks event namespace declarations across all event files.
// The events themselves live in the item store like any other kind.
type eventStore struct {
	mu         sync.Mutex
	namespaces map[string]token.Token
}

func newEventStore() *eventStore {
	return &eventStore{namespaces: make(map[string]token.Token)}
}

func (s *eventStore) declare(tok token.Token) {
	s.mu.Lock()
	if _, ok := s.namespaces[tok.Text]; !ok {
		s.namespaces[tok.Text] = tok
	}
	s.mu.Unlock()
}

func (s *eventStore) namespaceExists(name string) bool {
	s.mu.Lock()
	_, ok := s.namespaces[name]
	s.mu.Unlock()
	return ok
}

func (s *eventStore) validateAll(d *Everything) {
	// Nothing yet beyond what the per-event validators do; the store only
	// answers namespace lookups.
}

// eventHandler loads events/ files. The game requires an event's namespace
// to be declared in the same file, so the declared set resets per file.
type eventHandler struct {
	d *Everything
}

func (h *eventHandler) Subpath() string { return item.Event.Subpath() }

func (h *eventHandler) LoadFile(e fileset.Entry, fset *fileset.Fileset) interface{} {
	if !strings.HasSuffix(e.Path(), ".txt") {
		return nil
	}
	return fset.ParseFile(e, h.d.memory)
}

func (h *eventHandler) HandleFile(e fileset.Entry, loaded interface{}) {
	block, _ := loaded.(*ast.Block)
	if block == nil {
		return
	}
	inFile := make(map[string]bool)
	for _, f := range block.FieldsWarn(h.d.rep) {
		if f.Key.Is("namespace") {
			if tok, ok := f.BV.ExpectValue(h.d.rep); ok {
				inFile[tok.Text] = true
				h.d.events.declare(tok)
			}
			continue
		}
		if !f.ExpectEq(h.d.rep) {
			continue
		}
		sub, ok := f.BV.ExpectBlock(h.d.rep)
		if !ok {
			continue
		}
		h.checkID(f.Key, inFile)
		h.d.db.Add(item.Event, f.Key, sub, newEventDef(f.Key, sub, h.d.rep))
	}
}

func (h *eventHandler) Finalize() {}

// checkID enforces the `namespace.number` id format and the same-file
// namespace declaration the game insists on.
func (h *eventHandler) checkID(key token.Token, inFile map[string]bool) {
	ns, num, ok := key.SplitLast('.')
	if !ok {
		h.d.rep.Err(report.EventNamespace).
			Msgf("event id `%s` is not of the form `namespace.number`", key).
			Loc(key).Push()
		return
	}
	if !inFile[ns.Text] {
		h.d.rep.Err(report.EventNamespace).
			Msgf("event namespace `%s` is not declared in this file", ns).
			Info("add `namespace = " + ns.Text + "` at the top of the file").
			Loc(key).Push()
	}
	if _, ok := num.Int(); !ok {
		h.d.rep.Warn(report.EventNamespace).
			Msgf("event id `%s` does not end in a number", key).
			Loc(num).Push()
	}
}

// eventDef is one loaded event. Events fired from on-actions and effects
// are validated in the firing context, once per distinct scope signature;
// an event nothing fires gets one standalone pass from its declared root.
type eventDef struct {
	key   token.Token
	block *ast.Block
	root  scopes.Scopes

	mu   sync.Mutex
	seen map[string]bool
}

func newEventDef(key token.Token, block *ast.Block, rep *report.Reports) *eventDef {
	ev := &eventDef{key: key, block: block, root: scopes.Character}
	if tok, ok := block.GetFieldValue("scope"); ok {
		if s, ok := scopes.FromSnakeCase(tok.Text); ok {
			ev.root = s
		} else {
			rep.Err(report.Scopes).
				Msgf("`%s` is not a scope type", tok).
				Loc(tok).Push()
			ev.root = scopes.All
		}
	} else if tok, ok := block.GetFieldValue("type"); ok && tok.Is("none") {
		ev.root = scopes.All
	}
	return ev
}

// Validate runs the standalone pass for events nothing fired.
func (ev *eventDef) Validate(key token.Token, block *ast.Block, d *Everything) {
	ev.mu.Lock()
	visited := len(ev.seen) > 0
	ev.mu.Unlock()
	if visited {
		return
	}
	sc := scopes.New(ev.root, key, d.rep)
	// Standalone events inherit whatever their unknown trigger saved.
	sc.SetStrictScopes(false)
	ev.validateBody(d, sc)
}

// validateIn validates the event as fired from a call site, merging the
// declared root into the caller's expectations and revisiting at most once
// per caller scope signature.
func (ev *eventDef) validateIn(d *Everything, tok token.Token, sc *scopes.Context) {
	if ev.root != scopes.All {
		sc.Expect(ev.root, scopes.TokenReason(tok))
	}
	sig := sc.Signature()
	ev.mu.Lock()
	if ev.seen == nil {
		ev.seen = make(map[string]bool)
	}
	if ev.seen[sig] {
		ev.mu.Unlock()
		return
	}
	ev.seen[sig] = true
	ev.mu.Unlock()
	saved := sc.Push()
	ev.validateBody(d, sc)
	saved.Restore()
}

// validateEventTarget resolves an event id at a firing site.
func (d *Everything) validateEventTarget(tok token.Token, sc *scopes.Context) {
	e, ok := d.db.Get(item.Event, tok.Text)
	if !ok {
		d.verify(item.Event, tok.Text, tok, report.Fatal)
		return
	}
	d.db.MarkUsed(item.Event, tok.Text)
	if ev, ok := e.validator.(*eventDef); ok {
		ev.validateIn(d, tok, sc)
	}
}

func (ev *eventDef) validateBody(d *Everything, sc *scopes.Context) {
	vd := validate.New(ev.block, d)
	defer vd.Close()

	vd.FieldChoice("type", "character_event", "letter_event", "court_event",
		"activity_event", "duel_event", "fullscreen_event", "none")
	vd.FieldValue("scope")
	vd.FieldBool("hidden")
	vd.FieldBool("orphan")
	vd.FieldValue("theme")

	desc := func(bv ast.BV, data validate.Data, sc *scopes.Context) {
		validate.ValidateDesc(bv, data, sc)
	}
	vd.FieldValidatedSc("title", sc, desc)
	vd.FieldValidatedSc("desc", sc, desc)
	vd.FieldValidatedSc("opening", sc, desc)

	vd.MultiFieldValidated("override_background", func(ast.BV, validate.Data) {})
	vd.MultiFieldValidated("override_icon", func(ast.BV, validate.Data) {})
	vd.MultiFieldValidated("override_header_background", func(ast.BV, validate.Data) {})
	vd.MultiFieldValidated("override_sound", func(ast.BV, validate.Data) {})
	vd.FieldValue("window")

	for _, name := range []string{
		"left_portrait", "right_portrait", "center_portrait",
		"lower_left_portrait", "lower_center_portrait", "lower_right_portrait",
	} {
		vd.MultiFieldValidatedSc(name, sc, validatePortrait)
	}
	vd.FieldTargetOkThis("sender", sc, scopes.Character)

	vd.FieldValidatedBlockSc("cooldown", sc, validateDuration)
	vd.FieldTrigger("trigger", validate.FullScope(sc), validate.TooltipNo)
	vd.FieldScriptValue("weight_multiplier", sc)
	vd.FieldEffect("immediate", validate.FullScope(sc), validate.TooltipNo)
	vd.FieldEffect("after", validate.FullScope(sc), validate.TooltipNo)

	vd.MultiFieldValidatedBlockSc("option", sc, validateEventOption)

	if ev.block.GetFieldTriBool("hidden") != common.True && !ev.block.HasKey("option") {
		d.rep.Warn(report.Validation).
			Msg("event is not hidden and has no options; the player cannot close it").
			Loc(ev.key).Push()
	}
}

// validatePortrait accepts the short target form and the full block form.
func validatePortrait(bv ast.BV, data validate.Data, sc *scopes.Context) {
	if tok, ok := bv.Value(); ok {
		validate.ValidateTargetOkThis(tok, data, sc, scopes.Character)
		return
	}
	block, _ := bv.Block()
	vd := validate.New(block, data)
	defer vd.Close()
	vd.ReqField("character")
	vd.FieldTargetOkThis("character", sc, scopes.Character)
	vd.FieldValue("animation")
	vd.FieldValue("camera")
	vd.FieldBool("hold_court")
	vd.MultiFieldValidatedBlockSc("triggered_animation", sc, func(b *ast.Block, data validate.Data, sc *scopes.Context) {
		tvd := validate.New(b, data)
		defer tvd.Close()
		tvd.ReqField("animation")
		tvd.FieldValue("animation")
		tvd.FieldTrigger("trigger", validate.FullScope(sc), validate.TooltipNo)
	})
	vd.MultiFieldValidatedBlockSc("triggered_outfit", sc, func(b *ast.Block, data validate.Data, sc *scopes.Context) {
		tvd := validate.New(b, data)
		defer tvd.Close()
		tvd.FieldList("outfit_tags")
		tvd.FieldBool("remove_default_outfit")
		tvd.FieldBool("hide_info")
		tvd.FieldTrigger("trigger", validate.FullScope(sc), validate.TooltipNo)
	})
}

// validateEventOption checks one option block: interface fields first, the
// rest of the fields are the option's effects.
func validateEventOption(block *ast.Block, data validate.Data, sc *scopes.Context) {
	vd := validate.New(block, data)
	vd.MultiFieldValidatedSc("name", sc, validateOptionName)
	vd.FieldTrigger("trigger", validate.FullScope(sc), validate.TooltipNo)
	vd.FieldTrigger("show_as_unavailable", validate.FullScope(sc), validate.TooltipNo)
	vd.FieldScriptValue("ai_chance", sc)
	vd.FieldBool("fallback")
	vd.FieldBool("exclusive")
	vd.FieldValidatedSc("custom_tooltip", sc, func(bv ast.BV, data validate.Data, sc *scopes.Context) {
		validate.ValidateDesc(bv, data, sc)
	})
	vd.MultiFieldValidated("highlight_portrait", func(ast.BV, validate.Data) {})
	validate.ValidateEffectInternal("", validate.ListNone, block, data, sc, vd, validate.TooltipYes)
	vd.Close()
}

func validateOptionName(bv ast.BV, data validate.Data, sc *scopes.Context) {
	if tok, ok := bv.Value(); ok {
		data.VerifyExists(item.Localization, tok)
		data.ValidateLocalization(tok, sc)
		return
	}
	block, _ := bv.Block()
	vd := validate.New(block, data)
	defer vd.Close()
	vd.ReqField("text")
	vd.FieldValidatedSc("text", sc, func(bv ast.BV, data validate.Data, sc *scopes.Context) {
		validate.ValidateDesc(bv, data, sc)
	})
	vd.FieldTrigger("trigger", validate.FullScope(sc), validate.TooltipNo)
}
