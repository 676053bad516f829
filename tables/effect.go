// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package tables

import (
	"fmt"
	"strings"

	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/scopes"
)

// EffectKind says what argument shape an effect takes.
type EffectKind uint8

const (
	// EfYes effects take only yes.
	EfYes EffectKind = iota
	// EfBoolean effects take yes or no.
	EfBoolean
	// EfInteger takes a literal integer.
	EfInteger
	// EfScriptValue takes a script value.
	EfScriptValue
	// EfNonNegativeValue is EfScriptValue minus negative literals.
	EfNonNegativeValue
	// EfDate takes a date literal.
	EfDate
	// EfScope takes a scope object.
	EfScope
	// EfScopeOkThis is EfScope with a bare `this` allowed.
	EfScopeOkThis
	// EfItem takes a key of the rule's item kind.
	EfItem
	// EfScopeOrItem accepts a scope object or an item key.
	EfScopeOrItem
	// EfTarget takes a block with one scope field named by Key.
	EfTarget
	// EfTargetValue takes a block with a scope field Key and a script
	// value field ValueKey.
	EfTargetValue
	// EfItemTarget takes a block with an optional item field Key and an
	// optional scope field ValueKey.
	EfItemTarget
	// EfItemValue takes a block with an item field Key and a script value
	// field named value.
	EfItemValue
	// EfDesc takes a localization key or a triggered description block.
	EfDesc
	// EfTimespan takes a duration block of days/weeks/months/years.
	EfTimespan
	// EfControl effects open a nested effect block.
	EfControl
	// EfControlOrLabel takes a localization key or a nested effect block.
	EfControlOrLabel
	// EfChoice takes one of the literal strings in the rule.
	EfChoice
	// EfRemoved effects no longer exist; using one draws a warning.
	EfRemoved
	// EfUnchecked accepts anything.
	EfUnchecked
	// EfFuncBlock takes a block checked by the named handler.
	EfFuncBlock
	// EfFuncValue takes a value checked by the named handler.
	EfFuncValue
	// EfFuncBV takes a block or value checked by the named handler.
	EfFuncBV
)

var effectKindNames = map[string]EffectKind{
	"yes":                EfYes,
	"boolean":            EfBoolean,
	"integer":            EfInteger,
	"script_value":       EfScriptValue,
	"non_negative_value": EfNonNegativeValue,
	"date":               EfDate,
	"scope":              EfScope,
	"scope_ok_this":      EfScopeOkThis,
	"item":               EfItem,
	"scope_or_item":      EfScopeOrItem,
	"target":             EfTarget,
	"target_value":       EfTargetValue,
	"item_target":        EfItemTarget,
	"item_value":         EfItemValue,
	"desc":               EfDesc,
	"timespan":           EfTimespan,
	"control":            EfControl,
	"control_or_label":   EfControlOrLabel,
	"choice":             EfChoice,
	"removed":            EfRemoved,
	"unchecked":          EfUnchecked,
	"func_block":         EfFuncBlock,
	"func_value":         EfFuncValue,
	"func_bv":            EfFuncBV,
}

// EffectRule is one effect's argument rule. Key and ValueKey name block
// fields for the block-shaped kinds; Func names the handler for the func
// kinds, registered in the validate package.
type EffectRule struct {
	Kind           EffectKind
	Scopes         scopes.Scopes
	Item           item.Kind
	HasItem        bool
	Key            string
	ValueKey       string
	Choice         []string
	RemovedVersion string
	RemovedAdvice  string
	Func           string
}

// Effect resolves an effect name to the scopes it can be used in and its
// argument rule.
func Effect(name string) (scopes.Scopes, *EffectRule, bool) {
	e, ok := active.effects[strings.ToLower(name)]
	if !ok {
		return 0, nil, false
	}
	return e.scopes, e.rule, true
}

// EffectFuncs lists every handler name the active effect table references,
// so the validate package can assert its registry is complete.
func EffectFuncs() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range active.effects {
		if e.rule.Func != "" && !seen[e.rule.Func] {
			seen[e.rule.Func] = true
			names = append(names, e.rule.Func)
		}
	}
	return names
}

type effectsFile struct {
	Effect []struct {
		From     string   `toml:"from"`
		Name     string   `toml:"name"`
		Kind     string   `toml:"kind"`
		Scopes   string   `toml:"scopes"`
		Item     string   `toml:"item"`
		Key      string   `toml:"key"`
		ValueKey string   `toml:"value_key"`
		Choice   []string `toml:"choice"`
		Version  string   `toml:"version"`
		Advice   string   `toml:"advice"`
		Func     string   `toml:"func"`
	} `toml:"effect"`
}

func (s *set) loadEffects(dir string) error {
	var f effectsFile
	if err := decodeFile(dir, "effects.toml", &f); err != nil {
		return err
	}
	for _, row := range f.Effect {
		kind, ok := effectKindNames[row.Kind]
		if !ok {
			return fmt.Errorf("effect %s: unknown kind %q", row.Name, row.Kind)
		}
		from, err := parseScopes(row.From)
		if err != nil {
			return fmt.Errorf("effect %s: %v", row.Name, err)
		}
		rule := &EffectRule{
			Kind:           kind,
			Key:            row.Key,
			ValueKey:       row.ValueKey,
			Choice:         row.Choice,
			RemovedVersion: row.Version,
			RemovedAdvice:  row.Advice,
			Func:           row.Func,
		}
		if rule.Scopes, err = parseScopes(row.Scopes); err != nil {
			return fmt.Errorf("effect %s: %v", row.Name, err)
		}
		if rule.Item, rule.HasItem, err = parseItem(row.Item); err != nil {
			return fmt.Errorf("effect %s: %v", row.Name, err)
		}
		s.effects[row.Name] = &effectEntry{scopes: from, rule: rule}
	}
	return nil
}
