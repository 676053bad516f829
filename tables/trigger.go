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

// TriggerKind says what argument shape a trigger takes.
type TriggerKind uint8

const (
	// TrBoolean triggers take yes or no.
	TrBoolean TriggerKind = iota
	// TrCompareValue triggers compare against a script value.
	TrCompareValue
	// TrCompareValueWarnEq is TrCompareValue plus a warning on plain =.
	TrCompareValueWarnEq
	// TrSetValue takes a script value but no < or > comparators.
	TrSetValue
	// TrCompareDate compares against a date literal.
	TrCompareDate
	// TrScope triggers compare against a scope object.
	TrScope
	// TrItem triggers take a key of the rule's item kind.
	TrItem
	// TrScopeOrItem accepts either a scope object or an item key.
	TrScopeOrItem
	// TrChoice takes one of the literal strings in the rule.
	TrChoice
	// TrBlock takes a block with the rule's fields.
	TrBlock
	// TrScopeOrBlock accepts a scope object or a block of fields.
	TrScopeOrBlock
	// TrItemOrBlock accepts an item key or a block of fields.
	TrItemOrBlock
	// TrCompareValueOrBlock accepts a script value or a block of fields.
	TrCompareValueOrBlock
	// TrScopeList takes a block listing scope objects.
	TrScopeList
	// TrScopeCompare takes a block comparing two scope objects.
	TrScopeCompare
	// TrCompareToScope is for block fields whose value is compared to a
	// scope object.
	TrCompareToScope
	// TrControl triggers open a nested trigger block.
	TrControl
	// TrSpecial triggers have dedicated validation code.
	TrSpecial
	// TrUncheckedValue accepts anything.
	TrUncheckedValue
)

var triggerKindNames = map[string]TriggerKind{
	"boolean":                TrBoolean,
	"compare_value":          TrCompareValue,
	"compare_value_warn_eq":  TrCompareValueWarnEq,
	"set_value":              TrSetValue,
	"compare_date":           TrCompareDate,
	"scope":                  TrScope,
	"item":                   TrItem,
	"scope_or_item":          TrScopeOrItem,
	"choice":                 TrChoice,
	"block":                  TrBlock,
	"scope_or_block":         TrScopeOrBlock,
	"item_or_block":          TrItemOrBlock,
	"compare_value_or_block": TrCompareValueOrBlock,
	"scope_list":             TrScopeList,
	"scope_compare":          TrScopeCompare,
	"compare_to_scope":       TrCompareToScope,
	"control":                TrControl,
	"special":                TrSpecial,
	"unchecked":              TrUncheckedValue,
}

// TriggerRule is one trigger's argument rule. Scopes is the target or list
// scope for the scope-flavored kinds; Item is the cross-referenced item
// kind when HasItem is set. Rows whose game item category the database
// does not track have HasItem unset: the shape is still checked, the key
// is not.
type TriggerRule struct {
	Kind    TriggerKind
	Scopes  scopes.Scopes
	Item    item.Kind
	HasItem bool
	Choice  []string
	Fields  []TriggerField
}

// TriggerField is one field of a block-shaped trigger rule. A field is
// required unless Optional; Multiple fields may repeat.
type TriggerField struct {
	Name     string
	Optional bool
	Multiple bool
	Rule     *TriggerRule
}

// Trigger resolves a trigger name to the scopes it can be used in and its
// argument rule. After the table, dynamic families are matched by shape:
// has_relation_<relation>, has_secret_relation_<relation>,
// num_of_relation_<relation>, perks_in_<lifestyle> and the
// <lifestyle>_perk_points, _unlockable_perks, _perks, _xp and
// <legacy>_track_perks suffixes.
func Trigger(name string) (scopes.Scopes, *TriggerRule, bool) {
	lw := strings.ToLower(name)
	if e, ok := active.triggers[lw]; ok {
		return e.scopes, e.rule, true
	}
	if strings.HasPrefix(lw, "has_relation_") || strings.HasPrefix(lw, "has_secret_relation_") {
		return scopes.Character, characterScopeRule, true
	}
	if strings.HasPrefix(lw, "num_of_relation_") || strings.HasPrefix(lw, "perks_in_") {
		return scopes.Character, compareValueRule, true
	}
	if strings.HasSuffix(lw, "_perk_points") || strings.HasSuffix(lw, "_unlockable_perks") {
		return scopes.Character, compareValueRule, true
	}
	if strings.HasSuffix(lw, "_track_perks") {
		return scopes.Dynasty, compareValueRule, true
	}
	if strings.HasSuffix(lw, "_perks") || strings.HasSuffix(lw, "_xp") {
		return scopes.Character, compareValueRule, true
	}
	return 0, nil, false
}

var (
	characterScopeRule = &TriggerRule{Kind: TrScope, Scopes: scopes.Character}
	compareValueRule   = &TriggerRule{Kind: TrCompareValue}
)

// TriggerCompareValue reports the scopes a trigger can be used in when it
// is one of the numeric comparison kinds, which may also stand at the end
// of a scope chain.
func TriggerCompareValue(name string) (scopes.Scopes, bool) {
	s, rule, ok := Trigger(name)
	if !ok {
		return 0, false
	}
	switch rule.Kind {
	case TrCompareValue, TrCompareValueWarnEq, TrCompareDate, TrSetValue, TrCompareValueOrBlock:
		return s, true
	}
	return 0, false
}

type triggersFile struct {
	Trigger []triggerRow `toml:"trigger"`
}

type triggerRow struct {
	From   string       `toml:"from"`
	Name   string       `toml:"name"`
	Kind   string       `toml:"kind"`
	Scopes string       `toml:"scopes"`
	Item   string       `toml:"item"`
	Choice []string     `toml:"choice"`
	Field  []triggerRow `toml:"field"`
}

func (s *set) loadTriggers(dir string) error {
	var f triggersFile
	if err := decodeFile(dir, "triggers.toml", &f); err != nil {
		return err
	}
	for _, row := range f.Trigger {
		from, err := parseScopes(row.From)
		if err != nil {
			return fmt.Errorf("trigger %s: %v", row.Name, err)
		}
		rule, err := parseTriggerRule(&row)
		if err != nil {
			return fmt.Errorf("trigger %s: %v", row.Name, err)
		}
		s.triggers[row.Name] = &triggerEntry{scopes: from, rule: rule}
	}
	return nil
}

func parseTriggerRule(row *triggerRow) (*TriggerRule, error) {
	kind, ok := triggerKindNames[row.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown trigger kind %q", row.Kind)
	}
	rule := &TriggerRule{Kind: kind, Choice: row.Choice}
	var err error
	if rule.Scopes, err = parseScopes(row.Scopes); err != nil {
		return nil, err
	}
	if rule.Item, rule.HasItem, err = parseItem(row.Item); err != nil {
		return nil, err
	}
	for i := range row.Field {
		fieldRow := &row.Field[i]
		sub, err := parseTriggerRule(fieldRow)
		if err != nil {
			return nil, fmt.Errorf("field %s: %v", fieldRow.Name, err)
		}
		field := TriggerField{Name: fieldRow.Name, Rule: sub}
		if rest, ok := strings.CutPrefix(field.Name, "?"); ok {
			field.Name, field.Optional = rest, true
		} else if rest, ok := strings.CutPrefix(field.Name, "*"); ok {
			field.Name, field.Optional, field.Multiple = rest, true, true
		}
		rule.Fields = append(rule.Fields, field)
	}
	return rule, nil
}
