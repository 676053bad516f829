// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// modFilterName is the per-mod config file, at the top level of the mod.
const modFilterName = "pdxlint.conf"

// loadModFilter reads the mod's own filter config and installs it on the
// live report store. The config uses script syntax, so the same parser
// reads it. A missing file means no filter.
func loadModFilter(rep *report.Reports, modRoot string) {
	fullpath := filepath.Join(modRoot, modFilterName)
	raw, err := os.ReadFile(fullpath)
	if err != nil {
		return
	}
	content := strings.TrimPrefix(string(raw), "\uFEFF")
	idx := token.Paths.Store(modFilterName, fullpath)
	block := parser.ParseFile(token.FileLoc(idx, token.Mod), content, nil, rep)

	checkLegacyIgnore(block, rep)

	filter, ok := block.GetFieldBlock("filter")
	if !ok {
		return
	}
	for _, name := range []string{"trigger", "show_vanilla", "show_loaded_mods"} {
		assertOneKey(filter, name, rep)
	}
	showVanilla, _ := filter.GetFieldBool("show_vanilla")
	showLoadedMods, _ := filter.GetFieldBool("show_loaded_mods")
	rep.WidenScope(showVanilla, showLoadedMods)
	if trigger, ok := filter.GetFieldBlock("trigger"); ok {
		rep.SetPredicate(report.AllOf(loadRules(trigger, rep)))
	}
}

// checkLegacyIgnore reports `ignore` blocks, which an earlier config format
// used and which are silently dead weight now.
func checkLegacyIgnore(config *ast.Block, rep *report.Reports) {
	for _, key := range config.GetKeys("ignore") {
		rep.Err(report.Config).Strong().
			Msg("`ignore` is not supported, use `filter` instead").
			Loc(key).Push()
	}
}

func assertOneKey(block *ast.Block, name string, rep *report.Reports) {
	keys := block.GetKeys(name)
	for _, key := range keys[1:] {
		rep.Warn(report.Config).
			Msgf("multiple `%s` blocks, only the last one is used", name).
			Loc(key).Push()
	}
}

func loadRules(block *ast.Block, rep *report.Reports) []report.Rule {
	var rules []report.Rule
	for _, f := range block.FieldsWarn(rep) {
		if rule, ok := loadRule(f, rep); ok {
			rules = append(rules, rule)
		}
	}
	return rules
}

func loadRulesBV(bv ast.BV, rep *report.Reports) ([]report.Rule, bool) {
	block, ok := bv.Block()
	if !ok {
		rep.Err(report.Config).
			Msg("expected a trigger block here, for example `AND = { }`").
			Loc(bv).Push()
		return nil, false
	}
	return loadRules(block, rep), true
}

func loadRule(f *ast.Field, rep *report.Reports) (report.Rule, bool) {
	name := f.Key.Text
	if name != "severity" && name != "confidence" && !f.IsEq() {
		rep.Err(report.Config).
			Msgf("unexpected operator `%s`, only `=` is valid here", f.Cmp).
			Loc(f.Key).Push()
		return nil, false
	}
	switch name {
	case "severity":
		return loadSeverityRule(f, rep)
	case "confidence":
		return loadConfidenceRule(f, rep)
	case "key":
		return loadKeyRule(f.BV, rep)
	case "file":
		if v, ok := f.BV.ExpectValue(rep); ok {
			return report.FileRule{Prefix: v.Text}, true
		}
	case "text":
		if v, ok := f.BV.ExpectValue(rep); ok {
			return report.TextRule{Text: v.Text}, true
		}
	case "always":
		return loadAlwaysRule(f.BV, rep)
	case "ignore_keys_in_files":
		return loadIgnoreKeysInFiles(f.BV, rep)
	case "NOT":
		return loadNotRule(f.BV, rep)
	case "AND":
		if rules, ok := loadRulesBV(f.BV, rep); ok {
			return report.AllOf(rules), true
		}
	case "OR":
		if rules, ok := loadRulesBV(f.BV, rep); ok {
			return report.AnyOf(rules), true
		}
	case "NAND":
		if rules, ok := loadRulesBV(f.BV, rep); ok {
			return report.Not{Inner: report.AllOf(rules)}, true
		}
	case "NOR":
		if rules, ok := loadRulesBV(f.BV, rep); ok {
			return report.Not{Inner: report.AnyOf(rules)}, true
		}
	default:
		rep.Err(report.Config).
			Msgf("`%s` is not a filter trigger", name).
			Loc(f.Key).Push()
	}
	return nil, false
}

// loadNotRule loads a NOT block. Script NOT is really NOR: with several
// children it negates their disjunction.
func loadNotRule(bv ast.BV, rep *report.Reports) (report.Rule, bool) {
	children, ok := loadRulesBV(bv, rep)
	if !ok {
		return nil, false
	}
	switch len(children) {
	case 0:
		rep.Err(report.Config).
			Msg("this NOT block contains no valid triggers and will be ignored").
			Loc(bv).Push()
		return nil, false
	case 1:
		return report.Not{Inner: children[0]}, true
	default:
		return report.Not{Inner: report.AnyOf(children)}, true
	}
}

func loadAlwaysRule(bv ast.BV, rep *report.Reports) (report.Rule, bool) {
	v, ok := bv.Value()
	if !ok {
		rep.Err(report.Config).
			Msg("`always` can't open a block; valid values are `yes` and `no`").
			Loc(bv).Push()
		return nil, false
	}
	switch v.Text {
	case "yes":
		return report.Tautology{}, true
	case "no":
		return report.Contradiction{}, true
	}
	rep.Err(report.Config).
		Msg("`always` value not recognised; valid values are `yes` and `no`").
		Loc(v).Push()
	return nil, false
}

func loadKeyRule(bv ast.BV, rep *report.Reports) (report.Rule, bool) {
	v, ok := bv.ExpectValue(rep)
	if !ok {
		return nil, false
	}
	key, ok := report.KeyFromString(v.Text)
	if !ok {
		rep.Err(report.Config).Strong().
			Msg("invalid key").
			Info("in the output, keys are listed between parentheses on the first line of each report; in `warning(missing-item)` the key is `missing-item`").
			Loc(v).Push()
		return nil, false
	}
	return report.KeyRule{Key: key}, true
}

func loadSeverityRule(f *ast.Field, rep *report.Reports) (report.Rule, bool) {
	op, ok := cmpOp(f.Cmp)
	if !ok {
		rep.Err(report.Config).
			Msgf("operator `%s` is not usable with `severity`", f.Cmp).
			Loc(f.Key).Push()
		return nil, false
	}
	v, vok := f.BV.Value()
	if !vok {
		rep.Err(report.Config).
			Msg("`severity` can't open a block; example usage: `severity >= warning`").
			Loc(f.BV).Push()
		return nil, false
	}
	sev, sok := report.SeverityFromString(strings.ToLower(v.Text))
	if !sok {
		rep.Err(report.Config).
			Msg("invalid severity; valid values are tips, untidy, warning, error and fatal").
			Loc(v).Push()
		return nil, false
	}
	return report.SeverityRule{Op: op, Level: sev}, true
}

func loadConfidenceRule(f *ast.Field, rep *report.Reports) (report.Rule, bool) {
	op, ok := cmpOp(f.Cmp)
	if !ok {
		rep.Err(report.Config).
			Msgf("operator `%s` is not usable with `confidence`", f.Cmp).
			Loc(f.Key).Push()
		return nil, false
	}
	v, vok := f.BV.Value()
	if !vok {
		rep.Err(report.Config).
			Msg("`confidence` can't open a block; example usage: `confidence >= reasonable`").
			Loc(f.BV).Push()
		return nil, false
	}
	conf, cok := report.ConfidenceFromString(strings.ToLower(v.Text))
	if !cok {
		rep.Err(report.Config).
			Msg("invalid confidence; valid values are weak, reasonable and strong").
			Loc(v).Push()
		return nil, false
	}
	return report.ConfidenceRule{Op: op, Level: conf}, true
}

// loadIgnoreKeysInFiles loads the `ignore_keys_in_files = { keys = {}
// files = {} }` shorthand, which expands to a NAND of the two disjunctions.
func loadIgnoreKeysInFiles(bv ast.BV, rep *report.Reports) (report.Rule, bool) {
	const usage = "usage: ignore_keys_in_files = { keys = { } files = { } }"
	block, ok := bv.Block()
	if !ok {
		rep.Err(report.Config).Strong().
			Msg("this trigger should open a block").Info(usage).
			Loc(bv).Push()
		return nil, false
	}
	var keys, files report.Rule
	for _, f := range block.FieldsWarn(rep) {
		if !f.ExpectEq(rep) {
			return nil, false
		}
		inner, iok := f.BV.Block()
		if !iok {
			rep.Err(report.Config).Strong().
				Msg("this should open a block").Info(usage).
				Loc(f.BV).Push()
			return nil, false
		}
		switch f.Key.Text {
		case "keys":
			var rules report.AnyOf
			for _, v := range inner.ItemValuesWarn(rep) {
				if key, kok := report.KeyFromString(v.Text); kok {
					rules = append(rules, report.KeyRule{Key: key})
				} else {
					rep.Err(report.Config).Strong().
						Msg("invalid key").Loc(v).Push()
				}
			}
			if len(rules) > 0 {
				keys = rules
			}
		case "files":
			var rules report.AnyOf
			for _, v := range inner.ItemValuesWarn(rep) {
				rules = append(rules, report.FileRule{Prefix: v.Text})
			}
			if len(rules) > 0 {
				files = rules
			}
		default:
			rep.Err(report.Config).Strong().
				Msg("this key isn't valid here").Info(usage).
				Loc(f.Key).Push()
			return nil, false
		}
	}
	if keys == nil || files == nil {
		rep.Err(report.Config).Strong().
			Msg("`ignore_keys_in_files` needs at least one key and one file").
			Info(usage).Loc(block).Push()
		return nil, false
	}
	return report.Not{Inner: report.AllOf{keys, files}}, true
}

func cmpOp(c ast.Comparator) (report.CmpOp, bool) {
	switch c {
	case ast.Eq, ast.DoubleEq:
		return report.OpEQ, true
	case ast.NotEq:
		return report.OpNE, true
	case ast.Less:
		return report.OpLT, true
	case ast.AtMost:
		return report.OpLE, true
	case ast.Greater:
		return report.OpGT, true
	case ast.AtLeast:
		return report.OpGE, true
	}
	return report.OpEQ, false
}
