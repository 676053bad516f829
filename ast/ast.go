// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the block tree that script files parse into.
//
// A Block is a brace-delimited sequence of items; a whole file is also a
// Block. Items come in three shapes:
//
//   - Value: a loose token, as in `{ 1 2 3 }`
//   - *Block: a loose sub-block, as in `{ { ... } { ... } }`
//   - *Field: `key = value` or `key = { ... }`, with the full comparator set
//
// The same key may occur multiple times in a block. Single-field getters
// return the last instance, which is how the game resolves it. Getters never
// report problems; the validate package layers reporting on top.
package ast

import (
	"fmt"
	"strings"

	"github.com/pdxlint/pdxlint/common"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// Item is one entry in a block: a Value, a *Block or a *Field.
type Item interface {
	Location() token.Loc
	// Equivalent is deep equality by text, ignoring locations.
	Equivalent(other Item) bool
	blockItem()
}

// Value is a loose token item.
type Value struct {
	token.Token
}

func (v Value) blockItem() {}

// Equivalent reports text equality with another value item.
func (v Value) Equivalent(other Item) bool {
	o, ok := other.(Value)
	return ok && v.Equal(o.Token)
}

// Block is a brace-delimited sequence of items.
type Block struct {
	Items []Item
	// Tag is the short prefix of tagged literals like `hsv { 0.5 0.5 1.0 }`.
	// Only a few hardcoded tags parse this way.
	Tag *token.Token
	// Loc is where the block opens. Whole-file blocks have line 0.
	Loc token.Loc
	// Source holds the block's raw text split around $PARAM$ markers, for
	// blocks that take macro parameters and need re-parsing per invocation.
	Source []MacroComponent
}

// New opens an empty block at loc.
func New(loc token.Loc) *Block {
	return &Block{Loc: loc}
}

func (b *Block) blockItem() {}

// Location returns where the block opens.
func (b *Block) Location() token.Loc { return b.Loc }

// AddValue appends a loose value. Mostly used by the parser.
func (b *Block) AddValue(t token.Token) {
	b.Items = append(b.Items, Value{t})
}

// AddBlock appends a loose sub-block. Mostly used by the parser.
func (b *Block) AddBlock(sub *Block) {
	b.Items = append(b.Items, sub)
}

// AddField appends a `key cmp value-or-block` field. Mostly used by the
// parser.
func (b *Block) AddField(key token.Token, cmp Comparator, bv BV) {
	b.Items = append(b.Items, &Field{Key: key, Cmp: cmp, BV: bv})
}

// AddItem appends any item.
func (b *Block) AddItem(item Item) {
	b.Items = append(b.Items, item)
}

// Append moves the contents of other into b, emptying other.
func (b *Block) Append(other *Block) {
	b.Items = append(b.Items, other.Items...)
	other.Items = nil
}

// AddToFieldBlock merges block into the last `name = { ... }` field and
// reports whether one was found. Item kinds with special merge rules, such
// as on_action, use this.
func (b *Block) AddToFieldBlock(name string, block *Block) bool {
	for i := len(b.Items) - 1; i >= 0; i-- {
		if f, ok := b.Items[i].(*Field); ok && f.Key.Is(name) {
			if sub, ok := f.BV.Block(); ok {
				sub.Append(block)
				return true
			}
		}
	}
	return false
}

// GetFieldValue returns the value of the last `name = value` assignment.
func (b *Block) GetFieldValue(name string) (token.Token, bool) {
	for i := len(b.Items) - 1; i >= 0; i-- {
		if f, ok := b.Items[i].(*Field); ok && f.Key.Is(name) {
			if v, ok := f.BV.Value(); ok {
				return v, true
			}
		}
	}
	return token.Token{}, false
}

// FieldValueIs reports whether the last `name = ...` assignment has exactly
// the given value.
func (b *Block) FieldValueIs(name, value string) bool {
	v, ok := b.GetFieldValue(name)
	return ok && v.Is(value)
}

// GetFieldBool returns the last `name = yes|no` assignment as a bool.
func (b *Block) GetFieldBool(name string) (bool, bool) {
	if v, ok := b.GetFieldValue(name); ok {
		return v.Bool()
	}
	return false, false
}

// GetFieldTriBool reads a yes/no field, keeping absence and malformed
// values apart from a definite answer.
func (b *Block) GetFieldTriBool(name string) common.TriBool {
	v, ok := b.GetFieldValue(name)
	if !ok {
		return common.Maybe
	}
	val, ok := v.Bool()
	switch {
	case !ok:
		return common.Maybe
	case val:
		return common.True
	default:
		return common.False
	}
}

// GetFieldInteger returns the last `name = <int>` assignment.
func (b *Block) GetFieldInteger(name string) (int64, bool) {
	if v, ok := b.GetFieldValue(name); ok {
		return v.Int()
	}
	return 0, false
}

// GetFieldDate returns the last `name = <date>` assignment.
func (b *Block) GetFieldDate(name string) (token.Date, bool) {
	if v, ok := b.GetFieldValue(name); ok {
		return v.Date()
	}
	return token.Date{}, false
}

// GetFieldValues returns the values of every `name = value` assignment, in
// source order.
func (b *Block) GetFieldValues(name string) []token.Token {
	var vals []token.Token
	for _, item := range b.Items {
		if f, ok := item.(*Field); ok && f.Key.Is(name) {
			if v, ok := f.BV.Value(); ok {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

// GetFieldBlock returns the block of the last `name = { ... }` definition.
func (b *Block) GetFieldBlock(name string) (*Block, bool) {
	for i := len(b.Items) - 1; i >= 0; i-- {
		if f, ok := b.Items[i].(*Field); ok && f.Key.Is(name) {
			if sub, ok := f.BV.Block(); ok {
				return sub, true
			}
		}
	}
	return nil, false
}

// GetFieldBlocks returns the blocks of every `name = { ... }` definition,
// in source order.
func (b *Block) GetFieldBlocks(name string) []*Block {
	var blocks []*Block
	for _, item := range b.Items {
		if f, ok := item.(*Field); ok && f.Key.Is(name) {
			if sub, ok := f.BV.Block(); ok {
				blocks = append(blocks, sub)
			}
		}
	}
	return blocks
}

// GetFieldList returns the loose values inside the last `name = { a b c }`
// definition.
func (b *Block) GetFieldList(name string) ([]token.Token, bool) {
	if sub, ok := b.GetFieldBlock(name); ok {
		return sub.ItemValues(), true
	}
	return nil, false
}

// GetMultiFieldList returns the loose values inside every `name = { ... }`
// definition, concatenated in source order.
func (b *Block) GetMultiFieldList(name string) []token.Token {
	var vals []token.Token
	for _, sub := range b.GetFieldBlocks(name) {
		vals = append(vals, sub.ItemValues()...)
	}
	return vals
}

// GetField returns the BV of the last field with this key, of either shape.
func (b *Block) GetField(name string) (BV, bool) {
	for i := len(b.Items) - 1; i >= 0; i-- {
		if f, ok := b.Items[i].(*Field); ok && f.Key.Is(name) {
			return f.BV, true
		}
	}
	return BV{}, false
}

// GetKey returns the key token of the last field with this key.
func (b *Block) GetKey(name string) (token.Token, bool) {
	for i := len(b.Items) - 1; i >= 0; i-- {
		if f, ok := b.Items[i].(*Field); ok && f.Key.Is(name) {
			return f.Key, true
		}
	}
	return token.Token{}, false
}

// GetKeys returns the key tokens of every field with this key, in source
// order.
func (b *Block) GetKeys(name string) []token.Token {
	var keys []token.Token
	for _, item := range b.Items {
		if f, ok := item.(*Field); ok && f.Key.Is(name) {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// HasKey reports whether any field uses this key.
func (b *Block) HasKey(name string) bool {
	_, ok := b.GetKey(name)
	return ok
}

// HasKeyRecursive reports whether any field uses this key, here or in any
// nested block.
func (b *Block) HasKeyRecursive(name string) bool {
	for _, item := range b.Items {
		switch it := item.(type) {
		case *Field:
			if it.Key.Is(name) {
				return true
			}
			if sub, ok := it.BV.Block(); ok && sub.HasKeyRecursive(name) {
				return true
			}
		case *Block:
			if it.HasKeyRecursive(name) {
				return true
			}
		}
	}
	return false
}

// CountKeys counts the fields that use this key.
func (b *Block) CountKeys(name string) int {
	n := 0
	for _, item := range b.Items {
		if f, ok := item.(*Field); ok && f.Key.Is(name) {
			n++
		}
	}
	return n
}

// GetFieldAtDate resolves a history field: the effective value of `name`
// after applying every dated sub-block up to and including date. A direct
// `name = ...` field acts as the undated base value.
func (b *Block) GetFieldAtDate(name string, date token.Date) (BV, bool) {
	var found BV
	var foundOk bool
	var foundDate token.Date
	var foundDated bool
	for _, f := range b.Fields() {
		if f.Key.Is(name) && !foundDated {
			found, foundOk = f.BV, true
		} else if d, ok := f.Key.Date(); ok {
			if d.After(date) || (foundDated && d.Before(foundDate)) {
				continue
			}
			if sub, ok := f.BV.Block(); ok {
				if bv, ok := sub.GetField(name); ok {
					foundDate, foundDated = d, true
					found, foundOk = bv, true
				}
			}
		}
	}
	return found, foundOk
}

// GetFieldValueAtDate is GetFieldAtDate for value-shaped fields.
func (b *Block) GetFieldValueAtDate(name string, date token.Date) (token.Token, bool) {
	if bv, ok := b.GetFieldAtDate(name, date); ok {
		return bv.Value()
	}
	return token.Token{}, false
}

// Fields returns the block's fields in source order.
func (b *Block) Fields() []*Field {
	var fields []*Field
	for _, item := range b.Items {
		if f, ok := item.(*Field); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// FieldsWarn is Fields plus a Structure report for every loose value or
// sub-block encountered.
func (b *Block) FieldsWarn(rep *report.Reports) []*Field {
	var fields []*Field
	for _, item := range b.Items {
		if f, ok := expectField(item, rep); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// Definition is a flattened `key = { ... }` field for load loops.
type Definition struct {
	Key   token.Token
	Block *Block
}

// Assignment is a flattened `key = value` field for load loops.
type Assignment struct {
	Key   token.Token
	Value token.Token
}

// Definitions returns every `key = { ... }` field, accepting `?=`, in
// source order.
func (b *Block) Definitions() []Definition {
	var defs []Definition
	for _, f := range b.Fields() {
		if key, sub, ok := f.Definition(); ok {
			defs = append(defs, Definition{key, sub})
		}
	}
	return defs
}

// DefinitionsWarn is Definitions plus a Structure report for every item of
// any other shape.
func (b *Block) DefinitionsWarn(rep *report.Reports) []Definition {
	var defs []Definition
	for _, item := range b.Items {
		f, ok := expectField(item, rep)
		if !ok {
			continue
		}
		if key, sub, ok := f.ExpectDefinition(rep); ok {
			defs = append(defs, Definition{key, sub})
		}
	}
	return defs
}

// DrainDefinitionsWarn is DefinitionsWarn but empties the block, handing
// ownership of the sub-blocks to the caller.
func (b *Block) DrainDefinitionsWarn(rep *report.Reports) []Definition {
	defs := b.DefinitionsWarn(rep)
	b.Items = nil
	return defs
}

// Assignments returns every `key = value` field, accepting `?=`, in source
// order.
func (b *Block) Assignments() []Assignment {
	var as []Assignment
	for _, f := range b.Fields() {
		if key, v, ok := f.Assignment(); ok {
			as = append(as, Assignment{key, v})
		}
	}
	return as
}

// AssignmentsWarn is Assignments plus a Structure report for every item of
// any other shape.
func (b *Block) AssignmentsWarn(rep *report.Reports) []Assignment {
	var as []Assignment
	for _, item := range b.Items {
		f, ok := expectField(item, rep)
		if !ok {
			continue
		}
		if key, v, ok := f.ExpectAssignment(rep); ok {
			as = append(as, Assignment{key, v})
		}
	}
	return as
}

// Entry is a flattened field using plain `=`, of either value shape.
type Entry struct {
	Key token.Token
	BV  BV
}

// Entries returns every field using plain `=` as key-value pairs, in source
// order.
func (b *Block) Entries() []Entry {
	var es []Entry
	for _, f := range b.Fields() {
		if f.IsEq() {
			es = append(es, Entry{f.Key, f.BV})
		}
	}
	return es
}

// EntriesWarn is Entries plus Structure reports for loose items and
// Validation reports for fields using other comparators.
func (b *Block) EntriesWarn(rep *report.Reports) []Entry {
	var es []Entry
	for _, item := range b.Items {
		f, ok := expectField(item, rep)
		if !ok {
			continue
		}
		if !f.IsEq() {
			f.ExpectEq(rep)
			continue
		}
		es = append(es, Entry{f.Key, f.BV})
	}
	return es
}

// ItemValues returns the block's loose values in source order.
func (b *Block) ItemValues() []token.Token {
	var vals []token.Token
	for _, item := range b.Items {
		if v, ok := item.(Value); ok {
			vals = append(vals, v.Token)
		}
	}
	return vals
}

// ItemValuesWarn is ItemValues plus a Structure report for every item of
// any other shape.
func (b *Block) ItemValuesWarn(rep *report.Reports) []token.Token {
	var vals []token.Token
	for _, item := range b.Items {
		v, ok := item.(Value)
		if !ok {
			msg := fmt.Sprintf("expected value, found %s", Describe(item))
			rep.Err(report.Structure).Msg(msg).Loc(item).Push()
			continue
		}
		vals = append(vals, v.Token)
	}
	return vals
}

// SubBlocks returns the block's loose sub-blocks in source order.
func (b *Block) SubBlocks() []*Block {
	var blocks []*Block
	for _, item := range b.Items {
		if sub, ok := item.(*Block); ok {
			blocks = append(blocks, sub)
		}
	}
	return blocks
}

// SubBlocksWarn is SubBlocks plus a Structure report for every item of any
// other shape.
func (b *Block) SubBlocksWarn(rep *report.Reports) []*Block {
	var blocks []*Block
	for _, item := range b.Items {
		sub, ok := item.(*Block)
		if !ok {
			msg := fmt.Sprintf("expected block, found %s", Describe(item))
			rep.Err(report.Structure).Msg(msg).Loc(item).Push()
			continue
		}
		blocks = append(blocks, sub)
	}
	return blocks
}

// Equivalent reports whether two blocks hold the same items in the same
// order, by text.
func (b *Block) Equivalent(other Item) bool {
	o, ok := other.(*Block)
	if !ok || len(b.Items) != len(o.Items) {
		return false
	}
	for i := range b.Items {
		if !b.Items[i].Equivalent(o.Items[i]) {
			return false
		}
	}
	return true
}

// CondenseTag rewrites `key = tag trailing` sequences into single fields
// whose value combines tag and trailing with a `"` separator, which cannot
// occur in normally parsed tokens. Some awkward syntax, like the map mode
// color lists, parses as a tag assignment followed by a loose value; this
// puts the pieces back together before validation.
func (b *Block) CondenseTag(tag string) *Block {
	out := New(b.Loc)
	out.Tag = b.Tag
	var reserve *Field
	for _, item := range b.Items {
		if reserve != nil {
			if v, ok := item.(Value); ok {
				merged := reserve.BV.value.CombineSep(v.Token, '"')
				out.AddField(reserve.Key, reserve.Cmp, ValueBV(merged))
				reserve = nil
				continue
			}
			out.AddField(reserve.Key, reserve.Cmp, reserve.BV)
			reserve = nil
		}
		if f, ok := item.(*Field); ok {
			if v, ok := f.BV.Value(); ok {
				if v.Is(tag) {
					reserve = f
					continue
				}
				out.AddField(f.Key, f.Cmp, f.BV)
			} else if sub, ok := f.BV.Block(); ok {
				out.AddField(f.Key, f.Cmp, BlockBV(sub.CondenseTag(tag)))
			}
			continue
		}
		out.AddItem(item)
	}
	if reserve != nil {
		out.AddField(reserve.Key, reserve.Cmp, reserve.BV)
	}
	return out
}

// Describe names an item's shape for "expected X, found Y" messages.
func Describe(item Item) string {
	switch it := item.(type) {
	case Value:
		return "value"
	case *Block:
		return "block"
	case *Field:
		return it.Describe()
	}
	return "item"
}

func expectField(item Item, rep *report.Reports) (*Field, bool) {
	if f, ok := item.(*Field); ok {
		return f, true
	}
	msg := fmt.Sprintf("unexpected %s", Describe(item))
	rep.Err(report.Structure).Msg(msg).Info("did you forget an `=`?").Loc(item).Push()
	return nil, false
}

// String renders the block back to script form, for debug output and the
// console's expansion command. The output is normalized, not a copy of the
// original source.
func (b *Block) String() string {
	var sb strings.Builder
	b.write(&sb, 0)
	return sb.String()
}

func (b *Block) write(sb *strings.Builder, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, item := range b.Items {
		sb.WriteString(indent)
		switch it := item.(type) {
		case Value:
			sb.WriteString(it.Text)
		case *Block:
			writeSub(sb, it, depth)
		case *Field:
			sb.WriteString(it.Key.Text)
			sb.WriteByte(' ')
			sb.WriteString(it.Cmp.String())
			sb.WriteByte(' ')
			if sub, ok := it.BV.Block(); ok {
				writeSub(sb, sub, depth)
			} else {
				sb.WriteString(it.BV.value.Text)
			}
		}
		sb.WriteByte('\n')
	}
}

func writeSub(sb *strings.Builder, b *Block, depth int) {
	if b.Tag != nil {
		sb.WriteString(b.Tag.Text)
		sb.WriteByte(' ')
	}
	if len(b.Items) == 0 {
		sb.WriteString("{}")
		return
	}
	sb.WriteString("{\n")
	b.write(sb, depth+1)
	sb.WriteString(strings.Repeat("\t", depth))
	sb.WriteByte('}')
}
