// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer

import (
	"sync"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/token"
)

// Memory holds reader definitions: `@name = value` variables, which the
// game calls variables even though they are constants, and blocks defined
// with `@:define`. The global instance is read concurrently by parallel
// file parses; the lock makes reader-export promotion safe without relying
// on load order.
type Memory struct {
	mu        sync.RWMutex
	variables map[string]token.Token
	blocks    map[string]*ast.Block
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{
		variables: make(map[string]token.Token),
		blocks:    make(map[string]*ast.Block),
	}
}

// Merge copies other's definitions in, overwriting on collision.
func (m *Memory) Merge(other *Memory) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range other.variables {
		m.variables[k] = v
	}
	for k, b := range other.blocks {
		m.blocks[k] = b
	}
}

func (m *Memory) variable(name string) (token.Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.variables[name]
	return t, ok
}

func (m *Memory) block(name string) (*ast.Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[name]
	return b, ok
}

func (m *Memory) setVariable(name string, value token.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variables[name] = value
}

func (m *Memory) setBlock(name string, b *ast.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[name] = b
}

// CombinedMemory is the view a single file parse works against: the shared
// global definitions plus a local layer that shadows them. The local layer
// is discarded after the parse unless the file is under the reader-export
// directory, in which case the caller merges it into the global layer.
type CombinedMemory struct {
	global *Memory
	local  *Memory
}

// NewCombined starts a parse-local view over global. A nil global gets an
// empty one, which keeps internal parses simple.
func NewCombined(global *Memory) *CombinedMemory {
	if global == nil {
		global = NewMemory()
	}
	return &CombinedMemory{global: global, local: NewMemory()}
}

// CombinedFromLocal resumes a view with an existing local layer. Macro
// re-parsing uses this to see the defining file's local values.
func CombinedFromLocal(global, local *Memory) *CombinedMemory {
	if global == nil {
		global = NewMemory()
	}
	if local == nil {
		local = NewMemory()
	}
	return &CombinedMemory{global: global, local: local}
}

// GetVariable resolves a reader variable, local layer first.
func (m *CombinedMemory) GetVariable(name string) (token.Token, bool) {
	if t, ok := m.local.variable(name); ok {
		return t, true
	}
	return m.global.variable(name)
}

// GetLocalVariable resolves a reader variable in the local layer only.
func (m *CombinedMemory) GetLocalVariable(name string) (token.Token, bool) {
	return m.local.variable(name)
}

// HasVariable reports whether the name is defined in either layer.
func (m *CombinedMemory) HasVariable(name string) bool {
	_, ok := m.GetVariable(name)
	return ok
}

// SetVariable defines a reader variable in the local layer.
func (m *CombinedMemory) SetVariable(name string, value token.Token) {
	m.local.setVariable(name, value)
}

// GetBlock resolves an `@:define`d block, local layer first.
func (m *CombinedMemory) GetBlock(name string) (*ast.Block, bool) {
	if b, ok := m.local.block(name); ok {
		return b, true
	}
	return m.global.block(name)
}

// HasBlock reports whether the name is defined as a block in either layer.
func (m *CombinedMemory) HasBlock(name string) bool {
	_, ok := m.GetBlock(name)
	return ok
}

// DefineBlock defines a block in the local layer.
func (m *CombinedMemory) DefineBlock(name string, b *ast.Block) {
	m.local.setBlock(name, b)
}

// Global returns the shared layer.
func (m *CombinedMemory) Global() *Memory { return m.global }

// Local returns the parse-local layer, for reader-export promotion.
func (m *CombinedMemory) Local() *Memory { return m.local }
