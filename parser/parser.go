// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser assembles scanned lexemes into ast blocks.
//
// The entry points are ParseFile, ParseFileExport, ParseMacro and
// ParseInternal. Parsing never fails for content reasons: every problem in
// the script is reported and recovered from locally, and the caller always
// gets a block holding whatever structure could be salvaged.
package parser

import (
	"strings"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/lexer"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// knownTags are the words the game parses as a block tag when they sit
// between a field's comparator and the opening brace, as in
// `color = hsv { 0.5 0.5 1.0 }` or `sea_zones = RANGE { 3201 3283 }`.
var knownTags = map[string]bool{
	"rgb":         true,
	"hsv":         true,
	"hsv360":      true,
	"cylindrical": true,
	"spherical":   true,
	"LIST":        true,
	"RANGE":       true,
}

// parseLevel is one level of brace nesting under construction.
type parseLevel struct {
	block *ast.Block
	// tag is set when this block was opened as `tag {`.
	tag *token.Token
	// defName is set when this block is the body of `@:define name`.
	// On close it goes into reader memory instead of the parent block.
	defName *token.Token
	// open is the BlockStart lexeme that opened this level. Zero at the
	// file root.
	open lexer.Lexeme

	key    token.Token
	hasKey bool
	cmp    ast.Comparator
	cmpTok token.Token
	hasCmp bool

	// macro is set when a `$PARAM$` appeared in this block or below it.
	macro bool
}

// reserved is a completed `key = value` field held back one lexeme, in
// case the value turns out to be the tag of a following block.
type reserved struct {
	key    token.Token
	cmp    ast.Comparator
	cmpTok token.Token
	value  token.Token
}

// varDef is a reader-variable definition in progress: `@name` was seen at
// the top level of a file and the `= value` part is still expected.
type varDef struct {
	name   token.Token
	cmp    ast.Comparator
	hasCmp bool
}

// dirState is a reader directive waiting for its operands.
type dirState struct {
	dir lexer.Directive
	// name is the first operand of `@:define`.
	name *token.Token
	// eqSeen tolerates a single `=` between a define's name and body.
	eqSeen bool
}

type parser struct {
	rep    *report.Reports
	mem    *lexer.CombinedMemory
	inputs []token.Token
	scan   *lexer.Scanner

	current parseLevel
	stack   []parseLevel
	reserve *reserved
	varDef  *varDef
	dir     *dirState

	// fileLoc is the whole-file location used for end-of-file reports.
	fileLoc token.Loc
	// pend is a one-lexeme pushback used by run-coalescing.
	pend *lexer.Lexeme
}

func newParser(inputs []token.Token, mem *lexer.CombinedMemory, rep *report.Reports, fileLoc token.Loc) *parser {
	return &parser{
		rep:     rep,
		mem:     mem,
		inputs:  inputs,
		scan:    lexer.New(rep, inputs...),
		current: parseLevel{block: ast.New(inputs[0].Loc)},
		fileLoc: fileLoc,
	}
}

func (p *parser) next() (lexer.Lexeme, bool) {
	if p.pend != nil {
		lx := *p.pend
		p.pend = nil
		return lx, true
	}
	return p.scan.Next()
}

func (p *parser) pushback(lx lexer.Lexeme) {
	p.pend = &lx
}

func (p *parser) run() *ast.Block {
	for {
		lx, ok := p.next()
		if !ok {
			break
		}
		p.dispatch(lx)
	}
	return p.eof()
}

func (p *parser) dispatch(lx lexer.Lexeme) {
	switch lx.Kind {
	case lexer.General, lexer.MacroParam:
		tok, hasParam := p.coalesce(lx)
		if hasParam {
			if len(p.stack) == 0 {
				p.rep.Err(report.Macro).
					Msg("$-substitutions only work inside blocks").
					Loc(tok).Push()
			} else {
				p.current.macro = true
			}
		}
		p.value(tok)
	case lexer.Comparator:
		p.comparator(lx)
	case lexer.VariableRef:
		p.variable(lx.Tok)
	case lexer.BlockStart:
		p.blockStart(lx)
	case lexer.BlockEnd:
		p.blockEnd(lx)
	case lexer.CalcStart:
		p.calc(lx)
	case lexer.ReaderDirective:
		p.directive(lx)
	default:
		// Calculation lexemes outside `@[ ]`.
		p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
	}
}

// generalToken normalizes a General or MacroParam lexeme to pass-through
// token text. A parameter reads `$NAME$` again, located at its `$`.
func generalToken(lx lexer.Lexeme) token.Token {
	if lx.Kind == lexer.MacroParam {
		loc := lx.Tok.Loc
		loc.Column--
		return token.NewToken("$"+lx.Tok.Text+"$", loc)
	}
	return lx.Tok
}

// coalesce merges a run of byte-adjacent General and MacroParam lexemes
// into one token, so that `tradition_$REGION$_culture` stays a single
// value the way the game reads it. Only runs involving a parameter merge;
// plain values always have a separator between them.
func (p *parser) coalesce(first lexer.Lexeme) (token.Token, bool) {
	tok := generalToken(first)
	hasParam := first.Kind == lexer.MacroParam
	prevParam := hasParam
	seg, end := first.Seg, first.End
	for {
		lx, ok := p.next()
		if !ok {
			break
		}
		mergeable := lx.Kind == lexer.General || lx.Kind == lexer.MacroParam
		adjacent := lx.Seg == seg && lx.Start == end
		if !mergeable || !adjacent || !(prevParam || lx.Kind == lexer.MacroParam) {
			p.pushback(lx)
			break
		}
		tok = tok.Combine(generalToken(lx))
		end = lx.End
		prevParam = lx.Kind == lexer.MacroParam
		hasParam = hasParam || prevParam
	}
	return tok, hasParam
}

// value handles an incoming value token: it may complete a directive or a
// reader-variable definition, become a field's value, or chain as the next
// key.
func (p *parser) value(tok token.Token) {
	if p.dir != nil {
		p.dirValue(tok)
		return
	}
	if p.varDef != nil {
		p.varDefValue(tok)
		return
	}
	p.flushReserve()
	if p.current.hasKey {
		if p.current.hasCmp {
			p.reserve = &reserved{
				key:    p.current.key,
				cmp:    p.current.cmp,
				cmpTok: p.current.cmpTok,
				value:  tok,
			}
			p.current.hasKey, p.current.hasCmp = false, false
		} else {
			p.current.block.AddValue(p.current.key)
			p.current.key = tok
		}
	} else {
		p.current.key = tok
		p.current.hasKey = true
	}
}

func (p *parser) flushReserve() {
	if p.reserve == nil {
		return
	}
	r := p.reserve
	p.reserve = nil
	p.current.block.AddField(r.key, r.cmp, ast.ValueBV(r.value))
}

func (p *parser) comparator(lx lexer.Lexeme) {
	if p.dir != nil {
		if p.dir.dir == lexer.DirDefine && p.dir.name != nil && !p.dir.eqSeen && lx.Cmp == ast.Eq {
			p.dir.eqSeen = true
			return
		}
		p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
		return
	}
	if p.varDef != nil {
		if p.varDef.hasCmp {
			p.rep.Err(report.ParseError).
				Msgf("double comparator `%s`", lx.Tok).Loc(lx.Tok).Push()
			return
		}
		p.varDef.cmp, p.varDef.hasCmp = lx.Cmp, true
		return
	}
	p.flushReserve()
	if !p.current.hasKey {
		p.rep.Err(report.ParseError).
			Msgf("unexpected comparator `%s`", lx.Tok).Loc(lx.Tok).Push()
		return
	}
	if p.current.hasCmp {
		p.rep.Err(report.ParseError).
			Msgf("double comparator `%s`", lx.Tok).Loc(lx.Tok).Push()
	}
	p.current.cmp, p.current.cmpTok, p.current.hasCmp = lx.Cmp, lx.Tok, true
}

// variable handles `@name`. At the top level of a file with nothing
// pending it starts a definition; anywhere else it is a reference and the
// stored value substitutes in as if typed at that location.
func (p *parser) variable(tok token.Token) {
	if p.dir != nil {
		p.dirValue(tok)
		return
	}
	if p.varDef == nil && len(p.stack) == 0 && !p.current.hasKey {
		p.varDef = &varDef{name: tok}
		return
	}
	p.value(p.substitute(tok))
}

// substitute resolves a reader-variable reference. An unknown name is
// reported and passed through literally so the surrounding field keeps its
// shape.
func (p *parser) substitute(tok token.Token) token.Token {
	name := strings.TrimPrefix(tok.Text, "@")
	if v, ok := p.mem.GetVariable(name); ok {
		return token.NewToken(v.Text, tok.Loc)
	}
	p.rep.Err(report.ReaderDirectives).
		Msgf("reader variable %s not defined", tok).Loc(tok).Push()
	return tok
}

func (p *parser) varDefValue(tok token.Token) {
	vd := p.varDef
	p.varDef = nil
	if !vd.hasCmp {
		name := strings.TrimPrefix(vd.name.Text, "@")
		p.rep.Err(report.ReaderDirectives).
			Msgf("expected `%s =`", name).Loc(vd.name).Push()
		p.value(tok)
		return
	}
	p.defineVar(vd.name, vd.cmp, tok)
}

// defineVar stores a reader-variable definition. A direct `@name = value`
// arrives with the leading `@`; `@:register_variable name = value` without.
func (p *parser) defineVar(nameTok token.Token, cmp ast.Comparator, value token.Token) {
	name := strings.TrimPrefix(nameTok.Text, "@")
	if cmp != ast.Eq {
		p.rep.Err(report.ReaderDirectives).
			Msgf("expected `%s =`", name).Loc(nameTok).Push()
	}
	switch {
	case p.mem.HasVariable(name):
		p.rep.Err(report.ReaderDirectives).
			Msgf("`%s` is already defined as a reader variable", name).
			Loc(nameTok).Push()
	case !startsWithASCIILetter(name):
		p.rep.Err(report.ReaderDirectives).
			Msg("reader variable names must start with an ascii letter").
			Loc(nameTok).Push()
	default:
		p.mem.SetVariable(name, value)
	}
}

func (p *parser) defineBlock(nameTok token.Token, b *ast.Block) {
	name := strings.TrimPrefix(nameTok.Text, "@")
	switch {
	case p.mem.HasBlock(name):
		p.rep.Err(report.ReaderDirectives).
			Msgf("`%s` is already defined as a reader block", name).
			Loc(nameTok).Push()
	case !startsWithASCIILetter(name):
		p.rep.Err(report.ReaderDirectives).
			Msg("reader block names must start with an ascii letter").
			Loc(nameTok).Push()
	default:
		p.mem.DefineBlock(name, b)
	}
}

func (p *parser) blockStart(lx lexer.Lexeme) {
	if p.dir != nil {
		d := p.dir
		p.dir = nil
		if d.dir == lexer.DirDefine && d.name != nil {
			p.push(lx, nil, d.name)
			return
		}
		p.rep.Err(report.ParseError).Msg("unexpected `{`").Loc(lx.Tok).Push()
	}
	if p.varDef != nil {
		p.varDef = nil
		p.rep.Err(report.ParseError).Msg("unexpected `{`").Loc(lx.Tok).Push()
	}
	if p.reserve != nil && knownTags[p.reserve.value.Text] {
		r := p.reserve
		p.reserve = nil
		p.current.key, p.current.hasKey = r.key, true
		p.current.cmp, p.current.cmpTok, p.current.hasCmp = r.cmp, r.cmpTok, true
		tag := r.value
		p.push(lx, &tag, nil)
		return
	}
	p.flushReserve()
	if p.current.hasKey && !p.current.hasCmp && knownTags[p.current.key.Text] {
		tag := p.current.key
		p.current.hasKey = false
		p.push(lx, &tag, nil)
		return
	}
	p.push(lx, nil, nil)
}

func (p *parser) push(open lexer.Lexeme, tag, defName *token.Token) {
	p.stack = append(p.stack, p.current)
	p.current = parseLevel{
		block:   ast.New(open.Tok.Loc),
		tag:     tag,
		defName: defName,
		open:    open,
	}
}

func (p *parser) blockEnd(lx lexer.Lexeme) {
	if p.dir != nil {
		p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
		p.dir = nil
	}
	if p.varDef != nil {
		p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
		p.varDef = nil
	}
	p.endAssign()
	if len(p.stack) == 0 {
		p.rep.Err(report.ParseError).Msg("unexpected `}`").Loc(lx.Tok).Push()
		return
	}
	level := p.current
	p.current = p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	closed := level.block
	closed.Tag = level.tag
	if level.macro {
		p.current.macro = true
		p.captureSource(level, lx)
	}
	if level.defName != nil {
		p.defineBlock(*level.defName, closed)
		return
	}
	p.scopeValue(closed)
}

// captureSource records the raw text between a macro block's braces so it
// can be re-lexed with arguments substituted later. Capture needs both
// braces in the same input segment; during macro re-parse a nested block
// can straddle segments, and such a block cannot be expanded again anyway.
func (p *parser) captureSource(level parseLevel, closeLx lexer.Lexeme) {
	open := level.open
	if open.Seg != closeLx.Seg {
		return
	}
	text := p.inputs[open.Seg].Text[open.End:closeLx.Start]
	loc := open.Tok.Loc
	loc.Column++
	level.block.Source = lexer.SplitMacros(token.NewToken(text, loc), p.mem, p.rep)
}

// endAssign commits whatever is pending at the current level. A key whose
// comparator never got a value stays in the tree as a loose value.
func (p *parser) endAssign() {
	p.flushReserve()
	if p.current.hasKey {
		if p.current.hasCmp {
			p.rep.Err(report.ParseError).
				Msg("comparator without value").Loc(p.current.cmpTok).Push()
		}
		p.current.block.AddValue(p.current.key)
		p.current.hasKey, p.current.hasCmp = false, false
	}
}

// scopeValue attaches a closed block to the current level. Like value(),
// but a block cannot become a key.
func (p *parser) scopeValue(b *ast.Block) {
	if p.current.hasKey {
		if p.current.hasCmp {
			p.current.block.AddField(p.current.key, p.current.cmp, ast.BlockBV(b))
			p.current.hasKey, p.current.hasCmp = false, false
		} else {
			p.current.block.AddValue(p.current.key)
			p.current.block.AddBlock(b)
			p.current.hasKey = false
		}
	} else {
		p.current.block.AddBlock(b)
	}
}

func (p *parser) directive(lx lexer.Lexeme) {
	if p.dir != nil {
		p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
	}
	if p.varDef != nil {
		p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
		p.varDef = nil
	}
	p.dir = &dirState{dir: lx.Dir}
}

// dirValue handles the operand tokens of an active directive.
func (p *parser) dirValue(tok token.Token) {
	d := p.dir
	switch d.dir {
	case lexer.DirRegisterVariable:
		// The name arrives bare; from here it is an ordinary definition.
		p.dir = nil
		p.varDef = &varDef{name: tok}
	case lexer.DirLoadVariable:
		p.dir = nil
		p.value(p.substitute(tok))
	case lexer.DirDefine:
		if d.name == nil {
			d.name = &tok
			return
		}
		// `@:define name value` defines a variable; a block body goes
		// through blockStart instead.
		p.dir = nil
		p.defineVar(*d.name, ast.Eq, tok)
	case lexer.DirInsert:
		p.dir = nil
		p.insert(tok)
	case lexer.DirLog:
		// The game prints the value to its reader log; nothing to do.
		p.dir = nil
	}
}

// insert splices a `@:define`d block in at the current position: as the
// value of a pending field, or else its items inline.
func (p *parser) insert(nameTok token.Token) {
	name := strings.TrimPrefix(nameTok.Text, "@")
	b, ok := p.mem.GetBlock(name)
	if !ok {
		p.rep.Err(report.ReaderDirectives).
			Msgf("reader block %s not defined", nameTok).Loc(nameTok).Push()
		return
	}
	if p.current.hasKey && p.current.hasCmp {
		p.current.block.AddField(p.current.key, p.current.cmp, ast.BlockBV(b))
		p.current.hasKey, p.current.hasCmp = false, false
		return
	}
	p.flushReserve()
	if p.current.hasKey {
		p.current.block.AddValue(p.current.key)
		p.current.hasKey = false
	}
	for _, item := range b.Items {
		p.current.block.AddItem(item)
	}
}

func (p *parser) eof() *ast.Block {
	if p.dir != nil || p.varDef != nil {
		p.rep.Err(report.ParseError).
			Msg("unexpected end of file").Loc(p.fileLoc).Push()
		p.dir, p.varDef = nil, nil
	}
	p.endAssign()
	for len(p.stack) > 0 {
		p.rep.Err(report.ParseError).
			Msg("opening { was never closed").Loc(p.current.block.Loc).Push()
		level := p.current
		p.current = p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]

		closed := level.block
		closed.Tag = level.tag
		if level.macro {
			p.current.macro = true
		}
		if level.defName != nil {
			p.defineBlock(*level.defName, closed)
			continue
		}
		p.scopeValue(closed)
	}
	return p.current.block
}

func startsWithASCIILetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ParseFile parses one file's content into a block. Reader definitions in
// the file are visible to it alone; global holds what the reader-export
// directory put in shared memory and may be nil.
func ParseFile(loc token.Loc, content string, global *lexer.Memory, rep *report.Reports) *ast.Block {
	b, _ := parseFile(loc, content, global, rep)
	return b
}

// ParseFileExport parses a file from the privileged reader-export
// directory: its reader definitions merge into the global memory after the
// parse, making them visible to every later file.
func ParseFileExport(loc token.Loc, content string, global *lexer.Memory, rep *report.Reports) *ast.Block {
	b, local := parseFile(loc, content, global, rep)
	global.Merge(local)
	return b
}

func parseFile(loc token.Loc, content string, global *lexer.Memory, rep *report.Reports) (*ast.Block, *lexer.Memory) {
	fileLoc := loc
	fileLoc.Line, fileLoc.Column = 0, 0
	start := loc
	start.Line, start.Column = 1, 1

	mem := lexer.NewCombined(global)
	inputs := []token.Token{token.NewToken(content, start)}
	b := newParser(inputs, mem, rep, fileLoc).run()
	b.Loc = fileLoc
	return b, mem.Local()
}

// ParseMacro re-parses a macro after argument substitution. A full
// re-parse is needed because the game engine allows tricks such as passing
// `#` as an argument to comment out the rest of a line. Local values from
// the defining file are already baked into the inputs; a fresh local
// memory serves any definitions the expansion itself makes.
func ParseMacro(inputs []token.Token, global *lexer.Memory, rep *report.Reports) *ast.Block {
	if len(inputs) == 0 {
		return ast.New(token.Loc{})
	}
	fileLoc := inputs[0].Loc
	fileLoc.Line, fileLoc.Column = 0, 0
	mem := lexer.NewCombined(global)
	return newParser(inputs, mem, rep, fileLoc).run()
}

// ExpandMacro substitutes args into a macro block's recorded source and
// re-parses the result. loc is the invocation site; locations inside the
// expansion link back to it, and through it to wherever each argument was
// written. Returns nil when the block recorded no source.
func ExpandMacro(b *ast.Block, args []ast.MacroArg, loc token.Loc, global *lexer.Memory, rep *report.Reports) *ast.Block {
	inputs := b.ExpandMacroTokens(args, loc)
	if inputs == nil {
		return nil
	}
	return ParseMacro(inputs, global, rep)
}

// ParseInternal parses a string of script shipped inside the tool itself.
// desc names the string in any diagnostics it produces.
func ParseInternal(desc, content string, rep *report.Reports) *ast.Block {
	idx := token.Paths.Store(desc, desc)
	loc := token.Loc{Path: idx, Kind: token.Internal}
	return ParseFile(loc, content, nil, rep)
}
