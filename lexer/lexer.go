// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lexer scans script text into lexemes and keeps the reader memory
// that `@name` values and `@:define` blocks live in.
//
// The scanner takes a sequence of input segments rather than a plain
// string. A whole file is a single segment; a macro expansion is the
// macro's source interleaved with substituted arguments, each carrying its
// own location, and tokens may run across the seams. Malformed input never
// aborts a scan: every problem is reported and skipped past.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdxlint/pdxlint/ast"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// controlZ is by convention an end-of-text marker, and the game engine
// treats it as one.
const controlZ = '\x1a'

// Kind classifies a lexeme.
type Kind uint8

const (
	// General is an unquoted id or a quoted string.
	General Kind = iota
	// Comparator is one of = == ?= != < > <= >=.
	Comparator
	// VariableRef is `@name`, text including the `@`.
	VariableRef
	// MacroParam is `$NAME$`, text excluding the `$` markers.
	MacroParam
	// BlockStart is `{`.
	BlockStart
	// BlockEnd is `}`.
	BlockEnd
	// CalcStart is `@[`.
	CalcStart
	// CalcEnd is `]`.
	CalcEnd
	// OpenParen and CloseParen are `(` and `)`, inside calculations.
	OpenParen
	CloseParen
	// Add, Subtract, Multiply and Divide are the calculation operators.
	Add
	Subtract
	Multiply
	Divide
	// ReaderDirective is an `@:` form such as `@:define`.
	ReaderDirective
)

// Directive identifies which reader directive a ReaderDirective lexeme is.
type Directive uint8

const (
	DirNone Directive = iota
	DirRegisterVariable
	DirLoadVariable
	DirDefine
	DirInsert
	DirLog
)

// Lexeme is one scanned unit. Seg, Start and End locate its bytes within
// the input segments for source capture; End is only meaningful when the
// lexeme ends in the segment it started in, and consumers only slice spans
// whose endpoints agree on the segment.
type Lexeme struct {
	Kind Kind
	Tok  token.Token
	Cmp  ast.Comparator
	Dir  Directive

	Seg        int
	Start, End int
}

// String names the lexeme for "unexpected ..." messages.
func (l Lexeme) String() string {
	switch l.Kind {
	case General:
		return fmt.Sprintf("value `%s`", l.Tok)
	case Comparator:
		return fmt.Sprintf("comparator `%s`", l.Tok)
	case VariableRef:
		return fmt.Sprintf("variable `%s`", l.Tok)
	case MacroParam:
		return fmt.Sprintf("parameter `$%s$`", l.Tok)
	case BlockStart:
		return "`{`"
	case BlockEnd:
		return "`}`"
	case CalcStart:
		return "`@[`"
	case CalcEnd:
		return "`]`"
	case OpenParen:
		return "`(`"
	case CloseParen:
		return "`)`"
	case Add:
		return "`+`"
	case Subtract:
		return "`-`"
	case Multiply:
		return "`*`"
	case Divide:
		return "`/`"
	case ReaderDirective:
		return fmt.Sprintf("directive `%s`", l.Tok)
	}
	return "lexeme"
}

// Scanner produces lexemes on demand. It tracks brace depth only to warn
// about suspicious brace placement; nesting is the parser's business.
type Scanner struct {
	rep    *report.Reports
	inputs []token.Token

	seg        int
	pos        int
	loc        token.Loc
	braceDepth int
	inCalc     bool
	done       bool
}

// New returns a scanner over the given input segments. At least one segment
// is required, even if empty.
func New(rep *report.Reports, inputs ...token.Token) *Scanner {
	if len(inputs) == 0 {
		panic("scanner needs at least one input segment")
	}
	return &Scanner{rep: rep, inputs: inputs, loc: inputs[0].Loc}
}

// peek returns the current char. Stepping past the end of a segment moves
// to the next one, resetting the location to that segment's own.
func (s *Scanner) peek() (rune, bool) {
	for {
		text := s.inputs[s.seg].Text
		if s.pos < len(text) {
			r, _ := utf8.DecodeRuneInString(text[s.pos:])
			return r, true
		}
		if s.seg+1 >= len(s.inputs) {
			return 0, false
		}
		s.seg++
		s.pos = 0
		s.loc = s.inputs[s.seg].Loc
	}
}

// consume advances past the current char.
func (s *Scanner) consume() {
	r, ok := s.peek()
	if !ok {
		return
	}
	s.pos += utf8.RuneLen(r)
	if r == '\n' {
		s.loc.Line++
		s.loc.Column = 1
	} else {
		s.loc.Column++
	}
}

// startCob opens a text accumulator at the current char.
func (s *Scanner) startCob() cob {
	s.peek()
	var c cob
	c.set(s.inputs[s.seg].Text, s.seg, s.pos, s.loc)
	return c
}

// spanEnd computes a lexeme's End offset within its starting segment: the
// current position plus width, clamped to the segment end when scanning has
// moved on to a later segment.
func (s *Scanner) spanEnd(seg, width int) int {
	if s.seg == seg {
		return s.pos + width
	}
	return len(s.inputs[seg].Text)
}

// onlyWhitespaceLeft consumes the rest of the input and reports whether all
// of it was whitespace.
func (s *Scanner) onlyWhitespaceLeft() bool {
	for {
		r, ok := s.peek()
		if !ok {
			return true
		}
		if !unicode.IsSpace(r) {
			return false
		}
		s.consume()
	}
}

// Next returns the next lexeme, or false at end of input.
func (s *Scanner) Next() (Lexeme, bool) {
	if s.done {
		return Lexeme{}, false
	}
	for {
		r, ok := s.peek()
		if !ok {
			return Lexeme{}, false
		}
		switch {
		case isASCIISpace(r):
			s.consume()
		case !s.inCalc && isIDChar(r):
			return s.scanID(), true
		case isComparatorChar(r):
			return s.scanComparator(), true
		case s.inCalc && (isLocalValueChar(r) || r == '.'):
			return s.scanCalcOperand(), true
		case r == ';':
			// Silently accepted; putting it after a number is a common
			// mistake and the game does not seem to mind.
			s.consume()
		case r == '"':
			return s.scanQuoted(), true
		case r == '#':
			s.skipComment()
		case r == '$':
			return s.scanMacroParam(), true
		case r == '@':
			if lx, ok := s.scanAt(); ok {
				return lx, true
			}
			// Swallowed directive; keep scanning.
		case r == '{':
			lx := s.single(BlockStart, "{")
			s.braceDepth++
			return lx, true
		case r == '}':
			if s.braceDepth > 0 {
				s.braceDepth--
			}
			if s.loc.Column == 1 && s.braceDepth > 0 {
				s.rep.Warn(report.BracePlacement).Weak().
					Msg("possible brace error").
					Info("This closing brace is at the start of the line but does not close a top-level block.").
					Loc(s.loc).Push()
			}
			lx := s.single(BlockEnd, "}")
			s.inCalc = false // synchronization point
			return lx, true
		case r == ']':
			lx := s.single(CalcEnd, "]")
			s.inCalc = false
			return lx, true
		case r == '(':
			return s.single(OpenParen, "("), true
		case r == ')':
			return s.single(CloseParen, ")"), true
		case r == '+':
			return s.single(Add, "+"), true
		case r == '-':
			return s.single(Subtract, "-"), true
		case r == '*':
			return s.single(Multiply, "*"), true
		case r == '/':
			return s.single(Divide, "/"), true
		case r == controlZ:
			loc := s.loc
			s.consume()
			if s.onlyWhitespaceLeft() {
				s.rep.Untidy(report.ParseError).Msg("^Z in file").
					Info("This control code means stop reading the file here, which will cause trouble if you add more code later.").
					Loc(loc).Push()
			} else {
				s.rep.Err(report.ParseError).Msg("^Z in file").
					Info("This control code means stop reading the file here. Nothing that follows will be read.").
					Loc(loc).Push()
			}
			s.done = true
			return Lexeme{}, false
		default:
			s.rep.Err(report.ParseError).
				Msgf("unrecognized character `%c`", r).
				Loc(s.loc).Push()
			s.consume()
		}
	}
}

// single emits a one-char lexeme at the current position and consumes it.
func (s *Scanner) single(kind Kind, text string) Lexeme {
	lx := Lexeme{
		Kind: kind,
		Tok:  token.NewToken(text, s.loc),
		Seg:  s.seg, Start: s.pos, End: s.pos + 1,
	}
	s.consume()
	return lx
}

// scanID reads an unquoted token.
func (s *Scanner) scanID() Lexeme {
	seg, start := s.seg, s.pos
	id := s.startCob()
	r, _ := s.peek()
	id.add(r, s.seg, s.pos)
	s.consume()
	for {
		r, ok := s.peek()
		if !ok || !isIDChar(r) {
			break
		}
		id.add(r, s.seg, s.pos)
		s.consume()
	}
	return Lexeme{Kind: General, Tok: id.take(), Seg: seg, Start: start, End: s.spanEnd(seg, 0)}
}

// scanComparator reads a run of comparator chars and resolves it, falling
// back to `=` for nonsense runs like `=!=` so parsing can continue.
func (s *Scanner) scanComparator() Lexeme {
	seg, start := s.seg, s.pos
	id := s.startCob()
	r, _ := s.peek()
	id.add(r, s.seg, s.pos)
	s.consume()
	for {
		r, ok := s.peek()
		if !ok || !isComparatorChar(r) {
			break
		}
		id.add(r, s.seg, s.pos)
		s.consume()
	}
	tok := id.take()
	cmp, ok := ast.ParseComparator(tok.Text)
	if !ok {
		s.rep.Err(report.ParseError).
			Msgf("unrecognized comparator `%s`", tok).
			Loc(tok).Push()
		cmp = ast.Eq
	}
	return Lexeme{Kind: Comparator, Tok: tok, Cmp: cmp, Seg: seg, Start: start, End: s.spanEnd(seg, 0)}
}

// scanCalcOperand reads a number or reader-variable name inside `@[ ]`,
// where the id charset is much narrower than in normal script.
func (s *Scanner) scanCalcOperand() Lexeme {
	seg, start := s.seg, s.pos
	id := s.startCob()
	r, _ := s.peek()
	id.add(r, s.seg, s.pos)
	s.consume()
	for {
		r, ok := s.peek()
		if !ok || !(isLocalValueChar(r) || r == '.') {
			break
		}
		id.add(r, s.seg, s.pos)
		s.consume()
	}
	return Lexeme{Kind: General, Tok: id.take(), Seg: seg, Start: start, End: s.spanEnd(seg, 0)}
}

// scanQuoted reads a quoted token. The quotes are not part of the token
// text. A newline inside the quotes is reported but the string continues,
// matching how the game reads it.
func (s *Scanner) scanQuoted() Lexeme {
	seg, start := s.seg, s.pos
	startLoc := s.loc
	s.consume()
	id := s.startCob()
	for {
		r, ok := s.peek()
		if !ok {
			break
		}
		switch r {
		case '\n':
			id.add(r, s.seg, s.pos)
			s.rep.Warn(report.ParseError).Weak().
				Msg("quoted string not closed").Loc(s.loc).Push()
			s.consume()
		case '"':
			end := s.spanEnd(seg, 1)
			tok := id.take()
			s.consume()
			return Lexeme{Kind: General, Tok: tok, Seg: seg, Start: start, End: end}
		default:
			id.add(r, s.seg, s.pos)
			s.consume()
		}
	}
	s.rep.Err(report.ParseError).Msg("quoted string not closed").Loc(startLoc).Push()
	return Lexeme{Kind: General, Tok: id.take(), Seg: seg, Start: start, End: s.spanEnd(seg, 0)}
}

// skipComment consumes a `#` comment through the end of the line.
func (s *Scanner) skipComment() {
	s.consume()
	for {
		r, ok := s.peek()
		if !ok {
			return
		}
		s.consume()
		if r == '\n' {
			return
		}
	}
}

// scanMacroParam reads `$NAME$`. A `$` that is not followed by an id run
// and a closing `$` is not a macro parameter to the game; the partial text
// comes back as a plain value after a report.
func (s *Scanner) scanMacroParam() Lexeme {
	seg, start := s.seg, s.pos
	startLoc := s.loc
	s.consume()
	id := s.startCob()
	for {
		r, ok := s.peek()
		if !ok {
			break
		}
		if isIDChar(r) {
			id.add(r, s.seg, s.pos)
			s.consume()
			continue
		}
		if r == '$' {
			end := s.spanEnd(seg, 1)
			tok := id.take()
			s.consume()
			return Lexeme{Kind: MacroParam, Tok: tok, Seg: seg, Start: start, End: end}
		}
		s.rep.Err(report.ParseError).Msg("macro parameter not closed").Loc(s.loc).Push()
		return Lexeme{Kind: General, Tok: id.take(), Seg: seg, Start: start, End: s.spanEnd(seg, 0)}
	}
	s.rep.Err(report.ParseError).Msg("macro parameter not closed").Loc(startLoc).Push()
	return Lexeme{Kind: General, Tok: id.take(), Seg: seg, Start: start, End: s.spanEnd(seg, 0)}
}

// scanAt handles everything starting with `@`: the `@[` calculation
// opener, `@:` reader directives, and plain `@name` references. The second
// return is false when the construct was reported and swallowed.
func (s *Scanner) scanAt() (Lexeme, bool) {
	seg, start := s.seg, s.pos
	atLoc := s.loc
	id := s.startCob()
	id.add('@', s.seg, s.pos)
	s.consume()

	if r, ok := s.peek(); ok && r == '[' {
		s.consume()
		s.inCalc = true
		return Lexeme{
			Kind: CalcStart,
			Tok:  token.NewToken("@[", atLoc),
			Seg:  seg, Start: start, End: start + 2,
		}, true
	}

	if r, ok := s.peek(); ok && r == ':' {
		id.add(':', s.seg, s.pos)
		s.consume()
		for {
			r, ok := s.peek()
			// Accept `-` too, to be able to suggest `_` when it is misused.
			if !ok || !(isLocalValueChar(r) || r == '-') {
				break
			}
			id.add(r, s.seg, s.pos)
			s.consume()
		}
		end := s.spanEnd(seg, 0)
		tok := id.take()
		var dir Directive
		switch tok.Text {
		case "@:register_variable":
			s.rep.Err(report.ReaderDirectives).
				Msg("`@:register_variable` is not yet supported by the game").
				Info("prefer just @name = value").Loc(tok).Push()
			dir = DirRegisterVariable
		case "@:register-variable":
			s.rep.Err(report.ParseError).
				Msgf("unknown reader directive `%s`", tok).
				Info("did you mean `@:register_variable`?").Loc(tok).Push()
		case "@:load_variable":
			s.rep.Err(report.ReaderDirectives).
				Msg("`@:load_variable` is not yet supported by the game").
				Info("prefer just @name").Loc(tok).Push()
			dir = DirLoadVariable
		case "@:load-variable":
			s.rep.Err(report.ParseError).
				Msgf("unknown reader directive `%s`", tok).
				Info("did you mean `@:load_variable`?").Loc(tok).Push()
		case "@:define":
			dir = DirDefine
		case "@:insert":
			dir = DirInsert
		case "@:log":
			dir = DirLog
		case "@:assert":
			// Swallowed instead of passed on; it would only complicate
			// the parser.
			s.rep.Err(report.Crash).
				Msg("`@:assert` should not be left in the script").
				Loc(tok).Push()
		default:
			s.rep.Err(report.ParseError).
				Msgf("unknown reader directive `%s`", tok).
				Loc(tok).Push()
		}
		if dir == DirNone {
			return Lexeme{}, false
		}
		return Lexeme{Kind: ReaderDirective, Tok: tok, Dir: dir, Seg: seg, Start: start, End: end}, true
	}

	for {
		r, ok := s.peek()
		if !ok || !isLocalValueChar(r) {
			break
		}
		id.add(r, s.seg, s.pos)
		s.consume()
	}
	return Lexeme{Kind: VariableRef, Tok: id.take(), Seg: seg, Start: start, End: s.spanEnd(seg, 0)}, true
}

// isASCIISpace matches the chars the game engine skips between tokens.
func isASCIISpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// isIDChar reports whether the char can be part of an unquoted token.
// The set is generous: ids carry scopes (`:`), ranges (`-`), paths (`/`),
// and the gui files add `%`, `[` and `]`.
func isIDChar(r rune) bool {
	return unicode.IsLetter(r) || (r >= '0' && r <= '9') ||
		strings.ContainsRune(".:_-&/|'%[]", r)
}

// isLocalValueChar reports whether the char can be part of a reader
// variable name.
func isLocalValueChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

// isComparatorChar reports whether the char can be part of a comparator.
func isComparatorChar(r rune) bool {
	return r == '<' || r == '>' || r == '!' || r == '=' || r == '?'
}
