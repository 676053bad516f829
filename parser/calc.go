// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser

import (
	"strconv"

	"github.com/pdxlint/pdxlint/lexer"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// calc consumes the lexemes of a `@[ ... ]` calculation, evaluates it, and
// feeds the result back in as a value token located at the `@[`, as if the
// computed literal had been typed there.
func (p *parser) calc(start lexer.Lexeme) {
	var items []lexer.Lexeme
	for {
		lx, ok := p.next()
		if !ok {
			p.rep.Err(report.ParseError).
				Msg("unexpected end of file").Loc(p.fileLoc).Push()
			return
		}
		switch lx.Kind {
		case lexer.CalcEnd:
			val := p.evalCalc(items, lx)
			text := strconv.FormatFloat(val, 'f', -1, 64)
			p.value(token.NewToken(text, start.Tok.Loc))
			return
		case lexer.General, lexer.OpenParen, lexer.CloseParen,
			lexer.Add, lexer.Subtract, lexer.Multiply, lexer.Divide:
			items = append(items, lx)
		case lexer.BlockStart, lexer.BlockEnd:
			// The scanner treats `}` as a synchronization point; the
			// block structure matters more than the broken calculation.
			p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
			p.dispatch(lx)
			return
		default:
			p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
		}
	}
}

// calcEval evaluates a collected calculation with the usual precedence:
// `*` and `/` bind tighter than `+` and `-`, parens group, and `-` also
// works as a prefix.
type calcEval struct {
	p     *parser
	items []lexer.Lexeme
	pos   int
	// end is the closing `]`, the report location for truncated input.
	end lexer.Lexeme
}

func (p *parser) evalCalc(items []lexer.Lexeme, end lexer.Lexeme) float64 {
	e := &calcEval{p: p, items: items, end: end}
	v := e.expr()
	if lx, ok := e.peek(); ok {
		p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
	}
	return v
}

func (e *calcEval) peek() (lexer.Lexeme, bool) {
	if e.pos < len(e.items) {
		return e.items[e.pos], true
	}
	return lexer.Lexeme{}, false
}

func (e *calcEval) expr() float64 {
	v := e.term()
	for {
		lx, ok := e.peek()
		if !ok || (lx.Kind != lexer.Add && lx.Kind != lexer.Subtract) {
			return v
		}
		e.pos++
		r := e.term()
		if lx.Kind == lexer.Add {
			v += r
		} else {
			v -= r
		}
	}
}

func (e *calcEval) term() float64 {
	v := e.factor()
	for {
		lx, ok := e.peek()
		if !ok || (lx.Kind != lexer.Multiply && lx.Kind != lexer.Divide) {
			return v
		}
		e.pos++
		r := e.factor()
		switch {
		case lx.Kind == lexer.Multiply:
			v *= r
		case r == 0:
			e.p.rep.Err(report.ReaderDirectives).
				Msg("dividing by zero").Loc(lx.Tok).Push()
			v = 0
		default:
			v /= r
		}
	}
}

func (e *calcEval) factor() float64 {
	lx, ok := e.peek()
	if !ok {
		e.p.rep.Err(report.ParseError).
			Msgf("unexpected %s", e.end).Loc(e.end.Tok).Push()
		return 0
	}
	switch lx.Kind {
	case lexer.General:
		e.pos++
		return e.p.numericVar(lx.Tok)
	case lexer.Subtract:
		e.pos++
		return -e.factor()
	case lexer.OpenParen:
		e.pos++
		v := e.expr()
		if nx, ok := e.peek(); ok && nx.Kind == lexer.CloseParen {
			e.pos++
		} else if !ok {
			e.p.rep.Err(report.ParseError).
				Msgf("unexpected %s", e.end).Loc(e.end.Tok).Push()
		}
		return v
	default:
		// Reported again as leftover input; deduplication collapses it.
		e.p.rep.Err(report.ParseError).Msgf("unexpected %s", lx).Loc(lx.Tok).Push()
		return 0
	}
}

// numericVar resolves a calculation operand: a numeric literal, or the
// name of a reader variable holding one.
func (p *parser) numericVar(name token.Token) float64 {
	if v, ok := name.Number(); ok {
		return v
	}
	if val, ok := p.mem.GetVariable(name.Text); ok {
		if v, ok := val.Number(); ok {
			return v
		}
		p.rep.Err(report.ReaderDirectives).
			Msgf("expected reader variable `%s` to be numeric", name).
			Loc(name).LocMsg(val, "defined here").Push()
		return 0
	}
	p.rep.Err(report.ReaderDirectives).
		Msgf("reader variable %s not defined", name).Loc(name).Push()
	return 0
}
