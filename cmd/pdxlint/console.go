// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/pdxlint/pdxlint/data"
	"github.com/pdxlint/pdxlint/item"
	"github.com/pdxlint/pdxlint/lexer"
	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

var consoleCommand = cli.Command{
	Action:    console,
	Name:      "console",
	Usage:     "Start an interactive script inspection shell",
	ArgsUsage: "[<modpath>]",
	Flags:     lintFlags,
	Description: `
The console parses script snippets typed at the prompt and shows the
resulting syntax tree together with any diagnostics. With a mod path it
also loads the full game database first, so :exists lookups work.

Commands:
  :tokens <script>      show the lexemes of a line of script
  :expand <script>      show the reader's view of a snippet
  :exists <kind> <key>  look a definition up in the loaded database
  :quit                 leave the console`,
}

const historyFile = ".pdxlint_history"

func console(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if _, _, err := tables.Load(cfg.Game.Version); err != nil {
		return err
	}

	// With a mod path the database is loaded up front; snippets can then
	// be cross-referenced against it.
	var (
		rep *report.Reports
		d   *data.Everything
	)
	if cfg.Mod != "" {
		fs, r, err := buildFileset(cfg)
		if err != nil {
			return err
		}
		rep = r
		d = data.New(rep, fs)
		if err := d.LoadAll(context.Background()); err != nil {
			return err
		}
		rep.Emit()
	} else {
		rep = report.New(makeOutputConfig(cfg))
	}

	prompter := liner.NewLiner()
	defer prompter.Close()
	prompter.SetCtrlCAborts(true)
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, historyFile)
		if f, err := os.Open(path); err == nil {
			prompter.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(path); err == nil {
				prompter.WriteHistory(f)
				f.Close()
			}
		}()
	}

	fmt.Println("Welcome to the pdxlint console. Type :quit to leave.")
	for {
		line, err := prompter.Prompt("> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		prompter.AppendHistory(line)
		switch {
		case line == ":quit" || line == ":exit":
			return nil
		case strings.HasPrefix(line, ":tokens"):
			showTokens(strings.TrimSpace(strings.TrimPrefix(line, ":tokens")), rep)
		case strings.HasPrefix(line, ":expand"):
			showExpand(strings.TrimSpace(strings.TrimPrefix(line, ":expand")), rep)
		case strings.HasPrefix(line, ":exists"):
			showExists(strings.TrimSpace(strings.TrimPrefix(line, ":exists")), d)
		default:
			showParse(line, rep)
		}
		rep.Emit()
	}
}

// showParse parses one line of script and dumps the resulting tree.
func showParse(line string, rep *report.Reports) {
	block := parser.ParseInternal("console", line, rep)
	spew.Fdump(os.Stdout, block)
}

// showExpand parses a snippet and prints it back re-serialized, which shows
// what the reader made of it: `@` variables substituted, calc expressions
// evaluated and tagged blocks condensed.
func showExpand(text string, rep *report.Reports) {
	if text == "" {
		fmt.Println("usage: :expand <script>")
		return
	}
	block := parser.ParseInternal("console", text, rep)
	if block == nil {
		return
	}
	fmt.Println(block.String())
	for _, parm := range block.MacroParms() {
		fmt.Printf("macro parameter: $%s$\n", parm)
	}
}

// showTokens runs just the scanner over the input and prints each lexeme.
func showTokens(text string, rep *report.Reports) {
	if text == "" {
		fmt.Println("usage: :tokens <script>")
		return
	}
	idx := token.Paths.Store("console", "console")
	sc := lexer.New(rep, token.NewToken(text, token.FileLoc(idx, token.Internal)))
	for {
		lex, ok := sc.Next()
		if !ok {
			break
		}
		fmt.Printf("%3d:%-3d %s\n", lex.Tok.Loc.Line, lex.Tok.Loc.Column, lex)
	}
}

// showExists answers `:exists <kind> <key>` against the loaded database.
func showExists(args string, d *data.Everything) {
	if d == nil {
		fmt.Println("no mod loaded; start the console with a mod path to use :exists")
		return
	}
	fields := strings.Fields(args)
	if len(fields) != 2 {
		fmt.Println("usage: :exists <kind> <key>")
		return
	}
	kind, ok := item.FromString(fields[0])
	if !ok {
		fmt.Printf("unknown item kind `%s`\n", fields[0])
		return
	}
	if d.Exists(kind, fields[1]) {
		fmt.Printf("%s `%s` is defined\n", kind, fields[1])
	} else {
		fmt.Printf("%s `%s` is not defined\n", kind, fields[1])
	}
}
