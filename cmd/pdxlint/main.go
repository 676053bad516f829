// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// pdxlint is a static validator for Paradox grand-strategy mod script.
// It loads the game files, the mod's dependencies and the mod itself,
// cross-references every definition and reports what does not line up.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/pdxlint/pdxlint/data"
	"github.com/pdxlint/pdxlint/fileset"
	"github.com/pdxlint/pdxlint/log"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/tables"
	"github.com/pdxlint/pdxlint/token"
)

const clientIdentifier = "pdxlint"

// version is replaced at link time on release builds.
var version = "0.1.0"

var (
	gameDirFlag = cli.StringFlag{
		Name:  "game",
		Usage: "Game installation directory",
	}
	gameVersionFlag = cli.StringFlag{
		Name:  "game-version",
		Usage: "Rule table version to validate against",
	}
	showVanillaFlag = cli.BoolFlag{
		Name:  "show-vanilla",
		Usage: "Also show reports about the game's own files",
	}
	showModsFlag = cli.BoolFlag{
		Name:  "show-mods",
		Usage: "Also show reports about dependency mods",
	}
	unusedFlag = cli.BoolFlag{
		Name:  "unused",
		Usage: "Report definitions and files nothing references",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "Emit reports as JSON",
	}
	summaryFlag = cli.BoolFlag{
		Name:  "summary",
		Usage: "Print a per-severity report count table at the end",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable terminal colors",
	}
	minLevelFlag = cli.StringFlag{
		Name:  "min-level",
		Usage: "Hide reports below this severity (tips|untidy|warning|error|fatal)",
	}
	suppressFlag = cli.StringFlag{
		Name:  "suppress",
		Usage: "JSON file of previously reviewed reports to hide",
	}
	strictScopesFlag = cli.BoolTFlag{
		Name:  "strict-scopes",
		Usage: "Report named scopes that are not known in advance",
	}
	cacheMbFlag = cli.IntFlag{
		Name:  "cache-mb",
		Usage: "File content cache size in megabytes (0 = sized from system memory)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
)

var lintFlags = []cli.Flag{
	gameDirFlag, gameVersionFlag, configFileFlag,
	showVanillaFlag, showModsFlag, unusedFlag, jsonFlag, summaryFlag,
	noColorFlag, minLevelFlag, suppressFlag, strictScopesFlag,
	cacheMbFlag, verbosityFlag,
}

func main() {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Version = version
	app.Usage = "static validator for Paradox grand-strategy mod script"
	app.ArgsUsage = "<modpath>"
	app.Flags = lintFlags
	app.Action = lint
	app.Commands = []cli.Command{
		consoleCommand,
		watchCommand,
		updateCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx)
		return nil
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) {
	usecolor := isatty.IsTerminal(os.Stderr.Fd()) && !ctx.GlobalBool(noColorFlag.Name)
	output := colorable.NewColorableStderr()
	glogger := log.NewGlogHandler(log.StreamHandler(output, log.TerminalFormat(usecolor)))
	glogger.Verbosity(log.Lvl(ctx.GlobalInt(verbosityFlag.Name)))
	log.Root().SetHandler(glogger)
}

// lint is the default action: validate one mod against the game.
func lint(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one mod path argument, got %d", ctx.NArg())
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	rep, d, err := run(context.Background(), cfg)
	if err != nil {
		return err
	}
	_ = d
	if err := rep.Emit(); err != nil {
		return err
	}
	if cfg.Reports.Summary && !cfg.Reports.JSON {
		printSummary(rep)
	}
	// Shell exit codes wrap at 256; anything past 125 collides with the
	// shell's own error range.
	errors := rep.CountAtLeast(report.Error)
	if errors > 125 {
		errors = 125
	}
	os.Exit(errors)
	return nil
}

// run executes one full load-and-validate pass and returns the filled
// report store. watch mode calls it repeatedly.
func run(ctx context.Context, cfg *lintConfig) (*report.Reports, *data.Everything, error) {
	start := time.Now()
	used, exact, err := tables.Load(cfg.Game.Version)
	if err != nil {
		return nil, nil, err
	}

	fs, rep, err := buildFileset(cfg)
	if err != nil {
		return nil, nil, err
	}
	if !exact && cfg.Game.Version != "" {
		rep.Warn(report.Config).
			Msgf("no rule tables for game version %s; using %s", cfg.Game.Version, used).
			Loc(token.Loc{}).Push()
	}

	d := data.New(rep, fs)
	if err := d.LoadAll(ctx); err != nil {
		return nil, nil, err
	}
	if err := d.ValidateAll(ctx); err != nil {
		return nil, nil, err
	}
	if cfg.Reports.Unused {
		d.CheckUnused()
	}
	log.Info("Validation finished", "elapsed", time.Since(start))
	return rep, d, nil
}

// buildFileset walks the game tree and the mod tree into one overlay.
func buildFileset(cfg *lintConfig) (*fileset.Fileset, *report.Reports, error) {
	rep := report.New(makeOutputConfig(cfg))

	cacheBytes := cfg.CacheMB * 1024 * 1024
	if cacheBytes <= 0 {
		cacheBytes = fileset.DefaultCacheBytes()
	}
	fs := fileset.New(rep, cacheBytes)

	mod, modRoot, err := resolveMod(cfg.Mod, rep)
	if err != nil {
		return nil, nil, err
	}
	if mod != nil {
		fs.AddReplacePaths(mod.ReplacePaths)
		loadModFilter(rep, modRoot)
	}

	if cfg.Game.Dir == "" {
		log.Warn("No game directory given; every reference into vanilla will look dangling")
	} else {
		gameRoot := filepath.Join(cfg.Game.Dir, "game")
		if _, err := os.Stat(gameRoot); err != nil {
			gameRoot = cfg.Game.Dir
		}
		fs.AddRoot(gameRoot, token.Vanilla)
	}
	fs.AddRoot(modRoot, token.Mod)
	fs.Finish()
	return fs, rep, nil
}

// resolveMod accepts either a mod directory or a .mod descriptor file.
func resolveMod(path string, rep *report.Reports) (*fileset.ModFile, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("mod path: %w", err)
	}
	if info.IsDir() {
		descriptor := filepath.Join(path, "descriptor.mod")
		if _, err := os.Stat(descriptor); err != nil {
			return nil, path, nil
		}
		mod, err := fileset.ParseModFile(descriptor, rep)
		if err != nil {
			return nil, "", err
		}
		return mod, path, nil
	}
	mod, err := fileset.ParseModFile(path, rep)
	if err != nil {
		return nil, "", err
	}
	return mod, mod.ModRoot(path), nil
}

func printSummary(rep *report.Reports) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Severity", "Key", "Count"})
	for _, t := range rep.Tallies() {
		table.Append([]string{t.Severity.String(), t.Key.String(), fmt.Sprint(t.Count)})
	}
	table.SetFooter([]string{"", "Suppressed", fmt.Sprint(rep.Suppressed())})
	table.Render()
}
