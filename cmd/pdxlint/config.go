// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/pdxlint/pdxlint/log"
	"github.com/pdxlint/pdxlint/report"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[<modpath>]",
		Flags:       lintFlags,
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", id, rt.String(), link)
	},
}

type gameConfig struct {
	// Dir is the game installation directory.
	Dir string `toml:",omitempty"`
	// Version picks the rule table set. Empty means the newest shipped.
	Version string `toml:",omitempty"`
	// Tag labels vanilla files in reports, e.g. "CK3".
	Tag string `toml:",omitempty"`
}

type reportsConfig struct {
	ShowVanilla    bool   `toml:",omitempty"`
	ShowLoadedMods bool   `toml:",omitempty"`
	MinLevel       string `toml:",omitempty"`
	NoColor        bool   `toml:",omitempty"`
	JSON           bool   `toml:",omitempty"`
	Summary        bool   `toml:",omitempty"`
	Unused         bool   `toml:",omitempty"`
	Suppress       string `toml:",omitempty"`
}

type lintConfig struct {
	Game    gameConfig
	Reports reportsConfig
	// StrictScopes reports named scopes not known in advance.
	StrictScopes bool
	// CacheMB sizes the decoded file cache; 0 sizes from system memory.
	CacheMB int `toml:",omitempty"`

	// Mod is the positional mod path; never read from the file.
	Mod string `toml:"-"`
	// ConfigPath remembers where the file config came from.
	ConfigPath string `toml:"-"`
}

func defaultConfig() lintConfig {
	return lintConfig{
		Game:         gameConfig{Tag: "CK3"},
		StrictScopes: true,
	}
}

func loadConfig(file string, cfg *lintConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig resolves the effective configuration: defaults, then the
// config file, then command-line flags on top.
func makeConfig(ctx *cli.Context) (*lintConfig, error) {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return nil, err
		}
		cfg.ConfigPath = file
	}
	if ctx.GlobalIsSet(gameDirFlag.Name) {
		cfg.Game.Dir = ctx.GlobalString(gameDirFlag.Name)
	}
	if ctx.GlobalIsSet(gameVersionFlag.Name) {
		cfg.Game.Version = ctx.GlobalString(gameVersionFlag.Name)
	}
	if ctx.GlobalBool(showVanillaFlag.Name) {
		cfg.Reports.ShowVanilla = true
	}
	if ctx.GlobalBool(showModsFlag.Name) {
		cfg.Reports.ShowLoadedMods = true
	}
	if ctx.GlobalBool(unusedFlag.Name) {
		cfg.Reports.Unused = true
	}
	if ctx.GlobalBool(jsonFlag.Name) {
		cfg.Reports.JSON = true
	}
	if ctx.GlobalBool(summaryFlag.Name) {
		cfg.Reports.Summary = true
	}
	if ctx.GlobalBool(noColorFlag.Name) {
		cfg.Reports.NoColor = true
	}
	if ctx.GlobalIsSet(minLevelFlag.Name) {
		cfg.Reports.MinLevel = ctx.GlobalString(minLevelFlag.Name)
	}
	if ctx.GlobalIsSet(suppressFlag.Name) {
		cfg.Reports.Suppress = ctx.GlobalString(suppressFlag.Name)
	}
	if ctx.GlobalIsSet(strictScopesFlag.Name) {
		cfg.StrictScopes = ctx.GlobalBoolT(strictScopesFlag.Name)
	}
	if ctx.GlobalIsSet(cacheMbFlag.Name) {
		cfg.CacheMB = ctx.GlobalInt(cacheMbFlag.Name)
	}
	if ctx.NArg() > 0 {
		cfg.Mod = ctx.Args().First()
	}
	return &cfg, nil
}

// makeOutputConfig turns the resolved configuration into the immutable
// report engine configuration.
func makeOutputConfig(cfg *lintConfig) report.OutputConfig {
	out := report.OutputConfig{
		Writer:      colorable.NewColorableStdout(),
		Lines:       report.NewFileLines(),
		GameTag:     cfg.Game.Tag,
		JSON:        cfg.Reports.JSON,
		ToolVersion: version,
		ConfigPath:  cfg.ConfigPath,
	}
	if cfg.Reports.NoColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		out.Styles = report.NoColorStyles()
	}

	filter := &report.Filter{
		ShowVanilla:    cfg.Reports.ShowVanilla,
		ShowLoadedMods: cfg.Reports.ShowLoadedMods,
	}
	if cfg.Reports.MinLevel != "" {
		if sev, ok := report.SeverityFromString(cfg.Reports.MinLevel); ok {
			filter.MinSeverity = sev
		} else {
			log.Warn("Unknown severity in min-level", "value", cfg.Reports.MinLevel)
		}
	}
	if !cfg.StrictScopes {
		drop := report.Not{Inner: report.KeyRule{Key: report.StrictScopes}}
		if filter.Predicate == nil {
			filter.Predicate = drop
		} else {
			filter.Predicate = report.AllOf{filter.Predicate, drop}
		}
	}
	out.Filter = filter

	if cfg.Reports.Suppress != "" {
		sup, err := report.LoadSuppressions(cfg.Reports.Suppress)
		if err != nil {
			log.Warn("Could not load suppression file", "file", cfg.Reports.Suppress, "err", err)
		} else {
			out.Suppress = sup
			log.Debug("Loaded suppressions", "count", sup.Len())
		}
	}
	return out
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}
	dump := os.Stdout
	dump.WriteString("# Effective pdxlint configuration\n\n")
	dump.Write(out)
	return nil
}
