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
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rjeczalik/notify"
	"golang.org/x/time/rate"
	"gopkg.in/urfave/cli.v1"

	"github.com/pdxlint/pdxlint/log"
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

var watchCommand = cli.Command{
	Action:    watch,
	Name:      "watch",
	Usage:     "Revalidate the mod whenever its files change",
	ArgsUsage: "<modpath>",
	Flags:     lintFlags,
	Description: `
The watch command runs a full validation pass, then waits for file
changes under the mod directory and runs again. Bursts of writes, as
editors and exporters produce, are coalesced into one pass.`,
}

// watchSettleDelay is how long the watcher waits after the first change
// before revalidating, so that multi-file saves land in one pass.
const watchSettleDelay = 500 * time.Millisecond

func watch(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one mod path argument, got %d", ctx.NArg())
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	modRoot := cfg.Mod
	if info, err := os.Stat(modRoot); err == nil && !info.IsDir() {
		modRoot = filepath.Dir(modRoot)
	}

	events := make(chan notify.EventInfo, 64)
	if err := notify.Watch(filepath.Join(modRoot, "..."), events, notify.All); err != nil {
		return fmt.Errorf("watching %s: %w", modRoot, err)
	}
	defer notify.Stop(events)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	// One pass per second at most, however fast the changes come.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	if err := watchPass(cfg); err != nil {
		return err
	}
	for {
		select {
		case ev := <-events:
			log.Debug("File changed", "path", ev.Path(), "event", ev.Event())
			// Wait out the burst, draining whatever else it brings.
			settle := time.After(watchSettleDelay)
		drain:
			for {
				select {
				case <-events:
				case <-settle:
					break drain
				case <-interrupt:
					return nil
				}
			}
			if err := limiter.Wait(context.Background()); err != nil {
				return err
			}
			if err := watchPass(cfg); err != nil {
				return err
			}
		case <-interrupt:
			log.Info("Watch interrupted, exiting")
			return nil
		}
	}
}

// watchPass runs one validation pass and prints its reports. State from the
// previous pass is process-global only for macro links, which reset here;
// everything else is rebuilt from scratch.
func watchPass(cfg *lintConfig) error {
	token.Links.Reset()
	rep, _, err := run(context.Background(), cfg)
	if err != nil {
		return err
	}
	if err := rep.Emit(); err != nil {
		return err
	}
	if cfg.Reports.Summary && !cfg.Reports.JSON {
		printSummary(rep)
	}
	errors := rep.CountAtLeast(report.Error)
	log.Info("Waiting for changes", "errors", errors)
	return nil
}
