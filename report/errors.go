// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/pdxlint/pdxlint/token"
)

// OutputConfig carries everything the report engine needs to decide what to
// print and how. It is built once at startup and passed to New; nothing in
// the emit path consults package-level state.
type OutputConfig struct {
	// Writer is where reports are emitted. cmd wraps it for color handling.
	Writer io.Writer
	// Styles control terminal colors. Nil means default colors.
	Styles *Styles
	// Filter decides which reports get stored at all. Nil means everything.
	Filter *Filter
	// Suppress hides reports the user has reviewed before. Nil means none.
	Suppress *Suppressions
	// Lines serves source lines for the caret display and for suppression
	// matching. Nil falls back to reading files directly.
	Lines LineSource
	// JSON switches emission to a machine-readable run object.
	JSON bool
	// GameTag is the label printed for vanilla files, e.g. "CK3".
	GameTag string
	// LoadedModLabels and DlcLabels name the extra overlay layers in file
	// location lines, indexed by layer ordinal.
	LoadedModLabels []string
	DlcLabels       []string
	// ToolVersion and ConfigPath go into the JSON run header.
	ToolVersion string
	ConfigPath  string
}

// Reports collects diagnostics during a run and emits them at the end.
// Identical reports are stored once; macro expansion and revalidation make
// duplicates common. Safe for concurrent use.
type Reports struct {
	cfg OutputConfig

	mu         sync.Mutex
	seen       map[uint64]struct{}
	storage    []Report
	counts     map[tallyKey]int
	filtered   int
	suppressed int
}

type tallyKey struct {
	key ErrorKey
	sev Severity
}

// New creates a report store from the given output configuration, filling
// in defaults for anything left nil.
func New(cfg OutputConfig) *Reports {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Styles == nil {
		cfg.Styles = DefaultStyles()
	}
	if cfg.Filter == nil {
		cfg.Filter = &Filter{}
	}
	if cfg.Lines == nil {
		cfg.Lines = NewFileLines()
	}
	if cfg.GameTag == "" {
		cfg.GameTag = token.Vanilla.String()
	}
	return &Reports{
		cfg:    cfg,
		seen:   make(map[uint64]struct{}),
		counts: make(map[tallyKey]int),
	}
}

// push runs the filter, suppression and dedup checks and stores the report
// if it survives them, expanding macro links into "from here" pointers
// first so that filtering sees the full chain.
func (r *Reports) push(rep Report) {
	rep.Pointers = expandPointers(rep.Pointers)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cfg.Filter.ShouldPrint(&rep) {
		r.filtered++
		return
	}
	if r.cfg.Suppress.Match(&rep, r.cfg.Lines) {
		r.suppressed++
		return
	}
	h := rep.hash()
	if _, dup := r.seen[h]; dup {
		return
	}
	r.seen[h] = struct{}{}
	r.storage = append(r.storage, rep)
	r.counts[tallyKey{rep.Key, rep.Severity}]++
}

// expandPointers follows each pointer's macro link chain, inserting a
// "from here" pointer for every expansion step so the user can trace a
// report inside a macro back to the invocation that triggered it.
func expandPointers(ps []Pointer) []Pointer {
	expanded := false
	for _, p := range ps {
		if p.Loc.Link != token.NoMacro {
			expanded = true
			break
		}
	}
	if !expanded {
		return ps
	}
	out := make([]Pointer, 0, len(ps)+1)
	for _, p := range ps {
		out = append(out, p)
		loc := p.Loc
		for {
			parent, ok := token.Links.Loc(loc.Link)
			if !ok {
				break
			}
			out = append(out, Pointer{Loc: parent, Msg: "from here"})
			loc = parent
		}
	}
	return out
}

// hash fingerprints a report for deduplication.
func (r *Report) hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put32 := func(v uint32) {
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
		h.Write(buf[:4])
	}
	put32(uint32(r.Severity)<<16 | uint32(r.Confidence)<<8 | uint32(r.Key))
	io.WriteString(h, r.Msg)
	h.Write([]byte{0})
	io.WriteString(h, r.Info)
	for _, p := range r.Pointers {
		put32(uint32(p.Loc.Path))
		put32(uint32(p.Loc.Kind)<<16 | uint32(p.Loc.Column))
		put32(p.Loc.Line)
		put32(uint32(p.Length))
		io.WriteString(h, p.Msg)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Take extracts the stored reports in emission order and leaves the store
// empty. Order: severity descending, confidence descending, locations in
// file order, longer pointer chains first, message text.
func (r *Reports) Take() []Report {
	r.mu.Lock()
	reports := r.storage
	r.storage = nil
	r.seen = make(map[uint64]struct{})
	r.mu.Unlock()

	sort.SliceStable(reports, func(i, j int) bool {
		a, b := &reports[i], &reports[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		n := len(a.Pointers)
		if len(b.Pointers) < n {
			n = len(b.Pointers)
		}
		for k := 0; k < n; k++ {
			if c := a.Pointers[k].Loc.Compare(b.Pointers[k].Loc); c != 0 {
				return c < 0
			}
		}
		if len(a.Pointers) != len(b.Pointers) {
			return len(a.Pointers) > len(b.Pointers)
		}
		return a.Msg < b.Msg
	})
	return reports
}

// Emit prints all stored reports to the configured writer, as JSON when so
// configured, and leaves the store empty. The human-readable format is not
// stable across versions.
func (r *Reports) Emit() error {
	reports := r.Take()
	if r.cfg.JSON {
		return r.emitJSON(reports)
	}
	for i := range reports {
		if err := r.writeReport(&reports[i]); err != nil {
			return err
		}
	}
	return nil
}

// Abbreviated immediately prints a terse single-line report. It is for
// voluminous near-identical findings, such as the unused-localization
// sweep, where full reports would drown the output.
func (r *Reports) Abbreviated(eloc ErrorLoc, key ErrorKey) {
	loc := eloc.Location()
	if !r.cfg.Filter.ShouldMaybePrint(key, loc) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc.Line == 0 {
		fmt.Fprintf(r.cfg.Writer, "(%s) %s\n", key, loc.Pathname())
	} else if line, ok := r.cfg.Lines.Line(loc); ok {
		fmt.Fprintf(r.cfg.Writer, "(%s) %s\n", key, line)
	}
}

// Header immediately prints an introduction line for a following run of
// Abbreviated reports.
func (r *Reports) Header(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.cfg.Writer, msg)
}

// Tally is a per-key, per-severity count of stored reports.
type Tally struct {
	Key      ErrorKey
	Severity Severity
	Count    int
}

// Tallies returns the stored report counts, highest severity first, keys
// alphabetical within a severity. Counting survives Take and Emit.
func (r *Reports) Tallies() []Tally {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tally, 0, len(r.counts))
	for k, n := range r.counts {
		out = append(out, Tally{Key: k.key, Severity: k.sev, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// CountAtLeast returns how many stored reports have at least the given
// severity. The exit status is derived from this.
func (r *Reports) CountAtLeast(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.counts {
		if k.sev >= sev {
			n += c
		}
	}
	return n
}

// Suppressed returns how many reports the suppression list hid.
func (r *Reports) Suppressed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressed
}
