// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report

import (
	"encoding/json"
	"fmt"
	"os"
)

// Suppressions hides reports the user has seen and accepted. The file is
// the tool's own JSON output (or the reports array from it); matching is by
// key, message and per-pointer path, tag and source line text, so that a
// suppression survives unrelated edits that shift line numbers.
type Suppressions struct {
	entries map[suppressionKey][][]SuppressionLocation
}

type suppressionKey struct {
	key ErrorKey
	msg string
}

// SuppressionLocation matches one report pointer.
type SuppressionLocation struct {
	Path string `json:"path"`
	Line string `json:"line,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

type suppressionReport struct {
	Key       string                `json:"key"`
	Message   string                `json:"message"`
	Locations []SuppressionLocation `json:"locations"`
}

// LoadSuppressions reads a suppression file. It accepts either a bare JSON
// array of reports or a full run object with a "reports" array, so the
// tool's own --json output can be used directly.
func LoadSuppressions(path string) (*Suppressions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reports []suppressionReport
	if err := json.Unmarshal(raw, &reports); err != nil {
		var run struct {
			Reports []suppressionReport `json:"reports"`
		}
		if err2 := json.Unmarshal(raw, &run); err2 != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		reports = run.Reports
	}
	s := &Suppressions{entries: make(map[suppressionKey][][]SuppressionLocation)}
	for _, rep := range reports {
		key, ok := KeyFromString(rep.Key)
		if !ok {
			return nil, fmt.Errorf("%s: unknown error key %q", path, rep.Key)
		}
		sk := suppressionKey{key: key, msg: rep.Message}
		s.entries[sk] = append(s.entries[sk], rep.Locations)
	}
	return s, nil
}

// Len returns the number of suppression entries.
func (s *Suppressions) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, v := range s.entries {
		n += len(v)
	}
	return n
}

// Match reports whether the report is covered by a suppression. Safe to
// call on a nil receiver.
func (s *Suppressions) Match(r *Report, lines LineSource) bool {
	if s == nil {
		return false
	}
	candidates, ok := s.entries[suppressionKey{key: r.Key, msg: r.Msg}]
	if !ok {
		return false
	}
	for _, locations := range candidates {
		if len(locations) != len(r.Pointers) {
			continue
		}
		matched := true
		for i, sl := range locations {
			p := &r.Pointers[i]
			if sl.Path != p.Loc.Pathname() || sl.Tag != p.Msg {
				matched = false
				break
			}
			if sl.Line != "" {
				line, ok := lines.Line(p.Loc)
				if !ok || line != sl.Line {
					matched = false
					break
				}
			}
		}
		if matched {
			return true
		}
	}
	return false
}
