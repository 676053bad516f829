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

	"github.com/google/uuid"
)

// jsonRun is the top-level object of --json output. The id is fresh per
// run, so downstream tooling can tell runs apart when output is appended to
// the same stream.
type jsonRun struct {
	ID      string       `json:"id"`
	Tool    string       `json:"tool"`
	Version string       `json:"version,omitempty"`
	Config  string       `json:"config,omitempty"`
	Reports []jsonReport `json:"reports"`
}

type jsonReport struct {
	Key        string         `json:"key"`
	Severity   string         `json:"severity"`
	Confidence string         `json:"confidence"`
	Message    string         `json:"message"`
	Info       string         `json:"info,omitempty"`
	Locations  []jsonLocation `json:"locations"`
}

// jsonLocation deliberately carries the same fields a suppression entry
// matches on (path, line, tag), so --json output doubles as a suppression
// file.
type jsonLocation struct {
	Path       string `json:"path"`
	FileKind   string `json:"file_kind"`
	LineNumber uint32 `json:"line_number,omitempty"`
	Column     uint16 `json:"column,omitempty"`
	Length     int    `json:"length,omitempty"`
	Line       string `json:"line,omitempty"`
	Tag        string `json:"tag,omitempty"`
}

func (r *Reports) emitJSON(reports []Report) error {
	run := jsonRun{
		ID:      uuid.New().String(),
		Tool:    "pdxlint",
		Version: r.cfg.ToolVersion,
		Config:  r.cfg.ConfigPath,
		Reports: make([]jsonReport, 0, len(reports)),
	}
	for i := range reports {
		rep := &reports[i]
		jr := jsonReport{
			Key:        rep.Key.String(),
			Severity:   rep.Severity.String(),
			Confidence: rep.Confidence.String(),
			Message:    rep.Msg,
			Info:       rep.Info,
			Locations:  make([]jsonLocation, 0, len(rep.Pointers)),
		}
		for _, p := range rep.Pointers {
			jl := jsonLocation{
				Path:       p.Loc.Pathname(),
				FileKind:   r.kindTag(p.Loc.Kind),
				LineNumber: p.Loc.Line,
				Column:     p.Loc.Column,
				Length:     p.Length,
				Tag:        p.Msg,
			}
			if line, ok := r.cfg.Lines.Line(p.Loc); ok {
				jl.Line = line
			}
			jr.Locations = append(jr.Locations, jl)
		}
		run.Reports = append(run.Reports, jr)
	}
	out, err := json.MarshalIndent(&run, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.cfg.Writer, "%s\n", out)
	return err
}
