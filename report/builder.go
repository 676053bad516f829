// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package report

import "fmt"

// Builder assembles a report in stages: severity and key first, optionally
// a confidence, then the message, optionally extra info, then one or more
// locations, then Push. Push panics on a report with no message or no
// location, which is always a programming error at the call site.
type Builder struct {
	sink   *Reports
	report Report
}

// Tips starts a Tips-severity report.
func (r *Reports) Tips(key ErrorKey) *Builder { return r.Build(key, Tips) }

// Untidy starts an Untidy-severity report.
func (r *Reports) Untidy(key ErrorKey) *Builder { return r.Build(key, Untidy) }

// Warn starts a Warning-severity report.
func (r *Reports) Warn(key ErrorKey) *Builder { return r.Build(key, Warning) }

// Err starts an Error-severity report.
func (r *Reports) Err(key ErrorKey) *Builder { return r.Build(key, Error) }

// Fatal starts a Fatal-severity report.
func (r *Reports) Fatal(key ErrorKey) *Builder { return r.Build(key, Fatal) }

// Build starts a report at a severity chosen at run time.
func (r *Reports) Build(key ErrorKey, sev Severity) *Builder {
	return &Builder{
		sink: r,
		report: Report{
			Severity:   sev,
			Confidence: Reasonable,
			Key:        key,
		},
	}
}

// Weak overrides the default Reasonable confidence down to Weak.
func (b *Builder) Weak() *Builder {
	b.report.Confidence = Weak
	return b
}

// Strong overrides the default Reasonable confidence up to Strong.
func (b *Builder) Strong() *Builder {
	b.report.Confidence = Strong
	return b
}

// Conf sets a confidence chosen at run time.
func (b *Builder) Conf(c Confidence) *Builder {
	b.report.Confidence = c
	return b
}

// Msg sets the report's message.
func (b *Builder) Msg(msg string) *Builder {
	b.report.Msg = msg
	return b
}

// Msgf sets the report's message from a format string.
func (b *Builder) Msgf(format string, args ...interface{}) *Builder {
	b.report.Msg = fmt.Sprintf(format, args...)
	return b
}

// Info attaches an explanatory footer to the report.
func (b *Builder) Info(info string) *Builder {
	b.report.Info = info
	return b
}

// Loc adds a pointer at eloc.
func (b *Builder) Loc(eloc ErrorLoc) *Builder {
	b.report.Pointers = append(b.report.Pointers, PointerTo(eloc))
	return b
}

// LocMsg adds a pointer at eloc carrying its own short message, printed
// after the carets.
func (b *Builder) LocMsg(eloc ErrorLoc, msg string) *Builder {
	p := PointerTo(eloc)
	p.Msg = msg
	b.report.Pointers = append(b.report.Pointers, p)
	return b
}

// Push submits the report to the store.
func (b *Builder) Push() {
	if b.report.Msg == "" {
		panic("report pushed without a message")
	}
	if len(b.report.Pointers) == 0 {
		panic(fmt.Sprintf("report %q pushed without a location", b.report.Msg))
	}
	b.sink.push(b.report)
}
