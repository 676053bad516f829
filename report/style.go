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
	"strings"

	"github.com/fatih/color"
)

// Styles holds the terminal colors for each part of a printed report. The
// severity tag, the carets and the key each color by severity; the rest is
// fixed.
type Styles struct {
	tag  map[Severity]*color.Color // severity word and carets, bold
	key  map[Severity]*color.Color // key in parentheses
	locn *color.Color              // -->, [KIND], path, line numbers, gutter
	msg  *color.Color              // the report message
	info *color.Color              // the "Info:" tag
}

// DefaultStyles returns the standard color scheme.
func DefaultStyles() *Styles {
	return &Styles{
		tag: map[Severity]*color.Color{
			Fatal:   color.New(color.FgWhite, color.Bold),
			Error:   color.New(color.FgRed, color.Bold),
			Warning: color.New(color.FgYellow, color.Bold),
			Untidy:  color.New(color.FgCyan, color.Bold),
			Tips:    color.New(color.FgGreen, color.Bold),
		},
		key: map[Severity]*color.Color{
			Fatal:   color.New(color.FgWhite, color.Bold),
			Error:   color.New(color.FgRed, color.Bold),
			Warning: color.New(color.FgYellow),
			Untidy:  color.New(color.FgCyan),
			Tips:    color.New(color.FgGreen),
		},
		locn: color.New(color.FgBlue, color.Bold),
		msg:  color.New(color.Bold),
		info: color.New(color.Bold),
	}
}

// NoColorStyles returns the default scheme with every color disabled, for
// non-terminal output or --no-color.
func NoColorStyles() *Styles {
	s := DefaultStyles()
	for _, c := range s.tag {
		c.DisableColor()
	}
	for _, c := range s.key {
		c.DisableColor()
	}
	s.locn.DisableColor()
	s.msg.DisableColor()
	s.info.DisableColor()
	return s
}

// Tag returns the color for the severity word and the caret line.
func (s *Styles) Tag(sev Severity) *color.Color {
	if c, ok := s.tag[sev]; ok {
		return c
	}
	return s.msg
}

// Key returns the color for the error key printed after the severity.
func (s *Styles) Key(sev Severity) *color.Color {
	if c, ok := s.key[sev]; ok {
		return c
	}
	return s.msg
}

// Set overrides the color used for one severity, by color name. The mod's
// filter config can recolor severities this way.
func (s *Styles) Set(sev Severity, name string) error {
	var attr color.Attribute
	switch strings.ToLower(name) {
	case "black":
		attr = color.FgBlack
	case "red":
		attr = color.FgRed
	case "green":
		attr = color.FgGreen
	case "yellow":
		attr = color.FgYellow
	case "blue":
		attr = color.FgBlue
	case "purple", "magenta":
		attr = color.FgMagenta
	case "cyan":
		attr = color.FgCyan
	case "white":
		attr = color.FgWhite
	default:
		return fmt.Errorf("unknown color %q", name)
	}
	s.tag[sev] = color.New(attr, color.Bold)
	s.key[sev] = color.New(attr)
	return nil
}
