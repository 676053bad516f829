// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser

import (
	"io"
	"strings"

	fuzz "github.com/google/gofuzz"

	"github.com/pdxlint/pdxlint/parser"
	"github.com/pdxlint/pdxlint/report"
)

// Fuzz feeds the script parser raw bytes. Malformed input of any shape must
// come back as diagnostics, never as a panic.
func Fuzz(data []byte) int {
	rep := report.New(report.OutputConfig{Writer: io.Discard})
	block := parser.ParseInternal("fuzz", string(data), rep)
	if block == nil {
		return 0
	}
	for range block.FieldsWarn(rep) {
	}
	rep.Take()
	return 1
}

// seed shapes structured inputs: the fuzzer mutates the parts and the
// harness assembles them into nested script, which reaches far deeper into
// the parser than raw bytes do.
type seed struct {
	Keys   []string
	Values []string
	Depth  uint8
}

// FuzzStructured assembles script from fuzzed fragments and parses it.
func FuzzStructured(data []byte) int {
	var s seed
	fuzz.NewFromGoFuzz(data).Fuzz(&s)
	if len(s.Keys) == 0 {
		return 0
	}
	var b strings.Builder
	depth := int(s.Depth % 8)
	for i, key := range s.Keys {
		b.WriteString(key)
		b.WriteString(" = ")
		if i < depth {
			b.WriteString("{\n")
			continue
		}
		if len(s.Values) > 0 {
			b.WriteString(s.Values[i%len(s.Values)])
		}
		b.WriteString("\n")
	}
	for i := 0; i < depth; i++ {
		b.WriteString("}\n")
	}
	rep := report.New(report.OutputConfig{Writer: io.Discard})
	parser.ParseInternal("fuzz", b.String(), rep)
	rep.Take()
	return 1
}
