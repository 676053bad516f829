// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package common holds small convenience helpers shared across packages.
package common

import "strings"

// StringifyChoices formats alternatives as "a, b or c".
func StringifyChoices(v []string) string {
	return joinChoices(v, "or")
}

// StringifyList formats items as "a, b and c".
func StringifyList(v []string) string {
	return joinChoices(v, "and")
}

func joinChoices(v []string, joiner string) string {
	var sb strings.Builder
	for i, s := range v {
		sb.WriteString(s)
		switch {
		case i+1 == len(v):
		case i+2 == len(v):
			sb.WriteByte(' ')
			sb.WriteString(joiner)
			sb.WriteByte(' ')
		default:
			sb.WriteString(", ")
		}
	}
	return sb.String()
}
