// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token

import (
	"fmt"
	"strconv"
	"strings"
)

// Date is a game-calendar date. The games accept loose forms: "1066.9.15",
// "1066.9" (day defaults to 1), "1066" (month and day default to 1), and
// tolerate a trailing dot, which callers may want to flag as untidy.
type Date struct {
	Year  int16
	Month int8
	Day   int8
}

// ParseDate parses a loose y.m.d date. trailing reports whether the text
// carried a trailing dot; ok is false when the text is not a date at all.
func ParseDate(s string) (d Date, trailing bool, ok bool) {
	if s == "" {
		return Date{}, false, false
	}
	if strings.HasSuffix(s, ".") {
		trailing = true
		s = s[:len(s)-1]
		if s == "" {
			return Date{}, true, false
		}
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Date{}, trailing, false
	}
	nums := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 16)
		if err != nil {
			return Date{}, trailing, false
		}
		nums[i] = v
	}
	d = Date{Year: int16(nums[0]), Month: 1, Day: 1}
	if len(nums) > 1 {
		if nums[1] < 1 || nums[1] > 12 {
			return Date{}, trailing, false
		}
		d.Month = int8(nums[1])
	}
	if len(nums) > 2 {
		if nums[2] < 1 || nums[2] > 31 {
			return Date{}, trailing, false
		}
		d.Day = int8(nums[2])
	}
	return d, trailing, true
}

// Compare orders dates chronologically.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		if d.Year < other.Year {
			return -1
		}
		return 1
	case d.Month != other.Month:
		if d.Month < other.Month {
			return -1
		}
		return 1
	case d.Day != other.Day:
		if d.Day < other.Day {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

func (d Date) String() string {
	return fmt.Sprintf("%d.%d.%d", d.Year, d.Month, d.Day)
}
