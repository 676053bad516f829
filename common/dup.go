// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package common

import (
	"github.com/pdxlint/pdxlint/report"
	"github.com/pdxlint/pdxlint/token"
)

// DupError warns about a redefinition of a database item.
func DupError(rep *report.Reports, key, other token.Token, id string) {
	rep.Warn(report.DuplicateItem).
		Msgf("%s is redefined by another %s", id, id).
		Loc(other).LocMsg(key, "the other "+id+" is here").Push()
}

// ExactDupError warns about an exact redefinition of a database item.
func ExactDupError(rep *report.Reports, key, other token.Token, id string) {
	rep.Warn(report.ExactDuplicateItem).
		Msgf("%s is redefined by an identical %s", id, id).
		Loc(other).LocMsg(key, "the other "+id+" is here").Push()
}

// ExactDupAdvice points out an exact redefinition at advice level, for item
// kinds where the game tolerates it.
func ExactDupAdvice(rep *report.Reports, key, other token.Token, id string) {
	rep.Tips(report.DuplicateItem).
		Msgf("%s is redefined by an identical %s, which may cause problems if one of them is later changed", id, id).
		Loc(other).LocMsg(key, "the other "+id+" is here").Push()
}

// DupAssignError warns about a duplicate `key = value` in a database item.
// Macro links are stripped so re-expansions of the same line do not produce
// a confusing trace.
func DupAssignError(rep *report.Reports, key, other token.Token) {
	keyLoc := key.Loc.StripLink()
	otherLoc := other.Loc.StripLink()
	rep.Warn(report.DuplicateField).
		Msgf("`%s` is redefined in a following line", other).
		Loc(otherLoc).LocMsg(keyLoc, "the other one is here").Push()
}
