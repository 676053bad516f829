// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package validate

// Tooltipped tracks whether the game will show the script being validated
// to the player as a tooltip. Some constructs are valid but will render
// badly or not at all in a tooltip, and those warnings only make sense
// when a tooltip can actually appear.
type Tooltipped uint8

const (
	// TooltipNo means the script is never shown to the player.
	TooltipNo Tooltipped = iota
	// TooltipYes means the script is shown as a tooltip.
	TooltipYes
	// TooltipFailuresOnly means only the failing conditions are shown,
	// as in the `is_shown` style triggers of decisions.
	TooltipFailuresOnly
	// TooltipPast means the tooltip is phrased in the past tense, as in
	// effects shown after they have already run.
	TooltipPast
)

// IsTooltipped reports whether any form of tooltip can appear.
func (t Tooltipped) IsTooltipped() bool { return t != TooltipNo }
