// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package scopes tracks the game-object types that script expressions are
// evaluated against. A Scopes value is a set of possible types; validation
// starts from what the surrounding construct guarantees and narrows the
// set as usage reveals more, reporting when a usage rules out every
// remaining possibility.
package scopes

import (
	"github.com/pdxlint/pdxlint/common"
)

// Scopes is a set of game-object categories, one bit per category.
type Scopes uint64

const (
	// None is the non-scope: a value the game never inspects.
	None Scopes = 1 << iota
	// Value is a script value or other number.
	Value
	// Bool is a yes/no answer.
	Bool
	// Flag is a variable flag.
	Flag
	Character
	LandedTitle
	Activity
	Secret
	Province
	Scheme
	Combat
	CombatSide
	TitleAndVassalChange
	Faith
	GreatHolyWar
	Religion
	War
	StoryCycle
	CasusBelli
	Dynasty
	DynastyHouse
	Faction
	Culture
	Army
	HolyOrder
	CouncilTask
	MercenaryCompany
	Artifact
	Inspiration
	Struggle
	CharacterMemory
	TravelPlan
	Accolade
	AccoladeType
	Decision
	Doctrine
	ActivityType
	CultureTradition
	CulturePillar
	GovernmentType
	HoldingType
	Trait
	TaxSlot
	VassalContract
	VassalObligationLevel
	EpidemicType
	Epidemic
	LegendType
	Legend
	GeographicalRegion
	Domicile
	AgentSlot
	TaskContract
	TaskContractType
	Regiment
	CasusBelliType

	scopeCount = iota
)

// All is every scope type at once, the state of complete ignorance.
const All Scopes = 1<<scopeCount - 1

// Primitive are the types that hold plain data rather than a game object.
const Primitive = Value | Bool | Flag

// NonPrimitive is every game-object type.
const NonPrimitive = All &^ (None | Primitive)

// scopeNames pairs each type's script spelling with its report wording,
// in bit order.
var scopeNames = [scopeCount]struct{ snake, display string }{
	{"none", "none"},
	{"value", "value"},
	{"bool", "bool"},
	{"flag", "flag"},
	{"character", "character"},
	{"landed_title", "landed title"},
	{"activity", "activity"},
	{"secret", "secret"},
	{"province", "province"},
	{"scheme", "scheme"},
	{"combat", "combat"},
	{"combat_side", "combat side"},
	{"title_and_vassal_change", "title and vassal change"},
	{"faith", "faith"},
	{"ghw", "great holy war"},
	{"religion", "religion"},
	{"war", "war"},
	{"story", "story cycle"},
	{"casus_belli", "casus belli"},
	{"dynasty", "dynasty"},
	{"dynasty_house", "dynasty house"},
	{"faction", "faction"},
	{"culture", "culture"},
	{"army", "army"},
	{"holy_order", "holy order"},
	{"council_task", "council task"},
	{"mercenary_company", "mercenary company"},
	{"artifact", "artifact"},
	{"inspiration", "inspiration"},
	{"struggle", "struggle"},
	{"character_memory", "character memory"},
	{"travel_plan", "travel plan"},
	{"accolade", "accolade"},
	{"accolade_type", "accolade type"},
	{"decision", "decision"},
	{"doctrine", "doctrine"},
	{"activity_type", "activity type"},
	{"culture_tradition", "culture tradition"},
	{"culture_pillar", "culture pillar"},
	{"government_type", "government type"},
	{"holding_type", "holding type"},
	{"trait", "trait"},
	{"tax_slot", "tax slot"},
	{"vassal_contract", "vassal contract"},
	{"vassal_contract_obligation_level", "vassal obligation level"},
	{"epidemic_type", "epidemic type"},
	{"epidemic", "epidemic"},
	{"legend_type", "legend type"},
	{"legend", "legend"},
	{"geographical_region", "geographical region"},
	{"domicile", "domicile"},
	{"agent_slot", "agent slot"},
	{"task_contract", "task contract"},
	{"task_contract_type", "task contract type"},
	{"regiment", "regiment"},
	{"casus_belli_type", "casus belli type"},
}

var snakeToScope = func() map[string]Scopes {
	m := make(map[string]Scopes, scopeCount)
	for i, n := range scopeNames {
		m[n.snake] = 1 << i
	}
	return m
}()

// FromSnakeCase resolves a type's script spelling, as the rule tables and
// the scope_override config spell them. Note the irregular spellings
// "ghw" and "story".
func FromSnakeCase(s string) (Scopes, bool) {
	sc, ok := snakeToScope[s]
	return sc, ok
}

// Contains reports whether every type in other is also in s.
func (s Scopes) Contains(other Scopes) bool { return other&^s == 0 }

// Intersects reports whether s and other share at least one type.
func (s Scopes) Intersects(other Scopes) bool { return s&other != 0 }

// String spells the set out for reports, "character or province" style.
func (s Scopes) String() string {
	var names []string
	for i := 0; i < scopeCount; i++ {
		if s&(1<<i) != 0 {
			names = append(names, scopeNames[i].display)
		}
	}
	return common.StringifyChoices(names)
}
