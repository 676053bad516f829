// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package tables

// Fixed word lists the game engine accepts in specific effect and trigger
// fields. They change rarely, so they live in code rather than in the
// per-version TOML sets. Gathered from the game's data dumps.

// ActivityStates are the values of has_activity_state.
var ActivityStates = []string{"passive", "travel", "active"}

// ArtifactHistoryActions are the artifact history entry types accepted by
// create_artifact.
var ArtifactHistoryActions = []string{
	"created_before_history",
	"created",
	"prize_created",
	"discovered",
	"creator_discovered",
	"claimed_by_house",
	"given",
	"stolen",
	"inherited",
	"conquest",
	"taken_in_siege",
	"taken_in_battle",
	"won_in_duel",
	"purchased",
	"prize_awarded",
	"ransomed",
	"reforged",
}

// ArtifactRarities are the artifact rarity classes.
var ArtifactRarities = []string{"common", "masterwork", "famed", "illustrious"}

// DangerTypes are the values of travel_danger_type.
var DangerTypes = []string{
	"default",
	"battle",
	"raid",
	"siege",
	"army",
	"occupation",
	"county_control",
	"county_opinion",
	"owner_opinion",
	"epidemic",
}

// LegendQualities are the quality classes accepted by create_legend.
var LegendQualities = []string{"famed", "illustrious", "mythical"}

// OutbreakIntensities are the intensity classes of
// create_epidemic_outbreak.
var OutbreakIntensities = []string{"minor", "major", "apocalyptic"}

// PrisonTypes are the imprisonment types of imprison and
// is_in_prison_type.
var PrisonTypes = []string{"dungeon", "house_arrest"}

// Skills are the character skill names.
var Skills = []string{"diplomacy", "intrigue", "learning", "martial", "prowess", "stewardship"}

// Sexualities are the values of set_sexuality and has_sexuality.
var Sexualities = []string{"heterosexual", "homosexual", "bisexual", "asexual", "none"}

// TitleHistoryTypes are the title history entry types, from the
// recent_history trigger documentation.
var TitleHistoryTypes = []string{
	"conquest",
	"conquest_holy_war",
	"conquest_claim",
	"conquest_populist",
	"election",
	"inheritance",
	"abdication",
	"created",
	"destroyed",
	"usurped",
	"granted",
	"revoked",
	"independency",
	"leased_out",
	"lease_revoked",
	"returned",
	"faction_demand",
	"swear_fealty",
	"stepped_down",
}

// TraitCategories are the values of has_trait_category, gathered from the
// vanilla traits.
var TraitCategories = []string{
	"childhood",
	"commander",
	"court_type",
	"education",
	"fame",
	"health",
	"lifestyle",
	"personality",
	"winter_commander",
}

// CommonDirs are the directories the game reads under common/. Files in
// other common/ subdirectories are never loaded, which is worth a warning.
var CommonDirs = []string{
	"common/accolade_icons",
	"common/accolade_names",
	"common/accolade_types",
	"common/achievements",
	"common/activities/activity_locales",
	"common/activities/activity_types",
	"common/activities/guest_invite_rules",
	"common/activities/intents",
	"common/activities/pulse_actions",
	"common/ai_goaltypes",
	"common/ai_war_stances",
	"common/artifacts/blueprints",
	"common/artifacts/feature_groups",
	"common/artifacts/features",
	"common/artifacts/slots",
	"common/artifacts/templates",
	"common/artifacts/types",
	"common/artifacts/visuals",
	"common/bookmark_portraits",
	"common/bookmarks/bookmarks",
	"common/bookmarks/challenge_characters",
	"common/bookmarks/groups",
	"common/buildings",
	"common/casus_belli_groups",
	"common/casus_belli_types",
	"common/character_backgrounds",
	"common/character_interaction_categories",
	"common/character_interactions",
	"common/character_memory_types",
	"common/coat_of_arms/coat_of_arms",
	"common/coat_of_arms/dynamic_definitions",
	"common/coat_of_arms/options",
	"common/coat_of_arms/template_lists",
	"common/combat_effects",
	"common/combat_phase_events",
	"common/console_groups",
	"common/council_positions",
	"common/council_tasks",
	"common/court_amenities",
	"common/court_positions/categories",
	"common/court_positions/tasks",
	"common/court_positions/types",
	"common/court_types",
	"common/courtier_guest_management",
	"common/culture/aesthetics_bundles",
	"common/culture/creation_names",
	"common/culture/cultures",
	"common/culture/eras",
	"common/culture/innovations",
	"common/culture/name_equivalency",
	"common/culture/name_lists",
	"common/culture/pillars",
	"common/culture/traditions",
	"common/customizable_localization",
	"common/deathreasons",
	"common/decision_group_types",
	"common/decisions",
	"common/defines",
	"common/diarchies/diarchy_mandates",
	"common/diarchies/diarchy_types",
	"common/dna_data",
	"common/domiciles/buildings",
	"common/domiciles/types",
	"common/dynasties",
	"common/dynasty_house_motto_inserts",
	"common/dynasty_house_mottos",
	"common/dynasty_houses",
	"common/dynasty_legacies",
	"common/dynasty_perks",
	"common/effect_localization",
	"common/epidemics",
	"common/ethnicities",
	"common/event_2d_effects",
	"common/event_backgrounds",
	"common/event_themes",
	"common/event_transitions",
	"common/factions",
	"common/flavorization",
	"common/focuses",
	"common/game_concepts",
	"common/game_rules",
	"common/genes",
	"common/governments",
	"common/guest_system",
	"common/holdings",
	"common/hook_types",
	"common/house_power_bonus",
	"common/house_unities",
	"common/important_actions",
	"common/inspirations",
	"common/landed_titles",
	"common/laws",
	"common/lease_contracts",
	"common/legends/chronicles",
	"common/legends/legend_seeds",
	"common/legends/legend_types",
	"common/legitimacy",
	"common/lifestyle_perks",
	"common/lifestyles",
	"common/men_at_arms_types",
	"common/message_filter_types",
	"common/message_group_types",
	"common/messages",
	"common/modifier_definition_formats",
	"common/modifier_icons",
	"common/modifiers",
	"common/named_colors",
	"common/nicknames",
	"common/on_action",
	"common/opinion_modifiers",
	"common/playable_difficulty_infos",
	"common/pool_character_selectors",
	"common/portrait_types",
	"common/province_terrain",
	"common/religion/doctrines",
	"common/religion/fervor_modifiers",
	"common/religion/holy_sites",
	"common/religion/religion_families",
	"common/religion/religions",
	"common/schemes/agent_types",
	"common/schemes/pulse_actions",
	"common/schemes/scheme_countermeasures",
	"common/schemes/scheme_types",
	"common/script_values",
	"common/scripted_animations",
	"common/scripted_character_templates",
	"common/scripted_costs",
	"common/scripted_effects",
	"common/scripted_guis",
	"common/scripted_lists",
	"common/scripted_modifiers",
	"common/scripted_relations",
	"common/scripted_rules",
	"common/scripted_triggers",
	"common/secret_types",
	"common/story_cycles",
	"common/struggle/catalysts",
	"common/struggle/struggles",
	"common/succession_appointment",
	"common/succession_election",
	"common/suggestions",
	"common/task_contracts",
	"common/tax_slots/obligations",
	"common/tax_slots/types",
	"common/terrain_types",
	"common/traits",
	"common/travel/point_of_interest_types",
	"common/travel/travel_options",
	"common/trigger_localization",
	"common/tutorial_lesson_chains",
	"common/tutorial_lessons",
	"common/vassal_contracts",
	"common/vassal_stances",
}
