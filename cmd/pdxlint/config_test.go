// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdxlint.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
StrictScopes = false

[Game]
Dir = "/opt/ck3"
Version = "1.12.5"

[Reports]
ShowVanilla = true
MinLevel = "warning"
`)
	cfg := defaultConfig()
	require.NoError(t, loadConfig(path, &cfg))
	assert.Equal(t, "/opt/ck3", cfg.Game.Dir)
	assert.Equal(t, "1.12.5", cfg.Game.Version)
	assert.Equal(t, "CK3", cfg.Game.Tag) // default survives a partial file
	assert.True(t, cfg.Reports.ShowVanilla)
	assert.Equal(t, "warning", cfg.Reports.MinLevel)
	assert.False(t, cfg.StrictScopes)
}

func TestLoadConfigRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "Spelling = true\n")
	cfg := defaultConfig()
	err := loadConfig(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Spelling")
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Game.Dir = "/opt/ck3"
	cfg.Reports.ShowVanilla = true
	cfg.Reports.Suppress = "accepted.json"
	cfg.CacheMB = 64

	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)

	var back lintConfig
	require.NoError(t, tomlSettings.Unmarshal(out, &back))
	assert.Equal(t, cfg, back)
}
