// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jedisct1/go-minisign"
	"gopkg.in/urfave/cli.v1"

	"github.com/pdxlint/pdxlint/log"
)

var updateCommand = cli.Command{
	Action: update,
	Name:   "update",
	Usage:  "Download and install the latest release",
	Flags:  []cli.Flag{verbosityFlag, noColorFlag},
	Description: `
The update command fetches the latest release manifest, verifies its
minisign signature and replaces the running binary in place.`,
}

const (
	updateBaseURL = "https://github.com/pdxlint/pdxlint/releases/latest/download"

	// updatePublicKey signs every release manifest. Binaries built from
	// source carry it so that updates stay on the official chain.
	updatePublicKey = "RWQWT6XZL4K0HOhogKqKl29TQxqimklO3sBeWeAR8eKZiMTeJGB99R3/"
)

// releaseManifest describes one release: the version and a binary per
// supported platform, keyed `GOOS-GOARCH`.
type releaseManifest struct {
	Version string                  `json:"version"`
	Assets  map[string]releaseAsset `json:"assets"`
}

type releaseAsset struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

func update(ctx *cli.Context) error {
	client := &http.Client{Timeout: time.Minute}

	manifestRaw, err := fetch(client, updateBaseURL+"/manifest.json")
	if err != nil {
		return fmt.Errorf("fetching manifest: %w", err)
	}
	sigRaw, err := fetch(client, updateBaseURL+"/manifest.json.minisig")
	if err != nil {
		return fmt.Errorf("fetching manifest signature: %w", err)
	}
	if err := verifyReleaseSignature(manifestRaw, string(sigRaw)); err != nil {
		return err
	}

	var manifest releaseManifest
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return fmt.Errorf("decoding manifest: %w", err)
	}
	if manifest.Version == version {
		log.Info("Already running the latest release", "version", version)
		return nil
	}
	platform := runtime.GOOS + "-" + runtime.GOARCH
	asset, ok := manifest.Assets[platform]
	if !ok {
		return fmt.Errorf("release %s has no binary for %s", manifest.Version, platform)
	}

	log.Info("Downloading release", "version", manifest.Version, "asset", asset.Name)
	binary, err := fetch(client, updateBaseURL+"/"+asset.Name)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	sum := sha256.Sum256(binary)
	if hex.EncodeToString(sum[:]) != asset.SHA256 {
		return fmt.Errorf("checksum mismatch for %s", asset.Name)
	}
	if err := swapBinary(binary); err != nil {
		return err
	}
	log.Info("Updated", "from", version, "to", manifest.Version)
	return nil
}

// verifyReleaseSignature checks raw against its minisign signature.
func verifyReleaseSignature(raw []byte, sig string) error {
	pk, err := minisign.NewPublicKey(updatePublicKey)
	if err != nil {
		return fmt.Errorf("release public key: %w", err)
	}
	signature, err := minisign.DecodeSignature(sig)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}
	ok, err := pk.Verify(raw, signature)
	if err != nil {
		return fmt.Errorf("verifying signature: %w", err)
	}
	if !ok {
		return fmt.Errorf("manifest signature does not verify")
	}
	return nil
}

func fetch(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// swapBinary atomically replaces the running executable. The new binary is
// written next to the old one first; rename across filesystems would fail.
func swapBinary(binary []byte) error {
	self, err := os.Executable()
	if err != nil {
		return err
	}
	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return err
	}
	tmp := self + ".new"
	if err := os.WriteFile(tmp, binary, 0755); err != nil {
		return err
	}
	if err := os.Rename(tmp, self); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
