// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// configFileName is the name of the configuration file inside the data directory.
const configFileName = "config"

// Config holds the settings a host needs to open a ledger.
type Config struct {
	DataDir       string // directory holding ledger.db
	Network       string // "mainnet", "testnet", or "regtest"; selects address encoding
	Administrator string // P2PKH address seeded into an empty ledger
	LogLevel      string // "debug", "info", "warn", or "error"
}

// DefaultDataDir returns ~/.offset, or ./.offset if the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".offset"
	}
	return filepath.Join(home, ".offset")
}

// DefaultConfig returns a configuration with default values.
// Administrator is left empty; it is only required for a fresh ledger.
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Network:  "mainnet",
		LogLevel: "info",
	}
}

// ConfigPath returns the configuration file path for a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), configFileName)
}

// LoadConfig reads a key=value configuration file. Unset keys keep their
// defaults, unknown keys are ignored, and lines starting with '#' are comments.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		switch key {
		case "datadir":
			cfg.DataDir = value
		case "network":
			cfg.Network = value
		case "administrator":
			cfg.Administrator = value
		case "loglevel":
			cfg.LogLevel = value
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits a line on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Offset Ledger Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "administrator = %s\n", cfg.Administrator)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
