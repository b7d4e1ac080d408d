package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sydlexius/calliope/internal/config"
)

// runCLI executes a fresh command tree and returns stdout, stderr, and the
// execution error.
func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	return runCLIWithInput(t, configPath, "", args...)
}

func runCLIWithInput(t *testing.T, configPath, input string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if input != "" {
		cmd.SetIn(strings.NewReader(input))
	}
	cliArgs := args
	if configPath != "" {
		cliArgs = append([]string{"--config", configPath, "--log-level", "error"}, args...)
	}
	cmd.SetArgs(cliArgs)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestConfig saves a config with temp paths and every provider
// disabled, so tests never reach the network. mutate adjusts the config
// before saving.
func writeTestConfig(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Cache.Path = filepath.Join(base, "cache.db")
	cfg.Download.Directory = filepath.Join(base, "library")
	cfg.Download.StagingDir = filepath.Join(base, "staging")
	cfg.Providers.MusicBrainz.Enabled = false
	cfg.Providers.Discogs.Enabled = false
	cfg.Providers.Spotify.Enabled = false
	cfg.Providers.LastFm.Enabled = false
	cfg.Providers.Genius.Enabled = false
	cfg.Providers.YouTube.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(base, "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("saving test config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
