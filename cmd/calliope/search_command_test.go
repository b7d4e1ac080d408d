package main

import (
	"strings"
	"testing"
)

func TestSearchRequiresQuery(t *testing.T) {
	cfgPath := writeTestConfig(t, nil)

	_, _, err := runCLI(t, cfgPath, "search")
	if err == nil {
		t.Fatal("expected an error without a query")
	}
	requireContains(t, err.Error(), "title or artist")
}

func TestSearchNoProvidersConfigured(t *testing.T) {
	cfgPath := writeTestConfig(t, nil)

	_, _, err := runCLI(t, cfgPath, "search", "--title", "Bohemian Rhapsody", "--artist", "Queen")
	if err == nil {
		t.Fatal("expected search with no providers to fail")
	}
	if !strings.Contains(err.Error(), "no provider returned metadata") {
		t.Fatalf("unexpected error: %v", err)
	}
	requireContains(t, err.Error(), "calliope providers")
}

func TestDownloadRequiresQuery(t *testing.T) {
	cfgPath := writeTestConfig(t, nil)

	_, _, err := runCLI(t, cfgPath, "download")
	if err == nil {
		t.Fatal("expected an error without a query")
	}
}

func TestTagMissingFile(t *testing.T) {
	cfgPath := writeTestConfig(t, nil)

	_, _, err := runCLI(t, cfgPath, "tag", "/nonexistent/track.mp3")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
