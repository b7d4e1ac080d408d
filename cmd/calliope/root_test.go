package main

import "testing"

func TestRootShowsHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "")
	if err != nil {
		t.Fatalf("root command: %v", err)
	}
	requireContains(t, stdout, "Available Commands")
	requireContains(t, stdout, "search")
	requireContains(t, stdout, "download")
}

func TestUnknownCommandFails(t *testing.T) {
	_, _, err := runCLI(t, "", "frobnicate")
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version command: %v", err)
	}
	requireContains(t, stdout, "calliope")
}
