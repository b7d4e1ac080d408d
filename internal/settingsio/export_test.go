package settingsio

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sydlexius/calliope/internal/config"
)

func seededConfig() *config.Config {
	cfg := config.Default()
	cfg.Providers.Discogs.Token = "discogs-token"
	cfg.Providers.Spotify.ClientID = "spotify-id"
	cfg.Providers.Spotify.ClientSecret = "spotify-secret"
	cfg.Providers.LastFm.APIKey = "lastfm-key"
	cfg.Providers.Genius.AccessToken = "genius-token"
	cfg.Providers.YouTube.Enabled = false
	cfg.Scoring.ConfidenceWeight = 0.8
	cfg.Scoring.CompletenessWeight = 0.2
	return cfg
}

func TestRoundTrip(t *testing.T) {
	cfg := seededConfig()
	passphrase := "test-export-passphrase"

	envelope, err := Export(cfg, passphrase)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if envelope.Version != FormatVersion {
		t.Errorf("expected version %s, got %s", FormatVersion, envelope.Version)
	}
	if envelope.Data == "" {
		t.Error("expected non-empty encrypted data")
	}
	if envelope.Salt == "" {
		t.Error("expected non-empty salt")
	}

	// Apply onto a fresh default config, as a new instance would.
	payload, err := Import(envelope, passphrase)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	target := config.Default()
	result := payload.Apply(target)

	if result.Credentials != 4 {
		t.Errorf("expected 4 credentials applied, got %d", result.Credentials)
	}
	if !result.Scoring {
		t.Error("expected scoring to be applied")
	}
	if target.Providers.Discogs.Token != "discogs-token" {
		t.Errorf("expected discogs token preserved, got %q", target.Providers.Discogs.Token)
	}
	if target.Providers.Spotify.ClientSecret != "spotify-secret" {
		t.Errorf("expected spotify secret preserved, got %q", target.Providers.Spotify.ClientSecret)
	}
	if target.Providers.YouTube.Enabled {
		t.Error("expected youtube disabled flag to carry over")
	}
	if target.Scoring.ConfidenceWeight != 0.8 {
		t.Errorf("expected confidence weight 0.8, got %v", target.Scoring.ConfidenceWeight)
	}
}

func TestExport_PayloadIsEncrypted(t *testing.T) {
	cfg := seededConfig()
	envelope, err := Export(cfg, "hunter2")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}
	for _, secret := range []string{"discogs-token", "spotify-secret", "lastfm-key", "genius-token"} {
		if bytes.Contains(raw, []byte(secret)) {
			t.Errorf("credential %q visible in exported envelope", secret)
		}
	}
}

func TestExport_EmptyPassphrase(t *testing.T) {
	if _, err := Export(config.Default(), ""); err == nil {
		t.Error("expected error for empty passphrase")
	}
}

func TestImport_WrongPassphrase(t *testing.T) {
	envelope, err := Export(seededConfig(), "correct-passphrase")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if _, err := Import(envelope, "wrong-passphrase"); err == nil {
		t.Error("expected error when importing with wrong passphrase")
	}
}

func TestImport_CorruptedData(t *testing.T) {
	env := &Envelope{
		Version: FormatVersion,
		Salt:    "AAAAAAAAAAAAAAAAAAAAAA==",
		Data:    "not-valid-base64-encrypted-data",
	}
	if _, err := Import(env, "some-passphrase"); err == nil {
		t.Error("expected error for corrupted data")
	}
}

func TestImport_EmptyData(t *testing.T) {
	env := &Envelope{Version: FormatVersion, Data: ""}
	if _, err := Import(env, "any-passphrase"); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestApply_ZeroScoringKeepsDefaults(t *testing.T) {
	payload := &Payload{}
	target := config.Default()
	want := target.Scoring

	result := payload.Apply(target)

	if result.Scoring {
		t.Error("expected scoring not applied for zero payload")
	}
	if target.Scoring != want {
		t.Errorf("expected scoring unchanged, got %+v", target.Scoring)
	}
}

func TestWriteReadFile(t *testing.T) {
	cfg := seededConfig()
	envelope, err := Export(cfg, "file-test")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	path := filepath.Join(t.TempDir(), "settings.calliope")
	if err := WriteFile(path, envelope); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if loaded.Data != envelope.Data {
		t.Error("expected data preserved through file round trip")
	}
	if loaded.Salt != envelope.Salt {
		t.Error("expected salt preserved through file round trip")
	}

	payload, err := Import(loaded, "file-test")
	if err != nil {
		t.Fatalf("Import after file round trip: %v", err)
	}
	if payload.Providers.Discogs.Token != "discogs-token" {
		t.Errorf("expected discogs token after round trip, got %q", payload.Providers.Discogs.Token)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.calliope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvelope_JSON(t *testing.T) {
	env := Envelope{
		Version:    FormatVersion,
		AppVersion: "0.3.0",
		CreatedAt:  "2026-01-01T00:00:00Z",
		Salt:       "c29tZS1zYWx0",
		Data:       "encrypted-data",
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}
	if decoded.Version != FormatVersion {
		t.Errorf("expected %s, got %s", FormatVersion, decoded.Version)
	}
	if decoded.Salt != "c29tZS1zYWx0" {
		t.Errorf("expected salt preserved, got %s", decoded.Salt)
	}
}
