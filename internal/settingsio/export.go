// Package settingsio exports and imports provider credentials and scoring
// settings as a passphrase-encrypted file, so a configured instance can be
// moved to another machine without re-entering API keys.
package settingsio

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sydlexius/calliope/internal/config"
	"github.com/sydlexius/calliope/internal/encryption"
	"github.com/sydlexius/calliope/internal/filesystem"
	"github.com/sydlexius/calliope/internal/version"
)

// FormatVersion identifies the export file layout.
const FormatVersion = "1.0"

// Envelope is the outer JSON wrapper for an exported settings file.
type Envelope struct {
	Version    string `json:"version"`
	AppVersion string `json:"app_version"`
	CreatedAt  string `json:"created_at"`
	Salt       string `json:"salt"` // base64-encoded PBKDF2 salt
	Data       string `json:"data"` // base64-encoded nonce+ciphertext
}

// Payload is the decrypted inner content of an export: the provider setup
// (credentials and enabled flags) and the scoring weights. Everything
// machine-local, like library paths, stays out of it.
type Payload struct {
	Providers config.ProvidersConfig `json:"providers"`
	Scoring   config.ScoringConfig   `json:"scoring"`
}

// ImportResult summarizes what an import applied.
type ImportResult struct {
	Credentials int  `json:"credentials"`
	Scoring     bool `json:"scoring"`
}

// Export encrypts the portable parts of cfg with the given passphrase and
// returns an Envelope. The passphrase is used with PBKDF2 to derive an
// AES-256-GCM key, making exports portable across instances.
func Export(cfg *config.Config, passphrase string) (*Envelope, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}

	payload := Payload{
		Providers: cfg.Providers,
		Scoring:   cfg.Scoring,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	data, salt, err := encryption.EncryptWithPassphrase(payloadJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypting payload: %w", err)
	}

	return &Envelope{
		Version:    FormatVersion,
		AppVersion: version.Version,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Salt:       salt,
		Data:       data,
	}, nil
}

// Import decrypts an Envelope using the given passphrase. The passphrase
// must match the one used during export.
func Import(env *Envelope, passphrase string) (*Payload, error) {
	if env.Data == "" {
		return nil, fmt.Errorf("empty export data")
	}

	plaintext, err := encryption.DecryptWithPassphrase(env.Data, env.Salt, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypting export data: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("parsing export payload: %w", err)
	}
	return &payload, nil
}

// Apply copies the payload into cfg. The provider block is replaced
// wholesale so the target ends up with exactly the exporter's setup; the
// scoring block is only replaced when the payload carries one, since a
// zero-valued ScoringConfig would break the weight invariants.
func (p *Payload) Apply(cfg *config.Config) *ImportResult {
	result := &ImportResult{}

	cfg.Providers = p.Providers
	if p.Providers.Discogs.Token != "" {
		result.Credentials++
	}
	if p.Providers.Spotify.ClientID != "" && p.Providers.Spotify.ClientSecret != "" {
		result.Credentials++
	}
	if p.Providers.LastFm.APIKey != "" {
		result.Credentials++
	}
	if p.Providers.Genius.AccessToken != "" {
		result.Credentials++
	}

	if p.Scoring != (config.ScoringConfig{}) {
		cfg.Scoring = p.Scoring
		result.Scoring = true
	}
	return result
}

// WriteFile writes the envelope to path with owner-only permissions.
func WriteFile(path string, env *Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	data = append(data, '\n')
	return filesystem.WriteFileAtomic(path, data, 0o600)
}

// ReadFile loads an envelope previously written by WriteFile.
func ReadFile(path string) (*Envelope, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return nil, fmt.Errorf("reading export file: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing export file: %w", err)
	}
	return &env, nil
}
