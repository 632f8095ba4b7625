// Package creds persists the pairing credentials the companion needs to
// reconnect to its Gateway across restarts. The OS keychain is the
// primary store; a JSON file under the user config directory is the
// fallback for headless hosts without a keyring daemon.
package creds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "forgeai-companion"
	keyringUser    = "credentials"
	fileName       = "credentials.json"
)

// Credentials is everything needed to authenticate the control channel.
type Credentials struct {
	GatewayURL  string `json:"gateway_url"`
	CompanionID string `json:"companion_id"`
	Role        string `json:"role"`
	AuthToken   string `json:"auth_token"`
}

// Store reads and writes credentials, preferring the OS keychain and
// falling back to a file. All operations are best-effort across both
// backends; a broken keyring never strands a paired companion.
type Store struct {
	dir string // config directory for the file fallback
}

func NewStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return &Store{dir: filepath.Join(base, "forgeai")}, nil
}

// Load returns the stored credentials, or false when the companion has
// never been paired.
func (s *Store) Load() (*Credentials, bool) {
	if raw, err := keyring.Get(keyringService, keyringUser); err == nil {
		var c Credentials
		if err := json.Unmarshal([]byte(raw), &c); err == nil && c.AuthToken != "" {
			return &c, true
		}
	}

	data, err := os.ReadFile(s.filePath())
	if err != nil {
		return nil, false
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil || c.AuthToken == "" {
		return nil, false
	}
	return &c, true
}

// Save writes to both backends. The file copy means an OS keychain wipe
// (or a missing keyring daemon) does not force a re-pair.
func (s *Store) Save(c *Credentials) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	keyringErr := keyring.Set(keyringService, keyringUser, string(data))

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, 0o600); err != nil {
		if keyringErr == nil {
			return nil // keychain has it
		}
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Delete removes credentials from both backends.
func (s *Store) Delete() error {
	_ = keyring.Delete(keyringService, keyringUser)
	if err := os.Remove(s.filePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials file: %w", err)
	}
	return nil
}

func (s *Store) filePath() string {
	return filepath.Join(s.dir, fileName)
}
