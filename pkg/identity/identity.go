// Package identity exposes the current user of the tracker. Authentication
// itself happens elsewhere; this package only answers "who is this" with a
// name and the email address used as the stable user key.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anshul-jain-devx108/shopmind/pkg/config"
)

// ErrNoIdentity is returned when no user identity has been configured.
// Unlike storage and sync failures this one is surfaced to callers: analytics
// and export have no sensible fallback without a user.
var ErrNoIdentity = errors.New("no user identity configured")

// Identity is the current user. Email is the stable user key.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Provider supplies the current user identity.
type Provider interface {
	Current() (Identity, error)
}

// FileProvider reads the identity from <data-dir>/identity.json.
type FileProvider struct{}

func identityPath() (string, error) {
	dir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "identity.json"), nil
}

// Current returns the configured identity, or ErrNoIdentity when the file is
// missing or holds no email.
func (FileProvider) Current() (Identity, error) {
	path, err := identityPath()
	if err != nil {
		return Identity{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Identity{}, ErrNoIdentity
		}
		return Identity{}, fmt.Errorf("failed to read identity: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("failed to parse identity: %w", err)
	}
	if strings.TrimSpace(id.Email) == "" {
		return Identity{}, ErrNoIdentity
	}

	return id, nil
}

// Save writes the identity to <data-dir>/identity.json.
func Save(id Identity) error {
	if strings.TrimSpace(id.Email) == "" {
		return fmt.Errorf("identity requires an email address")
	}

	path, err := identityPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}

	return nil
}
