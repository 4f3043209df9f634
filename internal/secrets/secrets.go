// Package secrets stores pipeline credentials (GitHub token, property
// graph password, vocabulary service key) in the OS keychain, falling
// back silently to "not set" on headless systems where no keychain is
// available — a single named-item store serving the
// KeyringManager (OpenAI key + GitHub token) into a named-item store.
package secrets

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const service = "kgxchange"

const (
	ItemGitHubToken   = "github-token"
	ItemNeo4jPassword = "neo4j-password"
	ItemVocabKey      = "vocab-key"
)

// Store wraps the OS keychain for named credential items.
type Store struct {
	log *logrus.Entry
}

// New returns a Store. logger may be nil, in which case a standalone
// logrus logger is used.
func New(logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{log: logger.WithField("component", "secrets")}
}

// Get retrieves item, returning ("", nil) if it has never been set.
func (s *Store) Get(item string) (string, error) {
	value, err := keyring.Get(service, item)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		s.log.WithError(err).WithField("item", item).Error("keychain read failed")
		return "", fmt.Errorf("secrets: read %q: %w", item, err)
	}
	return value, nil
}

// Set stores value under item.
func (s *Store) Set(item, value string) error {
	if value == "" {
		return fmt.Errorf("secrets: empty value for %q", item)
	}
	if err := keyring.Set(service, item, value); err != nil {
		s.log.WithError(err).WithField("item", item).Error("keychain write failed")
		return fmt.Errorf("secrets: write %q: %w", item, err)
	}
	s.log.WithField("item", item).Info("credential saved to keychain")
	return nil
}

// Delete removes item; deleting an absent item is not an error.
func (s *Store) Delete(item string) error {
	err := keyring.Delete(service, item)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		s.log.WithError(err).WithField("item", item).Error("keychain delete failed")
		return fmt.Errorf("secrets: delete %q: %w", item, err)
	}
	return nil
}

// IsAvailable reports whether an OS keychain backend is reachable at
// all (false on headless CI systems).
func (s *Store) IsAvailable() bool {
	_, err := keyring.Get(service, "availability-probe")
	if err == keyring.ErrNotFound {
		return true
	}
	return err == nil
}

// Mask renders a secret for display: first 4 and last 4 characters,
// masking the middle.
func Mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) < 10 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", secret[:4], secret[len(secret)-4:])
}
