package store

import (
	"context"
	"crypto/subtle"

	"leviro/backend"
	"leviro/forms"
	"leviro/models"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func (s *Store) loadCredentials(ctx context.Context, b backend.Backend) {
	creds, ok, err := b.LoadCredentials(ctx)
	if err != nil {
		log.WithError(err).Warn("admin credentials unreadable, using defaults")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok && creds.Username != "" && creds.PasswordHash != "" {
		s.creds = creds
	} else {
		s.creds = s.defaults
	}
}

// Authenticate checks a login against the admin credentials.
func (s *Store) Authenticate(username, password string) bool {
	s.mu.RLock()
	creds := s.creds
	s.mu.RUnlock()

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(creds.Username)) == 1
	return checkPassword(creds.PasswordHash, password) && userOK
}

// checkPassword accepts bcrypt hashes and, for rows written before hashing,
// plain text.
func checkPassword(stored, password string) bool {
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// ChangeCredentials replaces the admin login. The current credentials must
// match; form problems come back as forms.Errors.
func (s *Store) ChangeCredentials(ctx context.Context, change models.CredentialsChange) error {
	if !s.Authenticate(change.CurrentUsername, change.CurrentPassword) {
		return ErrInvalidCredentials
	}
	if err := forms.NewCredentials(&change).Err(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(change.NewPassword), s.cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	creds := models.Credentials{
		Username:     change.NewUsername,
		PasswordHash: string(hash),
		UpdatedAt:    s.now().UTC(),
	}

	b, _ := s.backend()
	if err := b.SaveCredentials(ctx, creds); err != nil {
		s.fail(AdminAudience, "Failed to save credentials", err)
		return errors.Wrap(err, "save credentials")
	}

	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	s.toasts.Show(AdminAudience, "Credentials updated successfully!", models.ToastSuccess)
	return nil
}
