package session

import (
	"context"
	"fmt"
	"strings"

	"jepet/models"
	"jepet/services/identity"

	"go.uber.org/zap"
)

// SignUp creates an account. The Session appears once the auth listener has
// opened the profile subscription.
func (s *Store) SignUp(ctx context.Context, name, email, password string) (*identity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return s.identity.SignUp(ctx, strings.TrimSpace(email), password, name)
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*identity.User, error) {
	return s.identity.SignIn(ctx, strings.TrimSpace(email), password)
}

// SignOut ends the identity session. The cart is kept.
func (s *Store) SignOut(ctx context.Context) {
	s.identity.SignOut(ctx)
}

func (s *Store) SendPasswordReset(ctx context.Context, email string) error {
	return s.identity.SendPasswordReset(ctx, strings.TrimSpace(email))
}

// DeleteAccount removes the identity, then deletes the profile document in
// the background. Orders and appointments stay in the document store.
func (s *Store) DeleteAccount(ctx context.Context) (*Task, error) {
	deleted, err := s.identity.DeleteAccount(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session.DeleteAccount: account deleted", zap.String("uid", deleted.UID))

	return s.submit("profile.delete", deleted.UID,
		func() error { return nil },
		func(ctx context.Context) error {
			return s.deps.Profiles.Delete(ctx, deleted.UID)
		})
}

// SetView records the screen the device is on and remembers it across bootstraps.
func (s *Store) SetView(view models.View) error {
	if !view.Valid() {
		return fmt.Errorf("%w: unknown view %q", ErrInvalidInput, view)
	}
	s.mu.Lock()
	s.state.View = view
	s.mu.Unlock()

	ctx, cancel := s.cacheContext()
	defer cancel()
	if err := s.deps.Cache.SaveView(ctx, s.device, view); err != nil {
		s.logger.Warn("session.SetView: cache write failed", zap.Error(err))
	}
	s.publishState()
	return nil
}
