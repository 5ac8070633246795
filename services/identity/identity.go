package identity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RecentLoginWindow is how old a sign-in may be for sensitive operations.
const RecentLoginWindow = 5 * time.Minute

// User is the signed-in account as known to the identity provider.
type User struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	IDToken      string    `json:"idToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	AuthTime     time.Time `json:"authTime"`
}

// Backend talks to the identity provider.
type Backend interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	// Lookup confirms that a previously issued credential still maps to an account.
	Lookup(ctx context.Context, u *User) (*User, error)
	DeleteAccount(ctx context.Context, u *User) error
	SendPasswordReset(ctx context.Context, email string) error
}

// CredentialStore persists the device credential between bootstraps.
type CredentialStore interface {
	LoadCredential(ctx context.Context, device string) (*User, error)
	SaveCredential(ctx context.Context, device string, u *User) error
	ClearCredential(ctx context.Context, device string) error
}

// Listener receives the new user on sign-in and nil on sign-out.
type Listener func(u *User)

// Session is the identity state of one device: at most one current user and
// the listeners that want to hear about changes to it.
type Session struct {
	backend Backend
	creds   CredentialStore
	device  string
	logger  *zap.Logger
	now     func() time.Time

	// notifyMu serializes state changes so listeners see them in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	version   int64
	current   *User
	listeners map[int]Listener
	nextID    int
}

func NewSession(backend Backend, creds CredentialStore, device string, logger *zap.Logger) *Session {
	return &Session{
		backend:   backend,
		creds:     creds,
		device:    device,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// OnAuthStateChanged registers fn and returns a func that unregisters it.
// Notifications run on the goroutine that caused the change.
func (s *Session) OnAuthStateChanged(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Current returns a copy of the signed-in user, or nil.
func (s *Session) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Session) setCurrent(ctx context.Context, u *User) {
	s.setCurrentIf(ctx, u, -1)
}

// setCurrentIf applies u unless the state changed since version was read.
// A negative version applies unconditionally.
func (s *Session) setCurrentIf(ctx context.Context, u *User, version int64) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if version >= 0 && version != s.version {
		s.mu.Unlock()
		return false
	}
	s.version++
	s.current = u
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if u != nil {
		if err := s.creds.SaveCredential(ctx, s.device, u); err != nil {
			s.logger.Warn("identity.Session: failed to persist credential", zap.String("device", s.device), zap.Error(err))
		}
	} else if err := s.creds.ClearCredential(ctx, s.device); err != nil {
		s.logger.Warn("identity.Session: failed to clear credential", zap.String("device", s.device), zap.Error(err))
	}

	for _, fn := range listeners {
		var arg *User
		if u != nil {
			cp := *u
			arg = &cp
		}
		fn(arg)
	}
	return true
}

// Restore loads the persisted credential and checks it with the provider.
// A valid credential signs the user in; a rejected one is cleared and
// announced as a sign-out. With nothing stored nothing is announced.
// Restore never overrides a sign-in or sign-out that happened meanwhile.
// It returns the restored user, or nil.
func (s *Session) Restore(ctx context.Context) *User {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	saved, err := s.creds.LoadCredential(ctx, s.device)
	if err != nil {
		s.logger.Warn("identity.Session: failed to load credential", zap.String("device", s.device), zap.Error(err))
	}
	if saved == nil {
		return nil
	}

	u, err := s.backend.Lookup(ctx, saved)
	if err != nil {
		s.logger.Info("identity.Session: stored credential rejected", zap.String("device", s.device), zap.Error(err))
		s.setCurrentIf(ctx, nil, version)
		return nil
	}
	if !s.setCurrentIf(ctx, u, version) {
		return s.Current()
	}
	return u
}

// SignUp creates an account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	u, err := s.backend.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	s.setCurrent(ctx, u)
	return u, nil
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*User, error) {
	u, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setCurrent(ctx, u)
	return u, nil
}

// SignOut forgets the current user on this device. Other devices keep their sessions.
func (s *Session) SignOut(ctx context.Context) {
	if s.Current() == nil {
		return
	}
	s.setCurrent(ctx, nil)
}

// DeleteAccount removes the current account. It fails with
// CodeRequiresRecentLogin when the sign-in is older than RecentLoginWindow.
func (s *Session) DeleteAccount(ctx context.Context) (*User, error) {
	u := s.Current()
	if u == nil {
		return nil, newError(CodeNoCurrentUser, "no user is signed in", nil)
	}
	if s.now().Sub(u.AuthTime) > RecentLoginWindow {
		return nil, newError(CodeRequiresRecentLogin, "sign in again before deleting the account", nil)
	}
	if err := s.backend.DeleteAccount(ctx, u); err != nil {
		return nil, err
	}
	s.setCurrent(ctx, nil)
	return u, nil
}

func (s *Session) SendPasswordReset(ctx context.Context, email string) error {
	return s.backend.SendPasswordReset(ctx, email)
}
