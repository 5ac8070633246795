package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

type fakeCreds struct {
	mu    sync.Mutex
	saved map[string]*User
}

func newFakeCreds() *fakeCreds { return &fakeCreds{saved: map[string]*User{}} }

func (f *fakeCreds) LoadCredential(_ context.Context, device string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[device], nil
}

func (f *fakeCreds) SaveCredential(_ context.Context, device string, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.saved[device] = &cp
	return nil
}

func (f *fakeCreds) ClearCredential(_ context.Context, device string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, device)
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	creds := newFakeCreds()
	s := NewSession(backend, creds, "dev-1", zap.NewNop())

	var seen []string
	unsubscribe := s.OnAuthStateChanged(func(u *User) {
		if u == nil {
			seen = append(seen, "out")
			return
		}
		seen = append(seen, "in:"+u.Email)
	})

	u, err := s.SignUp(ctx, "ana@example.com", "segredo1", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.DisplayName)
	assert.NotNil(t, creds.saved["dev-1"])

	s.SignOut(ctx)
	assert.Nil(t, s.Current())
	assert.Nil(t, creds.saved["dev-1"])

	_, err = s.SignIn(ctx, "ana@example.com", "segredo1")
	require.NoError(t, err)

	unsubscribe()
	s.SignOut(ctx)

	assert.Equal(t, []string{"in:ana@example.com", "out", "in:ana@example.com"}, seen)
}

func TestSignInErrors(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := NewSession(backend, newFakeCreds(), "dev", zap.NewNop())

	_, err := s.SignUp(ctx, "bia@example.com", "123456", "Bia")
	require.NoError(t, err)
	s.SignOut(ctx)

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"unknown account", "nobody@example.com", "123456", CodeUserNotFound},
		{"wrong password", "bia@example.com", "654321", CodeWrongPassword},
		{"malformed email", "not-an-email", "123456", CodeInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignIn(ctx, tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, tt.code, Code(err))
			assert.Nil(t, s.Current())
		})
	}
}

func TestSignUpErrors(t *testing.T) {
	ctx := context.Background()
	s := NewSession(NewMemoryBackend(), newFakeCreds(), "dev", zap.NewNop())

	_, err := s.SignUp(ctx, "c@example.com", "123", "C")
	assert.Equal(t, CodeWeakPassword, Code(err))

	_, err = s.SignUp(ctx, "c@example.com", "123456", "C")
	require.NoError(t, err)
	_, err = s.SignUp(ctx, "C@example.com", "123456", "C")
	assert.Equal(t, CodeEmailInUse, Code(err))
}

func TestDeleteAccountRequiresRecentLogin(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := NewSession(backend, newFakeCreds(), "dev", zap.NewNop())

	_, err := s.SignUp(ctx, "d@example.com", "123456", "D")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(RecentLoginWindow + time.Minute) }
	_, err = s.DeleteAccount(ctx)
	assert.Equal(t, CodeRequiresRecentLogin, Code(err))
	assert.NotNil(t, s.Current(), "a rejected deletion keeps the user signed in")

	s.now = time.Now
	deleted, err := s.DeleteAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d@example.com", deleted.Email)
	assert.Nil(t, s.Current())

	_, err = s.SignIn(ctx, "d@example.com", "123456")
	assert.Equal(t, CodeUserNotFound, Code(err))
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	creds := newFakeCreds()

	first := NewSession(backend, creds, "dev", zap.NewNop())
	_, err := first.SignUp(ctx, "e@example.com", "123456", "E")
	require.NoError(t, err)

	second := NewSession(backend, creds, "dev", zap.NewNop())
	var got *User
	second.OnAuthStateChanged(func(u *User) { got = u })
	restored := second.Restore(ctx)
	require.NotNil(t, got)
	require.NotNil(t, restored)
	assert.Equal(t, "e@example.com", got.Email)

	empty := NewSession(backend, newFakeCreds(), "other", zap.NewNop())
	called := false
	empty.OnAuthStateChanged(func(*User) { called = true })
	assert.Nil(t, empty.Restore(ctx))
	assert.False(t, called, "nothing stored, nothing announced")
}

func TestRestoreRejectedCredential(t *testing.T) {
	ctx := context.Background()
	creds := newFakeCreds()
	require.NoError(t, creds.SaveCredential(ctx, "dev", &User{UID: "ghost"}))

	s := NewSession(NewMemoryBackend(), creds, "dev", zap.NewNop())
	var notified []*User
	s.OnAuthStateChanged(func(u *User) { notified = append(notified, u) })

	assert.Nil(t, s.Restore(ctx))
	require.Len(t, notified, 1)
	assert.Nil(t, notified[0])
	assert.Nil(t, creds.saved["dev"])
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Este e-mail já está cadastrado.", UserMessage(newError(CodeEmailInUse, "EMAIL_EXISTS", nil)))
	assert.Equal(t, "USER_DISABLED", UserMessage(newError(CodeUserDisabled, "USER_DISABLED", nil)))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Empty(t, UserMessage(nil))
}

func TestMapToolkitError(t *testing.T) {
	tests := map[string]string{
		"EMAIL_NOT_FOUND":             CodeUserNotFound,
		"INVALID_PASSWORD":            CodeWrongPassword,
		"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
		"INVALID_EMAIL":               CodeInvalidEmail,
		"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
		"WEAK_PASSWORD : Password should be at least 6 characters": CodeWeakPassword,
		"SOMETHING_NEW": CodeInternal,
	}
	for msg, code := range tests {
		err := mapToolkitError(&googleapi.Error{Code: 400, Message: msg})
		assert.Equal(t, code, Code(err), msg)
	}
	assert.Equal(t, "SOMETHING_NEW", UserMessage(mapToolkitError(&googleapi.Error{Code: 400, Message: "SOMETHING_NEW"})))
}
