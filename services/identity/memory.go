package identity

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type memoryAccount struct {
	uid          string
	email        string
	displayName  string
	passwordHash []byte
}

// MemoryBackend is an in-process identity provider for development and tests.
// It applies the same validation rules as Firebase email/password accounts.
type MemoryBackend struct {
	mu       sync.Mutex
	accounts map[string]*memoryAccount // by lower-cased email
	now      func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{accounts: make(map[string]*memoryAccount), now: time.Now}
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return "", newError(CodeInvalidEmail, "INVALID_EMAIL", err)
	}
	return strings.ToLower(addr.Address), nil
}

func (b *MemoryBackend) CreateAccount(_ context.Context, email, password, displayName string) (*User, error) {
	key, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, newError(CodeWeakPassword, "WEAK_PASSWORD : Password should be at least 6 characters", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newError(CodeInternal, err.Error(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[key]; exists {
		return nil, newError(CodeEmailInUse, "EMAIL_EXISTS", nil)
	}
	acct := &memoryAccount{
		uid:          uuid.NewString(),
		email:        strings.TrimSpace(email),
		displayName:  displayName,
		passwordHash: hash,
	}
	b.accounts[key] = acct
	return b.userFor(acct), nil
}

func (b *MemoryBackend) userFor(acct *memoryAccount) *User {
	return &User{
		UID:         acct.uid,
		Email:       acct.email,
		DisplayName: acct.displayName,
		IDToken:     uuid.NewString(),
		AuthTime:    b.now(),
	}
}

func (b *MemoryBackend) SignIn(_ context.Context, email, password string) (*User, error) {
	key, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[key]
	if !ok {
		return nil, newError(CodeUserNotFound, "EMAIL_NOT_FOUND", nil)
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return nil, newError(CodeWrongPassword, "INVALID_PASSWORD", err)
	}
	return b.userFor(acct), nil
}

func (b *MemoryBackend) Lookup(_ context.Context, u *User) (*User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.uid != u.UID {
			continue
		}
		out := *u
		out.Email, out.DisplayName = acct.email, acct.displayName
		return &out, nil
	}
	return nil, newError(CodeUserNotFound, "USER_NOT_FOUND", nil)
}

func (b *MemoryBackend) DeleteAccount(_ context.Context, u *User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, acct := range b.accounts {
		if acct.uid == u.UID {
			delete(b.accounts, key)
			return nil
		}
	}
	return newError(CodeUserNotFound, "USER_NOT_FOUND", nil)
}

func (b *MemoryBackend) SendPasswordReset(_ context.Context, email string) error {
	key, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[key]; !ok {
		return newError(CodeUserNotFound, "EMAIL_NOT_FOUND", nil)
	}
	return nil
}
