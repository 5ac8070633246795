package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseBackend uses the Admin SDK for account management and the
// Identity Toolkit REST API for password sign-in and reset e-mails.
type FirebaseBackend struct {
	auth    *auth.Client
	toolkit *identitytoolkit.Service
	now     func() time.Time
}

func NewFirebaseBackend(ctx context.Context, app *firebase.App, webAPIKey string) (*FirebaseBackend, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewFirebaseBackend: failed to get auth client: %w", err)
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(webAPIKey))
	if err != nil {
		return nil, fmt.Errorf("NewFirebaseBackend: failed to create identity toolkit client: %w", err)
	}
	return &FirebaseBackend{auth: client, toolkit: toolkit, now: time.Now}, nil
}

func (b *FirebaseBackend) CreateAccount(ctx context.Context, email, password, displayName string) (*User, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)
	if _, err := b.auth.CreateUser(ctx, params); err != nil {
		return nil, mapAdminError(err)
	}
	return b.SignIn(ctx, email, password)
}

func (b *FirebaseBackend) SignIn(ctx context.Context, email, password string) (*User, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}
	resp, err := b.toolkit.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		return nil, mapToolkitError(err)
	}
	return &User{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		AuthTime:     b.now(),
	}, nil
}

// Lookup refreshes the profile fields of a stored credential from the user record.
func (b *FirebaseBackend) Lookup(ctx context.Context, u *User) (*User, error) {
	rec, err := b.auth.GetUser(ctx, u.UID)
	if err != nil {
		return nil, mapAdminError(err)
	}
	if rec.Disabled {
		return nil, newError(CodeUserDisabled, "account disabled", nil)
	}
	if rec.TokensValidAfterMillis > 0 && u.AuthTime.UnixMilli() < rec.TokensValidAfterMillis {
		return nil, newError(CodeRequiresRecentLogin, "credential revoked", nil)
	}
	out := *u
	out.Email = rec.Email
	out.DisplayName = rec.DisplayName
	return &out, nil
}

// DeleteAccount verifies the caller's ID token before deleting the user.
func (b *FirebaseBackend) DeleteAccount(ctx context.Context, u *User) error {
	if u.IDToken != "" {
		tok, err := b.auth.VerifyIDToken(ctx, u.IDToken)
		if err != nil {
			if auth.IsIDTokenExpired(err) {
				return newError(CodeRequiresRecentLogin, err.Error(), err)
			}
			return mapAdminError(err)
		}
		if b.now().Sub(time.Unix(tok.AuthTime, 0)) > RecentLoginWindow {
			return newError(CodeRequiresRecentLogin, "sign-in is too old", nil)
		}
	}
	if err := b.auth.DeleteUser(ctx, u.UID); err != nil {
		return mapAdminError(err)
	}
	return nil
}

func (b *FirebaseBackend) SendPasswordReset(ctx context.Context, email string) error {
	req := &identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}
	if _, err := b.toolkit.Relyingparty.GetOobConfirmationCode(req).Context(ctx).Do(); err != nil {
		return mapToolkitError(err)
	}
	return nil
}

func mapAdminError(err error) error {
	switch {
	case auth.IsUserNotFound(err):
		return newError(CodeUserNotFound, err.Error(), err)
	case auth.IsEmailAlreadyExists(err):
		return newError(CodeEmailInUse, err.Error(), err)
	case auth.IsInvalidEmail(err), strings.Contains(err.Error(), "malformed email"):
		return newError(CodeInvalidEmail, err.Error(), err)
	case strings.Contains(err.Error(), "password must be a string at least 6 characters"):
		return newError(CodeWeakPassword, err.Error(), err)
	case auth.IsUserDisabled(err):
		return newError(CodeUserDisabled, err.Error(), err)
	}
	return newError(CodeInternal, err.Error(), err)
}

// mapToolkitError reads the reason out of messages like "INVALID_PASSWORD" or
// "WEAK_PASSWORD : Password should be at least 6 characters".
func mapToolkitError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return newError(CodeInternal, err.Error(), err)
	}
	reason := strings.TrimSpace(strings.SplitN(gerr.Message, ":", 2)[0])
	return newError(fromToolkitCode(reason), gerr.Message, err)
}
