package identity

import (
	"errors"
	"fmt"
)

// Error codes, named after the Firebase client SDK codes the storefront shows messages for.
const (
	CodeUserNotFound        = "auth/user-not-found"
	CodeWrongPassword       = "auth/wrong-password"
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeEmailInUse          = "auth/email-already-in-use"
	CodeWeakPassword        = "auth/weak-password"
	CodeRequiresRecentLogin = "auth/requires-recent-login"
	CodeNoCurrentUser       = "auth/no-current-user"
	CodeUserDisabled        = "auth/user-disabled"
	CodeInternal            = "auth/internal-error"
)

// Error is an identity provider failure carrying a machine code and the
// provider's raw message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// Code extracts the identity error code from err, or "" when err is not an *Error.
func Code(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

var userMessages = map[string]string{
	CodeUserNotFound:        "Nenhuma conta encontrada com este e-mail.",
	CodeWrongPassword:       "Senha incorreta. Tente novamente.",
	CodeInvalidCredential:   "E-mail ou senha incorretos.",
	CodeInvalidEmail:        "O e-mail informado não é válido.",
	CodeTooManyRequests:     "Muitas tentativas. Aguarde alguns minutos e tente novamente.",
	CodeEmailInUse:          "Este e-mail já está cadastrado.",
	CodeWeakPassword:        "A senha deve ter pelo menos 6 caracteres.",
	CodeRequiresRecentLogin: "Por segurança, entre novamente na sua conta antes de excluí-la.",
	CodeNoCurrentUser:       "Você precisa entrar na sua conta.",
}

// UserMessage turns err into the text shown to the customer. Unmapped codes
// fall back to the provider's raw message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ie *Error
	if !errors.As(err, &ie) {
		return err.Error()
	}
	if msg, ok := userMessages[ie.Code]; ok {
		return msg
	}
	if ie.Message != "" {
		return ie.Message
	}
	return ie.Error()
}

// fromToolkitCode maps Identity Toolkit REST error reasons to codes.
func fromToolkitCode(reason string) string {
	switch reason {
	case "EMAIL_NOT_FOUND":
		return CodeUserNotFound
	case "INVALID_PASSWORD":
		return CodeWrongPassword
	case "INVALID_LOGIN_CREDENTIALS":
		return CodeInvalidCredential
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return CodeInvalidEmail
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return CodeTooManyRequests
	case "EMAIL_EXISTS":
		return CodeEmailInUse
	case "WEAK_PASSWORD":
		return CodeWeakPassword
	case "USER_DISABLED":
		return CodeUserDisabled
	case "CREDENTIAL_TOO_OLD_LOGIN_AGAIN", "TOKEN_EXPIRED":
		return CodeRequiresRecentLogin
	}
	return CodeInternal
}
