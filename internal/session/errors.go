package session

import (
	"fmt"
)

type AuthKind int

const (
	AuthInvalidURL AuthKind = iota
	AuthNavigation
	AuthElementNotFound
	AuthRejected
	AuthTimeout
)

func (k AuthKind) String() string {
	switch k {
	case AuthInvalidURL:
		return "invalid_url"
	case AuthNavigation:
		return "navigation"
	case AuthElementNotFound:
		return "element_not_found"
	case AuthRejected:
		return "rejected"
	case AuthTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// AuthError: вход не выполнен; без сессии партия продолжаться не может
type AuthError struct {
	Kind      AuthKind
	Field     string // для AuthElementNotFound
	PageError string // текст ошибки со страницы, если удалось найти
	Err       error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("ошибка входа (%s)", e.Kind)
	if e.Field != "" {
		msg += ": поле " + e.Field
	}
	if e.PageError != "" {
		msg += ": " + e.PageError
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Retryable: можно ли повторить вход целиком
func (e *AuthError) Retryable() bool {
	switch e.Kind {
	case AuthNavigation, AuthElementNotFound, AuthTimeout:
		return true
	default:
		return false
	}
}
