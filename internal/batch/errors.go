package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emiteNota/internal/locator"
	"emiteNota/internal/session"
	"emiteNota/internal/wizard"
)

// Kind: категория ошибки записи в отчёте
type Kind string

const (
	KindNone              Kind = ""
	KindAuth              Kind = "auth"
	KindRequiredField     Kind = "required_field"
	KindStepAdvance       Kind = "step_advance"
	KindIssuanceFailed    Kind = "issuance_failed"
	KindIssuanceAmbiguous Kind = "issuance_ambiguous"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnresolved        Kind = "element_unresolved"
	KindCancelled         Kind = "cancelled"
	KindPanic             Kind = "panic"
	KindUnknown           Kind = "unknown"
)

// PanicError: паника внутри обработки записи, перехваченная раннером
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("паника при обработке записи: %v", e.Value)
}

// Classify сводит ошибку к категории отчёта
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var authErr *session.AuthError
	var panicErr *PanicError
	var advErr *wizard.StepAdvanceError

	switch {
	case errors.As(err, &panicErr):
		return KindPanic
	case errors.As(err, &authErr):
		return KindAuth
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.As(err, &advErr):
		return KindStepAdvance
	case errors.Is(err, wizard.ErrRequiredField):
		return KindRequiredField
	case errors.Is(err, wizard.ErrIssuanceFailed):
		return KindIssuanceFailed
	case errors.Is(err, wizard.ErrIssuanceAmbiguous):
		return KindIssuanceAmbiguous
	case errors.Is(err, wizard.ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, locator.ErrElementUnresolved):
		return KindUnresolved
	default:
		return KindUnknown
	}
}

// retryable: повторять имеет смысл только сбои входа, не зависящие от настроек
func retryable(err error) bool {
	var authErr *session.AuthError
	return errors.As(err, &authErr) && authErr.Retryable()
}

func retryAction(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryable(err) {
			return err
		}
	}

	return fmt.Errorf("после %d попыток: %w", attempts, lastErr)
}
