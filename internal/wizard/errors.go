package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrRequiredField     = errors.New("обязательное поле не заполнено")
	ErrIssuanceFailed    = errors.New("страница сообщила об ошибке эмиссии")
	ErrIssuanceAmbiguous = errors.New("результат эмиссии не распознан")
	ErrInvalidTransition = errors.New("недопустимый переход мастера")
)

// StepAdvanceError: кнопка перехода не найдена или клик не прошёл
type StepAdvanceError struct {
	From   Step
	Action string
	Err    error
}

func (e *StepAdvanceError) Error() string {
	return fmt.Sprintf("не удалось перейти с шага %s (%s): %v", e.From, e.Action, e.Err)
}

func (e *StepAdvanceError) Unwrap() error {
	return e.Err
}

func required(step Step, field string) error {
	return fmt.Errorf("%w: %s (шаг %s)", ErrRequiredField, field, step)
}
