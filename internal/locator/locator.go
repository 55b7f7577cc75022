package locator

import (
	"context"
	"errors"
	"fmt"

	"emiteNota/internal/browser"

	"go.uber.org/zap"
)

// ErrElementUnresolved: ни один кандидат не дал видимого и доступного элемента
var ErrElementUnresolved = errors.New("элемент не найден")

// Locator разрешает логическое имя поля в конкретный элемент по таблице кандидатов.
// Ожиданий и повторов внутри нет: за тайминги отвечает вызывающий.
type Locator struct {
	table Table
	log   *zap.Logger
}

func New(table Table, log *zap.Logger) *Locator {
	if table == nil {
		table = DefaultTable()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{table: table, log: log}
}

// Candidates возвращает стратегию поля (копию)
func (l *Locator) Candidates(field string) []Candidate {
	return append([]Candidate(nil), l.table[field]...)
}

// Resolve перебирает кандидатов по приоритету и возвращает первый элемент,
// который отображается и доступен. Кандидаты после найденного не проверяются.
func (l *Locator) Resolve(ctx context.Context, scope browser.Finder, field string) (browser.Element, bool) {
	for _, cand := range l.table[field] {
		el, ok := l.first(ctx, scope, field, cand, true)
		if ok {
			return el, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
	}

	l.log.Debug("Поле не найдено", zap.String("field", field))
	return nil, false
}

// Require: Resolve для обязательных полей
func (l *Locator) Require(ctx context.Context, scope browser.Finder, field string) (browser.Element, error) {
	el, ok := l.Resolve(ctx, scope, field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrElementUnresolved, field)
	}
	return el, nil
}

// Present возвращает первый элемент, присутствующий в документе, без проверки видимости
func (l *Locator) Present(ctx context.Context, scope browser.Finder, field string) (browser.Element, bool) {
	for _, cand := range l.table[field] {
		if el, ok := l.first(ctx, scope, field, cand, false); ok {
			return el, true
		}
	}
	return nil, false
}

// All возвращает все видимые и доступные совпадения первого кандидата, давшего хотя бы одно
func (l *Locator) All(ctx context.Context, scope browser.Finder, field string) []browser.Element {
	for _, cand := range l.table[field] {
		sel, err := cand.Selector()
		if err != nil {
			continue
		}
		els, err := scope.FindAll(ctx, sel)
		if err != nil {
			continue
		}

		var out []browser.Element
		for _, el := range els {
			if usable(el) {
				out = append(out, el)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Visible возвращает все отображаемые совпадения всех кандидатов по порядку,
// включая заблокированные (поля только для чтения, заполняемые страницей)
func (l *Locator) Visible(ctx context.Context, scope browser.Finder, field string) []browser.Element {
	var out []browser.Element
	for _, cand := range l.table[field] {
		sel, err := cand.Selector()
		if err != nil {
			continue
		}
		els, err := scope.FindAll(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if displayed, err := el.IsDisplayed(); err == nil && displayed {
				out = append(out, el)
			}
		}
	}
	return out
}

func (l *Locator) first(ctx context.Context, scope browser.Finder, field string, cand Candidate, interactable bool) (browser.Element, bool) {
	sel, err := cand.Selector()
	if err != nil {
		l.log.Warn("Некорректный кандидат", zap.String("field", field), zap.Error(err))
		return nil, false
	}

	els, err := scope.FindAll(ctx, sel)
	if err != nil {
		l.log.Debug("Ошибка поиска по селектору", zap.String("field", field), zap.String("selector", sel), zap.Error(err))
		return nil, false
	}

	for _, el := range els {
		if interactable && !usable(el) {
			continue
		}
		l.log.Debug("Поле найдено", zap.String("field", field), zap.String("selector", sel))
		return el, true
	}
	return nil, false
}

// usable: отображается и доступен; ошибки драйвера = непригоден
func usable(el browser.Element) bool {
	displayed, err := el.IsDisplayed()
	if err != nil || !displayed {
		return false
	}
	enabled, err := el.IsEnabled()
	return err == nil && enabled
}
