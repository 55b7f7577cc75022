package wizard

import (
	"context"
	"fmt"
	"strings"

	"emiteNota/internal/browser"
	"emiteNota/internal/locator"
	"emiteNota/internal/record"

	"go.uber.org/zap"
)

// issue: "Salvar rascunho", затем "Emitir" и разбор текста страницы
func (m *Machine) issue(ctx context.Context, _ record.SourceRecord, res *Result) error {
	if err := m.clickRequired(ctx, locator.FieldSaveDraft); err != nil {
		return err
	}

	m.waitLoaded(ctx)
	if err := m.clickRequired(ctx, locator.FieldEmit); err != nil {
		return err
	}
	if err := browser.Pause(ctx, m.cfg.IssuanceWait); err != nil {
		return err
	}
	m.waitLoaded(ctx)

	text, err := m.drv.PageText(ctx)
	if err != nil {
		m.log.Warn("Не удалось прочитать текст страницы после эмиссии", zap.Error(err))
	}

	v, phrase := m.classifyIssuance(text)
	switch v {
	case verdictSuccess:
		m.log.Info("Нота эмитирована", zap.String("phrase", phrase))
		res.Issuance = IssuanceConfirmed
		return nil
	case verdictFailure:
		return fmt.Errorf("%w: %q", ErrIssuanceFailed, phrase)
	}

	if !m.cfg.AmbiguousAsSuccess {
		return ErrIssuanceAmbiguous
	}
	m.log.Warn("Результат эмиссии не распознан, считается успешным")
	res.Issuance = IssuanceAmbiguous
	res.warn("результат эмиссии не распознан")
	return nil
}

type verdict int

const (
	verdictUnknown verdict = iota
	verdictSuccess
	verdictFailure
)

// classifyIssuance ищет сначала фразы успеха, затем фразы ошибки
func (m *Machine) classifyIssuance(text string) (verdict, string) {
	lower := strings.ToLower(text)
	for _, p := range m.cfg.SuccessPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return verdictSuccess, p
		}
	}
	for _, p := range m.cfg.FailurePhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return verdictFailure, p
		}
	}
	return verdictUnknown, ""
}

func (m *Machine) clickRequired(ctx context.Context, field string) error {
	el, ok := m.res.WaitFor(ctx, field, m.cfg.StepTimeout)
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return required(m.sess.Step(), field)
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("клик по %s: %w", field, err)
	}
	m.log.Debug("Кнопка нажата", zap.String("field", field))
	return browser.Pause(ctx, m.cfg.StepDelay)
}

// waitLoaded ждёт конца сетевых запросов, если драйвер это умеет, затем
// пока body не потеряет класс page-loading (не дольше IssuanceWait)
func (m *Machine) waitLoaded(ctx context.Context) {
	if iw, ok := m.drv.(browser.IdleWaiter); ok {
		if err := iw.WaitIdle(ctx, m.cfg.IssuanceWait); err != nil {
			m.log.Debug("Сеть не успокоилась", zap.Error(err))
		}
	}
	err := m.drv.WaitUntil(ctx, m.cfg.IssuanceWait, func() bool {
		_, loading := m.loc.Present(ctx, m.drv, locator.FieldPageLoading)
		return !loading
	})
	if err != nil {
		m.log.Debug("Страница всё ещё загружается", zap.Error(err))
	}
}
