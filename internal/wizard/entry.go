package wizard

import (
	"context"
	"fmt"

	"emiteNota/internal/browser"
	"emiteNota/internal/locator"

	"go.uber.org/zap"
)

// EnterFresh открывает новый документ через полное меню: ISSQN → NFS-e → Criar → Próximo
func (m *Machine) EnterFresh(ctx context.Context) error {
	m.log.Debug("Вход через меню")
	for _, field := range []string{locator.FieldMenuISSQN, locator.FieldMenuNFSe, locator.FieldMenuCreate} {
		if err := m.clickField(ctx, field); err != nil {
			return &StepAdvanceError{From: m.sess.Step(), Action: field, Err: err}
		}
	}
	_, err := m.advance(ctx)
	return err
}

// EnterContinuation использует форму Tomador, подготовленную PrepareNext. Если формы нет
// (предыдущая запись прервалась на середине), открывает документ через "Criar",
// а при отсутствии пункта меню проходит меню целиком.
func (m *Machine) EnterContinuation(ctx context.Context) (bool, error) {
	if _, ok := m.loc.Resolve(ctx, m.drv, locator.FieldTaxpayerID); ok && m.sess.Step() != StepPayer {
		m.log.Debug("Форма Tomador уже открыта")
		return true, nil
	}

	if err := m.openViaCreate(ctx); err != nil {
		return false, err
	}
	return false, nil
}

// PrepareNext после эмиссии сбрасывает мастер на новый документ для следующей записи
func (m *Machine) PrepareNext(ctx context.Context) error {
	m.log.Info("Подготовка следующего документа")
	if err := browser.Pause(ctx, m.cfg.StepDelay); err != nil {
		return err
	}
	if err := m.openViaCreate(ctx); err != nil {
		return err
	}
	m.sess.SetStep(StepNone)
	return nil
}

func (m *Machine) openViaCreate(ctx context.Context) error {
	if err := m.clickField(ctx, locator.FieldMenuCreate); err != nil {
		m.log.Warn("Пункт Criar не найден, полный проход по меню", zap.Error(err))
		return m.EnterFresh(ctx)
	}
	_, err := m.advance(ctx)
	return err
}

// advance нажимает "Próximo" и подтверждает модальное окно competência, если оно появилось
func (m *Machine) advance(ctx context.Context) (bool, error) {
	from := m.sess.Step()
	m.clearOverlays(ctx)

	next, ok := m.res.WaitFor(ctx, locator.FieldNext, m.cfg.StepTimeout)
	if !ok {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		return false, &StepAdvanceError{
			From:   from,
			Action: locator.FieldNext,
			Err:    fmt.Errorf("%w: %s", locator.ErrElementUnresolved, locator.FieldNext),
		}
	}
	if err := next.Click(); err != nil {
		return false, &StepAdvanceError{From: from, Action: locator.FieldNext, Err: err}
	}
	if err := browser.Pause(ctx, m.cfg.StepDelay); err != nil {
		return false, err
	}

	confirmed := m.confirmModal(ctx)
	m.log.Debug("Переход выполнен", zap.String("from", from.String()), zap.Bool("modal", confirmed))
	return confirmed, nil
}

func (m *Machine) confirmModal(ctx context.Context) bool {
	yes, ok := m.loc.Resolve(ctx, m.drv, locator.FieldConfirmModal)
	if !ok {
		return false
	}
	if err := yes.Click(); err != nil {
		m.log.Warn("Не удалось подтвердить модальное окно", zap.Error(err))
		return false
	}
	m.log.Info("Модальное окно подтверждено")
	_ = browser.Pause(ctx, m.cfg.StepDelay)
	return true
}

// clickField ждёт поле до StepTimeout и кликает по нему
func (m *Machine) clickField(ctx context.Context, field string) error {
	el, ok := m.res.WaitFor(ctx, field, m.cfg.StepTimeout)
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", locator.ErrElementUnresolved, field)
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("клик по %s: %w", field, err)
	}
	return browser.Pause(ctx, m.cfg.StepDelay)
}
