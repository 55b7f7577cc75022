package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"emiteNota/internal/browser"
	"emiteNota/internal/locator"
	"emiteNota/internal/sanitizer"
	"emiteNota/internal/session"

	"go.uber.org/zap"
)

var (
	// ErrSearchExhausted: ни один вариант зависимого списка не дал нужный CEP
	ErrSearchExhausted = errors.New("перебор вариантов не дал совпадения CEP")
	// ErrNoDependentControl: на странице нет ни простого списка, ни select2
	ErrNoDependentControl = errors.New("поле inscrição отсутствует")
)

type Config struct {
	OptionsTimeout time.Duration // ожидание вариантов зависимого списка
	PollInterval   time.Duration
	AutofillDelay  time.Duration // реакция страницы на выбор варианта
	OpenDelay      time.Duration // после явного открытия списка
}

// Resolver заполняет логические поля формы через Locator и Session
type Resolver struct {
	drv browser.Driver
	loc *locator.Locator
	cfg Config
	log *zap.Logger
	san *sanitizer.DataSanitizer
}

func New(sess *session.Session, cfg Config, log *zap.Logger) *Resolver {
	if cfg.OptionsTimeout == 0 {
		cfg.OptionsTimeout = 10 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = browser.DefaultPollInterval
	}
	if cfg.AutofillDelay == 0 {
		cfg.AutofillDelay = 1500 * time.Millisecond
	}
	if cfg.OpenDelay == 0 {
		cfg.OpenDelay = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Resolver{
		drv: sess.Driver(),
		loc: sess.Locator(),
		cfg: cfg,
		log: log,
		san: sanitizer.New(),
	}
}

// Fill записывает значение в поле. false: поле не найдено, значение пустое
// или запись не удалась; решает вызывающий.
func (r *Resolver) Fill(ctx context.Context, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		r.log.Warn("Пустое значение, поле пропущено", zap.String("field", field))
		return false
	}

	el, ok := r.loc.Resolve(ctx, r.drv, field)
	if !ok {
		r.log.Warn("Поле не найдено", zap.String("field", field))
		return false
	}

	if err := el.SetValue(value); err != nil {
		r.log.Warn("Ошибка заполнения поля", zap.String("field", field), zap.Error(err))
		return false
	}

	r.log.Debug("Поле заполнено",
		zap.String("field", field),
		zap.String("value", r.san.SanitizeValue(field, value)),
	)
	return true
}

// Read возвращает текущее значение поля
func (r *Resolver) Read(ctx context.Context, field string) (string, bool) {
	el, ok := r.loc.Resolve(ctx, r.drv, field)
	if !ok {
		return "", false
	}
	v, err := el.Value()
	if err != nil {
		return "", false
	}
	return v, true
}

// WaitFor ждёт, пока поле станет видимым и доступным
func (r *Resolver) WaitFor(ctx context.Context, field string, timeout time.Duration) (browser.Element, bool) {
	var el browser.Element
	err := browser.Poll(ctx, timeout, r.cfg.PollInterval, func() bool {
		found, ok := r.loc.Resolve(ctx, r.drv, field)
		el = found
		return ok
	})
	return el, err == nil
}

// WaitPresent ждёт появления поля в документе (видимость не требуется)
func (r *Resolver) WaitPresent(ctx context.Context, field string, timeout time.Duration) (browser.Element, bool) {
	var el browser.Element
	err := browser.Poll(ctx, timeout, r.cfg.PollInterval, func() bool {
		found, ok := r.loc.Present(ctx, r.drv, field)
		el = found
		return ok
	})
	return el, err == nil
}

// SelectOption выбирает вариант списка по значению или по тексту (без учёта регистра).
// choices перебираются по порядку.
func (r *Resolver) SelectOption(ctx context.Context, field string, choices ...string) bool {
	el, ok := r.loc.Resolve(ctx, r.drv, field)
	if !ok {
		r.log.Warn("Список не найден", zap.String("field", field))
		return false
	}

	opts, err := el.Options()
	if err != nil {
		r.log.Warn("Ошибка чтения вариантов", zap.String("field", field), zap.Error(err))
		return false
	}

	for _, choice := range choices {
		for _, opt := range opts {
			if opt.Value == choice || strings.EqualFold(opt.Label, choice) {
				if err := el.SetValue(opt.Value); err != nil {
					r.log.Warn("Ошибка выбора варианта", zap.String("field", field), zap.Error(err))
					return false
				}
				r.log.Debug("Вариант выбран", zap.String("field", field), zap.String("option", opt.Label))
				return true
			}
		}
	}

	r.log.Warn("Вариант не найден", zap.String("field", field), zap.Strings("choices", choices))
	return false
}

// SelectByOffset выбирает вариант с индексом n от начала списка (0: заглушка "Selecione").
// Варианты могут подгружаться асинхронно, поэтому ждём до OptionsTimeout.
func (r *Resolver) SelectByOffset(ctx context.Context, field string, n int) bool {
	el, ok := r.loc.Resolve(ctx, r.drv, field)
	if !ok {
		r.log.Warn("Список не найден", zap.String("field", field))
		return false
	}

	var opts []browser.Option
	err := browser.Poll(ctx, r.cfg.OptionsTimeout, r.cfg.PollInterval, func() bool {
		o, err := el.Options()
		if err != nil {
			return false
		}
		opts = o
		return len(opts) > n
	})
	if err != nil {
		r.log.Warn("Недостаточно вариантов в списке",
			zap.String("field", field),
			zap.Int("offset", n),
			zap.Int("options", len(opts)),
		)
		return false
	}

	if err := el.SetValue(opts[n].Value); err != nil {
		r.log.Warn("Ошибка выбора варианта", zap.String("field", field), zap.Error(err))
		return false
	}

	r.log.Debug("Вариант выбран по позиции",
		zap.String("field", field),
		zap.Int("offset", n),
		zap.String("option", opts[n].Label),
	)
	return true
}

// FillPostalCode пишет CEP в простое поле (вариант страницы без зависимого списка)
func (r *Resolver) FillPostalCode(ctx context.Context, cep string) bool {
	return r.Fill(ctx, locator.FieldPostalCode, cep)
}

// readPostalCode перечитывает известные поля CEP и возвращает первое непустое значение
func (r *Resolver) readPostalCode(ctx context.Context) string {
	for _, el := range r.loc.Visible(ctx, r.drv, locator.FieldPostalCode) {
		v, err := el.Value()
		if err != nil {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (r *Resolver) clearOverlays(ctx context.Context) {
	if cleaner, ok := r.drv.(browser.OverlayCleaner); ok {
		if err := cleaner.ClearOverlays(ctx); err != nil {
			r.log.Debug("Ошибка очистки оверлеев", zap.Error(err))
		}
	}
}

func exhausted(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSearchExhausted, fmt.Sprintf(format, args...))
}
