package resolver

import (
	"context"
	"strings"

	"emiteNota/internal/browser"
	"emiteNota/internal/locator"

	"go.uber.org/zap"
)

// ResolveRegistration подбирает inscrição municipal, выбор которой заполняет CEP,
// равный target. Сначала простой <select>, и только если его нет: select2.
// Берётся первый подходящий вариант: при одинаковом CEP у нескольких inscrições
// результат зависит от порядка вариантов на странице.
func (r *Resolver) ResolveRegistration(ctx context.Context, target string) error {
	if target == "" {
		return exhausted("CEP не задан")
	}

	if sel, ok := r.loc.Present(ctx, r.drv, locator.FieldRegistrationSelect); ok {
		return r.searchSelect(ctx, sel, target)
	}

	if widget, ok := r.loc.Resolve(ctx, r.drv, locator.FieldRegistrationWidget); ok {
		return r.searchWidget(ctx, widget, target)
	}

	return ErrNoDependentControl
}

func (r *Resolver) searchSelect(ctx context.Context, sel browser.Element, target string) error {
	log := r.log.With(zap.String("field", locator.FieldRegistrationSelect))

	if enabled, err := sel.IsEnabled(); err == nil && !enabled {
		log.Debug("Список заблокирован, снимаем disabled")
		if err := sel.Enable(); err != nil {
			log.Warn("Не удалось разблокировать список", zap.Error(err))
		}
	}

	opts := r.waitOptions(ctx, sel)
	if len(opts) == 0 {
		log.Debug("Вариантов нет, открываем список вручную")
		if err := sel.Click(); err != nil {
			log.Debug("Ошибка открытия списка", zap.Error(err))
		}
		if err := browser.Pause(ctx, r.cfg.OpenDelay); err != nil {
			return err
		}
		raw, err := sel.Options()
		if err == nil {
			opts = realOptions(raw)
		}
	}
	if len(opts) == 0 {
		return exhausted("список вариантов пуст")
	}

	log.Debug("Перебор вариантов", zap.Int("options", len(opts)), zap.String("cep", target))

	for _, opt := range opts {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := sel.SetValue(opt.Value); err != nil {
			log.Debug("Ошибка выбора варианта", zap.String("option", opt.Label), zap.Error(err))
			continue
		}
		if err := browser.Pause(ctx, r.cfg.AutofillDelay); err != nil {
			return err
		}

		got := r.readPostalCode(ctx)
		log.Debug("CEP после выбора", zap.String("option", opt.Label), zap.String("cep", got))
		if got == target {
			log.Info("Inscrição найдена", zap.String("option", opt.Label), zap.String("cep", target))
			return nil
		}
	}

	return exhausted("проверено вариантов: %d", len(opts))
}

// searchWidget: вариант страницы с select2: список открывается заново перед каждым кандидатом
func (r *Resolver) searchWidget(ctx context.Context, container browser.Element, target string) error {
	log := r.log.With(zap.String("field", locator.FieldRegistrationWidget))
	defer r.clearOverlays(ctx)

	items, ok := r.openWidget(ctx, container, 0)
	if !ok {
		return exhausted("не удалось открыть select2")
	}

	total := len(items)
	log.Debug("Перебор вариантов select2", zap.Int("options", total), zap.String("cep", target))

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i > 0 {
			items, ok = r.openWidget(ctx, container, i)
			if !ok {
				log.Debug("Список select2 сократился", zap.Int("index", i))
				break
			}
		}

		item := items[i]
		label, _ := item.Text()
		label = strings.TrimSpace(label)
		if err := item.Click(); err != nil {
			log.Debug("Ошибка выбора варианта", zap.String("option", label), zap.Error(err))
			continue
		}
		if err := browser.Pause(ctx, r.cfg.AutofillDelay); err != nil {
			return err
		}

		got := r.readPostalCode(ctx)
		log.Debug("CEP после выбора", zap.String("option", label), zap.String("cep", got))
		if got == target {
			log.Info("Inscrição найдена", zap.String("option", label), zap.String("cep", target))
			return nil
		}
	}

	return exhausted("проверено вариантов select2: %d", total)
}

// openWidget открывает select2 и ждёт, пока в выпадающем списке будет больше index вариантов
func (r *Resolver) openWidget(ctx context.Context, container browser.Element, index int) ([]browser.Element, bool) {
	choice, ok := r.loc.Resolve(ctx, container, locator.FieldWidgetChoice)
	if !ok {
		return nil, false
	}
	if err := choice.Click(); err != nil {
		return nil, false
	}

	var items []browser.Element
	err := browser.Poll(ctx, r.cfg.OptionsTimeout, r.cfg.PollInterval, func() bool {
		items = r.loc.All(ctx, r.drv, locator.FieldWidgetOption)
		return len(items) > index
	})
	return items, err == nil
}

// waitOptions ждёт хотя бы один настоящий вариант (кроме заглушки и пустых значений)
func (r *Resolver) waitOptions(ctx context.Context, sel browser.Element) []browser.Option {
	var opts []browser.Option
	_ = browser.Poll(ctx, r.cfg.OptionsTimeout, r.cfg.PollInterval, func() bool {
		raw, err := sel.Options()
		if err != nil {
			return false
		}
		opts = realOptions(raw)
		return len(opts) > 0
	})
	return opts
}

// realOptions отбрасывает заглушку "Selecione" и варианты с пустым/служебным значением
func realOptions(opts []browser.Option) []browser.Option {
	out := make([]browser.Option, 0, len(opts))
	for _, o := range opts {
		if o.Disabled || o.Value == "" || o.Value == "-1" {
			continue
		}
		if o.Index == 0 && isPlaceholder(o.Label) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func isPlaceholder(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	return l == "" || strings.HasPrefix(l, "selecione") || strings.HasPrefix(l, "--")
}
