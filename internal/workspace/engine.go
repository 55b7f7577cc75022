package workspace

import (
	"context"
	"errors"
	"fmt"

	"emiteNota/internal/batch"
	"emiteNota/internal/browser"
	"emiteNota/internal/config"
	"emiteNota/internal/locator"
	"emiteNota/internal/notify"
	"emiteNota/internal/resolver"
	"emiteNota/internal/session"
	"emiteNota/internal/wizard"

	"go.uber.org/zap"
)

// Launcher: драйвер, который умеет сам запустить браузер
type Launcher interface {
	browser.Driver
	Launch(ctx context.Context) error
}

// NewDriver выбирает драйвер по BROWSER_DRIVER
func NewDriver(cfg *config.Cfg) (Launcher, error) {
	bc := browser.Config{
		Engine:       cfg.Browser.Engine,
		Headless:     cfg.Browser.Headless,
		BrowsersPath: cfg.Browser.BrowsersPath,
		Display:      cfg.Browser.Display,
	}
	switch cfg.Browser.Driver {
	case "", "playwright":
		return browser.New(bc), nil
	case "rod":
		return browser.NewRod(bc), nil
	default:
		return nil, fmt.Errorf("неизвестный драйвер браузера %q", cfg.Browser.Driver)
	}
}

// NewFactory собирает цепочку браузер → Session → Resolver → Machine → Runner.
// Результаты уходят в лог, в отметки рабочего места и, если задан NATS_URL, в NATS.
func NewFactory(cfg *config.Cfg, log *zap.Logger) Factory {
	return func(ctx context.Context, marks batch.Sink) (Engine, error) {
		table := locator.DefaultTable()
		if cfg.Selector.File != "" {
			t, err := locator.LoadTable(cfg.Selector.File, table)
			if err != nil {
				return Engine{}, err
			}
			table = t
			log.Info("Селекторы дополнены из файла", zap.String("file", cfg.Selector.File))
		}

		drv, err := NewDriver(cfg)
		if err != nil {
			return Engine{}, err
		}
		if err := drv.Launch(ctx); err != nil {
			return Engine{}, err
		}

		sinks := notify.Multi{notify.NewLogSink(log), marks}
		var nc *notify.NATSSink
		if cfg.NATS.URL != "" {
			nc, err = notify.NewNATSSink(notify.NATSConfig{URL: cfg.NATS.URL, Subject: cfg.NATS.Subject}, log)
			if err != nil {
				// партия идёт и без NATS
				log.Warn("NATS недоступен, результаты только в логе", zap.Error(err))
			} else {
				sinks = append(sinks, nc)
			}
		}

		sess := session.New(drv, locator.New(table, log), session.Config{
			URL:      cfg.WebISS.URL,
			Username: cfg.WebISS.Username,
			Password: cfg.WebISS.Password,
			Timeout:  cfg.Wizard.StepTimeout,
			LogsDir:  cfg.Paths.LogsDir,
		}, log)
		res := resolver.New(sess, resolver.Config{}, log)
		machine := wizard.New(sess, res, wizard.Config{
			StepTimeout:        cfg.Wizard.StepTimeout,
			StepDelay:          cfg.Wizard.StepDelay,
			AmbiguousAsSuccess: cfg.Wizard.AmbiguousAsSuccess,
			ServiceDescription: cfg.Wizard.ServiceDescription,
		}, log)

		runner := batch.New(sess, machine, sess, sinks, batch.Config{
			LoginRetries: cfg.WebISS.LoginRetries,
		}, log)

		return Engine{
			Runner: runner,
			Close: func() error {
				var errs []error
				if nc != nil {
					errs = append(errs, nc.Close())
				}
				errs = append(errs, sess.Close())
				return errors.Join(errs...)
			},
		}, nil
	}
}
