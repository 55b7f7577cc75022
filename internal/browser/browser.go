package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"
)

func New(cfg Config) *PlaywrightDriver {
	// Установка дефолтных таймаутов
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 60 * time.Second // Navigate обычно дольше
	}
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = 10 * time.Second // Click/Fill обычно быстрые
	}
	if cfg.Engine == "" {
		cfg.Engine = "firefox"
	}

	return &PlaywrightDriver{
		cfg: cfg,
	}
}

// getPage безопасно возвращает текущую страницу с read lock
func (d *PlaywrightDriver) getPage() playwright.Page {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.page
}

func (d *PlaywrightDriver) getEnvMap() map[string]string {
	if d.cfg.Display != "" && !d.cfg.Headless {
		return map[string]string{
			"DISPLAY": d.cfg.Display,
		}
	}
	return nil
}

func (d *PlaywrightDriver) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch d.cfg.Engine {
	case "firefox":
		return pw.Firefox, nil
	case "chromium", "chrome":
		return pw.Chromium, nil
	case "webkit":
		return pw.WebKit, nil
	default:
		return nil, fmt.Errorf("неизвестный движок браузера: %s", d.cfg.Engine)
	}
}

func (d *PlaywrightDriver) Launch(ctx context.Context) error {
	if d.cfg.BrowsersPath != "" {
		_ = os.Setenv("PLAYWRIGHT_BROWSERS_PATH", d.cfg.BrowsersPath)
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("ошибка запуска playwright: %w", err)
	}

	bt, err := d.browserType(pw)
	if err != nil {
		_ = pw.Stop()
		return err
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Headless),
	}
	if env := d.getEnvMap(); env != nil {
		opts.Env = env
	}

	br, err := bt.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("ошибка запуска браузера: %w", err)
	}

	page, err := br.NewPage()
	if err != nil {
		_ = br.Close()
		_ = pw.Stop()
		return fmt.Errorf("ошибка создания страницы: %w", err)
	}
	page.SetDefaultTimeout(float64(d.cfg.Timeout.Milliseconds()))

	d.mu.Lock()
	d.pw = pw
	d.browser = br
	d.page = page
	d.mu.Unlock()

	return nil
}

func (d *PlaywrightDriver) Navigate(ctx context.Context, url string) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}

	// Создаем context с timeout для navigate операции
	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavigateTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   playwright.Float(float64(d.cfg.NavigateTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("таймаут навигации после %v: %w", d.cfg.NavigateTimeout, ErrTimeout)
	case err := <-errChan:
		return err
	}
}

func (d *PlaywrightDriver) FindAll(ctx context.Context, selector string) ([]Element, error) {
	page := d.getPage()
	if page == nil {
		return nil, ErrNotLaunched
	}
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}

	handles, err := page.QuerySelectorAll(NormalizeSelector(selector))
	if err != nil {
		return nil, err
	}
	return wrapHandles(handles, d.cfg.ActionTimeout), nil
}

func (d *PlaywrightDriver) WaitUntil(ctx context.Context, timeout time.Duration, cond func() bool) error {
	return Poll(ctx, timeout, DefaultPollInterval, cond)
}

func (d *PlaywrightDriver) CurrentURL() string {
	page := d.getPage()
	if page == nil {
		return ""
	}
	return page.URL()
}

func (d *PlaywrightDriver) PageText(ctx context.Context) (string, error) {
	page := d.getPage()
	if page == nil {
		return "", ErrNotLaunched
	}

	content, err := page.Content()
	if err != nil {
		return "", err
	}
	return VisibleText(content)
}

func (d *PlaywrightDriver) Screenshot(ctx context.Context, path string) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (d *PlaywrightDriver) ClearOverlays(ctx context.Context) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}
	_, err := page.Evaluate(jsClearOverlays)
	return err
}

func (d *PlaywrightDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			return err
		}
		d.browser = nil
	}
	d.page = nil
	if d.pw != nil {
		err := d.pw.Stop()
		d.pw = nil
		return err
	}
	return nil
}
