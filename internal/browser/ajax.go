package browser

import (
	"context"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// IdleWaiter: необязательная возможность драйвера дождаться конца AJAX-запросов
// после клика (WebISS перерисовывает части мастера ответами сервера)
type IdleWaiter interface {
	WaitIdle(ctx context.Context, timeout time.Duration) error
}

func loadState(state string) *playwright.LoadState {
	switch strings.ToLower(state) {
	case "domcontentloaded":
		return playwright.LoadStateDomcontentloaded
	case "networkidle":
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateLoad
	}
}

func (d *PlaywrightDriver) WaitIdle(ctx context.Context, timeout time.Duration) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}
	if timeout == 0 {
		timeout = d.cfg.Timeout
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState("networkidle"),
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (d *RodDriver) WaitIdle(ctx context.Context, timeout time.Duration) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}
	if timeout == 0 {
		timeout = d.cfg.Timeout
	}
	return page.Context(ctx).Timeout(timeout).WaitLoad()
}
