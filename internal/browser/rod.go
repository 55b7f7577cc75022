package browser

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodDriver: альтернативный драйвер на go-rod (Chrome через CDP)
type RodDriver struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	mu       sync.RWMutex
}

func NewRod(cfg Config) *RodDriver {
	base := New(cfg)
	return &RodDriver{cfg: base.cfg}
}

// rodJS оборачивает скрипт вида (el, arg) => ... для Element.Eval, где элемент приходит как this
func rodJS(script string) string {
	return "(arg) => (" + script + ")(this, arg)"
}

func (d *RodDriver) getPage() *rod.Page {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.page
}

func (d *RodDriver) Launch(ctx context.Context) error {
	l := launcher.New().
		Headless(d.cfg.Headless).
		NoSandbox(true)
	if d.cfg.Display != "" && !d.cfg.Headless {
		l = l.Env(append(os.Environ(), "DISPLAY="+d.cfg.Display)...)
	}

	url, err := l.Context(ctx).Launch()
	if err != nil {
		return fmt.Errorf("ошибка запуска браузера: %w", err)
	}

	br := rod.New().ControlURL(url)
	if err := br.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("ошибка подключения к браузеру: %w", err)
	}

	page, err := br.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = br.Close()
		l.Kill()
		return fmt.Errorf("ошибка создания страницы: %w", err)
	}

	d.mu.Lock()
	d.launcher = l
	d.browser = br
	d.page = page
	d.mu.Unlock()

	return nil
}

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}

	p := page.Context(ctx).Timeout(d.cfg.NavigateTimeout)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *RodDriver) FindAll(ctx context.Context, selector string) ([]Element, error) {
	page := d.getPage()
	if page == nil {
		return nil, ErrNotLaunched
	}
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}

	p := page.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	if xp, ok := SplitXPath(selector); ok {
		els, err = p.ElementsX(xp)
	} else {
		els, err = p.Elements(xp)
	}
	if err != nil {
		return nil, err
	}
	return wrapRod(els, d.cfg.ActionTimeout), nil
}

func (d *RodDriver) WaitUntil(ctx context.Context, timeout time.Duration, cond func() bool) error {
	return Poll(ctx, timeout, DefaultPollInterval, cond)
}

func (d *RodDriver) CurrentURL() string {
	page := d.getPage()
	if page == nil {
		return ""
	}
	info, err := page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (d *RodDriver) PageText(ctx context.Context) (string, error) {
	page := d.getPage()
	if page == nil {
		return "", ErrNotLaunched
	}
	html, err := page.Context(ctx).HTML()
	if err != nil {
		return "", err
	}
	return VisibleText(html)
}

func (d *RodDriver) Screenshot(ctx context.Context, path string) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}
	data, err := page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *RodDriver) ClearOverlays(ctx context.Context) error {
	page := d.getPage()
	if page == nil {
		return ErrNotLaunched
	}
	_, err := page.Context(ctx).Eval(jsClearOverlays)
	return err
}

func (d *RodDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	d.page = nil
	if d.launcher != nil {
		d.launcher.Cleanup()
		d.launcher = nil
	}
	return err
}

type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

func wrapRod(els rod.Elements, timeout time.Duration) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, timeout: timeout})
	}
	return out
}

func (e *rodElement) eval(script string, arg ...interface{}) (*proto.RuntimeRemoteObject, error) {
	if len(arg) == 0 {
		arg = []interface{}{nil}
	}
	return e.el.Timeout(e.timeout).Eval(rodJS(script), arg...)
}

func (e *rodElement) FindAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}
	el := e.el.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	if xp, ok := SplitXPath(selector); ok {
		els, err = el.ElementsX(xp)
	} else {
		els, err = el.Elements(xp)
	}
	if err != nil {
		return nil, err
	}
	return wrapRod(els, e.timeout), nil
}

func (e *rodElement) IsDisplayed() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) IsEnabled() (bool, error) {
	res, err := e.eval(jsEnabled)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *rodElement) Value() (string, error) {
	res, err := e.eval(jsValue)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *rodElement) SetValue(value string) error {
	if _, err := e.eval(jsSetValue, value); err != nil {
		return fmt.Errorf("ошибка установки значения: %w", err)
	}
	return nil
}

func (e *rodElement) Click() error {
	if _, err := e.eval(jsClick); err == nil {
		return nil
	}
	if err := e.el.Timeout(e.timeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("ошибка клика: %w", err)
	}
	return nil
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Enable() error {
	_, err := e.eval(jsEnable)
	return err
}

func (e *rodElement) Options() ([]Option, error) {
	res, err := e.eval(jsOptions)
	if err != nil {
		return nil, err
	}
	return decodeOptions(res.Value.Str())
}
