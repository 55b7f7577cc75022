package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// pwElement: Element поверх playwright.ElementHandle
type pwElement struct {
	handle  playwright.ElementHandle
	timeout time.Duration
}

func wrapHandles(handles []playwright.ElementHandle, timeout time.Duration) []Element {
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		if h == nil {
			continue
		}
		out = append(out, &pwElement{handle: h, timeout: timeout})
	}
	return out
}

func (e *pwElement) FindAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}
	handles, err := e.handle.QuerySelectorAll(NormalizeSelector(selector))
	if err != nil {
		return nil, err
	}
	return wrapHandles(handles, e.timeout), nil
}

func (e *pwElement) IsDisplayed() (bool, error) {
	return e.handle.IsVisible()
}

func (e *pwElement) IsEnabled() (bool, error) {
	v, err := e.handle.Evaluate(jsEnabled)
	if err != nil {
		return false, err
	}
	enabled, _ := v.(bool)
	return enabled, nil
}

func (e *pwElement) Value() (string, error) {
	v, err := e.handle.Evaluate(jsValue)
	if err != nil {
		return "", err
	}
	return asString(v), nil
}

func (e *pwElement) SetValue(value string) error {
	if _, err := e.handle.Evaluate(jsSetValue, value); err != nil {
		return fmt.Errorf("ошибка установки значения: %w", err)
	}
	return nil
}

// Click: сначала скриптовый клик (не перехватывается оверлеями),
// затем нативный, затем нативный с force
func (e *pwElement) Click() error {
	if _, err := e.handle.Evaluate(jsClick); err == nil {
		return nil
	}

	timeout := playwright.Float(float64(e.timeout.Milliseconds()))
	err := e.handle.Click(playwright.ElementHandleClickOptions{Timeout: timeout})
	if err == nil {
		return nil
	}

	if errForce := e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: timeout,
		Force:   playwright.Bool(true),
	}); errForce != nil {
		return fmt.Errorf("ошибка клика: %w", err)
	}
	return nil
}

func (e *pwElement) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *pwElement) Text() (string, error) {
	return e.handle.TextContent()
}

func (e *pwElement) Enable() error {
	_, err := e.handle.Evaluate(jsEnable)
	return err
}

func (e *pwElement) Options() ([]Option, error) {
	v, err := e.handle.Evaluate(jsOptions)
	if err != nil {
		return nil, err
	}
	return decodeOptions(asString(v))
}
