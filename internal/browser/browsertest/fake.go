// Package browsertest содержит управляемые подделки Driver/Element для тестов
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"emiteNota/internal/browser"
)

// Element: узел страницы со сценарием поведения
type Element struct {
	Name      string
	Displayed bool
	Enabled   bool
	Val       string
	Attrs     map[string]string
	Content   string
	Opts      []browser.Option
	Children  map[string][]*Element

	// Accept преобразует записываемое значение (имитация маски поля)
	Accept func(v string) string
	// OnSet вызывается после записи значения
	OnSet func(v string)
	// OnClick вызывается при клике; ошибка возвращается вызывающему
	OnClick  func() error
	SetErr   error
	DispErr  error
	Writes   []string
	Clicks   int
	Enables  int
	ReadOpts int
}

func NewElement(name string) *Element {
	return &Element{
		Name:      name,
		Displayed: true,
		Enabled:   true,
		Attrs:     map[string]string{},
		Children:  map[string][]*Element{},
	}
}

// Hidden помечает элемент невидимым
func (e *Element) Hidden() *Element {
	e.Displayed = false
	return e
}

// Disabled помечает элемент заблокированным
func (e *Element) Disabled() *Element {
	e.Enabled = false
	return e
}

func (e *Element) FindAll(_ context.Context, selector string) ([]browser.Element, error) {
	return toElements(e.Children[selector]), nil
}

func (e *Element) IsDisplayed() (bool, error) {
	if e.DispErr != nil {
		return false, e.DispErr
	}
	return e.Displayed, nil
}

func (e *Element) IsEnabled() (bool, error) { return e.Enabled, nil }

func (e *Element) Value() (string, error) { return e.Val, nil }

func (e *Element) SetValue(v string) error {
	if e.SetErr != nil {
		return e.SetErr
	}
	e.Writes = append(e.Writes, v)
	if e.Accept != nil {
		v = e.Accept(v)
	}
	e.Val = v
	if e.OnSet != nil {
		e.OnSet(v)
	}
	return nil
}

func (e *Element) Click() error {
	e.Clicks++
	if e.OnClick != nil {
		return e.OnClick()
	}
	return nil
}

func (e *Element) Attribute(name string) (string, error) { return e.Attrs[name], nil }

func (e *Element) Text() (string, error) { return e.Content, nil }

func (e *Element) Enable() error {
	e.Enables++
	e.Enabled = true
	return nil
}

func (e *Element) Options() ([]browser.Option, error) {
	e.ReadOpts++
	out := make([]browser.Option, len(e.Opts))
	copy(out, e.Opts)
	return out, nil
}

// SetOptions заполняет список вариантов; первый: заглушка "Selecione"
func (e *Element) SetOptions(values ...string) *Element {
	e.Opts = []browser.Option{{Index: 0, Value: "", Label: "Selecione"}}
	for i, v := range values {
		e.Opts = append(e.Opts, browser.Option{Index: i + 1, Value: v, Label: v})
	}
	return e
}

// Driver: страница, описанная таблицей селектор → элементы
type Driver struct {
	mu          sync.Mutex
	elements    map[string][]*Element
	Queries     []string
	URL         string
	Text        string
	Markup      string
	Navigated   []string
	Screenshots []string
	Overlays    int
	Idles       int
	Closed      bool
	NavErr      error
	TextErr     error

	// OnNavigate позволяет сценарию менять страницу после перехода
	OnNavigate func(url string)
}

func NewDriver() *Driver {
	return &Driver{elements: map[string][]*Element{}}
}

// Put регистрирует элементы под селектором (заменяя прежние)
func (d *Driver) Put(selector string, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[selector] = els
}

// Remove убирает селектор со страницы
func (d *Driver) Remove(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, selector)
}

// Queried сообщает, запрашивался ли селектор
func (d *Driver) Queried(selector string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, q := range d.Queries {
		if q == selector {
			return true
		}
	}
	return false
}

func (d *Driver) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Queries = append(d.Queries, selector)
	return toElements(d.elements[selector]), nil
}

func (d *Driver) Navigate(_ context.Context, url string) error {
	if d.NavErr != nil {
		return d.NavErr
	}
	d.Navigated = append(d.Navigated, url)
	d.URL = url
	if d.OnNavigate != nil {
		d.OnNavigate(url)
	}
	return nil
}

func (d *Driver) WaitUntil(ctx context.Context, timeout time.Duration, cond func() bool) error {
	return browser.Poll(ctx, timeout, time.Millisecond, cond)
}

func (d *Driver) CurrentURL() string { return d.URL }

func (d *Driver) PageText(context.Context) (string, error) {
	if d.TextErr != nil {
		return "", d.TextErr
	}
	return d.Text, nil
}

func (d *Driver) HTML(context.Context) (string, error) {
	return d.Markup, nil
}

func (d *Driver) Screenshot(_ context.Context, path string) error {
	if d.Closed {
		return errors.New("драйвер закрыт")
	}
	d.Screenshots = append(d.Screenshots, path)
	return nil
}

func (d *Driver) ClearOverlays(context.Context) error {
	d.Overlays++
	return nil
}

func (d *Driver) WaitIdle(ctx context.Context, _ time.Duration) error {
	d.Idles++
	return ctx.Err()
}

func (d *Driver) Close() error {
	d.Closed = true
	return nil
}

func toElements(els []*Element) []browser.Element {
	out := make([]browser.Element, 0, len(els))
	for _, e := range els {
		out = append(out, e)
	}
	return out
}
