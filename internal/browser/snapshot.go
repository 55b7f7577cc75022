package browser

import "context"

// HTMLSnapshotter: необязательная возможность драйвера отдать разметку страницы
// целиком; сохраняется рядом со снимком экрана упавшей записи
type HTMLSnapshotter interface {
	HTML(ctx context.Context) (string, error)
}

func (d *PlaywrightDriver) HTML(ctx context.Context) (string, error) {
	page := d.getPage()
	if page == nil {
		return "", ErrNotLaunched
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return page.Content()
}

func (d *RodDriver) HTML(ctx context.Context) (string, error) {
	page := d.getPage()
	if page == nil {
		return "", ErrNotLaunched
	}
	return page.Context(ctx).HTML()
}
