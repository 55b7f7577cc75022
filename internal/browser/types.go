package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	ErrNotLaunched = errors.New("браузер не запущен")
	ErrTimeout     = errors.New("время ожидания истекло")
)

// Finder ищет все узлы, подходящие под селектор (CSS или xpath=...)
type Finder interface {
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

// Element: узел страницы, с которым работает ядро
type Element interface {
	Finder
	IsDisplayed() (bool, error)
	IsEnabled() (bool, error)
	Value() (string, error)
	// SetValue присваивает value и генерирует события input/change
	SetValue(value string) error
	// Click делает скриптовый клик, при ошибке: нативный (ограниченное число попыток)
	Click() error
	Attribute(name string) (string, error)
	Text() (string, error)
	// Enable снимает атрибут disabled
	Enable() error
	// Options возвращает варианты <select> в порядке документа
	Options() ([]Option, error)
}

// Driver: поверхность браузерного драйвера, которую потребляет ядро
type Driver interface {
	Finder
	Navigate(ctx context.Context, url string) error
	WaitUntil(ctx context.Context, timeout time.Duration, cond func() bool) error
	CurrentURL() string
	PageText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// OverlayCleaner: необязательная возможность драйвера убрать маски и подложки модалок
type OverlayCleaner interface {
	ClearOverlays(ctx context.Context) error
}

type Option struct {
	Index    int    `json:"index"`
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

type Config struct {
	Engine          string // firefox | chromium | webkit
	Headless        bool
	BrowsersPath    string
	Display         string
	Timeout         time.Duration
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
}

type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	cfg     Config
	mu      sync.RWMutex
}
