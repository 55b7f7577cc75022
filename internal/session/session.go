package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"emiteNota/internal/browser"
	"emiteNota/internal/locator"
	"emiteNota/internal/sanitizer"

	"go.uber.org/zap"
)

// Фрагменты адреса, по которым понятно, что вход выполнен
var DefaultSuccessFragments = []string{
	"dashboard", "home", "main", "welcome", "painel", "menu", "inicio",
}

type Config struct {
	URL              string
	Username         string
	Password         string
	Timeout          time.Duration
	LogsDir          string
	SuccessFragments []string
}

// Session: единственный владелец драйвера на время партии (FormSession)
type Session struct {
	driver browser.Driver
	loc    *locator.Locator
	cfg    Config
	log    *zap.Logger
	san    *sanitizer.DataSanitizer

	mu       sync.RWMutex
	loggedIn bool
	step     Step
}

func New(driver browser.Driver, loc *locator.Locator, cfg Config, log *zap.Logger) *Session {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if len(cfg.SuccessFragments) == 0 {
		cfg.SuccessFragments = DefaultSuccessFragments
	}
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = locator.New(nil, log)
	}

	return &Session{
		driver: driver,
		loc:    loc,
		cfg:    cfg,
		log:    log,
		san:    sanitizer.New(),
	}
}

func (s *Session) Driver() browser.Driver {
	return s.driver
}

func (s *Session) Locator() *locator.Locator {
	return s.loc
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

func (s *Session) Step() Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

func (s *Session) SetStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

// Login выполняет вход. Повторный вызов после успешного входа ничего не делает.
func (s *Session) Login(ctx context.Context) error {
	if s.LoggedIn() {
		return nil
	}

	if err := validateURL(s.cfg.URL); err != nil {
		return &AuthError{Kind: AuthInvalidURL, Err: err}
	}

	s.log.Info("Вход в WebISS", zap.String("url", s.cfg.URL))

	if err := s.driver.Navigate(ctx, s.cfg.URL); err != nil {
		return &AuthError{Kind: AuthNavigation, Err: err}
	}

	fields := []struct {
		name  string
		value string
	}{
		{locator.FieldUsername, s.cfg.Username},
		{locator.FieldPassword, s.cfg.Password},
	}
	for _, f := range fields {
		el, err := s.loc.Require(ctx, s.driver, f.name)
		if err != nil {
			return &AuthError{Kind: AuthElementNotFound, Field: f.name, Err: err}
		}
		if err := el.SetValue(f.value); err != nil {
			return &AuthError{Kind: AuthElementNotFound, Field: f.name, Err: err}
		}
	}

	submit, err := s.loc.Require(ctx, s.driver, locator.FieldLoginSubmit)
	if err != nil {
		return &AuthError{Kind: AuthElementNotFound, Field: locator.FieldLoginSubmit, Err: err}
	}
	if err := submit.Click(); err != nil {
		return &AuthError{Kind: AuthElementNotFound, Field: locator.FieldLoginSubmit, Err: err}
	}

	var pageErr string
	err = s.driver.WaitUntil(ctx, s.cfg.Timeout, func() bool {
		if s.successSignal() {
			return true
		}
		pageErr = s.scanError(ctx)
		return pageErr != ""
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &AuthError{Kind: AuthTimeout, PageError: s.scanError(ctx), Err: err}
	}
	if pageErr != "" && !s.successSignal() {
		return &AuthError{Kind: AuthRejected, PageError: pageErr}
	}

	s.mu.Lock()
	s.loggedIn = true
	s.step = StepNone
	s.mu.Unlock()

	s.log.Info("Вход выполнен", zap.String("url", s.driver.CurrentURL()))
	return nil
}

// successSignal проверяет путь текущего адреса по списку фрагментов (без учёта регистра)
func (s *Session) successSignal() bool {
	current := s.driver.CurrentURL()
	u, err := url.Parse(current)
	if err != nil {
		return false
	}
	route := strings.ToLower(u.Path + "?" + u.RawQuery + "#" + u.Fragment)
	for _, frag := range s.cfg.SuccessFragments {
		if strings.Contains(route, strings.ToLower(frag)) {
			return true
		}
	}
	return false
}

// scanError: best-effort поиск текста ошибки на странице входа
func (s *Session) scanError(ctx context.Context) string {
	el, ok := s.loc.Resolve(ctx, s.driver, locator.FieldLoginError)
	if !ok {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return s.san.Sanitize(strings.Join(strings.Fields(text), " "))
}

// Screenshot сохраняет снимок страницы в каталог логов и возвращает путь
func (s *Session) Screenshot(ctx context.Context, name string) (string, error) {
	dir := s.cfg.LogsDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if filepath.Ext(name) == "" {
		name += ".png"
	}
	path := filepath.Join(dir, name)
	if err := s.driver.Screenshot(ctx, path); err != nil {
		return "", fmt.Errorf("ошибка снимка экрана: %w", err)
	}
	s.saveHTML(ctx, strings.TrimSuffix(path, filepath.Ext(path))+".html")
	return path, nil
}

// saveHTML кладёт разметку страницы рядом со снимком, если драйвер её отдаёт
func (s *Session) saveHTML(ctx context.Context, path string) {
	snap, ok := s.driver.(browser.HTMLSnapshotter)
	if !ok {
		return
	}
	html, err := snap.HTML(ctx)
	if err == nil {
		err = os.WriteFile(path, []byte(html), 0o644)
	}
	if err != nil {
		s.log.Debug("Разметка страницы не сохранена", zap.String("path", path), zap.Error(err))
	}
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.loggedIn = false
	s.step = StepNone
	s.mu.Unlock()
	return s.driver.Close()
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("адрес не задан")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("неверный адрес: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("неподдерживаемая схема адреса: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("в адресе нет хоста")
	}
	return nil
}
