package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"emiteNota/internal/browser/browsertest"
	"emiteNota/internal/locator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	userSel   = "input[type='text']"
	passSel   = "input[type='password']"
	submitSel = "button[type='submit']"
	errorSel  = ".alert-danger"
)

type loginPage struct {
	drv    *browsertest.Driver
	user   *browsertest.Element
	pass   *browsertest.Element
	submit *browsertest.Element
}

// newLoginPage: после клика по кнопке адрес меняется на afterURL (если не пуст)
func newLoginPage(afterURL string) *loginPage {
	p := &loginPage{
		drv:    browsertest.NewDriver(),
		user:   browsertest.NewElement("user"),
		pass:   browsertest.NewElement("pass"),
		submit: browsertest.NewElement("submit"),
	}
	p.drv.OnNavigate = func(string) {
		p.drv.Put(userSel, p.user)
		p.drv.Put(passSel, p.pass)
		p.drv.Put(submitSel, p.submit)
	}
	p.submit.OnClick = func() error {
		if afterURL != "" {
			p.drv.URL = afterURL
		}
		return nil
	}
	return p
}

func newSession(t *testing.T, drv *browsertest.Driver, url string) *Session {
	return New(drv, locator.New(nil, zaptest.NewLogger(t)), Config{
		URL:      url,
		Username: "escola",
		Password: "segredo",
		Timeout:  50 * time.Millisecond,
		LogsDir:  t.TempDir(),
	}, zaptest.NewLogger(t))
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	page := newLoginPage("https://palmasto.webiss.com.br/Home/Index")
	s := newSession(t, page.drv, "https://palmasto.webiss.com.br")

	require.NoError(t, s.Login(ctx))
	assert.True(t, s.LoggedIn())
	assert.Equal(t, []string{"escola"}, page.user.Writes)
	assert.Equal(t, []string{"segredo"}, page.pass.Writes)
	assert.Equal(t, 1, page.submit.Clicks)

	t.Run("повторный вход без навигации", func(t *testing.T) {
		require.NoError(t, s.Login(ctx))
		assert.Len(t, page.drv.Navigated, 1)
		assert.Equal(t, 1, page.submit.Clicks)
	})
}

func TestLoginInvalidURL(t *testing.T) {
	for _, url := range []string{"", "data:,", "ftp://palmas", "https://"} {
		t.Run(url, func(t *testing.T) {
			page := newLoginPage("")
			s := newSession(t, page.drv, url)

			err := s.Login(context.Background())
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, AuthInvalidURL, authErr.Kind)
			assert.False(t, authErr.Retryable())
			assert.Empty(t, page.drv.Navigated)
		})
	}
}

func TestLoginElementNotFound(t *testing.T) {
	page := newLoginPage("")
	page.drv.OnNavigate = func(string) {
		page.drv.Put(userSel, page.user)
	}
	s := newSession(t, page.drv, "https://palmasto.webiss.com.br")

	err := s.Login(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthElementNotFound, authErr.Kind)
	assert.Equal(t, locator.FieldPassword, authErr.Field)
	assert.True(t, authErr.Retryable())
	assert.ErrorIs(t, err, locator.ErrElementUnresolved)
	assert.False(t, s.LoggedIn())
}

func TestLoginTimeout(t *testing.T) {
	page := newLoginPage("")
	s := newSession(t, page.drv, "https://palmasto.webiss.com.br/login")

	err := s.Login(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthTimeout, authErr.Kind)
	assert.Empty(t, authErr.PageError)
}

func TestLoginRejected(t *testing.T) {
	page := newLoginPage("")
	page.submit.OnClick = func() error {
		msg := browsertest.NewElement("erro")
		msg.Content = "  Usuário ou senha\n inválidos "
		page.drv.Put(errorSel, msg)
		return nil
	}
	s := newSession(t, page.drv, "https://palmasto.webiss.com.br")

	err := s.Login(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthRejected, authErr.Kind)
	assert.Equal(t, "Usuário ou senha inválidos", authErr.PageError)
	assert.Contains(t, authErr.Error(), "inválidos")
}

func TestLoginNavigationError(t *testing.T) {
	page := newLoginPage("")
	page.drv.NavErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	s := newSession(t, page.drv, "https://palmasto.webiss.com.br")

	err := s.Login(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthNavigation, authErr.Kind)
	assert.True(t, authErr.Retryable())
}

func TestStepAndScreenshot(t *testing.T) {
	drv := browsertest.NewDriver()
	drv.Markup = "<html><body>Erro ao salvar</body></html>"
	s := newSession(t, drv, "https://palmasto.webiss.com.br")

	assert.Equal(t, StepNone, s.Step())
	s.SetStep(StepServices)
	assert.Equal(t, StepServices, s.Step())
	assert.Equal(t, "services", s.Step().String())

	path, err := s.Screenshot(context.Background(), "falha_001")
	require.NoError(t, err)
	assert.Equal(t, "falha_001.png", filepath.Base(path))
	assert.Equal(t, []string{path}, drv.Screenshots)
	html, err := os.ReadFile(strings.TrimSuffix(path, ".png") + ".html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Erro ao salvar")

	require.NoError(t, s.Close())
	assert.True(t, drv.Closed)
	assert.Equal(t, StepNone, s.Step())
}
