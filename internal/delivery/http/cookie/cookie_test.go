package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authd/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T, env string) *Manager {
	t.Helper()

	cfg := &config.Config{
		Auth: &config.AuthConfig{
			CookieName:   "refresh_token",
			CookieDomain: "admin.example.com",
		},
	}
	cfg.Env.Env = env

	return NewManager(cfg)
}

func recordCookie(t *testing.T, set func(echo.Context)) *http.Cookie {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	set(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	return cookies[0]
}

func TestManager_Set_DevelopmentAttributes(t *testing.T) {
	m := testManager(t, "development")

	cookie := recordCookie(t, func(c echo.Context) {
		m.Set(c, "token-value", time.Now().Add(time.Hour))
	})

	assert.Equal(t, "refresh_token", cookie.Name)
	assert.Equal(t, "token-value", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, "admin.example.com", cookie.Domain)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	// Max-Age is the floor of the remaining lifetime in seconds.
	assert.LessOrEqual(t, cookie.MaxAge, 3600)
	assert.Greater(t, cookie.MaxAge, 3590)
}

func TestManager_Set_ProductionAttributes(t *testing.T) {
	m := testManager(t, "production")

	cookie := recordCookie(t, func(c echo.Context) {
		m.Set(c, "token-value", time.Now().Add(time.Hour))
	})

	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestManager_Set_PastExpiryClampsToZero(t *testing.T) {
	m := testManager(t, "development")

	cookie := recordCookie(t, func(c echo.Context) {
		m.Set(c, "token-value", time.Now().Add(-time.Minute))
	})

	assert.Equal(t, 0, cookie.MaxAge)
}

func TestManager_Clear(t *testing.T) {
	m := testManager(t, "development")

	cookie := recordCookie(t, func(c echo.Context) {
		m.Clear(c)
	})

	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, "admin.example.com", cookie.Domain)
}

func TestManager_Get(t *testing.T) {
	m := testManager(t, "development")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "stored-token"})
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "stored-token", m.Get(c))

	// Absent cookie reads as empty.
	bare := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	assert.Empty(t, m.Get(bare))
}
