// Package cookie manages the refresh token session cookie.
package cookie

import (
	"net/http"
	"time"

	"authd/config"

	"github.com/labstack/echo/v4"
)

// Manager writes and clears the HttpOnly session cookie that carries the
// refresh token. Its attributes depend on the runtime environment: production
// serves the admin UI from another origin and needs SameSite=None with Secure,
// local development uses SameSite=Strict over plain HTTP.
type Manager struct {
	name       string
	domain     string
	production bool
}

// NewManager is the constructor for Manager.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		name:       cfg.Auth.CookieName,
		domain:     cfg.Auth.CookieDomain,
		production: cfg.IsProduction(),
	}
}

// Set writes the session cookie. Max-Age is the whole number of seconds left
// until the token expiry, so cookie and stored session lapse together.
func (m *Manager) Set(c echo.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	c.SetCookie(m.build(token, maxAge))
}

// Clear expires the session cookie immediately. The attributes must match the
// ones used in Set, or browsers keep the original cookie alive.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(m.build("", -1))
}

// Get returns the refresh token from the session cookie, or empty when the
// cookie is absent.
func (m *Manager) Get(c echo.Context) string {
	cookie, err := c.Cookie(m.name)
	if err != nil {
		return ""
	}

	return cookie.Value
}

func (m *Manager) build(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if m.production {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}

	return cookie
}
