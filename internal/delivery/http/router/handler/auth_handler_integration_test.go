package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"authd/config"
	"authd/internal/delivery/http/cookie"
	"authd/internal/delivery/http/middleware"
	"authd/internal/delivery/http/validator"
	"authd/internal/domain/entity"
	"authd/internal/infra/auth"
	"authd/internal/infra/persistence/model"
	"authd/internal/infra/persistence/postgres"
	"authd/internal/usecase/impl"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	echo *echo.Echo
	db   *gorm.DB
	cfg  *config.Config
}

// newTestEnv assembles the whole auth stack over an in-memory database, with
// the same middleware chain the real server uses.
func newTestEnv(t *testing.T, mutateConfig ...func(*config.Config)) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, db.AutoMigrate(&model.UserModel{}, &model.RefreshTokenModel{}))

	cfg := &config.Config{
		Auth: &config.AuthConfig{
			JWTSecret:          "integration-test-secret",
			AccessTokenExpiry:  "15m",
			RefreshTokenExpiry: "7d",
			CookieName:         "refresh_token",
		},
		Prefill: &config.PrefillConfig{
			Enabled:  true,
			Username: "admin",
			Password: "admin1234",
		},
	}
	for _, fn := range mutateConfig {
		fn(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokenSvc, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	authUsecase := impl.NewAuthService(impl.AuthServiceParams{
		TxManager:        postgres.NewTransactionManager(db),
		UserRepo:         postgres.NewUserRepository(db),
		RefreshTokenRepo: postgres.NewRefreshTokenRepository(db),
		Hasher:           auth.NewPBKDF2Hasher(),
		TokenService:     tokenSvc,
		Config:           cfg,
		Logger:           logger,
	})

	cookies := cookie.NewManager(cfg)
	authHandler := NewAuthHandler(authUsecase, cookies, cfg, logger)
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)

	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError
	e.Use(middleware.NewRequestIDMiddleware(logger).Process)

	e.GET("/health", HealthCheck)
	authGroup := e.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.GET("/prefill", authHandler.Prefill)
	authGroup.POST("/logout", authHandler.Logout, authMiddleware.Authenticate)

	return &testEnv{echo: e, db: db, cfg: cfg}
}

func (env *testEnv) seedUser(t *testing.T, username, password string, status entity.UserStatus) uuid.UUID {
	t.Helper()

	hasher := auth.NewPBKDF2Hasher()
	salt := uuid.NewString()
	hash, err := hasher.Hash(password, salt)
	require.NoError(t, err)

	user := &model.UserModel{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		DisplayName:  username,
		Status:       string(status),
	}
	require.NoError(t, env.db.Create(user).Error)

	return user.ID
}

func (env *testEnv) request(method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, fn := range mutate {
		fn(req)
	}

	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	Success   bool           `json:"success"`
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Error     *errorInfo     `json:"error"`
	RequestID string         `json:"requestId"`
}

type errorInfo struct {
	Code string `json:"code"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return env
}

func sessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func TestAuthFlow_Login(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	rec := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"admin1234"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Data["accessToken"])
	assert.NotEmpty(t, body.Data["refreshToken"])
	assert.NotEmpty(t, body.RequestID)

	// Expiry travels as RFC 3339.
	expiresAt, err := time.Parse(time.RFC3339, body.Data["refreshTokenExpiresAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), expiresAt, 2*time.Minute)

	// The session cookie carries the same token, HttpOnly.
	ck := sessionCookie(rec, "refresh_token")
	require.NotNil(t, ck)
	assert.Equal(t, body.Data["refreshToken"], ck.Value)
	assert.True(t, ck.HttpOnly)
}

func TestAuthFlow_Login_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	// Wrong password and unknown username answer identically.
	wrongPassword := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"nope"}`)
	unknownUser := env.request(http.MethodPost, "/auth/login", `{"username":"ghost","password":"nope"}`)

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownUser} {
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "USER_OR_PASSWORD_INCORRECT", body.Error.Code)
	}
}

func TestAuthFlow_Login_DisabledAccount(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "locked", "admin1234", entity.UserStatusDisabled)

	rec := env.request(http.MethodPost, "/auth/login", `{"username":"locked","password":"admin1234"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "USER_ACCOUNT_DISABLED", body.Error.Code)

	// A disabled account reports its real state regardless of the password.
	rec = env.request(http.MethodPost, "/auth/login", `{"username":"locked","password":"wrong"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "USER_ACCOUNT_DISABLED", body.Error.Code)
}

func TestAuthFlow_Login_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/auth/login", `{"username":"admin"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
}

func TestAuthFlow_Refresh_WithCookie(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	login := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"admin1234"}`)
	require.Equal(t, http.StatusOK, login.Code)
	loginCookie := sessionCookie(login, "refresh_token")
	require.NotNil(t, loginCookie)

	refresh := env.request(http.MethodPost, "/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: loginCookie.Value})
	})

	require.Equal(t, http.StatusOK, refresh.Code)
	body := decodeEnvelope(t, refresh)
	assert.NotEmpty(t, body.Data["accessToken"])
	assert.NotEqual(t, loginCookie.Value, body.Data["refreshToken"], "token value must rotate")

	// The previous token value died with the rotation.
	replay := env.request(http.MethodPost, "/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: loginCookie.Value})
	})
	require.Equal(t, http.StatusUnauthorized, replay.Code)
	replayBody := decodeEnvelope(t, replay)
	require.NotNil(t, replayBody.Error)
	assert.Equal(t, "REFRESH_TOKEN_INVALID", replayBody.Error.Code)
}

func TestAuthFlow_Refresh_BodyTokenWinsOverCookie(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	login := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"admin1234"}`)
	token := decodeEnvelope(t, login).Data["refreshToken"].(string)

	rec := env.request(http.MethodPost, "/auth/refresh", `{"refreshToken":"`+token+`"}`, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "stale-cookie-value"})
	})

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow_Refresh_NoToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/auth/refresh", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "REFRESH_TOKEN_MISSING", body.Error.Code)
}

func TestAuthFlow_Refresh_ExpiredTokenIsDeleted(t *testing.T) {
	env := newTestEnv(t)
	userID := env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	stale := &model.RefreshTokenModel{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     "expired-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.db.Create(stale).Error)

	rec := env.request(http.MethodPost, "/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "expired-token"})
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "REFRESH_TOKEN_EXPIRED", body.Error.Code)

	// The stale row is gone, not merely rejected.
	var count int64
	require.NoError(t, env.db.Model(&model.RefreshTokenModel{}).Where("token = ?", "expired-token").Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthFlow_Refresh_TransientFailureKeepsCookie(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	login := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"admin1234"}`)
	require.Equal(t, http.StatusOK, login.Code)
	loginCookie := sessionCookie(login, "refresh_token")
	require.NotNil(t, loginCookie)

	// Take the database down so the refresh fails with an infrastructure
	// error rather than a rejected token.
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec := env.request(http.MethodPost, "/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: loginCookie.Value})
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)

	// The still-valid cookie survives, so the client can retry once the
	// outage is over.
	assert.Nil(t, sessionCookie(rec, "refresh_token"))
}

func TestAuthFlow_FullSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Auth.AccessTokenExpiry = "1s"
	})
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	// 1. Log in.
	login := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"admin1234"}`)
	require.Equal(t, http.StatusOK, login.Code)
	loginBody := decodeEnvelope(t, login)
	firstAccess := loginBody.Data["accessToken"].(string)
	firstRefresh := loginBody.Data["refreshToken"].(string)

	// 2. The fresh access token opens a protected route. Without a session
	// cookie logout is a no-op, so the session row survives the call.
	rec := env.request(http.MethodPost, "/auth/logout", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+firstAccess)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&model.RefreshTokenModel{}).Where("token = ?", firstRefresh).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// 3. Wait out the access token. The same header is now rejected.
	time.Sleep(2 * time.Second)

	rec = env.request(http.MethodPost, "/auth/logout", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+firstAccess)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// 4. A cookie-only refresh revives the session with a rotated pair.
	refresh := env.request(http.MethodPost, "/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: firstRefresh})
	})
	require.Equal(t, http.StatusOK, refresh.Code)
	refreshBody := decodeEnvelope(t, refresh)
	secondAccess := refreshBody.Data["accessToken"].(string)
	secondRefresh := refreshBody.Data["refreshToken"].(string)
	require.NotEqual(t, firstRefresh, secondRefresh)

	// 5. The new access token works, and logging out with the new cookie
	// terminates the session.
	rec = env.request(http.MethodPost, "/auth/logout", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+secondAccess)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: secondRefresh})
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// 6. The logged-out session is gone for good.
	replay := env.request(http.MethodPost, "/auth/refresh", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: secondRefresh})
	})
	require.Equal(t, http.StatusUnauthorized, replay.Code)
	replayBody := decodeEnvelope(t, replay)
	require.NotNil(t, replayBody.Error)
	assert.Equal(t, "REFRESH_TOKEN_INVALID", replayBody.Error.Code)
}

func TestAuthFlow_Logout(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)

	login := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"admin1234"}`)
	body := decodeEnvelope(t, login)
	accessToken := body.Data["accessToken"].(string)
	refreshToken := body.Data["refreshToken"].(string)

	rec := env.request(http.MethodPost, "/auth/logout", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refreshToken})
	})

	require.Equal(t, http.StatusOK, rec.Code)

	// Cookie cleared and session row removed.
	cleared := sessionCookie(rec, "refresh_token")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	var count int64
	require.NoError(t, env.db.Model(&model.RefreshTokenModel{}).Where("token = ?", refreshToken).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthFlow_Logout_RequiresAccessToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/auth/logout", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestAuthFlow_Logout_ForeignTokenKeptButCookieCleared(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin", "admin1234", entity.UserStatusActive)
	otherID := env.seedUser(t, "other", "admin1234", entity.UserStatusActive)

	login := env.request(http.MethodPost, "/auth/login", `{"username":"admin","password":"admin1234"}`)
	accessToken := decodeEnvelope(t, login).Data["accessToken"].(string)

	foreign := &model.RefreshTokenModel{
		ID:        uuid.New(),
		UserID:    otherID,
		Token:     "foreign-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, env.db.Create(foreign).Error)

	rec := env.request(http.MethodPost, "/auth/logout", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "foreign-token"})
	})

	// Logout still succeeds and clears the cookie, but the other user's
	// session survives.
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(rec, "refresh_token")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	var count int64
	require.NoError(t, env.db.Model(&model.RefreshTokenModel{}).Where("token = ?", "foreign-token").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAuthFlow_Prefill(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/auth/prefill", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "admin", body.Data["username"])
	assert.Equal(t, "admin1234", body.Data["password"])
}

func TestAuthFlow_Prefill_Disabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Prefill.Enabled = false

	rec := env.request(http.MethodGet, "/auth/prefill", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
