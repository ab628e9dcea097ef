// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"authd/config"
	"authd/internal/delivery/http/cookie"
	"authd/internal/delivery/http/middleware"
	"authd/internal/delivery/http/response"
	domainerrors "authd/internal/domain/errors"
	"authd/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for the authentication endpoints.
type AuthHandler struct {
	uc      usecase.AuthUsecase
	cookies *cookie.Manager
	prefill *config.PrefillConfig
	logger  *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, cookies *cookie.Manager, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:      uc,
		cookies: cookies,
		prefill: cfg.Prefill,
		logger:  logger,
	}
}

// tokenPairResponse is the JSON shape of a successful login or refresh.
type tokenPairResponse struct {
	AccessToken           string `json:"accessToken"`
	RefreshToken          string `json:"refreshToken"`
	RefreshTokenExpiresAt string `json:"refreshTokenExpiresAt"`
}

func newTokenPairResponse(output *usecase.TokenPairOutput) *tokenPairResponse {
	return &tokenPairResponse{
		AccessToken:           output.AccessToken,
		RefreshToken:          output.RefreshToken,
		RefreshTokenExpiresAt: output.RefreshTokenExpiresAt.UTC().Format(time.RFC3339),
	}
}

// Login handles the credential login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Login(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookies.Set(c, output.RefreshToken, output.RefreshTokenExpiresAt)

	return response.Success(c, http.StatusOK, newTokenPairResponse(output), "Login successful")
}

// refreshRequest is the optional JSON body of a refresh request. A token here
// overrides the cookie and slides the session expiry.
type refreshRequest struct {
	RefreshToken *string `json:"refreshToken"`
}

// Refresh handles the token refresh request.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var body refreshRequest
	if err := c.Bind(&body); err != nil {
		return domainerrors.ErrValidationFailed.WrapMessage("invalid refresh input")
	}

	input := &usecase.RefreshInput{
		RefreshToken: body.RefreshToken,
		CookieToken:  h.cookies.Get(c),
	}

	output, err := h.uc.Refresh(c.Request().Context(), input)
	if err != nil {
		// Only a dead session discards the cookie. Transient failures keep it
		// so the client can retry with the still-valid token.
		if errors.Is(err, domainerrors.ErrInvalidRefreshToken) || errors.Is(err, domainerrors.ErrExpiredRefreshToken) {
			h.cookies.Clear(c)
		}

		return errors.WithStack(err)
	}

	h.cookies.Set(c, output.RefreshToken, output.RefreshTokenExpiresAt)

	return response.Success(c, http.StatusOK, newTokenPairResponse(output), "Token refreshed successfully")
}

// Logout handles the logout request. The cookie is cleared no matter what the
// session store says about the token.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return domainerrors.ErrUnauthorized
	}

	input := &usecase.LogoutInput{
		UserID:      userID,
		CookieToken: h.cookies.Get(c),
	}

	if err := h.uc.Logout(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	h.cookies.Clear(c)

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// Prefill returns demo credentials for the login form. It only exists when
// explicitly enabled, for workshop and demo environments.
func (h *AuthHandler) Prefill(c echo.Context) error {
	if h.prefill == nil || !h.prefill.Enabled {
		return domainerrors.ErrNotFound
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"username": h.prefill.Username,
		"password": h.prefill.Password,
	}, "")
}
