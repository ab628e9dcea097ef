// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"authd/config"
	deliverycontext "authd/internal/delivery/context"
	"authd/internal/domain/entity"
	domainerrors "authd/internal/domain/errors"
	"authd/internal/domain/repository"
	"authd/internal/domain/service"
	"authd/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager        repository.TransactionManager
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	refreshTTL       string
	flight           singleflight.Group
	logger           *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	refreshTTL := ""
	if params.Config != nil && params.Config.Auth != nil {
		refreshTTL = params.Config.Auth.RefreshTokenExpiry
	}

	return &authService{
		txManager:        params.TxManager,
		userRepo:         params.UserRepo,
		refreshTokenRepo: params.RefreshTokenRepo,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		refreshTTL:       refreshTTL,
		logger:           params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login verifies credentials and starts a new session.
// Single read plus an independent insert - uses direct repository instances.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.TokenPairOutput, error) {
	srv.log(ctx).Info("Login attempt", slog.String("username", input.Username))

	// 1. Look up the account. An unknown username and a wrong password must be
	// indistinguishable to the caller.
	user, err := srv.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Info("Login failed, unknown username", slog.String("username", input.Username))

			return nil, domainerrors.ErrUserOrPasswordIncorrect
		}

		srv.log(ctx).Error("Failed to find user", slog.String("username", input.Username), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to find user")
	}

	// 2. Disabled accounts are rejected before the password is even checked.
	if user.Status != entity.UserStatusActive {
		srv.log(ctx).Info("Login rejected, account disabled", slog.String("username", input.Username))

		return nil, domainerrors.ErrAccountDisabled
	}

	// 3. Recompute the hash with the account's stored salt and compare.
	if !srv.hasher.Check(input.Password, user.Salt, user.PasswordHash) {
		srv.log(ctx).Info("Login failed, wrong password", slog.String("username", input.Username))

		return nil, domainerrors.ErrUserOrPasswordIncorrect
	}

	// 4. Issue the token pair.
	accessToken, err := srv.tokenService.Sign(user.ID)
	if err != nil {
		srv.log(ctx).Error("Failed to sign access token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to sign access token")
	}

	session, err := srv.refreshTokenRepo.Create(ctx, user.ID, srv.refreshTTL)
	if err != nil {
		srv.log(ctx).Error("Failed to create refresh token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create refresh token")
	}

	srv.log(ctx).Info("Login succeeded", slog.Any("userID", user.ID))

	return &usecase.TokenPairOutput{
		AccessToken:           accessToken,
		RefreshToken:          session.Token,
		RefreshTokenExpiresAt: session.ExpiresAt,
	}, nil
}

// Refresh rotates the session's refresh token and issues a new access token.
// Concurrent refreshes bearing the same token value collapse into one rotation
// and share its result, so a burst of parallel requests from one client does
// not invalidate each other's cookies.
func (srv *authService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.TokenPairOutput, error) {
	// A body-supplied token takes precedence over the cookie and slides the
	// session expiry forward; a cookie-only refresh keeps the stored expiry.
	token := input.CookieToken
	slide := false
	if input.RefreshToken != nil {
		token = *input.RefreshToken
		slide = true
	}

	if token == "" {
		srv.log(ctx).Info("Refresh rejected, no token presented")

		return nil, domainerrors.ErrMissingRefreshToken
	}

	result, err, shared := srv.flight.Do("refresh:"+token, func() (any, error) {
		return srv.rotateSession(ctx, token, slide)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		srv.log(ctx).Debug("Refresh result shared with concurrent request")
	}

	return result.(*usecase.TokenPairOutput), nil
}

// rotateSession performs the lookup and in-place rotation in one transaction,
// so two interleaved rotations can never both succeed against the same row.
func (srv *authService) rotateSession(ctx context.Context, token string, slide bool) (*usecase.TokenPairOutput, error) {
	var output *usecase.TokenPairOutput

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.RefreshTokenRepo()

		// 1. Resolve the presented token.
		session, err := refreshRepo.FindByToken(ctx, token)
		if err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return domainerrors.ErrInvalidRefreshToken
			}

			return errors.Wrap(err, "failed to find refresh token")
		}

		// 2. An expired session is deleted on detection, then rejected.
		if session.Expired(time.Now()) {
			if err := refreshRepo.Revoke(ctx, session.Token); err != nil &&
				!errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return errors.Wrap(err, "failed to revoke expired refresh token")
			}

			return domainerrors.ErrExpiredRefreshToken
		}

		// 3. Rotate the token value in place.
		rotated, err := refreshRepo.Rotate(ctx, session, slide, srv.refreshTTL)
		if err != nil {
			return errors.Wrap(err, "failed to rotate refresh token")
		}

		// 4. Issue a fresh access token for the session's owner.
		accessToken, err := srv.tokenService.Sign(session.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to sign access token")
		}

		output = &usecase.TokenPairOutput{
			AccessToken:           accessToken,
			RefreshToken:          rotated.Token,
			RefreshTokenExpiresAt: rotated.ExpiresAt,
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Info("Refresh failed", slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Refresh succeeded", slog.Bool("slide", slide))

	return output, nil
}

// Logout ends the session named by the cookie token. It never fails the caller
// for a session that is already gone or that belongs to someone else; the
// cookie is cleared regardless, so failing here would only strand the client.
func (srv *authService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	if input.CookieToken == "" {
		srv.log(ctx).Debug("Logout with no session cookie", slog.Any("userID", input.UserID))

		return nil
	}

	_, err, _ := srv.flight.Do("logout:"+input.CookieToken, func() (any, error) {
		srv.revokeOwnSession(ctx, input)

		return nil, nil
	})

	return err
}

// revokeOwnSession deletes the cookie's session only when it belongs to the
// caller. A token owned by another user is logged and left untouched, since
// deleting it would let any authenticated caller end other users' sessions.
func (srv *authService) revokeOwnSession(ctx context.Context, input *usecase.LogoutInput) {
	session, err := srv.refreshTokenRepo.FindByToken(ctx, input.CookieToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			srv.log(ctx).Warn("Logout for unknown refresh token", slog.Any("userID", input.UserID))
		} else {
			srv.log(ctx).Error("Failed to find refresh token during logout", slog.Any("userID", input.UserID), slog.Any("error", err))
		}

		return
	}

	if session.UserID != input.UserID {
		srv.log(ctx).Warn("Logout token ownership mismatch",
			slog.Any("userID", input.UserID),
			slog.Any("tokenUserID", session.UserID))

		return
	}

	if err := srv.refreshTokenRepo.Revoke(ctx, session.Token); err != nil &&
		!errors.Is(err, repository.ErrRefreshTokenNotFound) {
		srv.log(ctx).Error("Failed to revoke refresh token during logout", slog.Any("userID", input.UserID), slog.Any("error", err))

		return
	}

	srv.log(ctx).Info("Logout revoked session", slog.Any("userID", input.UserID))
}
