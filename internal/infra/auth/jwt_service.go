// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"authd/config"
	"authd/internal/domain/entity"
	"authd/internal/domain/service"
	"authd/internal/duration"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Claims defines the custom claims for the access token.
type Claims struct {
	UserID uuid.UUID `json:"userId"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret []byte // Symmetric key for HS256 signing.
	expiry string // Compact duration string for access token lifetime, e.g. "15m".
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.Auth == nil || cfg.Auth.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	if _, err := duration.Parse(cfg.Auth.AccessTokenExpiry); err != nil {
		return nil, errors.Wrap(err, "invalid access token expiry")
	}

	return &jwtService{
		secret: []byte(cfg.Auth.JWTSecret),
		expiry: cfg.Auth.AccessTokenExpiry,
	}, nil
}

// Sign issues a signed access token carrying the user id. The expiration is
// recomputed from the configured duration string at signing time.
func (s *jwtService) Sign(userID uuid.UUID) (string, error) {
	expiresAt, err := duration.Parse(s.expiry)
	if err != nil {
		return "", errors.Wrap(err, "compute access token expiry")
	}

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign access token")
	}

	return signed, nil
}

// Verify checks the signature and expiry of a token string. Ordinary expiry
// maps to service.ErrTokenExpired so callers can treat it as a routine absent
// outcome; every other parse failure maps to service.ErrTokenInvalid.
func (s *jwtService) Verify(tokenString string) (*entity.AuthPayload, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, service.ErrTokenExpired
		}

		return nil, errors.Wrap(service.ErrTokenInvalid, err.Error())
	}
	if !token.Valid {
		return nil, service.ErrTokenInvalid
	}

	return &entity.AuthPayload{UserID: claims.UserID}, nil
}
