package auth

import (
	"testing"
	"time"

	"authd/config"
	"authd/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{
		JWTSecret:          secret,
		AccessTokenExpiry:  "15m",
		RefreshTokenExpiry: "7d",
	}

	return cfg
}

func TestJWTService_SignAndVerify(t *testing.T) {
	svc, err := NewJWTService(testConfig("test_secret_key_very_long_for_testing"))
	require.NoError(t, err)

	userID := uuid.New()

	token, err := svc.Sign(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	payload, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, payload.UserID)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	secret := "test_secret_key_very_long_for_testing"
	svc, err := NewJWTService(testConfig(secret))
	require.NoError(t, err)

	// Craft a token with the same secret that expired a minute ago.
	claims := &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	payload, err := svc.Verify(expired)
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestJWTService_MalformedToken(t *testing.T) {
	svc, err := NewJWTService(testConfig("test_secret_key_very_long_for_testing"))
	require.NoError(t, err)

	payload, err := svc.Verify("clearly-not-a-jwt-token-format")
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestJWTService_WrongSecret(t *testing.T) {
	signer, err := NewJWTService(testConfig("signer_secret_key_very_long_for_testing"))
	require.NoError(t, err)
	verifier, err := NewJWTService(testConfig("another_secret_key_very_long_for_testing"))
	require.NoError(t, err)

	token, err := signer.Sign(uuid.New())
	require.NoError(t, err)

	payload, err := verifier.Verify(token)
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestJWTService_EmptySecret(t *testing.T) {
	svc, err := NewJWTService(testConfig(""))
	assert.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "jwt secret must be provided")
}

func TestJWTService_InvalidExpiryFormat(t *testing.T) {
	cfg := testConfig("test_secret_key_very_long_for_testing")
	cfg.Auth.AccessTokenExpiry = "soon"

	svc, err := NewJWTService(cfg)
	assert.Error(t, err)
	assert.Nil(t, svc)
}
