package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudstatus/cloudstatus/internal/auth"
)

const testKey = "test-secret-key-for-testing-only"

func newService(t *testing.T, cfg auth.JWTConfig) *auth.JWTService {
	t.Helper()
	if cfg.SigningKey == "" {
		cfg.SigningKey = testKey
	}
	svc, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	return svc
}

func TestJWTService_GenerateAndValidateAdminToken(t *testing.T) {
	svc := newService(t, auth.JWTConfig{})

	token, expiresAt, err := svc.GenerateAdminToken("oncall")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.AdminTokenExpiry), expiresAt, 5*time.Second)

	operator, err := svc.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "oncall", operator)
}

func TestNewJWTService_RequiresSigningKey(t *testing.T) {
	_, err := auth.NewJWTService(auth.JWTConfig{})
	assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService(t, auth.JWTConfig{})

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAdminToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	token, _, err := newService(t, auth.JWTConfig{SigningKey: "key-one"}).GenerateAdminToken("oncall")
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{SigningKey: "key-two"}).ValidateAdminToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	token, _, err := newService(t, auth.JWTConfig{Issuer: "issuer-one"}).GenerateAdminToken("oncall")
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{Issuer: "issuer-two"}).ValidateAdminToken(token)
	assert.Error(t, err)
}

func TestJWTService_WrongAudience(t *testing.T) {
	token, _, err := newService(t, auth.JWTConfig{Audience: "audience-one"}).GenerateAdminToken("oncall")
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{Audience: "audience-two"}).ValidateAdminToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	claims := auth.AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.DefaultIssuer,
			Subject:   "oncall",
			Audience:  jwt.ClaimStrings{auth.DefaultAudience},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		Operator: "oncall",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{}).ValidateAdminToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_RejectsUnsignedToken(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Issuer:    auth.DefaultIssuer,
		Audience:  jwt.ClaimStrings{auth.DefaultAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newService(t, auth.JWTConfig{}).ValidateAdminToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}
