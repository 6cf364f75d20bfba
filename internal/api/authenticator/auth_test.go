package authenticator

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praveen001/planner/internal/config"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()

	auth, err := New(&config.Config{JWT_SECRET: "test-secret"})
	require.NoError(t, err)
	return auth
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(&config.Config{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestTokenRoundtrip(t *testing.T) {
	auth := newTestAuthenticator(t)

	token, err := auth.GenerateToken("user-1", "alice@example.com", "Alice")
	require.NoError(t, err)

	claims, err := auth.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	auth := newTestAuthenticator(t)
	other, err := New(&config.Config{JWT_SECRET: "other-secret"})
	require.NoError(t, err)

	token, err := other.GenerateToken("user-1", "alice@example.com", "Alice")
	require.NoError(t, err)

	_, err = auth.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	auth := newTestAuthenticator(t)

	_, err := auth.VerifyAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	auth := newTestAuthenticator(t)

	claims := &UserClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = auth.VerifyAccessToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	auth := newTestAuthenticator(t)

	claims := &UserClaims{UserID: "user-1"}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.VerifyAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	auth := newTestAuthenticator(t)

	claims := &jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	parsed, err := auth.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", parsed.UserID)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi"},
		{"raw token", "abc.def.ghi", "abc.def.ghi"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractToken(tt.header))
		})
	}
}
