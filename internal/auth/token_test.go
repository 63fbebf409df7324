// ABOUTME: Tests for JWT verification and bearer-token extraction.
// ABOUTME: Covers round trips, expiry, tampering, and missing claims.

package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	token, err := v.Generate("user-123", time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestJWTVerifier_Expired(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	token, err := v.Generate("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	v := NewJWTVerifier([]byte("secret-a"))
	other := NewJWTVerifier([]byte("secret-b"))

	token, err := v.Generate("user-123", time.Hour)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_Garbage(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	_, err := v.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	v := NewJWTVerifier(secret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestFromRequest(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))
	token, err := v.Generate("user-123", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("POST", "/upload", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	userID, err := FromRequest(v, r)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestFromRequest_NoHeader(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	r := httptest.NewRequest("POST", "/upload", nil)
	_, err := FromRequest(v, r)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFromRequest_WrongScheme(t *testing.T) {
	v := NewJWTVerifier([]byte("test-secret"))

	r := httptest.NewRequest("POST", "/upload", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, err := FromRequest(v, r)
	assert.ErrorIs(t, err, ErrNoToken)
}
