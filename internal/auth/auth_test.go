package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliafides/backend/internal/config"
)

func newVerifier() *Verifier {
	return NewVerifier(config.AuthConfig{Secret: "s3cret", Issuer: "bibliafides", Audience: "web"})
}

func TestIssueAndVerify(t *testing.T) {
	v := newVerifier()

	token, err := v.Issue(User{ID: "u1", Name: "Ana Souza"}, time.Hour)
	require.NoError(t, err)

	user, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u1", Name: "Ana Souza"}, user)
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := newVerifier()
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := v.Issue(User{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsWrongSecretAndClaims(t *testing.T) {
	other := NewVerifier(config.AuthConfig{Secret: "other", Issuer: "bibliafides", Audience: "web"})
	token, err := other.Issue(User{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = newVerifier().Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongAudience := NewVerifier(config.AuthConfig{Secret: "s3cret", Issuer: "bibliafides", Audience: "mobile"})
	token, err = wrongAudience.Issue(User{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = newVerifier().Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = newVerifier().Verify("")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyRejectsMissingSubjectAndOtherAlgorithms(t *testing.T) {
	v := newVerifier()

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "bibliafides",
		Audience:  jwt.ClaimStrings{"web"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err := noSubject.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = v.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "bibliafides",
		Audience:  jwt.ClaimStrings{"web"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err = hs512.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = v.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	v := newVerifier()
	token, err := v.Issue(User{ID: "u1", Name: "Ana"}, time.Hour)
	require.NoError(t, err)

	var seen User
	handler := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		require.True(t, ok)
		seen = user
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", seen.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/ws?access_token="+token, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Basic "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
