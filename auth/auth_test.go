package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jane4246/coffee-advisory/db"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemStore(t *testing.T) {
	t.Helper()
	prev := db.Store
	db.Store = db.NewMemStorage()
	t.Cleanup(func() { db.Store = prev })
}

func post(h httprouter.Handle, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	useMemStore(t)

	rec := post(Register, `{"username":"kiprop","password":"harvest-2025"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "harvest-2025")
	assert.NotContains(t, rec.Body.String(), "password")

	rec = post(Register, `{"username":"kiprop","password":"another-pass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(Login, `{"username":"kiprop","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(Login, `{"username":"nobody","password":"harvest-2025"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(Login, `{"username":"kiprop","password":"harvest-2025"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "kiprop", out.User.Username)

	uid, err := ParseToken(out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, uid)
}

func TestRegister_Validation(t *testing.T) {
	useMemStore(t)

	rec := post(Register, `{"username":"ab","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var out struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Invalid credentials", out.Error)
	assert.Contains(t, out.Details, "username")
	assert.Contains(t, out.Details, "password")

	rec = post(Register, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseToken(t *testing.T) {
	now := time.Now()
	tok, err := IssueToken("u-1", "kiprop", now)
	require.NoError(t, err)

	uid, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", uid)

	expired, err := IssueToken("u-1", "kiprop", now.Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_NoWellKnownFallbackSecret(t *testing.T) {
	prev := secret
	t.Cleanup(func() { secret = prev })
	Configure("")

	claims := Claims{
		UserID: "intruder",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	for _, guess := range []string{"dev-secret-change-me", "dev-jwt-secret"} {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(guess))
		require.NoError(t, err)
		_, err = ParseToken(forged)
		assert.ErrorIs(t, err, ErrInvalidToken, guess)
	}

	tok, err := IssueToken("u-1", "kiprop", time.Now())
	require.NoError(t, err)
	uid, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", uid)
}
