package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkruglov/library-service/internal/model"
	"github.com/dkruglov/library-service/internal/utils"
)

const testSecret = "test-secret"

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, model.Session, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		sess model.Session
		seen bool
	)
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		sess, seen = SessionFrom(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, sess, seen
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleLibrarian.String(), 5)
	require.NoError(t, err)

	rec, sess, seen := runJWT(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, seen)
	assert.Equal(t, uint64(42), sess.UserID)
	assert.Equal(t, model.RoleLibrarian, sess.Role)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _, seen := runJWT(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 42, model.RoleReader.String(), 5)
	require.NoError(t, err)

	rec, _, seen := runJWT(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}

func TestJWTAuthUnknownRoleClaim(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "superuser", 5)
	require.NoError(t, err)

	rec, _, seen := runJWT(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleReader.String(), -5)
	require.NoError(t, err)

	rec, _, seen := runJWT(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, seen)
}
