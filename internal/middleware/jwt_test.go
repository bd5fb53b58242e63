package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewater/fleet-reservation/internal/utils"
)

const testSecret = "test-secret"

func runJWT(t *testing.T, authHeader string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token populates context", func(t *testing.T) {
		tok, err := utils.NewAccessToken(testSecret, "user-1", true, 5)
		require.NoError(t, err)

		rec, c := runJWT(t, "Bearer "+tok.Token, JWTAuth(testSecret))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", c.Get(CtxUserID))
		assert.Equal(t, true, c.Get(CtxIsAdmin))
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec, _ := runJWT(t, "", JWTAuth(testSecret))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other-secret", "user-1", false, 5)
		require.NoError(t, err)
		rec, _ := runJWT(t, "Bearer "+tok.Token, JWTAuth(testSecret))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		rec, _ := runJWT(t, "Bearer not.a.jwt", JWTAuth(testSecret))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestJWTOptional(t *testing.T) {
	t.Run("valid token populates context", func(t *testing.T) {
		tok, err := utils.NewAccessToken(testSecret, "user-1", false, 5)
		require.NoError(t, err)

		rec, c := runJWT(t, "Bearer "+tok.Token, JWTOptional(testSecret))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", c.Get(CtxUserID))
	})

	t.Run("missing header passes through anonymous", func(t *testing.T) {
		rec, c := runJWT(t, "", JWTOptional(testSecret))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, c.Get(CtxUserID))
	})

	t.Run("invalid token passes through anonymous", func(t *testing.T) {
		rec, c := runJWT(t, "Bearer not.a.jwt", JWTOptional(testSecret))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, c.Get(CtxUserID))
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("admin passes", func(t *testing.T) {
		tok, err := utils.NewAccessToken(testSecret, "admin-1", true, 5)
		require.NoError(t, err)
		rec, _ := runJWT(t, "Bearer "+tok.Token, JWTAuth(testSecret), RequireAdmin())
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member blocked", func(t *testing.T) {
		tok, err := utils.NewAccessToken(testSecret, "user-1", false, 5)
		require.NoError(t, err)
		rec, _ := runJWT(t, "Bearer "+tok.Token, JWTAuth(testSecret), RequireAdmin())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
