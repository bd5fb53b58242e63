package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewater/fleet-reservation/internal/config"
	"github.com/bluewater/fleet-reservation/internal/middleware"
	"github.com/bluewater/fleet-reservation/internal/repository"
)

func TestLogoutRevokesAllSessionsForBearerUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	h := NewAuthHandler(config.Config{JWTSecret: "s"}, nil, repository.NewTokenRepo(db))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, testUserID)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutWithoutAnyCredentialRejected(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewAuthHandler(config.Config{JWTSecret: "s"}, nil, repository.NewTokenRepo(db))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
