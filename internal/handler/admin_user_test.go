package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewater/fleet-reservation/internal/repository"
)

var userRows = []string{
	"id", "email", "phone", "password_hash", "first_name", "last_name",
	"is_admin", "is_goldmember", "is_captain", "created_at", "updated_at",
}

func TestAdminUserSearchEmptyQueryListsAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("FROM users").
		WithArgs("").
		WillReturnRows(sqlmock.NewRows(userRows).
			AddRow(testUserID, "jo@example.com", "", "hash", nil, nil, false, false, false, now, now).
			AddRow("u2", "sam@example.com", "", "hash", nil, nil, false, true, false, now, now))

	h := NewAdminUserHandler(repository.NewUserRepo(db), 4)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Search(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jo@example.com")
	assert.Contains(t, rec.Body.String(), "sam@example.com")
	assert.NoError(t, mock.ExpectationsWereMet())
}
