package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkruglov/library-service/internal/config"
	"github.com/dkruglov/library-service/internal/handler"
	"github.com/dkruglov/library-service/internal/model"
	"github.com/dkruglov/library-service/internal/repository"
	"github.com/dkruglov/library-service/internal/utils"
)

const testSecret = "test-secret"

// readerGroupEcho mounts the reader routes against handlers without a
// database connection. The guard tests only exercise the middleware
// chain; a request that gets past it would panic, which is itself a
// test failure.
func readerGroupEcho() *echo.Echo {
	e := echo.New()
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 5}
	h := Handlers{
		Reservations: handler.NewReservationHandler(cfg, repository.NewReservationRepo(nil)),
		Reviews:      handler.NewReviewHandler(repository.NewReviewRepo(nil)),
	}
	RegisterReader(e, h, testSecret)
	return e
}

func bearerFor(t *testing.T, userID uint64, role model.Role) string {
	t.Helper()
	access, err := utils.NewAccessToken(testSecret, userID, role.String(), 5)
	require.NoError(t, err)
	return "Bearer " + access.Token
}

func TestReaderRoutesRejectLibrarian(t *testing.T) {
	e := readerGroupEcho()

	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.Header.Set("Authorization", bearerFor(t, 7, model.RoleLibrarian))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReaderRoutesRejectAnonymous(t *testing.T) {
	e := readerGroupEcho()

	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
