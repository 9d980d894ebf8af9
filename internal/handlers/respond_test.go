package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{utils.NewValidationError("date", "date is required"), http.StatusBadRequest},
		{services.ErrInvalidInput, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrAccountInactive, http.StatusForbidden},
		{services.ErrPaymentNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", services.ErrSessionNotFound), http.StatusNotFound},
		{services.ErrPaymentAlreadyResolved, http.StatusConflict},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrReviewLedgerDisabled, http.StatusServiceUnavailable},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
	}

	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn leaked"))
	assert.Equal(t, "Server error", gjson.Get(rec.Body.String(), "message").String())

	rec = httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), utils.NewValidationError("date", "date is required"))
	assert.Equal(t, "date", gjson.Get(rec.Body.String(), "field").String())
}

func TestPagination(t *testing.T) {
	page, limit := pagination(httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil))
	assert.Equal(t, 3, page)
	assert.Equal(t, maxPageSize, limit)

	page, limit = pagination(httptest.NewRequest(http.MethodGet, "/?page=-1&limit=abc", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageSize, limit)
}
