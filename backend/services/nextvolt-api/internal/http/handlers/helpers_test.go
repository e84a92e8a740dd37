package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(apperr.KindInvalidArgument))
	assert.Equal(t, http.StatusBadRequest, statusFor(apperr.KindPreconditionFailed))
	assert.Equal(t, http.StatusUnauthorized, statusFor(apperr.KindUnauthorized))
	assert.Equal(t, http.StatusNotFound, statusFor(apperr.KindNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(apperr.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperr.KindInternal))
}

func TestWriteAppErrorHidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stations", nil)

	rec := httptest.NewRecorder()
	writeAppError(rec, zap.NewNop(), req, apperr.Internal("list stations", errors.New("dial tcp: refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeAppError(rec, zap.NewNop(), req, errors.New("plain"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	writeAppError(rec, zap.NewNop(), req, apperr.New(apperr.KindNotFound, "station not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"station not found"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ A int }
	err := decodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &v)
	assert.Equal(t, "request body is required", apperr.Message(err))

	err = decodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &v)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	err = decodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":3}`)), &v)
	assert.NoError(t, err)
	assert.Equal(t, 3, v.A)
}
