package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/logging"
)

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{fmt.Errorf("%w: client 4", apperr.ErrNotFound), http.StatusNotFound, "not found: client 4"},
		{fmt.Errorf("%w: email", apperr.ErrDuplicate), http.StatusConflict, "already exists: email"},
		{fmt.Errorf("%w: name is required", apperr.ErrValidation), http.StatusBadRequest, "validation failed: name is required"},
		{apperr.ErrAuth, http.StatusUnauthorized, "Could not validate credentials"},
		{apperr.ErrForbidden, http.StatusForbidden, "Not enough permissions"},
		{fmt.Errorf("%w: disk full", apperr.ErrStorage), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest("GET", "/x", nil), logging.NopEvents(), tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.JSONEq(t, `{"detail":"`+tc.detail+`"}`, rec.Body.String())
	}
}

func TestWriteError_LogsUnexpected(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest("DELETE", "/api/v1/invoices/3", nil),
		logging.NewEvents(zap.New(core)), errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestDecodeJSON_RejectsGarbage(t *testing.T) {
	var dst struct{ Name string }
	err := decodeJSON(httptest.NewRequest("POST", "/", strings.NewReader("{")), &dst)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, decodeJSON(httptest.NewRequest("POST", "/", strings.NewReader(`{"Name":"x"}`)), &dst))
	assert.Equal(t, "x", dst.Name)
}

func TestPathID(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": "12"})
	id, err := pathID(r)
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	r = mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": "0"})
	_, err = pathID(r)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
