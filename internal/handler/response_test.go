package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"missing field", apperror.MissingField("email"), http.StatusBadRequest, apperror.CodeMissingField, "email"},
		{"invalid state", apperror.InvalidState(apperror.CodeNoOpenSession, "no open session"), http.StatusBadRequest, apperror.CodeNoOpenSession, ""},
		{"unauthenticated", apperror.Unauthenticated(apperror.CodeInvalidCredentials, "bad"), http.StatusUnauthorized, apperror.CodeInvalidCredentials, ""},
		{"forbidden", apperror.Forbidden("admin access required"), http.StatusForbidden, "forbidden", ""},
		{"not found", apperror.NotFound("user", "u1"), http.StatusNotFound, "not_found", ""},
		{"conflict", apperror.Conflict(apperror.CodeEmailTaken, "taken"), http.StatusConflict, apperror.CodeEmailTaken, ""},
		{"wrapped", fmt.Errorf("service: %w", apperror.Forbidden("no")), http.StatusForbidden, "forbidden", ""},
		{"unknown", errors.New("sqlite: disk I/O error"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
			assert.NotContains(t, body.Message, "sqlite")
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Task string `json:"task"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"task":"T"}`))
		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &p))
		assert.Equal(t, "T", p.Task)
	})

	t.Run("empty body", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &p))
		assert.Empty(t, p.Task)
	})

	t.Run("malformed", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"task":`))
		err := decodeJSON(httptest.NewRecorder(), req, &p)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHandleHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		want       string
	}{
		{"healthy", stubPinger{}, http.StatusOK, "healthy"},
		{"database down", stubPinger{err: errors.New("closed")}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, logger)
			rr := httptest.NewRecorder()
			h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.want, body.Status)
			assert.NotEmpty(t, body.Timestamp)
		})
	}
}
