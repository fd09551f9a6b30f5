package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "provenance/pkg/domain-errors"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteErrorMapsCodes(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
		reason      string
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "serial is required"), http.StatusBadRequest, "validation_error", "serial is required", ""},
		{"missing asset", dErrors.New(dErrors.CodeNotFound, "asset not found"), http.StatusNotFound, "not_found", "asset not found", ""},
		{"duplicate serial", dErrors.New(dErrors.CodeConflict, "serial already registered"), http.StatusConflict, "conflict", "serial already registered", ""},
		{"bad transition", dErrors.New(dErrors.CodeInvalidTransition, "deal is not pending"), http.StatusConflict, "invalid_transition", "deal is not pending", ""},
		{"not the owner", dErrors.New(dErrors.CodeForbidden, "not the owner"), http.StatusForbidden, "forbidden", "not the owner", ""},
		{"cooldown", dErrors.Denied(dErrors.ReasonSaleCooldown, "seller is in cooldown"), http.StatusUnprocessableEntity, "eligibility_denied", "seller is in cooldown", "sale_cooldown"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "commit timed out"), http.StatusGatewayTimeout, "timeout", "commit timed out", ""},
		{"internal hides message", dErrors.New(dErrors.CodeInternal, "pq: relation missing"), http.StatusInternalServerError, "internal_error", "", ""},
		{"untyped error is internal", errors.New("boom"), http.StatusInternalServerError, "internal_error", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.description, body.ErrorDescription)
			assert.Equal(t, tt.reason, body.Reason)
		})
	}
}

func TestWriteJSONWithoutBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}

type registerBody struct {
	Serial string `json:"serial"`
}

func (b *registerBody) Validate() error {
	b.Serial = strings.TrimSpace(b.Serial)
	if b.Serial == "" {
		return dErrors.New(dErrors.CodeValidation, "serial is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := context.Background()

	t.Run("normalizes through Validate", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/assets", strings.NewReader(`{"serial":"  PF-1 "}`))
		w := httptest.NewRecorder()
		got, ok := DecodeAndPrepare[registerBody](w, r, logger, ctx, "req-1")
		require.True(t, ok)
		assert.Equal(t, "PF-1", got.Serial)
	})

	t.Run("unknown field is a bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/assets", strings.NewReader(`{"serial":"PF-1","owner":"x"}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[registerBody](w, r, logger, ctx, "req-2")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w).Error)
	})

	t.Run("validation failure is written", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/assets", strings.NewReader(`{"serial":"   "}`))
		w := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[registerBody](w, r, logger, ctx, "req-3")
		assert.False(t, ok)
		assert.Equal(t, "validation_error", decodeError(t, w).Error)
	})
}

func TestWriteServiceErrorLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WriteServiceError(context.Background(), httptest.NewRecorder(), logger, "approve failed",
		dErrors.New(dErrors.CodeIntegrityViolation, "ledger gap"), "deal_id", "d-1")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"deal_id":"d-1"`)

	buf.Reset()
	WriteServiceError(context.Background(), httptest.NewRecorder(), logger, "approve failed",
		dErrors.New(dErrors.CodeForbidden, "not the seller"))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
