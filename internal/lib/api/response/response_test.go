package response

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/lib/apperr"
)

func TestError_StatusByKind(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperr.NotFound(apperr.CodeOrderNotFound, "order 5 not found", nil), http.StatusNotFound, apperr.CodeOrderNotFound},
		{"validation", apperr.Validation("quality_score must be between 1 and 10"), http.StatusUnprocessableEntity, apperr.CodeValidation},
		{"business rule", apperr.BusinessRule(apperr.CodeMaterialShortage, "insufficient materials"), http.StatusUnprocessableEntity, apperr.CodeMaterialShortage},
		{"unclassified", errors.New("connection refused"), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			Error(rr, req, slog.Default(), tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestError_InternalCauseIsHidden(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(rr, req, slog.Default(), errors.New("dial tcp 10.0.0.5:3306: refused"))

	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		WorkerID *int64 `json:"worker_id"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(req, &body))
	assert.Nil(t, body.WorkerID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"worker_id": 4}`))
	require.NoError(t, DecodeJSON(req, &body))
	require.NotNil(t, body.WorkerID)
	assert.Equal(t, int64(4), *body.WorkerID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := DecodeJSON(req, &body)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestIDParam(t *testing.T) {
	withParam := func(v string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", v)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := IDParam(withParam("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := IDParam(withParam(bad), "id")
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), bad)
	}
}
