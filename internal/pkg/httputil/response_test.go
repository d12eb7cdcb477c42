package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.Validation("cannot pause campaign in status DRAFT (requires RUNNING)"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "cannot pause campaign in status DRAFT (requires RUNNING)", body.Error)
	assert.Equal(t, "validation", body.Code)
}

func TestWriteErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.Internal("put campaign", errors.New("dial tcp 10.0.0.1:443: timeout")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec).Error)
}

func TestWriteErrorAuthIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.Unauthorized("session expired"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Error)
}

func TestWriteErrorUpstreamKeepsProviderMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.Upstream("whatsapp", errors.New("(#131026) message undeliverable")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "#131026")
}

func TestDecodeRejectsBadJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))

	var dst map[string]any
	assert.False(t, Decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
