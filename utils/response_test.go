package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusNotFound, "Product not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Product not found"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Size string `json:"size"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"size":"M"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, "M", v.Size)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"size":`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), req, &v))
}
