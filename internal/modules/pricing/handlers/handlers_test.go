package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *Handler {
	return NewHandler(0.05, zerolog.Nop())
}

func TestHandlePrice(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/pricing/price",
		strings.NewReader(`{"type":"call","spot":100,"strike":100,"years":1,"sigma":0.20}`))
	rec := httptest.NewRecorder()
	h.HandlePrice(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":10.45`)
}

func TestHandlePriceRejectsNonPhysicalInputs(t *testing.T) {
	h := newTestHandler()

	cases := []string{
		`{"type":"call","spot":-5,"strike":100,"years":1,"sigma":0.2}`,
		`{"type":"put","spot":100,"strike":0,"years":1,"sigma":0.2}`,
		`{"type":"call","spot":100,"strike":100,"years":1,"sigma":-0.1}`,
		`{"type":"straddle","spot":100,"strike":100,"years":1,"sigma":0.2}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/pricing/price", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandlePrice(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestHandleGreeksUsesDefaultRate(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/pricing/greeks",
		strings.NewReader(`{"type":"call","spot":100,"strike":100,"years":1,"sigma":0.20}`))
	rec := httptest.NewRecorder()
	h.HandleGreeks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// delta ~= 0.6368 with r = 5%
	assert.Contains(t, rec.Body.String(), `"delta":0.63`)
}

func TestHandleGreeksZeroVolatility(t *testing.T) {
	h := newTestHandler()

	// sigma == 0 is a valid input; the response must be a complete JSON
	// payload, never an empty body from the encoder choking on NaN.
	req := httptest.NewRequest(http.MethodPost, "/api/pricing/greeks",
		strings.NewReader(`{"type":"call","spot":110,"strike":100,"years":1,"sigma":0}`))
	rec := httptest.NewRecorder()
	h.HandleGreeks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"delta":1`)
	assert.Contains(t, rec.Body.String(), `"gamma":0`)
	assert.NotContains(t, rec.Body.String(), "NaN")
}
