package api

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ammrouter/quoter/config"
	"github.com/ammrouter/quoter/internal/clock"
	"github.com/ammrouter/quoter/internal/collector"
	"github.com/ammrouter/quoter/internal/router"
)

const (
	weth = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	usdt = "0xdac17f958d2ee523a2206206994597c13d831ec7"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	src := collector.NewMockSource()
	cfg := router.DefaultConfig("0x0000000000000000000000000000000000000000")
	r, err := router.New(cfg, src, src, clock.NewManual(0))
	assert.NoError(t, err)
	return NewHandler(r)
}

func TestGetQuoteSuccess(t *testing.T) {
	handler := newTestHandler(t)

	reqBody := map[string]interface{}{
		"tokenIn":  weth,
		"tokenOut": usdt,
		"amountIn": big.NewInt(1_000_000_000_000_000).String(), // 0.001 WETH
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest("POST", "/api/v1/quote", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.GetQuote(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "Route")
	assert.Contains(t, response, "Hops")
}

func TestGetQuoteSplit(t *testing.T) {
	handler := newTestHandler(t)

	reqBody := map[string]interface{}{
		"tokenIn":  weth,
		"tokenOut": usdt,
		"amountIn": big.NewInt(1_000_000_000_000_000).String(),
		"split":    true,
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest("POST", "/api/v1/quote", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.GetQuote(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
}

func TestGetQuoteInvalidJSON(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("POST", "/api/v1/quote", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.GetQuote(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetQuoteInvalidContentType(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("POST", "/api/v1/quote", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	handler.GetQuote(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetQuoteMissingParameters(t *testing.T) {
	handler := newTestHandler(t)

	testCases := []struct {
		name    string
		reqBody map[string]interface{}
	}{
		{"missing tokenIn", map[string]interface{}{"tokenOut": usdt, "amountIn": "100"}},
		{"missing tokenOut", map[string]interface{}{"tokenIn": weth, "amountIn": "100"}},
		{"non-hex tokenIn", map[string]interface{}{"tokenIn": "not-hex", "tokenOut": usdt, "amountIn": "100"}},
		{"zero amount", map[string]interface{}{"tokenIn": weth, "tokenOut": usdt, "amountIn": "0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.reqBody)
			req := httptest.NewRequest("POST", "/api/v1/quote", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.GetQuote(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetPools(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/pools?tokenA="+weth+"&tokenB="+usdt, nil)
	w := httptest.NewRecorder()

	handler.GetPools(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, weth, response["tokenA"])
	assert.Equal(t, usdt, response["tokenB"])
}

func TestGetPoolsMissingParameters(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/pools?tokenA="+weth, nil)
	w := httptest.NewRecorder()

	handler.GetPools(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.HealthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestGetConfig(t *testing.T) {
	handler := newTestHandler(t)
	assert.NoError(t, config.Init())

	req := httptest.NewRequest("GET", "/config", nil)
	w := httptest.NewRecorder()

	handler.GetConfig(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "server")
	assert.Contains(t, response, "router")
}

func TestGetCacheStats(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/cache/stats", nil)
	w := httptest.NewRecorder()

	handler.GetCacheStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "TotalRoutesFound")
}
