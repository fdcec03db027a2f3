// Package api is the ambient HTTP demonstration surface (§6): it exposes
// the Router façade over JSON the way the teacher exposes its aggregator
// router, performing request parsing, hex-address sanity checks on token
// identifiers, and marshalling Route/SplitRoute/RouteQuote value types.
// This surface is ambient glue, not part of the core's stable contract.
package api

import (
	"encoding/json"
	"log"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ammrouter/quoter/config"
	"github.com/ammrouter/quoter/internal/domain"
	"github.com/ammrouter/quoter/internal/router"
)

// Handler wires HTTP requests to a Router façade instance.
type Handler struct {
	router *router.Router
}

// NewHandler constructs a Handler around an already-configured Router.
func NewHandler(r *router.Router) *Handler {
	return &Handler{router: r}
}

// quoteRequest is the wire shape for POST /api/v1/quote.
type quoteRequest struct {
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	AmountIn string `json:"amountIn"`
	MaxHops  int    `json:"maxHops"`
	Split    bool   `json:"split"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

// GetQuote handles POST /api/v1/quote: a single best route, or (with
// split=true) an optimal split across several routes.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		writeError(w, http.StatusBadRequest, "Content-Type must be application/json")
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}

	if req.TokenIn == "" || req.TokenOut == "" {
		writeError(w, http.StatusBadRequest, "tokenIn and tokenOut are required")
		return
	}
	if !common.IsHexAddress(req.TokenIn) {
		writeError(w, http.StatusBadRequest, "Invalid tokenIn address")
		return
	}
	if !common.IsHexAddress(req.TokenOut) {
		writeError(w, http.StatusBadRequest, "Invalid tokenOut address")
		return
	}

	amountIn, ok := new(big.Int).SetString(req.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid input amount")
		return
	}

	tokenIn := domain.TokenId(req.TokenIn)
	tokenOut := domain.TokenId(req.TokenOut)

	if req.Split {
		split, err := h.router.FindOptimalSplit(r.Context(), tokenIn, tokenOut, amountIn, 0)
		if err != nil {
			writeError(w, statusFor(err), "Split quote failed: "+err.Error())
			return
		}
		quote, err := h.router.GetSplitQuote(split, amountIn)
		if err != nil {
			writeError(w, statusFor(err), "Split quote failed: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, quote)
		return
	}

	route, err := h.router.FindBestRoute(r.Context(), tokenIn, tokenOut, amountIn, req.MaxHops)
	if err != nil {
		writeError(w, statusFor(err), "Quote calculation failed: "+err.Error())
		return
	}
	quote, err := h.router.GetRouteQuote(route, amountIn)
	if err != nil {
		writeError(w, statusFor(err), "Quote calculation failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// statusFor maps a domain error Kind to the nearest HTTP status.
func statusFor(err error) int {
	kind, ok := domain.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case domain.InvalidArgument, domain.InvalidAmount, domain.InvalidTokenPair, domain.InvalidConfiguration:
		return http.StatusBadRequest
	case domain.NoRouteFound, domain.InsufficientLiquidity:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetPools handles GET /api/v1/pools: every ranked route between the
// tokenA/tokenB query parameters, at the notional ranking amount.
func (h *Handler) GetPools(w http.ResponseWriter, r *http.Request) {
	tokenA := r.URL.Query().Get("tokenA")
	tokenB := r.URL.Query().Get("tokenB")
	if tokenA == "" || tokenB == "" {
		writeError(w, http.StatusBadRequest, "Both tokenA and tokenB parameters are required")
		return
	}
	if !common.IsHexAddress(tokenA) || !common.IsHexAddress(tokenB) {
		writeError(w, http.StatusBadRequest, "tokenA and tokenB must be hex addresses")
		return
	}

	routes, err := h.router.FindAllRoutes(r.Context(), domain.TokenId(tokenA), domain.TokenId(tokenB), 0)
	if err != nil {
		writeError(w, statusFor(err), "Failed to fetch routes: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tokenA": tokenA,
		"tokenB": tokenB,
		"count":  len(routes),
		"routes": routes,
	})
}

// GetCacheStats handles GET /cache/stats.
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.router.Stats())
}

// GetConfig handles GET /config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"port":          config.AppConfig.Server.Port,
			"read_timeout":  config.AppConfig.Server.ReadTimeout,
			"write_timeout": config.AppConfig.Server.WriteTimeout,
		},
		"router": map[string]interface{}{
			"factory_address":   config.AppConfig.Router.FactoryAddress,
			"max_hops":          config.AppConfig.Router.MaxHops,
			"max_splits":        config.AppConfig.Router.MaxSplits,
			"pool_cache_ttl_ms": config.AppConfig.Router.PoolCacheTTLMs,
			"enable_cache":      config.AppConfig.Router.EnableCache,
		},
	})
}
