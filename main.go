// Command quoterd runs the ambient HTTP demonstration surface (§6) over the
// Router façade: a mock or Redis-backed pool source, gorilla/mux routing,
// and the same two-timeout http.Server shape the teacher's main uses.
package main

import (
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ammrouter/quoter/config"
	"github.com/ammrouter/quoter/internal/api"
	"github.com/ammrouter/quoter/internal/clock"
	"github.com/ammrouter/quoter/internal/collector"
	"github.com/ammrouter/quoter/internal/router"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	log.Println("Starting quoter with router façade...")

	var directory router.PoolDirectory
	var source router.PoolSource
	if config.AppConfig.Redis.Enabled {
		log.Printf("Using Redis pool source at %s", config.AppConfig.Redis.Addr)
		rs := collector.NewRedisSource(config.AppConfig.Redis.Addr, config.AppConfig.Redis.Password, config.AppConfig.Redis.Prefix)
		directory, source = rs, rs
	} else {
		log.Println("Using in-memory mock pool source")
		ms := collector.NewMockSource()
		directory, source = ms, ms
	}

	cfg := router.Config{
		FactoryAddress: config.AppConfig.Router.FactoryAddress,
		MaxHops:        config.AppConfig.Router.MaxHops,
		MaxSplits:      config.AppConfig.Router.MaxSplits,
		PoolCacheTTLMs: config.AppConfig.Router.PoolCacheTTLMs,
		EnableCache:    config.AppConfig.Router.EnableCache,
		MinLiquidity:   big.NewInt(config.AppConfig.Router.MinLiquidity),
	}

	rt, err := router.New(cfg, directory, source, clock.System{})
	if err != nil {
		log.Fatalf("Failed to construct router: %v", err)
	}

	handler := api.NewHandler(rt)

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/quote", handler.GetQuote).Methods("POST")
	r.HandleFunc("/api/v1/pools", handler.GetPools).Methods("GET")
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/config", handler.GetConfig).Methods("GET")
	r.HandleFunc("/cache/stats", handler.GetCacheStats).Methods("GET")

	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, `
        <html>
            <head><title>AMM Route Quoter</title></head>
            <body>
                <h1>AMM Route Quoter</h1>
                <ul>
                    <li>Server Port: %s</li>
                    <li>Max Hops: %d</li>
                    <li>Max Splits: %d</li>
                </ul>
                <p>Available endpoints:</p>
                <ul>
                    <li><a href="/api/v1/pools?tokenA=0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2&tokenB=0xdac17f958d2ee523a2206206994597c13d831ec7">GET /api/v1/pools</a> - Ranked routes between two tokens</li>
                    <li><a href="/config">GET /config</a> - View current configuration</li>
                    <li><a href="/cache/stats">GET /cache/stats</a> - Router statistics</li>
                    <li>POST /api/v1/quote - Quote endpoint</li>
                    <li><a href="/health">GET /health</a> - Health check</li>
                </ul>
            </body>
        </html>
        `, config.AppConfig.Server.Port, config.AppConfig.Router.MaxHops, config.AppConfig.Router.MaxSplits)
	})

	port := ":" + config.AppConfig.Server.Port
	log.Printf("HTTP server starting on http://localhost%s", port)

	server := &http.Server{
		Addr:         port,
		Handler:      r,
		ReadTimeout:  time.Duration(config.AppConfig.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.AppConfig.Server.WriteTimeout) * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}
