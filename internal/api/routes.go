// Package api wires the small HTTP surface every core binary exposes:
// health, Prometheus metrics, pprof, and (for the executor/assembler) a
// read-only tail of recent trades — the "UI tail" consumer named in
// spec.md's stream table, made concrete.
package api

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arbitrage/internal/api/middleware"
	"arbitrage/internal/models"
	"arbitrage/internal/websocket"
)

// TradeTail is satisfied by the executor's and assembler's in-memory
// ring buffers.
type TradeTail interface {
	RecentTrades() []models.Trade
}

// Dependencies wires the optional extras a given binary's router exposes.
// Component is a short name ("scanner", "risk", "executor", ...) echoed
// on /healthz. Trades is nil for binaries with no trade tail (scanner,
// risk, simulator).
type Dependencies struct {
	Component string
	Trades    TradeTail
	Hub       *websocket.Hub
}

// SetupRoutes builds the router shared across cmd binaries: health,
// metrics, pprof/debug-runtime (Basic-Auth gated), and optionally
// /v1/trades/recent.
func SetupRoutes(deps Dependencies) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	router.HandleFunc("/healthz", healthHandler(deps.Component)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if deps.Trades != nil {
		router.HandleFunc("/v1/trades/recent", recentTradesHandler(deps.Trades)).Methods(http.MethodGet)
	}

	if deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	debug := router.PathPrefix("/debug").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/runtime", runtimeHandler)
	debug.HandleFunc("/pprof/", pprof.Index)
	debug.HandleFunc("/pprof/cmdline", pprof.Cmdline)
	debug.HandleFunc("/pprof/profile", pprof.Profile)
	debug.HandleFunc("/pprof/symbol", pprof.Symbol)
	debug.HandleFunc("/pprof/trace", pprof.Trace)

	return router
}

func healthHandler(component string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"component": component,
		})
	}
}

func recentTradesHandler(tail TradeTail) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tail.RecentTrades())
	}
}

func runtimeHandler(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"goroutines":  runtime.NumGoroutine(),
		"alloc_bytes": m.Alloc,
		"num_gc":      m.NumGC,
	})
}
