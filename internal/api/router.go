// Package api exposes the wizard, the bulk-import and best-contracts
// services, and the stored state over HTTP, plus a websocket stream of
// sensor state changes.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/sectrack/internal/api/handlers"
	"github.com/wonny/sectrack/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	flowHandler *handlers.FlowHandler,
	serviceHandler *handlers.ServiceHandler,
	stateHandler *handlers.StateHandler,
	streamHandler *handlers.StreamHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Wizard flows
	api.HandleFunc("/flows", flowHandler.Create).Methods("POST")
	api.HandleFunc("/flows/{id}", flowHandler.Get).Methods("GET")
	api.HandleFunc("/flows/{id}/input", flowHandler.Submit).Methods("POST")

	// Services
	api.HandleFunc("/services/generate_contracts", serviceHandler.GenerateContracts).Methods("POST")
	api.HandleFunc("/services/best_contracts", serviceHandler.BestContracts).Methods("POST")

	// Stored state and live entities
	api.HandleFunc("/contracts", stateHandler.GetContracts).Methods("GET")
	api.HandleFunc("/aliases", stateHandler.GetAliases).Methods("GET")
	api.HandleFunc("/top-contracts", stateHandler.GetTopContracts).Methods("GET")
	api.HandleFunc("/entities", stateHandler.GetEntities).Methods("GET")
	api.HandleFunc("/entities/{id}", stateHandler.GetEntity).Methods("GET")

	// State-change stream
	r.HandleFunc("/ws", streamHandler.Stream)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "sectrack-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
