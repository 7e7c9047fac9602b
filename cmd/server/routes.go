package main

import (
	"fmt"
	"net/http"
	"strings"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/health", s.handleHealth)

	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/v1/swarasthanas", s.handleSwarasthanas)
	mux.HandleFunc("/api/v1/ragas", s.handleRagas)
	mux.HandleFunc("/api/v1/ragas/", s.handleRaga)
	mux.HandleFunc("/api/v1/tuning-presets", s.handleTuningPresets)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/history/", s.handleHistoryItem)

	return corsMiddleware(s.config.AllowedOrigins)(mux)
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler := s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Infof("RagaSense server starting on %s", addr)
	s.log.Infof("   Database: %s", s.config.DBPath)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health                   - Health check")
	s.log.Infof("   POST   /api/v1/analyze           - Analyze a WAV upload")
	s.log.Infof("   GET    /api/v1/swarasthanas      - List the 12 swara positions")
	s.log.Infof("   GET    /api/v1/ragas             - List the 72 Melakarta ragas")
	s.log.Infof("   GET    /api/v1/ragas/{key}       - Get a raga by number, name or alias")
	s.log.Infof("   GET    /api/v1/tuning-presets    - List Sa tuning presets")
	s.log.Infof("   GET    /api/v1/history           - List stored analyses")
	s.log.Infof("   GET    /api/v1/history/{id}      - Get a stored analysis")
	s.log.Infof("   DELETE /api/v1/history/{id}      - Delete a stored analysis")

	return http.ListenAndServe(addr, handler)
}

// pathSuffix extracts the trailing path element after a prefix, or "".
func pathSuffix(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}
