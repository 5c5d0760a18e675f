// Package statusapi exposes the status read service over HTTP, the
// engine's external interface for spec §6's read endpoints.
package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/poolguard/uptime/internal/statussvc"
)

// Server is the HTTP API server fronting the status read service.
type Server struct {
	svc    *statussvc.Service
	addr   string
	cron   string
	server *http.Server
}

// NewServer builds a Server that will listen on addr (host:port). cron is
// reported on /health so an operator can confirm which reconciliation
// schedule this deployment is paired with.
func NewServer(svc *statussvc.Service, addr, cron string) *Server {
	return &Server{svc: svc, addr: addr, cron: cron}
}

// Start builds the router and blocks serving HTTP until the server is
// shut down or fails.
func (s *Server) Start() error {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/status/{id}", s.handleGetStatus)
	r.Get("/status", s.handleGetStatusMany)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("statusapi: listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{
		"ok":      true,
		"service": "statusapi",
		"cron":    s.cron,
	})
}

// jsonResponse sends a JSON response.
func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("statusapi: failed to encode JSON response: %v", err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, fmt.Sprintf(`{"error":%q}`, msg), http.StatusBadRequest)
}
