// Package rest exposes the turn pipeline over HTTP: one synchronous
// envelope per question, plus a websocket upgrade for progress events.
package rest

import (
	"net/http"

	"github.com/rs/zerolog"

	"nugget/internal/infrastructure/authstub"
	"nugget/internal/infrastructure/progress"
	"nugget/internal/orchestrator"
)

type ServerConfig struct {
	EnableCORS bool
}

type Server struct {
	orch   *orchestrator.Orchestrator
	wsHand *progress.Handler
	auth   *authstub.Validator
	log    zerolog.Logger
	mux    *http.ServeMux
	cfg    ServerConfig
}

func NewServer(orch *orchestrator.Orchestrator, wsHand *progress.Handler, auth *authstub.Validator, log zerolog.Logger, cfg ServerConfig) *Server {
	s := &Server{orch: orch, wsHand: wsHand, auth: auth, log: log, mux: http.NewServeMux(), cfg: cfg}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleHealth)
	s.mux.Handle("POST /api/v1/turn", s.auth.Middleware(http.HandlerFunc(s.handleTurn)))
	s.mux.Handle("POST /api/v1/file-turn", s.auth.Middleware(http.HandlerFunc(s.handleFileTurn)))
	s.mux.Handle("POST /api/v1/mixed-turn", s.auth.Middleware(http.HandlerFunc(s.handleMixedTurn)))
	s.mux.Handle("GET /ws/progress", s.auth.Middleware(s.wsHand))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := http.Handler(s.mux)
	handler = contentTypeMiddleware(handler)
	if s.cfg.EnableCORS {
		handler = corsMiddleware(handler)
	}
	handler = recoveryMiddleware(s.log, handler)
	handler = loggingMiddleware(s.log, handler)
	handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"status":"ok"}`))
}
