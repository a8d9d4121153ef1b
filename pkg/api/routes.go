package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing
	mux.HandleFunc("POST /api/search", s.HandleSearch)
	mux.HandleFunc("POST /api/grep", s.HandleGrep)
	mux.HandleFunc("GET /api/ws", s.HandleWebsocket)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
