package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", g.handleHealth())
	r.Get("/status", g.handleStatus())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", g.handleLogin())
		r.Post("/logout", g.handleLogout())
		r.Post("/clear", g.handleClear())
		r.Get("/state", g.handleState())
	})

	r.Get("/ws/chat", g.handleChat)

	r.Get("/", g.handleIndex())

	return r
}
