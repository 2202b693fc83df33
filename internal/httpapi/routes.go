package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/cards-client/internal/client"
)

// The client exposes a small local HTTP surface for the UI layer: a health
// probe and the current view snapshot. Rendering itself lives entirely on
// the other side of this boundary.

func SetupRoutes(c *client.Client) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/view", View(c))
	return r
}
