package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/DoyleJ11/cards-client/internal/client"
)

// View serves the current reconciled view state as JSON. Snapshots are taken
// through the client loop, so a response never shows a half-applied event.
func View(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := c.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
