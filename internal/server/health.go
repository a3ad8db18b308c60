package server

import (
	"encoding/json"
	"net/http"
)

// healthDoc is the JSON body served by GET /health (§6): an external
// collaborator's contract is that it reads the same counters the
// dispatcher writes, nothing more.
type healthDoc struct {
	Status              string `json:"status"`
	UptimeSeconds       int64  `json:"uptime_seconds"`
	ActiveConnections   int64  `json:"active_connections"`
	TotalConnections    int64  `json:"total_connections"`
	RejectedConnections int64  `json:"rejected_connections"`
	MemoryUsed          int64  `json:"memory_used"`
	MaxMemory           int64  `json:"max_memory"`
	EvictedKeys         uint64 `json:"evicted_keys"`
	TotalCommands       int64  `json:"total_commands"`
}

// HealthHandler returns an http.Handler for GET /health. Status is "ok"
// whenever the listener is live; Shutdown closes the listener first, so a
// request arriving after Shutdown naturally reports "stopped".
func (s *Server) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		select {
		case <-s.shutdown:
			status = "stopped"
		default:
		}

		doc := healthDoc{
			Status:              status,
			UptimeSeconds:       s.Uptime(),
			ActiveConnections:   s.ActiveConnections(),
			TotalConnections:    s.TotalConnections(),
			RejectedConnections: s.RejectedConnections(),
			MemoryUsed:          s.UsedMemory(),
			MaxMemory:           s.MaxMemory(),
			EvictedKeys:         s.EvictedKeys(),
			TotalCommands:       s.TotalCommands(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	})
}
