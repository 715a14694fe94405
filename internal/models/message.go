package models

import "time"

// Message is a single entry in the replicated board log. Messages are
// immutable once accepted: replication copies them between nodes but never
// rewrites them, so identity-based deduplication is enough to merge state.
type Message struct {
	ID         string    `json:"id"`          // UUID, assigned at the origin node
	Text       string    `json:"text"`
	User       string    `json:"user"`
	Origin     string    `json:"origin_node"` // node that accepted the write
	Version    uint64    `json:"version"`     // per-origin counter, assigned at the origin
	AcceptedAt time.Time `json:"accepted_at"`
}
