package handlers

import (
	"net/http"
	"time"
)

// StatsResponse represents the response from the stats endpoint. Archived
// is -1 when no archive is configured, to distinguish "disabled" from
// "empty".
type StatsResponse struct {
	NodeID      string            `json:"node_id"`
	Mode        string            `json:"mode"`
	Replicas    int               `json:"replicas"`
	Local       int               `json:"local_messages"`
	ByOrigin    map[string]uint64 `json:"highest_version_by_origin"`
	Archived    int64             `json:"archived_messages"`
	UptimeSecs  int64             `json:"uptime_seconds"`
	GeneratedAt string            `json:"generated_at"`
}

// Stats returns this node's replication statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	archived := int64(-1)
	if h.archive != nil {
		n, err := h.archive.CountMessages(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("archive count failed")
		} else {
			archived = n
		}
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		NodeID:      h.view.Self().ID,
		Mode:        h.repl.Mode(),
		Replicas:    h.view.Size(),
		Local:       h.log.Len(),
		ByOrigin:    h.log.Digest(),
		Archived:    archived,
		UptimeSecs:  int64(time.Since(h.started).Seconds()),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
