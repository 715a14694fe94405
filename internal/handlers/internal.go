package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/transport"
)

// AckResponse acknowledges an internal replication call.
type AckResponse struct {
	Status string `json:"status"`
	NodeID string `json:"node_id"`
	Note   string `json:"note,omitempty"`
	Merged int    `json:"merged,omitempty"`
}

// InternalReplicate stores a message fanned out by a quorum coordinator.
// Receipt of a duplicate still acks: the coordinator counts acks, and a
// message already present is by definition replicated here.
func (h *Handler) InternalReplicate(w http.ResponseWriter, r *http.Request) {
	var msg models.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg.ID == "" {
		h.Error(w, http.StatusBadRequest, "message id is required")
		return
	}

	resp := AckResponse{Status: "ack", NodeID: h.view.Self().ID}
	if h.log.Append(msg) {
		h.logger.Debug().
			Str("message_id", msg.ID).
			Str("origin", msg.Origin).
			Msg("stored replicated message")
	} else {
		resp.Note = "duplicate ignored"
	}

	h.JSON(w, http.StatusOK, resp)
}

// InternalExchange answers a peer's anti-entropy digest: returns our own
// digest plus every message the peer's digest shows it lacks.
func (h *Handler) InternalExchange(w http.ResponseWriter, r *http.Request) {
	var req transport.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	missing := h.log.MessagesAfter(req.Digest)
	if len(missing) > 0 {
		h.logger.Debug().
			Str("peer", req.From).
			Int("missing", len(missing)).
			Msg("peer behind, returning missing messages")
	}

	h.JSON(w, http.StatusOK, transport.ExchangeResponse{
		From:     h.view.Self().ID,
		Digest:   h.log.Digest(),
		Messages: missing,
	})
}

// InternalPush merges a batch of messages pushed by a gossiping peer.
// The merge is idempotent, so replays and overlapping batches are safe.
func (h *Handler) InternalPush(w http.ResponseWriter, r *http.Request) {
	var req transport.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	merged := h.log.MergeAll(req.Messages)
	if merged > 0 {
		h.logger.Debug().
			Str("peer", req.From).
			Int("merged", merged).
			Msg("merged pushed messages")
	}

	h.JSON(w, http.StatusOK, AckResponse{
		Status: "ack",
		NodeID: h.view.Self().ID,
		Merged: merged,
	})
}
