package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/replication"
)

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Text string `json:"text"`
	User string `json:"user,omitempty"`
}

// PostMessageResponse represents the post message response. Acks and
// Required are populated for quorum writes only.
type PostMessageResponse struct {
	Status    string `json:"status"`
	Mode      string `json:"mode"`
	MessageID string `json:"message_id,omitempty"`
	Replicas  int    `json:"replicas"`
	Acks      int    `json:"acks,omitempty"`
	Required  int    `json:"required,omitempty"`
}

// MessagesResponse represents the local read response. Scope is always
// "local": reads never fan out, so in gossip mode the list may lag writes
// accepted elsewhere until anti-entropy catches up.
type MessagesResponse struct {
	NodeID   string           `json:"node_id"`
	Mode     string           `json:"mode"`
	Scope    string           `json:"scope"`
	Count    int              `json:"count"`
	Messages []models.Message `json:"messages"`
}

// PostMessage handles a client write under the node's configured protocol.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Text) > maxTextBytes {
		h.Error(w, http.StatusUnprocessableEntity, "text too long (max 4096 bytes)")
		return
	}

	user := sanitizeUser(req.User)
	if user == "" {
		user = "anonymous"
	}

	result, err := h.repl.Submit(r.Context(), req.Text, user)
	if err != nil {
		if errors.Is(err, replication.ErrQuorumNotReached) {
			h.logger.Warn().
				Int("acks", result.Acks).
				Int("required", result.Required).
				Msg("write rejected, quorum not reached")
			h.JSON(w, http.StatusServiceUnavailable, PostMessageResponse{
				Status:   replication.StatusRejected,
				Mode:     h.repl.Mode(),
				Replicas: result.Replicas,
				Acks:     result.Acks,
				Required: result.Required,
			})
			return
		}
		h.Error(w, http.StatusInternalServerError, "write failed")
		return
	}

	status := http.StatusOK
	if result.Status == replication.StatusAccepted {
		// Gossip writes are durable locally but not yet propagated.
		status = http.StatusAccepted
	}

	h.JSON(w, status, PostMessageResponse{
		Status:    result.Status,
		Mode:      h.repl.Mode(),
		MessageID: result.Message.ID,
		Replicas:  result.Replicas,
		Acks:      result.Acks,
		Required:  result.Required,
	})
}

// GetMessages returns this node's local view of the board in insertion
// order.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	msgs := h.log.ListAll()
	h.JSON(w, http.StatusOK, MessagesResponse{
		NodeID:   h.view.Self().ID,
		Mode:     h.repl.Mode(),
		Scope:    "local",
		Count:    len(msgs),
		Messages: msgs,
	})
}
