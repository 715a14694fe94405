package handlers

import (
	"net/http"
	"time"

	"github.com/GildaBit/replog/internal/transport"
)

// PeerInfo represents one cluster member and what this node last saw of it.
type PeerInfo struct {
	ID        string `json:"id"`
	Addr      string `json:"addr"`
	LastOK    string `json:"last_ok,omitempty"`
	LastError string `json:"last_error,omitempty"`
	LastErrAt string `json:"last_error_at,omitempty"`
}

// PeersResponse represents the cluster membership response.
type PeersResponse struct {
	NodeID     string     `json:"node_id"`
	Mode       string     `json:"mode"`
	QuorumSize int        `json:"quorum_size"`
	Peers      []PeerInfo `json:"peers"`
}

// Peers returns the static cluster view annotated with transport liveness.
// Liveness is observational only; membership never changes at runtime.
func (h *Handler) Peers(w http.ResponseWriter, r *http.Request) {
	var seen map[string]transport.PeerStatus
	if h.liveness != nil {
		seen = h.liveness()
	}

	peers := h.view.Peers()
	infos := make([]PeerInfo, 0, len(peers))
	for _, p := range peers {
		info := PeerInfo{ID: p.ID, Addr: p.Addr}
		if st, ok := seen[p.ID]; ok {
			if !st.LastOK.IsZero() {
				info.LastOK = st.LastOK.UTC().Format(time.RFC3339)
			}
			if st.LastError != "" {
				info.LastError = st.LastError
				info.LastErrAt = st.LastErrAt.UTC().Format(time.RFC3339)
			}
		}
		infos = append(infos, info)
	}

	h.JSON(w, http.StatusOK, PeersResponse{
		NodeID:     h.view.Self().ID,
		Mode:       h.repl.Mode(),
		QuorumSize: h.view.QuorumSize(),
		Peers:      infos,
	})
}
