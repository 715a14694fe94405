package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/replication"
	"github.com/GildaBit/replog/internal/store"
	"github.com/GildaBit/replog/internal/transport"
)

// Client-facing input limits.
const (
	maxTextBytes = 4096
	maxUserBytes = 100
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	log      *store.MessageLog
	repl     replication.Replicator
	view     *cluster.View
	archive  store.Archive     // nil when archiving is disabled
	redis    *store.RedisStore // nil when rate limiting is disabled
	liveness func() map[string]transport.PeerStatus
	logger   zerolog.Logger
	started  time.Time
}

// NewHandler creates a Handler wired to the node's replication stack.
// archive, redis and liveness may be nil.
func NewHandler(
	log *store.MessageLog,
	repl replication.Replicator,
	view *cluster.View,
	archive store.Archive,
	redis *store.RedisStore,
	liveness func() map[string]transport.PeerStatus,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		log:      log,
		repl:     repl,
		view:     view,
		archive:  archive,
		redis:    redis,
		liveness: liveness,
		logger:   logger.With().Str("component", "handlers").Logger(),
		started:  time.Now(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeUser trims and limits the user name, removing control characters.
func sanitizeUser(user string) string {
	user = strings.TrimSpace(user)

	user = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, user)

	if len(user) > maxUserBytes {
		user = user[:maxUserBytes]
	}

	return user
}
