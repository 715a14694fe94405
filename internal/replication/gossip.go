package replication

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/metrics"
	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/store"
)

// GossipReplicator accepts every well-formed write locally and returns
// immediately; the gossip scheduler propagates it in the background. The
// write path never touches the network, which is the whole difference from
// the quorum path.
type GossipReplicator struct {
	log    *store.MessageLog
	view   *cluster.View
	logger zerolog.Logger
}

// NewGossipReplicator wires the gossip write path.
func NewGossipReplicator(log *store.MessageLog, view *cluster.View, logger zerolog.Logger) *GossipReplicator {
	return &GossipReplicator{
		log:    log,
		view:   view,
		logger: logger.With().Str("component", "gossip").Logger(),
	}
}

// Mode returns "gossip".
func (r *GossipReplicator) Mode() string { return "gossip" }

// Submit appends locally and reports accepted. Version assignment and
// insert happen atomically in AppendLocal, so concurrent submissions get
// distinct contiguous versions.
func (r *GossipReplicator) Submit(ctx context.Context, text, user string) (Result, error) {
	msg := models.Message{
		ID:         uuid.New().String(),
		Text:       text,
		User:       user,
		AcceptedAt: time.Now().UTC(),
	}
	r.log.AppendLocal(&msg)

	metrics.GossipWritesTotal.Inc()
	r.logger.Debug().
		Str("message_id", msg.ID).
		Uint64("version", msg.Version).
		Msg("accepted locally, propagation deferred to gossip")

	return Result{
		Status:   StatusAccepted,
		Acks:     1,
		Required: 1,
		Replicas: r.view.Size(),
		Message:  msg,
	}, nil
}
