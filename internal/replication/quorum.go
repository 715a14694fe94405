package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/metrics"
	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/store"
	"github.com/GildaBit/replog/internal/transport"
)

// QuorumReplicator commits a write only after a majority of the cluster
// (self included) has acknowledged it. The fan-out is concurrent and each
// peer call is independently timeout-bounded, so the write latency tracks
// the slowest *necessary* responder, not the slowest peer overall.
type QuorumReplicator struct {
	log     *store.MessageLog
	view    *cluster.View
	tr      transport.Transport
	timeout time.Duration
	logger  zerolog.Logger
}

// NewQuorumReplicator wires the quorum write path.
func NewQuorumReplicator(log *store.MessageLog, view *cluster.View, tr transport.Transport, timeout time.Duration, logger zerolog.Logger) *QuorumReplicator {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &QuorumReplicator{
		log:     log,
		view:    view,
		tr:      tr,
		timeout: timeout,
		logger:  logger.With().Str("component", "quorum").Logger(),
	}
}

// Mode returns "quorum".
func (r *QuorumReplicator) Mode() string { return "quorum" }

// Submit runs one quorum write. The message is constructed at the origin
// and fanned out to every peer concurrently; it is appended to the local
// log only at commit time, so a rejected write behaves as if it never
// happened on this node. Peers that acked a rejected write keep their copy;
// that is the accepted cost of the CP choice, matching the protocol's
// commit definition (visibility is only promised for committed writes).
func (r *QuorumReplicator) Submit(ctx context.Context, text, user string) (Result, error) {
	msg := models.Message{
		ID:         uuid.New().String(),
		Text:       text,
		User:       user,
		Origin:     r.view.Self().ID,
		Version:    r.log.NextVersion(),
		AcceptedAt: time.Now().UTC(),
	}

	peers := r.view.Peers()
	required := r.view.QuorumSize()
	replicas := r.view.Size()
	acks := 1 // self-ack: the origin always accepts its own write

	if acks >= required {
		// Single-node cluster: quorum is satisfied trivially.
		r.log.Append(msg)
		metrics.QuorumWritesTotal.WithLabelValues("committed").Inc()
		metrics.QuorumAcks.Observe(float64(acks))
		return Result{Status: StatusCommitted, Acks: acks, Required: required, Replicas: replicas, Message: msg}, nil
	}

	// Fan out concurrently. Each call gets its own timeout derived from
	// context.Background(), not from ctx: once issued, replicate calls are
	// never retracted even if the client abandons the request, so a
	// committed-on-peers-but-client-timed-out state stays reachable and
	// valid. The channel is buffered so laggards never leak goroutines.
	results := make(chan bool, len(peers))
	for _, peer := range peers {
		go func(p cluster.Peer) {
			callCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()

			start := time.Now()
			err := r.tr.Replicate(callCtx, p, msg)
			metrics.ReplicateDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.PeerFailuresTotal.WithLabelValues(p.ID, "replicate").Inc()
				r.logger.Warn().Err(err).Str("peer", p.ID).Str("message_id", msg.ID).Msg("replicate failed")
			}
			results <- err == nil
		}(peer)
	}

	outstanding := len(peers)
	for outstanding > 0 {
		select {
		case ok := <-results:
			outstanding--
			if ok {
				acks++
			}

			if acks >= required {
				// Commit without waiting for stragglers; their calls are
				// already in flight and will converge those peers.
				r.log.Append(msg)
				metrics.QuorumWritesTotal.WithLabelValues("committed").Inc()
				metrics.QuorumAcks.Observe(float64(acks))
				r.logger.Info().
					Str("message_id", msg.ID).
					Int("acks", acks).
					Int("required", required).
					Msg("quorum committed")
				return Result{Status: StatusCommitted, Acks: acks, Required: required, Replicas: replicas, Message: msg}, nil
			}

			if acks+outstanding < required {
				// Mathematically impossible to reach quorum; reject now
				// instead of waiting for remaining responses.
				metrics.QuorumWritesTotal.WithLabelValues("rejected").Inc()
				metrics.QuorumAcks.Observe(float64(acks))
				r.logger.Warn().
					Str("message_id", msg.ID).
					Int("acks", acks).
					Int("required", required).
					Int("replicas", replicas).
					Msg("quorum failed")
				return Result{Status: StatusRejected, Acks: acks, Required: required, Replicas: replicas, Message: msg},
					fmt.Errorf("%w: %d/%d acks, required %d", ErrQuorumNotReached, acks, replicas, required)
			}

		case <-ctx.Done():
			// Caller gave up. In-flight replicate calls continue to their
			// own deadlines; this node just stops waiting for the outcome.
			metrics.QuorumWritesTotal.WithLabelValues("rejected").Inc()
			return Result{Status: StatusRejected, Acks: acks, Required: required, Replicas: replicas, Message: msg},
				fmt.Errorf("write abandoned: %w", ctx.Err())
		}
	}

	// Unreachable: the loop always exits through commit or impossibility,
	// since outstanding==0 implies acks+outstanding < required.
	metrics.QuorumWritesTotal.WithLabelValues("rejected").Inc()
	return Result{Status: StatusRejected, Acks: acks, Required: required, Replicas: replicas, Message: msg},
		fmt.Errorf("%w: %d/%d acks, required %d", ErrQuorumNotReached, acks, replicas, required)
}
