// Package gossip runs the background anti-entropy protocol that drives
// eventual consistency: each node periodically performs a push-pull digest
// exchange with randomly chosen peers and merges whatever it was missing.
// The log is a join-semilattice over message IDs, so merges are idempotent
// and commutative and repeated rounds converge every live, connected node
// to the union of all accepted messages.
package gossip

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/metrics"
	"github.com/GildaBit/replog/internal/store"
	"github.com/GildaBit/replog/internal/transport"
)

// Config tunes the scheduler. Intervals are randomized per round within
// [MinInterval, MaxInterval] so nodes drift out of phase instead of
// exchanging in lockstep.
type Config struct {
	MinInterval time.Duration
	MaxInterval time.Duration
	Fanout      int           // peers contacted per round
	CallTimeout time.Duration // per-exchange deadline
}

// Scheduler is the per-node recurring anti-entropy task. It is explicit
// process-scoped state with a start/stop lifecycle so it can be built,
// driven and torn down deterministically in tests.
type Scheduler struct {
	log    *store.MessageLog
	view   *cluster.View
	tr     transport.Transport
	cfg    Config
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler builds a scheduler; it does nothing until Start.
func NewScheduler(log *store.MessageLog, view *cluster.View, tr transport.Transport, cfg Config, logger zerolog.Logger) *Scheduler {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 1 * time.Second
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval
	}
	if cfg.Fanout < 1 {
		cfg.Fanout = 1
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:    log,
		view:   view,
		tr:     tr,
		cfg:    cfg,
		logger: logger.With().Str("component", "gossip-scheduler").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the background loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info().
			Dur("min_interval", s.cfg.MinInterval).
			Dur("max_interval", s.cfg.MaxInterval).
			Int("fanout", s.cfg.Fanout).
			Msg("gossip started")

		for {
			timer := time.NewTimer(s.interval())
			select {
			case <-s.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.RunRound(s.ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for any in-flight round to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("gossip stopped")
}

// interval picks the next sleep uniformly within the configured bounds.
func (s *Scheduler) interval() time.Duration {
	spread := s.cfg.MaxInterval - s.cfg.MinInterval
	if spread <= 0 {
		return s.cfg.MinInterval
	}
	return s.cfg.MinInterval + time.Duration(rand.Int63n(int64(spread)))
}

// RunRound performs one anti-entropy round: a push-pull exchange with up to
// Fanout randomly chosen peers. A failure with one peer never blocks the
// others; the next scheduled round is the retry.
func (s *Scheduler) RunRound(ctx context.Context) {
	peers := s.view.Peers()
	if len(peers) == 0 {
		return
	}

	rand.Shuffle(len(peers), func(i, j int) {
		peers[i], peers[j] = peers[j], peers[i]
	})
	if len(peers) > s.cfg.Fanout {
		peers = peers[:s.cfg.Fanout]
	}

	metrics.GossipRoundsTotal.Inc()
	roundID := ulid.Make().String()

	for _, peer := range peers {
		s.exchangeWith(ctx, peer, roundID)
	}
}

// exchangeWith runs the push-pull protocol against one peer: send our
// digest, merge what we lack, then push back what the peer lacks.
func (s *Scheduler) exchangeWith(ctx context.Context, peer cluster.Peer, roundID string) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	req := transport.ExchangeRequest{
		From:   s.view.Self().ID,
		Digest: s.log.Digest(),
	}

	resp, err := s.tr.Exchange(callCtx, peer, req)
	if err != nil {
		metrics.PeerFailuresTotal.WithLabelValues(peer.ID, "exchange").Inc()
		s.logger.Warn().Err(err).
			Str("round", roundID).
			Str("peer", peer.ID).
			Msg("exchange failed, retrying next round")
		return
	}

	if merged := s.log.MergeAll(resp.Messages); merged > 0 {
		metrics.GossipMergedTotal.Add(float64(merged))
		s.logger.Info().
			Str("round", roundID).
			Str("peer", peer.ID).
			Int("merged", merged).
			Msg("merged messages from peer")
	}

	// Push half: hand the peer whatever its digest says it hasn't seen.
	theirs := s.log.MessagesAfter(resp.Digest)
	if len(theirs) == 0 {
		return
	}
	if err := s.tr.Push(callCtx, peer, theirs); err != nil {
		metrics.PeerFailuresTotal.WithLabelValues(peer.ID, "push").Inc()
		s.logger.Warn().Err(err).
			Str("round", roundID).
			Str("peer", peer.ID).
			Msg("push failed, retrying next round")
		return
	}
	metrics.GossipPushedTotal.Add(float64(len(theirs)))
	s.logger.Debug().
		Str("round", roundID).
		Str("peer", peer.ID).
		Int("pushed", len(theirs)).
		Msg("pushed messages to peer")
}
