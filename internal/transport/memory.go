package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/store"
)

// ErrPeerDown is the failure injected for partitioned peers in the
// in-memory transport.
var ErrPeerDown = errors.New("peer unreachable")

// MemoryTransport connects MessageLogs in a single process. Tests use it to
// run multi-node replication scenarios without sockets, and to simulate
// partitions by marking peers as failed.
type MemoryTransport struct {
	mu     sync.Mutex
	logs   map[string]*store.MessageLog
	failed map[string]bool
}

// NewMemoryTransport creates an empty in-process hub.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		logs:   make(map[string]*store.MessageLog),
		failed: make(map[string]bool),
	}
}

// Register attaches a node's log to the hub.
func (t *MemoryTransport) Register(id string, log *store.MessageLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs[id] = log
}

// Fail marks a peer as unreachable until Restore is called.
func (t *MemoryTransport) Fail(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed[id] = true
}

// Restore clears a peer's failure flag.
func (t *MemoryTransport) Restore(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failed, id)
}

// target resolves a reachable peer log or returns the injected failure.
func (t *MemoryTransport) target(ctx context.Context, peer cluster.Peer, op string) (*store.MessageLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, &PeerError{Peer: peer.ID, Op: op, Err: err}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failed[peer.ID] {
		return nil, &PeerError{Peer: peer.ID, Op: op, Err: ErrPeerDown}
	}
	log, ok := t.logs[peer.ID]
	if !ok {
		return nil, &PeerError{Peer: peer.ID, Op: op, Err: ErrPeerDown}
	}
	return log, nil
}

// Replicate appends the message directly to the peer's log. Duplicates ack
// like the real endpoint does.
func (t *MemoryTransport) Replicate(ctx context.Context, peer cluster.Peer, msg models.Message) error {
	log, err := t.target(ctx, peer, "replicate")
	if err != nil {
		return err
	}
	log.Append(msg)
	return nil
}

// Exchange answers with the peer's digest and the messages the caller lacks.
func (t *MemoryTransport) Exchange(ctx context.Context, peer cluster.Peer, req ExchangeRequest) (ExchangeResponse, error) {
	log, err := t.target(ctx, peer, "exchange")
	if err != nil {
		return ExchangeResponse{}, err
	}
	return ExchangeResponse{
		From:     peer.ID,
		Digest:   log.Digest(),
		Messages: log.MessagesAfter(req.Digest),
	}, nil
}

// Push merges the batch into the peer's log.
func (t *MemoryTransport) Push(ctx context.Context, peer cluster.Peer, msgs []models.Message) error {
	log, err := t.target(ctx, peer, "push")
	if err != nil {
		return err
	}
	log.MergeAll(msgs)
	return nil
}
