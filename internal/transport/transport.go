// Package transport abstracts the inter-node RPCs used by both replication
// protocols: replicate (quorum fan-out), exchange and push (gossip
// push-pull). HTTPTransport talks JSON to peer internal endpoints;
// MemoryTransport wires MessageLogs together in-process for tests.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/store"
)

// ExchangeRequest carries the caller's digest to a peer.
type ExchangeRequest struct {
	From   string       `json:"from"`
	Digest store.Digest `json:"digest"`
}

// ExchangeResponse returns the peer's digest and the messages the caller
// is missing according to the digest it sent.
type ExchangeResponse struct {
	From     string           `json:"node_id"`
	Digest   store.Digest     `json:"digest"`
	Messages []models.Message `json:"messages"`
}

// PushRequest delivers a batch of messages the sender believes the peer
// is missing.
type PushRequest struct {
	From     string           `json:"from"`
	Messages []models.Message `json:"messages"`
}

// Transport is the inter-node RPC boundary. Every call is bounded by its
// context; a timeout or connection failure is always reported as a typed
// error, never a silent success.
type Transport interface {
	// Replicate delivers one message to a peer and waits for its ack.
	Replicate(ctx context.Context, peer cluster.Peer, msg models.Message) error
	// Exchange sends the local digest and receives the peer's digest plus
	// the messages this node lacks.
	Exchange(ctx context.Context, peer cluster.Peer, req ExchangeRequest) (ExchangeResponse, error)
	// Push delivers a batch of messages the peer is missing.
	Push(ctx context.Context, peer cluster.Peer, msgs []models.Message) error
}

// PeerError wraps a failed call to a specific peer.
type PeerError struct {
	Peer string
	Op   string
	Err  error
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("peer %s: %s: %v", e.Peer, e.Op, e.Err)
}

func (e *PeerError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying failure was a deadline.
func (e *PeerError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// PeerStatus is the last reachability observation for one peer. It is
// ephemeral bookkeeping for operators; replication decisions only ever look
// at individual call results.
type PeerStatus struct {
	LastOK    time.Time `json:"last_ok,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	LastErrAt time.Time `json:"last_error_at,omitempty"`
}
