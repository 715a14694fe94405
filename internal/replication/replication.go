// Package replication implements the two write protocols the board
// supports: synchronous majority quorum (strong consistency, CP) and
// local-first gossip acceptance (eventual consistency, AP). A node runs
// exactly one of them, chosen at boot.
package replication

import (
	"context"
	"errors"

	"github.com/GildaBit/replog/internal/models"
)

// Write statuses returned to clients.
const (
	StatusCommitted = "committed" // quorum reached, visible on a majority
	StatusAccepted  = "accepted"  // stored locally, propagation in progress
	StatusRejected  = "rejected"  // quorum unreachable, write rolled back
)

// ErrQuorumNotReached is returned when a quorum write collects too few
// acks. The coordinator never retries automatically; the caller decides.
var ErrQuorumNotReached = errors.New("quorum not reached")

// Result describes the outcome of a submit.
type Result struct {
	Status   string
	Acks     int // acknowledgements collected, including self
	Required int // quorum threshold
	Replicas int // cluster size
	Message  models.Message
}

// Replicator accepts client writes under one of the two protocols.
type Replicator interface {
	// Submit stores a new message built from text and user. The returned
	// Result always carries the constructed message; err is non-nil only
	// for rejected quorum writes or a cancelled caller.
	Submit(ctx context.Context, text, user string) (Result, error)
	// Mode reports which protocol this replicator implements.
	Mode() string
}
