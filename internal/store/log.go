package store

import (
	"sync"

	"github.com/GildaBit/replog/internal/models"
)

// Digest summarizes a node's log as the highest version it holds per origin
// node. Two nodes exchange digests to compute which messages the other side
// is missing without shipping the full log.
type Digest map[string]uint64

// MessageLog is the per-node, in-memory, append-only log of accepted
// messages. Entries are deduplicated by message ID and never removed or
// mutated; ListAll order is stable per node (insertion order) but may
// differ across nodes that have not converged yet.
//
// All state is guarded by a single mutex. Version numbers for locally
// originated messages come from a per-process counter; versions for
// messages from gossip-mode origins are contiguous, which the digest diff
// relies on.
type MessageLog struct {
	mu          sync.RWMutex
	selfOrigin  string
	byID        map[string]struct{}
	order       []models.Message
	highWater   Digest  // highest version seen per origin
	nextVersion uint64  // allocation counter for the self origin
	onAppend    func(models.Message)
}

// NewMessageLog creates an empty log for the given local node ID.
func NewMessageLog(selfOrigin string) *MessageLog {
	return &MessageLog{
		selfOrigin: selfOrigin,
		byID:       make(map[string]struct{}),
		highWater:  make(Digest),
	}
}

// OnAppend registers a hook invoked (outside the lock) after every
// successful insert, local or replicated. Used for the archive write-behind
// and metrics. Must be called before the log is shared across goroutines.
func (l *MessageLog) OnAppend(fn func(models.Message)) {
	l.mu.Lock()
	l.onAppend = fn
	l.mu.Unlock()
}

// Append inserts the message if its ID is not already present. Returns
// false (a no-op, not an error) for duplicates, which makes replication and
// gossip merges idempotent.
func (l *MessageLog) Append(msg models.Message) bool {
	l.mu.Lock()
	ok, fn := l.insertLocked(msg)
	l.mu.Unlock()

	if ok && fn != nil {
		fn(msg)
	}
	return ok
}

// AppendLocal assigns the next self-origin version to msg and inserts it in
// one critical section, so locally accepted versions are contiguous and
// never race with concurrent submissions.
func (l *MessageLog) AppendLocal(msg *models.Message) bool {
	l.mu.Lock()
	l.nextVersion++
	msg.Version = l.nextVersion
	msg.Origin = l.selfOrigin
	ok, fn := l.insertLocked(*msg)
	l.mu.Unlock()

	if ok && fn != nil {
		fn(*msg)
	}
	return ok
}

// NextVersion allocates a version number for the self origin without
// inserting anything. The quorum path uses this: the message must carry its
// version during fan-out but is only appended locally once quorum commits.
// Rejected writes leave a gap in the counter, which is harmless because
// quorum mode never runs the digest exchange.
func (l *MessageLog) NextVersion() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextVersion++
	return l.nextVersion
}

// insertLocked does the actual insert. Caller holds l.mu.
func (l *MessageLog) insertLocked(msg models.Message) (bool, func(models.Message)) {
	if _, exists := l.byID[msg.ID]; exists {
		return false, nil
	}
	l.byID[msg.ID] = struct{}{}
	l.order = append(l.order, msg)
	if msg.Version > l.highWater[msg.Origin] {
		l.highWater[msg.Origin] = msg.Version
	}
	if msg.Origin == l.selfOrigin && msg.Version > l.nextVersion {
		l.nextVersion = msg.Version
	}
	return true, l.onAppend
}

// Contains reports whether a message with the given ID has been accepted.
func (l *MessageLog) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.byID[id]
	return ok
}

// ListAll returns a snapshot of the log in local insertion order. It never
// blocks on the network and never observes a partially written message.
func (l *MessageLog) ListAll() []models.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Message, len(l.order))
	copy(out, l.order)
	return out
}

// Len returns the number of accepted messages.
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// HighestVersion returns the highest version held for the given origin,
// with ok=false if no message from that origin has been seen.
func (l *MessageLog) HighestVersion(origin string) (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.highWater[origin]
	return v, ok
}

// Digest returns a copy of the per-origin high-water versions.
func (l *MessageLog) Digest() Digest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d := make(Digest, len(l.highWater))
	for origin, v := range l.highWater {
		d[origin] = v
	}
	return d
}

// MessagesAfter returns every message whose version exceeds the remote
// digest's high-water mark for its origin, in local insertion order. This
// is the "what you are missing" half of a push-pull exchange.
func (l *MessageLog) MessagesAfter(remote Digest) []models.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.Message
	for _, msg := range l.order {
		if msg.Version > remote[msg.Origin] {
			out = append(out, msg)
		}
	}
	return out
}

// MergeAll appends each message, skipping duplicates, and returns how many
// were new. Merge order does not affect the converged state: the log is a
// set of messages keyed by ID.
func (l *MessageLog) MergeAll(msgs []models.Message) int {
	merged := 0
	for _, msg := range msgs {
		if l.Append(msg) {
			merged++
		}
	}
	return merged
}
