// Package cluster holds the static view of the replication group: this
// node's identity plus the peers configured at boot. Membership never
// changes at runtime; anything dynamic (reachability, last-seen times)
// lives in the transport, not here.
package cluster

// Peer identifies one node of the cluster.
type Peer struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// View is the immutable cluster membership as known at process start.
type View struct {
	self  Peer
	peers []Peer
}

// New builds a View from the local node and its peers. Any peer entry that
// shares the local node's ID is dropped so self never appears twice.
func New(self Peer, peers []Peer) *View {
	filtered := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if p.ID == self.ID {
			continue
		}
		filtered = append(filtered, p)
	}
	return &View{self: self, peers: filtered}
}

// Self returns the local node.
func (v *View) Self() Peer { return v.self }

// Peers returns the other members of the cluster. The returned slice is a
// copy; callers may reorder it freely (the gossip scheduler shuffles it).
func (v *View) Peers() []Peer {
	out := make([]Peer, len(v.peers))
	copy(out, v.peers)
	return out
}

// Size returns the total cluster size, including self.
func (v *View) Size() int { return len(v.peers) + 1 }

// QuorumSize returns the majority threshold floor(N/2)+1. For a 3-node
// cluster this is 2; a single-node cluster commits trivially with 1.
func (v *View) QuorumSize() int { return v.Size()/2 + 1 }
