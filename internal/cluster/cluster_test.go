package cluster

import "testing"

func TestQuorumSize(t *testing.T) {
	tests := []struct {
		name  string
		peers int
		want  int
	}{
		{"single node", 0, 1},
		{"two nodes", 1, 2},
		{"three nodes", 2, 2},
		{"four nodes", 3, 3},
		{"five nodes", 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peers := make([]Peer, tt.peers)
			for i := range peers {
				peers[i] = Peer{ID: string(rune('a' + i)), Addr: "x"}
			}
			v := New(Peer{ID: "self", Addr: "localhost:8080"}, peers)
			if got := v.QuorumSize(); got != tt.want {
				t.Errorf("QuorumSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewDropsSelfFromPeers(t *testing.T) {
	v := New(Peer{ID: "node1", Addr: "node1:8080"}, []Peer{
		{ID: "node1", Addr: "node1:8080"},
		{ID: "node2", Addr: "node2:8080"},
	})

	if v.Size() != 2 {
		t.Fatalf("expected size 2, got %d", v.Size())
	}
	for _, p := range v.Peers() {
		if p.ID == "node1" {
			t.Errorf("self leaked into peer list")
		}
	}
}

func TestPeersReturnsCopy(t *testing.T) {
	v := New(Peer{ID: "a"}, []Peer{{ID: "b"}, {ID: "c"}})

	peers := v.Peers()
	peers[0] = Peer{ID: "mutated"}

	if v.Peers()[0].ID == "mutated" {
		t.Error("Peers() exposed internal slice")
	}
}
