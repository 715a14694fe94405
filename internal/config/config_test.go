package config

import (
	"testing"
	"time"
)

func TestParsePeers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"single", "node2=node2:8080", 1, false},
		{"multiple", "node2=node2:8080,node3=node3:8080", 2, false},
		{"whitespace", " node2 = node2:8080 , node3 = node3:8080 ", 2, false},
		{"trailing comma", "node2=node2:8080,", 1, false},
		{"missing addr", "node2", 0, true},
		{"empty id", "=node2:8080", 0, true},
		{"empty addr", "node2=", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peers, err := ParsePeers(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(peers) != tt.want {
				t.Errorf("got %d peers, want %d", len(peers), tt.want)
			}
		})
	}
}

func TestParsePeersFields(t *testing.T) {
	peers, err := ParsePeers("node2=node2:8080")
	if err != nil {
		t.Fatal(err)
	}
	if peers[0].ID != "node2" || peers[0].Addr != "node2:8080" {
		t.Errorf("unexpected peer: %+v", peers[0])
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("MODE", "linearizable")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestLoadRejectsBadGossipBounds(t *testing.T) {
	t.Setenv("MODE", "gossip")
	t.Setenv("GOSSIP_INTERVAL_MIN", "5s")
	t.Setenv("GOSSIP_INTERVAL_MAX", "1s")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for max < min")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("PEERS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeQuorum {
		t.Errorf("default mode = %q, want %q", cfg.Mode, ModeQuorum)
	}
	if cfg.ReplicateTimeout != 2*time.Second {
		t.Errorf("default timeout = %s", cfg.ReplicateTimeout)
	}
	if cfg.GossipFanout != 1 {
		t.Errorf("default fanout = %d", cfg.GossipFanout)
	}
}

func TestBuildClusterIncludesSelf(t *testing.T) {
	cfg := &Config{NodeID: "node1", Port: "8080"}
	var err error
	cfg.Peers, err = ParsePeers("node1=localhost:8080,node2=node2:8080")
	if err != nil {
		t.Fatal(err)
	}

	view := cfg.BuildCluster()
	if view.Size() != 2 {
		t.Errorf("size = %d, want 2 (self listed in PEERS must not double-count)", view.Size())
	}
	if view.Self().ID != "node1" {
		t.Errorf("self = %q", view.Self().ID)
	}
}
