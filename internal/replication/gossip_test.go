package replication

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/GildaBit/replog/internal/store"
)

func TestGossipSubmitAlwaysAccepted(t *testing.T) {
	// No transport at all: the gossip write path must not need one.
	log := store.NewMessageLog("node1")
	r := NewGossipReplicator(log, threeNodeView(), zerolog.Nop())

	res, err := r.Submit(context.Background(), "hello", "alice")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != StatusAccepted {
		t.Errorf("status = %q, want %q", res.Status, StatusAccepted)
	}
	if !log.Contains(res.Message.ID) {
		t.Error("accepted message missing from local log")
	}
	if res.Message.Origin != "node1" {
		t.Errorf("origin = %q", res.Message.Origin)
	}
	if res.Message.Version != 1 {
		t.Errorf("version = %d, want 1", res.Message.Version)
	}
}

func TestGossipSubmitVersionsMonotonic(t *testing.T) {
	log := store.NewMessageLog("node1")
	r := NewGossipReplicator(log, threeNodeView(), zerolog.Nop())

	for i := uint64(1); i <= 5; i++ {
		res, err := r.Submit(context.Background(), "msg", "bob")
		if err != nil {
			t.Fatal(err)
		}
		if res.Message.Version != i {
			t.Errorf("write %d got version %d", i, res.Message.Version)
		}
	}
	if log.Len() != 5 {
		t.Errorf("len = %d, want 5", log.Len())
	}
}
