package gossip

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/store"
	"github.com/GildaBit/replog/internal/transport"
)

// node bundles one in-process cluster member for gossip scenarios.
type node struct {
	id    string
	log   *store.MessageLog
	sched *Scheduler
}

// buildCluster wires n nodes over a shared MemoryTransport with full fanout.
func buildCluster(t *testing.T, ids ...string) (map[string]*node, *transport.MemoryTransport) {
	t.Helper()
	hub := transport.NewMemoryTransport()

	all := make([]cluster.Peer, len(ids))
	for i, id := range ids {
		all[i] = cluster.Peer{ID: id, Addr: id}
	}

	nodes := make(map[string]*node, len(ids))
	for i, id := range ids {
		log := store.NewMessageLog(id)
		hub.Register(id, log)
		view := cluster.New(all[i], all)
		cfg := Config{
			MinInterval: time.Hour, // never fires; tests drive RunRound directly
			MaxInterval: time.Hour,
			Fanout:      len(ids),
			CallTimeout: time.Second,
		}
		nodes[id] = &node{
			id:    id,
			log:   log,
			sched: NewScheduler(log, view, hub, cfg, zerolog.Nop()),
		}
	}
	return nodes, hub
}

func inject(t *testing.T, n *node, text string) models.Message {
	t.Helper()
	msg := models.Message{
		ID:         uuid.New().String(),
		Text:       text,
		User:       "tester",
		AcceptedAt: time.Now().UTC(),
	}
	if !n.log.AppendLocal(&msg) {
		t.Fatalf("local append on %s failed", n.id)
	}
	return msg
}

func TestRoundSpreadsMessagesToAllPeers(t *testing.T) {
	nodes, _ := buildCluster(t, "a", "b", "c")

	msg := inject(t, nodes["a"], "hello from a")

	// With full fanout a single round from the origin reaches every peer.
	nodes["a"].sched.RunRound(context.Background())

	for id, n := range nodes {
		if !n.log.Contains(msg.ID) {
			t.Fatalf("node %s missing %s after one round from origin", id, msg.ID)
		}
	}
}

func TestConvergenceWithinDiameterRounds(t *testing.T) {
	nodes, _ := buildCluster(t, "a", "b", "c")

	// Writes land on different nodes; nobody starts with the full set.
	m1 := inject(t, nodes["a"], "one")
	m2 := inject(t, nodes["b"], "two")
	m3 := inject(t, nodes["c"], "three")

	// One round per node is enough with full fanout: each node both pulls
	// and pushes against every peer.
	for _, n := range nodes {
		n.sched.RunRound(context.Background())
	}

	for id, n := range nodes {
		for _, m := range []models.Message{m1, m2, m3} {
			if !n.log.Contains(m.ID) {
				t.Fatalf("node %s missing %s after convergence rounds", id, m.ID)
			}
		}
		if n.log.Len() != 3 {
			t.Fatalf("node %s has %d messages, want 3", id, n.log.Len())
		}
	}
}

func TestRepeatedRoundsAreIdempotent(t *testing.T) {
	nodes, _ := buildCluster(t, "a", "b")

	inject(t, nodes["a"], "once")
	nodes["a"].sched.RunRound(context.Background())
	if nodes["b"].log.Len() != 1 {
		t.Fatalf("b has %d messages, want 1", nodes["b"].log.Len())
	}

	// Re-exchanging identical state must not duplicate anything.
	for i := 0; i < 5; i++ {
		nodes["a"].sched.RunRound(context.Background())
		nodes["b"].sched.RunRound(context.Background())
	}
	if nodes["a"].log.Len() != 1 || nodes["b"].log.Len() != 1 {
		t.Fatalf("lengths diverged: a=%d b=%d, want 1 each",
			nodes["a"].log.Len(), nodes["b"].log.Len())
	}
}

func TestFailedPeerDoesNotBlockOthers(t *testing.T) {
	nodes, hub := buildCluster(t, "a", "b", "c")
	hub.Fail("b")

	msg := inject(t, nodes["a"], "partition survivor")
	nodes["a"].sched.RunRound(context.Background())

	if nodes["b"].log.Contains(msg.ID) {
		t.Fatal("failed peer b should not have received the message")
	}
	if !nodes["c"].log.Contains(msg.ID) {
		t.Fatal("healthy peer c should have received the message")
	}

	// Heal the partition; the next round catches b up.
	hub.Restore("b")
	nodes["a"].sched.RunRound(context.Background())
	if !nodes["b"].log.Contains(msg.ID) {
		t.Fatal("restored peer b should converge on the next round")
	}
}

func TestPullSideMerge(t *testing.T) {
	nodes, _ := buildCluster(t, "a", "b")

	// b holds a message that a lacks; a's round must pull it in.
	msg := inject(t, nodes["b"], "pulled")
	nodes["a"].sched.RunRound(context.Background())

	if !nodes["a"].log.Contains(msg.ID) {
		t.Fatal("a should have pulled b's message during its own round")
	}
}

func TestStartStop(t *testing.T) {
	nodes, _ := buildCluster(t, "a", "b")

	s := nodes["a"].sched
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestFanoutLimitsPeersPerRound(t *testing.T) {
	hub := transport.NewMemoryTransport()
	all := []cluster.Peer{{ID: "a", Addr: "a"}, {ID: "b", Addr: "b"}, {ID: "c", Addr: "c"}}

	logs := map[string]*store.MessageLog{}
	for _, p := range all {
		logs[p.ID] = store.NewMessageLog(p.ID)
		hub.Register(p.ID, logs[p.ID])
	}

	cfg := Config{MinInterval: time.Hour, MaxInterval: time.Hour, Fanout: 1, CallTimeout: time.Second}
	sched := NewScheduler(logs["a"], cluster.New(all[0], all), hub, cfg, zerolog.Nop())

	msg := models.Message{ID: uuid.New().String(), Text: "limited", User: "tester", AcceptedAt: time.Now().UTC()}
	if !logs["a"].AppendLocal(&msg) {
		t.Fatal("append failed")
	}

	sched.RunRound(context.Background())

	got := 0
	for _, id := range []string{"b", "c"} {
		if logs[id].Contains(msg.ID) {
			got++
		}
	}
	if got != 1 {
		t.Fatalf("fanout 1 should reach exactly one peer per round, reached %d", got)
	}
}
