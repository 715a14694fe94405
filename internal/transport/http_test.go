package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/models"
	"github.com/GildaBit/replog/internal/store"
)

func testPeer(srv *httptest.Server) cluster.Peer {
	return cluster.Peer{ID: "peer1", Addr: strings.TrimPrefix(srv.URL, "http://")}
}

func TestReplicateAck(t *testing.T) {
	var got models.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/replicate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ack"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	msg := models.Message{ID: "m1", Text: "hi", Origin: "node1", Version: 1}
	if err := tr.Replicate(context.Background(), testPeer(srv), msg); err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if got.ID != "m1" {
		t.Errorf("peer received %q", got.ID)
	}

	status := tr.Liveness()["peer1"]
	if status.LastOK.IsZero() {
		t.Error("liveness not recorded on success")
	}
}

func TestReplicateNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	err := tr.Replicate(context.Background(), testPeer(srv), models.Message{ID: "m1"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	var perr *PeerError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PeerError, got %T", err)
	}
	if perr.Peer != "peer1" || perr.Op != "replicate" {
		t.Errorf("unexpected PeerError: %+v", perr)
	}
}

func TestReplicateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tr := NewHTTPTransport()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tr.Replicate(ctx, testPeer(srv), models.Message{ID: "m1"})
	var perr *PeerError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PeerError, got %v", err)
	}
	if !perr.Timeout() {
		t.Errorf("expected timeout, got %v", perr.Err)
	}
}

func TestReplicateConnectionRefused(t *testing.T) {
	tr := NewHTTPTransport()
	peer := cluster.Peer{ID: "gone", Addr: "127.0.0.1:1"}

	err := tr.Replicate(context.Background(), peer, models.Message{ID: "m1"})
	if err == nil {
		t.Fatal("expected error for unreachable peer")
	}
	if s := tr.Liveness()["gone"]; s.LastError == "" {
		t.Error("liveness not recorded on failure")
	}
}

func TestExchangeRoundTrip(t *testing.T) {
	peerLog := store.NewMessageLog("peer1")
	peerLog.Append(models.Message{ID: "p1", Text: "x", Origin: "peer1", Version: 1})
	peerLog.Append(models.Message{ID: "p2", Text: "y", Origin: "peer1", Version: 2})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ExchangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		resp := ExchangeResponse{
			From:     "peer1",
			Digest:   peerLog.Digest(),
			Messages: peerLog.MessagesAfter(req.Digest),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	tr := NewHTTPTransport()
	resp, err := tr.Exchange(context.Background(), testPeer(srv), ExchangeRequest{
		From:   "node1",
		Digest: store.Digest{"peer1": 1},
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "p2" {
		t.Errorf("unexpected missing set: %+v", resp.Messages)
	}
	if resp.Digest["peer1"] != 2 {
		t.Errorf("digest = %v", resp.Digest)
	}
}

func TestMemoryTransportPartition(t *testing.T) {
	hub := NewMemoryTransport()
	logA := store.NewMessageLog("a")
	hub.Register("a", logA)

	peer := cluster.Peer{ID: "a"}
	msg := models.Message{ID: "m1", Origin: "b", Version: 1}

	if err := hub.Replicate(context.Background(), peer, msg); err != nil {
		t.Fatalf("replicate: %v", err)
	}

	hub.Fail("a")
	err := hub.Replicate(context.Background(), peer, models.Message{ID: "m2"})
	if !errors.Is(err, ErrPeerDown) {
		t.Fatalf("expected ErrPeerDown, got %v", err)
	}

	hub.Restore("a")
	if err := hub.Replicate(context.Background(), peer, models.Message{ID: "m2", Origin: "b", Version: 2}); err != nil {
		t.Fatalf("replicate after restore: %v", err)
	}
	if logA.Len() != 2 {
		t.Errorf("len = %d, want 2", logA.Len())
	}
}
