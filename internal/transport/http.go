package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GildaBit/replog/internal/cluster"
	"github.com/GildaBit/replog/internal/models"
)

// HTTPTransport performs inter-node calls as JSON over HTTP against the
// peer's /internal endpoints. The client carries no global timeout; every
// call is bounded by the caller's context.
type HTTPTransport struct {
	client *http.Client

	mu     sync.Mutex
	status map[string]PeerStatus
}

// NewHTTPTransport creates a transport with a dedicated client.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{},
		status: make(map[string]PeerStatus),
	}
}

// Replicate POSTs the message to the peer's /internal/replicate endpoint.
func (t *HTTPTransport) Replicate(ctx context.Context, peer cluster.Peer, msg models.Message) error {
	err := t.post(ctx, peer, "/internal/replicate", msg, nil)
	if err != nil {
		return &PeerError{Peer: peer.ID, Op: "replicate", Err: err}
	}
	return nil
}

// Exchange POSTs the local digest and decodes the peer's digest plus the
// messages this node is missing.
func (t *HTTPTransport) Exchange(ctx context.Context, peer cluster.Peer, req ExchangeRequest) (ExchangeResponse, error) {
	var resp ExchangeResponse
	if err := t.post(ctx, peer, "/internal/exchange", req, &resp); err != nil {
		return ExchangeResponse{}, &PeerError{Peer: peer.ID, Op: "exchange", Err: err}
	}
	return resp, nil
}

// Push POSTs a batch of messages the peer is missing.
func (t *HTTPTransport) Push(ctx context.Context, peer cluster.Peer, msgs []models.Message) error {
	req := PushRequest{Messages: msgs}
	if err := t.post(ctx, peer, "/internal/push", req, nil); err != nil {
		return &PeerError{Peer: peer.ID, Op: "push", Err: err}
	}
	return nil
}

// Liveness returns a snapshot of the last observation per peer.
func (t *HTTPTransport) Liveness() map[string]PeerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]PeerStatus, len(t.status))
	for id, s := range t.status {
		out[id] = s
	}
	return out
}

// post sends a JSON body and optionally decodes a JSON response into out.
func (t *HTTPTransport) post(ctx context.Context, peer cluster.Peer, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peerURL(peer.Addr)+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The transport's own context error is more useful than the
		// url.Error wrapper when the deadline fired.
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		t.observe(peer.ID, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		t.observe(peer.ID, err)
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.observe(peer.ID, err)
			return err
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	t.observe(peer.ID, nil)
	return nil
}

// observe records the outcome of a peer call for the liveness snapshot.
func (t *HTTPTransport) observe(peerID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.status[peerID]
	if err == nil {
		s.LastOK = time.Now().UTC()
	} else {
		s.LastError = err.Error()
		s.LastErrAt = time.Now().UTC()
	}
	t.status[peerID] = s
}

// peerURL normalizes a configured peer address into a base URL.
func peerURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	return "http://" + addr
}
