// Package replog provides a client for the replog replicated message board
// API. It talks to a single node; point different clients at different
// nodes to observe replication.
package replog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a replog node API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the node at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Message is one entry of the board log.
type Message struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	User       string    `json:"user"`
	Origin     string    `json:"origin_node"`
	Version    uint64    `json:"version"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// WriteResult is the outcome of posting a message.
type WriteResult struct {
	Status    string `json:"status"`
	Mode      string `json:"mode"`
	MessageID string `json:"message_id"`
	Replicas  int    `json:"replicas"`
	Acks      int    `json:"acks"`
	Required  int    `json:"required"`
}

// Board is a node's local view of the log.
type Board struct {
	NodeID   string    `json:"node_id"`
	Mode     string    `json:"mode"`
	Scope    string    `json:"scope"`
	Count    int       `json:"count"`
	Messages []Message `json:"messages"`
}

// Health is the node health report.
type Health struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	NodeID   string `json:"node_id"`
	Mode     string `json:"mode"`
	Replicas int    `json:"replicas"`
}

// Stats are the node's replication statistics.
type Stats struct {
	NodeID     string            `json:"node_id"`
	Mode       string            `json:"mode"`
	Replicas   int               `json:"replicas"`
	Local      int               `json:"local_messages"`
	ByOrigin   map[string]uint64 `json:"highest_version_by_origin"`
	Archived   int64             `json:"archived_messages"`
	UptimeSecs int64             `json:"uptime_seconds"`
}

// Peer describes one cluster member from the node's perspective.
type Peer struct {
	ID        string `json:"id"`
	Addr      string `json:"addr"`
	LastOK    string `json:"last_ok"`
	LastError string `json:"last_error"`
}

// Peers is the cluster membership response.
type Peers struct {
	NodeID     string `json:"node_id"`
	Mode       string `json:"mode"`
	QuorumSize int    `json:"quorum_size"`
	Peers      []Peer `json:"peers"`
}

// APIError is a non-2xx response from the node. A rejected quorum write
// surfaces as an APIError with StatusCode 503 and the write details in
// Result.
type APIError struct {
	StatusCode int
	Message    string
	Result     *WriteResult
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("replog: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("replog: request failed (status %d)", e.StatusCode)
}

// PostMessage submits a write to the node. Committed and accepted writes
// return a nil error; a rejected quorum write returns an *APIError whose
// Result carries the ack counts.
func (c *Client) PostMessage(text, user string) (*WriteResult, error) {
	body, err := json.Marshal(map[string]string{"text": text, "user": user})
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Post(c.BaseURL+"/message", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		var result WriteResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
		return &result, nil
	case http.StatusServiceUnavailable:
		var result WriteResult
		if err := json.Unmarshal(data, &result); err == nil && result.Status != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "write rejected", Result: &result}
		}
	}
	return nil, c.errorFrom(resp.StatusCode, data)
}

// GetMessages fetches the node's local board.
func (c *Client) GetMessages() (*Board, error) {
	var board Board
	if err := c.get("/messages", &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// GetHealth fetches the node health report. A degraded node answers 503
// but still returns the report.
func (c *Client) GetHealth() (*Health, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, c.errorFrom(resp.StatusCode, data)
	}

	var h Health
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetStats fetches the node's replication statistics.
func (c *Client) GetStats() (*Stats, error) {
	var s Stats
	if err := c.get("/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetPeers fetches the node's cluster view.
func (c *Client) GetPeers() (*Peers, error) {
	var p Peers
	if err := c.get("/peers", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(path string, out any) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp.StatusCode, data)
	}
	return json.Unmarshal(data, out)
}

func (c *Client) errorFrom(status int, data []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &errResp)
	return &APIError{StatusCode: status, Message: errResp.Error}
}
