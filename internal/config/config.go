package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/GildaBit/replog/internal/cluster"
)

// Replication modes. The mode is chosen at boot and is immutable for the
// process lifetime.
const (
	ModeQuorum = "quorum"
	ModeGossip = "gossip"
)

// Config holds all configuration for a replog node.
type Config struct {
	NodeID string
	Port   string
	Env    string

	// Replication
	Mode             string
	Peers            []cluster.Peer
	ReplicateTimeout time.Duration

	// Gossip scheduling. The interval is randomized per round within
	// [GossipIntervalMin, GossipIntervalMax] so nodes drift apart instead
	// of gossiping in lockstep.
	GossipIntervalMin time.Duration
	GossipIntervalMax time.Duration
	GossipFanout      int

	// Optional collaborators
	ArchiveURL string // postgres:// URL or sqlite file path; empty disables
	RedisURL   string // enables redis-backed rate limiting when set

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
}

// Load reads configuration from environment variables. In development it
// loads from a .env file if present. Replication-critical settings are
// validated here so a misconfigured node fails at boot, not mid-write.
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		NodeID:            getEnv("NODE_ID", "node1"),
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		Mode:              strings.ToLower(getEnv("MODE", ModeQuorum)),
		ReplicateTimeout:  getEnvDuration("REPLICATE_TIMEOUT", 2*time.Second),
		GossipIntervalMin: getEnvDuration("GOSSIP_INTERVAL_MIN", 1*time.Second),
		GossipIntervalMax: getEnvDuration("GOSSIP_INTERVAL_MAX", 3*time.Second),
		GossipFanout:      getEnvInt("GOSSIP_FANOUT", 1),
		ArchiveURL:        os.Getenv("ARCHIVE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
	}

	if cfg.Mode != ModeQuorum && cfg.Mode != ModeGossip {
		return nil, fmt.Errorf("unknown MODE %q (expected %q or %q)", cfg.Mode, ModeQuorum, ModeGossip)
	}
	if cfg.GossipIntervalMin <= 0 || cfg.GossipIntervalMax < cfg.GossipIntervalMin {
		return nil, fmt.Errorf("invalid gossip interval bounds: min=%s max=%s", cfg.GossipIntervalMin, cfg.GossipIntervalMax)
	}
	if cfg.GossipFanout < 1 {
		return nil, fmt.Errorf("GOSSIP_FANOUT must be >= 1, got %d", cfg.GossipFanout)
	}

	peers, err := ParsePeers(os.Getenv("PEERS"))
	if err != nil {
		return nil, err
	}
	cfg.Peers = peers

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	return cfg, nil
}

// ParsePeers parses a comma-separated list of peers in the format:
// "node2=node2:8080,node3=node3:8080". The local node must not be listed;
// if it is, BuildCluster drops it.
func ParsePeers(peersStr string) ([]cluster.Peer, error) {
	if peersStr == "" {
		return []cluster.Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]cluster.Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid peer format: %s (expected id=addr)", part)
		}

		id := strings.TrimSpace(kv[0])
		addr := strings.TrimSpace(kv[1])
		if id == "" || addr == "" {
			return nil, fmt.Errorf("peer ID and address cannot be empty: %s", part)
		}

		peers = append(peers, cluster.Peer{ID: id, Addr: addr})
	}

	return peers, nil
}

// BuildCluster converts the config peers plus self into the immutable
// cluster view used by the replication layer.
func (c *Config) BuildCluster() *cluster.View {
	self := cluster.Peer{ID: c.NodeID, Addr: "localhost:" + c.Port}
	return cluster.New(self, c.Peers)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
