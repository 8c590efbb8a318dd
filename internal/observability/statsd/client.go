// Package statsd sends the portfolio service's metrics over the StatsD
// UDP line protocol. The service emits counters and timings only; every
// metric is namespaced, by default under "portfolio".
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultNamespace prefixes every metric emitted by this service.
const DefaultNamespace = "portfolio"

// Sink is the surface the request middleware and auth handlers emit
// through. A nil Sink is a valid no-op target.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes the StatsD endpoint.
type Config struct {
	Enabled bool
	// Address is the UDP host:port of the StatsD receiver.
	Address string
	// Namespace overrides DefaultNamespace when set.
	Namespace string
	Logger    *slog.Logger
}

// Client emits metrics over a single shared UDP connection. Safe for
// concurrent use; a nil *Client drops everything.
type Client struct {
	namespace string
	logger    *slog.Logger

	mu      sync.Mutex
	enabled bool
	conn    net.Conn
}

var _ Sink = (*Client)(nil)

// NewClient dials the receiver unless disabled. A disabled client is
// returned rather than nil so callers can hold it unconditionally.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	namespace := strings.Trim(strings.TrimSpace(cfg.Namespace), ".")
	if namespace == "" {
		namespace = DefaultNamespace
	}

	address := strings.TrimSpace(cfg.Address)
	client := &Client{
		namespace: namespace,
		logger:    logger,
	}
	if !cfg.Enabled || address == "" {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	client.enabled = true
	client.conn = conn

	return client, nil
}

// Count increments a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	if c == nil {
		return
	}
	c.emit(name, strconv.FormatInt(value, 10)+"|c", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	if c == nil {
		return
	}
	ms := float64(value) / float64(time.Millisecond)
	c.emit(name, strconv.FormatFloat(ms, 'f', -1, 64)+"|ms", tags)
}

// Close releases the UDP connection; further emits are dropped. Safe to
// call more than once and on a nil client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) emit(name, payload string, tags map[string]string) {
	metric := c.qualify(name)
	if metric == "" {
		return
	}

	line := metric + ":" + payload + tagSuffix(tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		// Metrics are best-effort; a dropped datagram is not worth more
		// than a debug line.
		c.logger.Debug("statsd write failed", "metric", metric, "error", err)
	}
}

// qualify namespaces a metric name, normalizing characters StatsD
// receivers choke on.
func (c *Client) qualify(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "/", "_")
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	n = strings.Trim(n, ".")
	if n == "" {
		return ""
	}
	return c.namespace + "." + n
}

// tagSuffix renders tags in the DogStatsD "|#k:v,k:v" form, sorted for
// stable output. Empty keys are dropped, values are trimmed.
func tagSuffix(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = strings.TrimSpace(k) + ":" + strings.TrimSpace(tags[k])
	}
	return "|#" + strings.Join(pairs, ",")
}
