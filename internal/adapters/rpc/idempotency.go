package rpc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Clients retrying a bot.upload or bot.command after a dropped connection
// send the same key and get the recorded response instead of a second event.
const (
	rpcIdempotencyHeader     = "X-Cardbot-Idempotency-Key"
	rpcIdempotencyTTL        = 10 * time.Minute
	rpcIdempotencyMaxEntries = 1024
)

type rpcIdempotencyEntry struct {
	requestHash string
	response    rpcResponse
	storedAt    time.Time
}

// rpcIdempotencyCache keeps responses in insertion order; the oldest entry
// goes first on expiry or overflow.
type rpcIdempotencyCache struct {
	mu      sync.Mutex
	entries map[string]rpcIdempotencyEntry
	order   []string
	ttl     time.Duration
	max     int
}

func newRPCIdempotencyCache() *rpcIdempotencyCache {
	return &rpcIdempotencyCache{
		entries: make(map[string]rpcIdempotencyEntry),
		ttl:     rpcIdempotencyTTL,
		max:     rpcIdempotencyMaxEntries,
	}
}

// get reports (response, hit, conflict). A conflict is the same key sent
// with a different request body.
func (c *rpcIdempotencyCache) get(key, requestHash string, now time.Time) (rpcResponse, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(now)
	entry, ok := c.entries[key]
	switch {
	case !ok:
		return rpcResponse{}, false, false
	case entry.requestHash != requestHash:
		return rpcResponse{}, false, true
	default:
		return entry.response, true, false
	}
}

func (c *rpcIdempotencyCache) set(key, requestHash string, resp rpcResponse, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(now)
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = rpcIdempotencyEntry{requestHash: requestHash, response: resp, storedAt: now}
	for len(c.order) > c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *rpcIdempotencyCache) expireLocked(now time.Time) {
	n := 0
	for n < len(c.order) {
		entry, ok := c.entries[c.order[n]]
		if ok && now.Sub(entry.storedAt) <= c.ttl {
			break
		}
		delete(c.entries, c.order[n])
		n++
	}
	if n > 0 {
		c.order = append([]string(nil), c.order[n:]...)
	}
}

func (c *rpcIdempotencyCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// rpcIdempotencyKey scopes a client key to the auth token.
func rpcIdempotencyKey(raw, authToken string) string {
	key := strings.TrimSpace(raw)
	if key == "" {
		return ""
	}
	return authToken + "|" + key
}

func rpcRequestHash(req rpcRequest) string {
	raw, err := json.Marshal(struct {
		Method     string          `json:"method"`
		Params     json.RawMessage `json:"params"`
		APIVersion *int            `json:"api_version,omitempty"`
	}{req.Method, req.Params, req.APIVersion})
	if err != nil {
		raw = []byte(req.Method + "|" + string(req.Params))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
