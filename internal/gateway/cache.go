package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ward-assistant/internal/kv"
)

const (
	cacheKeyPrefix = "model-cache|"
	// Only the leading part of a normalized prompt feeds the key; two
	// prompts identical up to this length hit the same entry.
	cachePromptLimit = 512
)

// CacheEntry is the stored value. InsertedAt is recorded so the backing
// store can evict by age; the core itself never expires entries.
type CacheEntry struct {
	Value      string    `json:"value"`
	InsertedAt time.Time `json:"inserted_at"`
}

// ResponseCache memoizes model responses in the durable KV store, keyed
// by a deterministic signature of operation + normalized prompt.
type ResponseCache struct {
	store kv.Store
}

func NewResponseCache(store kv.Store) *ResponseCache {
	return &ResponseCache{store: store}
}

// Key builds the deterministic cache key for a request.
func (c *ResponseCache) Key(operation, prompt string) string {
	norm := normalizePrompt(prompt)
	sum := sha256.Sum256([]byte(norm))
	return fmt.Sprintf("%s%s|%s", cacheKeyPrefix, operation, hex.EncodeToString(sum[:]))
}

// Lookup returns the cached value for a request, if present. Store
// errors degrade to a miss.
func (c *ResponseCache) Lookup(ctx context.Context, operation, prompt string) (string, bool) {
	raw, ok, err := c.store.Get(ctx, c.Key(operation, prompt))
	if err != nil || !ok {
		return "", false
	}
	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", false
	}
	return entry.Value, true
}

// Insert stores a response. Failures are returned for logging; the
// response itself is already in hand, so callers proceed either way.
func (c *ResponseCache) Insert(ctx context.Context, operation, prompt, value string) error {
	raw, err := json.Marshal(CacheEntry{Value: value, InsertedAt: time.Now()})
	if err != nil {
		return err
	}
	return c.store.Put(ctx, c.Key(operation, prompt), raw)
}

func normalizePrompt(prompt string) string {
	norm := strings.ToLower(strings.TrimSpace(prompt))
	norm = strings.Join(strings.Fields(norm), " ")
	if len(norm) > cachePromptLimit {
		norm = norm[:cachePromptLimit]
	}
	return norm
}
