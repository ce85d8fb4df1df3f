package aiclient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoKeys is returned when a KeyPool is built without any usable key.
var ErrNoKeys = errors.New("no API keys configured")

// KeyPool hands out API keys round-robin and spaces calls at least
// minInterval apart across all keys.
type KeyPool struct {
	mu    sync.Mutex
	keys  []string
	next  int
	pacer *rate.Limiter
}

// NewKeyPool drops blank keys. minInterval <= 0 disables pacing.
func NewKeyPool(keys []string, minInterval time.Duration) (*KeyPool, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoKeys
	}

	p := &KeyPool{keys: cleaned}
	if minInterval > 0 {
		p.pacer = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return p, nil
}

// Acquire waits for the pacer and returns the next key and its position.
func (p *KeyPool) Acquire(ctx context.Context) (string, int, error) {
	if p.pacer != nil {
		if err := p.pacer.Wait(ctx); err != nil {
			return "", 0, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.next
	p.next = (p.next + 1) % len(p.keys)
	return p.keys[idx], idx, nil
}

// Len returns the number of keys in rotation.
func (p *KeyPool) Len() int { return len(p.keys) }

// MaskKey keeps the first and last few characters of key for logging.
func MaskKey(key string) string {
	if len(key) <= 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:7] + "..." + key[len(key)-5:]
}

// SplitKeys parses a comma-separated key list.
func SplitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
