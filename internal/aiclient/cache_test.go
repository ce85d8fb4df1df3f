package aiclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewSummaryCache(time.Hour)
	c.now = func() time.Time { return now }

	c.Set("vid", "summary")
	got, ok := c.Get("vid")
	assert.True(t, ok)
	assert.Equal(t, "summary", got)

	now = now.Add(59 * time.Minute)
	_, ok = c.Get("vid")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("vid")
	assert.False(t, ok)
}

func TestSummaryCacheIgnoresEmpty(t *testing.T) {
	c := NewSummaryCache(0)
	c.Set("vid", "")
	_, ok := c.Get("vid")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
	assert.Equal(t, DefaultCacheTTL, c.ttl)
}

func TestSummaryCacheOverwrite(t *testing.T) {
	c := NewSummaryCache(time.Minute)
	c.Set("vid", "first")
	c.Set("vid", "second")
	got, _ := c.Get("vid")
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, c.Len())
}
