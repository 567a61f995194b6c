package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache()

	_, ok := cache.Get("anonymous_abc")
	require.False(t, ok)

	c := NewCart("anonymous_abc", czk, time.Now())
	cache.Save(c)

	got, ok := cache.Get("anonymous_abc")
	require.True(t, ok)
	require.Same(t, c, got)

	cache.Drop("anonymous_abc")
	_, ok = cache.Get("anonymous_abc")
	require.False(t, ok)
}

func TestCacheNilSafe(t *testing.T) {
	var cache *Cache

	_, ok := cache.Get("anonymous_abc")
	require.False(t, ok)

	cache.Save(NewCart("anonymous_abc", czk, time.Now()))
	cache.Drop("anonymous_abc")
}
