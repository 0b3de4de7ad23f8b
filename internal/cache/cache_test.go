package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)
	c.Set("patients:page:1", []string{"patientId0001"})

	got, ok := c.Get("patients:page:1")
	assert.True(t, ok)
	assert.Equal(t, []string{"patientId0001"}, got)

	_, ok = c.Get("patients:page:2")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheZeroTTLDisabled(t *testing.T) {
	c := New(0)
	c.Set("k", "v")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("patients:page:1", 1)
	c.Set("patients:page:2", 2)
	c.Set("clinics:all", 3)

	c.InvalidatePrefix("patients:")

	_, ok := c.Get("patients:page:1")
	assert.False(t, ok)
	_, ok = c.Get("patients:page:2")
	assert.False(t, ok)
	got, ok := c.Get("clinics:all")
	assert.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestCachePurge(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)
	c.Purge()

	assert.Equal(t, 0, c.Len())
}

func TestCacheCounters(t *testing.T) {
	var hits, misses int
	c := New(time.Minute, WithCounters(
		func() { hits++ },
		func() { misses++ },
	))

	c.Set("k", "v")
	c.Get("k")
	c.Get("absent")

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}
