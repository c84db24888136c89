package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(max int, ttl time.Duration) (*Cache[string], *clock) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](max, ttl)
	c.now = clk.now
	return c, clk
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", "1")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestExpiry(t *testing.T) {
	c, clk := newTestCache(4, time.Minute)
	c.Set("a", "1")

	clk.t = clk.t.Add(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clk.t = clk.t.Add(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCapacity_PurgesExpiredFirst(t *testing.T) {
	c, clk := newTestCache(2, time.Minute)
	c.Set("old", "1")
	clk.t = clk.t.Add(2 * time.Minute)
	c.Set("fresh", "2")

	c.Set("new", "3")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
}

func TestCapacity_EvictsOne(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Set("c", "3")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	assert.True(t, ok)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Set("a", "10")

	assert.Equal(t, 2, c.Len())
	v, _ := c.Get("a")
	assert.Equal(t, "10", v)
}
