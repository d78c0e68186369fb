package cachex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestCache_GetWithinTTL(t *testing.T) {
	clk := newFakeClock()
	c := New[string, int](time.Minute, clk)

	c.Set("a", 1)
	clk.Advance(59 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestCache_ExpiresLazily(t *testing.T) {
	clk := newFakeClock()
	c := New[string, int](time.Minute, clk)

	c.Set("a", 1)
	clk.Advance(61 * time.Second)

	_, ok := c.Get("a")
	require.False(t, ok)
	require.Equal(t, 0, c.Len(), "expired entry should be removed on access")
}

func TestCache_SetRefreshesTTL(t *testing.T) {
	clk := newFakeClock()
	c := New[string, int](time.Minute, clk)

	c.Set("a", 1)
	clk.Advance(50 * time.Second)
	c.Set("a", 2)
	clk.Advance(50 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestCache_Delete(t *testing.T) {
	clk := newFakeClock()
	c := New[string, int](time.Minute, clk)

	c.Set("a", 1)
	c.Delete("a")

	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestCache_DeleteFunc(t *testing.T) {
	clk := newFakeClock()
	c := New[string, string](time.Minute, clk)

	c.Set("k1", "user-1")
	c.Set("k2", "user-2")
	c.Set("k3", "user-1")

	c.DeleteFunc(func(_ string, v string) bool { return v == "user-1" })

	_, ok := c.Get("k1")
	require.False(t, ok)
	_, ok = c.Get("k3")
	require.False(t, ok)
	v, ok := c.Get("k2")
	require.True(t, ok)
	require.Equal(t, "user-2", v)
}
