package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T, size int) (*MemoryClient, *time.Time) {
	t.Helper()
	c := NewMemoryClient(size)
	t.Cleanup(func() { _ = c.Close() })
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestMemoryClient_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t, 10)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	*clock = clock.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.sweep()
	assert.Zero(t, c.Len())
}

func TestMemoryClient_EvictsEarliestExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 2)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// overwriting an existing key does not evict
	require.NoError(t, c.Set(ctx, "new", []byte("4"), time.Hour))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryClient_Purge(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 10)

	require.NoError(t, c.Set(ctx, Key("assistant", "a"), []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, Key("assistant", "b"), []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, Key("other", "c"), []byte("3"), time.Hour))
	// shares the first letters of the namespace but not the namespace
	require.NoError(t, c.Set(ctx, "assistants:d", []byte("4"), time.Hour))

	n, err := c.Purge(ctx, "assistant")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Len())

	_, err = c.Get(ctx, Key("other", "c"))
	assert.NoError(t, err)

	n, err = c.Purge(ctx, "assistant")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryClient_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 10)

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, time.Hour))
	value[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestKey(t *testing.T) {
	a := Key("assistant", "What about the pool?", "greenfield-1", "")
	b := Key("assistant", "  what about the POOL? ", "greenfield-1", "")
	c := Key("assistant", "What about the pool?", "skyview-3", "")
	d := Key("assistant", "What about the pool?greenfield-1", "")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Regexp(t, `^assistant:[0-9a-f]{64}$`, a)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 10)

	type answer struct {
		Text string `json:"text"`
	}
	require.NoError(t, SetJSON(ctx, c, "k", answer{Text: "hi"}, time.Hour))

	var got answer
	require.NoError(t, GetJSON(ctx, c, "k", &got))
	assert.Equal(t, "hi", got.Text)

	assert.ErrorIs(t, GetJSON(ctx, c, "missing", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Hour))
	assert.Error(t, GetJSON(ctx, c, "bad", &got))
}
