package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func stringKey(s string) string { return s }

type listing struct {
	IDs []string
}

func TestInMemory_GetMissing(t *testing.T) {
	c := NewInMemory[string, listing]("apps", DefaultExpiration, DefaultCleanupInterval, stringKey)

	got, ok := c.Get(context.Background(), "org-1")
	require.False(t, ok)
	require.Empty(t, got.IDs)
}

func TestInMemory_SetGet(t *testing.T) {
	c := NewInMemory[string, listing]("apps", DefaultExpiration, DefaultCleanupInterval, stringKey)
	want := listing{IDs: []string{"a", "b"}}
	c.Set(context.Background(), "org-1", want, DefaultExpiration)

	got, ok := c.Get(context.Background(), "org-1")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, "apps", c.Name())
}

func TestInMemory_WrongTypeIsMiss(t *testing.T) {
	c := NewInMemory[string, string]("apps", DefaultExpiration, DefaultCleanupInterval, stringKey)
	c.cache.Set("org-1", 123, DefaultExpiration)

	got, ok := c.Get(context.Background(), "org-1")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemory_Delete(t *testing.T) {
	c := NewInMemory[string, string]("apps", DefaultExpiration, DefaultCleanupInterval, stringKey)
	c.Set(context.Background(), "a", "1", DefaultExpiration)
	c.Set(context.Background(), "b", "2", DefaultExpiration)

	require.NoError(t, c.Delete(context.Background()))
	require.Equal(t, 2, c.Len())

	require.NoError(t, c.Delete(context.Background(), "a"))
	_, ok := c.Get(context.Background(), "a")
	require.False(t, ok)
	_, ok = c.Get(context.Background(), "b")
	require.True(t, ok)
}

func TestInMemory_Flush(t *testing.T) {
	c := NewInMemory[string, string]("apps", DefaultExpiration, DefaultCleanupInterval, stringKey)
	c.Set(context.Background(), "a", "1", DefaultExpiration)

	require.NoError(t, c.Flush(context.Background()))
	require.Equal(t, 0, c.Len())
}
