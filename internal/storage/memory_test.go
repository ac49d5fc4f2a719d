package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RemoveOlderThan(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	store.SetClock(func() time.Time { return base.Add(-48 * time.Hour) })
	require.NoError(t, store.Put(ctx, "exports/old.zip", "application/zip", []byte("old")))
	require.NoError(t, store.Put(ctx, "other/old.zip", "application/zip", []byte("keep")))
	store.SetClock(func() time.Time { return base })
	require.NoError(t, store.Put(ctx, "exports/new.zip", "application/zip", []byte("new")))

	n, err := store.RemoveOlderThan(ctx, "exports/", base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := store.Object("exports/old.zip")
	assert.False(t, ok)
	_, ok = store.Object("other/old.zip")
	assert.True(t, ok)

	url, err := store.PresignedURL(ctx, "exports/new.zip", "new.zip", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "memory://exports/new.zip", url)

	_, err = store.PresignedURL(ctx, "exports/old.zip", "old.zip", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
