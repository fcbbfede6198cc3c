package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutAndHead(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "images/a.jpg", "image/jpeg", []byte("jpegdata")))

	meta, err := store.HeadObject(ctx, "images/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(8), meta.ContentLength)

	data, err := os.ReadFile(filepath.Join(store.Dir(), "images", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside", "a/../../b"} {
		err := store.Put(context.Background(), key, "", []byte("x"))
		assert.Error(t, err, key)
	}
}

func TestLocalStore_PruneRemovesOnlyOldFiles(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "images/old.jpg", "", []byte("old")))
	require.NoError(t, store.Put(ctx, "images/new.jpg", "", []byte("new")))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), "images", "old.jpg"), past, past))

	removed, err := store.Prune(ctx, time.Now().Add(-time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = store.HeadObject(ctx, "images/old.jpg")
	assert.Error(t, err)
	_, err = store.HeadObject(ctx, "images/new.jpg")
	assert.NoError(t, err)
}
