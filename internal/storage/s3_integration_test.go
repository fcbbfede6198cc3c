//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/grootai/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Client_Integration_PutAndPrune(t *testing.T) {
	ctx := context.Background()

	rustfs := testutil.NewRustFSContainer(ctx, t)
	defer rustfs.Terminate(ctx)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rustfs.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "groot-scratch-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	testutil.Retry(t, 10, func() error { return client.EnsureBucket(ctx) })

	require.NoError(t, client.Put(ctx, "images/one.png", "image/png", []byte("pngdata")))

	meta, err := client.HeadObject(ctx, "images/one.png")
	require.NoError(t, err)
	assert.Equal(t, int64(7), meta.ContentLength)
	assert.Equal(t, "image/png", meta.ContentType)

	removed, err := client.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "fresh objects are kept")

	removed, err = client.Prune(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = client.HeadObject(ctx, "images/one.png")
	assert.Error(t, err)
}
