package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseintake/internal/config"
)

func TestNewUploadKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	key, err := NewUploadKey("Foto Carnet.JPG", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^uploads/[0-9a-f]{12}_1700000000123\.jpg$`), key)

	key, err = NewUploadKey("noext", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^uploads/[0-9a-f]{12}_1700000000123$`), key)

	key, err = NewUploadKey("evil.p/hp", now)
	require.NoError(t, err)
	assert.NotContains(t, key, "p/hp")
}

func TestPublicURL(t *testing.T) {
	c, err := NewClient(config.MinIOConfig{
		Endpoint:       "minio:9000",
		PublicEndpoint: "https://files.example.org/",
		AccessKeyID:    "k",
		Bucket:         "formularios",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.org/formularios/uploads/a.png", c.PublicURL("uploads/a.png"))
	assert.Equal(t, "formularios", c.Bucket())
}

func TestNewClient_RejectsBadLookup(t *testing.T) {
	_, err := NewClient(config.MinIOConfig{Endpoint: "minio:9000", PublicEndpoint: "http://x", BucketLookup: "weird"})
	assert.Error(t, err)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, IsNoSuchKey(fmt.Errorf("wrapped: %w", minio.ErrorResponse{Code: "NotFound"})))
	assert.False(t, IsNoSuchKey(errors.New("connection refused")))
	assert.False(t, IsNoSuchKey(nil))

	assert.True(t, IsBucketAlreadyOwned(minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}))
	assert.False(t, IsBucketAlreadyOwned(minio.ErrorResponse{Code: "AccessDenied"}))
}

// fakeBucketAPI 模拟 MinIO 的 bucket 操作。
type fakeBucketAPI struct {
	exists    bool
	makeErr   error
	makeCalls int
	policies  []string
}

func (f *fakeBucketAPI) BucketExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeBucketAPI) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	f.makeCalls++
	return f.makeErr
}

func (f *fakeBucketAPI) SetBucketPolicy(_ context.Context, _ string, policy string) error {
	f.policies = append(f.policies, policy)
	return nil
}

func (f *fakeBucketAPI) PutObject(context.Context, string, string, io.Reader, int64, minio.PutObjectOptions) (minio.UploadInfo, error) {
	return minio.UploadInfo{}, nil
}

func (f *fakeBucketAPI) RemoveObject(context.Context, string, string, minio.RemoveObjectOptions) error {
	return nil
}

func TestEnsureBucket(t *testing.T) {
	policy := fmt.Sprintf(publicReadPolicy, "formularios")

	t.Run("creates and publishes", func(t *testing.T) {
		api := &fakeBucketAPI{}
		c := &Client{internalClient: api, bucketName: "formularios", autoCreate: true}
		require.NoError(t, c.EnsureBucket(context.Background()))
		assert.Equal(t, 1, api.makeCalls)
		assert.Equal(t, []string{policy}, api.policies)
	})

	t.Run("lost creation race still sets policy", func(t *testing.T) {
		api := &fakeBucketAPI{makeErr: minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}}
		c := &Client{internalClient: api, bucketName: "formularios", autoCreate: true}
		require.NoError(t, c.EnsureBucket(context.Background()))
		assert.Equal(t, []string{policy}, api.policies)
	})

	t.Run("other make errors surface", func(t *testing.T) {
		api := &fakeBucketAPI{makeErr: minio.ErrorResponse{Code: "AccessDenied"}}
		c := &Client{internalClient: api, bucketName: "formularios", autoCreate: true}
		assert.Error(t, c.EnsureBucket(context.Background()))
		assert.Empty(t, api.policies)
	})

	t.Run("existing bucket is left alone", func(t *testing.T) {
		api := &fakeBucketAPI{exists: true}
		c := &Client{internalClient: api, bucketName: "formularios"}
		require.NoError(t, c.EnsureBucket(context.Background()))
		assert.Zero(t, api.makeCalls)
	})

	t.Run("auto create disabled", func(t *testing.T) {
		c := &Client{internalClient: &fakeBucketAPI{}, bucketName: "formularios"}
		assert.Error(t, c.EnsureBucket(context.Background()))
	})
}
