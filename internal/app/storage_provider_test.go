package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/platform/gcp"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	t.Cleanup(func() { log.Sync() })
	return log
}

func stubMediaBucket(t *testing.T, fn func(context.Context, *logger.Logger, gcp.BucketConfig) (gcp.MediaBucket, error)) {
	t.Helper()
	orig := newMediaBucket
	t.Cleanup(func() { newMediaBucket = orig })
	newMediaBucket = fn
}

func TestResolveMediaBucketDisabledWithoutName(t *testing.T) {
	stubMediaBucket(t, func(context.Context, *logger.Logger, gcp.BucketConfig) (gcp.MediaBucket, error) {
		t.Fatal("bucket should not be dialed")
		return nil, nil
	})
	got, err := resolveMediaBucket(context.Background(), testLogger(t), gcp.BucketConfig{})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestResolveMediaBucketClassifiesConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  gcp.BucketConfig
		want StorageProviderBootstrapErrorCode
	}{
		{name: "invalid mode", cfg: gcp.BucketConfig{Name: "media", Mode: "s3"}, want: StorageProviderBootstrapErrorInvalidMode},
		{name: "missing emulator host", cfg: gcp.BucketConfig{Name: "media", Mode: "gcs_emulator"}, want: StorageProviderBootstrapErrorMissingEmulatorHost},
		{name: "relative emulator host", cfg: gcp.BucketConfig{Name: "media", Mode: "gcs_emulator", EmulatorHost: "fake-gcs:4443"}, want: StorageProviderBootstrapErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stubMediaBucket(t, func(context.Context, *logger.Logger, gcp.BucketConfig) (gcp.MediaBucket, error) {
				t.Fatal("bucket should not be dialed")
				return nil, nil
			})
			_, err := resolveMediaBucket(context.Background(), testLogger(t), tc.cfg)
			require.Error(t, err)
			require.Equal(t, tc.want, storageProviderBootstrapErrorCode(err))
		})
	}
}

func TestResolveMediaBucketConnectFailed(t *testing.T) {
	dialErr := errors.New("dial tcp: connection refused")
	stubMediaBucket(t, func(context.Context, *logger.Logger, gcp.BucketConfig) (gcp.MediaBucket, error) {
		return nil, dialErr
	})
	_, err := resolveMediaBucket(context.Background(), testLogger(t), gcp.BucketConfig{Name: "media"})
	require.ErrorIs(t, err, dialErr)
	require.Equal(t, StorageProviderBootstrapErrorConnectFailed, storageProviderBootstrapErrorCode(err))
}

func TestResolveMediaBucketEmulatorMode(t *testing.T) {
	var captured gcp.BucketConfig
	expected := &testBucket{}
	stubMediaBucket(t, func(_ context.Context, _ *logger.Logger, cfg gcp.BucketConfig) (gcp.MediaBucket, error) {
		captured = cfg
		return expected, nil
	})
	got, err := resolveMediaBucket(context.Background(), testLogger(t), gcp.BucketConfig{
		Name:         "media",
		EmulatorHost: "http://fake-gcs:4443",
	})
	require.NoError(t, err)
	require.Same(t, expected, got)
	require.Equal(t, "http://fake-gcs:4443", captured.EmulatorHost)
}

type testBucket struct{}

func (*testBucket) Upload(context.Context, string, string, io.Reader) error { return nil }
func (*testBucket) Delete(context.Context, string) error                    { return nil }
func (*testBucket) Exists(context.Context, string) (bool, error)            { return false, nil }
func (*testBucket) ListKeys(context.Context, string) ([]string, error)      { return nil, nil }
func (*testBucket) PublicURL(key string) string                             { return "/" + key }
func (*testBucket) Close() error                                            { return nil }
