package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/storefront-backend/internal/platform/gcp"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

var newMediaBucket = gcp.NewMediaBucket

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveMediaBucket returns nil, nil when no bucket is configured; media
// uploads then answer 503.
func resolveMediaBucket(ctx context.Context, log *logger.Logger, cfg gcp.BucketConfig) (gcp.MediaBucket, error) {
	if !cfg.Enabled() {
		log.Warn("PRODUCT_MEDIA_GCS_BUCKET_NAME not set; media uploads disabled")
		return nil, nil
	}
	if err := checkStorageConfig(cfg); err != nil {
		log.Error(
			"Object storage provider selection failed",
			"mode", cfg.Mode,
			"emulator_host", cfg.EmulatorHost,
			"error_code", err.Code,
			"error", err,
		)
		return nil, err
	}
	mode, _ := cfg.ResolveMode()
	log.Info("Selecting object storage provider", "mode", mode, "bucket", cfg.Name, "emulator_host", cfg.EmulatorHost)

	bucket, err := newMediaBucket(ctx, log, cfg)
	if err != nil {
		classified := &StorageProviderBootstrapError{
			Code:         StorageProviderBootstrapErrorConnectFailed,
			Mode:         string(mode),
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", mode,
			"emulator_host", cfg.EmulatorHost,
			"error_code", classified.Code,
			"error", err,
		)
		return nil, classified
	}
	return bucket, nil
}

func checkStorageConfig(cfg gcp.BucketConfig) *StorageProviderBootstrapError {
	host := strings.TrimSpace(cfg.EmulatorHost)
	mode, err := cfg.ResolveMode()
	if err != nil {
		code := StorageProviderBootstrapErrorInvalidMode
		if gcp.ObjectStorageMode(strings.ToLower(strings.TrimSpace(cfg.Mode))) == gcp.ObjectStorageModeGCSEmulator && host == "" {
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		}
		return &StorageProviderBootstrapError{Code: code, Mode: cfg.Mode, EmulatorHost: host, Cause: err}
	}
	if mode == gcp.ObjectStorageModeGCSEmulator {
		u, perr := url.Parse(host)
		if perr != nil || u.Scheme == "" || u.Host == "" {
			return &StorageProviderBootstrapError{
				Code:         StorageProviderBootstrapErrorInvalidEmulatorHost,
				Mode:         string(mode),
				EmulatorHost: host,
				Cause:        fmt.Errorf("emulator host %q is not an absolute URL", host),
			}
		}
	}
	return nil
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
