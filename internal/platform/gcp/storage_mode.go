package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

// BucketConfig describes the product-media bucket. EmulatorHost switches the
// client to a fake-gcs server; PublicBaseURL overrides the emulator host for
// URLs handed to browsers.
type BucketConfig struct {
	Name          string `yaml:"name"`
	CDNDomain     string `yaml:"cdn_domain"`
	Mode          string `yaml:"mode"`
	EmulatorHost  string `yaml:"emulator_host"`
	PublicBaseURL string `yaml:"public_base_url"`
}

func (c BucketConfig) Enabled() bool { return strings.TrimSpace(c.Name) != "" }

// ResolveMode picks the storage mode. An empty mode with an emulator host
// falls back to the emulator.
func (c BucketConfig) ResolveMode() (ObjectStorageMode, error) {
	raw := strings.ToLower(strings.TrimSpace(c.Mode))
	switch ObjectStorageMode(raw) {
	case "":
		if strings.TrimSpace(c.EmulatorHost) != "" {
			return ObjectStorageModeGCSEmulator, nil
		}
		return ObjectStorageModeGCS, nil
	case ObjectStorageModeGCS:
		return ObjectStorageModeGCS, nil
	case ObjectStorageModeGCSEmulator:
		if strings.TrimSpace(c.EmulatorHost) == "" {
			return "", fmt.Errorf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST", ObjectStorageModeGCSEmulator)
		}
		return ObjectStorageModeGCSEmulator, nil
	default:
		return "", fmt.Errorf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", c.Mode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator)
	}
}

func (c BucketConfig) Validate() error {
	if !c.Enabled() {
		return fmt.Errorf("missing PRODUCT_MEDIA_GCS_BUCKET_NAME")
	}
	mode, err := c.ResolveMode()
	if err != nil {
		return err
	}
	if mode == ObjectStorageModeGCSEmulator {
		if err := validateAbsURL("STORAGE_EMULATOR_HOST", c.EmulatorHost); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.PublicBaseURL) != "" {
		if err := validateAbsURL("OBJECT_STORAGE_PUBLIC_BASE_URL", c.PublicBaseURL); err != nil {
			return err
		}
	}
	return nil
}

func validateAbsURL(name, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s=%q; expected absolute URL like http://localhost:4443", name, raw)
	}
	return nil
}
