package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/gcp"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

const (
	maxImageEdge   = 1600
	maxImagePixels = 40_000_000
	maxUploadBytes = 15 << 20
	placeholderPx  = 800
)

var mediaFolders = map[string]struct{}{
	"products":   {},
	"categories": {},
	"hero":       {},
	"avatars":    {},
}

var errMediaUnavailable = apierr.New(http.StatusServiceUnavailable, "media_unavailable", errors.New("media storage is not configured"))

type MediaObject struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type MediaService interface {
	Enabled() bool
	// UploadImage decodes, downsizes and stores an admin-supplied image.
	UploadImage(ctx context.Context, folder string, raw []byte) (*MediaObject, error)
	// Placeholder renders and stores an initials tile for label.
	Placeholder(ctx context.Context, folder, label string) (*MediaObject, error)
}

type mediaService struct {
	log      *logger.Logger
	bucket   gcp.MediaBucket
	renderer *TileRenderer
}

// NewMediaService accepts a nil bucket; uploads then fail with media_unavailable.
func NewMediaService(log *logger.Logger, bucket gcp.MediaBucket, renderer *TileRenderer) MediaService {
	return &mediaService{log: log.With("service", "MediaService"), bucket: bucket, renderer: renderer}
}

func (ms *mediaService) Enabled() bool { return ms.bucket != nil }

func (ms *mediaService) UploadImage(ctx context.Context, folder string, raw []byte) (*MediaObject, error) {
	if ms.bucket == nil {
		return nil, errMediaUnavailable
	}
	if _, ok := mediaFolders[folder]; !ok {
		return nil, apierr.BadRequest("invalid_folder", "unknown media folder")
	}
	processed, err := ProcessImage(raw, maxImageEdge)
	if err != nil {
		return nil, err
	}
	return ms.store(ctx, folder, processed)
}

func (ms *mediaService) Placeholder(ctx context.Context, folder, label string) (*MediaObject, error) {
	if ms.bucket == nil {
		return nil, errMediaUnavailable
	}
	if ms.renderer == nil {
		return nil, errors.New("tile renderer not configured")
	}
	data, err := ms.renderer.Render(label, placeholderPx, false)
	if err != nil {
		return nil, err
	}
	return ms.store(ctx, folder, &ProcessedImage{Data: data, ContentType: "image/png", Ext: "png", Width: placeholderPx, Height: placeholderPx})
}

func (ms *mediaService) store(ctx context.Context, folder string, img *ProcessedImage) (*MediaObject, error) {
	// Versioned keys so the CDN never serves a stale object.
	key := fmt.Sprintf("%s/%s/%d.%s", folder, uuid.NewString(), time.Now().UnixNano(), img.Ext)
	if err := ms.bucket.Upload(ctx, key, img.ContentType, bytes.NewReader(img.Data)); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	ms.log.Info("Media uploaded", "key", key, "bytes", len(img.Data))
	return &MediaObject{
		Key:         key,
		URL:         ms.bucket.PublicURL(key),
		ContentType: img.ContentType,
		Width:       img.Width,
		Height:      img.Height,
	}, nil
}

type ProcessedImage struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// ProcessImage accepts png, jpeg or gif, scales it so the longest edge is at
// most maxEdge and re-encodes it. JPEG stays JPEG; everything else becomes PNG.
func ProcessImage(raw []byte, maxEdge int) (*ProcessedImage, error) {
	if len(raw) == 0 {
		return nil, apierr.BadRequest("invalid_image", "empty upload")
	}
	if len(raw) > maxUploadBytes {
		return nil, apierr.BadRequest("image_too_large", "image exceeds 15MB")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, apierr.BadRequest("invalid_image", "unsupported or corrupt image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxImagePixels {
		return nil, apierr.BadRequest("image_too_large", "image dimensions too large")
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apierr.BadRequest("invalid_image", "unsupported or corrupt image")
	}

	dst := src
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if maxEdge > 0 && (w > maxEdge || h > maxEdge) {
		nw, nh := fitWithin(w, h, maxEdge)
		scaled := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Over, nil)
		dst, w, h = scaled, nw, nh
	}

	var buf bytes.Buffer
	out := &ProcessedImage{Width: w, Height: h}
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		out.ContentType, out.Ext = "image/jpeg", "jpg"
	} else {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		out.ContentType, out.Ext = "image/png", "png"
	}
	out.Data = buf.Bytes()
	return out, nil
}

func fitWithin(w, h, maxEdge int) (int, int) {
	if w >= h {
		nh := h * maxEdge / w
		if nh < 1 {
			nh = 1
		}
		return maxEdge, nh
	}
	nw := w * maxEdge / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxEdge
}
