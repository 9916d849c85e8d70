package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

func TestFitWithin(t *testing.T) {
	cases := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"landscape", 2000, 1000, 1600, 800},
		{"portrait", 1000, 4000, 400, 1600},
		{"square", 3200, 3200, 1600, 1600},
		{"thin wide", 100000, 10, 1600, 1},
		{"thin tall", 3, 90000, 1, 1600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := fitWithin(tc.w, tc.h, maxImageEdge)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0x2A, G: 0x9D, B: 0x8F, A: 0xFF})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader is a PNG that stops after IHDR; enough for DecodeConfig.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 6
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcessImageDownscalesPNG(t *testing.T) {
	out, err := ProcessImage(encodePNG(t, solid(2000, 1000)), maxImageEdge)
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, "png", out.Ext)
	assert.Equal(t, 1600, out.Width)
	assert.Equal(t, 800, out.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestProcessImageKeepsJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(400, 300), nil))

	out, err := ProcessImage(buf.Bytes(), maxImageEdge)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, "jpg", out.Ext)
	assert.Equal(t, 400, out.Width)
	assert.Equal(t, 300, out.Height)
	_, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestProcessImageRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		code string
	}{
		{"empty", nil, "invalid_image"},
		{"corrupt", []byte("definitely not an image"), "invalid_image"},
		{"truncated png", encodePNG(t, solid(20, 20))[:40], "invalid_image"},
		{"too many bytes", make([]byte, maxUploadBytes+1), "image_too_large"},
		{"too many pixels", pngHeader(10000, 5000), "image_too_large"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ProcessImage(tc.raw, maxImageEdge)
			requireCode(t, err, tc.code)
		})
	}
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"":                "?",
		"   ":             "?",
		"ceramic mug":     "CM",
		"linen tea towel": "LT",
		"élan vital":      "ÉV",
		"日本 商店":           "日商",
		"-- 2024 edition": "2E",
		"single":          "S",
		"!!! ???":         "?",
	}
	for label, want := range cases {
		assert.Equal(t, want, Initials(label), "label %q", label)
	}
}

func TestTileRendererRender(t *testing.T) {
	r, err := NewTileRenderer()
	require.NoError(t, err)

	for _, label := range []string{"", "Ceramic Mug", "日本 商店"} {
		data, err := r.Render(label, 64, false)
		require.NoError(t, err, "label %q", label)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 64, img.Bounds().Dy())
	}

	tiny, err := r.Render("x", 4, true)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(tiny))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)

	assert.Equal(t, TileColor("Ceramic Mug"), TileColor("  ceramic mug "))
}

type memBucket struct {
	mu      sync.Mutex
	objects map[string]string
}

func (b *memBucket) Upload(_ context.Context, key, contentType string, r io.Reader) error {
	if _, err := io.ReadAll(r); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.objects == nil {
		b.objects = map[string]string{}
	}
	b.objects[key] = contentType
	return nil
}

func (b *memBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBucket) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *memBucket) ListKeys(context.Context, string) ([]string, error) { return nil, nil }
func (b *memBucket) PublicURL(key string) string                        { return "https://cdn.test/" + key }
func (b *memBucket) Close() error                                       { return nil }

func TestMediaServiceUploadAndPlaceholder(t *testing.T) {
	ctx := context.Background()
	bucket := &memBucket{}
	r, err := NewTileRenderer()
	require.NoError(t, err)
	ms := NewMediaService(logger.Nop(), bucket, r)
	require.True(t, ms.Enabled())

	obj, err := ms.UploadImage(ctx, "products", encodePNG(t, solid(2000, 1000)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "products/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, "https://cdn.test/"+obj.Key, obj.URL)
	assert.Equal(t, 1600, obj.Width)
	assert.Equal(t, "image/png", bucket.objects[obj.Key])

	_, err = ms.UploadImage(ctx, "secrets", encodePNG(t, solid(10, 10)))
	requireCode(t, err, "invalid_folder")

	tile, err := ms.Placeholder(ctx, "avatars", "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, placeholderPx, tile.Width)
	ok, err := bucket.Exists(ctx, tile.Key)
	require.NoError(t, err)
	assert.True(t, ok)

	off := NewMediaService(logger.Nop(), nil, r)
	require.False(t, off.Enabled())
	_, err = off.UploadImage(ctx, "products", encodePNG(t, solid(10, 10)))
	requireCode(t, err, "media_unavailable")
}
