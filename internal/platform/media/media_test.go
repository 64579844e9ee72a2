// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/userhub/internal/platform/media"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	canvas.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, canvas))
	return buffer.Bytes()
}

/*
TestKeyFromURL recovers object keys from public URLs.
*/
func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		ok   bool
	}{
		{"minio_path", "http://localhost:9000/avatars/uploads/0190a6f4-7c1e-7b3a-9f1d-2a4b6c8d0e12.png", "uploads/0190a6f4-7c1e-7b3a-9f1d-2a4b6c8d0e12.png", true},
		{"cdn_with_query", "https://cdn.example.com/uploads/0190a6f4-7c1e-7b3a-9f1d-2a4b6c8d0e12.webp?v=2", "uploads/0190a6f4-7c1e-7b3a-9f1d-2a4b6c8d0e12.webp", true},
		{"foreign_url", "https://gravatar.com/avatar/abc", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := media.KeyFromURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

/*
TestInspect_AcceptsPNG sniffs the type and rewinds the body.
*/
func TestInspect_AcceptsPNG(t *testing.T) {
	content := pngBytes(t, 8, 8)

	upload, err := media.Inspect(bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	assert.Equal(t, "image/png", upload.ContentType)
	assert.Equal(t, "png", upload.Extension)
	assert.Equal(t, int64(len(content)), upload.Size)

	replay, err := io.ReadAll(upload.Body)
	require.NoError(t, err)
	assert.Equal(t, content, replay)
}

/*
TestInspect_Rejects refuses non-images and oversized images.
*/
func TestInspect_Rejects(t *testing.T) {
	text := []byte("definitely not an image")
	_, err := media.Inspect(bytes.NewReader(text), int64(len(text)))
	assert.ErrorIs(t, err, media.ErrNotImage)

	huge := pngBytes(t, media.MaxImageDimension+1, 1)
	_, err = media.Inspect(bytes.NewReader(huge), int64(len(huge)))
	assert.ErrorIs(t, err, media.ErrNotImage)

	// A PNG signature with a broken body fails decoding.
	broken := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	_, err = media.Inspect(bytes.NewReader(broken), int64(len(broken)))
	assert.ErrorIs(t, err, media.ErrNotImage)
}
