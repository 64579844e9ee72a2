// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"fmt"
	"image"
	"io"
	"net/http"

	// Registered decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MaxImageDimension bounds avatar width and height in pixels.
const MaxImageDimension = 4096

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Inspect sniffs the content type of an upload, checks that it decodes as a
// supported image within [MaxImageDimension] and rewinds the reader.
func Inspect(body io.ReadSeeker, size int64) (Upload, error) {
	header := make([]byte, 512)
	read, err := io.ReadFull(body, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Upload{}, fmt.Errorf("media: failed to read upload: %w", err)
	}

	contentType := http.DetectContentType(header[:read])
	extension, ok := extensions[contentType]
	if !ok {
		return Upload{}, ErrNotImage
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return Upload{}, fmt.Errorf("media: failed to rewind upload: %w", err)
	}

	config, _, err := image.DecodeConfig(body)
	if err != nil {
		return Upload{}, ErrNotImage
	}
	if config.Width > MaxImageDimension || config.Height > MaxImageDimension {
		return Upload{}, fmt.Errorf("%w: %dx%d exceeds %dpx", ErrNotImage, config.Width, config.Height, MaxImageDimension)
	}

	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return Upload{}, fmt.Errorf("media: failed to rewind upload: %w", err)
	}

	return Upload{
		Body:        body,
		Size:        size,
		ContentType: contentType,
		Extension:   extension,
	}, nil
}
