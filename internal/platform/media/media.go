// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media stores user avatars on an external object store.

The rest of the service only sees the [Host] contract: upload a file and get
back a public URL plus an object key, or delete by key. Two implementations
exist, one on the MinIO SDK and one on the AWS S3 SDK, selected by
IMAGE_BACKEND.

Object keys are laid out as <folder>/<uuid>.<ext>, so the key of a stored
avatar can always be recovered from its public URL with [KeyFromURL].
*/
package media

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/taibuivan/userhub/pkg/uuid"
)

// ErrNotImage is returned when an upload is not a supported image.
var ErrNotImage = errors.New("media: unsupported image format")

// Upload describes a file handed to a [Host].
type Upload struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Extension   string
}

// Asset is a stored object.
type Asset struct {
	Key string
	URL string
}

// Host is an external image host.
type Host interface {
	// Upload stores the file under folder and returns its public location.
	Upload(ctx context.Context, folder string, file Upload) (*Asset, error)
	// Delete removes the object with the given key.
	Delete(ctx context.Context, key string) error
}

// keyPattern matches the trailing <folder>/<uuid>.<ext> of an avatar URL.
var keyPattern = regexp.MustCompile(`([a-z0-9_-]+/[a-f0-9-]{36}\.[a-z0-9]+)$`)

// KeyFromURL extracts the object key from a public avatar URL.
func KeyFromURL(rawURL string) (string, bool) {
	trimmed := rawURL
	if index := strings.IndexAny(trimmed, "?#"); index >= 0 {
		trimmed = trimmed[:index]
	}
	match := keyPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// newKey returns a fresh object key under folder.
func newKey(folder, extension string) string {
	return folder + "/" + uuid.New() + "." + extension
}

// publicURL joins a base URL and an object key.
func publicURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + key
}
