// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/taibuivan/userhub/internal/platform/media"
	"github.com/taibuivan/userhub/pkg/uuid"
)

// ImageBaseURL is the public prefix of objects stored in [ImageHost].
const ImageBaseURL = "https://images.test/avatars"

// ImageHost is an in-memory [media.Host].
type ImageHost struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailDelete and FailUpload make the corresponding call return ErrInjected.
	FailDelete bool
	FailUpload bool

	Deleted []string
}

// NewImageHost returns an empty host.
func NewImageHost() *ImageHost {
	return &ImageHost{objects: make(map[string][]byte)}
}

func (host *ImageHost) Upload(_ context.Context, folder string, file media.Upload) (*media.Asset, error) {
	if host.FailUpload {
		return nil, ErrInjected
	}

	body, err := io.ReadAll(file.Body)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.%s", folder, uuid.New(), file.Extension)

	host.mu.Lock()
	defer host.mu.Unlock()
	host.objects[key] = body

	return &media.Asset{Key: key, URL: ImageBaseURL + "/" + key}, nil
}

func (host *ImageHost) Delete(_ context.Context, key string) error {
	if host.FailDelete {
		return ErrInjected
	}

	host.mu.Lock()
	defer host.mu.Unlock()
	delete(host.objects, key)
	host.Deleted = append(host.Deleted, key)
	return nil
}

// Has reports whether an object is stored under key.
func (host *ImageHost) Has(key string) bool {
	host.mu.Lock()
	defer host.mu.Unlock()
	_, ok := host.objects[key]
	return ok
}

// URL returns the public URL a stored key would have.
func URL(key string) string {
	return ImageBaseURL + "/" + key
}
