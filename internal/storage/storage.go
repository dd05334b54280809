// Package storage persists uploaded recipe images and avatars.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	RecipeImages = "recipes/images"
	Avatars      = "users"
)

var ErrInvalidImage = errors.New("invalid image payload")

// ImageStore saves images under a prefix and returns their public URL
type ImageStore interface {
	Save(ctx context.Context, prefix string, img *Image) (string, error)
	Delete(ctx context.Context, url string) error
}

// Image is a decoded upload
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>"
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

// objectKey generates a unique key under prefix
func objectKey(prefix string, img *Image) string {
	return fmt.Sprintf("%s/%s.%s", strings.Trim(prefix, "/"), uuid.New().String(), img.Ext)
}
