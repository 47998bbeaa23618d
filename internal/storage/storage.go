package storage

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"

	"teahouse/internal/model"
)

// MediaHost stores uploaded images somewhere clients can fetch them from.
type MediaHost interface {
	Upload(ctx context.Context, localPath string, contentType string) (model.MediaRef, error)
	Delete(ctx context.Context, publicID string) error
}

const fallbackContentType = "application/octet-stream"

// imageExtensions is the only source of stored extensions. The client's
// filename never reaches the key.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// newObjectKey picks a collision-free key named after the sniffed type.
// Unknown types get no extension.
func newObjectKey(prefix string, contentType string) string {
	key := uuid.NewString() + imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if prefix != "" {
		key = strings.TrimSuffix(prefix, "/") + "/" + key
	}

	return key
}

// ContentTypeForKey maps a stored key back to the image type it was named
// for, or application/octet-stream.
func ContentTypeForKey(key string) string {
	ext := strings.ToLower(path.Ext(key))
	for contentType, known := range imageExtensions {
		if known == ext {
			return contentType
		}
	}
	return fallbackContentType
}
