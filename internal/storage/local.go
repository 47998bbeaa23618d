package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"teahouse/internal/model"
	"teahouse/pkg/apierror"
)

// LocalHost keeps media on local disk. Files are served by the router under
// the configured public URL.
type LocalHost struct {
	rootAbs   string
	publicURL string
}

func NewLocalHost(root string, publicURL string) (*LocalHost, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}

	if err := os.MkdirAll(rootAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	return &LocalHost{rootAbs: rootAbs, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (h *LocalHost) RootAbs() string {
	return h.rootAbs
}

func (h *LocalHost) Upload(ctx context.Context, localPath string, contentType string) (model.MediaRef, error) {
	if err := ctx.Err(); err != nil {
		return model.MediaRef{}, err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("open staged file: %w", err)
	}
	defer src.Close()

	key := newObjectKey("", contentType)
	target, err := h.resolveKey(key)
	if err != nil {
		return model.MediaRef{}, err
	}

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("create media file: %w", err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(target)
		return model.MediaRef{}, fmt.Errorf("write media file: %w", errors.Join(copyErr, closeErr))
	}

	return model.MediaRef{URL: h.publicURL + "/" + key, PublicID: key}, nil
}

func (h *LocalHost) Delete(_ context.Context, publicID string) error {
	target, err := h.resolveKey(publicID)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ErrMediaNotFound
		}
		return fmt.Errorf("remove media %q: %w", publicID, err)
	}

	return nil
}

// resolveKey maps a flat object key to a path inside the root.
func (h *LocalHost) resolveKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == "." || key == ".." {
		return "", apierror.BadRequest("invalid media key")
	}

	if strings.ContainsAny(key, `/\`) || hasControlCharacters(key) {
		return "", apierror.New(http.StatusForbidden, "media key must not contain path separators", key)
	}

	resolved := filepath.Join(h.rootAbs, key)
	if !isWithinRoot(h.rootAbs, resolved) {
		return "", apierror.New(http.StatusForbidden, "media key resolves outside the media root", key)
	}

	return resolved, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return false
	}

	return strings.HasPrefix(candidateAbs, rootAbs+string(filepath.Separator))
}
