package util

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// DetectMIMEFromPath sniffs the content type of a file from its first bytes.
func DetectMIMEFromPath(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}

	return http.DetectContentType(buffer[:n]), nil
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}

// IsResizableMIME reports whether DownscaleImage can re-encode the type.
func IsResizableMIME(mimeType string) bool {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/png":
		return true
	default:
		return false
	}
}
