package util

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const maxFilenameRunes = 100

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

// SanitizeFilename reduces a client supplied filename to a safe base name.
// It never fails: names that sanitize to nothing become "upload".
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}

	builder := strings.Builder{}
	builder.Grow(len(base))
	for _, char := range base {
		if unicode.IsControl(char) || unicode.Is(unicode.Cf, char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := invalidFilenameChars.ReplaceAllString(builder.String(), "_")
	cleaned = strings.TrimLeft(cleaned, "._")
	if cleaned == "" {
		return "upload"
	}

	ext := filepath.Ext(cleaned)
	stem := strings.TrimSuffix(cleaned, ext)
	runes := []rune(stem)
	if budget := maxFilenameRunes - len([]rune(ext)); len(runes) > budget && budget > 0 {
		stem = string(runes[:budget])
	}

	if stem == "" {
		stem = "upload"
	}

	return stem + strings.ToLower(ext)
}
