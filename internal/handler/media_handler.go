package handler

import (
	"net/http"
	"strings"

	"teahouse/internal/storage"
)

// MediaFiles serves the local media root mounted at prefix. The response type
// comes from the stored key, never from sniffing, and scripts are blocked.
func MediaFiles(prefix string, root string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(root)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", storage.ContentTypeForKey(r.URL.Path))
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		files.ServeHTTP(w, r)
	})
}
