package handler

import "net/http"

// Hello serves the two kitchen pages as plain text; everything else is 404.
func Hello() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("Not Found"))
			return
		}

		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte("Welcome to the teahouse kitchen"))
		case "/thanks":
			_, _ = w.Write([]byte("Thanks for ordering from us"))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("Not Found"))
		}
	})
}
