package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the browser-facing routes on the mux. The console
// shell at / is wrapped by protect so unauthenticated sessions are sent into
// the provider login; the public status page and static assets are open.
func RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.Handle("GET /{$}", protect(servePage("static/index.html")))
	mux.Handle("GET /status", servePage("static/status.html"))
}

// servePage serves one embedded HTML document.
func servePage(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := StaticFS.ReadFile(path)
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	})
}
