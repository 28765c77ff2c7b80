package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// mountAssets serves the bundled editor page.
func (s *Server) mountAssets(mux *http.ServeMux) {
	assets, err := fs.Sub(static, "static")
	if err != nil {
		// The embedded tree is fixed at build time.
		panic(err)
	}
	mux.Handle("GET /", http.FileServerFS(assets))
}
