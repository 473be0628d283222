package main

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web/static
var staticFS embed.FS

// EmbeddedAssetProvider serves the board UI compiled into the binary.
type EmbeddedAssetProvider struct{}

// GetStaticHandler returns an HTTP handler for the embedded static files.
func (e *EmbeddedAssetProvider) GetStaticHandler() http.Handler {
	staticSubFS, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		panic(err) // the embed directive guarantees the directory exists
	}
	return http.FileServer(http.FS(staticSubFS))
}

func (e *EmbeddedAssetProvider) HasEmbeddedAssets() bool {
	return true
}
