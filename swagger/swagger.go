// Package swagger serves the OpenAPI document of the API together with a
// Swagger UI page that loads it.
package swagger

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed swagger-ui/*
var content embed.FS

// GetHandler serves index.html and openapi.yaml from the embedded
// swagger-ui directory.
func GetHandler() (http.Handler, error) {
	subFS, err := fs.Sub(content, "swagger-ui")
	if err != nil {
		return nil, err
	}

	return http.FileServer(http.FS(subFS)), nil
}
