// Package scalar serves the Scalar API reference UI. The page is a single
// embedded template pointed at the service's OpenAPI document; the reference
// bundle itself loads from the Scalar CDN.
package scalar

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/JaimeStill/adjuster/pkg/module"
	"github.com/JaimeStill/adjuster/pkg/web"
)

//go:embed index.html
var indexHTML string

// NewModule creates a module that serves the API reference at basePath,
// reading the OpenAPI document from specURL.
func NewModule(basePath, specURL string) (*module.Module, error) {
	page, err := renderIndex(specURL)
	if err != nil {
		return nil, fmt.Errorf("render reference page: %w", err)
	}

	router := web.NewRouter()
	router.HandleFunc("GET /{$}", web.ServeEmbeddedFile(page, "text/html; charset=utf-8"))
	router.SetFallback(http.RedirectHandler(basePath, http.StatusFound))

	return module.New(basePath, router), nil
}

func renderIndex(specURL string) ([]byte, error) {
	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{"SpecURL": specURL}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
