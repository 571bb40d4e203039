// Package assets serves the embedded API documentation: the OpenAPI document,
// a Markdown reference rendered to HTML with goldmark, and its stylesheet.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed docs
var docsFS embed.FS

// StaticPrefix is where FileServer is mounted.
const StaticPrefix = "/swagger-ui/static/"

var pageTemplate = template.Must(template.New("reference").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>taskgate API reference</title>
<link rel="stylesheet" href="{{.StylePath}}">
</head>
<body>
<p class="openapi-link">OpenAPI document: <a href="/v3/api-docs">/v3/api-docs</a></p>
{{.Content}}
</body>
</html>
`))

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var (
	renderOnce sync.Once
	rendered   []byte
	renderErr  error
)

// OpenAPI returns the OpenAPI 3 document describing the REST API.
func OpenAPI() []byte {
	data, err := docsFS.ReadFile("docs/openapi.json")
	if err != nil {
		panic("assets: openapi.json missing from embed: " + err.Error())
	}
	return data
}

// ReferenceHTML returns the API reference page. The page is rendered once
// and reused.
func ReferenceHTML() ([]byte, error) {
	renderOnce.Do(func() {
		rendered, renderErr = renderReference()
	})
	return rendered, renderErr
}

func renderReference() ([]byte, error) {
	md, err := docsFS.ReadFile("docs/api.md")
	if err != nil {
		return nil, fmt.Errorf("reading api.md: %w", err)
	}

	// Convert markdown to HTML
	var htmlBuf bytes.Buffer
	if err := markdown.Convert(md, &htmlBuf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	data := struct {
		StylePath string
		Content   template.HTML
	}{
		StylePath: StaticPrefix + "style.css",
		Content:   template.HTML(htmlBuf.String()),
	}
	if err := pageTemplate.Execute(&page, data); err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	return page.Bytes(), nil
}

// mimeFromExt returns the MIME type for a file extension.
// Falls back to the Go standard library's MIME type database,
// then to "application/octet-stream" if unknown.
func mimeFromExt(ext string) string {
	switch ext {
	case ".css":
		return "text/css; charset=utf-8"
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}

// FileServer returns an http.Handler that serves embedded files from docs/static/.
// The handler expects paths relative to that root (strip StaticPrefix before calling).
func FileServer() http.Handler {
	sub, err := fs.Sub(docsFS, "docs/static")
	if err != nil {
		panic("assets: failed to create sub filesystem: " + err.Error())
	}
	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set content type explicitly for known extensions
		ext := strings.ToLower(path.Ext(r.URL.Path))
		if ext != "" {
			w.Header().Set("Content-Type", mimeFromExt(ext))
		}
		w.Header().Set("Cache-Control", "no-cache")

		fileServer.ServeHTTP(w, r)
	})
}
