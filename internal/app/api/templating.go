package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

var (
	//go:embed all:static/*
	staticFS embed.FS

	//go:embed all:templates/*
	templateFS embed.FS

	//parsed templates
	html = template.Must(template.ParseFS(templateFS, "templates/*.html"))
)

type indexPage struct {
	Languages []string
	Default   string
}

// index serves the demo page that uploads audio and plays the returned timeline.
func (api *API) index(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Languages: api.generator.Languages().Codes()}
	for _, code := range page.Languages {
		if code == "vi" {
			page.Default = code
		}
	}
	if page.Default == "" && len(page.Languages) > 0 {
		page.Default = page.Languages[0]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := html.ExecuteTemplate(w, "index.html", page); err != nil {
		slog.Error("failed to render index", "err", err)
	}
}
