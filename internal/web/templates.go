package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/desertthunder/pophits/internal/formatter"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"comma":    func(n int) string { return humanize.Comma(int64(n)) },
	"ordinal":  humanize.Ordinal,
	"ago":      func(d models.Date) string { return formatter.Ago(d.Time) },
	"rating":   formatter.Rating,
	"movement": formatter.Movement,
	"chartRun": formatter.ChartRun,
	"songsURL": songsURL,
	"add":      func(a, b int) int { return a + b },
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	"scores": func() []int {
		s := make([]int, 0, services.MaxScore)
		for i := services.MinScore; i <= services.MaxScore; i++ {
			s = append(s, i)
		}
		return s
	},
	"hasInt": func(list []int, n int) bool {
		for _, v := range list {
			if v == n {
				return true
			}
		}
		return false
	},
}

// parseTemplates pairs every page with the layout.
func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	out := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		name := path.Base(p)
		if name == "layout.html" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// page is what every template receives.
type page struct {
	Title    string
	Username string
	SignedIn bool
	Spotify  bool
	Data     any
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	t, ok := a.templates[name]
	if !ok {
		a.logger.Error("missing template", "name", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := a.auth.Session()
	_, spotify := sess.SpotifyToken()
	p := page{
		Title:    title,
		Username: sess.Username(),
		SignedIn: sess.IsAuthenticated(),
		Spotify:  spotify,
		Data:     data,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		a.logger.Error("failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderError shows a full-page error for err.
func (a *App) renderError(w http.ResponseWriter, r *http.Request, err error) {
	view := Resolve[any](nil, err, nil)
	a.render(w, r, view.HTTPStatus(), "error.html", "Error", view)
}
