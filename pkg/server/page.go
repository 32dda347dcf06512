package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/samber/lo"
	cverrors "github.com/vango-dev/cveboard/internal/errors"
	"github.com/vango-dev/cveboard/pkg/router"
	"github.com/vango-dev/cveboard/pkg/routepath"
	"github.com/vango-dev/cveboard/pkg/view"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} · CVE Dashboard</title>
<base href="{{.Base}}">
</head>
<body data-route="{{.Route}}" data-nav="{{.Stream}}">
<header>
<nav>{{range .Links}}<a href="{{.Href}}">{{.Name}}</a> {{end}}</nav>
</header>
<main>{{.Body}}</main>
</body>
</html>
`))

type page struct {
	Title  string
	Route  string
	Base   string
	Stream string
	Links  []RouteEntry
	Body   template.HTML
}

// RouteEntry describes a route in the route listing.
type RouteEntry struct {
	Name    string   `json:"name"`
	Pattern string   `json:"pattern"`
	Params  []string `json:"params,omitempty"`
	Lazy    bool     `json:"lazy"`
	State   string   `json:"state"`
	Href    string   `json:"href,omitempty"`
}

// entries lists the controller's routes. Href is set for routes without
// parameters.
func (s *Server) entries() []RouteEntry {
	base := s.ctrl.Base()
	return lo.Map(s.ctrl.Routes(), func(r router.Route, _ int) RouteEntry {
		e := RouteEntry{
			Name:    r.Name,
			Pattern: r.Path,
			Params:  r.Params(),
			Lazy:    r.Component.Deferred(),
			State:   r.Component.State().String(),
		}
		if len(e.Params) == 0 {
			e.Href = routepath.Join(base, r.Path)
		}
		return e
	})
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.entries())
}

// handlePage renders the view matched by the request path. It reads the
// route table but does not move the active controller.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	m, err := s.ctrl.Match(r.URL.Path)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "Not found", err)
		return
	}

	comp, err := m.Route.Component.Resolve(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.renderError(w, r, http.StatusBadGateway, "View unavailable", err)
		return
	}

	data := view.Data{
		Title:    m.Route.Name,
		BasePath: s.ctrl.Base(),
		Path:     m.Path,
		Params:   m.Params,
		Query:    r.URL.Query(),
		Args:     m.Args,
	}
	var body bytes.Buffer
	if err := comp.Render(&body, data); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "Render failed", err)
		return
	}
	s.writePage(w, r, http.StatusOK, page{
		Title: m.Route.Name,
		Route: m.Route.Name,
		Body:  template.HTML(body.String()),
	})
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, title string, err error) {
	ce := cverrors.Classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("page failed", "path", r.URL.Path, "code", ce.Code, "error", err)
	}
	var body bytes.Buffer
	_ = errorBody.Execute(&body, ce)
	s.writePage(w, r, status, page{
		Title: title,
		Body:  template.HTML(body.String()),
	})
}

var errorBody = template.Must(template.New("error").Parse(
	`<section class="error" data-code="{{.Code}}"><h1>{{.Message}}</h1>{{with .Suggestion}}<p>{{.}}</p>{{end}}</section>`,
))

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, p page) {
	base := s.ctrl.Base()
	p.Base = routepath.Join(base, "/")
	p.Stream = routepath.Join(base, "/_nav")
	p.Links = lo.Filter(s.entries(), func(e RouteEntry, _ int) bool { return e.Href != "" })

	var buf bytes.Buffer
	if err := layout.Execute(&buf, p); err != nil {
		s.logger.Error("layout failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf.Bytes())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
