package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/matzehuels/orthoroute/pkg/buildinfo"
	"github.com/matzehuels/orthoroute/pkg/diagram"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/observability"
	"github.com/matzehuels/orthoroute/pkg/pipeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.fail(w, r, err)
		return
	}

	d, err := s.decodeDiagram(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), d, pipeline.Options{
		Formats: []string{format},
		Router:  s.cfg.Router,
		Labels:  r.URL.Query().Get("labels") == "true",
		Refresh: r.URL.Query().Get("refresh") == "true",
		Logger:  loggerFrom(r.Context(), s.logger),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cacheState := "miss"
	if res.CacheInfo.RouteHit {
		cacheState = "hit"
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("X-Cache", cacheState)
	w.Header().Set("X-Diagram-Hash", res.DiagramHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// decodeDiagram reads the request body within the configured size limit.
func (s *Server) decodeDiagram(w http.ResponseWriter, r *http.Request) (diagram.Diagram, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return diagram.Diagram{}, errTooLarge{limit: tooLarge.Limit}
		}
		return diagram.Diagram{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "read body")
	}
	if len(data) == 0 {
		return diagram.Diagram{}, errs.New(errs.ErrCodeInvalidInput, "empty request body")
	}
	return diagram.Unmarshal(data, bodyFormat(r))
}

// fail writes err and reports it to the HTTP hooks.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	writeError(w, err)
}

func bodyFormat(r *http.Request) diagram.Format {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/toml", "text/toml":
		return diagram.FormatTOML
	}
	return diagram.FormatJSON
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
