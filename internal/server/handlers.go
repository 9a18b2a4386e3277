package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/syssam/schemaviz"
	"github.com/syssam/schemaviz/compiler"
	"github.com/syssam/schemaviz/compiler/gen"
	"github.com/syssam/schemaviz/compiler/load"
)

var (
	diagramFormats = []string{compiler.FormatMermaid, compiler.FormatMarkdown, compiler.FormatDOT}
	imageFormats   = []string{compiler.FormatPNG, compiler.FormatSVG, compiler.FormatPDF}

	contentTypes = map[string]string{
		compiler.FormatMermaid:  "text/plain; charset=utf-8",
		compiler.FormatMarkdown: "text/markdown; charset=utf-8",
		compiler.FormatDOT:      "text/vnd.graphviz; charset=utf-8",
		compiler.FormatPNG:      "image/png",
		compiler.FormatSVG:      "image/svg+xml",
		compiler.FormatPDF:      "application/pdf",
	}
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// request holds the graph options of one request and their cache key.
type request struct {
	opts []gen.Option
	key  schemaviz.CacheKey
}

// newRequest applies the configured graph options and the orientation
// query parameter.
func (s *Server) newRequest(r *http.Request, kind, format string) (*request, error) {
	opts := s.cfg.GraphOptions()
	if o := r.URL.Query().Get("orientation"); o != "" {
		opts = append(opts, gen.WithOrientation(gen.Orientation(o)))
	}
	c, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &request{
		opts: opts,
		key: schemaviz.CacheKey{
			Kind:        kind,
			Format:      format,
			Orientation: string(c.Orientation),
			Options:     c.Switches(),
		},
	}, nil
}

func (s *Server) build(opts []gen.Option) (*gen.Graph, error) {
	c := &compiler.Config{Load: s.cfg.LoadOptions(), Graph: opts, Logger: s.logger}
	g, _, err := c.LoadGraph(s.dirs)
	s.metrics.ObserveGraph(g, err)
	return g, err
}

// lookup reads key from the cache unless the request asks for a refresh.
func (s *Server) lookup(ctx context.Context, r *http.Request, key schemaviz.CacheKey, v any) bool {
	if r.URL.Query().Get("refresh") != "" {
		return false
	}
	hit, err := fetch(ctx, s.cache, key, v)
	if err != nil {
		s.logger.Warn("cache read failed", zap.Stringer("key", key), zap.Error(err))
	}
	s.metrics.CacheHit(hit)
	return hit
}

func (s *Server) remember(ctx context.Context, key schemaviz.CacheKey, v any) {
	if err := keep(ctx, s.cache, key, v, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.Stringer("key", key), zap.Error(err))
	}
}

// graph serves the JSON graph model.
func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := s.newRequest(r, "snapshot", compiler.FormatJSON)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var snap gen.Snapshot
	if s.lookup(ctx, r, req.key, &snap) {
		w.Header().Set(cacheHeader, "HIT")
		s.writeJSON(w, http.StatusOK, &snap)
		return
	}
	g, err := s.build(req.opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap = *gen.NewSnapshot(g)
	s.remember(ctx, req.key, &snap)
	w.Header().Set(cacheHeader, "MISS")
	s.writeJSON(w, http.StatusOK, &snap)
}

func (s *Server) diagram(w http.ResponseWriter, r *http.Request) {
	s.artifact(w, r, "diagram", diagramFormats)
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	s.artifact(w, r, "image", imageFormats)
}

// artifact serves a rendered diagram in one of formats.
func (s *Server) artifact(w http.ResponseWriter, r *http.Request, kind string, formats []string) {
	ctx := r.Context()
	format := strings.ToLower(chi.URLParam(r, "format"))
	if !slices.Contains(formats, format) {
		s.fail(w, r, gen.NewConfigError("Format", format, "unsupported format, want one of "+strings.Join(formats, ", ")))
		return
	}
	req, err := s.newRequest(r, kind, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var a artifact
	if s.lookup(ctx, r, req.key, &a) {
		w.Header().Set(cacheHeader, "HIT")
		s.writeBody(w, a)
		return
	}
	g, err := s.build(req.opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := &compiler.Config{Title: s.cfg.Title, Graphviz: s.graphviz}
	t, err := c.Target(compiler.Output{Format: format})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	start := time.Now()
	body, err := gen.NewWriter(g).Produce(ctx, t)
	s.metrics.ObserveRender(format, time.Since(start))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	a = artifact{ContentType: contentTypes[format], Body: body}
	s.remember(ctx, req.key, &a)
	w.Header().Set(cacheHeader, "MISS")
	s.writeBody(w, a)
}

type fileEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// walk calls fn for every regular file under the schema directories.
// Unreadable entries are skipped.
func (s *Server) walk(fn func(path string, d fs.DirEntry)) {
	for _, dir := range s.dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				fn(path, d)
			}
			return nil
		})
	}
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// isADR reports whether a directory component of path is named "adr".
func isADR(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if strings.EqualFold(part, "adr") {
			return true
		}
	}
	return false
}

// files lists the schema files and markdown documents under the schema
// directories.
func (s *Server) files(w http.ResponseWriter, _ *http.Request) {
	models, docs := []fileEntry{}, []fileEntry{}
	s.walk(func(path string, d fs.DirEntry) {
		switch f := load.FormatOf(path); {
		case f == load.JSON, f == load.YAML && s.cfg.YAML:
			models = append(models, fileEntry{Path: path, Name: d.Name()})
		case isMarkdown(path):
			docs = append(docs, fileEntry{Path: path, Name: d.Name()})
		}
	})
	s.writeJSON(w, http.StatusOK, map[string][]fileEntry{"jsonModels": models, "markdown": docs})
}

// adrs lists the architecture decision records: markdown files below a
// directory named "adr".
func (s *Server) adrs(w http.ResponseWriter, _ *http.Request) {
	records := []fileEntry{}
	s.walk(func(path string, d fs.DirEntry) {
		if isMarkdown(path) && isADR(path) {
			records = append(records, fileEntry{Path: path, Name: d.Name()})
		}
	})
	s.writeJSON(w, http.StatusOK, map[string][]fileEntry{"adrs": records})
}

// file returns the raw content of a file inside a schema directory.
func (s *Server) file(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.reply(w, r, http.StatusBadRequest, "missing path query parameter")
		return
	}
	resolved, ok := s.inside(path)
	if !ok {
		s.reply(w, r, http.StatusForbidden, "access denied")
		return
	}
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.reply(w, r, http.StatusNotFound, "file not found")
		return
	case err != nil:
		s.logger.Error("failed to read file", zap.String("path", resolved), zap.Error(err))
		s.reply(w, r, http.StatusInternalServerError, "failed to read file")
		return
	}
	s.writeBody(w, artifact{ContentType: "text/plain; charset=utf-8", Body: data})
}

// inside resolves path, following symlinks when it exists, and reports
// whether it lies strictly below one of the schema directories.
func (s *Server) inside(path string) (string, bool) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	if target, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = target
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(resolved)); err == nil {
		resolved = filepath.Join(parent, filepath.Base(resolved))
	}
	for _, dir := range s.dirs {
		root := dir
		if target, err := filepath.EvalSymlinks(dir); err == nil {
			root = target
		}
		rel, err := filepath.Rel(root, resolved)
		if err != nil || rel == "." || filepath.IsAbs(rel) {
			continue
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return resolved, true
	}
	return "", false
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case gen.IsConfigError(err):
		status = http.StatusBadRequest
	case errors.Is(err, schemaviz.ErrNoSchemas):
		status = http.StatusNotFound
	case schemaviz.IsCollisionError(err):
		status = http.StatusConflict
	case errors.Is(err, schemaviz.ErrMalformedIdentifier):
		status = http.StatusUnprocessableEntity
	case schemaviz.IsRenderToolError(err):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.logger.Error("request error", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.reply(w, r, status, err.Error())
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, map[string]string{
		"error":      msg,
		"request_id": chimiddleware.GetReqID(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeBody(w http.ResponseWriter, a artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(a.Body); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}
