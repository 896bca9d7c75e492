// Package server serves the single-page imbalance viewer.
//
// The package is split as follows:
//   - server.go: Server, dependencies and routing (this file)
//   - handler.go: the index handler and form parsing
//   - middleware.go: request ID and access log middleware
//   - templates/: the embedded default page template
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"NiftyImbalance/internal/chart"
	"NiftyImbalance/internal/model"
)

const (
	DefaultTimeout      = 30 * time.Second
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
	indexTemplate       = "index.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pipeline fetches, scans and renders one date window.
type Pipeline interface {
	Run(ctx context.Context, start, end time.Time) (*model.Report, error)
}

// Options carries the paths and defaults the server needs at start.
type Options struct {
	StaticDir    string
	TemplateDir  string // empty uses the embedded template
	DefaultStart string
	DefaultEnd   string
}

// Server handles the index page.
type Server struct {
	pipeline Pipeline
	opts     Options
	tmpl     *template.Template
	logger   zerolog.Logger
}

// New parses the page template and returns a Server.
func New(pipeline Pipeline, opts Options, logger zerolog.Logger) (*Server, error) {
	tmpl, err := loadTemplates(opts.TemplateDir)
	if err != nil {
		return nil, err
	}
	return &Server{
		pipeline: pipeline,
		opts:     opts,
		tmpl:     tmpl,
		logger:   logger.With().Str("component", "server").Logger(),
	}, nil
}

var templateFuncs = template.FuncMap{
	"price": chart.FormatPrice,
}

func loadTemplates(dir string) (*template.Template, error) {
	base := template.New("").Funcs(templateFuncs)
	if dir == "" {
		tmpl, err := base.ParseFS(templateFS, "templates/*.html")
		if err != nil {
			return nil, fmt.Errorf("parse embedded templates: %w", err)
		}
		return tmpl, nil
	}
	tmpl, err := base.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates in %s: %w", dir, err)
	}
	if tmpl.Lookup(indexTemplate) == nil {
		return nil, fmt.Errorf("template dir %s has no %s", dir, indexTemplate)
	}
	return tmpl, nil
}

// Routes builds the gin engine.
func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(s.logger))
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(s.tmpl)

	router.Static("/static", s.opts.StaticDir)
	router.GET("/", s.Index)
	router.POST("/", s.Index)

	return router
}
