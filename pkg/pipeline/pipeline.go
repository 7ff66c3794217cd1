// Package pipeline provides the routing pipeline shared by the CLI and the
// HTTP API.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Route: load a diagram into a fresh graph and run a full routing pass
//  2. Render: produce artifacts from the routed diagram (JSON, SVG, rail DOT,
//     rail SVG)
//
// Both stages are cached. The route stage is keyed by the content hash of
// the input diagram and the router configuration; the render stage by the
// hash of the routed diagram and the format. Identical inputs therefore
// skip routing entirely on a warm cache.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, d, pipeline.Options{
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	routed, err := runner.Route(ctx, d, opts)
//	artifacts, err := runner.Render(ctx, routed, opts)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orthoroute/pkg/cache"
	"github.com/matzehuels/orthoroute/pkg/config"
	"github.com/matzehuels/orthoroute/pkg/diagram"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
)

// =============================================================================
// Formats
// =============================================================================

// Format constants for output formats.
const (
	// FormatJSON is the routed diagram in the JSON wire format.
	FormatJSON = "json"

	// FormatSVG draws boxes, ports and connectors.
	FormatSVG = "svg"

	// FormatDOT is the rail graph as Graphviz DOT source.
	FormatDOT = "dot"

	// FormatRails is the rail graph rendered to SVG by Graphviz.
	FormatRails = "rails"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:  true,
	FormatSVG:   true,
	FormatDOT:   true,
	FormatRails: true,
}

// DefaultFormat is rendered when Options.Formats is empty.
const DefaultFormat = FormatSVG

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatSVG, FormatRails:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	// Formats lists the artifacts to render. Defaults to svg.
	Formats []string `json:"formats,omitempty"`

	// Router is the engine geometry. Zero fields take defaults.
	Router config.Router `json:"router"`

	// Labels writes box ids and failures into the SVG.
	Labels bool `json:"labels,omitempty"`

	// Refresh bypasses cached routes. Fresh results are still stored.
	Refresh bool `json:"refresh,omitempty"`

	// TTL is the lifetime of cache entries. Defaults to config.DefaultCacheTTL.
	TTL time.Duration `json:"-"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults applies defaults and checks every field. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Router.SetDefaults()
	if err := o.Router.Validate(); err != nil {
		return err
	}
	if o.TTL == 0 {
		ttl, err := config.Cache{TTL: config.DefaultCacheTTL}.TTLDuration()
		if err != nil {
			return err
		}
		o.TTL = ttl
	}
	if o.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RouteKeyOpts returns cache key options for the route stage.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	return cache.RouteKeyOpts{Router: o.Router}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	if format == FormatSVG && o.Labels {
		format += "+labels"
	}
	return cache.ArtifactKeyOpts{Format: format}
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid format: %q (must be one of: %s)", format, formatList())
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatList() string {
	return strings.Join([]string{FormatJSON, FormatSVG, FormatDOT, FormatRails}, ", ")
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Routed is the diagram with points and status on every path.
	Routed diagram.Diagram

	// DiagramHash is the content hash of the input diagram.
	DiagramHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Boxes      int
	Paths      int
	Routed     int
	Unroutable int
	RouteTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RouteHit  bool // Whether the routed diagram came from cache
	RenderHit bool // Whether all artifacts came from cache
}

func countRouted(d diagram.Diagram) (routed, unroutable int) {
	for _, p := range d.Paths {
		if p.Routed() {
			routed++
		} else {
			unroutable++
		}
	}
	return routed, unroutable
}
