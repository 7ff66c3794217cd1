package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	"github.com/matzehuels/orthoroute/pkg/cache"
	"github.com/matzehuels/orthoroute/pkg/diagram"
	"github.com/matzehuels/orthoroute/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the route and render stages with caching.
func (r *Runner) Execute(ctx context.Context, d diagram.Diagram, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}
	if data, err := diagram.Marshal(d, diagram.FormatJSON); err == nil {
		result.DiagramHash = cache.Hash(data)
	}

	// Stage 1: Route
	routeStart := time.Now()
	routed, routeHit, err := r.RouteWithCacheInfo(ctx, d, opts)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.Routed = routed
	result.Stats.Boxes = len(routed.Boxes)
	result.Stats.Paths = len(routed.Paths)
	result.Stats.Routed, result.Stats.Unroutable = countRouted(routed)
	result.Stats.RouteTime = time.Since(routeStart)
	result.CacheInfo.RouteHit = routeHit

	r.Logger.Info("routed diagram",
		"boxes", result.Stats.Boxes,
		"routed", result.Stats.Routed,
		"unroutable", result.Stats.Unroutable,
		"cached", routeHit,
		"duration", result.Stats.RouteTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, routed, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// RouteWithCacheInfo routes d with caching and reports whether the routed
// diagram came from the cache.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, d diagram.Diagram, opts Options) (diagram.Diagram, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return diagram.Diagram{}, false, err
	}

	data, err := diagram.Marshal(d, diagram.FormatJSON)
	if err != nil {
		return diagram.Diagram{}, false, err
	}
	cacheKey := r.Keyer.RouteKey(cache.Hash(data), opts.RouteKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if routed, err := diagram.Unmarshal(data, diagram.FormatJSON); err == nil {
				observability.Cache().OnCacheHit(ctx, cache.PrefixRoute)
				return routed, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, cache.PrefixRoute)
	}

	hooks := observability.Pipeline()
	hooks.OnRouteStart(ctx, len(d.Boxes), len(d.Paths))
	start := time.Now()

	routed, _, err := diagram.Route(ctx, d,
		autorouter.WithConfig(opts.Router),
		autorouter.WithLogger(opts.Logger))
	if err != nil {
		hooks.OnRouteComplete(ctx, 0, 0, time.Since(start), err)
		return diagram.Diagram{}, false, err
	}
	ok, failed := countRouted(routed)
	hooks.OnRouteComplete(ctx, ok, failed, time.Since(start), nil)

	if out, err := diagram.Marshal(routed, diagram.FormatJSON); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, out, opts.TTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cache.PrefixRoute, len(out))
		}
	}

	return routed, false, nil
}

// Route is a convenience wrapper that calls RouteWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Route(ctx context.Context, d diagram.Diagram, opts Options) (diagram.Diagram, error) {
	routed, _, err := r.RouteWithCacheInfo(ctx, d, opts)
	return routed, err
}

// RenderWithCacheInfo generates artifacts with caching and reports whether
// every artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, routed diagram.Diagram, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	data, err := diagram.Marshal(routed, diagram.FormatJSON)
	if err != nil {
		return nil, false, fmt.Errorf("serialize routed diagram for cache key: %w", err)
	}
	routedHash := cache.Hash(data)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(routedHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, cache.PrefixArtifact)
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, cache.PrefixArtifact)
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	sub := opts
	sub.Formats = missing
	rendered, err := RenderFromRouted(ctx, routed, sub)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(routedHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, opts.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, cache.PrefixArtifact, len(data))
		}
		artifacts[format] = data
	}

	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, routed diagram.Diagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, routed, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
