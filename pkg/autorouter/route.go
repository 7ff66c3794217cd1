package autorouter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	"github.com/matzehuels/orthoroute/pkg/autorouter/search"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
	"github.com/matzehuels/orthoroute/pkg/observability"
)

// Result is the outcome of one routing pass.
type Result struct {
	PassID string

	// Paths holds every path of the graph after the pass, in insertion order.
	Paths []Path

	// Unroutable lists the paths that failed in this pass.
	Unroutable []PathError

	Stats Stats
}

// Path returns the path with the given id from the result.
func (r *Result) Path(id string) (Path, bool) {
	for _, p := range r.Paths {
		if p.ID == id {
			return p, true
		}
	}
	return Path{}, false
}

// Stats describes the work done by a pass.
type Stats struct {
	// Full is set when all rails were rebuilt.
	Full bool

	// Routed and Unroutable count paths searched in this pass; Kept counts
	// routed paths left untouched.
	Routed     int
	Unroutable int
	Kept       int

	Rails        int
	RailsRelaid  int
	RailsSpliced int

	Duration time.Duration
}

// RouteSync rebuilds every rail and routes all pending paths before
// returning. The context is checked between paths; when it ends, the paths
// routed so far are kept and the context error is returned with the
// partial result.
func (g *Graph) RouteSync(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pass(ctx, true)
}

// pass runs one routing pass. The caller holds g.mu.
func (g *Graph) pass(ctx context.Context, full bool) (*Result, error) {
	start := time.Now()
	res := &Result{PassID: uuid.NewString()}
	hooks := observability.Router()
	hooks.OnPassStart(ctx, res.PassID, full, g.pendingCount())

	g.refresh(full, &res.Stats)
	err := g.routePending(ctx, res)

	res.Paths = g.pathSnapshots()
	res.Stats.Duration = time.Since(start)
	hooks.OnPassComplete(ctx, res.PassID, res.Stats.Routed, res.Stats.Unroutable, res.Stats.Duration, err)
	g.logger.Debug("routing pass complete",
		"pass", res.PassID,
		"full", res.Stats.Full,
		"routed", res.Stats.Routed,
		"unroutable", res.Stats.Unroutable,
		"kept", res.Stats.Kept,
		"relaid", res.Stats.RailsRelaid,
		"duration", res.Stats.Duration)
	return res, err
}

// refresh brings the rail graph up to date and invalidates routed paths the
// recorded changes affect.
func (g *Graph) refresh(full bool, stats *Stats) {
	scene := g.scene()
	var removed []rail.Key
	if full || g.rails == nil {
		var before []rail.Key
		if g.rails != nil {
			before = g.rails.Keys()
		}
		g.rails = rail.Build(scene, g.railOptions())
		after := g.rails.Keys()
		removed = missing(before, after)
		stats.Full = true
		stats.RailsRelaid = len(after)
	} else {
		changed := make([]string, 0, len(g.changed))
		for id := range g.changed {
			changed = append(changed, id)
		}
		diff := g.rails.Update(scene, changed)
		removed = diff.Removed
		stats.Full = diff.Full
		stats.RailsRelaid = diff.Relaid
		stats.RailsSpliced = diff.Spliced
	}
	stats.Rails = len(g.rails.Keys())

	g.invalidateRouted(removed)
	clear(g.changed)
	g.regions = nil
}

// invalidateRouted sets pending every routed path that crosses a recorded
// region or runs along a removed rail.
func (g *Graph) invalidateRouted(removed []rail.Key) {
	if len(g.regions) == 0 && len(removed) == 0 {
		return
	}
	gone := make(map[rail.Key]bool, len(removed))
	for _, k := range removed {
		gone[k] = true
	}
	for _, p := range g.paths {
		if p.state != Routed {
			continue
		}
		if g.affected(p.points, gone) {
			p.invalidate()
		}
	}
}

func (g *Graph) affected(points []geom.Point, gone map[rail.Key]bool) bool {
	for _, s := range geom.Segments(points) {
		for _, r := range g.regions {
			if s.CrossesInterior(r) {
				return true
			}
		}
		switch s.Orientation() {
		case geom.Horizontal:
			if gone[rail.Key{Orientation: geom.Horizontal, Coord: s.A.Y}] {
				return true
			}
		case geom.Vertical:
			if gone[rail.Key{Orientation: geom.Vertical, Coord: s.A.X}] {
				return true
			}
		}
	}
	return false
}

// routePending searches every path that is not routed.
func (g *Graph) routePending(ctx context.Context, res *Result) error {
	for _, p := range g.paths {
		if p.state == Routed {
			res.Stats.Kept++
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.routePath(ctx, p); err != nil {
			if !errs.Is(err, errs.ErrCodeUnroutable) {
				return err
			}
			res.Unroutable = append(res.Unroutable, PathError{PathID: p.id, Err: err})
			res.Stats.Unroutable++
			continue
		}
		res.Stats.Routed++
	}
	return nil
}

func (g *Graph) routePath(ctx context.Context, p *path) error {
	allowed := g.permitted(p)
	q := search.Query{
		Permitted:       func(id string) bool { return allowed[id] },
		InteriorPenalty: g.cfg.InteriorPenalty,
	}
	for _, ref := range p.src {
		q.Sources = append(q.Sources, g.rails.Entries(terminalID(ref.Box, ref.Port))...)
	}
	for _, ref := range p.dst {
		q.Targets = append(q.Targets, g.rails.Entries(terminalID(ref.Box, ref.Port))...)
	}

	route, err := search.Find(ctx, g.rails, q)
	if err != nil {
		if !errs.Is(err, errs.ErrCodeUnroutable) {
			return err
		}
		p.invalidate()
		p.state = Unroutable
		p.err = errs.Wrap(errs.ErrCodeUnroutable, err, "path %q", p.id)
		return p.err
	}
	p.points = route.Points
	p.state = Routed
	p.err = nil
	return nil
}

func (g *Graph) pendingCount() int {
	n := 0
	for _, p := range g.paths {
		if p.state != Routed {
			n++
		}
	}
	return n
}

// missing returns the keys of before absent from after. Both are sorted as
// returned by rail.Graph.Keys.
func missing(before, after []rail.Key) []rail.Key {
	in := make(map[rail.Key]bool, len(after))
	for _, k := range after {
		in[k] = true
	}
	var out []rail.Key
	for _, k := range before {
		if !in[k] {
			out = append(out, k)
		}
	}
	return out
}
