// Package search finds orthogonal routes over a rail graph.
//
// The search is a multi-source, multi-target Dijkstra over (stop, heading)
// states. Costs compare lexicographically: weighted length first, then the
// number of bends. Edges inside boxes are weighted by an interior penalty and
// are only usable when every box they lie inside is permitted for the route.
// Reversing along the same rail is never allowed, so a route that starts and
// ends on the same stop still leaves it.
package search

import (
	"container/heap"
	"context"
	"slices"

	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// checkEvery is how many states are popped between context checks.
const checkEvery = 1024

// Query describes one route request.
type Query struct {
	// Sources and Targets are entry stops (see [rail.Graph.Entries]).
	Sources []geom.Point
	Targets []geom.Point

	// Permitted reports whether edges inside the given box may be used.
	// A nil func permits no interiors.
	Permitted func(box string) bool

	// InteriorPenalty multiplies the length of edges inside boxes.
	// Values below one are treated as one.
	InteriorPenalty float64
}

// Route is a found polyline.
type Route struct {
	// Points starts at Sources[Source] and ends at Targets[Target], with
	// collinear runs merged.
	Points []geom.Point
	Source int
	Target int

	// Length is the geometric length; Cost the penalized one.
	Length float64
	Cost   float64
	Bends  int
}

// Find returns the cheapest route from any source to any target. It fails
// with [errs.ErrCodeUnroutable] when no legal route exists and returns the
// context error if ctx ends first.
func Find(ctx context.Context, g *rail.Graph, q Query) (Route, error) {
	if len(q.Sources) == 0 || len(q.Targets) == 0 {
		return Route{}, errs.New(errs.ErrCodeUnroutable, "no entry nodes (%d sources, %d targets)", len(q.Sources), len(q.Targets))
	}
	penalty := q.InteriorPenalty
	if penalty < 1 {
		penalty = 1
	}
	permitted := q.Permitted
	if permitted == nil {
		permitted = func(string) bool { return false }
	}

	targets := make(map[geom.Point]int, len(q.Targets))
	for i, p := range q.Targets {
		if _, ok := targets[p]; !ok {
			targets[p] = i
		}
	}

	r := &runner{
		g:         g,
		permitted: permitted,
		penalty:   penalty,
		best:      make(map[state]cost),
		parent:    make(map[state]state),
		done:      make(map[state]bool),
	}
	heap.Init(&r.pq)
	for _, p := range q.Sources {
		s := state{at: p, h: start}
		if _, ok := r.best[s]; ok {
			continue
		}
		r.best[s] = cost{}
		heap.Push(&r.pq, item{s: s})
	}

	for pops := 0; r.pq.Len() > 0; pops++ {
		if pops%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Route{}, err
			}
		}
		cur := heap.Pop(&r.pq).(item)
		if r.done[cur.s] {
			continue
		}
		r.done[cur.s] = true

		if cur.s.h != start {
			if ti, ok := targets[cur.s.at]; ok {
				return r.route(cur, q.Sources, ti), nil
			}
		}
		r.relax(cur)
	}
	return Route{}, errs.New(errs.ErrCodeUnroutable, "no legal route between %d source and %d target entries", len(q.Sources), len(q.Targets))
}

// runner holds the mutable state of a single search.
type runner struct {
	g         *rail.Graph
	permitted func(string) bool
	penalty   float64

	best   map[state]cost
	parent map[state]state
	done   map[state]bool
	pq     queue
}

func (r *runner) relax(cur item) {
	for _, a := range r.g.Neighbors(cur.s.at) {
		if !r.traversable(a.Edge) {
			continue
		}
		h := headingOf(cur.s.at, a.To)
		if cur.s.h != start && h == cur.s.h.opposite() {
			continue
		}
		next := state{at: a.To, h: h}
		if r.done[next] {
			continue
		}

		c := cur.c
		c.length += r.weight(a.Edge)
		if cur.s.h != start && h != cur.s.h {
			c.bends++
		}
		if b, ok := r.best[next]; ok && !c.less(b) {
			continue
		}
		r.best[next] = c
		r.parent[next] = cur.s
		heap.Push(&r.pq, item{s: next, c: c})
	}
}

func (r *runner) traversable(e rail.Edge) bool {
	for _, id := range e.Inside {
		if !r.permitted(id) {
			return false
		}
	}
	return true
}

func (r *runner) weight(e rail.Edge) float64 {
	if e.Bracketed() {
		return e.Length() * r.penalty
	}
	return e.Length()
}

// route walks parents back from the reached target state.
func (r *runner) route(end item, sources []geom.Point, target int) Route {
	var pts []geom.Point
	s := end.s
	for {
		pts = append(pts, s.at)
		if s.h == start {
			break
		}
		s = r.parent[s]
	}
	slices.Reverse(pts)

	var length float64
	for i := 1; i < len(pts); i++ {
		length += pts[i-1].Manhattan(pts[i])
	}
	return Route{
		Points: geom.Simplify(pts),
		Source: slices.Index(sources, pts[0]),
		Target: target,
		Length: length,
		Cost:   end.c.length,
		Bends:  end.c.bends,
	}
}
