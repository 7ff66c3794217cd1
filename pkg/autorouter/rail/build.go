package rail

import (
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Graph is the rail graph of one scene. It is not safe for concurrent
// mutation; readers may share it once built.
type Graph struct {
	opts  Options
	frame geom.Rect

	obstacles map[string]geom.Rect
	terminals map[string]Terminal
	contrib   map[string][]contribution

	horizontal map[float64]*Rail
	vertical   map[float64]*Rail
	ports      map[portKey]*Rail
}

// Key identifies a main rail.
type Key struct {
	Orientation geom.Orientation
	Coord       float64
}

type portKey struct {
	orient        geom.Orientation
	coord, lo, hi float64
}

// contribution is one rail an owner asks for. Main rails span the frame, so
// lo and hi are only meaningful for port rails.
type contribution struct {
	port   bool
	orient geom.Orientation
	coord  float64
	lo, hi float64
}

// Build constructs the rail graph for scene from scratch.
func Build(scene Scene, opts Options) *Graph {
	g := newGraph(opts)
	g.frame = frameOf(scene, opts)
	for _, o := range scene.Obstacles {
		g.obstacles[o.ID] = o.Rect
		g.apply(o.ID, obstacleContributions(o.Rect, opts.Margin))
	}
	for _, t := range scene.Terminals {
		g.terminals[t.ID] = t
		g.apply(t.ID, terminalContributions(t))
	}
	for _, r := range g.horizontal {
		g.layout(r)
	}
	for _, r := range g.vertical {
		g.layout(r)
	}
	return g
}

func newGraph(opts Options) *Graph {
	return &Graph{
		opts:       opts,
		obstacles:  make(map[string]geom.Rect),
		terminals:  make(map[string]Terminal),
		contrib:    make(map[string][]contribution),
		horizontal: make(map[float64]*Rail),
		vertical:   make(map[float64]*Rail),
		ports:      make(map[portKey]*Rail),
	}
}

// Frame returns the extent of the main rails.
func (g *Graph) Frame() geom.Rect { return g.frame }

// Options returns the options the graph was built with.
func (g *Graph) Options() Options { return g.opts }

// Horizontal returns copies of all horizontal rails sorted by coordinate,
// port rails after the main rail at the same coordinate.
func (g *Graph) Horizontal() []Rail { return g.list(geom.Horizontal) }

// Vertical returns copies of all vertical rails sorted by coordinate.
func (g *Graph) Vertical() []Rail { return g.list(geom.Vertical) }

// Rail returns a copy of the main rail at k.
func (g *Graph) Rail(k Key) (Rail, bool) {
	r, ok := g.mainRails(k.Orientation)[k.Coord]
	if !ok {
		return Rail{}, false
	}
	return r.clone(), true
}

// Keys returns the keys of all main rails, horizontal first.
func (g *Graph) Keys() []Key {
	var out []Key
	for _, c := range sortedCoords(g.horizontal) {
		out = append(out, Key{geom.Horizontal, c})
	}
	for _, c := range sortedCoords(g.vertical) {
		out = append(out, Key{geom.Vertical, c})
	}
	return out
}

func (g *Graph) list(o geom.Orientation) []Rail {
	main := g.mainRails(o)
	out := make([]Rail, 0, len(main))
	for _, c := range sortedCoords(main) {
		out = append(out, main[c].clone())
	}
	var ports []Rail
	for k, r := range g.ports {
		if k.orient == o {
			ports = append(ports, r.clone())
		}
	}
	out = append(out, ports...)
	slices.SortStableFunc(out, func(a, b Rail) int {
		switch {
		case a.Coord != b.Coord:
			return cmpFloat(a.Coord, b.Coord)
		case a.Port != b.Port:
			if a.Port {
				return 1
			}
			return -1
		case a.Lo != b.Lo:
			return cmpFloat(a.Lo, b.Lo)
		}
		return cmpFloat(a.Hi, b.Hi)
	})
	return out
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (g *Graph) mainRails(o geom.Orientation) map[float64]*Rail {
	if o == geom.Horizontal {
		return g.horizontal
	}
	return g.vertical
}

// =============================================================================
// Contributions
// =============================================================================

func obstacleContributions(r geom.Rect, margin float64) []contribution {
	return []contribution{
		{orient: geom.Horizontal, coord: r.Y1 - margin},
		{orient: geom.Horizontal, coord: r.Y2 + margin},
		{orient: geom.Vertical, coord: r.X1 - margin},
		{orient: geom.Vertical, coord: r.X2 + margin},
	}
}

type side int

const (
	sideNone side = iota
	sideTop
	sideBottom
	sideLeft
	sideRight
)

func sideOf(p geom.Point, r geom.Rect) side {
	inX := p.X > r.X1 && p.X < r.X2
	inY := p.Y > r.Y1 && p.Y < r.Y2
	switch {
	case p.Y == r.Y1 && inX:
		return sideTop
	case p.Y == r.Y2 && inX:
		return sideBottom
	case p.X == r.X1 && inY:
		return sideLeft
	case p.X == r.X2 && inY:
		return sideRight
	}
	return sideNone
}

// terminalContributions lists the rails a port needs. An area segment gets a
// port rail along itself and a main rail through its midpoint; a point on a
// box side gets a zero-length port rail and the outward main rail; any other
// point gets both main rails through it.
func terminalContributions(t Terminal) []contribution {
	var out []contribution
	for _, s := range t.Segments {
		b := s.Bounds()
		switch s.Orientation() {
		case geom.Horizontal:
			out = append(out,
				contribution{port: true, orient: geom.Horizontal, coord: b.Y1, lo: b.X1, hi: b.X2},
				contribution{orient: geom.Vertical, coord: (b.X1 + b.X2) / 2})
			continue
		case geom.Vertical:
			out = append(out,
				contribution{port: true, orient: geom.Vertical, coord: b.X1, lo: b.Y1, hi: b.Y2},
				contribution{orient: geom.Horizontal, coord: (b.Y1 + b.Y2) / 2})
			continue
		}
		for _, p := range uniquePoints(s) {
			switch sideOf(p, t.Box) {
			case sideTop, sideBottom:
				out = append(out,
					contribution{port: true, orient: geom.Horizontal, coord: p.Y, lo: p.X, hi: p.X},
					contribution{orient: geom.Vertical, coord: p.X})
			case sideLeft, sideRight:
				out = append(out,
					contribution{port: true, orient: geom.Vertical, coord: p.X, lo: p.Y, hi: p.Y},
					contribution{orient: geom.Horizontal, coord: p.Y})
			default:
				out = append(out,
					contribution{orient: geom.Horizontal, coord: p.Y},
					contribution{orient: geom.Vertical, coord: p.X})
			}
		}
	}
	return out
}

// freePoints returns the point ports of t that are not on a box side. Both
// main rails pass through them, so each is a node of its own.
func freePoints(t Terminal) []geom.Point {
	var out []geom.Point
	for _, s := range t.Segments {
		if s.Orientation() != geom.None {
			continue
		}
		for _, p := range uniquePoints(s) {
			if sideOf(p, t.Box) == sideNone {
				out = append(out, p)
			}
		}
	}
	return out
}

// uniquePoints returns the distinct ends of a segment that is not
// axis-aligned along a single axis (a point, or a diagonal treated as two
// points).
func uniquePoints(s geom.Segment) []geom.Point {
	if s.Degenerate() {
		return []geom.Point{s.A}
	}
	return []geom.Point{s.A, s.B}
}

// frameOf returns the bounds of all geometry grown by the frame margin.
func frameOf(scene Scene, opts Options) geom.Rect {
	var (
		f     geom.Rect
		first = true
	)
	grow := func(r geom.Rect) {
		if first {
			f, first = r, false
			return
		}
		f = f.Union(r)
	}
	for _, o := range scene.Obstacles {
		grow(o.Rect)
	}
	for _, t := range scene.Terminals {
		for _, s := range t.Segments {
			grow(s.Bounds())
		}
	}
	if first {
		return geom.Rect{}
	}
	return f.Grow(opts.FrameMargin)
}

// apply registers an owner's contributions, creating rails as needed.
// It returns the contributions that created a new rail.
func (g *Graph) apply(owner string, cs []contribution) []contribution {
	var created []contribution
	for _, c := range cs {
		r, isNew := g.ensure(c)
		r.addOwner(owner)
		if isNew {
			created = append(created, c)
		}
	}
	g.contrib[owner] = append(g.contrib[owner], cs...)
	return created
}

// retract drops all contributions of owner and returns those whose rail
// was deleted as a result.
func (g *Graph) retract(owner string) []contribution {
	var deleted []contribution
	for _, c := range g.contrib[owner] {
		if c.port {
			k := portKey{c.orient, c.coord, c.lo, c.hi}
			if r, ok := g.ports[k]; ok && r.dropOwner(owner) {
				delete(g.ports, k)
				deleted = append(deleted, c)
			}
			continue
		}
		rails := g.mainRails(c.orient)
		if r, ok := rails[c.coord]; ok && r.dropOwner(owner) {
			delete(rails, c.coord)
			deleted = append(deleted, c)
		}
	}
	delete(g.contrib, owner)
	return deleted
}

func (g *Graph) ensure(c contribution) (*Rail, bool) {
	if c.port {
		k := portKey{c.orient, c.coord, c.lo, c.hi}
		if r, ok := g.ports[k]; ok {
			return r, false
		}
		r := &Rail{Orientation: c.orient, Coord: c.coord, Lo: c.lo, Hi: c.hi, Port: true}
		g.ports[k] = r
		return r, true
	}
	rails := g.mainRails(c.orient)
	if r, ok := rails[c.coord]; ok {
		return r, false
	}
	r := &Rail{Orientation: c.orient, Coord: c.coord}
	rails[c.coord] = r
	return r, true
}

// =============================================================================
// Layout
// =============================================================================

// span returns the frame interval along the rail's axis.
func (g *Graph) span(o geom.Orientation) (float64, float64) {
	if o == geom.Horizontal {
		return g.frame.X1, g.frame.X2
	}
	return g.frame.Y1, g.frame.Y2
}

// crosses reports whether the rail at (o, coord) runs through the interior
// of box b, and returns b's extent along the rail axis.
func crosses(o geom.Orientation, coord float64, b geom.Rect) (lo, hi float64, ok bool) {
	if o == geom.Horizontal {
		return b.X1, b.X2, coord > b.Y1 && coord < b.Y2
	}
	return b.Y1, b.Y2, coord > b.X1 && coord < b.X2
}

// layout recomputes the stops and edges of a main rail from scratch.
func (g *Graph) layout(r *Rail) {
	r.Lo, r.Hi = g.span(r.Orientation)
	stops := []float64{r.Lo, r.Hi}
	for pos := range g.mainRails(r.Orientation.Perpendicular()) {
		stops = append(stops, pos)
	}
	for k := range g.ports {
		if k.orient != r.Orientation && r.Coord >= k.lo && r.Coord <= k.hi {
			stops = append(stops, k.coord)
		}
	}

	type inside struct {
		id     string
		lo, hi float64
	}
	var boxes []inside
	for id, b := range g.obstacles {
		if lo, hi, ok := crosses(r.Orientation, r.Coord, b); ok {
			boxes = append(boxes, inside{id, lo, hi})
			stops = append(stops, lo, hi)
		}
	}
	slices.SortFunc(boxes, func(a, b inside) int {
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})

	slices.Sort(stops)
	stops = slices.Compact(stops)
	// Stops never leave the rail interval.
	for len(stops) > 0 && stops[0] < r.Lo {
		stops = stops[1:]
	}
	for len(stops) > 0 && stops[len(stops)-1] > r.Hi {
		stops = stops[:len(stops)-1]
	}

	r.Stops = stops
	r.Edges = r.Edges[:0]
	for i := 0; i+1 < len(stops); i++ {
		e := Edge{From: stops[i], To: stops[i+1]}
		for _, b := range boxes {
			if b.lo <= e.From && e.To <= b.hi {
				e.Inside = append(e.Inside, b.id)
				if b.lo == e.From {
					e.BracketOpening = true
				}
				if b.hi == e.To {
					e.BracketClosing = true
				}
			}
		}
		e.Depth = len(e.Inside)
		r.Edges = append(r.Edges, e)
	}
}
