package rail

import (
	"slices"
	"sort"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Obstacle is a box as seen by the rail builder.
type Obstacle struct {
	ID   string
	Rect geom.Rect
}

// Terminal is a port attachment region. Box is the owning box's rectangle,
// used to decide which side a point port faces.
type Terminal struct {
	ID       string
	Box      geom.Rect
	Segments []geom.Segment
}

// Scene is the read-only geometry snapshot a build works from.
type Scene struct {
	Obstacles []Obstacle
	Terminals []Terminal
}

// Options controls rail placement.
type Options struct {
	// Margin is the clearance between a box side and its rail.
	Margin float64

	// FrameMargin grows the diagram bounds to the extent of main rails.
	FrameMargin float64
}

// Rail is a horizontal or vertical candidate routing line.
type Rail struct {
	Orientation geom.Orientation
	Coord       float64
	Lo, Hi      float64
	Owners      []string

	// Port rails lie along a port area. They contribute crossings to main
	// rails but are never traversed themselves and carry no edges.
	Port bool

	Stops []float64
	Edges []Edge

	owners map[string]int
}

// Edge is the piece of a rail between two consecutive stops.
type Edge struct {
	From, To float64

	// Inside lists, sorted, the boxes whose interior contains the edge.
	Inside []string

	// Depth is len(Inside): how many brackets are open on this edge.
	Depth int

	BracketOpening bool
	BracketClosing bool
}

// Bracketed reports whether the edge lies inside any box.
func (e Edge) Bracketed() bool { return len(e.Inside) > 0 }

// Length returns To-From.
func (e Edge) Length() float64 { return e.To - e.From }

// Point returns the location of position pos along the rail.
func (r *Rail) Point(pos float64) geom.Point {
	if r.Orientation == geom.Horizontal {
		return geom.Point{X: pos, Y: r.Coord}
	}
	return geom.Point{X: r.Coord, Y: pos}
}

// Segment returns the geometry of e on r.
func (r *Rail) Segment(e Edge) geom.Segment {
	return geom.Segment{A: r.Point(e.From), B: r.Point(e.To)}
}

// Covers reports whether pos lies within the rail's interval.
func (r *Rail) Covers(pos float64) bool { return pos >= r.Lo && pos <= r.Hi }

// position returns the coordinate of p along the rail's axis.
func (r *Rail) position(p geom.Point) float64 {
	if r.Orientation == geom.Horizontal {
		return p.X
	}
	return p.Y
}

func (r *Rail) stopIndex(pos float64) (int, bool) {
	i := sort.SearchFloat64s(r.Stops, pos)
	return i, i < len(r.Stops) && r.Stops[i] == pos
}

func (r *Rail) addOwner(id string) {
	if r.owners == nil {
		r.owners = make(map[string]int)
	}
	r.owners[id]++
	r.syncOwners()
}

// dropOwner removes one contribution of id and reports whether the rail is
// left without owners.
func (r *Rail) dropOwner(id string) bool {
	if r.owners[id] <= 1 {
		delete(r.owners, id)
	} else {
		r.owners[id]--
	}
	r.syncOwners()
	return len(r.owners) == 0
}

func (r *Rail) syncOwners() {
	r.Owners = r.Owners[:0]
	for id := range r.owners {
		r.Owners = append(r.Owners, id)
	}
	slices.Sort(r.Owners)
}

// clone returns a deep copy safe to hand to callers.
func (r *Rail) clone() Rail {
	c := *r
	c.owners = nil
	c.Owners = slices.Clone(r.Owners)
	c.Stops = slices.Clone(r.Stops)
	c.Edges = make([]Edge, len(r.Edges))
	for i, e := range r.Edges {
		e.Inside = slices.Clone(e.Inside)
		c.Edges[i] = e
	}
	return c
}

// Arc is one step from a node along a rail edge.
type Arc struct {
	To          geom.Point
	Orientation geom.Orientation
	Edge        Edge
}

// Neighbors returns the nodes adjacent to p along main rails.
// A point that is not a stop of any main rail has no neighbors.
func (g *Graph) Neighbors(p geom.Point) []Arc {
	var arcs []Arc
	if r, ok := g.horizontal[p.Y]; ok {
		arcs = appendArcs(arcs, r, p.X)
	}
	if r, ok := g.vertical[p.X]; ok {
		arcs = appendArcs(arcs, r, p.Y)
	}
	return arcs
}

func appendArcs(arcs []Arc, r *Rail, pos float64) []Arc {
	i, ok := r.stopIndex(pos)
	if !ok {
		return arcs
	}
	if i > 0 {
		arcs = append(arcs, Arc{To: r.Point(r.Stops[i-1]), Orientation: r.Orientation, Edge: r.Edges[i-1]})
	}
	if i < len(r.Edges) {
		arcs = append(arcs, Arc{To: r.Point(r.Stops[i+1]), Orientation: r.Orientation, Edge: r.Edges[i]})
	}
	return arcs
}

// Entries returns the nodes through which a route may enter or leave the
// terminal, sorted by position. Unknown terminals have none.
func (g *Graph) Entries(terminal string) []geom.Point {
	t, ok := g.terminals[terminal]
	if !ok {
		return nil
	}
	seen := make(map[geom.Point]bool)
	var out []geom.Point
	add := func(p geom.Point) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, c := range terminalContributions(t) {
		if !c.port {
			continue
		}
		perp := g.mainRails(c.orient.Perpendicular())
		for _, pos := range sortedCoords(perp) {
			if pos < c.lo || pos > c.hi {
				continue
			}
			if c.orient == geom.Horizontal {
				add(geom.Point{X: pos, Y: c.coord})
			} else {
				add(geom.Point{X: c.coord, Y: pos})
			}
		}
	}
	for _, p := range freePoints(t) {
		add(p)
	}
	slices.SortFunc(out, comparePoints)
	return out
}

func comparePoints(a, b geom.Point) int {
	switch {
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	}
	return 0
}

func sortedCoords(m map[float64]*Rail) []float64 {
	out := make([]float64, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
