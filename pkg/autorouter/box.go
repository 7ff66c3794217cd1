package autorouter

import (
	"math"
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Box is a snapshot of a box and its ports.
type Box struct {
	ID       string
	Rect     geom.Rect
	Ports    []Port
	Parent   string
	Children []string
}

// Port returns the port with the given id.
func (b Box) Port(id string) (Port, bool) {
	for _, p := range b.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Port is a snapshot of an attachment region. An Area of one point is a
// point port; longer areas are consecutive axis-aligned segments.
type Port struct {
	ID    string
	Box   string
	Area  []geom.Point
	Paths []string
}

// Segments returns the port's attachment geometry.
func (p Port) Segments() []geom.Segment { return geom.Segments(p.Area) }

// PortRef names a port by box and port id.
type PortRef struct {
	Box  string `json:"box" toml:"box"`
	Port string `json:"port" toml:"port"`
}

// String returns "box/port".
func (r PortRef) String() string { return r.Box + "/" + r.Port }

// box is the arena entry behind Box. Parent, children and port ownership are
// id references into the graph's arena.
type box struct {
	id       string
	rect     geom.Rect
	ports    []*port
	parent   string
	children []string
}

type port struct {
	id    string
	area  []geom.Point
	paths map[string]bool
}

func (b *box) port(id string) *port {
	for _, p := range b.ports {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (b *box) snapshot() Box {
	out := Box{
		ID:       b.id,
		Rect:     b.rect,
		Parent:   b.parent,
		Children: slices.Clone(b.children),
		Ports:    make([]Port, len(b.ports)),
	}
	for i, p := range b.ports {
		out.Ports[i] = p.snapshot(b.id)
	}
	return out
}

// translate moves the box and its port geometry by d.
func (b *box) translate(d geom.Point) {
	b.rect = b.rect.Translate(d)
	for _, p := range b.ports {
		for i := range p.area {
			p.area[i] = p.area[i].Add(d)
		}
	}
}

func (p *port) snapshot(boxID string) Port {
	paths := make([]string, 0, len(p.paths))
	for id := range p.paths {
		paths = append(paths, id)
	}
	slices.Sort(paths)
	return Port{ID: p.id, Box: boxID, Area: slices.Clone(p.area), Paths: paths}
}

func (p *port) segments() []geom.Segment { return geom.Segments(p.area) }

// distance returns the smallest Manhattan distance between the two areas,
// measured from q's points to p's segments.
func (p *port) distance(q *port) float64 {
	best := math.Inf(1)
	for _, s := range p.segments() {
		for _, pt := range q.area {
			best = math.Min(best, s.DistanceTo(pt))
		}
	}
	return best
}

// nearest returns the port of ports closest to old, or nil when ports is
// empty. Ties go to the earlier port.
func nearest(ports []*port, old *port) *port {
	var (
		best *port
		dist = math.Inf(1)
	)
	for _, p := range ports {
		if d := p.distance(old); d < dist {
			best, dist = p, d
		}
	}
	return best
}
