package autorouter

import (
	"github.com/google/uuid"

	errs "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Default port ids created when a descriptor lists no ports.
const (
	PortTop    = "top"
	PortBottom = "bottom"
)

// BoxDescriptor describes a box to add or reshape.
//
// Rect, when set, wins over Position and size. Otherwise the box is placed
// with its top-left corner at Position; zero Width or Height take the
// configured defaults (or the current size for SetBoxRect). A nil Ports
// creates the default "top" and "bottom" ports; an empty non-nil slice
// creates none.
type BoxDescriptor struct {
	ID       string
	Position geom.Point
	Rect     *geom.Rect
	Width    float64
	Height   float64
	Ports    []PortDescriptor
}

// PortDescriptor describes a port: either a single Point or an Area.
type PortDescriptor struct {
	ID    string
	Point *geom.Point
	Area  []geom.Point
}

// PointPort is shorthand for a point port descriptor.
func PointPort(id string, p geom.Point) PortDescriptor {
	return PortDescriptor{ID: id, Point: &p}
}

// AreaPort is shorthand for an area port descriptor.
func AreaPort(id string, area ...geom.Point) PortDescriptor {
	return PortDescriptor{ID: id, Area: area}
}

// newBox validates d and builds the arena entry. w and h are used when d
// omits the size.
func (g *Graph) newBox(d BoxDescriptor, w, h float64) (*box, error) {
	if err := errs.ValidateID("box", d.ID); err != nil {
		return nil, err
	}
	rect, err := resolveRect(d, w, h)
	if err != nil {
		return nil, err
	}
	ports, err := g.resolvePorts(d.Ports, rect)
	if err != nil {
		return nil, err
	}
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &box{id: id, rect: rect, ports: ports}, nil
}

func resolveRect(d BoxDescriptor, w, h float64) (geom.Rect, error) {
	if d.Width != 0 {
		w = d.Width
	}
	if d.Height != 0 {
		h = d.Height
	}
	r := geom.RectAt(d.Position.X, d.Position.Y, w, h)
	if d.Rect != nil {
		r = *d.Rect
	}
	if err := errs.ValidateRect(r.X1, r.Y1, r.X2, r.Y2); err != nil {
		return geom.Rect{}, err
	}
	return r, nil
}

func (g *Graph) resolvePorts(ds []PortDescriptor, rect geom.Rect) ([]*port, error) {
	if ds == nil {
		return defaultPorts(rect, g.cfg.PortInset), nil
	}
	seen := make(map[string]bool, len(ds))
	out := make([]*port, 0, len(ds))
	for _, d := range ds {
		p, err := newPort(d)
		if err != nil {
			return nil, err
		}
		if seen[p.id] {
			return nil, errs.New(errs.ErrCodeDuplicateID, "duplicate port id %q", p.id)
		}
		seen[p.id] = true
		out = append(out, p)
	}
	return out, nil
}

func newPort(d PortDescriptor) (*port, error) {
	if err := errs.ValidateID("port", d.ID); err != nil {
		return nil, err
	}
	var area []geom.Point
	switch {
	case d.Point != nil && len(d.Area) > 0:
		return nil, errs.New(errs.ErrCodeInvalidGeometry, "port %q has both a point and an area", d.ID)
	case d.Point != nil:
		area = []geom.Point{*d.Point}
	default:
		area = append(area, d.Area...)
	}
	pairs := make([][2]float64, len(area))
	for i, p := range area {
		pairs[i] = [2]float64{p.X, p.Y}
	}
	if err := errs.ValidateArea(pairs); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidGeometry, err, "port %q", d.ID)
	}
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &port{id: id, area: area, paths: make(map[string]bool)}, nil
}

// defaultPorts returns the "top" and "bottom" areas along the horizontal
// sides, inset from the corners. A box too narrow for the inset gets point
// ports at the side midpoints.
func defaultPorts(r geom.Rect, inset float64) []*port {
	side := func(id string, y float64) *port {
		p := &port{id: id, paths: make(map[string]bool)}
		if r.Width() <= 2*inset {
			p.area = []geom.Point{{X: (r.X1 + r.X2) / 2, Y: y}}
		} else {
			p.area = []geom.Point{{X: r.X1 + inset, Y: y}, {X: r.X2 - inset, Y: y}}
		}
		return p
	}
	return []*port{side(PortTop, r.Y1), side(PortBottom, r.Y2)}
}
