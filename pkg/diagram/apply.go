package diagram

import (
	"context"
	"maps"
	"slices"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// =============================================================================
// Diagram → Graph
// =============================================================================

// Apply loads d into g: boxes first, then containment, then paths. Boxes are
// added all-or-nothing; an error in a later step leaves the boxes in place.
func Apply(d Diagram, g *autorouter.Graph) error {
	descs := make([]autorouter.BoxDescriptor, len(d.Boxes))
	for i, b := range d.Boxes {
		descs[i] = b.descriptor()
	}
	boxes, err := g.AddBoxes(descs)
	if err != nil {
		return err
	}

	for _, b := range d.Boxes {
		if b.Parent == "" {
			continue
		}
		if err := g.SetComponent(b.Parent, b.ID); err != nil {
			return errs.Wrap(errs.GetCode(err), err, "box %q", b.ID)
		}
	}

	paths := d.Paths
	switch d.Connect {
	case "":
	case ConnectAll:
		paths = append(slices.Clone(paths), connectAll(boxes)...)
	default:
		return errs.New(errs.ErrCodeInvalidInput, "unknown connect mode %q", d.Connect)
	}
	for _, p := range paths {
		spec, err := p.spec()
		if err != nil {
			return err
		}
		if _, err := g.AddPath(spec); err != nil {
			return errs.Wrap(errs.GetCode(err), err, "path %q", p.ID)
		}
	}
	return nil
}

func (b Box) descriptor() autorouter.BoxDescriptor {
	d := autorouter.BoxDescriptor{
		ID:       b.ID,
		Position: geom.Pt(b.X, b.Y),
		Width:    b.Width,
		Height:   b.Height,
	}
	if b.Rect != nil {
		d.Rect = &geom.Rect{X1: b.Rect.X1, Y1: b.Rect.Y1, X2: b.Rect.X2, Y2: b.Rect.Y2}
	}
	if b.Ports != nil {
		d.Ports = make([]autorouter.PortDescriptor, len(b.Ports))
		for i, p := range b.Ports {
			d.Ports[i] = p.descriptor()
		}
	}
	return d
}

func (p Port) descriptor() autorouter.PortDescriptor {
	d := autorouter.PortDescriptor{ID: p.ID}
	if p.Point != nil {
		pt := geom.Pt(p.Point[0], p.Point[1])
		d.Point = &pt
	}
	for _, v := range p.Area {
		d.Area = append(d.Area, geom.Pt(v[0], v[1]))
	}
	return d
}

func (p Path) spec() (autorouter.PathSpec, error) {
	src, err := parseRefs(p.Src)
	if err != nil {
		return autorouter.PathSpec{}, err
	}
	dst, err := parseRefs(p.Dst)
	if err != nil {
		return autorouter.PathSpec{}, err
	}
	return autorouter.PathSpec{ID: p.ID, Src: src, Dst: dst}, nil
}

// connectAll returns one path per box pair, in input order, from every port
// of the first box to every port of the second. Boxes without ports are
// skipped.
func connectAll(boxes []autorouter.Box) []Path {
	var out []Path
	for i, a := range boxes {
		for _, b := range boxes[i+1:] {
			if len(a.Ports) == 0 || len(b.Ports) == 0 {
				continue
			}
			out = append(out, Path{
				ID:  a.ID + "~" + b.ID,
				Src: portRefs(a),
				Dst: portRefs(b),
			})
		}
	}
	return out
}

func portRefs(b autorouter.Box) []string {
	out := make([]string, len(b.Ports))
	for i, p := range b.Ports {
		out[i] = autorouter.PortRef{Box: b.ID, Port: p.ID}.String()
	}
	return out
}

// =============================================================================
// Graph → Diagram
// =============================================================================

// FromGraph exports the current state of g. Boxes are sorted by ID and
// carry explicit rectangles and ports; paths keep insertion order and carry
// their routing outcome.
func FromGraph(g *autorouter.Graph) Diagram {
	boxes := g.Boxes()
	out := Diagram{Boxes: make([]Box, 0, len(boxes))}
	for _, id := range slices.Sorted(maps.Keys(boxes)) {
		out.Boxes = append(out.Boxes, boxFrom(boxes[id]))
	}
	for _, p := range g.Paths() {
		out.Paths = append(out.Paths, pathFrom(p))
	}
	return out
}

func boxFrom(b autorouter.Box) Box {
	out := Box{
		ID:     b.ID,
		Rect:   &Rect{X1: b.Rect.X1, Y1: b.Rect.Y1, X2: b.Rect.X2, Y2: b.Rect.Y2},
		Parent: b.Parent,
		Ports:  make([]Port, len(b.Ports)),
	}
	for i, p := range b.Ports {
		port := Port{ID: p.ID}
		if len(p.Area) == 1 {
			port.Point = &[2]float64{p.Area[0].X, p.Area[0].Y}
		} else {
			port.Area = points(p.Area)
		}
		out.Ports[i] = port
	}
	return out
}

func pathFrom(p autorouter.Path) Path {
	out := Path{
		ID:     p.ID,
		Src:    formatRefs(p.Src),
		Dst:    formatRefs(p.Dst),
		Points: points(p.Points),
		Status: p.State.String(),
	}
	if p.Err != nil {
		out.Error = p.Err.Error()
	}
	return out
}

func points(pts []geom.Point) [][2]float64 {
	if len(pts) == 0 {
		return nil
	}
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

// =============================================================================
// Convenience
// =============================================================================

// Route loads d into a fresh graph, routes it once and returns the routed
// diagram. Structural errors fail the call; unroutable paths do not and are
// reported in the returned diagram and result.
func Route(ctx context.Context, d Diagram, opts ...autorouter.Option) (Diagram, *autorouter.Result, error) {
	g := autorouter.NewGraph(opts...)
	defer g.Close()
	if err := Apply(d, g); err != nil {
		return Diagram{}, nil, err
	}
	res, err := g.RouteSync(ctx)
	if err != nil {
		return Diagram{}, res, err
	}
	return FromGraph(g), res, nil
}

// Geometry returns the path polyline as points.
func (p Path) Geometry() []geom.Point {
	out := make([]geom.Point, len(p.Points))
	for i, v := range p.Points {
		out[i] = geom.Pt(v[0], v[1])
	}
	return out
}
