package diagram

import (
	"strings"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
)

// ConnectAll asks Apply to add one fan-out path for every pair of boxes.
const ConnectAll = "all"

// =============================================================================
// Diagram - Wire Format
// =============================================================================

// Diagram is the serialization format for a routing scene: boxes with ports,
// requested paths and, once routed, their polylines.
//
// The same structure is used for input files, API requests and responses,
// and cache entries.
type Diagram struct {
	// Connect set to "all" adds a path between every pair of boxes, from all
	// ports of the first to all ports of the second.
	Connect string `json:"connect,omitempty" toml:"connect,omitempty"`

	Boxes []Box  `json:"boxes" toml:"boxes,omitempty"`
	Paths []Path `json:"paths,omitempty" toml:"paths,omitempty"`
}

// =============================================================================
// Box
// =============================================================================

// Box describes one box. Geometry is either X/Y with an optional size, or an
// explicit Rect, which wins. A nil Ports list gives the box its default
// "top" and "bottom" ports; an empty list gives it none.
type Box struct {
	ID     string  `json:"id" toml:"id"`
	X      float64 `json:"x,omitempty" toml:"x,omitempty"`
	Y      float64 `json:"y,omitempty" toml:"y,omitempty"`
	Width  float64 `json:"width,omitempty" toml:"width,omitempty"`
	Height float64 `json:"height,omitempty" toml:"height,omitempty"`
	Rect   *Rect   `json:"rect,omitempty" toml:"rect,omitempty"`
	Parent string  `json:"parent,omitempty" toml:"parent,omitempty"`
	Ports  []Port  `json:"ports" toml:"ports,omitempty"`
}

// Rect is an explicit box rectangle.
type Rect struct {
	X1 float64 `json:"x1" toml:"x1"`
	Y1 float64 `json:"y1" toml:"y1"`
	X2 float64 `json:"x2" toml:"x2"`
	Y2 float64 `json:"y2" toml:"y2"`
}

// Port is either a Point or an Area of [x, y] vertices.
type Port struct {
	ID    string       `json:"id" toml:"id"`
	Point *[2]float64  `json:"point,omitempty" toml:"point,omitempty"`
	Area  [][2]float64 `json:"area,omitempty" toml:"area,omitempty"`
}

// =============================================================================
// Path
// =============================================================================

// Path requests a connection between "box/port" references. Points, Status
// and Error are filled in by routing and ignored on input.
type Path struct {
	ID     string       `json:"id,omitempty" toml:"id,omitempty"`
	Src    []string     `json:"src" toml:"src"`
	Dst    []string     `json:"dst" toml:"dst"`
	Points [][2]float64 `json:"points,omitempty" toml:"points,omitempty"`
	Status string       `json:"status,omitempty" toml:"status,omitempty"`
	Error  string       `json:"error,omitempty" toml:"error,omitempty"`
}

// Routed reports whether the path carries a polyline.
func (p Path) Routed() bool { return p.Status == autorouter.Routed.String() }

// ParseRef splits a "box/port" reference.
func ParseRef(s string) (autorouter.PortRef, error) {
	box, port, ok := strings.Cut(s, "/")
	if !ok || box == "" || port == "" || strings.Contains(port, "/") {
		return autorouter.PortRef{}, errs.New(errs.ErrCodeInvalidFormat, "port reference %q is not box/port", s)
	}
	return autorouter.PortRef{Box: box, Port: port}, nil
}

func parseRefs(ss []string) ([]autorouter.PortRef, error) {
	out := make([]autorouter.PortRef, 0, len(ss))
	for _, s := range ss {
		r, err := ParseRef(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func formatRefs(refs []autorouter.PortRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}
