// Package svg draws routed diagrams as SVG.
//
// Boxes are drawn outermost first so nested boxes stay visible, ports as
// short strokes or dots on the box outline, and routed paths as polylines.
// Unroutable paths are not drawn; with [WithLabels] their ids are listed
// under the drawing.
package svg

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/orthoroute/pkg/diagram"
)

const connectorCSS = `
    .box { fill: #f8f8f8; stroke: #333; stroke-width: 1.5; }
    .port { stroke: #1f6feb; stroke-width: 3; fill: #1f6feb; }
    .path { fill: none; stroke: #d1242f; stroke-width: 2; stroke-linejoin: round; }
    .path:hover { stroke-width: 4; }
    .label { font: 12px sans-serif; fill: #333; }
    .failed { font: 12px sans-serif; fill: #d1242f; }`

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	padding float64
	labels  bool
}

// WithPadding sets the blank border around the drawing.
func WithPadding(p float64) Option { return func(r *renderer) { r.padding = p } }

// WithLabels writes box ids and the list of unroutable paths.
func WithLabels() Option { return func(r *renderer) { r.labels = true } }

// Render draws d.
func Render(d diagram.Diagram, opts ...Option) []byte {
	r := renderer{padding: 20}
	for _, opt := range opts {
		opt(&r)
	}

	boxes := sortedBoxes(d.Boxes)
	var failed []string
	for _, p := range d.Paths {
		if !p.Routed() {
			failed = append(failed, p.ID)
		}
	}

	x1, y1, x2, y2 := bounds(d)
	x1, y1 = x1-r.padding, y1-r.padding
	w, h := x2-x1+r.padding, y2-y1+r.padding
	footer := 0.0
	if r.labels && len(failed) > 0 {
		footer = 20 * float64(len(failed)+1)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		x1, y1, w, h+footer, w, h+footer)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", connectorCSS)

	for _, b := range boxes {
		renderBox(&buf, b, r.labels)
	}
	for _, p := range d.Paths {
		if p.Routed() {
			renderPath(&buf, p)
		}
	}
	if footer > 0 {
		fmt.Fprintf(&buf, `  <text class="failed" x="%.1f" y="%.1f">unroutable:</text>`+"\n", x1+r.padding, y1+h+15)
		for i, id := range failed {
			fmt.Fprintf(&buf, `  <text class="failed" x="%.1f" y="%.1f">%s</text>`+"\n",
				x1+r.padding*2, y1+h+15+20*float64(i+1), html.EscapeString(id))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderBox(buf *bytes.Buffer, b diagram.Box, label bool) {
	x1, y1, x2, y2 := rectOf(b)
	fmt.Fprintf(buf, `  <rect id="box-%s" class="box" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
		html.EscapeString(b.ID), x1, y1, x2-x1, y2-y1)
	for _, p := range b.Ports {
		switch {
		case p.Point != nil:
			fmt.Fprintf(buf, `  <circle class="port" cx="%.1f" cy="%.1f" r="3"/>`+"\n", p.Point[0], p.Point[1])
		case len(p.Area) == 1:
			fmt.Fprintf(buf, `  <circle class="port" cx="%.1f" cy="%.1f" r="3"/>`+"\n", p.Area[0][0], p.Area[0][1])
		case len(p.Area) > 1:
			fmt.Fprintf(buf, `  <polyline class="port" fill="none" points="%s"/>`+"\n", pointList(p.Area))
		}
	}
	if label {
		fmt.Fprintf(buf, `  <text class="label" x="%.1f" y="%.1f">%s</text>`+"\n", x1+4, y1+14, html.EscapeString(b.ID))
	}
}

func renderPath(buf *bytes.Buffer, p diagram.Path) {
	fmt.Fprintf(buf, `  <polyline id="path-%s" class="path" points="%s"/>`+"\n", html.EscapeString(p.ID), pointList(p.Points))
}

func pointList(pts [][2]float64) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p[0], p[1])
	}
	return strings.Join(parts, " ")
}

// sortedBoxes orders boxes by nesting depth, then by area descending, then
// by id.
func sortedBoxes(boxes []diagram.Box) []diagram.Box {
	parent := make(map[string]string, len(boxes))
	for _, b := range boxes {
		parent[b.ID] = b.Parent
	}
	depth := func(id string) int {
		n := 0
		for seen := 0; parent[id] != "" && seen < len(boxes); seen++ {
			id = parent[id]
			n++
		}
		return n
	}
	area := func(b diagram.Box) float64 {
		x1, y1, x2, y2 := rectOf(b)
		return (x2 - x1) * (y2 - y1)
	}

	out := slices.Clone(boxes)
	slices.SortStableFunc(out, func(a, b diagram.Box) int {
		if c := cmp.Compare(depth(a.ID), depth(b.ID)); c != 0 {
			return c
		}
		if c := cmp.Compare(area(b), area(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func rectOf(b diagram.Box) (x1, y1, x2, y2 float64) {
	if b.Rect != nil {
		return b.Rect.X1, b.Rect.Y1, b.Rect.X2, b.Rect.Y2
	}
	return b.X, b.Y, b.X + b.Width, b.Y + b.Height
}

// bounds covers every box and routed point. An empty diagram yields a unit
// square at the origin.
func bounds(d diagram.Diagram) (x1, y1, x2, y2 float64) {
	x1, y1 = math.Inf(1), math.Inf(1)
	x2, y2 = math.Inf(-1), math.Inf(-1)
	extend := func(x, y float64) {
		x1, y1 = math.Min(x1, x), math.Min(y1, y)
		x2, y2 = math.Max(x2, x), math.Max(y2, y)
	}
	for _, b := range d.Boxes {
		bx1, by1, bx2, by2 := rectOf(b)
		extend(bx1, by1)
		extend(bx2, by2)
	}
	for _, p := range d.Paths {
		for _, pt := range p.Points {
			extend(pt[0], pt[1])
		}
	}
	if math.IsInf(x1, 1) {
		return 0, 0, 1, 1
	}
	return x1, y1, x2, y2
}
