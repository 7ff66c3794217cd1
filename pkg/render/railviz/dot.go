package railviz

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Options configures rail graph export.
type Options struct {
	// Detailed adds the enclosing box ids to bracketed edge labels.
	// When false, only the depth and bracket markers are shown.
	Detailed bool

	// BracketsOnly drops every edge that lies outside all boxes.
	BracketsOnly bool
}

// ToDOT converts rails to Graphviz DOT. Every stop becomes a node named by
// its coordinates and every edge joins two consecutive stops. Stops sharing
// a y coordinate are ranked together so horizontal rails stay horizontal.
// Port rails carry no edges and are skipped.
//
// Horizontal edges are blue, vertical edges green. Bracketed edges are
// dashed and labeled with their depth.
func ToDOT(horizontal, vertical []rail.Rail, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph rails {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=point, width=0.08];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	rows := make(map[float64][]geom.Point)
	seen := make(map[geom.Point]bool)
	var lines []string
	for _, r := range slices.Concat(horizontal, vertical) {
		if r.Port {
			continue
		}
		for _, e := range r.Edges {
			if opts.BracketsOnly && !e.Bracketed() {
				continue
			}
			a, b := r.Point(e.From), r.Point(e.To)
			for _, p := range []geom.Point{a, b} {
				if !seen[p] {
					seen[p] = true
					rows[p.Y] = append(rows[p.Y], p)
				}
			}
			lines = append(lines, fmt.Sprintf("  %q -- %q [%s];", a.String(), b.String(),
				strings.Join(fmtAttrs(r.Orientation, e, opts.Detailed), ", ")))
		}
	}

	ys := make([]float64, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	slices.Sort(ys)
	for _, y := range ys {
		pts := rows[y]
		slices.SortFunc(pts, func(a, b geom.Point) int { return cmp.Compare(a.X, b.X) })
		names := make([]string, len(pts))
		for i, p := range pts {
			names[i] = strconv.Quote(p.String())
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(names, "; "))
	}

	buf.WriteString("\n")
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(o geom.Orientation, e rail.Edge, detailed bool) []string {
	color := "steelblue"
	if o == geom.Vertical {
		color = "seagreen"
	}
	attrs := []string{"color=" + color}
	if label := fmtLabel(e, detailed); label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", label))
	}
	if e.Bracketed() {
		attrs = append(attrs, "style=dashed", fmt.Sprintf("penwidth=%d", 1+e.Depth))
	}
	return attrs
}

func fmtLabel(e rail.Edge, detailed bool) string {
	if !e.Bracketed() {
		return ""
	}
	parts := []string{fmt.Sprintf("d=%d", e.Depth)}
	if e.BracketOpening {
		parts = append(parts, "open")
	}
	if e.BracketClosing {
		parts = append(parts, "close")
	}
	label := strings.Join(parts, " ")
	if detailed {
		label += "\n" + strings.Join(e.Inside, ",")
	}
	return label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag, which carries pt units and
// a transform origin, with a plain one sized to the drawing.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
