// Package railviz exports rail graphs for visual inspection.
//
// # Overview
//
// A rail graph is hard to check by reading dumps: bracket edges, nesting
// depths and rail merges only make sense when drawn. This package writes
// the rails of an [autorouter.Graph] as Graphviz DOT and can render that
// DOT to SVG in-process.
//
// # Usage
//
//	dot := railviz.ToDOT(g.Horizontal(), g.Vertical(), railviz.Options{Detailed: true})
//	svg, err := railviz.RenderSVG(ctx, dot)
//
// Nodes are rail stops named "(x,y)". Horizontal edges are blue and
// vertical edges green; edges inside a box are dashed, thicker with depth,
// and labeled "d=N" plus "open" or "close" at a bracket boundary.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system install is needed.
//
// [autorouter.Graph]: github.com/matzehuels/orthoroute/pkg/autorouter.Graph
package railviz
