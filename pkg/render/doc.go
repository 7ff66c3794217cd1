// Package render provides visual output for routed diagrams.
//
// # Overview
//
// The router never draws anything itself; these packages consume its
// results:
//
//   - [svg]: draws boxes, ports and routed connectors as SVG
//   - [railviz]: exports the rail graph as Graphviz DOT and renders it,
//     for inspecting bracket edges and nesting depths
//
// # Usage
//
//	routed, _, err := diagram.Route(ctx, d)
//	img := svg.Render(routed, svg.WithLabels())
//
//	dot := railviz.ToDOT(g.Horizontal(), g.Vertical(), railviz.Options{})
//	img, err := railviz.RenderSVG(ctx, dot)
//
// [svg]: github.com/matzehuels/orthoroute/pkg/render/svg
// [railviz]: github.com/matzehuels/orthoroute/pkg/render/railviz
package render
