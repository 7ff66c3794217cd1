// Package pkg provides the libraries behind orthoroute, an orthogonal
// connector router for box diagrams.
//
// # Overview
//
// Orthoroute draws right-angled connector lines between boxes. Boxes may nest
// inside component boxes; every box keeps a margin free of unrelated lines.
// The pkg directory is organized into these areas:
//
//  1. [autorouter] - The routing engine: graph model, rail builder, path
//     search and incremental updates
//  2. [diagram] - Serialization of diagrams (JSON, TOML) and loading them into
//     a graph
//  3. [render] - SVG drawings of routed diagrams and Graphviz views of rails
//  4. [pipeline] - Orchestration (route then render) with caching
//  5. [server] - The HTTP API
//
// # Architecture
//
// The typical data flow:
//
//	Diagram file / API request
//	         ↓
//	    [diagram] package (decode, Apply to a graph)
//	         ↓
//	    [autorouter] package (rails + path search)
//	         ↓
//	    [render] package (SVG, DOT)
//	         ↓
//	    JSON/SVG/DOT output
//
// # Quick Start
//
//	g := autorouter.NewGraph()
//	defer g.Close()
//
//	g.AddBoxes([]autorouter.BoxDescriptor{
//	    {ID: "a"},
//	    {ID: "b", Position: geom.Pt(300, 0)},
//	})
//	g.AddPath(autorouter.PathSpec{
//	    Src: []autorouter.PortRef{{Box: "a", Port: autorouter.PortTop}},
//	    Dst: []autorouter.PortRef{{Box: "b", Port: autorouter.PortTop}},
//	})
//	res, err := g.RouteSync(ctx)
//
// # Supporting Packages
//
// [cache] stores routed diagrams and artifacts in files or Redis.
// [config] loads router geometry and service settings from TOML.
// [errors] carries machine-readable error codes.
// [observability] exposes hooks for metrics and tracing.
//
// [autorouter]: github.com/matzehuels/orthoroute/pkg/autorouter
// [diagram]: github.com/matzehuels/orthoroute/pkg/diagram
// [render]: github.com/matzehuels/orthoroute/pkg/render
// [pipeline]: github.com/matzehuels/orthoroute/pkg/pipeline
// [server]: github.com/matzehuels/orthoroute/pkg/server
// [cache]: github.com/matzehuels/orthoroute/pkg/cache
// [config]: github.com/matzehuels/orthoroute/pkg/config
// [errors]: github.com/matzehuels/orthoroute/pkg/errors
// [observability]: github.com/matzehuels/orthoroute/pkg/observability
package pkg
