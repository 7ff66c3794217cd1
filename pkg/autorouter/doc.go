// Package autorouter routes orthogonal connectors between ports on boxes.
//
// A [Graph] owns boxes, their ports and the paths connecting them. Routing
// derives a rail graph from the box geometry (package rail), searches it for
// every pending path (package search) and writes the resulting polylines back
// into the graph.
//
// # Model
//
// Boxes are rectangles with ordered ports. A port is either a single point or
// an "area": consecutive axis-aligned segments along which a connector may
// attach. Boxes may be nested with [Graph.SetComponent]; a route may enter
// the interior of its endpoint boxes, their ancestors, their descendants and
// boxes overlapping them, and crosses no other box.
//
// Paths connect one or more source ports to one or more destination ports.
// The router picks the cheapest pairing.
//
// # Routing
//
// [Graph.RouteSync] rebuilds all rails and routes every pending path.
// [Graph.Update] applies only the geometry changed since the previous pass
// and re-routes the paths those changes affect. [Graph.RouteAsync] queues a
// pass behind a single worker and reports it through a callback; passes
// never overlap and complete in the order they were requested.
//
// A path that cannot be routed is reported in [Result.Unroutable] and keeps
// [Unroutable] state; the rest of the pass is unaffected.
//
// # Usage
//
//	g := autorouter.NewGraph()
//	a, _ := g.AddBox(autorouter.BoxDescriptor{Position: geom.Pt(100, 100)})
//	b, _ := g.AddBox(autorouter.BoxDescriptor{Position: geom.Pt(900, 900)})
//	g.AddPath(autorouter.PathSpec{
//	    Src: []autorouter.PortRef{{Box: a.ID, Port: "bottom"}},
//	    Dst: []autorouter.PortRef{{Box: b.ID, Port: "top"}},
//	})
//	res, err := g.RouteSync(ctx)
package autorouter
