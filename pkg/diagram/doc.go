// Package diagram provides the wire format for routing scenes.
//
// A [Diagram] lists boxes with their ports and the paths to route between
// them. It is read from JSON or TOML files, accepted by the HTTP API, stored
// in the cache and written back out with routed polylines filled in.
//
// # Format
//
// In TOML:
//
//	[[boxes]]
//	id = "a"
//	x = 100
//	y = 100
//
//	[[boxes]]
//	id = "b"
//	x = 900
//	y = 900
//	ports = [{ id = "in", area = [[910, 900], [990, 900]] }]
//
//	[[paths]]
//	src = ["a/bottom"]
//	dst = ["b/in"]
//
// Boxes without a ports key get default "top" and "bottom" ports. Setting
// connect = "all" at the top level adds one path between every pair of
// boxes.
//
// # Conversion
//
// [Apply] loads a diagram into an [autorouter.Graph]; [FromGraph] exports a
// graph, with explicit rectangles and ports, so the export round-trips.
// [Route] does both around a single routing pass.
package diagram
