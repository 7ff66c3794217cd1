// Package rail derives the routing graph of horizontal and vertical rails
// from box and port geometry.
//
// # Rails
//
// Every box projects four main rails, one per side, offset by the clearance
// margin. Port areas add a bounded, non-traversable port rail along the area
// plus a main rail perpendicular to it, so each area has at least one entry
// node. Main rails span the whole frame (the diagram bounds grown by the
// frame margin) and rails sharing orientation and coordinate are merged.
//
// # Stops and Edges
//
// A main rail is split at every perpendicular rail crossing it and at every
// boundary of a box whose interior it passes through. The split points are
// the search graph's nodes; the pieces between them are its edges.
//
// # Brackets
//
// An edge lying inside one or more box interiors lists them in [Edge.Inside].
// The first such edge of a box along the rail axis carries
// [Edge.BracketOpening], the last carries [Edge.BracketClosing]. Walking a
// rail, openings push and closings pop; the depth never goes negative and
// returns to zero at the rail's end, which [CheckBrackets] verifies. Search
// treats bracketed edges as crossable only for paths related to every box
// they are inside.
//
// # Incremental Updates
//
// [Graph.Update] recomputes only the contributions of changed owners. Rails
// whose interior classification may change are split again from scratch;
// rails that only gain or lose a crossing are spliced in place. The result
// is identical to [Build] on the same scene.
package rail
