package autorouter

import (
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// State is the routing state of a path.
type State int

const (
	// Pending paths are routed by the next pass.
	Pending State = iota
	// Routed paths carry a valid polyline.
	Routed
	// Unroutable paths had no legal route in the last pass.
	Unroutable
)

// String returns "pending", "routed" or "unroutable".
func (s State) String() string {
	switch s {
	case Routed:
		return "routed"
	case Unroutable:
		return "unroutable"
	}
	return "pending"
}

// PathSpec requests a connection. Src and Dst each list one or more
// candidate ports; the router picks the best pairing.
type PathSpec struct {
	ID  string
	Src []PortRef
	Dst []PortRef
}

// Path is a snapshot of a path.
type Path struct {
	ID  string
	Src []PortRef
	Dst []PortRef

	// Points is the routed polyline; empty unless State is Routed.
	Points []geom.Point
	State  State

	// Err is the failure of the last pass for Unroutable paths.
	Err error
}

// Routed reports whether p carries a polyline.
func (p Path) Routed() bool { return p.State == Routed }

type path struct {
	id       string
	src, dst []PortRef
	points   []geom.Point
	state    State
	err      error
}

func (p *path) snapshot() Path {
	return Path{
		ID:     p.id,
		Src:    slices.Clone(p.src),
		Dst:    slices.Clone(p.dst),
		Points: slices.Clone(p.points),
		State:  p.state,
		Err:    p.err,
	}
}

// refs returns every endpoint of p, sources first.
func (p *path) refs() []PortRef {
	return append(slices.Clone(p.src), p.dst...)
}

func (p *path) invalidate() {
	p.state = Pending
	p.points = nil
	p.err = nil
}

// PathError reports one path that could not be routed.
type PathError struct {
	PathID string
	Err    error
}

// Error implements the error interface.
func (e PathError) Error() string { return "path " + e.PathID + ": " + e.Err.Error() }

// Unwrap returns the underlying routing error.
func (e PathError) Unwrap() error { return e.Err }
