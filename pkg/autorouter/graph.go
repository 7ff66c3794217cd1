package autorouter

import (
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	"github.com/matzehuels/orthoroute/pkg/config"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Graph is the aggregate root of boxes, ports, paths and rails.
//
// All methods are safe for concurrent use. Mutations and routing passes are
// serialized: a pass holds the graph for its whole duration, so a mutation
// issued during a pass waits for it to finish.
type Graph struct {
	mu     sync.Mutex
	cfg    config.Router
	logger *log.Logger

	boxes map[string]*box
	paths []*path
	byID  map[string]*path

	// rails is the rail graph of the last pass; changed and regions record
	// what was mutated since.
	rails   *rail.Graph
	changed map[string]bool
	regions []geom.Rect

	async dispatcher
}

// NewGraph returns an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		cfg:     config.DefaultRouter(),
		logger:  discardLogger(),
		boxes:   make(map[string]*box),
		byID:    make(map[string]*path),
		changed: make(map[string]bool),
	}
	g.async.signal = make(chan struct{}, 1)
	g.async.stopped = make(chan struct{})
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the router configuration in effect.
func (g *Graph) Config() config.Router { return g.cfg }

// =============================================================================
// Boxes
// =============================================================================

// AddBox adds a box and returns it with its ports. An empty ID is replaced
// by a generated one.
func (g *Graph) AddBox(d BoxDescriptor) (Box, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, err := g.newBox(d, g.cfg.DefaultWidth, g.cfg.DefaultHeight)
	if err != nil {
		return Box{}, err
	}
	if _, ok := g.boxes[b.id]; ok {
		return Box{}, errs.New(errs.ErrCodeDuplicateID, "box %q already exists", b.id)
	}
	g.insert(b)
	return b.snapshot(), nil
}

// AddBoxes adds several boxes. Either all are added or, on the first
// invalid descriptor, none.
func (g *Graph) AddBoxes(ds []BoxDescriptor) ([]Box, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	batch := make([]*box, 0, len(ds))
	seen := make(map[string]bool, len(ds))
	for i, d := range ds {
		b, err := g.newBox(d, g.cfg.DefaultWidth, g.cfg.DefaultHeight)
		if err != nil {
			return nil, errs.Wrap(errs.GetCode(err), err, "box %d", i)
		}
		if _, ok := g.boxes[b.id]; ok || seen[b.id] {
			return nil, errs.New(errs.ErrCodeDuplicateID, "box %q already exists", b.id)
		}
		seen[b.id] = true
		batch = append(batch, b)
	}

	out := make([]Box, len(batch))
	for i, b := range batch {
		g.insert(b)
		out[i] = b.snapshot()
	}
	return out, nil
}

func (g *Graph) insert(b *box) {
	g.boxes[b.id] = b
	g.touch(b)
}

// RemoveBox removes a box, its components (recursively), their ports and
// every path incident to those ports.
func (g *Graph) RemoveBox(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeBox(id)
}

func (g *Graph) removeBox(id string) error {
	b, ok := g.boxes[id]
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "box %q not found", id)
	}
	if parent, ok := g.boxes[b.parent]; ok {
		parent.children = slices.DeleteFunc(parent.children, func(c string) bool { return c == id })
	}
	for _, sid := range g.subtree(id) {
		sb := g.boxes[sid]
		for _, p := range sb.ports {
			for _, pid := range slices.Sorted(maps.Keys(p.paths)) {
				if pa, ok := g.byID[pid]; ok {
					g.deletePath(pa)
				}
			}
		}
		g.touch(sb)
		delete(g.boxes, sid)
	}
	return nil
}

// Remove removes the box or, failing that, the path with the given id.
func (g *Graph) Remove(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.boxes[id]; ok {
		return g.removeBox(id)
	}
	if p, ok := g.byID[id]; ok {
		g.deletePath(p)
		return nil
	}
	return errs.New(errs.ErrCodeNotFound, "no box or path %q", id)
}

// Move places the box's top-left corner at pos, keeping its size. Its
// components move by the same offset.
func (g *Graph) Move(id string, pos geom.Point) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.boxes[id]
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "box %q not found", id)
	}
	d := pos.Sub(b.rect.Min())
	next := b.rect.Translate(d)
	if err := errs.ValidateRect(next.X1, next.Y1, next.X2, next.Y2); err != nil {
		return err
	}
	if d == (geom.Point{}) {
		return nil
	}
	for _, sid := range g.subtree(id) {
		sb := g.boxes[sid]
		g.touch(sb)
		sb.translate(d)
		g.touch(sb)
		g.markIncident(sb)
	}
	return nil
}

// SetBoxRect replaces the rectangle and ports of a box. Paths keep ports
// whose id survives; an endpoint on a vanished port moves to the nearest
// remaining port of the box, and a path left with an empty side is removed.
// The descriptor's ID is ignored.
func (g *Graph) SetBoxRect(id string, d BoxDescriptor) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.boxes[id]
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "box %q not found", id)
	}
	d.ID = id
	nb, err := g.newBox(d, b.rect.Width(), b.rect.Height())
	if err != nil {
		return err
	}

	g.touch(b)
	old := b.ports
	b.rect, b.ports = nb.rect, nb.ports
	for _, op := range old {
		if np := b.port(op.id); np != nil {
			maps.Copy(np.paths, op.paths)
			continue
		}
		near := nearest(b.ports, op)
		for _, pid := range slices.Sorted(maps.Keys(op.paths)) {
			p, ok := g.byID[pid]
			if !ok {
				continue
			}
			if !g.reattach(p, PortRef{Box: id, Port: op.id}, near) {
				g.deletePath(p)
			}
		}
	}
	g.touch(b)
	g.markIncident(b)
	return nil
}

// SetComponent nests child inside parent. An empty parent detaches child
// from its current parent.
func (g *Graph) SetComponent(parent, child string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.boxes[child]
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "box %q not found", child)
	}
	var p *box
	if parent != "" {
		if p, ok = g.boxes[parent]; !ok {
			return errs.New(errs.ErrCodeNotFound, "box %q not found", parent)
		}
		if parent == child || slices.Contains(g.ancestors(parent), child) {
			return errs.New(errs.ErrCodeContainmentCycle, "making %q a component of %q would form a cycle", child, parent)
		}
	}
	if c.parent == parent {
		return nil
	}

	affected := append(g.ancestors(child), g.subtree(child)...)
	if old, ok := g.boxes[c.parent]; ok {
		old.children = slices.DeleteFunc(old.children, func(id string) bool { return id == child })
	}
	c.parent = parent
	if p != nil {
		p.children = append(p.children, child)
		slices.Sort(p.children)
		affected = append(affected, g.ancestors(child)...)
	}
	for _, id := range affected {
		g.markIncident(g.boxes[id])
	}
	return nil
}

// =============================================================================
// Ports
// =============================================================================

// AddPort attaches a new port to an existing box.
func (g *Graph) AddPort(boxID string, d PortDescriptor) (Port, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.boxes[boxID]
	if !ok {
		return Port{}, errs.New(errs.ErrCodeNotFound, "box %q not found", boxID)
	}
	p, err := newPort(d)
	if err != nil {
		return Port{}, err
	}
	if b.port(p.id) != nil {
		return Port{}, errs.New(errs.ErrCodeDuplicateID, "box %q already has port %q", boxID, p.id)
	}
	b.ports = append(b.ports, p)
	g.touchPort(b, p)
	return p.snapshot(boxID), nil
}

// RemovePort deletes a port. Incident paths lose that endpoint and are
// removed when a side is left empty.
func (g *Graph) RemovePort(boxID, portID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.boxes[boxID]
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "box %q not found", boxID)
	}
	p := b.port(portID)
	if p == nil {
		return errs.New(errs.ErrCodeNotFound, "port %q not found on box %q", portID, boxID)
	}
	for _, pid := range slices.Sorted(maps.Keys(p.paths)) {
		if pa, ok := g.byID[pid]; ok && !g.reattach(pa, PortRef{Box: boxID, Port: portID}, nil) {
			g.deletePath(pa)
		}
	}
	g.touchPort(b, p)
	b.ports = slices.DeleteFunc(b.ports, func(q *port) bool { return q == p })
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// AddPath adds a pending path. Every endpoint must name an existing port.
func (g *Graph) AddPath(spec PathSpec) (Path, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := errs.ValidateID("path", spec.ID); err != nil {
		return Path{}, err
	}
	if _, ok := g.byID[spec.ID]; ok {
		return Path{}, errs.New(errs.ErrCodeDuplicateID, "path %q already exists", spec.ID)
	}
	if len(spec.Src) == 0 || len(spec.Dst) == 0 {
		return Path{}, errs.New(errs.ErrCodeInvalidInput, "path needs at least one source and one destination port")
	}
	for _, ref := range append(slices.Clone(spec.Src), spec.Dst...) {
		if g.lookup(ref) == nil {
			return Path{}, errs.New(errs.ErrCodeNotFound, "port %s not found", ref)
		}
	}

	p := &path{id: spec.ID, src: uniqueRefs(spec.Src), dst: uniqueRefs(spec.Dst)}
	if p.id == "" {
		p.id = uuid.NewString()
	}
	for _, ref := range p.refs() {
		g.lookup(ref).paths[p.id] = true
	}
	g.paths = append(g.paths, p)
	g.byID[p.id] = p
	return p.snapshot(), nil
}

// RemovePath removes a path and detaches it from its ports.
func (g *Graph) RemovePath(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.byID[id]
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "path %q not found", id)
	}
	g.deletePath(p)
	return nil
}

func (g *Graph) deletePath(p *path) {
	for _, ref := range p.refs() {
		if pt := g.lookup(ref); pt != nil {
			delete(pt.paths, p.id)
		}
	}
	delete(g.byID, p.id)
	g.paths = slices.DeleteFunc(g.paths, func(q *path) bool { return q == p })
}

// reattach replaces endpoint from by a port of the same box, or drops it
// when to is nil. It reports whether both sides still have an endpoint.
func (g *Graph) reattach(p *path, from PortRef, to *port) bool {
	replace := func(refs []PortRef) []PortRef {
		out := refs[:0]
		for _, r := range refs {
			switch {
			case r != from:
				out = append(out, r)
			case to != nil:
				out = append(out, PortRef{Box: from.Box, Port: to.id})
			}
		}
		return uniqueRefs(out)
	}
	p.src, p.dst = replace(p.src), replace(p.dst)
	if to != nil {
		to.paths[p.id] = true
	}
	p.invalidate()
	return len(p.src) > 0 && len(p.dst) > 0
}

func (g *Graph) lookup(ref PortRef) *port {
	b, ok := g.boxes[ref.Box]
	if !ok {
		return nil
	}
	return b.port(ref.Port)
}

func uniqueRefs(refs []PortRef) []PortRef {
	seen := make(map[PortRef]bool, len(refs))
	out := make([]PortRef, 0, len(refs))
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// Introspection
// =============================================================================

// Boxes returns a snapshot of all boxes by id.
func (g *Graph) Boxes() map[string]Box {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]Box, len(g.boxes))
	for id, b := range g.boxes {
		out[id] = b.snapshot()
	}
	return out
}

// Box returns a snapshot of one box.
func (g *Graph) Box(id string) (Box, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.boxes[id]
	if !ok {
		return Box{}, false
	}
	return b.snapshot(), true
}

// Paths returns snapshots of all paths in insertion order.
func (g *Graph) Paths() []Path {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pathSnapshots()
}

// Path returns a snapshot of one path.
func (g *Graph) Path(id string) (Path, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.byID[id]
	if !ok {
		return Path{}, false
	}
	return p.snapshot(), true
}

func (g *Graph) pathSnapshots() []Path {
	out := make([]Path, len(g.paths))
	for i, p := range g.paths {
		out[i] = p.snapshot()
	}
	return out
}
