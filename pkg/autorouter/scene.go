package autorouter

import (
	"maps"
	"slices"

	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// terminalID names a port's contribution to the rail graph. Ids never
// contain "/", so the result is unique.
func terminalID(boxID, portID string) string { return boxID + "/" + portID }

// scene snapshots the box and port geometry for the rail builder.
func (g *Graph) scene() rail.Scene {
	var s rail.Scene
	for _, id := range slices.Sorted(maps.Keys(g.boxes)) {
		b := g.boxes[id]
		s.Obstacles = append(s.Obstacles, rail.Obstacle{ID: b.id, Rect: b.rect})
		for _, p := range b.ports {
			s.Terminals = append(s.Terminals, rail.Terminal{
				ID:       terminalID(b.id, p.id),
				Box:      b.rect,
				Segments: p.segments(),
			})
		}
	}
	return s
}

func (g *Graph) railOptions() rail.Options {
	return rail.Options{Margin: g.cfg.Margin, FrameMargin: g.cfg.FrameMargin}
}

// touch records b and its ports as changed rail owners, and their current
// geometry as an invalidated region. Mutations call it before and after
// changing a box.
func (g *Graph) touch(b *box) {
	g.changed[b.id] = true
	g.regions = append(g.regions, b.rect.Grow(g.cfg.Margin))
	for _, p := range b.ports {
		g.touchPort(b, p)
	}
}

func (g *Graph) touchPort(b *box, p *port) {
	g.changed[terminalID(b.id, p.id)] = true
	var r geom.Rect
	for i, s := range p.segments() {
		if i == 0 {
			r = s.Bounds()
			continue
		}
		r = r.Union(s.Bounds())
	}
	g.regions = append(g.regions, r.Grow(g.cfg.Margin))
}

// markIncident sets every path attached to a port of b pending.
func (g *Graph) markIncident(b *box) {
	for _, p := range b.ports {
		for pid := range p.paths {
			if pa, ok := g.byID[pid]; ok {
				pa.invalidate()
			}
		}
	}
}

// subtree returns id followed by all its descendants, breadth first.
func (g *Graph) subtree(id string) []string {
	out := []string{id}
	for i := 0; i < len(out); i++ {
		if b, ok := g.boxes[out[i]]; ok {
			out = append(out, b.children...)
		}
	}
	return out
}

// ancestors returns the parent chain of id, nearest first.
func (g *Graph) ancestors(id string) []string {
	var out []string
	for b, ok := g.boxes[id]; ok && b.parent != ""; b, ok = g.boxes[b.parent] {
		out = append(out, b.parent)
	}
	return out
}

// permitted returns the boxes whose interiors p may cross: every endpoint
// box, its ancestors and descendants, and every box overlapping it.
func (g *Graph) permitted(p *path) map[string]bool {
	out := make(map[string]bool)
	for _, ref := range p.refs() {
		e, ok := g.boxes[ref.Box]
		if !ok {
			continue
		}
		for _, id := range g.subtree(e.id) {
			out[id] = true
		}
		for _, id := range g.ancestors(e.id) {
			out[id] = true
		}
		for id, b := range g.boxes {
			if b.rect.Overlaps(e.rect) {
				out[id] = true
			}
		}
	}
	return out
}
