package autorouter

import (
	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Horizontal returns the horizontal rails of the last pass, main and port
// rails, sorted by coordinate.
func (g *Graph) Horizontal() []rail.Rail {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rails == nil {
		return nil
	}
	return g.rails.Horizontal()
}

// Vertical returns the vertical rails of the last pass.
func (g *Graph) Vertical() []rail.Rail {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rails == nil {
		return nil
	}
	return g.rails.Vertical()
}

// Frame returns the extent of the rails of the last pass.
func (g *Graph) Frame() geom.Rect {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rails == nil {
		return geom.Rect{}
	}
	return g.rails.Frame()
}

// DumpEdgeLists returns a listing of every rail with its edges, bracket
// markers and depths. It is empty before the first pass.
func (g *Graph) DumpEdgeLists() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rails == nil {
		return ""
	}
	return g.rails.String()
}
