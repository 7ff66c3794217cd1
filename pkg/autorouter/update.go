package autorouter

import "context"

// Update applies the geometry changed since the previous pass to the rail
// graph, touching only the rails those changes affect, and routes the paths
// left pending: paths attached to changed boxes, paths crossing a changed
// region and paths running along a removed rail. Other routed paths keep
// their points. The first Update on a graph builds all rails.
func (g *Graph) Update(ctx context.Context) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pass(ctx, false)
}

// Rebuild rebuilds every rail from scratch without routing. Paths the
// recorded changes affect become pending.
func (g *Graph) Rebuild() {
	g.mu.Lock()
	defer g.mu.Unlock()
	var stats Stats
	g.refresh(true, &stats)
}
