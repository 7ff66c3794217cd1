package rail

import (
	"slices"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Diff summarizes what an update changed.
type Diff struct {
	// Full is set when the frame changed and every rail was rebuilt.
	Full bool

	// Added and Removed list main rails that appeared or disappeared.
	Added   []Key
	Removed []Key

	// Relaid counts rails split again from scratch; Spliced counts rails
	// that only gained or lost crossings.
	Relaid  int
	Spliced int
}

// Update brings g in line with scene, touching only what the changed owners
// (box or terminal ids) affect. Owners absent from scene are removed.
func (g *Graph) Update(scene Scene, changed []string) Diff {
	if frame := frameOf(scene, g.opts); frame != g.frame {
		return g.rebuild(scene)
	}

	obstacles := make(map[string]geom.Rect, len(scene.Obstacles))
	for _, o := range scene.Obstacles {
		obstacles[o.ID] = o.Rect
	}
	terminals := make(map[string]Terminal, len(scene.Terminals))
	for _, t := range scene.Terminals {
		terminals[t.ID] = t
	}

	var (
		diff    Diff
		deleted []contribution
		created []contribution
		regions []geom.Rect
	)
	for _, id := range dedupe(changed) {
		if old, ok := g.obstacles[id]; ok {
			regions = append(regions, old)
			delete(g.obstacles, id)
		}
		delete(g.terminals, id)
		deleted = append(deleted, g.retract(id)...)

		if r, ok := obstacles[id]; ok {
			regions = append(regions, r)
			g.obstacles[id] = r
			created = append(created, g.apply(id, obstacleContributions(r, g.opts.Margin))...)
		}
		if t, ok := terminals[id]; ok {
			g.terminals[t.ID] = t
			created = append(created, g.apply(id, terminalContributions(t))...)
		}
	}

	// A rail created and deleted within one update nets out.
	added, removed := netChanges(created, deleted)

	relayout := make(map[*Rail]bool)
	splice := map[geom.Orientation][]float64{}
	// Every rail object created here starts empty, even when it replaces
	// a rail deleted earlier in the same update.
	for _, c := range created {
		if r, ok := g.mainRails(c.orient)[c.coord]; ok && !c.port {
			relayout[r] = true
		}
	}
	for _, c := range added {
		if c.port {
			g.markCrossing(relayout, c)
			continue
		}
		diff.Added = append(diff.Added, Key{c.orient, c.coord})
		splice[c.orient.Perpendicular()] = append(splice[c.orient.Perpendicular()], c.coord)
	}
	for _, c := range removed {
		if c.port {
			g.markCrossing(relayout, c)
			continue
		}
		diff.Removed = append(diff.Removed, Key{c.orient, c.coord})
		splice[c.orient.Perpendicular()] = append(splice[c.orient.Perpendicular()], c.coord)
	}
	for _, b := range regions {
		g.markInterior(relayout, b)
	}

	for r := range relayout {
		g.layout(r)
		diff.Relaid++
	}
	for o, coords := range splice {
		slices.Sort(coords)
		coords = slices.Compact(coords)
		for _, r := range g.mainRails(o) {
			if relayout[r] {
				continue
			}
			changedAny := false
			for _, c := range coords {
				if g.spliceStop(r, c) {
					changedAny = true
				}
			}
			if changedAny {
				diff.Spliced++
			}
		}
	}
	slices.SortFunc(diff.Added, compareKeys)
	slices.SortFunc(diff.Removed, compareKeys)
	return diff
}

func (g *Graph) rebuild(scene Scene) Diff {
	before := g.Keys()
	*g = *Build(scene, g.opts)
	after := g.Keys()

	diff := Diff{Full: true, Relaid: len(after)}
	in := func(keys []Key, k Key) bool {
		_, ok := slices.BinarySearchFunc(keys, k, compareKeys)
		return ok
	}
	slices.SortFunc(before, compareKeys)
	slices.SortFunc(after, compareKeys)
	for _, k := range after {
		if !in(before, k) {
			diff.Added = append(diff.Added, k)
		}
	}
	for _, k := range before {
		if !in(after, k) {
			diff.Removed = append(diff.Removed, k)
		}
	}
	return diff
}

func compareKeys(a, b Key) int {
	if a.Orientation != b.Orientation {
		return int(a.Orientation) - int(b.Orientation)
	}
	return cmpFloat(a.Coord, b.Coord)
}

func dedupe(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// netChanges cancels contributions whose rail was both deleted and created.
func netChanges(created, deleted []contribution) (added, removed []contribution) {
	count := make(map[contribution]int)
	for _, c := range created {
		count[c]++
	}
	for _, c := range deleted {
		count[c]--
	}
	for c, n := range count {
		switch {
		case n > 0:
			added = append(added, c)
		case n < 0:
			removed = append(removed, c)
		}
	}
	slices.SortFunc(added, compareContributions)
	slices.SortFunc(removed, compareContributions)
	return added, removed
}

func compareContributions(a, b contribution) int {
	switch {
	case a.port != b.port:
		if a.port {
			return 1
		}
		return -1
	case a.orient != b.orient:
		return int(a.orient) - int(b.orient)
	case a.coord != b.coord:
		return cmpFloat(a.coord, b.coord)
	case a.lo != b.lo:
		return cmpFloat(a.lo, b.lo)
	}
	return cmpFloat(a.hi, b.hi)
}

// markCrossing marks the main rails a port rail crosses.
func (g *Graph) markCrossing(relayout map[*Rail]bool, c contribution) {
	for pos, r := range g.mainRails(c.orient.Perpendicular()) {
		if pos >= c.lo && pos <= c.hi {
			relayout[r] = true
		}
	}
}

// markInterior marks the main rails running through the interior of b.
func (g *Graph) markInterior(relayout map[*Rail]bool, b geom.Rect) {
	for y, r := range g.horizontal {
		if y > b.Y1 && y < b.Y2 {
			relayout[r] = true
		}
	}
	for x, r := range g.vertical {
		if x > b.X1 && x < b.X2 {
			relayout[r] = true
		}
	}
}

// needsStop reports whether pos must be a stop on main rail r.
func (g *Graph) needsStop(r *Rail, pos float64) bool {
	if pos == r.Lo || pos == r.Hi {
		return true
	}
	if _, ok := g.mainRails(r.Orientation.Perpendicular())[pos]; ok {
		return true
	}
	for k := range g.ports {
		if k.orient != r.Orientation && k.coord == pos && r.Coord >= k.lo && r.Coord <= k.hi {
			return true
		}
	}
	for _, b := range g.obstacles {
		if lo, hi, ok := crosses(r.Orientation, r.Coord, b); ok && (lo == pos || hi == pos) {
			return true
		}
	}
	return false
}

// spliceStop adds or removes the stop at pos so r matches a fresh layout.
// Only crossings change here: interior classification of r is untouched,
// so a split edge keeps its boxes and a merge joins edges with equal boxes.
func (g *Graph) spliceStop(r *Rail, pos float64) bool {
	if pos < r.Lo || pos > r.Hi {
		return false
	}
	want := g.needsStop(r, pos)
	i, have := r.stopIndex(pos)
	switch {
	case want && !have:
		// Stops[i-1] < pos < Stops[i]; edge i-1 is split in two.
		e := r.Edges[i-1]
		left := Edge{From: e.From, To: pos, Inside: slices.Clone(e.Inside), Depth: e.Depth, BracketOpening: e.BracketOpening}
		right := Edge{From: pos, To: e.To, Inside: slices.Clone(e.Inside), Depth: e.Depth, BracketClosing: e.BracketClosing}
		r.Stops = slices.Insert(r.Stops, i, pos)
		r.Edges = slices.Replace(r.Edges, i-1, i, left, right)
		return true
	case !want && have:
		left, right := r.Edges[i-1], r.Edges[i]
		merged := Edge{
			From: left.From, To: right.To,
			Inside: left.Inside, Depth: left.Depth,
			BracketOpening: left.BracketOpening, BracketClosing: right.BracketClosing,
		}
		r.Stops = slices.Delete(r.Stops, i, i+1)
		r.Edges = slices.Replace(r.Edges, i-1, i+1, merged)
		return true
	}
	return false
}
