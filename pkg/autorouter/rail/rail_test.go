package rail_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

var opts = rail.Options{Margin: 10, FrameMargin: 50}

func box(id string, x1, y1, x2, y2 float64) rail.Obstacle {
	return rail.Obstacle{ID: id, Rect: geom.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}}
}

func terminal(id string, b rail.Obstacle, segs ...geom.Segment) rail.Terminal {
	return rail.Terminal{ID: id, Box: b.Rect, Segments: segs}
}

func checkAll(t *testing.T, g *rail.Graph) {
	t.Helper()
	for _, r := range append(g.Horizontal(), g.Vertical()...) {
		require.NoError(t, rail.CheckBrackets(r))
	}
}

func mainRail(t *testing.T, g *rail.Graph, o geom.Orientation, coord float64) rail.Rail {
	t.Helper()
	r, ok := g.Rail(rail.Key{Orientation: o, Coord: coord})
	require.True(t, ok, "no %s rail at %g", o, coord)
	return r
}

// ------------------------------------------------------------------------
// 1. Construction
// ------------------------------------------------------------------------

func TestBuild_SingleBox(t *testing.T) {
	g := rail.Build(rail.Scene{Obstacles: []rail.Obstacle{box("a", 0, 0, 100, 100)}}, opts)

	assert.Equal(t, geom.Rect{X1: -50, Y1: -50, X2: 150, Y2: 150}, g.Frame())
	require.Len(t, g.Horizontal(), 2)
	require.Len(t, g.Vertical(), 2)

	top := mainRail(t, g, geom.Horizontal, -10)
	assert.Equal(t, []string{"a"}, top.Owners)
	assert.Equal(t, []float64{-50, -10, 110, 150}, top.Stops)
	for _, e := range top.Edges {
		assert.False(t, e.Bracketed(), "external rail must not be inside the box")
	}
	checkAll(t, g)
}

func TestBuild_EmptyScene(t *testing.T) {
	g := rail.Build(rail.Scene{}, opts)
	assert.Empty(t, g.Horizontal())
	assert.Empty(t, g.Vertical())
	assert.Empty(t, g.Keys())
}

func TestBuild_MergesCoincidentRails(t *testing.T) {
	g := rail.Build(rail.Scene{Obstacles: []rail.Obstacle{
		box("a", 0, 0, 100, 100),
		box("b", 300, 0, 400, 50),
	}}, opts)

	top := mainRail(t, g, geom.Horizontal, -10)
	assert.Equal(t, []string{"a", "b"}, top.Owners)
	assert.Len(t, g.Horizontal(), 3, "tops merge, bottoms differ")
	checkAll(t, g)
}

func TestBuild_SelfLoopHasBracketEdge(t *testing.T) {
	b := box("a", 0, 0, 100, 100)
	g := rail.Build(rail.Scene{
		Obstacles: []rail.Obstacle{b},
		Terminals: []rail.Terminal{
			terminal("a:top", b, geom.Seg(geom.Pt(10, 0), geom.Pt(90, 0))),
			terminal("a:bottom", b, geom.Seg(geom.Pt(10, 100), geom.Pt(90, 100))),
		},
	}, opts)

	mid := mainRail(t, g, geom.Vertical, 50)
	assert.Equal(t, []string{"a:bottom", "a:top"}, mid.Owners)
	assert.Equal(t, []float64{-50, -10, 0, 100, 110, 150}, mid.Stops)

	inner := mid.Edges[2]
	assert.Equal(t, []string{"a"}, inner.Inside)
	assert.Equal(t, 1, inner.Depth)
	assert.True(t, inner.BracketOpening)
	assert.True(t, inner.BracketClosing)
	checkAll(t, g)
}

func TestBuild_NestedDepth(t *testing.T) {
	outer := box("outer", 0, 0, 200, 200)
	inner := box("inner", 50, 50, 150, 150)
	g := rail.Build(rail.Scene{
		Obstacles: []rail.Obstacle{outer, inner},
		Terminals: []rail.Terminal{
			terminal("inner:center", inner, geom.Seg(geom.Pt(100, 100), geom.Pt(100, 100))),
		},
	}, opts)

	r := mainRail(t, g, geom.Horizontal, 100)
	var depths []int
	for _, e := range r.Edges {
		depths = append(depths, e.Depth)
	}
	assert.Equal(t, []float64{-50, -10, 0, 40, 50, 100, 150, 160, 200, 210, 250}, r.Stops)
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2, 1, 1, 0, 0}, depths)
	assert.Equal(t, []string{"inner", "outer"}, r.Edges[4].Inside)
	assert.True(t, r.Edges[4].BracketOpening)
	assert.False(t, r.Edges[3].BracketOpening)
	assert.True(t, r.Edges[5].BracketClosing)
	checkAll(t, g)
}

// ------------------------------------------------------------------------
// 2. Entries and neighbors
// ------------------------------------------------------------------------

func TestEntries(t *testing.T) {
	a := box("a", 0, 0, 100, 100)
	far := box("far", 40, 300, 80, 340)
	scene := rail.Scene{
		Obstacles: []rail.Obstacle{a, far},
		Terminals: []rail.Terminal{
			terminal("a:top", a, geom.Seg(geom.Pt(10, 0), geom.Pt(90, 0))),
			terminal("a:left", a, geom.Seg(geom.Pt(0, 50), geom.Pt(0, 50))),
			terminal("free", a, geom.Seg(geom.Pt(300, 300), geom.Pt(300, 300))),
		},
	}
	g := rail.Build(scene, opts)

	tests := []struct {
		name string
		id   string
		want []geom.Point
	}{
		{"area crossed by three rails", "a:top", []geom.Point{{X: 30, Y: 0}, {X: 50, Y: 0}, {X: 90, Y: 0}}},
		{"point on side", "a:left", []geom.Point{{X: 0, Y: 50}}},
		{"free point", "free", []geom.Point{{X: 300, Y: 300}}},
		{"unknown", "nope", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Entries(tt.id))
		})
	}
}

func TestNeighbors(t *testing.T) {
	a := box("a", 0, 0, 100, 100)
	g := rail.Build(rail.Scene{
		Obstacles: []rail.Obstacle{a},
		Terminals: []rail.Terminal{terminal("a:left", a, geom.Seg(geom.Pt(0, 50), geom.Pt(0, 50)))},
	}, opts)

	arcs := g.Neighbors(geom.Pt(0, 50))
	require.Len(t, arcs, 2, "only the horizontal main rail passes through a side port")
	assert.Equal(t, geom.Pt(-10, 50), arcs[0].To)
	assert.False(t, arcs[0].Edge.Bracketed())
	assert.Equal(t, geom.Pt(100, 50), arcs[1].To)
	assert.Equal(t, []string{"a"}, arcs[1].Edge.Inside)

	assert.Empty(t, g.Neighbors(geom.Pt(1, 1)), "not a stop")
}

// ------------------------------------------------------------------------
// 3. Incremental updates
// ------------------------------------------------------------------------

// anchors pin the frame so updates stay incremental.
var anchors = []rail.Obstacle{box("nw", -500, -500, -450, -450), box("se", 1500, 1500, 1550, 1550)}

func scene(boxes ...rail.Obstacle) rail.Scene {
	s := rail.Scene{Obstacles: append(slices.Clone(anchors), boxes...)}
	for _, b := range boxes {
		s.Terminals = append(s.Terminals,
			terminal(b.ID+":top", b, geom.Seg(geom.Pt(b.Rect.X1+10, b.Rect.Y1), geom.Pt(b.Rect.X2-10, b.Rect.Y1))),
			terminal(b.ID+":left", b, geom.Seg(geom.Pt(b.Rect.X1, b.Rect.Center().Y), geom.Pt(b.Rect.X1, b.Rect.Center().Y))))
	}
	return s
}

func owners(ids ...string) []string {
	var out []string
	for _, id := range ids {
		out = append(out, id, id+":top", id+":left")
	}
	return out
}

func TestUpdate_MatchesBuild(t *testing.T) {
	a := box("a", 0, 0, 100, 100)
	b := box("b", 300, 0, 400, 100)
	g := rail.Build(scene(a, b), opts)

	steps := []struct {
		name    string
		scene   rail.Scene
		changed []string
	}{
		{"move b onto a", scene(a, box("b", 50, 50, 150, 150)), owners("b")},
		{"add nested c", scene(a, box("b", 50, 50, 150, 150), box("c", 60, 60, 90, 90)), owners("c")},
		{"resize a", scene(box("a", 0, 0, 200, 120), box("b", 50, 50, 150, 150), box("c", 60, 60, 90, 90)), owners("a")},
		{"remove b", scene(box("a", 0, 0, 200, 120), box("c", 60, 60, 90, 90)), owners("b")},
		{"move a back and c out", scene(a, box("c", 600, 600, 700, 700)), owners("a", "c")},
		{"remove all", scene(), owners("a", "c")},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			diff := g.Update(st.scene, st.changed)
			assert.False(t, diff.Full, "anchors keep the frame fixed")
			require.Equal(t, rail.Build(st.scene, opts).String(), g.String())
			checkAll(t, g)
		})
	}
}

func TestUpdate_FrameChangeRebuilds(t *testing.T) {
	a := box("a", 0, 0, 100, 100)
	g := rail.Build(rail.Scene{Obstacles: []rail.Obstacle{a}}, opts)

	next := rail.Scene{Obstacles: []rail.Obstacle{a, box("b", 500, 500, 600, 600)}}
	diff := g.Update(next, []string{"b"})
	assert.True(t, diff.Full)
	assert.Equal(t, []rail.Key{
		{Orientation: geom.Horizontal, Coord: 490},
		{Orientation: geom.Horizontal, Coord: 610},
		{Orientation: geom.Vertical, Coord: 490},
		{Orientation: geom.Vertical, Coord: 610},
	}, diff.Added)
	assert.Equal(t, rail.Build(next, opts).String(), g.String())
}

func TestUpdate_Unchanged(t *testing.T) {
	s := scene(box("a", 0, 0, 100, 100))
	g := rail.Build(s, opts)
	before := g.String()

	diff := g.Update(s, owners("a"))
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Equal(t, before, g.String())
}

// ------------------------------------------------------------------------
// 4. Bracket checker
// ------------------------------------------------------------------------

func TestCheckBrackets_Rejects(t *testing.T) {
	stops := []float64{0, 10, 20, 30}
	tests := []struct {
		name  string
		edges []rail.Edge
	}{
		{"unmatched opening", []rail.Edge{
			{From: 0, To: 10},
			{From: 10, To: 20, Inside: []string{"a"}, Depth: 1, BracketOpening: true},
			{From: 20, To: 30, Inside: []string{"a"}, Depth: 1},
		}},
		{"closing without opening", []rail.Edge{
			{From: 0, To: 10},
			{From: 10, To: 20, Inside: []string{"a"}, Depth: 1, BracketClosing: true},
			{From: 20, To: 30},
		}},
		{"wrong depth", []rail.Edge{
			{From: 0, To: 10},
			{From: 10, To: 20, Inside: []string{"a"}, Depth: 2, BracketOpening: true, BracketClosing: true},
			{From: 20, To: 30},
		}},
		{"reopened", []rail.Edge{
			{From: 0, To: 10, Inside: []string{"a"}, Depth: 1, BracketOpening: true, BracketClosing: true},
			{From: 10, To: 20},
			{From: 20, To: 30, Inside: []string{"a"}, Depth: 1, BracketOpening: true, BracketClosing: true},
		}},
		{"gap", []rail.Edge{
			{From: 0, To: 10},
			{From: 15, To: 20},
			{From: 20, To: 30},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rail.Rail{Orientation: geom.Horizontal, Stops: stops, Edges: tt.edges}
			assert.Error(t, rail.CheckBrackets(r))
		})
	}
}
