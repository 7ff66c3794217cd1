package autorouter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	errs "github.com/matzehuels/orthoroute/pkg/errors"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

func addBox(t *testing.T, g *autorouter.Graph, id string, x, y float64, ports ...autorouter.PortDescriptor) autorouter.Box {
	t.Helper()
	d := autorouter.BoxDescriptor{ID: id, Position: geom.Pt(x, y)}
	if len(ports) > 0 {
		d.Ports = ports
	}
	b, err := g.AddBox(d)
	require.NoError(t, err)
	return b
}

func addRect(t *testing.T, g *autorouter.Graph, id string, r geom.Rect) autorouter.Box {
	t.Helper()
	b, err := g.AddBox(autorouter.BoxDescriptor{ID: id, Rect: &r})
	require.NoError(t, err)
	return b
}

func connect(t *testing.T, g *autorouter.Graph, src, dst autorouter.PortRef) autorouter.Path {
	t.Helper()
	p, err := g.AddPath(autorouter.PathSpec{Src: []autorouter.PortRef{src}, Dst: []autorouter.PortRef{dst}})
	require.NoError(t, err)
	return p
}

func ref(box, port string) autorouter.PortRef { return autorouter.PortRef{Box: box, Port: port} }

func onPort(b autorouter.Box, portID string, p geom.Point) bool {
	port, ok := b.Port(portID)
	if !ok {
		return false
	}
	for _, s := range port.Segments() {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

// assertRouted checks the polyline invariants of a routed path.
func assertRouted(t *testing.T, g *autorouter.Graph, p autorouter.Path) {
	t.Helper()
	require.Equal(t, autorouter.Routed, p.State, "path %s: %v", p.ID, p.Err)
	require.GreaterOrEqual(t, len(p.Points), 2)
	assert.True(t, geom.Orthogonal(p.Points), "points %v are not axis-aligned", p.Points)

	boxes := g.Boxes()
	first, last := p.Points[0], p.Points[len(p.Points)-1]
	startOK, endOK := false, false
	for _, r := range p.Src {
		startOK = startOK || onPort(boxes[r.Box], r.Port, first)
	}
	for _, r := range p.Dst {
		endOK = endOK || onPort(boxes[r.Box], r.Port, last)
	}
	assert.True(t, startOK, "route starts at %v, off every source port", first)
	assert.True(t, endOK, "route ends at %v, off every destination port", last)
}

// ------------------------------------------------------------------------
// 1. Boxes and ports
// ------------------------------------------------------------------------

func TestAddBox_ExplicitPorts(t *testing.T) {
	g := autorouter.NewGraph()
	b := addBox(t, g, "a", 100, 100,
		autorouter.PointPort("in", geom.Pt(100, 150)),
		autorouter.AreaPort("out", geom.Pt(200, 110), geom.Pt(200, 190)),
		autorouter.PointPort("top", geom.Pt(150, 100)))

	assert.Len(t, b.Ports, 3)
	for _, p := range b.Ports {
		assert.Equal(t, "a", p.Box)
	}
	assert.Equal(t, geom.Rect{X1: 100, Y1: 100, X2: 200, Y2: 200}, b.Rect)
	assert.Len(t, g.Boxes(), 1)
}

func TestAddBox_Defaults(t *testing.T) {
	g := autorouter.NewGraph()
	b := addBox(t, g, "", 100, 100)

	assert.NotEmpty(t, b.ID, "an empty id is generated")
	require.Len(t, b.Ports, 2)
	top, ok := b.Port(autorouter.PortTop)
	require.True(t, ok)
	assert.Equal(t, []geom.Point{{X: 110, Y: 100}, {X: 190, Y: 100}}, top.Area)
	bottom, ok := b.Port(autorouter.PortBottom)
	require.True(t, ok)
	assert.Equal(t, []geom.Point{{X: 110, Y: 200}, {X: 190, Y: 200}}, bottom.Area)

	narrow, err := g.AddBox(autorouter.BoxDescriptor{ID: "narrow", Width: 15})
	require.NoError(t, err)
	top, _ = narrow.Port(autorouter.PortTop)
	assert.Equal(t, []geom.Point{{X: 7.5, Y: 0}}, top.Area, "narrow boxes get midpoint ports")
}

func TestAddBox_CountsOnePerCall(t *testing.T) {
	g := autorouter.NewGraph()
	for i, id := range []string{"a", "b", "c"} {
		addBox(t, g, id, float64(i)*200, 0)
		assert.Len(t, g.Boxes(), i+1)
	}
}

func TestAddBox_Rejects(t *testing.T) {
	p := geom.Pt(5, 5)
	tests := []struct {
		name string
		desc autorouter.BoxDescriptor
		code errs.Code
	}{
		{"zero area", autorouter.BoxDescriptor{Rect: &geom.Rect{X1: 0, Y1: 0, X2: 0, Y2: 10}}, errs.ErrCodeInvalidGeometry},
		{"inverted", autorouter.BoxDescriptor{Rect: &geom.Rect{X1: 10, Y1: 10, X2: 0, Y2: 0}}, errs.ErrCodeInvalidGeometry},
		{"negative width", autorouter.BoxDescriptor{Width: -5}, errs.ErrCodeInvalidGeometry},
		{"diagonal area", autorouter.BoxDescriptor{Ports: []autorouter.PortDescriptor{
			autorouter.AreaPort("d", geom.Pt(0, 0), geom.Pt(10, 10)),
		}}, errs.ErrCodeInvalidGeometry},
		{"point and area", autorouter.BoxDescriptor{Ports: []autorouter.PortDescriptor{
			{ID: "x", Point: &p, Area: []geom.Point{p}},
		}}, errs.ErrCodeInvalidGeometry},
		{"duplicate port", autorouter.BoxDescriptor{Ports: []autorouter.PortDescriptor{
			autorouter.PointPort("x", p), autorouter.PointPort("x", p),
		}}, errs.ErrCodeDuplicateID},
		{"bad id", autorouter.BoxDescriptor{ID: "a/b"}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := autorouter.NewGraph()
			_, err := g.AddBox(tt.desc)
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.GetCode(err))
			assert.Empty(t, g.Boxes(), "failed mutation must leave the graph unchanged")
		})
	}
}

func TestAddBox_DuplicateID(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	_, err := g.AddBox(autorouter.BoxDescriptor{ID: "a"})
	assert.True(t, errs.Is(err, errs.ErrCodeDuplicateID))
}

func TestAddBoxes_AllOrNothing(t *testing.T) {
	g := autorouter.NewGraph()
	_, err := g.AddBoxes([]autorouter.BoxDescriptor{
		{ID: "a"},
		{ID: "b", Width: -1},
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidGeometry))
	assert.Empty(t, g.Boxes())

	_, err = g.AddBoxes([]autorouter.BoxDescriptor{{ID: "a"}, {ID: "a"}})
	assert.True(t, errs.Is(err, errs.ErrCodeDuplicateID))
	assert.Empty(t, g.Boxes())

	boxes, err := g.AddBoxes([]autorouter.BoxDescriptor{{ID: "a"}, {ID: "b", Position: geom.Pt(200, 0)}})
	require.NoError(t, err)
	assert.Len(t, boxes, 2)
	assert.Len(t, g.Boxes(), 2)
}

func TestAddPort_RemovePort(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)

	p, err := g.AddPort("a", autorouter.PointPort("right", geom.Pt(100, 50)))
	require.NoError(t, err)
	assert.Equal(t, "right", p.ID)
	_, err = g.AddPort("a", autorouter.PointPort("right", geom.Pt(100, 60)))
	assert.True(t, errs.Is(err, errs.ErrCodeDuplicateID))
	_, err = g.AddPort("nope", autorouter.PointPort("x", geom.Pt(0, 0)))
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))

	path := connect(t, g, ref("a", "right"), ref("b", "top"))
	require.NoError(t, g.RemovePort("a", "right"))
	_, ok := g.Path(path.ID)
	assert.False(t, ok, "a path left without a source is removed")

	b, _ := g.Box("a")
	assert.Len(t, b.Ports, 2)
	assert.True(t, errs.Is(g.RemovePort("a", "right"), errs.ErrCodeNotFound))
}

// ------------------------------------------------------------------------
// 2. Removal
// ------------------------------------------------------------------------

func TestRemoveBox_RemovesIncidentPaths(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)
	addBox(t, g, "c", 600, 0)
	ab := connect(t, g, ref("a", "top"), ref("b", "top"))
	bc := connect(t, g, ref("b", "bottom"), ref("c", "bottom"))
	ac := connect(t, g, ref("a", "bottom"), ref("c", "top"))

	require.NoError(t, g.RemoveBox("b"))
	assert.Len(t, g.Boxes(), 2)
	_, ok := g.Path(ab.ID)
	assert.False(t, ok)
	_, ok = g.Path(bc.ID)
	assert.False(t, ok)
	_, ok = g.Path(ac.ID)
	assert.True(t, ok, "unrelated path survives")

	a, _ := g.Box("a")
	top, _ := a.Port("top")
	assert.Empty(t, top.Paths, "removed paths are detached from surviving ports")

	assert.True(t, errs.Is(g.RemoveBox("b"), errs.ErrCodeNotFound))
}

func TestRemoveBox_Recursive(t *testing.T) {
	g := autorouter.NewGraph()
	addRect(t, g, "parent", geom.Rect{X1: 0, Y1: 0, X2: 400, Y2: 400})
	addRect(t, g, "child", geom.Rect{X1: 100, Y1: 100, X2: 300, Y2: 300})
	addRect(t, g, "grandchild", geom.Rect{X1: 150, Y1: 150, X2: 250, Y2: 250})
	require.NoError(t, g.SetComponent("parent", "child"))
	require.NoError(t, g.SetComponent("child", "grandchild"))

	require.NoError(t, g.Remove("parent"))
	assert.Empty(t, g.Boxes())
}

func TestRemovePath(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)
	p := connect(t, g, ref("a", "top"), ref("b", "top"))
	require.Len(t, g.Paths(), 1)

	require.NoError(t, g.Remove(p.ID))
	assert.Empty(t, g.Paths())
	assert.True(t, errs.Is(g.RemovePath(p.ID), errs.ErrCodeNotFound))
	assert.True(t, errs.Is(g.Remove("nothing"), errs.ErrCodeNotFound))
}

func TestAddPath_Rejects(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)

	_, err := g.AddPath(autorouter.PathSpec{Src: []autorouter.PortRef{ref("a", "top")}})
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidInput))
	_, err = g.AddPath(autorouter.PathSpec{
		Src: []autorouter.PortRef{ref("a", "top")},
		Dst: []autorouter.PortRef{ref("b", "left")},
	})
	assert.True(t, errs.Is(err, errs.ErrCodeNotFound))

	_, err = g.AddPath(autorouter.PathSpec{ID: "p", Src: []autorouter.PortRef{ref("a", "top")}, Dst: []autorouter.PortRef{ref("b", "top")}})
	require.NoError(t, err)
	_, err = g.AddPath(autorouter.PathSpec{ID: "p", Src: []autorouter.PortRef{ref("a", "top")}, Dst: []autorouter.PortRef{ref("b", "top")}})
	assert.True(t, errs.Is(err, errs.ErrCodeDuplicateID))
	assert.Len(t, g.Paths(), 1)
}

// ------------------------------------------------------------------------
// 3. Containment
// ------------------------------------------------------------------------

func TestSetComponent(t *testing.T) {
	g := autorouter.NewGraph()
	addRect(t, g, "p", geom.Rect{X1: 0, Y1: 0, X2: 400, Y2: 400})
	addRect(t, g, "c", geom.Rect{X1: 100, Y1: 100, X2: 200, Y2: 200})

	require.NoError(t, g.SetComponent("p", "c"))
	c, _ := g.Box("c")
	p, _ := g.Box("p")
	assert.Equal(t, "p", c.Parent)
	assert.Equal(t, []string{"c"}, p.Children)

	tests := []struct {
		name          string
		parent, child string
		code          errs.Code
	}{
		{"self", "p", "p", errs.ErrCodeContainmentCycle},
		{"cycle", "c", "p", errs.ErrCodeContainmentCycle},
		{"unknown child", "p", "x", errs.ErrCodeNotFound},
		{"unknown parent", "x", "c", errs.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.SetComponent(tt.parent, tt.child)
			assert.Equal(t, tt.code, errs.GetCode(err))
			c, _ := g.Box("c")
			assert.Equal(t, "p", c.Parent, "failed mutation must leave containment unchanged")
		})
	}

	require.NoError(t, g.SetComponent("", "c"))
	c, _ = g.Box("c")
	p, _ = g.Box("p")
	assert.Empty(t, c.Parent)
	assert.Empty(t, p.Children)
}

func TestMove_MovesComponents(t *testing.T) {
	g := autorouter.NewGraph()
	addRect(t, g, "p", geom.Rect{X1: 0, Y1: 0, X2: 400, Y2: 400})
	addRect(t, g, "c", geom.Rect{X1: 100, Y1: 100, X2: 200, Y2: 200})
	require.NoError(t, g.SetComponent("p", "c"))

	require.NoError(t, g.Move("p", geom.Pt(50, 60)))
	p, _ := g.Box("p")
	c, _ := g.Box("c")
	assert.Equal(t, geom.Rect{X1: 50, Y1: 60, X2: 450, Y2: 460}, p.Rect)
	assert.Equal(t, geom.Rect{X1: 150, Y1: 160, X2: 250, Y2: 260}, c.Rect)
	top, _ := c.Port("top")
	assert.Equal(t, []geom.Point{{X: 160, Y: 160}, {X: 240, Y: 160}}, top.Area, "ports move with their box")

	assert.True(t, errs.Is(g.Move("x", geom.Pt(0, 0)), errs.ErrCodeNotFound))
}

// ------------------------------------------------------------------------
// 4. Routing
// ------------------------------------------------------------------------

func TestRouteSync_DiagonalBoxesBend(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 100, 100)
	addBox(t, g, "b", 900, 900)
	p := connect(t, g, ref("a", "bottom"), ref("b", "top"))

	res, err := g.RouteSync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Unroutable)

	routed, ok := res.Path(p.ID)
	require.True(t, ok)
	assertRouted(t, g, routed)
	assert.Greater(t, len(routed.Points), 2, "an offset pair cannot be joined by a straight line")
}

func TestRouteSync_SideBySide(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)
	p := connect(t, g, ref("a", "top"), ref("b", "top"))

	_, err := g.RouteSync(context.Background())
	require.NoError(t, err)
	routed, _ := g.Path(p.ID)
	assertRouted(t, g, routed)
	assert.Equal(t, []geom.Point{{X: 50, Y: 0}, {X: 50, Y: -10}, {X: 350, Y: -10}, {X: 350, Y: 0}}, routed.Points)
}

func TestRouteSync_SelfLoopUsesBrackets(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 100, 100)
	p := connect(t, g, ref("a", "top"), ref("a", "bottom"))

	_, err := g.RouteSync(context.Background())
	require.NoError(t, err)
	routed, _ := g.Path(p.ID)
	assertRouted(t, g, routed)

	bracketed := false
	for _, r := range append(g.Horizontal(), g.Vertical()...) {
		for _, e := range r.Edges {
			bracketed = bracketed || e.BracketOpening || e.BracketClosing
		}
	}
	assert.True(t, bracketed, "a self-loop box must produce bracket edges")
}

func TestRouteSync_OverlappingBoxes(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 100, 100)
	addBox(t, g, "b", 100, 100)
	p, err := g.AddPath(autorouter.PathSpec{
		Src: []autorouter.PortRef{ref("a", "top"), ref("a", "bottom")},
		Dst: []autorouter.PortRef{ref("b", "top"), ref("b", "bottom")},
	})
	require.NoError(t, err)

	_, err = g.RouteSync(context.Background())
	require.NoError(t, err)
	routed, _ := g.Path(p.ID)
	if routed.State == autorouter.Routed {
		assertRouted(t, g, routed)
	} else {
		assert.True(t, errs.Is(routed.Err, errs.ErrCodeUnroutable))
	}
}

func TestRouteSync_ContainedBox(t *testing.T) {
	g := autorouter.NewGraph()
	addRect(t, g, "outer", geom.Rect{X1: 0, Y1: 0, X2: 400, Y2: 400})
	addRect(t, g, "inner", geom.Rect{X1: 100, Y1: 100, X2: 200, Y2: 200})
	addBox(t, g, "far", 600, 100)
	in := connect(t, g, ref("inner", "top"), ref("outer", "top"))
	out := connect(t, g, ref("inner", "bottom"), ref("far", "top"))

	_, err := g.RouteSync(context.Background())
	require.NoError(t, err)
	for _, id := range []string{in.ID, out.ID} {
		p, _ := g.Path(id)
		assertRouted(t, g, p)
	}
}

func TestRouteSync_NestedComponent(t *testing.T) {
	g := autorouter.NewGraph()
	addRect(t, g, "p", geom.Rect{X1: 0, Y1: 0, X2: 400, Y2: 400})
	addRect(t, g, "c", geom.Rect{X1: 100, Y1: 100, X2: 200, Y2: 200})
	addBox(t, g, "o", 600, 100)
	require.NoError(t, g.SetComponent("p", "c"))
	path := connect(t, g, ref("c", "top"), ref("o", "top"))

	_, err := g.RouteSync(context.Background())
	require.NoError(t, err)
	routed, _ := g.Path(path.ID)
	assertRouted(t, g, routed)

	o, _ := g.Box("o")
	for _, s := range geom.Segments(routed.Points) {
		assert.False(t, s.CrossesInterior(o.Rect), "route must not cut through the destination box")
	}
}

func TestRouteSync_EncircledIsUnroutable(t *testing.T) {
	g := autorouter.NewGraph()
	addRect(t, g, "ring-top", geom.Rect{X1: 0, Y1: 0, X2: 300, Y2: 50})
	addRect(t, g, "ring-bottom", geom.Rect{X1: 0, Y1: 250, X2: 300, Y2: 300})
	addRect(t, g, "ring-left", geom.Rect{X1: 0, Y1: 0, X2: 50, Y2: 300})
	addRect(t, g, "ring-right", geom.Rect{X1: 250, Y1: 0, X2: 300, Y2: 300})
	addRect(t, g, "trapped", geom.Rect{X1: 125, Y1: 125, X2: 175, Y2: 175})
	addBox(t, g, "o", 500, 100)
	addBox(t, g, "o2", 800, 100)
	stuck := connect(t, g, ref("trapped", "top"), ref("o", "top"))
	free := connect(t, g, ref("o", "bottom"), ref("o2", "bottom"))

	res, err := g.RouteSync(context.Background())
	require.NoError(t, err, "unroutable paths do not fail the pass")
	require.Len(t, res.Unroutable, 1)
	assert.Equal(t, stuck.ID, res.Unroutable[0].PathID)
	assert.True(t, errs.Is(res.Unroutable[0], errs.ErrCodeUnroutable))
	assert.Equal(t, 1, res.Stats.Routed)

	p, _ := g.Path(stuck.ID)
	assert.Equal(t, autorouter.Unroutable, p.State)
	assert.Empty(t, p.Points)
	p, _ = g.Path(free.ID)
	assertRouted(t, g, p)
}

func TestRouteSync_CancelledContext(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)
	p := connect(t, g, ref("a", "top"), ref("b", "top"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := g.RouteSync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	got, _ := g.Path(p.ID)
	assert.Equal(t, autorouter.Pending, got.State)
}

func TestSetBoxRect_ReroutesAgainstNewGeometry(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 100, 100)
	addBox(t, g, "b", 900, 900)
	p := connect(t, g, ref("a", "bottom"), ref("b", "top"))
	_, err := g.RouteSync(context.Background())
	require.NoError(t, err)

	next := geom.Rect{X1: 300, Y1: 300, X2: 500, Y2: 400}
	require.NoError(t, g.SetBoxRect("a", autorouter.BoxDescriptor{
		Rect: &next,
		Ports: []autorouter.PortDescriptor{
			autorouter.AreaPort("top", geom.Pt(320, 300), geom.Pt(480, 300)),
			autorouter.AreaPort("bottom", geom.Pt(320, 400), geom.Pt(480, 400)),
		},
	}))
	pending, _ := g.Path(p.ID)
	assert.Equal(t, autorouter.Pending, pending.State)

	_, err = g.RouteSync(context.Background())
	require.NoError(t, err)
	routed, _ := g.Path(p.ID)
	assertRouted(t, g, routed)
	assert.Equal(t, 400.0, routed.Points[0].Y)
	assert.True(t, routed.Points[0].X >= 320 && routed.Points[0].X <= 480)
}

func TestSetBoxRect_RemapsVanishedPort(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0,
		autorouter.PointPort("p1", geom.Pt(0, 50)),
		autorouter.PointPort("p2", geom.Pt(100, 50)))
	addBox(t, g, "b", 300, 0)
	p := connect(t, g, ref("a", "p1"), ref("b", "top"))

	rect := geom.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}
	require.NoError(t, g.SetBoxRect("a", autorouter.BoxDescriptor{
		Rect: &rect,
		Ports: []autorouter.PortDescriptor{
			autorouter.PointPort("q", geom.Pt(0, 40)),
			autorouter.PointPort("r", geom.Pt(100, 60)),
		},
	}))
	got, ok := g.Path(p.ID)
	require.True(t, ok)
	assert.Equal(t, []autorouter.PortRef{ref("a", "q")}, got.Src)
	a, _ := g.Box("a")
	q, _ := a.Port("q")
	assert.Equal(t, []string{p.ID}, q.Paths)

	require.NoError(t, g.SetBoxRect("a", autorouter.BoxDescriptor{Rect: &rect, Ports: []autorouter.PortDescriptor{}}))
	_, ok = g.Path(p.ID)
	assert.False(t, ok, "a path whose side has no port left is removed")

	assert.True(t, errs.Is(g.SetBoxRect("a", autorouter.BoxDescriptor{Width: -1}), errs.ErrCodeInvalidGeometry))
	a, _ = g.Box("a")
	assert.Equal(t, rect, a.Rect)
}
