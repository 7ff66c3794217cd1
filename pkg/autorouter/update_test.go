package autorouter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	"github.com/matzehuels/orthoroute/pkg/autorouter/rail"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

// anchoredScene returns a graph whose frame is pinned by two far corner
// boxes, with a routed path between a and b and an unrelated box c.
func anchoredScene(t *testing.T) (*autorouter.Graph, autorouter.Path) {
	t.Helper()
	g := autorouter.NewGraph()
	addBox(t, g, "nw", -1000, -1000)
	addBox(t, g, "se", 3000, 3000)
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)
	addBox(t, g, "c", 1000, 1000)
	p := connect(t, g, ref("a", "top"), ref("b", "top"))
	_, err := g.RouteSync(context.Background())
	require.NoError(t, err)
	return g, p
}

func assertBrackets(t *testing.T, g *autorouter.Graph) {
	t.Helper()
	for _, r := range append(g.Horizontal(), g.Vertical()...) {
		assert.NoError(t, rail.CheckBrackets(r))
	}
}

// ------------------------------------------------------------------------
// 1. Untouched paths are kept
// ------------------------------------------------------------------------

func TestUpdate_KeepsUnaffectedPaths(t *testing.T) {
	g, p := anchoredScene(t)
	before, _ := g.Path(p.ID)

	require.NoError(t, g.Move("c", geom.Pt(1100, 1000)))
	res, err := g.Update(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Stats.Full)
	assert.Equal(t, 1, res.Stats.Kept)
	assert.Zero(t, res.Stats.Routed)
	assert.Positive(t, res.Stats.RailsRelaid)
	after, _ := res.Path(p.ID)
	assert.Equal(t, before.Points, after.Points)
	assertBrackets(t, g)
}

func TestUpdate_ReroutesAffectedPaths(t *testing.T) {
	g, p := anchoredScene(t)

	require.NoError(t, g.Move("b", geom.Pt(300, 400)))
	res, err := g.Update(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Stats.Full)
	assert.Equal(t, 1, res.Stats.Routed)
	routed, _ := res.Path(p.ID)
	assertRouted(t, g, routed)
	assert.Equal(t, 400.0, routed.Points[len(routed.Points)-1].Y)
}

func TestUpdate_ObstacleInvalidatesCrossingPath(t *testing.T) {
	g, p := anchoredScene(t)
	before, _ := g.Path(p.ID)
	require.Equal(t, -10.0, before.Points[1].Y)

	// A box dropped onto the corridor the route uses.
	addRect(t, g, "wall", geom.Rect{X1: 150, Y1: -40, X2: 200, Y2: -5})
	res, err := g.Update(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.Routed)
	after, _ := res.Path(p.ID)
	assertRouted(t, g, after)
	wall, _ := g.Box("wall")
	for _, s := range geom.Segments(after.Points) {
		assert.False(t, s.CrossesInterior(wall.Rect), "segment %v crosses the new box", s)
	}
}

// ------------------------------------------------------------------------
// 2. Incremental rails equal a full rebuild
// ------------------------------------------------------------------------

func TestUpdate_MatchesRebuild(t *testing.T) {
	steps := []struct {
		name   string
		mutate func(t *testing.T, g *autorouter.Graph)
	}{
		{"move", func(t *testing.T, g *autorouter.Graph) {
			require.NoError(t, g.Move("c", geom.Pt(1200, 900)))
		}},
		{"add box", func(t *testing.T, g *autorouter.Graph) {
			addRect(t, g, "d", geom.Rect{X1: 500, Y1: 500, X2: 700, Y2: 650})
		}},
		{"nest", func(t *testing.T, g *autorouter.Graph) {
			addRect(t, g, "e", geom.Rect{X1: 550, Y1: 550, X2: 600, Y2: 600})
			require.NoError(t, g.SetComponent("d", "e"))
		}},
		{"resize", func(t *testing.T, g *autorouter.Graph) {
			r := geom.Rect{X1: 0, Y1: 0, X2: 150, Y2: 250}
			require.NoError(t, g.SetBoxRect("a", autorouter.BoxDescriptor{Rect: &r}))
		}},
		{"add port", func(t *testing.T, g *autorouter.Graph) {
			_, err := g.AddPort("b", autorouter.PointPort("east", geom.Pt(400, 50)))
			require.NoError(t, err)
		}},
		{"remove port", func(t *testing.T, g *autorouter.Graph) {
			require.NoError(t, g.RemovePort("b", "east"))
		}},
		{"remove subtree", func(t *testing.T, g *autorouter.Graph) {
			require.NoError(t, g.RemoveBox("d"))
		}},
	}

	g, _ := anchoredScene(t)
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			step.mutate(t, g)
			_, err := g.Update(context.Background())
			require.NoError(t, err)
			incremental := g.DumpEdgeLists()
			assertBrackets(t, g)

			g.Rebuild()
			assert.Equal(t, g.DumpEdgeLists(), incremental)
		})
	}
}

func TestUpdate_FirstPassBuildsEverything(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	assert.Empty(t, g.DumpEdgeLists())
	assert.Nil(t, g.Horizontal())

	res, err := g.Update(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Stats.Full)
	assert.NotEmpty(t, g.DumpEdgeLists())
	assert.Equal(t, geom.Rect{X1: -50, Y1: -50, X2: 150, Y2: 150}, g.Frame())
}

func TestUpdate_FrameChangeRebuilds(t *testing.T) {
	g := autorouter.NewGraph()
	addBox(t, g, "a", 0, 0)
	addBox(t, g, "b", 300, 0)
	connect(t, g, ref("a", "top"), ref("b", "top"))
	_, err := g.RouteSync(context.Background())
	require.NoError(t, err)

	addBox(t, g, "far", 2000, 2000)
	res, err := g.Update(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Stats.Full)
	assert.Equal(t, 2150.0, g.Frame().X2)
}
