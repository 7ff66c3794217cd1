package autorouter_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	"github.com/matzehuels/orthoroute/pkg/geom"
)

func Example() {
	g := autorouter.NewGraph()
	g.AddBox(autorouter.BoxDescriptor{ID: "a", Position: geom.Pt(0, 0)})
	g.AddBox(autorouter.BoxDescriptor{ID: "b", Position: geom.Pt(300, 0)})
	g.AddPath(autorouter.PathSpec{
		ID:  "a-b",
		Src: []autorouter.PortRef{{Box: "a", Port: autorouter.PortTop}},
		Dst: []autorouter.PortRef{{Box: "b", Port: autorouter.PortTop}},
	})

	res, err := g.RouteSync(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	p, _ := res.Path("a-b")
	fmt.Println(p.State, p.Points)
	// Output: routed [(50,0) (50,-10) (350,-10) (350,0)]
}
