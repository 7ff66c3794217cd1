package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	"github.com/matzehuels/orthoroute/pkg/diagram"
	"github.com/matzehuels/orthoroute/pkg/observability"
	"github.com/matzehuels/orthoroute/pkg/render/railviz"
	"github.com/matzehuels/orthoroute/pkg/render/svg"
)

// RenderFromRouted generates output artifacts in the requested formats.
// The rail formats rebuild the rail graph from the routed geometry; no
// routing pass runs.
func RenderFromRouted(ctx context.Context, routed diagram.Diagram, opts Options) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, routed, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, routed diagram.Diagram, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	railDOT := func() (string, error) {
		if dot != "" {
			return dot, nil
		}
		g, err := railGraph(routed, opts)
		if err != nil {
			return "", err
		}
		defer g.Close()
		dot = railviz.ToDOT(g.Horizontal(), g.Vertical(), railviz.Options{Detailed: true})
		return dot, nil
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = diagram.Marshal(routed, diagram.FormatJSON)
		case FormatSVG:
			var svgOpts []svg.Option
			if opts.Labels {
				svgOpts = append(svgOpts, svg.WithLabels())
			}
			data = svg.Render(routed, svgOpts...)
		case FormatDOT:
			var s string
			if s, err = railDOT(); err == nil {
				data = []byte(s)
			}
		case FormatRails:
			var s string
			if s, err = railDOT(); err == nil {
				data, err = railviz.RenderSVG(ctx, s)
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// railGraph loads d into a graph and lays its rails without routing.
func railGraph(d diagram.Diagram, opts Options) (*autorouter.Graph, error) {
	g := autorouter.NewGraph(autorouter.WithConfig(opts.Router), autorouter.WithLogger(opts.Logger))
	if err := diagram.Apply(d, g); err != nil {
		g.Close()
		return nil, err
	}
	g.Rebuild()
	return g, nil
}
