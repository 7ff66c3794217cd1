package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/autorouter"
	"github.com/matzehuels/orthoroute/pkg/config"
	"github.com/matzehuels/orthoroute/pkg/diagram"
	"github.com/matzehuels/orthoroute/pkg/render/railviz"
)

// railsOpts holds the command-line flags for the rails command.
type railsOpts struct {
	dot          bool // emit Graphviz DOT instead of the edge listing
	bracketsOnly bool // DOT output keeps bracketed edges only
}

// railsCommand creates the rails command, a debugging aid that lays out the
// rail graph of a diagram without routing any path.
func (c *CLI) railsCommand() *cobra.Command {
	var opts railsOpts

	cmd := &cobra.Command{
		Use:   "rails [file]",
		Short: "Print the rail graph of a diagram",
		Long: `Rails builds the horizontal and vertical rails of a diagram and prints
every rail with its edges, depths and bracket markers. With --dot the rails
are written as a Graphviz graph instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return runRails(ctx, cmd.OutOrStdout(), args[0], cfg.Router, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dot, "dot", false, "write Graphviz DOT instead of the edge listing")
	cmd.Flags().BoolVar(&opts.bracketsOnly, "brackets-only", false, "with --dot, keep bracketed edges only")

	return cmd
}

func runRails(ctx context.Context, w io.Writer, input string, router config.Router, opts railsOpts) error {
	logger := loggerFromContext(ctx)

	d, err := diagram.ReadFile(input)
	if err != nil {
		return err
	}

	g := autorouter.NewGraph(autorouter.WithConfig(router), autorouter.WithLogger(logger))
	defer g.Close()
	if err := diagram.Apply(d, g); err != nil {
		return err
	}

	prog := newProgress(logger)
	g.Rebuild()
	h, v := g.Horizontal(), g.Vertical()
	prog.done(fmt.Sprintf("Built %d horizontal and %d vertical rails", len(h), len(v)))

	if opts.dot {
		_, err = io.WriteString(w, railviz.ToDOT(h, v, railviz.Options{Detailed: true, BracketsOnly: opts.bracketsOnly}))
		return err
	}
	_, err = io.WriteString(w, g.DumpEdgeLists())
	return err
}
