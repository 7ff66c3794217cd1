package autorouter

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orthoroute/pkg/config"
)

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger for routing passes. Passes log at debug level.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithConfig sets the router configuration. Zero fields take defaults.
func WithConfig(c config.Router) Option {
	return func(g *Graph) {
		c.SetDefaults()
		g.cfg = c
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
