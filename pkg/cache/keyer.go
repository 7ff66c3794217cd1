package cache

import "github.com/matzehuels/orthoroute/pkg/config"

// Key prefixes.
const (
	PrefixRoute    = "route"
	PrefixArtifact = "artifact"
)

// Keyer generates cache keys.
type Keyer interface {
	// RouteKey identifies a routed diagram.
	RouteKey(diagramHash string, opts RouteKeyOpts) string

	// ArtifactKey identifies a rendering of a routed diagram.
	ArtifactKey(routedHash string, opts ArtifactKeyOpts) string
}

// RouteKeyOpts holds the inputs besides the diagram that change routing.
type RouteKeyOpts struct {
	Router config.Router `json:"router"`
}

// ArtifactKeyOpts holds the inputs that change a rendering.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RouteKey returns "route:<sha256>".
func (DefaultKeyer) RouteKey(diagramHash string, opts RouteKeyOpts) string {
	return hashKey(PrefixRoute, diagramHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(routedHash string, opts ArtifactKeyOpts) string {
	return hashKey(PrefixArtifact, routedHash, opts)
}

var _ Keyer = DefaultKeyer{}
