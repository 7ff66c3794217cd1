package rail

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matzehuels/orthoroute/pkg/geom"
)

// Dump writes a stable, human-readable listing of every rail and its edges,
// horizontal rails first. Two graphs over the same scene dump identically.
func (g *Graph) Dump(w io.Writer) error {
	for _, section := range []struct {
		name  string
		rails []Rail
	}{
		{"horizontal", g.Horizontal()},
		{"vertical", g.Vertical()},
	} {
		if _, err := fmt.Fprintf(w, "%s (%d)\n", section.name, len(section.rails)); err != nil {
			return err
		}
		for _, r := range section.rails {
			if err := dumpRail(w, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func dumpRail(w io.Writer, r Rail) error {
	axis := "y"
	if r.Orientation == geom.Vertical {
		axis = "x"
	}
	kind := "main"
	if r.Port {
		kind = "port"
	}
	if _, err := fmt.Fprintf(w, "  %s=%g [%g,%g] %s owners=%s\n",
		axis, r.Coord, r.Lo, r.Hi, kind, strings.Join(r.Owners, ",")); err != nil {
		return err
	}
	for _, e := range r.Edges {
		var b strings.Builder
		fmt.Fprintf(&b, "    %s-%s", r.Point(e.From), r.Point(e.To))
		if e.Bracketed() {
			fmt.Fprintf(&b, " inside=%s depth=%d", strings.Join(e.Inside, ","), e.Depth)
		}
		if e.BracketOpening {
			b.WriteString(" open")
		}
		if e.BracketClosing {
			b.WriteString(" close")
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// String returns the Dump output.
func (g *Graph) String() string {
	var b strings.Builder
	_ = g.Dump(&b)
	return b.String()
}

// CheckBrackets verifies the bracket discipline of a main rail: edges are
// contiguous, an edge opens exactly when a box is entered and closes exactly
// when one is left, no box is entered twice, and no box is still open at the
// rail's end.
func CheckBrackets(r Rail) error {
	if r.Port {
		if len(r.Edges) > 0 {
			return fmt.Errorf("port rail %s=%g has edges", r.Orientation, r.Coord)
		}
		return nil
	}
	if len(r.Stops) != len(r.Edges)+1 {
		return fmt.Errorf("rail %s=%g: %d stops for %d edges", r.Orientation, r.Coord, len(r.Stops), len(r.Edges))
	}

	var (
		open   []string
		closed = make(map[string]bool)
	)
	for i, e := range r.Edges {
		if e.From != r.Stops[i] || e.To != r.Stops[i+1] {
			return fmt.Errorf("rail %s=%g edge %d: [%g,%g] does not match stops", r.Orientation, r.Coord, i, e.From, e.To)
		}
		if !slices.IsSorted(e.Inside) {
			return fmt.Errorf("rail %s=%g edge %d: inside list not sorted", r.Orientation, r.Coord, i)
		}
		if e.Depth != len(e.Inside) {
			return fmt.Errorf("rail %s=%g edge %d: depth %d, %d boxes", r.Orientation, r.Coord, i, e.Depth, len(e.Inside))
		}

		var entering []string
		for _, id := range e.Inside {
			if !slices.Contains(open, id) {
				if closed[id] {
					return fmt.Errorf("rail %s=%g edge %d: box %q reopened", r.Orientation, r.Coord, i, id)
				}
				entering = append(entering, id)
			}
		}
		if e.BracketOpening != (len(entering) > 0) {
			return fmt.Errorf("rail %s=%g edge %d: opening=%v but %d boxes entered", r.Orientation, r.Coord, i, e.BracketOpening, len(entering))
		}
		for _, id := range open {
			if !slices.Contains(e.Inside, id) {
				return fmt.Errorf("rail %s=%g edge %d: box %q left without closing", r.Orientation, r.Coord, i, id)
			}
		}
		open = slices.Clone(e.Inside)

		var next []string
		if i+1 < len(r.Edges) {
			next = r.Edges[i+1].Inside
		}
		leaving := 0
		for _, id := range e.Inside {
			if !slices.Contains(next, id) {
				leaving++
				closed[id] = true
			}
		}
		if e.BracketClosing != (leaving > 0) {
			return fmt.Errorf("rail %s=%g edge %d: closing=%v but %d boxes left", r.Orientation, r.Coord, i, e.BracketClosing, leaving)
		}
		open = slices.DeleteFunc(open, func(id string) bool { return closed[id] })
	}
	if len(open) > 0 {
		return fmt.Errorf("rail %s=%g: %d brackets left open", r.Orientation, r.Coord, len(open))
	}
	return nil
}
