package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxIDLength bounds box, port and path identifiers.
const maxIDLength = 256

// ValidateID validates a box, port or path identifier.
// Identifiers are free-form but may not contain control characters or the
// "/" separator used in port references, and are at most 256 bytes long.
// An empty id is accepted here; callers decide whether to generate one.
func ValidateID(kind, id string) error {
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}
	if strings.Contains(id, "/") {
		return New(ErrCodeInvalidInput, "%s id %q cannot contain '/'", kind, id)
	}
	return nil
}

// ValidateRect checks that x1<x2 and y1<y2 with finite coordinates.
// Zero-area and inverted rectangles are rejected with ErrCodeInvalidGeometry.
func ValidateRect(x1, y1, x2, y2 float64) error {
	for _, v := range []float64{x1, y1, x2, y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidGeometry, "rectangle has non-finite coordinate")
		}
	}
	if x1 >= x2 || y1 >= y2 {
		return New(ErrCodeInvalidGeometry, "degenerate rectangle (%g,%g)-(%g,%g)", x1, y1, x2, y2)
	}
	return nil
}

// ValidateArea checks a port attachment region given as [x,y] pairs.
// A single pair is a point; longer lists must form axis-aligned segments.
func ValidateArea(area [][2]float64) error {
	if len(area) == 0 {
		return New(ErrCodeInvalidGeometry, "port area is empty")
	}
	for _, p := range area {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return New(ErrCodeInvalidGeometry, "port area has non-finite coordinate")
		}
	}
	for i := 1; i < len(area); i++ {
		a, b := area[i-1], area[i]
		if a[0] != b[0] && a[1] != b[1] {
			return New(ErrCodeInvalidGeometry, "port area segment (%g,%g)-(%g,%g) is not axis-aligned",
				a[0], a[1], b[0], b[1])
		}
	}
	return nil
}
