package geometry

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/gearbox/pkg/math"
)

var (
	// ErrInvalidSpec reports malformed builder parameters.
	ErrInvalidSpec = errors.New("invalid spec")
	// ErrDegenerateGeometry reports a face whose normal would have zero length.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// minNormalLength is the smallest cross product magnitude accepted as a normal.
const minNormalLength = 1e-12

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpec, fmt.Sprintf(format, args...))
}

// finite reports whether every value is a number other than an infinity.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// faceNormal returns normalize(a x b) or ErrDegenerateGeometry.
func faceNormal(what string, a, b math.Vec3) (math.Vec3, error) {
	n := a.Cross(b)
	l := n.Length()
	if !(l >= minNormalLength) || gomath.IsInf(l, 0) {
		return math.Vec3{}, fmt.Errorf("%w: %s normal from zero-length cross product", ErrDegenerateGeometry, what)
	}
	return n.Scale(1 / l), nil
}
