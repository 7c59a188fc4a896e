package geometry

import (
	gomath "math"

	"github.com/Faultbox/gearbox/pkg/math"
)

const fullCircle = 2 * gomath.Pi

// DiskSpec describes a flat fan cap in the plane z = Z.
type DiskSpec struct {
	Z          float64
	NormalSign int // +1 faces +z, -1 faces -z
	Radius     float64
	Segments   int
	Arc        float64 // 0 means a full circle
	StartAngle float64
	Appearance Appearance
}

// BuildDisk builds a triangle fan centred on the z axis. Rim vertices are
// written in descending angle order when the disk faces -z so the fan
// always winds toward its normal.
func BuildDisk(spec DiskSpec) (*Mesh, error) {
	if !finite(spec.Z, spec.Radius, spec.Arc, spec.StartAngle) {
		return nil, invalid("disk dimensions must be finite: %+v", spec)
	}
	if spec.Radius <= 0 {
		return nil, invalid("disk radius %g must be positive", spec.Radius)
	}
	if spec.Segments < 1 {
		return nil, invalid("disk needs at least 1 segment, got %d", spec.Segments)
	}
	if spec.NormalSign != 1 && spec.NormalSign != -1 {
		return nil, invalid("disk normal sign %d must be +1 or -1", spec.NormalSign)
	}
	arc := spec.Arc
	if arc == 0 {
		arc = fullCircle
	}
	return buildDisk("disk", spec.Z, spec.NormalSign, spec.Radius,
		spanAngles(spec.StartAngle, spec.StartAngle+arc, spec.Segments), spec.Appearance), nil
}

// buildDisk emits a fan over precomputed rim angles.
func buildDisk(name string, z float64, sign int, radius float64, angles []float64, look Appearance) *Mesh {
	normal := math.V3(0, 0, float64(sign))
	b := newMesh(name, TriangleFan, look, len(angles)+1)
	b.add(math.V3(0, 0, z), normal)
	for k := range angles {
		theta := angles[k]
		if sign < 0 {
			theta = angles[len(angles)-1-k]
		}
		s, c := gomath.Sincos(theta)
		b.add(math.V3(radius*c, radius*s, z), normal)
	}
	b.strip(len(angles) + 1)
	return b.done()
}

// spanAngles returns segments+1 evenly spaced angles from a to b. The end
// points are copied, not recomputed, so neighbouring spans that share a
// boundary value produce bit-identical vertices there.
func spanAngles(a, b float64, segments int) []float64 {
	angles := make([]float64, segments+1)
	step := (b - a) / float64(segments)
	angles[0] = a
	for k := 1; k < segments; k++ {
		angles[k] = a + step*float64(k)
	}
	angles[segments] = b
	return angles
}
