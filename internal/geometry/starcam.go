package geometry

import (
	gomath "math"

	"github.com/Faultbox/gearbox/internal/cam"
	"github.com/Faultbox/gearbox/pkg/math"
)

// StarCamSpec describes the index cam wheel. The wheel spans z in
// [Offset, Offset+Width].
type StarCamSpec struct {
	Radius     float64
	Segments   int
	Offset     float64
	Width      float64
	Appearance Appearance
}

// StarCam is a built index cam.
type StarCam struct {
	Spec  StarCamSpec
	Front *Mesh // fan facing +z at Offset+Width
	Rear  *Mesh // fan facing -z at Offset
	Skin  *Mesh
}

// Meshes lists the cam meshes.
func (s *StarCam) Meshes() []*Mesh {
	return []*Mesh{s.Front, s.Rear, s.Skin}
}

// BuildStarCam builds the cam faces and the profiled rim between them.
// Rim normals stay radial and ignore the profile slope.
func BuildStarCam(spec StarCamSpec) (*StarCam, error) {
	switch {
	case !finite(spec.Radius, spec.Offset, spec.Width):
		return nil, invalid("star cam dimensions must be finite: %+v", spec)
	case spec.Radius <= cam.MaxDepth:
		return nil, invalid("star cam radius %g must exceed profile depth %g", spec.Radius, cam.MaxDepth)
	case spec.Segments < 3:
		return nil, invalid("star cam needs at least 3 segments, got %d", spec.Segments)
	case spec.Width <= 0:
		return nil, invalid("star cam width %g must be positive", spec.Width)
	}

	n := spec.Segments
	frontZ := spec.Offset + spec.Width
	rearZ := spec.Offset
	up, down := math.V3(0, 0, 1), math.V3(0, 0, -1)

	front := newMesh("star-cam-front", TriangleFan, spec.Appearance, n+2)
	skin := newMesh("star-cam-skin", TriangleStrip, spec.Appearance, 2*n+2)
	ring := make([]math.Vec3, n+1)

	front.add(math.V3(0, 0, frontZ), up)
	step := 2 * gomath.Pi / float64(n)
	for k := 0; k <= n; k++ {
		theta := step * float64(k)
		s, c := gomath.Sincos(theta)
		r := spec.Radius - cam.Profile(theta)
		ring[k] = math.V3(r*c, r*s, 0)

		p := math.V3(ring[k].X, ring[k].Y, frontZ)
		front.add(p, up)
		radial := math.V3(c, s, 0)
		skin.add(p, radial)
		skin.add(math.V3(ring[k].X, ring[k].Y, rearZ), radial)
	}
	front.strip(n + 2)
	skin.strip(2*n + 2)

	// The rear ring runs backwards so its fan winds toward -z.
	rear := newMesh("star-cam-rear", TriangleFan, spec.Appearance, n+2)
	rear.add(math.V3(0, 0, rearZ), down)
	for k := n; k >= 0; k-- {
		rear.add(math.V3(ring[k].X, ring[k].Y, rearZ), down)
	}
	rear.strip(n + 2)

	return &StarCam{Spec: spec, Front: front.done(), Rear: rear.done(), Skin: skin.done()}, nil
}
