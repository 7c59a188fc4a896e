package geometry

import (
	gomath "math"

	"github.com/Faultbox/gearbox/pkg/math"
)

// Shift fork defaults.
const (
	DefaultPinLength    = 0.5
	DefaultForkSegments = 20
)

// ShiftForkSpec describes a fork bracket joining a gear collar at the
// origin to a collar on the fork shaft at Offset.
type ShiftForkSpec struct {
	GearCollarRadius  float64
	ShaftCollarRadius float64
	Offset            math.Vec3 // gear axis to fork shaft axis
	Thickness         float64
	PinAngle          float64 // radians, about the pin's mounting axis
	PinSign           int     // +1 or -1: which side of the fork shaft the pin leaves
	PinLength         float64 // 0 means DefaultPinLength
	Segments          int     // 0 means DefaultForkSegments
	Appearance        Appearance
}

// ShiftFork is a built fork. Collar and pin meshes are in their own frames;
// apply the matching transform to place them in the fork frame.
type ShiftFork struct {
	Spec                 ShiftForkSpec
	GearCollar           *Shaft
	ShaftCollar          *Shaft
	ShaftCollarTransform math.Mat4
	Pin                  *Shaft
	PinTransform         math.Mat4
	Front                *Mesh
	Rear                 *Mesh
	Top                  *Mesh
	Bottom               *Mesh
}

// Meshes returns every fork mesh in the fork frame.
func (f *ShiftFork) Meshes() []*Mesh {
	out := f.GearCollar.Meshes()
	for _, m := range f.ShaftCollar.Meshes() {
		out = append(out, m.Transformed(f.ShaftCollarTransform))
	}
	for _, m := range f.Pin.Meshes() {
		out = append(out, m.Transformed(f.PinTransform))
	}
	return append(out, f.Front, f.Rear, f.Top, f.Bottom)
}

// BuildShiftFork builds the collars, the pin and the four bracket faces.
func BuildShiftFork(spec ShiftForkSpec) (*ShiftFork, error) {
	if spec.PinLength == 0 {
		spec.PinLength = DefaultPinLength
	}
	if spec.Segments == 0 {
		spec.Segments = DefaultForkSegments
	}
	switch {
	case !finite(spec.GearCollarRadius, spec.ShaftCollarRadius, spec.Offset.X, spec.Offset.Y, spec.Offset.Z,
		spec.Thickness, spec.PinAngle, spec.PinLength):
		return nil, invalid("fork dimensions must be finite: %+v", spec)
	case spec.GearCollarRadius <= 0:
		return nil, invalid("gear collar radius %g must be positive", spec.GearCollarRadius)
	case spec.ShaftCollarRadius <= 0:
		return nil, invalid("shaft collar radius %g must be positive", spec.ShaftCollarRadius)
	case spec.Thickness <= 0:
		return nil, invalid("fork thickness %g must be positive", spec.Thickness)
	case spec.PinSign != 1 && spec.PinSign != -1:
		return nil, invalid("pin sign %d must be +1 or -1", spec.PinSign)
	case spec.PinLength < 0:
		return nil, invalid("pin length %g is negative", spec.PinLength)
	}

	collar := func(radius, length float64) (*Shaft, error) {
		return BuildShaft(ShaftSpec{
			Radius:        radius,
			Length:        length,
			Segments:      spec.Segments,
			EndCapped:     true,
			Appearance:    spec.Appearance,
			CapAppearance: spec.Appearance,
		})
	}

	f := &ShiftFork{Spec: spec}
	var err error
	if f.GearCollar, err = collar(spec.GearCollarRadius, spec.Thickness); err != nil {
		return nil, err
	}
	if f.ShaftCollar, err = collar(spec.ShaftCollarRadius, 1.5*spec.Thickness); err != nil {
		return nil, err
	}
	if f.Pin, err = collar(spec.Thickness/2, spec.PinLength); err != nil {
		return nil, err
	}
	sign := float64(spec.PinSign)
	f.ShaftCollarTransform = math.TranslateVec(spec.Offset)
	f.PinTransform = math.Chain(
		math.TranslateVec(spec.Offset),
		math.RotateY(gomath.Pi/2),
		math.RotateX(spec.PinAngle*sign),
		math.Translate(0, 0, spec.PinLength*sign/2),
	)

	if err := buildBracket(f, spec); err != nil {
		return nil, err
	}
	return f, nil
}

func buildBracket(f *ShiftFork, spec ShiftForkSpec) error {
	g := spec.GearCollarRadius
	s := spec.ShaftCollarRadius
	ox, oy := spec.Offset.X, spec.Offset.Y
	frontZ, rearZ := spec.Thickness/2, -spec.Thickness/2

	outline := [4][2]float64{{g, 0}, {-g, 0}, {ox - s, oy}, {ox + s, oy}}
	var front, rear [4]math.Vec3
	for i, p := range outline {
		front[i] = math.V3(p[0], p[1], frontZ)
		rear[3-i] = math.V3(p[0], p[1], rearZ)
	}

	faces := []struct {
		name    string
		corners [4]math.Vec3
		dst     **Mesh
	}{
		{"fork-front", front, &f.Front},
		{"fork-rear", rear, &f.Rear},
		{"fork-top", [4]math.Vec3{
			math.V3(-g, 0, frontZ), math.V3(-g, 0, rearZ),
			math.V3(ox-s, oy, rearZ), math.V3(ox-s, oy, frontZ),
		}, &f.Top},
		{"fork-bottom", [4]math.Vec3{
			math.V3(g, 0, rearZ), math.V3(g, 0, frontZ),
			math.V3(ox+s, oy, frontZ), math.V3(ox+s, oy, rearZ),
		}, &f.Bottom},
	}
	for _, face := range faces {
		c := face.corners
		n, err := faceNormal(face.name, c[0].Sub(c[1]), c[1].Sub(c[2]))
		if err != nil {
			return err
		}
		b := newMesh(face.name, Quads, spec.Appearance, 4)
		b.quad(n, c[:]...)
		*face.dst = b.done()
	}
	return nil
}
