package geometry

import (
	"fmt"
	gomath "math"
	"strings"

	"github.com/Faultbox/gearbox/pkg/math"
)

// Dogs selects on which faces a gear carries shift dogs. A dog is flush
// with the gear body on the side it names and stands proud on the other.
type Dogs int

const (
	DogsNone Dogs = iota
	DogsFront
	DogsRear
	DogsBoth
)

var dogsNames = [...]string{"none", "front", "rear", "both"}

func (d Dogs) String() string {
	if d >= 0 && int(d) < len(dogsNames) {
		return dogsNames[d]
	}
	return fmt.Sprintf("Dogs(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d Dogs) MarshalText() ([]byte, error) {
	if d < 0 || int(d) >= len(dogsNames) {
		return nil, fmt.Errorf("unknown dogs flag %d", int(d))
	}
	return []byte(dogsNames[d]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dogs) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range dogsNames {
		if name == s {
			*d = Dogs(i)
			return nil
		}
	}
	return fmt.Errorf("unknown dogs flag %q", s)
}

// Gear builder defaults.
const (
	DefaultDogCount      = 3
	DefaultDogArcDegrees = 20
	DefaultBodySegments  = 15
	DefaultWebSegments   = 5
)

// GearSpec describes a spur gear with trapezoidal teeth.
type GearSpec struct {
	ToothCount         int
	PitchRadius        float64
	ShaftRadius        float64
	Addendum           float64
	Dedendum           float64
	Thickness          float64
	ToothTipThickness  float64 // 0 means Thickness
	ToothToValleyRatio float64 // flat top angle over circular pitch angle
	Dogs               Dogs
	DogCount           int     // 0 means DefaultDogCount
	DogArcDegrees      float64 // 0 means DefaultDogArcDegrees
	BodySegments       int     // 0 means DefaultBodySegments
	WebSegments        int     // 0 means DefaultWebSegments
	Appearance         Appearance
}

func (s GearSpec) withDefaults() GearSpec {
	if s.ToothTipThickness == 0 {
		s.ToothTipThickness = s.Thickness
	}
	if s.DogCount == 0 {
		s.DogCount = DefaultDogCount
	}
	if s.DogArcDegrees == 0 {
		s.DogArcDegrees = DefaultDogArcDegrees
	}
	if s.BodySegments == 0 {
		s.BodySegments = DefaultBodySegments
	}
	if s.WebSegments == 0 {
		s.WebSegments = DefaultWebSegments
	}
	return s
}

// Validate reports the first malformed parameter, wrapped in ErrInvalidSpec.
func (s GearSpec) Validate() error {
	s = s.withDefaults()
	switch {
	case !finite(s.PitchRadius, s.ShaftRadius, s.Addendum, s.Dedendum, s.Thickness,
		s.ToothTipThickness, s.ToothToValleyRatio, s.DogArcDegrees):
		return invalid("gear dimensions must be finite: %+v", s)
	case s.ToothCount < 3:
		return invalid("gear needs at least 3 teeth, got %d", s.ToothCount)
	case s.PitchRadius <= 0:
		return invalid("pitch radius %g must be positive", s.PitchRadius)
	case s.ShaftRadius < 0:
		return invalid("shaft radius %g is negative", s.ShaftRadius)
	case s.Addendum <= 0:
		return invalid("addendum %g must be positive", s.Addendum)
	case s.Dedendum <= 0 || s.Dedendum >= s.PitchRadius:
		return invalid("dedendum %g must be in (0, pitch radius %g)", s.Dedendum, s.PitchRadius)
	case s.ShaftRadius >= s.PitchRadius-s.Dedendum:
		return invalid("shaft radius %g reaches root radius %g", s.ShaftRadius, s.PitchRadius-s.Dedendum)
	case s.Thickness <= 0:
		return invalid("thickness %g must be positive", s.Thickness)
	case s.ToothTipThickness < 0:
		return invalid("tooth tip thickness %g is negative", s.ToothTipThickness)
	case s.ToothToValleyRatio <= 0 || s.ToothToValleyRatio >= 0.5:
		return invalid("tooth to valley ratio %g must be in (0, 0.5)", s.ToothToValleyRatio)
	case s.Dogs < DogsNone || s.Dogs > DogsBoth:
		return invalid("unknown dogs flag %d", int(s.Dogs))
	case s.DogCount < 1:
		return invalid("dog count %d must be positive", s.DogCount)
	case s.DogArcDegrees < 0 || s.DogArcDegrees*float64(s.DogCount) >= 360:
		return invalid("%d dogs of %g degrees do not fit a revolution", s.DogCount, s.DogArcDegrees)
	case s.BodySegments < 1:
		return invalid("body segments %d must be positive", s.BodySegments)
	case s.WebSegments < 3:
		return invalid("web segments %d must be at least 3", s.WebSegments)
	}
	return nil
}

// GearGeometry holds the quantities derived from a GearSpec.
type GearGeometry struct {
	RootRadius         float64
	OutsideRadius      float64
	CircularPitchAngle float64
	FlatAngle          float64 // tooth tip and root land
	EdgeAngle          float64 // each flank
	StartAngle         float64 // centres tooth 0 on angle 0
	TipThickness       float64
}

// Geometry derives radii and the per-tooth angle budget.
func (s GearSpec) Geometry() GearGeometry {
	s = s.withDefaults()
	pitch := 2 * gomath.Pi / float64(s.ToothCount)
	flat := pitch * s.ToothToValleyRatio
	edge := pitch/2 - flat
	return GearGeometry{
		RootRadius:         s.PitchRadius - s.Dedendum,
		OutsideRadius:      s.PitchRadius + s.Addendum,
		CircularPitchAngle: pitch,
		FlatAngle:          flat,
		EdgeAngle:          edge,
		StartAngle:         -(edge + flat/2),
		TipThickness:       s.ToothTipThickness,
	}
}

// SubAngles returns the rising flank, tip, falling flank and root land
// angles of one tooth. They sum to CircularPitchAngle.
func (g GearGeometry) SubAngles() [4]float64 {
	return [4]float64{g.EdgeAngle, g.FlatAngle, g.EdgeAngle, g.FlatAngle}
}

// ToothAngles are the profile break points of one tooth.
type ToothAngles struct {
	Start        float64 // root, rising flank begins
	TopStart     float64
	DeclineStart float64
	ValleyStart  float64
	Next         float64 // start of the following tooth
}

// ToothAngles returns the break points of tooth i.
func (g GearGeometry) ToothAngles(i int) ToothAngles {
	start := g.StartAngle + g.CircularPitchAngle*float64(i)
	top := g.EdgeAngle
	decline := top + g.FlatAngle
	valley := decline + g.EdgeAngle
	return ToothAngles{
		Start:        start,
		TopStart:     start + top,
		DeclineStart: start + decline,
		ValleyStart:  start + valley,
		Next:         start + g.CircularPitchAngle,
	}
}

// Gear is a built gear. TopTeeth is the surface recoloured when the gear
// carries power.
type Gear struct {
	Spec       GearSpec
	Geometry   GearGeometry
	Body       []*Mesh
	FrontTeeth *Mesh
	RearTeeth  *Mesh
	TopTeeth   *Mesh
	Dogs       *Mesh // nil without dogs
}

// Meshes lists every mesh of the gear.
func (g *Gear) Meshes() []*Mesh {
	out := append([]*Mesh(nil), g.Body...)
	out = append(out, g.FrontTeeth, g.RearTeeth, g.TopTeeth)
	if g.Dogs != nil {
		out = append(out, g.Dogs)
	}
	return out
}

// BuildGear builds the body, teeth and optional dogs of a gear.
func BuildGear(spec GearSpec) (*Gear, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.withDefaults()
	g := &Gear{Spec: spec, Geometry: spec.Geometry()}

	var err error
	if g.Body, err = buildGearBody(spec, g.Geometry); err != nil {
		return nil, err
	}
	if g.FrontTeeth, g.RearTeeth, err = buildToothFaces(spec, g.Geometry); err != nil {
		return nil, err
	}
	if g.TopTeeth, err = buildToothTops(spec, g.Geometry); err != nil {
		return nil, err
	}
	if spec.Dogs != DogsNone {
		inner := (spec.ShaftRadius + g.Geometry.RootRadius) / 2
		if g.Dogs, err = buildDogs(spec, inner, g.Geometry.RootRadius); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// buildGearBody closes two opposite quadrants of the gear solid and leaves
// the other two open, lined by inward facing webbing.
func buildGearBody(spec GearSpec, geo GearGeometry) ([]*Mesh, error) {
	root := geo.RootRadius
	z := spec.Thickness / 2
	quarter := gomath.Pi / 2

	var body []*Mesh
	for _, d := range []struct {
		z     float64
		sign  int
		start float64
	}{
		{z, 1, 0}, {z, 1, gomath.Pi}, {-z, -1, 0}, {-z, -1, gomath.Pi},
	} {
		disk := buildDisk("body-disk", d.z, d.sign, root,
			spanAngles(d.start, d.start+quarter, spec.BodySegments), spec.Appearance)
		body = append(body, disk)
	}

	walls := [4][4]math.Vec3{
		{math.V3(0, 0, -z), math.V3(0, 0, z), math.V3(0, root, z), math.V3(0, root, -z)},
		{math.V3(0, 0, z), math.V3(0, 0, -z), math.V3(root, 0, -z), math.V3(root, 0, z)},
		{math.V3(0, 0, -z), math.V3(0, 0, z), math.V3(0, -root, z), math.V3(0, -root, -z)},
		{math.V3(0, 0, z), math.V3(0, 0, -z), math.V3(-root, 0, -z), math.V3(-root, 0, z)},
	}
	b := newMesh("body-walls", Quads, spec.Appearance, 16)
	for _, c := range walls {
		n, err := faceNormal("body wall", c[0].Sub(c[1]), c[0].Sub(c[2]))
		if err != nil {
			return nil, err
		}
		b.quad(n, c[:]...)
	}
	body = append(body, b.done())

	for _, start := range []float64{gomath.Pi / 2, 3 * gomath.Pi / 2} {
		web := buildSkin("body-web", root, spec.Thickness,
			spanAngles(start, start+quarter, spec.WebSegments), start, quarter,
			true, false, spec.Appearance)
		body = append(body, web)
	}
	return body, nil
}

func polar(r, theta, z float64) math.Vec3 {
	s, c := gomath.Sincos(theta)
	return math.V3(r*c, r*s, z)
}

// buildToothFaces emits the front face of every tooth as a four vertex
// strip and the rear face as a quad.
func buildToothFaces(spec GearSpec, geo GearGeometry) (front, rear *Mesh, err error) {
	frontZ, rearZ := -spec.Thickness/2, spec.Thickness/2
	tipFrontZ, tipRearZ := -geo.TipThickness/2, geo.TipThickness/2

	fb := newMesh("front-teeth", TriangleStrip, spec.Appearance, 4*spec.ToothCount)
	rb := newMesh("rear-teeth", Quads, spec.Appearance, 4*spec.ToothCount)
	for i := 0; i < spec.ToothCount; i++ {
		a := geo.ToothAngles(i)

		root0 := polar(geo.RootRadius, a.Start, frontZ)
		outer1 := polar(geo.OutsideRadius, a.TopStart, tipFrontZ)
		outer2 := polar(geo.OutsideRadius, a.DeclineStart, tipFrontZ)
		root3 := polar(geo.RootRadius, a.ValleyStart, frontZ)
		n, err := faceNormal("front tooth", root3.Sub(root0), outer1.Sub(root0))
		if err != nil {
			return nil, nil, err
		}
		fb.add(outer1, n)
		fb.add(root0, n)
		fb.add(outer2, n)
		fb.add(root3, n)
		fb.strip(4)

		root0 = polar(geo.RootRadius, a.Start, rearZ)
		outer1 = polar(geo.OutsideRadius, a.TopStart, tipRearZ)
		outer2 = polar(geo.OutsideRadius, a.DeclineStart, tipRearZ)
		root3 = polar(geo.RootRadius, a.ValleyStart, rearZ)
		n, err = faceNormal("rear tooth", outer1.Sub(root0), root3.Sub(root0))
		if err != nil {
			return nil, nil, err
		}
		rb.quad(n, root0, outer1, outer2, root3)
	}
	return fb.done(), rb.done(), nil
}

// buildToothTops emits four flat shaded quads per tooth around the
// circumference: rising flank, tip, falling flank and root land.
func buildToothTops(spec GearSpec, geo GearGeometry) (*Mesh, error) {
	frontZ, rearZ := -spec.Thickness/2, spec.Thickness/2
	tipFrontZ, tipRearZ := -geo.TipThickness/2, geo.TipThickness/2
	toward := math.V3(0, 0, -1)

	type edge struct{ front, rear math.Vec3 }
	rootEdge := func(theta float64) edge {
		return edge{polar(geo.RootRadius, theta, frontZ), polar(geo.RootRadius, theta, rearZ)}
	}
	tipEdge := func(theta float64) edge {
		return edge{polar(geo.OutsideRadius, theta, tipFrontZ), polar(geo.OutsideRadius, theta, tipRearZ)}
	}

	b := newMesh("top-teeth", Quads, spec.Appearance, 16*spec.ToothCount)
	for i := 0; i < spec.ToothCount; i++ {
		a := geo.ToothAngles(i)
		profile := [5]edge{
			rootEdge(a.Start),
			tipEdge(a.TopStart),
			tipEdge(a.DeclineStart),
			rootEdge(a.ValleyStart),
			rootEdge(a.Next),
		}
		for k := 0; k < 4; k++ {
			from, to := profile[k], profile[k+1]
			n, err := faceNormal("tooth top", toward, to.front.Sub(from.front))
			if err != nil {
				return nil, err
			}
			b.quad(n, from.rear, from.front, to.front, to.rear)
		}
	}
	return b.done(), nil
}

// buildDogs emits DogCount boxes spaced evenly around the gear between the
// inner and outer radius. The flush side of a dog gets no cap.
func buildDogs(spec GearSpec, inner, outer float64) (*Mesh, error) {
	width := spec.Thickness
	frontZ, rearZ := -width, width
	frontCap, rearCap := true, true
	switch spec.Dogs {
	case DogsFront:
		frontZ, frontCap = 0, false
	case DogsRear:
		rearZ, rearCap = 0, false
	}

	arc := math.Radians(spec.DogArcDegrees)
	step := 2 * gomath.Pi / float64(spec.DogCount)
	b := newMesh("dogs", Quads, spec.Appearance, 24*spec.DogCount)
	for i := 0; i < spec.DogCount; i++ {
		a0 := step * float64(i)
		a1 := a0 + arc
		in0f, in1f := polar(inner, a0, frontZ), polar(inner, a1, frontZ)
		out0f, out1f := polar(outer, a0, frontZ), polar(outer, a1, frontZ)
		in0r, in1r := polar(inner, a0, rearZ), polar(inner, a1, rearZ)
		out0r, out1r := polar(outer, a0, rearZ), polar(outer, a1, rearZ)

		if frontCap {
			b.quad(math.V3(0, 0, -1), in0f, in1f, out1f, out0f)
		}
		if rearCap {
			b.quad(math.V3(0, 0, 1), in0r, out0r, out1r, in1r)
		}
		sides := [4][4]math.Vec3{
			{out0f, out1f, out1r, out0r},
			{in0r, in1r, in1f, in0f},
			{out1f, in1f, in1r, out1r},
			{out0r, in0r, in0f, out0f},
		}
		for _, c := range sides {
			n, err := faceNormal("dog side", c[0].Sub(c[1]), c[0].Sub(c[2]))
			if err != nil {
				return nil, err
			}
			b.quad(n, c[:]...)
		}
	}
	return b.done(), nil
}
