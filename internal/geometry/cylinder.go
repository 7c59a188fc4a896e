package geometry

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/gearbox/pkg/math"
)

// tilingTolerance bounds the gap or overlap accepted between shaft sections.
const tilingTolerance = 1e-9

// CylinderSpec describes an open cylindrical skin centred on the z axis.
type CylinderSpec struct {
	Radius     float64
	Length     float64
	Segments   int
	Arc        float64 // 0 means a full circle
	StartAngle float64
	FlipNormal bool // normals face the axis
	Mapped     bool // emit texture coordinates
	Appearance Appearance
}

// BuildCylinderSkin builds a triangle strip of two vertices per angular
// step. The rear edge (z = +Length/2) comes first unless the normal is
// flipped, in which case the front edge leads.
func BuildCylinderSkin(spec CylinderSpec) (*Mesh, error) {
	arc, err := checkCylinder(spec.Radius, spec.Length, spec.Segments, spec.StartAngle, spec.Arc)
	if err != nil {
		return nil, err
	}
	angles := spanAngles(spec.StartAngle, spec.StartAngle+arc, spec.Segments)
	return buildSkin("skin", spec.Radius, spec.Length, angles, spec.StartAngle, arc,
		spec.FlipNormal, spec.Mapped, spec.Appearance), nil
}

func checkCylinder(radius, length float64, segments int, start, arc float64) (float64, error) {
	if !finite(radius, length, start, arc) {
		return 0, invalid("cylinder radius %g, length %g, start %g and arc %g must be finite", radius, length, start, arc)
	}
	if radius <= 0 {
		return 0, invalid("cylinder radius %g must be positive", radius)
	}
	if length <= 0 {
		return 0, invalid("cylinder length %g must be positive", length)
	}
	if segments < 3 {
		return 0, invalid("cylinder needs at least 3 segments, got %d", segments)
	}
	if arc == 0 {
		arc = fullCircle
	}
	if arc < 0 || arc > fullCircle+tilingTolerance {
		return 0, invalid("cylinder arc %g outside (0, 2pi]", arc)
	}
	return arc, nil
}

func buildSkin(name string, radius, length float64, angles []float64, start, arc float64, flip, mapped bool, look Appearance) *Mesh {
	frontZ := -0.5 * length
	rearZ := 0.5 * length
	first, second := rearZ, frontZ
	if flip {
		first, second = frontZ, rearZ
	}

	b := newMesh(name, TriangleStrip, look, 2*len(angles))
	for _, theta := range angles {
		s, c := gomath.Sincos(theta)
		normal := math.V3(c, s, 0)
		if flip {
			normal = normal.Negate()
		}
		x, y := radius*c, radius*s
		var u float64
		if mapped {
			u = (theta - start) / arc
		}
		b.addUV(math.V3(x, y, first), normal, u, 0)
		b.addUV(math.V3(x, y, second), normal, u, boolToFloat(mapped))
	}
	b.strip(2 * len(angles))
	return b.done()
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// Section is an angular range of a shaft with its own surface tags.
// Start and End are relative to the shaft's StartAngle.
type Section struct {
	Start         float64
	End           float64
	Appearance    Appearance
	CapAppearance Appearance
}

// ShaftSpec describes a possibly partial, sectioned, capped cylinder.
type ShaftSpec struct {
	Radius        float64
	Length        float64
	Segments      int
	Arc           float64 // 0 means a full circle
	StartAngle    float64
	FlipNormal    bool
	EndCapped     bool
	Mapped        bool
	Appearance    Appearance
	CapAppearance Appearance
	// Sections must tile [0, Arc). Nil means one section with the shaft's
	// own appearances.
	Sections []Section
}

// ShaftSection holds the meshes of one angular section.
type ShaftSection struct {
	Section
	Skin     *Mesh
	FrontCap *Mesh // nil unless the shaft is capped
	RearCap  *Mesh
}

// Shaft is a built cylinder.
type Shaft struct {
	Spec     ShaftSpec
	Sections []ShaftSection
}

// Meshes lists every mesh of the shaft, section by section.
func (s *Shaft) Meshes() []*Mesh {
	var out []*Mesh
	for _, sec := range s.Sections {
		out = append(out, sec.Skin)
		if sec.FrontCap != nil {
			out = append(out, sec.FrontCap)
		}
		if sec.RearCap != nil {
			out = append(out, sec.RearCap)
		}
	}
	return out
}

// BuildShaft builds the skin and optional end caps of every section.
// Section boundary angles are computed once and shared by both neighbours.
func BuildShaft(spec ShaftSpec) (*Shaft, error) {
	arc, err := checkCylinder(spec.Radius, spec.Length, spec.Segments, spec.StartAngle, spec.Arc)
	if err != nil {
		return nil, err
	}
	sections := spec.Sections
	if sections == nil {
		sections = []Section{{Start: 0, End: arc, Appearance: spec.Appearance, CapAppearance: spec.CapAppearance}}
	}
	if err := checkTiling(sections, arc); err != nil {
		return nil, err
	}

	bounds := make([]float64, len(sections)+1)
	for i, sec := range sections {
		bounds[i] = spec.StartAngle + sec.Start
	}
	bounds[len(sections)] = spec.StartAngle + sections[len(sections)-1].End

	shaft := &Shaft{Spec: spec, Sections: make([]ShaftSection, len(sections))}
	for i, sec := range sections {
		span := sec.End - sec.Start
		n := int(gomath.Ceil(float64(spec.Segments)*span/arc - tilingTolerance))
		if n < 1 {
			n = 1
		}
		angles := spanAngles(bounds[i], bounds[i+1], n)
		out := ShaftSection{
			Section: sec,
			Skin: buildSkin(fmt.Sprintf("skin.%d", i), spec.Radius, spec.Length, angles,
				spec.StartAngle, arc, spec.FlipNormal, spec.Mapped, sec.Appearance),
		}
		if spec.EndCapped {
			out.FrontCap = buildDisk(fmt.Sprintf("front-cap.%d", i), -0.5*spec.Length, -1, spec.Radius, angles, sec.CapAppearance)
			out.RearCap = buildDisk(fmt.Sprintf("rear-cap.%d", i), 0.5*spec.Length, 1, spec.Radius, angles, sec.CapAppearance)
		}
		shaft.Sections[i] = out
	}
	return shaft, nil
}

func checkTiling(sections []Section, arc float64) error {
	if len(sections) == 0 {
		return invalid("shaft has no sections")
	}
	if gomath.Abs(sections[0].Start) > tilingTolerance {
		return invalid("first section starts at %g, not 0", sections[0].Start)
	}
	for i, sec := range sections {
		if !finite(sec.Start, sec.End) {
			return invalid("section %d bounds [%g, %g) must be finite", i, sec.Start, sec.End)
		}
		if sec.End <= sec.Start {
			return invalid("section %d is empty or reversed [%g, %g)", i, sec.Start, sec.End)
		}
		if i > 0 {
			prev := sections[i-1].End
			switch {
			case sec.Start > prev+tilingTolerance:
				return invalid("gap between sections %d and %d", i-1, i)
			case sec.Start < prev-tilingTolerance:
				return invalid("sections %d and %d overlap", i-1, i)
			}
		}
	}
	if last := sections[len(sections)-1].End; gomath.Abs(last-arc) > tilingTolerance {
		return invalid("sections end at %g, arc is %g", last, arc)
	}
	return nil
}
