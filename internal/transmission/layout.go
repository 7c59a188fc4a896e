// Package transmission describes a sequential gearbox and simulates gear
// selection: shift cam angles, sliding gear travel and shaft speeds.
package transmission

import (
	"fmt"
	gomath "math"
	"strings"

	"github.com/Faultbox/gearbox/internal/geometry"
	"github.com/Faultbox/gearbox/pkg/math"
)

// Mechanism dimensions.
const (
	Shafts    = 5 // input, output, shift cam, two fork shafts
	Gears     = 6 // gear pairs
	Positions = 7 // 1st, neutral, 2nd..6th
	Sliders   = 3 // sliding members, each moved by one fork
)

// Shaft indices.
const (
	InputShaft = iota
	OutputShaft
	CamShaft
	ForkShaftA
	ForkShaftB
)

// GearKind says how a gear is held on its shaft.
type GearKind int

const (
	// Spin gears turn freely on the shaft and never slide.
	Spin GearKind = iota
	// Slide gears are splined: they turn with the shaft and move along it.
	Slide
	// Fixed gears are part of the shaft.
	Fixed
)

var gearKindNames = [...]string{"spin", "slide", "fixed"}

func (k GearKind) String() string {
	if k >= 0 && int(k) < len(gearKindNames) {
		return gearKindNames[k]
	}
	return fmt.Sprintf("GearKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k GearKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(gearKindNames) {
		return nil, fmt.Errorf("unknown gear kind %d", int(k))
	}
	return []byte(gearKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *GearKind) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range gearKindNames {
		if name == s {
			*k = GearKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown gear kind %q", s)
}

// Appearance returns the default surface tag for gears of this kind.
func (k GearKind) Appearance() geometry.Appearance {
	switch k {
	case Slide:
		return geometry.Pink
	case Fixed:
		return geometry.Yellow
	}
	return geometry.MetalSilver
}

// Coupling joins a follower gear to a driver gear on the same shaft with a
// sleeve, so the pair slides as one.
type Coupling struct {
	Shaft    int     `yaml:"shaft" toml:"shaft"`
	Driver   int     `yaml:"driver" toml:"driver"`
	Follower int     `yaml:"follower" toml:"follower"`
	Offset   float64 `yaml:"offset" toml:"offset"` // follower z relative to the driver
}

// Layout is the static description of one transmission.
type Layout struct {
	ShaftOffset       float64                     `yaml:"shaft_offset" toml:"shaft_offset"`
	ShaftRadii        [Shafts]float64             `yaml:"shaft_radii" toml:"shaft_radii"`
	ShaftLength       float64                     `yaml:"shaft_length" toml:"shaft_length"`
	Teeth             [2][Gears]int               `yaml:"teeth" toml:"teeth"`
	Dogs              [2][Gears]geometry.Dogs     `yaml:"dogs" toml:"dogs"`
	Kinds             [2][Gears]GearKind          `yaml:"kinds" toml:"kinds"`
	GearPlacement     [Gears]float64              `yaml:"gear_placement" toml:"gear_placement"`
	ShiftMatrix       [Positions][Sliders]int     `yaml:"shift_matrix" toml:"shift_matrix"`
	SlidingGears      [Sliders][2]int             `yaml:"sliding_gears" toml:"sliding_gears"`
	ForkInfo          [Sliders][3]int             `yaml:"fork_info" toml:"fork_info"` // fork shaft, gear shaft, gear used for axial offset
	ForkPinSigns      [Sliders]int                `yaml:"fork_pin_signs" toml:"fork_pin_signs"`
	Couplings         []Coupling                  `yaml:"couplings" toml:"couplings"`
	Addendum          float64                     `yaml:"addendum" toml:"addendum"`
	Dedendum          float64                     `yaml:"dedendum" toml:"dedendum"`
	GearThickness     float64                     `yaml:"gear_thickness" toml:"gear_thickness"`
	ToothTipThickness float64                     `yaml:"tooth_tip_thickness" toml:"tooth_tip_thickness"`
	ValleyRatio       float64                     `yaml:"valley_ratio" toml:"valley_ratio"`
	ForkThickness     float64                     `yaml:"fork_thickness" toml:"fork_thickness"`
	IndexCamWidth     float64                     `yaml:"index_cam_width" toml:"index_cam_width"`
	FollowerRadius    float64                     `yaml:"follower_radius" toml:"follower_radius"`
}

// Default returns the layout of a 2002 Suzuki SV-650 gearbox.
func Default() Layout {
	const (
		n = geometry.DogsNone
		f = geometry.DogsFront
		r = geometry.DogsRear
		b = geometry.DogsBoth
	)
	length := 3.5
	return Layout{
		ShaftOffset:   0.5,
		ShaftRadii:    [Shafts]float64{0.15, 0.15, 0.4, 0.1, 0.1},
		ShaftLength:   length,
		Teeth:         [2][Gears]int{{13, 18, 21, 24, 26, 27}, {32, 32, 29, 27, 25, 23}},
		Dogs:          [2][Gears]geometry.Dogs{{n, n, f, r, n, n}, {n, n, n, n, b, b}},
		Kinds:         [2][Gears]GearKind{{Fixed, Fixed, Slide, Slide, Spin, Spin}, {Spin, Spin, Spin, Spin, Slide, Slide}},
		GearPlacement: [Gears]float64{-1.25, 1.25, 0.25, -0.25, -0.75, 0.75},
		ShiftMatrix: [Positions][Sliders]int{
			{0, -1, 0}, {0, 0, 0}, {0, 0, 1}, {0, 0, -1}, {0, 1, 0}, {-1, 0, 0}, {1, 0, 0},
		},
		SlidingGears:      [Sliders][2]int{{0, 2}, {1, 4}, {1, 5}},
		ForkInfo:          [Sliders][3]int{{3, 0, 3}, {4, 1, 4}, {4, 1, 5}},
		ForkPinSigns:      [Sliders]int{1, -1, -1},
		Couplings:         []Coupling{{Shaft: 0, Driver: 2, Follower: 3, Offset: -0.5}},
		Addendum:          0.05,
		Dedendum:          0.05,
		GearThickness:     0.3,
		ToothTipThickness: 0.25,
		ValleyRatio:       0.15,
		ForkThickness:     0.1,
		IndexCamWidth:     length * 0.05,
		FollowerRadius:    0.06,
	}
}

// Placements returns the axis positions of the five shafts.
func (l Layout) Placements() [Shafts]math.Vec3 {
	o := l.ShaftOffset
	return [Shafts]math.Vec3{
		math.V3(-o, 0, 0),
		math.V3(o, 0, 0),
		math.V3(0, -2.5*o, 0),
		math.V3(-1.25*o, -2*o, 0),
		math.V3(1.25*o, -2*o, 0),
	}
}

// Ratios returns teeth[s][g] / teeth[1-s][g] for every gear.
func (l Layout) Ratios() [2][Gears]float64 {
	var r [2][Gears]float64
	for s := 0; s < 2; s++ {
		for g := 0; g < Gears; g++ {
			r[s][g] = float64(l.Teeth[s][g]) / float64(l.Teeth[1-s][g])
		}
	}
	return r
}

// PitchRadius returns the pitch radius of gear g on shaft s. Both gears of a
// pair share one module, sized so their pitch circles meet between the
// shafts.
func (l Layout) PitchRadius(s, g int) float64 {
	module := 2 * l.ShaftOffset / float64(l.Teeth[s][g]+l.Teeth[1-s][g])
	return module * float64(l.Teeth[s][g])
}

// GearSpec returns the builder spec of gear g on shaft s.
func (l Layout) GearSpec(s, g int) geometry.GearSpec {
	return geometry.GearSpec{
		ToothCount:         l.Teeth[s][g],
		PitchRadius:        l.PitchRadius(s, g),
		ShaftRadius:        l.ShaftRadii[s],
		Addendum:           l.Addendum,
		Dedendum:           l.Dedendum,
		Thickness:          l.GearThickness,
		ToothTipThickness:  l.ToothTipThickness,
		ToothToValleyRatio: l.ValleyRatio,
		Dogs:               l.Dogs[s][g],
		Appearance:         l.Kinds[s][g].Appearance(),
	}
}

// dimensions names every real-valued layout field.
func (l Layout) dimensions() map[string]float64 {
	d := map[string]float64{
		"shaft offset":        l.ShaftOffset,
		"shaft length":        l.ShaftLength,
		"addendum":            l.Addendum,
		"dedendum":            l.Dedendum,
		"gear thickness":      l.GearThickness,
		"tooth tip thickness": l.ToothTipThickness,
		"valley ratio":        l.ValleyRatio,
		"fork thickness":      l.ForkThickness,
		"index cam width":     l.IndexCamWidth,
		"follower radius":     l.FollowerRadius,
	}
	for i, r := range l.ShaftRadii {
		d[fmt.Sprintf("shaft %d radius", i)] = r
	}
	for g, z := range l.GearPlacement {
		d[fmt.Sprintf("gear %d placement", g)] = z
	}
	for i, c := range l.Couplings {
		d[fmt.Sprintf("coupling %d offset", i)] = c.Offset
	}
	return d
}

// Validate checks ranges and cross references.
func (l Layout) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("invalid layout: %s", fmt.Sprintf(format, args...))
	}
	for name, v := range l.dimensions() {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return bad("%s %g must be finite", name, v)
		}
	}
	if l.ShaftOffset <= 0 {
		return bad("shaft offset %g must be positive", l.ShaftOffset)
	}
	if l.ShaftLength <= 0 {
		return bad("shaft length %g must be positive", l.ShaftLength)
	}
	for i, r := range l.ShaftRadii {
		if r <= 0 {
			return bad("shaft %d radius %g must be positive", i, r)
		}
	}
	for name, v := range map[string]float64{
		"gear thickness":  l.GearThickness,
		"fork thickness":  l.ForkThickness,
		"index cam width": l.IndexCamWidth,
		"follower radius": l.FollowerRadius,
	} {
		if v <= 0 {
			return bad("%s %g must be positive", name, v)
		}
	}
	for s := 0; s < 2; s++ {
		for g := 0; g < Gears; g++ {
			if l.Teeth[s][g] < 3 {
				return bad("gear %d on shaft %d has %d teeth", g, s, l.Teeth[s][g])
			}
			if k := l.Kinds[s][g]; k < Spin || k > Fixed {
				return bad("gear %d on shaft %d has unknown kind %d", g, s, int(k))
			}
			if err := l.GearSpec(s, g).Validate(); err != nil {
				return bad("gear %d on shaft %d: %v", g, s, err)
			}
		}
	}
	for p, row := range l.ShiftMatrix {
		for i, v := range row {
			if v < -1 || v > 1 {
				return bad("shift matrix [%d][%d] = %d outside [-1, 1]", p, i, v)
			}
		}
	}
	for i := 0; i < Sliders; i++ {
		s, g := l.SlidingGears[i][0], l.SlidingGears[i][1]
		if s < 0 || s > 1 || g < 0 || g >= Gears {
			return bad("sliding gear %d refers to shaft %d gear %d", i, s, g)
		}
		if l.Kinds[s][g] != Slide {
			return bad("sliding gear %d is a %v gear", i, l.Kinds[s][g])
		}
		fork := l.ForkInfo[i]
		if fork[0] < ForkShaftA || fork[0] > ForkShaftB || fork[1] < 0 || fork[1] > 1 || fork[2] < 0 || fork[2] >= Gears {
			return bad("fork %d info %v out of range", i, fork)
		}
		if sign := l.ForkPinSigns[i]; sign != 1 && sign != -1 {
			return bad("fork %d pin sign %d must be +1 or -1", i, sign)
		}
	}
	for i, c := range l.Couplings {
		if c.Shaft < 0 || c.Shaft > 1 || c.Driver < 0 || c.Driver >= Gears || c.Follower < 0 || c.Follower >= Gears || c.Driver == c.Follower {
			return bad("coupling %d %+v out of range", i, c)
		}
		if c.Offset == 0 {
			return bad("coupling %d has zero offset", i)
		}
	}
	return nil
}
