package assembly

import (
	"fmt"
	gomath "math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gearbox/internal/anim"
	"github.com/Faultbox/gearbox/internal/cam"
	"github.com/Faultbox/gearbox/internal/geometry"
	"github.com/Faultbox/gearbox/internal/transmission"
	"github.com/Faultbox/gearbox/pkg/math"
)

// Surface tags of the shafts, by shaft index.
var shaftAppearance = [transmission.Shafts]geometry.Appearance{
	geometry.DarkGreen, geometry.DarkRed, geometry.Pink, geometry.MetalSilver, geometry.MetalSilver,
}

const (
	mainShaftSegments   = 60 // 15 per quarter
	camShaftSegments    = 30
	forkShaftSegments   = 15
	starCamSegments     = 90
	followerSegments    = 30
	sleeveSegments      = 25
	collarScale         = 1.25
	forkGearCollarScale = 0.6
)

type options struct {
	clock       anim.Clock
	log         *zap.Logger
	machineOpts []transmission.Option
}

// Option configures Build.
type Option func(*options)

// WithClock sets the clock behind every timeline. The default is the wall
// clock.
func WithClock(c anim.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger for the assembly and its state machine.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMachineOptions passes options through to the state machine.
func WithMachineOptions(opts ...transmission.Option) Option {
	return func(o *options) { o.machineOpts = append(o.machineOpts, opts...) }
}

// Gearbox is a built transmission. Poses, Meshes and the Machine may be
// used from different goroutines.
type Gearbox struct {
	Layout    transmission.Layout
	Machine   *transmission.Machine
	Follower  *cam.Follower
	Timelines transmission.Timelines

	// mu guards top teeth appearances. poseMu guards the follower cache
	// and is never held while mu is wanted by a shift.
	mu     sync.Mutex
	poseMu sync.Mutex
	parts  []*Part
	byName map[string]*Part
	gears  [2][transmission.Gears]*geometry.Gear
	log    *zap.Logger
}

// Build validates layout, generates every part and wires the state machine.
// The box starts in neutral.
func Build(layout transmission.Layout, opts ...Option) (*Gearbox, error) {
	o := options{clock: anim.SystemClock{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	gb := &Gearbox{
		Layout: layout,
		byName: make(map[string]*Part),
		log:    o.log,
	}

	t0 := o.clock.Now()
	newAlpha := func(d time.Duration) *anim.Alpha {
		a := anim.NewAlpha(o.clock, d)
		a.SetStartTime(t0)
		return a
	}
	gb.Timelines = transmission.Timelines{
		Input:  newAlpha(transmission.DefaultInputPeriod),
		Output: newAlpha(transmission.DefaultInputPeriod),
		Cam:    newAlpha(transmission.DefaultCamDuration),
	}
	for s := 0; s < 2; s++ {
		for g := 0; g < transmission.Gears; g++ {
			if layout.Kinds[s][g] == transmission.Spin {
				gb.Timelines.Gears[s][g] = newAlpha(transmission.DefaultInputPeriod)
			}
		}
	}

	p := layout.Placements()
	gb.Follower = cam.NewFollower(
		layout.ShaftRadii[transmission.CamShaft]*collarScale+layout.FollowerRadius,
		p[transmission.CamShaft].Y,
		(layout.ShaftLength+layout.IndexCamWidth)/2,
	)

	if err := gb.buildShafts(); err != nil {
		return nil, err
	}
	if err := gb.buildGears(); err != nil {
		return nil, err
	}
	if err := gb.buildForks(); err != nil {
		return nil, err
	}

	machineOpts := append([]transmission.Option{
		transmission.WithLogger(o.log.Named("shift")),
		transmission.WithRecolorer(gb),
	}, o.machineOpts...)
	m, err := transmission.NewMachine(layout, gb.Timelines, machineOpts...)
	if err != nil {
		return nil, err
	}
	gb.Machine = m

	gb.log.Info("assembled gearbox",
		zap.Int("parts", len(gb.parts)),
		zap.Int("meshes", gb.meshCount()),
		zap.Int("triangles", gb.triangleCount()))
	return gb, nil
}

func (gb *Gearbox) add(p *Part) *Part {
	p.ID = HandleFor(p.Name)
	gb.parts = append(gb.parts, p)
	gb.byName[p.Name] = p
	gb.log.Debug("part", zap.String("name", p.Name), zap.Stringer("kind", p.Kind), zap.Int("meshes", len(p.Meshes)))
	return p
}

func (gb *Gearbox) buildShafts() error {
	l := gb.Layout
	p := l.Placements()
	tl := gb.Timelines

	for i := 0; i < transmission.Shafts; i++ {
		spec := geometry.ShaftSpec{
			Radius:        l.ShaftRadii[i],
			Length:        l.ShaftLength,
			Segments:      forkShaftSegments,
			Appearance:    shaftAppearance[i],
			CapAppearance: shaftAppearance[i],
		}
		switch i {
		case transmission.InputShaft, transmission.OutputShaft:
			// Quarter sections make the rotation visible.
			spec.Segments = mainShaftSegments
			q := gomath.Pi / 2
			spec.Sections = []geometry.Section{
				{Start: 0, End: q, Appearance: shaftAppearance[i], CapAppearance: shaftAppearance[i]},
				{Start: q, End: 2 * q, Appearance: geometry.OffWhite, CapAppearance: geometry.OffWhite},
				{Start: 2 * q, End: 3 * q, Appearance: shaftAppearance[i], CapAppearance: shaftAppearance[i]},
				{Start: 3 * q, End: 4 * q, Appearance: geometry.OffWhite, CapAppearance: geometry.OffWhite},
			}
		case transmission.CamShaft:
			spec.Segments = camShaftSegments
			spec.Mapped = true
			spec.EndCapped = true
			spec.Appearance = geometry.CamTexture
			spec.CapAppearance = geometry.OffWhite
		}
		shaft, err := geometry.BuildShaft(spec)
		if err != nil {
			return fmt.Errorf("shaft %d: %w", i, err)
		}

		at := math.TranslateVec(p[i])
		local := fixed(at)
		switch i {
		case transmission.InputShaft:
			local = func() math.Mat4 { return at.Mul(math.RotateZ(-2 * gomath.Pi * tl.Input.Value())) }
		case transmission.OutputShaft:
			local = func() math.Mat4 { return at.Mul(math.RotateZ(2 * gomath.Pi * tl.Output.Value())) }
		case transmission.CamShaft:
			local = func() math.Mat4 { return at.Mul(math.RotateZ(gb.camAngle())) }
		}
		part := gb.add(&Part{Name: shaftNames[i], Kind: KindShaft, Meshes: shaft.Meshes(), local: local})

		if i == transmission.CamShaft {
			star, err := geometry.BuildStarCam(geometry.StarCamSpec{
				Radius:     l.ShaftRadii[i] * collarScale,
				Segments:   starCamSegments,
				Offset:     l.ShaftLength / 2,
				Width:      l.IndexCamWidth,
				Appearance: geometry.DarkGreen,
			})
			if err != nil {
				return fmt.Errorf("star cam: %w", err)
			}
			gb.add(&Part{Name: starCamName, Kind: KindStarCam, Meshes: star.Meshes(), parent: part, local: fixed(math.Identity())})
		}
	}

	follower, err := geometry.BuildShaft(geometry.ShaftSpec{
		Radius:        l.FollowerRadius,
		Length:        l.IndexCamWidth,
		Segments:      followerSegments,
		Appearance:    geometry.DarkRed,
		CapAppearance: geometry.DarkRed,
	})
	if err != nil {
		return fmt.Errorf("follower: %w", err)
	}
	gb.add(&Part{Name: followerName, Kind: KindFollower, Meshes: follower.Meshes(), local: func() math.Mat4 {
		return math.TranslateVec(gb.followerPosition())
	}})
	return nil
}

// coupling returns the coupling whose follower is gear g on shaft s.
func (gb *Gearbox) coupling(s, g int) (transmission.Coupling, bool) {
	for _, c := range gb.Layout.Couplings {
		if c.Shaft == s && c.Follower == g {
			return c, true
		}
	}
	return transmission.Coupling{}, false
}

// slider returns the sliding member index that moves gear g on shaft s.
func (gb *Gearbox) slider(s, g int) (int, bool) {
	for i, sg := range gb.Layout.SlidingGears {
		if sg[0] == s && sg[1] == g {
			return i, true
		}
	}
	return 0, false
}

func (gb *Gearbox) buildGears() error {
	l := gb.Layout
	p := l.Placements()
	tl := gb.Timelines

	// Drivers must exist before their followers.
	order := make([][2]int, 0, 2*transmission.Gears)
	var followers [][2]int
	for s := 0; s < 2; s++ {
		for g := 0; g < transmission.Gears; g++ {
			if _, ok := gb.coupling(s, g); ok {
				followers = append(followers, [2]int{s, g})
				continue
			}
			order = append(order, [2]int{s, g})
		}
	}
	order = append(order, followers...)

	for _, sg := range order {
		s, g := sg[0], sg[1]
		gear, err := geometry.BuildGear(l.GearSpec(s, g))
		if err != nil {
			return fmt.Errorf("gear %d on shaft %d: %w", g, s, err)
		}
		gb.gears[s][g] = gear

		// Even-toothed output gears turn half a pitch so teeth mesh.
		mesh := math.Identity()
		if s == transmission.OutputShaft && l.Teeth[s][g]%2 == 0 {
			mesh = math.RotateZ(gear.Geometry.CircularPitchAngle / -2)
		}

		part := &Part{Name: gearName(s, g), Kind: KindGear, Meshes: gear.Meshes()}
		if c, ok := gb.coupling(s, g); ok {
			part.parent = gb.byName[gearName(c.Shaft, c.Driver)]
			part.local = fixed(math.Translate(0, 0, c.Offset).Mul(mesh))
			gb.add(part)

			sleeve, err := geometry.BuildShaft(geometry.ShaftSpec{
				Radius:     l.ShaftRadii[s] * collarScale,
				Length:     gomath.Abs(c.Offset),
				Segments:   sleeveSegments,
				Appearance: geometry.Pink,
			})
			if err != nil {
				return fmt.Errorf("sleeve on shaft %d: %w", s, err)
			}
			gb.add(&Part{
				Name:   sleeveName(s, c.Driver, c.Follower),
				Kind:   KindSleeve,
				Meshes: sleeve.Meshes(),
				parent: part,
				local:  fixed(math.Translate(0, 0, -c.Offset/2)),
			})
			continue
		}

		switch l.Kinds[s][g] {
		case transmission.Spin:
			at := math.TranslateVec(p[s].Add(math.V3(0, 0, l.GearPlacement[g]))).Mul(mesh)
			sign := float64(2*s - 1)
			alpha := tl.Gears[s][g]
			part.local = func() math.Mat4 { return at.Mul(math.RotateZ(sign * 2 * gomath.Pi * alpha.Value())) }
		case transmission.Slide:
			part.parent = gb.byName[shaftNames[s]]
			at := math.Translate(0, 0, l.GearPlacement[g]).Mul(mesh)
			if i, ok := gb.slider(s, g); ok {
				part.local = func() math.Mat4 { return at.Mul(math.Translate(0, 0, gb.sliderOffset(i))) }
			} else {
				part.local = fixed(at)
			}
		default:
			part.parent = gb.byName[shaftNames[s]]
			part.local = fixed(math.Translate(0, 0, l.GearPlacement[g]).Mul(mesh))
		}
		gb.add(part)
	}
	return nil
}

func (gb *Gearbox) buildForks() error {
	l := gb.Layout
	p := l.Placements()
	up := math.V3(0, 1, 0)

	for i := 0; i < transmission.Sliders; i++ {
		forkShaft, gearShaft, gear := l.ForkInfo[i][0], l.ForkInfo[i][1], l.ForkInfo[i][2]
		sg := l.SlidingGears[i]

		spec := geometry.ShiftForkSpec{
			GearCollarRadius:  l.PitchRadius(sg[0], sg[1]) * forkGearCollarScale,
			ShaftCollarRadius: l.ShaftRadii[forkShaft] * collarScale,
			Offset:            p[forkShaft].Sub(p[gearShaft]),
			Thickness:         l.ForkThickness,
			PinAngle:          up.Angle(p[gearShaft].Sub(p[transmission.CamShaft])),
			PinSign:           l.ForkPinSigns[i],
			Appearance:        geometry.Yellow,
		}
		fork, err := geometry.BuildShiftFork(spec)
		if err != nil {
			return fmt.Errorf("fork %d: %w", i, err)
		}

		// A fork on a coupled pair rides the sleeve between the gears;
		// otherwise it sits against the gear's face.
		z := l.GearPlacement[gear] + (l.GearThickness+l.ForkThickness)/2
		for _, c := range l.Couplings {
			if c.Shaft == sg[0] && c.Driver == sg[1] {
				z = l.GearPlacement[c.Driver] + c.Offset/2
			}
		}
		at := math.TranslateVec(p[gearShaft].Add(math.V3(0, 0, z)))
		slider := i
		gb.add(&Part{Name: forkName(i), Kind: KindFork, Meshes: fork.Meshes(), local: func() math.Mat4 {
			return at.Mul(math.Translate(0, 0, gb.sliderOffset(slider)))
		}})
	}
	return nil
}

func (gb *Gearbox) camAngle() float64 {
	from, to := gb.Machine.CamSweep()
	return from + (to-from)*gb.Timelines.Cam.Value()
}

func (gb *Gearbox) followerPosition() math.Vec3 {
	from, to := gb.Machine.CamSweep()
	pos, _ := gb.Follower.Update(from, to, gb.Timelines.Cam.Value())
	return pos
}

func (gb *Gearbox) sliderOffset(i int) float64 {
	return gb.Machine.Sliders()[i].At(gb.Timelines.Cam.Value())
}

// SetTopTeethAppearance retags the top teeth of a gear. It lets the state
// machine highlight the pair carrying power.
func (gb *Gearbox) SetTopTeethAppearance(shaft, gear int, a geometry.Appearance) {
	gb.mu.Lock()
	defer gb.mu.Unlock()
	if g := gb.gears[shaft][gear]; g != nil {
		g.TopTeeth.Appearance = a
	}
}

// TopTeeth returns the top teeth mesh of a gear.
func (gb *Gearbox) TopTeeth(shaft, gear int) *geometry.Mesh {
	gb.mu.Lock()
	defer gb.mu.Unlock()
	return gb.gears[shaft][gear].TopTeeth
}

// Meshes returns copies of a part's meshes carrying their current
// appearance. Vertex and index data are shared.
func (gb *Gearbox) Meshes(p *Part) []*geometry.Mesh {
	gb.mu.Lock()
	defer gb.mu.Unlock()
	out := make([]*geometry.Mesh, len(p.Meshes))
	for i, m := range p.Meshes {
		c := *m
		out[i] = &c
	}
	return out
}

// Gear returns the built gear g on shaft s.
func (gb *Gearbox) Gear(s, g int) *geometry.Gear {
	return gb.gears[s][g]
}

// Parts lists every part, parents before children.
func (gb *Gearbox) Parts() []*Part {
	return append([]*Part(nil), gb.parts...)
}

// Part returns the part called name.
func (gb *Gearbox) Part(name string) (*Part, bool) {
	p, ok := gb.byName[name]
	return p, ok
}

// Poses places every part in the world at the current instant.
func (gb *Gearbox) Poses() []PartPose {
	gb.poseMu.Lock()
	defer gb.poseMu.Unlock()
	world := make(map[*Part]math.Mat4, len(gb.parts))
	out := make([]PartPose, 0, len(gb.parts))
	for _, p := range gb.parts {
		m := p.local()
		if p.parent != nil {
			m = world[p.parent].Mul(m)
		}
		world[p] = m
		out = append(out, PartPose{ID: p.ID, Name: p.Name, Transform: m, Pose: math.PoseOf(m)})
	}
	return out
}

func (gb *Gearbox) meshCount() int {
	n := 0
	for _, p := range gb.parts {
		n += len(p.Meshes)
	}
	return n
}

func (gb *Gearbox) triangleCount() int {
	n := 0
	for _, p := range gb.parts {
		for _, m := range p.Meshes {
			n += m.TriangleCount()
		}
	}
	return n
}
