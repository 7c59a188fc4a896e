package transmission

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/gearbox/internal/anim"
	"github.com/Faultbox/gearbox/internal/geometry"
	"github.com/Faultbox/gearbox/pkg/math"
)

// Selector positions.
const (
	First   = 0
	Neutral = 1
	Top     = Positions - 1
)

// Defaults for the speed and shift timing.
const (
	DefaultInputRPM    = 4000
	DefaultInputPeriod = 5 * time.Second
	DefaultCamDuration = 800 * time.Millisecond

	// camLeadIn delays the cam sweep slightly after a shift is accepted.
	camLeadIn = 25 * time.Millisecond
	// camPhaseDegrees aligns cam angle 0 with the 1st gear detent.
	camPhaseDegrees = 45
)

// Timelines are the progress sources the machine drives. Input and Output
// turn the main shafts, Cam sweeps the shift cam, and Gears holds one
// timeline per free-spinning gear (nil entries for splined or fixed gears).
type Timelines struct {
	Input  anim.Timeline
	Output anim.Timeline
	Cam    anim.Timeline
	Gears  [2][Gears]anim.Timeline
}

// Recolorer changes the appearance of a gear's top teeth.
type Recolorer interface {
	SetTopTeethAppearance(shaft, gear int, a geometry.Appearance)
}

// RecolorFunc adapts a function to Recolorer.
type RecolorFunc func(shaft, gear int, a geometry.Appearance)

// SetTopTeethAppearance calls f.
func (f RecolorFunc) SetTopTeethAppearance(shaft, gear int, a geometry.Appearance) {
	f(shaft, gear, a)
}

// SliderTravel is the axial travel of one sliding member during a shift.
type SliderTravel struct {
	Start float64
	End   float64
}

// At interpolates the travel at progress p in [0, 1].
func (s SliderTravel) At(p float64) float64 {
	return s.Start + (s.End-s.Start)*p
}

// Shift is the outcome of one accepted gear change.
type Shift struct {
	From             int
	To               int
	CamStartDegrees  float64
	CamTargetDegrees float64
	ActivePair       int
	Sliders          [Sliders]SliderTravel
	Ratio            float64
	OutputRPM        float64
	GearRPM          [2][Gears]float64
	Description      string
}

// State is a snapshot of the machine.
type State struct {
	Position        int
	Previous        int
	CamAngleDegrees float64
	ActivePair      int
	Ratios          [2][Gears]float64
	InputRPM        float64
	OutputRPM       float64
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for shift events.
func WithLogger(log *zap.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRecolorer sets the hook that retags the active gear pair.
func WithRecolorer(r Recolorer) Option {
	return func(m *Machine) { m.recolor = r }
}

// WithInputRPM sets the input shaft speed.
func WithInputRPM(rpm float64) Option {
	return func(m *Machine) { m.inputRPM = rpm }
}

// WithInputPeriod sets how long one input shaft revolution takes on screen.
func WithInputPeriod(d time.Duration) Option {
	return func(m *Machine) { m.inputPeriod = d }
}

// WithCamDuration sets how long the shift cam takes to rotate to a new
// position.
func WithCamDuration(d time.Duration) Option {
	return func(m *Machine) { m.camDuration = d }
}

// Machine is the sequential shift state machine. It starts in neutral and
// moves one position per Upshift or Downshift. It is safe for concurrent
// use.
type Machine struct {
	mu sync.Mutex

	layout Layout
	tl     Timelines
	ratios [2][Gears]float64

	position int
	previous int
	pair     int
	camFrom  float64 // degrees
	camTo    float64 // degrees
	sliders  [Sliders]SliderTravel

	inputRPM    float64
	outputRPM   float64
	gearRPM     [2][Gears]float64
	inputPeriod time.Duration
	camDuration time.Duration
	paused      bool

	recolor Recolorer
	log     *zap.Logger
}

// NewMachine validates the layout and timelines and puts the box in
// neutral with the cam at rest.
func NewMachine(layout Layout, tl Timelines, opts ...Option) (*Machine, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if tl.Input == nil || tl.Output == nil || tl.Cam == nil {
		return nil, errors.New("transmission: input, output and cam timelines are required")
	}
	for s := 0; s < 2; s++ {
		for g := 0; g < Gears; g++ {
			if layout.Kinds[s][g] == Spin && tl.Gears[s][g] == nil {
				return nil, fmt.Errorf("transmission: missing timeline for spinning gear %d on shaft %d", g, s)
			}
		}
	}

	m := &Machine{
		layout:      layout,
		tl:          tl,
		ratios:      layout.Ratios(),
		position:    Neutral,
		previous:    Neutral,
		pair:        -1,
		inputRPM:    DefaultInputRPM,
		inputPeriod: DefaultInputPeriod,
		camDuration: DefaultCamDuration,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if !validRPM(m.inputRPM) {
		return nil, fmt.Errorf("transmission: input rpm %g must be finite and not negative", m.inputRPM)
	}
	if m.inputPeriod <= 0 || m.camDuration <= 0 {
		return nil, errors.New("transmission: input period and cam duration must be positive")
	}

	if lc, ok := tl.Cam.(interface{ SetLoopCount(int) }); ok {
		lc.SetLoopCount(1)
	}
	tl.Cam.SetDuration(m.camDuration)
	tl.Cam.SetStartTime(tl.Cam.Now().Add(-m.camDuration))

	m.camFrom = m.camTarget()
	m.camTo = m.camFrom
	m.sliders = m.sliderTravel()
	m.updateSpeeds()
	return m, nil
}

// Upshift moves one position up: 1st -> N -> 2nd ... -> 6th.
func (m *Machine) Upshift() (Shift, error) {
	return m.step(+1)
}

// Downshift moves one position down.
func (m *Machine) Downshift() (Shift, error) {
	return m.step(-1)
}

func (m *Machine) step(dir int) (Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case dir > 0 && m.position >= Top:
		return Shift{}, ErrAtTop
	case dir < 0 && m.position <= First:
		return Shift{}, ErrAtBottom
	case !m.tl.Cam.Finished():
		return Shift{}, ErrShiftInFlight
	}

	m.previous = m.position
	m.position += dir
	sh := m.shift()
	m.log.Info("shift",
		zap.String("from", PositionName(sh.From)),
		zap.String("to", PositionName(sh.To)),
		zap.Float64("cam_deg", sh.CamTargetDegrees),
		zap.Float64("ratio", sh.Ratio),
		zap.Float64("output_rpm", sh.OutputRPM),
		zap.String("movement", sh.Description))
	return sh, nil
}

func (m *Machine) shift() Shift {
	if m.recolor != nil && m.pair >= 0 {
		for s := 0; s < 2; s++ {
			m.recolor.SetTopTeethAppearance(s, m.pair, m.layout.Kinds[s][m.pair].Appearance())
		}
	}
	m.pair = activePair(m.position)
	if m.recolor != nil && m.pair >= 0 {
		for s := 0; s < 2; s++ {
			m.recolor.SetTopTeethAppearance(s, m.pair, geometry.DarkRed)
		}
	}

	m.camFrom = m.camTo
	m.camTo = m.camTarget()
	m.tl.Cam.SetDuration(m.camDuration)
	m.tl.Cam.SetStartTime(m.tl.Cam.Now().Add(camLeadIn))

	m.sliders = m.sliderTravel()
	m.updateSpeeds()

	return Shift{
		From:             m.previous,
		To:               m.position,
		CamStartDegrees:  m.camFrom,
		CamTargetDegrees: m.camTo,
		ActivePair:       m.pair,
		Sliders:          m.sliders,
		Ratio:            m.ratio(),
		OutputRPM:        m.outputRPM,
		GearRPM:          m.gearRPM,
		Description:      Describe(m.previous, m.position),
	}
}

func activePair(position int) int {
	switch position {
	case First:
		return 0
	case Neutral:
		return -1
	}
	return position - 1
}

func (m *Machine) camTarget() float64 {
	switch m.position {
	case First:
		return 0
	case Neutral:
		return 30
	}
	return float64(m.position-1) * 60
}

func (m *Machine) sliderTravel() [Sliders]SliderTravel {
	var t [Sliders]SliderTravel
	half := m.layout.GearThickness / 2
	for i := range t {
		t[i] = SliderTravel{
			Start: half * float64(m.layout.ShiftMatrix[m.previous][i]),
			End:   half * float64(m.layout.ShiftMatrix[m.position][i]),
		}
	}
	return t
}

func (m *Machine) ratio() float64 {
	if m.pair < 0 {
		return 0
	}
	return m.ratios[0][m.pair]
}

// updateSpeeds recomputes shaft and gear speeds and retimes every rotation
// timeline without a jump in phase.
func (m *Machine) updateSpeeds() {
	m.outputRPM = m.inputRPM * m.ratio()
	anim.Retime(m.tl.Input, m.period(m.inputRPM))
	anim.Retime(m.tl.Output, m.period(m.outputRPM))

	for s := 0; s < 2; s++ {
		shaftRPM := m.inputRPM
		if s == OutputShaft {
			shaftRPM = m.outputRPM
		}
		for g := 0; g < Gears; g++ {
			if m.layout.Kinds[s][g] != Spin {
				m.gearRPM[s][g] = shaftRPM
				continue
			}
			// A free gear is driven by its mate on the other shaft.
			var rpm float64
			if s == InputShaft {
				rpm = m.outputRPM * m.ratios[1][g]
			} else {
				rpm = m.inputRPM * m.ratios[0][g]
			}
			m.gearRPM[s][g] = rpm
			anim.Retime(m.tl.Gears[s][g], m.period(rpm))
		}
	}
	m.log.Debug("speeds",
		zap.Float64("input_rpm", m.inputRPM),
		zap.Float64("output_rpm", m.outputRPM),
		zap.Duration("input_period", m.inputPeriod))
}

// period converts a speed to the duration of one on-screen revolution.
// Zero speed freezes the timeline.
func (m *Machine) period(rpm float64) time.Duration {
	if rpm <= 0 || m.inputRPM <= 0 {
		return 0
	}
	return time.Duration(float64(m.inputPeriod) * m.inputRPM / rpm)
}

func validRPM(rpm float64) bool {
	return rpm >= 0 && !gomath.IsInf(rpm, 1)
}

// SetInputRPM changes the engine speed and retimes all rotating parts.
func (m *Machine) SetInputRPM(rpm float64) error {
	if !validRPM(rpm) {
		return fmt.Errorf("transmission: input rpm %g must be finite and not negative", rpm)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputRPM = rpm
	m.updateSpeeds()
	return nil
}

// SetInputPeriod changes how long one input revolution takes on screen.
func (m *Machine) SetInputPeriod(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("transmission: input period %v must be positive", d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputPeriod = d
	m.updateSpeeds()
	return nil
}

// Pause stops every rotating part. The shift cam keeps running.
func (m *Machine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paused {
		return
	}
	m.paused = true
	for _, tl := range m.rotations() {
		tl.Pause()
	}
}

// Resume restarts the rotating parts where they stopped.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused {
		return
	}
	m.paused = false
	for _, tl := range m.rotations() {
		tl.Resume()
	}
}

// Paused reports whether rotation is paused.
func (m *Machine) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Machine) rotations() []anim.Timeline {
	tls := []anim.Timeline{m.tl.Input, m.tl.Output}
	for s := 0; s < 2; s++ {
		for g := 0; g < Gears; g++ {
			if tl := m.tl.Gears[s][g]; tl != nil && m.layout.Kinds[s][g] == Spin {
				tls = append(tls, tl)
			}
		}
	}
	return tls
}

// Position returns the current selector position.
func (m *Machine) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// CamSweep returns the cam rotation endpoints of the current shift in
// radians, including the detent phase.
func (m *Machine) CamSweep() (from, to float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return math.Radians(m.camFrom + camPhaseDegrees), math.Radians(m.camTo + camPhaseDegrees)
}

// Sliders returns the travel of each sliding member for the current shift.
func (m *Machine) Sliders() [Sliders]SliderTravel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sliders
}

// GearRPM returns the speed of every gear.
func (m *Machine) GearRPM() [2][Gears]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gearRPM
}

// Layout returns the layout the machine was built with.
func (m *Machine) Layout() Layout {
	return m.layout
}

// State returns a snapshot. CamAngleDegrees is interpolated along the
// current sweep.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.tl.Cam.Value()
	return State{
		Position:        m.position,
		Previous:        m.previous,
		CamAngleDegrees: m.camFrom + (m.camTo-m.camFrom)*p,
		ActivePair:      m.pair,
		Ratios:          m.ratios,
		InputRPM:        m.inputRPM,
		OutputRPM:       m.outputRPM,
	}
}
