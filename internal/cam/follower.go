package cam

import (
	gomath "math"

	"github.com/Faultbox/gearbox/pkg/math"
)

// Follower mounting constants, in degrees.
const (
	MountAngleDegrees  = 195
	PhaseOffsetDegrees = 105
)

// Follower places the index cam follower for a given cam rotation.
//
// The follower rides at a fixed mounting angle around the cam shaft, so only
// its reach changes: the nominal radius minus the cam profile under it, plus
// a small lift while it climbs a ramp outside the neutral dwell.
type Follower struct {
	radius      float64
	axialY      float64
	axialZ      float64
	sin, cos    float64
	angleOffset float64

	lastAngle float64
	position  math.Vec3
}

// NewFollower creates a follower at the rest position (cam angle 0).
func NewFollower(radius, axialY, axialZ float64) *Follower {
	s, c := gomath.Sincos(math.Radians(MountAngleDegrees))
	f := &Follower{
		radius:      radius,
		axialY:      axialY,
		axialZ:      axialZ,
		sin:         s,
		cos:         c,
		angleOffset: math.Radians(PhaseOffsetDegrees),
	}
	f.position = f.place(0, 0)
	return f
}

// Update moves the follower for a cam sweeping from minAngle to maxAngle
// (radians) at the given progress. The bool is false when the cam angle did
// not change and the cached position was returned.
func (f *Follower) Update(minAngle, maxAngle, progress float64) (math.Vec3, bool) {
	angle := minAngle + (maxAngle-minAngle)*progress
	if angle == f.lastAngle {
		return f.position, false
	}
	f.lastAngle = angle
	f.position = f.place(angle, progress)
	return f.position, true
}

// Position returns the last computed position.
func (f *Follower) Position() math.Vec3 {
	return f.position
}

func (f *Follower) place(angle, progress float64) math.Vec3 {
	r := f.radius - Profile(angle+f.angleOffset)
	if deg := math.Degrees(angle); deg < 45 || deg > 105 {
		r += gomath.Abs(gomath.Sin(progress*gomath.Pi*2) * 0.025)
	}
	return math.V3(r*f.sin, f.axialY+r*f.cos, f.axialZ)
}
