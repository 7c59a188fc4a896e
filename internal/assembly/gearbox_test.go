package assembly

import (
	gomath "math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gearbox/internal/anim"
	"github.com/Faultbox/gearbox/internal/geometry"
	"github.com/Faultbox/gearbox/internal/transmission"
	"github.com/Faultbox/gearbox/pkg/math"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func build(t *testing.T) (*Gearbox, *anim.ManualClock) {
	t.Helper()
	clock := anim.NewManualClock(epoch)
	gb, err := Build(transmission.Default(), WithClock(clock))
	require.NoError(t, err)
	return gb, clock
}

func poseOf(t *testing.T, gb *Gearbox, name string) PartPose {
	t.Helper()
	for _, p := range gb.Poses() {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no pose for %s", name)
	return PartPose{}
}

func assertVec(t *testing.T, want, got math.Vec3, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, 0, got.Sub(want).Length(), 1e-9, msgAndArgs...)
}

func TestBuildParts(t *testing.T) {
	gb, _ := build(t)
	parts := gb.Parts()

	// 5 shafts, star cam, follower, 12 gears, sleeve, 3 forks.
	require.Len(t, parts, 23)

	counts := map[PartKind]int{}
	seen := map[uuid.UUID]bool{}
	for _, p := range parts {
		counts[p.Kind]++
		assert.False(t, seen[p.ID], "duplicate handle for %s", p.Name)
		seen[p.ID] = true
		assert.Equal(t, HandleFor(p.Name), p.ID)
		assert.NotEmpty(t, p.Meshes, p.Name)
		for _, m := range p.Meshes {
			assert.Positive(t, m.TriangleCount(), "%s/%s", p.Name, m.Name)
		}
	}
	assert.Equal(t, map[PartKind]int{
		KindShaft: 5, KindStarCam: 1, KindFollower: 1, KindGear: 12, KindSleeve: 1, KindFork: 3,
	}, counts)

	sleeve, ok := gb.Part("sleeve.0.2-3")
	require.True(t, ok)
	assert.Equal(t, "gear.0.3", sleeve.Parent().Name)
	assert.Equal(t, "gear.0.2", sleeve.Parent().Parent().Name)
	assert.Equal(t, "shaft.input", sleeve.Parent().Parent().Parent().Name)

	_, ok = gb.Part("gear.9.9")
	assert.False(t, ok)
}

func TestHandlesAreStable(t *testing.T) {
	a, _ := build(t)
	b, _ := build(t)
	pa, pb := a.Parts(), b.Parts()
	require.Equal(t, len(pa), len(pb))
	for i := range pa {
		assert.Equal(t, pa[i].ID, pb[i].ID, pa[i].Name)
	}
	assert.Equal(t, uuid.Version(5), HandleFor("gear.0.0").Version())
}

func TestRestPoses(t *testing.T) {
	gb, _ := build(t)
	l := gb.Layout
	p := l.Placements()

	for i, name := range shaftNames {
		assertVec(t, p[i], poseOf(t, gb, name).Pose.Position, name)
	}
	assertVec(t, math.V3(-0.5, 0, 0.25), poseOf(t, gb, "gear.0.2").Pose.Position)
	assertVec(t, math.V3(-0.5, 0, -0.25), poseOf(t, gb, "gear.0.3").Pose.Position)
	assertVec(t, math.V3(-0.5, 0, 0), poseOf(t, gb, "sleeve.0.2-3").Pose.Position)
	assertVec(t, math.V3(0.5, 0, -1.25), poseOf(t, gb, "gear.1.0").Pose.Position)

	assertVec(t, math.V3(-0.5, 0, 0), poseOf(t, gb, "fork.0").Pose.Position)
	assertVec(t, math.V3(0.5, 0, -0.55), poseOf(t, gb, "fork.1").Pose.Position)
	assertVec(t, math.V3(0.5, 0, 0.95), poseOf(t, gb, "fork.2").Pose.Position)

	follower := poseOf(t, gb, followerName).Pose.Position
	assert.InDelta(t, (l.ShaftLength+l.IndexCamWidth)/2, follower.Z, 1e-12)
	assertVec(t, gb.Follower.Position(), follower)
}

func TestShiftMovesParts(t *testing.T) {
	gb, clock := build(t)

	_, err := gb.Machine.Upshift()
	require.NoError(t, err)
	assert.Equal(t, geometry.DarkRed, gb.TopTeeth(0, 1).Appearance)
	assert.Equal(t, geometry.DarkRed, gb.TopTeeth(1, 1).Appearance)

	clock.Advance(transmission.DefaultCamDuration + 50*time.Millisecond)

	// Position 2 pushes slider 2 forward by half a gear thickness.
	assertVec(t, math.V3(0.5, 0, 1.1), poseOf(t, gb, "fork.2").Pose.Position)
	assert.InDelta(t, 0.9, poseOf(t, gb, "gear.1.5").Pose.Position.Z, 1e-9)

	// The cam sits at 60 degrees plus the detent phase.
	cam := poseOf(t, gb, "shaft.cam")
	x := cam.Transform.TransformDirection(math.V3(1, 0, 0))
	angle := math.Radians(105)
	assertVec(t, math.V3(gomath.Cos(angle), gomath.Sin(angle), 0), x)
	assert.Equal(t, cam.Transform, poseOf(t, gb, starCamName).Transform)

	_, err = gb.Machine.Upshift()
	require.NoError(t, err)
	assert.Equal(t, geometry.Yellow, gb.TopTeeth(0, 1).Appearance)
	assert.Equal(t, geometry.MetalSilver, gb.TopTeeth(1, 1).Appearance)
	assert.Equal(t, geometry.DarkRed, gb.TopTeeth(0, 2).Appearance)
}

func TestSpinningGearPose(t *testing.T) {
	gb, clock := build(t)
	alpha := gb.Timelines.Gears[1][0]
	require.NotNil(t, alpha)

	clock.Advance(alpha.Duration() / 4)
	pose := poseOf(t, gb, "gear.1.0")
	x := pose.Transform.TransformDirection(math.V3(1, 0, 0))

	// 32 teeth: half-pitch offset, then a quarter turn counterclockwise.
	want := gomath.Pi/2 - gomath.Pi/32
	assert.InDelta(t, want, gomath.Atan2(x.Y, x.X), 1e-6)
	assertVec(t, pose.Transform.Translation(), pose.Pose.Position)
}

func TestPosesWhileShifting(t *testing.T) {
	gb, clock := build(t)
	gear, ok := gb.Part("gear.0.1")
	require.True(t, ok)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, p := range gb.Poses() {
					if gomath.IsNaN(p.Pose.Position.Z) {
						t.Errorf("%s has NaN position", p.Name)
						return
					}
				}
				gb.Meshes(gear)
			}
		}()
	}

	for i := 0; i < 3; i++ {
		_, err := gb.Machine.Upshift()
		require.NoError(t, err)
		for j := 0; j < 20; j++ {
			clock.Advance(transmission.DefaultCamDuration / 10)
		}
		require.NoError(t, gb.Machine.SetInputRPM(float64(2000+1000*i)))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 4, gb.Machine.Position())
	assert.Len(t, gb.Poses(), 23)
}

func TestMeshesCopyAppearance(t *testing.T) {
	gb, clock := build(t)
	gear, ok := gb.Part("gear.0.1")
	require.True(t, ok)
	before := gb.Meshes(gear)

	_, err := gb.Machine.Upshift()
	require.NoError(t, err)
	clock.Advance(transmission.DefaultCamDuration + 50*time.Millisecond)

	after := gb.Meshes(gear)
	require.Len(t, after, len(gear.Meshes))
	var top int
	for i, m := range gear.Meshes {
		if m == gb.TopTeeth(0, 1) {
			top = i
		}
		assert.NotSame(t, m, after[i])
	}
	assert.Equal(t, geometry.DarkRed, after[top].Appearance)
	assert.NotEqual(t, geometry.DarkRed, before[top].Appearance)
}

func TestBuildRejectsInvalidLayout(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*transmission.Layout)
	}{
		{"zero offset", func(l *transmission.Layout) { l.ShaftOffset = 0 }},
		{"NaN addendum", func(l *transmission.Layout) { l.Addendum = gomath.NaN() }},
		{"infinite fork thickness", func(l *transmission.Layout) { l.ForkThickness = gomath.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := transmission.Default()
			tt.mutate(&l)
			_, err := Build(l)
			assert.Error(t, err)
		})
	}
}
