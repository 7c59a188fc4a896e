package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	if math.Abs(math.Sqrt(n.Dot(n))-1) > 1e-12 {
		t.Errorf("Normalized quaternion length should be 1, got %v", math.Sqrt(n.Dot(n)))
	}
}

func TestQuatToMat4(t *testing.T) {
	m := QuatIdentity().ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(m[i]-identity[i]) > 1e-12 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, math.Pi/2)

	if math.Abs(q.W-math.Cos(math.Pi/4)) > 1e-12 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", math.Cos(math.Pi/4), q.W)
	}
	if math.Abs(q.Y-math.Sin(math.Pi/4)) > 1e-12 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", math.Sin(math.Pi/4), q.Y)
	}
}

func TestQuatRotateMatchesMatrix(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 0, Z: 1}, 0.7).Mul(QuatFromAxisAngle(Vec3{X: 1, Y: 0, Z: 0}, -1.1))
	m := RotateZ(0.7).Mul(RotateX(-1.1))
	p := Vec3{0.3, -2, 5}

	got := q.Rotate(p)
	want := m.TransformPoint(p)
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("Rotate: got %v, want %v", got, want)
	}
	if q.ToMat4().TransformPoint(p).Sub(want).Length() > 1e-9 {
		t.Errorf("ToMat4 disagrees with composed rotation matrices")
	}
}

func TestPoseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"translation only", Translate(1, 2, 3)},
		{"rotate z", Translate(-0.5, 0, 1.25).Mul(RotateZ(2.9))},
		{"rotate y half turn", RotateY(math.Pi)},
		{"mixed", Chain(Translate(0, -1, 0.4), RotateY(math.Pi/2), RotateX(0.3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PoseOf(tt.m).Matrix()
			for i := 0; i < 16; i++ {
				if math.Abs(got[i]-tt.m[i]) > 1e-9 {
					t.Fatalf("element %d: got %v, want %v", i, got[i], tt.m[i])
				}
			}
		})
	}
}
