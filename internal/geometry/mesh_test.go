package geometry

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/gearbox/pkg/math"
)

const normalTolerance = 1e-5

// checkNormals asserts every normal is unit length and every triangle winds
// toward the normal of its first vertex.
func checkNormals(t *testing.T, m *Mesh) {
	t.Helper()
	for i, v := range m.Vertices {
		if l := vec(v.Normal).Length(); gomath.Abs(l-1) > normalTolerance {
			t.Fatalf("%s: vertex %d normal length %v", m.Name, i, l)
		}
	}
	idx := m.Indices()
	for i := 0; i+2 < len(idx); i += 3 {
		a := vec(m.Vertices[idx[i]].Position)
		b := vec(m.Vertices[idx[i+1]].Position)
		c := vec(m.Vertices[idx[i+2]].Position)
		geo := b.Sub(a).Cross(c.Sub(a))
		if geo.Length() < 1e-9 {
			continue
		}
		if d := geo.Normalize().Dot(vec(m.Vertices[idx[i]].Normal)); d <= 0 {
			t.Fatalf("%s: triangle %d winds against its normal (dot %v)", m.Name, i/3, d)
		}
	}
}

func TestIndices(t *testing.T) {
	tests := []struct {
		name string
		mesh Mesh
		want []uint32
	}{
		{
			name: "fan",
			mesh: Mesh{Topology: TriangleFan, Vertices: make([]Vertex, 4), Strips: []int{4}},
			want: []uint32{0, 1, 2, 0, 2, 3},
		},
		{
			name: "strip parity",
			mesh: Mesh{Topology: TriangleStrip, Vertices: make([]Vertex, 5), Strips: []int{5}},
			want: []uint32{0, 1, 2, 2, 1, 3, 2, 3, 4},
		},
		{
			name: "two strips",
			mesh: Mesh{Topology: TriangleStrip, Vertices: make([]Vertex, 8), Strips: []int{4, 4}},
			want: []uint32{0, 1, 2, 2, 1, 3, 4, 5, 6, 6, 5, 7},
		},
		{
			name: "quads",
			mesh: Mesh{Topology: Quads, Vertices: make([]Vertex, 8)},
			want: []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.mesh.Indices()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Indices() mismatch (-want +got):\n%s", diff)
			}
			if n := tt.mesh.TriangleCount(); n != len(tt.want)/3 {
				t.Errorf("TriangleCount() = %d, want %d", n, len(tt.want)/3)
			}
		})
	}
}

func TestTransformed(t *testing.T) {
	disk, err := BuildDisk(DiskSpec{Z: 0.5, NormalSign: 1, Radius: 1, Segments: 8})
	if err != nil {
		t.Fatal(err)
	}
	moved := disk.Transformed(math.Chain(math.Translate(2, 0, 0), math.RotateY(gomath.Pi/2)))

	// +z rotated a quarter turn about y points along +x.
	n := vec(moved.Vertices[0].Normal)
	if n.Sub(math.V3(1, 0, 0)).Length() > normalTolerance {
		t.Errorf("hub normal = %v, want +x", n)
	}
	hub := vec(moved.Vertices[0].Position)
	if hub.Sub(math.V3(2.5, 0, 0)).Length() > normalTolerance {
		t.Errorf("hub position = %v, want (2.5, 0, 0)", hub)
	}
	if moved.Bounds.Min[0] < 2.5-normalTolerance || moved.Bounds.Max[0] > 2.5+normalTolerance {
		t.Errorf("bounds x = [%v, %v], want flat at 2.5", moved.Bounds.Min[0], moved.Bounds.Max[0])
	}
	if disk.Vertices[0].Position[0] != 0 {
		t.Error("Transformed modified the source mesh")
	}
	checkNormals(t, moved)
}

func TestFaceNormalDegenerate(t *testing.T) {
	_, err := faceNormal("test", math.V3(1, 0, 0), math.V3(2, 0, 0))
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("faceNormal(parallel) error = %v, want ErrDegenerateGeometry", err)
	}
	for _, a := range []math.Vec3{
		math.V3(gomath.NaN(), 0, 0),
		math.V3(gomath.Inf(1), 1, 0),
	} {
		if n, err := faceNormal("test", a, math.V3(0, 1, 1)); !errors.Is(err, ErrDegenerateGeometry) {
			t.Errorf("faceNormal(%v) = %v, %v, want ErrDegenerateGeometry", a, n, err)
		}
	}
	n, err := faceNormal("test", math.V3(2, 0, 0), math.V3(0, 3, 0))
	if err != nil {
		t.Fatal(err)
	}
	if n != math.V3(0, 0, 1) {
		t.Errorf("faceNormal = %v, want +z", n)
	}
}

func TestAppearanceText(t *testing.T) {
	for _, a := range Appearances() {
		text, err := a.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", a, err)
		}
		var back Appearance
		if err := back.UnmarshalText(text); err != nil || back != a {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, back, err, a)
		}
	}
	var a Appearance
	if err := a.UnmarshalText([]byte("chrome")); err == nil {
		t.Error("expected error for unknown appearance")
	}
}
