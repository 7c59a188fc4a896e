package geometry

import (
	"errors"
	gomath "math"
	"testing"
)

func TestBuildDisk(t *testing.T) {
	tests := []struct {
		name  string
		spec  DiskSpec
		verts int
	}{
		{"full circle by default", DiskSpec{Z: 1, NormalSign: 1, Radius: 2, Segments: 12}, 14},
		{"facing back", DiskSpec{Z: -1, NormalSign: -1, Radius: 2, Segments: 12}, 14},
		{"quarter", DiskSpec{NormalSign: 1, Radius: 0.5, Segments: 15, Arc: gomath.Pi / 2, StartAngle: gomath.Pi}, 17},
		{"single segment", DiskSpec{NormalSign: -1, Radius: 1, Segments: 1, Arc: 1}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := BuildDisk(tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			if m.Topology != TriangleFan {
				t.Errorf("Topology = %v, want fan", m.Topology)
			}
			if len(m.Vertices) != tt.verts {
				t.Fatalf("vertices = %d, want %d", len(m.Vertices), tt.verts)
			}
			for i, v := range m.Vertices {
				if v.Normal != [3]float32{0, 0, float32(tt.spec.NormalSign)} {
					t.Fatalf("vertex %d normal = %v", i, v.Normal)
				}
				if v.Position[2] != float32(tt.spec.Z) {
					t.Fatalf("vertex %d z = %v, want %v", i, v.Position[2], tt.spec.Z)
				}
			}
			checkNormals(t, m)
		})
	}
}

func TestBuildDiskRimOrder(t *testing.T) {
	up, _ := BuildDisk(DiskSpec{NormalSign: 1, Radius: 1, Segments: 4, Arc: gomath.Pi})
	down, _ := BuildDisk(DiskSpec{NormalSign: -1, Radius: 1, Segments: 4, Arc: gomath.Pi})

	// The -z fan lists the same rim backwards.
	n := len(up.Vertices)
	for k := 1; k < n; k++ {
		a, b := up.Vertices[k].Position, down.Vertices[n-k].Position
		if a[0] != b[0] || a[1] != b[1] {
			t.Fatalf("rim %d: up %v, down %v", k, a, b)
		}
	}
	if up.Vertices[1].Position[0] != 1 {
		t.Errorf("first rim vertex of +z fan = %v, want angle 0", up.Vertices[1].Position)
	}
}

func TestBuildDiskInvalid(t *testing.T) {
	tests := []struct {
		name string
		spec DiskSpec
	}{
		{"zero radius", DiskSpec{NormalSign: 1, Radius: 0, Segments: 3}},
		{"negative radius", DiskSpec{NormalSign: 1, Radius: -1, Segments: 3}},
		{"no segments", DiskSpec{NormalSign: 1, Radius: 1, Segments: 0}},
		{"bad sign", DiskSpec{NormalSign: 0, Radius: 1, Segments: 3}},
		{"NaN radius", DiskSpec{NormalSign: 1, Radius: gomath.NaN(), Segments: 3}},
		{"infinite radius", DiskSpec{NormalSign: 1, Radius: gomath.Inf(1), Segments: 3}},
		{"NaN arc", DiskSpec{NormalSign: 1, Radius: 1, Segments: 3, Arc: gomath.NaN()}},
		{"infinite z", DiskSpec{NormalSign: 1, Radius: 1, Segments: 3, Z: gomath.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildDisk(tt.spec); !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("BuildDisk() error = %v, want ErrInvalidSpec", err)
			}
		})
	}
}

func TestBuildCylinderSkin(t *testing.T) {
	tests := []struct {
		name      string
		flip      bool
		firstZ    float32
		normalDir float32
	}{
		{"outward", false, 1, 1},
		{"inward", true, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := BuildCylinderSkin(CylinderSpec{Radius: 1, Length: 2, Segments: 8, FlipNormal: tt.flip})
			if err != nil {
				t.Fatal(err)
			}
			if len(m.Vertices) != 18 {
				t.Fatalf("vertices = %d, want 18", len(m.Vertices))
			}
			if z := m.Vertices[0].Position[2]; z != tt.firstZ {
				t.Errorf("first vertex z = %v, want %v", z, tt.firstZ)
			}
			if z := m.Vertices[1].Position[2]; z != -tt.firstZ {
				t.Errorf("second vertex z = %v, want %v", z, -tt.firstZ)
			}
			// Vertex 0 sits at angle 0, so its normal is +-x.
			if nx := m.Vertices[0].Normal[0]; nx != tt.normalDir {
				t.Errorf("normal x = %v, want %v", nx, tt.normalDir)
			}
			checkNormals(t, m)
		})
	}
}

func TestBuildCylinderSkinMapped(t *testing.T) {
	m, err := BuildCylinderSkin(CylinderSpec{Radius: 1, Length: 1, Segments: 4, Mapped: true})
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]float32{{0, 0}, {0, 1}, {0.25, 0}, {0.25, 1}, {0.5, 0}, {0.5, 1}, {0.75, 0}, {0.75, 1}, {1, 0}, {1, 1}}
	for i, uv := range want {
		if got := m.Vertices[i].TexCoord; gomath.Abs(float64(got[0]-uv[0])) > 1e-6 || got[1] != uv[1] {
			t.Errorf("vertex %d texcoord = %v, want %v", i, got, uv)
		}
	}
}

func quarterSections(a, b Appearance) []Section {
	q := gomath.Pi / 2
	return []Section{
		{Start: 0, End: q, Appearance: a, CapAppearance: a},
		{Start: q, End: 2 * q, Appearance: b, CapAppearance: b},
		{Start: 2 * q, End: 3 * q, Appearance: a, CapAppearance: a},
		{Start: 3 * q, End: 4 * q, Appearance: b, CapAppearance: b},
	}
}

func TestBuildShaftSectionsShareBoundaries(t *testing.T) {
	shaft, err := BuildShaft(ShaftSpec{
		Radius:     0.15,
		Length:     3.5,
		Segments:   60,
		StartAngle: 0.3,
		EndCapped:  true,
		Sections:   quarterSections(DarkGreen, OffWhite),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(shaft.Sections) != 4 {
		t.Fatalf("sections = %d, want 4", len(shaft.Sections))
	}
	if got := len(shaft.Meshes()); got != 12 {
		t.Errorf("Meshes() = %d, want 12", got)
	}

	for i, sec := range shaft.Sections {
		if n := len(sec.Skin.Vertices); n != 2*16 {
			t.Errorf("section %d skin has %d vertices, want 32", i, n)
		}
		if sec.Skin.Appearance != sec.Appearance || sec.FrontCap.Appearance != sec.CapAppearance {
			t.Errorf("section %d appearance not applied", i)
		}
		checkNormals(t, sec.Skin)
		checkNormals(t, sec.FrontCap)
		checkNormals(t, sec.RearCap)

		next := shaft.Sections[(i+1)%len(shaft.Sections)]
		last := sec.Skin.Vertices[len(sec.Skin.Vertices)-2:]
		if i+1 < len(shaft.Sections) {
			// Bit-identical seam with the following section.
			if last[0].Position != next.Skin.Vertices[0].Position || last[1].Position != next.Skin.Vertices[1].Position {
				t.Errorf("seam between sections %d and %d: %v vs %v", i, i+1, last[0].Position, next.Skin.Vertices[0].Position)
			}
		}
	}
}

func TestBuildShaftInvalid(t *testing.T) {
	q := gomath.Pi / 2
	base := ShaftSpec{Radius: 1, Length: 1, Segments: 8}
	tests := []struct {
		name   string
		mutate func(*ShaftSpec)
	}{
		{"zero radius", func(s *ShaftSpec) { s.Radius = 0 }},
		{"zero length", func(s *ShaftSpec) { s.Length = 0 }},
		{"two segments", func(s *ShaftSpec) { s.Segments = 2 }},
		{"arc too wide", func(s *ShaftSpec) { s.Arc = 7 }},
		{"negative arc", func(s *ShaftSpec) { s.Arc = -1 }},
		{"gap", func(s *ShaftSpec) {
			s.Arc = 2 * q
			s.Sections = []Section{{Start: 0, End: q}, {Start: q + 0.1, End: 2 * q}}
		}},
		{"overlap", func(s *ShaftSpec) {
			s.Arc = 2 * q
			s.Sections = []Section{{Start: 0, End: q + 0.1}, {Start: q, End: 2 * q}}
		}},
		{"reversed", func(s *ShaftSpec) {
			s.Arc = 2 * q
			s.Sections = []Section{{Start: 0, End: q}, {Start: 2 * q, End: q}}
		}},
		{"late start", func(s *ShaftSpec) {
			s.Arc = q
			s.Sections = []Section{{Start: 0.1, End: q}}
		}},
		{"short", func(s *ShaftSpec) {
			s.Arc = 2 * q
			s.Sections = []Section{{Start: 0, End: q}}
		}},
		{"empty", func(s *ShaftSpec) { s.Sections = []Section{} }},
		{"NaN length", func(s *ShaftSpec) { s.Length = gomath.NaN() }},
		{"NaN radius", func(s *ShaftSpec) { s.Radius = gomath.NaN() }},
		{"infinite radius", func(s *ShaftSpec) { s.Radius = gomath.Inf(1) }},
		{"NaN arc", func(s *ShaftSpec) { s.Arc = gomath.NaN() }},
		{"NaN start angle", func(s *ShaftSpec) { s.StartAngle = gomath.NaN() }},
		{"NaN section end", func(s *ShaftSpec) {
			s.Arc = 2 * q
			s.Sections = []Section{{Start: 0, End: q}, {Start: q, End: gomath.NaN()}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.mutate(&spec)
			if _, err := BuildShaft(spec); !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("BuildShaft() error = %v, want ErrInvalidSpec", err)
			}
		})
	}
}

func TestBuildShaftUncapped(t *testing.T) {
	shaft, err := BuildShaft(ShaftSpec{Radius: 1, Length: 1, Segments: 10, Arc: gomath.Pi, FlipNormal: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(shaft.Sections) != 1 || shaft.Sections[0].FrontCap != nil || shaft.Sections[0].RearCap != nil {
		t.Fatalf("unexpected sections %+v", shaft.Sections)
	}
	if n := len(shaft.Sections[0].Skin.Vertices); n != 22 {
		t.Errorf("skin vertices = %d, want 22", n)
	}
	checkNormals(t, shaft.Sections[0].Skin)
}
