// Package geometry builds the triangle meshes of transmission parts: disks,
// shaft skins, gears, the index star cam and shift forks.
//
// Builders are pure. They validate their spec, derive every vertex and
// normal in float64 and emit float32 vertex buffers ready for upload.
package geometry

import (
	"fmt"

	"github.com/Faultbox/gearbox/pkg/math"
)

// Topology tells the renderer how consecutive vertices form triangles.
type Topology int

const (
	// TriangleFan: first vertex of each strip is the hub.
	TriangleFan Topology = iota
	// TriangleStrip: every vertex after the second closes a triangle,
	// alternating winding.
	TriangleStrip
	// Quads: independent groups of four, split along the 0-2 diagonal.
	Quads
)

func (t Topology) String() string {
	switch t {
	case TriangleFan:
		return "fan"
	case TriangleStrip:
		return "strip"
	case Quads:
		return "quads"
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh is one renderable surface of a part.
type Mesh struct {
	Name       string
	Topology   Topology
	Vertices   []Vertex
	Strips     []int // vertex count per fan or strip; nil for Quads
	Appearance Appearance
	Bounds     Bounds
}

// Indices expands the topology into a triangle list with the declared
// winding preserved.
func (m *Mesh) Indices() []uint32 {
	var indices []uint32
	switch m.Topology {
	case TriangleFan:
		base := uint32(0)
		for _, count := range m.Strips {
			for k := 1; k+1 < count; k++ {
				indices = append(indices, base, base+uint32(k), base+uint32(k+1))
			}
			base += uint32(count)
		}
	case TriangleStrip:
		base := uint32(0)
		for _, count := range m.Strips {
			for k := 0; k+2 < count; k++ {
				i := base + uint32(k)
				if k%2 == 0 {
					indices = append(indices, i, i+1, i+2)
				} else {
					indices = append(indices, i+1, i, i+2)
				}
			}
			base += uint32(count)
		}
	case Quads:
		for i := uint32(0); i+3 < uint32(len(m.Vertices)); i += 4 {
			indices = append(indices, i, i+1, i+2, i, i+2, i+3)
		}
	}
	return indices
}

// TriangleCount returns the number of triangles Indices would produce.
func (m *Mesh) TriangleCount() int {
	switch m.Topology {
	case TriangleFan, TriangleStrip:
		n := 0
		for _, count := range m.Strips {
			if count > 2 {
				n += count - 2
			}
		}
		return n
	case Quads:
		return len(m.Vertices) / 4 * 2
	}
	return 0
}

// Transformed returns a copy of the mesh with every vertex moved by t.
// Normals follow the rotation part of t.
func (m *Mesh) Transformed(t math.Mat4) *Mesh {
	out := &Mesh{
		Name:       m.Name,
		Topology:   m.Topology,
		Vertices:   make([]Vertex, len(m.Vertices)),
		Appearance: m.Appearance,
		Bounds:     emptyBounds(),
	}
	if m.Strips != nil {
		out.Strips = append([]int(nil), m.Strips...)
	}
	for i, v := range m.Vertices {
		p := t.TransformPoint(vec(v.Position)).Array()
		n := t.TransformDirection(vec(v.Normal)).Normalize().Array()
		out.Vertices[i] = Vertex{Position: p, Normal: n, TexCoord: v.TexCoord}
		updateBounds(&out.Bounds, p)
	}
	return out
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: float64(a[0]), Y: float64(a[1]), Z: float64(a[2])}
}

func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// meshBuilder accumulates vertices and bounds for a single mesh.
type meshBuilder struct {
	mesh *Mesh
}

func newMesh(name string, topo Topology, look Appearance, capacity int) *meshBuilder {
	return &meshBuilder{mesh: &Mesh{
		Name:       name,
		Topology:   topo,
		Vertices:   make([]Vertex, 0, capacity),
		Appearance: look,
		Bounds:     emptyBounds(),
	}}
}

func (b *meshBuilder) add(p, n math.Vec3) {
	b.addUV(p, n, 0, 0)
}

func (b *meshBuilder) addUV(p, n math.Vec3, u, v float64) {
	pos := p.Array()
	b.mesh.Vertices = append(b.mesh.Vertices, Vertex{
		Position: pos,
		Normal:   n.Array(),
		TexCoord: [2]float32{float32(u), float32(v)},
	})
	updateBounds(&b.mesh.Bounds, pos)
}

// quad appends four corners sharing one normal.
func (b *meshBuilder) quad(n math.Vec3, corners ...math.Vec3) {
	for _, c := range corners {
		b.add(c, n)
	}
}

// strip closes the current fan or strip after count vertices.
func (b *meshBuilder) strip(count int) {
	b.mesh.Strips = append(b.mesh.Strips, count)
}

func (b *meshBuilder) done() *Mesh {
	return b.mesh
}
