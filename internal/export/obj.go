// Package export writes posed gearbox meshes as Wavefront OBJ.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/gearbox/internal/geometry"
	"github.com/Faultbox/gearbox/pkg/math"
)

// Posed is a group of meshes sharing one world transform.
type Posed struct {
	Name      string
	Transform math.Mat4
	Meshes    []*geometry.Mesh
}

// Options controls OBJ output.
type Options struct {
	// MaterialLib, when set, adds an mtllib line and a usemtl line per mesh.
	MaterialLib string
}

// Stats counts what WriteOBJ wrote.
type Stats struct {
	Objects   int
	Vertices  int
	Triangles int
}

// WriteOBJ writes every mesh as an "o" object with positions, normals and
// triangle faces in "f v//n" form. Indices are global and 1-based.
func WriteOBJ(w io.Writer, parts []Posed, opts Options) (Stats, error) {
	bw := bufio.NewWriter(w)
	var st Stats

	fmt.Fprintln(bw, "# gearbox")
	if opts.MaterialLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", opts.MaterialLib)
	}
	for _, part := range parts {
		for _, mesh := range part.Meshes {
			m := mesh.Transformed(part.Transform)
			fmt.Fprintf(bw, "o %s/%s\n", part.Name, m.Name)
			if opts.MaterialLib != "" {
				fmt.Fprintf(bw, "usemtl %s\n", m.Appearance)
			}
			for _, v := range m.Vertices {
				fmt.Fprintf(bw, "v %g %g %g\n", v.Position[0], v.Position[1], v.Position[2])
			}
			for _, v := range m.Vertices {
				fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal[0], v.Normal[1], v.Normal[2])
			}
			idx := m.Indices()
			base := st.Vertices + 1
			for i := 0; i+2 < len(idx); i += 3 {
				a, b, c := base+int(idx[i]), base+int(idx[i+1]), base+int(idx[i+2])
				fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
			}
			st.Objects++
			st.Vertices += len(m.Vertices)
			st.Triangles += len(idx) / 3
		}
	}
	if err := bw.Flush(); err != nil {
		return st, fmt.Errorf("write obj: %w", err)
	}
	return st, nil
}

// WriteMTL writes one material per appearance tag.
func WriteMTL(w io.Writer, looks []geometry.Appearance) error {
	bw := bufio.NewWriter(w)
	for _, a := range looks {
		mat := a.Material()
		fmt.Fprintf(bw, "newmtl %s\n", a)
		fmt.Fprintf(bw, "Kd %g %g %g\n", mat.Diffuse[0], mat.Diffuse[1], mat.Diffuse[2])
		fmt.Fprintf(bw, "Ns %g\n\n", mat.Shininess)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write mtl: %w", err)
	}
	return nil
}
