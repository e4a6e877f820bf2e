package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Mesh is an ordered triangle soup. Meshes are treated as values: every operation that changes
// geometry returns a new Mesh and leaves the receiver untouched.
type Mesh struct {
	triangles []*Triangle
}

// NewMesh creates a mesh over the given triangles.
func NewMesh(triangles []*Triangle) *Mesh {
	return &Mesh{triangles: triangles}
}

// Triangles returns the triangles of the mesh in order.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Len returns the number of triangles.
func (m *Mesh) Len() int {
	return len(m.triangles)
}

// Vertices returns every triangle vertex in order, three per triangle.
func (m *Mesh) Vertices() []r3.Vector {
	verts := make([]r3.Vector, 0, 3*len(m.triangles))
	for _, tri := range m.triangles {
		verts = append(verts, tri.Points()...)
	}
	return verts
}

// Bounds returns the per-axis minimum and maximum over all vertices. An empty mesh returns
// +Inf minimums and -Inf maximums.
func (m *Mesh) Bounds() (r3.Vector, r3.Vector) {
	lo := r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, tri := range m.triangles {
		for _, p := range tri.Points() {
			lo = r3.Vector{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
			hi = r3.Vector{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
		}
	}
	return lo, hi
}

// Map returns a new mesh with fn applied to every vertex.
func (m *Mesh) Map(fn func(r3.Vector) r3.Vector) *Mesh {
	out := make([]*Triangle, 0, len(m.triangles))
	for _, tri := range m.triangles {
		out = append(out, tri.Map(fn))
	}
	return NewMesh(out)
}

// Transform returns a new mesh moved by the given pose.
func (m *Mesh) Transform(pose Pose) *Mesh {
	return m.Map(pose.TransformPoint)
}

// Filter returns a new mesh holding the triangles for which keep returns true, in order.
func (m *Mesh) Filter(keep func(*Triangle) bool) *Mesh {
	out := make([]*Triangle, 0, len(m.triangles))
	for _, tri := range m.triangles {
		if keep(tri) {
			out = append(out, tri)
		}
	}
	return NewMesh(out)
}

// IndexedMesh is a vertex list plus faces indexing into it.
type IndexedMesh struct {
	vertices []r3.Vector
	faces    [][3]int
}

// NewIndexedMesh validates that every face index is within the vertex list.
func NewIndexedMesh(vertices []r3.Vector, faces [][3]int) (*IndexedMesh, error) {
	for i, face := range faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Errorf("face %d references vertex %d, mesh has %d vertices", i, idx, len(vertices))
			}
		}
	}
	return &IndexedMesh{vertices: vertices, faces: faces}, nil
}

// Vertices returns the vertex list.
func (m *IndexedMesh) Vertices() []r3.Vector {
	return m.vertices
}

// Faces returns the face index list.
func (m *IndexedMesh) Faces() [][3]int {
	return m.faces
}

// Triangles resolves every face into a triangle.
func (m *IndexedMesh) Triangles() []*Triangle {
	tris := make([]*Triangle, 0, len(m.faces))
	for _, f := range m.faces {
		tris = append(tris, NewTriangle(m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]))
	}
	return tris
}

// Soup returns the mesh as triangle soup.
func (m *IndexedMesh) Soup() *Mesh {
	return NewMesh(m.Triangles())
}
