package facemesh

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/nasalsym/spatialmath"
)

// MakeTestFace returns a synthetic face scan in scanner coordinates: a shallow bowl with a nose
// shaped ridge whose tip lies at offset, plus a flat back plate standing in for the rest of the
// head. lean moves the ridge sideways by lean units of X per unit of height, so a non-zero lean
// gives an asymmetric dorsum.
func MakeTestFace(offset r3.Vector, lean float64) *spatialmath.Mesh {
	const (
		step  = 4.
		halfX = 72.
		halfZ = 100.
		depth = 25.
		back  = 100.
	)
	surface := func(x, z float64) float64 {
		dx := x - lean*z
		return 0.002*(x*x+z*z) - depth*math.Exp(-dx*dx/72)*math.Exp(-z*z/3000)
	}
	// normalized frame (x, y, z) maps back to scanner frame (x, z, -y)
	raw := func(x, y, z float64) r3.Vector {
		return r3.Vector{X: x, Y: z, Z: -y}.Add(offset)
	}

	var tris []*spatialmath.Triangle
	for x := -halfX; x < halfX; x += step {
		for z := -halfZ; z < halfZ; z += step {
			p00 := raw(x, surface(x, z), z)
			p10 := raw(x+step, surface(x+step, z), z)
			p01 := raw(x, surface(x, z+step), z+step)
			p11 := raw(x+step, surface(x+step, z+step), z+step)
			tris = append(tris, spatialmath.NewTriangle(p00, p10, p11), spatialmath.NewTriangle(p00, p11, p01))
		}
	}
	b00 := raw(-halfX, back, -halfZ)
	b10 := raw(halfX, back, -halfZ)
	b01 := raw(-halfX, back, halfZ)
	b11 := raw(halfX, back, halfZ)
	tris = append(tris, spatialmath.NewTriangle(b00, b11, b10), spatialmath.NewTriangle(b00, b01, b11))
	return spatialmath.NewMesh(tris)
}

// EncodeBinarySTL writes the mesh as a binary STL document with zeroed normals.
func EncodeBinarySTL(mesh *spatialmath.Mesh) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	//nolint:gosec
	_ = binary.Write(&buf, binary.LittleEndian, uint32(mesh.Len()))
	for _, tri := range mesh.Triangles() {
		rec := make([]float32, 0, 12)
		rec = append(rec, 0, 0, 0)
		for _, p := range tri.Points() {
			rec = append(rec, float32(p.X), float32(p.Y), float32(p.Z))
		}
		_ = binary.Write(&buf, binary.LittleEndian, rec)
		_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}
