package facemesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/nasalsym/spatialmath"
)

// Reorient swaps the scanner's Y and Z axes and negates the new Y, so that Y grows away from
// the most protruding point of the face.
func Reorient(mesh *spatialmath.Mesh) *spatialmath.Mesh {
	return mesh.Map(func(v r3.Vector) r3.Vector {
		return r3.Vector{X: v.X, Y: -v.Z, Z: v.Y}
	})
}

// Nosetip returns the first vertex holding the minimum Y value.
func Nosetip(mesh *spatialmath.Mesh) (r3.Vector, error) {
	if mesh.Len() == 0 {
		return r3.Vector{}, errors.Wrap(ErrEmptyRegion, "cannot locate nosetip of an empty mesh")
	}
	verts := mesh.Vertices()
	tip := verts[0]
	for _, v := range verts[1:] {
		if v.Y < tip.Y {
			tip = v
		}
	}
	return tip, nil
}

// Normalize reorients the mesh and translates it so the nosetip is the origin. It returns the
// new mesh together with the nosetip as it was before translation. The input is not modified.
func Normalize(mesh *spatialmath.Mesh) (*spatialmath.Mesh, r3.Vector, error) {
	reoriented := Reorient(mesh)
	tip, err := Nosetip(reoriented)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	return reoriented.Map(func(v r3.Vector) r3.Vector { return v.Sub(tip) }), tip, nil
}
