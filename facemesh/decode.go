// Package facemesh loads facial surface scans and prepares them for registration: it decodes
// STL data, normalizes the scan around its nosetip, crops it to regions of interest and rebuilds
// indexed meshes from registered point clouds.
package facemesh

import (
	"bytes"
	"os"

	"github.com/golang/geo/r3"
	"github.com/hschendel/stl"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/nasalsym/spatialmath"
)

// Decode parses binary or ASCII STL bytes into a triangle soup.
func Decode(data []byte) (*spatialmath.Mesh, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrFileFormat, "no data")
	}
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, multierr.Combine(ErrFileFormat, err)
	}
	if len(solid.Triangles) == 0 {
		return nil, errors.Wrap(ErrFileFormat, "solid has no triangles")
	}

	tris := make([]*spatialmath.Triangle, 0, len(solid.Triangles))
	for _, t := range solid.Triangles {
		tris = append(tris, spatialmath.NewTriangle(vec(t.Vertices[0]), vec(t.Vertices[1]), vec(t.Vertices[2])))
	}
	return spatialmath.NewMesh(tris), nil
}

// DecodeFile reads and decodes an STL file.
func DecodeFile(path string) (*spatialmath.Mesh, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mesh %q", path)
	}
	mesh, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding mesh %q", path)
	}
	return mesh, nil
}

func vec(v stl.Vec3) r3.Vector {
	return r3.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
