package facemesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/nasalsym/pointcloud"
	"go.viam.com/nasalsym/spatialmath"
)

// Reconstruct rebuilds an indexed mesh from a cloud holding consecutive triangle triples. Every
// triangle gets three fresh vertices; coincident points are never welded, so the result always
// has exactly three vertices per face.
func Reconstruct(cloud pointcloud.PointCloud) (*spatialmath.IndexedMesh, error) {
	tris, err := pointcloud.ToTriangles(cloud)
	if err != nil {
		return nil, err
	}
	vertices := make([]r3.Vector, 0, 3*len(tris))
	faces := make([][3]int, 0, len(tris))
	for i, tri := range tris {
		vertices = append(vertices, tri[0], tri[1], tri[2])
		faces = append(faces, [3]int{3 * i, 3*i + 1, 3*i + 2})
	}
	mesh, err := spatialmath.NewIndexedMesh(vertices, faces)
	if err != nil {
		return nil, errors.Wrap(err, "rebuilding mesh")
	}
	return mesh, nil
}
