package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/nasalsym/spatialmath"
)

// FromMesh flattens a triangle soup into a cloud of three points per triangle, in order.
func FromMesh(mesh *spatialmath.Mesh) PointCloud {
	return NewFromPoints(mesh.Vertices())
}

// ToTriangles regroups consecutive triples of points back into triangles.
func ToTriangles(cloud PointCloud) ([][3]r3.Vector, error) {
	if cloud.Size()%3 != 0 {
		return nil, errors.Errorf("cannot group %d points into triangles", cloud.Size())
	}
	out := make([][3]r3.Vector, 0, cloud.Size()/3)
	for i := 0; i < cloud.Size(); i += 3 {
		out = append(out, [3]r3.Vector{cloud.At(i), cloud.At(i + 1), cloud.At(i + 2)})
	}
	return out, nil
}
