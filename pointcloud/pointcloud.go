// Package pointcloud defines the ordered point cloud the registration engine works on and
// provides rigid ICP registration between two clouds.
//
// Unlike a spatially keyed cloud, the order of points is preserved through every operation so
// that a cloud flattened from a triangle soup can be reshaped back into its triangles.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/nasalsym/spatialmath"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns bounds that any merged point will replace.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge widens the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// PointCloud is an ordered, immutable sequence of points.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns the bounds of the cloud.
	MetaData() MetaData

	// At returns the i-th point.
	At(i int) r3.Vector

	// Points returns a copy of the points in order.
	Points() []r3.Vector

	// Iterate calls fn for each point in order until fn returns false.
	Iterate(fn func(i int, p r3.Vector) bool)
}

type basicPointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty PointCloud.
func New() PointCloud {
	return NewFromPoints(nil)
}

// NewFromPoints returns a PointCloud holding a copy of pts in the same order.
func NewFromPoints(pts []r3.Vector) PointCloud {
	cloud := &basicPointCloud{
		points: make([]r3.Vector, len(pts)),
		meta:   NewMetaData(),
	}
	copy(cloud.points, pts)
	for _, p := range cloud.points {
		cloud.meta.Merge(p)
	}
	return cloud
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *basicPointCloud) At(i int) r3.Vector {
	return cloud.points[i]
}

func (cloud *basicPointCloud) Points() []r3.Vector {
	out := make([]r3.Vector, len(cloud.points))
	copy(out, cloud.points)
	return out
}

func (cloud *basicPointCloud) Iterate(fn func(i int, p r3.Vector) bool) {
	for i, p := range cloud.points {
		if !fn(i, p) {
			return
		}
	}
}

// Transform returns a new cloud with the pose applied to every point, preserving order.
func Transform(cloud PointCloud, pose spatialmath.Pose) PointCloud {
	out := make([]r3.Vector, 0, cloud.Size())
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		out = append(out, pose.TransformPoint(p))
		return true
	})
	return NewFromPoints(out)
}

// CloudCentroid returns the mean of all points, or the zero vector for an empty cloud.
func CloudCentroid(cloud PointCloud) r3.Vector {
	if cloud.Size() == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		sum = sum.Add(p)
		return true
	})
	return sum.Mul(1 / float64(cloud.Size()))
}
