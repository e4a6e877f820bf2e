package pointcloud

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree answers nearest neighbour queries over a fixed cloud.
type KDTree struct {
	tree *kdtree.Tree
	size int
}

// ToKDTree builds a KD-tree over the points of the cloud.
func ToKDTree(cloud PointCloud) *KDTree {
	pts := make(kdtree.Points, 0, cloud.Size())
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		pts = append(pts, kdtree.Point{p.X, p.Y, p.Z})
		return true
	})
	if len(pts) == 0 {
		return &KDTree{}
	}
	return &KDTree{tree: kdtree.New(pts, false), size: len(pts)}
}

// Size returns the number of points in the tree.
func (kd *KDTree) Size() int {
	return kd.size
}

// NearestNeighbor returns the closest point to p and the distance to it. The bool is false
// when the tree is empty.
func (kd *KDTree) NearestNeighbor(p r3.Vector) (r3.Vector, float64, bool) {
	if kd.tree == nil {
		return r3.Vector{}, 0, false
	}
	got, _ := kd.tree.Nearest(kdtree.Point{p.X, p.Y, p.Z})
	if got == nil {
		return r3.Vector{}, 0, false
	}
	kp := got.(kdtree.Point)
	nearest := r3.Vector{X: kp[0], Y: kp[1], Z: kp[2]}
	return nearest, nearest.Sub(p).Norm(), true
}
