package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/nasalsym/spatialmath"
)

func TestPointCloudBasic(t *testing.T) {
	pts := []r3.Vector{{1, 2, 3}, {-1, 0, 7}, {4, -5, 0}}
	pc := NewFromPoints(pts)
	pts[0] = r3.Vector{100, 100, 100}

	test.That(t, pc.Size(), test.ShouldEqual, 3)
	test.That(t, pc.At(0), test.ShouldResemble, r3.Vector{1, 2, 3})

	meta := pc.MetaData()
	test.That(t, meta.MinX, test.ShouldEqual, -1.)
	test.That(t, meta.MaxX, test.ShouldEqual, 4.)
	test.That(t, meta.MinY, test.ShouldEqual, -5.)
	test.That(t, meta.MaxZ, test.ShouldEqual, 7.)

	count := 0
	pc.Iterate(func(i int, p r3.Vector) bool {
		count++
		return i < 1
	})
	test.That(t, count, test.ShouldEqual, 2)

	test.That(t, New().Size(), test.ShouldEqual, 0)
	test.That(t, CloudCentroid(New()), test.ShouldResemble, r3.Vector{})
	centroid := CloudCentroid(pc)
	test.That(t, centroid.X, test.ShouldAlmostEqual, 4./3)
	test.That(t, centroid.Y, test.ShouldAlmostEqual, -1)
	test.That(t, centroid.Z, test.ShouldAlmostEqual, 10./3)
}

func TestMeshRoundTrip(t *testing.T) {
	mesh := spatialmath.NewMesh([]*spatialmath.Triangle{
		spatialmath.NewTriangle(r3.Vector{0, 0, 0}, r3.Vector{1, 0, 0}, r3.Vector{0, 1, 0}),
		spatialmath.NewTriangle(r3.Vector{0, 0, 0}, r3.Vector{1, 0, 0}, r3.Vector{0, 0, 1}),
	})
	cloud := FromMesh(mesh)
	test.That(t, cloud.Size(), test.ShouldEqual, 6)

	tris, err := ToTriangles(cloud)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(tris), test.ShouldEqual, 2)
	test.That(t, tris[1][2], test.ShouldResemble, r3.Vector{0, 0, 1})

	_, err = ToTriangles(NewFromPoints(cloud.Points()[:5]))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestKDTreeNearest(t *testing.T) {
	kd := ToKDTree(NewFromPoints([]r3.Vector{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}}))
	test.That(t, kd.Size(), test.ShouldEqual, 3)

	p, dist, ok := kd.NearestNeighbor(r3.Vector{9, 1, 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, r3.Vector{10, 0, 0})
	test.That(t, dist, test.ShouldAlmostEqual, 1.4142135623730951)

	_, _, ok = ToKDTree(New()).NearestNeighbor(r3.Vector{})
	test.That(t, ok, test.ShouldBeFalse)
}
