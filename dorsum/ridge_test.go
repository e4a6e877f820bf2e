package dorsum

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/nasalsym/spatialmath"
)

// troughMesh builds a soup over a grid in X and Z with depth y = |x - lean*z| + 5, so the lowest
// point of every horizontal section lies on the line x = lean*z.
func troughMesh(t *testing.T, zMin, zMax int, lean float64) *spatialmath.IndexedMesh {
	t.Helper()
	surface := func(x, z float64) r3.Vector {
		return r3.Vector{X: x, Y: math.Abs(x-lean*z) + 5, Z: z}
	}
	var verts []r3.Vector
	var faces [][3]int
	addTri := func(a, b, c r3.Vector) {
		n := len(verts)
		verts = append(verts, a, b, c)
		faces = append(faces, [3]int{n, n + 1, n + 2})
	}
	for x := -10; x < 10; x++ {
		for z := zMin; z < zMax; z++ {
			fx, fz := float64(x), float64(z)
			p00, p10 := surface(fx, fz), surface(fx+1, fz)
			p01, p11 := surface(fx, fz+1), surface(fx+1, fz+1)
			addTri(p00, p10, p11)
			addTri(p00, p11, p01)
		}
	}
	mesh, err := spatialmath.NewIndexedMesh(verts, faces)
	test.That(t, err, test.ShouldBeNil)
	return mesh
}

func TestExtractRidgeSymmetric(t *testing.T) {
	params := DefaultRidgeParams()
	ridge, err := ExtractRidge(troughMesh(t, -20, 30, 0), params)
	test.That(t, err, test.ShouldBeNil)

	// planes above the top of the mesh find nothing
	test.That(t, len(ridge), test.ShouldEqual, 46)
	test.That(t, len(ridge), test.ShouldBeLessThanOrEqualTo, params.Samples)

	requested := map[float64]bool{}
	for _, h := range params.Heights() {
		requested[h] = true
	}
	for i, p := range ridge {
		test.That(t, requested[p.Height], test.ShouldBeTrue)
		// a whole number of samples above the origin
		test.That(t, p.Height-params.Origin, test.ShouldEqual, math.Trunc(p.Height-params.Origin))
		if i > 0 {
			test.That(t, p.Height, test.ShouldBeGreaterThan, ridge[i-1].Height)
		}
		test.That(t, p.X, test.ShouldAlmostEqual, 0)
		test.That(t, p.Y, test.ShouldAlmostEqual, 5)
	}
	test.That(t, ridge[0].Height, test.ShouldEqual, -15.)
	test.That(t, ridge[len(ridge)-1].Height, test.ShouldEqual, 30.)
}

func TestExtractRidgeFollowsLean(t *testing.T) {
	// the trough shifts one unit of X every ten units of height
	ridge, err := ExtractRidge(troughMesh(t, -15, 41, 0.1), RidgeParams{Origin: -10, Samples: 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(ridge), test.ShouldEqual, 5)
	test.That(t, ridge[0].Height, test.ShouldEqual, -10.)
	test.That(t, ridge[0].X, test.ShouldAlmostEqual, -1)
	test.That(t, ridge[4].Height, test.ShouldEqual, -6.)
}

func TestExtractRidgeFailures(t *testing.T) {
	t.Run("non-finite", func(t *testing.T) {
		mesh, err := spatialmath.NewIndexedMesh(
			[]r3.Vector{{0, 0, 0}, {1, 0, 0}, {math.NaN(), 0, 1}},
			[][3]int{{0, 1, 2}},
		)
		test.That(t, err, test.ShouldBeNil)
		_, err = ExtractRidge(mesh, DefaultRidgeParams())
		test.That(t, errors.Is(err, ErrSection), test.ShouldBeTrue)
	})

	t.Run("no section", func(t *testing.T) {
		_, err := ExtractRidge(troughMesh(t, 100, 110, 0), DefaultRidgeParams())
		test.That(t, errors.Is(err, ErrSection), test.ShouldBeTrue)
	})

	t.Run("no samples", func(t *testing.T) {
		_, err := ExtractRidge(troughMesh(t, 0, 2, 0), RidgeParams{Origin: 0})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestSection(t *testing.T) {
	tris := []*spatialmath.Triangle{
		spatialmath.NewTriangle(r3.Vector{0, 0, 0}, r3.Vector{2, 0, 2}, r3.Vector{0, 2, 2}),
		spatialmath.NewTriangle(r3.Vector{0, 0, 5}, r3.Vector{2, 0, 5}, r3.Vector{0, 2, 6}),
	}
	pts := Section(tris, spatialmath.Plane{Point: r3.Vector{Z: 1}, Normal: r3.Vector{Z: 1}})
	test.That(t, pts, test.ShouldResemble, []r3.Vector{{1, 0, 1}, {0, 1, 1}})
}
