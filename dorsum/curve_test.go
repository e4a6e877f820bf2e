package dorsum

import (
	"testing"

	"go.viam.com/test"
)

func TestFitCurveThroughPoints(t *testing.T) {
	ridge := Ridge{
		{X: 0, Y: 1, Height: -2},
		{X: 0.5, Y: 0, Height: -1},
		{X: 0.2, Y: 0.5, Height: 1},
		{X: -0.3, Y: 2, Height: 4},
	}
	c, err := FitCurve(ridge, 4)
	test.That(t, err, test.ShouldBeNil)
	for _, p := range ridge {
		at := c.At(p.Height)
		test.That(t, at.X, test.ShouldAlmostEqual, p.X)
		test.That(t, at.Y, test.ShouldAlmostEqual, p.Y)
		test.That(t, at.Z, test.ShouldEqual, p.Height)
	}

	pts := c.Points()
	test.That(t, len(pts), test.ShouldEqual, 3*4+1)
	test.That(t, pts[0].Z, test.ShouldEqual, -2.)
	test.That(t, pts[len(pts)-1].Z, test.ShouldEqual, 4.)
	for i := 1; i < len(pts); i++ {
		test.That(t, pts[i].Z, test.ShouldBeGreaterThan, pts[i-1].Z)
	}

	first, last := c.Range()
	test.That(t, c.At(first-10), test.ShouldResemble, c.At(first))
	test.That(t, c.At(last+10), test.ShouldResemble, c.At(last))
}

func TestFitCurveFewPoints(t *testing.T) {
	c, err := FitCurve(Ridge{{X: 1, Y: 2, Height: 0}, {X: 3, Y: 4, Height: 2}}, 2)
	test.That(t, err, test.ShouldBeNil)
	mid := c.At(1)
	test.That(t, mid.X, test.ShouldAlmostEqual, 2)
	test.That(t, mid.Y, test.ShouldAlmostEqual, 3)

	c, err = FitCurve(Ridge{{X: 1, Y: 2, Height: 7}}, 10)
	test.That(t, err, test.ShouldBeNil)
	pts := c.Points()
	test.That(t, len(pts), test.ShouldEqual, 1)
	test.That(t, pts[0].X, test.ShouldEqual, 1.)
	test.That(t, pts[0].Z, test.ShouldEqual, 7.)
}

func TestFitCurveRejects(t *testing.T) {
	_, err := FitCurve(nil, 4)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FitCurve(Ridge{{Height: 1}, {Height: 1}, {Height: 2}}, 4)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FitCurve(Ridge{{Height: 1}}, 0)
	test.That(t, err, test.ShouldNotBeNil)
}
