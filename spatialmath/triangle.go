package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// floatEpsilon is the distance under which a vertex is considered to lie on a plane.
const floatEpsilon = 1e-8

// Triangle is three ordered points in space. It is the unit every mesh crop keeps or drops whole.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle from three points, caching its unit normal.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// PlaneNormal returns the unit normal of the plane through the three points, following the
// right hand rule. Collinear points yield the zero vector.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if norm := n.Norm(); norm > 0 {
		return n.Mul(1 / norm)
	}
	return r3.Vector{}
}

// Points returns the three vertices in order.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal, or the zero vector for a degenerate triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the surface area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Centroid returns the mean of the three vertices.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3.)
}

// Map returns a new triangle built from fn applied to each vertex. The receiver is not modified.
func (t *Triangle) Map(fn func(r3.Vector) r3.Vector) *Triangle {
	return NewTriangle(fn(t.p0), fn(t.p1), fn(t.p2))
}

// Transform returns the triangle moved by the given pose.
func (t *Triangle) Transform(pose Pose) *Triangle {
	return t.Map(pose.TransformPoint)
}

// IsFinite reports whether every coordinate of every vertex is a finite number.
func (t *Triangle) IsFinite() bool {
	for _, p := range t.Points() {
		for _, c := range []float64{p.X, p.Y, p.Z} {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}

// Plane is an infinite plane given by a point on it and its normal.
type Plane struct {
	Point  r3.Vector
	Normal r3.Vector
}

// SignedDistance returns the distance of pt from the plane, positive on the side the normal points to.
// The normal is expected to be of unit length.
func (p Plane) SignedDistance(pt r3.Vector) float64 {
	return p.Normal.Dot(pt.Sub(p.Point))
}

// IntersectsPlane determines if the triangle intersects with or lies on the plane.
func (t *Triangle) IntersectsPlane(plane Plane) bool {
	d0 := plane.SignedDistance(t.p0)
	d1 := plane.SignedDistance(t.p1)
	d2 := plane.SignedDistance(t.p2)

	// all vertices strictly on one side
	if (d0 > floatEpsilon && d1 > floatEpsilon && d2 > floatEpsilon) ||
		(d0 < -floatEpsilon && d1 < -floatEpsilon && d2 < -floatEpsilon) {
		return false
	}
	return true
}

// Segment is a straight line piece between two points.
type Segment struct {
	Start r3.Vector
	End   r3.Vector
}

// SectionWithPlane returns the segment where the triangle meets the plane and whether they meet.
// A triangle that only touches the plane at a vertex yields a zero length segment. A triangle
// lying in the plane yields its longest edge.
func (t *Triangle) SectionWithPlane(plane Plane) (Segment, bool) {
	if !t.IntersectsPlane(plane) {
		return Segment{}, false
	}

	pts := [3]r3.Vector{t.p0, t.p1, t.p2}
	dists := [3]float64{
		plane.SignedDistance(t.p0),
		plane.SignedDistance(t.p1),
		plane.SignedDistance(t.p2),
	}

	if math.Abs(dists[0]) < floatEpsilon && math.Abs(dists[1]) < floatEpsilon && math.Abs(dists[2]) < floatEpsilon {
		return t.longestEdge(), true
	}

	crossings := make([]r3.Vector, 0, 3)
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		switch {
		case math.Abs(dists[i]) < floatEpsilon:
			crossings = append(crossings, pts[i])
		case math.Abs(dists[j]) >= floatEpsilon && dists[i]*dists[j] < 0:
			frac := dists[i] / (dists[i] - dists[j])
			crossings = append(crossings, pts[i].Add(pts[j].Sub(pts[i]).Mul(frac)))
		}
	}

	switch len(crossings) {
	case 0:
		return Segment{}, false
	case 1:
		return Segment{crossings[0], crossings[0]}, true
	default:
		return Segment{crossings[0], crossings[1]}, true
	}
}

func (t *Triangle) longestEdge() Segment {
	e0 := t.p1.Sub(t.p0).Norm2()
	e1 := t.p2.Sub(t.p1).Norm2()
	e2 := t.p0.Sub(t.p2).Norm2()
	switch {
	case e0 >= e1 && e0 >= e2:
		return Segment{t.p0, t.p1}
	case e1 >= e0 && e1 >= e2:
		return Segment{t.p1, t.p2}
	default:
		return Segment{t.p2, t.p0}
	}
}
