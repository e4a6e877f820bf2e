// Package snapshot renders a nasal mesh and its dorsum curve from a fixed sequence of viewpoints
// and writes the resulting image set.
package snapshot

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/nasalsym/spatialmath"
)

// Scene is a mesh plus a polyline drawn over it, seen under an orientation that accumulates
// every rotation applied to the scene.
type Scene struct {
	triangles   [][3]r3.Vector
	curve       []r3.Vector
	orientation mgl64.Mat4
}

// NewScene creates an unrotated scene.
func NewScene(mesh *spatialmath.IndexedMesh, curve []r3.Vector) *Scene {
	tris := lo.Map(mesh.Triangles(), func(t *spatialmath.Triangle, _ int) [3]r3.Vector {
		pts := t.Points()
		return [3]r3.Vector{pts[0], pts[1], pts[2]}
	})
	return &Scene{
		triangles:   tris,
		curve:       append([]r3.Vector(nil), curve...),
		orientation: mgl64.Ident4(),
	}
}

// Rotate turns the scene about an axis through the origin, on top of its current orientation.
// A zero axis or angle leaves the scene as it is.
func (s *Scene) Rotate(degrees float64, axis r3.Vector) {
	if degrees == 0 || axis.Norm() == 0 {
		return
	}
	u := axis.Normalize()
	rot := mgl64.HomogRotate3D(mgl64.DegToRad(degrees), mgl64.Vec3{u.X, u.Y, u.Z})
	s.orientation = rot.Mul4(s.orientation)
}

// Orientation returns the accumulated rotation.
func (s *Scene) Orientation() mgl64.Mat4 {
	return s.orientation
}

// Clone returns a copy sharing geometry but with its own orientation.
func (s *Scene) Clone() *Scene {
	c := *s
	return &c
}

func (s *Scene) apply(v r3.Vector) r3.Vector {
	out := s.orientation.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// View is one named snapshot: a rotation applied to the scene before it is captured.
type View struct {
	Name    string
	Degrees float64
	Axis    r3.Vector
}

// FileName is the image name the view is written under.
func (v View) FileName() string {
	return v.Name + ".png"
}

var (
	horizontal = r3.Vector{X: 1}
	vertical   = r3.Vector{Y: 1}
)

// Views returns the fixed snapshot sequence. Every rotation builds on the previous ones, so the
// two +45 degree turns about the vertical axis leave the R-90 shot a quarter turn from centre.
func Views() []View {
	return []View{
		{Name: "birds-eye"},
		{Name: "worms-eye", Degrees: -170, Axis: horizontal},
		{Name: "centre", Degrees: 80, Axis: horizontal},
		{Name: "R-45", Degrees: 45, Axis: vertical},
		{Name: "R-90", Degrees: 45, Axis: vertical},
		{Name: "L-45", Degrees: -135, Axis: vertical},
		{Name: "L-90", Degrees: -45, Axis: vertical},
	}
}

// FileNames returns the image names of Views in order.
func FileNames() []string {
	return lo.Map(Views(), func(v View, _ int) string { return v.FileName() })
}
