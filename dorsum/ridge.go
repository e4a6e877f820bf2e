// Package dorsum extracts the ridge line of the nose from a registered nasal mesh and fits,
// summarizes and plots it.
package dorsum

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/nasalsym/spatialmath"
)

// ErrSection is returned when the mesh cannot be sectioned into a ridge.
var ErrSection = errors.New("section failure")

// RidgePoint is the lowest point, along Y, of one horizontal cross section of the nose.
type RidgePoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	// Height is the Z of the sectioning plane: the origin plus a whole number of samples.
	Height float64 `json:"height"`
}

// Vector returns the point in mesh coordinates.
func (p RidgePoint) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Height}
}

// Ridge is a sequence of ridge points with strictly increasing heights.
type Ridge []RidgePoint

// Heights returns the height of every point in order.
func (r Ridge) Heights() []float64 {
	return lo.Map(r, func(p RidgePoint, _ int) float64 { return p.Height })
}

// Xs returns the lateral coordinate of every point in order.
func (r Ridge) Xs() []float64 {
	return lo.Map(r, func(p RidgePoint, _ int) float64 { return p.X })
}

// Ys returns the depth coordinate of every point in order.
func (r Ridge) Ys() []float64 {
	return lo.Map(r, func(p RidgePoint, _ int) float64 { return p.Y })
}

// RidgeParams places the sectioning planes: Samples planes normal to Z, one unit apart, starting
// at Z = Origin.
type RidgeParams struct {
	Origin  float64 `json:"origin"`
	Samples int     `json:"samples"`
}

// DefaultRidgeParams spans the depth of the default nasal box.
func DefaultRidgeParams() RidgeParams {
	return RidgeParams{Origin: -15, Samples: 57}
}

// Validate ensures at least one plane is sampled.
func (p *RidgeParams) Validate(path string) error {
	if p.Samples < 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("samples must be positive, got %d", p.Samples))
	}
	return nil
}

// Heights returns every sampled plane height.
func (p *RidgeParams) Heights() []float64 {
	return lo.Times(p.Samples, func(i int) float64 { return p.Origin + float64(i) })
}

// ExtractRidge sections the mesh at every sampled height and keeps the lowest point along Y of
// each non-empty section. Heights without any intersection are skipped.
func ExtractRidge(mesh *spatialmath.IndexedMesh, params RidgeParams) (Ridge, error) {
	if params.Samples < 1 {
		return nil, errors.Errorf("ridge needs at least one sample, got %d", params.Samples)
	}
	tris := mesh.Triangles()
	for i, tri := range tris {
		if !tri.IsFinite() {
			return nil, errors.Wrapf(ErrSection, "triangle %d has non-finite coordinates", i)
		}
	}

	ridge := make(Ridge, 0, params.Samples)
	for _, h := range params.Heights() {
		plane := spatialmath.Plane{Point: r3.Vector{Z: h}, Normal: r3.Vector{Z: 1}}
		section := Section(tris, plane)
		if len(section) == 0 {
			continue
		}
		lowest := section[floats.MinIdx(lo.Map(section, func(v r3.Vector, _ int) float64 { return v.Y }))]
		ridge = append(ridge, RidgePoint{X: lowest.X, Y: lowest.Y, Height: h})
	}
	if len(ridge) == 0 {
		return nil, errors.Wrapf(ErrSection, "no section between heights %.1f and %.1f meets the mesh",
			params.Origin, params.Origin+float64(params.Samples-1))
	}
	return ridge, nil
}

// Section returns the endpoints of every segment where the triangles meet the plane, in
// triangle order.
func Section(tris []*spatialmath.Triangle, plane spatialmath.Plane) []r3.Vector {
	var pts []r3.Vector
	for _, tri := range tris {
		if seg, ok := tri.SectionWithPlane(plane); ok {
			pts = append(pts, seg.Start, seg.End)
		}
	}
	return pts
}
