package dorsum

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"
)

// Curve is a smooth parametric curve x(h), y(h) through a ridge, used for display only.
type Curve struct {
	heights []float64
	x, y    interp.Predictor
	samples int
}

type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// FitCurve interpolates the ridge with a natural cubic spline per coordinate. Two points are
// joined linearly and a single point yields a degenerate curve at that point. samplesPerSpan sets
// how many polyline points Points emits between consecutive ridge points.
func FitCurve(ridge Ridge, samplesPerSpan int) (*Curve, error) {
	if len(ridge) == 0 {
		return nil, errors.New("cannot fit a curve through an empty ridge")
	}
	if samplesPerSpan < 1 {
		return nil, errors.Errorf("samples per span must be positive, got %d", samplesPerSpan)
	}
	hs := ridge.Heights()
	for i := 1; i < len(hs); i++ {
		if hs[i] <= hs[i-1] {
			return nil, errors.Errorf("ridge heights must strictly increase, %.3f follows %.3f", hs[i], hs[i-1])
		}
	}

	c := &Curve{heights: hs, samples: samplesPerSpan}
	switch len(ridge) {
	case 1:
		c.x, c.y = constant(ridge[0].X), constant(ridge[0].Y)
		return c, nil
	case 2:
		var x, y interp.PiecewiseLinear
		if err := fitBoth(&x, &y, ridge); err != nil {
			return nil, err
		}
		c.x, c.y = &x, &y
	default:
		var x, y interp.NaturalCubic
		if err := fitBoth(&x, &y, ridge); err != nil {
			return nil, err
		}
		c.x, c.y = &x, &y
	}
	return c, nil
}

func fitBoth(x, y interp.Fitter, ridge Ridge) error {
	hs := ridge.Heights()
	if err := x.Fit(hs, ridge.Xs()); err != nil {
		return errors.Wrap(err, "fitting lateral coordinate")
	}
	if err := y.Fit(hs, ridge.Ys()); err != nil {
		return errors.Wrap(err, "fitting depth coordinate")
	}
	return nil
}

// Range returns the first and last fitted heights.
func (c *Curve) Range() (float64, float64) {
	return c.heights[0], c.heights[len(c.heights)-1]
}

// At evaluates the curve at height h. Heights outside Range are clamped to it.
func (c *Curve) At(h float64) r3.Vector {
	first, last := c.Range()
	h = math.Max(first, math.Min(last, h))
	return r3.Vector{X: c.x.Predict(h), Y: c.y.Predict(h), Z: h}
}

// Points samples the curve as a polyline through every ridge point.
func (c *Curve) Points() []r3.Vector {
	if len(c.heights) == 1 {
		return []r3.Vector{c.At(c.heights[0])}
	}
	pts := make([]r3.Vector, 0, (len(c.heights)-1)*c.samples+1)
	for i := 0; i < len(c.heights)-1; i++ {
		h0, h1 := c.heights[i], c.heights[i+1]
		for s := 0; s < c.samples; s++ {
			pts = append(pts, c.At(h0+(h1-h0)*float64(s)/float64(c.samples)))
		}
	}
	return append(pts, c.At(c.heights[len(c.heights)-1]))
}
