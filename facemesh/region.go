package facemesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"

	"go.viam.com/nasalsym/spatialmath"
)

// EllipseConfig is an ellipse in the X/Z plane centred on the nosetip.
type EllipseConfig struct {
	XRadius float64 `json:"x_radius"`
	ZRadius float64 `json:"z_radius"`
}

// BoxConfig is an axis aligned rectangle in the X/Z plane, bounds inclusive.
type BoxConfig struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	ZMin float64 `json:"z_min"`
	ZMax float64 `json:"z_max"`
}

// RegionConfig holds the empirically tuned crop regions of a normalized face.
type RegionConfig struct {
	Ellipse EllipseConfig `json:"ellipse"`
	Box     BoxConfig     `json:"box"`
}

// DefaultRegionConfig returns the regions tuned on the average head dataset.
func DefaultRegionConfig() RegionConfig {
	return RegionConfig{
		Ellipse: EllipseConfig{XRadius: 60, ZRadius: 95},
		Box:     BoxConfig{XMin: -20, XMax: 20, ZMin: -15, ZMax: 42},
	}
}

// VertexPredicate reports whether a single vertex is inside a region.
type VertexPredicate func(r3.Vector) bool

// TrianglePredicate reports whether a triangle is kept by a crop.
type TrianglePredicate func(*spatialmath.Triangle) bool

// AllVertices keeps a triangle only when every one of its vertices satisfies pred.
func AllVertices(pred VertexPredicate) TrianglePredicate {
	return func(tri *spatialmath.Triangle) bool {
		return lo.EveryBy(tri.Points(), pred)
	}
}

// BelowY accepts vertices at or below the threshold along Y.
func BelowY(threshold float64) VertexPredicate {
	return func(v r3.Vector) bool {
		return v.Y <= threshold
	}
}

// InEllipse accepts vertices with X²/rx² + Z²/rz² <= 1.
func InEllipse(e EllipseConfig) VertexPredicate {
	return func(v r3.Vector) bool {
		return v.X*v.X/(e.XRadius*e.XRadius)+v.Z*v.Z/(e.ZRadius*e.ZRadius) <= 1
	}
}

// InBox accepts vertices inside the box, bounds included.
func InBox(b BoxConfig) VertexPredicate {
	return func(v r3.Vector) bool {
		return v.X >= b.XMin && v.X <= b.XMax && v.Z >= b.ZMin && v.Z <= b.ZMax
	}
}

// BoxSides returns one predicate per edge of the box, each accepting vertices on or beyond that
// edge: left, right, near and far in turn.
func BoxSides(b BoxConfig) []VertexPredicate {
	return []VertexPredicate{
		func(v r3.Vector) bool { return v.X <= b.XMin },
		func(v r3.Vector) bool { return v.X >= b.XMax },
		func(v r3.Vector) bool { return v.Z <= b.ZMin },
		func(v r3.Vector) bool { return v.Z >= b.ZMax },
	}
}

// BeyondBox keeps a triangle when all of its vertices lie on or beyond the same edge of the box.
// A triangle cutting across a corner has no such edge and is dropped, even if each vertex on its
// own is outside the box.
func BeyondBox(b BoxConfig) TrianglePredicate {
	sides := lo.Map(BoxSides(b), func(side VertexPredicate, _ int) TrianglePredicate {
		return AllVertices(side)
	})
	return func(tri *spatialmath.Triangle) bool {
		return lo.SomeBy(sides, func(keep TrianglePredicate) bool { return keep(tri) })
	}
}

// Crop is a named triangle predicate.
type Crop struct {
	Name string
	Keep TrianglePredicate
}

// ApplyCrops runs the crops in order, each on the previous result. It fails with ErrEmptyRegion
// naming the first crop that leaves nothing behind.
func ApplyCrops(mesh *spatialmath.Mesh, crops ...Crop) (*spatialmath.Mesh, error) {
	out := mesh
	for _, crop := range crops {
		out = out.Filter(crop.Keep)
		if out.Len() == 0 {
			return nil, errors.Wrapf(ErrEmptyRegion, "%s crop removed all %d triangles", crop.Name, mesh.Len())
		}
	}
	return out, nil
}

// NoseCrops returns the chained crops isolating the nose of a normalized subject mesh. The half
// space threshold is the midpoint of the mesh's Y extent, fixed at the time of the call so the
// returned crops can be reapplied unchanged.
func NoseCrops(mesh *spatialmath.Mesh, cfg RegionConfig) []Crop {
	minPt, maxPt := mesh.Bounds()
	return noseCropsBelow((minPt.Y+maxPt.Y)/2, cfg)
}

func noseCropsBelow(threshold float64, cfg RegionConfig) []Crop {
	return []Crop{
		{Name: "half-space", Keep: AllVertices(BelowY(threshold))},
		{Name: "ellipse", Keep: AllVertices(InEllipse(cfg.Ellipse))},
		{Name: "box", Keep: AllVertices(InBox(cfg.Box))},
	}
}

// SelectNose crops a normalized subject mesh to its nasal region.
func SelectNose(mesh *spatialmath.Mesh, cfg RegionConfig) (*spatialmath.Mesh, error) {
	if mesh.Len() == 0 {
		return nil, errors.Wrap(ErrEmptyRegion, "subject mesh is empty")
	}
	return ApplyCrops(mesh, NoseCrops(mesh, cfg)...)
}

// SelectNoseWithin is SelectNose with an explicit half-space threshold along Y.
func SelectNoseWithin(mesh *spatialmath.Mesh, cfg RegionConfig, threshold float64) (*spatialmath.Mesh, error) {
	if mesh.Len() == 0 {
		return nil, errors.Wrap(ErrEmptyRegion, "subject mesh is empty")
	}
	return ApplyCrops(mesh, noseCropsBelow(threshold, cfg)...)
}

// ContourCrop keeps the ring of the face surrounding, but not overlapping, the nasal box.
func ContourCrop(cfg RegionConfig) Crop {
	return Crop{Name: "contour", Keep: BeyondBox(cfg.Box)}
}

// CropContour crops a normalized reference mesh to the contour around the nasal box.
func CropContour(mesh *spatialmath.Mesh, cfg RegionConfig) (*spatialmath.Mesh, error) {
	if mesh.Len() == 0 {
		return nil, errors.Wrap(ErrEmptyRegion, "reference mesh is empty")
	}
	return ApplyCrops(mesh, ContourCrop(cfg))
}

// Validate ensures the regions describe a non-empty ellipse and box.
func (cfg *RegionConfig) Validate(path string) error {
	if cfg.Ellipse.XRadius <= 0 || cfg.Ellipse.ZRadius <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("ellipse radii must be positive, got (%.2f, %.2f)",
			cfg.Ellipse.XRadius, cfg.Ellipse.ZRadius))
	}
	if cfg.Box.XMin >= cfg.Box.XMax {
		return utils.NewConfigValidationError(path, errors.Errorf("box x_min %.2f is not below x_max %.2f", cfg.Box.XMin, cfg.Box.XMax))
	}
	if cfg.Box.ZMin >= cfg.Box.ZMax {
		return utils.NewConfigValidationError(path, errors.Errorf("box z_min %.2f is not below z_max %.2f", cfg.Box.ZMin, cfg.Box.ZMax))
	}
	return nil
}
