package pointcloud

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/nasalsym/logging"
	"go.viam.com/nasalsym/spatialmath"
)

// ErrRegistration is returned when two clouds cannot be rigidly aligned, either because one of
// them is too small or because ICP did not converge within its iteration bound.
var ErrRegistration = errors.New("registration failure")

// errDegenerate marks correspondence sets that do not pin down a rotation, such as points that
// all lie on one line.
var errDegenerate = errors.New("degenerate correspondences")

// collinearRatio is the largest ratio of the second to the first singular value of the cross
// covariance at which correspondences count as collinear.
const collinearRatio = 1e-4

// ICPParams bounds and tunes point-to-point ICP.
type ICPParams struct {
	// MaxCorrespondenceDistance is the largest source to target distance that still counts as a
	// correspondence.
	MaxCorrespondenceDistance float64 `json:"max_correspondence_distance"`
	// MaxIterations bounds the number of alignment steps.
	MaxIterations int `json:"max_iterations"`
	// RelativeFitness and RelativeRMSE stop iteration once both change less than these between
	// two steps.
	RelativeFitness float64 `json:"relative_fitness"`
	RelativeRMSE    float64 `json:"relative_rmse"`
	// MinPoints is the fewest points either cloud, and the correspondence set, may hold.
	MinPoints int `json:"min_points"`
}

// DefaultICPParams returns the parameters the nasal registration was tuned with.
func DefaultICPParams() ICPParams {
	return ICPParams{
		MaxCorrespondenceDistance: 0.001,
		MaxIterations:             50,
		RelativeFitness:           1e-6,
		RelativeRMSE:              1e-6,
		MinPoints:                 3,
	}
}

// Validate ensures all parameters are usable.
func (params *ICPParams) Validate(path string) error {
	if params.MaxCorrespondenceDistance <= 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("max_correspondence_distance must be positive, got %g", params.MaxCorrespondenceDistance))
	}
	if params.MaxIterations < 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("max_iterations must be positive, got %d", params.MaxIterations))
	}
	if params.RelativeFitness < 0 || params.RelativeRMSE < 0 {
		return utils.NewConfigValidationError(path, errors.New("relative_fitness and relative_rmse cannot be negative"))
	}
	if params.MinPoints < 3 {
		return utils.NewConfigValidationError(path, errors.Errorf("min_points must be at least 3, got %d", params.MinPoints))
	}
	return nil
}

// ICPResult describes a finished registration.
type ICPResult struct {
	Pose            spatialmath.Pose
	Fitness         float64 // fraction of source points with a correspondence
	InlierRMSE      float64 // RMS distance over the correspondences
	Correspondences int
	Iterations      int
	Converged       bool
}

type correspondences struct {
	source []r3.Vector
	target []r3.Vector
	sqSum  float64
}

func (c *correspondences) fitness(sourceSize int) float64 {
	if sourceSize == 0 {
		return 0
	}
	return float64(len(c.source)) / float64(sourceSize)
}

func (c *correspondences) rmse() float64 {
	if len(c.source) == 0 {
		return 0
	}
	return math.Sqrt(c.sqSum / float64(len(c.source)))
}

// RegisterPointCloudICP rigidly aligns source onto target starting from guess. It returns the
// transformed source, in source order, along with the registration result.
func RegisterPointCloudICP(
	ctx context.Context,
	source PointCloud,
	target *KDTree,
	guess spatialmath.Pose,
	params ICPParams,
	logger logging.Logger,
) (PointCloud, *ICPResult, error) {
	if source.Size() < params.MinPoints {
		return nil, nil, errors.Wrapf(ErrRegistration, "source cloud has %d points, need at least %d", source.Size(), params.MinPoints)
	}
	if target.Size() < params.MinPoints {
		return nil, nil, errors.Wrapf(ErrRegistration, "target cloud has %d points, need at least %d", target.Size(), params.MinPoints)
	}
	if params.MaxIterations < 1 {
		return nil, nil, errors.Wrapf(ErrRegistration, "max iterations must be positive, got %d", params.MaxIterations)
	}

	srcPts := source.Points()
	current := guess
	corr := findCorrespondences(srcPts, target, current, params.MaxCorrespondenceDistance)
	result := &ICPResult{
		Pose:            current,
		Fitness:         corr.fitness(len(srcPts)),
		InlierRMSE:      corr.rmse(),
		Correspondences: len(corr.source),
	}

	for result.Iterations < params.MaxIterations {
		if len(corr.source) < params.MinPoints {
			// nothing left to align against, keep the current estimate
			logger.Debugw("too few correspondences to refine", "correspondences", len(corr.source))
			result.Converged = true
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		delta, err := BestFitTransform(corr.source, corr.target)
		if errors.Is(err, errDegenerate) {
			logger.Debugw("correspondences do not constrain a rotation, keeping current estimate",
				"correspondences", len(corr.source))
			result.Converged = true
			break
		}
		if err != nil {
			return nil, nil, registrationFailure(err)
		}
		current = spatialmath.Compose(delta, current)
		result.Iterations++

		next := findCorrespondences(srcPts, target, current, params.MaxCorrespondenceDistance)
		fitness, rmse := next.fitness(len(srcPts)), next.rmse()
		logger.Debugw("icp step", "iteration", result.Iterations, "fitness", fitness, "rmse", rmse)

		done := math.Abs(fitness-result.Fitness) < params.RelativeFitness &&
			math.Abs(rmse-result.InlierRMSE) < params.RelativeRMSE
		corr = next
		result.Pose = current
		result.Fitness = fitness
		result.InlierRMSE = rmse
		result.Correspondences = len(next.source)
		if done {
			result.Converged = true
			break
		}
	}

	if !result.Converged {
		return nil, result, errors.Wrapf(ErrRegistration, "did not converge within %d iterations (fitness %.6f, rmse %.6f)",
			params.MaxIterations, result.Fitness, result.InlierRMSE)
	}
	return Transform(source, result.Pose), result, nil
}

// registrationFailure marks cause as a registration failure while keeping it inspectable.
func registrationFailure(cause error) error {
	return multierr.Combine(ErrRegistration, cause)
}

func findCorrespondences(src []r3.Vector, target *KDTree, pose spatialmath.Pose, maxDist float64) *correspondences {
	corr := &correspondences{}
	for _, p := range src {
		moved := pose.TransformPoint(p)
		nearest, dist, ok := target.NearestNeighbor(moved)
		if !ok || dist > maxDist {
			continue
		}
		corr.source = append(corr.source, moved)
		corr.target = append(corr.target, nearest)
		corr.sqSum += dist * dist
	}
	return corr
}

// BestFitTransform returns the rigid transform minimizing the squared distance between each
// source point and its paired target point, using the SVD (Kabsch) solution. Pairs that are all
// collinear, or all coincident, leave the rotation undetermined and are rejected.
func BestFitTransform(source, target []r3.Vector) (spatialmath.Pose, error) {
	if len(source) != len(target) {
		return spatialmath.Pose{}, errors.Errorf("mismatched correspondence sets: %d source, %d target", len(source), len(target))
	}
	if len(source) == 0 {
		return spatialmath.Pose{}, errors.New("no correspondences")
	}

	srcCenter := NewFromPoints(source)
	tgtCenter := NewFromPoints(target)
	cs, ct := CloudCentroid(srcCenter), CloudCentroid(tgtCenter)

	cov := mat.NewDense(3, 3, nil)
	for i := range source {
		a := source[i].Sub(cs)
		b := target[i].Sub(ct)
		av := [3]float64{a.X, a.Y, a.Z}
		bv := [3]float64{b.X, b.Y, b.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				cov.Set(r, c, cov.At(r, c)+av[r]*bv[c])
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(cov, mat.SVDFull); !ok {
		return spatialmath.Pose{}, errors.New("svd of cross covariance failed")
	}
	if vals := svd.Values(nil); vals[0] == 0 || vals[1] <= collinearRatio*vals[0] {
		return spatialmath.Pose{}, errDegenerate
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var rot mat.Dense
	rot.Mul(&v, u.T())
	if mat.Det(&rot) < 0 {
		// reflection: flip the axis of least variance
		for r := 0; r < 3; r++ {
			v.Set(r, 2, -v.At(r, 2))
		}
		rot.Mul(&v, u.T())
	}

	vals := make([]float64, 0, 9)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			vals = append(vals, rot.At(r, c))
		}
	}
	rm, err := spatialmath.NewRotationMatrix(vals)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	return spatialmath.NewPose(ct.Sub(rm.Mul(cs)), rm), nil
}
