// Package pipeline runs the nasal symmetry stages end to end: it loads a subject and a reference
// scan, registers the subject's nose onto the reference, extracts the dorsum and writes the
// snapshot set.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/nasalsym/config"
	"go.viam.com/nasalsym/dorsum"
	"go.viam.com/nasalsym/facemesh"
	"go.viam.com/nasalsym/logging"
	"go.viam.com/nasalsym/pointcloud"
	"go.viam.com/nasalsym/snapshot"
	"go.viam.com/nasalsym/spatialmath"
)

// Result is everything a run produced.
type Result struct {
	// RunID tags every log entry of the run that produced this result.
	RunID            string
	SubjectNosetip   r3.Vector
	ReferenceNosetip r3.Vector
	NoseTriangles    int
	ContourTriangles int
	Registration     *pointcloud.ICPResult
	Mesh             *spatialmath.IndexedMesh
	Ridge            dorsum.Ridge
	Summary          dorsum.Summary
	Curve            *dorsum.Curve
	// Images holds the paths of the written snapshots; it is empty for Analyze.
	Images []string
}

// A Finder finds the dorsum of a subject's nose. Runs on one Finder are serialized since they
// share its output directory.
type Finder struct {
	mu     sync.Mutex
	cfg    *config.Config
	logger logging.Logger
}

// NewFinder returns a Finder for a validated copy of cfg.
func NewFinder(cfg *config.Config, logger logging.Logger) (*Finder, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cp := *cfg
	if err := cp.Ensure(); err != nil {
		return nil, err
	}
	return &Finder{cfg: &cp, logger: logger}, nil
}

// Config returns the configuration the Finder runs with.
func (f *Finder) Config() config.Config {
	return *f.cfg
}

// RunFiles reads the subject and reference scans from disk and runs the pipeline on them.
func (f *Finder) RunFiles(ctx context.Context, subjectPath, referencePath string) (*Result, error) {
	subject, reference, err := readPair(subjectPath, referencePath)
	if err != nil {
		return nil, err
	}
	return f.Run(ctx, subject, reference)
}

// Run processes one subject against one reference and writes the snapshot set. Either all
// snapshots are written or the output directory is left as it was.
func (f *Finder) Run(ctx context.Context, subject, reference []byte) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	runID, runLogger := f.newRun()
	res, err := f.analyze(ctx, runID, runLogger, subject, reference)
	if err != nil {
		return nil, err
	}

	logger := stageLogger(runLogger, StageRender)
	if err := ctx.Err(); err != nil {
		return nil, stageError(StageRender, err)
	}
	scene := snapshot.NewScene(res.Mesh, res.Curve.Points())
	images, err := snapshot.Render(ctx, scene, f.cfg.Render)
	if err != nil {
		return nil, stageError(StageRender, err)
	}
	logger.Debugw("rendered views", "views", len(images))

	if err := ctx.Err(); err != nil {
		return nil, stageError(StageWrite, err)
	}
	if err := snapshot.WriteSet(f.cfg.OutputDir, images); err != nil {
		return nil, stageError(StageWrite, err)
	}
	for _, img := range images {
		res.Images = append(res.Images, filepath.Join(f.cfg.OutputDir, img.Name))
	}
	runLogger.Infow("snapshots written", "dir", f.cfg.OutputDir, "ridge_points", len(res.Ridge),
		"max_abs_x", res.Summary.MaxAbsX)
	return res, nil
}

// AnalyzeFiles is Analyze over scans read from disk.
func (f *Finder) AnalyzeFiles(ctx context.Context, subjectPath, referencePath string) (*Result, error) {
	subject, reference, err := readPair(subjectPath, referencePath)
	if err != nil {
		return nil, err
	}
	return f.Analyze(ctx, subject, reference)
}

// Analyze runs every stage up to and including the curve fit without rendering anything.
func (f *Finder) Analyze(ctx context.Context, subject, reference []byte) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runID, runLogger := f.newRun()
	return f.analyze(ctx, runID, runLogger, subject, reference)
}

// newRun returns a fresh run id and a logger tagging entries with it.
func (f *Finder) newRun() (string, logging.Logger) {
	id := uuid.NewString()
	return id, f.logger.With("run", id)
}

func stageLogger(runLogger logging.Logger, stage Stage) logging.Logger {
	return runLogger.Sublogger(string(stage)).With("stage", string(stage))
}

func (f *Finder) analyze(
	ctx context.Context,
	runID string,
	runLogger logging.Logger,
	subjectData, referenceData []byte,
) (*Result, error) {
	cfg := f.cfg
	res := &Result{RunID: runID}

	step := func(stage Stage) (logging.Logger, error) {
		if err := ctx.Err(); err != nil {
			return nil, stageError(stage, err)
		}
		return stageLogger(runLogger, stage), nil
	}

	logger, err := step(StageLoad)
	if err != nil {
		return nil, err
	}
	subject, err := facemesh.Decode(subjectData)
	if err != nil {
		return nil, stageError(StageLoad, errors.Wrap(err, "subject"))
	}
	reference, err := facemesh.Decode(referenceData)
	if err != nil {
		return nil, stageError(StageLoad, errors.Wrap(err, "reference"))
	}
	logger.Debugw("decoded meshes", "subject_triangles", subject.Len(), "reference_triangles", reference.Len())

	logger, err = step(StageNormalize)
	if err != nil {
		return nil, err
	}
	subject, res.SubjectNosetip, err = facemesh.Normalize(subject)
	if err != nil {
		return nil, stageError(StageNormalize, errors.Wrap(err, "subject"))
	}
	reference, res.ReferenceNosetip, err = facemesh.Normalize(reference)
	if err != nil {
		return nil, stageError(StageNormalize, errors.Wrap(err, "reference"))
	}
	logger.Debugw("normalized", "subject_nosetip", res.SubjectNosetip, "reference_nosetip", res.ReferenceNosetip)

	logger, err = step(StageSelect)
	if err != nil {
		return nil, err
	}
	nose, err := facemesh.SelectNose(subject, cfg.Region)
	if err != nil {
		return nil, stageError(StageSelect, err)
	}
	res.NoseTriangles = nose.Len()
	logger.Debugw("selected nose", "triangles", nose.Len())

	logger, err = step(StageCrop)
	if err != nil {
		return nil, err
	}
	contour, err := facemesh.CropContour(reference, cfg.Region)
	if err != nil {
		return nil, stageError(StageCrop, err)
	}
	res.ContourTriangles = contour.Len()
	logger.Debugw("cropped reference contour", "triangles", contour.Len())

	logger, err = step(StageRegister)
	if err != nil {
		return nil, err
	}
	target := pointcloud.ToKDTree(pointcloud.FromMesh(contour))
	aligned, info, err := pointcloud.RegisterPointCloudICP(
		ctx, pointcloud.FromMesh(nose), target, spatialmath.NewZeroPose(), cfg.Registration, logger)
	if err != nil {
		return nil, stageError(StageRegister, err)
	}
	res.Registration = info
	logger.Debugw("registered nose", "fitness", info.Fitness, "rmse", info.InlierRMSE,
		"iterations", info.Iterations, "pose", info.Pose.String())

	logger, err = step(StageReconstruct)
	if err != nil {
		return nil, err
	}
	res.Mesh, err = facemesh.Reconstruct(aligned)
	if err != nil {
		return nil, stageError(StageReconstruct, err)
	}
	logger.Debugw("reconstructed mesh", "faces", len(res.Mesh.Faces()))

	logger, err = step(StageRidge)
	if err != nil {
		return nil, err
	}
	res.Ridge, err = dorsum.ExtractRidge(res.Mesh, cfg.Ridge)
	if err != nil {
		return nil, stageError(StageRidge, err)
	}
	res.Summary, err = dorsum.Summarize(res.Ridge)
	if err != nil {
		return nil, stageError(StageRidge, err)
	}
	logger.Debugw("extracted ridge", "points", len(res.Ridge), "mean_x", res.Summary.MeanX)

	if _, err = step(StageCurve); err != nil {
		return nil, err
	}
	res.Curve, err = dorsum.FitCurve(res.Ridge, cfg.Curve.SamplesPerSpan)
	if err != nil {
		return nil, stageError(StageCurve, err)
	}
	return res, nil
}

func readPair(subjectPath, referencePath string) ([]byte, []byte, error) {
	//nolint:gosec
	subject, err := os.ReadFile(subjectPath)
	if err != nil {
		return nil, nil, stageError(StageLoad, errors.Wrap(err, "reading subject"))
	}
	//nolint:gosec
	reference, err := os.ReadFile(referencePath)
	if err != nil {
		return nil, nil, stageError(StageLoad, errors.Wrap(err, "reading reference"))
	}
	return subject, reference, nil
}
