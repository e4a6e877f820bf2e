package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/nasalsym/config"
	"go.viam.com/nasalsym/facemesh"
	"go.viam.com/nasalsym/logging"
	"go.viam.com/nasalsym/snapshot"
	"go.viam.com/nasalsym/spatialmath"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	// keep the box edges off the synthetic grid so the nose and contour share no vertices
	cfg.Region.Box.XMin, cfg.Region.Box.XMax = -21, 21
	cfg.Render.Width, cfg.Render.Height, cfg.Render.Margin = 64, 64, 4
	cfg.OutputDir = filepath.Join(t.TempDir(), "plots")
	return cfg
}

func scans(lean float64) ([]byte, []byte) {
	subject := facemesh.EncodeBinarySTL(facemesh.MakeTestFace(r3.Vector{X: 5, Y: 10, Z: -3}, lean))
	reference := facemesh.EncodeBinarySTL(facemesh.MakeTestFace(r3.Vector{X: -40, Y: 2, Z: 17}, 0))
	return subject, reference
}

func TestRunWritesSnapshots(t *testing.T) {
	cfg := testConfig(t)
	f, err := NewFinder(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	subject, reference := scans(0.15)
	res, err := f.Run(context.Background(), subject, reference)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, res.SubjectNosetip.X, test.ShouldAlmostEqual, 5)
	test.That(t, res.ReferenceNosetip.X, test.ShouldAlmostEqual, -40)
	test.That(t, res.NoseTriangles, test.ShouldBeGreaterThan, 0)
	test.That(t, res.ContourTriangles, test.ShouldBeGreaterThan, 0)
	test.That(t, res.Registration.Converged, test.ShouldBeTrue)
	test.That(t, len(res.Mesh.Vertices()), test.ShouldEqual, 3*res.NoseTriangles)

	test.That(t, len(res.Ridge), test.ShouldBeGreaterThan, 0)
	test.That(t, len(res.Ridge), test.ShouldBeLessThanOrEqualTo, cfg.Ridge.Samples)
	for i := 1; i < len(res.Ridge); i++ {
		test.That(t, res.Ridge[i].Height, test.ShouldBeGreaterThan, res.Ridge[i-1].Height)
	}
	// the synthetic ridge leans towards +X above the tip
	test.That(t, res.Summary.MeanX, test.ShouldBeGreaterThan, 0)
	test.That(t, res.Summary.MaxAbsX, test.ShouldBeGreaterThan, 1)

	test.That(t, len(res.Images), test.ShouldEqual, 7)
	for _, name := range snapshot.FileNames() {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		test.That(t, err, test.ShouldBeNil)
	}
}

func TestAnalyzeSymmetricNose(t *testing.T) {
	cfg := testConfig(t)
	f, err := NewFinder(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	subject, reference := scans(0)
	res, err := f.Analyze(context.Background(), subject, reference)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Summary.MaxAbsX, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, res.Images, test.ShouldBeEmpty)

	_, err = os.Stat(cfg.OutputDir)
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestStageLogsCarryRun(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	f, err := NewFinder(testConfig(t), logger)
	test.That(t, err, test.ShouldBeNil)

	subject, reference := scans(0)
	res, err := f.Analyze(context.Background(), subject, reference)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.RunID, test.ShouldNotBeEmpty)

	registered := logs.FilterMessage("registered nose").All()
	test.That(t, len(registered), test.ShouldEqual, 1)
	test.That(t, registered[0].LoggerName, test.ShouldEqual, "register")
	fields := registered[0].ContextMap()
	test.That(t, fields["run"], test.ShouldEqual, res.RunID)
	test.That(t, fields["stage"], test.ShouldEqual, "register")
	for _, entry := range logs.All() {
		test.That(t, entry.ContextMap()["run"], test.ShouldEqual, res.RunID)
	}

	again, err := f.Analyze(context.Background(), subject, reference)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.RunID, test.ShouldNotEqual, res.RunID)
}

func TestRunFailures(t *testing.T) {
	subject, reference := scans(0)
	tinyRef := facemesh.EncodeBinarySTL(spatialmath.NewMesh([]*spatialmath.Triangle{
		spatialmath.NewTriangle(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1}),
	}))

	for _, tc := range []struct {
		name      string
		subject   []byte
		reference []byte
		tweak     func(*config.Config)
		stage     Stage
		kind      error
	}{
		{name: "garbage subject", subject: []byte("nope"), reference: reference, stage: StageLoad, kind: ErrFileFormat},
		{name: "garbage reference", subject: subject, reference: nil, stage: StageLoad, kind: ErrFileFormat},
		{name: "reference inside the box", subject: subject, reference: tinyRef, stage: StageCrop, kind: ErrEmptyRegion},
		{
			name: "subject outside the ellipse", subject: subject, reference: reference, stage: StageSelect, kind: ErrEmptyRegion,
			tweak: func(cfg *config.Config) { cfg.Region.Ellipse = facemesh.EllipseConfig{XRadius: 0.5, ZRadius: 0.5} },
		},
		{
			name: "too few points to register", subject: subject, reference: reference, stage: StageRegister, kind: ErrRegistration,
			tweak: func(cfg *config.Config) { cfg.Registration.MinPoints = 1 << 20 },
		},
		{
			name: "ridge above the nose", subject: subject, reference: reference, stage: StageRidge, kind: ErrSection,
			tweak: func(cfg *config.Config) { cfg.Ridge.Origin = 500 },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tc.tweak != nil {
				tc.tweak(cfg)
			}
			f, err := NewFinder(cfg, logging.NewTestLogger(t))
			test.That(t, err, test.ShouldBeNil)

			_, err = f.Run(context.Background(), tc.subject, tc.reference)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, tc.kind), test.ShouldBeTrue)
			stage, ok := FailedStage(err)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, stage, test.ShouldEqual, tc.stage)

			_, err = os.Stat(cfg.OutputDir)
			test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
		})
	}
}

func TestRunWriteFailure(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	test.That(t, os.WriteFile(blocker, []byte("x"), 0o600), test.ShouldBeNil)
	cfg.OutputDir = blocker

	f, err := NewFinder(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	subject, reference := scans(0)
	_, err = f.Run(context.Background(), subject, reference)
	stage, ok := FailedStage(err)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, stage, test.ShouldEqual, StageWrite)
}

func TestRunCanceled(t *testing.T) {
	f, err := NewFinder(testConfig(t), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	subject, reference := scans(0)
	_, err = f.Run(ctx, subject, reference)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	stage, _ := FailedStage(err)
	test.That(t, stage, test.ShouldEqual, StageLoad)
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	subject, reference := scans(0)
	subjectPath, referencePath := filepath.Join(dir, "subject.stl"), filepath.Join(dir, "reference.stl")
	test.That(t, os.WriteFile(subjectPath, subject, 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(referencePath, reference, 0o600), test.ShouldBeNil)

	f, err := NewFinder(testConfig(t), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	fromFiles, err := f.AnalyzeFiles(context.Background(), subjectPath, referencePath)
	test.That(t, err, test.ShouldBeNil)
	fromBytes, err := f.Analyze(context.Background(), subject, reference)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmp.Diff(fromBytes.Ridge, fromFiles.Ridge), test.ShouldBeEmpty)
	test.That(t, cmp.Diff(fromBytes.Summary, fromFiles.Summary), test.ShouldBeEmpty)

	_, err = f.RunFiles(context.Background(), subjectPath, filepath.Join(dir, "missing.stl"))
	stage, ok := FailedStage(err)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, stage, test.ShouldEqual, StageLoad)
}

func TestConcurrentRunsShareOutput(t *testing.T) {
	cfg := testConfig(t)
	f, err := NewFinder(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	subject, reference := scans(0.15)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.Run(context.Background(), subject, reference)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		test.That(t, err, test.ShouldBeNil)
	}
	entries, err := os.ReadDir(cfg.OutputDir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 7)
}

func TestNewFinderValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Ridge.Samples = 0
	_, err := NewFinder(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)

	f, err := NewFinder(nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Config().OutputDir, test.ShouldEqual, config.DefaultOutputDir)
}
