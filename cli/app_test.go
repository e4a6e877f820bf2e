package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/nasalsym/facemesh"
	"go.viam.com/nasalsym/snapshot"
)

type fixture struct {
	dir, config, subject, reference string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:       dir,
		config:    filepath.Join(dir, "config.json"),
		subject:   filepath.Join(dir, "subject.stl"),
		reference: filepath.Join(dir, "reference.stl"),
	}
	t.Setenv("NASALSYM_TEST_PLOTS", filepath.Join(dir, "plots"))
	cfg := `{
		"region": {"box": {"x_min": -21, "x_max": 21, "z_min": -15, "z_max": 42}},
		"render": {"width": 48, "height": 48, "margin": 2},
		"output_dir": "${NASALSYM_TEST_PLOTS}"
	}`
	test.That(t, os.WriteFile(fx.config, []byte(cfg), 0o600), test.ShouldBeNil)
	subject := facemesh.EncodeBinarySTL(facemesh.MakeTestFace(r3.Vector{X: 1, Y: 2, Z: 3}, 0.15))
	reference := facemesh.EncodeBinarySTL(facemesh.MakeTestFace(r3.Vector{}, 0))
	test.That(t, os.WriteFile(fx.subject, subject, 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(fx.reference, reference, 0o600), test.ShouldBeNil)
	return fx
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"nasalsym"}, args...))
	return out.String(), errOut.String(), err
}

func TestRunCommand(t *testing.T) {
	fx := newFixture(t)
	out, _, err := run(t, "--config", fx.config, "run", "--subject", fx.subject, "--reference", fx.reference)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "wrote 7 snapshots")
	for _, name := range snapshot.FileNames() {
		_, err := os.Stat(filepath.Join(fx.dir, "plots", name))
		test.That(t, err, test.ShouldBeNil)
	}

	other := filepath.Join(fx.dir, "elsewhere")
	_, _, err = run(t, "-c", fx.config, "run", "-s", fx.subject, "-r", fx.reference, "--output-dir", other)
	test.That(t, err, test.ShouldBeNil)
	entries, err := os.ReadDir(other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 7)
}

func TestRidgeCommand(t *testing.T) {
	fx := newFixture(t)
	out, _, err := run(t, "--config", fx.config, "ridge", "--subject", fx.subject, "--reference", fx.reference)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "HEIGHT")
	test.That(t, out, test.ShouldContainSubstring, "Max |X|")

	out, _, err = run(t, "--config", fx.config, "ridge", "--json", "--subject", fx.subject, "--reference", fx.reference)
	test.That(t, err, test.ShouldBeNil)
	var parsed ridgeOutput
	test.That(t, json.Unmarshal([]byte(out), &parsed), test.ShouldBeNil)
	test.That(t, len(parsed.Ridge), test.ShouldEqual, parsed.Summary.Points)
	test.That(t, parsed.Summary.MaxAbsX, test.ShouldBeGreaterThan, 0)

	// nothing is rendered by ridge
	_, err = os.Stat(filepath.Join(fx.dir, "plots"))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestProfileCommand(t *testing.T) {
	fx := newFixture(t)
	chart := filepath.Join(fx.dir, "profile.png")
	out, _, err := run(t, "-c", fx.config, "profile", "-s", fx.subject, "-r", fx.reference, "-o", chart)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, chart)
	info, err := os.Stat(chart)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := run(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"max_correspondence_distance"`)
}

func TestLogFile(t *testing.T) {
	fx := newFixture(t)
	logFile := filepath.Join(fx.dir, "nasalsym.log")
	_, _, err := run(t, "--debug", "--log-file", logFile, "-c", fx.config, "ridge", "-s", fx.subject, "-r", fx.reference)
	test.That(t, err, test.ShouldBeNil)
	data, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "nasalsym.")
}

func TestCommandErrors(t *testing.T) {
	fx := newFixture(t)

	_, _, err := run(t, "ridge", "--subject", fx.subject)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = run(t, "--config", filepath.Join(fx.dir, "missing.json"), "ridge", "-s", fx.subject, "-r", fx.reference)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "reading config")

	garbage := filepath.Join(fx.dir, "garbage.stl")
	test.That(t, os.WriteFile(garbage, []byte("not a mesh"), 0o600), test.ShouldBeNil)
	_, _, err = run(t, "ridge", "-s", garbage, "-r", fx.reference)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "load stage failed")
}
