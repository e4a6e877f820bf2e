package pipeline

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/nasalsym/dorsum"
	"go.viam.com/nasalsym/facemesh"
	"go.viam.com/nasalsym/pointcloud"
)

// Stage names one step of a run.
type Stage string

// The stages of a run, in order.
const (
	StageLoad        Stage = "load"
	StageNormalize   Stage = "normalize"
	StageSelect      Stage = "select"
	StageCrop        Stage = "crop"
	StageRegister    Stage = "register"
	StageReconstruct Stage = "reconstruct"
	StageRidge       Stage = "ridge"
	StageCurve       Stage = "curve"
	StageRender      Stage = "render"
	StageWrite       Stage = "write"
)

// Error kinds a run can fail with. Match them with errors.Is.
var (
	ErrFileFormat   = facemesh.ErrFileFormat
	ErrEmptyRegion  = facemesh.ErrEmptyRegion
	ErrRegistration = pointcloud.ErrRegistration
	ErrSection      = dorsum.ErrSection
)

// StageError reports the stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying failure.
func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// FailedStage returns the stage err originated in, if it came from a run.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
