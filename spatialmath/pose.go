package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Pose is a rigid transform: a rotation followed by a translation.
type Pose struct {
	rotation    *RotationMatrix
	translation r3.Vector
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{rotation: NewIdentityRotationMatrix()}
}

// NewPose creates a pose from a translation and a rotation. A nil rotation means no rotation.
func NewPose(translation r3.Vector, rotation *RotationMatrix) Pose {
	if rotation == nil {
		rotation = NewIdentityRotationMatrix()
	}
	return Pose{rotation: rotation, translation: translation}
}

// NewPoseFromPoint creates a pure translation.
func NewPoseFromPoint(translation r3.Vector) Pose {
	return NewPose(translation, nil)
}

// Point returns the translation of the pose.
func (p Pose) Point() r3.Vector {
	return p.translation
}

// Rotation returns the rotation of the pose.
func (p Pose) Rotation() *RotationMatrix {
	if p.rotation == nil {
		return NewIdentityRotationMatrix()
	}
	return p.rotation
}

// TransformPoint applies the pose to a point.
func (p Pose) TransformPoint(v r3.Vector) r3.Vector {
	return p.Rotation().Mul(v).Add(p.translation)
}

// Invert returns the pose undoing p.
func (p Pose) Invert() Pose {
	inv := p.Rotation().Transpose()
	return Pose{rotation: inv, translation: inv.Mul(p.translation).Mul(-1)}
}

func (p Pose) String() string {
	return fmt.Sprintf("{translation: %v, rotation (deg): %.6f}", p.translation, p.Rotation().Angle()*180/math.Pi)
}

// Compose returns the pose applying b first and then a.
func Compose(a, b Pose) Pose {
	return Pose{
		rotation:    a.Rotation().MatMul(b.Rotation()),
		translation: a.Rotation().Mul(b.translation).Add(a.translation),
	}
}

// PoseAlmostEqual compares translation and rotation within the given tolerances.
func PoseAlmostEqual(a, b Pose, translationTol, rotationTol float64) bool {
	if a.translation.Sub(b.translation).Norm() > translationTol {
		return false
	}
	return RotationMatrixAlmostEqual(a.Rotation(), b.Rotation(), rotationTol)
}
