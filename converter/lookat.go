package converter

import (
	"math"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

var defaultLookAtOffset = [3]float32{0, 0.06, 0}

// eyeAngles returns the absolute euler angles of an eye rotation in degrees.
func eyeAngles(q *geom.Quaternion) geom.Vector3 {
	e := geom.NewEulerFromQuaternion(q, geom.RotationOrderYXZ)
	deg := func(r float32) float32 {
		return float32(math.Abs(float64(r) * 180 / math.Pi))
	}
	return geom.Vector3{X: deg(e.X), Y: deg(e.Y), Z: deg(e.Z)}
}

func rangeMap(r *scene.EyeRotations, vertical bool) *vrm.RangeMap {
	if r == nil {
		return nil
	}
	l, rr := eyeAngles(&r.Left), eyeAngles(&r.Right)
	v := float32(math.Min(float64(l.Y), float64(rr.Y)))
	if vertical {
		v = float32(math.Min(float64(l.X), float64(rr.X)))
	}
	return &vrm.RangeMap{InputMaxValue: v, OutputScale: 1}
}

func convertLookAt(root, head *scene.Object, desc *scene.AvatarDescriptor) *vrm.LookAt {
	lookAt := &vrm.LookAt{Type: vrm.LookAtTypeBone, OffsetFromHeadBone: defaultLookAtOffset}
	if desc == nil || head == nil {
		return lookAt
	}
	headPos := head.WorldPosition().Sub(root.WorldPosition())
	lookAt.OffsetFromHeadBone = desc.ViewPosition.Sub(headPos).MirrorX().Array()
	lookAt.RangeMapVerticalDown = rangeMap(desc.EyesLookingDown, true)
	lookAt.RangeMapVerticalUp = rangeMap(desc.EyesLookingUp, true)
	if desc.EyesLookingLeft != nil && desc.EyesLookingRight != nil {
		lookAt.RangeMapHorizontalInner = rangeMap(desc.EyesLookingLeft, false)
		lookAt.RangeMapHorizontalOuter = rangeMap(desc.EyesLookingRight, false)
	}
	return lookAt
}
