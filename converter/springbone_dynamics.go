package converter

import (
	"fmt"

	"github.com/binzume/avatarconv/geom"
	"github.com/binzume/avatarconv/scene"
	"github.com/binzume/avatarconv/vrm"
)

// DynamicsPolicy selects how PhysBone dynamics map to spring joint parameters.
type DynamicsPolicy int

const (
	// DynamicsDocument keeps stiffness close to the authored value and derives drag from pull.
	DynamicsDocument DynamicsPolicy = iota
	// DynamicsComponent applies power-law corrections to pull and spring.
	DynamicsComponent
)

func (p DynamicsPolicy) String() string {
	switch p {
	case DynamicsDocument:
		return "document"
	case DynamicsComponent:
		return "component"
	}
	return "unknown"
}

func ParseDynamicsPolicy(s string) (DynamicsPolicy, error) {
	switch s {
	case "", "document":
		return DynamicsDocument, nil
	case "component":
		return DynamicsComponent, nil
	}
	return DynamicsDocument, fmt.Errorf("unknown dynamics policy: %q", s)
}

// jointParams are PhysBone parameters evaluated at one depth ratio.
type jointParams struct {
	Pull           float32
	Spring         float32
	Stiffness      float32
	Gravity        float32
	GravityFalloff float32
	Immobile       float32
	Radius         float32
	MaxAngleX      float32
	Limited        bool
}

func evaluateJointParams(pb *scene.PhysBone, ratio float32) jointParams {
	return jointParams{
		Pull:           pb.PullCurve.EvaluateScaled(ratio, pb.Pull),
		Spring:         pb.SpringCurve.EvaluateScaled(ratio, pb.Spring),
		Stiffness:      pb.StiffnessCurve.EvaluateScaled(ratio, pb.Stiffness),
		Gravity:        pb.GravityCurve.EvaluateScaled(ratio, pb.Gravity),
		GravityFalloff: pb.GravityFalloff,
		Immobile:       pb.ImmobileCurve.EvaluateScaled(ratio, pb.Immobile),
		Radius:         pb.RadiusCurve.EvaluateScaled(ratio, pb.Radius),
		MaxAngleX:      pb.MaxAngleXCurve.EvaluateScaled(ratio, pb.MaxAngleX),
		Limited:        pb.LimitType != scene.LimitNone,
	}
}

// angleFactor is 1/clamp01(maxAngle/180), or 0 for a zero limit.
func angleFactor(maxAngle float32) float32 {
	if maxAngle <= 0 {
		return 0
	}
	return 1 / geom.Clamp01(maxAngle/180)
}

func (p DynamicsPolicy) Joint(node uint32, jp jointParams) *vrm.SpringJoint {
	joint := &vrm.SpringJoint{
		Node:       node,
		HitRadius:  jp.Radius,
		GravityDir: [3]float32{0, -1, 0},
	}
	switch p {
	case DynamicsComponent:
		var pf float32 = 1
		if jp.Limited {
			pf = angleFactor(jp.MaxAngleX)
		}
		joint.Stiffness = geom.Pow(max(jp.Pull*pf, 0), 3.0/4.0) * 4
		joint.DragForce = geom.Pow(geom.Clamp01(1-jp.Spring), 2.0/3.0)
		joint.GravityPower = jp.Gravity * (1 - jp.GravityFalloff)
	default:
		immobile := jp.Immobile * 0.5
		var sf, pf float32 = 1, 1
		if jp.Limited {
			sf = angleFactor(jp.MaxAngleX)
			pf = sf * 0.5
		}
		joint.Stiffness = immobile + jp.Stiffness*sf
		joint.DragForce = geom.Clamp01(immobile + jp.Pull*pf)
		joint.GravityPower = jp.Gravity
	}
	return joint
}
