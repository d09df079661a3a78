package scene

import "github.com/binzume/avatarconv/geom"

type LimitType int

const (
	LimitNone LimitType = iota
	LimitAngle
	LimitHinge
	LimitPolar
)

type MultiChildType int

const (
	MultiChildIgnore MultiChildType = iota
	MultiChildFirst
	MultiChildAverage
)

// PhysBone is a secondary-motion chain rooted at Root.
type PhysBone struct {
	Name    string
	Enabled bool
	// Owner is the object carrying the component.
	Owner *Object
	// Root defaults to Owner.
	Root   *Object
	Ignore []*Object

	MultiChildType MultiChildType
	LimitType      LimitType

	Pull           float32
	Spring         float32
	Stiffness      float32
	Gravity        float32
	GravityFalloff float32
	Immobile       float32
	Radius         float32
	MaxAngleX      float32

	PullCurve      *Curve
	SpringCurve    *Curve
	StiffnessCurve *Curve
	GravityCurve   *Curve
	ImmobileCurve  *Curve
	RadiusCurve    *Curve
	MaxAngleXCurve *Curve

	Colliders []*PhysBoneCollider
}

func (pb *PhysBone) RootObject() *Object {
	if pb.Root != nil {
		return pb.Root
	}
	return pb.Owner
}

func (pb *PhysBone) IsIgnored(o *Object) bool {
	for _, i := range pb.Ignore {
		if i == o {
			return true
		}
	}
	return false
}

type ColliderShape int

const (
	ColliderSphere ColliderShape = iota
	ColliderCapsule
	ColliderPlane
)

func (s ColliderShape) String() string {
	switch s {
	case ColliderSphere:
		return "Sphere"
	case ColliderCapsule:
		return "Capsule"
	case ColliderPlane:
		return "Plane"
	}
	return "Unknown"
}

// PhysBoneCollider position and rotation are local to Root.
type PhysBoneCollider struct {
	Owner *Object
	Root  *Object

	Shape        ColliderShape
	Radius       float32
	Height       float32
	Position     geom.Vector3
	Rotation     geom.Quaternion
	InsideBounds bool
}

func (c *PhysBoneCollider) RootObject() *Object {
	if c.Root != nil {
		return c.Root
	}
	return c.Owner
}

// Axis is the plane normal (local up rotated by Rotation).
func (c *PhysBoneCollider) Axis() *geom.Vector3 {
	return c.Rotation.ApplyTo(&geom.Vector3{Y: 1})
}
