package vrm

// https://github.com/vrm-c/vrm-specification/tree/master/specification/VRMC_node_constraint-1.0

const (
	AxisPositiveX = "PositiveX"
	AxisNegativeX = "NegativeX"
	AxisPositiveY = "PositiveY"
	AxisNegativeY = "NegativeY"
	AxisPositiveZ = "PositiveZ"
	AxisNegativeZ = "NegativeZ"
)

type RollConstraint struct {
	Source   uint32  `json:"source"`
	RollAxis string  `json:"rollAxis"`
	Weight   float32 `json:"weight"`
}

type AimConstraint struct {
	Source  uint32  `json:"source"`
	AimAxis string  `json:"aimAxis"`
	Weight  float32 `json:"weight"`
}

type RotationConstraint struct {
	Source uint32  `json:"source"`
	Weight float32 `json:"weight"`
}

type Constraint struct {
	Roll     *RollConstraint     `json:"roll,omitempty"`
	Aim      *AimConstraint      `json:"aim,omitempty"`
	Rotation *RotationConstraint `json:"rotation,omitempty"`
}

type NodeConstraint struct {
	SpecVersion string     `json:"specVersion"`
	Constraint  Constraint `json:"constraint"`
}

func NewNodeConstraint(c Constraint) *NodeConstraint {
	return &NodeConstraint{SpecVersion: SpecVersion, Constraint: c}
}
