package scene

import "github.com/binzume/avatarconv/geom"

type ConstraintKind int

const (
	ConstraintNone ConstraintKind = iota
	ConstraintAim
	ConstraintRotation
	// ConstraintFrozenParent is a parent constraint without sources.
	ConstraintFrozenParent
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintAim:
		return "Aim"
	case ConstraintRotation:
		return "Rotation"
	case ConstraintFrozenParent:
		return "FrozenParent"
	}
	return "None"
}

type ConstraintSource struct {
	Target *Object
	Weight float32
}

// Constraint is one constraint component reduced to the fields that can be exported.
type Constraint struct {
	Kind ConstraintKind
	// Component is the source component type, used for diagnostics.
	Component    string
	Active       bool
	GlobalWeight float32
	Sources      []ConstraintSource

	// AimAxis is used by ConstraintAim.
	AimAxis geom.Vector3
	// Affects* are used by ConstraintRotation.
	AffectsX bool
	AffectsY bool
	AffectsZ bool
}
