package scene

import (
	"strings"

	"github.com/binzume/avatarconv/geom"
)

// Avatar bundles the scene root with the avatar-level components.
type Avatar struct {
	Root        *Object
	Humanoid    *Humanoid
	Descriptor  *AvatarDescriptor
	Expressions *ExpressionSettings
	Variants    []*MaterialVariant
	Meta        *Meta
}

// Humanoid maps Unity HumanBodyBones names (e.g. "LeftUpperArm") to objects.
type Humanoid struct {
	Bones map[string]*Object
}

func (h *Humanoid) Bone(name string) *Object {
	if h == nil {
		return nil
	}
	return h.Bones[name]
}

type LipSyncStyle int

const (
	LipSyncDefault LipSyncStyle = iota
	LipSyncJawFlapBone
	LipSyncJawFlapBlendShape
	LipSyncVisemeBlendShape
	LipSyncVisemeParameterOnly
)

type EyelidType int

const (
	EyelidNone EyelidType = iota
	EyelidBones
	EyelidBlendShapes
)

// Viseme indices into AvatarDescriptor.VisemeBlendShapes.
const (
	VisemeSil = iota
	VisemePP
	VisemeFF
	VisemeTH
	VisemeDD
	VisemeKK
	VisemeCH
	VisemeSS
	VisemeNN
	VisemeRR
	VisemeAa
	VisemeE
	VisemeIh
	VisemeOh
	VisemeOu
	VisemeCount
)

// EyeRotations are local rotations of both eyes for one look direction.
type EyeRotations struct {
	Left  geom.Quaternion
	Right geom.Quaternion
}

type AvatarDescriptor struct {
	ViewPosition geom.Vector3

	LipSync           LipSyncStyle
	VisemeRenderer    *Object
	VisemeBlendShapes []string

	EnableEyeLook     bool
	EyelidType        EyelidType
	EyelidsRenderer   *Object
	EyelidBlendShapes []int

	LeftEye          *Object
	RightEye         *Object
	EyesLookingUp    *EyeRotations
	EyesLookingDown  *EyeRotations
	EyesLookingLeft  *EyeRotations
	EyesLookingRight *EyeRotations
}

type ExpressionBaseType int

const (
	ExpressionBlendShape ExpressionBaseType = iota
	ExpressionAnimationClip
)

const BlendShapePropertyPrefix = "blendShape."

type CurveBinding struct {
	Path     string
	Property string
	Curve    *Curve
}

type AnimationClip struct {
	Name     string
	Bindings []*CurveBinding
}

// Override is one of "none", "block" or "blend".
type Override string

type Expression struct {
	Name           string
	BaseType       ExpressionBaseType
	BlendShapeName string
	Clip           *AnimationClip
	IsBinary       bool
	OverrideBlink  Override
	OverrideLookAt Override
	OverrideMouth  Override
}

func (e *Expression) IsValid() bool {
	if e == nil {
		return false
	}
	switch e.BaseType {
	case ExpressionBlendShape:
		return e.BlendShapeName != ""
	case ExpressionAnimationClip:
		return e.Clip != nil
	}
	return false
}

// CanonicalName is the key used for custom expressions.
func (e *Expression) CanonicalName() string {
	name := strings.TrimSpace(e.Name)
	if name == "" && e.BaseType == ExpressionBlendShape {
		name = e.BlendShapeName
	}
	if name == "" && e.Clip != nil {
		name = e.Clip.Name
	}
	return name
}

type ExpressionSettings struct {
	Happy     *Expression
	Angry     *Expression
	Sad       *Expression
	Relaxed   *Expression
	Surprised *Expression
	Custom    []*Expression
}

type MaterialMapping struct {
	Renderer *Object
	// Materials are per submesh. nil keeps the original material.
	Materials []*Material
}

type MaterialVariant struct {
	Name     string
	Mappings []*MaterialMapping
}

// Meta is the author supplied license information.
type Meta struct {
	Name               string
	Version            string
	Authors            []string
	Copyright          string
	Contact            string
	References         []string
	LicenseURL         string
	ThirdPartyLicenses string
	OtherLicenseURL    string

	AvatarPermission string
	CommercialUsage  string
	CreditNotation   string
	Modification     string

	AllowRedistribution            bool
	AllowExcessivelyViolentUsage   bool
	AllowExcessivelySexualUsage    bool
	AllowPoliticalOrReligiousUsage bool
	AllowAntisocialOrHateUsage     bool

	Thumbnail *Texture
}
